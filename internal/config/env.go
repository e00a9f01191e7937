package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

var envFiles = []string{".env", ".env.local"}

// loadEnvFile loads the first readable file of envFiles. Existing process variables win.
func loadEnvFile() error {
	for _, path := range envFiles {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("failed to load %s: %w", path, err)
		}
		return nil
	}
	return errors.New("no .env file found")
}
