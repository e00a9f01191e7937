// Package config loads the csmon daemon configuration.
//
// Files are YAML with ${ENV} expansion. A .env or .env.local file in the working
// directory is loaded first and never overrides variables already set.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/csmon/internal/checksum"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/foundation/normalization"
	"git.home.luguber.info/inful/csmon/internal/memory"
)

// CurrentVersion is the only accepted value of Config.Version.
const CurrentVersion = "1"

// Config is the root of the configuration file.
type Config struct {
	Version     string            `yaml:"version"`
	Scheduler   SchedulerConfig   `yaml:"scheduler"`
	Memory      MemoryConfig      `yaml:"memory"`
	Tables      TablesConfig      `yaml:"tables"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Reports     ReportsConfig     `yaml:"reports"`
	HTTP        HTTPConfig        `yaml:"http"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// SchedulerConfig controls the tick loop.
type SchedulerConfig struct {
	ByteBudget uint64        `yaml:"byte_budget"`
	TickPeriod time.Duration `yaml:"tick_period"`
	Checksum   string        `yaml:"checksum"`
	// Enabled holds the power-on enable flag per resource type name. Missing types default to enabled.
	Enabled map[string]bool `yaml:"enabled,omitempty"`
}

// MemoryConfig maps files into the monitored address space.
type MemoryConfig struct {
	Mappings []memory.FileMapping `yaml:"mappings"`
}

// TablesConfig locates the region table file.
type TablesConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// PersistenceBackend selects where the enable state survives restarts.
type PersistenceBackend string

const (
	PersistenceNone   PersistenceBackend = "none"
	PersistenceMemory PersistenceBackend = "memory"
	PersistenceFile   PersistenceBackend = "file"
	PersistenceSQLite PersistenceBackend = "sqlite"
	PersistenceNATSKV PersistenceBackend = "nats_kv"
)

var backendNormalizer = normalization.New("persistence.backend", map[string]PersistenceBackend{
	"none":    PersistenceNone,
	"off":     PersistenceNone,
	"memory":  PersistenceMemory,
	"file":    PersistenceFile,
	"sqlite":  PersistenceSQLite,
	"nats_kv": PersistenceNATSKV,
	"nats":    PersistenceNATSKV,
}, PersistenceNone)

// PersistenceConfig configures the persistent enable state.
type PersistenceConfig struct {
	Backend PersistenceBackend `yaml:"backend"`
	Key     string             `yaml:"key"`
	// Path is a directory for the file backend and a database file for sqlite.
	Path    string        `yaml:"path,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
	NATS    NATSConfig    `yaml:"nats,omitempty"`
}

// NATSConfig is shared by the KV backend and the report publisher.
type NATSConfig struct {
	URL           string `yaml:"url"`
	Bucket        string `yaml:"bucket,omitempty"`
	SubjectPrefix string `yaml:"subject_prefix,omitempty"`
	QueueSize     int    `yaml:"queue_size,omitempty"`
}

// ReportsConfig selects report sinks. The log and metrics sinks are always active.
type ReportsConfig struct {
	BusBuffer int           `yaml:"bus_buffer"`
	NATS      *NATSConfig   `yaml:"nats,omitempty"`
	History   HistoryConfig `yaml:"history"`
}

// HistoryConfig configures the SQLite report history.
type HistoryConfig struct {
	Enabled      bool   `yaml:"enabled"`
	Path         string `yaml:"path"`
	RecordCycles bool   `yaml:"record_cycles"`
}

// HTTPConfig configures the admin API.
type HTTPConfig struct {
	Addr string `yaml:"addr"`
	// RateLimit is the sustained request rate per second; zero disables limiting.
	RateLimit float64 `yaml:"rate_limit"`
	Burst     int     `yaml:"burst"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Load reads, normalizes, defaults and validates a configuration file.
func Load(path string) (*Config, error) {
	if err := loadEnvFile(); err != nil {
		fmt.Fprintf(os.Stderr, "Note: %v\n", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ferrors.ConfigError("configuration file not found").WithContext("path", path).Build()
		}
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to read config file").WithContext("path", path).Build()
	}
	return Parse(data)
}

// Parse decodes configuration bytes after expanding environment variables.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
		return nil, ferrors.WrapError(err, ferrors.CategoryConfig, "failed to unmarshal config").Build()
	}
	if cfg.Version != CurrentVersion {
		return nil, ferrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).
			Build()
	}
	normalize(&cfg)
	applyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Example returns a configuration that runs against a single image file.
func Example() *Config {
	cfg := &Config{
		Version: CurrentVersion,
		Memory: MemoryConfig{Mappings: []memory.FileMapping{
			{Base: 0x10000, Path: "./image.bin"},
		}},
		Tables:      TablesConfig{Path: "./tables.yaml", Watch: true},
		Persistence: PersistenceConfig{Backend: PersistenceFile, Path: "./state"},
		Reports:     ReportsConfig{History: HistoryConfig{Enabled: true, Path: "./csmon-history.db"}},
		Scheduler:   SchedulerConfig{Checksum: checksum.AlgorithmXXHash},
	}
	applyDefaults(cfg)
	return cfg
}

// Init writes Example to path.
func Init(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return ferrors.ConfigError("configuration file already exists (use --force to overwrite)").
			WithContext("path", path).
			Build()
	}
	data, err := yaml.Marshal(Example())
	if err != nil {
		return ferrors.WrapError(err, ferrors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return ferrors.WrapError(err, ferrors.CategoryConfig, "failed to write config file").WithContext("path", path).Build()
	}
	return nil
}
