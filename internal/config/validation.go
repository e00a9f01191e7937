package config

import (
	"git.home.luguber.info/inful/csmon/internal/catalog"
	"git.home.luguber.info/inful/csmon/internal/checksum"
	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/persist"
)

// Validate checks a defaulted configuration.
func Validate(cfg *Config) error {
	validators := []func(*Config) error{
		validateScheduler,
		validateMemory,
		validatePersistence,
		validateReports,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateScheduler(cfg *Config) error {
	if _, err := checksum.New(cfg.Scheduler.Checksum); err != nil {
		return err
	}
	if _, err := cfg.Scheduler.Defaults(); err != nil {
		return err
	}
	return nil
}

func validateMemory(cfg *Config) error {
	if len(cfg.Memory.Mappings) == 0 {
		return ferrors.ConfigError("memory.mappings must not be empty").Build()
	}
	for i, m := range cfg.Memory.Mappings {
		if m.Path == "" {
			return ferrors.ConfigError("memory mapping requires a path").WithContext("index", i).Build()
		}
	}
	return nil
}

func validatePersistence(cfg *Config) error {
	p := cfg.Persistence
	if _, err := backendNormalizer.Parse(string(p.Backend)); err != nil {
		return err
	}
	switch p.Backend {
	case PersistenceNone, PersistenceMemory:
	case PersistenceFile, PersistenceSQLite:
		if p.Path == "" {
			return ferrors.ConfigError("persistence.path is required").WithContext("backend", string(p.Backend)).Build()
		}
	case PersistenceNATSKV:
		if p.NATS.URL == "" {
			return ferrors.ConfigError("persistence.nats.url is required").Build()
		}
	default:
		return ferrors.ConfigError("unknown persistence backend").WithContext("backend", string(p.Backend)).Build()
	}
	return nil
}

func validateReports(cfg *Config) error {
	if n := cfg.Reports.NATS; n != nil && n.URL == "" {
		return ferrors.ConfigError("reports.nats.url is required").Build()
	}
	if cfg.HTTP.RateLimit < 0 {
		return ferrors.ConfigError("http.rate_limit must not be negative").Build()
	}
	return nil
}

// Defaults resolves the power-on enable flags. Types not listed are enabled.
func (s SchedulerConfig) Defaults() (persist.EnableState, error) {
	state := persist.AllEnabled()
	for name, enabled := range s.Enabled {
		t, err := catalog.ParseResourceType(name)
		if err != nil {
			return state, err
		}
		state = state.With(t, enabled)
	}
	return state, nil
}
