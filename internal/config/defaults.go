package config

import (
	"time"

	"git.home.luguber.info/inful/csmon/internal/checksum"
	"git.home.luguber.info/inful/csmon/internal/foundation/normalization"
	"git.home.luguber.info/inful/csmon/internal/persist"
)

const (
	DefaultByteBudget  = 4096
	DefaultTickPeriod  = time.Second
	DefaultHTTPAddr    = ":8090"
	DefaultBusBuffer   = 64
	DefaultHistoryPath = "csmon-history.db"
	DefaultNATSBucket  = "csmon"
	DefaultRateLimit   = 20
	DefaultBurst       = 40
)

// normalize case-folds enumerations before defaults are applied.
func normalize(cfg *Config) {
	cfg.Logging.Level = NormalizeLogLevel(string(cfg.Logging.Level))
	cfg.Logging.Format = NormalizeLogFormat(string(cfg.Logging.Format))
	if b, ok := backendNormalizer.Lookup(string(cfg.Persistence.Backend)); ok {
		cfg.Persistence.Backend = b
	}
	cfg.Scheduler.Checksum = normalization.Clean(cfg.Scheduler.Checksum)
}

func applyDefaults(cfg *Config) {
	if cfg.Scheduler.ByteBudget == 0 {
		cfg.Scheduler.ByteBudget = DefaultByteBudget
	}
	if cfg.Scheduler.TickPeriod <= 0 {
		cfg.Scheduler.TickPeriod = DefaultTickPeriod
	}
	if cfg.Scheduler.Checksum == "" {
		cfg.Scheduler.Checksum = checksum.AlgorithmXXHash
	}

	if cfg.Persistence.Backend == "" {
		cfg.Persistence.Backend = PersistenceNone
	}
	if cfg.Persistence.Key == "" {
		cfg.Persistence.Key = persist.DefaultKey
	}
	if cfg.Persistence.Timeout <= 0 {
		cfg.Persistence.Timeout = 2 * time.Second
	}
	if cfg.Persistence.Backend == PersistenceNATSKV && cfg.Persistence.NATS.Bucket == "" {
		cfg.Persistence.NATS.Bucket = DefaultNATSBucket
	}

	if cfg.Reports.BusBuffer <= 0 {
		cfg.Reports.BusBuffer = DefaultBusBuffer
	}
	if cfg.Reports.History.Enabled && cfg.Reports.History.Path == "" {
		cfg.Reports.History.Path = DefaultHistoryPath
	}

	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = DefaultHTTPAddr
	}
	if cfg.HTTP.RateLimit == 0 {
		cfg.HTTP.RateLimit = DefaultRateLimit
	}
	if cfg.HTTP.Burst <= 0 {
		cfg.HTTP.Burst = DefaultBurst
	}
}
