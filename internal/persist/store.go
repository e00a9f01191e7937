package persist

import (
	"context"
	"log/slog"
	"sync"
	"time"

	ferrors "git.home.luguber.info/inful/csmon/internal/foundation/errors"
	"git.home.luguber.info/inful/csmon/internal/logfields"
)

// Backend is raw fixed-size buffer storage keyed by a stable handle.
type Backend interface {
	// Get returns the stored buffer. found is false when nothing was ever stored.
	Get(ctx context.Context, key string) (buf []byte, found bool, err error)
	Set(ctx context.Context, key string, buf []byte) error
	Name() string
}

// Health is the persistence tri-state.
type Health int

const (
	HealthUnknown Health = iota
	HealthHealthy
	HealthDisabled
)

func (h Health) String() string {
	switch h {
	case HealthHealthy:
		return "healthy"
	case HealthDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// DefaultKey is the storage handle used when none is configured.
const DefaultKey = "enable_state"

// Store is the PersistentStateStore. One failed attempt disables it for the
// remainder of the process lifetime; it never retries.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	key      string
	defaults EnableState
	timeout  time.Duration
	health   Health
	logger   *slog.Logger
}

// Option customises a Store.
type Option func(*Store)

// WithKey overrides the storage handle.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// WithTimeout bounds every backend call.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithLogger sets the logger used for downgrade messages.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore wraps backend. A nil backend yields a store that is disabled from the start.
func NewStore(backend Backend, defaults EnableState, opts ...Option) *Store {
	s := &Store{
		backend:  backend,
		key:      DefaultKey,
		defaults: defaults,
		timeout:  2 * time.Second,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if backend == nil {
		s.health = HealthDisabled
	}
	return s
}

// Health returns the current persistence health.
func (s *Store) Health() Health {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.health
}

// Defaults returns the power-on defaults.
func (s *Store) Defaults() EnableState { return s.defaults }

// Restore loads the persisted state. It always returns a usable state: the
// defaults when nothing was stored or the stored record is unusable. A non-nil
// error means persistence has been disabled for this run.
func (s *Store) Restore(ctx context.Context) (EnableState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.health == HealthDisabled {
		return s.defaults, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	buf, found, err := s.backend.Get(ctx, s.key)
	if err != nil {
		return s.defaults, s.downgrade(ferrors.WrapError(err, ferrors.CategoryPersistence, "restore enable state").
			WithContext("backend", s.backend.Name()).
			Build())
	}

	if !found {
		if err := s.backend.Set(ctx, s.key, s.defaults.Encode()); err != nil {
			return s.defaults, s.downgrade(ferrors.WrapError(err, ferrors.CategoryPersistence, "register enable state").
				WithContext("backend", s.backend.Name()).
				Build())
		}
		s.health = HealthHealthy
		return s.defaults, nil
	}

	state, err := Decode(buf)
	if err != nil {
		return s.defaults, s.downgrade(err)
	}
	s.health = HealthHealthy
	return state, nil
}

// Save writes state with a single attempt.
func (s *Store) Save(ctx context.Context, state EnableState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.health == HealthDisabled {
		return ErrPersistenceDisabled
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.backend.Set(ctx, s.key, state.Encode()); err != nil {
		return s.downgrade(ferrors.WrapError(err, ferrors.CategoryPersistence, "save enable state").
			WithContext("backend", s.backend.Name()).
			Build())
	}
	s.health = HealthHealthy
	return nil
}

func (s *Store) downgrade(err error) error {
	s.health = HealthDisabled
	name := "none"
	if s.backend != nil {
		name = s.backend.Name()
	}
	s.logger.Warn("Persistence disabled for this run",
		logfields.Backend(name),
		logfields.Error(err))
	return err
}

// BackendName names the configured backend.
func (s *Store) BackendName() string {
	if s.backend == nil {
		return "none"
	}
	return s.backend.Name()
}
