package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Common cache errors.
var (
	ErrCacheDisabled   = errors.New("cache is disabled")
	ErrEmptyIdentifier = errors.New("cache identifier cannot be empty")
	ErrUnknownBackend  = errors.New("unknown cache backend")

	// errEntryMissing is returned by backends when no entry exists for a key.
	errEntryMissing = errors.New("cache entry not found")
)

// backend is the persistence layer behind Store.
// Implementations must make write atomic per key and must never remove an
// entry from sweep that is valid at the time it is examined.
type backend interface {
	name() string
	location() string
	read(category Category, key string) (*Entry, error)
	write(entry *Entry) error
	remove(category Category, key string) error
	clear(category Category) (int, error)
	sweep(now time.Time) (int, error)
	stats(now time.Time) (map[Category]CategoryStats, error)
	close() error
}

// Config configures a Store.
type Config struct {
	// Enabled turns caching on. A disabled store misses every Get and
	// ignores every Put.
	Enabled bool

	// Backend is BackendFile (default) or BackendSQLite.
	Backend string

	// Directory holds the cache files or the sqlite database.
	Directory string

	// TTL holds the per-category lifetimes used by FetchCache.
	TTL TTLConfig
}

// Option customizes a Store.
type Option func(*Store)

// WithLogger sets the logger used for swallowed storage failures.
func WithLogger(logger zerolog.Logger) Option {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithClock replaces time.Now, mainly for TTL boundary tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// Store is a TTL-aware persistent key/value store partitioned by category.
// It is safe for concurrent use.
type Store struct {
	enabled bool
	backend backend
	ttl     TTLConfig
	now     func() time.Time
	logger  zerolog.Logger
}

// NewStore opens the store described by cfg.
// The directory is created if it doesn't exist.
func NewStore(cfg Config, opts ...Option) (*Store, error) {
	s := &Store{
		enabled: cfg.Enabled,
		ttl:     cfg.TTL,
		now:     time.Now,
		logger:  zerolog.Nop(),
	}
	if s.ttl.DefaultSeconds == 0 && len(s.ttl.PerCategory) == 0 {
		s.ttl = DefaultTTLConfig()
	}
	for _, opt := range opts {
		opt(s)
	}
	if !cfg.Enabled {
		return s, nil
	}

	if cfg.Directory == "" {
		return nil, errors.New("cache directory cannot be empty")
	}

	var err error
	switch strings.ToLower(cfg.Backend) {
	case "", BackendFile:
		s.backend, err = newFileBackend(cfg.Directory)
	case BackendSQLite:
		s.backend, err = newSQLiteBackend(cfg.Directory)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

// NewDisabledStore returns a store that never caches.
func NewDisabledStore() *Store {
	return &Store{ttl: DefaultTTLConfig(), now: time.Now, logger: zerolog.Nop()}
}

// Enabled reports whether caching is active.
func (s *Store) Enabled() bool {
	return s != nil && s.enabled
}

// TTL returns the per-category lifetimes.
func (s *Store) TTL() TTLConfig {
	return s.ttl
}

// Backend returns the backend name, or "" when disabled.
func (s *Store) Backend() string {
	if !s.Enabled() {
		return ""
	}
	return s.backend.name()
}

// Get returns the payload stored for identifier when a valid entry exists.
// Expired entries are reported as misses and left in place for SweepExpired.
// Read or decode failures are logged and reported as misses.
func (s *Store) Get(category Category, identifier string) (json.RawMessage, bool) {
	if !s.Enabled() || identifier == "" {
		return nil, false
	}
	if err := category.Validate(); err != nil {
		s.logger.Warn().Err(err).Msg("cache get skipped")
		return nil, false
	}

	entry, err := s.backend.read(category, GenerateKey(category, identifier))
	if err != nil {
		if !errors.Is(err, errEntryMissing) {
			s.logger.Warn().
				Err(err).
				Str("category", string(category)).
				Str("identifier", identifier).
				Msg("cache read failed")
		}
		return nil, false
	}

	if !entry.IsValidAt(s.now()) {
		return nil, false
	}
	return entry.Payload, true
}

// Put stores payload for identifier, replacing any previous entry.
// Failures are logged and swallowed: a cache write never fails the caller.
func (s *Store) Put(category Category, identifier string, payload json.RawMessage, ttlSeconds int) {
	if !s.Enabled() {
		return
	}
	if err := s.put(category, identifier, payload, ttlSeconds); err != nil {
		s.logger.Warn().
			Err(err).
			Str("category", string(category)).
			Str("identifier", identifier).
			Msg("cache write failed")
	}
}

func (s *Store) put(category Category, identifier string, payload json.RawMessage, ttlSeconds int) error {
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if err := category.Validate(); err != nil {
		return err
	}
	if !json.Valid(payload) {
		return errors.New("payload is not valid JSON")
	}
	if ttlSeconds <= 0 {
		ttlSeconds = s.ttl.For(category)
	}
	return s.backend.write(NewEntry(category, identifier, payload, ttlSeconds, s.now()))
}

// Invalidate removes the entry for identifier. Removing an absent entry is not
// an error.
func (s *Store) Invalidate(category Category, identifier string) error {
	if !s.Enabled() {
		return ErrCacheDisabled
	}
	if identifier == "" {
		return ErrEmptyIdentifier
	}
	if err := category.Validate(); err != nil {
		return err
	}
	if err := s.backend.remove(category, GenerateKey(category, identifier)); err != nil {
		return fmt.Errorf("invalidating %s entry: %w", category, err)
	}
	return nil
}

// Clear removes every entry of category, or of all categories when category
// is CategoryAll. It returns the number of entries removed.
func (s *Store) Clear(category Category) (int, error) {
	if !s.Enabled() {
		return 0, ErrCacheDisabled
	}
	if category != CategoryAll {
		if err := category.Validate(); err != nil {
			return 0, err
		}
	}
	removed, err := s.backend.clear(category)
	if err != nil {
		return removed, fmt.Errorf("clearing %s cache: %w", category, err)
	}
	s.logger.Debug().
		Str("category", category.String()).
		Int("removed", removed).
		Msg("cache cleared")
	return removed, nil
}

// SweepExpired removes every expired or unreadable entry and returns how many
// were removed.
func (s *Store) SweepExpired() (int, error) {
	if !s.Enabled() {
		return 0, ErrCacheDisabled
	}
	removed, err := s.backend.sweep(s.now())
	if err != nil {
		return removed, fmt.Errorf("sweeping cache: %w", err)
	}
	s.logger.Debug().Int("removed", removed).Msg("cache swept")
	return removed, nil
}

// Stats reports entry counts and sizes per category.
func (s *Store) Stats() (Stats, error) {
	if !s.Enabled() {
		return Stats{Enabled: false}, ErrCacheDisabled
	}
	perCategory, err := s.backend.stats(s.now())
	if err != nil {
		return Stats{}, fmt.Errorf("collecting cache stats: %w", err)
	}
	st := newStats(s.backend.name(), s.backend.location(), perCategory)
	st.TTLSeconds = make(map[Category]int, len(st.Categories))
	for c := range st.Categories {
		st.TTLSeconds[c] = s.ttl.For(c)
	}
	return st, nil
}

// Close releases backend resources.
func (s *Store) Close() error {
	if !s.Enabled() {
		return nil
	}
	return s.backend.close()
}
