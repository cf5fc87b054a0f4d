package cache

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// TTL configuration constants and defaults.
const (
	// DefaultTTLSeconds applies to categories without an explicit TTL (1 hour).
	DefaultTTLSeconds = 3600

	// DefaultMetadataTTLSeconds is the default TTL for video metadata (1 hour).
	DefaultMetadataTTLSeconds = 3600

	// DefaultCommentsTTLSeconds is the default TTL for comment pages (2 hours).
	DefaultCommentsTTLSeconds = 7200

	// DefaultSearchTTLSeconds is the default TTL for search results (6 hours).
	DefaultSearchTTLSeconds = 21600

	// MinTTLSeconds is the minimum TTL accepted from configuration (1 minute).
	MinTTLSeconds = 60

	// MaxTTLSeconds is the maximum TTL accepted from configuration (7 days).
	MaxTTLSeconds = 604800

	// EnvTTLSeconds overrides the TTL of every category.
	EnvTTLSeconds = "YOUSEO_CACHE_TTL_SECONDS"

	// EnvCacheEnabled enables or disables the cache.
	EnvCacheEnabled = "YOUSEO_CACHE_ENABLED"

	// EnvCacheDir overrides the cache directory.
	EnvCacheDir = "YOUSEO_CACHE_DIR"

	// EnvCacheBackend selects the storage backend (file or sqlite).
	EnvCacheBackend = "YOUSEO_CACHE_BACKEND"
)

// ErrInvalidTTL is returned for TTLs outside [MinTTLSeconds, MaxTTLSeconds].
var ErrInvalidTTL = fmt.Errorf("TTL must be between %d and %d seconds", MinTTLSeconds, MaxTTLSeconds)

// TTLConfig holds the per-category TTLs used when FetchCache writes entries.
type TTLConfig struct {
	// DefaultSeconds applies to any category missing from PerCategory.
	DefaultSeconds int

	// PerCategory maps a category to its TTL in seconds.
	PerCategory map[Category]int
}

// DefaultTTLConfig returns the built-in TTLs.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		DefaultSeconds: DefaultTTLSeconds,
		PerCategory: map[Category]int{
			CategoryMetadata: DefaultMetadataTTLSeconds,
			CategoryComments: DefaultCommentsTTLSeconds,
			CategorySearch:   DefaultSearchTTLSeconds,
		},
	}
}

// For returns the TTL in seconds for category.
func (c TTLConfig) For(category Category) int {
	if ttl, ok := c.PerCategory[category]; ok && ttl > 0 {
		return ttl
	}
	if c.DefaultSeconds > 0 {
		return c.DefaultSeconds
	}
	return DefaultTTLSeconds
}

// WithOverride returns a copy where every category uses seconds.
func (c TTLConfig) WithOverride(seconds int) TTLConfig {
	out := TTLConfig{DefaultSeconds: seconds, PerCategory: make(map[Category]int, len(c.PerCategory))}
	for category := range c.PerCategory {
		out.PerCategory[category] = seconds
	}
	return out
}

// Validate checks every configured TTL against the allowed range.
func (c TTLConfig) Validate() error {
	if c.DefaultSeconds != 0 {
		if err := ValidateTTL(c.DefaultSeconds); err != nil {
			return fmt.Errorf("default TTL: %w", err)
		}
	}
	for category, ttl := range c.PerCategory {
		if err := category.Validate(); err != nil {
			return err
		}
		if err := ValidateTTL(ttl); err != nil {
			return fmt.Errorf("%s TTL: %w", category, err)
		}
	}
	return nil
}

// ValidateTTL checks seconds against [MinTTLSeconds, MaxTTLSeconds].
func ValidateTTL(seconds int) error {
	if seconds < MinTTLSeconds || seconds > MaxTTLSeconds {
		return fmt.Errorf("%w: got %d", ErrInvalidTTL, seconds)
	}
	return nil
}

// GetTTLFromEnv reads the TTL override from the environment.
// The second return value is false when the variable is unset or invalid.
func GetTTLFromEnv() (int, bool) {
	envVal := os.Getenv(EnvTTLSeconds)
	if envVal == "" {
		return 0, false
	}

	ttl, err := ParseTTL(envVal)
	if err != nil {
		return 0, false
	}
	return ttl, true
}

// GetCacheEnabledFromEnv reads the enabled flag from the environment.
// The second return value is false when the variable is unset or unparsable.
func GetCacheEnabledFromEnv() (bool, bool) {
	envVal := os.Getenv(EnvCacheEnabled)
	if envVal == "" {
		return false, false
	}

	enabled, err := strconv.ParseBool(envVal)
	if err != nil {
		return false, false
	}
	return enabled, true
}

// GetCacheDirFromEnv returns the directory override, or "".
func GetCacheDirFromEnv() string {
	return os.Getenv(EnvCacheDir)
}

// GetCacheBackendFromEnv returns the backend override, lower-cased, or "".
func GetCacheBackendFromEnv() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv(EnvCacheBackend)))
}

// ttlUnits are the units FormatTTL renders, largest first.
//
//nolint:gochecknoglobals // Read-only lookup table.
var ttlUnits = []struct {
	seconds int
	suffix  string
}{
	{86400, "d"},
	{3600, "h"},
	{60, "m"},
	{1, "s"},
}

// FormatTTL renders a lifetime given in seconds with every non-zero unit,
// largest first: 3600 is "1h", 5400 is "1h30m", 90061 is "1d1h1m1s".
func FormatTTL(seconds int) string {
	if seconds <= 0 {
		return "0s"
	}
	var b strings.Builder
	for _, u := range ttlUnits {
		if n := seconds / u.seconds; n > 0 {
			fmt.Fprintf(&b, "%d%s", n, u.suffix)
			seconds %= u.seconds
		}
	}
	return b.String()
}

// ParseTTL parses a TTL given as integer seconds ("3600") or as a Go
// duration ("1h", "90m") and validates the range.
func ParseTTL(s string) (int, error) {
	s = strings.TrimSpace(s)
	if seconds, err := strconv.Atoi(s); err == nil {
		if validateErr := ValidateTTL(seconds); validateErr != nil {
			return 0, validateErr
		}
		return seconds, nil
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid TTL format: %w", err)
	}

	seconds := int(duration.Seconds())
	if validateErr := ValidateTTL(seconds); validateErr != nil {
		return 0, validateErr
	}
	return seconds, nil
}
