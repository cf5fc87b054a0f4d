// Package config loads the youseo configuration file and applies environment
// overrides on top of it.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/rshade/youseo/internal/engine/cache"
)

const (
	// EnvHome relocates the configuration and cache directories.
	EnvHome = "YOUSEO_HOME"

	// EnvLogLevel overrides logging.level.
	EnvLogLevel = "YOUSEO_LOG_LEVEL"

	// EnvAPIKey overrides youtube.api_key.
	EnvAPIKey = "YOUTUBE_API_KEY"

	appName        = "youseo"
	configFileName = "config.yaml"
)

// Output formats accepted by output.default_format and --output.
const (
	FormatJSON   = "json"
	FormatNDJSON = "ndjson"
	FormatTable  = "table"
	FormatCSV    = "csv"
)

// Defaults used by New.
const (
	DefaultWorkers        = 4
	DefaultItemTimeout    = 2 * time.Minute
	DefaultMaxComments    = 100
	DefaultRelatedResults = 5
	DefaultQuotaCooldown  = 15 * time.Minute

	maxWorkers        = 32
	maxRelatedResults = 50
)

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// OutputFormats lists the accepted output format names.
//
//nolint:gochecknoglobals // Read-only lookup list.
var OutputFormats = []string{FormatJSON, FormatNDJSON, FormatTable, FormatCSV}

// Config is the full youseo configuration.
type Config struct {
	Cache   CacheConfig   `yaml:"cache"`
	Batch   BatchConfig   `yaml:"batch"`
	YouTube YouTubeConfig `yaml:"youtube"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`

	path string
}

// CacheConfig is the cache section.
type CacheConfig struct {
	Enabled   bool     `yaml:"enabled"`
	Backend   string   `yaml:"backend"`
	Directory string   `yaml:"directory"`
	TTL       TTLTable `yaml:"ttl"`
	AutoSweep bool     `yaml:"auto_sweep"`
}

// TTLTable holds the per-category entry lifetimes.
type TTLTable struct {
	Default  TTL `yaml:"default"`
	Metadata TTL `yaml:"metadata"`
	Comments TTL `yaml:"comments"`
	Search   TTL `yaml:"search"`
}

// BatchConfig is the batch section.
type BatchConfig struct {
	Workers     int      `yaml:"workers"`
	ItemTimeout Duration `yaml:"item_timeout"`
	MaxComments int      `yaml:"max_comments"`
}

// YouTubeConfig is the youtube section.
type YouTubeConfig struct {
	APIKey         string   `yaml:"api_key"`
	RelatedResults int      `yaml:"related_results"`
	QuotaCooldown  Duration `yaml:"quota_cooldown"`
}

// OutputConfig is the output section.
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// LoggingConfig is the logging section.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	File   string `yaml:"file"`
}

// TTL is a cache lifetime in seconds. In YAML it is written either as
// integer seconds or as a Go duration string.
type TTL int

// UnmarshalYAML parses and range-checks the TTL.
func (t *TTL) UnmarshalYAML(node *yaml.Node) error {
	seconds, err := cache.ParseTTL(node.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	*t = TTL(seconds)
	return nil
}

// MarshalYAML writes the TTL as integer seconds.
func (t TTL) MarshalYAML() (interface{}, error) {
	return int(t), nil
}

// Duration is a time.Duration written as a Go duration string in YAML.
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	parsed, err := time.ParseDuration(strings.TrimSpace(node.Value))
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", node.Line, node.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML writes the duration as a Go duration string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the duration as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// HomeDir returns the youseo configuration directory: $YOUSEO_HOME when set,
// otherwise the XDG config directory.
func HomeDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return home
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

// DefaultPath returns the path of the configuration file.
func DefaultPath() string {
	return filepath.Join(HomeDir(), configFileName)
}

// DefaultCacheDir returns $YOUSEO_HOME/cache when YOUSEO_HOME is set,
// otherwise the XDG cache directory.
func DefaultCacheDir() string {
	if home := os.Getenv(EnvHome); home != "" {
		return filepath.Join(home, "cache")
	}
	return filepath.Join(xdg.CacheHome, appName)
}

// New returns the built-in defaults.
func New() *Config {
	return &Config{
		Cache: CacheConfig{
			Enabled:   true,
			Backend:   cache.BackendFile,
			Directory: DefaultCacheDir(),
			TTL: TTLTable{
				Default:  cache.DefaultTTLSeconds,
				Metadata: cache.DefaultMetadataTTLSeconds,
				Comments: cache.DefaultCommentsTTLSeconds,
				Search:   cache.DefaultSearchTTLSeconds,
			},
		},
		Batch: BatchConfig{
			Workers:     DefaultWorkers,
			ItemTimeout: Duration(DefaultItemTimeout),
			MaxComments: DefaultMaxComments,
		},
		YouTube: YouTubeConfig{
			RelatedResults: DefaultRelatedResults,
			QuotaCooldown:  Duration(DefaultQuotaCooldown),
		},
		Output: OutputConfig{DefaultFormat: FormatTable},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the configuration file at path on top of the defaults, applies
// environment overrides and validates the result.
// An empty path means DefaultPath, which may be absent; an explicit path must
// exist.
func Load(path string) (*Config, error) {
	cfg := New()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	cfg.path = path

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err = yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg.ApplyEnv()
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the configuration was loaded from.
func (c *Config) Path() string {
	if c.path == "" {
		return DefaultPath()
	}
	return c.path
}

// Save writes the configuration to path, creating parent directories.
// The file may hold an API key, so it is written with owner-only permissions.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err = os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err = os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	c.path = path
	return nil
}

// ApplyEnv applies the environment overrides.
func (c *Config) ApplyEnv() {
	if enabled, ok := cache.GetCacheEnabledFromEnv(); ok {
		c.Cache.Enabled = enabled
	}
	if dir := cache.GetCacheDirFromEnv(); dir != "" {
		c.Cache.Directory = dir
	}
	if backend := cache.GetCacheBackendFromEnv(); backend != "" {
		c.Cache.Backend = backend
	}
	if ttl, ok := cache.GetTTLFromEnv(); ok {
		c.Cache.TTL.SetAll(ttl)
	}
	if level := os.Getenv(EnvLogLevel); level != "" {
		c.Logging.Level = level
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.YouTube.APIKey = key
	}
}

// SetAll sets every category to seconds.
func (t *TTLTable) SetAll(seconds int) {
	t.Default = TTL(seconds)
	t.Metadata = TTL(seconds)
	t.Comments = TTL(seconds)
	t.Search = TTL(seconds)
}

// TTLConfig converts the table for the cache package.
func (t TTLTable) TTLConfig() cache.TTLConfig {
	ttl := cache.TTLConfig{
		DefaultSeconds: int(t.Default),
		PerCategory:    make(map[cache.Category]int, len(cache.DefaultCategories)),
	}
	for category, seconds := range map[cache.Category]TTL{
		cache.CategoryMetadata: t.Metadata,
		cache.CategoryComments: t.Comments,
		cache.CategorySearch:   t.Search,
	} {
		if seconds > 0 {
			ttl.PerCategory[category] = int(seconds)
		}
	}
	return ttl
}

// StoreConfig returns the cache store configuration.
func (c *Config) StoreConfig() cache.Config {
	return cache.Config{
		Enabled:   c.Cache.Enabled,
		Backend:   c.Cache.Backend,
		Directory: c.Cache.Directory,
		TTL:       c.Cache.TTL.TTLConfig(),
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Cache.Backend) {
	case cache.BackendFile, cache.BackendSQLite:
	default:
		return fmt.Errorf("%w: cache.backend %q (valid: %s, %s)",
			ErrInvalidConfig, c.Cache.Backend, cache.BackendFile, cache.BackendSQLite)
	}
	if c.Cache.Enabled && c.Cache.Directory == "" {
		return fmt.Errorf("%w: cache.directory is required when the cache is enabled", ErrInvalidConfig)
	}
	if err := c.Cache.TTL.TTLConfig().Validate(); err != nil {
		return fmt.Errorf("%w: cache.ttl: %w", ErrInvalidConfig, err)
	}

	if c.Batch.Workers < 1 || c.Batch.Workers > maxWorkers {
		return fmt.Errorf("%w: batch.workers must be between 1 and %d, got %d",
			ErrInvalidConfig, maxWorkers, c.Batch.Workers)
	}
	if c.Batch.ItemTimeout < 0 {
		return fmt.Errorf("%w: batch.item_timeout cannot be negative", ErrInvalidConfig)
	}
	if c.Batch.MaxComments < 0 {
		return fmt.Errorf("%w: batch.max_comments cannot be negative", ErrInvalidConfig)
	}

	if c.YouTube.RelatedResults < 0 || c.YouTube.RelatedResults > maxRelatedResults {
		return fmt.Errorf("%w: youtube.related_results must be between 0 and %d, got %d",
			ErrInvalidConfig, maxRelatedResults, c.YouTube.RelatedResults)
	}
	if c.YouTube.QuotaCooldown < 0 {
		return fmt.Errorf("%w: youtube.quota_cooldown cannot be negative", ErrInvalidConfig)
	}

	if !slices.Contains(OutputFormats, c.Output.DefaultFormat) {
		return fmt.Errorf("%w: output.default_format %q (valid: %s)",
			ErrInvalidConfig, c.Output.DefaultFormat, strings.Join(OutputFormats, ", "))
	}
	return c.Logging.validate()
}
