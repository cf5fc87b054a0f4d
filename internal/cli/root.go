// Package cli implements the youseo command tree.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine"
	"github.com/rshade/youseo/internal/engine/cache"
	"github.com/rshade/youseo/internal/logging"
)

// isTerminal checks if the given file is a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// FetcherFactory builds the remote fetcher used by analyze and batch.
type FetcherFactory func(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (engine.EntityFetcher, error)

// RootOption customizes the root command.
type RootOption func(*app)

// WithFetcherFactory replaces the YouTube Data API fetcher.
func WithFetcherFactory(f FetcherFactory) RootOption {
	return func(a *app) {
		if f != nil {
			a.newFetcher = f
		}
	}
}

// app is the state shared by the commands of one invocation.
type app struct {
	cfg        *config.Config
	logger     zerolog.Logger
	logResult  *logging.LogPathResult
	newFetcher FetcherFactory
	styled     bool
}

// NewRootCmd creates the root Cobra command for the youseo CLI.
func NewRootCmd(ver string, opts ...RootOption) *cobra.Command {
	a := &app{
		newFetcher: newYouTubeFetcher,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}

	cmd := &cobra.Command{
		Use:           "youseo",
		Short:         "YouTube SEO analyzer",
		Long:          "youseo: analyze YouTube videos and recommend title, description and tag improvements",
		Version:       ver,
		Example:       rootCmdExample,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.styled = isTerminal(os.Stdout)

			result := setupLogging(cmd, cfg)
			a.logResult = &result
			a.logger = logging.ComponentLogger(result.Logger, "cli")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return cleanupLogging(cmd, a.logResult)
		},
	}

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().String("config", "", "path to the configuration file (default $YOUSEO_HOME/config.yaml)")
	cmd.PersistentFlags().
		String("cache-ttl", "", "cache TTL for every category, in seconds or as a duration (overrides config file and env var)")
	cmd.PersistentFlags().Bool("no-cache", false, "bypass the cache for reads (fresh results are still stored)")

	cmd.AddCommand(newAnalyzeCmd(a), newBatchCmd(a), newCacheCmd(a), newConfigCmd(a))
	return cmd
}

// loadConfig reads the configuration file and applies root flag overrides.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if raw, _ := cmd.Flags().GetString("cache-ttl"); raw != "" {
		ttl, ttlErr := cache.ParseTTL(raw)
		if ttlErr != nil {
			return nil, fmt.Errorf("invalid --cache-ttl: %w", ttlErr)
		}
		cfg.Cache.TTL.SetAll(ttl)
	}
	return cfg, nil
}

// bypassCache reports whether --no-cache was given.
func bypassCache(cmd *cobra.Command) bool {
	noCache, _ := cmd.Flags().GetBool("no-cache")
	return noCache
}

const rootCmdExample = `  # Analyze one video
  youseo analyze https://www.youtube.com/watch?v=dQw4w9WgXcQ

  # Analyze a list of videos with 8 workers and export CSV
  youseo batch --file videos.txt --workers 8 --output csv --output-file report.csv

  # Skip comment analysis and the cache
  youseo batch --no-comments --no-cache https://youtu.be/dQw4w9WgXcQ

  # Show cache statistics, then remove expired entries
  youseo cache stats --sweep

  # Write the default configuration file
  youseo config init`

// newCacheCmd creates the cache command group.
func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "cache", Short: "Cache management commands"}
	cmd.AddCommand(
		newCacheStatsCmd(a), newCacheClearCmd(a),
		newCacheSweepCmd(a), newCacheInvalidateCmd(a),
	)
	return cmd
}

// newConfigCmd creates the config command group.
func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "config", Short: "Configuration management commands"}
	cmd.AddCommand(newConfigInitCmd(), newConfigShowCmd(a), newConfigValidateCmd(a))
	return cmd
}
