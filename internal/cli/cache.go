package cli

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/youseo/internal/config"
	"github.com/rshade/youseo/internal/engine/cache"
	"github.com/rshade/youseo/internal/logging"
)

// openMaintenanceStore opens the configured cache even when caching is
// disabled, so stale entries can still be inspected and removed.
func (a *app) openMaintenanceStore() (*cache.Store, error) {
	sc := a.cfg.StoreConfig()
	sc.Enabled = true
	store, err := cache.NewStore(sc, cache.WithLogger(logging.ComponentLogger(a.logger, "cache")))
	if err != nil {
		return nil, fmt.Errorf("opening cache: %w", err)
	}
	return store, nil
}

func newCacheStatsCmd(a *app) *cobra.Command {
	var (
		sweep  bool
		output string
	)

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show cache entry counts and sizes per category",
		Example: `  # Show statistics
  youseo cache stats

  # Show statistics, then remove expired entries
  youseo cache stats --sweep`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if output != config.FormatTable && output != config.FormatJSON {
				return fmt.Errorf("unsupported output format %q (valid: table, json)", output)
			}

			store, err := a.openMaintenanceStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			stats, err := store.Stats()
			if err != nil {
				return err
			}
			stats.Enabled = a.cfg.Cache.Enabled

			if output == config.FormatJSON {
				err = writeJSON(cmd.OutOrStdout(), stats)
			} else {
				err = renderCacheStats(cmd.OutOrStdout(), stats, a.styled)
			}
			if err != nil {
				return err
			}

			if sweep {
				removed, sweepErr := store.SweepExpired()
				if sweepErr != nil {
					return sweepErr
				}
				cmd.PrintErrf("Removed %d expired entries\n", removed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&sweep, "sweep", false, "remove expired entries after printing")
	cmd.Flags().StringVar(&output, "output", config.FormatTable, "output format: table or json")
	return cmd
}

func newCacheClearCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove cached entries",
		Example: `  # Remove everything
  youseo cache clear

  # Remove cached comment pages only
  youseo cache clear --category comments`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openMaintenanceStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.Clear(cache.Category(category))
			if err != nil {
				return err
			}
			scope := "all categories"
			if category != "" {
				scope = category
			}
			cmd.Printf("Removed %d entries from %s\n", removed, scope)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only clear this category (metadata, comments, search)")
	return cmd
}

func newCacheSweepCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Remove expired and unreadable entries",
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := a.openMaintenanceStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			removed, err := store.SweepExpired()
			if err != nil {
				return err
			}
			cmd.Printf("Removed %d expired entries\n", removed)
			return nil
		},
	}
}

func newCacheInvalidateCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "invalidate --category CATEGORY IDENTIFIER",
		Short: "Remove one cached entry",
		Args:  cobra.ExactArgs(1),
		Example: `  # Forget the cached metadata of one video
  youseo cache invalidate --category metadata dQw4w9WgXcQ`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if category == "" {
				return errors.New("--category is required")
			}

			store, err := a.openMaintenanceStore()
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err = store.Invalidate(cache.Category(category), args[0]); err != nil {
				return err
			}
			cmd.Printf("Invalidated %s entry %s\n", category, args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "category of the entry (metadata, comments, search)")
	return cmd
}

// renderCacheStats writes the per-category table and the totals.
func renderCacheStats(w io.Writer, stats cache.Stats, styled bool) error {
	p := message.NewPrinter(language.English)

	status := "enabled"
	if !stats.Enabled {
		status = "disabled"
	}
	title := "CACHE STATISTICS"
	if styled {
		title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33")).Render(title)
	}
	fmt.Fprintln(w, title)
	fmt.Fprintf(w, "Status:   %s\n", status)
	fmt.Fprintf(w, "Backend:  %s\n", stats.Backend)
	fmt.Fprintf(w, "Location: %s\n\n", stats.Location)

	tw := tabwriter.NewWriter(w, 0, 0, tabPadding, ' ', 0)
	fmt.Fprintln(tw, "CATEGORY\tTTL\tENTRIES\tVALID\tEXPIRED\tSIZE")
	for _, category := range stats.SortedCategories() {
		cs := stats.Categories[category]
		ttl := "-"
		if seconds, ok := stats.TTLSeconds[category]; ok {
			ttl = cache.FormatTTL(seconds)
		}
		p.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%.2f MB\n",
			category, ttl, cs.TotalEntries, cs.ValidEntries, cs.ExpiredEntries,
			float64(cs.SizeBytes)/(1024*1024))
	}
	p.Fprintf(tw, "total\t\t%d\t%d\t%d\t%.2f MB\n",
		stats.TotalEntries, stats.TotalEntries-stats.ExpiredEntries(), stats.ExpiredEntries(), stats.TotalSizeMB())
	return tw.Flush()
}
