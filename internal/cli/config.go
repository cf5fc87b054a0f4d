package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rshade/youseo/internal/config"
)

// redactedKey replaces the API key in config show.
const redactedKey = "********"

// newConfigInitCmd creates the config init command. It runs without loading
// the existing configuration, so it can replace an invalid file.
func newConfigInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration file with default values",
		Example: `  # Create the configuration file
  youseo config init

  # Overwrite an existing configuration file
  youseo config init --force`,
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				path = config.DefaultPath()
			}

			if !force {
				_, err := os.Stat(path)
				if err == nil {
					return errors.New("configuration file already exists, use --force to overwrite")
				}
				if !os.IsNotExist(err) {
					return fmt.Errorf("cannot access config path %s: %w", path, err)
				}
			}

			if err := config.New().Save(path); err != nil {
				return err
			}
			cmd.Printf("Configuration written to %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing configuration file")
	return cmd
}

func newConfigShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			shown := *a.cfg
			if shown.YouTube.APIKey != "" {
				shown.YouTube.APIKey = redactedKey
			}
			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("marshalling config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# %s\n%s", a.cfg.Path(), data)
			return nil
		},
	}
}

func newConfigValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Loading already validated the file; an invalid one never gets here.
			cmd.Printf("Configuration is valid: %s\n", a.cfg.Path())
			if a.cfg.YouTube.APIKey == "" {
				cmd.PrintErrf("Warning: no YouTube API key configured (set %s or youtube.api_key)\n", config.EnvAPIKey)
			}
			return nil
		},
	}
}
