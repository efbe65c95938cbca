package cli

import (
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/zamaforge/zforge/internal/config"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and initialize the zforge configuration file.`,
	}

	configInitCmd = &cobra.Command{
		Use:   "init",
		Short: "Write the default configuration",
		Long: `Create a default configuration file at ~/.zforge/config.yaml.

An existing file is kept unless --force is given.`,
		Example: `  zforge config init
  zforge config init --force`,
		Args: cobra.NoArgs,
		RunE: runConfigInit,
	}

	configShowCmd = &cobra.Command{
		Use:     "show",
		Short:   "Show the effective configuration",
		Example: `  zforge config show -o json`,
		Args:    cobra.NoArgs,
		RunE:    runConfigShow,
	}

	configForce bool
)

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd, configShowCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "overwrite an existing configuration")
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := config.Path(cfg.Home)
	if _, err := os.Stat(path); err == nil && !configForce {
		return zferr.WithSuggestion(
			zferr.WithDetails(zferr.ErrInvalidInput, map[string]string{"path": path}),
			"Configuration already exists; use --force to overwrite",
		)
	}

	defaults := config.Defaults()
	defaults.Home = cfg.Home
	if err := config.Save(defaults, path); err != nil {
		return err
	}
	logger.Debug("wrote default configuration to %s", path)

	if formatter.IsJSON() {
		return formatter.Print(map[string]string{"status": "created", "path": path})
	}
	outln(cmd.OutOrStdout(), "Configuration written to "+path)
	return nil
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		messenger.Warn("configuration is invalid: %v", err)
	}
	if formatter.IsJSON() {
		return formatter.Print(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	out(cmd.OutOrStdout(), "%s", data)
	return nil
}
