// Package cli implements the zforge command-line interface.
//
// Command state lives in package-level variables, the usual Cobra layout.
// Globals are initialized in PersistentPreRunE and released in
// PersistentPostRun.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level state
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/zamaforge/zforge/internal/config"
	"github.com/zamaforge/zforge/internal/output"
	zferr "github.com/zamaforge/zforge/pkg/errors"
)

var (
	// Global flags
	homeDir      string
	outputFormat string
	verbose      bool
	assumeYes    bool

	// Global state initialized in PersistentPreRunE
	cfg       *config.Config
	logger    *config.Logger
	formatter *output.Formatter
	messenger *output.Messenger

	buildInfo BuildInfo
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// SetBuildInfo records the link-time build metadata.
func SetBuildInfo(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = FormatVersion(info)
}

// FormatVersion renders build metadata with placeholders for missing fields.
func FormatVersion(info BuildInfo) string {
	v, c, d := info.Version, info.Commit, info.Date
	if v == "" {
		v = "dev"
	}
	if c == "" {
		c = "unknown"
	}
	if d == "" {
		d = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

var rootCmd = &cobra.Command{
	Use:   "zforge",
	Short: "Confidential token dashboard for fhEVM chains",
	Long: `zforge manages confidential (FHE-encrypted) ERC-20 tokens from the terminal.

Amounts are encrypted client-side before they reach the chain, and balances
are decrypted through the relayer with a signed, time-limited authorization.

Example:
  zforge wallet import
  zforge faucet claim
  zforge balance decrypt cZAMA
  zforge transfer cZAMA 0xRecipient 1.5 --confidential`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initGlobals(cmd.OutOrStdout(), cmd.ErrOrStderr())
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		cleanup()
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the zforge version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if formatter.IsJSON() {
			return formatter.Print(buildInfo)
		}
		outln(cmd.OutOrStdout(), "zforge "+FormatVersion(buildInfo))
		return nil
	},
}

// Execute runs the root command and renders any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		format := output.FormatText
		if formatter != nil {
			format = formatter.Format()
		}
		_ = output.FormatError(os.Stderr, err, format)
	}
	return err
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	return zferr.ExitCode(err)
}

// initGlobals loads configuration and builds the logger and formatter.
func initGlobals(stdout, stderr io.Writer) error {
	home := homeDir
	if home == "" {
		home = os.Getenv(config.EnvHome)
	}
	if home == "" {
		home = config.DefaultHome()
	}

	loaded, err := config.Load(config.Path(home))
	switch {
	case err == nil:
		cfg = loaded
	case os.IsNotExist(err):
		cfg = config.Defaults()
	default:
		return err
	}
	cfg.Home = home

	config.ApplyEnvironment(cfg)
	if verbose {
		cfg.Output.Verbose = true
		cfg.Logging.Level = "debug"
	}
	if outputFormat != "" && outputFormat != string(output.FormatAuto) {
		cfg.Output.DefaultFormat = outputFormat
	}

	logger, err = config.NewLogger(config.ParseLogLevel(cfg.Logging.Level), cfg.Logging.File)
	if err != nil {
		logger = config.NullLogger()
	}

	format, err := output.ParseFormat(cfg.Output.DefaultFormat)
	if err != nil {
		return err
	}
	formatter = output.NewFormatter(format, stdout)
	messenger = output.NewMessenger(stderr, stderr, formatter.IsJSON())
	return nil
}

func cleanup() {
	if logger != nil {
		_ = logger.Close()
	}
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for flag registration
func init() {
	rootCmd.PersistentFlags().StringVar(&homeDir, "home", "", "zforge data directory (default: ~/.zforge)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "auto", "output format: text, json, auto")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "approve signatures and transactions without prompting")
	rootCmd.AddCommand(versionCmd)
}

func out(w io.Writer, format string, args ...any) {
	_, _ = fmt.Fprintf(w, format, args...)
}

func outln(w io.Writer, args ...any) {
	_, _ = fmt.Fprintln(w, args...)
}
