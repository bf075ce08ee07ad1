package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/ttylog/internal/cmd/config"
	appconfig "github.com/Iron-Ham/ttylog/internal/config"
	"github.com/Iron-Ham/ttylog/internal/errors"
)

var rootCmd = &cobra.Command{
	Use:   "ttylog",
	Short: "Record terminal output as the lines a person actually saw",
	Long: `ttylog reads raw terminal output (text mixed with backspaces, carriage
returns, cursor movement and erase sequences) and writes one timestamped record
per line containing the text as it finally appeared on screen.

Without a subcommand it works as a filter: raw output is read from stdin, or
from --input, and records are appended to a new file in today's log directory
(~/log/YYYY/MM/DD/ by default).

Examples:
  # Capture a serial console
  cat /dev/ttyUSB0 | ttylog

  # Reconstruct a saved typescript
  ttylog --input typescript

  # Keep following a file that is still being written
  ttylog --input session.raw --follow`,
	Args:          cobra.NoArgs,
	RunE:          runCapture,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// ExitCodeError carries an exit status to hand back to the shell without
// printing anything, such as the exit code of a recorded command.
type ExitCodeError struct {
	Code int
}

func (e *ExitCodeError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ExitCode maps an error returned by Execute to a process exit status.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ec *ExitCodeError
	if errors.As(err, &ec) {
		return ec.Code
	}
	return 1
}

// Execute runs the root command. Errors other than ExitCodeError are
// printed to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	reportError(rootCmd.ErrOrStderr(), err)
	return err
}

// reportError prints err to w. Typed ttylog errors print as-is; anything
// else is treated as a usage or configuration mistake and points at --help.
func reportError(w io.Writer, err error) {
	var ec *ExitCodeError
	if err == nil || errors.As(err, &ec) {
		return
	}
	if errors.IsUserFacing(err) {
		fmt.Fprintf(w, "ttylog: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\nRun 'ttylog --help' for usage.\n", err)
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/ttylog/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "report the log file path and a summary on stderr")
	rootCmd.PersistentFlags().StringP("output-dir", "o", "", "root of the log tree (default ~/log)")
	rootCmd.PersistentFlags().IntP("width", "w", 0, "nominal terminal width (0 sizes each line from its length)")
	rootCmd.PersistentFlags().Int("tab-width", 0, "expand tabs to stops every N columns (0 keeps tabs)")
	rootCmd.PersistentFlags().Bool("skip-empty", false, "drop records for lines that end up empty")
	bindFlags()

	// Filter mode flags
	rootCmd.Flags().StringP("input", "i", "", "read raw output from this file instead of stdin")
	rootCmd.Flags().BoolP("follow", "f", false, "keep reading --input as it grows (like tail -f)")

	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(pathCmd)
	config.Register(rootCmd)
}

// bindFlags lets flags override the config keys they share a meaning with.
func bindFlags() {
	flags := rootCmd.PersistentFlags()
	_ = viper.BindPFlag("config", flags.Lookup("config"))
	_ = viper.BindPFlag("output.dir", flags.Lookup("output-dir"))
	_ = viper.BindPFlag("capture.width", flags.Lookup("width"))
	_ = viper.BindPFlag("capture.tab_width", flags.Lookup("tab-width"))
}

func initConfig() {
	// Set defaults first so they're available even without a config file
	appconfig.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(appconfig.ConfigDir())
		viper.AddConfigPath("$HOME/.config/ttylog")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("TTYLOG")
	// Replace dots with underscores for nested keys in env vars
	// e.g., TTYLOG_CAPTURE_TAB_WIDTH for capture.tab_width
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists (ignore error if not found)
	_ = viper.ReadInConfig()
}

// loadConfig loads and validates the configuration, then applies flags that
// have no config key of their own.
func loadConfig(cmd *cobra.Command) (*appconfig.Config, error) {
	cfg, err := appconfig.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if skip, _ := cmd.Flags().GetBool("skip-empty"); skip {
		cfg.Capture.SkipEmpty = true
	}
	return cfg, nil
}
