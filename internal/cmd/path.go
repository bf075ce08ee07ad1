package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/ttylog/internal/logfile"
)

var pathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print today's log directory",
	Long: `Path prints the directory today's log files are written to. The
directory may not exist yet.

Example:
  ls "$(ttylog path)"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), logfile.DayDir(cfg.Output.ResolveDir(), time.Now()))
		return nil
	},
}
