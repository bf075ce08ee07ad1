package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/ttylog/internal/ptyproc"
)

var recordCmd = &cobra.Command{
	Use:   "record [-- command [args...]]",
	Short: "Run a command on a pseudo-terminal and log what it displayed",
	Long: `Record runs a command (your shell by default) on a new pseudo-terminal.
Output is shown on this terminal as usual and every line is also reconstructed
and appended to today's log file. Keystrokes are forwarded to the command.

The pseudo-terminal starts at this terminal's size and follows resizes. When
--width is not set, lines are reconstructed at the starting column count.

ttylog exits with the command's exit status.

Examples:
  # Record an interactive shell
  ttylog record

  # Record a single command
  ttylog record -- make test`,
	RunE: runRecord,
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger, err := openDiagLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Close() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	name := cfg.Record.ResolveShell()
	var cmdArgs []string
	if len(args) > 0 {
		name, cmdArgs = args[0], args[1:]
	}

	opts := []ptyproc.Option{
		ptyproc.WithMirror(cmd.OutOrStdout()),
		ptyproc.WithLogger(logger.WithCommand(name)),
	}
	if in, ok := cmd.InOrStdin().(*os.File); ok {
		opts = append(opts, ptyproc.WithStdin(in))
	} else {
		opts = append(opts, ptyproc.WithStdin(nil))
	}

	// The log file must exist before the command starts.
	sink, err := openSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink(sink, logger)

	ps, err := ptyproc.Start(ctx, name, cmdArgs, opts...)
	if err != nil {
		return err
	}
	defer func() { _ = ps.Close() }()

	if err := ps.ForwardInput(); err != nil {
		logger.Warn("input forwarding unavailable", "error", err)
	}
	ps.FollowResize()

	captureErr := runSession(ctx, cmd, cfg, logger, sink, name, ps.Cols(), ps.Output())

	code, err := ps.Wait()
	// Restore the terminal before anything else is printed.
	_ = ps.Close()
	if err != nil {
		return err
	}
	logger.Info("command exited", "command", name, "exit_code", code)
	if code != 0 {
		return &ExitCodeError{Code: code}
	}
	return captureErr
}
