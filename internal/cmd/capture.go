package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/Iron-Ham/ttylog/internal/capture"
	appconfig "github.com/Iron-Ham/ttylog/internal/config"
	"github.com/Iron-Ham/ttylog/internal/errors"
	"github.com/Iron-Ham/ttylog/internal/logfile"
	"github.com/Iron-Ham/ttylog/internal/logging"
)

// followPollInterval bounds how long a followed file can go unchecked when
// no filesystem event arrives.
const followPollInterval = 500 * time.Millisecond

func runCapture(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	input, _ := cmd.Flags().GetString("input")
	follow, _ := cmd.Flags().GetBool("follow")
	if follow && input == "" {
		return fmt.Errorf("--follow requires --input")
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

	source := "stdin"
	var r io.Reader = cmd.InOrStdin()
	switch {
	case input != "" && follow:
		fr, err := capture.NewFollowReader(ctx, input,
			capture.WithPollInterval(followPollInterval),
			capture.WithFollowLogger(logger.WithSource(input)))
		if err != nil {
			return err
		}
		defer func() { _ = fr.Close() }()
		source, r = input, fr
	case input != "":
		f, err := os.Open(input)
		if err != nil {
			return errors.NewNotFoundError("input file", input).WithCause(err)
		}
		defer func() { _ = f.Close() }()
		source, r = input, f
	}

	sink, err := openSink(cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink(sink, logger)

	return runSession(ctx, cmd, cfg, logger, sink, source, 0, r)
}

// runSession runs a capture session over r into sink and reports a summary
// when --verbose is set. A configured width takes precedence over width.
func runSession(ctx context.Context, cmd *cobra.Command, cfg *appconfig.Config, logger *logging.Logger, sink *logfile.Writer, source string, width int, r io.Reader) error {
	if cfg.Capture.Width > 0 {
		width = cfg.Capture.Width
	}

	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		fmt.Fprintf(cmd.ErrOrStderr(), "ttylog: logging to %s\n", sink.Path())
	}

	session := capture.NewSession(sink,
		capture.WithWidth(width),
		capture.WithTabWidth(cfg.Capture.TabWidth),
		capture.WithSkipEmpty(cfg.Capture.SkipEmpty),
		capture.WithSource(source),
		capture.WithLogger(logger),
		capture.WithReporter(cmd.ErrOrStderr()),
	)
	runErr := session.Run(ctx, r)

	if verbose {
		st := session.Stats()
		fmt.Fprintf(cmd.ErrOrStderr(), "ttylog: %d lines, %d records, %d skipped, %d write errors\n",
			st.Lines, st.Records, st.Skipped, st.WriteErrors)
	}
	if runErr != nil {
		// Already reported by the session.
		return &ExitCodeError{Code: 1}
	}
	return nil
}

func openSink(cfg *appconfig.Config, logger *logging.Logger) (*logfile.Writer, error) {
	return logfile.Open(logfile.Options{
		Dir:       cfg.Output.ResolveDir(),
		MaxSizeMB: cfg.Output.MaxSizeMB,
		Compress:  cfg.Output.Compress,
		Sync:      cfg.Output.Sync,
		Logger:    logger,
	})
}

func closeSink(sink *logfile.Writer, logger *logging.Logger) {
	if err := sink.Close(); err != nil {
		logger.Warn("failed to close log file", "error", err)
	}
}

// openDiagLogger returns the diagnostic logger, or a no-op logger when
// diagnostic logging is disabled.
func openDiagLogger(cfg *appconfig.Config) (*logging.Logger, error) {
	if !cfg.Logging.Enabled {
		return logging.NopLogger(), nil
	}
	path := cfg.Logging.ResolveFile(cfg.Output.ResolveDir())
	logger, err := logging.NewLogger(path, cfg.Logging.Level)
	if err != nil {
		return nil, errors.Wrap(err, "open diagnostic log")
	}
	return logger, nil
}
