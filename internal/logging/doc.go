// Package logging provides the structured diagnostic log for ttylog.
//
// This is separate from the capture log. Capture records go to the day
// files managed by package logfile; this package records what the tool
// itself did (files opened, rotations, read and write failures, per-line
// decode statistics) as JSON lines via log/slog.
//
// # Basic Usage
//
//	logger, err := logging.NewLogger("/home/u/log/ttylog-debug.log", "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	logger.Info("capture started", "path", path)
//
// # Context Propagation
//
// Child loggers carry persistent attributes:
//
//	sessionLogger := logger.WithSession(id).WithSource("stdin")
//	sessionLogger.Debug("line captured", "actions", 12, "ignored", 3)
//
// Output:
//
//	{"time":"...","level":"DEBUG","msg":"line captured","session_id":"...","source":"stdin","actions":12,"ignored":3}
//
// # Testing
//
// Use [NopLogger] to discard all output.
package logging
