// Package capture runs the line capture loop: read a raw line, decode it into
// terminal actions, replay them on a single-row screen, and append the
// finalized record to a sink.
//
// Lines are processed strictly one at a time. A raw line is fully decoded,
// interpreted and written before the next one is read.
package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/ttylog/internal/action"
	"github.com/Iron-Ham/ttylog/internal/errors"
	"github.com/Iron-Ham/ttylog/internal/logging"
	"github.com/Iron-Ham/ttylog/internal/record"
	"github.com/Iron-Ham/ttylog/internal/screen"
)

// Stats counts what a Session has done so far.
type Stats struct {
	Lines       int // Raw lines read
	Records     int // Records written to the sink
	Skipped     int // Empty records dropped
	WriteErrors int // Records lost to sink failures
	Ignored     int // Actions with no effect on the row
}

// Session reconstructs raw terminal output into records.
// A Session is not safe for concurrent use.
type Session struct {
	id        string
	source    string
	sink      io.Writer
	width     int
	tabWidth  int
	skipEmpty bool
	finalizer record.Finalizer
	logger    *logging.Logger
	reporter  io.Writer

	decoder *action.Decoder
	line    *screen.Line
	stats   Stats
}

// Option configures a Session.
type Option func(*Session)

// WithWidth sets the nominal row width. Values below 1 size each row from
// the raw line's byte length.
func WithWidth(n int) Option {
	return func(s *Session) {
		s.width = n
	}
}

// WithTabWidth expands tabs to stops every n columns.
func WithTabWidth(n int) Option {
	return func(s *Session) {
		s.tabWidth = n
	}
}

// WithSkipEmpty drops records whose text is empty.
func WithSkipEmpty(skip bool) Option {
	return func(s *Session) {
		s.skipEmpty = skip
	}
}

// WithSource names the input for logs and error messages.
func WithSource(name string) Option {
	return func(s *Session) {
		s.source = name
	}
}

// WithSessionID overrides the generated session id.
func WithSessionID(id string) Option {
	return func(s *Session) {
		s.id = id
	}
}

// WithClock sets the time source used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.finalizer.Now = now
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// WithReporter sets where operator-facing warnings are printed, usually
// stderr. By default they only go to the diagnostic log.
func WithReporter(w io.Writer) Option {
	return func(s *Session) {
		s.reporter = w
	}
}

// NewSession creates a Session that writes records to sink.
func NewSession(sink io.Writer, opts ...Option) *Session {
	s := &Session{
		id:      uuid.NewString(),
		source:  "stdin",
		sink:    sink,
		logger:  logging.NopLogger(),
		decoder: action.NewDecoder(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.WithSession(s.id).WithSource(s.source)
	s.line = screen.NewLine(s.width, screen.WithTabWidth(s.tabWidth))
	return s
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Stats returns the counters accumulated so far.
func (s *Session) Stats() Stats {
	return s.stats
}

// Run reads newline-terminated raw lines from r until end of input and
// writes one record per line. A final line without a terminator is still
// processed.
//
// End of input and cancellation of ctx end the loop without error. A read
// failure ends it with an InputError wrapping ErrInputRead. Retryable sink
// failures are reported and counted, and the loop moves on to the next line;
// a sink failure that is fatal or not retryable, such as a closed sink, ends
// the loop with that error.
func (s *Session) Run(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	s.logger.Info("capture started", "width", s.width, "tab_width", s.tabWidth)

	for {
		if ctx.Err() != nil {
			s.logger.Info("capture cancelled", "lines", s.stats.Lines)
			return nil
		}

		raw, err := br.ReadBytes('\n')
		lineNo := s.stats.Lines + 1
		if len(raw) > 0 {
			if perr := s.ProcessLine(trimTerminator(raw)); stopsCapture(perr) {
				s.logger.Error("capture stopped by sink failure", "line", lineNo, "error", perr)
				s.logFinished()
				return perr
			}
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			s.logFinished()
			return nil
		}

		ierr := errors.NewInputError("read line",
			fmt.Errorf("%w: %w", errors.ErrInputRead, err)).
			WithSource(s.source).WithLine(lineNo)
		s.logger.Error("input read failed", "error", ierr)
		s.report(ierr)
		s.logFinished()
		return ierr
	}
}

// ProcessLine reconstructs one raw line (without its terminator) and writes
// the record. The returned error, if any, has already been reported.
func (s *Session) ProcessLine(raw []byte) error {
	rec, ignored, actions := s.Reconstruct(raw)
	s.stats.Lines++
	s.stats.Ignored += ignored

	s.logger.Debug("line captured",
		"line", s.stats.Lines,
		"bytes", len(raw),
		"actions", actions,
		"ignored", ignored,
		"cells", s.line.Len(),
	)

	if s.skipEmpty && rec.Text == "" {
		s.stats.Skipped++
		return nil
	}

	if _, err := s.sink.Write(rec.Bytes()); err != nil {
		s.stats.WriteErrors++
		werr := err
		if !errors.Is(err, errors.ErrSinkWrite) && !errors.Is(err, errors.ErrSinkClosed) {
			werr = errors.NewSinkError("write record", fmt.Errorf("%w: %w", errors.ErrSinkWrite, err))
		}
		s.logger.Warn("record write failed",
			"line", s.stats.Lines,
			"severity", errors.GetSeverity(werr).String(),
			"retryable", errors.IsRetryable(werr),
			"error", werr,
		)
		s.report(werr)
		return werr
	}
	s.stats.Records++
	return nil
}

// stopsCapture reports whether a ProcessLine error must end the loop. A
// write that may succeed on the next line does not.
func stopsCapture(err error) bool {
	if err == nil {
		return false
	}
	return errors.IsFatal(err) || !errors.IsRetryable(err)
}

// Reconstruct decodes and replays raw on a fresh row and finalizes it
// without writing anything. It also returns how many actions had no effect
// and how many actions were decoded in total.
func (s *Session) Reconstruct(raw []byte) (rec record.Record, ignored, actions int) {
	width := s.width
	if width < 1 {
		width = len(raw)
	}

	// Each raw line is decoded on its own; an escape sequence cut off at
	// the end of one line must not swallow the start of the next.
	s.decoder.Reset()
	decoded := s.decoder.Decode(raw)

	s.line.Reset(width)
	ignored = s.line.ApplyAll(decoded)
	return s.finalizer.Finalize(s.line), ignored, len(decoded)
}

func (s *Session) logFinished() {
	s.logger.Info("capture finished",
		"lines", s.stats.Lines,
		"records", s.stats.Records,
		"skipped", s.stats.Skipped,
		"write_errors", s.stats.WriteErrors,
		"ignored_actions", s.stats.Ignored,
	)
}

func (s *Session) report(err error) {
	if s.reporter != nil {
		_, _ = fmt.Fprintf(s.reporter, "ttylog: %v\n", err)
	}
}

// trimTerminator removes the trailing line feed. Carriage returns are left
// for the decoder, which treats them as cursor motion.
func trimTerminator(raw []byte) []byte {
	if n := len(raw); n > 0 && raw[n-1] == '\n' {
		return raw[:n-1]
	}
	return raw
}
