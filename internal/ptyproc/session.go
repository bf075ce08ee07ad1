// Package ptyproc runs a command on a pseudo-terminal so its output can be
// captured exactly as a terminal would receive it, while the user keeps
// interacting with it.
package ptyproc

import (
	"context"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/Iron-Ham/ttylog/internal/errors"
	"github.com/Iron-Ham/ttylog/internal/logging"
)

// Fallback size used when stdin is not a terminal.
const (
	DefaultCols = 80
	DefaultRows = 24
)

// Session is a command running on a pty.
type Session struct {
	cmd    *exec.Cmd
	ptmx   *os.File
	stdin  *os.File
	mirror io.Writer
	logger *logging.Logger

	cols int
	rows int

	restoreOnce sync.Once
	restore     func()
	stopResize  func()
}

// Option configures a Session.
type Option func(*Session)

// WithStdin sets the terminal whose input is forwarded and whose size the
// pty follows. Defaults to os.Stdin.
func WithStdin(f *os.File) Option {
	return func(s *Session) {
		s.stdin = f
	}
}

// WithMirror sets where command output is echoed as it is read. Defaults to
// os.Stdout; nil disables echoing.
func WithMirror(w io.Writer) Option {
	return func(s *Session) {
		s.mirror = w
	}
}

// WithSize fixes the pty size instead of copying it from stdin.
func WithSize(cols, rows int) Option {
	return func(s *Session) {
		s.cols, s.rows = cols, rows
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

// Start runs name with args on a new pty. The pty is sized like stdin when
// stdin is a terminal, otherwise 80x24.
func Start(ctx context.Context, name string, args []string, opts ...Option) (*Session, error) {
	s := &Session{
		stdin:      os.Stdin,
		mirror:     os.Stdout,
		logger:     logging.NopLogger(),
		restore:    func() {},
		stopResize: func() {},
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cols <= 0 || s.rows <= 0 {
		s.cols, s.rows = TerminalSize(s.stdin)
	}

	s.cmd = exec.CommandContext(ctx, name, args...)
	s.cmd.Env = append(os.Environ(), "TTYLOG_SESSION=1")

	ptmx, err := pty.StartWithSize(s.cmd, &pty.Winsize{
		Cols: uint16(s.cols),
		Rows: uint16(s.rows),
	})
	if err != nil {
		return nil, errors.NewInputError("start command on pty", err).WithSource(name)
	}
	s.ptmx = ptmx

	s.logger.Info("command started on pty",
		"command", name, "args", args, "pid", s.cmd.Process.Pid,
		"cols", s.cols, "rows", s.rows)
	return s, nil
}

// TerminalSize returns f's size, or the 80x24 fallback when f is not a
// terminal.
func TerminalSize(f *os.File) (cols, rows int) {
	if f == nil || !term.IsTerminal(int(f.Fd())) {
		return DefaultCols, DefaultRows
	}
	cols, rows, err := term.GetSize(int(f.Fd()))
	if err != nil || cols <= 0 || rows <= 0 {
		return DefaultCols, DefaultRows
	}
	return cols, rows
}

// Cols returns the pty width the command started with.
func (s *Session) Cols() int {
	return s.cols
}

// Output returns a reader over the command's output. Everything read is
// also written to the mirror. The reader returns io.EOF once the command
// has exited and its output is drained.
func (s *Session) Output() io.Reader {
	var r io.Reader = &ptyReader{f: s.ptmx}
	if s.mirror != nil {
		r = io.TeeReader(r, s.mirror)
	}
	return r
}

// ForwardInput puts stdin in raw mode and copies it to the command until
// stdin closes. It does nothing when stdin is not a terminal, so piped input
// is not consumed.
func (s *Session) ForwardInput() error {
	if s.stdin == nil || !term.IsTerminal(int(s.stdin.Fd())) {
		return nil
	}

	fd := int(s.stdin.Fd())
	state, err := term.MakeRaw(fd)
	if err != nil {
		return errors.NewInputError("set raw mode", err).WithSource(s.stdin.Name())
	}
	s.restore = func() {
		if err := term.Restore(fd, state); err != nil {
			s.logger.Warn("failed to restore terminal", "error", err)
		}
	}

	go func() {
		if _, err := io.Copy(s.ptmx, s.stdin); err != nil {
			s.logger.Debug("input forwarding stopped", "error", err)
		}
	}()
	return nil
}

// FollowResize keeps the pty the same size as stdin until Close.
func (s *Session) FollowResize() {
	if s.stdin == nil || !term.IsTerminal(int(s.stdin.Fd())) {
		return
	}

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGWINCH)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ch:
				if err := pty.InheritSize(s.stdin, s.ptmx); err != nil {
					s.logger.Warn("failed to resize pty", "error", err)
				}
			}
		}
	}()

	s.stopResize = func() {
		signal.Stop(ch)
		close(done)
	}
}

// Wait waits for the command to exit and returns its exit code. A command
// killed by a signal reports 128 plus the signal number, like a shell.
func (s *Session) Wait() (int, error) {
	err := s.cmd.Wait()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			return 128 + int(ws.Signal()), nil
		}
		return exitErr.ExitCode(), nil
	}
	return -1, err
}

// Close restores the terminal, stops following resizes and closes the pty.
// It is safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.restoreOnce.Do(func() {
		s.restore()
		s.stopResize()
		err = s.ptmx.Close()
	})
	return err
}

// ptyReader maps the EIO a Linux pty master returns after the child side
// closes to io.EOF.
type ptyReader struct {
	f *os.File
}

func (r *ptyReader) Read(p []byte) (int, error) {
	n, err := r.f.Read(p)
	if err != nil && errors.Is(err, syscall.EIO) {
		return n, io.EOF
	}
	return n, err
}
