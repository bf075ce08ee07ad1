package capture

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/ttylog/internal/errors"
	"github.com/Iron-Ham/ttylog/internal/logging"
)

// defaultPollInterval bounds how long a FollowReader sleeps at end of file
// when no filesystem event arrives.
const defaultPollInterval = 500 * time.Millisecond

// FollowReader reads a file like `tail -f`: at end of file it waits for the
// file to grow instead of returning io.EOF. It returns io.EOF once ctx is
// done or the file is removed or renamed. Truncation restarts reading from
// the beginning.
type FollowReader struct {
	ctx     context.Context
	path    string
	file    *os.File
	offset  int64
	watcher *fsnotify.Watcher
	poll    time.Duration
	logger  *logging.Logger
}

// FollowOption configures a FollowReader.
type FollowOption func(*FollowReader)

// WithPollInterval sets the fallback wake-up interval used at end of file.
func WithPollInterval(d time.Duration) FollowOption {
	return func(f *FollowReader) {
		if d > 0 {
			f.poll = d
		}
	}
}

// WithFollowLogger sets the diagnostic logger.
func WithFollowLogger(l *logging.Logger) FollowOption {
	return func(f *FollowReader) {
		f.logger = l
	}
}

// NewFollowReader opens path and starts watching it.
func NewFollowReader(ctx context.Context, path string, opts ...FollowOption) (*FollowReader, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("input file", path).WithCause(err)
		}
		return nil, errors.NewInputError("open input", err).WithSource(path)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		_ = file.Close()
		return nil, errors.NewInputError("create file watcher", err).WithSource(path)
	}
	if err := watcher.Add(path); err != nil {
		_ = watcher.Close()
		_ = file.Close()
		return nil, errors.NewInputError("watch input", err).WithSource(path)
	}

	f := &FollowReader{
		ctx:     ctx,
		path:    path,
		file:    file,
		watcher: watcher,
		poll:    defaultPollInterval,
		logger:  logging.NopLogger(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Read implements io.Reader.
func (f *FollowReader) Read(p []byte) (int, error) {
	for {
		if f.ctx.Err() != nil {
			return 0, io.EOF
		}

		n, err := f.file.Read(p)
		f.offset += int64(n)
		if n > 0 {
			return n, nil
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return 0, err
		}

		done, err := f.wait()
		if err != nil {
			return 0, err
		}
		if done {
			return 0, io.EOF
		}
	}
}

// wait blocks until the file may have more data. It reports done when
// following should stop.
func (f *FollowReader) wait() (done bool, err error) {
	timer := time.NewTimer(f.poll)
	defer timer.Stop()

	select {
	case <-f.ctx.Done():
		return true, nil

	case event, ok := <-f.watcher.Events:
		if !ok {
			return false, fmt.Errorf("%w: watcher closed", errors.ErrSourceClosed)
		}
		if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
			f.logger.Info("followed file went away", "path", f.path, "op", event.Op.String())
			return true, nil
		}

	case err, ok := <-f.watcher.Errors:
		if !ok {
			return false, fmt.Errorf("%w: watcher closed", errors.ErrSourceClosed)
		}
		f.logger.Warn("file watcher error", "path", f.path, "error", err)

	case <-timer.C:
	}

	return false, f.checkTruncated()
}

// checkTruncated rewinds when the file shrank below the read offset.
func (f *FollowReader) checkTruncated() error {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() >= f.offset {
		return nil
	}

	f.logger.Info("followed file truncated", "path", f.path, "size", info.Size(), "offset", f.offset)
	if _, err := f.file.Seek(0, io.SeekStart); err != nil {
		return err
	}
	f.offset = 0
	return nil
}

// Close stops watching and closes the file.
func (f *FollowReader) Close() error {
	werr := f.watcher.Close()
	ferr := f.file.Close()
	if werr != nil {
		return werr
	}
	return ferr
}
