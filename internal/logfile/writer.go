package logfile

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/Iron-Ham/ttylog/internal/errors"
	"github.com/Iron-Ham/ttylog/internal/logging"
)

// Options configures a Writer. The destination is resolved once by the
// caller and passed in; the Writer never consults the environment.
type Options struct {
	// Dir is the log root. Day directories are created beneath it.
	Dir string
	// MaxSizeMB starts a new file once the current one would exceed this
	// many megabytes. A value of 0 disables size rotation.
	MaxSizeMB int
	// Compress gzips files once they have been rotated away from.
	Compress bool
	// Sync flushes the file to stable storage after every write.
	Sync bool
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
	// Logger receives rotation and compression warnings. Defaults to a
	// no-op logger.
	Logger *logging.Logger
}

// Writer appends records to the current day's log file. It starts a new file
// when the size limit is reached or the calendar day changes. It is safe for
// concurrent use.
type Writer struct {
	mu sync.Mutex

	// Configuration
	root     string
	maxSizeB int64
	compress bool
	sync     bool
	now      func() time.Time
	logger   *logging.Logger

	// State
	file        *os.File
	path        string
	day         string
	currentSize int64
	closed      bool
	compressing sync.WaitGroup
}

// Open creates the day directory and a fresh log file. Failures wrap
// ErrSinkUnavailable.
func Open(opts Options) (*Writer, error) {
	w := &Writer{
		root:     opts.Dir,
		maxSizeB: int64(opts.MaxSizeMB) * 1024 * 1024,
		compress: opts.Compress,
		sync:     opts.Sync,
		now:      opts.Now,
		logger:   opts.Logger,
	}
	if w.now == nil {
		w.now = time.Now
	}
	if w.logger == nil {
		w.logger = logging.NopLogger()
	}
	if w.root == "" {
		dir, err := DefaultDir()
		if err != nil {
			return nil, errors.NewSinkError("resolve log directory",
				fmt.Errorf("%w: %w", errors.ErrSinkUnavailable, err))
		}
		w.root = dir
	}

	if err := w.openFile(w.now()); err != nil {
		return nil, err
	}
	return w, nil
}

// openFile opens a new log file named for t. A day directory that can't be
// created is only logged; the file open that follows decides whether the
// sink is usable. The caller must hold the mutex.
func (w *Writer) openFile(t time.Time) error {
	dir := DayDir(w.root, t)
	if err := os.MkdirAll(dir, 0755); err != nil {
		w.logger.Warn("failed to create log directory", "dir", dir, "error", err)
	}

	path := uniquePath(filepath.Join(dir, FileName(t)))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return errors.NewSinkError("create log file",
			fmt.Errorf("%w: %w", errors.ErrSinkUnavailable, err)).WithPath(path)
	}

	w.file = file
	w.path = path
	w.day = t.Format(time.DateOnly)
	w.currentSize = 0
	return nil
}

// uniquePath appends a counter before the extension when path is taken,
// which only happens when two files are opened within one microsecond.
func uniquePath(path string) string {
	if !exists(path) && !exists(path+GzipExt) {
		return path
	}
	base := strings.TrimSuffix(path, Ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d%s", base, i, Ext)
		if !exists(candidate) && !exists(candidate+GzipExt) {
			return candidate
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Write implements io.Writer. Failures wrap ErrSinkWrite; they concern this
// write only and the next call tries again.
func (w *Writer) Write(p []byte) (n int, err error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return 0, errors.NewSinkError("write record", errors.ErrSinkClosed).WithPath(w.path)
	}

	now := w.now()
	switch {
	case w.file == nil:
		// A previous rotation lost the file; try to start a new one.
		if err := w.openFile(now); err != nil {
			return 0, errors.NewSinkError("write record",
				fmt.Errorf("%w: %v", errors.ErrSinkWrite, err)).WithPath(w.path)
		}
	case now.Format(time.DateOnly) != w.day:
		w.rotate(now, "day changed")
	case w.maxSizeB > 0 && w.currentSize > 0 && w.currentSize+int64(len(p)) > w.maxSizeB:
		w.rotate(now, "size limit reached")
	}
	if w.file == nil {
		return 0, errors.NewSinkError("write record",
			fmt.Errorf("%w: no open log file", errors.ErrSinkWrite)).WithPath(w.path)
	}

	n, err = w.file.Write(p)
	w.currentSize += int64(n)
	if err != nil {
		return n, errors.NewSinkError("write record",
			fmt.Errorf("%w: %w", errors.ErrSinkWrite, err)).WithPath(w.path)
	}

	if w.sync {
		if err := w.file.Sync(); err != nil {
			return n, errors.NewSinkError("sync log file",
				fmt.Errorf("%w: %w", errors.ErrSinkWrite, err)).WithPath(w.path)
		}
	}
	return n, nil
}

// rotate closes the current file and opens a new one for t. When the new
// file can't be opened the old one is reopened for append, so records keep
// flowing somewhere. The caller must hold the mutex.
func (w *Writer) rotate(t time.Time, reason string) {
	old := w.path
	if err := w.closeFile(); err != nil {
		w.logger.Warn("failed to close log file during rotation", "path", old, "error", err)
	}

	if err := w.openFile(t); err != nil {
		w.logger.Warn("log rotation failed", "path", old, "reason", reason, "error", err)
		f, reopenErr := os.OpenFile(old, os.O_APPEND|os.O_WRONLY, 0644)
		if reopenErr != nil {
			w.logger.Error("failed to reopen log file", "path", old, "error", reopenErr)
			return
		}
		info, statErr := f.Stat()
		if statErr == nil {
			w.currentSize = info.Size()
		}
		w.file = f
		w.path = old
		return
	}

	w.logger.Info("log file rotated", "from", old, "to", w.path, "reason", reason)
	if w.compress {
		w.compressing.Add(1)
		go func() {
			defer w.compressing.Done()
			w.compressFile(old)
		}()
	}
}

// closeFile syncs and closes the current file. The caller must hold the mutex.
func (w *Writer) closeFile() error {
	if w.file == nil {
		return nil
	}
	f := w.file
	w.file = nil
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to sync log file: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	return nil
}

// compressFile gzips a finished log file and removes the original. Failures
// leave the uncompressed file in place.
func (w *Writer) compressFile(path string) {
	src, err := os.Open(path)
	if err != nil {
		w.logger.Warn("failed to open log file for compression", "path", path, "error", err)
		return
	}
	defer func() { _ = src.Close() }()

	gzPath := path + GzipExt
	dst, err := os.Create(gzPath)
	if err != nil {
		w.logger.Warn("failed to create compressed log file", "path", gzPath, "error", err)
		return
	}

	zw := gzip.NewWriter(dst)
	zw.Name = filepath.Base(path)
	if _, err := io.Copy(zw, src); err != nil {
		_ = dst.Close()
		_ = os.Remove(gzPath)
		w.logger.Warn("failed to write compressed log data", "path", gzPath, "error", err)
		return
	}
	if err := zw.Close(); err != nil {
		_ = dst.Close()
		_ = os.Remove(gzPath)
		w.logger.Warn("failed to finalize compressed log file", "path", gzPath, "error", err)
		return
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(gzPath)
		w.logger.Warn("failed to close compressed log file", "path", gzPath, "error", err)
		return
	}

	// Only remove the original after successful compression
	_ = os.Remove(path)
}

// Path returns the path of the file currently being written.
func (w *Writer) Path() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.path
}

// CurrentSize returns the number of bytes written to the current file.
func (w *Writer) CurrentSize() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.currentSize
}

// Sync flushes written data to stable storage.
func (w *Writer) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close closes the current file and waits for pending compressions. It is
// safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	err := w.closeFile()
	w.mu.Unlock()

	w.compressing.Wait()
	return err
}
