// Package logfile owns the on-disk layout of capture logs and the writer that
// appends records to them.
//
// Logs live in one directory per day under a root (by default ~/log):
//
//	<root>/YYYY/MM/DD/YYYY-MM-DD_HHMMSS.ffffff.log
//
// The file name is taken from the time the file was opened, so every capture
// session and every rotation gets its own file.
package logfile

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/Iron-Ham/ttylog/internal/errors"
)

const (
	fileLayout = "2006-01-02_150405.000000"
	// Ext is the extension of an active log file.
	Ext = ".log"
	// GzipExt is appended to log files compressed after rotation.
	GzipExt = ".gz"
)

// DefaultDir returns the default log root, ~/log.
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "log"), nil
}

// DayDir returns the directory holding logs opened on t's calendar day.
func DayDir(root string, t time.Time) string {
	return filepath.Join(root, t.Format("2006"), t.Format("01"), t.Format("02"))
}

// FileName returns the log file name for a file opened at t.
func FileName(t time.Time) string {
	return t.Format(fileLayout) + Ext
}

// Path returns the full log file path for a file opened at t under root.
func Path(root string, t time.Time) string {
	return filepath.Join(DayDir(root, t), FileName(t))
}

// List returns every log file under root, oldest first. Compressed files are
// included; files outside the day directories are not. A missing root yields a NotFoundError.
func List(root string) ([]string, error) {
	if _, err := os.Stat(root); err != nil {
		return nil, errors.NewNotFoundError("log directory", root).WithCause(err)
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, Ext) && !strings.HasSuffix(name, Ext+GzipExt) {
			return nil
		}
		// Only files inside a YYYY/MM/DD directory are capture logs.
		rel, err := filepath.Rel(root, path)
		if err == nil && strings.Count(rel, string(filepath.Separator)) == 3 {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk log directory: %w", err)
	}

	// Names embed the open time and directories are zero padded, so the
	// lexical order of the relative path is chronological.
	sort.Strings(files)
	return files, nil
}

// Latest returns the most recently opened log file under root.
func Latest(root string) (string, error) {
	files, err := List(root)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", errors.NewNotFoundError("log file", root)
	}
	return files[len(files)-1], nil
}

// OpenReader opens a log file for reading, transparently decompressing files
// that were gzipped after rotation.
func OpenReader(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("log file", path).WithCause(err)
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if !strings.HasSuffix(path, GzipExt) {
		return f, nil
	}

	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read compressed log file: %w", err)
	}
	return &gzipReadCloser{Reader: zr, file: f}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
