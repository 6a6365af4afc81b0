// Package logging builds the slog loggers shared by the server and the CLI.
package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Size bounds of a log file. Once a file grows past MaxFileBytes only its
// newest KeepFileBytes are retained.
const (
	MaxFileBytes  = 6 * 1024 * 1024
	KeepFileBytes = 5 * 1024 * 1024
)

// Options selects the level and destination of a logger.
type Options struct {
	Level string
	// Path, when set, sends output to a size-bounded file instead of Output.
	Path   string
	Output io.Writer
}

// New creates a text logger. The returned closer releases the log file and is
// never nil.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	var closer io.Closer = nopCloser{}
	if opts.Path != "" {
		f, err := OpenFile(opts.Path, MaxFileBytes, KeepFileBytes)
		if err != nil {
			return nil, nil, err
		}
		out, closer = f, f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: ParseLevel(opts.Level)}))
	return logger, closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ParseLevel maps a config level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// File is an append-only log file that trims itself to its newest bytes when
// it grows too large.
type File struct {
	mu   sync.Mutex
	file *os.File
	max  int64
	keep int64
}

// OpenFile opens or creates path, creating parent directories as needed.
func OpenFile(path string, max, keep int64) (*File, error) {
	if keep <= 0 || keep > max {
		return nil, fmt.Errorf("invalid log size bounds: keep %d, max %d", keep, max)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	f := &File{file: file, max: max, keep: keep}
	if err := f.trim(); err != nil {
		file.Close()
		return nil, err
	}
	return f, nil
}

func (f *File) Write(p []byte) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	n, err := f.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, f.trim()
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.file.Close()
}

// trim rewrites the file to its last keep bytes once it exceeds max.
func (f *File) trim() error {
	info, err := f.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= f.max {
		return nil
	}

	tail := make([]byte, f.keep)
	n, err := f.file.ReadAt(tail, size-f.keep)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if err := f.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes always land at the end, so after truncation this
	// becomes the start of the file.
	_, err = f.file.Write(tail[:n])
	return err
}
