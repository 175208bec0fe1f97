package runcounter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File keeps the run number as decimal text in a single file.
type File struct {
	path   string
	logger *slog.Logger
}

// NewFile returns a store backed by path.
func NewFile(path string, logger *slog.Logger) *File {
	if logger == nil {
		logger = slog.Default()
	}
	return &File{path: path, logger: logger}
}

// Load reads the stored value. A missing, empty, or unreadable number counts
// as 0.
func (f *File) Load(_ context.Context) (uint64, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, PersistenceError{Op: "load", Err: err}
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return 0, nil
	}
	value, err := strconv.ParseUint(text, 10, 64)
	if err != nil {
		f.logger.Warn("discarding unreadable run number",
			slog.String("path", f.path),
			slog.Any("error", err),
		)
		return 0, nil
	}
	return value, nil
}

// Save replaces the stored value.
func (f *File) Save(_ context.Context, value uint64) error {
	if dir := filepath.Dir(f.path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return PersistenceError{Op: "save", Err: fmt.Errorf("create directory %q: %w", dir, err)}
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.FormatUint(value, 10)), 0o644); err != nil {
		return PersistenceError{Op: "save", Err: err}
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return PersistenceError{Op: "save", Err: err}
	}
	return nil
}
