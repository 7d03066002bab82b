package storage

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// StagedFile is an upload copied to disk under a generated name.
type StagedFile struct {
	ID        string
	Path      string
	Size      int64
	CreatedAt time.Time
}

// Stager writes uploads to uniquely named temp files in one directory.
// Client filenames are never used on disk.
type Stager struct {
	dir    string
	ext    string
	logger *slog.Logger
}

// NewStager creates dir if needed. ext is the suffix of staged files (e.g. ".pdf").
func NewStager(dir, ext string, logger *slog.Logger) (*Stager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create staging dir %s: %w", dir, err)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &Stager{dir: dir, ext: ext, logger: logger}, nil
}

// Dir returns the staging directory.
func (s *Stager) Dir() string { return s.dir }

// Stage copies r into <dir>/<uuid><ext>. A partially written file is removed.
func (s *Stager) Stage(r io.Reader) (*StagedFile, error) {
	id := uuid.New().String()
	path := filepath.Join(s.dir, id+s.ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}
	n, copyErr := io.Copy(f, r)
	closeErr := f.Close()
	if copyErr != nil || closeErr != nil {
		s.Remove(path)
		if copyErr != nil {
			return nil, fmt.Errorf("write staged file: %w", copyErr)
		}
		return nil, fmt.Errorf("close staged file: %w", closeErr)
	}

	s.logger.Debug("storage.staged", "id", id, "bytes", n)
	return &StagedFile{ID: id, Path: path, Size: n, CreatedAt: time.Now()}, nil
}

// Remove deletes a staged file; a missing file is not an error.
func (s *Stager) Remove(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn("storage.remove_failed", "path", path, "error", err)
	}
}

// Sweep deletes staged files older than ttl, left behind by a crash.
// It returns the number of files removed.
func (s *Stager) Sweep(ttl time.Duration) int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		s.logger.Warn("storage.sweep_failed", "dir", s.dir, "error", err)
		return 0
	}
	cutoff := time.Now().Add(-ttl)
	removed := 0
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), s.ext) {
			continue
		}
		if _, err := uuid.Parse(strings.TrimSuffix(e.Name(), s.ext)); err != nil {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err == nil {
			removed++
		}
	}
	if removed > 0 {
		s.logger.Info("storage.sweep", "dir", s.dir, "removed", removed)
	}
	return removed
}
