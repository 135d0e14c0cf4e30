// Package storage owns the bot's working directory: it hands out
// collision-free output path templates for the extraction engine and
// guarantees produced files are removed once a request finishes.
package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Steward manages transient download artifacts in a single shared directory.
// Concurrent requests are kept apart by a random prefix in each template, so
// no locking is needed.
type Steward struct {
	dir string
}

// NewSteward creates a steward rooted at dir. The directory itself is
// created lazily by PreparePathTemplate.
func NewSteward(dir string) *Steward {
	return &Steward{dir: dir}
}

// Dir returns the working directory.
func (s *Steward) Dir() string { return s.dir }

// PreparePathTemplate ensures the working directory exists and returns an
// output template of the form <dir>/<8-char-id>_%(title)s.%(ext)s. The
// %(title)s and %(ext)s placeholders are resolved by the extraction engine;
// the final path it reports is authoritative.
func (s *Steward) PreparePathTemplate() (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create downloads dir %s: %w", s.dir, err)
	}
	id := uuid.NewString()[:8]
	return filepath.Join(s.dir, fmt.Sprintf("%s_%%(title)s.%%(ext)s", id)), nil
}

// Cleanup removes the file at path. A path that no longer exists is not an
// error: every exit branch of a request calls Cleanup, so double removal
// must stay silent.
func (s *Steward) Cleanup(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// FileSize returns the byte length of the file at path.
func FileSize(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat %s: %w", path, err)
	}
	return info.Size(), nil
}
