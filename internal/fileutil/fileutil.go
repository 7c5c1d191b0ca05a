package fileutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// Scratch is a private temporary directory for one external tool invocation.
type Scratch struct {
	Dir string
}

// NewScratch creates a scratch directory under parent (the system temp dir
// when parent is empty). Callers must Close it.
func NewScratch(parent, pattern string) (*Scratch, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return nil, fmt.Errorf("ensure parent dir: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, pattern)
	if err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}
	return &Scratch{Dir: dir}, nil
}

// Path joins name onto the scratch directory.
func (s *Scratch) Path(name string) string {
	return filepath.Join(s.Dir, name)
}

// WriteFile stores data under a sanitized base name and returns its full path.
func (s *Scratch) WriteFile(name string, data []byte) (string, error) {
	path := s.Path(SafeName(name, "input"))
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", fmt.Errorf("write scratch file: %w", err)
	}
	return path, nil
}

// Close removes the directory and everything in it.
func (s *Scratch) Close() error {
	if s == nil || s.Dir == "" {
		return nil
	}
	return os.RemoveAll(s.Dir)
}

// SafeName strips any directory components from name, returning fallback when
// nothing usable remains.
func SafeName(name, fallback string) string {
	base := filepath.Base(name)
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return fallback
	}
	return base
}
