package storage

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// LocalStorage persists files on disk under a base directory (the "public disk").
type LocalStorage struct {
	baseDir   string
	urlPrefix string
}

// NewLocalStorage ensures the base directory exists and returns a handle.
// urlPrefix is the public path segment the directory is served under.
func NewLocalStorage(baseDir, urlPrefix string) (*LocalStorage, error) {
	if baseDir == "" {
		baseDir = "./storage/app/public"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &LocalStorage{baseDir: baseDir, urlPrefix: strings.Trim(urlPrefix, "/")}, nil
}

// Save writes the given bytes to the provided relative path under the base dir.
func (s *LocalStorage) Save(filename string, data []byte) (string, error) {
	full := s.resolve(filename)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("prepare storage directory: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("write stored file: %w", err)
	}
	return filename, nil
}

// URL returns the public relative reference for a stored file, without a leading slash.
func (s *LocalStorage) URL(filename string) string {
	rel := strings.TrimLeft(filepath.ToSlash(filename), "/")
	if s.urlPrefix == "" {
		return rel
	}
	return path.Join(s.urlPrefix, rel)
}

// BaseDir returns the root directory of the disk.
func (s *LocalStorage) BaseDir() string {
	return s.baseDir
}

// URLPrefix returns the public path segment the disk is served under.
func (s *LocalStorage) URLPrefix() string {
	return s.urlPrefix
}

func (s *LocalStorage) resolve(filename string) string {
	if filepath.IsAbs(filename) {
		return filename
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(filename))
}
