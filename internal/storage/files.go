// Package storage keeps the pickup point cache files on disk.
package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore writes raw upstream bodies under one data directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

// Dir returns the data directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Ensure creates the data directory when missing.
func (s *FileStore) Ensure() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	return nil
}

// CountryFile is the cache file name of a country's /config body.
func CountryFile(country string) string {
	return country + ".json"
}

// ProviderFile is the cache file name of a provider's /find body.
func ProviderFile(country, provider string) string {
	return country + "_" + provider + ".json"
}

// SaveCountry overwrites <country>.json.
func (s *FileStore) SaveCountry(country string, data []byte) (string, error) {
	return s.write(CountryFile(country), data)
}

// SaveProvider overwrites <country>_<provider>.json.
func (s *FileStore) SaveProvider(country, provider string, data []byte) (string, error) {
	return s.write(ProviderFile(country, provider), data)
}

// Read returns the content of a cache file.
func (s *FileStore) Read(name string) ([]byte, error) {
	if err := checkName(name); err != nil {
		return nil, err
	}
	return os.ReadFile(filepath.Join(s.dir, name))
}

// write replaces name atomically: readers see the old file or the new one, never a partial write.
func (s *FileStore) write(name string, data []byte) (string, error) {
	if err := checkName(name); err != nil {
		return "", err
	}

	path := filepath.Join(s.dir, name)
	tmp, err := os.CreateTemp(s.dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("create temp file for %s: %w", name, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("close %s: %w", name, err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("chmod %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("rename %s: %w", name, err)
	}
	return path, nil
}

func checkName(name string) error {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return fmt.Errorf("invalid cache file name %q", name)
	}
	return nil
}
