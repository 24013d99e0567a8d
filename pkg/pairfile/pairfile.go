// Package pairfile reads and writes the pair files of the trading bot as flat key/value documents.
// Keys that are not touched keep their value and position when the file is saved.
package pairfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is an editable key/value view over one pair file.
type Document interface {
	Path() string
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string) bool
	Keys() []string
	Save() error
}

// Opener opens a pair file.
type Opener func(path string) (Document, error)

// Open loads path as a JSON document when it has a .json extension, as a properties file otherwise.
func Open(path string) (Document, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return openJSON(path)
	}
	return openProperties(path)
}

// writeAtomic replaces path with data through a temporary file in the same directory.
func writeAtomic(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	return os.Rename(tmp.Name(), path)
}
