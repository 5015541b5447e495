package main

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/maurice/tomledit"
)

// findInParents looks for name in the current directory and each
// parent in turn. When nothing is found the bare name is returned, so
// a fresh file is created in the current directory on write.
func findInParents(name string) string {
	dir, err := os.Getwd()
	if err != nil {
		return name
	}
	for {
		candidate := filepath.Join(dir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return name
		}
		dir = parent
	}
}

// loadDocument parses the TOML file at path. A missing file yields an
// empty document, matching the expectation that editing a non-existent
// file creates it.
func loadDocument(path string) (*tomledit.Document, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &tomledit.Document{}, nil
	}
	if err != nil {
		return nil, err
	}
	return tomledit.Parse(data)
}

// writeDocument serializes doc over path, going through a temporary
// file in the same directory so the target is replaced in one rename.
// With backup set, the previous contents are kept at path~ first.
func writeDocument(path string, doc *tomledit.Document, backup bool, logger *log.Logger) error {
	if backup {
		if _, err := os.Stat(path); err == nil {
			backupPath := path + "~"
			if err := os.Remove(backupPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := os.Rename(path, backupPath); err != nil {
				return err
			}
			logger.Info("backup created", "file", backupPath)
		}
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.WriteString(doc.String()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	logger.Info("wrote", "file", path)
	return nil
}
