package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// SecureJoin joins path elements onto base and fails if the result escapes
// base through ".." segments or absolute elements.
//
//	entryPath, err := SecureJoin(cacheDir, key)
//	if err != nil {
//		return fmt.Errorf("invalid cache key: %w", err)
//	}
func SecureJoin(base string, elements ...string) (string, error) {
	if base == "" {
		return "", fmt.Errorf("base path cannot be empty")
	}

	cleanBase := filepath.Clean(base)
	fullPath := filepath.Join(append([]string{cleanBase}, elements...)...)

	if !IsWithinBase(cleanBase, fullPath) {
		return "", fmt.Errorf("path escapes base directory")
	}
	return fullPath, nil
}

// IsWithinBase reports whether path is base itself or lies below it.
func IsWithinBase(base, path string) bool {
	cleanBase := filepath.Clean(base)
	cleanPath := filepath.Clean(path)
	if cleanPath == cleanBase {
		return true
	}
	if cleanBase == string(filepath.Separator) {
		return strings.HasPrefix(cleanPath, cleanBase)
	}
	return strings.HasPrefix(cleanPath, cleanBase+string(filepath.Separator))
}

// EnsureDir creates dir and its parents when missing. An existing
// non-directory at dir is an error.
func EnsureDir(dir string, perm os.FileMode) error {
	info, err := os.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return fmt.Errorf("%s exists and is not a directory", dir)
		}
		return nil
	}
	if !os.IsNotExist(err) {
		return err
	}
	return os.MkdirAll(dir, perm)
}
