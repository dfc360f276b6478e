package cache

import (
	"regexp"
	"strings"

	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
)

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// IsValidKey reports whether key consists of letters, digits, '.', '-'
// and '_' and has at least one segment.
func IsValidKey(key string) bool {
	return keyPattern.MatchString(key) && strings.Trim(key, types.KeyDelimiter) != ""
}

// ValidateKey returns an invalid key error for keys IsValidKey rejects.
func ValidateKey(key string) error {
	if IsValidKey(key) {
		return nil
	}
	return errors.Newf(errors.ErrCodeInvalidKey, "invalid cache key %q", key).
		WithContext("key", key)
}
