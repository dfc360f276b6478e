package format

import (
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"math"
	"reflect"
	"strings"
)

const sentinelPrefix = "#!"

// sentinelKeyLen is the prefix plus 40 hex characters of SHA-1.
const sentinelKeyLen = len(sentinelPrefix) + 2*sha1.Size

func fingerprint(raw string) string {
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// wrapOpaque returns value with every part that has no plain data shape
// replaced by a sentinel envelope. Lists and string-keyed maps are walked.
func wrapOpaque(value any) (any, error) {
	switch v := value.(type) {
	case nil, bool, string,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			wrapped, err := wrapOpaque(item)
			if err != nil {
				return nil, err
			}
			out[i] = wrapped
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			wrapped, err := wrapOpaque(item)
			if err != nil {
				return nil, err
			}
			out[k] = wrapped
		}
		return out, nil
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return wrapOpaque(items)
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			break
		}
		entries := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries[iter.Key().String()] = iter.Value().Interface()
		}
		return wrapOpaque(entries)
	}

	return newSentinel(value)
}

func newSentinel(value any) (map[string]any, error) {
	data, err := gobEncode(value)
	if err != nil {
		return nil, fmt.Errorf("cannot encode %T: %w", value, err)
	}
	raw := base64.StdEncoding.EncodeToString(data)
	return map[string]any{sentinelPrefix + fingerprint(raw): raw}, nil
}

// unwrapOpaque reverses wrapOpaque. Maps that look like an envelope but do
// not verify are kept as data.
func unwrapOpaque(value any) any {
	switch v := value.(type) {
	case []any:
		for i, item := range v {
			v[i] = unwrapOpaque(item)
		}
		return v
	case map[string]any:
		if decoded, ok := openSentinel(v); ok {
			return decoded
		}
		for k, item := range v {
			v[k] = unwrapOpaque(item)
		}
		return v
	default:
		return value
	}
}

func openSentinel(m map[string]any) (any, bool) {
	if len(m) != 1 {
		return nil, false
	}
	for key, payload := range m {
		if len(key) != sentinelKeyLen || !strings.HasPrefix(key, sentinelPrefix) {
			return nil, false
		}
		raw, ok := payload.(string)
		if !ok || fingerprint(raw) != key[len(sentinelPrefix):] {
			return nil, false
		}
		data, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, false
		}
		decoded, err := gobDecode(data)
		if err != nil {
			return nil, false
		}
		return decoded, true
	}
	return nil, false
}

// normalizeNumber turns a decoded number into int when it is integral and
// fits, float64 otherwise.
func normalizeNumber(f float64) any {
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 && !math.IsInf(f, 0) {
		return int(f)
	}
	return f
}
