package format

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrapOpaque_PlainDataUntouched(t *testing.T) {
	value := map[string]any{"a": []any{1, "b", nil}, "c": 2.5}
	wrapped, err := wrapOpaque(value)
	require.NoError(t, err)
	assert.Equal(t, value, wrapped)
}

func TestWrapOpaque_TypedContainersBecomeGeneric(t *testing.T) {
	wrapped, err := wrapOpaque(map[string][]string{"k": {"x", "y"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"k": []any{"x", "y"}}, wrapped)
}

func TestWrapOpaque_Sentinel(t *testing.T) {
	wrapped, err := wrapOpaque(point{X: 7})
	require.NoError(t, err)

	m, ok := wrapped.(map[string]any)
	require.True(t, ok)
	require.Len(t, m, 1)

	for key, raw := range m {
		assert.True(t, strings.HasPrefix(key, "#!"))
		assert.Len(t, key, 42)
		assert.Equal(t, fingerprint(raw.(string)), key[2:])
		assert.Equal(t, strings.ToLower(key), key, "hash must be lowercase hex")
	}

	assert.Equal(t, point{X: 7}, unwrapOpaque(wrapped))
}

func TestWrapOpaque_ByteSliceIsOpaque(t *testing.T) {
	wrapped, err := wrapOpaque([]byte("raw"))
	require.NoError(t, err)
	_, isMap := wrapped.(map[string]any)
	assert.True(t, isMap)
	assert.Equal(t, []byte("raw"), unwrapOpaque(wrapped))
}

func TestUnwrapOpaque_TamperedHashIsData(t *testing.T) {
	wrapped, err := wrapOpaque(point{X: 1})
	require.NoError(t, err)

	var key, raw string
	for k, v := range wrapped.(map[string]any) {
		key, raw = k, v.(string)
	}
	badKey := key[:len(key)-1] + flipHex(key[len(key)-1])
	tampered := map[string]any{badKey: raw}

	assert.Equal(t, map[string]any{badKey: raw}, unwrapOpaque(tampered))
}

func TestUnwrapOpaque_NotSentinels(t *testing.T) {
	tests := []struct {
		name  string
		value map[string]any
	}{
		{"short key", map[string]any{"#!abc": "x"}},
		{"no prefix", map[string]any{strings.Repeat("a", 42): "x"}},
		{"non string payload", map[string]any{"#!" + fingerprint("1"): 1}},
		{"hash matches but payload is not base64 gob", map[string]any{"#!" + fingerprint("hello"): "hello"}},
		{"two entries", map[string]any{"#!" + fingerprint("a"): "a", "b": "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := make(map[string]any, len(tt.value))
			for k, v := range tt.value {
				want[k] = v
			}
			assert.Equal(t, want, unwrapOpaque(tt.value))
		})
	}
}

func TestJSON_TamperedFileLoadsAsData(t *testing.T) {
	f := &JSONFormat{}
	path := filepath.Join(t.TempDir(), "obj.json")
	require.NoError(t, f.Save(path, point{X: 3}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var doc map[string]string
	require.NoError(t, json.Unmarshal(data, &doc))
	for k, v := range doc {
		doc[k] = v + "AA"
	}
	data, err = json.Marshal(doc)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	loaded, err := f.Load(path)
	require.NoError(t, err)
	m, ok := loaded.(map[string]any)
	require.True(t, ok, "tampered envelope must load as a plain map")
	assert.Len(t, m, 1)
}

func TestJSON_EscapesHTML(t *testing.T) {
	f := &JSONFormat{}
	path := filepath.Join(t.TempDir(), "html.json")
	require.NoError(t, f.Save(path, "<a href='x'>&</a>"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "<")
	assert.NotContains(t, string(data), "&")

	loaded, err := f.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "<a href='x'>&</a>", loaded)
}

func TestNormalizeNumber(t *testing.T) {
	assert.Equal(t, 4, normalizeNumber(4.0))
	assert.Equal(t, 4.3, normalizeNumber(4.3))
	assert.Equal(t, -2, normalizeNumber(-2.0))
}

func flipHex(c byte) string {
	if c == '0' {
		return "1"
	}
	return "0"
}
