package format

import (
	"bytes"
	"encoding/json"
	"os"
	"strconv"

	"github.com/talecache/talecache/pkg/types"
)

// JSONFormat stores values as JSON.
//
// Integers load as int, or as uint64 when they exceed the int range. Other
// numbers load as float64, except that a float64 with no fractional part
// comes back as int. Sized integer types such as int64 or int32 also come
// back as int.
type JSONFormat struct{}

func (*JSONFormat) Name() string      { return JSON }
func (*JSONFormat) Extension() string { return ".json" }

func (f *JSONFormat) Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(f, path, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, decodeError(f, path, err)
	}
	return unwrapOpaque(normalizeJSON(value)), nil
}

func (f *JSONFormat) Save(path string, value any) error {
	wrapped, err := wrapOpaque(value)
	if err != nil {
		return encodeError(f, path, err)
	}
	data, err := json.Marshal(wrapped)
	if err != nil {
		return encodeError(f, path, err)
	}
	if err := WriteFileAtomic(path, data, filePerm); err != nil {
		return writeError(f, path, err)
	}
	return nil
}

func (*JSONFormat) Duplicate() types.Format { return &JSONFormat{} }

func normalizeJSON(value any) any {
	switch v := value.(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return int(i)
		}
		if u, err := strconv.ParseUint(v.String(), 10, 64); err == nil {
			return u
		}
		f, err := v.Float64()
		if err != nil {
			return v.String()
		}
		return normalizeNumber(f)
	case []any:
		for i, item := range v {
			v[i] = normalizeJSON(item)
		}
		return v
	case map[string]any:
		for k, item := range v {
			v[k] = normalizeJSON(item)
		}
		return v
	default:
		return value
	}
}
