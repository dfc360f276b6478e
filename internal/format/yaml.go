package format

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/talecache/talecache/pkg/types"
)

// YAMLFormat stores values as YAML documents. Opaque values use the same
// envelope as JSONFormat, and numbers load the same way.
type YAMLFormat struct{}

func (*YAMLFormat) Name() string      { return YAML }
func (*YAMLFormat) Extension() string { return ".yaml" }

func (f *YAMLFormat) Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(f, path, err)
	}

	var value any
	if err := yaml.Unmarshal(data, &value); err != nil {
		return nil, decodeError(f, path, err)
	}
	return unwrapOpaque(normalizeYAML(value)), nil
}

func (f *YAMLFormat) Save(path string, value any) error {
	wrapped, err := wrapOpaque(value)
	if err != nil {
		return encodeError(f, path, err)
	}
	data, err := yaml.Marshal(wrapped)
	if err != nil {
		return encodeError(f, path, err)
	}
	if err := WriteFileAtomic(path, data, filePerm); err != nil {
		return writeError(f, path, err)
	}
	return nil
}

func (*YAMLFormat) Duplicate() types.Format { return &YAMLFormat{} }

// normalizeYAML converts yaml.v2's map[interface{}]interface{} into
// map[string]any, integers into int and integral floats into int. Integers
// above the int range stay uint64.
func normalizeYAML(value any) any {
	switch v := value.(type) {
	case map[interface{}]interface{}:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[fmt.Sprint(k)] = normalizeYAML(item)
		}
		return out
	case []interface{}:
		for i, item := range v {
			v[i] = normalizeYAML(item)
		}
		return v
	case int64:
		return int(v)
	case uint64:
		if v <= math.MaxInt64 {
			return int(v)
		}
		return v
	case float64:
		return normalizeNumber(v)
	default:
		return value
	}
}
