package format

import (
	"bytes"
	"encoding/gob"
	"os"
	"reflect"

	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
)

// gobValue lets gob carry any value, including nil, at the top level.
type gobValue struct {
	V any
}

func gobEncode(value any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&gobValue{V: value}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte) (any, error) {
	var v gobValue
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return restoreEmpty(v.V), nil
}

// restoreEmpty turns the nil slices gob produces for empty ones back into
// empty slices, inside lists and maps too.
func restoreEmpty(value any) any {
	switch v := value.(type) {
	case []any:
		if v == nil {
			return []any{}
		}
		for i, item := range v {
			v[i] = restoreEmpty(item)
		}
		return v
	case map[string]any:
		for k, item := range v {
			v[k] = restoreEmpty(item)
		}
		return v
	}

	rv := reflect.ValueOf(value)
	if rv.Kind() == reflect.Slice && rv.IsNil() {
		return reflect.MakeSlice(rv.Type(), 0, 0).Interface()
	}
	return value
}

// SerializeFormat stores values with encoding/gob.
type SerializeFormat struct{}

func (*SerializeFormat) Name() string      { return Serialize }
func (*SerializeFormat) Extension() string { return ".cache" }

func (f *SerializeFormat) Load(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, readError(f, path, err)
	}
	value, err := gobDecode(data)
	if err != nil {
		return nil, decodeError(f, path, err)
	}
	return value, nil
}

func (f *SerializeFormat) Save(path string, value any) error {
	data, err := gobEncode(value)
	if err != nil {
		return encodeError(f, path, err)
	}
	if err := WriteFileAtomic(path, data, filePerm); err != nil {
		return writeError(f, path, err)
	}
	return nil
}

func (*SerializeFormat) Duplicate() types.Format { return &SerializeFormat{} }

const filePerm = 0o644

func readError(f types.Format, path string, err error) error {
	return errors.Wrap(err, errors.ErrCodeStorageRead, "failed to read cache file").
		WithComponent(f.Name()).WithOperation("load").WithContext("path", path)
}

func decodeError(f types.Format, path string, err error) error {
	return errors.Wrap(err, errors.ErrCodeDecode, "failed to decode cache file").
		WithComponent(f.Name()).WithOperation("load").WithContext("path", path)
}

func encodeError(f types.Format, path string, err error) error {
	return errors.Wrap(err, errors.ErrCodeEncode, "failed to encode value").
		WithComponent(f.Name()).WithOperation("save").WithContext("path", path)
}

func writeError(f types.Format, path string, err error) error {
	return errors.Wrap(err, errors.ErrCodeStorageWrite, "failed to write cache file").
		WithComponent(f.Name()).WithOperation("save").WithContext("path", path)
}
