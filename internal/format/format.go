package format

import (
	"encoding/gob"
	"reflect"
	"sort"
	"strings"

	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
)

// Format names accepted by New.
const (
	JSON      = "json"
	Serialize = "serialize"
	YAML      = "yaml"
)

var constructors = map[string]func() types.Format{
	JSON:      func() types.Format { return &JSONFormat{} },
	Serialize: func() types.Format { return &SerializeFormat{} },
	YAML:      func() types.Format { return &YAMLFormat{} },
}

func init() {
	gob.Register([]any(nil))
	gob.Register(map[string]any(nil))
}

// New returns the format registered under name.
func New(name string) (types.Format, error) {
	ctor, ok := constructors[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, errors.Newf(errors.ErrCodeUnknownFormat, "unknown cache format %q", name).
			WithComponent("format").
			WithDetail("supported", Names())
	}
	return ctor(), nil
}

// Names lists the supported format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register makes the concrete type of value storable. It must be called
// for every struct type written to a cache, before the first save or load
// of such a value.
//
// Pointers register their element type, so T and *T share one
// registration and a stored *T loads back as a T. Registering both is
// allowed.
func Register(value any) {
	rt := reflect.TypeOf(value)
	if rt == nil {
		return
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}
	gob.Register(reflect.Zero(rt).Interface())
}
