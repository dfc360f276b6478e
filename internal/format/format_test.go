package format

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/talecache/talecache/pkg/errors"
	"github.com/talecache/talecache/pkg/types"
)

type point struct {
	X, Y int
	Tag  string
}

func init() {
	Register(point{})
}

// FormatSuite runs the same round-trip checks against every format.
type FormatSuite struct {
	suite.Suite
	name string
	f    types.Format
	dir  string
}

func TestFormats(t *testing.T) {
	for _, name := range Names() {
		t.Run(name, func(t *testing.T) {
			suite.Run(t, &FormatSuite{name: name})
		})
	}
}

func (s *FormatSuite) SetupTest() {
	f, err := New(s.name)
	s.Require().NoError(err)
	s.f = f
	s.dir = s.T().TempDir()
}

func (s *FormatSuite) path(name string) string {
	return filepath.Join(s.dir, name+s.f.Extension())
}

func (s *FormatSuite) roundTrip(value any) any {
	path := s.path("value")
	s.Require().NoError(s.f.Save(path, value))
	loaded, err := s.f.Load(path)
	s.Require().NoError(err)
	return loaded
}

func (s *FormatSuite) TestName() {
	s.Equal(s.name, s.f.Name())
	s.NotEmpty(s.f.Extension())
	s.Equal(byte('.'), s.f.Extension()[0])
}

func (s *FormatSuite) TestScalars() {
	for _, value := range []any{nil, true, false, 1, 2556, -17, 4.3, "some string", ""} {
		s.Equal(value, s.roundTrip(value), "value %#v", value)
	}
}

func (s *FormatSuite) TestList() {
	s.Equal([]any{"a", "b", "c"}, s.roundTrip([]any{"a", "b", "c"}))
}

func (s *FormatSuite) TestMap() {
	value := map[string]any{
		"name":  "tale",
		"count": 3,
		"tags":  []any{"x", "y"},
		"inner": map[string]any{"ok": true},
	}
	s.Equal(value, s.roundTrip(value))
}

func (s *FormatSuite) TestEmptyContainers() {
	s.Equal([]any{}, s.roundTrip([]any{}))
	s.Equal(map[string]any{}, s.roundTrip(map[string]any{}))

	nested := map[string]any{"list": []any{}, "map": map[string]any{}}
	s.Equal(nested, s.roundTrip(nested))
	s.Equal([]any{[]any{}, "x"}, s.roundTrip([]any{[]any{}, "x"}))
}

func (s *FormatSuite) TestOpaqueValue() {
	s.Equal(point{X: 1, Y: 2, Tag: "p"}, s.roundTrip(point{X: 1, Y: 2, Tag: "p"}))
}

func (s *FormatSuite) TestOpaqueInsideContainers() {
	value := map[string]any{
		"points": []any{point{X: 1}, point{Y: 2}},
		"label":  "two points",
	}
	s.Equal(value, s.roundTrip(value))
}

func (s *FormatSuite) TestOverwrite() {
	path := s.path("value")
	s.Require().NoError(s.f.Save(path, "first"))
	s.Require().NoError(s.f.Save(path, "second"))

	loaded, err := s.f.Load(path)
	s.Require().NoError(err)
	s.Equal("second", loaded)
}

func (s *FormatSuite) TestLoadMissing() {
	_, err := s.f.Load(s.path("missing"))
	s.Require().Error(err)
	s.Equal(errors.ErrCodeStorageRead, errors.CodeOf(err))
}

func (s *FormatSuite) TestLoadGarbage() {
	path := s.path("garbage")
	s.Require().NoError(os.WriteFile(path, []byte("{[: not valid \x00\x01"), 0o644))

	_, err := s.f.Load(path)
	s.Require().Error(err)
	s.True(errors.Is(err, errors.ErrDecode))
}

func (s *FormatSuite) TestSaveIntoMissingDirectory() {
	err := s.f.Save(filepath.Join(s.dir, "no", "such", "dir", "v"+s.f.Extension()), 1)
	s.Require().Error(err)
	s.Equal(errors.ErrCodeStorageWrite, errors.CodeOf(err))
}

func (s *FormatSuite) TestUnencodableValue() {
	err := s.f.Save(s.path("chan"), make(chan int))
	s.Require().Error(err)
	s.Equal(errors.ErrCodeEncode, errors.CodeOf(err))
}

func TestRegisterPointerAndValue(t *testing.T) {
	type pair struct{ A, B string }

	assert.NotPanics(t, func() {
		Register(pair{})
		Register(&pair{})
		Register(point{})
		Register(nil)
	})
}

func TestNumbersInTextFormats(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  any
	}{
		{"int", 5, 5},
		{"int64", int64(5), 5},
		{"negative", -12, -12},
		{"fraction", 2.5, 2.5},
		{"integral float", 2.0, 2},
		{"uint64 in int range", uint64(7), 7},
		{"uint64 above int range", uint64(1) << 63, uint64(1) << 63},
	}

	for _, name := range []string{JSON, YAML} {
		f, err := New(name)
		require.NoError(t, err)
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				path := filepath.Join(t.TempDir(), "n"+f.Extension())
				require.NoError(t, f.Save(path, tt.value))
				loaded, err := f.Load(path)
				require.NoError(t, err)
				assert.Equal(t, tt.want, loaded)
			})
		}
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"json", "JSON", " serialize ", "yaml"} {
		f, err := New(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := New("export")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrUnknownFormat))
	assert.True(t, errors.IsConfiguration(err))
}

func TestNames(t *testing.T) {
	assert.Equal(t, []string{"json", "serialize", "yaml"}, Names())
}

func TestExtensions(t *testing.T) {
	assert.Equal(t, ".json", (&JSONFormat{}).Extension())
	assert.Equal(t, ".cache", (&SerializeFormat{}).Extension())
	assert.Equal(t, ".yaml", (&YAMLFormat{}).Extension())
}

func TestDuplicate(t *testing.T) {
	for _, name := range Names() {
		f, err := New(name)
		require.NoError(t, err)
		dup := f.Duplicate()
		assert.Equal(t, f.Name(), dup.Name())
		assert.Equal(t, f.Extension(), dup.Extension())
	}
}
