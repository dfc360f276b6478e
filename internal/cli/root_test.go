package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talecache/talecache/pkg/errors"
)

func writeConfig(t *testing.T) (string, string, string) {
	t.Helper()

	dir := t.TempDir()
	files := filepath.Join(dir, "files")
	users := filepath.Join(dir, "users")

	config := fmt.Sprintf(`global:
  log_level: ERROR
  default_pool: router
pools:
  - name: files
    type: file
    path: %s
    format: json
  - name: users
    type: file
    path: %s
    format: yaml
  - name: router
    type: routing
    routes:
      - prefix: "user."
        pool: users
      - prefix: "*"
        pool: files
`, files, users)

	path := filepath.Join(dir, "talecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))
	return path, files, users
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd("test")
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "talecache test\n", stdout)
}

func TestSetGetHasDelete(t *testing.T) {
	config, _, users := writeConfig(t)

	_, _, err := run(t, "-c", config, "set", "user.1", `{"name":"alice","age":30}`)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(users, "user", "1.yaml"), "user. keys route to the users pool")

	stdout, _, err := run(t, "-c", config, "get", "user.1")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"age\": 30,\n  \"name\": \"alice\"\n}\n", stdout)

	stdout, _, err = run(t, "-c", config, "has", "user.1")
	require.NoError(t, err)
	assert.Equal(t, "true\n", stdout)

	_, _, err = run(t, "-c", config, "delete", "user.1", "user.2")
	require.NoError(t, err)

	stdout, _, err = run(t, "-c", config, "has", "user.1")
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)

	_, _, err = run(t, "-c", config, "get", "user.1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not cached")
}

func TestSetWithTTLAndPool(t *testing.T) {
	config, files, _ := writeConfig(t)

	_, _, err := run(t, "-c", config, "--pool", "files", "set", "greeting", "hello world", "--ttl", "1h")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(files, "greeting.json"))

	stdout, _, err := run(t, "-c", config, "-p", "files", "get", "greeting")
	require.NoError(t, err)
	assert.Equal(t, "\"hello world\"\n", stdout)

	_, _, err = run(t, "-c", config, "-p", "files", "clear")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(files, "greeting.json"))
}

func TestInvalidKeyAndPool(t *testing.T) {
	config, _, _ := writeConfig(t)

	_, _, err := run(t, "-c", config, "has", "not/valid")
	assert.True(t, errors.Is(err, errors.ErrInvalidKey))

	_, _, err = run(t, "-c", config, "-p", "nope", "has", "k")
	assert.True(t, errors.Is(err, errors.ErrUnknownPool))

	_, _, err = run(t, "-c", filepath.Join(t.TempDir(), "missing.yaml"), "has", "k")
	assert.Equal(t, errors.ErrCodeConfigLoad, errors.CodeOf(err))
}

func TestPools(t *testing.T) {
	config, files, _ := writeConfig(t)

	stdout, _, err := run(t, "-c", config, "pools")
	require.NoError(t, err)
	assert.Contains(t, stdout, "router*")
	assert.Contains(t, stdout, "user.->users *->files")
	assert.Contains(t, stdout, "path="+files+" format=json")
}

func TestStats(t *testing.T) {
	config, _, _ := writeConfig(t)

	_, stderr, err := run(t, "-c", config, "--stats", "set", "session.1", "42")
	require.NoError(t, err)
	assert.Contains(t, stderr, "POOL")
	assert.Contains(t, stderr, "save=1")
}

func TestPrintError(t *testing.T) {
	config, _, _ := writeConfig(t)

	_, _, err := run(t, "-c", config, "-p", "nope", "has", "k")
	require.Error(t, err)

	var buf bytes.Buffer
	PrintError(&buf, err)
	assert.Contains(t, buf.String(), "Error: ")
	assert.Contains(t, buf.String(), `unknown gateway "nope"`)
	assert.Contains(t, buf.String(), "Hint: Check the pool name")

	buf.Reset()
	PrintError(&buf, fmt.Errorf("key %q is not cached", "k"))
	assert.Equal(t, "Error: key \"k\" is not cached\n", buf.String())
}

func TestComponentLogLevels(t *testing.T) {
	dir := t.TempDir()
	logFile := filepath.Join(dir, "talecache.log")
	config := fmt.Sprintf(`global:
  log_level: ERROR
  log_file: %s
  component_levels:
    pool: TRACE
pools:
  - name: sessions
    type: memory
`, logFile)
	path := filepath.Join(dir, "talecache.yaml")
	require.NoError(t, os.WriteFile(path, []byte(config), 0o600))

	stdout, _, err := run(t, "-c", path, "has", "session.1")
	require.NoError(t, err)
	assert.Equal(t, "false\n", stdout)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[TRACE]")
	assert.Contains(t, string(data), "lookup")
	assert.Contains(t, string(data), "key=session.1")
	assert.NotContains(t, string(data), "[DEBUG]", "other components keep the global level")
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  any
	}{
		{"42", 42},
		{"4.5", 4.5},
		{"true", true},
		{"null", nil},
		{`"quoted"`, "quoted"},
		{"hello", "hello"},
		{"1 2", "1 2"},
		{`[1, "a", {"b": 2}]`, []any{1, "a", map[string]any{"b": 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, parseValue(tt.input))
		})
	}
}
