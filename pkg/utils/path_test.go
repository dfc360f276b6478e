package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSecureJoin(t *testing.T) {
	t.Parallel()

	base := filepath.Join(string(filepath.Separator), "var", "cache", "talecache")

	tests := []struct {
		name     string
		elements []string
		want     string
		wantErr  bool
	}{
		{
			name:     "single key",
			elements: []string{"user.42"},
			want:     filepath.Join(base, "user.42"),
		},
		{
			name:     "nested elements",
			elements: []string{"sub", "entry"},
			want:     filepath.Join(base, "sub", "entry"),
		},
		{
			name:     "no elements yields base",
			elements: nil,
			want:     base,
		},
		{
			name:     "parent traversal",
			elements: []string{"..", "etc", "passwd"},
			wantErr:  true,
		},
		{
			name:     "traversal hidden in the middle",
			elements: []string{"a", "..", "..", "escape"},
			wantErr:  true,
		},
		{
			name:     "dots that stay inside",
			elements: []string{"a", "..", "b"},
			want:     filepath.Join(base, "b"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SecureJoin(base, tt.elements...)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("SecureJoin() = %q, want error", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("SecureJoin() unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("SecureJoin() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSecureJoin_EmptyBase(t *testing.T) {
	t.Parallel()

	_, err := SecureJoin("", "key")
	if err == nil || !strings.Contains(err.Error(), "cannot be empty") {
		t.Errorf("SecureJoin(\"\") error = %v, want empty base error", err)
	}
}

func TestIsWithinBase(t *testing.T) {
	t.Parallel()

	base := filepath.Join(string(filepath.Separator), "srv", "cache")

	tests := []struct {
		path string
		want bool
	}{
		{base, true},
		{filepath.Join(base, "x"), true},
		{filepath.Join(base, "x", "y"), true},
		{base + "-other", false},
		{filepath.Join(string(filepath.Separator), "srv"), false},
	}

	for _, tt := range tests {
		if got := IsWithinBase(base, tt.path); got != tt.want {
			t.Errorf("IsWithinBase(%q, %q) = %v, want %v", base, tt.path, got, tt.want)
		}
	}
}

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()

	t.Run("creates nested directories", func(t *testing.T) {
		dir := filepath.Join(root, "a", "b", "c")
		if err := EnsureDir(dir, 0750); err != nil {
			t.Fatalf("EnsureDir() error = %v", err)
		}
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Fatalf("directory not created: %v", err)
		}
	})

	t.Run("existing directory is fine", func(t *testing.T) {
		if err := EnsureDir(root, 0750); err != nil {
			t.Errorf("EnsureDir() on existing dir error = %v", err)
		}
	})

	t.Run("file in the way", func(t *testing.T) {
		file := filepath.Join(root, "file")
		if err := os.WriteFile(file, []byte("x"), 0600); err != nil {
			t.Fatal(err)
		}
		if err := EnsureDir(file, 0750); err == nil {
			t.Error("EnsureDir() should fail when a file occupies the path")
		}
	})
}
