package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/matzehuels/stackdepth/pkg/errors"
)

func write(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, `
elf_file     = "build/fw.elf"
su_dirs      = ["build", "/abs/su"]
entry_points = ["main", "uart_isr"]
vector_table = "g_pfnVectors"
ignore_calls = "ignore.txt"
add_calls    = ["cb.txt"]
max_stack    = 2048

[cache]
url = "redis://localhost:6379/0"
ttl = "24h"
`)

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	want := &Config{
		ELFFile:     filepath.Join(dir, "build/fw.elf"),
		SUDirs:      []string{filepath.Join(dir, "build"), "/abs/su"},
		EntryPoints: []string{"main", "uart_isr"},
		VectorTable: "g_pfnVectors",
		IgnoreCalls: filepath.Join(dir, "ignore.txt"),
		AddCalls:    []string{filepath.Join(dir, "cb.txt")},
		MaxStack:    2048,
		Cache:       Cache{URL: "redis://localhost:6379/0", TTL: "24h"},
		Path:        path,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreUnexported(Cache{})); diff != "" {
		t.Errorf("Load() mismatch (-want +got):\n%s", diff)
	}
	if got.Cache.Duration() != 24*time.Hour {
		t.Errorf("Duration() = %v, want 24h", got.Cache.Duration())
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		code errors.Code
	}{
		{"unknown key", `elf_flie = "fw.elf"`, errors.ErrCodeInvalidConfig},
		{"unknown cache key", "[cache]\nhost = \"x\"", errors.ErrCodeInvalidConfig},
		{"bad ttl", "[cache]\nttl = \"soon\"", errors.ErrCodeInvalidConfig},
		{"negative budget", "max_stack = -1", errors.ErrCodeInvalidConfig},
		{"syntax", "su_dirs = [", errors.ErrCodeInvalidConfig},
		{"wrong type", `su_dirs = "build"`, errors.ErrCodeInvalidConfig},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, t.TempDir(), tt.body))
			if !errors.Is(err, tt.code) {
				t.Errorf("Load() error = %v, want %s", err, tt.code)
			}
		})
	}

	if _, err := Load(filepath.Join(t.TempDir(), "none.toml")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want %s", err, errors.ErrCodeFileNotFound)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("Find(empty) = %q", got)
	}
	path := write(t, dir, "")
	if got := Find(dir); got != path {
		t.Errorf("Find() = %q, want %q", got, path)
	}
}
