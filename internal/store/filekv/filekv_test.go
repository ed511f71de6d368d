package filekv

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Makepad-fr/tada/internal/store/kv"
)

func TestGetMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if _, err := s.Get("todos"); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("expected kv.ErrNotFound, got %v", err)
	}
}

func TestSetWritesKeyFile(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := s.Set("todos", []byte(`[]`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := s.Set("todos", []byte(`[{"id":1,"text":"a","completed":false}]`)); err != nil {
		t.Fatalf("second set failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "todos.json"))
	if err != nil {
		t.Fatalf("read todos.json failed: %v", err)
	}
	if string(data) != `[{"id":1,"text":"a","completed":false}]` {
		t.Fatalf("unexpected file content %q", data)
	}

	got, err := s.Get("todos")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(got) != string(data) {
		t.Fatalf("get mismatch: %q", got)
	}

	leftovers, err := filepath.Glob(filepath.Join(dir, "*.tmp-*"))
	if err != nil {
		t.Fatalf("glob failed: %v", err)
	}
	if len(leftovers) != 0 {
		t.Fatalf("temp files left behind: %v", leftovers)
	}
}

func TestRejectsPathLikeKeys(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	for _, key := range []string{"", "..", "../escape", "a/b", "sp ace"} {
		if err := s.Set(key, []byte("x")); err == nil {
			t.Fatalf("expected error for key %q", key)
		}
	}
}

func TestNewCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := s.Set("todos.seq", []byte("3")); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "todos.seq.json")); err != nil {
		t.Fatalf("expected seq file: %v", err)
	}
}

func TestSetFailsWhenDirectoryIsGone(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("new failed: %v", err)
	}
	if err := os.RemoveAll(dir); err != nil {
		t.Fatalf("remove dir failed: %v", err)
	}
	if err := s.Set("todos", []byte("[]")); err == nil {
		t.Fatalf("expected error writing into a removed directory")
	}
}
