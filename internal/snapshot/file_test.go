package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rickgao/pond-monitor/internal/config"
)

func TestFileStore_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	ctx := context.Background()

	if _, err := s.Load(ctx, "historyData"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load on empty store = %v, want ErrNotFound", err)
	}

	if err := s.Save(ctx, "historyData", []byte(`[{"line1":1}]`)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if err := s.Save(ctx, "historyData", []byte(`[]`)); err != nil {
		t.Fatalf("second Save: %v", err)
	}

	got, err := s.Load(ctx, "historyData")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if string(got) != `[]` {
		t.Errorf("Load = %s, want [] (overwritten, not merged)", got)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "historyData.json" {
		t.Errorf("dir entries = %v, want only historyData.json", entries)
	}
}

func TestFileStore_InvalidKey(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}

	for _, key := range []string{"", "..", "a/b", `a\b`} {
		if err := s.Save(context.Background(), key, []byte(`[]`)); err == nil {
			t.Errorf("Save(%q) expected error", key)
		}
	}
}

func TestFileStore_CreatesDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")
	if _, err := NewFileStore(dir); err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("dir not created: %v", err)
	}
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("none", func(t *testing.T) {
		s, err := Open(ctx, config.SnapshotConfig{Backend: config.BackendNone})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		if _, err := s.Load(ctx, "k"); !errors.Is(err, ErrNotFound) {
			t.Errorf("NopStore.Load = %v, want ErrNotFound", err)
		}
		if err := s.Save(ctx, "k", []byte(`[]`)); err != nil {
			t.Errorf("NopStore.Save = %v", err)
		}
	})

	t.Run("file", func(t *testing.T) {
		s, err := Open(ctx, config.SnapshotConfig{
			Backend: config.BackendFile,
			File:    config.FileConfig{Dir: t.TempDir()},
		})
		if err != nil {
			t.Fatalf("Open: %v", err)
		}
		defer s.Close()
		if s.Name() != "file" {
			t.Errorf("Name() = %q, want file", s.Name())
		}
	})

	t.Run("unknown", func(t *testing.T) {
		if _, err := Open(ctx, config.SnapshotConfig{Backend: "s3"}); err == nil {
			t.Error("Open with unknown backend should fail")
		}
	})
}
