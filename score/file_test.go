package score

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestFileBlobRoundTrip(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "scores")
	f, err := NewFileBlob(dir)
	if err != nil {
		t.Fatalf("new file blob: %v", err)
	}

	data, err := f.Get(ctx, "missing")
	if err != nil || data != nil {
		t.Fatalf("Expected nil, nil for missing key, got %q, %v", data, err)
	}

	if err := f.Set(ctx, DefaultKey, []byte(`[1]`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	data, err = f.Get(ctx, DefaultKey)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	testutil.AssertEqual(t, "data", string(data), `[1]`)

	if _, err := os.Stat(filepath.Join(dir, DefaultKey+".json.tmp")); !os.IsNotExist(err) {
		t.Errorf("Expected temp file removed, stat err %v", err)
	}
}

func TestFileBlobRejectsPathKeys(t *testing.T) {
	f, err := NewFileBlob(t.TempDir())
	if err != nil {
		t.Fatalf("new file blob: %v", err)
	}
	for _, key := range []string{"", "../escape", "a/b"} {
		if err := f.Set(context.Background(), key, []byte("x")); err == nil {
			t.Errorf("Expected error for key %q", key)
		}
	}
}

func TestBoardOnFileBlobPersists(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	f1, _ := NewFileBlob(dir)
	if err := NewBoard(f1).SaveScore(ctx, 77); err != nil {
		t.Fatalf("save: %v", err)
	}

	f2, _ := NewFileBlob(dir)
	got, err := NewBoard(f2).HighScores(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	testutil.AssertEqual(t, "len", len(got), 1)
	testutil.AssertEqual(t, "score", got[0].Score, 77)
}

func TestOpenBackends(t *testing.T) {
	ctx := context.Background()
	b, err := Open(ctx, BackendMemory, "", "", nil)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := b.(*MemoryBlob); !ok {
		t.Errorf("Expected *MemoryBlob, got %T", b)
	}

	b, err = Open(ctx, BackendFile, t.TempDir(), "", nil)
	if err != nil {
		t.Fatalf("file: %v", err)
	}
	if _, ok := b.(*FileBlob); !ok {
		t.Errorf("Expected *FileBlob, got %T", b)
	}

	if _, err := Open(ctx, "redis", "", "", nil); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
