package cli

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func TestOpenFileCacheHonoursXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", dir)

	fc, err := openFileCache()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, appName); fc.Dir() != want {
		t.Errorf("Dir() = %q, want %q", fc.Dir(), want)
	}
}

func TestCacheClear(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	ctx := context.Background()

	fc, err := openFileCache()
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b"} {
		if err := fc.Set(ctx, k, []byte(k), time.Hour); err != nil {
			t.Fatal(err)
		}
	}

	root := New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "prune"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := fc.Get(ctx, "a"); !ok {
		t.Error("prune removed a live entry")
	}

	root = New(io.Discard, LogInfo).RootCommand()
	root.SetArgs([]string{"cache", "clear"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b"} {
		if _, ok, _ := fc.Get(ctx, k); ok {
			t.Errorf("entry %q survived clear", k)
		}
	}
}
