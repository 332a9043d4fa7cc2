package site

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingBuilder struct {
	builds atomic.Int32
}

func (c *countingBuilder) Build(context.Context) (*Report, error) {
	c.builds.Add(1)
	return &Report{Outcome: "success"}, nil
}

func TestWatcher_DebouncesChanges(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guides"), 0o750))

	b := &countingBuilder{}
	w, err := NewWatcher(dir, 150*time.Millisecond, b, nil)
	require.NoError(t, err)
	built := make(chan struct{}, 10)
	w.OnBuild = func(r *Report, err error) {
		assert.NoError(t, err)
		built <- struct{}{}
	}

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give Run time to register the directories.
	time.Sleep(100 * time.Millisecond)
	for i := range 5 {
		writeDoc(t, dir, "guides/a.md", "# rev "+string(rune('0'+i))+"\n")
	}

	select {
	case <-built:
	case <-time.After(5 * time.Second):
		t.Fatal("expected a rebuild after markdown changes")
	}
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), b.builds.Load(), "bursts coalesce into one build")

	// Non-markdown files are ignored.
	writeDoc(t, dir, "guides/notes.txt", "x")
	time.Sleep(400 * time.Millisecond)
	assert.Equal(t, int32(1), b.builds.Load())
}

func TestWatcher_RelevantEvents(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, time.Millisecond, &countingBuilder{}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.watcher.Close() })

	assert.True(t, w.relevant(fsnotify.Event{Name: filepath.Join(w.dir, "a.md"), Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(w.dir, "a.md"), Op: fsnotify.Chmod}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(w.dir, "a.png"), Op: fsnotify.Write}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(w.dir, ".git", "a.md"), Op: fsnotify.Write}))
	assert.True(t, w.relevant(fsnotify.Event{Name: filepath.Join(w.dir, "gone"), Op: fsnotify.Remove}))

	sub := filepath.Join(w.dir, "new")
	require.NoError(t, os.Mkdir(sub, 0o750))
	assert.True(t, w.relevant(fsnotify.Event{Name: sub, Op: fsnotify.Create}))
	assert.Contains(t, w.watcher.WatchList(), sub)
}

func TestWatcher_IgnoresNestedOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "site")
	require.NoError(t, os.MkdirAll(filepath.Join(out, "guides"), 0o750))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "guides"), 0o750))

	w, err := NewWatcher(dir, time.Millisecond, &countingBuilder{}, nil, out)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.watcher.Close() })

	require.NoError(t, w.addTree(w.dir))
	assert.Contains(t, w.watcher.WatchList(), filepath.Join(w.dir, "guides"))
	assert.NotContains(t, w.watcher.WatchList(), out)
	assert.NotContains(t, w.watcher.WatchList(), filepath.Join(out, "guides"))

	// A clean build removes and recreates the output tree.
	assert.False(t, w.relevant(fsnotify.Event{Name: out, Op: fsnotify.Remove}))
	assert.False(t, w.relevant(fsnotify.Event{Name: out, Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(out, "guides"), Op: fsnotify.Create}))
	assert.False(t, w.relevant(fsnotify.Event{Name: filepath.Join(out, "notes.md"), Op: fsnotify.Write}))
	assert.NotContains(t, w.watcher.WatchList(), filepath.Join(out, "guides"))

	assert.True(t, w.relevant(fsnotify.Event{Name: filepath.Join(w.dir, "site.md"), Op: fsnotify.Write}))
}

func TestHidden(t *testing.T) {
	assert.True(t, hidden("/r", "/r/.git/config"))
	assert.True(t, hidden("/r", "/r/a/.swp"))
	assert.False(t, hidden("/r", "/r/a/b.md"))
}
