// ABOUTME: Tests for the directory watcher using a recording indexer
// ABOUTME: Covers queued change handling and a live fsnotify round trip
package watch

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/models"
)

type recordingIndexer struct {
	mu      sync.Mutex
	indexed []string
	removed []string
	known   map[string]bool
}

func newRecordingIndexer() *recordingIndexer {
	return &recordingIndexer{known: make(map[string]bool)}
}

func (r *recordingIndexer) Index(_ context.Context, docs []models.Document, opts core.ChunkOptions) (models.IndexReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	report := models.IndexReport{ChunkSize: opts.Size, ChunkOverlap: opts.Overlap}
	for _, d := range docs {
		r.indexed = append(r.indexed, d.ID)
		r.known[d.ID] = true
		report.Add(models.DocumentResult{DocumentID: d.ID, Chunks: 1})
	}
	return report, nil
}

func (r *recordingIndexer) RemoveDocument(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.known[id] {
		return core.ErrDocumentNotFound
	}
	delete(r.known, id)
	r.removed = append(r.removed, id)
	return nil
}

func (r *recordingIndexer) snapshot() (indexed, removed []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.indexed), slices.Clone(r.removed)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestFlush(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.md")
	writeFile(t, a, "alpha")
	writeFile(t, b, "# beta")

	idx := newRecordingIndexer()
	w := New(idx, core.DefaultChunkOptions(), nil)

	w.Record(a, false)
	w.Record(b, false)
	w.Record(filepath.Join(dir, "image.png"), false)
	w.Record(filepath.Join(dir, ".hidden.txt"), false)
	w.Flush(context.Background())

	indexed, _ := idx.snapshot()
	if !slices.Equal(indexed, []string{a, b}) {
		t.Fatalf("indexed = %v, want [%s %s]", indexed, a, b)
	}

	// removal replaces an upsert queued for the same path
	w.Record(b, false)
	w.Record(b, true)
	w.Flush(context.Background())

	indexed, removed := idx.snapshot()
	if len(indexed) != 2 {
		t.Errorf("indexed again: %v", indexed)
	}
	if !slices.Equal(removed, []string{b}) {
		t.Errorf("removed = %v, want [%s]", removed, b)
	}
}

func TestFlushSkipsVanishedAndUnknown(t *testing.T) {
	dir := t.TempDir()
	idx := newRecordingIndexer()
	w := New(idx, core.DefaultChunkOptions(), nil)

	w.Record(filepath.Join(dir, "gone.txt"), false)
	w.Record(filepath.Join(dir, "never-indexed.txt"), true)
	w.Flush(context.Background())

	indexed, removed := idx.snapshot()
	if len(indexed) != 0 || len(removed) != 0 {
		t.Errorf("indexed = %v, removed = %v, want none", indexed, removed)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.txt")
	writeFile(t, first, "already here")

	idx := newRecordingIndexer()
	w := New(idx, core.DefaultChunkOptions(), nil)
	w.Debounce = 20 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, dir) }()
	defer func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Run() error = %v", err)
		}
	}()

	waitFor(t, "initial index", func() bool {
		indexed, _ := idx.snapshot()
		return slices.Contains(indexed, first)
	})

	second := filepath.Join(dir, "second.md")
	writeFile(t, second, "# Added later")
	waitFor(t, "new file indexed", func() bool {
		indexed, _ := idx.snapshot()
		return slices.Contains(indexed, second)
	})

	if err := os.Remove(first); err != nil {
		t.Fatal(err)
	}
	waitFor(t, "deleted file removed", func() bool {
		_, removed := idx.snapshot()
		return slices.Contains(removed, first)
	})
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
