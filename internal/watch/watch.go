// ABOUTME: Keeps a session's index in sync with a directory using fsnotify
// ABOUTME: Created or changed files are re-indexed, deleted or renamed files are removed
package watch

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harper/ragchat/internal/core"
	"github.com/harper/ragchat/internal/loader"
	"github.com/harper/ragchat/internal/logging"
	"github.com/harper/ragchat/internal/models"
)

// DefaultDebounce is how often queued changes are applied
const DefaultDebounce = 300 * time.Millisecond

// Indexer is the session surface the watcher drives
type Indexer interface {
	Index(ctx context.Context, docs []models.Document, opts core.ChunkOptions) (models.IndexReport, error)
	RemoveDocument(ctx context.Context, documentID string) error
}

type change int

const (
	changeUpsert change = iota
	changeRemove
)

// Watcher mirrors a directory tree into a session
type Watcher struct {
	session  Indexer
	opts     core.ChunkOptions
	log      *slog.Logger
	Debounce time.Duration

	mu      sync.Mutex
	pending map[string]change
}

// New creates a watcher feeding session. A nil logger discards output.
func New(session Indexer, opts core.ChunkOptions, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Watcher{
		session:  session,
		opts:     opts,
		log:      logger,
		Debounce: DefaultDebounce,
		pending:  make(map[string]change),
	}
}

// Run indexes everything under dir, then applies changes until ctx is done
func (w *Watcher) Run(ctx context.Context, dir string) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = fsw.Close() }()

	if err := addTree(fsw, dir); err != nil {
		return err
	}

	paths, err := loader.ExpandPaths([]string{dir})
	if err != nil {
		return err
	}
	w.index(ctx, paths)
	w.log.Info("watching directory", "dir", dir, "documents", len(paths))

	ticker := time.NewTicker(w.Debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.observe(fsw, event)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", "error", err)
		case <-ticker.C:
			w.Flush(ctx)
		}
	}
}

// observe records an fsnotify event as a pending change
func (w *Watcher) observe(fsw *fsnotify.Watcher, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if hidden(event.Name) {
				return
			}
			if err := addTree(fsw, event.Name); err != nil {
				w.log.Warn("failed to watch directory", "dir", event.Name, "error", err)
			}
			// files may land before the watch is added
			if paths, err := loader.ExpandPaths([]string{event.Name}); err == nil {
				for _, p := range paths {
					w.Record(p, false)
				}
			}
			return
		}
		w.Record(event.Name, false)
	case event.Has(fsnotify.Write):
		w.Record(event.Name, false)
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		w.Record(event.Name, true)
	}
}

// Record queues path for the next flush; removal wins over an earlier upsert
func (w *Watcher) Record(path string, removed bool) {
	if !loader.Supported(path) || hidden(path) {
		return
	}
	path = filepath.Clean(path)
	w.mu.Lock()
	defer w.mu.Unlock()
	if removed {
		w.pending[path] = changeRemove
	} else {
		w.pending[path] = changeUpsert
	}
}

// Flush applies every queued change
func (w *Watcher) Flush(ctx context.Context) {
	w.mu.Lock()
	if len(w.pending) == 0 {
		w.mu.Unlock()
		return
	}
	pending := w.pending
	w.pending = make(map[string]change)
	w.mu.Unlock()

	var upserts []string
	for path, c := range pending {
		if c == changeUpsert {
			upserts = append(upserts, path)
			continue
		}
		err := w.session.RemoveDocument(ctx, path)
		switch {
		case err == nil:
			w.log.Info("document removed", "document_id", path)
		case errors.Is(err, core.ErrDocumentNotFound):
		default:
			w.log.Warn("failed to remove document", "document_id", path, "error", err)
		}
	}
	slices.Sort(upserts)
	w.index(ctx, upserts)
}

func (w *Watcher) index(ctx context.Context, paths []string) {
	if len(paths) == 0 {
		return
	}
	// a file can vanish between the event and the flush
	paths = slices.DeleteFunc(paths, func(p string) bool {
		_, err := os.Stat(p)
		return err != nil
	})
	docs, failures := loader.LoadFiles(paths)
	for _, f := range failures {
		w.log.Warn("failed to load document", "document_id", f.DocumentID, "error", f.Err)
	}
	if len(docs) == 0 {
		return
	}

	report, err := w.session.Index(ctx, docs, w.opts)
	if err != nil {
		w.log.Error("indexing failed", "error", err)
		return
	}
	for _, res := range report.Results {
		if res.Err != nil {
			w.log.Warn("failed to index document", "document_id", res.DocumentID, "error", res.Err)
			continue
		}
		w.log.Info("document indexed", "document_id", res.DocumentID, "chunks", res.Chunks)
	}
}

// addTree watches dir and every non-hidden directory below it
func addTree(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

func hidden(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
