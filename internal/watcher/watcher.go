// Package watcher keeps the index current while a vault is edited. It
// watches the vault tree with fsnotify, coalesces bursts of events
// through a fixed debounce window, and runs one incremental reindex
// per flushed batch. Reindex cycles never overlap: the next batch
// waits until the current cycle finishes.
package watcher

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Operation is the kind of change observed on a path.
type Operation int

const (
	OpCreate Operation = iota
	OpModify
	OpDelete
	OpRename
)

// String returns a human-readable operation name.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpRename:
		return "RENAME"
	default:
		return "UNKNOWN"
	}
}

// Event is one observed change on a note file.
type Event struct {
	// Path is the vault-relative, slash-separated path.
	Path string

	// Op is the change kind.
	Op Operation

	// Timestamp is when the event was observed.
	Timestamp time.Time
}

// ReindexFunc runs one incremental index update.
type ReindexFunc func(ctx context.Context) error

// DefaultWindow is the debounce window used when none is configured.
const DefaultWindow = 750 * time.Millisecond

// Watcher drives the watch loop for one vault.
type Watcher struct {
	root      string
	window    time.Duration
	reindex   ReindexFunc
	fsw       *fsnotify.Watcher
	debouncer *Debouncer
}

// New creates a watcher over the vault root. reindex is invoked once
// per debounced batch of changes.
func New(root string, window time.Duration, reindex ReindexFunc) (*Watcher, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:      absRoot,
		window:    window,
		reindex:   reindex,
		fsw:       fsw,
		debouncer: NewDebouncer(window),
	}, nil
}

// Run watches until the context is cancelled. Reindex failures are
// logged and swallowed so one broken cycle never stops the watch.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.debouncer.Stop()

	if err := w.addRecursive(w.root); err != nil {
		return err
	}
	slog.Info("watch_started",
		slog.String("root", w.root),
		slog.Duration("debounce", w.window))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(event)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			slog.Warn("watch_error", slog.String("error", err.Error()))

		case batch, ok := <-w.debouncer.Output():
			if !ok {
				return nil
			}
			if len(batch) == 0 {
				continue
			}
			slog.Debug("reindex_triggered", slog.Int("changes", len(batch)))
			if err := w.reindex(ctx); err != nil {
				slog.Warn("reindex_failed", slog.String("error", err.Error()))
			}
		}
	}
}

// handle filters one raw fsnotify event and feeds the debouncer.
func (w *Watcher) handle(event fsnotify.Event) {
	rel, err := filepath.Rel(w.root, event.Name)
	if err != nil {
		rel = event.Name
	}
	rel = filepath.ToSlash(rel)

	if isHiddenPath(rel) {
		return
	}

	isDir := false
	if info, err := os.Stat(event.Name); err == nil {
		isDir = info.IsDir()
	}

	var op Operation
	switch {
	case event.Op&fsnotify.Create != 0:
		op = OpCreate
		// New subtrees need their own watches.
		if isDir {
			_ = w.addRecursive(event.Name)
			return
		}
	case event.Op&fsnotify.Write != 0:
		op = OpModify
	case event.Op&fsnotify.Remove != 0:
		op = OpDelete
	case event.Op&fsnotify.Rename != 0:
		op = OpRename
	default:
		// Chmod and friends do not change content.
		return
	}

	if isDir || !isNoteFile(rel) {
		return
	}

	w.debouncer.Add(Event{Path: rel, Op: op, Timestamp: time.Now()})
}

// addRecursive registers root and every non-hidden directory below it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.fsw.Add(path)
	})
}

// isHiddenPath reports whether any segment of a relative slash path is
// hidden. The index directory lives inside the vault and must never
// trigger its own reindex.
func isHiddenPath(rel string) bool {
	if rel == "." {
		return false
	}
	for _, seg := range strings.Split(rel, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}

func isNoteFile(rel string) bool {
	switch strings.ToLower(filepath.Ext(rel)) {
	case ".md", ".markdown":
		return true
	}
	return false
}
