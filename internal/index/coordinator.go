// Package index coordinates the two stores behind a single lifecycle:
// open both under a cross-process lock, run scan->extract->upsert
// pipelines, and answer the read operations the CLI exposes.
package index

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/obsidx/obsidx/internal/chunk"
	"github.com/obsidx/obsidx/internal/config"
	"github.com/obsidx/obsidx/internal/embed"
	oberrors "github.com/obsidx/obsidx/internal/errors"
	"github.com/obsidx/obsidx/internal/note"
	"github.com/obsidx/obsidx/internal/search"
	"github.com/obsidx/obsidx/internal/store"
	"github.com/obsidx/obsidx/internal/vault"
)

// LockFileName is the cross-process lock inside the index directory.
// Writers hold it for the duration of a reindex run.
const LockFileName = "LOCK"

// Coordinator owns both stores for one vault and serializes writes
// across processes with a file lock on the index directory.
type Coordinator struct {
	vaultRoot  string
	collection string
	cfg        *config.Config
	text       *store.TextIndex
	chunks     *store.ChunkStore
	engine     *search.Engine
	lock       *flock.Flock
}

// RunStats summarizes one indexing run.
type RunStats struct {
	Scanned int           `json:"scanned"`
	Indexed int           `json:"indexed"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Elapsed time.Duration `json:"elapsed_ns"`
}

// Stats describes the persisted state of both stores.
type Stats struct {
	VaultRoot  string `json:"vault_root"`
	Collection string `json:"collection"`
	IndexDir   string `json:"index_dir"`
	Notes      uint64 `json:"notes"`
	ChunkNotes int    `json:"chunk_notes"`
	Chunks     int    `json:"chunks"`

	// DeletionsUndetected reminds callers that incremental runs never
	// remove index entries for files deleted from disk; a full rebuild
	// is the way to purge them.
	DeletionsUndetected bool `json:"incremental_deletions_undetected"`
}

// Options configures Open beyond what the vault config provides.
type Options struct {
	// IndexDir overrides the configured index location. Empty means use
	// the config (or in-memory stores when the vault root is empty too).
	IndexDir string

	// Collection tags every indexed note. Empty means "default".
	Collection string
}

// Open creates a Coordinator for a vault. The index directory is
// created on demand; both stores open inside it.
func Open(vaultRoot string, cfg *config.Config, opts Options) (*Coordinator, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	dir := opts.IndexDir
	if dir == "" && vaultRoot != "" {
		dir = cfg.IndexDir(vaultRoot)
	}
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, oberrors.StoreUnavailable(fmt.Sprintf("create index directory %s", dir), err)
		}
	}

	embedder := embed.NewCachedEmbedder(
		embed.NewHashEmbedder(cfg.Index.EmbeddingDims), embed.DefaultCacheSize)

	text, err := store.OpenTextIndex(dir)
	if err != nil {
		return nil, err
	}
	chunks, err := store.OpenChunkStore(dir, embedder)
	if err != nil {
		text.Close()
		return nil, err
	}

	c := &Coordinator{
		vaultRoot:  vaultRoot,
		collection: opts.Collection,
		cfg:        cfg,
		text:       text,
		chunks:     chunks,
		engine:     search.NewEngine(text, chunks, cfg.Search.RRFConstant),
	}
	if dir != "" {
		c.lock = flock.New(filepath.Join(dir, LockFileName))
	}
	return c, nil
}

// Close releases both stores. Errors from the lexical index win; the
// chunk store close is attempted regardless.
func (c *Coordinator) Close() error {
	textErr := c.text.Close()
	chunkErr := c.chunks.Close()
	if textErr != nil {
		return textErr
	}
	return chunkErr
}

// acquireWriteLock takes the cross-process lock without blocking.
// Memory-backed coordinators carry no lock and pass through.
func (c *Coordinator) acquireWriteLock() (release func(), err error) {
	if c.lock == nil {
		return func() {}, nil
	}
	acquired, err := c.lock.TryLock()
	if err != nil {
		return nil, oberrors.StoreUnavailable("acquire index lock", err)
	}
	if !acquired {
		return nil, oberrors.Newf(oberrors.CodeStoreUnavailable,
			"index is locked by another obsidx process (%s)", c.lock.Path())
	}
	return func() {
		if err := c.lock.Unlock(); err != nil {
			slog.Warn("index_unlock_failed", slog.String("error", err.Error()))
		}
	}, nil
}

// Build rebuilds both stores from scratch.
func (c *Coordinator) Build(ctx context.Context) (RunStats, error) {
	return c.run(ctx, false)
}

// Update runs an incremental pass: notes whose stored mtime is at least
// the on-disk mtime are skipped, everything newer is replaced. Files
// deleted from the vault keep their index entries until the next Build.
func (c *Coordinator) Update(ctx context.Context) (RunStats, error) {
	return c.run(ctx, true)
}

func (c *Coordinator) run(ctx context.Context, incremental bool) (RunStats, error) {
	start := time.Now()

	release, err := c.acquireWriteLock()
	if err != nil {
		return RunStats{}, err
	}
	defer release()

	files, err := vault.Scan(ctx, c.vaultRoot)
	if err != nil {
		return RunStats{}, err
	}

	if !incremental {
		if err := c.chunks.Clear(ctx); err != nil {
			return RunStats{}, err
		}
	}

	params := chunk.Params{
		MaxChars: c.cfg.Index.ChunkMaxChars,
		Overlap:  c.cfg.Index.ChunkOverlap,
	}

	stats := RunStats{Scanned: len(files)}
	notes := make([]*note.Note, 0, len(files))
	for _, f := range files {
		n := note.Extract(f.AbsPath, f.Path, c.collection, f.Content, f.Mtime)
		notes = append(notes, n)

		cs, err := c.chunks.UpsertNote(ctx, n, params, incremental)
		if err != nil {
			// One broken note must not abort the run.
			stats.Failed++
			slog.Warn("chunk_upsert_failed",
				slog.String("path", n.Path),
				slog.String("error", err.Error()))
			continue
		}
		stats.Indexed += cs.Indexed
		stats.Skipped += cs.Skipped
	}

	// The lexical index applies its own mtime gate per note, so both
	// stores make the same skip decision for an unchanged file.
	if _, err := c.text.UpsertBatch(ctx, notes, incremental); err != nil {
		return stats, err
	}

	stats.Elapsed = time.Since(start)
	slog.Info("index_run_complete",
		slog.Bool("incremental", incremental),
		slog.Int("scanned", stats.Scanned),
		slog.Int("indexed", stats.Indexed),
		slog.Int("skipped", stats.Skipped),
		slog.Int("failed", stats.Failed),
		slog.Duration("elapsed", stats.Elapsed))
	return stats, nil
}

// Search runs the hybrid query over both stores.
func (c *Coordinator) Search(ctx context.Context, query string, limit int, collection string) ([]search.Result, error) {
	if limit <= 0 {
		limit = c.cfg.Search.MaxResults
	}
	return c.engine.Search(ctx, query, limit, collection)
}

// Get returns the stored note for a vault-relative path, nil when the
// path is not indexed.
func (c *Coordinator) Get(ctx context.Context, path string) (*store.StoredNote, error) {
	return c.text.ExactLookup(ctx, store.FieldPath, filepath.ToSlash(path))
}

// Tags lists every tag in the vault with its note count.
func (c *Coordinator) Tags(ctx context.Context) ([]store.TagCount, error) {
	return c.text.Tags(ctx)
}

// Links returns the outgoing link targets recorded for a note.
func (c *Coordinator) Links(ctx context.Context, path string) ([]string, error) {
	n, err := c.Get(ctx, path)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, nil
	}
	return n.Links, nil
}

// Backlinks returns the paths of notes that link to the given target.
// The target matches the link text notes actually wrote, so "b" finds
// wikilinks to b regardless of extension.
func (c *Coordinator) Backlinks(ctx context.Context, target string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = c.cfg.Search.MaxResults
	}
	return c.text.TermLookup(ctx, store.FieldLink, target, limit)
}

// Stats reports the persisted state of both stores.
func (c *Coordinator) Stats(ctx context.Context) (Stats, error) {
	docs, err := c.text.DocCount()
	if err != nil {
		return Stats{}, err
	}
	noteCount, err := c.chunks.NoteCount(ctx)
	if err != nil {
		return Stats{}, err
	}
	chunkCount, err := c.chunks.ChunkCount(ctx)
	if err != nil {
		return Stats{}, err
	}

	dir := ""
	if c.lock != nil {
		dir = filepath.Dir(c.lock.Path())
	}
	return Stats{
		VaultRoot:           c.vaultRoot,
		Collection:          c.collection,
		IndexDir:            dir,
		Notes:               docs,
		ChunkNotes:          noteCount,
		Chunks:              chunkCount,
		DeletionsUndetected: true,
	}, nil
}
