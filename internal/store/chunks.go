package store

import (
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/obsidx/obsidx/internal/chunk"
	"github.com/obsidx/obsidx/internal/embed"
	oberrors "github.com/obsidx/obsidx/internal/errors"
	"github.com/obsidx/obsidx/internal/note"
)

// ChunkStoreName is the chunk database file inside an index location.
const ChunkStoreName = "chunks.db"

const chunkSchema = `
CREATE TABLE IF NOT EXISTS chunks (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	path          TEXT NOT NULL,
	collection    TEXT NOT NULL,
	seq           INTEGER NOT NULL,
	char_start    INTEGER NOT NULL,
	char_end      INTEGER NOT NULL,
	content       TEXT NOT NULL,
	content_hash  TEXT NOT NULL,
	mtime         INTEGER NOT NULL,
	embedding     BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chunks_path ON chunks(path);
CREATE INDEX IF NOT EXISTS idx_chunks_collection ON chunks(collection);

CREATE TABLE IF NOT EXISTS note_mtimes (
	path   TEXT PRIMARY KEY,
	mtime  INTEGER NOT NULL
);
`

// ChunkStore persists chunked note content with embeddings in SQLite.
// It also owns the path->mtime side table that gates incremental
// updates. Similarity queries score by exact cosine over every stored
// chunk, so results are deterministic with ties resolved by storage
// order.
type ChunkStore struct {
	mu       sync.Mutex
	db       *sql.DB
	embedder embed.Embedder
	closed   bool
}

// OpenChunkStore opens or creates the chunk store under dir.
// An empty dir creates an in-memory store for testing.
func OpenChunkStore(dir string, embedder embed.Embedder) (*ChunkStore, error) {
	var dsn string
	if dir == "" {
		dsn = ":memory:"
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, oberrors.StoreUnavailable(fmt.Sprintf("create index directory %s", dir), err)
		}
		path := filepath.Join(dir, ChunkStoreName)
		dsn = path + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, oberrors.StoreUnavailable("open chunk store", err)
	}

	// Single writer; the core never writes concurrently anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, oberrors.StoreUnavailable(fmt.Sprintf("apply %s", pragma), err)
		}
	}

	if _, err := db.Exec(chunkSchema); err != nil {
		_ = db.Close()
		return nil, oberrors.StoreUnavailable("create chunk schema", err)
	}

	return &ChunkStore{db: db, embedder: embedder}, nil
}

// UpsertNote chunks, embeds and stores one note. In incremental mode the
// mtime side table gates the work: a stored mtime at least as new as the
// candidate skips the note entirely. A newer candidate deletes all
// chunks for the path, re-chunks and re-embeds, and updates the side
// table afterward.
func (s *ChunkStore) UpsertNote(ctx context.Context, n *note.Note, params chunk.Params, incremental bool) (UpsertStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats UpsertStats
	if s.closed {
		return stats, fmt.Errorf("chunk store is closed")
	}

	candidate := n.Mtime.UnixMilli()
	if incremental {
		var stored int64
		err := s.db.QueryRowContext(ctx,
			"SELECT mtime FROM note_mtimes WHERE path = ?", n.Path).Scan(&stored)
		switch {
		case err == nil && stored >= candidate:
			stats.Skipped++
			return stats, nil
		case err != nil && err != sql.ErrNoRows:
			return stats, fmt.Errorf("read mtime for %s: %w", n.Path, err)
		}
	}

	chunks, err := chunk.Split(n.Path, n.Collection, n.Body, n.Mtime, params)
	if err != nil {
		return stats, fmt.Errorf("chunk %s: %w", n.Path, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE path = ?", n.Path); err != nil {
		return stats, fmt.Errorf("delete stale chunks for %s: %w", n.Path, err)
	}

	for _, c := range chunks {
		vector, err := s.embedder.Embed(ctx, c.Text)
		if err != nil {
			return stats, fmt.Errorf("embed chunk %s#%d: %w", c.Path, c.Seq, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO chunks (path, collection, seq, char_start, char_end, content, content_hash, mtime, embedding)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.Path, c.Collection, c.Seq, c.Start, c.End, c.Text, c.Hash, candidate, encodeVector(vector),
		); err != nil {
			return stats, fmt.Errorf("insert chunk %s#%d: %w", c.Path, c.Seq, err)
		}
	}

	// Side table updates last so a failed upsert retries next run.
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO note_mtimes (path, mtime) VALUES (?, ?) ON CONFLICT(path) DO UPDATE SET mtime = excluded.mtime",
		n.Path, candidate,
	); err != nil {
		return stats, fmt.Errorf("update mtime for %s: %w", n.Path, err)
	}

	if err := tx.Commit(); err != nil {
		return stats, fmt.Errorf("commit upsert: %w", err)
	}
	stats.Indexed++
	return stats, nil
}

// Clear wipes all chunks and the mtime side table. Full (non-incremental)
// rebuilds call this once before re-inserting everything.
func (s *ChunkStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("chunk store is closed")
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clear chunks: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM note_mtimes"); err != nil {
		return fmt.Errorf("clear mtimes: %w", err)
	}
	return nil
}

// QueryBySimilarity embeds the query text and scores every stored chunk
// by cosine similarity. Results sort by descending score with a stable
// tie-break on storage order, truncated to limit. A chunk whose stored
// vector is malformed scores 0 rather than failing the query.
func (s *ChunkStore) QueryBySimilarity(ctx context.Context, text string, limit int, collection string) ([]SimilarityResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, fmt.Errorf("chunk store is closed")
	}
	if limit <= 0 {
		return []SimilarityResult{}, nil
	}

	queryVec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	sqlQuery := "SELECT path, seq, content, embedding FROM chunks"
	args := []any{}
	if collection != "" {
		sqlQuery += " WHERE collection = ?"
		args = append(args, collection)
	}
	sqlQuery += " ORDER BY id"

	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("scan chunks: %w", err)
	}
	defer rows.Close()

	var results []SimilarityResult
	for rows.Next() {
		var r SimilarityResult
		var blob []byte
		if err := rows.Scan(&r.Path, &r.Seq, &r.Text, &blob); err != nil {
			return nil, fmt.Errorf("scan chunk row: %w", err)
		}

		vector, err := decodeVector(blob)
		if err != nil {
			// Degrade, don't fail: one malformed record scores zero.
			slog.Warn("malformed_embedding_record",
				slog.String("path", r.Path),
				slog.Int("chunk", r.Seq),
				slog.String("error", err.Error()))
			vector = nil
		}
		r.Score = embed.CosineSimilarity(queryVec, vector)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chunks: %w", err)
	}

	// Stable sort keeps storage order for equal scores.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	if results == nil {
		results = []SimilarityResult{}
	}
	return results, nil
}

// NoteCount returns the number of paths tracked in the side table.
func (s *ChunkStore) NoteCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("chunk store is closed")
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM note_mtimes").Scan(&n)
	return n, err
}

// ChunkCount returns the number of stored chunks.
func (s *ChunkStore) ChunkCount(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, fmt.Errorf("chunk store is closed")
	}
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n)
	return n, err
}

// Close closes the database. Safe to call multiple times.
func (s *ChunkStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// encodeVector packs float32s little-endian for BLOB storage.
func encodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// decodeVector unpacks a BLOB back into float32s.
func decodeVector(buf []byte) ([]float32, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("embedding blob length %d is not a multiple of 4", len(buf))
	}
	v := make([]float32, len(buf)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[i*4:]))
	}
	return v, nil
}
