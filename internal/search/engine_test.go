package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/obsidx/obsidx/internal/chunk"
	"github.com/obsidx/obsidx/internal/embed"
	"github.com/obsidx/obsidx/internal/note"
	"github.com/obsidx/obsidx/internal/store"
)

func newTestEngine(t *testing.T) (*Engine, *store.TextIndex, *store.ChunkStore) {
	t.Helper()
	text, err := store.OpenTextIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = text.Close() })

	chunks, err := store.OpenChunkStore("", embed.NewCachedEmbedder(embed.NewHashEmbedder(64), 100))
	require.NoError(t, err)
	t.Cleanup(func() { _ = chunks.Close() })

	return NewEngine(text, chunks, DefaultRRFConstant), text, chunks
}

func indexNote(t *testing.T, text *store.TextIndex, chunks *store.ChunkStore, path, collection, title, body string) {
	t.Helper()
	n := &note.Note{
		ID:          note.NoteID("/vault/" + path),
		Path:        path,
		Collection:  collection,
		Title:       title,
		Tags:        []string{},
		Headings:    []string{title},
		Links:       []string{},
		Frontmatter: map[string]any{},
		Body:        body,
		Mtime:       time.Now(),
	}
	_, err := text.UpsertBatch(context.Background(), []*note.Note{n}, true)
	require.NoError(t, err)
	_, err = chunks.UpsertNote(context.Background(), n, chunk.DefaultParams(), true)
	require.NoError(t, err)
}

func TestEngine_HybridSearch(t *testing.T) {
	e, text, chunks := newTestEngine(t)

	indexNote(t, text, chunks, "k8s.md", "default", "Kubernetes", "deploying pods with kubectl apply")
	indexNote(t, text, chunks, "pasta.md", "default", "Pasta", "boil water and add salt generously")

	results, err := e.Search(context.Background(), "deploying pods with kubectl apply", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "k8s.md", results[0].Path)
	assert.Equal(t, "Kubernetes", results[0].Title)
	assert.NotEmpty(t, results[0].Snippet)
}

func TestEngine_CollectionScoping(t *testing.T) {
	e, text, chunks := newTestEngine(t)

	indexNote(t, text, chunks, "w.md", "work", "Budget", "quarterly budget review")
	indexNote(t, text, chunks, "p.md", "personal", "Budget", "household budget review")

	results, err := e.Search(context.Background(), "budget review", 10, "work")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "w.md", results[0].Path)
}

func TestEngine_LongNoteDoesNotCrowdResults(t *testing.T) {
	e, text, chunks := newTestEngine(t)

	long := ""
	for i := 0; i < 200; i++ {
		long += "repeated searchable phrase and filler words to force chunking here. "
	}
	indexNote(t, text, chunks, "long.md", "default", "Long", long)
	indexNote(t, text, chunks, "short.md", "default", "Short", "repeated searchable phrase once")

	results, err := e.Search(context.Background(), "repeated searchable phrase", 10, "")
	require.NoError(t, err)

	paths := make(map[string]int)
	for _, r := range results {
		paths[r.Path]++
	}
	assert.LessOrEqual(t, paths["long.md"], 1, "chunks deduplicate to one entry per path")
	assert.Contains(t, paths, "short.md")
}

func TestEngine_NoMatchesIsEmptyNotError(t *testing.T) {
	e, _, _ := newTestEngine(t)

	results, err := e.Search(context.Background(), "nothing indexed yet", 10, "")
	require.NoError(t, err)
	assert.Empty(t, results)
}
