package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oberrors "github.com/obsidx/obsidx/internal/errors"
	"github.com/obsidx/obsidx/internal/note"
)

func newMemTextIndex(t *testing.T) *TextIndex {
	t.Helper()
	idx, err := OpenTextIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func makeNote(path, collection, title, body string, mtime int64, links ...string) *note.Note {
	if links == nil {
		links = []string{}
	}
	return &note.Note{
		ID:          note.NoteID("/vault/" + path),
		Path:        path,
		Collection:  collection,
		Title:       title,
		Tags:        []string{},
		Headings:    []string{title},
		Links:       links,
		Frontmatter: map[string]any{},
		Body:        body,
		Mtime:       time.UnixMilli(mtime),
	}
}

func TestTextIndex_UpsertAndQuery(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	stats, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("a.md", "default", "Kubernetes Notes", "deploying pods with kubectl", 100),
		makeNote("b.md", "default", "Cooking", "pasta recipe with garlic", 100),
	}, false)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Indexed)

	results, err := idx.QueryRanked(ctx, "kubectl pods", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.md", results[0].Path)
	assert.Equal(t, "Kubernetes Notes", results[0].Title)
	assert.Positive(t, results[0].Score)
}

func TestTextIndex_MtimeGate(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	_, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("a.md", "default", "Original", "original content", 100),
	}, false)
	require.NoError(t, err)

	// Resubmission at the same or older mtime is skipped.
	for _, mt := range []int64{100, 50} {
		stats, err := idx.UpsertBatch(ctx, []*note.Note{
			makeNote("a.md", "default", "Rewrite", "rewritten content", mt),
		}, true)
		require.NoError(t, err)
		assert.Equal(t, 0, stats.Indexed, "mtime %d must be skipped", mt)
		assert.Equal(t, 1, stats.Skipped)
	}

	stored, err := idx.ExactLookup(ctx, FieldPath, "a.md")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Original", stored.Title)

	// A newer mtime replaces the document wholesale.
	stats, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("a.md", "default", "Rewrite", "rewritten content", 101),
	}, true)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Indexed)

	stored, err = idx.ExactLookup(ctx, FieldPath, "a.md")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Rewrite", stored.Title)
	assert.EqualValues(t, 101, stored.MtimeMillis)

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "path maps to at most one stored note")
}

func TestTextIndex_IncrementalIdempotence(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	notes := []*note.Note{
		makeNote("a.md", "default", "A", "alpha", 100),
		makeNote("b.md", "default", "B", "beta", 200),
	}
	_, err := idx.UpsertBatch(ctx, notes, false)
	require.NoError(t, err)

	stats, err := idx.UpsertBatch(ctx, notes, true)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Indexed)
	assert.Equal(t, 2, stats.Skipped)
}

func TestTextIndex_NonIncrementalClears(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	_, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("old.md", "default", "Old", "will disappear", 100),
	}, false)
	require.NoError(t, err)

	_, err = idx.UpsertBatch(ctx, []*note.Note{
		makeNote("new.md", "default", "New", "fresh start", 100),
	}, false)
	require.NoError(t, err)

	gone, err := idx.ExactLookup(ctx, FieldPath, "old.md")
	require.NoError(t, err)
	assert.Nil(t, gone)

	count, err := idx.DocCount()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestTextIndex_CollectionFilterJointWithRanking(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	_, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("w/a.md", "work", "Budget", "quarterly budget planning", 100),
		makeNote("p/b.md", "personal", "Budget", "household budget planning", 100),
	}, false)
	require.NoError(t, err)

	results, err := idx.QueryRanked(ctx, "budget", 10, "work")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "w/a.md", results[0].Path)
}

func TestTextIndex_ExactLookupNotFoundIsNil(t *testing.T) {
	idx := newMemTextIndex(t)

	stored, err := idx.ExactLookup(context.Background(), FieldPath, "missing.md")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestTextIndex_BacklinkLookup(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	_, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("a.md", "default", "A", "links to b", 100, "b"),
		makeNote("c.md", "default", "C", "also links to b", 100, "b", "d"),
		makeNote("e.md", "default", "E", "unrelated", 100, "bb"),
	}, false)
	require.NoError(t, err)

	paths, err := idx.TermLookup(ctx, FieldLink, "b", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md", "c.md"}, paths, "exact match only, sorted")
}

func TestTextIndex_BacklinkRemovedOnReindex(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	_, err := idx.UpsertBatch(ctx, []*note.Note{
		makeNote("a.md", "default", "A", "links to b", 100, "b"),
	}, false)
	require.NoError(t, err)

	paths, err := idx.TermLookup(ctx, FieldLink, "b", 100)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.md"}, paths)

	// Reindex with the link removed and a newer mtime.
	_, err = idx.UpsertBatch(ctx, []*note.Note{
		makeNote("a.md", "default", "A", "no more links", 200),
	}, true)
	require.NoError(t, err)

	paths, err = idx.TermLookup(ctx, FieldLink, "b", 100)
	require.NoError(t, err)
	assert.Empty(t, paths)
}

func TestTextIndex_Tags(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	a := makeNote("a.md", "default", "A", "x", 100)
	a.Tags = []string{"go", "notes"}
	b := makeNote("b.md", "default", "B", "y", 100)
	b.Tags = []string{"go"}

	_, err := idx.UpsertBatch(ctx, []*note.Note{a, b}, false)
	require.NoError(t, err)

	tags, err := idx.Tags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, TagCount{Tag: "go", Count: 2}, tags[0])
	assert.Equal(t, TagCount{Tag: "notes", Count: 1}, tags[1])
}

func TestTextIndex_InvalidQuery(t *testing.T) {
	idx := newMemTextIndex(t)

	_, err := idx.QueryRanked(context.Background(), "title:[unclosed", 10, "")
	require.Error(t, err)
	assert.Equal(t, oberrors.CodeInvalidQuery, oberrors.Code(err))
}

func TestTextIndex_FrontmatterRoundTrip(t *testing.T) {
	idx := newMemTextIndex(t)
	ctx := context.Background()

	n := makeNote("a.md", "default", "A", "body", 100)
	n.Frontmatter = map[string]any{"status": "draft", "priority": "high"}

	_, err := idx.UpsertBatch(ctx, []*note.Note{n}, false)
	require.NoError(t, err)

	stored, err := idx.ExactLookup(ctx, FieldPath, "a.md")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "draft", stored.Frontmatter["status"])
	assert.Equal(t, "high", stored.Frontmatter["priority"])
}
