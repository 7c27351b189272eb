package search

import (
	"context"
	"log/slog"

	"github.com/obsidx/obsidx/internal/store"
)

// Result is one hybrid search hit, enriched for presentation.
type Result struct {
	Path    string  `json:"path"`
	Title   string  `json:"title,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score"`
}

// Engine runs the same query against both stores and fuses the ranked
// outputs. Both lists are capped at the request limit and filtered by
// the same collection before fusion.
type Engine struct {
	text   *store.TextIndex
	chunks *store.ChunkStore
	k      int
}

// NewEngine creates a hybrid search engine over the two stores.
func NewEngine(text *store.TextIndex, chunks *store.ChunkStore, rrfConstant int) *Engine {
	if rrfConstant <= 0 {
		rrfConstant = DefaultRRFConstant
	}
	return &Engine{text: text, chunks: chunks, k: rrfConstant}
}

// Search runs the hybrid query. The similarity list is deduplicated to
// each path's best-ranked chunk before fusion, so one long note cannot
// crowd the fused list with its own chunks.
func (e *Engine) Search(ctx context.Context, query string, limit int, collection string) ([]Result, error) {
	lexResults, err := e.text.QueryRanked(ctx, query, limit, collection)
	if err != nil {
		return nil, err
	}

	simResults, err := e.chunks.QueryBySimilarity(ctx, query, limit, collection)
	if err != nil {
		return nil, err
	}

	lexical := make([]string, len(lexResults))
	titles := make(map[string]string, len(lexResults))
	for i, r := range lexResults {
		lexical[i] = r.Path
		titles[r.Path] = r.Title
	}

	similarity := make([]string, 0, len(simResults))
	snippets := make(map[string]string, len(simResults))
	seen := make(map[string]struct{}, len(simResults))
	for _, r := range simResults {
		if _, ok := seen[r.Path]; ok {
			continue
		}
		seen[r.Path] = struct{}{}
		similarity = append(similarity, r.Path)
		snippets[r.Path] = snippet(r.Text)
	}

	fused := Fuse(lexical, similarity, e.k, limit)
	slog.Debug("hybrid_search",
		slog.String("query", query),
		slog.Int("lexical", len(lexical)),
		slog.Int("similarity", len(similarity)),
		slog.Int("fused", len(fused)))

	results := make([]Result, len(fused))
	for i, f := range fused {
		results[i] = Result{
			Path:    f.Path,
			Title:   titles[f.Path],
			Snippet: snippets[f.Path],
			Score:   f.Score,
		}
	}
	return results, nil
}

// snippetLen bounds the preview text attached to a result.
const snippetLen = 160

func snippet(text string) string {
	if len(text) <= snippetLen {
		return text
	}
	return text[:snippetLen] + "..."
}
