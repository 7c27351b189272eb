package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	oberrors "github.com/obsidx/obsidx/internal/errors"
	"github.com/obsidx/obsidx/internal/note"
)

// TextIndexName is the lexical index directory inside an index location.
const TextIndexName = "notes.bleve"

// TextIndex wraps bleve v2 for ranked and exact queries over notes.
// One stored document per note path; the document ID is the note's
// path-derived identity, so an upsert for the same path replaces the
// previous document wholesale.
type TextIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	path   string
	closed bool
}

// OpenTextIndex opens or creates the lexical index under dir.
// An empty dir creates an in-memory index for testing. A corrupted
// on-disk index is cleared and recreated rather than failing open.
func OpenTextIndex(dir string) (*TextIndex, error) {
	mapping := buildIndexMapping()

	var idx bleve.Index
	var err error
	if dir == "" {
		idx, err = bleve.NewMemOnly(mapping)
	} else {
		path := filepath.Join(dir, TextIndexName)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, oberrors.StoreUnavailable(fmt.Sprintf("create index directory %s", dir), err)
		}

		if validErr := validateIndexIntegrity(path); validErr != nil {
			slog.Warn("text_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, oberrors.StoreUnavailable(
					fmt.Sprintf("text index corrupted at %s and cannot remove", path), removeErr)
			}
			slog.Info("text_index_cleared", slog.String("path", path))
		}

		idx, err = bleve.Open(path)
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, mapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("text_index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, oberrors.StoreUnavailable("text index corrupted, cannot clear", removeErr)
			}
			idx, err = bleve.New(path, mapping)
		}
	}
	if err != nil {
		return nil, oberrors.StoreUnavailable("open text index", err)
	}

	return &TextIndex{index: idx, path: dir}, nil
}

// validateIndexIntegrity checks a bleve index directory before opening.
// Returns nil when the index is absent (it will be created) or healthy.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}
	return nil
}

// isCorruptionError checks if an error indicates bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// buildIndexMapping defines the field roles. title/content/tags feed the
// _all composite used by ranked queries; path/collection/link are
// keyword fields for exact matching; links/headings/frontmatter are
// stored for display only; mtime exists solely for the incremental gate.
func buildIndexMapping() *mapping.IndexMappingImpl {
	searchable := bleve.NewTextFieldMapping()
	searchable.Analyzer = standard.Name
	searchable.Store = true
	searchable.IncludeInAll = true

	exact := bleve.NewTextFieldMapping()
	exact.Analyzer = keyword.Name
	exact.Store = true
	exact.IncludeInAll = false

	storedOnly := bleve.NewTextFieldMapping()
	storedOnly.Index = false
	storedOnly.Store = true
	storedOnly.IncludeInAll = false

	mtimeField := bleve.NewNumericFieldMapping()
	mtimeField.Store = true
	mtimeField.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldPath, exact)
	doc.AddFieldMappingsAt(FieldCollection, exact)
	doc.AddFieldMappingsAt(FieldTitle, searchable)
	doc.AddFieldMappingsAt(FieldContent, searchable)
	doc.AddFieldMappingsAt(FieldTags, searchable)
	doc.AddFieldMappingsAt(FieldLink, exact)
	doc.AddFieldMappingsAt(FieldLinks, storedOnly)
	doc.AddFieldMappingsAt(FieldHeadings, storedOnly)
	doc.AddFieldMappingsAt("frontmatter", storedOnly)
	doc.AddFieldMappingsAt(FieldMtime, mtimeField)

	m := bleve.NewIndexMapping()
	m.DefaultMapping = doc
	return m
}

// noteToDocument flattens a Note into the indexed document shape.
func noteToDocument(n *note.Note) map[string]interface{} {
	fm := "{}"
	if data, err := json.Marshal(n.Frontmatter); err == nil {
		fm = string(data)
	}
	return map[string]interface{}{
		FieldPath:       n.Path,
		FieldCollection: n.Collection,
		FieldTitle:      n.Title,
		FieldContent:    n.Body,
		FieldTags:       n.Tags,
		FieldLinks:      n.Links,
		FieldLink:       n.Links,
		FieldHeadings:   n.Headings,
		"frontmatter":   fm,
		FieldMtime:      float64(n.Mtime.UnixMilli()),
	}
}

// UpsertBatch applies a batch of notes. In incremental mode a note whose
// stored mtime is at least as new as the candidate is skipped; otherwise
// the stored document is deleted and the fresh one inserted. Without
// incremental the whole index is cleared first.
func (t *TextIndex) UpsertBatch(ctx context.Context, notes []*note.Note, incremental bool) (UpsertStats, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	var stats UpsertStats
	if t.closed {
		return stats, fmt.Errorf("text index is closed")
	}

	var stored map[string]float64
	if incremental {
		var err error
		stored, err = t.mtimeSnapshot()
		if err != nil {
			return stats, fmt.Errorf("build mtime snapshot: %w", err)
		}
	} else {
		if err := t.clearAll(); err != nil {
			return stats, fmt.Errorf("clear index: %w", err)
		}
	}

	batch := t.index.NewBatch()
	for _, n := range notes {
		if incremental {
			if mt, ok := stored[n.Path]; ok && int64(mt) >= n.Mtime.UnixMilli() {
				stats.Skipped++
				continue
			}
			// A stale document shares the same path-derived ID, so the
			// insert below replaces it wholesale.
			batch.Delete(n.ID)
		}
		if err := batch.Index(n.ID, noteToDocument(n)); err != nil {
			return stats, fmt.Errorf("index note %s: %w", n.Path, err)
		}
		stats.Indexed++
	}

	if batch.Size() > 0 {
		if err := t.index.Batch(batch); err != nil {
			return stats, fmt.Errorf("execute batch: %w", err)
		}
	}
	return stats, nil
}

// mtimeSnapshot maps every stored path to its mtime in milliseconds.
func (t *TextIndex) mtimeSnapshot() (map[string]float64, error) {
	count, err := t.index.DocCount()
	if err != nil {
		return nil, err
	}
	snapshot := make(map[string]float64, count)
	if count == 0 {
		return snapshot, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	req.Fields = []string{FieldPath, FieldMtime}
	result, err := t.index.Search(req)
	if err != nil {
		return nil, err
	}

	for _, hit := range result.Hits {
		path, _ := hit.Fields[FieldPath].(string)
		mtime, _ := hit.Fields[FieldMtime].(float64)
		if path != "" {
			snapshot[path] = mtime
		}
	}
	return snapshot, nil
}

// clearAll removes every document, keeping the index handle open.
func (t *TextIndex) clearAll() error {
	count, err := t.index.DocCount()
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	result, err := t.index.Search(req)
	if err != nil {
		return err
	}

	batch := t.index.NewBatch()
	for _, hit := range result.Hits {
		batch.Delete(hit.ID)
	}
	return t.index.Batch(batch)
}

// QueryRanked runs a free-text query over title/content/tags and returns
// ranked results. A non-empty collection is applied as a conjunctive
// constraint inside the search, so the limit and relative ranking cover
// only the filtered set.
func (t *TextIndex) QueryRanked(ctx context.Context, text string, limit int, collection string) ([]TextResult, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, fmt.Errorf("text index is closed")
	}
	if strings.TrimSpace(text) == "" {
		return []TextResult{}, nil
	}

	qs := query.NewQueryStringQuery(text)
	parsed, err := qs.Parse()
	if err != nil {
		return nil, oberrors.InvalidQuery(fmt.Sprintf("cannot parse query %q", text), err)
	}

	var q query.Query = parsed
	if collection != "" {
		filter := bleve.NewTermQuery(collection)
		filter.SetField(FieldCollection)
		boolean := bleve.NewBooleanQuery()
		boolean.AddMust(parsed, filter)
		q = boolean
	}

	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{FieldPath, FieldTitle}
	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("ranked query failed: %w", err)
	}

	results := make([]TextResult, 0, len(result.Hits))
	for _, hit := range result.Hits {
		path, _ := hit.Fields[FieldPath].(string)
		title, _ := hit.Fields[FieldTitle].(string)
		results = append(results, TextResult{Path: path, Title: title, Score: hit.Score})
	}
	return results, nil
}

// ExactLookup finds at most one document whose field equals value.
// Returns (nil, nil) when nothing matches; absence is a normal outcome.
func (t *TextIndex) ExactLookup(ctx context.Context, field, value string) (*StoredNote, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, fmt.Errorf("text index is closed")
	}

	q := bleve.NewTermQuery(value)
	q.SetField(field)
	req := bleve.NewSearchRequestOptions(q, 1, 0, false)
	req.Fields = []string{"*"}

	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("exact lookup failed: %w", err)
	}
	if len(result.Hits) == 0 {
		return nil, nil
	}
	return storedNoteFromFields(result.Hits[0].Fields), nil
}

// TermLookup returns the sorted, deduplicated paths of all documents
// whose field contains value as an exact term. Used for backlinks over
// the per-link field.
func (t *TextIndex) TermLookup(ctx context.Context, field, value string, limit int) ([]string, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, fmt.Errorf("text index is closed")
	}

	q := bleve.NewTermQuery(value)
	q.SetField(field)
	req := bleve.NewSearchRequestOptions(q, limit, 0, false)
	req.Fields = []string{FieldPath}

	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("term lookup failed: %w", err)
	}

	seen := make(map[string]struct{}, len(result.Hits))
	paths := make([]string, 0, len(result.Hits))
	for _, hit := range result.Hits {
		path, _ := hit.Fields[FieldPath].(string)
		if path == "" {
			continue
		}
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths, nil
}

// Tags aggregates tag usage across the whole index.
func (t *TextIndex) Tags(ctx context.Context) ([]TagCount, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return nil, fmt.Errorf("text index is closed")
	}

	count, err := t.index.DocCount()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return []TagCount{}, nil
	}

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), int(count), 0, false)
	req.Fields = []string{FieldTags}
	result, err := t.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, hit := range result.Hits {
		for _, tag := range fieldStrings(hit.Fields[FieldTags]) {
			counts[tag]++
		}
	}

	tags := make([]TagCount, 0, len(counts))
	for tag, n := range counts {
		tags = append(tags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(tags, func(i, j int) bool {
		if tags[i].Count != tags[j].Count {
			return tags[i].Count > tags[j].Count
		}
		return tags[i].Tag < tags[j].Tag
	})
	return tags, nil
}

// DocCount returns the number of stored notes.
func (t *TextIndex) DocCount() (uint64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.closed {
		return 0, fmt.Errorf("text index is closed")
	}
	return t.index.DocCount()
}

// Close closes the index. Safe to call multiple times.
func (t *TextIndex) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	if t.index != nil {
		return t.index.Close()
	}
	return nil
}

// storedNoteFromFields rebuilds a StoredNote from stored hit fields.
// A malformed frontmatter blob degrades to an empty map.
func storedNoteFromFields(fields map[string]interface{}) *StoredNote {
	n := &StoredNote{Frontmatter: map[string]any{}}
	n.Path, _ = fields[FieldPath].(string)
	n.Collection, _ = fields[FieldCollection].(string)
	n.Title, _ = fields[FieldTitle].(string)
	n.Body, _ = fields[FieldContent].(string)
	n.Tags = fieldStrings(fields[FieldTags])
	n.Headings = fieldStrings(fields[FieldHeadings])
	n.Links = fieldStrings(fields[FieldLinks])

	if mt, ok := fields[FieldMtime].(float64); ok {
		n.MtimeMillis = int64(mt)
	}

	if raw, ok := fields["frontmatter"].(string); ok && raw != "" {
		var fm map[string]any
		if err := json.Unmarshal([]byte(raw), &fm); err != nil {
			slog.Warn("malformed_frontmatter_record",
				slog.String("path", n.Path),
				slog.String("error", err.Error()))
		} else if fm != nil {
			n.Frontmatter = fm
		}
	}
	return n
}

// fieldStrings normalizes a stored field that may come back as a single
// string or a slice of values.
func fieldStrings(v interface{}) []string {
	switch val := v.(type) {
	case string:
		return []string{val}
	case []interface{}:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return []string{}
}
