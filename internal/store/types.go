// Package store provides the two persistence backends of obsidx: the
// bleve lexical index over whole notes and the SQLite chunk store that
// holds chunked content with embeddings plus the path->mtime side table
// driving incremental updates.
package store

// Lexical index field names. path, collection and link are exact-match
// keys; title, content and tags are free-text searchable; the rest is
// stored for display only.
const (
	FieldPath       = "path"
	FieldCollection = "collection"
	FieldTitle      = "title"
	FieldContent    = "content"
	FieldTags       = "tags"
	FieldLinks      = "links"
	FieldLink       = "link"
	FieldHeadings   = "headings"
	FieldMtime      = "mtime"
)

// TextResult is one ranked hit from the lexical index.
type TextResult struct {
	Path  string  `json:"path"`
	Title string  `json:"title"`
	Score float64 `json:"score"`
}

// SimilarityResult is one ranked chunk hit from the chunk store.
type SimilarityResult struct {
	Path  string  `json:"path"`
	Seq   int     `json:"chunk"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// StoredNote is the full document returned by an exact lookup.
type StoredNote struct {
	Path        string         `json:"path"`
	Collection  string         `json:"collection"`
	Title       string         `json:"title"`
	Tags        []string       `json:"tags"`
	Headings    []string       `json:"headings"`
	Links       []string       `json:"links"`
	Frontmatter map[string]any `json:"frontmatter"`
	Body        string         `json:"body"`
	MtimeMillis int64          `json:"mtime"`
}

// UpsertStats reports what a batch upsert actually touched. A second
// incremental run over an unchanged vault reports Indexed == 0.
type UpsertStats struct {
	Indexed int `json:"indexed"`
	Skipped int `json:"skipped"`
}

// TagCount is one entry of the vault-wide tag listing.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int    `json:"count"`
}
