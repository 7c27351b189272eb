// Package note extracts structured records from raw markdown files.
// A Note is the unit both indexes consume: one file, parsed once,
// upserted into the lexical index and the chunk store independently.
package note

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// DefaultCollection is the namespace applied when no collection is named.
const DefaultCollection = "default"

// Note is the structured record extracted from a single markdown file.
type Note struct {
	// ID is a deterministic hash of the absolute path. It is stable per
	// path, not per content, so a rewrite of the same file keeps its ID.
	ID string

	// Path is the vault-relative, slash-separated path (unique key).
	Path string

	// Collection is the namespace label this note was indexed under.
	Collection string

	// Title is the first heading, else the filename stem, else "Untitled".
	Title string

	// Tags is the sorted, deduplicated union of frontmatter tags and
	// inline #tag tokens.
	Tags []string

	// Headings lists heading text in document order.
	Headings []string

	// Links is the sorted, deduplicated union of inline markdown link
	// destinations and wikilink targets. Origin is not distinguished.
	Links []string

	// Frontmatter is the parsed leading metadata block. Empty map on
	// absence or parse failure, never nil.
	Frontmatter map[string]any

	// Body is the content with the frontmatter block stripped.
	Body string

	// Mtime is the file modification time, the authoritative staleness
	// marker for the incremental gate.
	Mtime time.Time
}

// NoteID returns the deterministic identity for an absolute path.
func NoteID(absPath string) string {
	sum := sha256.Sum256([]byte(absPath))
	return hex.EncodeToString(sum[:])
}
