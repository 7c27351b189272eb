// Package chunk splits note content into bounded slices for vector
// indexing. Windows slide over raw character length, not semantic
// boundaries, so chunk coverage is exact and deterministic.
package chunk

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Default window parameters.
const (
	DefaultMaxChars = 1500
	DefaultOverlap  = 200
)

// Params configures the sliding window.
type Params struct {
	// MaxChars is the window size in characters.
	MaxChars int

	// Overlap is how many characters consecutive windows share.
	// Must be smaller than MaxChars so the window always advances.
	Overlap int
}

// DefaultParams returns the default window parameters.
func DefaultParams() Params {
	return Params{MaxChars: DefaultMaxChars, Overlap: DefaultOverlap}
}

// Validate checks the window invariant.
func (p Params) Validate() error {
	if p.MaxChars <= 0 {
		return fmt.Errorf("max chars must be positive, got %d", p.MaxChars)
	}
	if p.Overlap < 0 || p.Overlap >= p.MaxChars {
		return fmt.Errorf("overlap %d must be in [0, %d)", p.Overlap, p.MaxChars)
	}
	return nil
}

// Chunk is one bounded slice of a note's content.
type Chunk struct {
	// Path is the owning note's vault-relative path.
	Path string

	// Collection is inherited from the owning note.
	Collection string

	// Seq is the zero-based position of this chunk within the note.
	Seq int

	// Start and End are the character range [Start, End) in the content.
	Start int
	End   int

	// Text is the chunk content.
	Text string

	// Hash is the sha256 of Text, used as the dedup key.
	Hash string

	// Mtime is inherited from the owning note.
	Mtime time.Time
}

// Split slices content into chunks. Content no longer than the window
// yields a single chunk covering the whole text. Otherwise windows of
// MaxChars advance by (MaxChars - Overlap) and the final chunk truncates
// to the remaining tail, so the chunk ranges union to exactly [0, len).
func Split(path, collection, content string, mtime time.Time, p Params) ([]Chunk, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if content == "" {
		return nil, nil
	}

	length := len(content)
	if length <= p.MaxChars {
		return []Chunk{newChunk(path, collection, 0, 0, length, content, mtime)}, nil
	}

	step := p.MaxChars - p.Overlap
	chunks := make([]Chunk, 0, length/step+1)
	for start, seq := 0, 0; start < length; start, seq = start+step, seq+1 {
		end := start + p.MaxChars
		if end > length {
			end = length
		}
		chunks = append(chunks, newChunk(path, collection, seq, start, end, content[start:end], mtime))
		if end == length {
			break
		}
	}
	return chunks, nil
}

func newChunk(path, collection string, seq, start, end int, text string, mtime time.Time) Chunk {
	sum := sha256.Sum256([]byte(text))
	return Chunk{
		Path:       path,
		Collection: collection,
		Seq:        seq,
		Start:      start,
		End:        end,
		Text:       text,
		Hash:       hex.EncodeToString(sum[:]),
		Mtime:      mtime,
	}
}
