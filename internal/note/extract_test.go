package note

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testMtime = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func extract(t *testing.T, raw string) *Note {
	t.Helper()
	return Extract("/vault/notes/test.md", "notes/test.md", "", []byte(raw), testMtime)
}

func TestExtract_Frontmatter(t *testing.T) {
	n := extract(t, "---\ntitle: Meeting\ntags:\n  - work\n  - planning\n---\n# Agenda\n")

	require.NotNil(t, n.Frontmatter)
	assert.Equal(t, "Meeting", n.Frontmatter["title"])
	assert.Equal(t, []string{"planning", "work"}, n.Tags)
	assert.Equal(t, "# Agenda\n", n.Body)
}

func TestExtract_FrontmatterParseFailureDegrades(t *testing.T) {
	n := extract(t, "---\n: : not yaml [\n---\nbody text\n")

	assert.NotNil(t, n.Frontmatter)
	assert.Empty(t, n.Frontmatter)
	assert.Equal(t, "body text\n", n.Body)
}

func TestExtract_UnterminatedFrontmatter(t *testing.T) {
	raw := "---\ntitle: open\nno closing delimiter\n"
	n := extract(t, raw)

	assert.Empty(t, n.Frontmatter)
	assert.Equal(t, raw, n.Body)
}

func TestExtract_EmptyFrontmatterBlock(t *testing.T) {
	n := extract(t, "---\n---\nbody\n")

	assert.Empty(t, n.Frontmatter)
	assert.Equal(t, "body\n", n.Body)
}

func TestExtract_FrontmatterTagsSingleString(t *testing.T) {
	n := extract(t, "---\ntags: solo\n---\ntext\n")

	assert.Equal(t, []string{"solo"}, n.Tags)
}

func TestExtract_InlineTags(t *testing.T) {
	n := extract(t, "Start #alpha mid #beta/gamma\n#line-start but not hash#inside\n")

	assert.Equal(t, []string{"alpha", "beta/gamma", "line-start"}, n.Tags)
}

func TestExtract_TagsUnionSortedDeduped(t *testing.T) {
	n := extract(t, "---\ntags:\n  - beta\n  - alpha\n---\nmore #alpha and #zeta\n")

	assert.Equal(t, []string{"alpha", "beta", "zeta"}, n.Tags)
}

func TestExtract_HeadingsInOrder(t *testing.T) {
	n := extract(t, "# First\ntext\n## Second *emph*\n### [Linked](x.md) Third\n")

	assert.Equal(t, []string{"First", "Second emph", "Linked Third"}, n.Headings)
}

func TestExtract_LinksUnion(t *testing.T) {
	n := extract(t, "See [other](other.md) and [[wiki]] plus [[wiki]] again and [dup](other.md).\n")

	assert.Equal(t, []string{"other.md", "wiki"}, n.Links)
}

func TestExtract_WikilinkAlias(t *testing.T) {
	n := extract(t, "A [[target|shown text]] link.\n")

	assert.Equal(t, []string{"target"}, n.Links)
}

func TestExtract_Title(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		path string
		want string
	}{
		{"first heading", "intro\n# The Title\n## Sub\n", "notes/a.md", "The Title"},
		{"filename stem", "no headings here\n", "notes/daily-log.md", "daily-log"},
		{"untitled", "", "", "Untitled"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Extract("/vault/"+tt.path, tt.path, "", []byte(tt.raw), testMtime)
			assert.Equal(t, tt.want, n.Title)
		})
	}
}

func TestNoteID_StablePerPath(t *testing.T) {
	a := Extract("/vault/a.md", "a.md", "", []byte("one"), testMtime)
	b := Extract("/vault/a.md", "a.md", "", []byte("completely different"), testMtime)
	c := Extract("/vault/c.md", "c.md", "", []byte("one"), testMtime)

	assert.Equal(t, a.ID, b.ID)
	assert.NotEqual(t, a.ID, c.ID)
	assert.Equal(t, NoteID("/vault/a.md"), a.ID)
}

func TestExtract_DefaultCollection(t *testing.T) {
	n := extract(t, "text")
	assert.Equal(t, DefaultCollection, n.Collection)

	scoped := Extract("/v/a.md", "a.md", "work", []byte("text"), testMtime)
	assert.Equal(t, "work", scoped.Collection)
}
