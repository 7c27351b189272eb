package note

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// frontmatterDelimiter opens and closes the leading metadata block.
const frontmatterDelimiter = "---"

// Regex patterns for markdown extraction.
var (
	// Matches inline tags: #tag preceded by start-of-line or whitespace.
	inlineTagPattern = regexp.MustCompile(`(?m)(?:^|\s)#([A-Za-z0-9_/\-]+)`)

	// Matches headers: # Title, ## Title, etc.
	headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

	// Matches inline links: [text](dest). Images share the syntax and
	// are collected the same way.
	inlineLinkPattern = regexp.MustCompile(`\[[^\[\]]*\]\(([^()\s]+)(?:\s+"[^"]*")?\)`)

	// Matches wikilinks: [[target]] or [[target|alias]].
	wikilinkPattern = regexp.MustCompile(`\[\[([^\[\]|]+)(?:\|[^\[\]]*)?\]\]`)

	// Inline formatting stripped from heading text.
	headingLinkPattern     = regexp.MustCompile(`\[([^\[\]]*)\]\([^()]*\)`)
	headingEmphasisPattern = regexp.MustCompile("[*_`]+")
)

// Extract builds a Note from raw file content.
//
// absPath determines identity; relPath is the stored unique key. Parse
// failures in the frontmatter degrade to an empty map - extraction never
// fails for malformed content.
func Extract(absPath, relPath, collection string, raw []byte, mtime time.Time) *Note {
	if collection == "" {
		collection = DefaultCollection
	}

	frontmatter, body := splitFrontmatter(string(raw))
	headings, inlineLinks := scanBody(body)

	links := dedupeSorted(append(inlineLinks, wikilinkTargets(body)...))
	tags := dedupeSorted(append(inlineTags(body), frontmatterTags(frontmatter)...))

	title := "Untitled"
	if len(headings) > 0 {
		title = headings[0]
	} else if stem := fileStem(relPath); stem != "" {
		title = stem
	}

	return &Note{
		ID:          NoteID(absPath),
		Path:        relPath,
		Collection:  collection,
		Title:       title,
		Tags:        tags,
		Headings:    headings,
		Links:       links,
		Frontmatter: frontmatter,
		Body:        body,
		Mtime:       mtime,
	}
}

// splitFrontmatter separates the leading metadata block from the body.
// Returns an empty map when the block is absent or fails to parse.
func splitFrontmatter(raw string) (map[string]any, string) {
	empty := map[string]any{}

	lines := strings.SplitAfter(raw, "\n")
	if strings.TrimRight(lines[0], "\r\n") != frontmatterDelimiter || len(lines) < 2 {
		return empty, raw
	}

	closing := -1
	for i := 1; i < len(lines); i++ {
		if strings.TrimRight(lines[i], "\r\n") == frontmatterDelimiter {
			closing = i
			break
		}
	}
	if closing < 0 {
		// Unterminated block: treat the whole file as body.
		return empty, raw
	}

	block := strings.Join(lines[1:closing], "")
	body := strings.Join(lines[closing+1:], "")

	var parsed map[string]any
	if err := yaml.Unmarshal([]byte(block), &parsed); err != nil || parsed == nil {
		return empty, body
	}
	return parsed, body
}

// scanBody makes a single streaming pass over the body, collecting
// heading text in document order and inline link destinations.
func scanBody(body string) (headings []string, links []string) {
	for _, line := range strings.Split(body, "\n") {
		if m := headingPattern.FindStringSubmatch(line); m != nil {
			if text := headingText(m[2]); text != "" {
				headings = append(headings, text)
			}
		}
		for _, lm := range inlineLinkPattern.FindAllStringSubmatch(line, -1) {
			if dest := strings.TrimSpace(lm[1]); dest != "" {
				links = append(links, dest)
			}
		}
	}
	return headings, links
}

// headingText concatenates the text spans of a heading line, dropping
// inline formatting and link syntax.
func headingText(s string) string {
	s = headingLinkPattern.ReplaceAllString(s, "$1")
	s = headingEmphasisPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// wikilinkTargets collects [[target]] destinations via a pattern pass.
func wikilinkTargets(body string) []string {
	matches := wikilinkPattern.FindAllStringSubmatch(body, -1)
	targets := make([]string, 0, len(matches))
	for _, m := range matches {
		if t := strings.TrimSpace(m[1]); t != "" {
			targets = append(targets, t)
		}
	}
	return targets
}

// inlineTags collects #tag tokens from the body.
func inlineTags(body string) []string {
	matches := inlineTagPattern.FindAllStringSubmatch(body, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// frontmatterTags reads the "tags" field, accepting a single string or a
// list of strings. Anything else is ignored.
func frontmatterTags(fm map[string]any) []string {
	switch v := fm["tags"].(type) {
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return []string{v}
		}
	case []any:
		tags := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				if s = strings.TrimSpace(s); s != "" {
					tags = append(tags, s)
				}
			}
		}
		return tags
	}
	return nil
}

// dedupeSorted returns the sorted, deduplicated copy of values.
// Always returns a non-nil slice for consistent persistence.
func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// fileStem returns the filename without directory or extension.
func fileStem(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if stem == "." || stem == string(filepath.Separator) {
		return ""
	}
	return stem
}
