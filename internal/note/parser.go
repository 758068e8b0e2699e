// Package note parses raw markdown/plain-text files into normalized records
// ready for chunking and indexing.
package note

import (
	"regexp"
	"strings"
	"unicode/utf8"

	seekerrors "github.com/noteseek/noteseek/internal/errors"
)

// maxInlineTitleLen is the longest first line still usable as a title.
const maxInlineTitleLen = 80

// ParsedNote is the normalized form of a note file.
type ParsedNote struct {
	// Title is the first heading, a short first line, or the fallback.
	Title string
	// Body is the cleaned text with markdown structure stripped.
	Body string
	// Tags are #tag tokens found in the raw text.
	Tags []string
	// Links are the targets of [[wikilink]] references.
	Links []string
	// WordCount counts whitespace-delimited tokens of the cleaned body.
	WordCount int
}

// Regex patterns for markdown cleaning. Order of application matters: code
// is removed before inline syntax, images before plain links so the image
// prefix cannot survive as stray text.
var (
	fencedCodePattern = regexp.MustCompile("(?s)```.*?```")
	inlineCodePattern = regexp.MustCompile("`[^`\n]*`")
	imagePattern      = regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`)
	headingPattern    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	boldPattern       = regexp.MustCompile(`\*\*([^*]+)\*\*|__([^_]+)__`)
	italicPattern     = regexp.MustCompile(`\*([^*]+)\*|_([^_]+)_`)
	linkPattern       = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	wikilinkPattern   = regexp.MustCompile(`\[\[([^\]|]+)(?:\|[^\]]*)?\]\]`)
	horizontalRule    = regexp.MustCompile(`(?m)^(\*{3,}|-{3,}|_{3,})\s*$`)
	listPrefixPattern = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
	blockquotePattern = regexp.MustCompile(`(?m)^\s*>+\s?`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	tagPattern        = regexp.MustCompile(`(^|\s)#([A-Za-z][A-Za-z0-9_/-]*)`)
	firstHeadingTitle = regexp.MustCompile(`(?m)^#\s+(.+)$`)
)

// Parse converts raw file bytes into a ParsedNote.
// Returns a parse error for content that is not valid UTF-8; the caller
// skips the file and continues the scan.
func Parse(raw []byte, fallbackTitle string) (*ParsedNote, error) {
	if !utf8.Valid(raw) {
		return nil, seekerrors.ParseError("file is not valid UTF-8 text", nil).
			WithDetail("title", fallbackTitle)
	}

	text := string(raw)

	n := &ParsedNote{
		Title: extractTitle(text, fallbackTitle),
		Tags:  extractTags(text),
		Links: extractLinks(text),
	}

	n.Body = Clean(text)
	n.WordCount = len(strings.Fields(n.Body))

	return n, nil
}

// extractTitle picks the note title: first level-1 heading, else the first
// non-blank line when short enough, else the fallback (file name).
func extractTitle(text, fallback string) string {
	if m := firstHeadingTitle.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxInlineTitleLen {
			return line
		}
		break
	}

	return fallback
}

// Clean strips markdown structure while preserving the prose it wraps.
// Each step is a structural substitution, not a deletion of meaning.
func Clean(text string) string {
	text = fencedCodePattern.ReplaceAllString(text, " ")
	text = inlineCodePattern.ReplaceAllString(text, " ")
	text = imagePattern.ReplaceAllString(text, " ")
	text = headingPattern.ReplaceAllString(text, "")
	text = boldPattern.ReplaceAllString(text, "$1$2")
	text = italicPattern.ReplaceAllString(text, "$1$2")
	text = linkPattern.ReplaceAllString(text, "$1")
	text = wikilinkPattern.ReplaceAllString(text, "$1")
	text = horizontalRule.ReplaceAllString(text, " ")
	text = listPrefixPattern.ReplaceAllString(text, "")
	text = blockquotePattern.ReplaceAllString(text, "")
	text = whitespacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// extractTags collects #tag tokens from the raw text. Heading markers do not
// match because they are followed by whitespace.
func extractTags(text string) []string {
	var tags []string
	seen := make(map[string]struct{})
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tag := m[2]
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	return tags
}

// extractLinks collects [[wikilink]] targets, dropping any |alias part.
func extractLinks(text string) []string {
	var links []string
	seen := make(map[string]struct{})
	for _, m := range wikilinkPattern.FindAllStringSubmatch(text, -1) {
		target := strings.TrimSpace(m[1])
		if target == "" {
			continue
		}
		if _, ok := seen[target]; ok {
			continue
		}
		seen[target] = struct{}{}
		links = append(links, target)
	}
	return links
}
