// Package chunk splits cleaned note text into overlapping, sentence-aligned
// segments sized for the embedding model's context window.
package chunk

import (
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxChunkSize is the window size in characters.
	DefaultMaxChunkSize = 500

	// DefaultOverlap is carried from the end of one chunk into the next so
	// context survives across chunk boundaries.
	DefaultOverlap = 50
)

// Split divides text into chunks of at most maxSize characters, preferring
// to cut at a sentence boundary in the second half of the window. The next
// window starts overlap characters before the previous cut. Blank chunks
// are dropped. Split always terminates: start strictly advances every
// iteration even for text without any sentence terminators.
func Split(text string, maxSize, overlap int) []string {
	if maxSize <= 0 {
		maxSize = DefaultMaxChunkSize
	}
	if overlap < 0 || overlap >= maxSize {
		overlap = DefaultOverlap
	}

	if strings.TrimSpace(text) == "" {
		return nil
	}
	if len(text) <= maxSize {
		return []string{text}
	}

	var chunks []string
	start := 0

	for start < len(text) {
		end := start + maxSize
		if end >= len(text) {
			appendChunk(&chunks, text[start:])
			break
		}

		window := text[start:end]
		cut := backToRuneStart(text, end)

		// Prefer the last sentence boundary, but only if it sits past the
		// window midpoint; a cut earlier than that wastes too much window.
		if idx := strings.LastIndexByte(window, '.'); idx > maxSize/2 {
			cut = start + idx + 1
		}
		if cut <= start {
			cut = end
		}

		appendChunk(&chunks, text[start:cut])

		next := backToRuneStart(text, cut-overlap)
		if next <= start {
			// Guard against pathological size/overlap combinations: the
			// window must strictly advance or Split would never terminate.
			next = cut
		}
		start = next
	}

	return chunks
}

// backToRuneStart backs i off to the nearest rune boundary at or before
// it, so a byte-offset cut never splits a multi-byte rune.
func backToRuneStart(s string, i int) int {
	for i > 0 && i < len(s) && !utf8.RuneStart(s[i]) {
		i--
	}
	return i
}

// appendChunk adds a chunk unless it is blank.
func appendChunk(chunks *[]string, chunk string) {
	if strings.TrimSpace(chunk) == "" {
		return
	}
	*chunks = append(*chunks, chunk)
}
