package token

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// wordCacheSize bounds the word-to-pieces LRU. Note text repeats its
	// vocabulary heavily, so the hit rate is high even at modest sizes.
	wordCacheSize = 8192

	// maxWordRunes caps subword segmentation work for pathological inputs;
	// longer words collapse to a single unknown token.
	maxWordRunes = 100
)

// Tokenizer converts raw text into fixed-length, padded token-id sequences
// for the embedding encoder. Safe for concurrent use: the vocabulary is
// read-only after construction and the piece cache is internally locked.
type Tokenizer struct {
	vocab *Vocab
	cache *lru.Cache[string, []int64]
}

// Encoding is a fixed-length model input.
type Encoding struct {
	IDs           []int64
	AttentionMask []int64
	TypeIDs       []int64
}

// NewTokenizer creates a tokenizer over the given vocabulary.
func NewTokenizer(vocab *Vocab) *Tokenizer {
	cache, _ := lru.New[string, []int64](wordCacheSize)
	return &Tokenizer{
		vocab: vocab,
		cache: cache,
	}
}

// Tokenize encodes text into exactly maxLen ids with attention mask and
// type ids. The sequence is wrapped in [CLS]/[SEP], truncated to fit, and
// right-padded with [PAD]. Type ids are all zero (single-segment input).
func (t *Tokenizer) Tokenize(text string, maxLen int) Encoding {
	ids := make([]int64, 0, maxLen)
	ids = append(ids, t.vocab.ClsID)

	// Content may occupy at most maxLen-1 positions before the [SEP].
	limit := maxLen - 1

	for _, word := range strings.Fields(strings.ToLower(strings.TrimSpace(text))) {
		if len(ids) >= limit {
			break
		}
		for _, id := range t.wordPieces(word) {
			if len(ids) >= limit {
				break
			}
			ids = append(ids, id)
		}
	}

	ids = append(ids, t.vocab.SepID)

	enc := Encoding{
		IDs:           make([]int64, maxLen),
		AttentionMask: make([]int64, maxLen),
		TypeIDs:       make([]int64, maxLen),
	}

	for i := 0; i < maxLen; i++ {
		if i < len(ids) {
			enc.IDs[i] = ids[i]
			enc.AttentionMask[i] = 1
		} else {
			enc.IDs[i] = t.vocab.PadID
		}
	}

	return enc
}

// wordPieces segments a single lowercased word into vocabulary ids using
// greedy longest-prefix matching. Results are cached per word.
func (t *Tokenizer) wordPieces(word string) []int64 {
	if word == "" {
		return nil
	}

	if pieces, ok := t.cache.Get(word); ok {
		return pieces
	}

	pieces := t.segment(word)
	t.cache.Add(word, pieces)
	return pieces
}

// segment performs the actual WordPiece segmentation.
func (t *Tokenizer) segment(word string) []int64 {
	// Whole-word fast path.
	if id, ok := t.vocab.Lookup(word); ok {
		return []int64{id}
	}

	runes := []rune(word)
	if len(runes) > maxWordRunes {
		return []int64{t.vocab.UnknownID}
	}

	var pieces []int64
	start := 0
	for start < len(runes) {
		// Longest prefix of runes[start:] present in the vocabulary.
		end := len(runes)
		var matched int64 = -1
		for end > start {
			candidate := string(runes[start:end])
			if start > 0 {
				candidate = ContinuationMarker + candidate
			}
			if id, ok := t.vocab.Lookup(candidate); ok {
				matched = id
				break
			}
			end--
		}

		if matched < 0 {
			// No prefix of any length matches: emit unknown and advance one
			// rune so segmentation always makes forward progress.
			pieces = append(pieces, t.vocab.UnknownID)
			start++
			continue
		}

		pieces = append(pieces, matched)
		start = end
	}

	return pieces
}
