package token

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testVocab builds a small vocabulary in BERT layout: specials first,
// then whole words, then continuation pieces.
func testVocab(t *testing.T) *Vocab {
	t.Helper()
	lines := []string{
		"[PAD]",    // 0
		"[UNK]",    // 1
		"[CLS]",    // 2
		"[SEP]",    // 3
		"hello",    // 4
		"world",    // 5
		"note",     // 6
		"##book",   // 7
		"##s",      // 8
		"search",   // 9
		"un",       // 10
		"##believ", // 11
		"##able",   // 12
	}
	v, err := LoadVocab(strings.NewReader(strings.Join(lines, "\n")))
	require.NoError(t, err)
	return v
}

func TestLoadVocab_SpecialTokens(t *testing.T) {
	v := testVocab(t)
	assert.Equal(t, int64(0), v.PadID)
	assert.Equal(t, int64(1), v.UnknownID)
	assert.Equal(t, int64(2), v.ClsID)
	assert.Equal(t, int64(3), v.SepID)
	assert.Equal(t, 13, v.Size())
}

func TestLoadVocab_MissingSpecialsFails(t *testing.T) {
	_, err := LoadVocab(strings.NewReader("hello\nworld\n"))
	assert.Error(t, err)
}

func TestTokenize_WholeWords(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	enc := tok.Tokenize("Hello World", 8)

	// [CLS] hello world [SEP] [PAD] x4
	assert.Equal(t, []int64{2, 4, 5, 3, 0, 0, 0, 0}, enc.IDs)
	assert.Equal(t, []int64{1, 1, 1, 1, 0, 0, 0, 0}, enc.AttentionMask)
	assert.Equal(t, make([]int64, 8), enc.TypeIDs)
}

func TestTokenize_SubwordSegmentation(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	// "notebooks" = note + ##book + ##s
	enc := tok.Tokenize("notebooks", 8)
	assert.Equal(t, []int64{2, 6, 7, 8, 3, 0, 0, 0}, enc.IDs)

	// "unbelievable" = un + ##believ + ##able
	enc = tok.Tokenize("unbelievable", 8)
	assert.Equal(t, []int64{2, 10, 11, 12, 3, 0, 0, 0}, enc.IDs)
}

func TestTokenize_UnknownScriptMakesProgress(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	// No vocabulary entry matches any prefix of these runes; each rune must
	// emit [UNK] rather than looping forever.
	enc := tok.Tokenize("日本語", 10)
	assert.Equal(t, []int64{2, 1, 1, 1, 3, 0, 0, 0, 0, 0}, enc.IDs)
}

func TestTokenize_EmptyInput(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	enc := tok.Tokenize("   ", 6)

	// Just sentinels.
	assert.Equal(t, []int64{2, 3, 0, 0, 0, 0}, enc.IDs)
	assert.Equal(t, []int64{1, 1, 0, 0, 0, 0}, enc.AttentionMask)
}

func TestTokenize_TruncatesLongInput(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	text := strings.Repeat("hello world ", 50)
	enc := tok.Tokenize(text, 10)

	require.Len(t, enc.IDs, 10)
	assert.Equal(t, int64(2), enc.IDs[0])
	assert.Equal(t, int64(3), enc.IDs[9], "last position must be [SEP] after truncation")

	// Mask has exactly as many 1s as non-pad tokens.
	var ones int
	for _, m := range enc.AttentionMask {
		ones += int(m)
	}
	assert.Equal(t, 10, ones)
}

func TestTokenize_Deterministic(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	a := tok.Tokenize("hello notebooks world", 16)
	b := tok.Tokenize("hello notebooks world", 16)

	assert.Equal(t, a.IDs, b.IDs)
	assert.Equal(t, a.AttentionMask, b.AttentionMask)
	assert.Equal(t, a.TypeIDs, b.TypeIDs)
}

func TestTokenize_FixedOutputLength(t *testing.T) {
	tok := NewTokenizer(testVocab(t))

	for _, text := range []string{"", "hello", strings.Repeat("world ", 100)} {
		enc := tok.Tokenize(text, 32)
		assert.Len(t, enc.IDs, 32)
		assert.Len(t, enc.AttentionMask, 32)
		assert.Len(t, enc.TypeIDs, 32)
	}
}

func TestTokenize_ConcurrentAccess(t *testing.T) {
	tok := NewTokenizer(testVocab(t))
	want := tok.Tokenize("hello notebooks unbelievable world", 24)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				got := tok.Tokenize("hello notebooks unbelievable world", 24)
				if !assert.ObjectsAreEqual(want.IDs, got.IDs) {
					t.Errorf("concurrent tokenize diverged")
					return
				}
			}
		}()
	}
	wg.Wait()
}
