// Package token implements WordPiece tokenization for the embedding encoder.
package token

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Special token strings expected in the vocabulary.
const (
	PadToken     = "[PAD]"
	UnknownToken = "[UNK]"
	ClsToken     = "[CLS]"
	SepToken     = "[SEP]"

	// ContinuationMarker prefixes non-initial subword pieces.
	ContinuationMarker = "##"
)

// Vocab maps token strings to ids. Token id equals the token's line number
// in the vocabulary file, starting at 0.
type Vocab struct {
	ids map[string]int64

	PadID     int64
	UnknownID int64
	ClsID     int64
	SepID     int64
}

// LoadVocab reads a line-oriented vocabulary from r.
// Blank trailing lines are ignored; interior lines are kept verbatim so
// line numbers stay aligned with token ids.
func LoadVocab(r io.Reader) (*Vocab, error) {
	v := &Vocab{
		ids:       make(map[string]int64),
		PadID:     -1,
		UnknownID: -1,
		ClsID:     -1,
		SepID:     -1,
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var line int64
	for scanner.Scan() {
		tok := strings.TrimRight(scanner.Text(), "\r\n")
		v.ids[tok] = line

		switch tok {
		case PadToken:
			v.PadID = line
		case UnknownToken:
			v.UnknownID = line
		case ClsToken:
			v.ClsID = line
		case SepToken:
			v.SepID = line
		}
		line++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read vocabulary: %w", err)
	}

	if v.PadID < 0 || v.UnknownID < 0 || v.ClsID < 0 || v.SepID < 0 {
		return nil, fmt.Errorf("vocabulary missing special tokens (need %s, %s, %s, %s)",
			PadToken, UnknownToken, ClsToken, SepToken)
	}

	return v, nil
}

// LoadVocabFile reads a vocabulary from a file path.
func LoadVocabFile(path string) (*Vocab, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary: %w", err)
	}
	defer f.Close()
	return LoadVocab(f)
}

// Lookup returns the id for a token and whether it exists.
func (v *Vocab) Lookup(token string) (int64, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocab) Size() int {
	return len(v.ids)
}
