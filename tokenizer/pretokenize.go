package tokenizer

import (
	"bytes"
	"iter"
	"strings"
)

// Pretokenizer splits text on special tokens and then into pre-tokens.
type Pretokenizer struct {
	specials []string // longest first
	seg      Segmenter
}

// NewPretokenizer returns a Pretokenizer. A nil seg selects the GPT-2
// segmenter. specials is not modified.
func NewPretokenizer(specials []string, seg Segmenter) *Pretokenizer {
	if seg == nil {
		seg = NewGPT2Segmenter()
	}
	return &Pretokenizer{specials: SortSpecialsLongestFirst(specials), seg: seg}
}

// Pretokenize lazily yields the pre-tokens of text. Special tokens are
// dropped; no pre-token crosses one.
func (p *Pretokenizer) Pretokenize(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for span := range SplitSpecials(text, p.specials) {
			for piece := range p.seg.Segments(span) {
				if !yield(piece) {
					return
				}
			}
		}
	}
}

// Count returns the pre-token frequency table for text.
func (p *Pretokenizer) Count(text string) Counts {
	counts := make(Counts)
	for piece := range p.Pretokenize(text) {
		if _, ok := counts[piece]; !ok {
			// Detach the key from text so the chunk can be collected.
			piece = strings.Clone(piece)
		}
		counts.Add(piece, 1)
	}
	return counts
}

// ValidText converts raw corpus bytes to text, dropping byte sequences that
// are not valid UTF-8.
func ValidText(b []byte) string {
	return string(bytes.ToValidUTF8(b, nil))
}
