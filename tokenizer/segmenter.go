package tokenizer

import (
	"iter"
	"unicode"
	"unicode/utf8"
)

// GPT2Pattern is the byte-level pre-tokenization pattern used for training.
const GPT2Pattern = `'(?:[sdmt]|ll|ve|re)| ?\p{L}+| ?\p{N}+| ?[^\s\p{L}\p{N}]+|\s+(?!\S)|\s+`

// Segmenter splits a span of text (containing no special tokens) into
// pre-tokens. Concatenating the yielded segments reproduces the input.
type Segmenter interface {
	Segments(s string) iter.Seq[string]
}

type gpt2Segmenter struct{}

// NewGPT2Segmenter returns a segmenter equivalent to GPT2Pattern, implemented
// without regex lookaheads.
func NewGPT2Segmenter() Segmenter { return gpt2Segmenter{} }

func (g gpt2Segmenter) Segments(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := 0; i < len(s); {
			end := g.next(s, i)
			if end <= i { // safety
				end = i + 1
			}
			if !yield(s[i:end]) {
				return
			}
			i = end
		}
	}
}

// next returns the end index (exclusive) of the segment starting at i.
// Rules are tried in pattern order; the first that matches wins.
func (gpt2Segmenter) next(s string, i int) int {
	if end := ruleContraction(s, i); end > i {
		return end
	}
	if end := ruleClassRun(s, i, isL); end > i {
		return end
	}
	if end := ruleClassRun(s, i, isN); end > i {
		return end
	}
	if end := ruleClassRun(s, i, isOther); end > i {
		return end
	}
	if end := ruleTrailingWhitespace(s, i); end > i {
		return end
	}
	if end := ruleWhitespace(s, i); end > i {
		return end
	}
	// Fallback: one rune
	_, sz := decodeRune(s, i)
	return i + sz
}

func decodeRune(s string, i int) (rune, int) {
	if b := s[i]; b < utf8.RuneSelf {
		return rune(b), 1
	}
	return utf8.DecodeRuneInString(s[i:])
}

func isL(r rune) bool     { return unicode.IsLetter(r) }
func isN(r rune) bool     { return unicode.IsNumber(r) }
func isSpace(r rune) bool { return unicode.IsSpace(r) }
func isOther(r rune) bool { return !isSpace(r) && !isL(r) && !isN(r) }

// ruleContraction matches '(?:[sdmt]|ll|ve|re), case-sensitive.
func ruleContraction(s string, i int) int {
	if s[i] != '\'' || i+1 >= len(s) {
		return i
	}
	switch s[i+1] {
	case 's', 'd', 'm', 't':
		return i + 2
	}
	if i+2 < len(s) {
		switch s[i+1 : i+3] {
		case "ll", "ve", "re":
			return i + 3
		}
	}
	return i
}

// ruleClassRun matches " ?" followed by one or more runes of the class.
func ruleClassRun(s string, i int, class func(rune) bool) int {
	j := i
	if s[j] == ' ' {
		j++
	}
	start := j
	for j < len(s) {
		r, sz := decodeRune(s, j)
		if !class(r) {
			break
		}
		j += sz
	}
	if j == start {
		return i
	}
	return j
}

// ruleTrailingWhitespace matches \s+(?!\S): a whitespace run that is either
// at the end of s or gives back its last rune to the following token.
func ruleTrailingWhitespace(s string, i int) int {
	j, last := i, i
	for j < len(s) {
		r, sz := decodeRune(s, j)
		if !isSpace(r) {
			break
		}
		last = j
		j += sz
	}
	if j == i {
		return i
	}
	if j == len(s) {
		return j
	}
	// Backtrack one rune; the remainder is still followed by whitespace.
	if last > i {
		return last
	}
	return i
}

func ruleWhitespace(s string, i int) int {
	j := i
	for j < len(s) {
		r, sz := decodeRune(s, j)
		if !isSpace(r) {
			break
		}
		j += sz
	}
	return j
}
