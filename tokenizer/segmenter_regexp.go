package tokenizer

import (
	"iter"

	"github.com/dlclark/regexp2"
)

type regexpSegmenter struct {
	re *regexp2.Regexp
}

// NewRegexpSegmenter compiles pattern with regexp2, which supports the
// lookahead in GPT2Pattern. Text not covered by a match is yielded as its own
// segment so concatenation still reproduces the input.
func NewRegexpSegmenter(pattern string) (Segmenter, error) {
	re, err := regexp2.Compile(pattern, regexp2.None)
	if err != nil {
		return nil, err
	}
	return &regexpSegmenter{re: re}, nil
}

func (rs *regexpSegmenter) Segments(s string) iter.Seq[string] {
	return func(yield func(string) bool) {
		if s == "" {
			return
		}
		r := []rune(s)
		var offset int
		// Match errors only report an expired MatchTimeout, and none is set.
		m, _ := rs.re.FindRunesMatch(r)
		for ; m != nil; m, _ = rs.re.FindNextMatch(m) {
			if m.Length == 0 {
				continue
			}
			if m.Index > offset {
				if !yield(string(r[offset:m.Index])) {
					return
				}
			}
			if !yield(string(r[m.Index : m.Index+m.Length])) {
				return
			}
			offset = m.Index + m.Length
		}
		if offset < len(r) {
			yield(string(r[offset:]))
		}
	}
}
