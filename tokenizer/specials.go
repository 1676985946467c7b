package tokenizer

import (
	"cmp"
	"iter"
	"slices"
	"strings"
)

// SortSpecialsLongestFirst returns a copy of specials ordered by descending
// length so a token is never shadowed by a shorter one that is its prefix.
// Empty strings are dropped; equal-length tokens keep their input order.
func SortSpecialsLongestFirst(specials []string) []string {
	out := make([]string, 0, len(specials))
	for _, s := range specials {
		if s != "" {
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b string) int {
		return cmp.Compare(len(b), len(a))
	})
	return out
}

// matchSpecialAt reports the first of sorted (longest first) that occurs at
// s[i:], and its length. Zero length means no match.
func matchSpecialAt(s string, i int, sorted []string) (string, int) {
	for _, lit := range sorted {
		if strings.HasPrefix(s[i:], lit) {
			return lit, len(lit)
		}
	}
	return "", 0
}

// SplitSpecials yields the spans of text between special token occurrences.
// The special tokens themselves are not yielded, nor are empty spans.
// sorted must come from SortSpecialsLongestFirst.
func SplitSpecials(text string, sorted []string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for frag, special := range fragments(text, sorted) {
			if !special && !yield(frag) {
				return
			}
		}
	}
}

// fragments yields text cut at special token occurrences, reporting for each
// fragment whether it is a special token. At any position the longest
// special wins.
func fragments(text string, sorted []string) iter.Seq2[string, bool] {
	return func(yield func(string, bool) bool) {
		if len(sorted) == 0 {
			if text != "" {
				yield(text, false)
			}
			return
		}
		start := 0
		for i := 0; i < len(text); {
			lit, n := matchSpecialAt(text, i, sorted)
			if n == 0 {
				i++
				continue
			}
			if i > start && !yield(text[start:i], false) {
				return
			}
			if !yield(lit, true) {
				return
			}
			i += n
			start = i
		}
		if start < len(text) {
			yield(text[start:], false)
		}
	}
}

// partialSpecialSuffix returns the length of the longest suffix of s that is
// a proper prefix of some special token.
func partialSpecialSuffix(s string, sorted []string) int {
	best := 0
	for _, lit := range sorted {
		for n := min(len(lit)-1, len(s)); n > best; n-- {
			if strings.HasSuffix(s, lit[:n]) {
				best = n
				break
			}
		}
	}
	return best
}
