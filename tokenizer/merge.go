package tokenizer

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Merge is one learned rule: the adjacent tokens Left and Right become one
// token holding their concatenation.
type Merge struct {
	Left, Right []byte
}

// Token returns the bytes of the merged token.
func (m Merge) Token() []byte {
	out := make([]byte, 0, len(m.Left)+len(m.Right))
	out = append(out, m.Left...)
	return append(out, m.Right...)
}

func (m Merge) String() string { return fmt.Sprintf("%q + %q", m.Left, m.Right) }

// MergeEngine learns merges one at a time from a pre-token frequency table.
type MergeEngine interface {
	// Step selects the most frequent adjacent pair, rewrites every pre-token
	// containing it and returns the merge with the pair's frequency. ok is
	// false once no pre-token has two or more tokens.
	Step() (m Merge, freq int, ok bool)
}

// Strategy names a MergeEngine implementation.
type Strategy string

const (
	// StrategyIncremental maintains pair counts across steps with a heap.
	StrategyIncremental Strategy = "incremental"
	// StrategyNaive recomputes all pair counts on every step. It is the
	// reference the incremental engine is checked against.
	StrategyNaive Strategy = "naive"
)

// ErrUnknownStrategy is returned for an unrecognised Strategy name.
var ErrUnknownStrategy = errors.New("unknown merge strategy")

// ParseStrategy parses a strategy name; empty selects StrategyIncremental.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyIncremental:
		return StrategyIncremental, nil
	case StrategyNaive:
		return StrategyNaive, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// NewMergeEngine builds the engine for s over counts. counts is not retained.
func NewMergeEngine(s Strategy, counts Counts) (MergeEngine, error) {
	switch s {
	case StrategyIncremental, "":
		return newIncrementalEngine(counts), nil
	case StrategyNaive:
		return newNaiveEngine(counts), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
	}
}

// symbols interns token byte strings. Tokens are compared by content, so two
// merge paths producing the same bytes yield the same symbol.
type symbols struct {
	bytes []string
	index map[string]int
}

func newSymbols() *symbols {
	s := &symbols{index: make(map[string]int, 2*NumBytes)}
	for b := range NumBytes {
		s.intern(string([]byte{byte(b)}))
	}
	return s
}

func (s *symbols) intern(b string) int {
	if id, ok := s.index[b]; ok {
		return id
	}
	id := len(s.bytes)
	s.bytes = append(s.bytes, b)
	s.index[b] = id
	return id
}

type pair struct{ a, b int }

// compare orders pairs lexicographically by (left bytes, right bytes).
func (s *symbols) compare(p, q pair) int {
	if c := strings.Compare(s.bytes[p.a], s.bytes[q.a]); c != 0 {
		return c
	}
	return strings.Compare(s.bytes[p.b], s.bytes[q.b])
}

// better reports whether (pc, p) outranks (qc, q): higher count first, then
// the lexicographically greater pair.
func (s *symbols) better(p pair, pc int, q pair, qc int) bool {
	if pc != qc {
		return pc > qc
	}
	return s.compare(p, q) > 0
}

func (s *symbols) merge(p pair) Merge {
	return Merge{Left: []byte(s.bytes[p.a]), Right: []byte(s.bytes[p.b])}
}

type word struct {
	syms  []int
	count int
}

// newWords converts counts to symbol sequences in key order.
func newWords(counts Counts) []word {
	keys := slices.Sorted(maps.Keys(counts))
	words := make([]word, 0, len(keys))
	for _, k := range keys {
		if counts[k] <= 0 {
			continue
		}
		syms := make([]int, len(k))
		for i := 0; i < len(k); i++ {
			syms[i] = int(k[i])
		}
		words = append(words, word{syms: syms, count: counts[k]})
	}
	return words
}

// mergeWord replaces every non-overlapping occurrence of p, scanning left to
// right, with n. It reports false and returns syms unchanged when p does not
// occur.
func mergeWord(syms []int, p pair, n int) ([]int, bool) {
	if len(syms) < 2 || !slices.Contains(syms, p.a) {
		return syms, false
	}
	var out []int
	for i := 0; i < len(syms); {
		if i+1 < len(syms) && syms[i] == p.a && syms[i+1] == p.b {
			if out == nil {
				out = make([]int, 0, len(syms)-1)
				out = append(out, syms[:i]...)
			}
			out = append(out, n)
			i += 2
			continue
		}
		if out != nil {
			out = append(out, syms[i])
		}
		i++
	}
	if out == nil {
		return syms, false
	}
	return out, true
}

type naiveEngine struct {
	syms  *symbols
	words []word
}

func newNaiveEngine(counts Counts) *naiveEngine {
	return &naiveEngine{syms: newSymbols(), words: newWords(counts)}
}

func (e *naiveEngine) Step() (Merge, int, bool) {
	counts := make(map[pair]int)
	for _, w := range e.words {
		for i := 0; i+1 < len(w.syms); i++ {
			counts[pair{w.syms[i], w.syms[i+1]}] += w.count
		}
	}
	if len(counts) == 0 {
		return Merge{}, 0, false
	}

	var best pair
	bestCount := -1
	for p, c := range counts {
		if bestCount < 0 || e.syms.better(p, c, best, bestCount) {
			best, bestCount = p, c
		}
	}

	n := e.syms.intern(e.syms.bytes[best.a] + e.syms.bytes[best.b])
	for i := range e.words {
		if merged, ok := mergeWord(e.words[i].syms, best, n); ok {
			e.words[i].syms = merged
		}
	}
	return e.syms.merge(best), bestCount, true
}
