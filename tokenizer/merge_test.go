package tokenizer

import (
	"errors"
	"fmt"
	"maps"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type step struct {
	Merge Merge
	Freq  int
}

func runEngine(t *testing.T, s Strategy, counts Counts, limit int) []step {
	t.Helper()
	e, err := NewMergeEngine(s, counts)
	if err != nil {
		t.Fatalf("NewMergeEngine(%q): %v", s, err)
	}
	var out []step
	for len(out) < limit {
		m, freq, ok := e.Step()
		if !ok {
			break
		}
		out = append(out, step{m, freq})
	}
	return out
}

func newMerge(l, r string) Merge { return Merge{Left: []byte(l), Right: []byte(r)} }

var strategies = []Strategy{StrategyNaive, StrategyIncremental}

func TestMergeEngineScenario(t *testing.T) {
	counts := NewPretokenizer(nil, nil).Count("low low lower widest widest widest")
	want := []step{
		{newMerge("w", "i"), 3},
		{newMerge("wi", "d"), 3},
		{newMerge("wid", "e"), 3},
	}
	for _, s := range strategies {
		t.Run(string(s), func(t *testing.T) {
			if diff := cmp.Diff(want, runEngine(t, s, counts, 3)); diff != "" {
				t.Fatalf("merges mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMergeEngineTieBreak(t *testing.T) {
	tests := []struct {
		name   string
		counts Counts
		want   Merge
	}{
		{"greater left wins", Counts{"ab": 1, "cd": 1}, newMerge("c", "d")},
		{"equal left, greater right wins", Counts{"ab": 2, "ac": 2}, newMerge("a", "c")},
		{"count beats order", Counts{"ab": 5, "yz": 4}, newMerge("a", "b")},
		{"bytes not runes", Counts{"\xc3\xa9": 1, "zz": 1}, newMerge("\xc3", "\xa9")},
	}
	for _, s := range strategies {
		for _, tc := range tests {
			t.Run(fmt.Sprintf("%s/%s", s, tc.name), func(t *testing.T) {
				got := runEngine(t, s, tc.counts, 1)
				if len(got) != 1 {
					t.Fatalf("got %d merges", len(got))
				}
				if diff := cmp.Diff(tc.want, got[0].Merge); diff != "" {
					t.Fatalf("merge mismatch (-want +got):\n%s", diff)
				}
			})
		}
	}
}

func TestMergeEngineNonOverlapping(t *testing.T) {
	tests := []struct {
		counts Counts
		want   []step
	}{
		{Counts{"aaaa": 1}, []step{{newMerge("a", "a"), 3}, {newMerge("aa", "aa"), 1}}},
		{Counts{"aaa": 2}, []step{{newMerge("a", "a"), 4}, {newMerge("aa", "a"), 2}}},
	}
	for _, s := range strategies {
		for _, tc := range tests {
			got := runEngine(t, s, tc.counts, 10)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("%s %v: merges mismatch (-want +got):\n%s", s, tc.counts, diff)
			}
		}
	}
}

func TestMergeEngineExhaustion(t *testing.T) {
	for _, s := range strategies {
		for _, counts := range []Counts{{}, {"a": 10, "b": 3}, {"ab": 0}} {
			if got := runEngine(t, s, counts, 5); len(got) != 0 {
				t.Fatalf("%s %v: expected no merges, got %v", s, counts, got)
			}
		}
		// A single two-byte pre-token allows exactly one merge.
		if got := runEngine(t, s, Counts{"xy": 7}, 5); len(got) != 1 {
			t.Fatalf("%s: got %d merges, want 1", s, len(got))
		}
	}
}

func TestMergeEngineDoesNotRetainCounts(t *testing.T) {
	counts := Counts{"hello": 2, "help": 1}
	before := maps.Clone(counts)
	runEngine(t, StrategyIncremental, counts, 10)
	runEngine(t, StrategyNaive, counts, 10)
	if diff := cmp.Diff(before, counts); diff != "" {
		t.Fatalf("engine modified counts (-want +got):\n%s", diff)
	}
}

func randomCorpus(r *rand.Rand, words int) string {
	alphabet := []string{"a", "b", "c", "ab", "ba", "é", "ß", "1", "2", " ", "  ", "\n", "!", "'s", "low", "er"}
	var sb strings.Builder
	for range words {
		n := 1 + r.IntN(6)
		for range n {
			sb.WriteString(alphabet[r.IntN(len(alphabet))])
		}
		sb.WriteByte(' ')
	}
	return sb.String()
}

func TestNaiveAndIncrementalAgree(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	pre := NewPretokenizer(nil, nil)
	for i := range 20 {
		counts := pre.Count(randomCorpus(r, 50+r.IntN(400)))
		naive := runEngine(t, StrategyNaive, counts, 500)
		incr := runEngine(t, StrategyIncremental, counts, 500)
		if diff := cmp.Diff(naive, incr); diff != "" {
			t.Fatalf("corpus %d: engines disagree (-naive +incremental):\n%s", i, diff)
		}
	}
}

func TestParseStrategy(t *testing.T) {
	for in, want := range map[string]Strategy{"": StrategyIncremental, "Incremental": StrategyIncremental, " naive ": StrategyNaive} {
		got, err := ParseStrategy(in)
		if err != nil || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseStrategy("greedy"); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("ParseStrategy(greedy): err = %v", err)
	}
	if _, err := NewMergeEngine("greedy", Counts{}); !errors.Is(err, ErrUnknownStrategy) {
		t.Fatalf("NewMergeEngine(greedy): err = %v", err)
	}
}

func TestMergeWord(t *testing.T) {
	tests := []struct {
		in   []int
		want []int
		ok   bool
	}{
		{[]int{1, 2, 1, 2}, []int{9, 9}, true},
		{[]int{1, 1, 2, 2}, []int{1, 9, 2}, true},
		{[]int{2, 1}, []int{2, 1}, false},
		{[]int{1}, []int{1}, false},
	}
	for _, tc := range tests {
		got, ok := mergeWord(tc.in, pair{1, 2}, 9)
		if ok != tc.ok {
			t.Fatalf("mergeWord(%v) ok = %v", tc.in, ok)
		}
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Fatalf("mergeWord(%v) mismatch (-want +got):\n%s", tc.in, diff)
		}
	}
}
