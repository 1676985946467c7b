package tokenizer

import (
	"maps"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCountsAddAndTotal(t *testing.T) {
	c := make(Counts)
	c.Add("a", 2)
	c.Add("b", 1)
	c.Add("a", 3)
	if diff := cmp.Diff(Counts{"a": 5, "b": 1}, c); diff != "" {
		t.Fatalf("counts mismatch (-want +got):\n%s", diff)
	}
	if c.Total() != 6 {
		t.Fatalf("Total = %d, want 6", c.Total())
	}
}

func TestAccumulate(t *testing.T) {
	a := Counts{"low": 1, " low": 2}
	b := Counts{" low": 3, "er": 1}
	c := Counts{"er": 4}
	ac, bc, cc := maps.Clone(a), maps.Clone(b), maps.Clone(c)

	want := Counts{"low": 1, " low": 5, "er": 5}
	for name, got := range map[string]Counts{
		"abc":    Accumulate(a, b, c),
		"cba":    Accumulate(c, b, a),
		"(ab)c":  Accumulate(Accumulate(a, b), c),
		"a(bc)":  Accumulate(a, Accumulate(b, c)),
		"nested": Accumulate(Accumulate(c), Accumulate(), Accumulate(b, a)),
	} {
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("%s: mismatch (-want +got):\n%s", name, diff)
		}
	}
	for name, pair := range map[string][2]Counts{"a": {ac, a}, "b": {bc, b}, "c": {cc, c}} {
		if diff := cmp.Diff(pair[0], pair[1]); diff != "" {
			t.Errorf("input %s modified (-want +got):\n%s", name, diff)
		}
	}
	if got := Accumulate(); len(got) != 0 || got == nil {
		t.Fatalf("Accumulate() = %v, want empty non-nil", got)
	}
}
