package tokenizer

import (
	"math/rand/v2"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func chunked(parts ...string) func(func(string) bool) {
	return func(yield func(string) bool) {
		for _, p := range parts {
			if !yield(p) {
				return
			}
		}
	}
}

func TestEncodeSeqMatchesEncode(t *testing.T) {
	corpus := "hello world<|endoftext|>héllo   wörld 123\n\nhello<|endoftext|>"
	enc := trainedModel(t, corpus+corpus, []string{"<|endoftext|>", "<|end|>"}, 40)
	text := "say héllo  world's<|end|>12 3<|endoftext|>\t東京 \n"
	want := enc.Encode(text)

	// Every split into three chunks, including inside runes and specials.
	for i := 0; i <= len(text); i++ {
		for j := i; j <= len(text); j++ {
			got := slices.Collect(enc.EncodeSeq(chunked(text[:i], text[i:j], text[j:])))
			if diff := cmp.Diff(want, got); diff != "" {
				t.Fatalf("split at %d,%d mismatch (-want +got):\n%s", i, j, diff)
			}
		}
	}

	// One byte at a time.
	var bytewise []string
	for i := range len(text) {
		bytewise = append(bytewise, text[i:i+1])
	}
	if diff := cmp.Diff(want, slices.Collect(enc.EncodeSeq(chunked(bytewise...)))); diff != "" {
		t.Fatalf("bytewise mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeSeqKeepsContextSplit(t *testing.T) {
	// " \t" before a letter is two pieces; alone at the end it is one and
	// would merge.
	enc := handModel(t, nil, newMerge(" ", "\t"))
	text := "a \tbc d"
	want := []uint32{'a', ' ', '\t', 'b', 'c', ' ', 'd'}
	if diff := cmp.Diff(want, enc.Encode(text)); diff != "" {
		t.Fatalf("Encode mismatch (-want +got):\n%s", diff)
	}
	for i := 0; i <= len(text); i++ {
		got := slices.Collect(enc.EncodeSeq(chunked(text[:i], text[i:])))
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("split at %d mismatch (-want +got):\n%s", i, diff)
		}
	}
}

func TestEncodeSeqRandomSplits(t *testing.T) {
	enc := handModel(t, []string{"<eos>", "<eos>x"},
		newMerge(" ", "\t"),
		newMerge("\t", "\t"),
		newMerge(" ", " "),
		newMerge("\n", "\n"),
		newMerge("'", "l"),
		newMerge("'l", "l"),
		newMerge("a", "b"),
		newMerge(" ", "ab"),
		newMerge("1", "2"),
		newMerge(" ", "\n"),
	)
	alphabet := []string{"a", "b", "l", "x", "'", " ", "  ", "\t", "\n", "1", "2", "é", "!", "<eos>", "<eo", "<eos>x"}
	r := rand.New(rand.NewPCG(3, 5))
	for i := range 2000 {
		var sb strings.Builder
		for range 1 + r.IntN(24) {
			sb.WriteString(alphabet[r.IntN(len(alphabet))])
		}
		text := sb.String()
		var parts []string
		for rest := text; rest != ""; {
			n := 1 + r.IntN(len(rest))
			parts = append(parts, rest[:n])
			rest = rest[n:]
		}
		got := slices.Collect(enc.EncodeSeq(chunked(parts...)))
		if diff := cmp.Diff(enc.Encode(text), got); diff != "" {
			t.Fatalf("case %d %q split as %q mismatch (-want +got):\n%s", i, text, parts, diff)
		}
	}
}

func TestEncodeSeqEmpty(t *testing.T) {
	enc := handModel(t, []string{"<eos>"})
	if got := slices.Collect(enc.EncodeSeq(chunked())); len(got) != 0 {
		t.Fatalf("no chunks produced %v", got)
	}
	if got := slices.Collect(enc.EncodeSeq(chunked("", "", ""))); len(got) != 0 {
		t.Fatalf("empty chunks produced %v", got)
	}
	// A partial special at the end is ordinary text.
	if diff := cmp.Diff(enc.Encode("<eo"), slices.Collect(enc.EncodeSeq(chunked("<", "eo")))); diff != "" {
		t.Fatalf("partial special mismatch (-want +got):\n%s", diff)
	}
}

func TestEncodeSeqStopsEarly(t *testing.T) {
	enc := handModel(t, nil)
	var n int
	for range enc.EncodeSeq(chunked("a b c d e f")) {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("received %d ids after break, want 3", n)
	}
}
