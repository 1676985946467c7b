package tokenizer

import (
	"iter"
	"unicode/utf8"
)

// EncodeSeq encodes text arriving in chunks and yields ids as soon as they
// can no longer change. With the GPT-2 segmenter the output equals Encode of
// the concatenated chunks.
// Ranging over the result again re-reads chunks from the start.
func (b *coreBPE) EncodeSeq(chunks iter.Seq[string]) iter.Seq[uint32] {
	return func(yield func(uint32) bool) {
		var pending string
		var out []uint32
		emit := func() bool {
			for _, id := range out {
				if !yield(id) {
					return false
				}
			}
			out = out[:0]
			return true
		}
		for chunk := range chunks {
			buf := pending + chunk
			cut := b.encodeStable(buf, &out)
			pending = buf[cut:]
			if !emit() {
				return
			}
		}
		b.encodeInto(pending, &out)
		emit()
	}
}

// encodeStable appends ids for the longest prefix of buf whose encoding
// cannot be changed by text appended later, and returns that prefix length.
// The tail held back covers a partial special token, a partial UTF-8
// sequence and the final two pre-tokens. Pieces are encoded as segmented in
// the context of buf; the prefix is never split again on its own.
func (b *coreBPE) encodeStable(buf string, out *[]uint32) int {
	limit := len(buf) - partialSpecialSuffix(buf, b.specials)
	limit = trimPartialRune(buf, limit)

	cut := 0
	var held [2]string
	n := 0
	flush := func() {
		for _, p := range held[:n] {
			b.encodePiece(p, out)
			cut += len(p)
		}
		n = 0
	}
	for frag, special := range fragments(buf[:limit], b.specials) {
		if special {
			flush()
			*out = append(*out, b.specialEnc[frag])
			cut += len(frag)
			continue
		}
		// The last two pieces may still change: a trailing "'l" is split
		// in two until the next byte turns it into "'ll".
		for piece := range b.seg.Segments(frag) {
			if n == len(held) {
				b.encodePiece(held[0], out)
				cut += len(held[0])
				held[0], held[1] = held[1], piece
				continue
			}
			held[n] = piece
			n++
		}
	}
	return cut
}

// trimPartialRune moves limit back to the start of an incomplete trailing
// UTF-8 sequence in s[:limit], if any.
func trimPartialRune(s string, limit int) int {
	for i := limit - 1; i >= 0 && i >= limit-utf8.UTFMax; i-- {
		if utf8.RuneStart(s[i]) {
			if !utf8.FullRuneInString(s[i:limit]) {
				return i
			}
			break
		}
	}
	return limit
}
