package tokenizer

import (
	"errors"
	"fmt"
	"sync"
)

// Rank is a token id.
type Rank = uint32

var (
	// ErrUnknownToken is returned when decoding an id outside the vocabulary.
	ErrUnknownToken = errors.New("invalid token for decoding")
	// ErrInconsistentModel is returned when merges or specials do not match
	// the vocabulary they are loaded with.
	ErrInconsistentModel = errors.New("merges and vocabulary disagree")
)

const noRank = ^uint32(0)

type mergeKey struct{ left, right string }

type coreBPE struct {
	vocab      *Vocabulary
	enc        map[string]Rank   // key: raw bytes as string
	ranks      map[mergeKey]Rank // merge priority, lower applies first
	specials   []string          // longest first
	specialEnc map[string]Rank
	specialDec map[Rank]string
	seg        Segmenter
	partsPool  sync.Pool
	tokenPool  sync.Pool
}

func newCoreBPE(vocab *Vocabulary, merges []Merge, specials []string, seg Segmenter) (*coreBPE, error) {
	if seg == nil {
		seg = NewGPT2Segmenter()
	}
	enc := make(map[string]Rank, vocab.Len())
	for i, t := range vocab.Tokens() {
		if _, ok := enc[string(t)]; !ok {
			enc[string(t)] = Rank(i)
		}
	}
	ranks := make(map[mergeKey]Rank, len(merges))
	for i, m := range merges {
		if _, ok := enc[string(m.Token())]; !ok {
			return nil, fmt.Errorf("%w: merge %d (%s) has no vocabulary entry", ErrInconsistentModel, i, m)
		}
		k := mergeKey{string(m.Left), string(m.Right)}
		if _, ok := ranks[k]; !ok {
			ranks[k] = Rank(i)
		}
	}
	sorted := SortSpecialsLongestFirst(specials)
	specialEnc := make(map[string]Rank, len(sorted))
	specialDec := make(map[Rank]string, len(sorted))
	for _, s := range sorted {
		id, ok := vocab.ID([]byte(s))
		if !ok {
			return nil, fmt.Errorf("%w: special token %q has no vocabulary entry", ErrInconsistentModel, s)
		}
		specialEnc[s] = id
		specialDec[id] = s
	}
	return &coreBPE{
		vocab:      vocab,
		enc:        enc,
		ranks:      ranks,
		specials:   sorted,
		specialEnc: specialEnc,
		specialDec: specialDec,
		seg:        seg,
		partsPool:  sync.Pool{New: func() any { b := make([]part, 0, 64); return &b }},
		tokenPool:  sync.Pool{New: func() any { b := make([]uint32, 0, 32); return &b }},
	}, nil
}

func (b *coreBPE) DecodeBytes(tokens []uint32) ([]byte, error) {
	var out []byte
	if err := b.DecodeBytesInto(&out, tokens); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode returns the text for tokens. Byte sequences are concatenated as-is,
// so a prefix of an encoding may end in a partial UTF-8 sequence.
func (b *coreBPE) Decode(tokens []uint32) (string, error) {
	bs, err := b.DecodeBytes(tokens)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// DecodeBytesInto appends the decoded bytes for the provided tokens
// into dst, avoiding intermediate slice allocations.
func (b *coreBPE) DecodeBytesInto(dst *[]byte, tokens []uint32) error {
	buf := *dst
	for _, t := range tokens {
		if !b.vocab.store.AppendInto(&buf, t) {
			return fmt.Errorf("%w: %d", ErrUnknownToken, t)
		}
	}
	*dst = buf
	return nil
}

// IsSpecialToken reports whether id is one of the encoder's special tokens.
func (b *coreBPE) IsSpecialToken(id uint32) bool { _, ok := b.specialDec[id]; return ok }

// Encode splits text on special tokens (emitted directly, longest first),
// pre-tokenizes the rest and applies learned merges by priority.
func (b *coreBPE) Encode(text string) []uint32 {
	var out []uint32
	b.encodeInto(text, &out)
	return out
}

// EncodeInto appends tokens for text into out without creating an
// intermediate result slice.
func (b *coreBPE) EncodeInto(text string, out *[]uint32) {
	b.encodeInto(text, out)
}

func (b *coreBPE) encodeInto(text string, out *[]uint32) {
	for frag, special := range fragments(text, b.specials) {
		if special {
			*out = append(*out, b.specialEnc[frag])
			continue
		}
		for piece := range b.seg.Segments(frag) {
			b.encodePiece(piece, out)
		}
	}
}

// encodePiece always runs the merge loop: a piece found whole in the
// vocabulary may still be split differently by higher priority merges.
func (b *coreBPE) encodePiece(piece string, out *[]uint32) {
	toks, release := b.bytePairEncode(piece)
	*out = append(*out, toks...)
	release()
}

// bytePairEncode returns the token ids for piece after applying merges.
func (b *coreBPE) bytePairEncode(piece string) ([]uint32, func()) {
	if len(piece) == 1 {
		buf, release := b.acquireTokens(1)
		buf = append(buf[:0], b.enc[piece])
		return buf, release
	}
	parts, releaseParts := b.bytePairMerge(piece)
	toks, releaseTokens := b.acquireTokens(len(parts))
	toks = toks[:0]
	for w := 0; w+1 < len(parts); w++ {
		toks = append(toks, b.enc[piece[parts[w].start:parts[w+1].start]])
	}
	release := func() {
		releaseParts()
		releaseTokens()
	}
	return toks, release
}

type part struct {
	start int
	rank  uint32
}

// getRank returns the merge rank of the pair (parts[i], parts[i+1]).
func (b *coreBPE) getRank(piece string, parts []part, i int) uint32 {
	if i < 0 || i+2 >= len(parts) {
		return noRank
	}
	k := mergeKey{
		left:  piece[parts[i].start:parts[i+1].start],
		right: piece[parts[i+1].start:parts[i+2].start],
	}
	if r, ok := b.ranks[k]; ok {
		return r
	}
	return noRank
}

// bytePairMerge starts from single bytes and repeatedly merges the adjacent
// pair with the lowest merge rank, leftmost first. The returned parts hold
// the start offset of every token plus a sentinel at len(piece).
func (b *coreBPE) bytePairMerge(piece string) ([]part, func()) {
	parts, release := b.acquireParts(len(piece) + 1)
	parts = parts[:0]
	for i := 0; i <= len(piece); i++ {
		parts = append(parts, part{start: i, rank: noRank})
	}
	for i := 0; i+2 < len(parts); i++ {
		parts[i].rank = b.getRank(piece, parts, i)
	}

	for {
		minRank, idx := noRank, -1
		for j := 0; j+2 < len(parts); j++ {
			if parts[j].rank < minRank {
				minRank, idx = parts[j].rank, j
			}
		}
		if idx < 0 {
			break
		}
		parts = append(parts[:idx+1], parts[idx+2:]...)
		parts[idx].rank = b.getRank(piece, parts, idx)
		if idx > 0 {
			parts[idx-1].rank = b.getRank(piece, parts, idx-1)
		}
	}
	return parts, release
}

func (b *coreBPE) acquireParts(capHint int) ([]part, func()) {
	var p *[]part
	if v := b.partsPool.Get(); v != nil {
		p = v.(*[]part)
		if cap(*p) < capHint {
			buf := make([]part, 0, capHint)
			p = &buf
		} else {
			*p = (*p)[:0]
		}
	} else {
		buf := make([]part, 0, capHint)
		p = &buf
	}
	release := func() {
		if cap(*p) > 1<<12 {
			return
		}
		*p = (*p)[:0]
		b.partsPool.Put(p)
	}
	return *p, release
}

func (b *coreBPE) acquireTokens(capHint int) ([]uint32, func()) {
	var p *[]uint32
	if v := b.tokenPool.Get(); v != nil {
		p = v.(*[]uint32)
		if cap(*p) < capHint {
			buf := make([]uint32, 0, capHint)
			p = &buf
		} else {
			*p = (*p)[:0]
		}
	} else {
		buf := make([]uint32, 0, capHint)
		p = &buf
	}
	release := func() {
		if cap(*p) > 1<<12 {
			return
		}
		*p = (*p)[:0]
		b.tokenPool.Put(p)
	}
	return *p, release
}
