package tokenizer

// NumBytes is the number of single-byte tokens that seed every vocabulary.
const NumBytes = 256

// Vocabulary maps token ids to byte sequences. Ids 0..255 are the single
// bytes; later ids are assigned sequentially and never reused.
type Vocabulary struct {
	store tokenStore
	first map[string]uint32 // lowest id holding each byte sequence
}

// NewVocabulary seeds the 256 byte tokens and then, in order, the special
// tokens, stopping as soon as the vocabulary holds target entries. It
// returns the vocabulary and the number of special tokens added.
func NewVocabulary(target int, specials []string) (*Vocabulary, int) {
	v := &Vocabulary{
		store: newTokenStore(max(target, NumBytes)),
		first: make(map[string]uint32, max(target, NumBytes)),
	}
	for b := range NumBytes {
		v.Add([]byte{byte(b)})
	}
	added := 0
	for _, s := range specials {
		if v.Full(target) {
			break
		}
		v.Add([]byte(s))
		added++
	}
	return v, added
}

// VocabularyFromTokens rebuilds a vocabulary from an id-ordered token list.
func VocabularyFromTokens(tokens [][]byte) *Vocabulary {
	v := &Vocabulary{
		store: newTokenStore(len(tokens)),
		first: make(map[string]uint32, len(tokens)),
	}
	for _, t := range tokens {
		v.Add(t)
	}
	return v
}

// Add appends b under the next id and returns it. b is copied.
func (v *Vocabulary) Add(b []byte) uint32 {
	id := v.store.push(b)
	if _, ok := v.first[string(b)]; !ok {
		v.first[string(b)] = id
	}
	return id
}

// Len returns the number of entries.
func (v *Vocabulary) Len() int { return v.store.Len() }

// Full reports whether the vocabulary has reached target entries.
func (v *Vocabulary) Full(target int) bool { return v.Len() >= target }

// Bytes returns a copy of the bytes for id.
func (v *Vocabulary) Bytes(id uint32) ([]byte, bool) {
	var out []byte
	if !v.store.AppendInto(&out, id) {
		return nil, false
	}
	if out == nil {
		out = []byte{}
	}
	return out, true
}

// ID returns the lowest id whose bytes equal b.
func (v *Vocabulary) ID(b []byte) (uint32, bool) {
	id, ok := v.first[string(b)]
	return id, ok
}

// Tokens returns copies of all entries in id order.
func (v *Vocabulary) Tokens() [][]byte {
	out := make([][]byte, v.Len())
	for i := range out {
		out[i] = []byte{}
		v.store.AppendInto(&out[i], uint32(i))
	}
	return out
}

// Map returns the vocabulary as an id to bytes map.
func (v *Vocabulary) Map() map[uint32][]byte {
	out := make(map[uint32][]byte, v.Len())
	for i, b := range v.Tokens() {
		out[uint32(i)] = b
	}
	return out
}
