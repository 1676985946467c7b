package tokenizer

// Public thin wrappers to keep package boundary small.

// Encoder is an alias exposing exported methods defined on coreBPE.
type Encoder = coreBPE

// NewEncoder creates an encoder for a trained vocabulary. Every merge result
// and special token must be present in vocab. A nil seg selects the GPT-2
// segmenter used in training.
func NewEncoder(vocab *Vocabulary, merges []Merge, specials []string, seg Segmenter) (*Encoder, error) {
	return newCoreBPE(vocab, merges, specials, seg)
}
