// Package bytebpe trains byte-level Byte-Pair-Encoding vocabularies.
//
// A corpus is cut into chunks at special-token boundaries, each chunk is
// pre-tokenized concurrently, and the merged pre-token frequencies drive an
// iterative merge loop that grows the vocabulary to a target size. The
// resulting vocabulary and ordered merge list feed tokenizer.Encoder.
package bytebpe
