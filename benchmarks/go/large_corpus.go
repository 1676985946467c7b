package benchmarks

import (
	"fmt"
	"strings"
)

// EndOfText separates documents in LargeCorpus.
const EndOfText = "<|endoftext|>"

// LargeCorpus constructs a synthetic multi-document corpus with sizeable
// documents to exercise the chunked, parallel pre-tokenization path.
func LargeCorpus() string {
	bigBlock := strings.Repeat("Lorem ipsum dolor sit amet, consectetur adipiscing elit. Vestibulum vulputate. ", 200)
	var sb strings.Builder
	for i := 0; i < 64; i++ {
		fmt.Fprintf(&sb, "Document %d: %s\n\n", i, bigBlock)
		fmt.Fprintf(&sb, "It's day %d; we've seen %d widgets and they're all lower than %d.\n", i, i*37, i*101)
		sb.WriteString("Unicode text: naïve café, 東京タワー, Ünïcödé ßtraße.\t\n")
		sb.WriteString(EndOfText)
	}
	return sb.String()
}
