package tokenizer

// Counts maps a pre-token's bytes to its number of occurrences. Pre-tokens
// start out as sequences of single-byte tokens, so the byte string is the key.
type Counts map[string]int

// Add increments the count for key by n, inserting it when absent.
func (c Counts) Add(key string, n int) {
	c[key] += n
}

// Merge adds every count in other into c.
func (c Counts) Merge(other Counts) {
	for k, n := range other {
		c[k] += n
	}
}

// Total returns the number of pre-token occurrences.
func (c Counts) Total() int {
	var total int
	for _, n := range c {
		total += n
	}
	return total
}

// Accumulate sums tables into a new Counts. Inputs are not modified; the
// result does not depend on their order.
func Accumulate(tables ...Counts) Counts {
	size := 0
	for _, t := range tables {
		size = max(size, len(t))
	}
	out := make(Counts, size)
	for _, t := range tables {
		out.Merge(t)
	}
	return out
}
