package tokenizer

// tokenStore holds token byte sequences indexed by id.
// Implementations must not let references to internal storage escape.
type tokenStore interface {
	// AppendInto appends the bytes for token id into dst and returns true
	// if the id existed. Returns false when id is unknown.
	AppendInto(dst *[]byte, id uint32) bool
	// Len returns the number of ids held.
	Len() int
	// push copies b in under the next id and returns that id.
	push(b []byte) uint32
}

// Heap-backed token store: one slice per id, append-only.
type heapStore struct {
	arr [][]byte
}

func newTokenStore(capHint int) *heapStore {
	return &heapStore{arr: make([][]byte, 0, capHint)}
}

// push copies b into the store under the next id and returns that id.
func (s *heapStore) push(b []byte) uint32 {
	s.arr = append(s.arr, append([]byte(nil), b...))
	return uint32(len(s.arr) - 1)
}

func (s *heapStore) AppendInto(dst *[]byte, id uint32) bool {
	if int(id) >= len(s.arr) {
		return false
	}
	*dst = append(*dst, s.arr[id]...)
	return true
}

func (s *heapStore) Len() int { return len(s.arr) }
