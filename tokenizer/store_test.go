package tokenizer

import "testing"

func TestHeapStoreAppendIntoSmallVocab(t *testing.T) {
	store := newTokenStore(2)
	if id := store.push([]byte("hi")); id != 0 {
		t.Fatalf("first push id = %d, want 0", id)
	}
	if id := store.push([]byte("bye")); id != 1 {
		t.Fatalf("second push id = %d, want 1", id)
	}

	var dst []byte
	if ok := store.AppendInto(&dst, 0); !ok {
		t.Fatalf("expected id 0 to be present")
	}
	if got := string(dst); got != "hi" {
		t.Fatalf("unexpected bytes after first append: %q", got)
	}
	if ok := store.AppendInto(&dst, 1); !ok {
		t.Fatalf("expected id 1 to be present")
	}
	if got := string(dst); got != "hibye" {
		t.Fatalf("unexpected bytes after second append: %q", got)
	}
	if ok := store.AppendInto(&dst, 2); ok {
		t.Fatalf("unexpected success for missing id")
	}
	if store.Len() != 2 {
		t.Fatalf("Len = %d, want 2", store.Len())
	}
}

func TestHeapStorePushCopies(t *testing.T) {
	store := newTokenStore(0)
	b := []byte("abc")
	id := store.push(b)
	b[0] = 'x'
	var dst []byte
	store.AppendInto(&dst, id)
	if string(dst) != "abc" {
		t.Fatalf("stored bytes changed with caller slice: %q", dst)
	}
}
