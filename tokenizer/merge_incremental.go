package tokenizer

import (
	heap "github.com/emirpasic/gods/v2/trees/binaryheap"
)

type pairCount struct {
	p     pair
	count int
}

// incrementalEngine keeps pair counts up to date across steps. Only words
// containing the merged pair are rewritten, and the best pair comes from a
// heap whose stale entries are skipped on pop.
type incrementalEngine struct {
	syms   *symbols
	words  []word
	counts map[pair]int
	where  map[pair]map[int]struct{} // may hold words that lost the pair
	queue  *heap.Heap[pairCount]
}

func newIncrementalEngine(counts Counts) *incrementalEngine {
	e := &incrementalEngine{
		syms:   newSymbols(),
		words:  newWords(counts),
		counts: make(map[pair]int),
		where:  make(map[pair]map[int]struct{}),
	}
	e.queue = heap.NewWith(func(x, y pairCount) int {
		switch {
		case x.p == y.p && x.count == y.count:
			return 0
		case e.syms.better(x.p, x.count, y.p, y.count):
			return -1
		default:
			return 1
		}
	})
	for i, w := range e.words {
		for j := 0; j+1 < len(w.syms); j++ {
			p := pair{w.syms[j], w.syms[j+1]}
			e.counts[p] += w.count
			e.index(p, i)
		}
	}
	for p, c := range e.counts {
		e.queue.Push(pairCount{p, c})
	}
	return e
}

func (e *incrementalEngine) index(p pair, word int) {
	ws, ok := e.where[p]
	if !ok {
		ws = make(map[int]struct{})
		e.where[p] = ws
	}
	ws[word] = struct{}{}
}

// pop returns the best live pair.
func (e *incrementalEngine) pop() (pairCount, bool) {
	for !e.queue.Empty() {
		top, _ := e.queue.Pop()
		if c, ok := e.counts[top.p]; ok && c == top.count && c > 0 {
			return top, true
		}
	}
	return pairCount{}, false
}

func (e *incrementalEngine) Step() (Merge, int, bool) {
	best, ok := e.pop()
	if !ok {
		return Merge{}, 0, false
	}
	p := best.p
	n := e.syms.intern(e.syms.bytes[p.a] + e.syms.bytes[p.b])

	changed := make(map[pair]struct{})
	for i := range e.where[p] {
		w := &e.words[i]
		merged, ok := mergeWord(w.syms, p, n)
		if !ok {
			continue
		}
		for j := 0; j+1 < len(w.syms); j++ {
			q := pair{w.syms[j], w.syms[j+1]}
			e.counts[q] -= w.count
			changed[q] = struct{}{}
		}
		for j := 0; j+1 < len(merged); j++ {
			q := pair{merged[j], merged[j+1]}
			e.counts[q] += w.count
			changed[q] = struct{}{}
			e.index(q, i)
		}
		w.syms = merged
	}
	delete(e.where, p)

	for q := range changed {
		c := e.counts[q]
		if c <= 0 {
			delete(e.counts, q)
			delete(e.where, q)
			continue
		}
		e.queue.Push(pairCount{q, c})
	}
	return e.syms.merge(p), best.count, true
}
