package vsearch

import (
	"sync"
	"testing"
)

// TestPoolProcessesEveryQueryOnce runs more queries than workers and
// checks that each query is processed and emitted exactly once, with no
// concurrent Emit calls.
func TestPoolProcessesEveryQueryOnce(t *testing.T) {
	const n = 100
	queries := make([]*Record, n)
	for i := range queries {
		queries[i] = &Record{Header: []byte("q"), Sequence: []byte{1}, ordinal: i}
	}

	var mu sync.Mutex
	processed := make(map[int]int)
	emitted := make(map[int]int)
	inEmit := false

	p := &Pool{
		Workers: 4,
		Process: func(worker int, q *Record) []*Hit {
			mu.Lock()
			processed[q.Ordinal()]++
			mu.Unlock()
			return []*Hit{{Target: q.Ordinal()}}
		},
		Emit: func(q *Record, hits []*Hit) {
			// Emit runs under the pool's output mutex, so overlapping
			// calls here mean the mutex discipline is broken.
			if inEmit {
				t.Errorf("concurrent Emit calls observed")
			}
			inEmit = true
			defer func() { inEmit = false }()
			emitted[q.Ordinal()] += len(hits)
		},
		Progress: &ProgressBar{Label: "test", Total: n},
	}
	p.Run(queries)

	for i := 0; i < n; i++ {
		if processed[i] != 1 {
			t.Errorf("query %d processed %d times, want 1", i, processed[i])
		}
		if emitted[i] != 1 {
			t.Errorf("query %d emitted %d hits, want 1", i, emitted[i])
		}
	}
	if got := p.Progress.Current; got != n {
		t.Errorf("progress counter = %d, want %d", got, n)
	}
}

// TestPoolSingleWorkerPreservesOrder: with one worker, queries are pulled
// and emitted strictly in input order.
func TestPoolSingleWorkerPreservesOrder(t *testing.T) {
	const n = 20
	queries := make([]*Record, n)
	for i := range queries {
		queries[i] = &Record{Header: []byte("q"), Sequence: []byte{1}, ordinal: i}
	}

	var order []int
	p := &Pool{
		Workers: 1,
		Process: func(worker int, q *Record) []*Hit { return nil },
		Emit: func(q *Record, hits []*Hit) {
			order = append(order, q.Ordinal())
		},
	}
	p.Run(queries)

	if len(order) != n {
		t.Fatalf("emitted %d queries, want %d", len(order), n)
	}
	for i, got := range order {
		if got != i {
			t.Fatalf("emission order %v is not input order", order)
		}
	}
}
