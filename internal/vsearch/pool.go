package vsearch

import "sync"

// Pool runs a fixed number of search worker goroutines over a shared
// query slice, coordinated by exactly two mutexes: one guarding the
// shared work-queue cursor (workers pull rather than being pushed to)
// and one guarding result emission (Emit, typically a single shared
// output writer, never sees concurrent calls). No channels or condition
// variables are involved; workers exit when the cursor runs off the end
// of the queue.
type Pool struct {
	Workers int

	queries []*Record
	next    int
	inputMu sync.Mutex

	outputMu sync.Mutex

	// Process runs in parallel across workers with no lock held; it must
	// not touch shared state outside of what it allocates itself (or
	// per-worker scratch such as the worker's own Driver).
	Process func(worker int, q *Record) []*Hit
	// Emit is called with outputMu held, once per completed query, in
	// whatever order workers finish (not necessarily query order).
	Emit func(q *Record, hits []*Hit)

	Progress *ProgressBar
}

// Run processes every query in queries using Workers goroutines, calling
// Process on each worker's own goroutine and Emit with mutual exclusion.
// Run blocks until every query has been processed.
func (p *Pool) Run(queries []*Record) {
	p.queries = queries
	p.next = 0

	n := p.Workers
	if n < 1 {
		n = 1
	}
	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func(worker int) {
			defer wg.Done()
			p.runWorker(worker)
		}(w)
	}
	wg.Wait()
}

func (p *Pool) runWorker(worker int) {
	for {
		p.inputMu.Lock()
		if p.next >= len(p.queries) {
			p.inputMu.Unlock()
			return
		}
		q := p.queries[p.next]
		p.next++
		p.inputMu.Unlock()

		hits := p.Process(worker, q)

		p.outputMu.Lock()
		p.Emit(q, hits)
		if p.Progress != nil {
			p.Progress.Increment()
		}
		p.outputMu.Unlock()
	}
}
