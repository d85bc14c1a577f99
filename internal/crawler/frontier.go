package crawler

import "sync"

// frontierEntry is a pending fetch. Fallback-eligibility flags are
// captured once at discovery time and carried unchanged through retry
// re-enqueues.
type frontierEntry struct {
	url                 string
	attempts            int
	canFallbackToHTTP   bool
	canFallbackToNoPort bool
	isSitemap           bool
}

// frontier is an unbounded work queue with a monotonically tracked
// outstanding count: items waiting plus items currently being
// processed by a worker. It is closed exactly once, the instant
// outstanding returns to zero, which can only happen after every
// worker has finished producing whatever re-enqueues its processing
// yielded. No polling sleep is required: pop blocks on a condition
// variable until either work arrives or the frontier closes.
type frontier struct {
	mu          sync.Mutex
	cond        *sync.Cond
	items       []*frontierEntry
	outstanding int
	closed      bool
}

func newFrontier() *frontier {
	f := &frontier{}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// push adds an entry and counts it against outstanding work.
func (f *frontier) push(e *frontierEntry) {
	f.mu.Lock()
	f.items = append(f.items, e)
	f.outstanding++
	f.mu.Unlock()
	f.cond.Broadcast()
}

// pop blocks until an entry is available or the frontier has closed.
func (f *frontier) pop() (*frontierEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for len(f.items) == 0 && !f.closed {
		f.cond.Wait()
	}
	if len(f.items) == 0 {
		return nil, false
	}
	e := f.items[0]
	f.items = f.items[1:]
	return e, true
}

// finish marks one previously popped entry as fully processed
// (including any re-enqueue it performed). When outstanding work
// drops to zero the frontier closes and every blocked worker wakes.
func (f *frontier) finish() {
	f.mu.Lock()
	f.outstanding--
	if f.outstanding == 0 {
		f.closed = true
	}
	f.mu.Unlock()
	f.cond.Broadcast()
}
