package collection

import (
	"sync"
)

// writeQueue runs store writes outside the manager lock. Writes are keyed by
// what they persist; a newer write for a key replaces one still waiting, and
// keys drain in the order they were first queued. At most one drain runs at a
// time, so writes for the same key land in mutation order.
type writeQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending map[string]func()
	order   []string
	running bool
}

func newWriteQueue() *writeQueue {
	q := &writeQueue{pending: make(map[string]func())}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// submit queues write under key. With background set, a drain goroutine is
// started if none is running; otherwise the caller is expected to flush.
func (q *writeQueue) submit(key string, write func(), background bool) {
	q.mu.Lock()
	if _, queued := q.pending[key]; !queued {
		q.order = append(q.order, key)
	}
	q.pending[key] = write
	start := background && !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.drain()
	}
}

// flush returns once every write queued before the call has landed. If no
// drain is running the queued writes run on the calling goroutine.
func (q *writeQueue) flush() {
	q.mu.Lock()
	for q.running {
		q.cond.Wait()
	}
	if len(q.order) == 0 {
		q.mu.Unlock()
		return
	}
	q.running = true
	q.mu.Unlock()

	q.drain()
}

func (q *writeQueue) drain() {
	for {
		q.mu.Lock()
		if len(q.order) == 0 {
			q.running = false
			q.cond.Broadcast()
			q.mu.Unlock()
			return
		}
		key := q.order[0]
		q.order = q.order[1:]
		write := q.pending[key]
		delete(q.pending, key)
		q.mu.Unlock()

		write()
	}
}
