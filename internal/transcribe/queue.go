package transcribe

import "sync"

// fifo is an unbounded, mutex-protected FIFO of recognized text.
//
// It is the single synchronization point between the engine's callback
// goroutine (the only pusher) and the transfer goroutine (the only popper).
// Neither side ever blocks on it.
type fifo struct {
	mu    sync.Mutex
	items []string
}

func newFIFO() *fifo {
	return &fifo{}
}

// push appends text at the tail.
func (q *fifo) push(text string) {
	q.mu.Lock()
	q.items = append(q.items, text)
	q.mu.Unlock()
}

// tryPop removes and returns the head, or ("", false) when empty.
func (q *fifo) tryPop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return "", false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// len reports the queued item count.
func (q *fifo) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
