package renderer

import "sync"

// Scheduler hands a callback to the host's next frame. The returned
// cancel drops the callback if the frame has not run yet; calling it
// after the frame ran, or more than once, is harmless.
type Scheduler interface {
	RequestFrame(fn func()) (cancel func())
}

type frameCallback struct {
	fn        func()
	cancelled bool
}

// FrameQueue is a Scheduler pumped explicitly: the windowed host drains
// it once per swap, and tests drain it by hand to step frames
// deterministically.
type FrameQueue struct {
	mu   sync.Mutex
	next []*frameCallback
}

func NewFrameQueue() *FrameQueue {
	return &FrameQueue{}
}

func (q *FrameQueue) RequestFrame(fn func()) func() {
	cb := &frameCallback{fn: fn}
	q.mu.Lock()
	q.next = append(q.next, cb)
	q.mu.Unlock()
	return func() {
		q.mu.Lock()
		cb.cancelled = true
		q.mu.Unlock()
	}
}

// RunFrame runs the callbacks queued so far. Callbacks scheduled while
// running (a playing session re-arming itself) land in the next frame.
func (q *FrameQueue) RunFrame() {
	q.mu.Lock()
	batch := q.next
	q.next = nil
	q.mu.Unlock()

	for _, cb := range batch {
		q.mu.Lock()
		cancelled := cb.cancelled
		q.mu.Unlock()
		if !cancelled {
			cb.fn()
		}
	}
}

// Pending reports the number of callbacks waiting for the next frame,
// including cancelled ones not yet discarded.
func (q *FrameQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.next)
}

var _ Scheduler = (*FrameQueue)(nil)
