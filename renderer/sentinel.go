package renderer

// Sentinel is the injected "notify me when my mount point disappears"
// capability. Document hosts can remove a viewer at any time without
// telling the session, and GPU contexts are too scarce to leak, so every
// embedded session should carry one. The windowed host maps it to window
// close; tests fire it by hand.
type Sentinel interface {
	// OnGone registers the callback invoked once when the mount point is
	// removed.
	OnGone(fn func())
	// Close detaches the sentinel. Must be safe to call when already
	// detached.
	Close()
}

// FuncSentinel is a trivial Sentinel driven by its owner calling Gone.
type FuncSentinel struct {
	fn     func()
	closed bool
}

func (s *FuncSentinel) OnGone(fn func()) { s.fn = fn }

// Gone fires the registered callback. Firing after Close is a no-op.
func (s *FuncSentinel) Gone() {
	if !s.closed && s.fn != nil {
		s.fn()
	}
}

func (s *FuncSentinel) Close() {
	s.closed = true
	s.fn = nil
}
