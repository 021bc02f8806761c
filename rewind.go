package sink

// ProcessRewind implements spec.md §4.5's commit step: propagate an
// nbytes rewind to every attached input and, if opened, to the monitor.
// Must only be called from the render thread (typically by the driver's
// callback, reacting to thread_info.rewind_nbytes).
//
// An input still carrying ignoreRewind from its ADD_INPUT handshake has
// nothing previously delivered to undo, so it is skipped for exactly this
// one call and the flag is cleared — every later ProcessRewind call
// reaches it normally.
func (s *Sink) ProcessRewind(nbytes int) {
	s.render.forEach(func(e *rosterEntry) {
		if e.ignoreRewind {
			e.ignoreRewind = false
			return
		}
		e.input.ProcessRewind(nbytes)
	})
	if s.monitor != nil && s.monitor.opened() {
		s.monitor.processRewind(nbytes)
	}
}

// requestRewind is request_rewind(nbytes) restricted to the render
// thread: nbytes defaults to max_rewind when zero, is clamped to
// max_rewind, and is only stored — and the driver only notified — if it
// exceeds the currently pending amount (SPEC_FULL.md supplemented
// feature 6: redundant driver calls are avoided when the new value does
// not exceed the pending one).
func (s *Sink) requestRewind(nbytes int) {
	if nbytes == 0 {
		nbytes = s.thread.maxRewind
	}
	if nbytes > s.thread.maxRewind {
		nbytes = s.thread.maxRewind
	}
	if nbytes <= s.thread.pendingRewind {
		return
	}
	s.thread.pendingRewind = nbytes
	if s.driver.RequestRewind != nil {
		s.driver.RequestRewind(s)
	}
}

// requestRewindLocked is requestRewind's name inside mailbox handlers,
// which already run on the render thread; kept as a thin alias so
// call sites read like the message table in spec.md §4.8.
func (s *Sink) requestRewindLocked(nbytes int) {
	s.requestRewind(nbytes)
}

// pendingRewind returns the currently accumulated, not-yet-committed
// rewind byte count the driver is expected to honor.
func (s *Sink) pendingRewind() int {
	return s.thread.pendingRewind
}

// clearPendingRewind resets the pending count; render() calls this at the
// top of every pass.
func (s *Sink) clearPendingRewind() {
	s.thread.pendingRewind = 0
}

// SetMaxRewind broadcasts a new rewind buffer cap to every input and the
// monitor.
func (s *Sink) SetMaxRewind(n int) {
	s.maxRewind = n
	s.mailbox.post(msgSetMaxRewind, n)
}
