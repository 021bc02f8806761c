package sink

// rosterEntry is the bookkeeping record for one input attached to a
// sink. AttachInput hands the same *rosterEntry to the control-thread
// ordered index and the render-thread keyed map, so both views point at
// one record. syncPrev/syncNext form the doubly linked list across a
// synchronized input group (spec.md §4.3).
type rosterEntry struct {
	id           int
	input        Input
	syncPrev     int // id of the previous synced sibling, -1 if none
	syncNext     int // id of the next synced sibling, -1 if none
	ignoreRewind bool
}

// controlRoster is the control thread's ordered view of a sink's inputs,
// used for introspection. Only the control thread may read or mutate it.
type controlRoster struct {
	ordered []*rosterEntry
	byID    map[int]*rosterEntry
	nextID  int
}

func newControlRoster() *controlRoster {
	return &controlRoster{byID: make(map[int]*rosterEntry)}
}

// add appends a new entry with a freshly assigned, stable id and returns
// it; the caller still has to deliver it to the render thread via
// ADD_INPUT before it is actually mixed.
func (c *controlRoster) add(input Input) *rosterEntry {
	e := &rosterEntry{id: c.nextID, input: input, syncPrev: -1, syncNext: -1}
	c.nextID++
	c.ordered = append(c.ordered, e)
	c.byID[e.id] = e
	return e
}

// remove drops an entry by id; it is a control-thread-only bookkeeping
// change and does not itself touch the render thread's map.
func (c *controlRoster) remove(id int) {
	e, ok := c.byID[id]
	if !ok {
		return
	}
	delete(c.byID, id)
	for i, x := range c.ordered {
		if x == e {
			c.ordered = append(c.ordered[:i], c.ordered[i+1:]...)
			break
		}
	}
}

func (c *controlRoster) get(id int) (*rosterEntry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

func (c *controlRoster) len() int {
	return len(c.ordered)
}

// Snapshot returns the attached inputs ordered by descending Priority,
// ties broken by attach order (SPEC_FULL.md supplemented feature 3).
func (c *controlRoster) Snapshot() []Input {
	ordered := make([]*rosterEntry, len(c.ordered))
	copy(ordered, c.ordered)
	// stable insertion sort by priority: rosters are small (spec.md caps
	// a mix pass at MaxMixChannels), so this is cheap and simple.
	for i := 1; i < len(ordered); i++ {
		for j := i; j > 0 && ordered[j].input.Priority() > ordered[j-1].input.Priority(); j-- {
			ordered[j], ordered[j-1] = ordered[j-1], ordered[j]
		}
	}
	out := make([]Input, len(ordered))
	for i, e := range ordered {
		out[i] = e.input
	}
	return out
}

// renderRoster is the render thread's keyed view, the only structure the
// mix loop reads. Only the render thread may read or mutate it; the sole
// mutators are the mailbox's ADD_INPUT/REMOVE_INPUT/move handlers.
type renderRoster struct {
	byID map[int]*rosterEntry
}

func newRenderRoster() *renderRoster {
	return &renderRoster{byID: make(map[int]*rosterEntry)}
}

func (r *renderRoster) get(id int) (*rosterEntry, bool) {
	e, ok := r.byID[id]
	return e, ok
}

func (r *renderRoster) put(e *rosterEntry) {
	r.byID[e.id] = e
}

func (r *renderRoster) delete(id int) {
	delete(r.byID, id)
}

func (r *renderRoster) len() int {
	return len(r.byID)
}

// forEach iterates the render map; order is unspecified, matching
// spec.md's characterization of thread_info.inputs as a keyed map rather
// than a sequence.
func (r *renderRoster) forEach(fn func(*rosterEntry)) {
	for _, e := range r.byID {
		fn(e)
	}
}

// AttachInput registers a new input with the sink: it is appended to the
// control-thread roster immediately, then handed to the render thread via
// a synchronous ADD_INPUT message so the caller can rely on the next mix
// pass already including it.
func (s *Sink) AttachInput(input Input) int {
	e := s.control.add(input)
	e.ignoreRewind = true
	if _, err := s.mailbox.send(msgAddInput, e); err != nil {
		s.control.remove(e.id)
		return -1
	}
	s.UpdateStatus()
	return e.id
}

// DetachInput removes an input from the sink: the control-thread roster
// is shrunk first, then REMOVE_INPUT is sent synchronously to the render
// thread.
func (s *Sink) DetachInput(id int) {
	s.control.remove(id)
	s.mailbox.send(msgRemoveInput, id)
	s.UpdateStatus()
}

// SyncGroup links a and b (by id) as synchronized siblings by setting
// syncNext/syncPrev on their entries, which the render map shares.
func (s *Sink) SyncGroup(a, b int) {
	ea, ok1 := s.control.get(a)
	eb, ok2 := s.control.get(b)
	if !ok1 || !ok2 {
		return
	}
	ea.syncNext = b
	eb.syncPrev = a
}

// UsedBy returns |inputs| − n_corked.
func (s *Sink) UsedBy() int {
	used := 0
	for _, e := range s.control.ordered {
		if !e.input.Corked() {
			used++
		}
	}
	return used
}

// LinkedBy returns |inputs| plus the number of monitor consumers, an
// upper bound on UsedBy.
func (s *Sink) LinkedBy() int {
	linked := s.control.len()
	if s.monitor != nil {
		s.monitor.mu.Lock()
		linked += len(s.monitor.consumers)
		s.monitor.mu.Unlock()
	}
	return linked
}

// handleAddInput is the render-thread side of ADD_INPUT: insert into the
// render map, propagate max_rewind, invoke input.Attach, invalidate
// latency, and request a rewind with nbytes 0 (which requestRewind turns
// into max_rewind) so the next mix pass remixes to include the new input;
// the entry's ignoreRewind flag keeps that rewind from reaching the new
// input itself.
func (s *Sink) handleAddInput(e *rosterEntry) {
	s.render.put(e)
	e.input.UpdateMaxRewind(s.thread.maxRewind)
	e.input.Attach()
	s.invalidateRequestedLatency()
	s.requestRewindLocked(0)
}

// handleRemoveInput is the render-thread side of REMOVE_INPUT: detach,
// drop from the map, invalidate latency, request a rewind.
//
// spec.md's Open Questions flags that the original asserts
// !sync_prev && !sync_next before zeroing them, making the zeroing dead
// code. This implementation takes the permissive branch: synced inputs
// may be removed, and removal simply drops the entry — there is nothing
// left to zero, since syncPrev/syncNext live on the entry being deleted.
func (s *Sink) handleRemoveInput(id int) {
	e, ok := s.render.get(id)
	if !ok {
		return
	}
	e.input.Detach()
	s.render.delete(id)
	s.invalidateRequestedLatency()
	s.requestRewindLocked(0)
}
