package sink

import "github.com/loopback-audio/sinkengine/internal/membuf"

// LatencyUnset is the sentinel RequestedLatency returns when an input has
// no latency preference.
const LatencyUnset int64 = -1

// Input is the external per-stream source the sink pulls audio from. It
// is deliberately out of this module's scope per spec.md §1 — only its
// contract is stated here, consumed by the render pipeline, the rewind
// protocol, and the state machine's suspend fan-out.
type Input interface {
	// ID uniquely identifies the input within its owning sink's render
	// map.
	ID() int

	// Peek asks for up to length frames of audio. It returns the chunk
	// and the input's own volume at the time of the call; failure means
	// "skip this input for this pass."
	Peek(length int) (*membuf.Block, CVolume, error)
	// Drop commits a prior Peek, advancing the input by length frames.
	Drop(length int)

	// ProcessRewind propagates a speculative-undo of nbytes already
	// rendered.
	ProcessRewind(nbytes int)
	// UpdateMaxRewind informs the input of the sink's rewind buffer cap.
	UpdateMaxRewind(n int)

	// Attach/Detach bracket the input's residency in one sink's render
	// map.
	Attach()
	Detach()
	// Suspend is invoked on every input when the sink crosses the
	// SUSPENDED/OPENED boundary.
	Suspend(bool)
	// Kill is invoked on every still-attached input during Unlink.
	Kill()

	// RequestedLatency returns the input's preferred latency in
	// microseconds, or (LatencyUnset, false) for "no preference."
	RequestedLatency() (usec int64, ok bool)
	// Corked reports whether the input is attached but not producing.
	Corked() bool
	// Priority orders the control-thread roster for introspection;
	// inputs with no opinion return 0 (see SPEC_FULL.md supplemented
	// feature 3).
	Priority() int
}

// ghostInput is the degenerate input installed by the move protocol
// (move.go) in place of a real input being moved between sinks: it
// replays a frozen queue of chunks rather than generating new audio,
// satisfying the same Peek/Drop contract as any other Input. Modeled as
// one variant of the Input sum type per spec.md §9's design note.
type ghostInput struct {
	id     int
	queue  []*membuf.Block
	pos    int // offset consumed within queue[0]
	volume CVolume
}

func newGhostInput(id int, queue []*membuf.Block, volume CVolume) *ghostInput {
	return &ghostInput{id: id, queue: queue, volume: volume}
}

func (g *ghostInput) ID() int { return g.id }

// Peek returns up to length frames from the head of the queue. Once the
// queue is drained, it reports an error so the render pass skips it. A
// drained ghost is not removed from the roster automatically; it stays
// attached until it is detached or its sink is unlinked.
func (g *ghostInput) Peek(length int) (*membuf.Block, CVolume, error) {
	for len(g.queue) > 0 && g.pos >= g.queue[0].Len() {
		g.queue[0].Unref()
		g.queue = g.queue[1:]
		g.pos = 0
	}
	if len(g.queue) == 0 {
		return nil, nil, errGhostDrained
	}
	head := g.queue[0]
	remaining := head.Len() - g.pos
	if length > remaining {
		length = remaining
	}
	return head.Slice(g.pos, g.pos+length), g.volume, nil
}

func (g *ghostInput) Drop(length int) {
	g.pos += length
	for len(g.queue) > 0 && g.pos >= g.queue[0].Len() {
		g.queue[0].Unref()
		g.queue = g.queue[1:]
		g.pos = 0
	}
}

// Drained reports whether the ghost's queue has been fully replayed.
// BeginMove uses it to kill a ghost that starts out empty instead of
// attaching it; nothing reaps a ghost that drains later.
func (g *ghostInput) Drained() bool {
	return len(g.queue) == 0
}

func (g *ghostInput) ProcessRewind(int)         {}
func (g *ghostInput) UpdateMaxRewind(int)       {}
func (g *ghostInput) Attach()                   {}
func (g *ghostInput) Detach()                   {}
func (g *ghostInput) Suspend(bool)              {}
func (g *ghostInput) Kill() {
	for _, c := range g.queue {
		c.Unref()
	}
	g.queue = nil
}
func (g *ghostInput) RequestedLatency() (int64, bool) { return LatencyUnset, false }
func (g *ghostInput) Corked() bool                    { return false }
func (g *ghostInput) Priority() int                   { return 0 }
