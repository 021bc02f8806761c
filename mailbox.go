package sink

import (
	"context"
	"time"

	"github.com/loopback-audio/sinkengine/internal/semaphore"
)

// msgCode enumerates the messages a sink accepts on its mailbox, per
// spec.md §4.8's catalogue.
type msgCode int

const (
	msgAddInput msgCode = iota
	msgRemoveInput
	msgRemoveInputAndBuffer
	msgSetVolume
	msgSetMute
	msgGetVolume
	msgGetMute
	msgSetState
	msgDetach
	msgAttach
	msgGetRequestedLatency
	msgGetMaxRequest
	msgSetMaxRewind
)

// message is the tagged-variant payload carried on the mailbox. sync vs
// async is a property of reply being non-nil: async messages (SET_VOLUME,
// SET_MUTE, SET_MAX_REWIND) are fire-and-forget; sync messages block the
// sender on reply.
type message struct {
	code    msgCode
	payload any
	reply   chan result
}

type result struct {
	value any
	err   error
}

// mailbox is the cross-thread transport a sink's control side posts to
// and the render thread drains between render passes. It plays the role
// spec.md §1 assigns to the external asynchronous message queue, scoped
// down to exactly the messages one sink accepts.
type mailbox struct {
	queue chan message
	// rendezvous bounds how many synchronous sends may be in flight at
	// once; a burst of control-thread callers otherwise piles up
	// unboundedly many blocked goroutines against one render thread.
	rendezvous semaphore.Semaphore
}

func newMailbox(capacity int) *mailbox {
	return &mailbox{
		queue:      make(chan message, capacity),
		rendezvous: semaphore.New(8),
	}
}

// post enqueues an asynchronous message; the caller does not wait for it
// to be handled.
func (m *mailbox) post(code msgCode, payload any) {
	m.queue <- message{code: code, payload: payload}
}

// send enqueues a synchronous message and blocks until the render thread
// replies, giving up with the context's error if no reply arrives within
// 5 seconds.
func (m *mailbox) send(code msgCode, payload any) (any, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := m.rendezvous.Acquire(ctx); err != nil {
		return nil, err
	}
	defer m.rendezvous.Release()

	reply := make(chan result, 1)
	m.queue <- message{code: code, payload: payload, reply: reply}
	select {
	case r := <-reply:
		return r.value, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// drainMailbox processes every message currently queued, in FIFO order, without
// blocking for new ones — "pulls the mailbox between passes" from
// spec.md §5. It must only be called from the render thread.
func (s *Sink) drainMailbox() {
	for {
		select {
		case m := <-s.mailbox.queue:
			s.handleMessage(m)
		default:
			return
		}
	}
}

// handleMessage dispatches one mailbox message against the render
// thread's state, replying if the message was synchronous.
func (s *Sink) handleMessage(m message) {
	var v any
	var err error
	switch m.code {
	case msgAddInput:
		s.handleAddInput(m.payload.(*rosterEntry))
	case msgRemoveInput:
		s.handleRemoveInput(m.payload.(int))
	case msgRemoveInputAndBuffer:
		v, err = s.handleRemoveInputAndBuffer(m.payload.(*moveInfo))
	case msgSetVolume:
		s.thread.softVolume = m.payload.(CVolume)
		s.requestRewindLocked(0)
	case msgSetMute:
		s.thread.softMuted = m.payload.(bool)
		s.requestRewindLocked(0)
	case msgGetVolume:
		v = s.thread.softVolume.Clone()
	case msgGetMute:
		v = s.thread.softMuted
	case msgSetState:
		s.thread.state = m.payload.(State)
	case msgDetach:
		s.render.forEach(func(e *rosterEntry) { e.input.Detach() })
		if s.monitor != nil {
			s.monitor.detach()
		}
	case msgAttach:
		s.render.forEach(func(e *rosterEntry) { e.input.Attach() })
		if s.monitor != nil {
			s.monitor.attach()
		}
	case msgGetRequestedLatency:
		v = s.getRequestedLatencyWithinThread()
	case msgGetMaxRequest:
		v = s.getMaxRequestWithinThread()
	case msgSetMaxRewind:
		n := m.payload.(int)
		s.thread.maxRewind = n
		s.render.forEach(func(e *rosterEntry) { e.input.UpdateMaxRewind(n) })
		if s.monitor != nil {
			s.monitor.setMaxRewind(n)
		}
	}
	if m.reply != nil {
		m.reply <- result{value: v, err: err}
	}
}
