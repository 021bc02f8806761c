package sink

import (
	"testing"

	"pipelined.dev/pipe/mutable"
	"pipelined.dev/signal"

	"github.com/loopback-audio/sinkengine/internal/membuf"
)

// mutableContextForTest is a zero-value mutable.Context, sufficient for
// Source/Sink allocator funcs that never schedule a mutation during a
// test (none of this package's allocators do).
func mutableContextForTest() mutable.Context {
	return mutable.Context{}
}

// newFloating allocates a fixed-length, fixed-channel buffer for tests, the
// same signal.Allocator shape the teacher's asset.go used for its growing
// sink buffers.
func newFloating(channels, length int) signal.Floating {
	return signal.Allocator{Channels: channels, Capacity: length, Length: length}.Float64()
}

// fill writes a constant value into every sample of buf.
func fill(buf signal.Floating, v float64) signal.Floating {
	for i := 0; i < buf.Len()*buf.Channels(); i++ {
		buf.SetSample(i, v)
	}
	return buf
}

// ramp writes an increasing sequence 0, 1, 2, ... into buf (ignoring
// channel boundaries, for simple equality assertions against mixed output).
func ramp(buf signal.Floating) signal.Floating {
	for i := 0; i < buf.Len()*buf.Channels(); i++ {
		buf.SetSample(i, float64(i))
	}
	return buf
}

// samples flattens buf into a []float64 for easy comparison in assertions.
func samples(buf signal.Floating) []float64 {
	out := make([]float64, buf.Len()*buf.Channels())
	for i := range out {
		out[i] = buf.Sample(i)
	}
	return out
}

// fakeInput is a minimal, fully scriptable Input used across this
// package's tests. Each Peek call returns the next entry queued in chunks
// (or errGhostDrained if exhausted), recording every Drop/lifecycle call
// it receives for assertions.
type fakeInput struct {
	id     int
	volume CVolume

	chunks []signal.Floating // remaining canned responses, consumed front-to-back
	peekFn func(length int) (signal.Floating, error)

	dropped  int
	peeked   int
	attached bool
	detached bool
	killed   bool
	suspends []bool
	rewinds  []int
	maxRewind int

	latency    int64
	latencyOK  bool
	corked     bool
	priority   int
}

func newFakeInput(id int) *fakeInput {
	return &fakeInput{id: id, volume: UnitVolume(2), latencyOK: false}
}

func (f *fakeInput) ID() int { return f.id }

func (f *fakeInput) Peek(length int) (*membuf.Block, CVolume, error) {
	f.peeked++
	if f.peekFn != nil {
		buf, err := f.peekFn(length)
		if err != nil {
			return nil, nil, err
		}
		return membuf.New(buf, nil), f.volume, nil
	}
	if len(f.chunks) == 0 {
		return nil, nil, errGhostDrained
	}
	buf := f.chunks[0]
	f.chunks = f.chunks[1:]
	if buf.Len() > length {
		buf = buf.Slice(0, length)
	}
	return membuf.New(buf, nil), f.volume, nil
}

func (f *fakeInput) Drop(length int)           { f.dropped += length }
func (f *fakeInput) ProcessRewind(nbytes int)  { f.rewinds = append(f.rewinds, nbytes) }
func (f *fakeInput) UpdateMaxRewind(n int)     { f.maxRewind = n }
func (f *fakeInput) Attach()                  { f.attached = true }
func (f *fakeInput) Detach()                  { f.detached = true }
func (f *fakeInput) Suspend(s bool)           { f.suspends = append(f.suspends, s) }
func (f *fakeInput) Kill()                    { f.killed = true }
func (f *fakeInput) RequestedLatency() (int64, bool) { return f.latency, f.latencyOK }
func (f *fakeInput) Corked() bool             { return f.corked }
func (f *fakeInput) Priority() int            { return f.priority }

// newTestSink builds a sink with a mailbox installed and a background
// drain goroutine is deliberately NOT started: tests call s.drainMailbox()
// themselves from the "render thread" (the test goroutine), matching how
// a real driver calls render()/drainMailbox() from its own thread.
func newTestSink(t *testing.T, channels int) *Sink {
	t.Helper()
	s, err := New(NewData{
		Name:         "test",
		Rate:         48000,
		Channels:     channels,
		ChannelMap:   make([]string, channels),
		BlockSizeMax: 4096,
	})
	if err != nil {
		panic(err)
	}
	s.InstallMailbox(16)
	var putErr error
	withDrain(s, func() { putErr = s.Put() })
	if putErr != nil {
		panic(putErr)
	}
	return s
}

// suspend runs s.Suspend(v) through the real synchronous SET_STATE path.
func suspend(s *Sink, v bool) error {
	var err error
	withDrain(s, func() { err = s.Suspend(v) })
	return err
}

// unlink runs s.Unlink() through the real synchronous SET_STATE path.
func unlink(s *Sink) error {
	var err error
	withDrain(s, func() { err = s.Unlink() })
	return err
}

// withDrain runs fn (a control-thread call that sends one or more
// synchronous mailbox messages, e.g. AttachInput or SetVolume) on its own
// goroutine while the calling goroutine plays render thread, repeatedly
// draining the mailbox until fn returns. This lets tests exercise the real
// control/render split — mailbox.send and drainMailbox exactly as
// production code uses them — without running an actual driver loop.
func withDrain(s *Sink, fn func()) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	for {
		select {
		case <-done:
			return
		default:
			s.drainMailbox()
		}
	}
}

// withDrainMany is withDrain for calls (BeginMove, above all) that send
// synchronous messages to more than one sink's mailbox — both must be
// drained concurrently or the second sink's render thread never answers.
func withDrainMany(sinks []*Sink, fn func()) {
	done := make(chan struct{})
	go func() {
		fn()
		close(done)
	}()
	for {
		select {
		case <-done:
			return
		default:
			for _, s := range sinks {
				s.drainMailbox()
			}
		}
	}
}

// attach installs input on a test sink through the real AttachInput path,
// draining the mailbox on the caller's goroutine until the synchronous
// ADD_INPUT (and the UpdateStatus/SET_STATE that follows it) completes.
func attach(s *Sink, input Input) int {
	var id int
	withDrain(s, func() { id = s.AttachInput(input) })
	return id
}

// detach removes input id through the real DetachInput path.
func detach(s *Sink, id int) {
	withDrain(s, func() { s.DetachInput(id) })
}
