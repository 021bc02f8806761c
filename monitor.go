package sink

import (
	"io"
	"sync"

	"pipelined.dev/pipe"
	"pipelined.dev/pipe/mutable"
	"pipelined.dev/signal"

	"github.com/loopback-audio/sinkengine/internal/membuf"
)

// monitorConsumer is one subscriber to a sink's monitor source, the
// paired-source side of spec.md §3's sink/monitor coupling. Modeled on
// pipelined-audio's Repeater.Source: each consumer gets its own channel
// fed from the single render-thread broadcast point.
type monitorConsumer struct {
	queue chan *membuf.Block
}

// Monitor is the always-present paired source every sink exposes: every
// mixed chunk the render pipeline produces is also offered to the
// monitor's subscribers, fanned out the way Repeater.Sink feeds
// Repeater.Source.
type Monitor struct {
	mu        sync.Mutex
	name      string
	desc      string
	channels  int
	rate      signal.Frequency
	consumers []*monitorConsumer
	detached  bool
	maxRewind int
}

func newMonitor(name string, channels int, rate signal.Frequency) *Monitor {
	return &Monitor{name: name, desc: "Monitor of " + name, channels: channels, rate: rate}
}

// hasConsumers reports whether any pipeline currently sources from this
// monitor; Skip consults it.
func (m *Monitor) hasConsumers() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.consumers) > 0
}

// opened is hasConsumers further gated by attach/detach: a detached
// monitor (DETACH message) takes no broadcasts even with consumers still
// subscribed. Suspending the sink does not detach it.
func (m *Monitor) opened() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return !m.detached && len(m.consumers) > 0
}

// post broadcasts chunk to every subscriber, taking one reference per
// consumer; a consumer whose queue is full is dropped for this chunk
// rather than applying backpressure to the render thread — a monitor is
// documented in spec.md §4.2 as a best-effort listener, never a
// rendering dependency.
func (m *Monitor) post(chunk *membuf.Block) {
	m.mu.Lock()
	consumers := m.consumers
	m.mu.Unlock()
	for _, c := range consumers {
		ref := chunk.Ref()
		select {
		case c.queue <- ref:
		default:
			ref.Unref()
		}
	}
}

// processRewind is the monitor's half of spec.md §4.5's rewind
// propagation. Chunks already delivered to a monitor consumer cannot be
// recalled from a channel mid-flight, so this is a bookkeeping no-op;
// the consumer simply hears nbytes of audio it should not have, which
// PulseAudio itself accepts for monitor sources (they are not latency-
// critical).
func (m *Monitor) processRewind(nbytes int) {}

func (m *Monitor) setMaxRewind(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxRewind = n
}

func (m *Monitor) attach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = false
}

func (m *Monitor) detach() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detached = true
}

func (m *Monitor) setDescription(d string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.desc = d
}

// Source returns a pipe.SourceAllocatorFunc that subscribes a new
// consumer to the monitor and reads broadcast chunks off it, matching
// SPEC_FULL.md's DOMAIN STACK wiring of pipelined.dev/pipe as the monitor's
// external transport.
func (m *Monitor) Source() pipe.SourceAllocatorFunc {
	return func(mut mutable.Context, bufferSize int) (pipe.Source, error) {
		consumer := &monitorConsumer{queue: make(chan *membuf.Block, 4)}
		m.mu.Lock()
		m.consumers = append(m.consumers, consumer)
		m.mu.Unlock()

		return pipe.Source{
			SourceFunc: func(b signal.Floating) (int, error) {
				chunk, ok := <-consumer.queue
				if !ok {
					return 0, io.EOF
				}
				read := signal.FloatingAsFloating(chunk.Signal(), b)
				chunk.Unref()
				return read, nil
			},
			SignalProperties: pipe.SignalProperties{
				SampleRate: m.rate,
				Channels:   m.channels,
			},
		}, nil
	}
}

// close shuts every subscriber channel down; called from Unlink.
func (m *Monitor) close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.consumers {
		close(c.queue)
	}
	m.consumers = nil
}

// postToMonitor offers chunk to the monitor if one is installed and
// currently accepting broadcasts.
func (s *Sink) postToMonitor(chunk *membuf.Block) {
	if s.monitor != nil && s.monitor.opened() {
		s.monitor.post(chunk)
	}
}
