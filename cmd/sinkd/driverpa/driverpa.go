// Package driverpa is a real driver backend for the sink engine, built
// on github.com/gordonklaus/portaudio (doismellburning-samoyed's
// dependency). No repo in the retrieval pack exercises this library
// directly, so the wiring below follows portaudio's own documented
// callback-stream API rather than a pack example; see DESIGN.md.
package driverpa

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
	"pipelined.dev/pipe"
	"pipelined.dev/pipe/mutable"
	"pipelined.dev/signal"

	"github.com/loopback-audio/sinkengine"
)

// Backend owns one open PortAudio output stream clocked by the host
// audio device; every callback invocation pulls exactly one render pass
// from the sink through its DriverSource, satisfying the external
// driver contract the sink exposes as a plain pipe.Source.
type Backend struct {
	stream   *portaudio.Stream
	source   pipe.Source
	buf      signal.Floating
	channels int
}

// Open initializes PortAudio, allocates s's DriverSource at
// framesPerBuffer, and opens (but does not start) a default output
// stream sized to match.
func Open(s *sink.Sink, framesPerBuffer int) (*Backend, error) {
	if err := portaudio.Initialize(); err != nil {
		return nil, fmt.Errorf("driverpa: initialize: %w", err)
	}

	alloc := s.DriverSource()
	src, err := alloc(mutable.Context{}, framesPerBuffer)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("driverpa: allocate driver source: %w", err)
	}

	b := &Backend{
		source:   src,
		channels: src.SignalProperties.Channels,
		buf:      signal.Allocator{Channels: src.SignalProperties.Channels, Capacity: framesPerBuffer, Length: framesPerBuffer}.Float64(),
	}

	stream, err := portaudio.OpenDefaultStream(0, b.channels, float64(src.SignalProperties.SampleRate), framesPerBuffer, b.callback)
	if err != nil {
		portaudio.Terminate()
		return nil, fmt.Errorf("driverpa: open stream: %w", err)
	}
	b.stream = stream
	return b, nil
}

// callback is PortAudio's per-buffer hook: pull one render pass into
// b.buf, then copy-convert it into out, PortAudio's interleaved float32
// frame. Anything the sink can't fill this pass (silence, underrun) is
// zeroed rather than left stale.
func (b *Backend) callback(out []float32) {
	n, err := b.source.SourceFunc(b.buf)
	if err != nil {
		n = 0
	}
	filled := n * b.channels
	for i := range out {
		if i < filled {
			out[i] = float32(b.buf.Sample(i))
		} else {
			out[i] = 0
		}
	}
}

// Start begins streaming; the sink should already have InstallMailbox
// called. Put must run after Start: its synchronous state transition
// completes only once a callback invocation drains the mailbox on the
// sink's behalf.
func (b *Backend) Start() error {
	return b.stream.Start()
}

// Stop pauses the stream without releasing PortAudio resources.
func (b *Backend) Stop() error {
	return b.stream.Stop()
}

// Close stops and releases the stream and tears down PortAudio. Safe to
// call once, after which Backend must be discarded.
func (b *Backend) Close() error {
	err := b.stream.Close()
	portaudio.Terminate()
	return err
}
