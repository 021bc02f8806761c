package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pipelined.dev/signal"

	"github.com/loopback-audio/sinkengine/internal/membuf"
)

func TestBeginMoveRejectsSynchronizedInput(t *testing.T) {
	s := newTestSink(t, 2)
	a := attach(s, newFakeInput(1))
	b := attach(s, newFakeInput(2))
	s.SyncGroup(a, b)

	target := newTestSink(t, 2)
	var err error
	withDrain(s, func() { err = s.BeginMove(a, target) })
	require.ErrorIs(t, err, ErrNotMovable)
}

func TestBeginMoveRejectsUnknownID(t *testing.T) {
	s := newTestSink(t, 2)
	target := newTestSink(t, 2)
	var err error
	withDrain(s, func() { err = s.BeginMove(999, target) })
	require.ErrorIs(t, err, ErrUnlinked)
}

func TestBeginMoveReattachesGhostCarryingBufferedAudio(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1)
	in.chunks = []signal.Floating{
		fill(newFloating(2, 4), 7),
		fill(newFloating(2, 4), 7),
	}
	id := attach(s, in)

	target := newTestSink(t, 2)
	var err error
	withDrainMany([]*Sink{s, target}, func() { err = s.BeginMove(id, target) })
	require.NoError(t, err)

	require.True(t, in.detached)
	require.Equal(t, 0, s.control.len(), "source sink must drop the moved input from its roster")
	require.Equal(t, 1, target.control.len(), "target sink must gain exactly the ghost")

	// the ghost replays its two drained chunks one at a time, the same
	// way any other input's Peek is bounded to what it has ready.
	first := target.render(8)
	require.Equal(t, []float64{7, 7, 7, 7, 7, 7, 7, 7}, samples(first.Signal()))
	first.Unref()

	second := target.render(8)
	require.Equal(t, []float64{7, 7, 7, 7, 7, 7, 7, 7}, samples(second.Signal()))
	second.Unref()
}

func TestBeginMoveBakesInInputVolumeOnDrain(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1)
	in.volume = CVolume{VolumeNorm / 2, VolumeNorm / 2}
	in.chunks = []signal.Floating{fill(newFloating(2, 4), 8)}
	id := attach(s, in)

	target := newTestSink(t, 2)
	var err error
	withDrainMany([]*Sink{s, target}, func() { err = s.BeginMove(id, target) })
	require.NoError(t, err)

	// the drained chunk must carry the input's 0.5 gain baked in, and the
	// destination sink's render must not apply that gain a second time.
	chunk := target.render(8)
	require.Equal(t, []float64{4, 4, 4, 4, 4, 4, 4, 4}, samples(chunk.Signal()))
	chunk.Unref()
}

func TestBeginMoveKillsGhostImmediatelyWhenInputHadNothingBuffered(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1) // no chunks queued: Peek reports errGhostDrained right away
	id := attach(s, in)

	target := newTestSink(t, 2)
	var err error
	withDrainMany([]*Sink{s, target}, func() { err = s.BeginMove(id, target) })
	require.NoError(t, err)

	require.Equal(t, 0, target.control.len(), "an empty ghost must be killed rather than attached")
}

func TestGhostInputDrainsAcrossMultipleChunksThenReportsDrained(t *testing.T) {
	a := fill(newFloating(2, 2), 1)
	b := fill(newFloating(2, 2), 2)
	ghost := newGhostInput(1, []*membuf.Block{membuf.New(a, nil), membuf.New(b, nil)}, UnitVolume(2))

	chunk, _, err := ghost.Peek(4)
	require.NoError(t, err)
	require.Equal(t, 2, chunk.Len(), "peek must not cross a chunk boundary in one call")
	ghost.Drop(2)
	chunk.Unref()

	require.False(t, ghost.Drained())
	chunk2, _, err := ghost.Peek(4)
	require.NoError(t, err)
	require.Equal(t, 2, chunk2.Len())
	ghost.Drop(2)
	chunk2.Unref()

	require.True(t, ghost.Drained())
	_, _, err = ghost.Peek(4)
	require.ErrorIs(t, err, errGhostDrained)
}
