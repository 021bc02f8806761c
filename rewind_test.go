package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessRewindSkipsNewlyAttachedInputExactlyOnce(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1)
	attach(s, in)

	s.ProcessRewind(256)
	require.Empty(t, in.rewinds, "the handshake skip must absorb the first rewind after attach")

	s.ProcessRewind(128)
	require.Equal(t, []int{128}, in.rewinds, "every later rewind must reach the input normally")
}

func TestProcessRewindReachesAllAttachedInputs(t *testing.T) {
	s := newTestSink(t, 2)
	a := newFakeInput(1)
	b := newFakeInput(2)
	attach(s, a)
	attach(s, b)

	s.ProcessRewind(10) // consumes both handshake skips
	s.ProcessRewind(64)

	require.Equal(t, []int{64}, a.rewinds)
	require.Equal(t, []int{64}, b.rewinds)
}

func TestRequestRewindClampsToMaxRewind(t *testing.T) {
	s := newTestSink(t, 2)
	s.SetMaxRewind(100)
	s.drainMailbox()

	s.requestRewind(500)
	require.Equal(t, 100, s.pendingRewind())
}

func TestRequestRewindDefaultsToMaxRewindWhenZero(t *testing.T) {
	s := newTestSink(t, 2)
	s.SetMaxRewind(200)
	s.drainMailbox()

	s.requestRewind(0)
	require.Equal(t, 200, s.pendingRewind())
}

func TestRequestRewindCoalescesRedundantSmallerCalls(t *testing.T) {
	wantCalls := 0
	s, err := New(NewData{
		Name: "rw", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"},
		Driver: driverHooks{
			RequestRewind: func(*Sink) { wantCalls++ },
		},
	})
	require.NoError(t, err)
	s.InstallMailbox(4)
	withDrain(s, func() { require.NoError(t, s.Put()) })
	s.SetMaxRewind(1000)
	s.drainMailbox()

	s.requestRewind(50)
	require.Equal(t, 1, wantCalls)

	s.requestRewind(30) // smaller than pending, must not notify the driver again
	require.Equal(t, 1, wantCalls)
	require.Equal(t, 50, s.pendingRewind())

	s.requestRewind(80) // larger than pending, must notify
	require.Equal(t, 2, wantCalls)
	require.Equal(t, 80, s.pendingRewind())
}

func TestClearPendingRewindResetsAccumulator(t *testing.T) {
	s := newTestSink(t, 2)
	s.SetMaxRewind(100)
	s.drainMailbox()
	s.requestRewind(50)
	require.Equal(t, 50, s.pendingRewind())

	s.clearPendingRewind()
	require.Equal(t, 0, s.pendingRewind())
}

func TestSetMaxRewindPropagatesToAttachedInputs(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1)
	attach(s, in)

	s.SetMaxRewind(42)
	s.drainMailbox()
	require.Equal(t, 42, in.maxRewind)
}
