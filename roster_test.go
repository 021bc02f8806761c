package sink

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRosterControlAndRenderViewsAgreeAfterAttach(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1)
	id := attach(s, in)

	require.Equal(t, 1, s.control.len())
	require.Equal(t, 1, s.render.len())
	require.True(t, in.attached)

	_, ok := s.render.get(id)
	require.True(t, ok)
}

func TestRosterShrinksOnDetach(t *testing.T) {
	s := newTestSink(t, 2)
	in := newFakeInput(1)
	id := attach(s, in)

	detach(s, id)

	require.Equal(t, 0, s.control.len())
	require.Equal(t, 0, s.render.len())
	require.True(t, in.detached)
}

func TestUsedByExcludesCorkedInputs(t *testing.T) {
	s := newTestSink(t, 2)
	a := newFakeInput(1)
	b := newFakeInput(2)
	b.corked = true
	attach(s, a)
	attach(s, b)

	require.Equal(t, 2, s.control.len())
	require.Equal(t, 1, s.UsedBy())
}

func TestLinkedByCountsInputsAndMonitorConsumers(t *testing.T) {
	s := newTestSink(t, 2)
	attach(s, newFakeInput(1))
	require.Equal(t, 1, s.LinkedBy())

	_, err := s.TapSource()(mutableContextForTest(), 256)
	require.NoError(t, err)
	require.Equal(t, 2, s.LinkedBy())
}

func TestSnapshotOrdersByDescendingPriority(t *testing.T) {
	s := newTestSink(t, 2)
	low := newFakeInput(1)
	low.priority = 1
	high := newFakeInput(2)
	high.priority = 10
	mid := newFakeInput(3)
	mid.priority = 5

	attach(s, low)
	attach(s, high)
	attach(s, mid)

	ordered := s.control.Snapshot()
	require.Len(t, ordered, 3)
	require.Equal(t, high, ordered[0])
	require.Equal(t, mid, ordered[1])
	require.Equal(t, low, ordered[2])
}

func TestSyncGroupLinksSiblings(t *testing.T) {
	s := newTestSink(t, 2)
	a := attach(s, newFakeInput(1))
	b := attach(s, newFakeInput(2))
	s.SyncGroup(a, b)

	ea, _ := s.control.get(a)
	eb, _ := s.control.get(b)
	require.Equal(t, b, ea.syncNext)
	require.Equal(t, a, eb.syncPrev)
}
