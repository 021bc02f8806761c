package sink

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsEmptyName(t *testing.T) {
	_, err := New(NewData{Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}})
	require.ErrorIs(t, err, ErrEmptyName)
}

func TestNewRejectsMismatchedChannelMap(t *testing.T) {
	_, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L"}})
	require.ErrorIs(t, err, ErrInvalidSampleSpec)
}

func TestNewDefaultsVolumeToUnit(t *testing.T) {
	s, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}})
	require.NoError(t, err)
	require.True(t, s.volume.IsUnit())
	require.Equal(t, StateInit, s.State())
}

func TestNewVetoedBySinkNewHookAborts(t *testing.T) {
	wantErr := errors.New("policy rejected")
	h := newHooks()
	h.Subscribe(HookSinkNew, 0, func(*Sink) error { return wantErr })

	_, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}, Hooks: h})
	require.ErrorIs(t, err, ErrHookVetoed)
}

func TestNewVetoedBySinkFixateHookAborts(t *testing.T) {
	wantErr := errors.New("fixate rejected")
	h := newHooks()
	h.Subscribe(HookSinkFixate, 0, func(*Sink) error { return wantErr })

	_, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}, Hooks: h})
	require.ErrorIs(t, err, ErrHookVetoed)
}

func TestHookSubscribersRunInDescendingPriorityOrder(t *testing.T) {
	h := newHooks()
	var order []int
	h.Subscribe(HookSinkPut, 1, func(*Sink) error { order = append(order, 1); return nil })
	h.Subscribe(HookSinkPut, 10, func(*Sink) error { order = append(order, 10); return nil })
	h.Subscribe(HookSinkPut, 5, func(*Sink) error { order = append(order, 5); return nil })

	s, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}, Hooks: h})
	require.NoError(t, err)
	s.InstallMailbox(4)
	withDrain(s, func() { require.NoError(t, s.Put()) })

	require.Equal(t, []int{10, 5, 1}, order)
}

func TestPutWithoutMailboxFails(t *testing.T) {
	s, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}})
	require.NoError(t, err)
	require.ErrorIs(t, s.Put(), ErrMissingTransport)
}

func TestPutSetsDecibelVolumeFlagWhenNoHardwareVolume(t *testing.T) {
	s := newTestSink(t, 2)
	require.True(t, s.Flags().Has(FlagDecibelVolume))
}

func TestPutDoesNotSetDecibelVolumeFlagWithHardwareVolume(t *testing.T) {
	s, err := New(NewData{
		Name: "hw", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"},
		Flags:  FlagHWVolumeCtrl,
		Driver: driverHooks{SetVolume: func(*Sink) error { return nil }},
	})
	require.NoError(t, err)
	s.InstallMailbox(4)
	withDrain(s, func() { require.NoError(t, s.Put()) })

	require.False(t, s.Flags().Has(FlagDecibelVolume))
	require.True(t, s.Flags().Has(FlagHWVolumeCtrl))
}

func TestUnlinkKillsEveryAttachedInput(t *testing.T) {
	s := newTestSink(t, 2)
	a := newFakeInput(1)
	b := newFakeInput(2)
	attach(s, a)
	attach(s, b)

	require.NoError(t, unlink(s))
	require.True(t, a.killed)
	require.True(t, b.killed)
	require.Equal(t, StateUnlinked, s.State())
}

func TestUnlinkFiresHooksInOrder(t *testing.T) {
	h := newHooks()
	var order []string
	h.Subscribe(HookSinkUnlink, 0, func(*Sink) error { order = append(order, "pre"); return nil })
	h.Subscribe(HookSinkUnlinkPost, 0, func(*Sink) error { order = append(order, "post"); return nil })

	s, err := New(NewData{Name: "a", Rate: 48000, Channels: 2, ChannelMap: []string{"L", "R"}, Hooks: h})
	require.NoError(t, err)
	s.InstallMailbox(4)
	withDrain(s, func() { require.NoError(t, s.Put()) })

	require.NoError(t, unlink(s))
	require.Equal(t, []string{"pre", "post"}, order)
}

func TestFreeIsIdempotent(t *testing.T) {
	s := newTestSink(t, 2)
	require.NoError(t, unlink(s))
	s.Free()
	s.Free()
}
