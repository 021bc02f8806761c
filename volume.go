package sink

import "github.com/loopback-audio/sinkengine/internal/logctl"

// VolumeNorm is the linear gain value representing 0dB / unity gain.
const VolumeNorm uint32 = 0x10000

// CVolume is one linear gain value per channel, matching the channel
// count of the owning sample spec.
type CVolume []uint32

// UnitVolume returns a CVolume of n channels, each at VolumeNorm.
func UnitVolume(n int) CVolume {
	v := make(CVolume, n)
	for i := range v {
		v[i] = VolumeNorm
	}
	return v
}

// IsMuted reports whether every channel is silent.
func (v CVolume) IsMuted() bool {
	for _, g := range v {
		if g != 0 {
			return false
		}
	}
	return len(v) > 0
}

// IsUnit reports whether every channel is at VolumeNorm.
func (v CVolume) IsUnit() bool {
	for _, g := range v {
		if g != VolumeNorm {
			return false
		}
	}
	return true
}

// Equal reports whether v and o carry the same per-channel gains.
func (v CVolume) Equal(o CVolume) bool {
	if len(v) != len(o) {
		return false
	}
	for i := range v {
		if v[i] != o[i] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of v.
func (v CVolume) Clone() CVolume {
	c := make(CVolume, len(v))
	copy(c, v)
	return c
}

// Multiply returns the per-channel product of v and o, normalized so that
// VolumeNorm ⊗ VolumeNorm == VolumeNorm. Shorter operand wins the channel
// count (a single input volume against a wider sink volume, or vice
// versa, each channel multiplies against the matching index).
func (v CVolume) Multiply(o CVolume) CVolume {
	n := len(v)
	if len(o) < n {
		n = len(o)
	}
	r := make(CVolume, n)
	for i := 0; i < n; i++ {
		r[i] = uint32((uint64(v[i]) * uint64(o[i])) / uint64(VolumeNorm))
	}
	return r
}

// Gain returns the linear float gain for channel i, or 0 if i is out of
// range.
func (v CVolume) Gain(i int) float64 {
	if i < 0 || i >= len(v) {
		return 0
	}
	return float64(v[i]) / float64(VolumeNorm)
}

// volumeFacade names the control-thread volume/mute façade. The
// authoritative pair itself is Sink.volume/Sink.muted, shadowed by the
// render thread's soft pair (Sink.thread). The Sink methods below follow
// the identical read/write pattern for both volume and mute described in
// spec.md §4.7: try the driver hook, null it out on failure, and fall
// back to the mailbox.
type volumeFacade struct {
	sink *Sink
}

// SetVolume replaces the sink's authoritative volume. It tries the
// driver's hardware hook first; if none is installed (or it reports no
// hardware volume by nulling itself), the new value is posted
// asynchronously to the render thread as soft_volume, which also
// triggers a rewind so the change is heard promptly.
func (s *Sink) SetVolume(v CVolume) error {
	if len(v) != len(s.sampleSpec.channelMap) {
		return ErrInvalidSampleSpec
	}
	prev := s.volume
	s.volume = v.Clone()
	if s.driver.SetVolume != nil {
		if err := s.driver.SetVolume(s); err != nil {
			logctl.Control().Warn("driver set_volume failed, falling back to soft volume", "sink", s.name, "err", err)
			s.driver.SetVolume = nil
		} else {
			if !prev.Equal(s.volume) {
				s.publishChange()
			}
			return nil
		}
	}
	s.mailbox.post(msgSetVolume, v.Clone())
	if !prev.Equal(s.volume) {
		s.publishChange()
	}
	return nil
}

// GetVolume refreshes the authoritative volume from the driver hook, or,
// if refreshVolume is set and no hook is installed, pulls soft_volume
// synchronously from the render thread.
func (s *Sink) GetVolume() CVolume {
	snapshot := s.volume.Clone()
	if s.driver.GetVolume != nil {
		if err := s.driver.GetVolume(s); err != nil {
			s.driver.GetVolume = nil
		}
	} else if s.refreshVolume {
		if v, err := s.mailbox.send(msgGetVolume, nil); err == nil {
			s.volume = v.(CVolume)
		}
	}
	if !snapshot.Equal(s.volume) {
		s.publishChange()
	}
	return s.volume.Clone()
}

// SetMute is SetVolume's boolean twin.
func (s *Sink) SetMute(m bool) error {
	prev := s.muted
	s.muted = m
	if s.driver.SetMute != nil {
		if err := s.driver.SetMute(s); err != nil {
			s.driver.SetMute = nil
		} else {
			if prev != s.muted {
				s.publishChange()
			}
			return nil
		}
	}
	s.mailbox.post(msgSetMute, m)
	if prev != s.muted {
		s.publishChange()
	}
	return nil
}

// GetMute is GetVolume's boolean twin.
func (s *Sink) GetMute() bool {
	snapshot := s.muted
	if s.driver.GetMute != nil {
		if err := s.driver.GetMute(s); err != nil {
			s.driver.GetMute = nil
		}
	} else if s.refreshMute {
		if v, err := s.mailbox.send(msgGetMute, nil); err == nil {
			s.muted = v.(bool)
		}
	}
	if snapshot != s.muted {
		s.publishChange()
	}
	return s.muted
}

// SetDescription updates the property list's description, cascading into
// the monitor source's description, and — if the sink is linked —
// publishes a CHANGE event and fires SINK_PROPLIST_CHANGED.
func (s *Sink) SetDescription(d string) {
	s.properties["device.description"] = d
	if s.monitor != nil {
		s.monitor.setDescription("Monitor Source of " + d)
	}
	if s.Linked() {
		s.publishChange()
		s.hooks.fire(HookSinkProplistChanged, s)
	}
}
