package sink

// Flags is the bitmask of feature flags named in spec.md §6's
// configuration knobs: which optional capabilities a sink advertises to
// the rest of the system.
type Flags uint32

const (
	// FlagHWVolumeCtrl marks a sink whose driver owns volume in hardware;
	// Put defaults DECIBEL_VOLUME on only when this is unset.
	FlagHWVolumeCtrl Flags = 1 << iota
	// FlagDecibelVolume marks a sink whose volume is expressed on a
	// decibel scale rather than linear gain.
	FlagDecibelVolume
	// FlagLatency marks a sink whose driver participates in latency
	// negotiation (§4.6).
	FlagLatency
	// FlagHWMuteCtrl marks a sink whose driver owns mute in hardware.
	FlagHWMuteCtrl
	// FlagNetwork marks a sink backed by a network transport, information
	// purely for introspection/UI.
	FlagNetwork
)

// Has reports whether every bit set in want is also set in f.
func (f Flags) Has(want Flags) bool {
	return f&want == want
}

// UpdateFlags is the original's post-construction flag promotion
// (SPEC_FULL.md supplemented feature 4): a driver backend may add flags
// once it has finished negotiating with hardware, e.g. promoting a sink
// to FlagLatency after discovering the device reports real buffer
// occupancy. Flags are only ever added, never cleared, mirroring the
// original's pa_sink_update_flags.
func (s *Sink) UpdateFlags(add Flags) {
	s.flags |= add
}

// Flags returns the sink's current feature flags.
func (s *Sink) Flags() Flags {
	return s.flags
}
