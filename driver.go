package sink

// driverHooks is the optional hardware callback table a driver backend
// installs on a sink, matching spec.md §6's driver boundary. Every hook
// is optional; volume.go nulls out a volume or mute hook the moment it
// reports failure and falls back to the software path, so a driver is
// free to support only the subset of hooks its hardware actually has.
// A failing SetState hook is not nulled; it aborts that transition.
type driverHooks struct {
	// SetState is consulted before every state transition; returning an
	// error aborts the transition entirely.
	SetState func(s *Sink, target State) error

	// SetVolume/GetVolume/SetMute/GetMute mirror hardware volume state.
	// Reading s.volume/s.muted is how the driver learns the value it is
	// meant to push or has just been asked to report.
	SetVolume func(s *Sink) error
	GetVolume func(s *Sink) error
	SetMute   func(s *Sink) error
	GetMute   func(s *Sink) error

	// RequestRewind is called whenever the render thread accumulates a
	// new pending rewind the driver has not yet been told about.
	RequestRewind func(s *Sink)
	// UpdateRequestedLatency is called whenever the cached requested
	// latency is invalidated, so a driver that owns buffer sizing can
	// react.
	UpdateRequestedLatency func(s *Sink)
}
