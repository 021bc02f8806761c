package sink

import (
	"fmt"

	"github.com/google/uuid"
	"pipelined.dev/pipe"
	"pipelined.dev/pipe/mutable"
	"pipelined.dev/signal"

	"github.com/loopback-audio/sinkengine/internal/logctl"
	"github.com/loopback-audio/sinkengine/internal/membuf"
)

// sampleSpec is the fixed format a sink mixes in: every contributor
// peeked during a render pass is assumed already converted to this rate
// and channel count (format conversion is out of scope, per spec.md §1).
type sampleSpec struct {
	rate       int
	channels   int
	channelMap []string
}

// threadInfo is the render-thread-only mirror of control state, the
// counterpart to spec.md §3's thread_info: everything the mix loop reads
// lives here, touched exclusively from render() and mailbox handlers.
type threadInfo struct {
	state State

	softVolume CVolume
	softMuted  bool

	maxRewind     int
	pendingRewind int

	requestedLatency      int64
	requestedLatencyValid bool
	maxRequest            int
	maxRequestValid       bool
}

// NewData is the construction request for New, mirroring pa_sink_new's
// new_data per spec.md §4.1: everything a caller supplies before hooks
// get a chance to observe or veto it.
type NewData struct {
	Name         string
	Rate         int
	Channels     int
	ChannelMap   []string
	Volume       CVolume
	Muted        bool
	Properties   map[string]string
	MinLatency   int64
	MaxLatency   int64
	BlockSizeMax int
	DriverID     string
	Driver       driverHooks
	Flags        Flags
	Hooks        *hooks
	NoMonitor    bool
}

// Sink is one logical output device: registration, state, the input
// roster (both views), the render pipeline, and the paired monitor all
// hang off this struct. The control thread and the render thread each
// touch a disjoint subset of its fields; see doc.go.
type Sink struct {
	name       string
	driverID   string
	sampleSpec sampleSpec

	volume        CVolume
	muted         bool
	refreshVolume bool
	refreshMute   bool
	properties    map[string]string

	hooks   *hooks
	monitor *Monitor
	driver  driverHooks

	mailbox *mailbox
	control *controlRoster
	render  *renderRoster
	thread  threadInfo

	minLatency   int64
	maxLatency   int64
	blockSizeMax int
	maxRewind    int
	flags        Flags

	state State

	pool    *signal.PoolAllocator
	silence *membuf.Block
}

// New constructs a sink from data, per spec.md §4.1: validate, run
// HookSinkNew then HookSinkFixate (either may veto by returning an
// error), build the paired monitor unless suppressed, and leave the sink
// in StateInit — Put still has to be called before it is usable. The
// name is not registered anywhere, so names are not checked for
// uniqueness.
func New(data NewData) (*Sink, error) {
	if data.Name == "" {
		return nil, ErrEmptyName
	}
	if data.Channels <= 0 || data.Rate <= 0 || len(data.ChannelMap) != data.Channels {
		return nil, ErrInvalidSampleSpec
	}

	volume := data.Volume
	if volume == nil {
		volume = UnitVolume(data.Channels)
	}
	if len(volume) != data.Channels {
		return nil, ErrInvalidSampleSpec
	}

	driverID := data.DriverID
	if driverID == "" {
		driverID = uuid.NewString()
	}

	properties := data.Properties
	if properties == nil {
		properties = make(map[string]string)
	}
	if _, ok := properties["device.description"]; !ok {
		properties["device.description"] = data.Name
	}

	h := data.Hooks
	if h == nil {
		h = newHooks()
	}

	blockSizeMax := data.BlockSizeMax
	if blockSizeMax <= 0 {
		blockSizeMax = MixBufferLength
	}

	s := &Sink{
		name:       data.Name,
		driverID:   driverID,
		sampleSpec: sampleSpec{rate: data.Rate, channels: data.Channels, channelMap: data.ChannelMap},
		volume:     volume.Clone(),
		muted:      data.Muted,
		properties: properties,
		hooks:      h,
		driver:     data.Driver,
		control:    newControlRoster(),
		render:     newRenderRoster(),
		minLatency:    data.MinLatency,
		maxLatency:    data.MaxLatency,
		blockSizeMax:  blockSizeMax,
		flags:         data.Flags,
		refreshVolume: data.Driver.GetVolume == nil,
		refreshMute:   data.Driver.GetMute == nil,
		state:         StateInit,
		pool:          signal.GetPoolAllocator(data.Channels, blockSizeMax, blockSizeMax),
	}
	s.thread = threadInfo{
		state:      StateInit,
		softVolume: volume.Clone(),
		softMuted:  data.Muted,
		maxRewind:  0,
	}
	silenceBuf := s.pool.Float64()
	silenceFill(silenceBuf)
	s.silence = membuf.Silence(silenceBuf)

	if err := h.fireVeto(HookSinkNew, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHookVetoed, err)
	}
	if err := h.fireVeto(HookSinkFixate, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrHookVetoed, err)
	}

	if !data.NoMonitor {
		s.monitor = newMonitor(data.Name, data.Channels, signal.Frequency(data.Rate))
	}

	logctl.Control().Info("sink constructed", "sink", s.name, "rate", data.Rate, "channels", data.Channels)
	return s, nil
}

// Put transitions a freshly constructed sink out of INIT, per spec.md
// §4.1: it requires a mailbox to already be installed (InstallMailbox),
// moves to IDLE, and fires HookSinkPut.
func (s *Sink) Put() error {
	if s.state != StateInit {
		return ErrNotInit
	}
	if s.mailbox == nil {
		return ErrMissingTransport
	}
	if !s.flags.Has(FlagHWVolumeCtrl) {
		s.flags |= FlagDecibelVolume
	}
	if err := s.setState(StateIdle); err != nil {
		return err
	}
	s.hooks.fire(HookSinkPut, s)
	return nil
}

// InstallMailbox wires the sink's cross-thread transport; must be called
// before Put.
func (s *Sink) InstallMailbox(capacity int) {
	s.mailbox = newMailbox(capacity)
}

// Unlink tears a sink down, per spec.md §4.1/§4.9: fire HookSinkUnlink,
// kill every still-attached input, move to UNLINKED, close the monitor,
// and fire HookSinkUnlinkPost. Safe to call more than once; the
// second call is a no-op.
//
// control.ordered and render.byID hold the identical *rosterEntry (and
// therefore the identical Input) for every attached input — AttachInput
// hands the control-created entry straight into the render map — so
// control.ordered already reaches every input the render map does.
// Killing from it alone satisfies spec.md §4.1's "never touching the
// same input twice"; the render map is then just dropped, not re-walked
// to kill a second time.
func (s *Sink) Unlink() error {
	if s.state == StateUnlinked {
		return nil
	}
	s.hooks.fire(HookSinkUnlink, s)

	for _, e := range s.control.ordered {
		e.input.Kill()
	}
	s.control = newControlRoster()
	s.render = newRenderRoster()

	if err := s.setState(StateUnlinked); err != nil {
		return err
	}

	if s.monitor != nil {
		s.monitor.close()
	}

	s.hooks.fire(HookSinkUnlinkPost, s)
	return nil
}

// Free releases the sink's pooled buffers. Unlink must have already run;
// Free is idempotent.
func (s *Sink) Free() {
	if s.silence != nil {
		s.silence.Unref()
		s.silence = nil
	}
}

// Name returns the sink's registered name.
func (s *Sink) Name() string { return s.name }

// DriverID returns the opaque identifier handed to a driver backend at
// construction.
func (s *Sink) DriverID() string { return s.driverID }

// Properties returns a snapshot of the sink's property list.
func (s *Sink) Properties() map[string]string {
	out := make(map[string]string, len(s.properties))
	for k, v := range s.properties {
		out[k] = v
	}
	return out
}

// publishChange is the CHANGE half of the SINK|NEW / SINK|CHANGE /
// SINK|REMOVE subscription events named in spec.md's GLOSSARY; in this
// module it is a hook fire rather than a full pub/sub bus; wiring an
// external subscription transport is left to cmd/sinkd.
func (s *Sink) publishChange() {
	s.hooks.fire(HookSinkProplistChanged, s)
}

// DriverSource exposes the render pipeline as a pipe.SourceAllocatorFunc,
// the driver boundary named in SPEC_FULL.md's DOMAIN STACK section: a
// driver backend (or any other pipe consumer) pulls mixed audio from a
// sink exactly the way it would pull from any other pipe.Source.
func (s *Sink) DriverSource() pipe.SourceAllocatorFunc {
	return func(mut mutable.Context, bufferSize int) (pipe.Source, error) {
		return pipe.Source{
			SourceFunc: func(out signal.Floating) (int, error) {
				return s.renderInto(out), nil
			},
			SignalProperties: pipe.SignalProperties{
				SampleRate: signal.Frequency(s.sampleSpec.rate),
				Channels:   s.sampleSpec.channels,
			},
		}, nil
	}
}

// TapSource exposes the paired monitor as a second pipe.SourceAllocatorFunc.
func (s *Sink) TapSource() pipe.SourceAllocatorFunc {
	if s.monitor == nil {
		return func(mutable.Context, int) (pipe.Source, error) {
			return pipe.Source{}, ErrMonitorFailed
		}
	}
	return s.monitor.Source()
}
