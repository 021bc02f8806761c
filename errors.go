package sink

import "errors"

var (
	// ErrEmptyName is returned by New when new_data.Name is empty.
	ErrEmptyName = errors.New("sink: name must not be empty")
	// ErrInvalidSampleSpec is returned by New when the sample spec is unset
	// or its channel count disagrees with the channel map or cvolume.
	ErrInvalidSampleSpec = errors.New("sink: invalid sample spec")
	// ErrHookVetoed is returned by New when a SINK_NEW or SINK_FIXATE hook
	// observer rejects construction.
	ErrHookVetoed = errors.New("sink: construction vetoed by hook")
	// ErrMonitorFailed is returned by the allocator TapSource hands out
	// when the sink was built without a paired monitor (NewData.NoMonitor).
	ErrMonitorFailed = errors.New("sink: monitor source construction failed")
	// ErrNotInit is returned by Put when the sink is not in state INIT.
	ErrNotInit = errors.New("sink: put requires state INIT")
	// ErrMissingTransport is returned by Put when the mailbox has not been
	// installed.
	ErrMissingTransport = errors.New("sink: mailbox must be installed before put")
	// ErrUnlinked is returned by BeginMove when the input id is not
	// attached to the sink.
	ErrUnlinked = errors.New("sink: already unlinked")
	// ErrDriverHook wraps the error of a driver SetState hook that rejects
	// a state transition; the sink's state is left unchanged.
	ErrDriverHook = errors.New("sink: driver hook failed")
	// ErrNotMovable is returned by BeginMove when the input belongs to a
	// synchronized group.
	ErrNotMovable = errors.New("sink: synchronized input cannot be moved")

	// errGhostDrained is returned by a ghost input's Peek once its
	// replay queue is empty; never exposed outside this package.
	errGhostDrained = errors.New("sink: ghost input drained")
)
