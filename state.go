package sink

import (
	"fmt"

	"github.com/loopback-audio/sinkengine/internal/logctl"
)

// State is one of the sink lifecycle's five states, grounded on the
// state-machine shape of gtrevg-pipe's internal/state package (there:
// Ready/Running/Paused driving a pipe; here: the five-state sink
// lifecycle of spec.md §4.2, with UNLINKED as a terminal absorbing
// state rather than a cycle).
type State int

const (
	StateInit State = iota
	StateIdle
	StateRunning
	StateSuspended
	StateUnlinked
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "INIT"
	case StateIdle:
		return "IDLE"
	case StateRunning:
		return "RUNNING"
	case StateSuspended:
		return "SUSPENDED"
	case StateUnlinked:
		return "UNLINKED"
	default:
		return "UNKNOWN"
	}
}

// Opened reports whether the state is IDLE or RUNNING.
func (s State) Opened() bool {
	return s == StateIdle || s == StateRunning
}

// Linked reports whether the state is IDLE, RUNNING or SUSPENDED.
func (s State) Linked() bool {
	return s == StateIdle || s == StateRunning || s == StateSuspended
}

// State returns the sink's current control-side state.
func (s *Sink) State() State {
	return s.state
}

// Linked reports whether the sink is in a Linked state.
func (s *Sink) Linked() bool {
	return s.state.Linked()
}

// setState centralizes every state transition, per spec.md §4.2. It is a
// no-op if target equals the current state, aborts without partial
// change if the driver's SetState hook fails, and otherwise: sends a
// synchronous SET_STATE message, stores the new control-side state, runs
// each input's Suspend hook on a SUSPENDED/OPENED boundary crossing, and
// fires SINK_STATE_CHANGED unless entering UNLINKED.
func (s *Sink) setState(target State) error {
	if target == s.state {
		return nil
	}
	suspendChange := (s.state == StateSuspended) != (target == StateSuspended) &&
		s.state.Opened() != target.Opened()

	if s.driver.SetState != nil {
		if err := s.driver.SetState(s, target); err != nil {
			logctl.Control().Error("driver set_state rejected transition", "sink", s.name, "from", s.state, "to", target, "err", err)
			return fmt.Errorf("%w: %w", ErrDriverHook, err)
		}
	}

	if _, err := s.mailbox.send(msgSetState, target); err != nil {
		return err
	}

	s.state = target

	if suspendChange {
		suspended := target == StateSuspended
		for _, e := range s.control.ordered {
			e.input.Suspend(suspended)
		}
	}

	if target != StateUnlinked {
		s.hooks.fire(HookSinkStateChanged, s)
	}
	return nil
}

// UpdateStatus recomputes RUNNING/IDLE from the current input population,
// a no-op while SUSPENDED.
func (s *Sink) UpdateStatus() error {
	if s.state == StateSuspended {
		return nil
	}
	if s.UsedBy() > 0 {
		return s.setState(StateRunning)
	}
	return s.setState(StateIdle)
}

// Suspend moves the sink to SUSPENDED, or, when resuming, recomputes
// RUNNING/IDLE exactly as UpdateStatus would.
func (s *Sink) Suspend(suspend bool) error {
	if suspend {
		return s.setState(StateSuspended)
	}
	if s.UsedBy() > 0 {
		return s.setState(StateRunning)
	}
	return s.setState(StateIdle)
}
