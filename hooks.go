package sink

import (
	"sort"

	"github.com/loopback-audio/sinkengine/internal/logctl"
)

// HookKind enumerates the sink lifecycle hook points external modules
// may observe or veto, per spec.md §4.1/§4.2/§4.7's hook catalogue.
type HookKind int

const (
	// HookSinkNew fires once a sink's fields are populated but before it
	// is registered; an observer returning an error vetoes construction.
	HookSinkNew HookKind = iota
	// HookSinkFixate fires right after HookSinkNew, as the last chance
	// to adjust the sink before New returns it; an observer returning an
	// error also vetoes construction.
	HookSinkFixate
	// HookSinkPut fires once a newly constructed sink has transitioned
	// out of INIT.
	HookSinkPut
	// HookSinkStateChanged fires on every state transition except into
	// UNLINKED.
	HookSinkStateChanged
	// HookSinkProplistChanged fires when SetDescription runs while the
	// sink is linked, and also serves as the CHANGE event (publishChange)
	// whenever volume or mute changes.
	HookSinkProplistChanged
	// HookSinkUnlink fires at the start of Unlink, before inputs are
	// killed.
	HookSinkUnlink
	// HookSinkUnlinkPost fires at the end of Unlink, after every input
	// has been killed and the sink is fully detached.
	HookSinkUnlinkPost
)

// hookFunc observes or vetoes a lifecycle point; a non-nil error from a
// HookSinkNew/HookSinkFixate subscriber aborts construction, and is
// otherwise logged and ignored.
type hookFunc func(*Sink) error

type hookSubscription struct {
	priority int
	fn       hookFunc
}

// hooks is the sink's lifecycle hook bus, a simplified stand-in for
// PulseAudio's pa_hook_slot priority chain: subscribers register per
// HookKind and are invoked in descending priority order.
type hooks struct {
	subs map[HookKind][]hookSubscription
}

func newHooks() *hooks {
	return &hooks{subs: make(map[HookKind][]hookSubscription)}
}

// Subscribe registers fn against kind at priority (higher runs first,
// ties broken by registration order).
func (h *hooks) Subscribe(kind HookKind, priority int, fn hookFunc) {
	h.subs[kind] = append(h.subs[kind], hookSubscription{priority: priority, fn: fn})
	sort.SliceStable(h.subs[kind], func(i, j int) bool {
		return h.subs[kind][i].priority > h.subs[kind][j].priority
	})
}

// fireVeto runs kind's subscribers in priority order, stopping and
// returning the first error encountered. Used only for HookSinkNew and
// HookSinkFixate, the two construction-time veto points.
func (h *hooks) fireVeto(kind HookKind, s *Sink) error {
	for _, sub := range h.subs[kind] {
		if err := sub.fn(s); err != nil {
			return err
		}
	}
	return nil
}

// fire runs kind's subscribers and logs, rather than propagates, any
// error — every hook point past construction is an observation, not a
// veto.
func (h *hooks) fire(kind HookKind, s *Sink) {
	for _, sub := range h.subs[kind] {
		if err := sub.fn(s); err != nil {
			logctl.Control().Warn("hook observer returned error", "sink", s.name, "kind", kind, "err", err)
		}
	}
}
