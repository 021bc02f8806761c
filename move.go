package sink

import "github.com/loopback-audio/sinkengine/internal/membuf"

// moveInfo is the payload behind REMOVE_INPUT_AND_BUFFER: which input to
// detach, and (implicitly) that whatever it has already buffered should
// be drained and preserved rather than discarded.
type moveInfo struct {
	id int
}

// moveDrainChunk bounds how much is pulled from a departing input in one
// Peek during a drain; large enough that a typical move drains in one or
// two iterations, small enough not to block the render thread for long
// on a pathological input.
const moveDrainChunk = 8192

// BeginMove implements spec.md §4.9's input move protocol: detach id
// from s, preserving whatever it had already buffered as a replay queue,
// and re-attach that queue to target as a ghost input so target's next
// mix pass picks up exactly where s left off, with no gap and no
// duplicated audio. Synchronized inputs cannot be moved (spec.md §9).
func (s *Sink) BeginMove(id int, target *Sink) error {
	e, ok := s.control.get(id)
	if !ok {
		return ErrUnlinked
	}
	if e.syncPrev != -1 || e.syncNext != -1 {
		return ErrNotMovable
	}

	result, err := s.mailbox.send(msgRemoveInputAndBuffer, &moveInfo{id: id})
	if err != nil {
		return err
	}
	s.control.remove(id)
	s.UpdateStatus()

	ghost, _ := result.(*ghostInput)
	if ghost == nil {
		return nil
	}
	if ghost.Drained() {
		ghost.Kill()
		return nil
	}
	target.AttachInput(ghost)
	return nil
}

// handleRemoveInputAndBuffer is the render-thread side of
// REMOVE_INPUT_AND_BUFFER: drain every frame the input has ready into an
// owned queue of blocks (grounded on asset.go's append-until-flush
// growing buffer, adapted from a single append target to a chunk queue
// since a ghost input replays chunk-by-chunk rather than from one flat
// buffer), detach and remove the input the same way handleRemoveInput
// does, and hand back a ghost input primed with the drained queue.
//
// spec.md §4.9 step 2: audio is read pre-volume, then the input's own
// volume is baked in in-place (via a writable copy) when non-unit, so
// the ghost always replays at unit gain — its own volume reports unit,
// and the destination sink's soft volume is the only gain left to apply
// on the next mix pass.
func (s *Sink) handleRemoveInputAndBuffer(info *moveInfo) (any, error) {
	e, ok := s.render.get(info.id)
	if !ok {
		return nil, ErrUnlinked
	}

	var queue []*membuf.Block
	for {
		chunk, vol, err := e.input.Peek(moveDrainChunk)
		if err != nil || chunk == nil || chunk.Len() == 0 {
			if chunk != nil {
				chunk.Unref()
			}
			break
		}
		if !vol.IsUnit() {
			writable := chunk.MakeWritable(s.pool)
			applyGain(writable.Signal(), vol)
			chunk = writable
		}
		queue = append(queue, chunk)
		e.input.Drop(chunk.Len())
	}

	e.input.Detach()
	s.render.delete(info.id)
	s.invalidateRequestedLatency()
	s.requestRewindLocked(0)

	return newGhostInput(info.id, queue, UnitVolume(s.sampleSpec.channels)), nil
}
