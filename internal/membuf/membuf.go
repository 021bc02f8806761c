// Package membuf implements the reference-counted, copy-on-write buffer
// discipline the render pipeline mixes through. It wraps a
// pipelined.dev/signal buffer the same way pipelined-audio's Repeater
// shares one rendered buffer across fan-out sources: a block is handed out
// with its refcount already incremented, and the last Unref frees it back
// to the pool.
package membuf

import (
	"sync/atomic"

	"pipelined.dev/signal"
)

// shared is the pool-backed storage a Block (and any views sliced from
// it) count references against.
type shared struct {
	buf     signal.Floating
	pool    *signal.PoolAllocator
	refs    int32
	silence bool
}

// Block is a view onto a shared, possibly copy-on-write, audio buffer.
// The zero value is not usable; construct with New or Silence.
type Block struct {
	owner *shared
	view  signal.Floating
}

// New wraps buf as a pooled, single-referenced block.
func New(buf signal.Floating, pool *signal.PoolAllocator) *Block {
	o := &shared{buf: buf, pool: pool, refs: 1}
	return &Block{owner: o, view: buf}
}

// Silence wraps buf as a specially tagged block that is never pool-freed:
// render's 0-contributor path aliases this instance rather than copying it,
// and peek callers can detect it via IsSilence to short-circuit mixing.
func Silence(buf signal.Floating) *Block {
	o := &shared{buf: buf, refs: 1, silence: true}
	return &Block{owner: o, view: buf}
}

// IsSilence reports whether this block is the sink's silence cache (or a
// view derived from it without a writable copy having been made).
func (b *Block) IsSilence() bool {
	return b.owner.silence
}

// Signal returns the buffer this block currently views. Callers must not
// write through it unless they hold the only reference (see MakeWritable).
func (b *Block) Signal() signal.Floating {
	return b.view
}

// Len reports the view's per-channel sample count.
func (b *Block) Len() int {
	return b.view.Len()
}

// Ref increments the shared refcount and returns b, for chaining at
// hand-off points (e.g. fill_mix_info acquiring a per-pass reference).
func (b *Block) Ref() *Block {
	atomic.AddInt32(&b.owner.refs, 1)
	return b
}

// Unref decrements the shared refcount, returning the underlying buffer to
// its pool once the last reference drops. Silence blocks are never
// pool-freed.
func (b *Block) Unref() {
	if atomic.AddInt32(&b.owner.refs, -1) == 0 && b.owner.pool != nil && !b.owner.silence {
		b.owner.buf.Free(b.owner.pool)
	}
}

// isShared reports whether more than this block's reference is outstanding.
func (b *Block) isShared() bool {
	return atomic.LoadInt32(&b.owner.refs) > 1
}

// MakeWritable returns a block safe to mutate in place: itself if
// uniquely referenced and not the silence cache, otherwise a fresh clone
// drawn from pool, viewing the same number of frames as b. The caller's
// reference to b is consumed either way.
func (b *Block) MakeWritable(pool *signal.PoolAllocator) *Block {
	if !b.isShared() && !b.owner.silence {
		return b
	}
	clone := pool.Float64()
	signal.FloatingAsFloating(b.view, clone)
	w := New(clone, pool)
	w.view = clone.Slice(0, b.view.Len())
	b.Unref()
	return w
}

// Slice returns a block viewing the [start:end) sub-range of the current
// view, sharing the same underlying storage and refcount.
func (b *Block) Slice(start, end int) *Block {
	atomic.AddInt32(&b.owner.refs, 1)
	return &Block{owner: b.owner, view: b.view.Slice(start, end)}
}

// Truncate is Slice(0, length); if the view is already that short it
// returns b itself with one more reference taken, so the caller always
// holds a new reference.
func (b *Block) Truncate(length int) *Block {
	if length >= b.view.Len() {
		b.Ref()
		return b
	}
	return b.Slice(0, length)
}
