package sink

import (
	"pipelined.dev/signal"

	"github.com/loopback-audio/sinkengine/internal/membuf"
)

// MaxMixChannels caps the number of contributors one render pass will
// mix; inputs beyond the cap are silently skipped for that pass and
// served on the next.
const MaxMixChannels = 32

// MixBufferLength is the default render() window, analogous to
// PulseAudio's page-sized default; expressed here in frames.
const MixBufferLength = 4096

// frameAlign rounds length down to a frame boundary. signal.Floating
// buffers are already organized one unit of Len() per frame (channels
// are folded into Sample/SetSample's flat index), so alignment is a
// no-op; the function is kept so every length computation in this file
// reads the same way spec.md's invariant does, and as the one place to
// change if a future buffer representation needs real rounding.
func frameAlign(length, channels int) int {
	if length < 0 {
		return 0
	}
	return length
}

// snapshot returns the render map's entries as a slice, for passes that
// need index-based early exit (fillMixInfo's MaxMixChannels cap). Order
// is unspecified, matching thread_info.inputs's map nature.
func (r *renderRoster) snapshot() []*rosterEntry {
	out := make([]*rosterEntry, 0, len(r.byID))
	for _, e := range r.byID {
		out = append(out, e)
	}
	return out
}

// fillMixInfo is fill_mix_info from spec.md §4.4: peek up to max inputs,
// shrink length to the shortest non-empty chunk returned, drop
// pure-silence chunks, and take a reference to each surviving
// contributor's input and chunk for the pass.
func (s *Sink) fillMixInfo(length, max int) ([]MixInfo, int) {
	entries := s.render.snapshot()
	infos := make([]MixInfo, 0, max)
	final := length

	for _, e := range entries {
		if len(infos) >= max {
			break
		}
		chunk, vol, err := e.input.Peek(length)
		if err != nil || chunk == nil || chunk.Len() == 0 {
			if chunk != nil {
				chunk.Unref()
			}
			continue
		}
		if chunk.Len() < final {
			final = chunk.Len()
		}
		if chunk.IsSilence() {
			chunk.Unref()
			continue
		}
		infos = append(infos, MixInfo{Input: e.input, Chunk: chunk, Volume: vol})
	}

	for i := range infos {
		if infos[i].Chunk.Len() > final {
			old := infos[i].Chunk
			infos[i].Chunk = old.Truncate(final)
			old.Unref()
		}
	}
	return infos, final
}

// mix is the channel-aware N-contributor mixer primitive: it sums each
// surviving contributor's samples, weighted by contributor volume ⊗
// sink soft volume, into dst (already allocated to the caller's desired
// length), returning the number of frames it actually produced — the
// shortest contributor, which may be less than len(dst).
func mix(dst signal.Floating, infos []MixInfo, softVolume CVolume, softMuted bool) int {
	channels := dst.Channels()
	length := dst.Len()
	for _, info := range infos {
		if info.Chunk.Len() < length {
			length = info.Chunk.Len()
		}
	}
	if softMuted {
		silenceFill(dst.Slice(0, length))
		return length
	}
	for f := 0; f < length; f++ {
		for c := 0; c < channels; c++ {
			var sum float64
			for _, info := range infos {
				gain := info.Volume.Multiply(softVolume).Gain(c)
				sum += info.Chunk.Signal().Sample(f*channels+c) * gain
			}
			dst.SetSample(f*channels+c, sum)
		}
	}
	return length
}

// inputsDrop is the commit step of a pull: advance every currently
// attached input that contributed to this pass by length frames, and
// release the per-pass chunk reference. It walks the roster with a
// rotating cursor into infos rather than an O(n²) search, exploiting the
// common case that roster order and info order agree; any info entries
// left unmatched (the input vanished mid-pass) are released in a
// cleanup pass.
func (s *Sink) inputsDrop(infos []MixInfo, length int) {
	matched := make([]bool, len(infos))
	p := 0
	n := len(infos)
	s.render.forEach(func(e *rosterEntry) {
		for i := 0; i < n; i++ {
			idx := (p + i) % n
			if matched[idx] || infos[idx].Input != e.input {
				continue
			}
			e.input.Drop(length)
			infos[idx].Chunk.Unref()
			matched[idx] = true
			p = idx + 1
			return
		}
	})
	for i, m := range matched {
		if !m {
			infos[i].Chunk.Unref()
		}
	}
}

// render is render(length, &result) from spec.md §4.4: allocate and
// return a mixed chunk no longer than length.
func (s *Sink) render(length int) *membuf.Block {
	s.drainMailbox()
	s.clearPendingRewind()

	if length <= 0 {
		length = MixBufferLength
	}
	if length > s.blockSizeMax {
		length = s.blockSizeMax
	}
	length = frameAlign(length, s.sampleSpec.channels)

	var result *membuf.Block
	if s.thread.state != StateRunning {
		result = s.silence.Slice(0, length)
	} else {
		infos, n := s.fillMixInfo(length, MaxMixChannels)
		switch len(infos) {
		case 0:
			result = s.silence.Truncate(length)
		case 1:
			result = s.renderOneContributor(infos[0], n)
		default:
			result = s.renderManyContributors(infos, n)
		}
		s.inputsDrop(infos, result.Len())
	}

	s.postToMonitor(result)
	return result
}

// renderOneContributor is the 1-contributor fast path: alias the
// contributor's chunk; only materialize a writable copy if volume or
// mute actually needs to change what's heard.
func (s *Sink) renderOneContributor(info MixInfo, length int) *membuf.Block {
	effective := info.Volume.Multiply(s.thread.softVolume)
	chunk := info.Chunk.Truncate(length)
	if s.thread.softMuted || effective.IsMuted() {
		writable := chunk.MakeWritable(s.pool)
		silenceFill(writable.Signal())
		return writable
	}
	if !effective.IsUnit() {
		writable := chunk.MakeWritable(s.pool)
		applyGain(writable.Signal(), effective)
		return writable
	}
	return chunk
}

// renderManyContributors is the N-contributor path: allocate a fresh
// block and call mix into it.
func (s *Sink) renderManyContributors(infos []MixInfo, length int) *membuf.Block {
	buf := s.pool.Float64()
	block := membuf.New(buf, s.pool)
	n := mix(block.Signal(), infos, s.thread.softVolume, s.thread.softMuted)
	return block.Truncate(n)
}

// renderInto is render_into(target) from spec.md §4.4: write into a
// caller-provided writable target instead of allocating.
func (s *Sink) renderInto(target signal.Floating) int {
	s.drainMailbox()
	s.clearPendingRewind()

	length := target.Len()
	if length > s.blockSizeMax {
		length = s.blockSizeMax
	}
	length = frameAlign(length, s.sampleSpec.channels)

	if s.thread.state != StateRunning {
		n := silenceInto(target, length)
		return n
	}

	infos, n := s.fillMixInfo(length, MaxMixChannels)
	var written int
	switch len(infos) {
	case 0:
		written = silenceInto(target, length)
	case 1:
		written = s.renderOneInto(target, infos[0], n)
	default:
		written = mix(target.Slice(0, n), infos, s.thread.softVolume, s.thread.softMuted)
	}
	s.inputsDrop(infos, written)
	s.postToMonitor(membuf.New(target.Slice(0, written), nil))
	return written
}

func (s *Sink) renderOneInto(target signal.Floating, info MixInfo, length int) int {
	effective := info.Volume.Multiply(s.thread.softVolume)
	dst := target.Slice(0, length)
	signal.FloatingAsFloating(info.Chunk.Signal(), dst)
	if s.thread.softMuted || effective.IsMuted() {
		silenceFill(dst)
	} else if !effective.IsUnit() {
		applyGain(dst, effective)
	}
	return length
}

// renderIntoFull is render_into_full(target): repeatedly render_into the
// unfilled suffix of target until it is entirely full.
func (s *Sink) renderIntoFull(target signal.Floating) {
	pos := 0
	total := target.Len()
	for pos < total {
		n := s.renderInto(target.Slice(pos, total))
		if n <= 0 {
			break
		}
		pos += n
	}
}

// renderFull is render_full(length, &result): allocate result and call
// renderIntoFull.
func (s *Sink) renderFull(length int) *membuf.Block {
	buf := s.pool.Float64()
	block := membuf.New(buf, s.pool)
	s.renderIntoFull(block.Signal().Slice(0, length))
	return block.Truncate(length)
}

// Skip is skip(length) from spec.md §4.4: if the monitor has consumers,
// real audio must still flow (so monitor listeners hear silence-free
// truth), so skip falls back to render() in a loop and discards the
// results — but render() already posts to the monitor, so skip must not
// post a second time (spec.md §9's open question).
func (s *Sink) Skip(length int) {
	if s.monitor != nil && s.monitor.hasConsumers() {
		remaining := length
		for remaining > 0 {
			chunk := s.render(remaining)
			remaining -= chunk.Len()
			chunk.Unref()
		}
		return
	}
	s.drainMailbox()
	s.render.forEach(func(e *rosterEntry) { e.input.Drop(length) })
}

func silenceFill(buf signal.Floating) {
	for i := 0; i < buf.Len()*buf.Channels(); i++ {
		buf.SetSample(i, 0)
	}
}

func silenceInto(target signal.Floating, length int) int {
	dst := target.Slice(0, length)
	silenceFill(dst)
	return length
}

func applyGain(buf signal.Floating, v CVolume) {
	channels := buf.Channels()
	for f := 0; f < buf.Len(); f++ {
		for c := 0; c < channels; c++ {
			i := f*channels + c
			buf.SetSample(i, buf.Sample(i)*v.Gain(c))
		}
	}
}
