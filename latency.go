package sink

// getRequestedLatencyWithinThread implements spec.md §4.6: return the
// cached value if valid; otherwise compute the minimum requested latency
// across inputs (ignoring inputs with no preference), clamp it to
// [min_latency, max_latency] (each endpoint applied only if nonzero),
// cache it, and mark it valid. Unset inputs contribute nothing; if no
// input has a preference, the result is 0.
func (s *Sink) getRequestedLatencyWithinThread() int64 {
	if s.thread.requestedLatencyValid {
		return s.thread.requestedLatency
	}

	var (
		min   int64
		found bool
	)
	s.render.forEach(func(e *rosterEntry) {
		usec, ok := e.input.RequestedLatency()
		if !ok {
			return
		}
		if !found || usec < min {
			min = usec
			found = true
		}
	})

	result := int64(0)
	if found {
		result = min
		if s.minLatency != 0 && result < s.minLatency {
			result = s.minLatency
		}
		if s.maxLatency != 0 && result > s.maxLatency {
			result = s.maxLatency
		}
	}

	s.thread.requestedLatency = result
	s.thread.requestedLatencyValid = true
	return result
}

// invalidateRequestedLatency clears the cache and, if a driver callback
// is installed, notifies it so the driver can re-read. Every input
// add/remove and every move calls this.
func (s *Sink) invalidateRequestedLatency() {
	s.thread.requestedLatencyValid = false
	s.thread.maxRequestValid = false
	if s.driver.UpdateRequestedLatency != nil {
		s.driver.UpdateRequestedLatency(s)
	}
}

// getMaxRequestWithinThread computes the companion negotiation named in
// SPEC_FULL.md's supplemented feature 2: the largest single pull the sink
// should ask its driver for, taken as the requested latency translated to
// a frame count at the sample spec's rate, then capped at blockSizeMax.
// Memoized and invalidated alongside requested latency.
func (s *Sink) getMaxRequestWithinThread() int {
	if s.thread.maxRequestValid {
		return s.thread.maxRequest
	}
	usec := s.getRequestedLatencyWithinThread()
	frames := int(usec * int64(s.sampleSpec.rate) / 1_000_000)
	frames = frameAlign(frames, s.sampleSpec.channels)
	if frames > s.blockSizeMax {
		frames = frameAlign(s.blockSizeMax, s.sampleSpec.channels)
	}
	s.thread.maxRequest = frames
	s.thread.maxRequestValid = true
	return frames
}

// GetRequestedLatency is the control-thread entry point: it sends a
// synchronous GET_REQUESTED_LATENCY message per spec.md §4.8.
func (s *Sink) GetRequestedLatency() int64 {
	v, err := s.mailbox.send(msgGetRequestedLatency, nil)
	if err != nil {
		return 0
	}
	return v.(int64)
}

// GetMaxRequest is GetRequestedLatency's companion for the max-request
// negotiation.
func (s *Sink) GetMaxRequest() int {
	v, err := s.mailbox.send(msgGetMaxRequest, nil)
	if err != nil {
		return 0
	}
	return v.(int)
}
