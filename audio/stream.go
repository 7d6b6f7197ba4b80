package audio

import "time"

// StreamBuffer is a bounded rolling capture buffer for streaming analysis
// (e.g. a live input feeding chord detection). Incoming chunks are appended
// and the oldest samples are evicted once the configured cap is exceeded,
// so memory stays bounded no matter how long the stream runs.
//
// One writer and one reader operate in the same synchronous callback, so no
// locking is required.
type StreamBuffer struct {
	samples    []float64
	sampleRate int
	channels   int
	maxSamples int
}

// NewStreamBuffer creates a rolling buffer capped at maxDuration of audio.
func NewStreamBuffer(sampleRate, channels int, maxDuration time.Duration) (*StreamBuffer, error) {
	if sampleRate <= 0 {
		return nil, &AnalysisError{Op: "stream", Reason: "invalid sample rate"}
	}
	if channels <= 0 {
		return nil, &AnalysisError{Op: "stream", Reason: "invalid channel count"}
	}
	if maxDuration <= 0 {
		return nil, &AnalysisError{Op: "stream", Reason: "non-positive capture window"}
	}

	maxFrames := int(maxDuration.Seconds() * float64(sampleRate))
	return &StreamBuffer{
		sampleRate: sampleRate,
		channels:   channels,
		maxSamples: maxFrames * channels,
	}, nil
}

// Append adds a chunk of interleaved samples, evicting the oldest samples
// once the cap is exceeded. Capacity is enforced on every call.
func (s *StreamBuffer) Append(chunk []float64) {
	if len(chunk) == 0 {
		return
	}

	if len(chunk) >= s.maxSamples {
		// Chunk alone fills the window; keep only its tail.
		s.samples = append(s.samples[:0], chunk[len(chunk)-s.maxSamples:]...)
		return
	}

	s.samples = append(s.samples, chunk...)
	if excess := len(s.samples) - s.maxSamples; excess > 0 {
		s.samples = append(s.samples[:0], s.samples[excess:]...)
	}
}

// Len returns the number of buffered samples
func (s *StreamBuffer) Len() int {
	return len(s.samples)
}

// Cap returns the maximum number of samples retained
func (s *StreamBuffer) Cap() int {
	return s.maxSamples
}

// Snapshot copies the current window into a SampleBuffer for analysis.
// The copy keeps the analyzers' read-only borrow independent of later appends.
func (s *StreamBuffer) Snapshot() *SampleBuffer {
	out := make([]float64, len(s.samples))
	copy(out, s.samples)
	return &SampleBuffer{
		Samples:    out,
		SampleRate: s.sampleRate,
		Channels:   s.channels,
	}
}

// Reset drops all buffered samples
func (s *StreamBuffer) Reset() {
	s.samples = s.samples[:0]
}
