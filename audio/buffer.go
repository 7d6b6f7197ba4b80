package audio

import (
	"fmt"
	"math"
	"time"
)

// SampleBuffer represents decoded audio data handed to the analyzers.
// The sample slice is owned by the caller and treated as read-only here;
// analyzers never mutate or retain it.
type SampleBuffer struct {
	Samples    []float64 `json:"-"` // Raw PCM data, interleaved if Channels > 1
	SampleRate int       `json:"sample_rate"`
	Channels   int       `json:"channels"`
}

// AnalysisError indicates the supplied buffer cannot be interpreted at all.
// Analyzers otherwise degrade to zero/empty results rather than failing.
type AnalysisError struct {
	Op     string
	Reason string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("analysis %s: %s", e.Op, e.Reason)
}

// NewSampleBuffer validates and wraps raw PCM data.
func NewSampleBuffer(samples []float64, sampleRate, channels int) (*SampleBuffer, error) {
	if sampleRate <= 0 {
		return nil, &AnalysisError{Op: "buffer", Reason: fmt.Sprintf("invalid sample rate %d", sampleRate)}
	}
	if channels <= 0 {
		return nil, &AnalysisError{Op: "buffer", Reason: fmt.Sprintf("invalid channel count %d", channels)}
	}
	return &SampleBuffer{
		Samples:    samples,
		SampleRate: sampleRate,
		Channels:   channels,
	}, nil
}

// Empty reports whether the buffer carries no samples
func (b *SampleBuffer) Empty() bool {
	return b == nil || len(b.Samples) == 0
}

// Duration returns the playable length of the buffer
func (b *SampleBuffer) Duration() time.Duration {
	if b.Empty() {
		return 0
	}
	frames := len(b.Samples) / b.Channels
	return time.Duration(float64(frames) / float64(b.SampleRate) * float64(time.Second))
}

// Mono returns a single-channel view of the buffer, averaging channels
// for interleaved multi-channel data. Mono input is returned as-is.
func (b *SampleBuffer) Mono() []float64 {
	if b.Empty() {
		return []float64{}
	}
	if b.Channels == 1 {
		return b.Samples
	}

	frames := len(b.Samples) / b.Channels
	mono := make([]float64, frames)
	for i := 0; i < frames; i++ {
		sum := 0.0
		for c := 0; c < b.Channels; c++ {
			sum += b.Samples[i*b.Channels+c]
		}
		mono[i] = sum / float64(b.Channels)
	}
	return mono
}

// Validate checks the buffer for data the analyzers can interpret.
// A buffer whose samples are all non-finite is as unusable as an empty one.
func (b *SampleBuffer) Validate() error {
	if b.Empty() {
		return &AnalysisError{Op: "buffer", Reason: "empty buffer"}
	}
	for _, s := range b.Samples {
		if !math.IsNaN(s) && !math.IsInf(s, 0) {
			return nil
		}
	}
	return &AnalysisError{Op: "buffer", Reason: "no finite samples"}
}
