package session

import (
	"time"

	"github.com/beatlabhq/beatlab-engine/analysis/spectral"
	"github.com/beatlabhq/beatlab-engine/analysis/temporal"
	"github.com/beatlabhq/beatlab-engine/pattern"
)

// EngineConfig holds every tunable of the engine core. Components read
// their knobs from it at construction; nothing consults globals.
type EngineConfig struct {
	SampleRate         int           `json:"sample_rate"`
	AnalysisWindowSize int           `json:"analysis_window_size"`
	CaptureWindow      time.Duration `json:"capture_window"` // Rolling stream-buffer cap
	PatternLength      int           `json:"pattern_length"` // Target steps for imported patterns

	Peak spectral.PeakConfig     `json:"peak"`
	Beat temporal.DetectorConfig `json:"beat"`

	// Initial timeline parameters
	BPM         float64 `json:"bpm"`
	Swing       float64 `json:"swing"` // Reserved
	Bars        int     `json:"bars"`
	StepsPerBar int     `json:"steps_per_bar"`
}

// DefaultEngineConfig returns sensible defaults for a 16th-note grid at
// 120 BPM over a 2 second capture window.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		SampleRate:         44100,
		AnalysisWindowSize: 4096,
		CaptureWindow:      2 * time.Second,
		PatternLength:      pattern.DefaultTargetLength,
		Peak:               spectral.DefaultPeakConfig(),
		Beat:               temporal.DefaultDetectorConfig(),
		BPM:                120,
		Swing:              0,
		Bars:               4,
		StepsPerBar:        16,
	}
}
