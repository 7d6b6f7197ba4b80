package temporal

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/beatlabhq/beatlab-engine/audio"
)

// BeatEstimate is the output of tempo detection
type BeatEstimate struct {
	BPM           float64   `json:"bpm"`            // Estimated tempo, 0 if undetectable
	Confidence    float64   `json:"confidence"`     // Estimate confidence (0-1)
	BeatTimes     []float64 `json:"beat_times"`     // Accepted beat positions in seconds
	TimeSignature string    `json:"time_signature"` // "4/4", "3/4" or "6/8"
}

// DetectorConfig controls onset picking and the accepted tempo range
type DetectorConfig struct {
	LowPassHz        float64 `json:"low_pass_hz"`        // Rhythm-band cutoff
	EnvelopeWindowMs float64 `json:"envelope_window_ms"` // RMS frame length
	LocalWindowMs    float64 `json:"local_window_ms"`    // Local-average span each side of a sample
	OnsetRatio       float64 `json:"onset_ratio"`        // Required excess over the local average
	MinBeatGapMs     float64 `json:"min_beat_gap_ms"`    // Refractory period between beats
	MinBPM           float64 `json:"min_bpm"`            // Lower tempo bound
	MaxBPM           float64 `json:"max_bpm"`            // Upper tempo bound
}

// DefaultDetectorConfig returns the beat detection defaults
func DefaultDetectorConfig() DetectorConfig {
	return DetectorConfig{
		LowPassHz:        200.0,
		EnvelopeWindowMs: 10.0,
		LocalWindowMs:    430.0,
		OnsetRatio:       1.3,
		MinBeatGapMs:     200.0,
		MinBPM:           60.0,
		MaxBPM:           200.0,
	}
}

// Detector estimates tempo and time signature from a sample buffer
type Detector struct {
	cfg DetectorConfig
}

// NewDetector creates a beat detector with the given configuration
func NewDetector(cfg DetectorConfig) *Detector {
	return &Detector{cfg: cfg}
}

// zeroEstimate is returned whenever fewer than two beats were found
func zeroEstimate() *BeatEstimate {
	return &BeatEstimate{TimeSignature: "4/4", BeatTimes: []float64{}}
}

// Detect runs the full detection pipeline: low-pass to the rhythm band,
// RMS energy envelope, local-average onset picking, then a tempo estimate
// from the inter-beat intervals. Fewer than two detected beats yields the
// explicit zero-confidence estimate rather than an error; only a buffer
// that cannot be interpreted at all fails.
func (d *Detector) Detect(buf *audio.SampleBuffer) (*BeatEstimate, error) {
	if err := buf.Validate(); err != nil {
		return nil, err
	}

	mono := buf.Mono()
	filtered := d.lowPass(mono, buf.SampleRate)

	frameSize := int(d.cfg.EnvelopeWindowMs / 1000.0 * float64(buf.SampleRate))
	if frameSize < 2 {
		frameSize = 2
	}
	hopSize := frameSize / 2
	envelope := rmsEnvelope(filtered, frameSize, hopSize)
	hopSeconds := float64(hopSize) / float64(buf.SampleRate)

	beatTimes := d.pickBeats(envelope, hopSeconds)
	if len(beatTimes) < 2 {
		return zeroEstimate(), nil
	}

	candidates := d.bpmCandidates(beatTimes)
	if len(candidates) == 0 {
		return zeroEstimate(), nil
	}

	sort.Float64s(candidates)
	median := stat.Quantile(0.5, stat.Empirical, candidates, nil)
	bpm := math.Round(median)

	confidence := 0.0
	if median > 0 {
		sigma := 0.0
		if len(candidates) > 1 {
			sigma = stat.StdDev(candidates, nil)
		}
		confidence = math.Max(0, 1.0-sigma/median)
	}

	return &BeatEstimate{
		BPM:           bpm,
		Confidence:    confidence,
		BeatTimes:     beatTimes,
		TimeSignature: d.timeSignature(beatTimes, bpm),
	}, nil
}

// lowPass applies a single-pole IIR low-pass at the configured cutoff
func (d *Detector) lowPass(signal []float64, sampleRate int) []float64 {
	rc := 1.0 / (2.0 * math.Pi * d.cfg.LowPassHz)
	dt := 1.0 / float64(sampleRate)
	alpha := dt / (rc + dt)

	out := make([]float64, len(signal))
	prev := 0.0
	for i, x := range signal {
		prev += alpha * (x - prev)
		out[i] = prev
	}
	return out
}

// rmsEnvelope computes the RMS energy envelope with 50% hop
func rmsEnvelope(signal []float64, frameSize, hopSize int) []float64 {
	if len(signal) < frameSize {
		return []float64{}
	}

	numFrames := (len(signal)-frameSize)/hopSize + 1
	envelope := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		start := i * hopSize
		sumSquares := 0.0
		for j := start; j < start+frameSize; j++ {
			sumSquares += signal[j] * signal[j]
		}
		envelope[i] = math.Sqrt(sumSquares / float64(frameSize))
	}
	return envelope
}

// pickBeats flags envelope samples that exceed the local average by the
// onset ratio and are local maxima, enforcing the refractory gap. The
// local-window span at each end of the envelope is skipped so every
// retained sample has a full window around it.
func (d *Detector) pickBeats(envelope []float64, hopSeconds float64) []float64 {
	margin := int(d.cfg.LocalWindowMs / 1000.0 / hopSeconds)
	if margin < 1 || len(envelope) <= 2*margin {
		return nil
	}
	minGap := d.cfg.MinBeatGapMs / 1000.0

	var beats []float64
	lastBeat := math.Inf(-1)
	for i := margin; i < len(envelope)-margin; i++ {
		sum := 0.0
		for j := i - margin; j <= i+margin; j++ {
			sum += envelope[j]
		}
		localAverage := sum / float64(2*margin+1)

		if envelope[i] <= localAverage*d.cfg.OnsetRatio {
			continue
		}
		if envelope[i] <= envelope[i-1] || envelope[i] < envelope[i+1] {
			continue
		}

		t := float64(i) * hopSeconds
		if t-lastBeat < minGap {
			continue
		}
		beats = append(beats, t)
		lastBeat = t
	}
	return beats
}

// bpmCandidates converts consecutive beat intervals into BPM values within
// the accepted range. Out-of-range values are halved/doubled back into
// range on a second pass before giving up on them.
func (d *Detector) bpmCandidates(beatTimes []float64) []float64 {
	var candidates []float64
	var outOfRange []float64

	for i := 1; i < len(beatTimes); i++ {
		interval := beatTimes[i] - beatTimes[i-1]
		if interval <= 0 {
			continue
		}
		bpm := 60.0 / interval
		if bpm >= d.cfg.MinBPM && bpm <= d.cfg.MaxBPM {
			candidates = append(candidates, bpm)
		} else {
			outOfRange = append(outOfRange, bpm)
		}
	}

	if len(candidates) > 0 {
		return candidates
	}

	for _, bpm := range outOfRange {
		for bpm > d.cfg.MaxBPM {
			bpm /= 2
		}
		for bpm < d.cfg.MinBPM {
			bpm *= 2
		}
		if bpm >= d.cfg.MinBPM && bpm <= d.cfg.MaxBPM {
			candidates = append(candidates, bpm)
		}
	}
	return candidates
}

// timeSignature compares the mean beat interval to the quarter-note
// duration at the estimated tempo. Needs at least 8 beats to call
// anything other than 4/4.
func (d *Detector) timeSignature(beatTimes []float64, bpm float64) string {
	if len(beatTimes) < 8 || bpm <= 0 {
		return "4/4"
	}

	total := 0.0
	for i := 1; i < len(beatTimes); i++ {
		total += beatTimes[i] - beatTimes[i-1]
	}
	meanInterval := total / float64(len(beatTimes)-1)
	ratio := meanInterval / (60.0 / bpm)

	switch {
	case math.Abs(ratio-1.5) < 0.1:
		return "6/8"
	case math.Abs(ratio-0.75) < 0.1:
		return "3/4"
	default:
		return "4/4"
	}
}
