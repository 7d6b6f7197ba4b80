package spectral

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Peak represents a detected spectral peak kept as a fundamental
type Peak struct {
	Frequency float64 // Peak frequency in Hz
	Magnitude float64 // Peak magnitude
	BinIndex  int     // Originating spectrum bin
}

// PeakConfig controls peak picking and harmonic rejection
type PeakConfig struct {
	MinFrequency      float64 `json:"min_frequency"`      // Lower band edge in Hz
	MaxFrequency      float64 `json:"max_frequency"`      // Upper band edge in Hz
	RelativeThreshold float64 `json:"relative_threshold"` // Fraction of the spectrum maximum
	MaxFundamentals   int     `json:"max_fundamentals"`   // Cap on kept fundamentals
	HarmonicTolerance float64 `json:"harmonic_tolerance"` // Relative tolerance for integer-multiple matching
}

// DefaultPeakConfig returns the peak picking defaults tuned for
// chord detection over the musical pitch range.
func DefaultPeakConfig() PeakConfig {
	return PeakConfig{
		MinFrequency:      60.0,
		MaxFrequency:      2000.0,
		RelativeThreshold: 0.1,
		MaxFundamentals:   6,
		HarmonicTolerance: 0.05,
	}
}

// FindPeaks scans a magnitude spectrum for fundamental-frequency peaks.
//
// A bin qualifies when it is strictly greater than its two neighbors on each
// side, lies within the configured band, and exceeds the relative magnitude
// threshold. Candidates are ranked by magnitude and a candidate is kept only
// if it is not a harmonic (integer multiple within tolerance, ratio > 1.5)
// of an already-kept fundamental, up to MaxFundamentals.
func FindPeaks(spectrum *Spectrum, cfg PeakConfig) []Peak {
	if spectrum == nil || len(spectrum.Magnitudes) < 5 {
		return []Peak{}
	}

	maxMag := floats.Max(spectrum.Magnitudes)
	if maxMag <= 0 {
		return []Peak{}
	}
	threshold := maxMag * cfg.RelativeThreshold

	var candidates []Peak
	mags := spectrum.Magnitudes
	for i := 2; i < len(mags)-2; i++ {
		freq := spectrum.Frequencies[i]
		if freq < cfg.MinFrequency || freq > cfg.MaxFrequency {
			continue
		}
		if mags[i] <= threshold {
			continue
		}
		if mags[i] > mags[i-1] && mags[i] > mags[i-2] &&
			mags[i] > mags[i+1] && mags[i] > mags[i+2] {
			candidates = append(candidates, Peak{
				Frequency: freq,
				Magnitude: mags[i],
				BinIndex:  i,
			})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Magnitude > candidates[j].Magnitude
	})

	var fundamentals []Peak
	for _, cand := range candidates {
		if len(fundamentals) >= cfg.MaxFundamentals {
			break
		}
		if !isHarmonicOfAny(cand.Frequency, fundamentals, cfg.HarmonicTolerance) {
			fundamentals = append(fundamentals, cand)
		}
	}

	if fundamentals == nil {
		return []Peak{}
	}
	return fundamentals
}

// isHarmonicOfAny reports whether freq sits on an integer multiple of any
// kept fundamental. Only ratios above 1.5 count: anything closer is a
// distinct tone, not an overtone.
func isHarmonicOfAny(freq float64, kept []Peak, tolerance float64) bool {
	for _, p := range kept {
		ratio := freq / p.Frequency
		if ratio <= 1.5 {
			continue
		}
		nearest := math.Round(ratio)
		if nearest >= 2 && math.Abs(ratio-nearest)/nearest < tolerance {
			return true
		}
	}
	return false
}

// Frequencies extracts just the peak frequencies, ordered by magnitude,
// ready to feed the chord identifier.
func Frequencies(peaks []Peak) []float64 {
	freqs := make([]float64, len(peaks))
	for i, p := range peaks {
		freqs[i] = p.Frequency
	}
	return freqs
}
