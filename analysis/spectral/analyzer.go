package spectral

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/beatlabhq/beatlab-engine/audio"
)

// Spectrum holds the magnitude spectrum of one analysis window.
// Frequencies and Magnitudes are parallel slices covering bins up to Nyquist.
type Spectrum struct {
	Frequencies []float64 // Bin center frequencies in Hz
	Magnitudes  []float64 // Bin magnitudes
	SampleRate  int       // Sample rate of the analyzed buffer
	WindowSize  int       // Transform length actually used
}

// Analyzer computes magnitude spectra from sample buffers.
// It is stateless and safe to call from any goroutine; results never
// alias the input buffer.
type Analyzer struct{}

// NewAnalyzer creates a new spectral analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// hannWindow generates periodic Hann coefficients for the given size
func hannWindow(size int) []float64 {
	coeffs := make([]float64, size)
	for i := 0; i < size; i++ {
		coeffs[i] = 0.5 * (1.0 - math.Cos(2*math.Pi*float64(i)/float64(size)))
	}
	return coeffs
}

// Analyze windows the first windowSize samples of the buffer with a Hann
// window, computes the magnitude spectrum, and returns bins up to Nyquist.
// The window is clamped to the buffer length. An empty buffer yields an
// empty Spectrum, not an error.
func (a *Analyzer) Analyze(buf *audio.SampleBuffer, windowSize int) *Spectrum {
	if buf.Empty() || windowSize <= 0 {
		return &Spectrum{
			Frequencies: []float64{},
			Magnitudes:  []float64{},
		}
	}

	mono := buf.Mono()
	if windowSize > len(mono) {
		windowSize = len(mono)
	}

	window := hannWindow(windowSize)
	windowed := make([]float64, windowSize)
	for i := 0; i < windowSize; i++ {
		windowed[i] = mono[i] * window[i]
	}

	bins := fft.FFTReal(windowed)

	// Keep only the non-redundant half of the transform.
	numBins := windowSize/2 + 1
	freqResolution := float64(buf.SampleRate) / float64(windowSize)

	spectrum := &Spectrum{
		Frequencies: make([]float64, numBins),
		Magnitudes:  make([]float64, numBins),
		SampleRate:  buf.SampleRate,
		WindowSize:  windowSize,
	}
	for i := 0; i < numBins; i++ {
		spectrum.Frequencies[i] = float64(i) * freqResolution
		spectrum.Magnitudes[i] = cmplx.Abs(bins[i])
	}

	return spectrum
}
