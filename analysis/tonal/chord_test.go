package tonal

import "testing"

// TestFrequencyToPitchClass_References checks the equal-tempered anchors
func TestFrequencyToPitchClass_References(t *testing.T) {
	cases := []struct {
		freq float64
		want PitchClass
	}{
		{440.0, "A"},
		{261.63, "C"},
		{880.0, "A"},
		{329.63, "E"},
		{466.16, "A#"},
	}
	for _, c := range cases {
		if got := FrequencyToPitchClass(c.freq); got != c.want {
			t.Errorf("FrequencyToPitchClass(%.2f) = %q, want %q", c.freq, got, c.want)
		}
	}
}

// TestIdentify_AMinorTriad matches the [0,3,7] template at full confidence
func TestIdentify_AMinorTriad(t *testing.T) {
	// A4, C5, E5
	match := NewIdentifier().Identify([]float64{440.0, 523.25, 659.25})

	if match.Label != "A minor" {
		t.Errorf("label = %q, want %q", match.Label, "A minor")
	}
	if match.Root != "A" {
		t.Errorf("root = %q, want A", match.Root)
	}
	if match.IntervalType != "minor" {
		t.Errorf("interval type = %q, want minor", match.IntervalType)
	}
	if match.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", match.Confidence)
	}
}

// TestIdentify_CMajorTriad matches the [0,4,7] template
func TestIdentify_CMajorTriad(t *testing.T) {
	// C4, E4, G4
	match := NewIdentifier().Identify([]float64{261.63, 329.63, 392.0})

	if match.Label != "C major" {
		t.Errorf("label = %q, want %q", match.Label, "C major")
	}
	if match.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", match.Confidence)
	}
}

// TestIdentify_Dominant7 matches a four-note template
func TestIdentify_Dominant7(t *testing.T) {
	// G3, B3, D4, F4
	match := NewIdentifier().Identify([]float64{196.0, 246.94, 293.66, 349.23})

	if match.Label != "G dominant7" {
		t.Errorf("label = %q, want %q", match.Label, "G dominant7")
	}
}

// TestIdentify_NoNotes returns the explicit zero-confidence result
func TestIdentify_NoNotes(t *testing.T) {
	match := NewIdentifier().Identify(nil)

	if match.Label != "no chord" {
		t.Errorf("label = %q, want %q", match.Label, "no chord")
	}
	if match.Confidence != 0 {
		t.Errorf("confidence = %v, want 0", match.Confidence)
	}
}

// TestIdentify_SingleNote labels the note itself
func TestIdentify_SingleNote(t *testing.T) {
	match := NewIdentifier().Identify([]float64{440.0})

	if match.Label != "A" {
		t.Errorf("label = %q, want A", match.Label)
	}
	if match.IntervalType != "single note" {
		t.Errorf("interval type = %q, want %q", match.IntervalType, "single note")
	}
	if match.Confidence != 1.0 {
		t.Errorf("confidence = %v, want 1.0", match.Confidence)
	}
}

// TestIdentify_Unison collapses octaves of one pitch class
func TestIdentify_Unison(t *testing.T) {
	match := NewIdentifier().Identify([]float64{220.0, 440.0, 880.0})

	if match.IntervalType != "unison" {
		t.Errorf("interval type = %q, want unison", match.IntervalType)
	}
	if match.Confidence != 0.9 {
		t.Errorf("confidence = %v, want 0.9", match.Confidence)
	}
}

// TestIdentify_ClusterFallback kicks in when no template scores >= 0.5
func TestIdentify_ClusterFallback(t *testing.T) {
	// C4, C#4, D4, D#4: a chromatic cluster no template explains.
	match := NewIdentifier().Identify([]float64{261.63, 277.18, 293.66, 311.13})

	if match.IntervalType != "cluster" {
		t.Errorf("interval type = %q, want cluster", match.IntervalType)
	}
	if match.Confidence != 0.3 {
		t.Errorf("confidence = %v, want 0.3", match.Confidence)
	}
	if match.Label != "C-C#-D-D# cluster" {
		t.Errorf("label = %q, want %q", match.Label, "C-C#-D-D# cluster")
	}
}

// TestIdentify_ConfidenceBounds holds for arbitrary inputs
func TestIdentify_ConfidenceBounds(t *testing.T) {
	inputs := [][]float64{
		{440},
		{440, 880},
		{100, 150, 200, 250, 300, 350},
		{261.63, 277.18, 311.13, 349.23, 392.0, 415.3},
		{60, 2000},
	}
	for _, freqs := range inputs {
		match := NewIdentifier().Identify(freqs)
		if match.Confidence < 0 || match.Confidence > 1 {
			t.Errorf("Identify(%v) confidence = %v, outside [0,1]", freqs, match.Confidence)
		}
	}
}
