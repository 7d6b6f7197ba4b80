package tonal

import "math"

// PitchClass is one of the 12 octave-independent note names
type PitchClass string

// pitchClassNames indexes pitch classes by semitone (0=C .. 11=B)
var pitchClassNames = [12]PitchClass{
	"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B",
}

// PitchClassName returns the name for a semitone index, wrapping mod 12
func PitchClassName(semitone int) PitchClass {
	return pitchClassNames[((semitone%12)+12)%12]
}

// FrequencyToMIDI converts a frequency in Hz to a fractional MIDI note
// number in equal temperament with A4 = 440 Hz.
func FrequencyToMIDI(freq float64) float64 {
	return 12.0*math.Log2(freq/440.0) + 69.0
}

// FrequencyToSemitone converts a frequency to its pitch-class index (0-11)
func FrequencyToSemitone(freq float64) int {
	midi := int(math.Round(FrequencyToMIDI(freq)))
	return ((midi % 12) + 12) % 12
}

// FrequencyToPitchClass converts a frequency to its pitch-class name
func FrequencyToPitchClass(freq float64) PitchClass {
	return pitchClassNames[FrequencyToSemitone(freq)]
}
