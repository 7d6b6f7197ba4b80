package tonal

import (
	"strings"
)

// ChordMatch is the result of identifying a chord from detected frequencies
type ChordMatch struct {
	Label        string     `json:"label"`         // Full human-readable name, e.g. "A minor"
	Root         PitchClass `json:"root"`          // Root note of the best match
	IntervalType string     `json:"interval_type"` // Template name, e.g. "minor7"
	Confidence   float64    `json:"confidence"`    // Match confidence (0-1)
	SourceNotes  []string   `json:"source_notes"`  // Unique pitch classes the match was built from
}

// chordTemplate pairs a quality name with its interval set relative to the root
type chordTemplate struct {
	name      string
	intervals []int
}

// chordTemplates holds the interval templates scored against candidate roots.
// Intervals are semitones mod 12, ascending.
var chordTemplates = []chordTemplate{
	{"major", []int{0, 4, 7}},
	{"minor", []int{0, 3, 7}},
	{"diminished", []int{0, 3, 6}},
	{"augmented", []int{0, 4, 8}},
	{"major7", []int{0, 4, 7, 11}},
	{"minor7", []int{0, 3, 7, 10}},
	{"dominant7", []int{0, 4, 7, 10}},
	{"diminished7", []int{0, 3, 6, 9}},
	{"half-diminished7", []int{0, 3, 6, 10}},
	{"sus2", []int{0, 2, 7}},
	{"sus4", []int{0, 5, 7}},
	{"add9", []int{0, 2, 4, 7}}, // 14 mod 12
	{"sixth", []int{0, 4, 7, 9}},
	{"minor6", []int{0, 3, 7, 9}},
	{"power", []int{0, 7}},
}

// Identifier scores detected frequencies against chord interval templates.
// It is a pure function wrapper with no hidden state.
type Identifier struct{}

// NewIdentifier creates a new chord identifier
func NewIdentifier() *Identifier {
	return &Identifier{}
}

// Identify maps frequencies to pitch classes and finds the best-scoring
// chord interpretation. Candidate roots are tried in the fixed 12-note
// order (C upward) so ties resolve reproducibly.
func (id *Identifier) Identify(frequencies []float64) ChordMatch {
	if len(frequencies) == 0 {
		return ChordMatch{
			Label:        "no chord",
			IntervalType: "none",
			Confidence:   0,
			SourceNotes:  []string{},
		}
	}

	// Deduplicate to unique pitch classes, preserving the fixed note order.
	var present [12]bool
	for _, f := range frequencies {
		if f > 0 {
			present[FrequencyToSemitone(f)] = true
		}
	}

	var classes []int
	var names []string
	for pc := 0; pc < 12; pc++ {
		if present[pc] {
			classes = append(classes, pc)
			names = append(names, string(pitchClassNames[pc]))
		}
	}

	if len(classes) == 0 {
		return ChordMatch{
			Label:        "no chord",
			IntervalType: "none",
			Confidence:   0,
			SourceNotes:  []string{},
		}
	}

	if len(frequencies) == 1 {
		root := pitchClassNames[classes[0]]
		return ChordMatch{
			Label:        string(root),
			Root:         root,
			IntervalType: "single note",
			Confidence:   1,
			SourceNotes:  names,
		}
	}

	if len(classes) == 1 {
		root := pitchClassNames[classes[0]]
		return ChordMatch{
			Label:        string(root) + " unison",
			Root:         root,
			IntervalType: "unison",
			Confidence:   0.9,
			SourceNotes:  names,
		}
	}

	bestScore := -1.0
	bestRoot := 0
	bestType := ""
	for _, root := range classes {
		intervals := intervalsFromRoot(classes, root)
		for _, tmpl := range chordTemplates {
			score := scoreTemplate(intervals, tmpl.intervals)
			if score > bestScore {
				bestScore = score
				bestRoot = root
				bestType = tmpl.name
			}
		}
	}

	if bestScore < 0.5 {
		return ChordMatch{
			Label:        strings.Join(names, "-") + " cluster",
			Root:         pitchClassNames[classes[0]],
			IntervalType: "cluster",
			Confidence:   0.3,
			SourceNotes:  names,
		}
	}

	root := pitchClassNames[bestRoot]
	return ChordMatch{
		Label:        string(root) + " " + bestType,
		Root:         root,
		IntervalType: bestType,
		Confidence:   clampUnit(bestScore),
		SourceNotes:  names,
	}
}

// intervalsFromRoot computes each class's interval mod 12 from the root,
// ascending. The root itself contributes interval 0.
func intervalsFromRoot(classes []int, root int) []int {
	intervals := make([]int, 0, len(classes))
	for pc := 0; pc < 12; pc++ {
		for _, c := range classes {
			if c == ((root+pc)%12+12)%12 {
				intervals = append(intervals, pc)
				break
			}
		}
	}
	return intervals
}

// scoreTemplate scores an interval set against one template:
// (matched template intervals / template size) minus a 0.1 penalty
// per interval outside the template.
func scoreTemplate(intervals, template []int) float64 {
	matched := 0
	for _, t := range template {
		for _, iv := range intervals {
			if iv == t {
				matched++
				break
			}
		}
	}

	extras := 0
	for _, iv := range intervals {
		found := false
		for _, t := range template {
			if iv == t {
				found = true
				break
			}
		}
		if !found {
			extras++
		}
	}

	return float64(matched)/float64(len(template)) - 0.1*float64(extras)
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
