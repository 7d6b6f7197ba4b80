// Package pattern normalizes instrument->step mappings returned by external
// generation services into fixed-length boolean rows the sequencer can load.
// Generated payloads arrive with arbitrary step counts and inconsistent key
// spellings (hiHat vs hihat vs closedHat), so resolution goes through a
// static alias table rather than ad hoc fallback chains.
package pattern

// DefaultTargetLength is the grid width patterns are normalized to
const DefaultTargetLength = 16

// aliasTable maps each canonical instrument key to the source spellings
// accepted for it. Lookup is first-alias-wins, checked in declaration order.
var aliasTable = []struct {
	canonical string
	aliases   []string
}{
	{"kick", []string{"kick", "kik", "bd", "bassdrum", "bassDrum"}},
	{"snare", []string{"snare", "snr", "sd"}},
	{"hihat", []string{"hihat", "hiHat", "closedHat", "closedhat", "hh"}},
	{"openhat", []string{"openhat", "openHat", "oh"}},
	{"clap", []string{"clap", "cp", "handclap"}},
	{"tom", []string{"tom", "lowTom", "lowtom", "tm"}},
	{"rim", []string{"rim", "rimshot", "rimShot"}},
	{"crash", []string{"crash", "cym", "cymbal"}},
}

// Instruments returns the canonical instrument keys in table order
func Instruments() []string {
	keys := make([]string, len(aliasTable))
	for i, entry := range aliasTable {
		keys[i] = entry.canonical
	}
	return keys
}

// Resolve finds the canonical key's row in a source mapping via the alias
// table. The second return reports whether any alias was present.
func Resolve(source map[string][]bool, canonical string) ([]bool, bool) {
	for _, entry := range aliasTable {
		if entry.canonical != canonical {
			continue
		}
		for _, alias := range entry.aliases {
			if row, ok := source[alias]; ok {
				return row, true
			}
		}
		return nil, false
	}
	// Unknown canonical keys still honor an exact match.
	row, ok := source[canonical]
	return row, ok
}

// NormalizeRow stretches or tiles one source row to targetLength:
// out[i] = source[i mod len(source)]. An empty or missing row yields an
// all-false row of targetLength.
func NormalizeRow(source []bool, targetLength int) []bool {
	if targetLength <= 0 {
		return []bool{}
	}
	out := make([]bool, targetLength)
	if len(source) == 0 {
		return out
	}
	for i := 0; i < targetLength; i++ {
		out[i] = source[i%len(source)]
	}
	return out
}

// FromNumeric converts a decoded JSON payload of numeric step arrays
// (0 = off, anything else = on) into boolean rows ready for Normalize.
func FromNumeric(source map[string][]float64) map[string][]bool {
	out := make(map[string][]bool, len(source))
	for key, row := range source {
		bools := make([]bool, len(row))
		for i, v := range row {
			bools[i] = v != 0
		}
		out[key] = bools
	}
	return out
}

// Normalize resolves every canonical instrument against the source mapping
// and produces rows of exactly targetLength. Instruments absent from the
// source come back as all-false rows, so callers always receive the full
// instrument set.
func Normalize(source map[string][]bool, targetLength int) map[string][]bool {
	out := make(map[string][]bool, len(aliasTable))
	for _, entry := range aliasTable {
		row, _ := Resolve(source, entry.canonical)
		out[entry.canonical] = NormalizeRow(row, targetLength)
	}
	return out
}
