package pattern

import "testing"

// TestNormalizeRow_TilesByModulo: out[i] == source[i mod len(source)]
func TestNormalizeRow_TilesByModulo(t *testing.T) {
	source := []bool{true, false, true, false, false, true, false, false, true, true}
	out := NormalizeRow(source, 16)

	if len(out) != 16 {
		t.Fatalf("length = %d, want 16", len(out))
	}
	for i := range out {
		if out[i] != source[i%len(source)] {
			t.Errorf("out[%d] = %v, want source[%d] = %v", i, out[i], i%len(source), source[i%len(source)])
		}
	}
}

// TestNormalizeRow_ShortSourceRepeats: a 4-step row fills 16 steps
func TestNormalizeRow_ShortSourceRepeats(t *testing.T) {
	out := NormalizeRow([]bool{true, false, false, false}, 16)
	for i, v := range out {
		want := i%4 == 0
		if v != want {
			t.Errorf("out[%d] = %v, want %v", i, v, want)
		}
	}
}

// TestNormalizeRow_EmptySource: all-false row of the target length
func TestNormalizeRow_EmptySource(t *testing.T) {
	out := NormalizeRow(nil, 16)
	if len(out) != 16 {
		t.Fatalf("length = %d, want 16", len(out))
	}
	for i, v := range out {
		if v {
			t.Errorf("out[%d] = true, want false", i)
		}
	}
}

// TestResolve_AliasSpellings: hiHat and closedHat resolve to hihat
func TestResolve_AliasSpellings(t *testing.T) {
	source := map[string][]bool{
		"hiHat": {true, true},
		"kik":   {true},
	}

	if row, ok := Resolve(source, "hihat"); !ok || len(row) != 2 {
		t.Errorf("hihat not resolved via hiHat alias: ok=%v row=%v", ok, row)
	}
	if row, ok := Resolve(source, "kick"); !ok || len(row) != 1 {
		t.Errorf("kick not resolved via kik alias: ok=%v row=%v", ok, row)
	}
	if _, ok := Resolve(source, "snare"); ok {
		t.Error("snare resolved from a source without any snare alias")
	}
}

// TestNormalize_MissingKeysAllFalse: every canonical instrument comes back
// at the target length, absent ones silent
func TestNormalize_MissingKeysAllFalse(t *testing.T) {
	source := map[string][]bool{
		"kick": {true, false},
	}
	out := Normalize(source, 16)

	if len(out) != len(Instruments()) {
		t.Fatalf("instruments = %d, want %d", len(out), len(Instruments()))
	}
	for _, key := range Instruments() {
		row, ok := out[key]
		if !ok || len(row) != 16 {
			t.Fatalf("instrument %q: missing or wrong length %d", key, len(row))
		}
	}
	for i, v := range out["snare"] {
		if v {
			t.Errorf("missing instrument active at step %d", i)
		}
	}
	for i, v := range out["kick"] {
		if v != (i%2 == 0) {
			t.Errorf("kick[%d] = %v, want %v", i, v, i%2 == 0)
		}
	}
}

// TestFromNumeric_NonzeroIsActive
func TestFromNumeric_NonzeroIsActive(t *testing.T) {
	out := FromNumeric(map[string][]float64{"kick": {0, 1, 0.5, 0}})
	want := []bool{false, true, true, false}
	for i, w := range want {
		if out["kick"][i] != w {
			t.Errorf("kick[%d] = %v, want %v", i, out["kick"][i], w)
		}
	}
}
