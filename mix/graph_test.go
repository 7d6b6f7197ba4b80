package mix

import (
	"errors"
	"math"
	"testing"
)

func buildGraph(t *testing.T) *Graph {
	t.Helper()
	g := NewGraph()
	if _, err := g.AddBus("drums"); err != nil {
		t.Fatalf("AddBus: %v", err)
	}
	if _, err := g.AddTrack("kick", "drums"); err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	if _, err := g.AddTrack("lead", MasterBusID); err != nil {
		t.Fatalf("AddTrack: %v", err)
	}
	return g
}

// TestResolve_DefaultChain multiplies track, bus and master volumes
func TestResolve_DefaultChain(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetTrackParams("kick", 80, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.SetBusParams("drums", 50, 0); err != nil {
		t.Fatal(err)
	}
	if err := g.SetBusParams(MasterBusID, 50, 0); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	// 0.8 * 0.5 * 0.5 * 100
	if math.Abs(r.Volume-20) > 1e-9 {
		t.Errorf("volume = %v, want 20", r.Volume)
	}
}

// TestResolve_MasterRoutedTrack_NoDoubleMasterFactor checks tracks on the
// master bus apply master volume once
func TestResolve_MasterRoutedTrack_NoDoubleMasterFactor(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetBusParams(MasterBusID, 50, 0); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("lead")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 50 {
		t.Errorf("volume = %v, want 50", r.Volume)
	}
}

// TestResolve_TrackMute_SilencesTrack: mute always wins
func TestResolve_TrackMute_SilencesTrack(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetTrackMute("kick", true); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 0 {
		t.Errorf("muted track volume = %v, want 0", r.Volume)
	}
}

// TestResolve_BusMute_SilencesItsTracks
func TestResolve_BusMute_SilencesItsTracks(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetBusMute("drums", true); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 0 {
		t.Errorf("volume = %v, want 0 under muted bus", r.Volume)
	}

	// The other bus's track is unaffected.
	r, err = g.Resolve("lead")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume == 0 {
		t.Error("track outside muted bus was silenced")
	}
}

// TestResolve_GlobalSolo silences every non-soloed track graph-wide
func TestResolve_GlobalSolo(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetTrackSolo("lead", true); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 0 {
		t.Errorf("non-soloed track volume = %v, want 0", r.Volume)
	}

	r, err = g.Resolve("lead")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 100 {
		t.Errorf("soloed track volume = %v, want 100", r.Volume)
	}

	// Un-solo restores the graph.
	if err := g.SetTrackSolo("lead", false); err != nil {
		t.Fatal(err)
	}
	if g.AnySolo() {
		t.Error("AnySolo still true after last solo cleared")
	}
}

// TestResolve_BusSolo solos every track routed to the bus and silences
// the rest of the graph
func TestResolve_BusSolo(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetBusSolo("drums", true); err != nil {
		t.Fatal(err)
	}
	if !g.AnySolo() {
		t.Fatal("AnySolo false with a soloed bus")
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 100 {
		t.Errorf("soloed bus's track volume = %v, want 100", r.Volume)
	}

	r, err = g.Resolve("lead")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Volume != 0 {
		t.Errorf("track outside soloed bus volume = %v, want 0", r.Volume)
	}

	if err := g.SetBusSolo("drums", false); err != nil {
		t.Fatal(err)
	}
	if g.AnySolo() {
		t.Error("AnySolo still true after bus solo cleared")
	}

	if err := g.SetBusSolo("nope", true); err == nil {
		t.Error("expected RoutingError for unknown bus")
	}
}

// TestRemoveBus_ClearsBusSoloCount
func TestRemoveBus_ClearsBusSoloCount(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetBusSolo("drums", true); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveBus("drums"); err != nil {
		t.Fatalf("RemoveBus: %v", err)
	}
	if g.AnySolo() {
		t.Error("AnySolo true after removing the only soloed bus")
	}
}

// TestResolve_PanSumClamped adds track and bus pan, clamped to the range
func TestResolve_PanSumClamped(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetTrackParams("kick", 100, 80); err != nil {
		t.Fatal(err)
	}
	if err := g.SetBusParams("drums", 100, 60); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Pan != 100 {
		t.Errorf("pan = %v, want clamped to 100", r.Pan)
	}
}

// TestMoveTrackToBus_UnknownBus_IsRoutingError: no silent pass-through
func TestMoveTrackToBus_UnknownBus_IsRoutingError(t *testing.T) {
	g := buildGraph(t)
	err := g.MoveTrackToBus("kick", "nope")
	if err == nil {
		t.Fatal("expected RoutingError for unknown bus")
	}
	var re *RoutingError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *RoutingError", err)
	}
	if tr, _ := g.Track("kick"); tr.BusID != "drums" {
		t.Errorf("track moved to %q despite error", tr.BusID)
	}
}

// TestConnectSend_CycleRejected keeps the send graph a DAG
func TestConnectSend_CycleRejected(t *testing.T) {
	g := NewGraph()
	for _, id := range []string{"a", "b", "c"} {
		if _, err := g.AddBus(id); err != nil {
			t.Fatal(err)
		}
	}
	if err := g.ConnectSend("a", "b", 0.5); err != nil {
		t.Fatalf("a->b: %v", err)
	}
	if err := g.ConnectSend("b", "c", 0.5); err != nil {
		t.Fatalf("b->c: %v", err)
	}

	if err := g.ConnectSend("c", "a", 0.5); err == nil {
		t.Error("expected cycle c->a to be rejected")
	}
	if err := g.ConnectSend("a", "a", 0.5); err == nil {
		t.Error("expected self-send to be rejected")
	}
	// A second edge out of an existing node is still fine.
	if err := g.ConnectSend("a", "c", 0.25); err != nil {
		t.Errorf("a->c rejected: %v", err)
	}
}

// TestRemoveBus_ReparentsTracksToMaster
func TestRemoveBus_ReparentsTracksToMaster(t *testing.T) {
	g := buildGraph(t)
	if err := g.RemoveBus("drums"); err != nil {
		t.Fatalf("RemoveBus: %v", err)
	}

	tr, ok := g.Track("kick")
	if !ok {
		t.Fatal("track lost on bus removal")
	}
	if tr.BusID != MasterBusID {
		t.Errorf("track bus = %q, want master", tr.BusID)
	}

	if err := g.RemoveBus(MasterBusID); err == nil {
		t.Error("expected removing master to fail")
	}
}

// TestRemoveTrack_ClearsSoloCount
func TestRemoveTrack_ClearsSoloCount(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetTrackSolo("kick", true); err != nil {
		t.Fatal(err)
	}
	if err := g.RemoveTrack("kick"); err != nil {
		t.Fatalf("RemoveTrack: %v", err)
	}
	if g.AnySolo() {
		t.Error("AnySolo true after removing the only soloed track")
	}
}

// TestResolve_UnknownTrack_IsRoutingError
func TestResolve_UnknownTrack_IsRoutingError(t *testing.T) {
	g := NewGraph()
	if _, err := g.Resolve("ghost"); err == nil {
		t.Fatal("expected RoutingError for unknown track")
	}
}

// TestResolve_EffectsForwardedOpaquely
func TestResolve_EffectsForwardedOpaquely(t *testing.T) {
	g := buildGraph(t)
	if err := g.SetBusEffect("drums", "reverb", 0.4); err != nil {
		t.Fatal(err)
	}

	r, err := g.Resolve("kick")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if r.Effects["reverb"] != 0.4 {
		t.Errorf("effects = %v, want reverb 0.4 forwarded", r.Effects)
	}
}
