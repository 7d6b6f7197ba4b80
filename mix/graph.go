package mix

import "fmt"

// MasterBusID is the id of the terminal bus every graph converges on
const MasterBusID = "master"

// Bus is an aggregation point in the mix graph. Non-master buses feed the
// master implicitly; Sends are additional level-weighted connections and
// must stay acyclic. Effects are opaque parameters forwarded to the
// synthesis runtime, never processed here.
type Bus struct {
	ID      string             `json:"id"`
	Volume  float64            `json:"volume"` // 0-100
	Pan     float64            `json:"pan"`    // -100..100
	Mute    bool               `json:"mute"`
	Solo    bool               `json:"solo"`
	Sends   map[string]float64 `json:"sends"`   // bus id -> send level
	Effects map[string]float64 `json:"effects"` // opaque effect parameters
}

// Track is a playable lane routed to exactly one bus
type Track struct {
	ID     string  `json:"id"`
	Volume float64 `json:"volume"` // 0-100
	Pan    float64 `json:"pan"`    // -100..100
	Mute   bool    `json:"mute"`
	Solo   bool    `json:"solo"`
	BusID  string  `json:"bus_id"`
}

// Resolved is the effective playback state of one track against the
// whole graph
type Resolved struct {
	Volume  float64            // Effective volume, 0-100
	Pan     float64            // Effective pan, -100..100
	Effects map[string]float64 // Owning bus's opaque effect snapshot
}

// RoutingError indicates a mutation referenced a missing node or would
// break the graph invariants. It is always surfaced, never swallowed.
type RoutingError struct {
	Op     string
	ID     string
	Reason string
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("routing %s %q: %s", e.Op, e.ID, e.Reason)
}

// Graph is the track -> bus -> master routing graph for one session.
// It is built and edited by the caller and read by the sequencer on every
// tick; it never owns playback state.
type Graph struct {
	buses        map[string]*Bus
	tracks       map[string]*Track
	soloCount    int // tracks currently soloed, kept instead of rescanning
	busSoloCount int // buses currently soloed
}

// NewGraph creates a graph containing only the master bus
func NewGraph() *Graph {
	g := &Graph{
		buses:  make(map[string]*Bus),
		tracks: make(map[string]*Track),
	}
	g.buses[MasterBusID] = newBus(MasterBusID)
	return g
}

func newBus(id string) *Bus {
	return &Bus{
		ID:      id,
		Volume:  100,
		Pan:     0,
		Sends:   make(map[string]float64),
		Effects: make(map[string]float64),
	}
}

// AddBus registers a new bus feeding the master
func (g *Graph) AddBus(id string) (*Bus, error) {
	if id == "" {
		return nil, &RoutingError{Op: "add bus", ID: id, Reason: "empty id"}
	}
	if _, exists := g.buses[id]; exists {
		return nil, &RoutingError{Op: "add bus", ID: id, Reason: "bus already exists"}
	}
	b := newBus(id)
	g.buses[id] = b
	return b, nil
}

// AddTrack registers a new track routed to the given bus
func (g *Graph) AddTrack(id, busID string) (*Track, error) {
	if id == "" {
		return nil, &RoutingError{Op: "add track", ID: id, Reason: "empty id"}
	}
	if _, exists := g.tracks[id]; exists {
		return nil, &RoutingError{Op: "add track", ID: id, Reason: "track already exists"}
	}
	if _, ok := g.buses[busID]; !ok {
		return nil, &RoutingError{Op: "add track", ID: busID, Reason: "bus does not exist"}
	}
	t := &Track{ID: id, Volume: 100, Pan: 0, BusID: busID}
	g.tracks[id] = t
	return t, nil
}

// Bus returns a bus by id
func (g *Graph) Bus(id string) (*Bus, bool) {
	b, ok := g.buses[id]
	return b, ok
}

// Track returns a track by id
func (g *Graph) Track(id string) (*Track, bool) {
	t, ok := g.tracks[id]
	return t, ok
}

// TrackIDs returns the ids of all registered tracks
func (g *Graph) TrackIDs() []string {
	ids := make([]string, 0, len(g.tracks))
	for id := range g.tracks {
		ids = append(ids, id)
	}
	return ids
}

// SetBusParams updates a bus's volume and pan, clamped to their ranges
func (g *Graph) SetBusParams(id string, volume, pan float64) error {
	b, ok := g.buses[id]
	if !ok {
		return &RoutingError{Op: "set bus params", ID: id, Reason: "bus does not exist"}
	}
	b.Volume = clamp(volume, 0, 100)
	b.Pan = clamp(pan, -100, 100)
	return nil
}

// SetBusMute toggles a bus's mute flag
func (g *Graph) SetBusMute(id string, mute bool) error {
	b, ok := g.buses[id]
	if !ok {
		return &RoutingError{Op: "set bus mute", ID: id, Reason: "bus does not exist"}
	}
	b.Mute = mute
	return nil
}

// SetBusSolo toggles a bus's solo flag, maintaining the any-solo count.
// A soloed bus solos every track routed to it.
func (g *Graph) SetBusSolo(id string, solo bool) error {
	b, ok := g.buses[id]
	if !ok {
		return &RoutingError{Op: "set bus solo", ID: id, Reason: "bus does not exist"}
	}
	if b.Solo != solo {
		if solo {
			g.busSoloCount++
		} else {
			g.busSoloCount--
		}
		b.Solo = solo
	}
	return nil
}

// SetBusEffect stores an opaque effect parameter on a bus
func (g *Graph) SetBusEffect(id, effect string, value float64) error {
	b, ok := g.buses[id]
	if !ok {
		return &RoutingError{Op: "set bus effect", ID: id, Reason: "bus does not exist"}
	}
	b.Effects[effect] = value
	return nil
}

// SetTrackParams updates a track's volume and pan, clamped to their ranges
func (g *Graph) SetTrackParams(id string, volume, pan float64) error {
	t, ok := g.tracks[id]
	if !ok {
		return &RoutingError{Op: "set track params", ID: id, Reason: "track does not exist"}
	}
	t.Volume = clamp(volume, 0, 100)
	t.Pan = clamp(pan, -100, 100)
	return nil
}

// SetTrackMute toggles a track's mute flag
func (g *Graph) SetTrackMute(id string, mute bool) error {
	t, ok := g.tracks[id]
	if !ok {
		return &RoutingError{Op: "set track mute", ID: id, Reason: "track does not exist"}
	}
	t.Mute = mute
	return nil
}

// SetTrackSolo toggles a track's solo flag, maintaining the any-solo count
func (g *Graph) SetTrackSolo(id string, solo bool) error {
	t, ok := g.tracks[id]
	if !ok {
		return &RoutingError{Op: "set track solo", ID: id, Reason: "track does not exist"}
	}
	if t.Solo != solo {
		if solo {
			g.soloCount++
		} else {
			g.soloCount--
		}
		t.Solo = solo
	}
	return nil
}

// AnySolo reports whether any track or bus in the graph is soloed. O(1):
// the counts are maintained on solo toggles instead of rescanned per resolve.
func (g *Graph) AnySolo() bool {
	return g.soloCount > 0 || g.busSoloCount > 0
}

// MoveTrackToBus re-routes a track to another bus. Routing to a
// nonexistent bus is an error, not a silent no-op.
func (g *Graph) MoveTrackToBus(trackID, busID string) error {
	t, ok := g.tracks[trackID]
	if !ok {
		return &RoutingError{Op: "move track", ID: trackID, Reason: "track does not exist"}
	}
	if _, ok := g.buses[busID]; !ok {
		return &RoutingError{Op: "move track", ID: busID, Reason: "bus does not exist"}
	}
	t.BusID = busID
	return nil
}

// ConnectSend adds a level-weighted send edge between buses. The send
// graph must stay a DAG; an edge that would close a cycle is rejected.
func (g *Graph) ConnectSend(fromID, toID string, level float64) error {
	from, ok := g.buses[fromID]
	if !ok {
		return &RoutingError{Op: "connect send", ID: fromID, Reason: "bus does not exist"}
	}
	if _, ok := g.buses[toID]; !ok {
		return &RoutingError{Op: "connect send", ID: toID, Reason: "bus does not exist"}
	}
	if fromID == toID {
		return &RoutingError{Op: "connect send", ID: fromID, Reason: "send to itself"}
	}
	if g.sendPathExists(toID, fromID) {
		return &RoutingError{Op: "connect send", ID: fromID, Reason: "send would create a cycle"}
	}
	from.Sends[toID] = clamp(level, 0, 1)
	return nil
}

// DisconnectSend removes a send edge
func (g *Graph) DisconnectSend(fromID, toID string) error {
	from, ok := g.buses[fromID]
	if !ok {
		return &RoutingError{Op: "disconnect send", ID: fromID, Reason: "bus does not exist"}
	}
	delete(from.Sends, toID)
	return nil
}

// sendPathExists reports whether dst is reachable from src over send edges
func (g *Graph) sendPathExists(src, dst string) bool {
	if src == dst {
		return true
	}
	visited := map[string]bool{src: true}
	stack := []string{src}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		bus, ok := g.buses[cur]
		if !ok {
			continue
		}
		for next := range bus.Sends {
			if next == dst {
				return true
			}
			if !visited[next] {
				visited[next] = true
				stack = append(stack, next)
			}
		}
	}
	return false
}

// RemoveTrack deletes a track from the graph
func (g *Graph) RemoveTrack(id string) error {
	t, ok := g.tracks[id]
	if !ok {
		return &RoutingError{Op: "remove track", ID: id, Reason: "track does not exist"}
	}
	if t.Solo {
		g.soloCount--
	}
	delete(g.tracks, id)
	return nil
}

// RemoveBus deletes a bus. Its tracks are re-routed to the master bus and
// sends referencing it are dropped. The master bus cannot be removed.
func (g *Graph) RemoveBus(id string) error {
	if id == MasterBusID {
		return &RoutingError{Op: "remove bus", ID: id, Reason: "cannot remove master"}
	}
	b, ok := g.buses[id]
	if !ok {
		return &RoutingError{Op: "remove bus", ID: id, Reason: "bus does not exist"}
	}
	if b.Solo {
		g.busSoloCount--
	}
	delete(g.buses, id)
	for _, t := range g.tracks {
		if t.BusID == id {
			t.BusID = MasterBusID
		}
	}
	for _, b := range g.buses {
		delete(b.Sends, id)
	}
	return nil
}

// Resolve computes the effective volume and pan for one track against the
// full graph. Mute checks run first, then the multiplicative volume chain
// through the owning bus and master; the global solo rule is evaluated
// last and overrides the result for non-soloed tracks.
func (g *Graph) Resolve(trackID string) (Resolved, error) {
	t, ok := g.tracks[trackID]
	if !ok {
		return Resolved{}, &RoutingError{Op: "resolve", ID: trackID, Reason: "track does not exist"}
	}
	bus, ok := g.buses[t.BusID]
	if !ok {
		return Resolved{}, &RoutingError{Op: "resolve", ID: t.BusID, Reason: "owning bus does not exist"}
	}
	master := g.buses[MasterBusID]

	var volume float64
	switch {
	case t.Mute:
		volume = 0
	case bus.Mute:
		volume = 0
	default:
		masterFactor := 1.0
		if bus.ID != MasterBusID {
			masterFactor = master.Volume / 100.0
		}
		volume = (t.Volume / 100.0) * (bus.Volume / 100.0) * masterFactor * 100.0
	}

	if g.AnySolo() && !t.Solo && !bus.Solo {
		volume = 0
	}

	effects := make(map[string]float64, len(bus.Effects))
	for k, v := range bus.Effects {
		effects[k] = v
	}

	return Resolved{
		Volume:  volume,
		Pan:     clamp(t.Pan+bus.Pan, -100, 100),
		Effects: effects,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
