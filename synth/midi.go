package synth

import (
	"fmt"
	"math"
	"sync"
	"time"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
)

// MIDINote maps an instrument to a fixed channel/key, General MIDI style
type MIDINote struct {
	Channel uint8
	Key     uint8
}

// GMDrumMap maps the canonical drum instrument ids to General MIDI
// percussion keys on channel 9.
func GMDrumMap() map[string]MIDINote {
	return map[string]MIDINote{
		"kick":    {Channel: 9, Key: 36},
		"snare":   {Channel: 9, Key: 38},
		"hihat":   {Channel: 9, Key: 42},
		"openhat": {Channel: 9, Key: 46},
		"clap":    {Channel: 9, Key: 39},
		"tom":     {Channel: 9, Key: 45},
		"rim":     {Channel: 9, Key: 37},
		"crash":   {Channel: 9, Key: 49},
	}
}

// MIDIRuntime dispatches trigger events as NoteOn/NoteOff messages on an
// already-open output port. Port discovery and driver choice stay with
// the host application; this adapter only writes messages.
type MIDIRuntime struct {
	send func(midi.Message) error
	out  drivers.Out
	mapp map[string]MIDINote

	mu        sync.Mutex
	timers    map[int]*time.Timer // outstanding note-offs; entries remove themselves on fire
	nextTimer int
	closed    bool
}

// NewMIDIRuntime wraps an open MIDI output port. mapping may be nil, in
// which case the General MIDI drum map is used and pitched events fall
// back to frequency-derived keys on channel 0.
func NewMIDIRuntime(out drivers.Out, mapping map[string]MIDINote) (*MIDIRuntime, error) {
	if out == nil {
		return nil, fmt.Errorf("midi runtime: nil output port")
	}
	send, err := midi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("midi runtime: %w", err)
	}
	if mapping == nil {
		mapping = GMDrumMap()
	}
	return &MIDIRuntime{
		send:   send,
		out:    out,
		mapp:   mapping,
		timers: make(map[int]*time.Timer),
	}, nil
}

// Trigger sends a NoteOn immediately and schedules the matching NoteOff
// after the event duration. Dispatch is fire-and-forget: the sequencer
// tick never waits on the port.
func (m *MIDIRuntime) Trigger(ev TriggerEvent) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return fmt.Errorf("midi runtime: closed")
	}
	m.mu.Unlock()

	note, ok := m.mapp[ev.InstrumentID]
	if !ok {
		if ev.Frequency <= 0 {
			return fmt.Errorf("midi runtime: no mapping for instrument %q", ev.InstrumentID)
		}
		note = MIDINote{Channel: 0, Key: frequencyToKey(ev.Frequency)}
	}

	velocity := uint8(math.Round(ev.Velocity * ev.Volume * 127))
	if velocity == 0 {
		return nil // fully attenuated, nothing to send
	}

	if err := m.send(midi.NoteOn(note.Channel, note.Key, velocity)); err != nil {
		return fmt.Errorf("midi runtime: note on %q: %w", ev.InstrumentID, err)
	}

	duration := ev.Duration
	if duration <= 0 {
		duration = 100 * time.Millisecond
	}

	// Reserve the slot first: the callback may fire before the timer
	// handle lands in the map.
	m.mu.Lock()
	id := m.nextTimer
	m.nextTimer++
	m.timers[id] = nil
	m.mu.Unlock()

	t := time.AfterFunc(duration, func() {
		_ = m.send(midi.NoteOff(note.Channel, note.Key))
		m.mu.Lock()
		delete(m.timers, id)
		m.mu.Unlock()
	})

	m.mu.Lock()
	if _, pending := m.timers[id]; pending {
		m.timers[id] = t
	}
	m.mu.Unlock()
	return nil
}

// pendingNoteOffs reports how many note-off timers are still outstanding
func (m *MIDIRuntime) pendingNoteOffs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Close cancels pending note-offs and silences everything that is still
// sounding. The output port itself belongs to the caller.
func (m *MIDIRuntime) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	timers := m.timers
	m.timers = make(map[int]*time.Timer)
	m.mu.Unlock()

	for _, t := range timers {
		if t != nil {
			t.Stop()
		}
	}
	for _, note := range m.mapp {
		_ = m.send(midi.NoteOff(note.Channel, note.Key))
	}
	return nil
}

// frequencyToKey converts a frequency to the nearest MIDI key, clamped to
// the valid 0-127 range.
func frequencyToKey(freq float64) uint8 {
	key := math.Round(12.0*math.Log2(freq/440.0) + 69.0)
	if key < 0 {
		key = 0
	}
	if key > 127 {
		key = 127
	}
	return uint8(key)
}
