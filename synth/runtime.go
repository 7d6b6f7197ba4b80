package synth

import "time"

// TriggerEvent is one scheduled note/hit dispatched by the sequencer.
// Volume and Pan arrive already resolved through the mix graph; Effects
// are the owning bus's opaque parameters, forwarded untouched.
type TriggerEvent struct {
	InstrumentID string             // Track/instrument identifier
	Frequency    float64            // Pitch in Hz, 0 for unpitched instruments
	Velocity     float64            // Step velocity, 0-1
	At           time.Time          // Target time for the hit (monotonic-based)
	Duration     time.Duration      // Nominal note length (one step)
	Volume       float64            // Resolved volume, 0-1
	Pan          float64            // Resolved pan, -1..1
	Effects      map[string]float64 // Opaque bus effect parameters
}

// Runtime is the synthesis backend the engine dispatches to. The engine
// never owns or constructs synthesis nodes; it only calls Trigger.
// Trigger must be fast and non-blocking: the tick loop treats dispatch as
// fire-and-forget and a returned error only degrades that one track.
type Runtime interface {
	Trigger(ev TriggerEvent) error
	Close() error
}

// RuntimeFunc adapts a plain function to the Runtime interface
type RuntimeFunc func(ev TriggerEvent) error

func (f RuntimeFunc) Trigger(ev TriggerEvent) error { return f(ev) }
func (f RuntimeFunc) Close() error                  { return nil }

// NopRuntime discards all trigger events. Useful for tests and for
// editing sessions with no audio backend attached.
type NopRuntime struct{}

func (NopRuntime) Trigger(ev TriggerEvent) error { return nil }
func (NopRuntime) Close() error                  { return nil }
