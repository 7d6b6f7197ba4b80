package sequencer

import (
	"fmt"
	"sync"
	"time"

	"github.com/beatlabhq/beatlab-engine/logging"
	"github.com/beatlabhq/beatlab-engine/mix"
	"github.com/beatlabhq/beatlab-engine/synth"
)

// Transport is the engine's playback state
type Transport int

const (
	Stopped Transport = iota
	Playing
	Paused
)

func (t Transport) String() string {
	switch t {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	default:
		return "unknown"
	}
}

// Engine walks the timeline and dispatches trigger events to the synthesis
// runtime, consulting the mix graph's mute/solo state on every tick.
//
// The engine owns its conductor clock exclusively and is the only writer
// of the playback position. With the internal clock disabled, Tick must be
// invoked by exactly one external timer.
type Engine struct {
	state   *State
	graph   *mix.Graph
	runtime synth.Runtime
	logger  logging.Logger

	internalClock bool

	mu           sync.Mutex
	transport    Transport
	position     int
	stepDuration time.Duration
	schedules    []trackSchedule
	startTime    time.Time
	tickCount    int64
	ticker       *time.Ticker
	done         chan struct{}
}

// NewEngine creates a sequencer engine over a validated state. The mix
// graph and runtime are required collaborators; logger may be nil, in
// which case the global logger is used.
func NewEngine(state *State, graph *mix.Graph, runtime synth.Runtime, logger logging.Logger) (*Engine, error) {
	if state == nil {
		return nil, &SchedulingError{Field: "state", Reason: "nil state"}
	}
	if graph == nil {
		return nil, &SchedulingError{Field: "graph", Reason: "nil mix graph"}
	}
	if runtime == nil {
		return nil, &SchedulingError{Field: "runtime", Reason: "nil synthesis runtime"}
	}
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	return &Engine{
		state:         state,
		graph:         graph,
		runtime:       runtime,
		logger:        logger.WithFields(logging.Fields{"component": "sequencer"}),
		internalClock: true,
	}, nil
}

// SetInternalClock enables or disables the engine-owned ticker. Disable it
// when an external conductor clock drives Tick. Must be called while stopped.
func (e *Engine) SetInternalClock(enabled bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.internalClock = enabled
}

// Transport returns the current playback state
func (e *Engine) Transport() Transport {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.transport
}

// Position returns the current step position
func (e *Engine) Position() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.position
}

// Play starts or resumes playback. From Stopped it starts at step 0; from
// Paused it resumes at the stored position. The activation maps are built
// once per call, so clip edits made while stopped take effect here.
func (e *Engine) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport == Playing {
		return
	}
	if e.transport == Stopped {
		e.position = 0
	}

	e.stepDuration = e.state.StepDuration()
	e.schedules = e.state.buildSchedules()
	e.startTime = time.Now()
	e.tickCount = 0
	e.transport = Playing

	e.logger.Debug("playback started", logging.Fields{
		"bpm":           e.state.BPM,
		"total_steps":   e.state.TotalSteps(),
		"step_duration": e.stepDuration,
		"position":      e.position,
	})

	if e.internalClock {
		e.ticker = time.NewTicker(e.stepDuration)
		e.done = make(chan struct{})
		go e.run(e.ticker, e.done)
	}
}

// run pumps the internal conductor clock into Tick until stopped
func (e *Engine) run(ticker *time.Ticker, done chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Pause stops the clock and stores the position for a later resume
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport != Playing {
		return
	}
	e.stopClockLocked()
	e.transport = Paused
	e.logger.Debug("playback paused", logging.Fields{"position": e.position})
}

// Stop stops the clock, resets the position to 0 and drops the current
// run's schedules. Calling Stop when already stopped is a no-op.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport == Stopped {
		return
	}
	e.stopClockLocked()
	e.transport = Stopped
	e.position = 0
	e.schedules = nil
	e.logger.Debug("playback stopped")
}

// Close stops playback and releases the synthesis runtime
func (e *Engine) Close() error {
	e.Stop()
	return e.runtime.Close()
}

func (e *Engine) stopClockLocked() {
	if e.ticker != nil {
		e.ticker.Stop()
		e.ticker = nil
	}
	if e.done != nil {
		close(e.done)
		e.done = nil
	}
}

// Tick advances musical time by one step and dispatches the hits active at
// the step being left. It completes synchronously; dispatch to the runtime
// is fire-and-forget and a single track's failure is logged and isolated,
// never aborting the tick for remaining tracks.
func (e *Engine) Tick() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.transport != Playing {
		return
	}

	current := e.position
	e.position = e.nextPosition(current)

	// Target times derive from the fixed start instant so dispatch jitter
	// does not accumulate across ticks.
	target := e.startTime.Add(time.Duration(e.tickCount) * e.stepDuration)
	e.tickCount++

	for i := range e.schedules {
		sched := &e.schedules[i]
		if current >= len(sched.active) || !sched.active[current] {
			continue
		}

		track, ok := e.graph.Track(sched.trackID)
		if !ok {
			e.logger.Debug("skipping lane with no mix track", logging.Fields{"track": sched.trackID})
			continue
		}
		if track.Mute {
			continue
		}

		// Solo handling falls out of Resolve: a non-soloed track under an
		// active solo resolves to volume 0 and is skipped below.
		resolved, err := e.graph.Resolve(sched.trackID)
		if err != nil {
			e.logger.Warn("resolve failed, track degraded", logging.Fields{
				"track": sched.trackID,
				"error": err.Error(),
			})
			continue
		}
		if resolved.Volume <= 0 {
			continue
		}

		ev := synth.TriggerEvent{
			InstrumentID: sched.trackID,
			Velocity:     sched.velocity[current],
			At:           target,
			Duration:     e.stepDuration,
			Volume:       resolved.Volume / 100.0,
			Pan:          resolved.Pan / 100.0,
			Effects:      resolved.Effects,
		}
		if err := e.dispatch(ev); err != nil {
			e.logger.Warn("trigger dispatch failed, track degraded", logging.Fields{
				"track": sched.trackID,
				"step":  current,
				"error": err.Error(),
			})
		}
	}
}

// dispatch isolates one runtime call, converting a panic in the backend
// into an error so it cannot halt playback for the other tracks.
func (e *Engine) dispatch(ev synth.TriggerEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("runtime panic: %v", r)
		}
	}()
	return e.runtime.Trigger(ev)
}

// nextPosition wraps within the loop sub-range when one is set, otherwise
// within the full grid.
func (e *Engine) nextPosition(current int) int {
	next := current + 1
	if e.state.LoopEnd > e.state.LoopStart {
		if next >= e.state.LoopEnd {
			return e.state.LoopStart
		}
		return next
	}
	if next >= e.state.TotalSteps() {
		return 0
	}
	return next
}
