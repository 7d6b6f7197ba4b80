package sequencer

import (
	"fmt"
	"time"
)

// Step is the smallest schedulable unit on the grid (nominally a 16th note)
type Step struct {
	Active   bool    `json:"active"`
	Velocity float64 `json:"velocity"` // 0-1; zero is treated as the default full hit
}

// Clip is a placed, bounded region of steps on a track's timeline.
// Clips on the same track may overlap; overlapping active steps OR together.
type Clip struct {
	Name   string `json:"name"`
	Start  int    `json:"start"`  // Global step index of the clip's first step
	Length int    `json:"length"` // Step count, > 0
	Steps  []Step `json:"steps"`
}

// Lane pairs a track id with its placed clips, in playback order
type Lane struct {
	TrackID string `json:"track_id"`
	Clips   []Clip `json:"clips"`
}

// SchedulingError indicates invalid timing parameters at construction.
// Invalid values are rejected outright, never clamped silently.
type SchedulingError struct {
	Field  string
	Reason string
}

func (e *SchedulingError) Error() string {
	return fmt.Sprintf("scheduling %s: %s", e.Field, e.Reason)
}

// State is the timeline the engine walks: tempo, grid dimensions, loop
// bounds and the per-track clip lists. It is owned by the session and
// only read by the engine.
type State struct {
	BPM         float64 `json:"bpm"`
	Swing       float64 `json:"swing"` // Reserved; carried but not applied to timing
	Bars        int     `json:"bars"`
	StepsPerBar int     `json:"steps_per_bar"`
	LoopStart   int     `json:"loop_start"`
	LoopEnd     int     `json:"loop_end"` // Exclusive; 0 means loop the full range
	Tracks      []Lane  `json:"tracks"`
}

// NewState validates timing parameters and returns an empty timeline
func NewState(bpm, swing float64, bars, stepsPerBar int) (*State, error) {
	if bpm <= 0 {
		return nil, &SchedulingError{Field: "bpm", Reason: fmt.Sprintf("must be positive, got %v", bpm)}
	}
	if bars <= 0 {
		return nil, &SchedulingError{Field: "bars", Reason: fmt.Sprintf("must be positive, got %d", bars)}
	}
	if stepsPerBar <= 0 {
		return nil, &SchedulingError{Field: "stepsPerBar", Reason: fmt.Sprintf("must be positive, got %d", stepsPerBar)}
	}
	if swing < 0 || swing > 1 {
		return nil, &SchedulingError{Field: "swing", Reason: fmt.Sprintf("must be in [0,1], got %v", swing)}
	}
	return &State{
		BPM:         bpm,
		Swing:       swing,
		Bars:        bars,
		StepsPerBar: stepsPerBar,
	}, nil
}

// TotalSteps returns the grid length in steps
func (s *State) TotalSteps() int {
	return s.Bars * s.StepsPerBar
}

// StepDuration returns the wall-clock length of one step at the current
// tempo: one beat (60000/bpm ms) divided across the bar's steps, so
// bpm=120, stepsPerBar=4 gives 125ms.
func (s *State) StepDuration() time.Duration {
	ms := 60000.0 / s.BPM / float64(s.StepsPerBar)
	return time.Duration(ms * float64(time.Millisecond))
}

// SetLoop restricts playback to [start, end). Passing (0, 0) clears the
// restriction and loops the full range again.
func (s *State) SetLoop(start, end int) error {
	if start == 0 && end == 0 {
		s.LoopStart, s.LoopEnd = 0, 0
		return nil
	}
	if start < 0 || end > s.TotalSteps() || start >= end {
		return &SchedulingError{Field: "loop", Reason: fmt.Sprintf("invalid range [%d,%d) on %d steps", start, end, s.TotalSteps())}
	}
	s.LoopStart, s.LoopEnd = start, end
	return nil
}

// AddClip places a clip on a track's lane, creating the lane on first use.
// The lane order (and therefore dispatch order) is the order tracks first
// received clips.
func (s *State) AddClip(trackID string, clip Clip) error {
	if clip.Start < 0 {
		return &SchedulingError{Field: "clip", Reason: fmt.Sprintf("negative start %d", clip.Start)}
	}
	if clip.Length <= 0 {
		return &SchedulingError{Field: "clip", Reason: fmt.Sprintf("non-positive length %d", clip.Length)}
	}
	for i := range s.Tracks {
		if s.Tracks[i].TrackID == trackID {
			s.Tracks[i].Clips = append(s.Tracks[i].Clips, clip)
			return nil
		}
	}
	s.Tracks = append(s.Tracks, Lane{TrackID: trackID, Clips: []Clip{clip}})
	return nil
}

// ClearTrack removes all clips for a track, keeping the lane
func (s *State) ClearTrack(trackID string) {
	for i := range s.Tracks {
		if s.Tracks[i].TrackID == trackID {
			s.Tracks[i].Clips = nil
			return
		}
	}
}

// trackSchedule is the flattened activation map for one lane
type trackSchedule struct {
	trackID  string
	active   []bool
	velocity []float64
}

// buildSchedules flattens every lane's clips into global-step activation
// maps. Overlapping active steps OR together; an active step's velocity is
// the loudest of the overlapping hits. Steps mapping outside the grid are
// ignored.
func (s *State) buildSchedules() []trackSchedule {
	total := s.TotalSteps()
	schedules := make([]trackSchedule, 0, len(s.Tracks))

	for _, lane := range s.Tracks {
		sched := trackSchedule{
			trackID:  lane.TrackID,
			active:   make([]bool, total),
			velocity: make([]float64, total),
		}
		for _, clip := range lane.Clips {
			for i := 0; i < clip.Length && i < len(clip.Steps); i++ {
				if !clip.Steps[i].Active {
					continue
				}
				global := clip.Start + i
				if global < 0 || global >= total {
					continue
				}
				sched.active[global] = true
				vel := clip.Steps[i].Velocity
				if vel <= 0 {
					vel = 1
				} else if vel > 1 {
					vel = 1
				}
				if vel > sched.velocity[global] {
					sched.velocity[global] = vel
				}
			}
		}
		schedules = append(schedules, sched)
	}
	return schedules
}
