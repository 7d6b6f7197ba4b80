package sequencer

import (
	"testing"
	"time"
)

// TestNewState_RejectsInvalidTiming: construction fails rather than clamps
func TestNewState_RejectsInvalidTiming(t *testing.T) {
	cases := []struct {
		name        string
		bpm, swing  float64
		bars, steps int
	}{
		{"zero bpm", 0, 0, 2, 4},
		{"negative bpm", -120, 0, 2, 4},
		{"zero bars", 120, 0, 0, 4},
		{"zero steps per bar", 120, 0, 2, 0},
		{"swing above range", 120, 1.5, 2, 4},
		{"swing below range", 120, -0.1, 2, 4},
	}
	for _, c := range cases {
		if _, err := NewState(c.bpm, c.swing, c.bars, c.steps); err == nil {
			t.Errorf("%s: expected SchedulingError", c.name)
		}
	}
}

// TestState_GridArithmetic: bpm=120, stepsPerBar=4, bars=2 => 8 steps of 125ms
func TestState_GridArithmetic(t *testing.T) {
	s, err := NewState(120, 0, 2, 4)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if s.TotalSteps() != 8 {
		t.Errorf("TotalSteps = %d, want 8", s.TotalSteps())
	}
	if s.StepDuration() != 125*time.Millisecond {
		t.Errorf("StepDuration = %v, want 125ms", s.StepDuration())
	}
}

// TestBuildSchedules_ClipPlacement: clip {start:4, length:4, all active}
// on an 8-step timeline activates exactly steps 4-7
func TestBuildSchedules_ClipPlacement(t *testing.T) {
	s, err := NewState(120, 0, 2, 4)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	steps := make([]Step, 4)
	for i := range steps {
		steps[i] = Step{Active: true}
	}
	if err := s.AddClip("drums", Clip{Start: 4, Length: 4, Steps: steps}); err != nil {
		t.Fatalf("AddClip: %v", err)
	}

	schedules := s.buildSchedules()
	if len(schedules) != 1 {
		t.Fatalf("expected 1 schedule, got %d", len(schedules))
	}
	want := []bool{false, false, false, false, true, true, true, true}
	for i, w := range want {
		if schedules[0].active[i] != w {
			t.Errorf("step %d active = %v, want %v", i, schedules[0].active[i], w)
		}
	}
}

// TestBuildSchedules_OverlappingClipsOR: overlapping active steps combine
func TestBuildSchedules_OverlappingClipsOR(t *testing.T) {
	s, err := NewState(120, 0, 2, 4)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.AddClip("drums", Clip{Start: 0, Length: 2, Steps: []Step{
		{Active: true, Velocity: 0.5}, {Active: false},
	}}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddClip("drums", Clip{Start: 1, Length: 2, Steps: []Step{
		{Active: true, Velocity: 0.7}, {Active: true},
	}}); err != nil {
		t.Fatal(err)
	}

	sched := s.buildSchedules()[0]
	want := []bool{true, true, true, false, false, false, false, false}
	for i, w := range want {
		if sched.active[i] != w {
			t.Errorf("step %d active = %v, want %v", i, sched.active[i], w)
		}
	}
	// Defaulted velocity (zero value) becomes the full hit.
	if sched.velocity[2] != 1 {
		t.Errorf("step 2 velocity = %v, want default 1", sched.velocity[2])
	}
}

// TestBuildSchedules_OutOfRangeStepsIgnored: steps past the grid are dropped
func TestBuildSchedules_OutOfRangeStepsIgnored(t *testing.T) {
	s, err := NewState(120, 0, 2, 4)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	steps := make([]Step, 4)
	for i := range steps {
		steps[i] = Step{Active: true}
	}
	// Only global steps 6 and 7 fall inside the 8-step grid.
	if err := s.AddClip("drums", Clip{Start: 6, Length: 4, Steps: steps}); err != nil {
		t.Fatalf("AddClip: %v", err)
	}

	sched := s.buildSchedules()[0]
	active := 0
	for _, a := range sched.active {
		if a {
			active++
		}
	}
	if active != 2 {
		t.Errorf("active steps = %d, want 2", active)
	}
}

// TestAddClip_RejectsInvalidBounds
func TestAddClip_RejectsInvalidBounds(t *testing.T) {
	s, err := NewState(120, 0, 2, 4)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.AddClip("drums", Clip{Start: -1, Length: 4}); err == nil {
		t.Error("expected error for negative start")
	}
	if err := s.AddClip("drums", Clip{Start: 0, Length: 0}); err == nil {
		t.Error("expected error for zero length")
	}
}

// TestSetLoop_Validation
func TestSetLoop_Validation(t *testing.T) {
	s, err := NewState(120, 0, 2, 4)
	if err != nil {
		t.Fatalf("NewState: %v", err)
	}
	if err := s.SetLoop(2, 6); err != nil {
		t.Errorf("valid loop rejected: %v", err)
	}
	if err := s.SetLoop(6, 2); err == nil {
		t.Error("expected error for inverted loop")
	}
	if err := s.SetLoop(0, 9); err == nil {
		t.Error("expected error for loop past grid end")
	}
	if err := s.SetLoop(0, 0); err != nil {
		t.Errorf("clearing loop failed: %v", err)
	}
	if s.LoopEnd != 0 {
		t.Errorf("loop not cleared: end = %d", s.LoopEnd)
	}
}
