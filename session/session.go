// Package session provides the explicit context object that owns one
// workspace's engine core: the mix graph, the sequencer, the analyzers and
// the logger. Everything is constructed and passed by reference; there is
// no process-wide mutable audio state.
package session

import (
	"github.com/beatlabhq/beatlab-engine/analysis/spectral"
	"github.com/beatlabhq/beatlab-engine/analysis/temporal"
	"github.com/beatlabhq/beatlab-engine/analysis/tonal"
	"github.com/beatlabhq/beatlab-engine/audio"
	"github.com/beatlabhq/beatlab-engine/logging"
	"github.com/beatlabhq/beatlab-engine/mix"
	"github.com/beatlabhq/beatlab-engine/pattern"
	"github.com/beatlabhq/beatlab-engine/sequencer"
	"github.com/beatlabhq/beatlab-engine/synth"
)

// Session owns the engine core for one open workspace
type Session struct {
	cfg    EngineConfig
	logger logging.Logger

	graph  *mix.Graph
	state  *sequencer.State
	engine *sequencer.Engine
	stream *audio.StreamBuffer

	analyzer   *spectral.Analyzer
	identifier *tonal.Identifier
	detector   *temporal.Detector
}

// NewSession wires a session from its configuration and a synthesis
// runtime. logger may be nil, in which case the global logger is used.
func NewSession(cfg EngineConfig, runtime synth.Runtime, logger logging.Logger) (*Session, error) {
	if logger == nil {
		logger = logging.GetGlobalLogger()
	}
	logger = logger.WithFields(logging.Fields{"component": "session"})

	state, err := sequencer.NewState(cfg.BPM, cfg.Swing, cfg.Bars, cfg.StepsPerBar)
	if err != nil {
		return nil, err
	}

	graph := mix.NewGraph()

	engine, err := sequencer.NewEngine(state, graph, runtime, logger)
	if err != nil {
		return nil, err
	}

	stream, err := audio.NewStreamBuffer(cfg.SampleRate, 1, cfg.CaptureWindow)
	if err != nil {
		return nil, err
	}

	return &Session{
		cfg:        cfg,
		logger:     logger,
		graph:      graph,
		state:      state,
		engine:     engine,
		stream:     stream,
		analyzer:   spectral.NewAnalyzer(),
		identifier: tonal.NewIdentifier(),
		detector:   temporal.NewDetector(cfg.Beat),
	}, nil
}

// Graph returns the session's mix graph
func (s *Session) Graph() *mix.Graph { return s.graph }

// State returns the session's timeline
func (s *Session) State() *sequencer.State { return s.state }

// Engine returns the session's sequencer engine
func (s *Session) Engine() *sequencer.Engine { return s.engine }

// Stream returns the rolling capture buffer for live input
func (s *Session) Stream() *audio.StreamBuffer { return s.stream }

// Config returns the session's configuration
func (s *Session) Config() EngineConfig { return s.cfg }

// AnalyzeChord runs the offline chord pipeline on a buffer: magnitude
// spectrum, fundamental peaks, then template matching. The error is an
// audio.AnalysisError only when the buffer cannot be interpreted at all;
// an inconclusive spectrum still returns a zero-confidence match so the
// caller can tell "unusable input" from "no chord found".
func (s *Session) AnalyzeChord(buf *audio.SampleBuffer) (tonal.ChordMatch, error) {
	if err := buf.Validate(); err != nil {
		return tonal.ChordMatch{}, err
	}
	spectrum := s.analyzer.Analyze(buf, s.cfg.AnalysisWindowSize)
	peaks := spectral.FindPeaks(spectrum, s.cfg.Peak)
	match := s.identifier.Identify(spectral.Frequencies(peaks))

	s.logger.Debug("chord analysis", logging.Fields{
		"peaks":      len(peaks),
		"label":      match.Label,
		"confidence": match.Confidence,
	})
	return match, nil
}

// AnalyzeStreamChord runs chord analysis over the current capture window
func (s *Session) AnalyzeStreamChord() (tonal.ChordMatch, error) {
	return s.AnalyzeChord(s.stream.Snapshot())
}

// DetectBeat estimates tempo and time signature from a buffer
func (s *Session) DetectBeat(buf *audio.SampleBuffer) (*temporal.BeatEstimate, error) {
	estimate, err := s.detector.Detect(buf)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("beat detection", logging.Fields{
		"bpm":        estimate.BPM,
		"confidence": estimate.Confidence,
		"beats":      len(estimate.BeatTimes),
	})
	return estimate, nil
}

// ImportPattern normalizes a generated instrument->steps mapping and loads
// it onto the timeline: one clip per canonical instrument starting at
// step 0, with mix tracks created on first use (routed to master).
func (s *Session) ImportPattern(source map[string][]bool) error {
	normalized := pattern.Normalize(source, s.cfg.PatternLength)

	for _, instrument := range pattern.Instruments() {
		row := normalized[instrument]

		if _, ok := s.graph.Track(instrument); !ok {
			if _, err := s.graph.AddTrack(instrument, mix.MasterBusID); err != nil {
				return err
			}
		}

		steps := make([]sequencer.Step, len(row))
		for i, active := range row {
			steps[i] = sequencer.Step{Active: active, Velocity: 1}
		}
		clip := sequencer.Clip{
			Name:   instrument + " pattern",
			Start:  0,
			Length: len(steps),
			Steps:  steps,
		}
		s.state.ClearTrack(instrument)
		if err := s.state.AddClip(instrument, clip); err != nil {
			return err
		}
	}

	s.logger.Info("pattern imported", logging.Fields{
		"instruments": len(pattern.Instruments()),
		"steps":       s.cfg.PatternLength,
	})
	return nil
}

// Close stops playback and releases the synthesis runtime
func (s *Session) Close() error {
	return s.engine.Close()
}
