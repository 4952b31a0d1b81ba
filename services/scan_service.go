package services

import (
	"errors"
	"sync"
	"time"

	"github.com/camden-git/attendsysbackend/attendance"
	"github.com/camden-git/attendsysbackend/realtime"
)

// ImageEncoder turns a captured still image into a probe embedding.
// Implemented by recognition.Recognizer.
type ImageEncoder interface {
	EncodeImage(data []byte) ([]float32, error)
}

// ScanService runs the full scan pipeline: probe -> matcher -> decision
// engine, broadcasting every verdict to the realtime hub. Scans are
// serialized; a kiosk processes one attempt at a time.
type ScanService struct {
	matcher   *attendance.Matcher
	engine    *attendance.Engine
	encoder   ImageEncoder // nil when the face models are not loaded
	hub       *realtime.Hub
	device    string
	tolerance float64

	mu sync.Mutex
}

// NewScanService creates the scan pipeline. encoder may be nil, in which
// case only the probe-vector endpoint works.
func NewScanService(matcher *attendance.Matcher, engine *attendance.Engine, encoder ImageEncoder, hub *realtime.Hub, device string, tolerance float64) *ScanService {
	return &ScanService{
		matcher:   matcher,
		engine:    engine,
		encoder:   encoder,
		hub:       hub,
		device:    device,
		tolerance: tolerance,
	}
}

// HasEncoder reports whether the image path is available.
func (s *ScanService) HasEncoder() bool {
	return s.encoder != nil
}

// ScanImage encodes the captured image and evaluates the scan attempt. The
// error return covers the image itself (undecodable, no face); policy
// results come back as the outcome.
func (s *ScanService) ScanImage(data []byte, at time.Time) (attendance.Outcome, error) {
	if s.encoder == nil {
		return attendance.Outcome{}, errors.New("scan: image encoding unavailable, face models not loaded")
	}
	probe, err := s.encoder.EncodeImage(data)
	if err != nil {
		return attendance.Outcome{}, err
	}
	return s.ScanProbe(probe, at), nil
}

// ScanProbe matches the probe against the enrollment and, on a match, asks
// the decision engine for a verdict. Tolerance may be overridden per call
// with a non-zero value (operator adjustable).
func (s *ScanService) ScanProbe(probe []float32, at time.Time) attendance.Outcome {
	return s.ScanProbeWithTolerance(probe, s.tolerance, at)
}

// ScanProbeWithTolerance is ScanProbe with an explicit tolerance.
func (s *ScanService) ScanProbeWithTolerance(probe []float32, tolerance float64, at time.Time) attendance.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	var outcome attendance.Outcome

	match, err := s.matcher.Match(probe, tolerance)
	switch {
	case err != nil:
		outcome = attendance.Outcome{Kind: attendance.OutcomeStorageError, Detail: err.Error()}
	case match == nil:
		// no state changes anywhere for an unrecognized face
		outcome = attendance.UnknownIdentity()
	default:
		outcome = s.engine.Decide(attendance.Identity{
			EmployeeID: match.EmployeeID,
			EmpCode:    match.EmpCode,
			Name:       match.Name,
		}, at)
	}

	s.broadcast(outcome, at)
	return outcome
}

func (s *ScanService) broadcast(outcome attendance.Outcome, at time.Time) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(realtime.ScanEvent{
		Kind:             string(outcome.Kind),
		EmpCode:          outcome.EmpCode,
		Name:             outcome.Name,
		Direction:        outcome.Direction,
		SecondsRemaining: outcome.SecondsRemaining,
		Device:           s.device,
		Timestamp:        at.Unix(),
	})
}
