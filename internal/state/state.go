package state

import (
	"errors"

	"geocam/internal/geo"
	"geocam/internal/models"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStreaming
	PhaseCaptured
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseStreaming:
		return "streaming"
	case PhaseCaptured:
		return "captured"
	case PhaseError:
		return "error"
	default:
		return "idle"
	}
}

// State is the whole session as the view sees it. Values are never mutated
// in place; transitions return a new State.
type State struct {
	Phase    Phase
	Image    *models.CapturedImage
	Position *models.Coordinate
	Target   string

	// Verdict and DistanceKm are derived from Position and Target.
	Verdict    models.Verdict
	DistanceKm float64

	Streaming bool
	Locating  bool

	// Err holds the last camera or location failure, TargetErr the last
	// target parse failure. Both are shown inline.
	Err       error
	TargetErr error

	policy geo.RangePolicy
}

// New returns the initial state. target may be empty.
func New(target string, policy geo.RangePolicy) State {
	s := State{Phase: PhaseIdle, Target: target, policy: policy}
	return s.derive()
}

// Transition maps one state to the next.
type Transition func(State) State

func CameraStarted() Transition {
	return func(s State) State {
		s.Streaming = true
		s.Err = nil
		if s.Phase == PhaseIdle || s.Phase == PhaseError {
			s.Phase = PhaseStreaming
		}
		return s.derive()
	}
}

func CameraFailed(err error) Transition {
	return func(s State) State {
		s.Streaming = false
		s.Err = err
		s.Phase = PhaseError
		return s.derive()
	}
}

// FrameCaptured replaces the image. It does not wait for the position.
// The phase stays Streaming until the fix for this capture resolves.
func FrameCaptured(img *models.CapturedImage) Transition {
	return func(s State) State {
		s.Image = img
		s.Err = nil
		s.Streaming = true
		s.Phase = PhaseStreaming
		return s.derive()
	}
}

func CaptureFailed(err error) Transition {
	return func(s State) State {
		s.Err = err
		if errors.Is(err, models.ErrNoActiveStream) {
			s.Streaming = false
		}
		s.Phase = PhaseError
		return s.derive()
	}
}

func FixRequested() Transition {
	return func(s State) State {
		s.Locating = true
		return s
	}
}

func FixResolved(pos models.Coordinate) Transition {
	return func(s State) State {
		s.Locating = false
		s.Position = &pos
		if s.Phase == PhaseError && errors.Is(s.Err, models.ErrLocationUnavailable) {
			s.Err = nil
			s.Phase = PhaseIdle
			if s.Streaming {
				s.Phase = PhaseStreaming
			}
		}
		return s.advance().derive()
	}
}

func FixFailed(err error) Transition {
	return func(s State) State {
		s.Locating = false
		s.Err = err
		s.Phase = PhaseError
		return s.derive()
	}
}

// TargetChanged stores the raw text; the verdict is recomputed against the
// position already held, without a new capture.
func TargetChanged(text string) Transition {
	return func(s State) State {
		s.Target = text
		return s.derive()
	}
}

// advance moves to Captured once both a frame and a fix are present.
func (s State) advance() State {
	if s.Image != nil && s.Position != nil && s.Phase == PhaseStreaming {
		s.Phase = PhaseCaptured
	}
	return s
}

func (s State) derive() State {
	s.Verdict = models.VerdictUnknown
	s.DistanceKm = 0
	s.TargetErr = nil

	if s.Target == "" {
		return s
	}

	target, err := geo.ParseTarget(s.Target, s.policy)
	if err != nil {
		s.TargetErr = err
		return s
	}

	if s.Position == nil {
		return s
	}

	s.Verdict, s.DistanceKm = geo.Evaluate(*s.Position, target)
	return s
}
