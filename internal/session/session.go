// Package session holds the practice-session state and the progression
// rule applied after each graded round.
package session

import (
	"fmt"

	"github.com/0xlemi/pentanote/internal/grade"
	"github.com/0xlemi/pentanote/internal/scale"
)

// Tempo limits and defaults, matching the trainer's gamification rule.
const (
	DefaultBaseBPM   = 120
	DefaultTargetBPM = 240
	MinTargetBPM     = 60
	MaxTargetBPM     = 300
	BPMStep          = 10
)

// Attempt records one graded round for the session history.
type Attempt struct {
	Position int
	BPM      int
	Accuracy float64
}

// State is the session state. It is a value: transitions return a new State
// instead of mutating in place, so there is no hidden shared mutation.
type State struct {
	BaseBPM    int
	CurrentBPM int
	TargetBPM  int
	Position   int // position currently being practiced
	Unlocked   int // highest unlocked position index
	History    []Attempt
}

// NewState returns the initial session state: 120 bpm at position 0.
func NewState() State {
	return State{
		BaseBPM:    DefaultBaseBPM,
		CurrentBPM: DefaultBaseBPM,
		TargetBPM:  DefaultTargetBPM,
		Position:   0,
		Unlocked:   0,
	}
}

// SetTargetBPM returns a copy of the state with the target tempo changed.
// The current tempo is clamped down to the new target when it overshoots.
func (s State) SetTargetBPM(target int) (State, error) {
	if target < MinTargetBPM || target > MaxTargetBPM {
		return s, fmt.Errorf("target bpm %d out of range [%d, %d]", target, MinTargetBPM, MaxTargetBPM)
	}
	next := s
	next.TargetBPM = target
	if next.CurrentBPM > target {
		next.CurrentBPM = target
	}
	return next, nil
}

// Apply folds one graded round into the state:
//
//   - a perfect round below the target tempo raises the tempo by BPMStep,
//     clamped at the target;
//   - a perfect round at the target tempo unlocks the next position (when
//     one is defined) and resets the tempo to the session base;
//   - anything else leaves the state unchanged.
//
// The tempo never decreases and positions never re-lock. When every
// position is unlocked, further rounds repeat the last position at its
// target tempo.
func (s State) Apply(res grade.Result) State {
	next := s
	next.History = append(append([]Attempt(nil), s.History...), Attempt{
		Position: s.Position,
		BPM:      s.CurrentBPM,
		Accuracy: res.Accuracy,
	})

	if res.Accuracy != 1.0 {
		return next
	}

	switch {
	case s.CurrentBPM < s.TargetBPM:
		next.CurrentBPM = s.CurrentBPM + BPMStep
		if next.CurrentBPM > s.TargetBPM {
			next.CurrentBPM = s.TargetBPM
		}
	case s.CurrentBPM == s.TargetBPM:
		if s.Position+1 < scale.NumPositions {
			next.Position = s.Position + 1
			if next.Position > next.Unlocked {
				next.Unlocked = next.Position
			}
			next.CurrentBPM = s.BaseBPM
		}
	}
	return next
}
