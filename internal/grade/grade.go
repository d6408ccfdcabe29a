// Package grade aligns a captured note sequence against the expected scale
// pattern and scores the attempt.
package grade

import (
	"math"

	"github.com/0xlemi/pentanote/internal/pitch"
	"github.com/0xlemi/pentanote/internal/scale"
)

// Outcome classifies one aligned slot of the grading result.
type Outcome int

const (
	Matched     Outcome = iota // played note equals the expected note
	Substituted                // a note was played in the slot but the pitch is wrong
	Missed                     // expected note with no played note aligned to it
	Extra                      // played note with no expected note aligned to it
)

func (o Outcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case Substituted:
		return "substituted"
	case Missed:
		return "missed"
	case Extra:
		return "extra"
	default:
		return "unknown"
	}
}

// NoteResult is the per-note diagnostic for one aligned slot.
type NoteResult struct {
	Outcome  Outcome
	Expected *scale.Step      // nil for Extra
	Played   *pitch.NoteEvent // nil for Missed

	// TimingErrMs is |played onset - nominal beat time| for matched notes.
	// Diagnostic only; it does not affect the accuracy score.
	TimingErrMs float64
	HasTiming   bool
}

// Result is the outcome of grading one completed round.
type Result struct {
	Accuracy    float64 // matched / expected, in [0, 1]
	Matched     int
	Substituted int
	Missed      int
	Extra       int
	Notes       []NoteResult
}

// Perfect reports whether every expected note was matched with nothing
// extra or substituted.
func (r Result) Perfect() bool {
	return r.Accuracy == 1.0 && r.Substituted == 0 && r.Extra == 0
}

// Grade aligns the played events against the expected sequence with a
// minimum-cost ordered alignment (match 0, substitution 1, insertion 1,
// deletion 1) and scores the attempt. Matched pairs never cross in time.
// On cost ties the diagonal wins, so equal-length stretches compare slot
// by slot and a repeated expected note is credited at the earliest slot
// where it fits. bpm sets the nominal beat grid used for the timing
// diagnostics.
func Grade(expected scale.Sequence, played []pitch.NoteEvent, bpm int) Result {
	n := len(expected)
	m := len(played)

	// cost[i][j] = minimal alignment cost of expected[i:] vs played[j:].
	// Walking the table forward from (0,0) and preferring the diagonal on
	// equal cost yields the earliest-in-time matching.
	cost := make([][]int, n+1)
	for i := range cost {
		cost[i] = make([]int, m+1)
	}
	for i := n - 1; i >= 0; i-- {
		cost[i][m] = n - i // remaining expected notes all missed
	}
	for j := m - 1; j >= 0; j-- {
		cost[n][j] = m - j // remaining played notes all extra
	}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			best := cost[i+1][j+1] + substitutionCost(expected[i], played[j])
			if del := cost[i+1][j] + 1; del < best {
				best = del
			}
			if ins := cost[i][j+1] + 1; ins < best {
				best = ins
			}
			cost[i][j] = best
		}
	}

	beatSeconds := 0.0
	if bpm > 0 {
		beatSeconds = 60.0 / float64(bpm)
	}

	res := Result{Notes: make([]NoteResult, 0, n+m)}
	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && cost[i][j] == cost[i+1][j+1]+substitutionCost(expected[i], played[j]):
			nr := NoteResult{Expected: &expected[i], Played: &played[j]}
			if sameNote(expected[i], played[j]) {
				nr.Outcome = Matched
				res.Matched++
				if beatSeconds > 0 {
					nominal := float64(i) * beatSeconds
					nr.TimingErrMs = math.Abs(played[j].Start-nominal) * 1000
					nr.HasTiming = true
				}
			} else {
				nr.Outcome = Substituted
				res.Substituted++
			}
			res.Notes = append(res.Notes, nr)
			i++
			j++
		case i < n && cost[i][j] == cost[i+1][j]+1:
			res.Notes = append(res.Notes, NoteResult{Outcome: Missed, Expected: &expected[i]})
			res.Missed++
			i++
		default:
			res.Notes = append(res.Notes, NoteResult{Outcome: Extra, Played: &played[j]})
			res.Extra++
			j++
		}
	}

	if n > 0 {
		res.Accuracy = float64(res.Matched) / float64(n)
	}
	return res
}

func substitutionCost(exp scale.Step, ev pitch.NoteEvent) int {
	if sameNote(exp, ev) {
		return 0
	}
	return 1
}

func sameNote(exp scale.Step, ev pitch.NoteEvent) bool {
	return exp.Class == ev.Class && exp.Octave == ev.Octave
}
