package scale

import (
	"errors"
	"fmt"

	"github.com/0xlemi/pentanote/internal/pitch"
)

// Errors
var (
	ErrUnsupportedScale = errors.New("unsupported scale type")
	ErrUnknownPosition  = errors.New("unknown scale position")
)

// Type identifies a scale type. Only the minor pentatonic is implemented;
// other values are rejected rather than silently defaulted.
type Type int

const (
	MinorPentatonic Type = iota
)

func (t Type) String() string {
	switch t {
	case MinorPentatonic:
		return "minor pentatonic"
	default:
		return fmt.Sprintf("scale(%d)", int(t))
	}
}

// Semitone offsets of the minor pentatonic from its root.
var minorPentatonicIntervals = [5]int{0, 3, 5, 7, 10}

// NumStrings is the number of guitar strings, NumPositions the number of
// defined pentatonic box positions.
const (
	NumStrings   = 6
	NumPositions = 5
)

// MIDI pitch of each open string in standard tuning, low to high:
// E2 A2 D3 G3 B3 E4.
var openStringMIDI = [NumStrings]int{40, 45, 50, 55, 59, 64}

// Step is one entry of an expected practice sequence: the note to play and
// where it sits on the fretboard. String 0 is the low E string.
type Step struct {
	Class     pitch.PitchClass
	Octave    int
	String    int
	Fret      int
	Frequency float64
}

// Note returns the step as a pitch.Note.
func (s Step) Note() pitch.Note {
	return pitch.NoteFromMIDI((s.Octave+1)*12 + int(s.Class))
}

// Sequence is the ordered list of notes expected for one practice round.
type Sequence []Step

// The five pentatonic box positions, as [low fret, high fret] offsets per
// string relative to the root fret on the low E string. With an A root
// (root fret 5) these reproduce the classic positions at frets 5, 8, 10,
// 12 and 15.
var positionBoxes = [NumPositions][NumStrings][2]int{
	{{0, 3}, {0, 2}, {0, 2}, {0, 2}, {0, 3}, {0, 3}},
	{{3, 5}, {2, 5}, {2, 5}, {2, 4}, {3, 5}, {3, 5}},
	{{5, 7}, {5, 7}, {5, 7}, {4, 7}, {5, 7}, {5, 7}},
	{{7, 10}, {7, 10}, {7, 9}, {7, 9}, {7, 10}, {7, 10}},
	{{10, 12}, {10, 12}, {9, 12}, {9, 12}, {10, 12}, {10, 12}},
}

// RootFret returns the fret of the root pitch class on the low E string,
// in the range 1..12.
func RootFret(root pitch.PitchClass) int {
	for fret := 1; fret <= 12; fret++ {
		if pitch.PitchClass((openStringMIDI[0]+fret)%12) == root {
			return fret
		}
	}
	return 1 // unreachable: every pitch class occurs within 12 frets
}

// Generate produces the ascending expected sequence for one scale position.
// It is a pure function: the same arguments always yield the same sequence.
// Traversal is low string to high string, ascending frets within a string.
func Generate(scaleType Type, root pitch.PitchClass, position int) (Sequence, error) {
	if scaleType != MinorPentatonic {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScale, scaleType)
	}
	if position < 0 || position >= NumPositions {
		return nil, fmt.Errorf("%w: %d (have %d)", ErrUnknownPosition, position, NumPositions)
	}

	rootFret := RootFret(root)
	box := positionBoxes[position]

	seq := make(Sequence, 0, NumStrings*2)
	for stringIdx := 0; stringIdx < NumStrings; stringIdx++ {
		for _, offset := range box[stringIdx] {
			fret := rootFret + offset
			midi := openStringMIDI[stringIdx] + fret
			note := pitch.NoteFromMIDI(midi)
			seq = append(seq, Step{
				Class:     note.Class,
				Octave:    note.Octave,
				String:    stringIdx,
				Fret:      fret,
				Frequency: note.Frequency,
			})
		}
	}
	return seq, nil
}

// RoundTrip returns the practice-pattern traversal of a sequence: the
// ascending pass followed by the same notes descending.
func RoundTrip(seq Sequence) Sequence {
	out := make(Sequence, 0, len(seq)*2)
	out = append(out, seq...)
	for i := len(seq) - 1; i >= 0; i-- {
		out = append(out, seq[i])
	}
	return out
}

// InScale reports whether a pitch class belongs to the minor pentatonic
// scale built on the given root.
func InScale(root, class pitch.PitchClass) bool {
	diff := (int(class) - int(root) + 12) % 12
	for _, interval := range minorPentatonicIntervals {
		if diff == interval {
			return true
		}
	}
	return false
}
