package pitch

import (
	"fmt"
	"math"
	"strings"
)

// Reference tuning: A4 = 440 Hz = MIDI 69.
const (
	A4Frequency = 440.0
	a4MIDI      = 69
)

// PitchClass is one of the 12 semitone names, 0 = C through 11 = B.
type PitchClass int

// All pitch classes in chromatic order
const (
	C PitchClass = iota
	CSharp
	D
	DSharp
	E
	F
	FSharp
	G
	GSharp
	A
	ASharp
	B
)

var pitchClassNames = []string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

func (p PitchClass) String() string {
	if p < 0 || int(p) >= len(pitchClassNames) {
		return "?"
	}
	return pitchClassNames[p]
}

// ParsePitchClass parses a pitch class name like "A" or "F#".
func ParsePitchClass(name string) (PitchClass, error) {
	for i, candidate := range pitchClassNames {
		if strings.EqualFold(name, candidate) {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pitch class %q", name)
}

// Note represents a musical note
type Note struct {
	Class     PitchClass
	Octave    int     // e.g. 4 for middle C (C4)
	Frequency float64 // Frequency in Hz
	Cents     float64 // Cents deviation from perfect pitch (-50 to +50)
}

// Name returns the conventional name, e.g. "A4".
func (n Note) Name() string {
	return fmt.Sprintf("%s%d", n.Class, n.Octave)
}

// MIDI returns the MIDI note number, C4 = 60.
func (n Note) MIDI() int {
	return (n.Octave+1)*12 + int(n.Class)
}

// NoteFromMIDI builds a Note (with its equal-tempered frequency) from a
// MIDI note number.
func NoteFromMIDI(midi int) Note {
	return Note{
		Class:     PitchClass(((midi % 12) + 12) % 12),
		Octave:    midi/12 - 1,
		Frequency: MIDIFrequency(midi),
	}
}

// MIDIFrequency returns the equal-tempered frequency of a MIDI note number.
func MIDIFrequency(midi int) float64 {
	return A4Frequency * math.Pow(2, float64(midi-a4MIDI)/12)
}

// FromFrequency converts a frequency to the nearest equal-tempered note.
// A frequency exactly between two notes resolves to the lower one.
func FromFrequency(frequency float64) Note {
	semitones := 12 * math.Log2(frequency/A4Frequency)

	// round half toward the lower note index
	rounded := math.Ceil(semitones - 0.5)

	cents := 100 * (semitones - rounded)

	midi := a4MIDI + int(rounded)
	note := NoteFromMIDI(midi)
	note.Frequency = frequency
	note.Cents = cents
	return note
}
