package scale

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/0xlemi/pentanote/internal/pitch"
)

func TestRootFret(t *testing.T) {
	cases := []struct {
		root pitch.PitchClass
		fret int
	}{
		{pitch.A, 5},
		{pitch.E, 12}, // open string is excluded, so E lands at fret 12
		{pitch.F, 1},
		{pitch.G, 3},
		{pitch.C, 8},
		{pitch.DSharp, 11},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.fret, RootFret(tc.root), "root %s", tc.root)
	}
}

func TestGenerateAMinorFirstPosition(t *testing.T) {
	seq, err := Generate(MinorPentatonic, pitch.A, 0)
	require.NoError(t, err)
	require.Len(t, seq, 12)

	// The classic box at fret 5: two notes per string.
	wantFrets := [][2]int{{5, 8}, {5, 7}, {5, 7}, {5, 7}, {5, 8}, {5, 8}}
	for s := 0; s < NumStrings; s++ {
		assert.Equal(t, wantFrets[s][0], seq[2*s].Fret, "string %d low", s)
		assert.Equal(t, wantFrets[s][1], seq[2*s+1].Fret, "string %d high", s)
		assert.Equal(t, s, seq[2*s].String)
		assert.Equal(t, s, seq[2*s+1].String)
	}

	// Starts and ends on the root.
	assert.Equal(t, pitch.A, seq[0].Class)
	assert.Equal(t, 2, seq[0].Octave)
	assert.Equal(t, pitch.C, seq[len(seq)-1].Class)
	assert.Equal(t, 5, seq[len(seq)-1].Octave)
}

func TestGenerateIsDeterministic(t *testing.T) {
	a, err := Generate(MinorPentatonic, pitch.G, 2)
	require.NoError(t, err)
	b, err := Generate(MinorPentatonic, pitch.G, 2)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateAllNotesInScale(t *testing.T) {
	roots := []pitch.PitchClass{pitch.A, pitch.C, pitch.E, pitch.FSharp}
	for _, root := range roots {
		for position := 0; position < NumPositions; position++ {
			seq, err := Generate(MinorPentatonic, root, position)
			require.NoError(t, err)
			require.Len(t, seq, 12)
			for i, step := range seq {
				assert.True(t, InScale(root, step.Class),
					"root %s position %d step %d: %s not in scale",
					root, position, i, step.Class)
			}
		}
	}
}

func TestGenerateAscendingPitch(t *testing.T) {
	for position := 0; position < NumPositions; position++ {
		seq, err := Generate(MinorPentatonic, pitch.A, position)
		require.NoError(t, err)
		for i := 1; i < len(seq); i++ {
			assert.Greater(t, seq[i].Frequency, seq[i-1].Frequency,
				"position %d: step %d not ascending", position, i)
		}
	}
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := Generate(Type(99), pitch.A, 0)
	assert.ErrorIs(t, err, ErrUnsupportedScale)

	_, err = Generate(MinorPentatonic, pitch.A, -1)
	assert.ErrorIs(t, err, ErrUnknownPosition)

	_, err = Generate(MinorPentatonic, pitch.A, NumPositions)
	assert.ErrorIs(t, err, ErrUnknownPosition)
}

func TestRoundTrip(t *testing.T) {
	seq, err := Generate(MinorPentatonic, pitch.A, 0)
	require.NoError(t, err)

	pattern := RoundTrip(seq)
	require.Len(t, pattern, 2*len(seq))
	for i, step := range seq {
		assert.Equal(t, step, pattern[i])
		assert.Equal(t, step, pattern[len(pattern)-1-i])
	}
}

func TestStepNote(t *testing.T) {
	seq, err := Generate(MinorPentatonic, pitch.A, 0)
	require.NoError(t, err)

	n := seq[0].Note()
	assert.Equal(t, seq[0].Class, n.Class)
	assert.Equal(t, seq[0].Octave, n.Octave)
	assert.InDelta(t, 110.0, n.Frequency, 0.01)
}

func TestInScale(t *testing.T) {
	// A minor pentatonic: A C D E G.
	in := []pitch.PitchClass{pitch.A, pitch.C, pitch.D, pitch.E, pitch.G}
	out := []pitch.PitchClass{pitch.B, pitch.CSharp, pitch.F, pitch.GSharp, pitch.ASharp, pitch.DSharp}
	for _, class := range in {
		assert.True(t, InScale(pitch.A, class), "%s", class)
	}
	for _, class := range out {
		assert.False(t, InScale(pitch.A, class), "%s", class)
	}
}
