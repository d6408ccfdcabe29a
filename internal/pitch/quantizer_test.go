package pitch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const frameSeconds = 0.046 // ~2048 samples at 44.1 kHz

func voiced(frequency float64, frameIdx int) Estimate {
	return Estimate{
		Frequency:  frequency,
		Confidence: 0.9,
		Timestamp:  float64(frameIdx) * frameSeconds,
		Voiced:     true,
	}
}

func unvoiced(frameIdx int) Estimate {
	return Estimate{Timestamp: float64(frameIdx) * frameSeconds}
}

func feed(t *testing.T, q *Quantizer, estimates []Estimate) []NoteEvent {
	t.Helper()
	var events []NoteEvent
	for _, est := range estimates {
		if ev, ok := q.Update(est); ok {
			events = append(events, ev)
		}
	}
	return events
}

func TestStableNoteEmitsOneEvent(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	var estimates []Estimate
	for i := 0; i < 10; i++ {
		estimates = append(estimates, voiced(440.0, i))
	}
	for i := 10; i < 13; i++ {
		estimates = append(estimates, unvoiced(i))
	}

	events := feed(t, q, estimates)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, A, ev.Class)
	assert.Equal(t, 4, ev.Octave)
	assert.InDelta(t, 0, ev.Start, 1e-9)
	assert.InDelta(t, 10*frameSeconds, ev.End, 1e-9)
	assert.GreaterOrEqual(t, ev.End, ev.Start)
}

func TestFlickerBelowStabilityWindowEmitsNothing(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	// Alternating voiced/absent frames never reach 4 consecutive
	// agreeing frames.
	var estimates []Estimate
	for i := 0; i < 40; i++ {
		if i%2 == 0 {
			estimates = append(estimates, voiced(440.0, i))
		} else {
			estimates = append(estimates, unvoiced(i))
		}
	}

	events := feed(t, q, estimates)
	assert.Empty(t, events)

	_, ok := q.Flush()
	assert.False(t, ok, "no note should be open after flicker")
}

func TestShortBurstBelowOnsetWindow(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	estimates := []Estimate{
		voiced(440.0, 0),
		voiced(440.0, 1),
		voiced(440.0, 2), // one frame short of the onset window
		unvoiced(3),
		unvoiced(4),
		unvoiced(5),
		unvoiced(6),
	}
	events := feed(t, q, estimates)
	assert.Empty(t, events)
}

func TestNoteChangeClosesPreviousNote(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	var estimates []Estimate
	for i := 0; i < 8; i++ {
		estimates = append(estimates, voiced(440.0, i)) // A4
	}
	for i := 8; i < 16; i++ {
		estimates = append(estimates, voiced(523.25, i)) // C5
	}

	events := feed(t, q, estimates)
	require.Len(t, events, 1, "the A4 closes when C5 is confirmed")
	assert.Equal(t, A, events[0].Class)
	// The old note ends where the new note begins.
	assert.InDelta(t, 8*frameSeconds, events[0].End, 1e-9)

	ev, ok := q.Flush()
	require.True(t, ok)
	assert.Equal(t, C, ev.Class)
	assert.Equal(t, 5, ev.Octave)
	assert.InDelta(t, 8*frameSeconds, ev.Start, 1e-9)
}

func TestEventsDoNotOverlap(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	var estimates []Estimate
	idx := 0
	for _, frequency := range []float64{110.0, 146.83, 196.0, 246.94} {
		for i := 0; i < 6; i++ {
			estimates = append(estimates, voiced(frequency, idx))
			idx++
		}
		for i := 0; i < 4; i++ {
			estimates = append(estimates, unvoiced(idx))
			idx++
		}
	}

	events := feed(t, q, estimates)
	require.Len(t, events, 4)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Start, events[i-1].End,
			"events %d and %d overlap", i-1, i)
	}
}

func TestOutOfToleranceFramesAreIgnored(t *testing.T) {
	cfg := DefaultQuantizerConfig()
	q := NewQuantizer(cfg)

	// 40 cents sharp of A4 falls outside the 35-cent tolerance.
	sharp := 440.0 * 1.0234
	var estimates []Estimate
	for i := 0; i < 20; i++ {
		estimates = append(estimates, voiced(sharp, i))
	}
	events := feed(t, q, estimates)
	assert.Empty(t, events)
	_, ok := q.Flush()
	assert.False(t, ok)
}

func TestSilenceShorterThanOffsetWindowKeepsNoteOpen(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	var estimates []Estimate
	for i := 0; i < 6; i++ {
		estimates = append(estimates, voiced(440.0, i))
	}
	// Two absent frames: below the 3-frame offset window.
	estimates = append(estimates, unvoiced(6), unvoiced(7))
	for i := 8; i < 12; i++ {
		estimates = append(estimates, voiced(440.0, i))
	}

	events := feed(t, q, estimates)
	assert.Empty(t, events, "the dropout must not split the note")

	ev, ok := q.Flush()
	require.True(t, ok)
	assert.InDelta(t, 0, ev.Start, 1e-9)
	assert.InDelta(t, 11*frameSeconds, ev.End, 1e-9)
}

func TestVoicedFlickerInterruptsSilenceRun(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	var estimates []Estimate
	for i := 0; i < 6; i++ {
		estimates = append(estimates, voiced(440.0, i))
	}
	// Two absent frames, a single stray C5 frame, then silence: the offset
	// window needs 3 consecutive absent frames, so the flicker restarts it.
	estimates = append(estimates, unvoiced(6), unvoiced(7))
	estimates = append(estimates, voiced(523.25, 8))
	estimates = append(estimates, unvoiced(9), unvoiced(10), unvoiced(11))

	events := feed(t, q, estimates)
	require.Len(t, events, 1)
	assert.Equal(t, A, events[0].Class)
	assert.InDelta(t, 9*frameSeconds, events[0].End, 1e-9,
		"the offset lands on the silence run after the flicker")
}

func TestResetDiscardsOpenNote(t *testing.T) {
	q := NewQuantizer(DefaultQuantizerConfig())

	for i := 0; i < 8; i++ {
		q.Update(voiced(440.0, i))
	}
	q.Reset()

	_, ok := q.Flush()
	assert.False(t, ok)
}
