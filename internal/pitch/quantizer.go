package pitch

import "math"

// NoteEvent is a completed note detected in the stream. Events from one
// monophonic capture never overlap and End is always >= Start.
type NoteEvent struct {
	Class  PitchClass
	Octave int
	Start  float64 // seconds, onset
	End    float64 // seconds, offset
}

// Note returns the equal-tempered note the event quantized to.
func (ev NoteEvent) Note() Note {
	return NoteFromMIDI((ev.Octave+1)*12 + int(ev.Class))
}

// Duration returns the length of the event in seconds.
func (ev NoteEvent) Duration() float64 {
	return ev.End - ev.Start
}

// QuantizerConfig holds the debouncing tunables.
type QuantizerConfig struct {
	OnsetFrames    int     // consecutive agreeing frames required to open a note
	SilenceFrames  int     // consecutive unvoiced frames required to close a note
	CentsTolerance float64 // maximum deviation from the nearest note, in cents
}

// DefaultQuantizerConfig returns the defaults used by the practice round.
func DefaultQuantizerConfig() QuantizerConfig {
	return QuantizerConfig{
		OnsetFrames:    4,
		SilenceFrames:  3,
		CentsTolerance: 35,
	}
}

// Quantizer turns per-frame pitch estimates into discrete note events.
// It is stateful and must be fed estimates in arrival order. A note onset is
// declared only after OnsetFrames consecutive frames quantize to the same
// note within the cents tolerance, so single-frame flicker (transitions,
// doubled-frequency glitches) never emits an event.
type Quantizer struct {
	cfg QuantizerConfig

	// onset candidate
	candidateMIDI  int
	candidateCount int
	candidateStart float64

	// open note
	active       bool
	activeMIDI   int
	activeStart  float64
	lastSeen     float64 // timestamp of the last frame belonging to the open note
	silenceCount int
	silenceStart float64
}

// NewQuantizer creates a quantizer with the given configuration. Zero or
// negative window lengths fall back to the defaults.
func NewQuantizer(cfg QuantizerConfig) *Quantizer {
	def := DefaultQuantizerConfig()
	if cfg.OnsetFrames <= 0 {
		cfg.OnsetFrames = def.OnsetFrames
	}
	if cfg.SilenceFrames <= 0 {
		cfg.SilenceFrames = def.SilenceFrames
	}
	if cfg.CentsTolerance <= 0 {
		cfg.CentsTolerance = def.CentsTolerance
	}
	return &Quantizer{cfg: cfg, candidateMIDI: -1, activeMIDI: -1}
}

// Reset discards all in-flight state. Used when a round is cancelled.
func (q *Quantizer) Reset() {
	q.candidateMIDI = -1
	q.candidateCount = 0
	q.active = false
	q.activeMIDI = -1
	q.silenceCount = 0
}

// Update consumes one estimate and reports a completed NoteEvent when an
// offset is declared, with ok=false otherwise.
func (q *Quantizer) Update(est Estimate) (NoteEvent, bool) {
	if !est.Voiced {
		return q.onUnvoiced(est)
	}

	note := FromFrequency(est.Frequency)
	if math.Abs(note.Cents) > q.cfg.CentsTolerance {
		// Between notes; cannot be attributed to either neighbor.
		return q.onUnvoiced(est)
	}
	midi := note.MIDI()

	if q.active && midi == q.activeMIDI {
		// The open note continues.
		q.lastSeen = est.Timestamp
		q.silenceCount = 0
		q.candidateCount = 0
		q.candidateMIDI = -1
		return NoteEvent{}, false
	}

	// A voiced frame interrupts any silence run even when it belongs to a
	// different note; the offset window counts consecutive absent frames.
	q.silenceCount = 0

	if midi == q.candidateMIDI {
		q.candidateCount++
	} else {
		q.candidateMIDI = midi
		q.candidateCount = 1
		q.candidateStart = est.Timestamp
	}

	if q.candidateCount < q.cfg.OnsetFrames {
		return NoteEvent{}, false
	}

	// Onset confirmed. Close the previous note at the new onset if one is
	// still open (pitch change without intervening silence).
	var closed NoteEvent
	emitted := false
	if q.active {
		closed = q.closeActive(q.candidateStart)
		emitted = true
	}

	q.active = true
	q.activeMIDI = midi
	q.activeStart = q.candidateStart
	q.lastSeen = est.Timestamp
	q.silenceCount = 0
	q.candidateMIDI = -1
	q.candidateCount = 0
	return closed, emitted
}

// Flush closes the open note, if any, at the last seen timestamp. Called at
// the end of a completed round; cancelled rounds call Reset instead.
func (q *Quantizer) Flush() (NoteEvent, bool) {
	if !q.active {
		return NoteEvent{}, false
	}
	return q.closeActive(q.lastSeen), true
}

func (q *Quantizer) onUnvoiced(est Estimate) (NoteEvent, bool) {
	q.candidateMIDI = -1
	q.candidateCount = 0

	if !q.active {
		return NoteEvent{}, false
	}
	if q.silenceCount == 0 {
		q.silenceStart = est.Timestamp
	}
	q.silenceCount++
	if q.silenceCount < q.cfg.SilenceFrames {
		return NoteEvent{}, false
	}
	return q.closeActive(q.silenceStart), true
}

func (q *Quantizer) closeActive(end float64) NoteEvent {
	if end < q.activeStart {
		end = q.activeStart
	}
	ev := NoteEvent{
		Class:  PitchClass(((q.activeMIDI % 12) + 12) % 12),
		Octave: q.activeMIDI/12 - 1,
		Start:  q.activeStart,
		End:    end,
	}
	q.active = false
	q.activeMIDI = -1
	q.silenceCount = 0
	return ev
}
