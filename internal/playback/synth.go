// Package playback renders expected sequences as audible tones for the
// demonstration phase and generates the metronome used during capture.
package playback

import (
	"math"

	"github.com/0xlemi/pentanote/internal/scale"
)

// Synthesis constants. The harmonic stack and envelope give a rough
// plucked-string character instead of a bare sine.
const (
	clickFrequency = 1000.0
	clickDuration  = 0.05
	clickDecay     = 10.0

	attackSeconds  = 0.02
	decaySeconds   = 0.1
	sustainLevel   = 0.7
	releaseSeconds = 0.3

	outputGain = 0.3

	// CountInBeats is the number of metronome beats played before the
	// player is expected to start.
	CountInBeats = 4
)

var harmonicAmplitudes = []float64{1.0, 0.5, 0.3, 0.2}

// Tone synthesizes one note of the given duration.
func Tone(frequency, duration float64, sampleRate int) []float64 {
	n := int(duration * float64(sampleRate))
	if n <= 0 {
		return nil
	}
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		value := 0.0
		for h, amplitude := range harmonicAmplitudes {
			value += amplitude * math.Sin(2*math.Pi*frequency*float64(h+1)*t)
		}
		samples[i] = value
	}
	applyEnvelope(samples, sampleRate)
	for i := range samples {
		samples[i] *= outputGain
	}
	return samples
}

// applyEnvelope shapes the note with an attack/decay/sustain/release curve.
// Segment lengths are clamped so short notes at high tempos stay valid.
func applyEnvelope(samples []float64, sampleRate int) {
	n := len(samples)
	attack := clampSegment(int(attackSeconds*float64(sampleRate)), n)
	decay := clampSegment(int(decaySeconds*float64(sampleRate)), n-attack)
	release := clampSegment(int(releaseSeconds*float64(sampleRate)), n-attack-decay)

	for i := 0; i < attack; i++ {
		samples[i] *= float64(i) / float64(attack)
	}
	for i := 0; i < decay; i++ {
		level := 1 - (1-sustainLevel)*float64(i)/float64(decay)
		samples[attack+i] *= level
	}
	for i := attack + decay; i < n-release; i++ {
		samples[i] *= sustainLevel
	}
	for i := 0; i < release; i++ {
		level := sustainLevel * float64(release-i) / float64(release)
		samples[n-release+i] *= level
	}
}

func clampSegment(want, available int) int {
	if want > available {
		return available
	}
	if want < 0 {
		return 0
	}
	return want
}

// Click synthesizes a single decaying metronome click.
func Click(sampleRate int) []float64 {
	n := int(clickDuration * float64(sampleRate))
	samples := make([]float64, n)
	for i := range samples {
		t := float64(i) / float64(sampleRate)
		samples[i] = math.Sin(2*math.Pi*clickFrequency*t) * math.Exp(-clickDecay*t) * outputGain
	}
	return samples
}

// Metronome renders the given number of beats with a click at the start of
// each beat.
func Metronome(bpm, beats, sampleRate int) []float64 {
	samplesPerBeat := beatSamples(bpm, sampleRate)
	out := make([]float64, beats*samplesPerBeat)
	click := Click(sampleRate)
	for beat := 0; beat < beats; beat++ {
		mixAt(out, click, beat*samplesPerBeat)
	}
	return out
}

// RenderDemo renders the demonstration for a round: a four-beat count-in
// followed by one note per beat, each with the metronome click mixed in.
// The caller passes the full traversal (round trip included).
func RenderDemo(seq scale.Sequence, bpm, sampleRate int) []float64 {
	samplesPerBeat := beatSamples(bpm, sampleRate)
	out := make([]float64, (CountInBeats+len(seq))*samplesPerBeat)
	click := Click(sampleRate)

	for beat := 0; beat < CountInBeats; beat++ {
		mixAt(out, click, beat*samplesPerBeat)
	}

	beatSeconds := 60.0 / float64(bpm)
	for i, step := range seq {
		offset := (CountInBeats + i) * samplesPerBeat
		mixAt(out, Tone(step.Frequency, beatSeconds, sampleRate), offset)
		mixAt(out, click, offset)
	}
	return out
}

func beatSamples(bpm, sampleRate int) int {
	if bpm <= 0 {
		return sampleRate
	}
	return int(60.0 / float64(bpm) * float64(sampleRate))
}

func mixAt(dst, src []float64, offset int) {
	for i, v := range src {
		if offset+i >= len(dst) {
			return
		}
		dst[offset+i] += v
	}
}
