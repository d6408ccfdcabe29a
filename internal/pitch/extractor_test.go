package pitch

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/0xlemi/pentanote/internal/audio"
)

const testSampleRate = 44100

func sineFrame(frequency, amplitude float64, n int) audio.Frame {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = amplitude * math.Sin(2*math.Pi*frequency*float64(i)/testSampleRate)
	}
	return audio.Frame{Samples: samples, SampleRate: testSampleRate}
}

func TestExtractPureTones(t *testing.T) {
	extractor := NewExtractor(DefaultExtractorConfig())

	for _, frequency := range []float64{110.0, 196.0, 440.0, 659.26} {
		est := extractor.Extract(sineFrame(frequency, 0.5, 4096))
		assert.True(t, est.Voiced, "%.2f Hz should be detected", frequency)
		assert.InDelta(t, frequency, est.Frequency, frequency*0.01)
		assert.GreaterOrEqual(t, est.Confidence, 0.3)
		assert.LessOrEqual(t, est.Confidence, 1.0)
	}
}

func TestExtractLowEString(t *testing.T) {
	// E2 sits near the bottom of the detection band.
	extractor := NewExtractor(DefaultExtractorConfig())
	est := extractor.Extract(sineFrame(82.41, 0.5, 4096))

	assert.True(t, est.Voiced)
	assert.InDelta(t, 82.41, est.Frequency, 1.5)

	note := FromFrequency(est.Frequency)
	assert.Equal(t, E, note.Class)
	assert.Equal(t, 2, note.Octave)
}

func TestExtractSilenceIsUnvoiced(t *testing.T) {
	extractor := NewExtractor(DefaultExtractorConfig())

	est := extractor.Extract(audio.Frame{Samples: make([]float64, 2048), SampleRate: testSampleRate})
	assert.False(t, est.Voiced)
	assert.Zero(t, est.Frequency)
}

func TestExtractQuietSignalIsUnvoiced(t *testing.T) {
	// Below the RMS gate the extractor must not even attempt detection.
	extractor := NewExtractor(DefaultExtractorConfig())
	est := extractor.Extract(sineFrame(440.0, 0.001, 2048))
	assert.False(t, est.Voiced)
}

func TestExtractOutOfBandIsUnvoiced(t *testing.T) {
	extractor := NewExtractor(DefaultExtractorConfig())

	// 40 Hz is below the guitar band; its autocorrelation peak lies
	// outside the searched lag range.
	est := extractor.Extract(sineFrame(40.0, 0.5, 4096))
	if est.Voiced {
		// A harmonic of the lag search may still surface; it must at
		// least stay inside the configured band.
		assert.GreaterOrEqual(t, est.Frequency, 80.0)
		assert.LessOrEqual(t, est.Frequency, 1200.0)
	}
}

func TestExtractEmptyFrame(t *testing.T) {
	extractor := NewExtractor(DefaultExtractorConfig())
	est := extractor.Extract(audio.Frame{})
	assert.False(t, est.Voiced)
}

func TestExtractKeepsTimestamp(t *testing.T) {
	extractor := NewExtractor(DefaultExtractorConfig())
	frame := sineFrame(440.0, 0.5, 2048)
	frame.Timestamp = 1.25
	est := extractor.Extract(frame)
	assert.Equal(t, 1.25, est.Timestamp)
}
