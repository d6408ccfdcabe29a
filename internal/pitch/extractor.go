package pitch

import (
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/window"

	"github.com/0xlemi/pentanote/internal/audio"
)

// Estimate is the per-frame output of the extractor. Voiced reports whether
// a discernible pitch was found; when it is false Frequency is zero and the
// frame is treated as silence downstream.
type Estimate struct {
	Frequency  float64
	Confidence float64 // normalized autocorrelation peak in [0, 1]
	Timestamp  float64
	Voiced     bool
}

// ExtractorConfig holds the tunable constants of the extractor.
type ExtractorConfig struct {
	MinFrequency        float64 // lowest detectable fundamental (Hz)
	MaxFrequency        float64 // highest detectable fundamental (Hz)
	ConfidenceThreshold float64 // minimum normalized peak to accept a pitch
	VolumeThreshold     float64 // minimum RMS level for note detection
}

// DefaultExtractorConfig covers the guitar's range in standard tuning.
func DefaultExtractorConfig() ExtractorConfig {
	return ExtractorConfig{
		MinFrequency:        80.0,   // E2 on guitar is ~82 Hz
		MaxFrequency:        1200.0, // upper frets on the high E string
		ConfidenceThreshold: 0.30,
		VolumeThreshold:     0.005,
	}
}

// Extractor estimates the fundamental frequency of single frames using
// FFT-based autocorrelation.
type Extractor struct {
	cfg ExtractorConfig
}

// NewExtractor creates an extractor with the given configuration.
func NewExtractor(cfg ExtractorConfig) *Extractor {
	return &Extractor{cfg: cfg}
}

// Extract analyzes one frame and returns a pitch estimate. Silence, noise
// and out-of-band content come back as an unvoiced estimate, never an error.
func (e *Extractor) Extract(frame audio.Frame) Estimate {
	est := Estimate{Timestamp: frame.Timestamp}

	n := len(frame.Samples)
	if n == 0 || frame.SampleRate <= 0 {
		return est
	}

	// Silence gate before any spectral work.
	rms := frame.RMS()
	if rms < e.cfg.VolumeThreshold || frame.DB() < -50.0 {
		return est
	}

	windowed := make([]float64, n)
	copy(windowed, frame.Samples)
	window.Hann(windowed)

	// Zero-pad to twice the frame length so the circular correlation the
	// FFT computes matches the linear autocorrelation over the frame.
	fftSize := nextPowerOfTwo(2 * n)
	padded := make([]float64, fftSize)
	copy(padded, windowed)

	spectrum := fft.FFTReal(padded)
	for i, bin := range spectrum {
		spectrum[i] = bin * cmplx.Conj(bin)
	}
	correlation := fft.IFFT(spectrum)

	r0 := real(correlation[0])
	if r0 <= 0 {
		return est
	}

	sampleRate := float64(frame.SampleRate)
	minLag := int(sampleRate / e.cfg.MaxFrequency)
	if minLag < 2 {
		minLag = 2
	}
	maxLag := int(sampleRate/e.cfg.MinFrequency + 0.5)
	if maxLag > n-1 {
		maxLag = n - 1
	}
	if minLag >= maxLag {
		return est
	}

	peakLag := -1
	peakVal := math.Inf(-1)
	for lag := minLag; lag <= maxLag; lag++ {
		value := real(correlation[lag])
		if value > peakVal {
			peakVal = value
			peakLag = lag
		}
	}
	if peakLag < 0 {
		return est
	}

	confidence := peakVal / r0
	if confidence < 0 {
		confidence = 0
	} else if confidence > 1 {
		confidence = 1
	}
	if confidence < e.cfg.ConfidenceThreshold {
		return est
	}

	// Refine the peak position by fitting a parabola through the peak and
	// its neighbors, as sample-granular lags quantize the frequency.
	left := real(correlation[peakLag-1])
	right := real(correlation[peakLag+1])
	lag := float64(peakLag)
	denominator := left - 2*peakVal + right
	if denominator != 0 {
		shift := 0.5 * (left - right) / denominator
		if shift < -0.5 {
			shift = -0.5
		} else if shift > 0.5 {
			shift = 0.5
		}
		lag += shift
	}

	frequency := sampleRate / lag
	if frequency < e.cfg.MinFrequency || frequency > e.cfg.MaxFrequency {
		return est
	}

	est.Frequency = frequency
	est.Confidence = confidence
	est.Voiced = true
	return est
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}
