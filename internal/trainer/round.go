// Package trainer runs the capture side of a practice round: frames are
// consumed from a bounded queue in strict arrival order and fed through
// the pitch extraction pipeline until the round ends or is cancelled.
package trainer

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/0xlemi/pentanote/internal/audio"
	"github.com/0xlemi/pentanote/internal/pitch"
)

// ErrRoundCancelled is returned when the user aborts a capture in progress.
// A cancelled round discards its partial note buffer and is never graded.
var ErrRoundCancelled = errors.New("practice round cancelled")

// Config bundles the audio and analysis settings of a round.
type Config struct {
	SampleRate int
	FrameSize  int
	QueueDepth int
	Extractor  pitch.ExtractorConfig
	Quantizer  pitch.QuantizerConfig
}

// DefaultConfig returns the settings used by the CLI.
func DefaultConfig() Config {
	return Config{
		SampleRate: 44100,
		FrameSize:  2048,
		QueueDepth: 32,
		Extractor:  pitch.DefaultExtractorConfig(),
		Quantizer:  pitch.DefaultQuantizerConfig(),
	}
}

// Monitor observes the capture pipeline. Used by the TUI for the live
// display; either hook may be nil.
type Monitor struct {
	Frame func(frame audio.Frame, est pitch.Estimate)
	Note  func(ev pitch.NoteEvent)
}

// CaptureRound starts the capturer and consumes frames in arrival order
// through the extractor and quantizer until the round duration has elapsed.
// Cancelling the context aborts the round: in-flight note state is
// discarded and ErrRoundCancelled is returned.
func CaptureRound(
	ctx context.Context,
	capturer audio.Capturer,
	duration time.Duration,
	extractor *pitch.Extractor,
	quantizer *pitch.Quantizer,
	monitor Monitor,
) ([]pitch.NoteEvent, error) {
	if err := capturer.Start(); err != nil {
		return nil, err
	}

	var events []pitch.NoteEvent
	limit := duration.Seconds()

loop:
	for {
		select {
		case <-ctx.Done():
			if err := capturer.Stop(); err != nil && !errors.Is(err, audio.ErrNotCapturing) {
				slog.Warn("stopping capture after cancel", "err", err)
			}
			quantizer.Reset()
			return nil, ErrRoundCancelled
		case frame, ok := <-capturer.Frames():
			if !ok {
				break loop
			}
			if frame.Timestamp >= limit {
				break loop
			}
			est := extractor.Extract(frame)
			if monitor.Frame != nil {
				monitor.Frame(frame, est)
			}
			if ev, done := quantizer.Update(est); done {
				events = append(events, ev)
				if monitor.Note != nil {
					monitor.Note(ev)
				}
			}
		}
	}

	if err := capturer.Stop(); err != nil && !errors.Is(err, audio.ErrNotCapturing) {
		slog.Warn("stopping capture", "err", err)
	}
	for range capturer.Frames() {
		// drain frames past the round limit
	}

	if ev, ok := quantizer.Flush(); ok {
		events = append(events, ev)
		if monitor.Note != nil {
			monitor.Note(ev)
		}
	}

	if dropped := capturer.Overruns(); dropped > 0 {
		slog.Warn("capture fell behind, frames dropped", "frames", dropped)
	}
	return events, nil
}

// AnalyzeFrames runs a prepared frame list through a fresh extraction
// pipeline. This is the offline path used to grade recorded takes.
func AnalyzeFrames(frames []audio.Frame, cfg Config) []pitch.NoteEvent {
	extractor := pitch.NewExtractor(cfg.Extractor)
	quantizer := pitch.NewQuantizer(cfg.Quantizer)

	var events []pitch.NoteEvent
	for _, frame := range frames {
		est := extractor.Extract(frame)
		if ev, done := quantizer.Update(est); done {
			events = append(events, ev)
		}
	}
	if ev, ok := quantizer.Flush(); ok {
		events = append(events, ev)
	}
	return events
}
