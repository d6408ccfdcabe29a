package playback

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/hajimehoshi/oto/v2"
)

// Player renders synthesized samples through the default output device.
type Player struct {
	otoCtx     *oto.Context
	sampleRate int
}

// NewPlayer opens the audio output. The returned player is safe to reuse
// for the life of the process; oto contexts cannot be closed and reopened.
func NewPlayer(sampleRate int) (*Player, error) {
	otoCtx, ready, err := oto.NewContext(sampleRate, 1, 2)
	if err != nil {
		return nil, fmt.Errorf("opening audio output: %w", err)
	}
	<-ready
	return &Player{otoCtx: otoCtx, sampleRate: sampleRate}, nil
}

// Play renders the samples and blocks until playback finishes or the
// context is cancelled.
func (p *Player) Play(ctx context.Context, samples []float64) error {
	player := p.otoCtx.NewPlayer(bytes.NewReader(encodePCM16(samples)))
	defer player.Close()
	player.Play()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

// encodePCM16 converts float samples in [-1, 1] to little-endian 16-bit PCM.
func encodePCM16(samples []float64) []byte {
	buf := make([]byte, 2*len(samples))
	for i, sample := range samples {
		if sample > 1 {
			sample = 1
		} else if sample < -1 {
			sample = -1
		}
		v := int16(sample * 32767)
		buf[2*i] = byte(v)
		buf[2*i+1] = byte(v >> 8)
	}
	return buf
}
