package audio

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gordonklaus/portaudio"
)

// frameQueue is the bounded queue between the capture callback and the
// consumer. push never blocks: when the queue is full the oldest frame is
// dropped and counted as an overrun, so the consumer always sees the most
// recent audio in arrival order.
type frameQueue struct {
	ch       chan Frame
	overruns atomic.Int64
}

func newFrameQueue(depth int) *frameQueue {
	if depth < 1 {
		depth = 1
	}
	return &frameQueue{ch: make(chan Frame, depth)}
}

func (q *frameQueue) push(frame Frame) {
	select {
	case q.ch <- frame:
		return
	default:
	}
	select {
	case <-q.ch:
		q.overruns.Add(1)
	default:
	}
	select {
	case q.ch <- frame:
	default:
		q.overruns.Add(1)
	}
}

// PortAudioCapturer implements audio capture using PortAudio
type PortAudioCapturer struct {
	isCapturing   bool
	stopped       bool // true between Stop and the next Start
	closed        bool
	stream        *portaudio.Stream
	queue         *frameQueue
	queueDepth    int
	frameSize     int
	sampleRate    int
	channels      int
	frameIndex    int64
	mu            sync.Mutex
	amplification float64
}

// NewPortAudioCapturer creates a new audio capturer using PortAudio.
// queueDepth bounds the number of frames buffered between the PortAudio
// callback and the consumer. Callers must Close the capturer to release
// the audio host.
func NewPortAudioCapturer(frameSize, sampleRate, channels, queueDepth int) (*PortAudioCapturer, error) {
	err := portaudio.Initialize()
	if err != nil {
		return nil, fmt.Errorf("initializing portaudio: %w", err)
	}

	if queueDepth < 1 {
		queueDepth = 1
	}

	capturer := &PortAudioCapturer{
		queue:         newFrameQueue(queueDepth),
		queueDepth:    queueDepth,
		frameSize:     frameSize,
		sampleRate:    sampleRate,
		channels:      channels,
		amplification: 5.0,
	}

	return capturer, nil
}

// Start begins audio capture
func (c *PortAudioCapturer) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return fmt.Errorf("%w: capturer closed", ErrDeviceUnavailable)
	}
	if c.isCapturing {
		return ErrAlreadyCapturing
	}
	if c.stopped {
		// The previous queue was closed by Stop; restart with a fresh one.
		c.queue = newFrameQueue(c.queueDepth)
		c.stopped = false
	}

	var err error
	c.stream, err = portaudio.OpenDefaultStream(
		c.channels, // input channels
		0,          // no output
		float64(c.sampleRate),
		c.frameSize,
		c.processAudio,
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	err = c.stream.Start()
	if err != nil {
		c.stream.Close()
		return fmt.Errorf("%w: %v", ErrDeviceUnavailable, err)
	}

	c.frameIndex = 0
	c.queue.overruns.Store(0)
	c.isCapturing = true
	return nil
}

// Stop ends audio capture and closes the frame channel.
func (c *PortAudioCapturer) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopLocked()
}

func (c *PortAudioCapturer) stopLocked() error {
	if !c.isCapturing {
		return ErrNotCapturing
	}

	// Stop blocks until the callback has returned, so closing the channel
	// afterwards cannot race a push.
	err := c.stream.Stop()
	if err != nil {
		return err
	}

	err = c.stream.Close()
	if err != nil {
		return err
	}

	c.isCapturing = false
	c.stopped = true
	close(c.queue.ch)
	return nil
}

// Close stops any running capture and releases the PortAudio host.
// The capturer cannot be started again after Close.
func (c *PortAudioCapturer) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	if c.isCapturing {
		if err := c.stopLocked(); err != nil {
			return err
		}
	}
	c.closed = true
	return portaudio.Terminate()
}

// processAudio is the PortAudio callback. It downmixes to mono, applies the
// amplification factor and enqueues a frame. The callback must never block,
// so the queue drops the oldest frame under backpressure.
func (c *PortAudioCapturer) processAudio(in []float32) {
	mono := make([]float64, len(in)/c.channels)
	if c.channels > 1 {
		for i := range mono {
			sum := float64(0)
			for ch := 0; ch < c.channels; ch++ {
				sum += float64(in[i*c.channels+ch])
			}
			mono[i] = (sum / float64(c.channels)) * c.amplification
		}
	} else {
		for i, sample := range in {
			mono[i] = float64(sample) * c.amplification
		}
	}

	frame := Frame{
		Samples:    mono,
		SampleRate: c.sampleRate,
		Timestamp:  float64(c.frameIndex*int64(c.frameSize)) / float64(c.sampleRate),
	}
	c.frameIndex++

	c.queue.push(frame)
}

// Frames returns the bounded frame channel
func (c *PortAudioCapturer) Frames() <-chan Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.queue.ch
}

// Overruns returns the number of frames dropped under backpressure
func (c *PortAudioCapturer) Overruns() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int(c.queue.overruns.Load())
}

// SetAmplification sets the audio amplification factor
func (c *PortAudioCapturer) SetAmplification(factor float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if factor < 0.1 {
		factor = 0.1
	}

	c.amplification = factor
}
