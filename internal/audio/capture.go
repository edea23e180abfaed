package audio

import (
	"context"
	"sync"
	"time"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

// CaptureProvider opens live audio streams and reports runtime capture
// capabilities. Implementations: the WebSocket-fed PushProvider in
// production, scripted providers in tests.
type CaptureProvider interface {
	Support() Support
	Devices() ([]Device, error)
	// Open acquires a capture stream, optionally for a specific device.
	// Errors wrap ErrPermissionDenied or ErrDeviceUnavailable.
	Open(ctx context.Context, deviceID string, sampleRate, channels int) (Stream, error)
}

// Stream delivers PCM16 frames from a live capture source.
type Stream interface {
	Frames() <-chan []int16
	Close() error
}

type captureState int

const (
	stateIdle captureState = iota
	stateRecording
	// stateStopped holds a finalized buffer waiting for StopRecording to
	// collect it (reached when the duration timer fired first).
	stateStopped
)

// Capture adapts a CaptureProvider into the recording surface the session
// controller needs: permission, buffered recording with auto-stop, level
// metering and idempotent cleanup.
type Capture struct {
	provider CaptureProvider

	mu      sync.Mutex
	stream  Stream
	state   captureState
	gen     int
	pcm     []int16
	opts    RecordingOptions
	level   int
	onLevel func(int)

	stopTimer *time.Timer
	stopCh    chan struct{}
	doneCh    chan struct{}
}

func NewCapture(provider CaptureProvider) *Capture {
	return &Capture{provider: provider}
}

// CheckSupport is a pure capability probe; no side effects.
func (c *Capture) CheckSupport() Support { return c.provider.Support() }

// Devices enumerates available capture devices.
func (c *Capture) Devices() ([]Device, error) { return c.provider.Devices() }

// RequestPermission acquires the capture stream. A stream already held is
// kept; the provider decides consent.
func (c *Capture) RequestPermission(ctx context.Context, deviceID string, sampleRate, channels int) error {
	c.mu.Lock()
	if c.stream != nil {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	stream, err := c.provider.Open(ctx, deviceID, sampleRate, channels)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stream != nil {
		// lost the race; keep the first stream
		_ = stream.Close()
		return nil
	}
	c.stream = stream
	return nil
}

// SetLevelChangeHandler registers the callback invoked with a 0-100 level
// for each captured frame while recording.
func (c *Capture) SetLevelChangeHandler(fn func(int)) {
	c.mu.Lock()
	c.onLevel = fn
	c.mu.Unlock()
}

// Level returns the most recent 0-100 amplitude estimate.
func (c *Capture) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// StartRecording begins buffering frames from the held stream. With
// opts.Duration > 0 the session auto-stops after that long; the buffered
// audio then waits for StopRecording to collect it.
func (c *Capture) StartRecording(opts RecordingOptions) error {
	opts = opts.withDefaults()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == stateRecording {
		return ErrAlreadyRecording
	}
	if c.stream == nil {
		return ErrNoStream
	}

	c.gen++
	gen := c.gen
	c.state = stateRecording
	c.opts = opts
	c.pcm = c.pcm[:0]
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})

	go c.consume(c.stream, c.stopCh, c.doneCh, gen)

	if opts.Duration > 0 {
		c.stopTimer = time.AfterFunc(opts.Duration, func() { c.halt(gen) })
	}
	logging.Debugw("capture: recording started", "gen", gen, "duration", opts.Duration, "format", opts.Format)
	return nil
}

func (c *Capture) consume(stream Stream, stopCh, doneCh chan struct{}, gen int) {
	defer close(doneCh)
	for {
		select {
		case <-stopCh:
			return
		case frame, ok := <-stream.Frames():
			if !ok {
				return
			}
			var cb func(int)
			lvl := Level(frame)
			c.mu.Lock()
			if c.state == stateRecording && c.gen == gen {
				c.pcm = append(c.pcm, frame...)
				c.level = lvl
				cb = c.onLevel
			}
			c.mu.Unlock()
			if cb != nil {
				cb(lvl)
			}
		}
	}
}

// halt stops buffering exactly once per session. Both the duration timer
// and StopRecording funnel through it, so whichever fires first wins and
// the other is a no-op.
func (c *Capture) halt(gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.haltLocked(gen)
}

func (c *Capture) haltLocked(gen int) {
	if c.state != stateRecording || c.gen != gen {
		return
	}
	c.state = stateStopped
	if c.stopTimer != nil {
		c.stopTimer.Stop()
		c.stopTimer = nil
	}
	close(c.stopCh)
}

// StopRecording finalizes the buffered audio into a MIME-tagged clip and
// resets the session. Fails with ErrNotRecording when no session was started.
func (c *Capture) StopRecording() (*Clip, error) {
	c.mu.Lock()
	if c.state == stateIdle {
		c.mu.Unlock()
		return nil, ErrNotRecording
	}
	gen := c.gen
	c.haltLocked(gen)
	done := c.doneCh
	c.mu.Unlock()

	// Wait for the consumer to flush its last frame before reading the
	// buffer: stop must complete before transcription can start.
	if done != nil {
		<-done
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// A concurrent stop may have collected the buffer while we waited.
	if c.state == stateIdle || c.gen != gen {
		return nil, ErrNotRecording
	}
	opts := c.opts
	pcmBytes := make([]byte, 0, len(c.pcm)*2)
	for _, s := range c.pcm {
		pcmBytes = append(pcmBytes, byte(uint16(s)), byte(uint16(s)>>8))
	}
	clip := &Clip{
		Data:       EncodeWAV(pcmBytes, opts.SampleRate, opts.Channels, 16),
		MIMEType:   opts.Format.MIMECandidates()[0],
		SampleRate: opts.SampleRate,
		Channels:   opts.Channels,
		Duration:   PCMDuration(len(pcmBytes), opts.SampleRate, opts.Channels),
	}
	// Server-side encoding is PCM/WAV regardless of the preferred container;
	// fall back to the wav MIME tag when the format has no PCM candidate.
	if opts.Format != FormatWAV {
		clip.MIMEType = FormatWAV.MIMECandidates()[0]
	}
	c.pcm = c.pcm[:0]
	c.state = stateIdle
	c.doneCh = nil
	logging.Debugw("capture: recording stopped", "gen", gen, "bytes", len(clip.Data), "duration", clip.Duration)
	return clip, nil
}

// Cleanup releases the stream and any in-flight session. Idempotent and
// safe to call when nothing is active.
func (c *Capture) Cleanup() {
	c.mu.Lock()
	if c.state == stateRecording {
		c.haltLocked(c.gen)
	}
	stream := c.stream
	c.stream = nil
	c.state = stateIdle
	c.pcm = nil
	c.level = 0
	c.mu.Unlock()

	if stream != nil {
		_ = stream.Close()
	}
}
