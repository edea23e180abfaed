package audio

import (
	"context"
	"fmt"
	"sync"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

// PushProvider is a CaptureProvider whose streams are fed by the caller:
// candidate browsers deliver PCM frames over a WebSocket and the ingest
// handler pushes them into the open stream. Tests script it directly.
type PushProvider struct {
	devices []Device

	// Deny simulates a rejected permission prompt; every Open fails with
	// ErrPermissionDenied.
	Deny bool

	mu     sync.Mutex
	stream *PushStream
}

func NewPushProvider(devices ...Device) *PushProvider {
	if len(devices) == 0 {
		devices = []Device{{ID: "default", Label: "Default microphone"}}
	}
	return &PushProvider{devices: devices}
}

func (p *PushProvider) Support() Support {
	return Support{
		Capture:   true,
		Recording: true,
		Analysis:  true,
		Formats:   []Format{FormatWAV, FormatWebM},
	}
}

func (p *PushProvider) Devices() ([]Device, error) {
	out := make([]Device, len(p.devices))
	copy(out, p.devices)
	return out, nil
}

func (p *PushProvider) Open(ctx context.Context, deviceID string, sampleRate, channels int) (Stream, error) {
	if p.Deny {
		return nil, fmt.Errorf("open %q: %w", deviceID, ErrPermissionDenied)
	}
	if deviceID != "" {
		found := false
		for _, d := range p.devices {
			if d.ID == deviceID {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("open %q: %w", deviceID, ErrDeviceUnavailable)
		}
	}
	return p.Stream(), nil
}

// Stream returns the stream Open serves, creating a fresh one when none
// exists or the previous one was closed. Ingest handlers use it to feed
// audio regardless of when the capture side opens the stream.
func (p *PushProvider) Stream() *PushStream {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil || p.stream.Closed() {
		p.stream = NewPushStream()
	}
	return p.stream
}

// PushStream buffers pushed PCM frames for a single consumer. Frames are
// dropped rather than blocking the pusher when the consumer falls behind.
type PushStream struct {
	ch        chan []int16
	closed    chan struct{}
	closeOnce sync.Once
}

func NewPushStream() *PushStream {
	return &PushStream{
		ch:     make(chan []int16, 64),
		closed: make(chan struct{}),
	}
}

func (s *PushStream) Frames() <-chan []int16 { return s.ch }

// Push queues one PCM16 frame. The frame is copied so callers may reuse
// their buffer.
func (s *PushStream) Push(frame []int16) error {
	select {
	case <-s.closed:
		return ErrStreamClosed
	default:
	}
	buf := make([]int16, len(frame))
	copy(buf, frame)
	select {
	case s.ch <- buf:
	default:
		logging.Warnw("push stream: dropping frame; queue full", "samples", len(frame))
	}
	return nil
}

// PushBytes queues a PCM16LE byte payload.
func (s *PushStream) PushBytes(pcm []byte) error {
	n := len(pcm) / 2
	samples := make([]int16, n)
	for i := 0; i < n; i++ {
		samples[i] = int16(uint16(pcm[2*i]) | uint16(pcm[2*i+1])<<8)
	}
	return s.Push(samples)
}

// Closed reports whether the stream has been closed.
func (s *PushStream) Closed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Close is idempotent.
func (s *PushStream) Close() error {
	s.closeOnce.Do(func() { close(s.closed) })
	return nil
}
