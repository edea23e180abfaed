package audio

import (
	"context"
	"errors"
	"testing"
	"time"
)

func speechFrame(n int) []int16 {
	frame := make([]int16, n)
	for i := range frame {
		if i%2 == 0 {
			frame[i] = 8000
		} else {
			frame[i] = -8000
		}
	}
	return frame
}

// feedAndWait pushes frames and blocks until the consumer has seen them.
func feedAndWait(t *testing.T, c *Capture, stream *PushStream, frames int) {
	t.Helper()
	seen := make(chan struct{}, frames+1)
	c.SetLevelChangeHandler(func(int) { seen <- struct{}{} })
	for i := 0; i < frames; i++ {
		if err := stream.Push(speechFrame(960)); err != nil {
			t.Fatalf("push frame %d: %v", i, err)
		}
	}
	for i := 0; i < frames; i++ {
		select {
		case <-seen:
		case <-time.After(time.Second):
			t.Fatalf("consumer did not see frame %d", i)
		}
	}
	c.SetLevelChangeHandler(nil)
}

func TestStartRecordingRequiresStream(t *testing.T) {
	c := NewCapture(NewPushProvider())
	if err := c.StartRecording(RecordingOptions{}); !errors.Is(err, ErrNoStream) {
		t.Fatalf("expected ErrNoStream, got %v", err)
	}
}

func TestStopWithoutStart(t *testing.T) {
	c := NewCapture(NewPushProvider())
	if _, err := c.StopRecording(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording, got %v", err)
	}
}

func TestRecordStopProducesWAVClip(t *testing.T) {
	provider := NewPushProvider()
	c := NewCapture(provider)
	if err := c.RequestPermission(context.Background(), "", 48000, 1); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if err := c.StartRecording(RecordingOptions{SampleRate: 48000, Channels: 1}); err != nil {
		t.Fatalf("start: %v", err)
	}

	feedAndWait(t, c, provider.Stream(), 5)

	clip, err := c.StopRecording()
	if err != nil {
		t.Fatalf("stop: %v", err)
	}
	if clip.MIMEType != "audio/wav" {
		t.Fatalf("unexpected mime type %q", clip.MIMEType)
	}
	pcm, rate, channels, err := DecodeWAV(clip.Data)
	if err != nil {
		t.Fatalf("decode clip: %v", err)
	}
	if rate != 48000 || channels != 1 {
		t.Fatalf("unexpected format: rate=%d channels=%d", rate, channels)
	}
	if len(pcm) != 5*960*2 {
		t.Fatalf("expected %d pcm bytes, got %d", 5*960*2, len(pcm))
	}
	if clip.Duration <= 0 {
		t.Fatalf("expected positive duration, got %v", clip.Duration)
	}
}

func TestDoubleStartFails(t *testing.T) {
	c := NewCapture(NewPushProvider())
	if err := c.RequestPermission(context.Background(), "", 48000, 1); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if err := c.StartRecording(RecordingOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := c.StartRecording(RecordingOptions{}); !errors.Is(err, ErrAlreadyRecording) {
		t.Fatalf("expected ErrAlreadyRecording, got %v", err)
	}
	if _, err := c.StopRecording(); err != nil {
		t.Fatalf("stop: %v", err)
	}
}

func TestAutoStopAfterDuration(t *testing.T) {
	provider := NewPushProvider()
	c := NewCapture(provider)
	if err := c.RequestPermission(context.Background(), "", 48000, 1); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if err := c.StartRecording(RecordingOptions{Duration: 30 * time.Millisecond}); err != nil {
		t.Fatalf("start: %v", err)
	}
	feedAndWait(t, c, provider.Stream(), 3)

	// wait past the duration so the timer stops buffering
	time.Sleep(100 * time.Millisecond)

	if err := provider.Stream().Push(speechFrame(960)); err != nil {
		t.Fatalf("push after timeout: %v", err)
	}

	clip, err := c.StopRecording()
	if err != nil {
		t.Fatalf("collect after auto-stop: %v", err)
	}
	pcm, _, _, err := DecodeWAV(clip.Data)
	if err != nil {
		t.Fatalf("decode clip: %v", err)
	}
	// the frame pushed after the timer fired must not be buffered
	if len(pcm) != 3*960*2 {
		t.Fatalf("expected %d pcm bytes, got %d", 3*960*2, len(pcm))
	}

	if _, err := c.StopRecording(); !errors.Is(err, ErrNotRecording) {
		t.Fatalf("expected ErrNotRecording on second stop, got %v", err)
	}
}

func TestConcurrentStopYieldsSingleClip(t *testing.T) {
	provider := NewPushProvider()
	c := NewCapture(provider)
	if err := c.RequestPermission(context.Background(), "", 48000, 1); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if err := c.StartRecording(RecordingOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	feedAndWait(t, c, provider.Stream(), 3)

	type outcome struct {
		clip *Clip
		err  error
	}
	results := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			clip, err := c.StopRecording()
			results <- outcome{clip, err}
		}()
	}

	var clips, notRecording int
	for i := 0; i < 2; i++ {
		res := <-results
		switch {
		case res.err == nil && res.clip != nil && len(res.clip.Data) > 44:
			clips++
		case errors.Is(res.err, ErrNotRecording):
			notRecording++
		default:
			t.Fatalf("unexpected outcome: clip=%v err=%v", res.clip, res.err)
		}
	}
	if clips != 1 || notRecording != 1 {
		t.Fatalf("expected exactly one clip and one ErrNotRecording, got %d/%d", clips, notRecording)
	}
}

func TestPermissionDenied(t *testing.T) {
	provider := NewPushProvider()
	provider.Deny = true
	c := NewCapture(provider)
	err := c.RequestPermission(context.Background(), "", 48000, 1)
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected ErrPermissionDenied, got %v", err)
	}
}

func TestUnknownDevice(t *testing.T) {
	c := NewCapture(NewPushProvider(Device{ID: "mic-1", Label: "USB mic"}))
	err := c.RequestPermission(context.Background(), "nope", 48000, 1)
	if !errors.Is(err, ErrDeviceUnavailable) {
		t.Fatalf("expected ErrDeviceUnavailable, got %v", err)
	}
}

func TestCleanupIsIdempotent(t *testing.T) {
	provider := NewPushProvider()
	c := NewCapture(provider)
	if err := c.RequestPermission(context.Background(), "", 48000, 1); err != nil {
		t.Fatalf("permission: %v", err)
	}
	if err := c.StartRecording(RecordingOptions{}); err != nil {
		t.Fatalf("start: %v", err)
	}
	c.Cleanup()
	c.Cleanup()

	if err := c.StartRecording(RecordingOptions{}); !errors.Is(err, ErrNoStream) {
		t.Fatalf("expected ErrNoStream after cleanup, got %v", err)
	}
}
