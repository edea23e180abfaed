// Package recorder mediates between the audio capture adapter and callers
// that need simple start/stop/transcribe semantics, hiding device and
// format details.
package recorder

import (
	"context"
	"errors"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

// Transcriber is the slice of the speech-to-text client the controller uses.
type Transcriber interface {
	TranscribeAudio(ctx context.Context, clip *audio.Clip) (string, error)
	TranscribeInterviewAnswer(ctx context.Context, clip *audio.Clip, interviewID, questionID string) (transcribe.Result, error)
}

// Service owns the recording lifecycle for one candidate session.
type Service struct {
	capture    *audio.Capture
	stt        Transcriber
	sampleRate int
	channels   int
}

func NewService(capture *audio.Capture, stt Transcriber, sampleRate, channels int) *Service {
	if sampleRate <= 0 {
		sampleRate = 48000
	}
	if channels <= 0 {
		channels = 1
	}
	return &Service{capture: capture, stt: stt, sampleRate: sampleRate, channels: channels}
}

// CheckSupport reports runtime capture capabilities.
func (s *Service) CheckSupport() audio.Support { return s.capture.CheckSupport() }

// SetLevelChangeHandler forwards to the adapter's level callback slot.
func (s *Service) SetLevelChangeHandler(fn func(int)) { s.capture.SetLevelChangeHandler(fn) }

// StartRecording ensures permission has been granted (requesting it if not)
// and starts a recording. Only one logical recording is ever active.
func (s *Service) StartRecording(ctx context.Context, opts audio.RecordingOptions) error {
	if opts.SampleRate <= 0 {
		opts.SampleRate = s.sampleRate
	}
	if opts.Channels <= 0 {
		opts.Channels = s.channels
	}
	if err := s.capture.RequestPermission(ctx, "", opts.SampleRate, opts.Channels); err != nil {
		return err
	}
	return s.capture.StartRecording(opts)
}

// StopRecording returns the finalized clip. The adapter guarantees the
// duration timer is cancelled, so a later timer tick cannot double-stop.
func (s *Service) StopRecording() (*audio.Clip, error) {
	return s.capture.StopRecording()
}

// TranscribeAudio converts a clip to text. Failures are encoded in the
// result, never raised: a multi-step wizard inspects Success and chooses
// retry vs advance without exception-driven control flow.
func (s *Service) TranscribeAudio(ctx context.Context, clip *audio.Clip) transcribe.Result {
	text, err := s.stt.TranscribeAudio(ctx, clip)
	if err != nil {
		logging.Warnw("recorder: transcription failed", "err", err)
		return transcribe.Result{Error: errMessage(err)}
	}
	return transcribe.Result{Success: true, Text: text}
}

// TranscribeInterviewAnswer transcribes and persists a question answer.
func (s *Service) TranscribeInterviewAnswer(ctx context.Context, clip *audio.Clip, interviewID, questionID string) transcribe.Result {
	res, err := s.stt.TranscribeInterviewAnswer(ctx, clip, interviewID, questionID)
	if err != nil {
		logging.Warnw("recorder: answer transcription failed",
			"interview_id", interviewID, "question_id", questionID, "err", err)
		return transcribe.Result{Error: errMessage(err)}
	}
	return res
}

// Cleanup releases the microphone, idempotently.
func (s *Service) Cleanup() { s.capture.Cleanup() }

func errMessage(err error) string {
	switch {
	case errors.Is(err, transcribe.ErrEmptyClip):
		return "recording is empty"
	case errors.Is(err, transcribe.ErrClipTooLarge):
		return "recording is too large"
	default:
		return err.Error()
	}
}
