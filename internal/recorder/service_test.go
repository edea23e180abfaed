package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

type fakeSTT struct {
	text      string
	err       error
	answerRes transcribe.Result
}

func (f *fakeSTT) TranscribeAudio(ctx context.Context, clip *audio.Clip) (string, error) {
	return f.text, f.err
}

func (f *fakeSTT) TranscribeInterviewAnswer(ctx context.Context, clip *audio.Clip, interviewID, questionID string) (transcribe.Result, error) {
	return f.answerRes, f.err
}

func TestStartRecordingAcquiresPermissionOnDemand(t *testing.T) {
	s := NewService(audio.NewCapture(audio.NewPushProvider()), &fakeSTT{}, 48000, 1)

	require.NoError(t, s.StartRecording(context.Background(), audio.RecordingOptions{}))
	_, err := s.StopRecording()
	require.NoError(t, err)
	s.Cleanup()
}

func TestStartRecordingDeniedPermission(t *testing.T) {
	provider := audio.NewPushProvider()
	provider.Deny = true
	s := NewService(audio.NewCapture(provider), &fakeSTT{}, 48000, 1)

	err := s.StartRecording(context.Background(), audio.RecordingOptions{})
	assert.ErrorIs(t, err, audio.ErrPermissionDenied)
}

func TestTranscribeAudioNeverPropagatesErrors(t *testing.T) {
	clip := &audio.Clip{Data: make([]byte, 1024)}

	s := NewService(audio.NewCapture(audio.NewPushProvider()), &fakeSTT{text: "hello"}, 48000, 1)
	res := s.TranscribeAudio(context.Background(), clip)
	assert.True(t, res.Success)
	assert.Equal(t, "hello", res.Text)

	s = NewService(audio.NewCapture(audio.NewPushProvider()), &fakeSTT{err: transcribe.ErrEmptyClip}, 48000, 1)
	res = s.TranscribeAudio(context.Background(), clip)
	assert.False(t, res.Success)
	assert.Equal(t, "recording is empty", res.Error)

	s = NewService(audio.NewCapture(audio.NewPushProvider()), &fakeSTT{err: transcribe.ErrClipTooLarge}, 48000, 1)
	res = s.TranscribeAudio(context.Background(), clip)
	assert.Equal(t, "recording is too large", res.Error)

	s = NewService(audio.NewCapture(audio.NewPushProvider()), &fakeSTT{err: errors.New("backend down")}, 48000, 1)
	res = s.TranscribeAudio(context.Background(), clip)
	assert.False(t, res.Success)
	assert.Equal(t, "backend down", res.Error)
}

func TestTranscribeInterviewAnswerPassesResultThrough(t *testing.T) {
	clip := &audio.Clip{Data: make([]byte, 1024)}
	want := transcribe.Result{Success: true, Text: "formatted", AnswerID: "ans-1"}

	s := NewService(audio.NewCapture(audio.NewPushProvider()), &fakeSTT{answerRes: want}, 48000, 1)
	res := s.TranscribeInterviewAnswer(context.Background(), clip, "iv-1", "q-1")
	assert.Equal(t, want, res)
}
