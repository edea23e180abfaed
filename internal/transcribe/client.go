package transcribe

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

// NotRecognized is the sentinel transcript used instead of an empty or
// missing recognition result.
const NotRecognized = "answer not recognized"

// MaxClipBytes is the upload ceiling enforced before any network call.
const MaxClipBytes = 50 * 1024 * 1024

var (
	ErrEmptyClip    = errors.New("audio clip is empty")
	ErrClipTooLarge = fmt.Errorf("audio clip exceeds %d bytes", int64(MaxClipBytes))
)

// Result is the normalized outcome of a transcription call. Failures are
// data, not exceptions, so wizard flows can branch on Success.
type Result struct {
	Success  bool   `json:"success"`
	Text     string `json:"text"`
	AnswerID string `json:"interviewAnswerId,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Options configures the speech-to-text backend client.
type Options struct {
	BaseURL  string
	APIKey   string
	Model    string
	Language string
	Timeout  time.Duration
	// MaxBytes overrides MaxClipBytes when positive (tests use small caps).
	MaxBytes int64
}

// Client talks to an OpenAI-compatible transcription endpoint.
type Client struct {
	http     *resty.Client
	model    string
	language string
	maxBytes int64
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Model == "" {
		opts.Model = "whisper-1"
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = MaxClipBytes
	}
	hc := resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout)
	if opts.APIKey != "" {
		hc.SetAuthToken(opts.APIKey)
	}
	return &Client{http: hc, model: opts.Model, language: opts.Language, maxBytes: opts.MaxBytes}
}

// validate rejects obviously bad clips before any round-trip. The server
// remains the authority on everything else.
func (c *Client) validate(clip *audio.Clip) error {
	if clip.Empty() {
		return ErrEmptyClip
	}
	if int64(len(clip.Data)) > c.maxBytes {
		return ErrClipTooLarge
	}
	return nil
}

type transcriptionResponse struct {
	Text       string `json:"text"`
	Transcript string `json:"transcript"`
}

// TranscribeAudio converts a clip to text. On success the recognized text is
// returned, with the NotRecognized sentinel standing in for an empty
// recognition. Transport failures propagate as descriptive errors without
// retrying.
func (c *Client) TranscribeAudio(ctx context.Context, clip *audio.Clip) (string, error) {
	if err := c.validate(clip); err != nil {
		return "", err
	}
	cid := uuid.NewString()
	var out transcriptionResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Correlation-ID", cid).
		SetFileReader("file", fileName(clip), bytes.NewReader(clip.Data)).
		SetFormData(c.formFields(nil)).
		SetResult(&out).
		Post("/audio/transcriptions")
	if err != nil {
		return "", fmt.Errorf("transcription request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("transcription service returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	text := strings.TrimSpace(out.Text)
	if text == "" {
		text = strings.TrimSpace(out.Transcript)
	}
	logging.Debugw("stt: transcript received", "correlation_id", cid, "bytes", len(clip.Data), "chars", len(text))
	if text == "" {
		return NotRecognized, nil
	}
	return text, nil
}

type answerResponse struct {
	Success           bool   `json:"success"`
	FormattedText     string `json:"formattedText"`
	InterviewAnswerID string `json:"interviewAnswerId"`
}

// TranscribeInterviewAnswer transcribes a clip and tags the request with the
// interview and question identifiers so the backend persists the answer.
func (c *Client) TranscribeInterviewAnswer(ctx context.Context, clip *audio.Clip, interviewID, questionID string) (Result, error) {
	if err := c.validate(clip); err != nil {
		return Result{}, err
	}
	cid := uuid.NewString()
	fields := c.formFields(map[string]string{
		"interview_id": interviewID,
		"question_id":  questionID,
	})
	var out answerResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Correlation-ID", cid).
		SetFileReader("file", fileName(clip), bytes.NewReader(clip.Data)).
		SetFormData(fields).
		SetResult(&out).
		Post("/audio/transcriptions")
	if err != nil {
		return Result{}, fmt.Errorf("answer transcription request: %w", err)
	}
	if resp.IsError() {
		return Result{}, fmt.Errorf("transcription service returned %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}
	text := strings.TrimSpace(out.FormattedText)
	if text == "" {
		text = NotRecognized
	}
	logging.Debugw("stt: answer transcript received", "correlation_id", cid,
		"interview_id", interviewID, "question_id", questionID, "saved", out.Success)
	return Result{Success: out.Success, Text: text, AnswerID: out.InterviewAnswerID}, nil
}

func (c *Client) formFields(extra map[string]string) map[string]string {
	fields := map[string]string{"model": c.model}
	if c.language != "" {
		fields["language"] = c.language
	}
	for k, v := range extra {
		fields[k] = v
	}
	return fields
}

func fileName(clip *audio.Clip) string {
	switch {
	case strings.Contains(clip.MIMEType, "webm"), strings.Contains(clip.MIMEType, "ogg"):
		return "clip.webm"
	case strings.Contains(clip.MIMEType, "mpeg"), strings.Contains(clip.MIMEType, "mp3"):
		return "clip.mp3"
	default:
		return "clip.wav"
	}
}
