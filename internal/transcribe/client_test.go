package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
)

func testClip(n int) *audio.Clip {
	return &audio.Clip{
		Data:     make([]byte, n),
		MIMEType: "audio/wav",
		Duration: 3 * time.Second,
	}
}

func TestTranscribeAudioSuccess(t *testing.T) {
	var gotCorrelation, gotModel string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotCorrelation = r.Header.Get("X-Correlation-ID")
		gotModel = r.FormValue("model")
		_, _, err := r.FormFile("file")
		require.NoError(t, err)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"text": " hello world "})
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL, Model: "whisper-1"})
	text, err := c.TranscribeAudio(context.Background(), testClip(4096))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
	assert.NotEmpty(t, gotCorrelation)
	assert.Equal(t, "whisper-1", gotModel)
}

func TestTranscribeAudioEmptyTextYieldsSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"text": "   "})
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	text, err := c.TranscribeAudio(context.Background(), testClip(4096))
	require.NoError(t, err)
	assert.Equal(t, NotRecognized, text)
}

func TestTranscribeAudioValidatesBeforeNetwork(t *testing.T) {
	called := false
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL, MaxBytes: 1024})

	_, err := c.TranscribeAudio(context.Background(), &audio.Clip{})
	assert.ErrorIs(t, err, ErrEmptyClip)

	_, err = c.TranscribeAudio(context.Background(), testClip(2048))
	assert.ErrorIs(t, err, ErrClipTooLarge)

	assert.False(t, called, "oversized or empty clips must never reach the network")
}

func TestTranscribeAudioServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "stt exploded", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	_, err := c.TranscribeAudio(context.Background(), testClip(4096))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestTranscribeInterviewAnswer(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "iv-1", r.FormValue("interview_id"))
		assert.Equal(t, "q-7", r.FormValue("question_id"))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":           true,
			"formattedText":     "I have five years of experience.",
			"interviewAnswerId": "ans-42",
		})
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	res, err := c.TranscribeInterviewAnswer(context.Background(), testClip(4096), "iv-1", "q-7")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "I have five years of experience.", res.Text)
	assert.Equal(t, "ans-42", res.AnswerID)
}

func TestTranscribeInterviewAnswerEmptyTextYieldsSentinel(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false})
	}))
	defer ts.Close()

	c := NewClient(Options{BaseURL: ts.URL})
	res, err := c.TranscribeInterviewAnswer(context.Background(), testClip(4096), "iv-1", "q-7")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, NotRecognized, res.Text)
}
