package interview

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

// fakeRecorder scripts the recording controller: each stop hands back the
// configured clip and transcription results are canned.
type fakeRecorder struct {
	mu sync.Mutex

	clip         *audio.Clip
	micText      transcribe.Result
	answerResult transcribe.Result

	starts        int
	micCalls      int
	answerCalls   int
	cleanups      int
	lastQuestions []string
}

func (f *fakeRecorder) StartRecording(ctx context.Context, opts audio.RecordingOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.starts++
	return nil
}

func (f *fakeRecorder) StopRecording() (*audio.Clip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.clip, nil
}

func (f *fakeRecorder) TranscribeAudio(ctx context.Context, clip *audio.Clip) transcribe.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.micCalls++
	return f.micText
}

func (f *fakeRecorder) TranscribeInterviewAnswer(ctx context.Context, clip *audio.Clip, interviewID, questionID string) transcribe.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answerCalls++
	f.lastQuestions = append(f.lastQuestions, questionID)
	return f.answerResult
}

func (f *fakeRecorder) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
}

func goodClip() *audio.Clip {
	return &audio.Clip{Data: make([]byte, 40*1024), Duration: 5 * time.Second}
}

func silentClip() *audio.Clip {
	return &audio.Clip{Data: make([]byte, 1024), Duration: 200 * time.Millisecond}
}

type captured struct {
	mu              sync.Mutex
	answers         []Answer
	finished        int
	finishedEntries []Entry
}

func (c *captured) onAnswer(a Answer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.answers = append(c.answers, a)
}

func (c *captured) onFinished(entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.finished++
	c.finishedEntries = entries
}

func newTestSession(rec *fakeRecorder, got *captured, questions ...Question) *Session {
	return NewSession(Config{
		InterviewID: "iv-1",
		Questions:   questions,
		Recorder:    rec,
		PaceDelay:   0,
		OnAnswer:    got.onAnswer,
		OnFinished:  got.onFinished,
	})
}

func waitForStep(t *testing.T, s *Session, step Step) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if s.State().Step == step {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for step %s, at %s", step, s.State().Step)
}

func TestFullInterviewFlow(t *testing.T) {
	rec := &fakeRecorder{
		clip:         goodClip(),
		micText:      transcribe.Result{Success: true, Text: "testing one two"},
		answerResult: transcribe.Result{Success: true, Text: "my answer", AnswerID: "ans-1"},
	}
	got := &captured{}
	s := newTestSession(rec, got,
		Question{ID: "q2", Text: "Second?", Order: 2},
		Question{ID: "q1", Text: "First?", Order: 1},
	)
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	require.NoError(t, s.StopMicTest())
	assert.Equal(t, MicTestPassed, s.State().MicTestResult)

	require.NoError(t, s.Proceed())
	assert.Equal(t, StepQuestion, s.State().Step)

	q, ok := s.CurrentQuestion()
	require.True(t, ok)
	assert.Equal(t, "q1", q.ID, "questions must be ordered by Order, not input order")

	require.NoError(t, s.StartAnswer())
	require.NoError(t, s.StopAnswer())
	assert.Equal(t, 1, s.State().QuestionIndex)

	require.NoError(t, s.StartAnswer())
	require.NoError(t, s.StopAnswer())
	assert.Equal(t, StepFinal, s.State().Step)

	got.mu.Lock()
	defer got.mu.Unlock()
	require.Len(t, got.answers, 2)
	assert.Equal(t, "q1", got.answers[0].QuestionID)
	assert.Equal(t, "q2", got.answers[1].QuestionID)
	assert.Equal(t, "my answer", got.answers[0].Transcript)
	assert.True(t, got.answers[0].Recognized)
	assert.Equal(t, 1, got.finished)
	assert.Equal(t, []string{"q1", "q2"}, rec.lastQuestions)
}

func TestConsentGate(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestSession(rec, &captured{}, Question{ID: "q1", Text: "One?"})
	defer s.Close()

	assert.ErrorIs(t, s.AcceptInvite(true, false), ErrConsent)
	assert.ErrorIs(t, s.AcceptInvite(false, true), ErrConsent)
	assert.Equal(t, StepInvite, s.State().Step)

	require.NoError(t, s.AcceptInvite(true, true))
	assert.Equal(t, StepIntro, s.State().Step)
}

func TestMicTestFailureAndRetry(t *testing.T) {
	rec := &fakeRecorder{clip: silentClip()}
	s := newTestSession(rec, &captured{}, Question{ID: "q1", Text: "One?"})
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	require.NoError(t, s.StopMicTest())

	st := s.State()
	assert.Equal(t, StepMicTestDone, st.Step)
	assert.Equal(t, MicTestFailed, st.MicTestResult)
	assert.Equal(t, 0, rec.micCalls, "silent clips must not be transcribed")

	assert.ErrorIs(t, s.Proceed(), ErrInvalidTransition)

	rec.mu.Lock()
	rec.clip = goodClip()
	rec.micText = transcribe.Result{Success: true, Text: "hello"}
	rec.mu.Unlock()

	require.NoError(t, s.RetryMicTest())
	require.NoError(t, s.StopMicTest())

	st = s.State()
	assert.Equal(t, MicTestPassed, st.MicTestResult)
	assert.Equal(t, 1, st.MicTestRetries)
	assert.Equal(t, 1, rec.micCalls)
}

func TestSilentAnswerAdvancesWithoutTranscription(t *testing.T) {
	rec := &fakeRecorder{
		clip:    goodClip(),
		micText: transcribe.Result{Success: true, Text: "check"},
	}
	got := &captured{}
	s := newTestSession(rec, got, Question{ID: "q1", Text: "One?"})
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	require.NoError(t, s.StopMicTest())
	require.NoError(t, s.Proceed())

	rec.mu.Lock()
	rec.clip = silentClip()
	rec.mu.Unlock()

	require.NoError(t, s.StartAnswer())
	require.NoError(t, s.StopAnswer())

	assert.Equal(t, StepFinal, s.State().Step, "one bad take must not stall the interview")
	assert.Equal(t, 0, rec.answerCalls)

	got.mu.Lock()
	defer got.mu.Unlock()
	require.Len(t, got.answers, 1)
	assert.Equal(t, transcribe.NotRecognized, got.answers[0].Transcript)
	assert.False(t, got.answers[0].Recognized)
	assert.Equal(t, QualitySilent, got.answers[0].Quality)
}

func TestTranscriptionFailureAdvances(t *testing.T) {
	rec := &fakeRecorder{
		clip:         goodClip(),
		micText:      transcribe.Result{Success: true, Text: "check"},
		answerResult: transcribe.Result{Error: "service unavailable"},
	}
	got := &captured{}
	s := newTestSession(rec, got, Question{ID: "q1", Text: "One?"})
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	require.NoError(t, s.StopMicTest())
	require.NoError(t, s.Proceed())
	require.NoError(t, s.StartAnswer())
	require.NoError(t, s.StopAnswer())

	assert.Equal(t, StepFinal, s.State().Step)

	got.mu.Lock()
	defer got.mu.Unlock()
	require.Len(t, got.answers, 1)
	assert.Equal(t, transcribe.NotRecognized, got.answers[0].Transcript)
	assert.False(t, got.answers[0].Recognized)
}

func TestZeroQuestionsFinishImmediately(t *testing.T) {
	rec := &fakeRecorder{
		clip:    goodClip(),
		micText: transcribe.Result{Success: true, Text: "check"},
	}
	got := &captured{}
	s := newTestSession(rec, got)
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	require.NoError(t, s.StopMicTest())
	require.NoError(t, s.Proceed())

	assert.Equal(t, StepFinal, s.State().Step)
	got.mu.Lock()
	defer got.mu.Unlock()
	assert.Equal(t, 1, got.finished)
}

func TestMicTestAutoFinishes(t *testing.T) {
	rec := &fakeRecorder{
		clip:    goodClip(),
		micText: transcribe.Result{Success: true, Text: "check"},
	}
	s := NewSession(Config{
		InterviewID:     "iv-1",
		Questions:       []Question{{ID: "q1", Text: "One?"}},
		Recorder:        rec,
		MicTestDuration: 20 * time.Millisecond,
		PaceDelay:       0,
	})
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())

	waitForStep(t, s, StepMicTestDone)
	assert.Equal(t, MicTestPassed, s.State().MicTestResult)

	// the timer already claimed the recording; a late manual stop is a no-op
	assert.ErrorIs(t, s.StopMicTest(), audio.ErrNotRecording)
}

func TestAnswerTimerFinishDeliversTranscript(t *testing.T) {
	rec := &fakeRecorder{
		clip:         goodClip(),
		micText:      transcribe.Result{Success: true, Text: "check"},
		answerResult: transcribe.Result{Success: true, Text: "my answer"},
	}
	got := &captured{}
	s := NewSession(Config{
		InterviewID:    "iv-1",
		Questions:      []Question{{ID: "q1", Text: "One?"}},
		Recorder:       rec,
		AnswerDuration: 20 * time.Millisecond,
		PaceDelay:      0,
		OnAnswer:       got.onAnswer,
		OnFinished:     got.onFinished,
	})
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	require.NoError(t, s.StopMicTest())
	require.NoError(t, s.Proceed())
	require.NoError(t, s.StartAnswer())

	// the last answer completes via the auto-stop timer, not a stop event
	require.Eventually(t, func() bool {
		got.mu.Lock()
		defer got.mu.Unlock()
		return got.finished == 1
	}, 2*time.Second, 5*time.Millisecond)

	got.mu.Lock()
	defer got.mu.Unlock()
	require.NotEmpty(t, got.finishedEntries)
	var sawAnswer bool
	for _, e := range got.finishedEntries {
		if e.Role == RoleCandidate && e.Text == "my answer" {
			sawAnswer = true
		}
	}
	assert.True(t, sawAnswer, "finish hook must carry the candidate's answer")
}

func TestStartAnswerOutsideQuestionStep(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestSession(rec, &captured{}, Question{ID: "q1", Text: "One?"})
	defer s.Close()

	assert.ErrorIs(t, s.StartAnswer(), ErrInvalidTransition)
	assert.ErrorIs(t, s.StopAnswer(), audio.ErrNotRecording)
}

func TestDoubleStartMicTestRecording(t *testing.T) {
	rec := &fakeRecorder{
		clip:    goodClip(),
		micText: transcribe.Result{Success: true, Text: "check"},
	}
	s := newTestSession(rec, &captured{}, Question{ID: "q1", Text: "One?"})
	defer s.Close()

	require.NoError(t, s.AcceptInvite(true, true))
	require.NoError(t, s.StartMicTest())
	// a second start is rejected at the transition, mic_test accepts no
	// further start events
	assert.Error(t, s.StartMicTest())
}

func TestUsableTranscript(t *testing.T) {
	assert.False(t, usableTranscript(""))
	assert.False(t, usableTranscript(transcribe.NotRecognized))
	assert.False(t, usableTranscript("Error: request timed out"))
	assert.True(t, usableTranscript("the weather is nice"))
}

func TestCloseIsIdempotent(t *testing.T) {
	rec := &fakeRecorder{}
	s := newTestSession(rec, &captured{}, Question{ID: "q1", Text: "One?"})

	s.Close()
	s.Close()
	assert.Equal(t, 1, rec.cleanups)
	assert.ErrorIs(t, s.AcceptInvite(true, true), ErrSessionClosed)
}
