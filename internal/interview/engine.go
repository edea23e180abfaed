package interview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

// Recorder is the slice of the recording controller the session drives.
// recorder.Service satisfies it; tests use scripted fakes.
type Recorder interface {
	StartRecording(ctx context.Context, opts audio.RecordingOptions) error
	StopRecording() (*audio.Clip, error)
	TranscribeAudio(ctx context.Context, clip *audio.Clip) transcribe.Result
	TranscribeInterviewAnswer(ctx context.Context, clip *audio.Clip, interviewID, questionID string) transcribe.Result
	Cleanup()
}

// Question is one interview question in presentation order.
type Question struct {
	ID       string
	Text     string
	Order    int
	Required bool
}

// Entry is one line of the interview chat log.
type Entry struct {
	Role string    `json:"role"` // "assistant", "candidate" or "system"
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

const (
	RoleAssistant = "assistant"
	RoleCandidate = "candidate"
	RoleSystem    = "system"
)

// Answer is the persisted outcome of one question.
type Answer struct {
	QuestionID   string
	Transcript   string
	Quality      ClipQuality
	Recognized   bool
	AnswerID     string
	ClipBytes    int
	ClipDuration time.Duration
}

// Config wires a session's collaborators and tunables. Zero durations fall
// back to defaults; tests set PaceDelay to zero to run instantly.
type Config struct {
	InterviewID string
	Questions   []Question
	Recorder    Recorder

	MicTestDuration time.Duration
	AnswerDuration  time.Duration
	PaceDelay       time.Duration
	Thresholds      Thresholds

	Format  audio.Format
	Quality audio.Quality

	// OnAnswer is called after each answer is finalized, before the flow
	// advances. OnFinished fires once when the flow reaches its final step,
	// from whichever goroutine got there (HTTP handler or auto-stop timer),
	// with the complete chat log so the caller can persist it.
	OnAnswer   func(Answer)
	OnFinished func(entries []Entry)

	Now func() time.Time
}

func (c Config) withDefaults() Config {
	if c.MicTestDuration <= 0 {
		c.MicTestDuration = 10 * time.Second
	}
	if c.AnswerDuration <= 0 {
		c.AnswerDuration = 150 * time.Second
	}
	if c.Thresholds == (Thresholds{}) {
		c.Thresholds = DefaultThresholds()
	}
	if c.Format == "" {
		c.Format = audio.FormatWAV
	}
	if c.Quality == "" {
		c.Quality = audio.QualityMedium
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

var (
	ErrSessionClosed = errors.New("interview session is closed")
	ErrConsent       = errors.New("consent and privacy acceptance are both required")
	ErrBusyRecording = errors.New("a recording is already in progress")
)

// Session runs one candidate's interview. All mutation goes through the
// pure Transition function; the session adds timers, recording and
// transcription around it.
type Session struct {
	cfg Config

	mu        sync.Mutex
	state     FlowState
	entries   []Entry
	questions []Question

	recGen    int
	recActive bool
	recTimer  *time.Timer

	ctx    context.Context
	cancel context.CancelFunc
	closed bool
}

// NewSession builds a session in the invite step. Questions are ordered by
// their Order field regardless of input order.
func NewSession(cfg Config) *Session {
	cfg = cfg.withDefaults()
	qs := make([]Question, len(cfg.Questions))
	copy(qs, cfg.Questions)
	sort.SliceStable(qs, func(i, j int) bool { return qs[i].Order < qs[j].Order })

	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		cfg:       cfg,
		state:     NewFlowState(len(qs)),
		questions: qs,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// State returns a snapshot of the flow position.
func (s *Session) State() FlowState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entries returns a copy of the chat log.
func (s *Session) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// CurrentQuestion returns the question awaiting an answer, if any.
func (s *Session) CurrentQuestion() (Question, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Step != StepQuestion || s.state.QuestionIndex >= len(s.questions) {
		return Question{}, false
	}
	return s.questions[s.state.QuestionIndex], true
}

// AcceptInvite moves past the invite gate. Both checkboxes must be set; a
// single one is not enough.
func (s *Session) AcceptInvite(consent, privacy bool) error {
	if !consent || !privacy {
		return ErrConsent
	}
	if err := s.apply(Event{Kind: EventAcceptInvite}); err != nil {
		return err
	}
	s.say(RoleAssistant,
		"Welcome! I'm your interview assistant. Before we begin, let's make sure your microphone works.",
		"You'll answer each question out loud. Recording stops automatically when the time is up, or you can stop it yourself.",
	)
	return nil
}

// StartMicTest begins the microphone check recording. It auto-finishes
// after the configured test duration unless StopMicTest is called first.
func (s *Session) StartMicTest() error {
	if err := s.apply(Event{Kind: EventStartMicTest}); err != nil {
		return err
	}
	s.say(RoleAssistant, "Microphone check: please say a few words, for example describe the weather today.")
	return s.startRecording(s.cfg.MicTestDuration, s.finishMicTest)
}

// StopMicTest ends the check early and evaluates the recording.
func (s *Session) StopMicTest() error {
	gen, ok := s.takeRecording()
	if !ok {
		return audio.ErrNotRecording
	}
	s.finishMicTest(gen)
	return nil
}

// RetryMicTest starts another check after a failed one.
func (s *Session) RetryMicTest() error {
	if err := s.apply(Event{Kind: EventRetryMicTest}); err != nil {
		return err
	}
	s.say(RoleAssistant, "Let's try the microphone check again. Speak clearly for a few seconds.")
	return s.startRecording(s.cfg.MicTestDuration, s.finishMicTest)
}

// Proceed leaves the mic-test summary and presents the first question, or
// finishes immediately when the interview has no questions.
func (s *Session) Proceed() error {
	if err := s.apply(Event{Kind: EventProceed}); err != nil {
		return err
	}
	s.mu.Lock()
	final := s.state.Step == StepFinal
	s.mu.Unlock()
	if final {
		s.say(RoleAssistant, "This interview has no questions configured. Thank you for your time!")
		s.finish()
		return nil
	}
	s.askCurrent()
	return nil
}

// StartAnswer begins recording the answer to the current question. The
// recording auto-stops after the configured answer duration.
func (s *Session) StartAnswer() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.state.Step != StepQuestion {
		s.mu.Unlock()
		return fmt.Errorf("%w: answer in step %s", ErrInvalidTransition, s.state.Step)
	}
	if s.recActive {
		s.mu.Unlock()
		return ErrBusyRecording
	}
	s.mu.Unlock()
	return s.startRecording(s.cfg.AnswerDuration, s.finishAnswer)
}

// StopAnswer ends the answer recording early and processes it.
func (s *Session) StopAnswer() error {
	gen, ok := s.takeRecording()
	if !ok {
		return audio.ErrNotRecording
	}
	s.finishAnswer(gen)
	return nil
}

// Close tears the session down: cancels timers and in-flight transcription
// and releases the microphone. Idempotent.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.recActive = false
	if s.recTimer != nil {
		s.recTimer.Stop()
		s.recTimer = nil
	}
	s.mu.Unlock()

	s.cancel()
	s.cfg.Recorder.Cleanup()
	logging.Debugw("interview: session closed", "interview_id", s.cfg.InterviewID)
}

// apply runs one event through the pure transition under the lock.
func (s *Session) apply(e Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}
	next, err := Transition(s.state, e)
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// startRecording arms a fresh recording generation and its auto-stop
// timer. The timer and the manual stop path race through takeRecording, so
// whichever claims the generation first processes the clip.
func (s *Session) startRecording(d time.Duration, finish func(gen int)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if s.recActive {
		s.mu.Unlock()
		return ErrBusyRecording
	}
	s.recGen++
	gen := s.recGen
	s.recActive = true
	s.mu.Unlock()

	err := s.cfg.Recorder.StartRecording(s.ctx, audio.RecordingOptions{
		Duration: d,
		Format:   s.cfg.Format,
		Quality:  s.cfg.Quality,
	})
	if err != nil {
		s.mu.Lock()
		s.recActive = false
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.recTimer = time.AfterFunc(d, func() {
		if g, ok := s.claim(gen); ok {
			finish(g)
		}
	})
	s.mu.Unlock()
	return nil
}

// takeRecording claims the active recording for a manual stop.
func (s *Session) takeRecording() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.recActive {
		return 0, false
	}
	return s.claimLocked(s.recGen)
}

func (s *Session) claim(gen int) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(gen)
}

// claimLocked marks a recording generation as taken exactly once. The
// loser of the timer-versus-manual race gets ok=false and does nothing.
func (s *Session) claimLocked(gen int) (int, bool) {
	if s.closed || !s.recActive || s.recGen != gen {
		return 0, false
	}
	s.recActive = false
	if s.recTimer != nil {
		s.recTimer.Stop()
		s.recTimer = nil
	}
	return gen, true
}

func (s *Session) finishMicTest(gen int) {
	clip, err := s.cfg.Recorder.StopRecording()
	if err != nil {
		logging.Warnw("interview: mic test stop failed", "interview_id", s.cfg.InterviewID, "err", err)
		clip = nil
	}

	quality := s.cfg.Thresholds.Classify(clip)
	passed := false
	transcript := ""
	if quality != QualitySilent {
		res := s.cfg.Recorder.TranscribeAudio(s.ctx, clip)
		if res.Success && usableTranscript(res.Text) {
			passed = true
			transcript = res.Text
		}
	}

	if err := s.apply(Event{Kind: EventMicTestFinished, Passed: passed}); err != nil {
		logging.Warnw("interview: mic test result discarded", "interview_id", s.cfg.InterviewID, "err", err)
		return
	}
	logging.Infow("interview: mic test finished",
		"interview_id", s.cfg.InterviewID, "passed", passed, "quality", quality, "gen", gen)

	if passed {
		s.say(RoleAssistant,
			"Great, I can hear you clearly: \""+transcript+"\"",
			"When you're ready, continue to the first question.",
		)
		return
	}
	s.say(RoleAssistant,
		"I couldn't hear you. Please check that your microphone is connected and not muted, move closer to it, and try again.",
	)
}

func (s *Session) finishAnswer(gen int) {
	clip, err := s.cfg.Recorder.StopRecording()
	if err != nil {
		logging.Warnw("interview: answer stop failed", "interview_id", s.cfg.InterviewID, "err", err)
		clip = nil
	}

	s.mu.Lock()
	if s.state.Step != StepQuestion || s.state.QuestionIndex >= len(s.questions) {
		s.mu.Unlock()
		return
	}
	q := s.questions[s.state.QuestionIndex]
	s.mu.Unlock()

	ans := Answer{QuestionID: q.ID, Quality: s.cfg.Thresholds.Classify(clip)}
	if clip != nil {
		ans.ClipBytes = len(clip.Data)
		ans.ClipDuration = clip.Duration
	}

	// Silent clips are never uploaded; the answer is recorded as not
	// recognized and the flow advances so one bad take cannot stall the
	// whole interview.
	if ans.Quality == QualitySilent {
		ans.Transcript = transcribe.NotRecognized
	} else {
		res := s.cfg.Recorder.TranscribeInterviewAnswer(s.ctx, clip, s.cfg.InterviewID, q.ID)
		ans.AnswerID = res.AnswerID
		if res.Success && res.Text != "" {
			ans.Transcript = res.Text
			ans.Recognized = res.Text != transcribe.NotRecognized
		} else {
			ans.Transcript = transcribe.NotRecognized
			if res.Error != "" {
				logging.Warnw("interview: answer not recognized",
					"interview_id", s.cfg.InterviewID, "question_id", q.ID, "reason", res.Error)
			}
		}
	}

	s.say(RoleCandidate, ans.Transcript)
	if s.cfg.OnAnswer != nil {
		s.cfg.OnAnswer(ans)
	}

	if err := s.apply(Event{Kind: EventAnswerRecorded}); err != nil {
		logging.Warnw("interview: answer transition failed", "interview_id", s.cfg.InterviewID, "err", err)
		return
	}
	logging.Infow("interview: answer recorded",
		"interview_id", s.cfg.InterviewID, "question_id", q.ID,
		"quality", ans.Quality, "recognized", ans.Recognized, "gen", gen)

	s.mu.Lock()
	final := s.state.Step == StepFinal
	s.mu.Unlock()
	if final {
		s.say(RoleAssistant, "That was the last question. Thank you for completing the interview!")
		s.finish()
		return
	}
	s.askCurrent()
}

// usableTranscript rejects the sentinel and backend error strings that
// some STT deployments return in the text field.
func usableTranscript(text string) bool {
	if text == "" || text == transcribe.NotRecognized {
		return false
	}
	return !strings.HasPrefix(strings.ToLower(text), "error")
}

func (s *Session) askCurrent() {
	s.mu.Lock()
	if s.state.Step != StepQuestion || s.state.QuestionIndex >= len(s.questions) {
		s.mu.Unlock()
		return
	}
	q := s.questions[s.state.QuestionIndex]
	idx := s.state.QuestionIndex
	s.mu.Unlock()
	s.say(RoleAssistant, fmt.Sprintf("Question %d of %d: %s", idx+1, len(s.questions), q.Text))
}

func (s *Session) finish() {
	if s.cfg.OnFinished != nil {
		s.cfg.OnFinished(s.Entries())
	}
	s.cfg.Recorder.Cleanup()
	logging.Infow("interview: finished", "interview_id", s.cfg.InterviewID)
}

// say appends chat entries, pausing between consecutive lines so the
// conversation reads at a human pace. The pause is skipped when PaceDelay
// is zero.
func (s *Session) say(role string, lines ...string) {
	for i, text := range lines {
		if i > 0 && s.cfg.PaceDelay > 0 {
			select {
			case <-s.ctx.Done():
				return
			case <-time.After(s.cfg.PaceDelay):
			}
		}
		s.mu.Lock()
		s.entries = append(s.entries, Entry{Role: role, Text: text, At: s.cfg.Now()})
		s.mu.Unlock()
	}
}
