// Package httpapi exposes the recruiting platform over HTTP: recruiter
// CRUD, the candidate interview flow and the audio ingest WebSocket.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/config"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/interview"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/recorder"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

// QuestionGenerator is the slice of the chat agent the API uses.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, title, description string, count int) ([]string, error)
}

// Server wires storage, sessions and transcription behind a gin router.
type Server struct {
	cfg      *config.Config
	store    *store.Store
	agent    QuestionGenerator
	stt      *transcribe.Client
	sessions *interview.Manager
	engine   *gin.Engine
}

// New assembles the API server. agentClient may be nil when question
// generation is not configured.
func New(cfg *config.Config, st *store.Store, agentClient QuestionGenerator) *Server {
	s := &Server{
		cfg:   cfg,
		store: st,
		agent: agentClient,
		stt: transcribe.NewClient(transcribe.Options{
			BaseURL:  cfg.STTBaseURL,
			APIKey:   cfg.STTAPIKey,
			Model:    cfg.STTModel,
			Language: cfg.STTLanguage,
			Timeout:  cfg.STTTimeout,
			MaxBytes: cfg.MaxUploadBytes,
		}),
	}
	s.sessions = interview.NewManager(s.buildInstance)

	registerValidators()
	gin.SetMode(gin.ReleaseMode)
	e := gin.New()
	e.Use(Recovery(), RequestLogger())
	e.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	e.Use(MaxBodySize(cfg.MaxUploadBytes))
	s.engine = e
	s.registerRoutes()
	return s
}

var validatorOnce sync.Once

// registerValidators adds the notblank rule: required catches missing
// strings, notblank catches whitespace-only ones.
func registerValidators() {
	validatorOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
				return strings.TrimSpace(fl.Field().String()) != ""
			})
		}
	})
}

// Handler exposes the router for tests and custom http.Server setups.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until ctx is cancelled, then drains sessions and connections.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.ListenAddr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Infow("http: listening", "addr", s.cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logging.Infow("http: shutting down")
	s.sessions.CloseAll()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// buildInstance assembles the session graph for one interview: push
// provider, capture adapter, recording controller and flow session, with
// persistence hooks writing back to the store.
func (s *Server) buildInstance(interviewID string) (*interview.Instance, error) {
	iv, err := s.store.GetInterview(interviewID)
	if err != nil {
		return nil, err
	}
	stored, err := s.store.ListQuestions(iv.PositionID)
	if err != nil {
		return nil, err
	}
	questions := make([]interview.Question, 0, len(stored))
	for _, q := range stored {
		questions = append(questions, interview.Question{
			ID:       q.ID,
			Text:     q.Text,
			Order:    q.OrderIndex,
			Required: q.Required,
		})
	}

	provider := audio.NewPushProvider()
	capture := audio.NewCapture(provider)
	rec := recorder.NewService(capture, s.stt, s.cfg.SampleRate, s.cfg.Channels)
	logging.Infow("http: session created",
		logging.InterviewFields(interviewID, iv.CandidateID, "questions", len(questions))...)

	session := interview.NewSession(interview.Config{
		InterviewID:     interviewID,
		Questions:       questions,
		Recorder:        rec,
		MicTestDuration: s.cfg.MicTestDuration,
		AnswerDuration:  s.cfg.AnswerDuration,
		PaceDelay:       s.cfg.PaceDelay,
		Thresholds:      s.thresholds(),
		OnAnswer: func(a interview.Answer) {
			err := s.store.SaveAnswer(&store.InterviewAnswer{
				InterviewID:    interviewID,
				QuestionID:     a.QuestionID,
				Transcript:     a.Transcript,
				Quality:        string(a.Quality),
				Recognized:     a.Recognized,
				ClipBytes:      a.ClipBytes,
				ClipDurationMs: a.ClipDuration.Milliseconds(),
			})
			if err != nil {
				logging.Errorw("http: save answer failed",
					"interview_id", interviewID, "question_id", a.QuestionID, "err", err)
			}
		},
		// Runs on whichever goroutine reaches the final step, including the
		// answer auto-stop timer, so timer-completed interviews persist
		// their transcript and release the session like HTTP-stopped ones.
		OnFinished: func(entries []interview.Entry) {
			s.persistTranscript(interviewID, entries)
			if err := s.store.FinishInterview(interviewID, store.StatusFinished); err != nil {
				logging.Errorw("http: finish interview failed", "interview_id", interviewID, "err", err)
			}
			s.sessions.Close(interviewID)
		},
	})
	return &interview.Instance{Session: session, Provider: provider}, nil
}

func (s *Server) thresholds() interview.Thresholds {
	return interview.Thresholds{
		SilentBytes:  s.cfg.SilentClipBytes,
		SilentLength: s.cfg.SilentClipLength,
		PoorBytes:    s.cfg.PoorClipBytes,
		PoorLength:   s.cfg.PoorClipLength,
	}
}

// persistTranscript writes the session chat log to the store, replacing
// any earlier snapshot additions by appending only new entries.
func (s *Server) persistTranscript(interviewID string, entries []interview.Entry) {
	stored, err := s.store.GetTranscript(interviewID)
	if err != nil {
		logging.Warnw("http: read transcript failed", "interview_id", interviewID, "err", err)
		return
	}
	if len(entries) <= len(stored) {
		return
	}
	fresh := make([]store.TranscriptEntry, 0, len(entries)-len(stored))
	for _, e := range entries[len(stored):] {
		fresh = append(fresh, store.TranscriptEntry{
			InterviewID: interviewID,
			Role:        e.Role,
			Text:        e.Text,
			At:          e.At,
		})
	}
	if err := s.store.AppendTranscript(fresh...); err != nil {
		logging.Warnw("http: persist transcript failed", "interview_id", interviewID, "err", err)
	}
}

func jsonError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}

func notFoundOr500(c *gin.Context, err error) {
	if errors.Is(err, store.ErrNotFound) {
		jsonError(c, http.StatusNotFound, err)
		return
	}
	jsonError(c, http.StatusInternalServerError, fmt.Errorf("internal error: %w", err))
}
