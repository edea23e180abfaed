package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/interview"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

type startRequest struct {
	Consent bool `json:"consent"`
	Privacy bool `json:"privacy"`
}

type flowResponse struct {
	State   interview.FlowState `json:"state"`
	Entries []interview.Entry   `json:"entries"`
}

// handleStart claims the interview and opens its session. The claim is
// atomic in the store, so a reused invite link gets a conflict instead of
// a second interview.
func (s *Server) handleStart(c *gin.Context) {
	id := c.Param("id")
	var req startRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	if !req.Consent || !req.Privacy {
		jsonError(c, http.StatusBadRequest, interview.ErrConsent)
		return
	}

	if err := s.store.ClaimInterview(id); err != nil {
		switch {
		case errors.Is(err, store.ErrAlreadyStarted):
			jsonError(c, http.StatusConflict, err)
		default:
			notFoundOr500(c, err)
		}
		return
	}

	inst, err := s.sessions.GetOrCreate(id)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	if err := inst.Session.AcceptInvite(req.Consent, req.Privacy); err != nil {
		s.flowError(c, err)
		return
	}
	s.respondFlow(c, id, inst.Session)
}

type eventRequest struct {
	Kind string `json:"kind" binding:"required,oneof=start_mic_test stop_mic_test retry_mic_test proceed start_answer stop_answer"`
}

func (s *Server) handleEvent(c *gin.Context) {
	id := c.Param("id")
	var req eventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	inst, ok := s.sessions.Get(id)
	if !ok {
		jsonError(c, http.StatusConflict, errors.New("interview has not been started"))
		return
	}

	var err error
	switch req.Kind {
	case "start_mic_test":
		err = inst.Session.StartMicTest()
	case "stop_mic_test":
		err = inst.Session.StopMicTest()
	case "retry_mic_test":
		if err = inst.Session.RetryMicTest(); err == nil {
			retries := inst.Session.State().MicTestRetries
			if serr := s.store.SetMicTestRetries(id, retries); serr != nil {
				notFoundOr500(c, serr)
				return
			}
		}
	case "proceed":
		err = inst.Session.Proceed()
	case "start_answer":
		err = inst.Session.StartAnswer()
	case "stop_answer":
		err = inst.Session.StopAnswer()
	}
	if err != nil {
		s.flowError(c, err)
		return
	}
	s.respondFlow(c, id, inst.Session)
}

func (s *Server) handleState(c *gin.Context) {
	id := c.Param("id")
	if inst, ok := s.sessions.Get(id); ok {
		c.JSON(http.StatusOK, gin.H{"state": inst.Session.State()})
		return
	}
	iv, err := s.store.GetInterview(id)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": iv.Status})
}

func (s *Server) handleTranscript(c *gin.Context) {
	id := c.Param("id")
	if inst, ok := s.sessions.Get(id); ok {
		c.JSON(http.StatusOK, gin.H{"entries": inst.Session.Entries()})
		return
	}
	entries, err := s.store.GetTranscript(id)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

type answerUploadResponse struct {
	Success           bool   `json:"success"`
	FormattedText     string `json:"formattedText"`
	InterviewAnswerID string `json:"interviewAnswerId"`
}

// handleAnswerUpload transcribes and persists a directly uploaded answer
// clip, bypassing the live session. Clients that record locally use it
// instead of the WebSocket stream.
func (s *Server) handleAnswerUpload(c *gin.Context) {
	interviewID := c.Param("id")
	questionID := c.Param("qid")

	iv, err := s.store.GetInterview(interviewID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	questions, err := s.store.ListQuestions(iv.PositionID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	known := false
	for _, q := range questions {
		if q.ID == questionID {
			known = true
			break
		}
	}
	if !known {
		jsonError(c, http.StatusNotFound, fmt.Errorf("question %s does not belong to this interview", questionID))
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(c, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	clip := s.normalizeClip(data, header.Header.Get("Content-Type"))
	res, err := s.stt.TranscribeInterviewAnswer(c.Request.Context(), clip, interviewID, questionID)
	if err != nil {
		switch {
		case errors.Is(err, transcribe.ErrEmptyClip), errors.Is(err, transcribe.ErrClipTooLarge):
			jsonError(c, http.StatusBadRequest, err)
		default:
			jsonError(c, http.StatusBadGateway, err)
		}
		return
	}

	quality := s.thresholds().Classify(clip)
	answer := &store.InterviewAnswer{
		InterviewID:    interviewID,
		QuestionID:     questionID,
		Transcript:     res.Text,
		Quality:        string(quality),
		Recognized:     res.Success && res.Text != transcribe.NotRecognized,
		ClipBytes:      len(clip.Data),
		ClipDurationMs: clip.Duration.Milliseconds(),
	}
	if err := s.store.SaveAnswer(answer); err != nil {
		notFoundOr500(c, err)
		return
	}
	if res.AnswerID == "" {
		res.AnswerID = answer.ID
	}
	c.JSON(http.StatusOK, answerUploadResponse{
		Success:           res.Success,
		FormattedText:     res.Text,
		InterviewAnswerID: res.AnswerID,
	})
}

// respondFlow snapshots state and chat log after an event and persists
// the new transcript lines. A finished flow also drops the session.
func (s *Server) respondFlow(c *gin.Context, id string, session *interview.Session) {
	state := session.State()
	entries := session.Entries()
	s.persistTranscript(id, entries)
	if state.Step == interview.StepFinal {
		s.sessions.Close(id)
	}
	c.JSON(http.StatusOK, flowResponse{State: state, Entries: entries})
}

func (s *Server) flowError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, interview.ErrConsent):
		jsonError(c, http.StatusBadRequest, err)
	case errors.Is(err, interview.ErrInvalidTransition),
		errors.Is(err, interview.ErrBusyRecording),
		errors.Is(err, audio.ErrAlreadyRecording),
		errors.Is(err, audio.ErrNotRecording):
		jsonError(c, http.StatusConflict, err)
	case errors.Is(err, interview.ErrSessionClosed):
		jsonError(c, http.StatusGone, err)
	case errors.Is(err, audio.ErrNoStream), errors.Is(err, audio.ErrPermissionDenied):
		jsonError(c, http.StatusPreconditionFailed, fmt.Errorf("audio stream not connected: %w", err))
	default:
		notFoundOr500(c, err)
	}
}
