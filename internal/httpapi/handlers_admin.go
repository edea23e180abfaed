package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/report"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/store"
	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/transcribe"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleDashboard(c *gin.Context) {
	stats, err := s.store.Dashboard()
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// --- positions ---

type positionRequest struct {
	Title       string `json:"title" binding:"required,notblank,min=2"`
	Description string `json:"description"`
	Status      string `json:"status" binding:"omitempty,oneof=active archived"`
}

func (s *Server) handleCreatePosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	p := &store.Position{Title: req.Title, Description: req.Description, Status: req.Status}
	if p.Status == "" {
		p.Status = store.PositionActive
	}
	if err := s.store.CreatePosition(p); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (s *Server) handleListPositions(c *gin.Context) {
	out, err := s.store.ListPositions()
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetPosition(c *gin.Context) {
	p, err := s.store.GetPosition(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (s *Server) handleUpdatePosition(c *gin.Context) {
	var req positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	p := &store.Position{ID: c.Param("id"), Title: req.Title, Description: req.Description, Status: req.Status}
	if p.Status == "" {
		p.Status = store.PositionActive
	}
	if err := s.store.UpdatePosition(p); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// --- questions ---

type questionRequest struct {
	Text       string `json:"text" binding:"required,notblank,min=3"`
	OrderIndex int    `json:"orderIndex"`
	Required   bool   `json:"required"`
}

func (s *Server) handleCreateQuestion(c *gin.Context) {
	positionID := c.Param("id")
	if _, err := s.store.GetPosition(positionID); err != nil {
		notFoundOr500(c, err)
		return
	}
	var req questionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	q := &store.Question{
		PositionID: positionID,
		Text:       req.Text,
		OrderIndex: req.OrderIndex,
		Required:   req.Required,
	}
	if err := s.store.CreateQuestion(q); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

type generateRequest struct {
	Count int `json:"count" binding:"omitempty,min=1,max=20"`
}

func (s *Server) handleGenerateQuestions(c *gin.Context) {
	if s.agent == nil {
		jsonError(c, http.StatusServiceUnavailable, errors.New("question generation is not configured"))
		return
	}
	p, err := s.store.GetPosition(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	texts, err := s.agent.GenerateQuestions(c.Request.Context(), p.Title, p.Description, req.Count)
	if err != nil {
		jsonError(c, http.StatusBadGateway, fmt.Errorf("generate questions: %w", err))
		return
	}
	existing, err := s.store.ListQuestions(p.ID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	created := make([]store.Question, 0, len(texts))
	for i, text := range texts {
		q := store.Question{
			PositionID: p.ID,
			Text:       text,
			OrderIndex: len(existing) + i,
			Required:   true,
		}
		if err := s.store.CreateQuestion(&q); err != nil {
			notFoundOr500(c, err)
			return
		}
		created = append(created, q)
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) handleDeleteQuestion(c *gin.Context) {
	if err := s.store.DeleteQuestion(c.Param("id")); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- candidates ---

type candidateRequest struct {
	FirstName string `json:"firstName" binding:"required,min=1"`
	LastName  string `json:"lastName"`
	Email     string `json:"email" binding:"omitempty,email"`
}

func (s *Server) handleCreateCandidate(c *gin.Context) {
	var req candidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	cand := &store.Candidate{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}
	if err := s.store.CreateCandidate(cand); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusCreated, cand)
}

func (s *Server) handleListCandidates(c *gin.Context) {
	out, err := s.store.ListCandidates()
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// --- interviews ---

type interviewRequest struct {
	PositionID  string `json:"positionId" binding:"required"`
	CandidateID string `json:"candidateId" binding:"required"`
}

func (s *Server) handleCreateInterview(c *gin.Context) {
	var req interviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		jsonError(c, http.StatusBadRequest, err)
		return
	}
	if _, err := s.store.GetPosition(req.PositionID); err != nil {
		notFoundOr500(c, err)
		return
	}
	if _, err := s.store.GetCandidate(req.CandidateID); err != nil {
		notFoundOr500(c, err)
		return
	}
	iv := &store.Interview{PositionID: req.PositionID, CandidateID: req.CandidateID}
	if err := s.store.CreateInterview(iv); err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusCreated, iv)
}

func (s *Server) handleListInterviews(c *gin.Context) {
	out, err := s.store.ListInterviews(c.Query("positionId"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleGetInterview(c *gin.Context) {
	iv, err := s.store.GetInterview(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	c.JSON(http.StatusOK, iv)
}

func (s *Server) handleIssueInvite(c *gin.Context) {
	iv, err := s.store.GetInterview(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	token, err := IssueInviteToken(s.cfg.InviteSecret, iv.ID, s.cfg.InviteTTL)
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"interviewId": iv.ID,
		"token":       token,
		"expiresAt":   time.Now().Add(s.cfg.InviteTTL).UTC(),
	})
}

// --- report ---

func (s *Server) handleReport(c *gin.Context) {
	iv, err := s.store.GetInterview(c.Param("id"))
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	pos, err := s.store.GetPosition(iv.PositionID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	cand, err := s.store.GetCandidate(iv.CandidateID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	answers, err := s.store.ListAnswers(iv.ID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	transcript, err := s.store.GetTranscript(iv.ID)
	if err != nil {
		notFoundOr500(c, err)
		return
	}
	questionText := make(map[string]string, len(pos.Questions))
	for _, q := range pos.Questions {
		questionText[q.ID] = q.Text
	}
	pdf, err := report.Render(report.Data{
		Interview:  iv,
		Position:   pos,
		Candidate:  cand,
		Answers:    answers,
		Transcript: transcript,
		Questions:  questionText,
	})
	if err != nil {
		jsonError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=interview-%s.pdf", iv.ID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// --- ad-hoc transcription ---

// handleTranscribe transcribes an uploaded clip without touching any
// interview. Recruiters use it to spot-check the STT backend.
func (s *Server) handleTranscribe(c *gin.Context) {
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
	text, err := s.stt.TranscribeAudio(c.Request.Context(), clip)
	if err != nil {
		switch {
		case errors.Is(err, transcribe.ErrEmptyClip), errors.Is(err, transcribe.ErrClipTooLarge):
			jsonError(c, http.StatusBadRequest, err)
		default:
			jsonError(c, http.StatusBadGateway, err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"transcript": text})
}

// normalizeClip converts browser webm/ogg opus uploads to PCM WAV so the
// STT backend only ever sees one container. Undecodable payloads pass
// through unchanged and the backend reports the failure.
func (s *Server) normalizeClip(data []byte, mime string) *audio.Clip {
	if !strings.Contains(mime, "webm") && !strings.Contains(mime, "ogg") {
		return &audio.Clip{Data: data, MIMEType: mime}
	}
	samples, err := audio.DecodeOggOpus(data)
	if err != nil {
		logging.Warnw("http: opus decode failed, forwarding original clip", "mime", mime, "err", err)
		return &audio.Clip{Data: data, MIMEType: mime}
	}
	pcm := make([]byte, 0, len(samples)*2)
	for _, v := range samples {
		pcm = append(pcm, byte(uint16(v)), byte(uint16(v)>>8))
	}
	rate := s.cfg.SampleRate
	channels := s.cfg.Channels
	return &audio.Clip{
		Data:       audio.EncodeWAV(pcm, rate, channels, 16),
		MIMEType:   "audio/wav",
		SampleRate: rate,
		Channels:   channels,
		Duration:   audio.PCMDuration(len(pcm), rate, channels),
	}
}
