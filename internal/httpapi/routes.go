package httpapi

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api/v1")

	api.GET("/health", s.handleHealth)
	api.GET("/dashboard", s.handleDashboard)

	api.POST("/positions", s.handleCreatePosition)
	api.GET("/positions", s.handleListPositions)
	api.GET("/positions/:id", s.handleGetPosition)
	api.PUT("/positions/:id", s.handleUpdatePosition)
	api.POST("/positions/:id/questions", s.handleCreateQuestion)
	api.POST("/positions/:id/questions/generate", s.handleGenerateQuestions)
	api.DELETE("/questions/:id", s.handleDeleteQuestion)

	api.POST("/candidates", s.handleCreateCandidate)
	api.GET("/candidates", s.handleListCandidates)

	api.POST("/interviews", s.handleCreateInterview)
	api.GET("/interviews", s.handleListInterviews)
	api.GET("/interviews/:id", s.handleGetInterview)
	api.POST("/interviews/:id/invite", s.handleIssueInvite)
	api.GET("/interviews/:id/report", s.handleReport)

	api.POST("/transcribe", s.handleTranscribe)

	// Candidate-facing flow, scoped by invite token.
	flow := api.Group("/interviews/:id", InviteAuth(s.cfg.InviteSecret))
	flow.POST("/start", s.handleStart)
	flow.POST("/events", s.handleEvent)
	flow.GET("/state", s.handleState)
	flow.GET("/transcript", s.handleTranscript)
	flow.POST("/questions/:qid/answer", s.handleAnswerUpload)
	flow.GET("/levels", s.handleAudioWS)
}
