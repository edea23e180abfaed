package store

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Interview lifecycle statuses. The not_started to in_progress move is an
// atomic claim so a reused invite link cannot start two interviews.
const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
	StatusFailed     = "failed"
)

const (
	PositionActive   = "active"
	PositionArchived = "archived"
)

type Position struct {
	ID          string `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"not null" json:"title"`
	Description string `json:"description"`
	Status      string `gorm:"default:active;index" json:"status"`

	Questions []Question `gorm:"constraint:OnDelete:CASCADE" json:"questions,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Position) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type Question struct {
	ID         string `gorm:"primaryKey" json:"id"`
	PositionID string `gorm:"index;not null" json:"positionId"`
	Text       string `gorm:"not null" json:"text"`
	OrderIndex int    `json:"orderIndex"`
	Required   bool   `json:"required"`

	CreatedAt time.Time `json:"createdAt"`
}

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

type Candidate struct {
	ID        string `gorm:"primaryKey" json:"id"`
	FirstName string `gorm:"not null" json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `gorm:"index" json:"email"`

	CreatedAt time.Time `json:"createdAt"`
}

func (c *Candidate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

type Interview struct {
	ID          string `gorm:"primaryKey" json:"id"`
	PositionID  string `gorm:"index;not null" json:"positionId"`
	CandidateID string `gorm:"index;not null" json:"candidateId"`
	Status      string `gorm:"default:not_started;index" json:"status"`

	MicTestRetries int `json:"micTestRetries"`

	Answers []InterviewAnswer `gorm:"constraint:OnDelete:CASCADE" json:"answers,omitempty"`

	StartedAt  *time.Time `json:"startedAt,omitempty"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (iv *Interview) BeforeCreate(tx *gorm.DB) error {
	if iv.ID == "" {
		iv.ID = uuid.NewString()
	}
	return nil
}

type InterviewAnswer struct {
	ID          string `gorm:"primaryKey" json:"id"`
	InterviewID string `gorm:"index;not null" json:"interviewId"`
	QuestionID  string `gorm:"index;not null" json:"questionId"`

	Transcript string `json:"transcript"`
	Quality    string `json:"quality"`
	Recognized bool   `json:"recognized"`

	ClipBytes      int   `json:"clipBytes"`
	ClipDurationMs int64 `json:"clipDurationMs"`

	CreatedAt time.Time `json:"createdAt"`
}

func (a *InterviewAnswer) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// TranscriptEntry is one line of the interview chat log as shown to
// reviewers.
type TranscriptEntry struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	InterviewID string    `gorm:"index;not null" json:"interviewId"`
	Role        string    `json:"role"`
	Text        string    `json:"text"`
	At          time.Time `json:"at"`
}

// DashboardStats aggregates counts for the recruiter landing page.
type DashboardStats struct {
	Positions           int64 `json:"positions"`
	Candidates          int64 `json:"candidates"`
	Interviews          int64 `json:"interviews"`
	InterviewsFinished  int64 `json:"interviewsFinished"`
	InterviewsInFlight  int64 `json:"interviewsInFlight"`
	AnswersRecognized   int64 `json:"answersRecognized"`
	AnswersUnrecognized int64 `json:"answersUnrecognized"`
}
