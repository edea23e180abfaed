// Package store persists recruiting data in SQLite through GORM.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/logging"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrAlreadyStarted = errors.New("interview already started")
)

type Store struct {
	db *gorm.DB
}

// Open creates or migrates the SQLite database at path. Use ":memory:" in
// tests.
func Open(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}
	if err := db.AutoMigrate(
		&Position{}, &Question{}, &Candidate{},
		&Interview{}, &InterviewAnswer{}, &TranscriptEntry{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	logging.Infow("store: database ready", "path", path)
	return &Store{db: db}, nil
}

func wrapErr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// --- positions ---

func (s *Store) CreatePosition(p *Position) error {
	return s.db.Create(p).Error
}

func (s *Store) GetPosition(id string) (*Position, error) {
	var p Position
	err := s.db.Preload("Questions", func(db *gorm.DB) *gorm.DB {
		return db.Order("order_index ASC")
	}).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &p, nil
}

func (s *Store) ListPositions() ([]Position, error) {
	var out []Position
	err := s.db.Order("created_at DESC").Find(&out).Error
	return out, err
}

func (s *Store) UpdatePosition(p *Position) error {
	res := s.db.Model(&Position{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
		"title":       p.Title,
		"description": p.Description,
		"status":      p.Status,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- questions ---

func (s *Store) CreateQuestion(q *Question) error {
	return s.db.Create(q).Error
}

func (s *Store) ListQuestions(positionID string) ([]Question, error) {
	var out []Question
	err := s.db.Where("position_id = ?", positionID).Order("order_index ASC").Find(&out).Error
	return out, err
}

func (s *Store) DeleteQuestion(id string) error {
	res := s.db.Delete(&Question{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// --- candidates ---

func (s *Store) CreateCandidate(c *Candidate) error {
	return s.db.Create(c).Error
}

func (s *Store) GetCandidate(id string) (*Candidate, error) {
	var c Candidate
	if err := s.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, wrapErr(err)
	}
	return &c, nil
}

func (s *Store) ListCandidates() ([]Candidate, error) {
	var out []Candidate
	err := s.db.Order("created_at DESC").Find(&out).Error
	return out, err
}

// --- interviews ---

func (s *Store) CreateInterview(iv *Interview) error {
	if iv.Status == "" {
		iv.Status = StatusNotStarted
	}
	return s.db.Create(iv).Error
}

func (s *Store) GetInterview(id string) (*Interview, error) {
	var iv Interview
	err := s.db.Preload("Answers").First(&iv, "id = ?", id).Error
	if err != nil {
		return nil, wrapErr(err)
	}
	return &iv, nil
}

func (s *Store) ListInterviews(positionID string) ([]Interview, error) {
	q := s.db.Order("created_at DESC")
	if positionID != "" {
		q = q.Where("position_id = ?", positionID)
	}
	var out []Interview
	err := q.Find(&out).Error
	return out, err
}

// ClaimInterview flips not_started to in_progress in a single conditional
// update, so exactly one caller wins even under concurrent starts.
func (s *Store) ClaimInterview(id string) error {
	now := time.Now().UTC()
	res := s.db.Model(&Interview{}).
		Where("id = ? AND status = ?", id, StatusNotStarted).
		Updates(map[string]interface{}{"status": StatusInProgress, "started_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var iv Interview
		if err := s.db.Select("id", "status").First(&iv, "id = ?", id).Error; err != nil {
			return wrapErr(err)
		}
		return fmt.Errorf("%w: status %s", ErrAlreadyStarted, iv.Status)
	}
	logging.Infow("store: interview claimed", "interview_id", id)
	return nil
}

// FinishInterview moves an in-progress interview to a terminal status.
func (s *Store) FinishInterview(id, status string) error {
	if status != StatusFinished && status != StatusFailed {
		return fmt.Errorf("invalid terminal status %q", status)
	}
	now := time.Now().UTC()
	res := s.db.Model(&Interview{}).
		Where("id = ? AND status = ?", id, StatusInProgress).
		Updates(map[string]interface{}{"status": status, "finished_at": now})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetMicTestRetries(id string, retries int) error {
	return s.db.Model(&Interview{}).Where("id = ?", id).
		Update("mic_test_retries", retries).Error
}

// --- answers and transcript ---

func (s *Store) SaveAnswer(a *InterviewAnswer) error {
	return s.db.Create(a).Error
}

func (s *Store) ListAnswers(interviewID string) ([]InterviewAnswer, error) {
	var out []InterviewAnswer
	err := s.db.Where("interview_id = ?", interviewID).Order("created_at ASC").Find(&out).Error
	return out, err
}

func (s *Store) AppendTranscript(entries ...TranscriptEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.Create(&entries).Error
}

func (s *Store) GetTranscript(interviewID string) ([]TranscriptEntry, error) {
	var out []TranscriptEntry
	err := s.db.Where("interview_id = ?", interviewID).Order("id ASC").Find(&out).Error
	return out, err
}

// --- dashboard ---

func (s *Store) Dashboard() (*DashboardStats, error) {
	var stats DashboardStats
	counts := []struct {
		dst   *int64
		query *gorm.DB
	}{
		{&stats.Positions, s.db.Model(&Position{})},
		{&stats.Candidates, s.db.Model(&Candidate{})},
		{&stats.Interviews, s.db.Model(&Interview{})},
		{&stats.InterviewsFinished, s.db.Model(&Interview{}).Where("status = ?", StatusFinished)},
		{&stats.InterviewsInFlight, s.db.Model(&Interview{}).Where("status = ?", StatusInProgress)},
		{&stats.AnswersRecognized, s.db.Model(&InterviewAnswer{}).Where("recognized = ?", true)},
		{&stats.AnswersUnrecognized, s.db.Model(&InterviewAnswer{}).Where("recognized = ?", false)},
	}
	for _, c := range counts {
		if err := c.query.Count(c.dst).Error; err != nil {
			return nil, err
		}
	}
	return &stats, nil
}
