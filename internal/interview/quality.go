package interview

import (
	"time"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
)

// ClipQuality buckets a recorded clip by how usable it is for recognition.
type ClipQuality string

const (
	// QualitySilent clips carry essentially no signal and are never sent
	// to the transcription service.
	QualitySilent ClipQuality = "silent"
	// QualityPoor clips are transcribed but flagged for reviewers.
	QualityPoor ClipQuality = "poor"
	QualityGood ClipQuality = "good"
)

// Thresholds holds the size and length cutoffs for clip classification.
type Thresholds struct {
	SilentBytes  int
	SilentLength time.Duration
	PoorBytes    int
	PoorLength   time.Duration
}

// DefaultThresholds returns the classification cutoffs tuned against real
// candidate recordings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SilentBytes:  3 * 1024,
		SilentLength: 500 * time.Millisecond,
		PoorBytes:    10 * 1024,
		PoorLength:   2 * time.Second,
	}
}

// Classify rates a clip by payload size and duration. A nil or empty clip
// is silent by definition.
func (t Thresholds) Classify(clip *audio.Clip) ClipQuality {
	if clip == nil || clip.Empty() {
		return QualitySilent
	}
	n := len(clip.Data)
	switch {
	case n < t.SilentBytes || clip.Duration < t.SilentLength:
		return QualitySilent
	case n < t.PoorBytes || clip.Duration < t.PoorLength:
		return QualityPoor
	default:
		return QualityGood
	}
}
