package audio

import (
	"fmt"
	"time"
)

// Format is a container format candidates may record in.
type Format string

const (
	FormatWAV  Format = "wav"
	FormatWebM Format = "webm"
	FormatMP3  Format = "mp3"
)

// ParseFormat validates a user-supplied format string.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatWAV, FormatWebM, FormatMP3:
		return Format(s), nil
	}
	return "", fmt.Errorf("unknown audio format %q", s)
}

// MIMECandidates returns the MIME types to try for a format, preferred first.
func (f Format) MIMECandidates() []string {
	switch f {
	case FormatWebM:
		return []string{"audio/webm;codecs=opus", "audio/webm", "audio/ogg;codecs=opus"}
	case FormatMP3:
		return []string{"audio/mpeg", "audio/mp3", "audio/wav"}
	default:
		return []string{"audio/wav", "audio/wave", "audio/x-wav"}
	}
}

// Quality selects the encoding bit rate.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// BitRate maps a quality level to its fixed bit rate in bits per second.
func (q Quality) BitRate() int {
	switch q {
	case QualityLow:
		return 64000
	case QualityHigh:
		return 256000
	default:
		return 128000
	}
}

// RecordingOptions configures one recording session.
type RecordingOptions struct {
	// Duration > 0 arms an auto-stop timer; zero means record until stopped.
	Duration   time.Duration
	Format     Format
	Quality    Quality
	SampleRate int
	Channels   int
}

func (o RecordingOptions) withDefaults() RecordingOptions {
	if o.Format == "" {
		o.Format = FormatWAV
	}
	if o.Quality == "" {
		o.Quality = QualityMedium
	}
	if o.SampleRate <= 0 {
		o.SampleRate = 48000
	}
	if o.Channels <= 0 {
		o.Channels = 1
	}
	return o
}

// Clip is a finalized, in-memory audio recording.
type Clip struct {
	Data       []byte
	MIMEType   string
	SampleRate int
	Channels   int
	Duration   time.Duration
}

// Empty reports whether the clip carries no audio payload.
func (c *Clip) Empty() bool { return c == nil || len(c.Data) == 0 }

// Device describes an available capture device. Read-only, sourced from the
// provider's enumeration.
type Device struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Support reports runtime capture capabilities as flags rather than errors
// so callers can degrade gracefully.
type Support struct {
	Capture   bool     `json:"capture"`
	Recording bool     `json:"recording"`
	Analysis  bool     `json:"analysis"`
	Formats   []Format `json:"formats"`
}
