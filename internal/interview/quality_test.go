package interview

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FerrPOINT/hr-recruiter-front-sub000/internal/audio"
)

func clipOf(bytes int, d time.Duration) *audio.Clip {
	return &audio.Clip{Data: make([]byte, bytes), Duration: d}
}

func TestClassify(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		name string
		clip *audio.Clip
		want ClipQuality
	}{
		{"nil clip", nil, QualitySilent},
		{"empty clip", clipOf(0, 0), QualitySilent},
		{"tiny payload", clipOf(1024, 3*time.Second), QualitySilent},
		{"too short", clipOf(40*1024, 300*time.Millisecond), QualitySilent},
		{"small payload", clipOf(8*1024, 3*time.Second), QualityPoor},
		{"short clip", clipOf(40*1024, 1500*time.Millisecond), QualityPoor},
		{"normal answer", clipOf(120*1024, 20*time.Second), QualityGood},
		{"boundary bytes", clipOf(10*1024, 2*time.Second), QualityGood},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, th.Classify(tc.clip), tc.name)
	}
}
