package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime settings for the interview service. Values come
// from defaults, an optional config file and environment variables prefixed
// with HRR_ (e.g. HRR_LISTEN_ADDR), in increasing priority.
type Config struct {
	ListenAddr string `mapstructure:"listen_addr"`
	DBPath     string `mapstructure:"db_path"`

	// Candidate invite tokens.
	InviteSecret string        `mapstructure:"invite_secret"`
	InviteTTL    time.Duration `mapstructure:"invite_ttl"`

	// Speech-to-text backend (OpenAI-compatible transcription endpoint).
	STTBaseURL  string        `mapstructure:"stt_base_url"`
	STTAPIKey   string        `mapstructure:"stt_api_key"`
	STTModel    string        `mapstructure:"stt_model"`
	STTTimeout  time.Duration `mapstructure:"stt_timeout"`
	STTLanguage string        `mapstructure:"stt_language"`

	// Question generation (OpenAI-compatible chat endpoint).
	LLMBaseURL       string `mapstructure:"llm_base_url"`
	LLMAPIKey        string `mapstructure:"llm_api_key"`
	LLMModel         string `mapstructure:"llm_model"`
	LLMFallbackModel string `mapstructure:"llm_fallback_model"`

	// Upload and recording limits.
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes"`
	MicTestDuration time.Duration `mapstructure:"mic_test_duration"`
	AnswerDuration  time.Duration `mapstructure:"answer_duration"`
	SampleRate      int           `mapstructure:"sample_rate"`
	Channels        int           `mapstructure:"channels"`

	// Pacing delay between chat transcript entries.
	PaceDelay time.Duration `mapstructure:"pace_delay"`

	// Clip quality heuristics. Provisional defaults; tune against real
	// candidate recordings before trusting them.
	SilentClipBytes  int           `mapstructure:"silent_clip_bytes"`
	SilentClipLength time.Duration `mapstructure:"silent_clip_length"`
	PoorClipBytes    int           `mapstructure:"poor_clip_bytes"`
	PoorClipLength   time.Duration `mapstructure:"poor_clip_length"`

	CORSOrigins []string `mapstructure:"cors_origins"`
}

// Load reads configuration from defaults, an optional config file (path may
// be empty) and HRR_* environment variables.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("db_path", "data/recruiter.db")
	v.SetDefault("invite_secret", "")
	v.SetDefault("invite_ttl", "72h")
	v.SetDefault("stt_base_url", "http://127.0.0.1:9000/v1")
	v.SetDefault("stt_model", "whisper-1")
	v.SetDefault("stt_timeout", "60s")
	v.SetDefault("stt_language", "")
	v.SetDefault("llm_base_url", "http://127.0.0.1:8000/v1")
	v.SetDefault("llm_model", "")
	v.SetDefault("llm_fallback_model", "")
	v.SetDefault("max_upload_bytes", 50*1024*1024)
	v.SetDefault("mic_test_duration", "10s")
	v.SetDefault("answer_duration", "150s")
	v.SetDefault("sample_rate", 48000)
	v.SetDefault("channels", 1)
	v.SetDefault("pace_delay", "800ms")
	v.SetDefault("silent_clip_bytes", 3*1024)
	v.SetDefault("silent_clip_length", "500ms")
	v.SetDefault("poor_clip_bytes", 10*1024)
	v.SetDefault("poor_clip_length", "2s")
	v.SetDefault("cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})

	v.SetEnvPrefix("HRR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	if c.SampleRate <= 0 || c.Channels <= 0 {
		return fmt.Errorf("sample_rate and channels must be positive")
	}
	if c.MicTestDuration <= 0 || c.AnswerDuration <= 0 {
		return fmt.Errorf("mic_test_duration and answer_duration must be positive")
	}
	return nil
}
