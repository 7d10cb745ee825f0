// Package config provides the configuration structure for the lesson-service.
package config

import (
	"fmt"

	"github.com/book-expert/configurator"
	"github.com/book-expert/logger"
)

// Defaults applied by Normalize for settings the deployment leaves unset.
const (
	DefaultGeminiModel       = "gemini-2.0-flash"
	DefaultGeminiAttempts    = 2
	DefaultGeminiRetryDelay  = 2
	DefaultGeminiTimeout     = 120
	DefaultSpeechBaseURL     = "https://api.elevenlabs.io"
	DefaultSpeechModelID     = "eleven_multilingual_v2"
	DefaultSpeechFormat      = "mp3_44100_128"
	DefaultHostVoiceID       = "EXAVITQu4vr4xnSDxMaL"
	DefaultExpertVoiceID     = "JBFqnCBsd6RMkjVDRZzb"
	DefaultSpeechTimeout     = 60
	DefaultRenderBinary      = "manim"
	DefaultRenderTimeout     = 60
	DefaultFFmpegBinary      = "ffmpeg"
	DefaultCombineTimeout    = 30
	DefaultValidSizeBytes    = 10_000
	DefaultMaxSourceChars    = 4000
	DefaultMaxPromptChars    = 2000
	DefaultQuizPromptChars   = 3000
	DefaultMaxSpeechChars    = 4000
	DefaultSegmentChars      = 1000
	DefaultVisualAttempts    = 2
	DefaultQuizAttempts      = 2
	DefaultStorageDriver     = "sqlite"
	DefaultStorageDSN        = "lesson-service.db"
)

// GeminiConfig holds the generative text backend settings.
type GeminiConfig struct {
	APIKey            string `toml:"api_key"`
	Model             string `toml:"model"`
	MaxAttempts       int    `toml:"max_attempts"`
	RetryDelaySeconds int    `toml:"retry_delay_seconds"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
}

// SpeechConfig holds the speech synthesis backend settings.
type SpeechConfig struct {
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	ModelID        string `toml:"model_id"`
	OutputFormat   string `toml:"output_format"`
	HostVoiceID    string `toml:"host_voice_id"`
	ExpertVoiceID  string `toml:"expert_voice_id"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RenderConfig holds the animation render settings.
type RenderConfig struct {
	Binary         string `toml:"binary"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// MediaConfig holds the mux and media classification settings.
type MediaConfig struct {
	FFmpegBinary        string `toml:"ffmpeg_binary"`
	CombineTimeoutSecs  int    `toml:"combine_timeout_seconds"`
	ValidSizeThresholdB int64  `toml:"valid_size_threshold_bytes"`
}

// StorageConfig holds the relational persistence settings.
type StorageConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// NATSConfig holds the optional asset archive settings. Archiving is disabled
// when URL is empty.
type NATSConfig struct {
	URL         string `toml:"url"`
	AssetBucket string `toml:"asset_bucket"`
}

// GenerationConfig holds the pipeline bounds: prompt and source truncation
// limits and per-stage retry budgets.
type GenerationConfig struct {
	MaxSourceChars  int `toml:"max_source_chars"`
	MaxPromptChars  int `toml:"max_prompt_chars"`
	QuizPromptChars int `toml:"quiz_prompt_chars"`
	MaxSpeechChars  int `toml:"max_speech_chars"`
	SegmentChars    int `toml:"segment_chars"`
	VisualAttempts  int `toml:"visual_attempts"`
	QuizAttempts    int `toml:"quiz_attempts"`
}

// PathsConfig holds the configuration for file paths.
type PathsConfig struct {
	UploadDir   string `toml:"upload_dir"`
	WorkDir     string `toml:"work_dir"`
	BaseLogsDir string `toml:"base_logs_dir"`
}

// Config is the root configuration structure.
type Config struct {
	Gemini     GeminiConfig     `toml:"gemini"`
	Speech     SpeechConfig     `toml:"speech"`
	Render     RenderConfig     `toml:"render"`
	Media      MediaConfig      `toml:"media"`
	Storage    StorageConfig    `toml:"storage"`
	NATS       NATSConfig       `toml:"nats"`
	Generation GenerationConfig `toml:"generation"`
	Paths      PathsConfig      `toml:"paths"`
}

// Load loads the configuration for the lesson-service and fills defaults for
// anything the deployment left unset.
func Load(log *logger.Logger) (*Config, error) {
	var cfg Config

	err := configurator.Load(&cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration from configurator: %w", err)
	}

	cfg.Normalize()

	return &cfg, nil
}

// Normalize fills zero-valued settings with their defaults so every consumer
// can rely on a fully populated configuration.
func (c *Config) Normalize() {
	normalizeGemini(&c.Gemini)
	normalizeSpeech(&c.Speech)
	normalizeRender(&c.Render)
	normalizeMedia(&c.Media)
	normalizeStorage(&c.Storage)
	normalizeGeneration(&c.Generation)
}

func normalizeGemini(g *GeminiConfig) {
	if g.Model == "" {
		g.Model = DefaultGeminiModel
	}

	if g.MaxAttempts <= 0 {
		g.MaxAttempts = DefaultGeminiAttempts
	}

	if g.RetryDelaySeconds <= 0 {
		g.RetryDelaySeconds = DefaultGeminiRetryDelay
	}

	if g.TimeoutSeconds <= 0 {
		g.TimeoutSeconds = DefaultGeminiTimeout
	}
}

func normalizeSpeech(s *SpeechConfig) {
	if s.BaseURL == "" {
		s.BaseURL = DefaultSpeechBaseURL
	}

	if s.ModelID == "" {
		s.ModelID = DefaultSpeechModelID
	}

	if s.OutputFormat == "" {
		s.OutputFormat = DefaultSpeechFormat
	}

	if s.HostVoiceID == "" {
		s.HostVoiceID = DefaultHostVoiceID
	}

	if s.ExpertVoiceID == "" {
		s.ExpertVoiceID = DefaultExpertVoiceID
	}

	if s.TimeoutSeconds <= 0 {
		s.TimeoutSeconds = DefaultSpeechTimeout
	}
}

func normalizeRender(r *RenderConfig) {
	if r.Binary == "" {
		r.Binary = DefaultRenderBinary
	}

	if r.TimeoutSeconds <= 0 {
		r.TimeoutSeconds = DefaultRenderTimeout
	}
}

func normalizeMedia(m *MediaConfig) {
	if m.FFmpegBinary == "" {
		m.FFmpegBinary = DefaultFFmpegBinary
	}

	if m.CombineTimeoutSecs <= 0 {
		m.CombineTimeoutSecs = DefaultCombineTimeout
	}

	if m.ValidSizeThresholdB <= 0 {
		m.ValidSizeThresholdB = DefaultValidSizeBytes
	}
}

func normalizeStorage(s *StorageConfig) {
	if s.Driver == "" {
		s.Driver = DefaultStorageDriver
	}

	if s.DSN == "" {
		s.DSN = DefaultStorageDSN
	}
}

func normalizeGeneration(g *GenerationConfig) {
	if g.MaxSourceChars <= 0 {
		g.MaxSourceChars = DefaultMaxSourceChars
	}

	if g.MaxPromptChars <= 0 {
		g.MaxPromptChars = DefaultMaxPromptChars
	}

	if g.QuizPromptChars <= 0 {
		g.QuizPromptChars = DefaultQuizPromptChars
	}

	if g.MaxSpeechChars <= 0 {
		g.MaxSpeechChars = DefaultMaxSpeechChars
	}

	if g.SegmentChars <= 0 {
		g.SegmentChars = DefaultSegmentChars
	}

	if g.VisualAttempts <= 0 {
		g.VisualAttempts = DefaultVisualAttempts
	}

	if g.QuizAttempts <= 0 {
		g.QuizAttempts = DefaultQuizAttempts
	}
}
