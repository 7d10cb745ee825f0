// Package config_test tests the configuration loading for the lesson-service.
package config_test

import (
	"testing"

	"github.com/book-expert/lesson-service/internal/config"
	"github.com/pelletier/go-toml/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tomlData := `
[gemini]
api_key = "test-key"
model = "gemini-2.0-flash"
max_attempts = 3
timeout_seconds = 90

[speech]
api_key = "eleven-key"
host_voice_id = "host-voice"
expert_voice_id = "expert-voice"

[render]
binary = "/usr/local/bin/manim"
timeout_seconds = 45

[media]
valid_size_threshold_bytes = 20000

[storage]
driver = "sqlite"
dsn = "lessons.db"

[nats]
url = "nats://127.0.0.1:4222"
asset_bucket = "LESSON_ASSETS"

[generation]
max_source_chars = 4000
visual_attempts = 2

[paths]
upload_dir = "/var/lib/lesson-service/uploads"
base_logs_dir = "/var/log/lesson-service"
`

	var cfg config.Config

	err := toml.Unmarshal([]byte(tomlData), &cfg)
	require.NoError(t, err)

	assert.Equal(t, "test-key", cfg.Gemini.APIKey)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.Model)
	assert.Equal(t, 3, cfg.Gemini.MaxAttempts)
	assert.Equal(t, 90, cfg.Gemini.TimeoutSeconds)
	assert.Equal(t, "eleven-key", cfg.Speech.APIKey)
	assert.Equal(t, "host-voice", cfg.Speech.HostVoiceID)
	assert.Equal(t, "expert-voice", cfg.Speech.ExpertVoiceID)
	assert.Equal(t, "/usr/local/bin/manim", cfg.Render.Binary)
	assert.Equal(t, 45, cfg.Render.TimeoutSeconds)
	assert.Equal(t, int64(20000), cfg.Media.ValidSizeThresholdB)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "lessons.db", cfg.Storage.DSN)
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.NATS.URL)
	assert.Equal(t, "LESSON_ASSETS", cfg.NATS.AssetBucket)
	assert.Equal(t, 4000, cfg.Generation.MaxSourceChars)
	assert.Equal(t, 2, cfg.Generation.VisualAttempts)
	assert.Equal(t, "/var/lib/lesson-service/uploads", cfg.Paths.UploadDir)
	assert.Equal(t, "/var/log/lesson-service", cfg.Paths.BaseLogsDir)
}

func TestNormalize_FillsDefaults(t *testing.T) {
	t.Parallel()

	var cfg config.Config

	cfg.Normalize()

	assert.Equal(t, config.DefaultGeminiModel, cfg.Gemini.Model)
	assert.Equal(t, config.DefaultGeminiAttempts, cfg.Gemini.MaxAttempts)
	assert.Equal(t, config.DefaultSpeechBaseURL, cfg.Speech.BaseURL)
	assert.Equal(t, config.DefaultSpeechModelID, cfg.Speech.ModelID)
	assert.Equal(t, config.DefaultHostVoiceID, cfg.Speech.HostVoiceID)
	assert.Equal(t, config.DefaultExpertVoiceID, cfg.Speech.ExpertVoiceID)
	assert.Equal(t, config.DefaultRenderBinary, cfg.Render.Binary)
	assert.Equal(t, config.DefaultRenderTimeout, cfg.Render.TimeoutSeconds)
	assert.Equal(t, config.DefaultFFmpegBinary, cfg.Media.FFmpegBinary)
	assert.Equal(t, int64(config.DefaultValidSizeBytes), cfg.Media.ValidSizeThresholdB)
	assert.Equal(t, config.DefaultMaxSourceChars, cfg.Generation.MaxSourceChars)
	assert.Equal(t, config.DefaultVisualAttempts, cfg.Generation.VisualAttempts)
	assert.Equal(t, config.DefaultQuizAttempts, cfg.Generation.QuizAttempts)
	assert.Equal(t, config.DefaultStorageDriver, cfg.Storage.Driver)
}

func TestNormalize_KeepsExplicitValues(t *testing.T) {
	t.Parallel()

	cfg := config.Config{}
	cfg.Gemini.Model = "gemini-2.5-pro"
	cfg.Media.ValidSizeThresholdB = 50_000

	cfg.Normalize()

	assert.Equal(t, "gemini-2.5-pro", cfg.Gemini.Model)
	assert.Equal(t, int64(50_000), cfg.Media.ValidSizeThresholdB)
}
