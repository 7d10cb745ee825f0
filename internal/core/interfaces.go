// Package core defines the domain types and collaborator interfaces for the
// lesson-service generation pipeline.
package core

import "context"

// ObjectStore defines the interface for interacting with a key-value blob store.
type ObjectStore interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// GenerationOptions holds per-request settings for a generative text call.
type GenerationOptions struct {
	Temperature     float32
	MaxOutputTokens int32
}

// TextGenerator defines the interface for a generative text model adapter.
// Generate returns the concatenated text of the model response, or an error
// after its internal retry budget is exhausted.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

// SpeechResult reports the outcome of a synthesis call. A result always refers
// to a playable file on disk: when synthesis fails for any reason Placeholder
// is true and Path points at a minimal valid audio file.
type SpeechResult struct {
	Path        string
	Placeholder bool
	Err         error
}

// SpeechSynthesizer defines the interface for a text-to-speech adapter.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text, voiceID, outputPath string) SpeechResult
}

// RenderResult reports the outcome of an animation render. Path always refers
// to an existing video file: a placeholder is written when the render fails.
type RenderResult struct {
	Path      string
	SceneName string
	Err       error
}

// VideoRenderer defines the interface for an animation render adapter.
type VideoRenderer interface {
	Render(ctx context.Context, sceneCode, outputName, outputDir string) RenderResult
}

// MediaClass classifies a media file on disk by whether it plausibly contains
// real content or is a minimal placeholder.
type MediaClass int

// Media classification outcomes.
const (
	MediaMissing MediaClass = iota
	MediaPlaceholder
	MediaValid
)

// MediaCombiner defines the interface for muxing narration audio into a video
// track and classifying media files.
type MediaCombiner interface {
	Combine(ctx context.Context, videoPath, audioPath, outputPath string) (string, error)
	Classify(path string) MediaClass
}

// TextExtractor defines the interface for pulling plain text out of an
// uploaded lesson file.
type TextExtractor interface {
	Extract(path string) (string, error)
}
