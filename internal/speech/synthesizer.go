package speech

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/logger"
)

// Podcast speaker roles produced by the audio script generator.
const (
	SpeakerHost   = "Host"
	SpeakerExpert = "Expert"
)

// placeholderFrame is a single silent MPEG-1 Layer III frame header.
// Followed by padding it yields a file any player accepts, small enough
// that the media classifier always reports it as a placeholder.
var placeholderFrame = []byte{0xFF, 0xFB, 0x90, 0x00}

const placeholderPadding = 100

// Segment is one speaker turn in a podcast discussion script.
type Segment struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Settings bound the synthesizer: which voice speaks each role and how much
// text a single request may carry.
type Settings struct {
	HostVoiceID   string
	ExpertVoiceID string
	MaxTextChars  int
	SegmentChars  int
}

// Synthesizer implements core.SpeechSynthesizer. A nil client (no credential
// configured) degrades every call to a placeholder instead of failing.
type Synthesizer struct {
	client   *HTTPClient
	settings Settings
	log      *logger.Logger
}

// NewSynthesizer creates a synthesizer. client may be nil when no speech
// credential is configured.
func NewSynthesizer(client *HTTPClient, settings Settings, log *logger.Logger) *Synthesizer {
	return &Synthesizer{
		client:   client,
		settings: settings,
		log:      log,
	}
}

// Synthesize converts text to speech with the given voice and writes the
// audio to outputPath. Empty text, a missing credential, or any backend
// failure writes a minimal valid placeholder instead; the returned result
// always refers to a playable file.
func (s *Synthesizer) Synthesize(ctx context.Context, text, voiceID, outputPath string) core.SpeechResult {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return s.placeholderResult(outputPath, nil)
	}

	trimmed = truncateAtRune(trimmed, s.settings.MaxTextChars)

	if s.client == nil {
		return s.placeholderResult(outputPath, nil)
	}

	if voiceID == "" {
		voiceID = s.settings.HostVoiceID
	}

	audioData, err := s.client.GenerateSpeech(ctx, trimmed, voiceID)
	if err != nil {
		s.log.Warn("Speech synthesis failed, writing placeholder to %s: %v", outputPath, err)

		return s.placeholderResult(outputPath, err)
	}

	writeErr := os.WriteFile(outputPath, audioData, 0o600)
	if writeErr != nil {
		s.log.Error("Failed to write synthesized audio to %s: %v", outputPath, writeErr)

		return s.placeholderResult(outputPath, writeErr)
	}

	return core.SpeechResult{
		Path:        outputPath,
		Placeholder: false,
		Err:         nil,
	}
}

// SynthesizePodcast renders a discussion script segment by segment, each
// speaker with its own voice, and concatenates the audio into one file.
// Failed segments are skipped; if no segment synthesizes, a placeholder is
// written instead.
func (s *Synthesizer) SynthesizePodcast(ctx context.Context, segments []Segment, outputPath string) core.SpeechResult {
	if s.client == nil {
		return s.placeholderResult(outputPath, nil)
	}

	var combined bytes.Buffer

	var lastErr error

	synthesized := 0

	for _, segment := range segments {
		text := strings.TrimSpace(segment.Text)
		if text == "" {
			continue
		}

		text = truncateAtRune(text, s.settings.SegmentChars)

		audioData, err := s.client.GenerateSpeech(ctx, text, s.voiceFor(segment.Speaker))
		if err != nil {
			s.log.Warn("Podcast segment synthesis failed for speaker %s: %v", segment.Speaker, err)

			lastErr = err

			continue
		}

		combined.Write(audioData)
		synthesized++
	}

	if synthesized == 0 {
		return s.placeholderResult(outputPath, lastErr)
	}

	writeErr := os.WriteFile(outputPath, combined.Bytes(), 0o600)
	if writeErr != nil {
		s.log.Error("Failed to write podcast audio to %s: %v", outputPath, writeErr)

		return s.placeholderResult(outputPath, writeErr)
	}

	return core.SpeechResult{
		Path:        outputPath,
		Placeholder: false,
		Err:         nil,
	}
}

// truncateAtRune caps text at maxBytes without splitting a UTF-8 sequence,
// backing up to the previous rune boundary when the cut lands mid-rune.
func truncateAtRune(text string, maxBytes int) string {
	if len(text) <= maxBytes {
		return text
	}

	cut := maxBytes
	for cut > 0 && text[cut]&0xC0 == 0x80 {
		cut--
	}

	return text[:cut]
}

// voiceFor maps a script speaker role to a configured voice. Unknown roles
// speak with the host voice.
func (s *Synthesizer) voiceFor(speaker string) string {
	if strings.EqualFold(speaker, SpeakerExpert) {
		return s.settings.ExpertVoiceID
	}

	return s.settings.HostVoiceID
}

func (s *Synthesizer) placeholderResult(outputPath string, cause error) core.SpeechResult {
	err := WritePlaceholder(outputPath)
	if err != nil {
		s.log.Error("Failed to write placeholder audio to %s: %v", outputPath, err)

		if cause == nil {
			cause = err
		}
	}

	return core.SpeechResult{
		Path:        outputPath,
		Placeholder: true,
		Err:         cause,
	}
}

// WritePlaceholder writes a minimal valid MP3 file to path.
func WritePlaceholder(path string) error {
	data := make([]byte, 0, len(placeholderFrame)+placeholderPadding)
	data = append(data, placeholderFrame...)
	data = append(data, make([]byte, placeholderPadding)...)

	err := os.WriteFile(path, data, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write placeholder audio to %s: %w", path, err)
	}

	return nil
}
