package generate

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/lesson-service/internal/core"
)

// Visual asset file names within an assignment's directory.
const (
	sceneFileName      = "scene.py"
	silentVideoName    = "visual_silent"
	combinedVideoName  = "visual.mp4"
	narrationAudioName = "narration.mp3"
)

// visualArtifacts is the typed outcome of one run of the visual pipeline.
// VideoPath always refers to an existing file; VideoValid distinguishes an
// authentic render from a placeholder.
type visualArtifacts struct {
	Plan          map[string]any
	VideoPath     string
	ScenePath     string
	NarrationPath string
	VideoValid    bool
	Combined      bool
}

// runVisualPipeline drives plan generation, narration synthesis, rendering,
// and combination for one assignment. Each failed render attempt restarts
// with a freshly regenerated plan: render failures tend to follow from the
// generated scene code, not from transient infrastructure. A placeholder
// video is never fed to the combiner; the narration stays available as a
// separate asset either way.
func (s *Service) runVisualPipeline(
	ctx context.Context,
	subject core.Subject,
	text, dir string,
) visualArtifacts {
	var artifacts visualArtifacts

	for attempt := 1; attempt <= s.cfg.VisualAttempts; attempt++ {
		plan := s.generator.VisualPlan(ctx, subject, text)
		artifacts.Plan = plan

		narration := narrationText(plan)
		if narration != "" {
			result := s.speech.Synthesize(ctx, narration, "", filepath.Join(dir, narrationAudioName))
			artifacts.NarrationPath = result.Path
		}

		sceneCode, _ := plan["manim_code"].(string)
		if strings.TrimSpace(sceneCode) == "" {
			sceneCode = defaultSceneCode(text)
		}

		artifacts.ScenePath = filepath.Join(dir, sceneFileName)

		writeErr := os.WriteFile(artifacts.ScenePath, []byte(sceneCode), 0o600)
		if writeErr != nil {
			s.log.Warn("Failed to persist scene code to %s: %v", artifacts.ScenePath, writeErr)
		}

		renderResult := s.renderer.Render(ctx, sceneCode, silentVideoName, dir)
		artifacts.VideoPath = renderResult.Path

		if renderResult.Err != nil {
			s.log.Warn("Render attempt %d/%d failed for scene %s: %v",
				attempt, s.cfg.VisualAttempts, renderResult.SceneName, renderResult.Err)
		}

		if s.combiner.Classify(renderResult.Path) == core.MediaValid {
			artifacts.VideoValid = true

			s.log.Info("Valid video rendered on attempt %d/%d", attempt, s.cfg.VisualAttempts)

			break
		}

		s.log.Warn("Visual attempt %d/%d produced a placeholder video", attempt, s.cfg.VisualAttempts)
	}

	if artifacts.VideoValid && artifacts.NarrationPath != "" {
		finalPath, err := s.combiner.Combine(
			ctx, artifacts.VideoPath, artifacts.NarrationPath, filepath.Join(dir, combinedVideoName),
		)
		if err != nil {
			s.log.Warn("Combination failed, keeping silent video: %v", err)
		}

		artifacts.Combined = finalPath != artifacts.VideoPath
		artifacts.VideoPath = finalPath
	}

	return artifacts
}

// narrationText concatenates the text of every narration segment in a plan.
func narrationText(plan map[string]any) string {
	segments, ok := plan["narration"].([]any)
	if !ok {
		return ""
	}

	var parts []string

	for _, raw := range segments {
		segment, ok := raw.(map[string]any)
		if !ok {
			continue
		}

		text, _ := segment["text"].(string)
		if strings.TrimSpace(text) != "" {
			parts = append(parts, text)
		}
	}

	return strings.Join(parts, " ")
}
