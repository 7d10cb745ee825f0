package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/book-expert/lesson-service/internal/config"
	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/lesson-service/internal/speech"
	"github.com/book-expert/lesson-service/internal/store"
	"github.com/book-expert/logger"
)

// truncationMarker is appended when source text is cut to the configured
// bound, so readers of the stored payload know the content is partial.
const truncationMarker = "\n\n[Content truncated for processing]"

// Audio asset file names within an assignment's directory.
const (
	podcastAudioName = "podcast.mp3"
	quizFileName     = "quiz.json"
)

// PodcastSynthesizer extends the speech adapter with multi-voice discussion
// synthesis.
type PodcastSynthesizer interface {
	core.SpeechSynthesizer
	SynthesizePodcast(ctx context.Context, segments []speech.Segment, outputPath string) core.SpeechResult
}

// Repository is the persistence surface the orchestrator depends on.
// *store.AssignmentRepository satisfies it.
type Repository interface {
	Create(ctx context.Context, assignment *store.Assignment) error
	Get(ctx context.Context, id string) (*store.Assignment, error)
	UpdateStatus(ctx context.Context, id string, status core.AssignmentStatus, errorMessage string) error
	UpsertVariant(ctx context.Context, variant *store.AssignmentVariant) error
	GetVariant(ctx context.Context, assignmentID string, variantType core.VariantType) (*store.AssignmentVariant, error)
}

// Deps carries every collaborator the orchestrator needs. Archive may be
// nil; everything else is required.
type Deps struct {
	Repository Repository
	Generator  *Generator
	Speech     PodcastSynthesizer
	Renderer   core.VideoRenderer
	Combiner   core.MediaCombiner
	Extractor  core.TextExtractor
	Archive    core.ObjectStore
	UploadRoot string
	Generation config.GenerationConfig
	Log        *logger.Logger
}

// Service sequences the four variant generators for one assignment and
// owns the assignment lifecycle. Generation is synchronous: CreateAssignment
// returns only after every variant is persisted or the assignment failed.
type Service struct {
	repo       Repository
	generator  *Generator
	speech     PodcastSynthesizer
	renderer   core.VideoRenderer
	combiner   core.MediaCombiner
	extractor  core.TextExtractor
	archive    core.ObjectStore
	uploadRoot string
	cfg        config.GenerationConfig
	log        *logger.Logger
}

// NewService creates the orchestrator from its dependency set.
func NewService(deps Deps) *Service {
	return &Service{
		repo:       deps.Repository,
		generator:  deps.Generator,
		speech:     deps.Speech,
		renderer:   deps.Renderer,
		combiner:   deps.Combiner,
		extractor:  deps.Extractor,
		archive:    deps.Archive,
		uploadRoot: deps.UploadRoot,
		cfg:        deps.Generation,
		log:        deps.Log,
	}
}

// NewAssignmentRequest is one lesson submission. OriginalText and FilePath
// are both optional, but at least one must yield content.
type NewAssignmentRequest struct {
	Title        string
	Subject      core.Subject
	TeacherID    string
	OriginalText string
	FilePath     string
}

// CreateAssignment persists a new assignment, runs the full generation
// pipeline, and moves it to ready. Only a total absence of source text or a
// persistence failure moves it to failed; degraded generator output never
// does.
func (s *Service) CreateAssignment(ctx context.Context, req NewAssignmentRequest) (*store.Assignment, error) {
	assignment := &store.Assignment{
		Title:           req.Title,
		Subject:         string(req.Subject),
		TeacherID:       req.TeacherID,
		OriginalContent: req.OriginalText,
		FilePath:        req.FilePath,
		Status:          string(core.StatusGenerating),
	}

	err := s.repo.Create(ctx, assignment)
	if err != nil {
		return nil, fmt.Errorf("failed to create assignment record: %w", err)
	}

	s.log.Info("Generating variants for assignment %s (%s)", assignment.ID, assignment.Subject)

	genErr := s.generateAllVariants(ctx, assignment)
	if genErr != nil {
		s.log.Error("Assignment %s generation failed: %v", assignment.ID, genErr)

		statusErr := s.repo.UpdateStatus(ctx, assignment.ID, core.StatusFailed, genErr.Error())
		if statusErr != nil {
			s.log.Error("Failed to mark assignment %s as failed: %v", assignment.ID, statusErr)
		}

		assignment.Status = string(core.StatusFailed)
		assignment.ErrorMessage = genErr.Error()

		return assignment, genErr
	}

	err = s.repo.UpdateStatus(ctx, assignment.ID, core.StatusReady, "")
	if err != nil {
		return assignment, fmt.Errorf("failed to mark assignment %s as ready: %w", assignment.ID, err)
	}

	assignment.Status = string(core.StatusReady)

	s.log.Info("Assignment %s is ready", assignment.ID)

	return assignment, nil
}

// RegenerateQuiz rebuilds the quiz variant with a new difficulty and
// replaces the persisted row.
func (s *Service) RegenerateQuiz(
	ctx context.Context,
	assignmentID, difficulty string,
) (*store.AssignmentVariant, error) {
	assignment, err := s.repo.Get(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	baseText, err := s.sourceText(assignment)
	if err != nil {
		return nil, err
	}

	dir, err := s.assignmentDir(assignment.ID)
	if err != nil {
		return nil, err
	}

	difficulty = normalizeDifficulty(difficulty)
	subject := core.Subject(assignment.Subject)

	quiz := s.generator.Quiz(ctx, subject, baseText, difficulty)

	quizPath := filepath.Join(dir, "quiz_"+difficulty+".json")

	err = writeJSON(quiz, quizPath)
	if err != nil {
		return nil, err
	}

	return s.persistVariant(ctx, assignment, core.VariantQuiz, quiz, map[string]string{
		"quiz_json": s.relPath(quizPath),
	})
}

func (s *Service) generateAllVariants(ctx context.Context, assignment *store.Assignment) error {
	baseText, err := s.sourceText(assignment)
	if err != nil {
		return err
	}

	dir, err := s.assignmentDir(assignment.ID)
	if err != nil {
		return err
	}

	subject := core.Subject(assignment.Subject)

	err = s.generateSimplified(ctx, assignment, subject, baseText)
	if err != nil {
		return err
	}

	err = s.generateAudio(ctx, assignment, subject, baseText, dir)
	if err != nil {
		return err
	}

	err = s.generateVisual(ctx, assignment, subject, baseText, dir)
	if err != nil {
		return err
	}

	return s.generateQuiz(ctx, assignment, subject, baseText, dir)
}

func (s *Service) generateSimplified(
	ctx context.Context,
	assignment *store.Assignment,
	subject core.Subject,
	baseText string,
) error {
	payload := s.generator.SimplifiedText(ctx, subject, baseText)

	_, err := s.persistVariant(ctx, assignment, core.VariantSimplified, payload, map[string]string{})

	return err
}

func (s *Service) generateAudio(
	ctx context.Context,
	assignment *store.Assignment,
	subject core.Subject,
	baseText, dir string,
) error {
	payload := s.generator.AudioScript(ctx, subject, baseText)

	segments := discussionSegments(payload)

	var result core.SpeechResult
	if len(segments) > 0 {
		result = s.speech.SynthesizePodcast(ctx, segments, filepath.Join(dir, podcastAudioName))
	} else {
		result = s.speech.Synthesize(ctx, scriptText(payload, baseText), "", filepath.Join(dir, narrationAudioName))
	}

	_, err := s.persistVariant(ctx, assignment, core.VariantAudio, payload, map[string]string{
		"audio_mp3": s.relPath(result.Path),
	})

	return err
}

func (s *Service) generateVisual(
	ctx context.Context,
	assignment *store.Assignment,
	subject core.Subject,
	baseText, dir string,
) error {
	artifacts := s.runVisualPipeline(ctx, subject, baseText, dir)

	assets := map[string]string{
		"video_mp4":    s.relPath(artifacts.VideoPath),
		"manim_script": s.relPath(artifacts.ScenePath),
	}
	if artifacts.NarrationPath != "" {
		assets["narration_audio"] = s.relPath(artifacts.NarrationPath)
	}

	_, err := s.persistVariant(ctx, assignment, core.VariantVisual, artifacts.Plan, assets)

	return err
}

func (s *Service) generateQuiz(
	ctx context.Context,
	assignment *store.Assignment,
	subject core.Subject,
	baseText, dir string,
) error {
	payload := s.generator.Quiz(ctx, subject, baseText, core.DifficultyMedium)

	quizPath := filepath.Join(dir, quizFileName)

	err := writeJSON(payload, quizPath)
	if err != nil {
		return err
	}

	_, err = s.persistVariant(ctx, assignment, core.VariantQuiz, payload, map[string]string{
		"quiz_json": s.relPath(quizPath),
	})

	return err
}

// sourceText merges pasted content with extracted file content and bounds
// the result. Extraction failures degrade to "no file content"; only a
// total absence of text is an error.
func (s *Service) sourceText(assignment *store.Assignment) (string, error) {
	var parts []string

	trimmed := strings.TrimSpace(assignment.OriginalContent)
	if trimmed != "" {
		parts = append(parts, trimmed)
	}

	if assignment.FilePath != "" {
		fileText, err := s.extractor.Extract(assignment.FilePath)
		if err != nil {
			s.log.Warn("Text extraction failed for %s: %v", assignment.FilePath, err)
		} else if strings.TrimSpace(fileText) != "" {
			parts = append(parts, strings.TrimSpace(fileText))
		}
	}

	if len(parts) == 0 {
		return "", core.ErrNoSourceText
	}

	baseText := strings.Join(parts, "\n\n")
	if len(baseText) > s.cfg.MaxSourceChars {
		s.log.Info("Truncating source text from %d to %d chars", len(baseText), s.cfg.MaxSourceChars)

		baseText = truncate(baseText, s.cfg.MaxSourceChars) + truncationMarker
	}

	return baseText, nil
}

func (s *Service) assignmentDir(assignmentID string) (string, error) {
	dir := filepath.Join(s.uploadRoot, assignmentID)

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return "", fmt.Errorf("failed to create assignment directory %s: %w", dir, err)
	}

	return dir, nil
}

// persistVariant stores the complete payload as the variant's content text
// and archives its assets best-effort. Persistence failures propagate: they
// are one of the two conditions allowed to fail the assignment.
func (s *Service) persistVariant(
	ctx context.Context,
	assignment *store.Assignment,
	variantType core.VariantType,
	payload map[string]any,
	assets map[string]string,
) (*store.AssignmentVariant, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode %s payload: %w", variantType, err)
	}

	variant := &store.AssignmentVariant{
		AssignmentID: assignment.ID,
		VariantType:  string(variantType),
		Subject:      assignment.Subject,
		ContentText:  string(content),
		Ready:        true,
	}

	err = variant.SetAssets(assets)
	if err != nil {
		return nil, err
	}

	err = s.repo.UpsertVariant(ctx, variant)
	if err != nil {
		return nil, err
	}

	s.archiveAssets(ctx, assignment.ID, assets)

	s.log.Info("Persisted %s variant for assignment %s", variantType, assignment.ID)

	return variant, nil
}

// archiveAssets uploads variant assets to the object store when one is
// configured. Failures are logged and ignored: archiving never fails
// generation.
func (s *Service) archiveAssets(ctx context.Context, assignmentID string, assets map[string]string) {
	if s.archive == nil {
		return
	}

	for name, relPath := range assets {
		fullPath := filepath.Join(s.uploadRoot, relPath)

		data, err := os.ReadFile(fullPath)
		if err != nil {
			s.log.Warn("Skipping archive of asset %s: %v", name, err)

			continue
		}

		key := assignmentID + "/" + filepath.Base(relPath)

		err = s.archive.Upload(ctx, key, data)
		if err != nil {
			s.log.Warn("Failed to archive asset %s as %s: %v", name, key, err)
		}
	}
}

// relPath converts an absolute asset path to one relative to the upload
// root, which is what gets stored and later served as a URL.
func (s *Service) relPath(path string) string {
	rel, err := filepath.Rel(s.uploadRoot, path)
	if err != nil {
		return path
	}

	return rel
}

// discussionSegments pulls typed speaker turns out of an audio payload.
func discussionSegments(payload map[string]any) []speech.Segment {
	raw, ok := payload["discussion"].([]any)
	if !ok {
		return nil
	}

	var segments []speech.Segment

	for _, entry := range raw {
		turn, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		speaker, _ := turn["speaker"].(string)
		text, _ := turn["text"].(string)

		if strings.TrimSpace(text) == "" {
			continue
		}

		segments = append(segments, speech.Segment{Speaker: speaker, Text: text})
	}

	return segments
}

// scriptText picks the narration for single-voice synthesis when the
// payload carries no discussion.
func scriptText(payload map[string]any, baseText string) string {
	const fallbackChars = 500

	script, ok := payload["script"].(string)
	if ok && strings.TrimSpace(script) != "" {
		return script
	}

	summary, ok := payload["summary"].(string)
	if ok && strings.TrimSpace(summary) != "" {
		return summary
	}

	return truncate(baseText, fallbackChars)
}

func normalizeDifficulty(difficulty string) string {
	switch difficulty {
	case core.DifficultyEasy, core.DifficultyMedium, core.DifficultyHard:
		return difficulty
	default:
		return core.DifficultyMedium
	}
}

func writeJSON(data map[string]any, path string) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	err = os.WriteFile(path, encoded, 0o600)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	return nil
}
