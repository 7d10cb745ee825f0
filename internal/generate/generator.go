// Package generate contains the variant generators and the orchestrator
// that turn one assignment's source text into four persisted learning
// artifacts.
package generate

import (
	"context"

	"github.com/book-expert/lesson-service/internal/config"
	"github.com/book-expert/lesson-service/internal/core"
	"github.com/book-expert/lesson-service/internal/repair"
	"github.com/book-expert/logger"
)

// minDescriptionChars guards against a visual plan whose description is
// near-empty even though code generation succeeded.
const minDescriptionChars = 20

// Generator produces structured variant payloads. Every method returns a
// complete, schema-valid payload: generative failures degrade to the
// stage's fallback record, never to an error.
type Generator struct {
	textGen core.TextGenerator
	parser  *repair.Parser
	cfg     config.GenerationConfig
	log     *logger.Logger
}

// NewGenerator creates a Generator over a text generation adapter.
func NewGenerator(
	textGen core.TextGenerator,
	parser *repair.Parser,
	cfg config.GenerationConfig,
	log *logger.Logger,
) *Generator {
	return &Generator{
		textGen: textGen,
		parser:  parser,
		cfg:     cfg,
		log:     log,
	}
}

// generate runs one model call and absorbs its failure into an empty
// response, which the repair parser resolves to the fallback.
func (g *Generator) generate(ctx context.Context, prompt string, opts core.GenerationOptions) string {
	text, err := g.textGen.Generate(ctx, prompt, opts)
	if err != nil {
		g.log.Warn("Generative call failed, falling back: %v", err)

		return ""
	}

	return text
}

// SimplifiedText produces the simplified variant payload: the lesson
// rewritten for a grade 5 reader plus highlight points. One attempt; the
// fallback is the raw source text with no highlights.
func (g *Generator) SimplifiedText(ctx context.Context, subject core.Subject, text string) map[string]any {
	prompt := simplifiedPrompt(subject, text, g.cfg.MaxPromptChars)
	raw := g.generate(ctx, prompt, simplifiedOptions)

	return g.parser.Parse(raw, map[string]any{
		"text":       text,
		"highlights": []any{},
	})
}

// AudioScript produces the podcast discussion payload: Host/Expert dialogue
// segments plus a summary. One attempt; the fallback narrates the first
// part of the source text in a single Host segment.
func (g *Generator) AudioScript(ctx context.Context, subject core.Subject, text string) map[string]any {
	const fallbackScriptChars = 500

	prompt := audioScriptPrompt(subject, text, g.cfg.MaxPromptChars)
	raw := g.generate(ctx, prompt, audioOptions)

	return g.parser.Parse(raw, map[string]any{
		"discussion": []any{
			map[string]any{"speaker": "Host", "text": truncate(text, fallbackScriptChars)},
		},
		"summary": "Educational podcast discussion",
	})
}

// VisualPlan produces a render plan: a description, narration segments, and
// scene code. A too-short description is replaced with a templated one, and
// the fallback plan renders a deterministic title scene.
func (g *Generator) VisualPlan(ctx context.Context, subject core.Subject, text string) map[string]any {
	const fallbackNarrationChars = 200

	prompt := visualPlanPrompt(subject, text, g.cfg.MaxPromptChars)
	raw := g.generate(ctx, prompt, visualOptions)

	plan := g.parser.Parse(raw, map[string]any{
		"description": templatedDescription(subject),
		"narration": []any{
			map[string]any{"text": truncate(text, fallbackNarrationChars), "duration": 10},
		},
		"manim_code": defaultSceneCode(text),
	})

	description, _ := plan["description"].(string)
	if len(description) < minDescriptionChars {
		plan["description"] = templatedDescription(subject)
	}

	return plan
}

// Quiz produces the subject-shaped quiz payload. Attempts are bounded; a
// response is accepted only when it carries at least one question (or
// timeline event). Exhausting the budget yields the empty-question fallback
// rather than an error, so a bad model day never blocks the assignment.
func (g *Generator) Quiz(
	ctx context.Context,
	subject core.Subject,
	text, difficulty string,
) map[string]any {
	prompt := quizPrompt(subject, difficulty, text, g.cfg.QuizPromptChars)
	fallback := map[string]any{
		"summary":   string(subject) + " practice exercise",
		"quiz_type": string(core.QuizTypeFor(subject)),
		"questions": []any{},
	}

	var result map[string]any

	for attempt := 1; attempt <= g.cfg.QuizAttempts; attempt++ {
		raw := g.generate(ctx, prompt, quizOptions)
		result = g.parser.Parse(raw, fallback)

		count := questionCount(result)
		if count > 0 {
			g.log.Info("Quiz generated: %s format with %d items", result["quiz_type"], count)

			return result
		}

		g.log.Warn("Quiz attempt %d/%d produced 0 questions", attempt, g.cfg.QuizAttempts)
	}

	g.log.Warn("Quiz generation exhausted attempts, using empty fallback")

	return result
}

// questionCount measures quiz content: the questions array, or for the
// timeline format, the timeline events.
func questionCount(payload map[string]any) int {
	questions, ok := payload["questions"].([]any)
	if ok && len(questions) > 0 {
		return len(questions)
	}

	events, ok := payload["timeline_events"].([]any)
	if ok {
		return len(events)
	}

	return 0
}
