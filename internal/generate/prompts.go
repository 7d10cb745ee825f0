package generate

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/book-expert/lesson-service/internal/core"
)

// Per-variant model settings. Quiz generation runs colder than the rest so
// the structured output stays parseable; the audio script runs warmer to
// keep the dialogue conversational.
var (
	simplifiedOptions = core.GenerationOptions{Temperature: 0.5, MaxOutputTokens: 2048}
	audioOptions      = core.GenerationOptions{Temperature: 0.8, MaxOutputTokens: 8192}
	visualOptions     = core.GenerationOptions{Temperature: 0.7, MaxOutputTokens: 8192}
	quizOptions       = core.GenerationOptions{Temperature: 0.3, MaxOutputTokens: 8192}
)

const jsonOnlyPreamble = `CRITICAL INSTRUCTIONS:
1. Return ONLY valid JSON - no markdown, no code blocks, no explanations
2. Do NOT wrap the JSON in fence markers
3. Do NOT include trailing commas before closing braces or brackets
4. Start your response directly with { and end with }`

func simplifiedPrompt(subject core.Subject, text string, maxChars int) string {
	return fmt.Sprintf(
		"Simplify the following %s lesson for a grade 5 reader. "+
			"Output JSON with keys: text, highlights (array of key points). "+
			"Text should be concise and clear.\n\nLESSON:\n%s",
		subject, truncate(text, maxChars),
	)
}

func audioScriptPrompt(_ core.Subject, text string, maxChars int) string {
	return jsonOnlyPreamble + `

Create an educational podcast discussion between a Host and an Expert about the following lesson. The discussion should have 6-10 dialogue exchanges that help students understand the material. Make it engaging and conversational.

Use this EXACT format:
{
  "summary": "Brief description of the podcast",
  "discussion": [
    {"speaker": "Host", "text": "Welcome to our lesson on..."},
    {"speaker": "Expert", "text": "Thanks! Let me explain..."}
  ]
}

LESSON:
` + truncate(text, maxChars) + `

Each speaker should have 2-4 sentences per turn. Host asks questions and summarizes. Expert explains with examples.

Return ONLY the JSON object.`
}

func visualPlanPrompt(subject core.Subject, text string, maxChars int) string {
	return fmt.Sprintf(`%s

Create an educational animated video about: %s
Content: %s

%s

ANIMATION REQUIREMENTS:
- Use: Write(), Create(), FadeIn(), FadeOut(), Transform()
- Duration: 30-45 seconds total (use self.wait() to control timing)
- Multiple visual elements (not just text)
- Smooth transitions between scenes

Required JSON (NO trailing commas):
{
  "description": "Brief description of the video",
  "narration": [
    {"text": "Intro explanation", "duration": 8},
    {"text": "Main concept with details", "duration": 10},
    {"text": "Summary and conclusion", "duration": 8}
  ],
  "manim_code": "from manim import *\n\nclass Lesson(Scene):\n    def construct(self):\n        ..."
}

REMEMBER:
- Use self.wait(2-4) between animations for pacing
- Escape single quotes inside strings
- Return ONLY the JSON object`,
		jsonOnlyPreamble, subject, truncate(text, maxChars), visualSubjectInstructions(subject))
}

func visualSubjectInstructions(subject core.Subject) string {
	switch subject {
	case core.SubjectMath:
		return `MATH-SPECIFIC REQUIREMENTS:
- Use Axes() to create coordinate systems
- Use axes.plot(lambda x: ...) to graph actual functions
- Show multiple graphs with different colors
- Use Transform() to morph one graph into another
- Include axis labels with get_axis_labels()`
	case core.SubjectLanguage:
		return `LANGUAGE-SPECIFIC REQUIREMENTS:
- Use Text() to display vocabulary, sentences, and translations
- Show verb conjugations using tables or lists
- Use Transform() to show how sentences change (e.g., tense, word order)
- Use different colors to highlight parts of speech`
	case core.SubjectScience, core.SubjectHistory, core.SubjectGeography, core.SubjectStandard:
		fallthrough
	default:
		return `GENERAL REQUIREMENTS:
- Use Text() for all text - NO MathTex, NO Tex
- Include 3-5 text elements with animations
- Add visual elements: Circle(), Square(), Rectangle() if relevant
- Use colors: RED, BLUE, GREEN, YELLOW
- Position: .to_edge(UP), .shift(DOWN*2)`
	}
}

func quizPrompt(subject core.Subject, difficulty, text string, maxChars int) string {
	return quizInstruction(subject, difficulty) + "\n\nLESSON CONTENT:\n" + truncate(text, maxChars)
}

func difficultyInstruction(difficulty string) string {
	switch difficulty {
	case core.DifficultyEasy:
		return "Focus on basic concepts and straightforward questions. Make problems simple and clear."
	case core.DifficultyHard:
		return "Include complex scenarios and multi-step problems that require deeper thinking."
	case core.DifficultyMedium:
		fallthrough
	default:
		return "Include a mix of straightforward and moderately challenging questions."
	}
}

func quizInstruction(subject core.Subject, difficulty string) string {
	diff := difficultyInstruction(difficulty)

	switch core.QuizTypeFor(subject) {
	case core.QuizSocratic:
		return jsonOnlyPreamble + "\n\n" + diff + `

Create 5-7 Socratic questions to guide student learning about the language concepts. Include guidance hints and follow-up prompts.

Use this EXACT format (notice: NO trailing commas):
{
  "summary": "Guided questions to help you learn",
  "quiz_type": "socratic",
  "questions": [
    {
      "question": "What do you notice about...",
      "guidance": "Think about how...",
      "follow_up": "Now consider..."
    }
  ]
}`
	case core.QuizPractice:
		return jsonOnlyPreamble + "\n\n" + diff + `

Create 8-10 practice math problems as a JSON object. Mathematical symbols: use plain text (x^2, "approximately", "degrees"). Each question MUST be complete and self-contained.

Required JSON structure:
{
  "summary": "Brief description of quiz",
  "quiz_type": "practice",
  "questions": [
    {
      "question": "Problem statement with all necessary info",
      "answer": "Complete answer with units",
      "difficulty": "easy" | "medium" | "hard",
      "solution": "Step-by-step explanation",
      "common_mistakes": ["Mistake 1", "Mistake 2"]
    }
  ]
}`
	case core.QuizPracticeRepeatable:
		return jsonOnlyPreamble + "\n\n" + diff + `

Create 8-10 practice questions that can be repeated for mastery. Include detailed explanations, hints, and real-world applications.

Use this EXACT format (notice: NO trailing commas):
{
  "summary": "Practice questions to build understanding",
  "quiz_type": "practice_repeatable",
  "questions": [
    {
      "question": "What is photosynthesis?",
      "answer": "The process plants use to convert light energy into chemical energy",
      "hint": "Think about what plants need to grow",
      "explanation": "Plants use chlorophyll to capture sunlight and convert CO2 and water into glucose and oxygen",
      "real_world_example": "This is how plants produce oxygen for us to breathe"
    }
  ]
}`
	case core.QuizTimelineFill:
		return jsonOnlyPreamble + "\n\n" + diff + `

Create a timeline and famous names fill-in-the-blank exercise for history. Include dates, events, and key historical figures. Use ___ for blanks.

Use this EXACT format (notice: NO trailing commas):
{
  "summary": "Timeline and key figures to memorize",
  "quiz_type": "timeline_fill",
  "timeline_events": [
    {
      "year": "1776",
      "event_description": "The ___ of Independence was signed",
      "answer": "Declaration"
    }
  ],
  "famous_people": [
    {
      "description": "___ led the civil rights movement",
      "answer": "Martin Luther King Jr.",
      "significance": "Fought for racial equality through nonviolent protest"
    }
  ]
}`
	case core.QuizStandard:
		fallthrough
	default:
		return fmt.Sprintf(
			"Create a 5-question quiz for %s. Output JSON with keys: summary, "+
				`quiz_type: "standard", questions (array with question, options, `+
				"correct_answer index, explanation).\n\n%s",
			subject, diff,
		)
	}
}

// defaultSceneCode builds a scene that renders the lesson title. It always
// declares the default scene identifier, so a plan with no usable generated
// code still renders deterministically.
func defaultSceneCode(title string) string {
	return "from manim import *\n\n" +
		"class TitleScene(Scene):\n" +
		"    def construct(self):\n" +
		fmt.Sprintf("        title = Text(%q)\n", sanitizeTitle(title)) +
		"        self.play(Write(title))\n" +
		"        self.wait(1)\n"
}

// sanitizeTitle makes arbitrary lesson text safe to embed in a scene source
// string literal.
func sanitizeTitle(title string) string {
	const maxTitleChars = 60

	safe := truncate(strings.TrimSpace(title), maxTitleChars)
	if safe == "" {
		safe = "Lesson"
	}

	var builder strings.Builder

	for _, r := range safe {
		if unicode.IsPrint(r) && r != '"' && r != '\\' {
			builder.WriteRune(r)
		} else {
			builder.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(builder.String()), " ")
}

func templatedDescription(subject core.Subject) string {
	return fmt.Sprintf("Visual animation for %s lesson based on the provided content.", subject)
}

// truncate cuts text at a byte bound without splitting a UTF-8 sequence.
func truncate(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}

	cut := maxChars
	for cut > 0 && !utf8RuneStart(text[cut]) {
		cut--
	}

	return text[:cut]
}

func utf8RuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
