package core

// Subject identifies the academic subject of an assignment. Unknown values
// are accepted and treated as SubjectStandard for quiz shaping.
type Subject string

// Recognized subjects.
const (
	SubjectMath      Subject = "math"
	SubjectScience   Subject = "science"
	SubjectLanguage  Subject = "language"
	SubjectHistory   Subject = "history"
	SubjectGeography Subject = "geography"
	SubjectStandard  Subject = "standard"
)

// VariantType identifies one of the four generated lesson artifacts.
type VariantType string

// Variant types, one row per type per assignment.
const (
	VariantSimplified VariantType = "simplified"
	VariantAudio      VariantType = "audio"
	VariantVisual     VariantType = "visual"
	VariantQuiz       VariantType = "quiz"
)

// AssignmentStatus tracks the lifecycle of an assignment. Ready and failed
// are terminal.
type AssignmentStatus string

// Assignment lifecycle states.
const (
	StatusPending    AssignmentStatus = "pending"
	StatusGenerating AssignmentStatus = "generating"
	StatusReady      AssignmentStatus = "ready"
	StatusFailed     AssignmentStatus = "failed"
)

// QuizType identifies the subject-specific quiz schema carried in every quiz
// payload under the "quiz_type" key.
type QuizType string

// Quiz schema variants.
const (
	QuizSocratic           QuizType = "socratic"
	QuizPractice           QuizType = "practice"
	QuizPracticeRepeatable QuizType = "practice_repeatable"
	QuizTimelineFill       QuizType = "timeline_fill"
	QuizStandard           QuizType = "standard"
)

// QuizTypeFor maps a subject to the quiz schema its assignments receive.
func QuizTypeFor(subject Subject) QuizType {
	switch subject {
	case SubjectLanguage:
		return QuizSocratic
	case SubjectMath:
		return QuizPractice
	case SubjectScience, SubjectGeography:
		return QuizPracticeRepeatable
	case SubjectHistory:
		return QuizTimelineFill
	case SubjectStandard:
		return QuizStandard
	default:
		return QuizStandard
	}
}

// Difficulty levels accepted by quiz regeneration.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)
