package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/book-expert/lesson-service/internal/core"
)

// numericTolerance absorbs formatting differences like "0.5" vs "0.50" and
// float rounding in model-produced answers.
const numericTolerance = 1e-6

var (
	// ErrQuestionOutOfRange indicates the question index does not exist in
	// the stored quiz.
	ErrQuestionOutOfRange = errors.New("question index out of range")
	// ErrAnswerUnavailable indicates the stored question carries no
	// gradable answer, e.g. a Socratic prompt.
	ErrAnswerUnavailable = errors.New("question has no expected answer")
)

// CheckQuizAnswer grades a student answer against the stored quiz variant of
// an assignment. questionIndex addresses the quiz's question list (or its
// timeline events for a timeline quiz).
func (s *Service) CheckQuizAnswer(
	ctx context.Context,
	assignmentID string,
	questionIndex int,
	answer string,
) (bool, error) {
	variant, err := s.repo.GetVariant(ctx, assignmentID, core.VariantQuiz)
	if err != nil {
		return false, err
	}

	var payload map[string]any

	err = json.Unmarshal([]byte(variant.ContentText), &payload)
	if err != nil {
		return false, fmt.Errorf("failed to decode quiz payload for assignment %s: %w", assignmentID, err)
	}

	items := quizItems(payload)
	if questionIndex < 0 || questionIndex >= len(items) {
		return false, fmt.Errorf("%w: question %d, quiz has %d", ErrQuestionOutOfRange, questionIndex, len(items))
	}

	expected, err := expectedAnswer(items[questionIndex])
	if err != nil {
		return false, err
	}

	return CheckAnswer(expected, answer), nil
}

// quizItems returns the gradable entries of a quiz payload: its questions,
// or the timeline events of a timeline quiz.
func quizItems(payload map[string]any) []map[string]any {
	raw, ok := payload["questions"].([]any)
	if !ok {
		raw, ok = payload["timeline_events"].([]any)
	}

	if !ok {
		return nil
	}

	items := make([]map[string]any, 0, len(raw))

	for _, entry := range raw {
		item, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		items = append(items, item)
	}

	return items
}

// expectedAnswer resolves the reference answer of one question. Practice and
// timeline quizzes carry it as "answer"; a standard quiz carries a
// "correct_answer" option index.
func expectedAnswer(question map[string]any) (string, error) {
	answer, ok := question["answer"].(string)
	if ok && strings.TrimSpace(answer) != "" {
		return answer, nil
	}

	switch correct := question["correct_answer"].(type) {
	case string:
		if strings.TrimSpace(correct) != "" {
			return correct, nil
		}
	case float64:
		options, ok := question["options"].([]any)

		index := int(correct)
		if ok && index >= 0 && index < len(options) {
			if option, ok := options[index].(string); ok {
				return option, nil
			}
		}
	}

	return "", ErrAnswerUnavailable
}

// CheckAnswer reports whether a student answer matches the expected answer
// from a quiz payload. The comparison is a heuristic, not an authority:
// numbers compare by value, everything else ignores case, punctuation, and
// spacing, and an answer that contains the full expected phrase counts.
// Callers presenting open-ended questions should treat a false result as
// "review", not "wrong".
func CheckAnswer(expected, given string) bool {
	expectedNum, expectedOk := parseNumber(expected)

	givenNum, givenOk := parseNumber(given)
	if expectedOk && givenOk {
		return math.Abs(expectedNum-givenNum) <= numericTolerance*math.Max(1, math.Abs(expectedNum))
	}

	expectedNorm := normalizeAnswer(expected)
	givenNorm := normalizeAnswer(given)

	if expectedNorm == "" || givenNorm == "" {
		return false
	}

	if expectedNorm == givenNorm {
		return true
	}

	// A longer free-text answer that contains the whole expected phrase
	// counts, e.g. "the answer is 1789" against "1789".
	return strings.Contains(" "+givenNorm+" ", " "+expectedNorm+" ")
}

// normalizeAnswer lowercases and replaces every run of non-alphanumeric
// characters with a single space.
func normalizeAnswer(text string) string {
	var builder strings.Builder

	lastSpace := true

	for _, r := range strings.ToLower(strings.TrimSpace(text)) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			builder.WriteRune(r)

			lastSpace = false

			continue
		}

		if !lastSpace {
			builder.WriteRune(' ')

			lastSpace = true
		}
	}

	return strings.TrimSpace(builder.String())
}

func parseNumber(text string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0, false
	}

	return value, true
}
