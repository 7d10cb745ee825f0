package generate_test

import (
	"testing"

	"github.com/book-expert/lesson-service/internal/generate"
	"github.com/stretchr/testify/assert"
)

func TestCheckAnswer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		expected string
		given    string
		want     bool
	}{
		{name: "exact match", expected: "Napoleon", given: "Napoleon", want: true},
		{name: "case insensitive", expected: "Napoleon", given: "napoleon", want: true},
		{name: "punctuation stripped", expected: "water cycle", given: "The water cycle.", want: true},
		{name: "whitespace collapsed", expected: "the water cycle", given: "  The   Water Cycle ", want: true},
		{name: "numeric equivalence", expected: "0.5", given: "0.50", want: true},
		{name: "numeric mismatch", expected: "0.5", given: "0.6", want: false},
		{name: "answer embedded in sentence", expected: "1789", given: "The answer is 1789", want: true},
		{name: "partial word does not match", expected: "1789", given: "17890", want: false},
		{name: "wrong answer", expected: "mitochondria", given: "chloroplast", want: false},
		{name: "empty given", expected: "anything", given: "", want: false},
		{name: "empty expected", expected: "", given: "anything", want: false},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := generate.CheckAnswer(testCase.expected, testCase.given)

			assert.Equal(t, testCase.want, got)
		})
	}
}
