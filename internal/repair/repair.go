// Package repair coerces imperfect generative model output into usable
// structured data. Models asked for JSON routinely wrap it in markdown
// fences, substitute typographic punctuation, leave trailing commas, or
// annotate it with comments; this package strips all of that before parsing
// and merges the result over a caller-supplied fallback so downstream code
// always receives a complete payload.
package repair

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/book-expert/logger"
)

const contextWindow = 50

var (
	fencePattern         = regexp.MustCompile("(?is)```(?:json)?\\s*(.*?)\\s*```")
	trailingCommaPattern = regexp.MustCompile(`,(\s*[}\]])`)
)

// smartPunctuation maps typographic characters models emit back to the ASCII
// forms the JSON grammar accepts.
var smartPunctuation = strings.NewReplacer(
	"‘", "'",
	"’", "'",
	"“", `"`,
	"”", `"`,
	"–", "-",
	"—", "-",
	"…", "...",
)

// Parser repairs and parses structured model responses. It never returns an
// error: parse failures are logged and the fallback is returned unchanged.
type Parser struct {
	log *logger.Logger
}

// New creates a repair parser that reports unrecoverable inputs to log.
func New(log *logger.Logger) *Parser {
	return &Parser{log: log}
}

// Parse extracts and repairs a JSON object from raw model output and merges
// the parsed keys over fallback (parsed keys win). The fallback is never
// mutated. On any failure a copy of the fallback is returned; the result is
// never nil. Applying Parse to its own serialized output is a no-op.
func (p *Parser) Parse(raw string, fallback map[string]any) map[string]any {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return cloneMap(fallback)
	}

	candidate = extractFenced(candidate)
	candidate = sliceToBraces(candidate)
	candidate = smartPunctuation.Replace(candidate)
	candidate = stripComments(candidate)
	candidate = trailingCommaPattern.ReplaceAllString(candidate, "$1")

	var parsed map[string]any

	err := json.Unmarshal([]byte(candidate), &parsed)
	if err != nil {
		p.logParseFailure(candidate, err)

		return cloneMap(fallback)
	}

	merged := cloneMap(fallback)
	for key, value := range parsed {
		merged[key] = value
	}

	return merged
}

// extractFenced returns the contents of the first markdown code fence, if
// the text contains one.
func extractFenced(text string) string {
	match := fencePattern.FindStringSubmatch(text)
	if match == nil {
		return text
	}

	return match[1]
}

// sliceToBraces trims leading and trailing prose around the outermost object
// when the text does not already start with an opening brace.
func sliceToBraces(text string) string {
	if strings.HasPrefix(text, "{") {
		return text
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")

	if start == -1 || end == -1 || end < start {
		return text
	}

	return text[start : end+1]
}

// stripComments removes // line comments and /* */ block comments wherever
// they appear outside string literals. A comment marker inside a string
// (a URL, say) must survive.
func stripComments(text string) string {
	var builder strings.Builder

	inString := false
	escaped := false

	for i := 0; i < len(text); i++ {
		char := text[i]

		if inString {
			builder.WriteByte(char)

			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}

			continue
		}

		switch {
		case char == '"':
			inString = true

			builder.WriteByte(char)
		case char == '/' && i+1 < len(text) && text[i+1] == '/':
			for i < len(text) && text[i] != '\n' {
				i++
			}

			if i < len(text) {
				builder.WriteByte('\n')
			}
		case char == '/' && i+1 < len(text) && text[i+1] == '*':
			i += 2
			for i+1 < len(text) && !(text[i] == '*' && text[i+1] == '/') {
				i++
			}

			i++
		default:
			builder.WriteByte(char)
		}
	}

	return builder.String()
}

// logParseFailure reports where parsing broke down, with a short window of
// the offending text for diagnosis.
func (p *Parser) logParseFailure(candidate string, err error) {
	offset := parseOffset(err)
	line, column := lineAndColumn(candidate, offset)

	windowStart := offset - contextWindow
	if windowStart < 0 {
		windowStart = 0
	}

	windowEnd := offset + contextWindow
	if windowEnd > len(candidate) {
		windowEnd = len(candidate)
	}

	p.log.Warn(
		"Structured response repair failed at line %d, column %d: %v; context: %q",
		line, column, err, candidate[windowStart:windowEnd],
	)
}

// parseOffset pulls the byte offset out of a json syntax or type error.
func parseOffset(err error) int {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return int(syntaxErr.Offset)
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return int(typeErr.Offset)
	}

	return 0
}

func lineAndColumn(text string, offset int) (int, int) {
	if offset > len(text) {
		offset = len(text)
	}

	prefix := text[:offset]
	line := strings.Count(prefix, "\n") + 1

	lastNewline := strings.LastIndex(prefix, "\n")
	column := offset - lastNewline

	return line, column
}

func cloneMap(src map[string]any) map[string]any {
	cloned := make(map[string]any, len(src))
	for key, value := range src {
		cloned[key] = value
	}

	return cloned
}
