// Package extract pulls plain text out of uploaded lesson files.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrEmptyDocument indicates the file was read successfully but contained no
// extractable text.
var ErrEmptyDocument = errors.New("document contains no extractable text")

// FileExtractor extracts text from lesson uploads. Plain-text formats are
// read directly; PDF pages are flattened to their text content. Unknown
// extensions are treated as plain text.
type FileExtractor struct{}

// New creates a FileExtractor.
func New() *FileExtractor {
	return &FileExtractor{}
}

// Extract returns the plain-text content of the file at path. A missing file
// or an unreadable document returns an empty string and an error; callers
// treat that as "no file content" rather than a fatal condition.
func (e *FileExtractor) Extract(path string) (string, error) {
	_, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to stat upload %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return extractPDF(path)
	default:
		return extractPlain(path)
	}
}

func extractPlain(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read upload %s: %w", path, err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	return text, nil
}

func extractPDF(path string) (string, error) {
	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	plainText, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract text from pdf %s: %w", path, err)
	}

	var buffer bytes.Buffer

	_, err = buffer.ReadFrom(plainText)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted pdf text from %s: %w", path, err)
	}

	text := strings.TrimSpace(buffer.String())
	if text == "" {
		return "", fmt.Errorf("%w: %s", ErrEmptyDocument, path)
	}

	return text, nil
}
