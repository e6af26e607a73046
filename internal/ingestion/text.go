// Package ingestion turns already-extracted resume and job text into stored records:
// cleaned content, normalized text, skills, experience, contact fields and embeddings.
package ingestion

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

var (
	innerSpace = regexp.MustCompile(`[ \t\f\v]+`)
	blankRuns  = regexp.MustCompile(`\n{3,}`)
)

// CleanContent normalizes line endings, collapses runs of spaces inside lines and
// keeps at most one blank line between paragraphs. Line structure is preserved.
func CleanContent(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(innerSpace.ReplaceAllString(line, " "))
	}

	cleaned := blankRuns.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(cleaned)
}

// FirstLine returns the first non-empty line of cleaned content
func FirstLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}

// ReadText reads a plain-text file that holds already-extracted document text
func ReadText(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("file not found: %w", err)
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(content), nil
}
