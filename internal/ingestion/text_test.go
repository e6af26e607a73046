package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanContent(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"crlf", "line one\r\nline two\rline three", "line one\nline two\nline three"},
		{"inner spaces", "Senior    Engineer\t\tat  Acme", "Senior Engineer at Acme"},
		{"blank runs", "a\n\n\n\n\nb", "a\n\nb"},
		{"trim", "  \n  hello  \n  ", "hello"},
		{"blank line with spaces", "a\n   \n   \nb", "a\n\nb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanContent(tt.input))
		})
	}
}

func TestFirstLine(t *testing.T) {
	assert.Equal(t, "Jane Doe", FirstLine("\n\n  Jane Doe  \nEngineer"))
	assert.Equal(t, "", FirstLine(""))
}

func TestReadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "resume.txt")
	require.NoError(t, os.WriteFile(path, []byte("Jane Doe\nGo developer"), 0644))

	content, err := ReadText(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nGo developer", content)

	_, err = ReadText(filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}
