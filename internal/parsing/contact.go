package parsing

import (
	"regexp"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
)

var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`[+(]?[1-9][0-9 .\-()]{8,}[0-9]`)
	linkedInPattern = regexp.MustCompile(`linkedin\.com/in/[\w-]+`)
	gitHubPattern   = regexp.MustCompile(`github\.com/[\w-]+`)
)

// ExtractContact pulls the first email, phone, LinkedIn and GitHub reference out of raw text.
// Fields that are not found stay empty.
func ExtractContact(text string) types.Contact {
	var c types.Contact
	if text == "" {
		return c
	}

	c.Email = emailPattern.FindString(text)
	c.Phone = strings.TrimSpace(phonePattern.FindString(text))

	lower := strings.ToLower(text)
	c.LinkedIn = linkedInPattern.FindString(lower)
	c.GitHub = gitHubPattern.FindString(lower)

	return c
}
