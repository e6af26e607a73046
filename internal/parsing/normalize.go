// Package parsing provides text normalization and lightweight field extraction for resumes and job postings.
package parsing

import (
	"strings"
	"unicode"
)

// stopwords is a small English stopword list used when preparing text for embeddings
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "been": true, "but": true, "by": true, "for": true, "from": true,
	"has": true, "have": true, "he": true, "her": true, "his": true, "i": true,
	"in": true, "into": true, "is": true, "it": true, "its": true, "me": true,
	"my": true, "of": true, "on": true, "or": true, "our": true, "she": true,
	"that": true, "the": true, "their": true, "them": true, "they": true,
	"this": true, "to": true, "was": true, "we": true, "were": true, "will": true,
	"with": true, "you": true, "your": true,
}

// Normalize lowercases text, strips punctuation and collapses whitespace.
// Hyphens between two word characters are kept ("event-driven"), as are
// '+' and '#' directly following a word character ("c++", "c#").
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	runes := []rune(strings.ToLower(text))
	var sb strings.Builder
	sb.Grow(len(runes))

	pendingSpace := false
	emit := func(r rune) {
		if pendingSpace && sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		pendingSpace = false
		sb.WriteRune(r)
	}

	for i, r := range runes {
		switch {
		case isWordRune(r):
			emit(r)
		case r == '-' && i > 0 && i < len(runes)-1 && isWordRune(runes[i-1]) && isWordRune(runes[i+1]):
			emit(r)
		case (r == '+' || r == '#') && i > 0 && (isWordRune(runes[i-1]) || runes[i-1] == '+'):
			emit(r)
		default:
			pendingSpace = true
		}
	}

	return sb.String()
}

// NormalizeSkillName normalizes a skill name or synonym so it compares equal to normalized text
func NormalizeSkillName(skillName string) string {
	return Normalize(strings.TrimSpace(skillName))
}

// Tokenize splits normalized text into tokens
func Tokenize(normalized string) []string {
	return strings.Fields(normalized)
}

// RemoveStopwords drops common English stopwords from tokens
func RemoveStopwords(tokens []string) []string {
	filtered := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if stopwords[tok] {
			continue
		}
		filtered = append(filtered, tok)
	}
	return filtered
}

// IsStopword reports whether token is in the stopword list
func IsStopword(token string) bool {
	return stopwords[token]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
