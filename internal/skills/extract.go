package skills

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/types"
)

const (
	// DefaultFuzzyThreshold is the minimum similarity for a fuzzy surface-form match
	DefaultFuzzyThreshold = 0.85
	// DefaultMaxNgram is the longest token window compared against the taxonomy
	DefaultMaxNgram = 3
	// minFuzzyLength keeps short tokens ("go", "ml") exact-match only
	minFuzzyLength = 4
)

// commonWordForms are single-token surface forms that are also everyday English words.
// They count as skills only next to another skill or a technical context word.
var commonWordForms = map[string]bool{
	"go":    true,
	"swift": true,
	"rust":  true,
}

// contextWords mark a neighboring common-word form as a technology
var contextWords = map[string]bool{
	"language": true, "lang": true, "programming": true, "code": true,
	"developer": true, "developers": true, "engineer": true, "engineers": true,
	"engineering": true, "service": true, "services": true, "backend": true,
	"stack": true, "toolchain": true,
}

// Extractor identifies canonical skills in text using a taxonomy.
// It holds no mutable state and is safe for concurrent use.
type Extractor struct {
	taxonomy  *Taxonomy
	threshold float64
	maxNgram  int
	forms     []string // all surface forms, sorted
}

// NewExtractor creates an extractor over taxonomy with the given fuzzy threshold and n-gram bound
func NewExtractor(taxonomy *Taxonomy, fuzzyThreshold float64, maxNgram int) (*Extractor, error) {
	if taxonomy == nil {
		return nil, types.NewError(types.KindConfiguration, "taxonomy is required")
	}
	if fuzzyThreshold <= 0 || fuzzyThreshold > 1 {
		return nil, types.NewError(types.KindConfiguration, "fuzzy threshold must be in (0, 1], got %v", fuzzyThreshold)
	}
	if maxNgram < 1 {
		return nil, types.NewError(types.KindConfiguration, "max n-gram must be at least 1, got %d", maxNgram)
	}
	if taxonomy.MaxTokens() > maxNgram {
		return nil, types.NewError(types.KindConfiguration,
			"taxonomy has surface forms of %d tokens but max n-gram is %d", taxonomy.MaxTokens(), maxNgram)
	}

	forms := make([]string, 0, len(taxonomy.index))
	for form := range taxonomy.index {
		forms = append(forms, form)
	}
	sort.Strings(forms)

	return &Extractor{
		taxonomy:  taxonomy,
		threshold: fuzzyThreshold,
		maxNgram:  maxNgram,
		forms:     forms,
	}, nil
}

// Taxonomy returns the taxonomy backing the extractor
func (e *Extractor) Taxonomy() *Taxonomy {
	return e.taxonomy
}

// Extract returns the sorted set of canonical skills mentioned in text.
// Text is normalized first, so raw or already-normalized input both work.
func (e *Extractor) Extract(text string) []string {
	tokens := parsing.Tokenize(parsing.Normalize(text))
	found := make(map[string]bool)
	covered := make([]bool, len(tokens))
	var pending []int

	for i := range tokens {
		for size := 1; size <= e.maxNgram && i+size <= len(tokens); size++ {
			gram := strings.Join(tokens[i:i+size], " ")
			if size == 1 && commonWordForms[gram] {
				if _, ok := e.taxonomy.index[gram]; ok {
					pending = append(pending, i)
				}
				continue
			}
			if canonical, ok := e.Match(gram); ok {
				found[canonical] = true
				for k := i; k < i+size; k++ {
					covered[k] = true
				}
			}
		}
	}

	for _, i := range pending {
		if e.inSkillContext(tokens, covered, i) {
			found[e.taxonomy.index[tokens[i]]] = true
		}
	}

	skills := make([]string, 0, len(found))
	for s := range found {
		skills = append(skills, s)
	}
	sort.Strings(skills)
	return skills
}

// inSkillContext reports whether the nearest non-stopword on either side of tokens[i]
// is part of another skill mention or a technical context word
func (e *Extractor) inSkillContext(tokens []string, covered []bool, i int) bool {
	for _, step := range []int{-1, 1} {
		for k := i + step; k >= 0 && k < len(tokens); k += step {
			if parsing.IsStopword(tokens[k]) {
				continue
			}
			if covered[k] || contextWords[tokens[k]] {
				return true
			}
			break
		}
	}
	return false
}

// Match resolves a single normalized term: exact surface-form lookup first, then fuzzy.
func (e *Extractor) Match(term string) (string, bool) {
	if canonical, ok := e.taxonomy.index[term]; ok {
		return canonical, true
	}
	if utf8.RuneCountInString(term) < minFuzzyLength || parsing.IsStopword(term) {
		return "", false
	}

	bestCanonical := ""
	bestScore := 0.0
	first, _ := utf8.DecodeRuneInString(term)
	for _, form := range e.forms {
		if utf8.RuneCountInString(form) < minFuzzyLength || commonWordForms[form] {
			continue
		}
		// Misspellings keep the first letter; "readership" is not "leadership"
		if r, _ := utf8.DecodeRuneInString(form); r != first {
			continue
		}
		score, ok := e.similarity(term, form)
		if !ok {
			continue
		}
		canonical := e.taxonomy.index[form]
		if score > bestScore || (score == bestScore && canonical < bestCanonical) {
			bestScore = score
			bestCanonical = canonical
		}
	}
	return bestCanonical, bestCanonical != ""
}

// similarity returns 1 - editDistance/maxLen when it reaches the threshold
func (e *Extractor) similarity(a, b string) (float64, bool) {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	// Length difference is a lower bound on edit distance
	if 1-float64(diff)/float64(maxLen) < e.threshold {
		return 0, false
	}
	score := 1 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
	return score, score >= e.threshold
}
