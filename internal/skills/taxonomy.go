// Package skills maps normalized text to canonical skill sets using a loaded taxonomy.
package skills

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/schemas"
	"github.com/jonathan/resume-screener/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed default_taxonomy.yaml
var defaultTaxonomyYAML []byte

// Taxonomy is an immutable mapping of canonical skill names to their surface forms.
// All names are stored normalized so lookups compare directly against normalized text.
type Taxonomy struct {
	synonyms  map[string][]string // canonical -> sorted surface forms (canonical included)
	index     map[string]string   // surface form -> canonical
	maxTokens int
}

// NewTaxonomy builds a taxonomy from canonical name -> synonyms.
// A surface form that resolves to two different canonical skills is rejected.
func NewTaxonomy(entries map[string][]string) (*Taxonomy, error) {
	if len(entries) == 0 {
		return nil, types.NewError(types.KindConfiguration, "taxonomy has no skills")
	}

	t := &Taxonomy{
		synonyms: make(map[string][]string, len(entries)),
		index:    make(map[string]string),
	}

	// Sorted iteration keeps error messages stable
	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		canonical := parsing.NormalizeSkillName(name)
		if canonical == "" {
			return nil, types.NewError(types.KindConfiguration, "taxonomy skill %q normalizes to an empty name", name)
		}
		if err := t.addForm(canonical, canonical); err != nil {
			return nil, err
		}
		for _, syn := range entries[name] {
			form := parsing.NormalizeSkillName(syn)
			if form == "" {
				return nil, types.NewError(types.KindConfiguration, "synonym %q of skill %q normalizes to an empty name", syn, name)
			}
			if err := t.addForm(canonical, form); err != nil {
				return nil, err
			}
		}
	}

	for canonical := range t.synonyms {
		sort.Strings(t.synonyms[canonical])
	}
	return t, nil
}

func (t *Taxonomy) addForm(canonical, form string) error {
	if existing, ok := t.index[form]; ok {
		if existing != canonical {
			return types.NewError(types.KindConfiguration,
				"surface form %q maps to both %q and %q", form, existing, canonical)
		}
		return nil
	}
	t.index[form] = canonical
	t.synonyms[canonical] = append(t.synonyms[canonical], form)
	if n := len(parsing.Tokenize(form)); n > t.maxTokens {
		t.maxTokens = n
	}
	return nil
}

// ParseTaxonomy parses a YAML taxonomy document and validates its shape
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "failed to parse taxonomy")
	}

	// Round-trip through JSON so the document is validated exactly as the schema sees it
	doc, err := json.Marshal(raw)
	if err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "failed to encode taxonomy")
	}
	if err := schemas.ValidateJSONString(schemas.TaxonomySchema, string(doc)); err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "invalid taxonomy")
	}

	var entries map[string][]string
	if err := json.Unmarshal(doc, &entries); err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "failed to decode taxonomy")
	}
	return NewTaxonomy(entries)
}

// LoadTaxonomy reads and parses a taxonomy file
func LoadTaxonomy(path string) (*Taxonomy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "failed to read taxonomy %s", path)
	}
	return ParseTaxonomy(data)
}

// DefaultTaxonomy returns the built-in taxonomy
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomyYAML)
	if err != nil {
		panic(fmt.Sprintf("built-in taxonomy is invalid: %v", err))
	}
	return t
}

// Canonical resolves a term (any casing or punctuation) to its canonical skill
func (t *Taxonomy) Canonical(term string) (string, bool) {
	c, ok := t.index[parsing.NormalizeSkillName(term)]
	return c, ok
}

// Canonicalize maps skill names to canonical names, deduplicated and sorted.
// Names unknown to the taxonomy are kept in normalized form.
func (t *Taxonomy) Canonicalize(skillNames []string) []string {
	seen := make(map[string]bool, len(skillNames))
	out := make([]string, 0, len(skillNames))
	for _, name := range skillNames {
		n := parsing.NormalizeSkillName(name)
		if n == "" {
			continue
		}
		if c, ok := t.index[n]; ok {
			n = c
		}
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Skills returns all canonical skill names, sorted
func (t *Taxonomy) Skills() []string {
	out := make([]string, 0, len(t.synonyms))
	for c := range t.synonyms {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// MaxTokens is the length in tokens of the longest surface form
func (t *Taxonomy) MaxTokens() int {
	return t.maxTokens
}
