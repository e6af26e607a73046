package skills

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	e, err := NewExtractor(DefaultTaxonomy(), DefaultFuzzyThreshold, DefaultMaxNgram)
	require.NoError(t, err)
	return e
}

func TestDefaultTaxonomy_Loads(t *testing.T) {
	tax := DefaultTaxonomy()
	assert.Contains(t, tax.Skills(), "javascript")
	assert.Contains(t, tax.Skills(), "c++")
	js, ok := tax.Canonical("js")
	assert.True(t, ok)
	assert.Equal(t, "javascript", js)
	assert.GreaterOrEqual(t, tax.MaxTokens(), 3)
}

func TestTaxonomy_Canonical(t *testing.T) {
	tax := DefaultTaxonomy()

	tests := []struct {
		term string
		want string
		ok   bool
	}{
		{"JS", "javascript", true},
		{"JavaScript", "javascript", true},
		{"Golang", "go", true},
		{"K8s", "kubernetes", true},
		{"Node.js", "node js", true},
		{"Postgres", "postgresql", true},
		{"cobol", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, ok := tax.Canonical(tt.term)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTaxonomy_Canonicalize(t *testing.T) {
	tax := DefaultTaxonomy()
	got := tax.Canonicalize([]string{"Python", "py", "PostgreSQL", "postgres", "AWS", "", "cobol"})
	assert.Equal(t, []string{"aws", "cobol", "postgresql", "python"}, got)
}

func TestNewTaxonomy_Errors(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string][]string
	}{
		{"empty", map[string][]string{}},
		{"empty canonical", map[string][]string{"!!": {"x"}}},
		{"empty synonym", map[string][]string{"go": {"  "}}},
		{"ambiguous synonym", map[string][]string{"javascript": {"js"}, "json": {"js"}}},
		{"canonical used as synonym", map[string][]string{"node js": {"node"}, "node": {}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTaxonomy(tt.entries)
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindConfiguration))
		})
	}
}

func TestParseTaxonomy(t *testing.T) {
	tax, err := ParseTaxonomy([]byte("Kotlin: [kt]\nSwift: []\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"kotlin", "swift"}, tax.Skills())

	c, ok := tax.Canonical("KT")
	assert.True(t, ok)
	assert.Equal(t, "kotlin", c)
}

func TestParseTaxonomy_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "kotlin: [kt"},
		{"scalar synonyms", "kotlin: kt\n"},
		{"empty document", ""},
		{"empty synonym string", "kotlin: ['']\n"},
		{"nested object", "kotlin:\n  alias: kt\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTaxonomy([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindConfiguration))
		})
	}
}

func TestLoadTaxonomy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("rust: [rust-lang]\n"), 0644))

	tax, err := LoadTaxonomy(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"rust"}, tax.Skills())

	_, err = LoadTaxonomy(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindConfiguration))
}

func TestNewExtractor_Validation(t *testing.T) {
	tax := DefaultTaxonomy()

	_, err := NewExtractor(nil, 0.85, 3)
	assert.Error(t, err)
	_, err = NewExtractor(tax, 0, 3)
	assert.Error(t, err)
	_, err = NewExtractor(tax, 1.5, 3)
	assert.Error(t, err)
	_, err = NewExtractor(tax, 0.85, 0)
	assert.Error(t, err)
}

func TestExtract_SynonymEquivalence(t *testing.T) {
	e := newTestExtractor(t)

	a := e.Extract("Five years building frontends in JS.")
	b := e.Extract("Five years building frontends in JavaScript.")

	assert.Contains(t, a, "javascript")
	assert.Contains(t, b, "javascript")
	assert.Equal(t, a, b)
}

func TestExtract(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "multi-word and single-word skills",
			text: "Built REST APIs with Django and PostgreSQL on Amazon Web Services",
			want: []string{"aws", "django", "postgresql", "rest api"},
		},
		{
			name: "symbols preserved",
			text: "Systems programming in C++ and tooling in C#",
			want: []string{"c#", "c++"},
		},
		{
			name: "dotted names",
			text: "Node.js services deployed to K8s",
			want: []string{"kubernetes", "node js"},
		},
		{
			name: "fuzzy misspelling",
			text: "Strong with Kubernets and Terrafom",
			want: []string{"kubernetes", "terraform"},
		},
		{
			name: "duplicates collapse",
			text: "python, Python3, py",
			want: []string{"python"},
		},
		{
			name: "nothing",
			text: "Enjoys hiking and cooking",
			want: []string{},
		},
		{
			name: "empty",
			text: "",
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestExtract_CommonWordsNeedContext(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		text string
		want []string
	}{
		{"the rest of the project in spring 2020", []string{}},
		{"journal readership grew", []string{}},
		{"we go to market next quarter", []string{}},
		{"Node runs on every laptop and containers ship weekly", []string{}},
		{"Go and Kubernetes engineer", []string{"go", "kubernetes"}},
		{"We build Go services", []string{"go"}},
		{"experience with the Go language", []string{"go"}},
		{"Senior engineer writing Go on Kubernetes", []string{"go", "kubernetes"}},
		{"Swift developer for iOS", []string{"swift"}},
		{"a swift response", []string{}},
		{"Golang", []string{"go"}},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Extract(tt.text))
		})
	}
}

func TestNewExtractor_RejectsFormsLongerThanNgram(t *testing.T) {
	tax, err := NewTaxonomy(map[string][]string{"devops": {"continuous integration and delivery"}})
	require.NoError(t, err)

	_, err = NewExtractor(tax, DefaultFuzzyThreshold, DefaultMaxNgram)
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindConfiguration))

	e, err := NewExtractor(tax, DefaultFuzzyThreshold, tax.MaxTokens())
	require.NoError(t, err)
	assert.Equal(t, []string{"devops"}, e.Extract("Owned continuous integration and delivery"))
}

func TestExtract_ShortTokensExactOnly(t *testing.T) {
	e := newTestExtractor(t)
	// "gp" is one edit from "go" but short tokens never fuzzy-match
	assert.Empty(t, e.Extract("gp"))
}

func TestMatch(t *testing.T) {
	e := newTestExtractor(t)

	c, ok := e.Match("javascrpt")
	assert.True(t, ok)
	assert.Equal(t, "javascript", c)

	_, ok = e.Match("with")
	assert.False(t, ok)
}
