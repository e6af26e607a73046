package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 0.4, cfg.Weights.Skill)
	assert.Equal(t, 0.4, cfg.Weights.Semantic)
	assert.Equal(t, 0.2, cfg.Weights.Experience)
	assert.Equal(t, 10.0, cfg.ExperienceCap)
	assert.Equal(t, 0.85, cfg.FuzzyThreshold)
	assert.Equal(t, 3, cfg.MaxNgram)
	assert.Equal(t, "hashing", cfg.Embedding.Provider)
	assert.Equal(t, 30*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, 8, cfg.Screening.Workers)
	assert.Equal(t, "reject", cfg.Screening.ConflictPolicy)
	assert.Equal(t, 5*time.Minute, cfg.Screening.LockTTL)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadConfig_File(t *testing.T) {
	path := writeFile(t, "screener.yaml", `
weights:
  skill: 0.5
  semantic: 0.3
  experience: 0.2
experience_cap: 8
embedding:
  provider: ollama
  dimension: 768
  timeout: 5s
  base_url: http://localhost:11434
screening:
  conflict_policy: wait
  workers: 4
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 0.5, cfg.Weights.Skill)
	assert.Equal(t, 8.0, cfg.ExperienceCap)
	assert.Equal(t, "ollama", cfg.Embedding.Provider)
	assert.Equal(t, 5*time.Second, cfg.Embedding.Timeout)
	assert.Equal(t, "wait", cfg.Screening.ConflictPolicy)

	settings := cfg.EmbeddingSettings()
	assert.Equal(t, embedding.ProviderOllama, settings.Provider)
	assert.Equal(t, 768, settings.Dimension)

	opts := cfg.ScreeningOptions()
	assert.Equal(t, screening.ConflictWait, opts.ConflictPolicy)
	assert.Equal(t, 4, opts.Workers)
}

func TestLoadConfig_EnvOverrides(t *testing.T) {
	t.Setenv("SCREENER_EXPERIENCE_CAP", "12")
	t.Setenv("SCREENER_SCREENING_WORKERS", "2")
	t.Setenv("DATABASE_URL", "postgres://localhost/screener")
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("SCREENER_EMBEDDING_PROVIDER", "gemini")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.ExperienceCap)
	assert.Equal(t, 2, cfg.Screening.Workers)
	assert.Equal(t, "postgres://localhost/screener", cfg.DatabaseURL)
	assert.Equal(t, "key", cfg.Embedding.APIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"weights do not sum to one", "weights:\n  skill: 0.5\n  semantic: 0.5\n  experience: 0.5\n"},
		{"negative weight", "weights:\n  skill: 1.2\n  semantic: -0.2\n  experience: 0\n"},
		{"bad provider", "embedding:\n  provider: word2vec\n"},
		{"bad policy", "screening:\n  conflict_policy: merge\n"},
		{"zero cap", "experience_cap: 0\n"},
		{"threshold above one", "fuzzy_threshold: 1.5\n"},
		{"gemini without key", "embedding:\n  provider: gemini\n"},
		{"ollama without dimension", "embedding:\n  provider: ollama\n"},
		{"lock without redis", "screening:\n  distributed_lock: true\n"},
		{"malformed yaml", "weights: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("GEMINI_API_KEY", "")
			t.Setenv("REDIS_URL", "")
			_, err := LoadConfig(writeFile(t, "screener.yaml", tt.content))
			require.Error(t, err)
			assert.True(t, types.IsKind(err, types.KindConfiguration), "got %v", err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, types.IsKind(err, types.KindConfiguration))
}

func TestBuildEngines(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	engines, err := cfg.BuildEngines()
	require.NoError(t, err)
	assert.Contains(t, engines.Taxonomy.Skills(), "python")
	assert.NotNil(t, engines.Extractor)
	assert.NotNil(t, engines.Scorer)
}

func TestBuildEngines_CustomTaxonomy(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	cfg.TaxonomyPath = writeFile(t, "taxonomy.yaml", "elixir: [ex]\n")
	engines, err := cfg.BuildEngines()
	require.NoError(t, err)
	assert.Equal(t, []string{"elixir"}, engines.Taxonomy.Skills())

	cfg.TaxonomyPath = writeFile(t, "bad.yaml", "elixir: ex\n")
	_, err = cfg.BuildEngines()
	assert.True(t, types.IsKind(err, types.KindConfiguration))
}

func TestNewDistributedLock_Disabled(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	lock, closeFn, err := cfg.NewDistributedLock(t.Context())
	require.NoError(t, err)
	assert.Nil(t, lock)
	assert.NoError(t, closeFn())
}
