// Package config loads and validates screener configuration from a file, the environment and defaults.
package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/scoring"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/skills"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. SCREENER_WEIGHTS_SKILL
const EnvPrefix = "SCREENER"

// Config is the complete screener configuration
type Config struct {
	Weights        scoring.Weights `mapstructure:"weights"`
	ExperienceCap  float64         `mapstructure:"experience_cap" validate:"gt=0"`
	FuzzyThreshold float64         `mapstructure:"fuzzy_threshold" validate:"gt=0,lte=1"`
	MaxNgram       int             `mapstructure:"max_ngram" validate:"min=1,max=5"`
	// TaxonomyPath points at a YAML taxonomy; empty selects the built-in one
	TaxonomyPath string `mapstructure:"taxonomy_path"`

	Embedding EmbeddingConfig `mapstructure:"embedding"`
	Screening ScreeningConfig `mapstructure:"screening"`
	Log       LogConfig       `mapstructure:"log"`
	Server    ServerConfig    `mapstructure:"server"`

	DatabaseURL string `mapstructure:"database_url"`
	RedisURL    string `mapstructure:"redis_url"`
}

// EmbeddingConfig selects the embedding provider
type EmbeddingConfig struct {
	Provider  string        `mapstructure:"provider" validate:"oneof=hashing gemini ollama"`
	Model     string        `mapstructure:"model"`
	Dimension int           `mapstructure:"dimension" validate:"gte=0"`
	Timeout   time.Duration `mapstructure:"timeout" validate:"gt=0"`
	BatchSize int           `mapstructure:"batch_size" validate:"min=1"`
	BaseURL   string        `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey    string        `mapstructure:"api_key"`
}

// ScreeningConfig controls screening runs
type ScreeningConfig struct {
	Workers         int           `mapstructure:"workers" validate:"min=1,max=256"`
	ConflictPolicy  string        `mapstructure:"conflict_policy" validate:"oneof=reject wait"`
	FailOnDegraded  bool          `mapstructure:"fail_on_degraded"`
	DistributedLock bool          `mapstructure:"distributed_lock"`
	LockTTL         time.Duration `mapstructure:"lock_ttl" validate:"gt=0"`
}

// LogConfig controls log output
type LogConfig struct {
	JSON  bool `mapstructure:"json"`
	Debug bool `mapstructure:"debug"`
}

// ServerConfig controls the HTTP server
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("weights.skill", scoring.DefaultSkillWeight)
	v.SetDefault("weights.semantic", scoring.DefaultSemanticWeight)
	v.SetDefault("weights.experience", scoring.DefaultExperienceWeight)
	v.SetDefault("experience_cap", scoring.DefaultExperienceCap)
	v.SetDefault("fuzzy_threshold", skills.DefaultFuzzyThreshold)
	v.SetDefault("max_ngram", skills.DefaultMaxNgram)
	v.SetDefault("taxonomy_path", "")

	v.SetDefault("embedding.provider", string(embedding.ProviderHashing))
	v.SetDefault("embedding.model", "")
	v.SetDefault("embedding.dimension", 0)
	v.SetDefault("embedding.timeout", embedding.DefaultTimeout)
	v.SetDefault("embedding.batch_size", embedding.DefaultBatchSize)
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.api_key", "")

	v.SetDefault("screening.workers", screening.DefaultWorkers)
	v.SetDefault("screening.conflict_policy", string(screening.ConflictReject))
	v.SetDefault("screening.fail_on_degraded", false)
	v.SetDefault("screening.distributed_lock", false)
	v.SetDefault("screening.lock_ttl", screening.DefaultLockTTL)

	v.SetDefault("log.json", false)
	v.SetDefault("log.debug", false)
	v.SetDefault("server.port", 8080)

	v.SetDefault("database_url", "")
	v.SetDefault("redis_url", "")
}

// New returns a viper instance with defaults and environment bindings applied
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Well-known variables without the prefix
	_ = v.BindEnv("database_url", EnvPrefix+"_DATABASE_URL", "DATABASE_URL")
	_ = v.BindEnv("redis_url", EnvPrefix+"_REDIS_URL", "REDIS_URL")
	_ = v.BindEnv("embedding.api_key", EnvPrefix+"_EMBEDDING_API_KEY", "GEMINI_API_KEY")
	return v
}

// LoadConfig reads path (YAML, JSON or TOML by extension) when given, applies
// environment overrides and validates the result.
func LoadConfig(path string) (*Config, error) {
	return LoadFrom(New(), path)
}

// LoadFrom is LoadConfig over a caller-supplied viper instance, e.g. one with bound flags
func LoadFrom(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, types.WrapError(types.KindConfiguration, err, "failed to read config file %s", path)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "failed to decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field ranges, weight invariants and cross-field requirements
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return types.WrapError(types.KindConfiguration, err, "invalid %s", strings.ToLower(verrs[0].Namespace()))
		}
		return types.WrapError(types.KindConfiguration, err, "invalid config")
	}
	if err := c.Weights.Validate(); err != nil {
		return err
	}
	if c.Embedding.Provider == string(embedding.ProviderGemini) && c.Embedding.APIKey == "" {
		return types.NewError(types.KindConfiguration, "GEMINI_API_KEY is required for the gemini embedding provider")
	}
	if c.Embedding.Provider == string(embedding.ProviderOllama) && c.Embedding.Dimension == 0 {
		return types.NewError(types.KindConfiguration, "embedding.dimension is required for the ollama provider")
	}
	if c.Screening.DistributedLock && c.RedisURL == "" {
		return types.NewError(types.KindConfiguration, "REDIS_URL is required when screening.distributed_lock is enabled")
	}
	return nil
}

// EmbeddingSettings converts the embedding section for the embedding package
func (c *Config) EmbeddingSettings() embedding.Config {
	return embedding.Config{
		Provider:  embedding.Provider(c.Embedding.Provider),
		Model:     c.Embedding.Model,
		Dimension: c.Embedding.Dimension,
		Timeout:   c.Embedding.Timeout,
		BatchSize: c.Embedding.BatchSize,
		BaseURL:   c.Embedding.BaseURL,
		APIKey:    c.Embedding.APIKey,
	}
}

// ScreeningOptions converts the screening section. The distributed lock is wired by the caller.
func (c *Config) ScreeningOptions() screening.Options {
	return screening.Options{
		Workers:        c.Screening.Workers,
		ConflictPolicy: screening.ConflictPolicy(c.Screening.ConflictPolicy),
		FailOnDegraded: c.Screening.FailOnDegraded,
		BatchSize:      c.Embedding.BatchSize,
		LockTTL:        c.Screening.LockTTL,
	}
}

// LoadTaxonomy loads the configured taxonomy, or the built-in one when no path is set
func (c *Config) LoadTaxonomy() (*skills.Taxonomy, error) {
	if c.TaxonomyPath == "" {
		return skills.DefaultTaxonomy(), nil
	}
	return skills.LoadTaxonomy(c.TaxonomyPath)
}

// Engines bundles the pure components built from configuration
type Engines struct {
	Taxonomy  *skills.Taxonomy
	Extractor *skills.Extractor
	Scorer    *scoring.Engine
}

// BuildEngines loads the taxonomy and constructs the extractor and scorer.
// Every configuration problem surfaces here, before any run starts.
func (c *Config) BuildEngines() (*Engines, error) {
	taxonomy, err := c.LoadTaxonomy()
	if err != nil {
		return nil, err
	}
	extractor, err := skills.NewExtractor(taxonomy, c.FuzzyThreshold, c.MaxNgram)
	if err != nil {
		return nil, err
	}
	scorer, err := scoring.NewEngine(c.Weights, c.ExperienceCap, taxonomy)
	if err != nil {
		return nil, err
	}
	return &Engines{Taxonomy: taxonomy, Extractor: extractor, Scorer: scorer}, nil
}

// NewDistributedLock connects to Redis when the distributed lock is enabled; otherwise it returns nil.
// The returned close function is always safe to call.
func (c *Config) NewDistributedLock(ctx context.Context) (screening.DistributedLock, func() error, error) {
	if !c.Screening.DistributedLock {
		return nil, func() error { return nil }, nil
	}
	client, err := screening.ConnectRedis(ctx, c.RedisURL)
	if err != nil {
		return nil, nil, types.WrapError(types.KindConfiguration, err, "distributed lock unavailable")
	}
	return screening.NewRedisLock(client), client.Close, nil
}
