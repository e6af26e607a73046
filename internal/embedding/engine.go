// Package embedding wraps external embedding models behind a single Engine interface
// and computes cosine similarity between vectors of the same model version.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

// Engine turns text into fixed-dimension vectors.
// Implementations are deterministic for a fixed ModelVersion and safe for concurrent use.
type Engine interface {
	// Embed returns the vector for a single text
	Embed(ctx context.Context, text string) ([]float32, error)
	// EmbedBatch returns one vector per text, in input order
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// ModelVersion identifies the model; vectors from different versions are never compared
	ModelVersion() string
	// Dimension is the length of every vector produced
	Dimension() int
	// Close releases any resources held by the engine
	Close() error
}

// Provider represents an embedding provider
type Provider string

// Provider constants define supported embedding providers
const (
	// ProviderHashing is the offline feature-hashing provider
	ProviderHashing Provider = "hashing"
	// ProviderGemini is the Google Gemini embedding API
	ProviderGemini Provider = "gemini"
	// ProviderOllama is a local Ollama server
	ProviderOllama Provider = "ollama"
)

const (
	DefaultTimeout   = 30 * time.Second
	DefaultBatchSize = 32
)

// Config selects and configures an embedding provider
type Config struct {
	Provider  Provider
	Model     string
	Dimension int
	Timeout   time.Duration
	BatchSize int
	BaseURL   string
	APIKey    string
}

// DefaultConfig returns the offline hashing configuration
func DefaultConfig() Config {
	return Config{
		Provider:  ProviderHashing,
		Dimension: DefaultHashingDimension,
		Timeout:   DefaultTimeout,
		BatchSize: DefaultBatchSize,
	}
}

// New creates an engine for cfg. The returned engine enforces cfg.Timeout on every call
// and reports failures as embedding_unavailable errors.
func New(ctx context.Context, cfg Config, log *zap.Logger) (Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	var (
		engine Engine
		err    error
	)
	switch cfg.Provider {
	case ProviderHashing, "":
		engine, err = NewHashingEngine(cfg.Dimension)
	case ProviderGemini:
		engine, err = NewGeminiEngine(ctx, cfg.Model, cfg.Dimension, cfg.APIKey, log)
	case ProviderOllama:
		engine, err = NewOllamaEngine(cfg.Model, cfg.Dimension, cfg.BaseURL, log)
	default:
		return nil, types.NewError(types.KindConfiguration, "unknown embedding provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	log.Info("embedding engine ready",
		zap.String("provider", string(cfg.Provider)),
		zap.String(logger.FieldModelVersion, engine.ModelVersion()),
		zap.Int("dimension", engine.Dimension()),
		zap.Duration("timeout", cfg.Timeout))

	return WithTimeout(engine, cfg.Timeout), nil
}

// EmbedAll embeds texts in batches of batchSize, preserving input order.
// Every returned vector is checked against the engine's dimension. A failed batch
// leaves nil vectors at its positions; the other batches are still embedded and
// the failures are returned joined.
func EmbedAll(ctx context.Context, engine Engine, texts []string, batchSize int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([][]float32, len(texts))
	var errs []error
	for start := 0; start < len(texts); start += batchSize {
		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}
		if err := embedBatch(ctx, engine, texts[start:end], out[start:end]); err != nil {
			errs = append(errs, fmt.Errorf("batch %d-%d: %w", start, end-1, err))
		}
	}
	return out, errors.Join(errs...)
}

// embedBatch fills dst only when the whole batch succeeds
func embedBatch(ctx context.Context, engine Engine, texts []string, dst [][]float32) error {
	vecs, err := engine.EmbedBatch(ctx, texts)
	if err != nil {
		return err
	}
	if len(vecs) != len(texts) {
		return types.NewError(types.KindEmbeddingUnavailable,
			"embedding batch returned %d vectors for %d texts", len(vecs), len(texts))
	}
	for i, v := range vecs {
		if err := checkDimension(v, engine.Dimension()); err != nil {
			return fmt.Errorf("text %d: %w", i, err)
		}
	}
	copy(dst, vecs)
	return nil
}

func checkDimension(v []float32, dim int) error {
	if dim > 0 && len(v) != dim {
		return types.NewError(types.KindEmbeddingUnavailable,
			"embedding has dimension %d, expected %d", len(v), dim)
	}
	return nil
}
