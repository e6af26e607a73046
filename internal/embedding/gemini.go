package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

const (
	DefaultGeminiModel     = "text-embedding-004"
	DefaultGeminiDimension = 768
)

// GeminiEngine implements Engine using the Google Gemini embedding API
type GeminiEngine struct {
	client *genai.Client
	model  *genai.EmbeddingModel
	name   string
	dim    int
	logger *zap.Logger
}

// NewGeminiEngine creates a Gemini-backed engine
func NewGeminiEngine(ctx context.Context, model string, dim int, apiKey string, logger *zap.Logger) (*GeminiEngine, error) {
	if apiKey == "" {
		return nil, types.NewError(types.KindConfiguration, "GEMINI_API_KEY is required for the gemini embedding provider")
	}
	if model == "" {
		model = DefaultGeminiModel
	}
	if dim <= 0 {
		dim = DefaultGeminiDimension
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, types.WrapError(types.KindEmbeddingUnavailable, err, "failed to create Gemini client")
	}

	em := client.EmbeddingModel(model)
	em.TaskType = genai.TaskTypeSemanticSimilarity

	return &GeminiEngine{
		client: client,
		model:  em,
		name:   model,
		dim:    dim,
		logger: logger,
	}, nil
}

// Embed returns the embedding for a single text
func (e *GeminiEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	if resp == nil || resp.Embedding == nil {
		return nil, fmt.Errorf("gemini returned no embedding")
	}
	return resp.Embedding.Values, nil
}

// EmbedBatch embeds texts with a single batch request
func (e *GeminiEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	batch := e.model.NewBatch()
	for _, text := range texts {
		batch.AddContent(genai.Text(text))
	}

	e.logger.Debug("gemini batch embed", zap.String("model", e.name), zap.Int("texts", len(texts)))
	resp, err := e.model.BatchEmbedContents(ctx, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to batch embed contents: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("gemini returned %d embeddings for %d texts", len(resp.Embeddings), len(texts))
	}

	out := make([][]float32, len(resp.Embeddings))
	for i, emb := range resp.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("gemini returned no embedding for text %d", i)
		}
		out[i] = emb.Values
	}
	return out, nil
}

// ModelVersion returns the provider-qualified model name
func (e *GeminiEngine) ModelVersion() string {
	return "gemini:" + e.name
}

// Dimension returns the configured vector length
func (e *GeminiEngine) Dimension() int {
	return e.dim
}

// Close releases the underlying client
func (e *GeminiEngine) Close() error {
	if e.client != nil {
		return e.client.Close()
	}
	return nil
}
