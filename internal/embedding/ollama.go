package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jonathan/resume-screener/internal/types"
	"go.uber.org/zap"
)

const (
	DefaultOllamaBaseURL = "http://localhost:11434"
	DefaultOllamaModel   = "nomic-embed-text"
	ollamaEmbedEndpoint  = "/api/embed"
)

// OllamaEngine implements Engine against a local Ollama server
type OllamaEngine struct {
	baseURL    string
	model      string
	dim        int
	httpClient *http.Client
	logger     *zap.Logger
}

type ollamaEmbedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
	Error      string      `json:"error"`
}

// NewOllamaEngine creates an Ollama-backed engine. dim must match the model's output size.
func NewOllamaEngine(model string, dim int, baseURL string, logger *zap.Logger) (*OllamaEngine, error) {
	if dim <= 0 {
		return nil, types.NewError(types.KindConfiguration, "embedding.dimension is required for the ollama provider")
	}
	if model == "" {
		model = DefaultOllamaModel
	}
	if baseURL == "" {
		baseURL = DefaultOllamaBaseURL
	}
	return &OllamaEngine{
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		dim:        dim,
		httpClient: &http.Client{},
		logger:     logger,
	}, nil
}

// Embed returns the embedding for a single text
func (e *OllamaEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds all texts in one request
func (e *OllamaEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	body, err := json.Marshal(ollamaEmbedRequest{Model: e.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+ollamaEmbedEndpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	e.logger.Debug("ollama embed", zap.String("model", e.model), zap.Int("texts", len(texts)))
	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama API error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out ollamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != "" {
		return nil, fmt.Errorf("ollama API error: %s", out.Error)
	}
	if len(out.Embeddings) != len(texts) {
		return nil, fmt.Errorf("ollama returned %d embeddings for %d texts", len(out.Embeddings), len(texts))
	}
	return out.Embeddings, nil
}

// ModelVersion returns the provider-qualified model name
func (e *OllamaEngine) ModelVersion() string {
	return "ollama:" + e.model
}

// Dimension returns the configured vector length
func (e *OllamaEngine) Dimension() int {
	return e.dim
}

// Close is a no-op
func (e *OllamaEngine) Close() error {
	return nil
}
