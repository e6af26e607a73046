package embedding

import (
	"context"
	"fmt"
	"math"

	"github.com/jonathan/resume-screener/internal/parsing"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/minio/highwayhash"
)

// DefaultHashingDimension is the vector size of the hashing engine when none is configured
const DefaultHashingDimension = 256

// bigramWeight scales adjacent-token features relative to single tokens
const bigramWeight = 0.5

var hashKey = []byte("resume-screener-feature-hash-v1!")

// HashingEngine embeds text by hashing tokens and token bigrams into signed buckets.
// It needs no network access and is fully deterministic.
type HashingEngine struct {
	dim int
}

// NewHashingEngine creates a hashing engine producing vectors of length dim
func NewHashingEngine(dim int) (*HashingEngine, error) {
	if dim == 0 {
		dim = DefaultHashingDimension
	}
	if dim < 0 {
		return nil, types.NewError(types.KindConfiguration, "embedding dimension must be positive, got %d", dim)
	}
	return &HashingEngine{dim: dim}, nil
}

// Embed returns the L2-normalized feature vector for text
func (e *HashingEngine) Embed(_ context.Context, text string) ([]float32, error) {
	tokens := parsing.RemoveStopwords(parsing.Tokenize(parsing.Normalize(text)))
	acc := make([]float64, e.dim)

	for i, tok := range tokens {
		e.add(acc, tok, 1)
		if i > 0 {
			e.add(acc, tokens[i-1]+" "+tok, bigramWeight)
		}
	}

	var norm float64
	for _, v := range acc {
		norm += v * v
	}
	vec := make([]float32, e.dim)
	if norm == 0 {
		return vec, nil
	}
	norm = math.Sqrt(norm)
	for i, v := range acc {
		vec[i] = float32(v / norm)
	}
	return vec, nil
}

func (e *HashingEngine) add(acc []float64, feature string, weight float64) {
	h := highwayhash.Sum64([]byte(feature), hashKey)
	bucket := h % uint64(e.dim)
	if h>>63 == 1 {
		weight = -weight
	}
	acc[bucket] += weight
}

// EmbedBatch embeds each text independently
func (e *HashingEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// ModelVersion encodes the algorithm version and dimension
func (e *HashingEngine) ModelVersion() string {
	return fmt.Sprintf("hashing-v1-d%d", e.dim)
}

// Dimension returns the vector length
func (e *HashingEngine) Dimension() int {
	return e.dim
}

// Close is a no-op
func (e *HashingEngine) Close() error {
	return nil
}
