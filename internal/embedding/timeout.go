package embedding

import (
	"context"
	"time"

	"github.com/jonathan/resume-screener/internal/types"
)

// timeoutEngine bounds every call of the wrapped engine and converts failures
// into embedding_unavailable errors.
type timeoutEngine struct {
	Engine
	timeout time.Duration
}

// WithTimeout wraps engine so no call runs longer than timeout.
// A call that overruns returns immediately even if the provider ignores ctx.
func WithTimeout(engine Engine, timeout time.Duration) Engine {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &timeoutEngine{Engine: engine, timeout: timeout}
}

type batchResult struct {
	vecs [][]float32
	err  error
}

func (t *timeoutEngine) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := t.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (t *timeoutEngine) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	done := make(chan batchResult, 1)
	go func() {
		vecs, err := t.Engine.EmbedBatch(ctx, texts)
		done <- batchResult{vecs: vecs, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, types.WrapError(types.KindEmbeddingUnavailable, res.err, "embedding %s failed", t.ModelVersion())
		}
		if len(res.vecs) != len(texts) {
			return nil, types.NewError(types.KindEmbeddingUnavailable,
				"embedding %s returned %d vectors for %d texts", t.ModelVersion(), len(res.vecs), len(texts))
		}
		for _, v := range res.vecs {
			if err := checkDimension(v, t.Dimension()); err != nil {
				return nil, err
			}
		}
		return res.vecs, nil
	case <-ctx.Done():
		return nil, types.WrapError(types.KindEmbeddingUnavailable, ctx.Err(),
			"embedding %s did not respond within %s", t.ModelVersion(), t.timeout)
	}
}
