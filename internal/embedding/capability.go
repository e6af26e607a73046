package embedding

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Capability owns the process-wide embedding engine. The engine is created on the
// first call to Engine and released by Close; callers receive it explicitly and
// pass it to the components that need it.
type Capability struct {
	cfg    Config
	logger *zap.Logger

	once   sync.Once
	mu     sync.Mutex
	engine Engine
	err    error
	closed bool
}

// NewCapability prepares, but does not initialize, an embedding capability
func NewCapability(cfg Config, logger *zap.Logger) *Capability {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Capability{cfg: cfg, logger: logger}
}

// Engine initializes the engine exactly once and returns it.
// An initialization error is returned to every caller.
func (c *Capability) Engine(ctx context.Context) (Engine, error) {
	c.once.Do(func() {
		engine, err := New(ctx, c.cfg, c.logger)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.engine, c.err = engine, err
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil, errCapabilityClosed
	}
	return c.engine, c.err
}

// Close releases the engine if it was initialized. Engine returns an error afterwards.
func (c *Capability) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	if c.engine != nil {
		return c.engine.Close()
	}
	return nil
}
