package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/jonathan/resume-screener/internal/config"
	"github.com/jonathan/resume-screener/internal/db"
	"github.com/jonathan/resume-screener/internal/embedding"
	"github.com/jonathan/resume-screener/internal/ingestion"
	"github.com/jonathan/resume-screener/internal/logger"
	"github.com/jonathan/resume-screener/internal/memstore"
	"github.com/jonathan/resume-screener/internal/schemas"
	"github.com/jonathan/resume-screener/internal/screening"
	"github.com/jonathan/resume-screener/internal/server"
	"github.com/jonathan/resume-screener/internal/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app holds every component a command may need, built once from configuration
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	store        server.Store
	persistent   bool
	engines      *config.Engines
	capability   *embedding.Capability
	engine       embedding.Engine
	ingester     *ingestion.Ingester
	orchestrator *screening.Orchestrator
	closers      []func() error
}

// loadConfig reads the config file and lets the persistent flags override it
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	if f := cmd.Flags().Lookup("log-json"); f != nil && f.Changed {
		_ = v.BindPFlag("log.json", f)
	}
	if f := cmd.Flags().Lookup("debug"); f != nil && f.Changed {
		_ = v.BindPFlag("log.debug", f)
	}
	if f := cmd.Flags().Lookup("port"); f != nil && f.Changed {
		_ = v.BindPFlag("server.port", f)
	}
	return config.LoadFrom(v, configPath)
}

// newApp wires configuration, logging, storage, embedding and the screening components
func newApp(cmd *cobra.Command, needDB bool) (*app, error) {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	a := &app{cfg: cfg, logger: log}
	a.closers = append(a.closers, func() error { _ = log.Sync(); return nil })

	engines, err := cfg.BuildEngines()
	if err != nil {
		a.close()
		return nil, err
	}
	a.engines = engines
	log.Debug("skill taxonomy loaded",
		zap.Int("skills", len(engines.Taxonomy.Skills())),
		zap.Int("max_tokens", engines.Taxonomy.MaxTokens()))

	if err := a.openStore(ctx, needDB); err != nil {
		a.close()
		return nil, err
	}

	a.capability = embedding.NewCapability(cfg.EmbeddingSettings(), log)
	a.closers = append(a.closers, a.capability.Close)
	engine, err := a.capability.Engine(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.engine = engine

	opts := cfg.ScreeningOptions()
	lock, closeLock, err := cfg.NewDistributedLock(ctx)
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closeLock)
	opts.Lock = lock

	a.orchestrator, err = screening.NewOrchestrator(a.store, engine, engines.Scorer, log, opts)
	if err != nil {
		a.close()
		return nil, err
	}
	a.ingester = ingestion.NewIngester(engines.Extractor, engine, a.store, log)
	return a, nil
}

func (a *app) openStore(ctx context.Context, needDB bool) error {
	if a.cfg.DatabaseURL == "" {
		if needDB {
			return types.NewError(types.KindConfiguration, "DATABASE_URL is required for this command")
		}
		a.logger.Debug("no DATABASE_URL set, using in-memory store")
		a.store = memstore.New()
		return nil
	}

	database, err := db.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { database.Close(); return nil })
	if err := database.Migrate(ctx); err != nil {
		return err
	}
	a.store = database
	a.persistent = true
	return nil
}

// close releases resources in reverse order of acquisition
func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.Warn("cleanup failed", zap.Error(err))
	}
}

// writeJSON prints v as indented JSON
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// checkOutcome validates an outcome against its published schema. A mismatch is
// logged rather than returned so a run that already wrote its results still reports them.
func (a *app) checkOutcome(outcome *types.ScreeningRunOutcome) {
	if err := schemas.ValidateDocument(schemas.ScreeningOutcomeSchema, outcome); err != nil {
		a.logger.Warn("outcome does not match schema", zap.Error(err))
	}
}
