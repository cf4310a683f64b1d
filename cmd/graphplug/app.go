package main

import (
	"context"
	"fmt"

	"github.com/hanpama/graphplug/internal/assembler"
	"github.com/hanpama/graphplug/internal/config"
	"github.com/hanpama/graphplug/internal/entity"
	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/introspection"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
	"github.com/hanpama/graphplug/internal/server"
)

// app is everything a command needs to work with the configured schema.
type app struct {
	cfg       *config.Config
	store     entity.Storage
	assembler *assembler.Assembler
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	model, err := entity.LoadModel(cfg.Model.Path)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	def, err := entity.Produce(model, entity.Options{
		CacheTags:   cfg.Schema.CacheTags,
		CacheMaxAge: cfg.Schema.CacheMaxAge,
	})
	if err != nil {
		return nil, fmt.Errorf("produce definition: %w", err)
	}
	store, err := openStorage(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	a, err := assembler.New(def, entity.Managers(model, store))
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("assemble: %w", err)
	}
	return &app{cfg: cfg, store: store, assembler: a}, nil
}

func openStorage(ctx context.Context, cfg config.StorageConfig) (entity.Storage, error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		return entity.OpenSQLite(ctx, cfg.DSN)
	default:
		return entity.NewMemoryStorage(), nil
	}
}

func (a *app) Close() error { return a.store.Close() }

func (a *app) schema(ctx context.Context) (*schema.Schema, error) {
	sch, err := a.assembler.BuildSchema(ctx)
	if err != nil {
		return nil, fmt.Errorf("build schema: %w", err)
	}
	return sch, nil
}

// handler serves the assembled schema with the configured server options.
func (a *app) handler(ctx context.Context) (*server.Handler, error) {
	sch, err := a.schema(ctx)
	if err != nil {
		return nil, err
	}
	var runtime executor.Runtime = a.assembler.Runtime()
	if a.cfg.GraphQL.Introspection {
		w := introspection.Wrap(runtime, sch)
		runtime, sch = w.Runtime, w.Schema
	}

	sc := a.cfg.Server
	opts := []server.Option{
		server.WithTimeout(sc.Timeout),
		server.WithMaxBodyBytes(sc.MaxBodyBytes),
		server.WithGraphiQL(sc.GraphiQL),
		server.WithCacheability(resolution.Cacheability{
			Tags:     a.assembler.CacheTags(),
			Contexts: a.assembler.CacheContexts(),
			MaxAge:   a.assembler.CacheMaxAge(),
		}),
	}
	if sc.Pretty {
		opts = append(opts, server.WithPretty())
	}
	if len(sc.CORSOrigins) > 0 {
		opts = append(opts, server.WithCORS(sc.CORSOrigins...))
	}
	if len(sc.GlobalHeaders) > 0 {
		opts = append(opts, server.WithGlobalHeaders(sc.GlobalHeaders...))
	}
	return server.New(runtime, sch, opts...)
}
