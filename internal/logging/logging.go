// Package logging writes the events published on the event bus as
// structured zap log entries.
package logging

import (
	"context"

	eventbus "github.com/hanpama/graphplug/internal/eventbus"
	events "github.com/hanpama/graphplug/internal/events"
	reqid "github.com/hanpama/graphplug/internal/reqid"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds the process logger. Development loggers are human readable and
// log at debug level unless level says otherwise.
func New(level string, development bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	if level != "" {
		lvl, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, err
		}
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	return cfg.Build()
}

// Setup logs the events of the current bus with logger.
func Setup(logger *zap.Logger) (unsubscribe func()) {
	return Subscribe(eventbus.Current(), logger)
}

// Subscribe logs the events published on b with logger.
func Subscribe(b *eventbus.Bus, logger *zap.Logger) (unsubscribe func()) {
	if b == nil || logger == nil {
		return func() {}
	}
	s := subscriber{log: logger}
	unsubs := []func(){
		eventbus.SubscribeTo(b, s.httpFinish),
		eventbus.SubscribeTo(b, s.graphqlStart),
		eventbus.SubscribeTo(b, s.graphqlFinish),
		eventbus.SubscribeTo(b, s.schemaFinish),
		eventbus.SubscribeTo(b, s.typeBuilt),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

type subscriber struct {
	log *zap.Logger
}

func (s subscriber) with(ctx context.Context) *zap.Logger {
	if rid, ok := reqid.FromContext(ctx); ok {
		return s.log.With(zap.String("request_id", rid))
	}
	return s.log
}

func (s subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	fields := []zap.Field{
		zap.String("method", e.Request.Method),
		zap.String("path", e.Request.URL.Path),
		zap.Int("status", e.Status),
		zap.Duration("duration", e.Duration),
	}
	if e.Status >= 500 {
		s.with(ctx).Error("http request", fields...)
		return
	}
	s.with(ctx).Info("http request", fields...)
}

func (s subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	s.with(ctx).Debug("graphql operation started",
		zap.String("operation", e.OperationName),
		zap.String("type", e.OperationType),
	)
}

func (s subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	fields := []zap.Field{
		zap.String("operation", e.OperationName),
		zap.String("type", e.OperationType),
		zap.String("cache_control", e.CacheControl),
		zap.Duration("duration", e.Duration),
	}
	if len(e.Errors) > 0 {
		fields = append(fields, zap.Errors("errors", e.Errors))
		s.with(ctx).Warn("graphql operation failed", fields...)
		return
	}
	s.with(ctx).Info("graphql operation", fields...)
}

func (s subscriber) schemaFinish(_ context.Context, e events.SchemaBuildFinish) {
	fields := []zap.Field{
		zap.Int("types", e.Types),
		zap.Int("mutations", e.Mutations),
		zap.Duration("duration", e.Duration),
	}
	if e.Err != nil {
		s.log.Error("schema build failed", append(fields, zap.Error(e.Err))...)
		return
	}
	s.log.Info("schema built", fields...)
}

func (s subscriber) typeBuilt(_ context.Context, e events.TypeBuilt) {
	s.log.Debug("reference built",
		zap.String("kind", e.Kind),
		zap.String("id", e.ID),
		zap.String("name", e.Name),
		zap.Duration("duration", e.Duration),
	)
}
