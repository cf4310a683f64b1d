// Package otel turns the events published on the event bus into
// OpenTelemetry spans exported over OTLP/gRPC.
package otel

import (
	"context"
	"sync"

	eventbus "github.com/hanpama/graphplug/internal/eventbus"
	events "github.com/hanpama/graphplug/internal/events"
	reqid "github.com/hanpama/graphplug/internal/reqid"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Setup configures OpenTelemetry and attaches eventbus subscribers.
// If endpoint is empty, no telemetry is configured.
func Setup(endpoint, service string) (func(context.Context) error, error) {
	if endpoint == "" {
		return func(context.Context) error { return nil }, nil
	}
	exp, err := otlptracegrpc.New(context.Background(),
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())))
	if err != nil {
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(service),
		)),
	)
	otel.SetTracerProvider(tp)

	unsubscribe := Subscribe(eventbus.Current(), tp.Tracer("graphplug"))
	return func(ctx context.Context) error {
		unsubscribe()
		return tp.Shutdown(ctx)
	}, nil
}

// schemaKey is where the span of the schema build in progress is kept.
const schemaKey = "schema"

type subscriber struct {
	tracer    trace.Tracer
	httpSpans sync.Map // rid -> trace.Span
	gqlSpans  sync.Map // rid -> trace.Span
	schema    sync.Map // schemaKey -> trace.Span
}

// Subscribe records spans for the events published on b with tracer.
func Subscribe(b *eventbus.Bus, tracer trace.Tracer) (unsubscribe func()) {
	if b == nil {
		return func() {}
	}
	s := &subscriber{tracer: tracer}
	unsubs := []func(){
		eventbus.SubscribeTo(b, s.httpStart),
		eventbus.SubscribeTo(b, s.httpFinish),
		eventbus.SubscribeTo(b, s.graphqlStart),
		eventbus.SubscribeTo(b, s.graphqlFinish),
		eventbus.SubscribeTo(b, s.schemaStart),
		eventbus.SubscribeTo(b, s.schemaFinish),
		eventbus.SubscribeTo(b, s.typeBuilt),
	}
	return func() {
		for _, u := range unsubs {
			u()
		}
	}
}

func (s *subscriber) httpStart(ctx context.Context, e events.HTTPStart) {
	rid, _ := reqid.FromContext(ctx)
	_, span := s.tracer.Start(ctx, "http.request")
	span.SetAttributes(
		semconv.HTTPMethodKey.String(e.Request.Method),
		attribute.String("http.target", e.Request.URL.Path),
		attribute.String("http.request_id", rid),
	)
	s.httpSpans.Store(rid, span)
}

func (s *subscriber) httpFinish(ctx context.Context, e events.HTTPFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.httpSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(semconv.HTTPStatusCodeKey.Int(e.Status))
	if e.Status >= 500 {
		span.SetStatus(codes.Error, "")
	}
	span.End()
}

func (s *subscriber) graphqlStart(ctx context.Context, e events.GraphQLStart) {
	rid, _ := reqid.FromContext(ctx)
	parent := ctx
	if v, ok := s.httpSpans.Load(rid); ok {
		parent = trace.ContextWithSpan(ctx, v.(trace.Span))
	}
	_, span := s.tracer.Start(parent, "graphql.operation")
	span.SetAttributes(
		attribute.String("graphql.operation.name", e.OperationName),
		attribute.String("graphql.operation.type", e.OperationType),
	)
	s.gqlSpans.Store(rid, span)
}

func (s *subscriber) graphqlFinish(ctx context.Context, e events.GraphQLFinish) {
	rid, _ := reqid.FromContext(ctx)
	v, ok := s.gqlSpans.LoadAndDelete(rid)
	if !ok {
		return
	}
	span := v.(trace.Span)
	span.SetAttributes(
		attribute.Int("graphql.error_count", len(e.Errors)),
		attribute.String("http.cache_control", e.CacheControl),
	)
	if len(e.Errors) > 0 {
		span.SetStatus(codes.Error, e.Errors[0].Error())
	}
	span.End()
}

func (s *subscriber) schemaStart(ctx context.Context, e events.SchemaBuildStart) {
	_, span := s.tracer.Start(ctx, "graphql.schema.build")
	span.SetAttributes(
		attribute.Int("graphql.schema.types", e.Types),
		attribute.Int("graphql.schema.mutations", e.Mutations),
	)
	s.schema.Store(schemaKey, span)
}

func (s *subscriber) schemaFinish(_ context.Context, e events.SchemaBuildFinish) {
	v, ok := s.schema.LoadAndDelete(schemaKey)
	if !ok {
		return
	}
	span := v.(trace.Span)
	if e.Err != nil {
		span.RecordError(e.Err)
		span.SetStatus(codes.Error, e.Err.Error())
	}
	span.End()
}

// typeBuilt annotates the schema build in progress. References built later,
// on first use, are not traced.
func (s *subscriber) typeBuilt(_ context.Context, e events.TypeBuilt) {
	v, ok := s.schema.Load(schemaKey)
	if !ok {
		return
	}
	v.(trace.Span).AddEvent("graphql.schema.built", trace.WithAttributes(
		attribute.String("kind", e.Kind),
		attribute.String("id", e.ID),
		attribute.String("name", e.Name),
		attribute.Int64("duration_us", e.Duration.Microseconds()),
	))
}
