package otel

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	eventbus "github.com/hanpama/graphplug/internal/eventbus"
	events "github.com/hanpama/graphplug/internal/events"
	reqid "github.com/hanpama/graphplug/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) (*eventbus.Bus, *tracetest.SpanRecorder) {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	b := eventbus.New()
	unsubscribe := Subscribe(b, tp.Tracer("test"))
	t.Cleanup(unsubscribe)
	return b, rec
}

func TestRequestSpans(t *testing.T) {
	b, rec := newRecorder(t)
	ctx, _ := reqid.NewContext(context.Background())
	r := httptest.NewRequest("POST", "/graphql", nil)

	eventbus.PublishTo(ctx, b, events.HTTPStart{Request: r})
	eventbus.PublishTo(ctx, b, events.GraphQLStart{OperationName: "Q", OperationType: "query"})
	eventbus.PublishTo(ctx, b, events.GraphQLFinish{OperationName: "Q", OperationType: "query", Errors: []error{errors.New("boom")}, CacheControl: "no-cache"})
	eventbus.PublishTo(ctx, b, events.HTTPFinish{Request: r, Status: 200, Duration: time.Millisecond})

	spans := rec.Ended()
	require.Len(t, spans, 2)
	op, req := spans[0], spans[1]
	require.Equal(t, "graphql.operation", op.Name())
	require.Equal(t, "http.request", req.Name())
	require.Equal(t, req.SpanContext().SpanID(), op.Parent().SpanID())
	require.Equal(t, codes.Error, op.Status().Code)
	require.Equal(t, "boom", op.Status().Description)
}

func TestSchemaSpan(t *testing.T) {
	b, rec := newRecorder(t)
	ctx := context.Background()

	eventbus.PublishTo(ctx, b, events.SchemaBuildStart{Types: 3, Mutations: 1})
	eventbus.PublishTo(ctx, b, events.TypeBuilt{Kind: "type", ID: "object:node", Name: "Node"})
	eventbus.PublishTo(ctx, b, events.SchemaBuildFinish{Types: 3, Mutations: 1, Err: errors.New("missing type Foo")})
	eventbus.PublishTo(ctx, b, events.TypeBuilt{Kind: "field", ID: "Node.id", Name: "Node.id"})

	spans := rec.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	require.Equal(t, "graphql.schema.build", span.Name())
	require.Equal(t, codes.Error, span.Status().Code)

	var names []string
	for _, e := range span.Events() {
		names = append(names, e.Name)
	}
	require.Equal(t, []string{"graphql.schema.built", "exception"}, names)
}

func TestSetupDisabled(t *testing.T) {
	shutdown, err := Setup("", "graphplug")
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))
}
