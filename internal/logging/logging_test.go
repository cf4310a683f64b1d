package logging

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	eventbus "github.com/hanpama/graphplug/internal/eventbus"
	events "github.com/hanpama/graphplug/internal/events"
	reqid "github.com/hanpama/graphplug/internal/reqid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T, level zapcore.Level) (*eventbus.Bus, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(level)
	b := eventbus.New()
	t.Cleanup(Subscribe(b, zap.New(core)))
	return b, logs
}

func TestRequestLogging(t *testing.T) {
	b, logs := observe(t, zapcore.InfoLevel)
	ctx, _ := reqid.WithID(context.Background(), "6f1c44c6-5a0f-4e58-9f5e-3c0b7f1b1d2a")
	r := httptest.NewRequest("POST", "/graphql", nil)

	eventbus.PublishTo(ctx, b, events.GraphQLStart{OperationName: "Q", OperationType: "query"})
	eventbus.PublishTo(ctx, b, events.GraphQLFinish{OperationName: "Q", OperationType: "query", CacheControl: "public"})
	eventbus.PublishTo(ctx, b, events.GraphQLFinish{OperationName: "M", OperationType: "mutation", Errors: []error{errors.New("boom")}})
	eventbus.PublishTo(ctx, b, events.HTTPFinish{Request: r, Status: 200})

	entries := logs.All()
	require.Len(t, entries, 3)

	require.Equal(t, "graphql operation", entries[0].Message)
	require.Equal(t, "public", entries[0].ContextMap()["cache_control"])
	require.Equal(t, "6f1c44c6-5a0f-4e58-9f5e-3c0b7f1b1d2a", entries[0].ContextMap()["request_id"])

	require.Equal(t, "graphql operation failed", entries[1].Message)
	require.Equal(t, zapcore.WarnLevel, entries[1].Level)

	require.Equal(t, "http request", entries[2].Message)
	require.EqualValues(t, 200, entries[2].ContextMap()["status"])
	require.Equal(t, "/graphql", entries[2].ContextMap()["path"])
}

func TestSchemaLogging(t *testing.T) {
	b, logs := observe(t, zapcore.DebugLevel)
	ctx := context.Background()

	eventbus.PublishTo(ctx, b, events.TypeBuilt{Kind: "type", ID: "object:node", Name: "Node"})
	eventbus.PublishTo(ctx, b, events.SchemaBuildFinish{Types: 2})
	eventbus.PublishTo(ctx, b, events.SchemaBuildFinish{Err: errors.New("missing type Foo")})

	require.Equal(t, 1, logs.FilterMessage("reference built").Len())
	require.Equal(t, 1, logs.FilterMessage("schema built").Len())
	failed := logs.FilterMessage("schema build failed").All()
	require.Len(t, failed, 1)
	require.Equal(t, "missing type Foo", failed[0].ContextMap()["error"])
}

func TestNew(t *testing.T) {
	logger, err := New("warn", false)
	require.NoError(t, err)
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	require.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	logger, err = New("", true)
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zapcore.DebugLevel))

	_, err = New("loud", false)
	require.Error(t, err)
}

func TestSubscribeNil(t *testing.T) {
	Subscribe(nil, zap.NewNop())()
	Subscribe(eventbus.New(), nil)()
}
