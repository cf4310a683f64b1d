package executor

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	schema "github.com/hanpama/graphplug/internal/schema"
	"github.com/stretchr/testify/require"
)

func TestOperationSelectionAndVariables(t *testing.T) {
	sch, err := schema.BuildFromSDL(`type Query { a: String b: String echo(v: Int): Int }`)
	require.NoError(t, err)
	rt := NewMockRuntime(map[string]MockResolver{
		"Query.a": NewMockValueResolver("A"),
		"Query.b": NewMockValueResolver("B"),
		"Query.echo": func(_ context.Context, _ *ResolveInfo, _ any, args map[string]any) (any, error) {
			return args["v"], nil
		},
	})
	failed := func(msg string) *ExecutionResult {
		return &ExecutionResult{Errors: []GraphQLError{{Message: msg}}}
	}

	cases := []struct {
		name      string
		query     string
		operation string
		variables map[string]any
		want      *ExecutionResult
	}{
		{
			name:  "anonymous operation",
			query: "{ a }",
			want:  &ExecutionResult{Data: map[string]any{"a": "A"}, Errors: []GraphQLError{}},
		},
		{
			name:  "single named operation selected without a name",
			query: "query Foo { a }",
			want:  &ExecutionResult{Data: map[string]any{"a": "A"}, Errors: []GraphQLError{}},
		},
		{
			name:      "operation selected by name",
			query:     "query Foo { a } query Bar { b }",
			operation: "Bar",
			want:      &ExecutionResult{Data: map[string]any{"b": "B"}, Errors: []GraphQLError{}},
		},
		{
			name:  "document without operations",
			query: "fragment F on Query { a }",
			want:  failed("operation not found"),
		},
		{
			name:  "several operations and no name",
			query: "query Foo { a } query Bar { b }",
			want:  failed("operation not found"),
		},
		{
			name:      "unknown operation name",
			query:     "query Foo { a } query Bar { b }",
			operation: "Baz",
			want:      failed("operation not found"),
		},
		{
			name:      "provided variable",
			query:     "query($v: Int!) { echo(v: $v) }",
			variables: map[string]any{"v": 3},
			want:      &ExecutionResult{Data: map[string]any{"echo": 3}, Errors: []GraphQLError{}},
		},
		{
			name:  "variable default",
			query: "query($v: Int = 5) { echo(v: $v) }",
			want:  &ExecutionResult{Data: map[string]any{"echo": 5}, Errors: []GraphQLError{}},
		},
		{
			name:  "missing required variable",
			query: "query($v: Int!) { echo(v: $v) }",
			want:  failed("variable $v of required type Int! was not provided"),
		},
		{
			name:      "null for non-null variable",
			query:     "query($v: Int!) { echo(v: $v) }",
			variables: map[string]any{"v": nil},
			want:      failed("variable $v of type Int! cannot be null"),
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := mustParseQuery(t, tc.query)
			got := NewExecutor(rt, sch).ExecuteRequest(context.Background(), doc, tc.operation, tc.variables, nil)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
