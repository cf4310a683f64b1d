package resolution

import (
	"context"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestContextScoping(t *testing.T) {
	rc := NewContext(nil)
	rc.SetContext("x", 1, "op", []any{"a", "b"})

	cases := []struct {
		name string
		op   string
		path []any
		want any
	}{
		{"same path", "op", []any{"a", "b"}, 1},
		{"descendant", "op", []any{"a", "b", "c"}, 1},
		{"deep descendant", "op", []any{"a", "b", "c", 3, "d"}, 1},
		{"ancestor", "op", []any{"a"}, nil},
		{"sibling", "op", []any{"a", "c"}, nil},
		{"other operation", "otherOp", []any{"a", "b", "c"}, nil},
		{"empty path", "op", []any{}, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, rc.GetContext("x", tc.op, tc.path, nil))
		})
	}
}

func TestContextNearestAncestorWins(t *testing.T) {
	rc := NewContext(nil)
	rc.SetContext("language", "en", "q", []any{"node"})
	rc.SetContext("language", "de", "q", []any{"node", "translation"})

	require.Equal(t, "en", rc.GetContext("language", "q", []any{"node", "title"}, "und"))
	require.Equal(t, "de", rc.GetContext("language", "q", []any{"node", "translation", "title"}, "und"))
	require.Equal(t, "en", rc.GetContext("language", "q", []any{"node"}, "und"))
	require.Equal(t, "und", rc.GetContext("language", "q", []any{"other"}, "und"))
}

func TestContextListIndices(t *testing.T) {
	rc := NewContext(nil)
	rc.SetContext("x", "first", "q", []any{"items", 0})
	require.Equal(t, "first", rc.GetContext("x", "q", []any{"items", 0, "name"}, nil))
	require.Nil(t, rc.GetContext("x", "q", []any{"items", 1, "name"}, nil))
	require.Equal(t, "items.0.name", PathKey([]any{"items", 0, "name"}))
}

func TestContextEmptyPath(t *testing.T) {
	rc := NewContext(nil)
	rc.SetContext("x", 1, "q", []any{})
	require.Equal(t, 1, rc.GetContext("x", "q", []any{}, nil))
	require.Equal(t, 1, rc.GetContext("x", "q", nil, nil))
	require.Nil(t, rc.GetContext("x", "q", []any{"a"}, nil))
	require.Nil(t, rc.GetContext("x", "other", []any{}, nil))
}

func TestContextOtherSegmentTypes(t *testing.T) {
	require.Equal(t, "a.3", PathKey([]any{"a", uint(3)}))
	require.Equal(t, "a.7.b", PathKey([]any{"a", int32(7), "b"}))

	rc := NewContext(nil)
	rc.SetContext("x", "third", "q", []any{"items", uint(3)})
	require.Equal(t, "third", rc.GetContext("x", "q", []any{"items", uint(3), "name"}, nil))
	require.Nil(t, rc.GetContext("x", "q", []any{"items", uint(7), "name"}, nil))
}

func TestContextGlobals(t *testing.T) {
	globals := map[string]any{"user": "alice"}
	rc := NewContext(globals)
	globals["user"] = "mallory"

	require.Equal(t, "alice", rc.Global("user", nil))
	require.Equal(t, "fallback", rc.Global("missing", "fallback"))
}

func TestContextConcurrentWrites(t *testing.T) {
	rc := NewContext(nil)
	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rc.SetContext("i", i, "batch", []any{"f", i})
			rc.AddCacheTags("tag")
		}()
	}
	wg.Wait()
	for i := range 16 {
		require.Equal(t, i, rc.GetContext("i", "batch", []any{"f", i}, nil))
	}
}

func TestWithContext(t *testing.T) {
	require.Nil(t, FromContext(context.Background()))
	rc := NewContext(nil)
	ctx := WithContext(context.Background(), rc)
	require.Same(t, rc, FromContext(ctx))
}

func TestCacheability(t *testing.T) {
	rc := NewContext(nil)
	require.Equal(t, Permanent, rc.Cacheability().MaxAge)

	rc.AddCacheTags("node:1", "node_list").
		AddCacheTags("node:1").
		AddCacheContexts("languages:language_content").
		MergeCacheMaxAge(300).
		MergeCacheMaxAge(Permanent).
		MergeCacheMaxAge(600)

	want := Cacheability{
		Tags:     []string{"node:1", "node_list"},
		Contexts: []string{"languages:language_content"},
		MaxAge:   300,
	}
	if diff := cmp.Diff(want, rc.Cacheability()); diff != "" {
		t.Fatalf("cacheability mismatch (-want +got):\n%s", diff)
	}

	merged := want.Merge(Cacheability{Tags: []string{"config:schema"}, MaxAge: 60})
	require.Equal(t, []string{"config:schema", "node:1", "node_list"}, merged.Tags)
	require.Equal(t, 60, merged.MaxAge)
	require.Equal(t, "public, max-age=60", merged.CacheControl())
	require.Equal(t, "no-cache", Cacheability{MaxAge: 0}.CacheControl())
	require.Equal(t, "public", Cacheability{MaxAge: Permanent}.CacheControl())
}
