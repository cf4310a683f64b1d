package entity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func storages(t *testing.T) map[string]Storage {
	t.Helper()
	db, err := OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Storage{
		"memory": NewMemoryStorage(),
		"sqlite": db,
	}
}

func ids(entities []*Entity) []string {
	out := make([]string, len(entities))
	for i, e := range entities {
		out[i] = e.ID
	}
	return out
}

func TestStorage(t *testing.T) {
	for name, store := range storages(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			article := &Entity{Type: "node", Bundle: "article", Values: map[string]any{"title": "Hello"}}
			require.NoError(t, store.Save(ctx, article))
			require.Equal(t, "1", article.ID)
			require.NotEmpty(t, article.UUID)
			require.Equal(t, DefaultLanguage, article.Language)
			require.False(t, article.Created.IsZero())

			page := &Entity{
				Type:         "node",
				Bundle:       "page",
				Language:     "de",
				Created:      time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
				Values:       map[string]any{"title": "Über uns"},
				Translations: map[string]map[string]any{"en": {"title": "About"}},
			}
			require.NoError(t, store.Save(ctx, page))
			require.Equal(t, "2", page.ID)

			user := &Entity{Type: "user", Values: map[string]any{"name": "alice"}}
			require.NoError(t, store.Save(ctx, user))
			require.Equal(t, "1", user.ID, "ids are allocated per entity type")

			t.Run("load", func(t *testing.T) {
				got, err := store.Load(ctx, "node", "2")
				require.NoError(t, err)
				require.Equal(t, "page", got.Bundle)
				require.Equal(t, "de", got.Language)
				require.Equal(t, page.UUID, got.UUID)
				require.True(t, page.Created.Equal(got.Created))
				require.Equal(t, "Über uns", got.Values["title"])
				require.Equal(t, "About", got.Translations["en"]["title"])

				_, err = store.Load(ctx, "node", "3")
				require.ErrorIs(t, err, ErrNotFound)
				_, err = store.Load(ctx, "node", "abc")
				require.ErrorIs(t, err, ErrNotFound)
				_, err = store.Load(ctx, "user", "2")
				require.ErrorIs(t, err, ErrNotFound)
			})

			t.Run("loaded entities are copies", func(t *testing.T) {
				got, err := store.Load(ctx, "node", "1")
				require.NoError(t, err)
				got.Values["title"] = "changed"
				again, err := store.Load(ctx, "node", "1")
				require.NoError(t, err)
				require.Equal(t, "Hello", again.Values["title"])
			})

			t.Run("query", func(t *testing.T) {
				for _, title := range []string{"Third", "Fourth", "Fifth"} {
					require.NoError(t, store.Save(ctx, &Entity{Type: "node", Bundle: "article", Values: map[string]any{"title": title}}))
				}
				cases := []struct {
					name  string
					q     Query
					want  []string
					total int
				}{
					{"all", Query{Type: "node"}, []string{"1", "2", "3", "4", "5"}, 5},
					{"page", Query{Type: "node", Offset: 1, Limit: 2}, []string{"2", "3"}, 5},
					{"past the end", Query{Type: "node", Offset: 10, Limit: 2}, []string{}, 5},
					{"bundle", Query{Type: "node", Bundle: "article", Limit: 3}, []string{"1", "3", "4"}, 4},
					{"descending", Query{Type: "node", Limit: 2, Descending: true}, []string{"5", "4"}, 5},
					{"other type", Query{Type: "user"}, []string{"1"}, 1},
					{"unknown type", Query{Type: "comment"}, []string{}, 0},
				}
				for _, tc := range cases {
					t.Run(tc.name, func(t *testing.T) {
						got, total, err := store.Query(ctx, tc.q)
						require.NoError(t, err)
						require.Equal(t, tc.want, ids(got))
						require.Equal(t, tc.total, total)
					})
				}
			})

			t.Run("update", func(t *testing.T) {
				got, err := store.Load(ctx, "node", "1")
				require.NoError(t, err)
				got.Values["title"] = "Hello again"
				require.NoError(t, store.Save(ctx, got))
				require.Equal(t, "1", got.ID)
				again, err := store.Load(ctx, "node", "1")
				require.NoError(t, err)
				require.Equal(t, "Hello again", again.Values["title"])
				require.Equal(t, article.UUID, again.UUID)
			})

			t.Run("delete", func(t *testing.T) {
				require.NoError(t, store.Delete(ctx, "node", "2"))
				require.ErrorIs(t, store.Delete(ctx, "node", "2"), ErrNotFound)
				_, err := store.Load(ctx, "node", "2")
				require.ErrorIs(t, err, ErrNotFound)
				_, total, err := store.Query(ctx, Query{Type: "node"})
				require.NoError(t, err)
				require.Equal(t, 4, total)
			})
		})
	}
}
