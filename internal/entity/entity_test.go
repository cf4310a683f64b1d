package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntityTranslation(t *testing.T) {
	e := &Entity{
		Type:     "node",
		Bundle:   "article",
		ID:       "7",
		Language: "en",
		Values:   map[string]any{"title": "Hello", "body": "Text"},
		Translations: map[string]map[string]any{
			"fr": {"title": "Bonjour"},
			"de": {"title": "Hallo", "body": "Inhalt"},
		},
	}

	require.Equal(t, "entity:node:article", e.DataType())
	require.Equal(t, "node:7", e.CacheTag())
	require.Equal(t, "node_list", ListCacheTag("node"))
	require.Equal(t, []string{"en", "de", "fr"}, e.Languages())

	require.True(t, e.HasTranslation("en"))
	require.True(t, e.HasTranslation("fr"))
	require.False(t, e.HasTranslation("es"))

	fr := e.Translation("fr")
	require.Equal(t, "fr", fr.Language)
	require.Equal(t, "Bonjour", fr.Values["title"])
	require.Equal(t, "Text", fr.Values["body"], "untranslated fields keep their value")
	require.Equal(t, "Hello", e.Values["title"], "the original is left alone")

	require.Same(t, e, e.Translation("en"))
	require.Same(t, e, e.Translation("es"))
	require.Same(t, e, e.Translation(""))
}

func TestEntityLabel(t *testing.T) {
	node := &EntityType{ID: "node", LabelKey: "title"}
	e := &Entity{Type: "node", ID: "7", Values: map[string]any{"title": "Hello"}}
	require.Equal(t, "Hello", e.Label(node))
	require.Equal(t, "node 7", e.Label(&EntityType{ID: "node"}))
	require.Equal(t, "node 7", e.Label(nil))

	v, ok := e.FieldValue("title")
	require.True(t, ok)
	require.Equal(t, "Hello", v)
	_, ok = e.FieldValue("body")
	require.False(t, ok)

	require.Equal(t, "entity:user", (&Entity{Type: "user"}).DataType())
}
