package entity

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func loadTestModel(t *testing.T) *Model {
	t.Helper()
	m, err := LoadModel("testdata/model.yaml")
	require.NoError(t, err)
	return m
}

func TestLoadModel(t *testing.T) {
	m := loadTestModel(t)
	require.Len(t, m.EntityTypes, 3)

	node, ok := m.EntityType("node")
	require.True(t, ok)
	require.True(t, node.HasBundles())
	require.True(t, node.Translatable)

	var names []string
	for _, f := range node.FieldsOf("article") {
		names = append(names, f.Name)
	}
	require.Equal(t, []string{"title", "body", "tags"}, names)
	require.Len(t, node.FieldsOf("missing"), 1)

	title := node.Fields[0]
	require.True(t, title.Required())
	require.Equal(t, "String", title.Descriptor().Base)

	article, ok := node.Bundle("article")
	require.True(t, ok)
	tags := article.Fields[1]
	require.False(t, tags.Required())

	view, ok := m.EntityType("view")
	require.True(t, ok)
	require.False(t, view.Content)
	require.Equal(t, "View", view.Label)

	_, ok = m.EntityType("comment")
	require.False(t, ok)

	_, err := LoadModel("testdata/missing.yaml")
	require.ErrorContains(t, err, "read model")
}

func TestParseModelErrors(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"syntax", "entity_types: [", "parse model"},
		{"machine name", "entity_types: [{id: Node}]", `entity type "Node": invalid machine name`},
		{"duplicate type", "entity_types: [{id: node}, {id: node}]", "entity type node is declared twice"},
		{"bundles without key", "entity_types: [{id: node, bundles: [{id: page}]}]", "entity type node has bundles but no bundle key"},
		{"bundle name", "entity_types: [{id: node, bundle_key: type, bundles: [{id: 'a-b'}]}]", `bundle node:"a-b": invalid machine name`},
		{"duplicate bundle", "entity_types: [{id: node, bundle_key: type, bundles: [{id: page}, {id: page}]}]", "bundle node:page is declared twice"},
		{"field name", "entity_types: [{id: node, fields: [{name: Title, type: String}]}]", `field node."Title": invalid machine name`},
		{"duplicate field", "entity_types: [{id: node, fields: [{name: title, type: String}, {name: title, type: Int}]}]", "field node.title is declared twice"},
		{
			"field shadowed by bundle",
			"entity_types: [{id: node, bundle_key: type, fields: [{name: title, type: String}], bundles: [{id: page, fields: [{name: title, type: String}]}]}]",
			"field node:page.title is declared twice",
		},
		{"reserved prefix", "entity_types: [{id: node, fields: [{name: entity_id, type: String}]}]", "the entity_ prefix is reserved"},
		{"bad descriptor", "entity_types: [{id: node, fields: [{name: title, type: 'String!!'}]}]", "field node.title"},
		{"unsupported type", "entity_types: [{id: node, fields: [{name: owner, type: User}]}]", "field node.owner: unsupported type User"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseModel([]byte(tc.yaml))
			require.ErrorContains(t, err, tc.want)
		})
	}
}

func TestNaming(t *testing.T) {
	cases := []struct {
		parts []string
		camel string
		prop  string
	}{
		{[]string{"node"}, "Node", "node"},
		{[]string{"taxonomy_term"}, "TaxonomyTerm", "taxonomyTerm"},
		{[]string{"node", "article"}, "NodeArticle", "nodeArticle"},
		{[]string{"field_tags"}, "FieldTags", "fieldTags"},
		{[]string{"last_login"}, "LastLogin", "lastLogin"},
		{[]string{"block_content", "basic-2"}, "BlockContentBasic2", "blockContentBasic2"},
		{[]string{""}, "", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.camel, CamelCase(tc.parts...), tc.parts)
		require.Equal(t, tc.prop, PropCase(tc.parts...), tc.parts)
	}
}
