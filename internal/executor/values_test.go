package executor

import (
	"testing"

	language "github.com/hanpama/graphplug/internal/language"
	schema "github.com/hanpama/graphplug/internal/schema"
	"github.com/stretchr/testify/require"
)

const valuesSDL = `
enum SortOrder { ASC DESC }
input FilterInput { required: String! optional: Int limit: Int = 10 }
input OneOfInput @oneOf { id: ID name: String }
type Query {
	search(filter: FilterInput, ids: [ID!], sort: SortOrder = ASC, first: Int!): [String]
}
`

func TestCoerceValue(t *testing.T) {
	sch, err := schema.BuildFromSDL(valuesSDL)
	require.NoError(t, err)
	ref := func(s string) *schema.TypeRef {
		doc := mustParseQuery(t, "query($v: "+s+") { __typename }")
		return schema.TypeRefFromAST(doc.Operations[0].VariableDefinitions[0].Type)
	}

	cases := []struct {
		name  string
		typ   string
		value any
		want  any
		err   string
	}{
		{"int from json number", "Int", float64(42), 42, ""},
		{"int from fraction", "Int", 4.5, nil, "cannot coerce 4.5 (float64) to int"},
		{"int from string", "Int!", "42", nil, "cannot coerce 42 (string) to int"},
		{"float from int", "Float", 3, float64(3), ""},
		{"string", "String", "x", "x", ""},
		{"string from number", "String", 1, nil, "cannot coerce 1 (int) to string"},
		{"boolean", "Boolean", true, true, ""},
		{"id from int", "ID", 7, "7", ""},
		{"id from json number", "ID", float64(12), "12", ""},
		{"null for nullable", "Int", nil, nil, ""},
		{"null for non-null", "Int!", nil, nil, "cannot provide null for non-null type"},
		{"single value to list", "[ID!]", "a", []any{"a"}, ""},
		{"list items", "[ID!]", []any{"a", 1}, []any{"a", "1"}, ""},
		{"null list item", "[ID!]", []any{"a", nil}, nil, "cannot provide null for non-null type"},
		{"enum name", "SortOrder", "DESC", "DESC", ""},
		{"unknown enum value", "SortOrder", "UP", nil, "value UP is not a member of enum SortOrder"},
		{"custom scalar passes through", "DateTime", "2024-05-01", "2024-05-01", ""},
		{
			"input object with default",
			"FilterInput", map[string]any{"required": "x"},
			map[string]any{"required": "x", "limit": int64(10)}, "",
		},
		{
			"input object missing required field",
			"FilterInput!", map[string]any{"optional": 10},
			nil, "required field 'required' of FilterInput was not provided",
		},
		{
			"input object unknown field",
			"FilterInput", map[string]any{"required": "x", "other": 1},
			nil, "field 'other' is not defined by FilterInput",
		},
		{
			"input object nested failure",
			"FilterInput", map[string]any{"required": "x", "optional": "ten"},
			nil, "field 'optional' of FilterInput: cannot coerce ten (string) to int",
		},
		{"input object from scalar", "FilterInput", "x", nil, "expected an object for FilterInput, got string"},
		{"one of", "OneOfInput", map[string]any{"id": "1"}, map[string]any{"id": "1"}, ""},
		{"one of with two fields", "OneOfInput", map[string]any{"id": "1", "name": "a"}, nil, "exactly one field of OneOfInput must be provided"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerceValue(sch, tc.value, ref(tc.typ))
			if tc.err != "" {
				require.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestCoerceArgumentValues(t *testing.T) {
	sch, err := schema.BuildFromSDL(valuesSDL)
	require.NoError(t, err)
	field := sch.GetQueryType().GetOrderedFields()[0]
	arguments := func(query string) language.ArgumentList {
		doc := mustParseQuery(t, query)
		return doc.Operations[0].SelectionSet[0].(*language.Field).Arguments
	}

	t.Run("defaults and omitted variables", func(t *testing.T) {
		args := arguments(`query($ids: [ID!]) { search(ids: $ids, first: 2) }`)
		got, err := coerceArgumentValues(sch, field, args, map[string]any{})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"sort": "ASC", "first": 2}, got)
	})

	t.Run("variables and enum literals", func(t *testing.T) {
		args := arguments(`query($ids: [ID!]) { search(ids: $ids, sort: DESC, first: 1) }`)
		got, err := coerceArgumentValues(sch, field, args, map[string]any{"ids": []any{"a"}})
		require.NoError(t, err)
		require.Equal(t, map[string]any{"ids": []any{"a"}, "sort": "DESC", "first": 1}, got)
	})

	t.Run("missing required argument", func(t *testing.T) {
		args := arguments(`{ search }`)
		_, err := coerceArgumentValues(sch, field, args, nil)
		require.EqualError(t, err, "argument 'first' of required type was not provided")
	})

	t.Run("invalid literal", func(t *testing.T) {
		args := arguments(`{ search(first: "one") }`)
		_, err := coerceArgumentValues(sch, field, args, nil)
		require.EqualError(t, err, "argument 'first' cannot be coerced: cannot coerce one (string) to int")
	})
}

func TestCoerceVariableValues(t *testing.T) {
	sch, err := schema.BuildFromSDL(valuesSDL)
	require.NoError(t, err)
	doc := mustParseQuery(t, `query($filter: FilterInput!, $count: Int = 3, $sort: SortOrder) { __typename }`)
	op := doc.Operations[0]

	got, err := coerceVariableValues(sch, op, map[string]any{"filter": map[string]any{"required": "x"}})
	require.NoError(t, err)
	require.Equal(t, map[string]any{
		"filter": map[string]any{"required": "x", "limit": int64(10)},
		"count":  3,
	}, got)

	_, err = coerceVariableValues(sch, op, map[string]any{"filter": map[string]any{"optional": 10}})
	require.ErrorContains(t, err, "required field 'required'")

	_, err = coerceVariableValues(sch, op, map[string]any{"filter": map[string]any{"required": "x"}, "count": "42"})
	require.ErrorContains(t, err, "cannot coerce")
}
