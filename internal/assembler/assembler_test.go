package assembler

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/hanpama/graphplug/internal/eventbus"
	"github.com/hanpama/graphplug/internal/events"
	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/language"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
	"github.com/stretchr/testify/require"
)

type testNode struct {
	dataType string
	id       string
	title    string
}

func (n testNode) DataType() string { return n.dataType }

func (n testNode) FieldValue(name string) (any, bool) {
	switch name {
	case "id":
		return n.id, true
	case "title":
		return n.title, true
	}
	return nil, false
}

var testNodes = map[string]testNode{
	"1": {dataType: "entity:node:article", id: "1", title: "Hello"},
	"2": {dataType: "entity:node:page", id: "2", title: "About"},
	"3": {dataType: "entity:node:event", id: "3", title: "Launch"},
}

func fixtureDefinition(withMutation bool) *Definition {
	def := NewDefinition()
	def.CacheTags = []string{"graphql_schema"}
	def.CacheMaxAge = 3600
	def.AddType(&TypeReference{ID: "interface:node", Kind: KindInterface, Class: DefaultClass, Definition: &TypeDefinition{
		Name:                  "Node",
		Type:                  "entity:node",
		Description:           "The 'Content' entity type.",
		ResponseCacheContexts: []string{"user.node_grants:view"},
	}})
	for _, bundle := range []struct{ id, name string }{{"article", "NodeArticle"}, {"page", "NodePage"}} {
		def.AddType(&TypeReference{ID: "object:node:" + bundle.id, Kind: KindObject, Class: DefaultClass, Definition: &TypeDefinition{
			Name:       bundle.name,
			Type:       "entity:node:" + bundle.id,
			Interfaces: []string{"entity:node"},
		}})
		def.Alias("entity:node:"+bundle.id, bundle.name)
		def.Associate("Node", "entity:node:"+bundle.id)
	}
	def.Alias("entity:node", "Node")
	for _, owner := range []string{"Node", "NodeArticle", "NodePage"} {
		def.AddField(&FieldReference{ID: owner + ".id", Class: DefaultClass, Owner: owner, Definition: &FieldDefinition{Name: "id", Type: MustParseTypeDescriptor("ID!")}})
		def.AddField(&FieldReference{ID: owner + ".title", Class: DefaultClass, Owner: owner, Definition: &FieldDefinition{Name: "title", Type: Named("String")}})
		def.AddField(&FieldReference{ID: owner + ".language", Class: "language", Owner: owner, Definition: &FieldDefinition{Name: "language", Type: Named("String")}})
	}
	def.AddField(&FieldReference{ID: "root.node", Class: "load", Owner: RootType, Definition: &FieldDefinition{
		Name: "node",
		Type: Named("entity:node"),
		Arguments: []ArgumentDefinition{
			{Name: "id", Type: MustParseTypeDescriptor("ID!")},
			{Name: "language", Type: Named("String")},
		},
	}})
	def.AddField(&FieldReference{ID: "root.requiredNode", Class: "load", Owner: RootType, Definition: &FieldDefinition{
		Name:      "requiredNode",
		Type:      MustParseTypeDescriptor("entity:node!"),
		Arguments: []ArgumentDefinition{{Name: "id", Type: MustParseTypeDescriptor("ID!")}},
	}})
	if withMutation {
		def.AddMutation(&MutationReference{ID: "mutation.publish", Class: "publish", Definition: &FieldDefinition{
			Name:      "publish",
			Type:      Named("entity:node:article"),
			Arguments: []ArgumentDefinition{{Name: "title", Type: MustParseTypeDescriptor("String!")}},
		}})
	}
	return def
}

func fixtureManagers() *Managers {
	m := DefaultManagers()
	m.Fields.RegisterResolver("load", func(_ context.Context, _ any, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
		if lang, ok := args["language"].(string); ok {
			rc.SetContext("language", lang, info.OperationName, info.Path)
		}
		n, ok := testNodes[args["id"].(string)]
		if !ok {
			return nil, nil
		}
		return n, nil
	})
	m.Fields.RegisterResolver("language", func(_ context.Context, _ any, _ map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
		return rc.GetContext("language", info.OperationName, info.Path, "und"), nil
	})
	m.Mutations.RegisterResolver("publish", func(_ context.Context, _ any, args map[string]any, rc *resolution.Context, _ *executor.ResolveInfo) (any, error) {
		rc.MergeCacheMaxAge(0)
		return testNode{dataType: "entity:node:article", id: "4", title: args["title"].(string)}, nil
	})
	return m
}

func newFixture(t *testing.T, withMutation bool) (*Assembler, *schema.Schema) {
	t.Helper()
	a, err := New(fixtureDefinition(withMutation), fixtureManagers())
	require.NoError(t, err)
	s, err := a.BuildSchema(context.Background())
	require.NoError(t, err)
	return a, s
}

func execute(t *testing.T, a *Assembler, s *schema.Schema, query string) (*executor.ExecutionResult, *resolution.Context) {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	rc := resolution.NewContext(nil)
	ctx := resolution.WithContext(context.Background(), rc)
	return executor.NewExecutor(a.Runtime(), s).ExecuteRequest(ctx, doc, "", nil, nil), rc
}

func TestBuildSchemaRoots(t *testing.T) {
	t.Run("with mutation", func(t *testing.T) {
		_, s := newFixture(t, true)
		require.Equal(t, QueryRootName, s.GetQueryType().Name)
		require.NotNil(t, s.GetMutationType())
		require.Equal(t, MutationRootName, s.GetMutationType().Name)

		var query, mutation []string
		for _, f := range s.GetQueryType().GetOrderedFields() {
			query = append(query, f.Name)
		}
		for _, f := range s.GetMutationType().GetOrderedFields() {
			mutation = append(mutation, f.Name)
		}
		require.Equal(t, []string{"node", "requiredNode"}, query)
		require.Equal(t, []string{"publish"}, mutation)
	})
	t.Run("without mutation", func(t *testing.T) {
		_, s := newFixture(t, false)
		require.NotNil(t, s.GetQueryType())
		require.Nil(t, s.GetMutationType())
		require.Empty(t, s.MutationType)
	})
}

func TestBuildSchemaIsLazy(t *testing.T) {
	a, s := newFixture(t, false)
	require.NotNil(t, s.Types["NodeArticle"])

	_, ok := a.Registry().FieldPlugin(nil)
	require.False(t, ok)
	require.Zero(t, len(a.Registry().byField))

	require.NotEmpty(t, s.Types["NodeArticle"].GetOrderedFields())
	require.Len(t, a.Registry().byField, 3)

	again, err := a.BuildSchema(context.Background())
	require.NoError(t, err)
	require.Same(t, s, again)
}

func TestTypeLoaderFallsBack(t *testing.T) {
	_, s := newFixture(t, false)

	typ, err := s.LoadType("entity:node:article")
	require.NoError(t, err)
	require.Same(t, s.Types["NodeArticle"], typ)

	typ, err = s.LoadType("entity:node:event")
	require.NoError(t, err)
	require.Same(t, s.Types["Node"], typ)

	_, err = s.LoadType("entity:user")
	require.ErrorIs(t, err, ErrUnknownType)
}

func TestExecuteEndToEnd(t *testing.T) {
	a, s := newFixture(t, true)

	res, rc := execute(t, a, s, `{
		a: node(id: "1", language: "de") { __typename id title language ... on NodeArticle { title } }
		b: node(id: "2") { __typename id language }
		c: node(id: "3") { id }
		d: node(id: "404") { id }
	}`)

	want := &executor.ExecutionResult{
		Data: map[string]any{
			"a": map[string]any{"__typename": "NodeArticle", "id": "1", "title": "Hello", "language": "de"},
			"b": map[string]any{"__typename": "NodePage", "id": "2", "language": "und"},
			"c": nil,
			"d": nil,
		},
		Errors: []executor.GraphQLError{{
			Message:    "could not resolve the concrete type of a Node value (assembler.testNode)",
			Path:       executor.Path{"c"},
			Extensions: map[string]any{"code": "UNRESOLVABLE_ABSTRACT_TYPE", "abstractType": "Node"},
		}},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []string{"user.node_grants:view"}, rc.Cacheability().Contexts)
}

func TestExecuteNonNullUnresolvable(t *testing.T) {
	a, s := newFixture(t, false)
	res, _ := execute(t, a, s, `{ requiredNode(id: "3") { id } other: node(id: "1") { id } }`)
	require.Nil(t, res.Data)
	require.Len(t, res.Errors, 1)
	require.Equal(t, executor.Path{"requiredNode"}, res.Errors[0].Path)
}

func TestExecuteMutation(t *testing.T) {
	a, s := newFixture(t, true)
	res, rc := execute(t, a, s, `mutation { publish(title: "New") { __typename id title } }`)
	require.Empty(t, res.Errors)
	require.Equal(t, map[string]any{"publish": map[string]any{"__typename": "NodeArticle", "id": "4", "title": "New"}}, res.Data)
	require.Equal(t, 0, rc.Cacheability().MaxAge)

	a, s = newFixture(t, false)
	res, _ = execute(t, a, s, `mutation { publish(title: "New") { id } }`)
	require.Equal(t, "root type not found for mutation operation", res.Errors[0].Message)
}

func TestExecuteWithoutResolutionContext(t *testing.T) {
	a, s := newFixture(t, false)
	doc, err := language.ParseQuery(`{ node(id: "1") { id } }`)
	require.NoError(t, err)
	res := executor.NewExecutor(a.Runtime(), s).ExecuteRequest(context.Background(), doc, "", nil, nil)
	require.Len(t, res.Errors, 1)
	require.Equal(t, ErrNoResolutionContext.Error(), res.Errors[0].Message)
}

func TestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		a, _ := newFixture(t, true)
		require.NoError(t, a.Validate(context.Background()))
	})
	t.Run("unknown field type is rejected before building", func(t *testing.T) {
		def := fixtureDefinition(false)
		def.AddField(&FieldReference{ID: "root.broken", Class: DefaultClass, Owner: RootType, Definition: &FieldDefinition{Name: "broken", Type: Named("NoSuchType")}})
		a, err := New(def, fixtureManagers())
		require.Nil(t, a)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
		require.Equal(t, []string{"field root.broken of Root has unknown type NoSuchType"}, defErr.Problems)
	})
	t.Run("factory failure surfaces on validate", func(t *testing.T) {
		m := fixtureManagers()
		m.Fields.Register("broken", func(Builder, *FieldManager, *FieldDefinition, string) (FieldPlugin, error) {
			return nil, errors.New("no author storage")
		})
		def := fixtureDefinition(false)
		def.AddField(&FieldReference{ID: "NodePage.author", Class: "broken", Owner: "NodePage", Definition: &FieldDefinition{Name: "author", Type: Named("String")}})
		a, err := New(def, m)
		require.NoError(t, err)
		err = a.Validate(context.Background())
		require.ErrorContains(t, err, "no author storage")
	})
	t.Run("invalid definition", func(t *testing.T) {
		def := fixtureDefinition(false)
		def.Alias("entity:user", "User")
		_, err := New(def, nil)
		var defErr *DefinitionError
		require.ErrorAs(t, err, &defErr)
	})
}

func TestRenderAssembledSchema(t *testing.T) {
	_, s := newFixture(t, true)
	got, err := schema.Render(s)
	require.NoError(t, err)

	want := `schema {
  query: QueryRoot
  mutation: MutationRoot
}

"""
The schema's entry-point for mutations.
"""
type MutationRoot {
  publish(title: String!): NodeArticle
}

"""
The 'Content' entity type.
"""
interface Node {
  id: ID!
  title: String
  language: String
}

type NodeArticle implements Node {
  id: ID!
  title: String
  language: String
}

type NodePage implements Node {
  id: ID!
  title: String
  language: String
}

"""
The schema's entry-point for queries.
"""
type QueryRoot {
  node(id: ID!, language: String): Node
  requiredNode(id: ID!): Node!
}
`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SDL mismatch (-want +got):\n%s", diff)
	}
}

func TestCacheability(t *testing.T) {
	a, _ := newFixture(t, false)
	require.Equal(t, []string{"graphql_schema"}, a.CacheTags())
	require.Equal(t, 3600, a.CacheMaxAge())
	require.Empty(t, a.CacheContexts())
	require.Equal(t, "public, max-age=3600", a.Cacheability().CacheControl())

	a.CacheTags()[0] = "mutated"
	require.Equal(t, []string{"graphql_schema"}, a.CacheTags())
}

func TestBuildEvents(t *testing.T) {
	prev := eventbus.Current()
	t.Cleanup(func() { eventbus.Use(prev) })
	eventbus.Use(eventbus.New())

	var started, finished int
	var built []string
	eventbus.Subscribe(func(context.Context, events.SchemaBuildStart) { started++ })
	eventbus.Subscribe(func(_ context.Context, e events.SchemaBuildFinish) {
		finished++
		require.NoError(t, e.Err)
		require.Equal(t, 3, e.Types)
	})
	eventbus.Subscribe(func(_ context.Context, e events.TypeBuilt) { built = append(built, e.Kind+" "+e.Name) })

	a, s := newFixture(t, false)
	_, err := a.BuildSchema(context.Background())
	require.NoError(t, err)
	s.Types["NodePage"].GetOrderedFields()

	require.Equal(t, 1, started)
	require.Equal(t, 1, finished)
	require.Equal(t, []string{
		"type Node",
		"type NodeArticle",
		"type NodePage",
		"field NodePage.id",
		"field NodePage.title",
		"field NodePage.language",
	}, built)
}

func TestBuildSchemaFailure(t *testing.T) {
	m := fixtureManagers()
	boom := errors.New("boom")
	m.Types[KindInterface].Register(DefaultClass, func(Builder, *TypeManager, *TypeDefinition, string) (TypePlugin, error) {
		return nil, boom
	})
	a, err := New(fixtureDefinition(false), m)
	require.NoError(t, err)
	_, err = a.BuildSchema(context.Background())
	require.ErrorIs(t, err, boom)
	require.ErrorIs(t, a.Validate(context.Background()), boom)
}
