package assembler

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
	"github.com/stretchr/testify/require"
)

func objectRef(id, name, dataType string) *TypeReference {
	return &TypeReference{ID: id, Kind: KindObject, Class: DefaultClass, Definition: &TypeDefinition{Name: name, Type: dataType}}
}

// countingManagers counts object type builds per id.
func countingManagers(counts *sync.Map) *Managers {
	m := DefaultManagers()
	m.Types[KindObject].Register("counted", func(b Builder, tm *TypeManager, def *TypeDefinition, id string) (TypePlugin, error) {
		n, _ := counts.LoadOrStore(id, new(atomic.Int32))
		n.(*atomic.Int32).Add(1)
		build, _ := tm.Factory(DefaultClass)
		return build(b, tm, def, id)
	})
	return m
}

func buildCount(counts *sync.Map, id string) int32 {
	n, ok := counts.Load(id)
	if !ok {
		return 0
	}
	return n.(*atomic.Int32).Load()
}

func TestResolveTypeIsIdentityStable(t *testing.T) {
	var counts sync.Map
	ref := objectRef("node", "Node", "node")
	ref.Class = "counted"
	r := NewRegistry(NewDefinition().AddType(ref), countingManagers(&counts))

	first, err := r.ResolveType("Node")
	require.NoError(t, err)
	second, err := r.ResolveType("Node")
	require.NoError(t, err)
	third, err := r.BuildType(ref)
	require.NoError(t, err)

	require.Same(t, first, second)
	require.Same(t, first, third)
	require.Same(t, first.Type(), third.Type())
	require.EqualValues(t, 1, buildCount(&counts, "node"))
}

func TestBuildTypeConcurrentFirstUse(t *testing.T) {
	var counts sync.Map
	ref := objectRef("node", "Node", "node")
	ref.Class = "counted"
	r := NewRegistry(NewDefinition().AddType(ref), countingManagers(&counts))

	var wg sync.WaitGroup
	built := make([]TypePlugin, 32)
	for i := range built {
		wg.Add(1)
		go func() {
			defer wg.Done()
			built[i], _ = r.BuildType(ref)
		}()
	}
	wg.Wait()

	for _, p := range built {
		require.Same(t, built[0], p)
	}
	require.EqualValues(t, 1, buildCount(&counts, "node"))
}

func TestBuildFieldAndMutationOnce(t *testing.T) {
	var fieldBuilds, mutationBuilds int
	m := DefaultManagers()
	m.Fields.Register("counted", func(b Builder, _ *FieldManager, def *FieldDefinition, _ string) (FieldPlugin, error) {
		fieldBuilds++
		return NewField(b, def, nil)
	})
	m.Mutations.Register("counted", func(b Builder, _ *MutationManager, def *FieldDefinition, _ string) (MutationPlugin, error) {
		mutationBuilds++
		return NewField(b, def, nil)
	})
	field := &FieldReference{ID: "root.answer", Class: "counted", Owner: RootType, Definition: &FieldDefinition{Name: "answer", Type: Named("Int")}}
	mutation := &MutationReference{ID: "touch", Class: "counted", Definition: &FieldDefinition{Name: "touch", Type: Named("Boolean")}}
	r := NewRegistry(NewDefinition().AddField(field).AddMutation(mutation), m)

	f1, err := r.BuildField(field)
	require.NoError(t, err)
	fields, err := r.FieldsForType(RootType)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	require.Same(t, f1, fields[0])

	m1, err := r.BuildMutation(mutation)
	require.NoError(t, err)
	all, err := r.AllMutations()
	require.NoError(t, err)
	require.Same(t, m1, all[0])

	require.Equal(t, 1, fieldBuilds)
	require.Equal(t, 1, mutationBuilds)

	p, ok := r.FieldPlugin(f1.Field())
	require.True(t, ok)
	require.Same(t, f1, p)
	_, ok = r.FieldPlugin(schema.NewField("answer", "", schema.NamedType("Int")))
	require.False(t, ok)
}

func TestBuildFailureIsRemembered(t *testing.T) {
	calls := 0
	m := DefaultManagers()
	m.Types[KindObject].Register("broken", func(Builder, *TypeManager, *TypeDefinition, string) (TypePlugin, error) {
		calls++
		return nil, context.Canceled
	})
	ref := objectRef("broken", "Broken", "")
	ref.Class = "broken"
	r := NewRegistry(NewDefinition().AddType(ref), m)

	_, err1 := r.BuildType(ref)
	_, err2 := r.BuildType(ref)
	require.ErrorIs(t, err1, context.Canceled)
	require.Equal(t, err1, err2)
	require.Equal(t, 1, calls)
}

func TestMissingFactory(t *testing.T) {
	ref := objectRef("node", "Node", "node")
	ref.Class = "nope"
	r := NewRegistry(NewDefinition().AddType(ref), DefaultManagers())

	_, err := r.BuildType(ref)
	var missing *MissingFactoryError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, &MissingFactoryError{Kind: "object", Class: "nope", ID: "node"}, missing)

	_, err = r.BuildField(&FieldReference{ID: "f", Class: "nope", Definition: &FieldDefinition{Name: "f", Type: Named("Int")}})
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "field", missing.Kind)
}

func TestFactoryMustBuildDeclaredName(t *testing.T) {
	m := DefaultManagers()
	m.Types[KindObject].Register("renaming", func(b Builder, tm *TypeManager, def *TypeDefinition, id string) (TypePlugin, error) {
		return NewObjectType(b, &TypeDefinition{Name: "Other"}, nil)
	})
	ref := objectRef("node", "Node", "node")
	ref.Class = "renaming"
	_, err := NewRegistry(NewDefinition().AddType(ref), m).BuildType(ref)
	require.ErrorContains(t, err, "built as Other instead of Node")
}

func TestResolveTypeFallback(t *testing.T) {
	node := objectRef("node", "node", "node")
	article := objectRef("node_article", "NodeArticle", "entity:node:article")
	entityNode := objectRef("entity_node", "EntityNode", "entity:node")

	cases := []struct {
		name    string
		types   []*TypeReference
		aliases map[string]string
		lookup  string
		want    string
	}{
		{"exact", []*TypeReference{node}, nil, "node", "node"},
		{"parent", []*TypeReference{node}, nil, "node:article", "node"},
		{"grandparent", []*TypeReference{node}, nil, "node:article:revision", "node"},
		{"alias", []*TypeReference{node}, map[string]string{"node:article": "node"}, "node:article", "node"},
		{"alias of parent", []*TypeReference{node}, map[string]string{"node:article": "node"}, "node:article:revision", "node"},
		{"specific alias wins", []*TypeReference{article, entityNode}, map[string]string{"entity:node:article": "NodeArticle", "entity:node": "EntityNode"}, "entity:node:article", "NodeArticle"},
		{"general alias", []*TypeReference{article, entityNode}, map[string]string{"entity:node:article": "NodeArticle", "entity:node": "EntityNode"}, "entity:node:page", "EntityNode"},
		{"declared name before alias", []*TypeReference{node, entityNode}, map[string]string{"node": "EntityNode"}, "node", "node"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := NewDefinition()
			for _, ref := range tc.types {
				def.AddType(ref)
			}
			for alias, canonical := range tc.aliases {
				def.Alias(alias, canonical)
			}
			r := NewRegistry(def, DefaultManagers())

			p, err := r.ResolveType(tc.lookup)
			require.NoError(t, err)
			require.Equal(t, tc.want, p.Type().Name)

			again, err := r.ResolveType(tc.want)
			require.NoError(t, err)
			require.Same(t, again, p)
		})
	}
}

func TestResolveTypeUnknown(t *testing.T) {
	def := NewDefinition().
		AddType(objectRef("node", "Node", "entity:node")).
		Alias("entity:node", "Node").
		Alias("entity:user", "User")
	r := NewRegistry(def, DefaultManagers())

	t.Run("no match", func(t *testing.T) {
		_, err := r.ResolveType("taxonomy_term:tags")
		require.ErrorIs(t, err, ErrUnknownType)
		require.EqualError(t, err, "missing type taxonomy_term:tags")
		require.False(t, r.HasType("taxonomy_term:tags"))
	})
	t.Run("dangling alias", func(t *testing.T) {
		_, err := r.ResolveType("entity:user:user")
		var unknown *UnknownTypeError
		require.ErrorAs(t, err, &unknown)
		require.Equal(t, &UnknownTypeError{Name: "entity:user:user", Alias: "entity:user", Canonical: "User"}, unknown)
	})
	t.Run("alias is one hop", func(t *testing.T) {
		chained := NewDefinition().
			AddType(objectRef("node", "Node", "entity:node")).
			Alias("a", "b").
			Alias("b", "Node")
		_, err := NewRegistry(chained, DefaultManagers()).ResolveType("a")
		require.ErrorIs(t, err, ErrUnknownType)
	})
	t.Run("builtin scalar", func(t *testing.T) {
		p, err := r.ResolveType("String")
		require.NoError(t, err)
		require.True(t, schema.IsBuiltin(p.Type()))
		require.True(t, r.HasType("ID"))
	})
}

func TestTypeNameDoesNotBuild(t *testing.T) {
	var counts sync.Map
	ref := objectRef("node", "Node", "entity:node")
	ref.Class = "counted"
	r := NewRegistry(NewDefinition().AddType(ref).Alias("entity:node", "Node"), countingManagers(&counts))

	name, err := r.TypeName("entity:node:article")
	require.NoError(t, err)
	require.Equal(t, "Node", name)

	typ, err := r.ResolveTypeDescriptor(MustParseTypeDescriptor("[entity:node:article!]!"))
	require.NoError(t, err)
	require.Equal(t, "[Node!]!", typ.String())

	require.EqualValues(t, 0, buildCount(&counts, "node"))

	_, err = r.ResolveTypeDescriptor(TypeDescriptor{})
	require.Error(t, err)
}

func TestFieldsForType(t *testing.T) {
	def := NewDefinition()
	for _, name := range []string{"c", "a", "b"} {
		def.AddField(&FieldReference{ID: "Node." + name, Class: DefaultClass, Owner: "Node", Definition: &FieldDefinition{Name: name, Type: Named("String")}})
	}
	r := NewRegistry(def, DefaultManagers())

	t.Run("declared order", func(t *testing.T) {
		fields, err := r.FieldsForType("Node")
		require.NoError(t, err)
		var names []string
		for _, f := range fields {
			names = append(names, f.Field().Name)
		}
		require.Equal(t, []string{"c", "a", "b"}, names)
		require.True(t, r.HasFields("Node"))
	})
	t.Run("unassociated", func(t *testing.T) {
		fields, err := r.FieldsForType("Unassociated")
		require.NoError(t, err)
		require.NotNil(t, fields)
		require.Empty(t, fields)
		require.False(t, r.HasFields("Unassociated"))
	})
	t.Run("undefined field", func(t *testing.T) {
		def.FieldAssociations["Broken"] = []string{"nowhere"}
		_, err := r.FieldsForType("Broken")
		require.ErrorContains(t, err, "field nowhere of Broken is not defined")
	})
}

func TestAllTypesDeclaredOrderOncePerID(t *testing.T) {
	shared := objectRef("shared", "Shared", "shared")
	def := NewDefinition().
		AddType(objectRef("b", "B", "b")).
		AddType(shared).
		AddType(objectRef("a", "A", "a"))
	def.Types = append(def.Types, TypeEntry{Name: "SharedAgain", Ref: shared})
	r := NewRegistry(def, DefaultManagers())

	types, err := r.AllTypes()
	require.NoError(t, err)
	var names []string
	for _, p := range types {
		names = append(names, p.Type().Name)
	}
	require.Equal(t, []string{"B", "Shared", "A"}, names)
}

func TestProcessArguments(t *testing.T) {
	r := NewRegistry(NewDefinition().AddType(objectRef("node", "Node", "entity:node")).Alias("entity:node", "Node"), DefaultManagers())

	args, err := r.ProcessArguments([]ArgumentDefinition{
		{Name: "id", Type: MustParseTypeDescriptor("ID!")},
		{Name: "limit", Description: "Page size.", Type: Named("Int"), Default: int64(10)},
		{Name: "legacy", Type: Named("Boolean"), Deprecated: true, DeprecationReason: "Unused."},
	})
	require.NoError(t, err)
	require.Len(t, args, 3)
	require.Equal(t, "ID!", args[0].Type.String())
	require.Nil(t, args[0].DefaultValue)
	require.Equal(t, int64(10), args[1].DefaultValue)
	require.Equal(t, "Page size.", args[1].Description)
	require.True(t, args[2].IsDeprecated)

	_, err = r.ProcessArguments([]ArgumentDefinition{{Name: "x", Type: Named("Missing")}})
	require.ErrorIs(t, err, ErrUnknownType)
	require.ErrorContains(t, err, "argument x")
}

type dataTyped string

func (d dataTyped) DataType() string { return string(d) }

func TestResolveConcreteType(t *testing.T) {
	always := func(context.Context, any, *resolution.Context, *executor.ResolveInfo) bool { return true }
	m := DefaultManagers()
	m.Types[KindObject].Register("greedy", func(b Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
		return NewObjectType(b, def, always)
	})
	greedy := func(id, name string) *TypeReference {
		ref := objectRef(id, name, "")
		ref.Class = "greedy"
		return ref
	}
	article := objectRef("article", "Article", "entity:node:article")
	page := objectRef("page", "Page", "entity:node:page")
	rc := resolution.NewContext(nil)
	ctx := context.Background()

	t.Run("first declared wins", func(t *testing.T) {
		def := NewDefinition().AddType(greedy("article", "Article")).AddType(greedy("page", "Page")).Associate("Node", "Article", "Page")
		r := NewRegistry(def, m)
		got, ok, err := r.ResolveConcreteType(ctx, "Node", dataTyped("anything"), rc, nil)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Article", got.Type().Name)

		def.TypeAssociations["Node"] = []string{"Page", "Article"}
		got, ok, err = r.ResolveConcreteType(ctx, "Node", dataTyped("anything"), rc, nil)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Page", got.Type().Name)
	})
	t.Run("by data type", func(t *testing.T) {
		r := NewRegistry(NewDefinition().AddType(article).AddType(page).Associate("Node", "Article", "Page"), m)
		got, ok, err := r.ResolveConcreteType(ctx, "Node", dataTyped("entity:node:page"), rc, nil)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Page", got.Type().Name)

		got, ok, err = r.ResolveConcreteType(ctx, "Node", map[string]any{"__typename": "Article"}, rc, nil)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, "Article", got.Type().Name)
	})
	t.Run("miss", func(t *testing.T) {
		r := NewRegistry(NewDefinition().AddType(article).Associate("Node", "Article"), m)
		got, ok, err := r.ResolveConcreteType(ctx, "Node", dataTyped("entity:node:page"), rc, nil)
		require.NoError(t, err)
		require.False(t, ok)
		require.Nil(t, got)
	})
	t.Run("no association", func(t *testing.T) {
		r := NewRegistry(NewDefinition().AddType(article), m)
		_, ok, err := r.ResolveConcreteType(ctx, "Node", dataTyped("entity:node:article"), rc, nil)
		require.NoError(t, err)
		require.False(t, ok)
	})
	t.Run("non-object candidate", func(t *testing.T) {
		iface := &TypeReference{ID: "iface", Kind: KindInterface, Class: DefaultClass, Definition: &TypeDefinition{Name: "Iface"}}
		r := NewRegistry(NewDefinition().AddType(iface).Associate("Node", "Iface"), m)
		_, _, err := r.ResolveConcreteType(ctx, "Node", dataTyped("x"), rc, nil)
		require.ErrorContains(t, err, "not an object type")
	})
}

func TestIsDataTypeOf(t *testing.T) {
	require.True(t, IsDataTypeOf("entity:node", "entity:node"))
	require.True(t, IsDataTypeOf("entity:node:article", "entity:node"))
	require.False(t, IsDataTypeOf("entity:nodes", "entity:node"))
	require.False(t, IsDataTypeOf("entity", "entity:node"))
}
