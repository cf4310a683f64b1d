package assembler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
)

// memo builds each id at most once. Concurrent first requests for the same
// id wait for the single build; failures are remembered like values.
type memo[T any] struct {
	mu      sync.Mutex
	entries map[string]*memoEntry[T]
}

type memoEntry[T any] struct {
	once  sync.Once
	value T
	err   error
}

func (m *memo[T]) get(id string, build func() (T, error)) (T, error) {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[string]*memoEntry[T])
	}
	e, ok := m.entries[id]
	if !ok {
		e = &memoEntry[T]{}
		m.entries[id] = e
	}
	m.mu.Unlock()
	e.once.Do(func() { e.value, e.err = build() })
	return e.value, e.err
}

// BuildObserver is told about every reference the first time it is built.
type BuildObserver func(kind, id, name string, took time.Duration)

// Registry builds type, field and mutation references on demand and keeps
// what it built for its whole lifetime.
type Registry struct {
	def      *Definition
	managers *Managers
	index    map[string]*TypeReference
	observe  BuildObserver

	types     memo[TypePlugin]
	fields    memo[FieldPlugin]
	mutations memo[MutationPlugin]

	mu      sync.RWMutex
	byField map[*schema.Field]FieldPlugin
}

var _ Builder = (*Registry)(nil)

// NewRegistry returns a registry over def. The definition must not change
// afterwards.
func NewRegistry(def *Definition, managers *Managers) *Registry {
	index := make(map[string]*TypeReference, len(def.Types))
	for _, entry := range def.Types {
		if _, ok := index[entry.Name]; !ok {
			index[entry.Name] = entry.Ref
		}
	}
	return &Registry{
		def:      def,
		managers: managers,
		index:    index,
		byField:  make(map[*schema.Field]FieldPlugin),
	}
}

// Observe installs o, replacing any previous observer.
func (r *Registry) Observe(o BuildObserver) { r.observe = o }

func (r *Registry) built(kind, id, name string, start time.Time) {
	if r.observe != nil {
		r.observe(kind, id, name, time.Since(start))
	}
}

// BuildType returns the plugin built from ref, building it on first use.
func (r *Registry) BuildType(ref *TypeReference) (TypePlugin, error) {
	return r.types.get(ref.ID, func() (TypePlugin, error) {
		start := time.Now()
		m, ok := r.managers.typeManager(ref.Kind)
		if !ok {
			return nil, &MissingFactoryError{Kind: string(ref.Kind), Class: ref.Class, ID: ref.ID}
		}
		factory, ok := m.Factory(ref.Class)
		if !ok {
			return nil, &MissingFactoryError{Kind: string(ref.Kind), Class: ref.Class, ID: ref.ID}
		}
		p, err := factory(r, m, ref.Definition, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("build type %s: %w", ref.ID, err)
		}
		if p == nil || p.Type() == nil {
			return nil, fmt.Errorf("build type %s: factory %q returned no type", ref.ID, ref.Class)
		}
		if got := p.Type().Name; got != ref.Definition.Name {
			return nil, fmt.Errorf("build type %s: built as %s instead of %s", ref.ID, got, ref.Definition.Name)
		}
		r.built("type", ref.ID, ref.Definition.Name, start)
		return p, nil
	})
}

// BuildField returns the plugin built from ref, building it on first use.
func (r *Registry) BuildField(ref *FieldReference) (FieldPlugin, error) {
	return r.fields.get(ref.ID, func() (FieldPlugin, error) {
		start := time.Now()
		factory, ok := r.managers.Fields.Factory(ref.Class)
		if !ok {
			return nil, &MissingFactoryError{Kind: "field", Class: ref.Class, ID: ref.ID}
		}
		p, err := factory(r, r.managers.Fields, ref.Definition, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("build field %s: %w", ref.ID, err)
		}
		if p == nil || p.Field() == nil {
			return nil, fmt.Errorf("build field %s: factory %q returned no field", ref.ID, ref.Class)
		}
		r.remember(p)
		r.built("field", ref.ID, ref.Owner+"."+p.Field().Name, start)
		return p, nil
	})
}

// BuildMutation returns the plugin built from ref, building it on first use.
func (r *Registry) BuildMutation(ref *MutationReference) (MutationPlugin, error) {
	return r.mutations.get(ref.ID, func() (MutationPlugin, error) {
		start := time.Now()
		factory, ok := r.managers.Mutations.Factory(ref.Class)
		if !ok {
			return nil, &MissingFactoryError{Kind: "mutation", Class: ref.Class, ID: ref.ID}
		}
		p, err := factory(r, r.managers.Mutations, ref.Definition, ref.ID)
		if err != nil {
			return nil, fmt.Errorf("build mutation %s: %w", ref.ID, err)
		}
		if p == nil || p.Field() == nil {
			return nil, fmt.Errorf("build mutation %s: factory %q returned no field", ref.ID, ref.Class)
		}
		r.remember(p)
		r.built("mutation", ref.ID, p.Field().Name, start)
		return p, nil
	})
}

func (r *Registry) remember(p FieldPlugin) {
	r.mu.Lock()
	r.byField[p.Field()] = p
	r.mu.Unlock()
}

// FieldPlugin returns the built plugin that produced f.
func (r *Registry) FieldPlugin(f *schema.Field) (FieldPlugin, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byField[f]
	return p, ok
}

// parentName drops the last ":" segment of name, or returns "" when there is
// none left.
func parentName(name string) string {
	i := strings.LastIndex(name, ":")
	if i < 0 {
		return ""
	}
	return name[:i]
}

// lookup finds the reference name resolves to. Builtin scalars have none and
// report ok with a nil reference.
func (r *Registry) lookup(name string) (*TypeReference, error) {
	if ref, ok := r.index[name]; ok {
		return ref, nil
	}
	if schema.BuiltinScalar(name) != nil {
		return nil, nil
	}
	for n := name; n != ""; n = parentName(n) {
		if ref, ok := r.index[n]; ok {
			return ref, nil
		}
		if canonical, ok := r.def.TypeReferences[n]; ok {
			if ref, ok := r.index[canonical]; ok {
				return ref, nil
			}
			return nil, &UnknownTypeError{Name: name, Alias: n, Canonical: canonical}
		}
	}
	return nil, &UnknownTypeError{Name: name}
}

// ResolveType builds the type name resolves to, falling back from specific
// to general names.
func (r *Registry) ResolveType(name string) (TypePlugin, error) {
	ref, err := r.lookup(name)
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return builtinScalars[name], nil
	}
	return r.BuildType(ref)
}

// TypeName returns the GraphQL name of the type name resolves to.
func (r *Registry) TypeName(name string) (string, error) {
	ref, err := r.lookup(name)
	if err != nil {
		return "", err
	}
	if ref == nil {
		return name, nil
	}
	return ref.Definition.Name, nil
}

// HasType reports whether name resolves to a type.
func (r *Registry) HasType(name string) bool {
	_, err := r.lookup(name)
	return err == nil
}

// ResolveTypeDescriptor resolves the base name of d and applies its
// decorators in declared order.
func (r *Registry) ResolveTypeDescriptor(d TypeDescriptor) (*schema.TypeRef, error) {
	if d.IsZero() {
		return nil, fmt.Errorf("type descriptor without base type")
	}
	name, err := r.TypeName(d.Base)
	if err != nil {
		return nil, err
	}
	return d.Apply(schema.NamedType(name)), nil
}

// HasFields reports whether any field is associated with the type.
func (r *Registry) HasFields(typeName string) bool {
	return len(r.def.FieldAssociations[typeName]) > 0
}

// FieldsForType builds the fields associated with typeName in declared order.
// A type without associations has no fields.
func (r *Registry) FieldsForType(typeName string) ([]FieldPlugin, error) {
	ids := r.def.FieldAssociations[typeName]
	fields := make([]FieldPlugin, 0, len(ids))
	for _, id := range ids {
		ref, ok := r.def.Fields[id]
		if !ok || ref == nil {
			return nil, fmt.Errorf("field %s of %s is not defined", id, typeName)
		}
		p, err := r.BuildField(ref)
		if err != nil {
			return nil, err
		}
		fields = append(fields, p)
	}
	return fields, nil
}

// HasMutations reports whether the definition declares any mutation.
func (r *Registry) HasMutations() bool { return len(r.def.Mutations) > 0 }

// AllMutations builds every mutation in declared order.
func (r *Registry) AllMutations() ([]MutationPlugin, error) {
	out := make([]MutationPlugin, 0, len(r.def.Mutations))
	for _, ref := range r.def.Mutations {
		p, err := r.BuildMutation(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// AllTypes builds every declared type in declared order, once per id.
func (r *Registry) AllTypes() ([]TypePlugin, error) {
	seen := make(map[string]bool, len(r.def.Types))
	out := make([]TypePlugin, 0, len(r.def.Types))
	for _, entry := range r.def.Types {
		if seen[entry.Ref.ID] {
			continue
		}
		seen[entry.Ref.ID] = true
		p, err := r.BuildType(entry.Ref)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// SubTypes returns the GraphQL names of the types associated with abstract.
func (r *Registry) SubTypes(abstract string) ([]string, error) {
	names := r.def.TypeAssociations[abstract]
	out := make([]string, 0, len(names))
	for _, n := range names {
		name, err := r.TypeName(n)
		if err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, nil
}

// ProcessArguments turns argument definitions into schema input values.
func (r *Registry) ProcessArguments(args []ArgumentDefinition) ([]*schema.InputValue, error) {
	out := make([]*schema.InputValue, 0, len(args))
	for _, arg := range args {
		typ, err := r.ResolveTypeDescriptor(arg.Type)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", arg.Name, err)
		}
		v := schema.NewInputValue(arg.Name, arg.Description, typ).SetDefault(arg.Default)
		if arg.Deprecated {
			v.Deprecate(arg.DeprecationReason)
		}
		out = append(out, v)
	}
	return out, nil
}

// ResolveConcreteType returns the first type associated with abstractName,
// in declared order, that claims value. It reports false when the abstract
// type has no associations or no candidate claims the value.
func (r *Registry) ResolveConcreteType(ctx context.Context, abstractName string, value any, rc *resolution.Context, info *executor.ResolveInfo) (ObjectPlugin, bool, error) {
	candidates, ok := r.def.TypeAssociations[abstractName]
	if !ok {
		return nil, false, nil
	}
	for _, name := range candidates {
		p, err := r.ResolveType(name)
		if err != nil {
			return nil, false, err
		}
		obj, ok := p.(ObjectPlugin)
		if !ok {
			return nil, false, fmt.Errorf("type %s associated with %s is not an object type", p.Type().Name, abstractName)
		}
		if obj.IsTypeOf(ctx, value, rc, info) {
			return obj, true, nil
		}
	}
	return nil, false, nil
}
