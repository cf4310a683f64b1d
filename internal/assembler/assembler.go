package assembler

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/hanpama/graphplug/internal/eventbus"
	"github.com/hanpama/graphplug/internal/events"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
)

const (
	QueryRootName    = "QueryRoot"
	MutationRootName = "MutationRoot"
)

// Assembler builds one schema from one Definition. Build a new Assembler
// whenever the definition changes.
type Assembler struct {
	def      *Definition
	registry *Registry

	once   sync.Once
	schema *schema.Schema
	err    error
}

// New checks def and returns an assembler for it.
func New(def *Definition, managers *Managers) (*Assembler, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if managers == nil {
		managers = DefaultManagers()
	}
	r := NewRegistry(def, managers)
	r.Observe(func(kind, id, name string, took time.Duration) {
		eventbus.Publish(context.Background(), events.TypeBuilt{Kind: kind, ID: id, Name: name, Duration: took})
	})
	return &Assembler{def: def, registry: r}, nil
}

// Registry returns the registry the schema is built from.
func (a *Assembler) Registry() *Registry { return a.registry }

// BuildSchema assembles the schema. Type shells are built eagerly; fields,
// possible types and input fields are built the first time they are read.
// The schema is built once; later calls return the same result.
func (a *Assembler) BuildSchema(ctx context.Context) (*schema.Schema, error) {
	a.once.Do(func() {
		start := time.Now()
		eventbus.Publish(ctx, events.SchemaBuildStart{Types: len(a.def.Types), Mutations: len(a.def.Mutations)})
		a.schema, a.err = a.build()
		eventbus.Publish(ctx, events.SchemaBuildFinish{
			Types:     len(a.def.Types),
			Mutations: len(a.def.Mutations),
			Err:       a.err,
			Duration:  time.Since(start),
		})
	})
	return a.schema, a.err
}

func (a *Assembler) build() (*schema.Schema, error) {
	r := a.registry
	s := schema.NewSchema("")

	query := schema.NewType(QueryRootName, schema.TypeKindObject, "The schema's entry-point for queries.")
	query.SetFieldThunk(fieldThunk(r, RootType))
	s.AddType(query).SetQueryType(QueryRootName)

	if r.HasMutations() {
		mutation := schema.NewType(MutationRootName, schema.TypeKindObject, "The schema's entry-point for mutations.")
		mutation.SetFieldThunk(func() ([]*schema.Field, error) {
			plugins, err := r.AllMutations()
			if err != nil {
				return nil, err
			}
			fields := make([]*schema.Field, len(plugins))
			for i, p := range plugins {
				fields[i] = p.Field()
			}
			return fields, nil
		})
		s.AddType(mutation).SetMutationType(MutationRootName)
	}

	types, err := r.AllTypes()
	if err != nil {
		return nil, err
	}
	for _, p := range types {
		s.AddType(p.Type())
	}

	s.SetTypeLoader(func(name string) (*schema.Type, error) {
		p, err := r.ResolveType(name)
		if err != nil {
			return nil, err
		}
		return p.Type(), nil
	})
	return s, nil
}

// Validate builds the schema and every lazily built part of it, failing on
// the first structural error.
func (a *Assembler) Validate(ctx context.Context) error {
	s, err := a.BuildSchema(ctx)
	if err != nil {
		return err
	}
	if err := s.Materialize(); err != nil {
		return fmt.Errorf("validate schema: %w", err)
	}
	for _, t := range s.Types {
		if t.Kind != schema.TypeKindObject {
			continue
		}
		for _, f := range t.GetOrderedFields() {
			if _, ok := a.registry.FieldPlugin(f); !ok {
				return fmt.Errorf("validate schema: field %s.%s has no resolver", t.Name, f.Name)
			}
		}
	}
	return nil
}

// CacheTags are the tags responses built from this schema depend on.
func (a *Assembler) CacheTags() []string { return slices.Clone(a.def.CacheTags) }

// CacheMaxAge is the max age of responses built from this schema.
func (a *Assembler) CacheMaxAge() int { return a.def.CacheMaxAge }

// CacheContexts is always empty: the schema does not vary by request.
func (a *Assembler) CacheContexts() []string { return nil }

// Cacheability combines the cache tags, contexts and max age.
func (a *Assembler) Cacheability() resolution.Cacheability {
	return resolution.Cacheability{
		Tags:     a.CacheTags(),
		Contexts: a.CacheContexts(),
		MaxAge:   a.CacheMaxAge(),
	}
}

// Runtime returns the executor runtime serving this assembler's schema.
func (a *Assembler) Runtime() *Runtime { return &Runtime{registry: a.registry} }
