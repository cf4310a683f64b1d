package assembler

import (
	"context"

	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
)

// TypePlugin is a built type.
type TypePlugin interface {
	Type() *schema.Type
}

// ObjectPlugin is a built object type that can claim values of the abstract
// types it belongs to.
type ObjectPlugin interface {
	TypePlugin
	IsTypeOf(ctx context.Context, value any, rc *resolution.Context, info *executor.ResolveInfo) bool
}

// LeafPlugin is a built scalar or enum type.
type LeafPlugin interface {
	TypePlugin
	Serialize(value any) (any, error)
}

// FieldPlugin is a built field.
type FieldPlugin interface {
	Field() *schema.Field
	Resolve(ctx context.Context, source any, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error)
}

// MutationPlugin is a built field of the mutation root.
type MutationPlugin interface {
	FieldPlugin
}

// Cacheable is implemented by plugins whose responses vary by request
// context.
type Cacheable interface {
	CacheContexts() []string
}

// Builder is the view of the Registry that factories get.
//
// A factory must not build a type that may build it back: types refer to
// each other by name, and field lists go through schema thunks.
type Builder interface {
	// ResolveType builds the type name resolves to.
	ResolveType(name string) (TypePlugin, error)
	// TypeName returns the GraphQL name of the type name resolves to,
	// without building it.
	TypeName(name string) (string, error)
	ResolveTypeDescriptor(d TypeDescriptor) (*schema.TypeRef, error)
	FieldsForType(name string) ([]FieldPlugin, error)
	// SubTypes returns the GraphQL names of the concrete types associated
	// with an abstract type.
	SubTypes(name string) ([]string, error)
	ProcessArguments(args []ArgumentDefinition) ([]*schema.InputValue, error)
	ResolveConcreteType(ctx context.Context, abstractName string, value any, rc *resolution.Context, info *executor.ResolveInfo) (ObjectPlugin, bool, error)
}
