package assembler

import (
	"context"
	"fmt"
	"sync"

	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
)

// TypeFactory builds the type described by def.
type TypeFactory func(b Builder, m *TypeManager, def *TypeDefinition, id string) (TypePlugin, error)

// FieldFactory builds the field described by def.
type FieldFactory func(b Builder, m *FieldManager, def *FieldDefinition, id string) (FieldPlugin, error)

// MutationFactory builds the mutation described by def.
type MutationFactory func(b Builder, m *MutationManager, def *FieldDefinition, id string) (MutationPlugin, error)

type factoryTable[F any] struct {
	mu        sync.RWMutex
	factories map[string]F
}

func (t *factoryTable[F]) register(class string, f F) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.factories == nil {
		t.factories = make(map[string]F)
	}
	t.factories[class] = f
}

func (t *factoryTable[F]) get(class string) (F, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f, ok := t.factories[class]
	return f, ok
}

// TypeManager holds the type factories of one kind, keyed by class.
type TypeManager struct {
	kind  Kind
	table factoryTable[TypeFactory]
}

// NewTypeManager returns an empty manager for kind.
func NewTypeManager(kind Kind) *TypeManager { return &TypeManager{kind: kind} }

func (m *TypeManager) Kind() Kind { return m.kind }

// Register adds or replaces the factory for class.
func (m *TypeManager) Register(class string, f TypeFactory) *TypeManager {
	m.table.register(class, f)
	return m
}

func (m *TypeManager) Factory(class string) (TypeFactory, bool) { return m.table.get(class) }

// FieldManager holds the field factories, keyed by class.
type FieldManager struct {
	table factoryTable[FieldFactory]
}

func NewFieldManager() *FieldManager { return &FieldManager{} }

// Register adds or replaces the factory for class.
func (m *FieldManager) Register(class string, f FieldFactory) *FieldManager {
	m.table.register(class, f)
	return m
}

// RegisterResolver registers a factory building a default field resolved by
// resolve.
func (m *FieldManager) RegisterResolver(class string, resolve ResolveFunc) *FieldManager {
	return m.Register(class, func(b Builder, _ *FieldManager, def *FieldDefinition, _ string) (FieldPlugin, error) {
		f, err := NewField(b, def, resolve)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
}

func (m *FieldManager) Factory(class string) (FieldFactory, bool) { return m.table.get(class) }

// MutationManager holds the mutation factories, keyed by class.
type MutationManager struct {
	table factoryTable[MutationFactory]
}

func NewMutationManager() *MutationManager { return &MutationManager{} }

// Register adds or replaces the factory for class.
func (m *MutationManager) Register(class string, f MutationFactory) *MutationManager {
	m.table.register(class, f)
	return m
}

// RegisterResolver registers a factory building a mutation resolved by
// resolve.
func (m *MutationManager) RegisterResolver(class string, resolve ResolveFunc) *MutationManager {
	return m.Register(class, func(b Builder, _ *MutationManager, def *FieldDefinition, _ string) (MutationPlugin, error) {
		f, err := NewField(b, def, resolve)
		if err != nil {
			return nil, err
		}
		return f, nil
	})
}

func (m *MutationManager) Factory(class string) (MutationFactory, bool) { return m.table.get(class) }

// Managers is the full set of factory tables a Registry builds from.
type Managers struct {
	Types     map[Kind]*TypeManager
	Fields    *FieldManager
	Mutations *MutationManager
}

// NewManagers returns managers without any factory.
func NewManagers() *Managers {
	m := &Managers{
		Types:     make(map[Kind]*TypeManager, len(Kinds)),
		Fields:    NewFieldManager(),
		Mutations: NewMutationManager(),
	}
	for _, k := range Kinds {
		m.Types[k] = NewTypeManager(k)
	}
	return m
}

// DefaultManagers returns managers with the default factory of every kind
// registered under DefaultClass.
func DefaultManagers() *Managers {
	m := NewManagers()
	m.Types[KindObject].Register(DefaultClass, objectFactory)
	m.Types[KindInterface].Register(DefaultClass, interfaceFactory)
	m.Types[KindUnion].Register(DefaultClass, unionFactory)
	m.Types[KindScalar].Register(DefaultClass, scalarFactory)
	m.Types[KindEnum].Register(DefaultClass, enumFactory)
	m.Types[KindInput].Register(DefaultClass, inputFactory)
	m.Fields.RegisterResolver(DefaultClass, ResolveProperty)
	m.Mutations.RegisterResolver(DefaultClass, func(_ context.Context, _ any, _ map[string]any, _ *resolution.Context, info *executor.ResolveInfo) (any, error) {
		return nil, fmt.Errorf("mutation %s has no resolver", info.FieldName)
	})
	return m
}

func (m *Managers) typeManager(kind Kind) (*TypeManager, bool) {
	tm, ok := m.Types[kind]
	return tm, ok && tm != nil
}
