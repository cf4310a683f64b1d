package assembler

import (
	"context"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
)

// DataTyped values report the hierarchical data type they belong to.
type DataTyped interface {
	DataType() string
}

// FieldValuer values expose their fields by name.
type FieldValuer interface {
	FieldValue(name string) (any, bool)
}

// IsTypeOfFunc decides whether an object type claims value.
type IsTypeOfFunc func(ctx context.Context, value any, rc *resolution.Context, info *executor.ResolveInfo) bool

// ResolveFunc produces the value of a field.
type ResolveFunc func(ctx context.Context, source any, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error)

// cacheContexts is embedded by the default plugins.
type cacheContexts []string

func (c cacheContexts) CacheContexts() []string { return c }

// ObjectType is the default object type plugin.
type ObjectType struct {
	cacheContexts
	typ      *schema.Type
	def      *TypeDefinition
	isTypeOf IsTypeOfFunc
}

// NewObjectType builds an object type whose fields are the fields associated
// with it. A nil isTypeOf claims values by data type.
func NewObjectType(b Builder, def *TypeDefinition, isTypeOf IsTypeOfFunc) (*ObjectType, error) {
	t := schema.NewType(def.Name, schema.TypeKindObject, def.Description)
	if err := addInterfaces(b, t, def); err != nil {
		return nil, err
	}
	t.SetFieldThunk(fieldThunk(b, def.Name))
	o := &ObjectType{cacheContexts: def.ResponseCacheContexts, typ: t, def: def, isTypeOf: isTypeOf}
	if o.isTypeOf == nil {
		o.isTypeOf = o.matchesDataType
	}
	return o, nil
}

func objectFactory(b Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
	o, err := NewObjectType(b, def, nil)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (o *ObjectType) Type() *schema.Type          { return o.typ }
func (o *ObjectType) Definition() *TypeDefinition { return o.def }

func (o *ObjectType) IsTypeOf(ctx context.Context, value any, rc *resolution.Context, info *executor.ResolveInfo) bool {
	return o.isTypeOf(ctx, value, rc, info)
}

// matchesDataType claims values whose data type is the definition's type or
// lies below it, and maps naming the type in "__typename".
func (o *ObjectType) matchesDataType(_ context.Context, value any, _ *resolution.Context, _ *executor.ResolveInfo) bool {
	switch v := value.(type) {
	case DataTyped:
		return o.def.Type != "" && IsDataTypeOf(v.DataType(), o.def.Type)
	case map[string]any:
		name, _ := v["__typename"].(string)
		return name == o.def.Name
	}
	return false
}

// IsDataTypeOf reports whether dataType is base or one of its descendants.
func IsDataTypeOf(dataType, base string) bool {
	return dataType == base || strings.HasPrefix(dataType, base+":")
}

// InterfaceType is the default interface type plugin.
type InterfaceType struct {
	cacheContexts
	typ *schema.Type
	def *TypeDefinition
}

func interfaceFactory(b Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
	t := schema.NewType(def.Name, schema.TypeKindInterface, def.Description)
	if err := addInterfaces(b, t, def); err != nil {
		return nil, err
	}
	t.SetFieldThunk(fieldThunk(b, def.Name))
	t.SetPossibleTypesThunk(func() ([]string, error) { return b.SubTypes(def.Name) })
	return &InterfaceType{cacheContexts: def.ResponseCacheContexts, typ: t, def: def}, nil
}

func (i *InterfaceType) Type() *schema.Type          { return i.typ }
func (i *InterfaceType) Definition() *TypeDefinition { return i.def }

// UnionType is the default union type plugin.
type UnionType struct {
	cacheContexts
	typ *schema.Type
	def *TypeDefinition
}

func unionFactory(b Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
	t := schema.NewType(def.Name, schema.TypeKindUnion, def.Description)
	t.SetPossibleTypesThunk(func() ([]string, error) { return b.SubTypes(def.Name) })
	return &UnionType{cacheContexts: def.ResponseCacheContexts, typ: t, def: def}, nil
}

func (u *UnionType) Type() *schema.Type          { return u.typ }
func (u *UnionType) Definition() *TypeDefinition { return u.def }

// EnumType is the default enum type plugin.
type EnumType struct {
	cacheContexts
	typ *schema.Type
	def *TypeDefinition
}

func enumFactory(_ Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
	if len(def.Values) == 0 {
		return nil, fmt.Errorf("enum %s has no values", def.Name)
	}
	t := schema.NewType(def.Name, schema.TypeKindEnum, def.Description)
	for _, v := range def.Values {
		ev := schema.NewEnumValue(v.Name, v.Description)
		if v.Deprecated {
			ev.Deprecate(v.DeprecationReason)
		}
		t.AddEnumValue(ev)
	}
	return &EnumType{cacheContexts: def.ResponseCacheContexts, typ: t, def: def}, nil
}

func (e *EnumType) Type() *schema.Type { return e.typ }

// Serialize maps an internal value, or a value name, to the value name.
func (e *EnumType) Serialize(value any) (any, error) {
	for _, v := range e.def.Values {
		if v.Value != nil && isComparable(value) && v.Value == value {
			return v.Name, nil
		}
	}
	if s, ok := value.(string); ok {
		for _, v := range e.def.Values {
			if v.Name == s {
				return v.Name, nil
			}
		}
	}
	return nil, fmt.Errorf("enum %s cannot represent value %v", e.def.Name, value)
}

func isComparable(v any) bool {
	t := reflect.TypeOf(v)
	return t != nil && t.Comparable()
}

// InputType is the default input object type plugin.
type InputType struct {
	typ *schema.Type
	def *TypeDefinition
}

func inputFactory(b Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
	t := schema.NewType(def.Name, schema.TypeKindInputObject, def.Description)
	if oneOf, _ := def.Extra["oneOf"].(bool); oneOf {
		t.SetOneOf(true)
	}
	t.SetInputFieldThunk(func() ([]*schema.InputValue, error) { return b.ProcessArguments(def.Fields) })
	return &InputType{typ: t, def: def}, nil
}

func (i *InputType) Type() *schema.Type { return i.typ }

// ScalarType is a scalar plugin serializing values with a function.
type ScalarType struct {
	cacheContexts
	typ       *schema.Type
	serialize func(any) (any, error)
}

// NewScalarType returns a scalar serialized by serialize, or by
// SerializeCustomScalar when serialize is nil.
func NewScalarType(def *TypeDefinition, serialize func(any) (any, error)) *ScalarType {
	t := schema.NewType(def.Name, schema.TypeKindScalar, def.Description)
	if def.SpecifiedByURL != "" {
		t.SetSpecifiedByURL(def.SpecifiedByURL)
	}
	if serialize == nil {
		serialize = SerializeCustomScalar
	}
	return &ScalarType{cacheContexts: def.ResponseCacheContexts, typ: t, serialize: serialize}
}

func scalarFactory(_ Builder, _ *TypeManager, def *TypeDefinition, _ string) (TypePlugin, error) {
	return NewScalarType(def, nil), nil
}

func (s *ScalarType) Type() *schema.Type               { return s.typ }
func (s *ScalarType) Serialize(value any) (any, error) { return s.serialize(value) }

// SerializeCustomScalar renders times as RFC 3339 and Stringers as strings;
// other values pass through.
func SerializeCustomScalar(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v.Format(time.RFC3339), nil
	case *time.Time:
		if v == nil {
			return nil, nil
		}
		return v.Format(time.RFC3339), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return value, nil
}

// Field is the default field and mutation plugin.
type Field struct {
	cacheContexts
	field   *schema.Field
	def     *FieldDefinition
	resolve ResolveFunc
}

// NewField builds the schema field described by def, resolved by resolve.
func NewField(b Builder, def *FieldDefinition, resolve ResolveFunc) (*Field, error) {
	typ, err := b.ResolveTypeDescriptor(def.Type)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", def.Name, err)
	}
	args, err := b.ProcessArguments(def.Arguments)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", def.Name, err)
	}
	f := schema.NewField(def.Name, def.Description, typ)
	for _, a := range args {
		f.AddArgument(a)
	}
	if def.Deprecated {
		f.Deprecate(def.DeprecationReason)
	}
	if resolve == nil {
		resolve = ResolveProperty
	}
	return &Field{cacheContexts: def.ResponseCacheContexts, field: f, def: def, resolve: resolve}, nil
}

func (f *Field) Field() *schema.Field         { return f.field }
func (f *Field) Definition() *FieldDefinition { return f.def }

func (f *Field) Resolve(ctx context.Context, source any, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
	return f.resolve(ctx, source, args, rc, info)
}

// ResolveProperty reads the field from a map or a FieldValuer source.
func ResolveProperty(_ context.Context, source any, _ map[string]any, _ *resolution.Context, info *executor.ResolveInfo) (any, error) {
	switch s := source.(type) {
	case map[string]any:
		return s[info.FieldName], nil
	case FieldValuer:
		v, _ := s.FieldValue(info.FieldName)
		return v, nil
	}
	return nil, nil
}

func addInterfaces(b Builder, t *schema.Type, def *TypeDefinition) error {
	for _, name := range def.Interfaces {
		resolved, err := b.TypeName(name)
		if err != nil {
			return fmt.Errorf("interface of %s: %w", def.Name, err)
		}
		t.AddInterface(resolved)
	}
	return nil
}

func fieldThunk(b Builder, typeName string) func() ([]*schema.Field, error) {
	return func() ([]*schema.Field, error) {
		plugins, err := b.FieldsForType(typeName)
		if err != nil {
			return nil, err
		}
		fields := make([]*schema.Field, len(plugins))
		for i, p := range plugins {
			fields[i] = p.Field()
		}
		return fields, nil
	}
}
