// Package introspection answers the __schema and __type root fields and the
// fields of the introspection types, delegating everything else to the
// wrapped runtime.
package introspection

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	executor "github.com/hanpama/graphplug/internal/executor"
	schema "github.com/hanpama/graphplug/internal/schema"
)

// Wrapper holds the introspection runtime and the schema it serves.
type Wrapper struct {
	Runtime executor.Runtime
	Schema  *schema.Schema
}

// Wrap extends sch with the introspection types and returns a runtime
// resolving them on top of base. sch itself is left unchanged.
func Wrap(base executor.Runtime, sch *schema.Schema) *Wrapper {
	extended := extend(sch)
	return &Wrapper{
		Runtime: &runtime{base: base, schema: extended, original: sch},
		Schema:  extended,
	}
}

type runtime struct {
	base     executor.Runtime
	schema   *schema.Schema // with introspection types
	original *schema.Schema // what introspection describes
}

// resolver resolves one field of an introspection type.
type resolver func(r *runtime, source any, args map[string]any) (any, error)

// resolvers is keyed by "<introspection type>.<field>".
var resolvers = map[string]resolver{
	"__Schema.description":      onSchema(func(s *schema.Schema) any { return s.Description }),
	"__Schema.types":            onSchema(func(s *schema.Schema) any { return sortedValues(s.Types, typeName) }),
	"__Schema.queryType":        onSchema(func(s *schema.Schema) any { return nilIfNone(s.GetQueryType()) }),
	"__Schema.mutationType":     onSchema(func(s *schema.Schema) any { return nilIfNone(s.GetMutationType()) }),
	"__Schema.subscriptionType": onSchema(func(s *schema.Schema) any { return nilIfNone(s.GetSubscriptionType()) }),
	"__Schema.directives":       onSchema(func(s *schema.Schema) any { return sortedValues(s.Directives, directiveName) }),

	"__Type.kind":           typeKind,
	"__Type.name":           typeNameField,
	"__Type.ofType":         typeOfType,
	"__Type.description":    onNamed(func(_ *runtime, t *schema.Type, _ map[string]any) (any, error) { return t.Description, nil }),
	"__Type.specifiedByURL": onNamed(specifiedByURL),
	"__Type.isOneOf":        onNamed(func(_ *runtime, t *schema.Type, _ map[string]any) (any, error) { return t.OneOf, nil }),
	"__Type.fields":         onNamed(typeFields),
	"__Type.interfaces":     onNamed(typeInterfaces),
	"__Type.possibleTypes":  onNamed(typePossibleTypes),
	"__Type.enumValues":     onNamed(typeEnumValues),
	"__Type.inputFields":    onNamed(typeInputFields),

	"__Field.name":        onField(func(f *schema.Field, _ map[string]any) any { return f.Name }),
	"__Field.description": onField(func(f *schema.Field, _ map[string]any) any { return f.Description }),
	"__Field.type":        onField(func(f *schema.Field, _ map[string]any) any { return f.Type }),
	"__Field.isDeprecated": onField(func(f *schema.Field, _ map[string]any) any {
		return f.IsDeprecated
	}),
	"__Field.deprecationReason": onField(func(f *schema.Field, _ map[string]any) any {
		return deprecationReason(f.IsDeprecated, f.DeprecationReason)
	}),
	"__Field.args": onField(func(f *schema.Field, args map[string]any) any {
		return visible(f.GetOrderedArguments(), args, inputValueDeprecated, inputValueName)
	}),

	"__InputValue.name":        onInputValue(func(v *schema.InputValue) any { return v.Name }),
	"__InputValue.description": onInputValue(func(v *schema.InputValue) any { return v.Description }),
	"__InputValue.type":        onInputValue(func(v *schema.InputValue) any { return v.Type }),
	"__InputValue.isDeprecated": onInputValue(func(v *schema.InputValue) any {
		return v.IsDeprecated
	}),
	"__InputValue.deprecationReason": onInputValue(func(v *schema.InputValue) any {
		return deprecationReason(v.IsDeprecated, v.DeprecationReason)
	}),
	"__InputValue.defaultValue": onInputValue(func(v *schema.InputValue) any {
		if v.DefaultValue == nil {
			return nil
		}
		return schema.ValueLiteral(v.DefaultValue)
	}),

	"__EnumValue.name":         onEnumValue(func(v *schema.EnumValue) any { return v.Name }),
	"__EnumValue.description":  onEnumValue(func(v *schema.EnumValue) any { return v.Description }),
	"__EnumValue.isDeprecated": onEnumValue(func(v *schema.EnumValue) any { return v.IsDeprecated }),
	"__EnumValue.deprecationReason": onEnumValue(func(v *schema.EnumValue) any {
		return deprecationReason(v.IsDeprecated, v.DeprecationReason)
	}),

	"__Directive.name":         onDirective(func(d *schema.Directive, _ map[string]any) any { return d.Name }),
	"__Directive.description":  onDirective(func(d *schema.Directive, _ map[string]any) any { return d.Description }),
	"__Directive.isRepeatable": onDirective(func(d *schema.Directive, _ map[string]any) any { return d.IsRepeatable }),
	"__Directive.locations": onDirective(func(d *schema.Directive, _ map[string]any) any {
		locs := slices.Clone(d.Locations)
		slices.Sort(locs)
		return locs
	}),
	"__Directive.args": onDirective(func(d *schema.Directive, args map[string]any) any {
		return visible(d.Arguments, args, inputValueDeprecated, inputValueName)
	}),
}

func (r *runtime) ResolveField(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (any, error) {
	if info.ParentType == nil {
		return r.base.ResolveField(ctx, info, source, args)
	}
	if info.ParentType.Name == r.schema.QueryType {
		switch info.FieldName {
		case "__schema":
			return r.original, nil
		case "__type":
			return r.lookupType(args), nil
		}
	}
	if resolve, ok := resolvers[info.ParentType.Name+"."+info.FieldName]; ok {
		return resolve(r, source, args)
	}
	return r.base.ResolveField(ctx, info, source, args)
}

func (r *runtime) ResolveType(ctx context.Context, info *executor.ResolveInfo, abstractType string, value any) (string, error) {
	return r.base.ResolveType(ctx, info, abstractType, value)
}

// SerializeLeafValue serializes the introspection enums itself; their values
// already are enum names.
func (r *runtime) SerializeLeafValue(ctx context.Context, typ string, value any) (any, error) {
	if strings.HasPrefix(typ, "__") {
		return fmt.Sprint(value), nil
	}
	return r.base.SerializeLeafValue(ctx, typ, value)
}

// lookupType goes through the schema's type loader, so names only the loader
// knows resolve as well.
func (r *runtime) lookupType(args map[string]any) *schema.Type {
	name, _ := args["name"].(string)
	if name == "" {
		return nil
	}
	if strings.HasPrefix(name, "__") {
		return r.schema.Types[name]
	}
	return r.original.LookupType(name)
}

// A __Type source is either a named *schema.Type or a *schema.TypeRef, which
// may wrap another ref in LIST or NON_NULL.

func wrapper(source any) (*schema.TypeRef, bool) {
	ref, ok := source.(*schema.TypeRef)
	if !ok || ref == nil || ref.Kind == schema.TypeRefKindNamed {
		return nil, false
	}
	return ref, true
}

func (r *runtime) named(source any) *schema.Type {
	switch v := source.(type) {
	case *schema.Type:
		return v
	case *schema.TypeRef:
		if v != nil && v.Kind == schema.TypeRefKindNamed {
			return r.original.LookupType(v.Named)
		}
	}
	return nil
}

func typeKind(r *runtime, source any, _ map[string]any) (any, error) {
	if ref, ok := wrapper(source); ok {
		return string(ref.Kind), nil
	}
	if t := r.named(source); t != nil {
		return string(t.Kind), nil
	}
	if ref, ok := source.(*schema.TypeRef); ok {
		return string(ref.Kind), nil
	}
	return nil, nil
}

func typeNameField(r *runtime, source any, _ map[string]any) (any, error) {
	if _, ok := wrapper(source); ok {
		return nil, nil
	}
	if ref, ok := source.(*schema.TypeRef); ok {
		return ref.Named, nil
	}
	if t := r.named(source); t != nil {
		return t.Name, nil
	}
	return nil, nil
}

func typeOfType(_ *runtime, source any, _ map[string]any) (any, error) {
	if ref, ok := wrapper(source); ok {
		return ref.OfType, nil
	}
	return nil, nil
}

// onNamed resolves a field only named types have; wrappers answer null.
func onNamed(f func(r *runtime, t *schema.Type, args map[string]any) (any, error)) resolver {
	return func(r *runtime, source any, args map[string]any) (any, error) {
		t := r.named(source)
		if t == nil {
			return nil, nil
		}
		return f(r, t, args)
	}
}

func specifiedByURL(_ *runtime, t *schema.Type, _ map[string]any) (any, error) {
	if t.SpecifiedByURL == nil {
		return nil, nil
	}
	return *t.SpecifiedByURL, nil
}

func typeFields(_ *runtime, t *schema.Type, args map[string]any) (any, error) {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil, nil
	}
	fields, err := t.ResolveFields()
	if err != nil {
		return nil, err
	}
	return visible(fields, args, func(f *schema.Field) bool { return f.IsDeprecated }, func(f *schema.Field) string { return f.Name }), nil
}

func typeInterfaces(r *runtime, t *schema.Type, _ map[string]any) (any, error) {
	if t.Kind != schema.TypeKindObject && t.Kind != schema.TypeKindInterface {
		return nil, nil
	}
	return r.lookupAll(t.Interfaces), nil
}

func typePossibleTypes(r *runtime, t *schema.Type, _ map[string]any) (any, error) {
	if t.Kind != schema.TypeKindInterface && t.Kind != schema.TypeKindUnion {
		return nil, nil
	}
	names, err := t.ResolvePossibleTypes()
	if err != nil {
		return nil, err
	}
	return r.lookupAll(names), nil
}

func typeEnumValues(_ *runtime, t *schema.Type, args map[string]any) (any, error) {
	if t.Kind != schema.TypeKindEnum {
		return nil, nil
	}
	return visible(t.EnumValues, args,
		func(v *schema.EnumValue) bool { return v.IsDeprecated },
		func(v *schema.EnumValue) string { return v.Name }), nil
}

func typeInputFields(_ *runtime, t *schema.Type, args map[string]any) (any, error) {
	if t.Kind != schema.TypeKindInputObject {
		return nil, nil
	}
	return visible(t.GetOrderedInputFields(), args, inputValueDeprecated, inputValueName), nil
}

// lookupAll returns the named types sorted by name, skipping unknown names.
func (r *runtime) lookupAll(names []string) []*schema.Type {
	out := make([]*schema.Type, 0, len(names))
	for _, name := range names {
		if t := r.original.LookupType(name); t != nil {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *schema.Type) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// visible drops deprecated items unless includeDeprecated is set and sorts
// the rest by name.
func visible[T any](items []T, args map[string]any, deprecated func(T) bool, name func(T) string) []T {
	include, _ := args["includeDeprecated"].(bool)
	out := make([]T, 0, len(items))
	for _, item := range items {
		if include || !deprecated(item) {
			out = append(out, item)
		}
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(name(a), name(b)) })
	return out
}

func sortedValues[T any](m map[string]T, name func(T) string) []T {
	out := make([]T, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	slices.SortFunc(out, func(a, b T) int { return cmp.Compare(name(a), name(b)) })
	return out
}

func deprecationReason(deprecated bool, reason string) any {
	if !deprecated {
		return nil
	}
	return reason
}

// nilIfNone keeps a missing root type from becoming a typed nil.
func nilIfNone(t *schema.Type) any {
	if t == nil {
		return nil
	}
	return t
}

func typeName(t *schema.Type) string                 { return t.Name }
func directiveName(d *schema.Directive) string       { return d.Name }
func inputValueName(v *schema.InputValue) string     { return v.Name }
func inputValueDeprecated(v *schema.InputValue) bool { return v.IsDeprecated }

func onSchema(f func(*schema.Schema) any) resolver {
	return func(_ *runtime, source any, _ map[string]any) (any, error) {
		s, ok := source.(*schema.Schema)
		if !ok {
			return nil, nil
		}
		return f(s), nil
	}
}

func onField(f func(*schema.Field, map[string]any) any) resolver {
	return func(_ *runtime, source any, args map[string]any) (any, error) {
		v, ok := source.(*schema.Field)
		if !ok {
			return nil, nil
		}
		return f(v, args), nil
	}
}

func onInputValue(f func(*schema.InputValue) any) resolver {
	return func(_ *runtime, source any, _ map[string]any) (any, error) {
		v, ok := source.(*schema.InputValue)
		if !ok {
			return nil, nil
		}
		return f(v), nil
	}
}

func onEnumValue(f func(*schema.EnumValue) any) resolver {
	return func(_ *runtime, source any, _ map[string]any) (any, error) {
		v, ok := source.(*schema.EnumValue)
		if !ok {
			return nil, nil
		}
		return f(v), nil
	}
}

func onDirective(f func(*schema.Directive, map[string]any) any) resolver {
	return func(_ *runtime, source any, args map[string]any) (any, error) {
		v, ok := source.(*schema.Directive)
		if !ok {
			return nil, nil
		}
		return f(v, args), nil
	}
}
