package schema

import (
	"fmt"

	language "github.com/hanpama/graphplug/internal/language"
)

// NewSchema returns an empty schema with the builtin scalars and directives.
func NewSchema(description string) *Schema {
	s := &Schema{
		Types:       make(map[string]*Type),
		Directives:  make(map[string]*Directive),
		Description: description,
	}
	s.AddType(stringType).
		AddType(intType).
		AddType(floatType).
		AddType(booleanType).
		AddType(idType)
	s.AddDirective(includeDirective).
		AddDirective(skipDirective).
		AddDirective(deprecatedDirective)
	return s
}

func (s *Schema) SetQueryType(name string) *Schema        { s.QueryType = name; return s }
func (s *Schema) SetMutationType(name string) *Schema     { s.MutationType = name; return s }
func (s *Schema) SetSubscriptionType(name string) *Schema { s.SubscriptionType = name; return s }
func (s *Schema) SetTypeLoader(l TypeLoader) *Schema      { s.loader = l; return s }

func (s *Schema) AddType(t *Type) *Schema {
	if s.Types == nil {
		s.Types = make(map[string]*Type)
	}
	s.Types[t.Name] = t
	return s
}

func (s *Schema) AddDirective(d *Directive) *Schema {
	if s.Directives == nil {
		s.Directives = make(map[string]*Directive)
	}
	s.Directives[d.Name] = d
	return s
}

func NewType(name string, kind TypeKind, description string) *Type {
	return &Type{Name: name, Kind: kind, Description: description}
}

func (t *Type) AddField(f *Field) *Type        { t.Fields = append(t.Fields, f); return t }
func (t *Type) AddInterface(name string) *Type { t.Interfaces = append(t.Interfaces, name); return t }
func (t *Type) AddPossibleType(name string) *Type {
	t.PossibleTypes = append(t.PossibleTypes, name)
	return t
}
func (t *Type) AddEnumValue(v *EnumValue) *Type    { t.EnumValues = append(t.EnumValues, v); return t }
func (t *Type) AddInputField(v *InputValue) *Type  { t.InputFields = append(t.InputFields, v); return t }
func (t *Type) SetOneOf(oneOf bool) *Type          { t.OneOf = oneOf; return t }
func (t *Type) SetSpecifiedByURL(url string) *Type { t.SpecifiedByURL = &url; return t }

// SetFieldThunk defers the field list until it is first needed.
func (t *Type) SetFieldThunk(build func() ([]*Field, error)) *Type {
	t.fields = NewThunk(build)
	return t
}

// SetPossibleTypesThunk defers the possible type list until it is first needed.
func (t *Type) SetPossibleTypesThunk(build func() ([]string, error)) *Type {
	t.possibleTypes = NewThunk(build)
	return t
}

// GetOrderedFields returns the resolved fields, or nil if building them failed.
func (t *Type) GetOrderedFields() []*Field {
	fields, err := t.ResolveFields()
	if err != nil {
		return nil
	}
	return fields
}

// GetPossibleTypes returns the resolved possible types, or nil on failure.
func (t *Type) GetPossibleTypes() []string {
	names, err := t.ResolvePossibleTypes()
	if err != nil {
		return nil
	}
	return names
}

// SetInputFieldThunk defers the input field list until it is first needed.
func (t *Type) SetInputFieldThunk(build func() ([]*InputValue, error)) *Type {
	t.inputFields = NewThunk(build)
	return t
}

// GetOrderedInputFields returns the resolved input fields, or nil on failure.
func (t *Type) GetOrderedInputFields() []*InputValue {
	fields, err := t.ResolveInputFields()
	if err != nil {
		return nil
	}
	return fields
}

// Implements reports whether t declares the named interface.
func (t *Type) Implements(name string) bool {
	for _, iface := range t.Interfaces {
		if iface == name {
			return true
		}
	}
	return false
}

// FieldByName returns the named field or nil.
func (t *Type) FieldByName(name string) (*Field, error) {
	fields, err := t.ResolveFields()
	if err != nil {
		return nil, err
	}
	for _, f := range fields {
		if f.Name == name {
			return f, nil
		}
	}
	return nil, nil
}

func NewField(name, description string, typ *TypeRef) *Field {
	return &Field{Name: name, Description: description, Type: typ}
}

func (f *Field) AddArgument(a *InputValue) *Field { f.Arguments = append(f.Arguments, a); return f }

func (f *Field) Deprecate(reason string) *Field {
	f.IsDeprecated = true
	f.DeprecationReason = reason
	return f
}

func (f *Field) GetOrderedArguments() []*InputValue { return f.Arguments }

func NewEnumValue(name, description string) *EnumValue {
	return &EnumValue{Name: name, Description: description}
}

func (e *EnumValue) Deprecate(reason string) *EnumValue {
	e.IsDeprecated = true
	e.DeprecationReason = reason
	return e
}

func NewInputValue(name, description string, typ *TypeRef) *InputValue {
	return &InputValue{Name: name, Description: description, Type: typ}
}

func (v *InputValue) SetDefault(value any) *InputValue { v.DefaultValue = value; return v }

func (v *InputValue) Deprecate(reason string) *InputValue {
	v.IsDeprecated = true
	v.DeprecationReason = reason
	return v
}

func NewDirective(name, description string) *Directive {
	return &Directive{Name: name, Description: description}
}

func (d *Directive) SetRepeatable(r bool) *Directive { d.IsRepeatable = r; return d }
func (d *Directive) AddArgument(a *InputValue) *Directive {
	d.Arguments = append(d.Arguments, a)
	return d
}

// BuildFromSDL parses SDL and returns the corresponding eager Schema. Object
// types are registered as possible types of the interfaces they implement, in
// declaration order.
func BuildFromSDL(sdl string) (*Schema, error) {
	doc, err := language.ParseSchema("schema.graphql", sdl)
	if err != nil {
		return nil, err
	}
	s := NewSchema("")
	s.SetQueryType("Query")
	for _, def := range doc.Schema {
		for _, op := range def.OperationTypes {
			switch op.Operation {
			case language.Query:
				s.SetQueryType(op.Type)
			case language.Mutation:
				s.SetMutationType(op.Type)
			case language.Subscription:
				s.SetSubscriptionType(op.Type)
			}
		}
	}
	if len(doc.Schema) == 0 {
		for _, def := range doc.Definitions {
			if def.Name == "Mutation" {
				s.SetMutationType("Mutation")
			}
		}
	}

	for _, def := range doc.Definitions {
		t, err := typeFromDefinition(def)
		if err != nil {
			return nil, err
		}
		s.AddType(t)
	}
	for _, def := range doc.Definitions {
		if def.Kind != language.Object {
			continue
		}
		for _, iface := range def.Interfaces {
			if it := s.Types[iface]; it != nil && it.Kind == TypeKindInterface {
				it.AddPossibleType(def.Name)
			}
		}
	}
	return s, nil
}

func typeFromDefinition(def *language.Definition) (*Type, error) {
	var t *Type
	switch def.Kind {
	case language.Object:
		t = NewType(def.Name, TypeKindObject, def.Description)
	case language.Interface:
		t = NewType(def.Name, TypeKindInterface, def.Description)
	case language.Union:
		t = NewType(def.Name, TypeKindUnion, def.Description)
	case language.Enum:
		t = NewType(def.Name, TypeKindEnum, def.Description)
	case language.Scalar:
		t = NewType(def.Name, TypeKindScalar, def.Description)
	case language.InputObject:
		t = NewType(def.Name, TypeKindInputObject, def.Description)
	default:
		return nil, fmt.Errorf("unsupported definition kind %s for %s", def.Kind, def.Name)
	}
	for _, iface := range def.Interfaces {
		t.AddInterface(iface)
	}
	for _, member := range def.Types {
		t.AddPossibleType(member)
	}
	for _, ev := range def.EnumValues {
		v := NewEnumValue(ev.Name, ev.Description)
		if reason, ok := deprecation(ev.Directives); ok {
			v.Deprecate(reason)
		}
		t.AddEnumValue(v)
	}
	for _, fd := range def.Fields {
		if t.Kind == TypeKindInputObject {
			iv, err := inputValueFromAST(fd.Name, fd.Description, fd.Type, fd.DefaultValue, fd.Directives)
			if err != nil {
				return nil, err
			}
			t.AddInputField(iv)
			continue
		}
		f := NewField(fd.Name, fd.Description, typeRefFromAST(fd.Type))
		for _, arg := range fd.Arguments {
			iv, err := inputValueFromAST(arg.Name, arg.Description, arg.Type, arg.DefaultValue, arg.Directives)
			if err != nil {
				return nil, err
			}
			f.AddArgument(iv)
		}
		if reason, ok := deprecation(fd.Directives); ok {
			f.Deprecate(reason)
		}
		t.AddField(f)
	}
	if def.Directives.ForName("oneOf") != nil {
		t.SetOneOf(true)
	}
	return t, nil
}

func inputValueFromAST(name, description string, typ *language.Type, def *language.Value, dirs language.DirectiveList) (*InputValue, error) {
	iv := NewInputValue(name, description, typeRefFromAST(typ))
	if def != nil {
		v, err := def.Value(nil)
		if err != nil {
			return nil, fmt.Errorf("default value of %s: %w", name, err)
		}
		iv.SetDefault(v)
	}
	if reason, ok := deprecation(dirs); ok {
		iv.Deprecate(reason)
	}
	return iv, nil
}

func deprecation(dirs language.DirectiveList) (string, bool) {
	d := dirs.ForName("deprecated")
	if d == nil {
		return "", false
	}
	if arg := d.Arguments.ForName("reason"); arg != nil && arg.Value != nil {
		return arg.Value.Raw, true
	}
	return "", true
}

// typeRefFromAST converts a parsed type annotation.
func typeRefFromAST(t *language.Type) *TypeRef {
	if t == nil {
		return nil
	}
	if t.NonNull {
		return NonNullType(typeRefFromAST(&language.Type{NamedType: t.NamedType, Elem: t.Elem}))
	}
	if t.NamedType != "" {
		return NamedType(t.NamedType)
	}
	if t.Elem != nil {
		return ListType(typeRefFromAST(t.Elem))
	}
	return nil
}

// TypeRefFromAST is exported for the executor's variable coercion.
func TypeRefFromAST(t *language.Type) *TypeRef { return typeRefFromAST(t) }
