package schema

import "fmt"

// TypeLoader resolves a type name that is not (yet) part of Schema.Types.
type TypeLoader func(name string) (*Type, error)

// Schema represents the complete GraphQL schema
type Schema struct {
	QueryType        string
	MutationType     string
	SubscriptionType string
	Types            map[string]*Type // All named types keyed by name
	Directives       map[string]*Directive
	Description      string

	loader TypeLoader
}

// GetQueryType returns the root query type (may be nil if absent)
func (s *Schema) GetQueryType() *Type { return s.Types[s.QueryType] }

// GetMutationType returns the root mutation type (may be nil if absent)
func (s *Schema) GetMutationType() *Type {
	if s.MutationType == "" {
		return nil
	}
	return s.Types[s.MutationType]
}

// GetSubscriptionType returns the root subscription type (may be nil if absent)
func (s *Schema) GetSubscriptionType() *Type {
	if s.SubscriptionType == "" {
		return nil
	}
	return s.Types[s.SubscriptionType]
}

// LoadType returns the named type, falling back to the type loader for names
// that are not registered directly.
func (s *Schema) LoadType(name string) (*Type, error) {
	if t, ok := s.Types[name]; ok {
		return t, nil
	}
	if s.loader == nil {
		return nil, fmt.Errorf("unknown type %q", name)
	}
	return s.loader(name)
}

// LookupType is LoadType without the error.
func (s *Schema) LookupType(name string) *Type {
	t, err := s.LoadType(name)
	if err != nil {
		return nil
	}
	return t
}

// Materialize forces every lazily built part of the schema and returns the
// first failure.
func (s *Schema) Materialize() error {
	for _, name := range sortedTypeNames(s) {
		t := s.Types[name]
		if _, err := t.ResolveFields(); err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
		if _, err := t.ResolvePossibleTypes(); err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
		if _, err := t.ResolveInputFields(); err != nil {
			return fmt.Errorf("type %s: %w", name, err)
		}
	}
	return nil
}

// Type is a named GraphQL type (object, interface, union, scalar, enum, input)
type Type struct {
	Name           string
	Kind           TypeKind
	Description    string
	Fields         []*Field      // For OBJECT and INTERFACE
	Interfaces     []string      // For OBJECT and INTERFACE (implemented/extended)
	PossibleTypes  []string      // For INTERFACE and UNION
	EnumValues     []*EnumValue  // For ENUM
	InputFields    []*InputValue // For INPUT_OBJECT
	SpecifiedByURL *string
	OneOf          bool

	fields        *Thunk[[]*Field]
	possibleTypes *Thunk[[]string]
	inputFields   *Thunk[[]*InputValue]
}

// ResolveFields returns the fields of the type, building them on first use
// when they were declared through SetFieldThunk.
func (t *Type) ResolveFields() ([]*Field, error) {
	if t.fields == nil {
		return t.Fields, nil
	}
	return t.fields.Get()
}

// ResolvePossibleTypes is the PossibleTypes counterpart of ResolveFields.
func (t *Type) ResolvePossibleTypes() ([]string, error) {
	if t.possibleTypes == nil {
		return t.PossibleTypes, nil
	}
	return t.possibleTypes.Get()
}

// ResolveInputFields is the InputFields counterpart of ResolveFields.
func (t *Type) ResolveInputFields() ([]*InputValue, error) {
	if t.inputFields == nil {
		return t.InputFields, nil
	}
	return t.inputFields.Get()
}

// Field represents a field on an object or interface
type Field struct {
	Name              string
	Description       string
	Type              *TypeRef
	Arguments         []*InputValue
	IsDeprecated      bool
	DeprecationReason string
}

// TypeKind represents the kind of GraphQL type
type TypeKind string

const (
	TypeKindScalar      TypeKind = "SCALAR"
	TypeKindObject      TypeKind = "OBJECT"
	TypeKindInterface   TypeKind = "INTERFACE"
	TypeKindUnion       TypeKind = "UNION"
	TypeKindEnum        TypeKind = "ENUM"
	TypeKindInputObject TypeKind = "INPUT_OBJECT"
)

// IsAbstract reports whether values of this kind need runtime type resolution.
func (k TypeKind) IsAbstract() bool {
	return k == TypeKindInterface || k == TypeKindUnion
}

// IsLeaf reports whether values of this kind are serialized rather than selected.
func (k TypeKind) IsLeaf() bool {
	return k == TypeKindScalar || k == TypeKindEnum
}

// TypeRef represents a reference to a type (can be wrapped)
type TypeRef struct {
	Kind   TypeRefKind
	OfType *TypeRef // For List and NonNull
	Named  string   // For named types
}

type TypeRefKind string

const (
	TypeRefKindNamed   TypeRefKind = "NAMED"
	TypeRefKindList    TypeRefKind = "LIST"
	TypeRefKindNonNull TypeRefKind = "NON_NULL"
)

func (t *TypeRef) IsNonNull() bool {
	return t != nil && t.Kind == TypeRefKindNonNull
}

func (t *TypeRef) IsList() bool {
	if t.Kind == TypeRefKindList {
		return true
	}
	if t.Kind == TypeRefKindNonNull && t.OfType != nil {
		return t.OfType.Kind == TypeRefKindList
	}
	return false
}

func (t *TypeRef) Unwrap() *TypeRef {
	if t.Kind == TypeRefKindNonNull || t.Kind == TypeRefKindList {
		return t.OfType
	}
	return t
}

func (t *TypeRef) GetNamedType() string {
	current := t
	for current != nil {
		if current.Named != "" {
			return current.Named
		}
		current = current.OfType
	}
	return ""
}

// String renders the reference in SDL notation, e.g. "[Node!]!".
func (t *TypeRef) String() string {
	if t == nil {
		return ""
	}
	switch t.Kind {
	case TypeRefKindList:
		return "[" + t.OfType.String() + "]"
	case TypeRefKindNonNull:
		return t.OfType.String() + "!"
	default:
		return t.Named
	}
}

type EnumValue struct {
	Name              string
	Description       string
	Value             any // internal value mapped to Name when serializing
	IsDeprecated      bool
	DeprecationReason string
}

type InputValue struct {
	Name              string
	Description       string
	Type              *TypeRef
	DefaultValue      any
	IsDeprecated      bool
	DeprecationReason string
}

type Directive struct {
	Name         string
	Description  string
	Locations    []string
	Arguments    []*InputValue
	IsRepeatable bool
}

func NonNullType(t *TypeRef) *TypeRef { return &TypeRef{Kind: TypeRefKindNonNull, OfType: t} }
func ListType(t *TypeRef) *TypeRef    { return &TypeRef{Kind: TypeRefKindList, OfType: t} }
func NamedType(name string) *TypeRef  { return &TypeRef{Kind: TypeRefKindNamed, Named: name} }

// IsNonNull reports whether the type is wrapped with Non-Null.
func IsNonNull(t *TypeRef) bool { return t != nil && t.IsNonNull() }

// IsList reports whether the type is (or is wrapped by) a list type.
func IsList(t *TypeRef) bool { return t != nil && t.IsList() }

// Unwrap removes one layer of Non-Null or List wrapping and returns the inner type.
func Unwrap(t *TypeRef) *TypeRef { return t.Unwrap() }

// GetNamedType returns the innermost named type for the given reference.
func GetNamedType(t *TypeRef) string { return t.GetNamedType() }
