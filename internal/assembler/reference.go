package assembler

// DefaultClass is the class tag of the factories every manager starts with.
const DefaultClass = "default"

// TypeReference describes how to build one schema type.
type TypeReference struct {
	ID         string
	Kind       Kind
	Class      string
	Definition *TypeDefinition
}

// TypeDefinition is the declarative part of a type reference.
type TypeDefinition struct {
	// Name is the GraphQL type name.
	Name string
	// Type is the hierarchical data type the type represents, e.g.
	// "entity:node:article". Values whose DataType equals it or lies below it
	// are accepted by the default IsTypeOf.
	Type        string
	Description string
	// Interfaces lists implemented interfaces by GraphQL or data type name.
	Interfaces []string
	// Fields holds the fields of input object types.
	Fields []ArgumentDefinition
	// Values holds the values of enum types.
	Values []EnumValueDefinition
	// ResponseCacheContexts are added to the request's cacheability whenever
	// a field returns this type.
	ResponseCacheContexts []string
	// SpecifiedByURL is reported for custom scalars.
	SpecifiedByURL string
	Extra          map[string]any
}

// EnumValueDefinition is one value of an enum type. Value is the internal
// representation serialized as Name; a nil Value stands for Name itself.
type EnumValueDefinition struct {
	Name              string
	Description       string
	Value             any
	Deprecated        bool
	DeprecationReason string
}

// FieldReference describes how to build a field of the Owner type.
type FieldReference struct {
	ID         string
	Class      string
	Owner      string
	Definition *FieldDefinition
}

// MutationReference describes how to build a field of the mutation root.
type MutationReference struct {
	ID         string
	Class      string
	Definition *FieldDefinition
}

// FieldDefinition is the declarative part of a field or mutation reference.
type FieldDefinition struct {
	Name                  string
	Description           string
	Type                  TypeDescriptor
	Arguments             []ArgumentDefinition
	Deprecated            bool
	DeprecationReason     string
	ResponseCacheContexts []string
	Extra                 map[string]any
}

// ArgumentDefinition describes a field argument or an input object field.
// A nil Default means the argument has no default value.
type ArgumentDefinition struct {
	Name              string
	Description       string
	Type              TypeDescriptor
	Default           any
	Deprecated        bool
	DeprecationReason string
}
