package introspection

import (
	"strings"
	"sync"

	schema "github.com/hanpama/graphplug/internal/schema"
)

const introspectionSDL = `
"A GraphQL Schema defines the capabilities of a GraphQL server."
type __Schema {
  "A description of the schema."
  description: String
  "A list of all types supported by this server."
  types: [__Type!]!
  "The type that query operations will be rooted at."
  queryType: __Type!
  "If this server supports mutation, the type that mutation operations will be rooted at."
  mutationType: __Type
  "If this server support subscription, the type that subscription operations will be rooted at."
  subscriptionType: __Type
  "A list of all directives supported by this server."
  directives: [__Directive!]!
}

"The fundamental unit of any GraphQL Schema is the type."
type __Type {
  "The kind of type."
  kind: __TypeKind!
  "The name of the type."
  name: String
  "The description of the type."
  description: String
  specifiedByURL: String
  fields(includeDeprecated: Boolean = false): [__Field!]
  interfaces: [__Type!]
  possibleTypes: [__Type!]
  enumValues(includeDeprecated: Boolean = false): [__EnumValue!]
  inputFields(includeDeprecated: Boolean = false): [__InputValue!]
  ofType: __Type
  isOneOf: Boolean
}

"An enum describing what kind of type a given __Type is."
enum __TypeKind {
  SCALAR
  OBJECT
  INTERFACE
  UNION
  ENUM
  INPUT_OBJECT
  LIST
  NON_NULL
}

"Object and Interface types are described by a list of Fields, each of which has a name, potentially a list of arguments, and a return type."
type __Field {
  name: String!
  description: String
  args(includeDeprecated: Boolean = false): [__InputValue!]!
  type: __Type!
  isDeprecated: Boolean!
  deprecationReason: String
}

"Arguments provided to Fields or Directives and the input fields of an InputObject are represented as Input Values."
type __InputValue {
  name: String!
  description: String
  type: __Type!
  "A GraphQL-formatted string representing the default value for this input value."
  defaultValue: String
  isDeprecated: Boolean!
  deprecationReason: String
}

"One possible value for a given Enum."
type __EnumValue {
  name: String!
  description: String
  isDeprecated: Boolean!
  deprecationReason: String
}

"A Directive provides a way to describe alternate runtime execution and type validation behavior in a GraphQL document."
type __Directive {
  name: String!
  description: String
  isRepeatable: Boolean!
  locations: [__DirectiveLocation!]!
  args(includeDeprecated: Boolean = false): [__InputValue!]!
}

"A Directive can be adjacent to many parts of the GraphQL language."
enum __DirectiveLocation {
  QUERY
  MUTATION
  SUBSCRIPTION
  FIELD
  FRAGMENT_DEFINITION
  FRAGMENT_SPREAD
  INLINE_FRAGMENT
  VARIABLE_DEFINITION
  SCHEMA
  SCALAR
  OBJECT
  FIELD_DEFINITION
  ARGUMENT_DEFINITION
  INTERFACE
  UNION
  ENUM
  ENUM_VALUE
  INPUT_OBJECT
  INPUT_FIELD_DEFINITION
}

type Query {
  "Access the current type schema of this server."
  __schema: __Schema!
  "Request the type information of a single type."
  __type("The name of the type to look up." name: String!): __Type
}
`

// introspectionTypes parses the introspection types once. They are never
// mutated, so every extended schema shares them.
var introspectionTypes = sync.OnceValue(func() *schema.Schema {
	sch, err := schema.BuildFromSDL(introspectionSDL)
	if err != nil {
		panic("introspection: " + err.Error())
	}
	return sch
})

// extend returns a copy of original with the introspection types and the
// __schema and __type root fields. Types missing from the copy are loaded
// through original, so its type loader keeps working.
func extend(original *schema.Schema) *schema.Schema {
	extended := &schema.Schema{
		QueryType:        original.QueryType,
		MutationType:     original.MutationType,
		SubscriptionType: original.SubscriptionType,
		Types:            make(map[string]*schema.Type, len(original.Types)+8),
		Directives:       original.Directives,
		Description:      original.Description,
	}
	for name, typ := range original.Types {
		extended.Types[name] = typ
	}
	extended.SetTypeLoader(original.LoadType)

	meta := introspectionTypes()
	for name, typ := range meta.Types {
		if strings.HasPrefix(name, "__") {
			extended.Types[name] = typ
		}
	}

	query := original.GetQueryType()
	if query == nil {
		return extended
	}
	rootFields := meta.GetQueryType().GetOrderedFields()
	root := schema.NewType(query.Name, query.Kind, query.Description)
	root.Interfaces = query.Interfaces
	root.SetFieldThunk(func() ([]*schema.Field, error) {
		fields, err := query.ResolveFields()
		if err != nil {
			return nil, err
		}
		out := make([]*schema.Field, 0, len(fields)+len(rootFields))
		out = append(out, fields...)
		return append(out, rootFields...), nil
	})
	extended.Types[query.Name] = root
	return extended
}
