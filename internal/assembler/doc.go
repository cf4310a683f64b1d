// Package assembler turns a declarative Definition of types, fields and
// mutations into a schema.Schema whose parts are built on first use.
//
// # References and factories
//
// Every type, field and mutation is described by a reference: an id, a class
// tag and a definition. The Registry builds a reference by looking up the
// factory registered under its class in the manager for its kind, and
// remembers the result by id. A reference is built at most once per Registry.
//
// # Type names
//
// Types are requested by GraphQL name or by a colon-delimited data type name
// such as "entity:node:article". A name that is not declared falls back to
// its parent ("entity:node", then "entity") until a declared type or an alias
// in Definition.TypeReferences matches:
//
//	entity:node:article -> entity:node -> entity
//
// # Dispatch
//
// Values of interface and union types are dispatched to the first concrete
// type, in declared order, whose IsTypeOf accepts them.
package assembler
