// Package executor implements a depth-first GraphQL executor with explicit
// runtime hooks for field resolution, abstract-type resolution, and leaf
// serialization.
//
// # Preparation
//
// Before execution, the executor:
//  1. Chooses the operation (by name or by uniqueness when unnamed).
//  2. Coerces variables from the provided input against operation variable
//     definitions, producing a variableValues map. Errors here stop execution.
//  3. Determines the root object type from the operation (query, mutation or
//     subscription) and collects the root selection set.
//
// # Execution Model
//
// Fields are collected per object type, honoring @skip/@include and fragment
// type conditions. A condition naming an interface or union applies to every
// object type that implements or belongs to it.
//
// Each collected field is resolved through Runtime.ResolveField and completed
// before its next sibling starts. The call receives a ResolveInfo carrying the
// operation name and the response path, which lets a runtime scope state to a
// subtree of the response.
//
// Types are looked up with schema.Schema.LoadType, so schemas whose types and
// fields are built on first use execute the same as eager ones.
//
// # Value Completion
//
//   - Non-Null: complete the inner type. A null result records an error and
//     propagates null to the nearest nullable ancestor; when that is the root,
//     data is null.
//   - List: complete each element with index-aware paths. A null element for a
//     Non-Null inner type nullifies the entire list value.
//   - Leaf (Scalar/Enum): defer to Runtime.SerializeLeafValue.
//   - Abstract (Interface/Union): defer to Runtime.ResolveType, check that the
//     result is a possible type, then complete as an object.
//   - Object: execute the merged sub-selection.
//
// # Errors and Partial Success
//
// Errors are accumulated as located GraphQL errors (message + path). Errors
// exposing Extensions() keep their extensions. Fields not affected by an error
// keep their values.
package executor
