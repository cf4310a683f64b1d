package executor

import (
	"context"

	language "github.com/hanpama/graphplug/internal/language"
	schema "github.com/hanpama/graphplug/internal/schema"
)

// Runtime defines the host integration surface for field resolution,
// abstract type resolution, and leaf-value serialization used by the Executor.
//
// General contract
//   - The Executor walks the selection set depth-first. Sibling fields are
//     resolved in document order and every call completes before the next one
//     starts, so mutation root fields run serially.
//   - Errors returned from any method are converted into located GraphQL errors.
//     If the field's return type is Non-Null, the Executor propagates the null
//     up to the nearest nullable ancestor.
//   - Errors that expose an Extensions() map keep it in the response.
//   - Implementations may be shared between operations running concurrently.
//   - Implementations must not mutate source or args values.
//
// Abstract types and leaf values
//   - ResolveType must return the concrete type name for interface/union values.
//   - SerializeLeafValue must coerce/serialize scalars and enums into JSON-safe
//     Go values. For enums, return the enum name as string.
type Runtime interface {
	// ResolveField produces the raw value of a field, completed afterwards by
	// the Executor (including nested selection sets). Return (nil, nil) to
	// produce a GraphQL null for nullable fields.
	ResolveField(ctx context.Context, info *ResolveInfo, source any, args map[string]any) (any, error)

	// ResolveType determines the concrete object type name for a value of an
	// abstract type. The returned name must be a possible type of abstractType.
	ResolveType(ctx context.Context, info *ResolveInfo, abstractType string, value any) (string, error)

	// SerializeLeafValue serializes a scalar or enum value to a JSON-safe Go value.
	SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error)
}

// ResolveInfo describes the field being resolved.
type ResolveInfo struct {
	// OperationName is the operation's name, or its kind ("query",
	// "mutation") for anonymous operations.
	OperationName string
	Operation     *language.OperationDefinition
	ParentType    *schema.Type
	FieldName     string
	ReturnType    *schema.TypeRef
	// Path is the response path of the field, ending with its response name.
	Path      Path
	Fields    []*language.Field
	Schema    *schema.Schema
	Variables map[string]any
}

// operationLabel is what ResolveInfo.OperationName carries for op.
func operationLabel(op *language.OperationDefinition) string {
	if op.Name != "" {
		return op.Name
	}
	return string(op.Operation)
}
