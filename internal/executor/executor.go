package executor

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	language "github.com/hanpama/graphplug/internal/language"
	schema "github.com/hanpama/graphplug/internal/schema"
)

// Path is a response path; elements are response names (string) or list
// indices (int).
type Path []PathElement

type PathElement = any

// executionState holds the state during query execution
type executionState struct {
	runtime        Runtime
	schema         *schema.Schema
	document       *language.QueryDocument
	operation      *language.OperationDefinition
	operationName  string
	variableValues map[string]any
	context        context.Context
	errors         []GraphQLError
}

type Executor struct {
	runtime Runtime
	schema  *schema.Schema
}

func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return &Executor{runtime: runtime, schema: schema}
}

func (e *Executor) ExecuteRequest(
	ctx context.Context,
	document *language.QueryDocument,
	operationName string,
	variableValues map[string]any,
	initialValue any,
) *ExecutionResult {
	operation := getOperation(document, operationName)
	if operation == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: "operation not found"}}}
	}

	coercedVariableValues, err := coerceVariableValues(e.schema, operation, variableValues)
	if err != nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: err.Error()}}}
	}

	var rootType *schema.Type
	switch operation.Operation {
	case language.Query:
		rootType = e.schema.GetQueryType()
	case language.Mutation:
		rootType = e.schema.GetMutationType()
	case language.Subscription:
		rootType = e.schema.GetSubscriptionType()
	default:
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("unsupported operation type: %s", operation.Operation)}}}
	}

	if rootType == nil {
		return &ExecutionResult{Errors: []GraphQLError{{Message: fmt.Sprintf("root type not found for %s operation", operation.Operation)}}}
	}

	state := &executionState{
		runtime:        e.runtime,
		schema:         e.schema,
		document:       document,
		operation:      operation,
		operationName:  operationLabel(operation),
		variableValues: coercedVariableValues,
		context:        ctx,
		errors:         []GraphQLError{},
	}

	data, ok := executeSelectionSet(state, rootType, operation.SelectionSet, initialValue, Path{})
	if !ok {
		// A Non-Null root field became null.
		return &ExecutionResult{Data: nil, Errors: state.errors}
	}
	return &ExecutionResult{Data: data, Errors: state.errors}
}

// executeSelectionSet resolves every collected field of objectType. It
// reports false when a Non-Null field became null, in which case the object
// itself must be null.
func executeSelectionSet(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet, objectValue any, path Path) (map[string]any, bool) {
	groupedFields := collectFields(state, objectType, selectionSet)
	resultMap := make(map[string]any)

	for _, collectedField := range groupedFields {
		responseName := collectedField.ResponseName
		fields := collectedField.Fields
		fieldPath := appendPath(path, responseName)

		if fields[0].Name == "__typename" {
			resultMap[responseName] = objectType.Name
			continue
		}

		fieldDef, err := objectType.FieldByName(fields[0].Name)
		if err != nil {
			state.errors = append(state.errors, locatedError(err, fieldPath))
			return nil, false
		}
		if fieldDef == nil {
			state.addError(fmt.Sprintf("Cannot query field '%s' on type '%s'", fields[0].Name, objectType.Name), fieldPath)
			continue
		}

		value, ok := executeField(state, objectType, objectValue, fieldDef, fields, fieldPath)
		if !ok {
			return nil, false
		}
		resultMap[responseName] = value
	}

	return resultMap, true
}

func executeField(state *executionState, objectType *schema.Type, objectValue any, fieldDef *schema.Field, fields []*language.Field, path Path) (any, bool) {
	args, err := coerceArgumentValues(state.schema, fieldDef, fields[0].Arguments, state.variableValues)
	if err != nil {
		state.addError(err.Error(), path)
		return nil, !schema.IsNonNull(fieldDef.Type)
	}

	info := &ResolveInfo{
		OperationName: state.operationName,
		Operation:     state.operation,
		ParentType:    objectType,
		FieldName:     fieldDef.Name,
		ReturnType:    fieldDef.Type,
		Path:          path,
		Fields:        fields,
		Schema:        state.schema,
		Variables:     state.variableValues,
	}
	resolved, err := state.runtime.ResolveField(state.context, info, objectValue, args)
	if err != nil {
		state.errors = append(state.errors, locatedError(err, path))
		return nil, !schema.IsNonNull(fieldDef.Type)
	}
	return completeValue(state, info, fieldDef.Type, fields, resolved, path)
}

// completeValue completes a resolved value against fieldType. The boolean is
// false when the value is null although fieldType is Non-Null; the error has
// already been recorded.
func completeValue(state *executionState, info *ResolveInfo, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, bool) {
	if schema.IsNonNull(fieldType) {
		if isNullish(result) {
			state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			return nil, false
		}
		completed, ok := completeNonNullValue(state, info, schema.Unwrap(fieldType), fields, result, path)
		if ok && isNullish(completed) {
			state.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", pathToString(path)), path)
			return nil, false
		}
		return completed, ok
	}
	if isNullish(result) {
		return nil, true
	}
	completed, ok := completeNonNullValue(state, info, fieldType, fields, result, path)
	if !ok {
		return nil, true
	}
	return completed, true
}

// completeNonNullValue completes a non-null result. The boolean is false when
// completion failed and the value has to be null.
func completeNonNullValue(state *executionState, info *ResolveInfo, fieldType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, bool) {
	if schema.IsList(fieldType) {
		return completeListValue(state, info, fieldType, fields, result, path)
	}

	namedType := schema.GetNamedType(fieldType)
	typeObj, err := state.schema.LoadType(namedType)
	if err != nil {
		state.addError(fmt.Sprintf("Unknown type: %s", namedType), path)
		return nil, false
	}

	switch typeObj.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		serialized, err := state.runtime.SerializeLeafValue(state.context, namedType, result)
		if err != nil {
			state.errors = append(state.errors, locatedError(err, path))
			return nil, false
		}
		return serialized, true
	case schema.TypeKindObject:
		return completeObjectValue(state, typeObj, fields, result, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return completeAbstractValue(state, info, typeObj, fields, result, path)
	default:
		state.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", typeObj.Kind), path)
		return nil, false
	}
}

// completeListValue completes a list value
func completeListValue(state *executionState, info *ResolveInfo, listType *schema.TypeRef, fields []*language.Field, result any, path Path) (any, bool) {
	var items []any
	if direct, ok := result.([]any); ok {
		items = direct
	} else {
		rv := reflect.ValueOf(result)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			state.addError(fmt.Sprintf("Expected list value, got %T", result), path)
			return nil, false
		}
		items = make([]any, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			items[i] = rv.Index(i).Interface()
		}
	}

	inner := schema.Unwrap(listType)
	completed := make([]any, len(items))
	for i, item := range items {
		v, ok := completeValue(state, info, inner, fields, item, appendPath(path, i))
		if !ok {
			// A Non-Null item became null: the whole list is null.
			return nil, false
		}
		completed[i] = v
	}
	return completed, true
}

func completeObjectValue(state *executionState, objectType *schema.Type, fields []*language.Field, result any, path Path) (any, bool) {
	sub := mergeSelectionSets(fields)
	out, ok := executeSelectionSet(state, objectType, sub, result, path)
	if !ok {
		return nil, false
	}
	return out, true
}

func completeAbstractValue(state *executionState, info *ResolveInfo, abstractType *schema.Type, fields []*language.Field, result any, path Path) (any, bool) {
	typeName, err := state.runtime.ResolveType(state.context, info, abstractType.Name, result)
	if err != nil {
		state.errors = append(state.errors, locatedError(err, path))
		return nil, false
	}
	objectType := state.schema.LookupType(typeName)
	if objectType == nil || objectType.Kind != schema.TypeKindObject {
		state.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstractType.Name, typeName), path)
		return nil, false
	}
	if !isPossibleType(abstractType, objectType) {
		state.addError(fmt.Sprintf("Runtime Object type %s is not a possible type for %s", typeName, abstractType.Name), path)
		return nil, false
	}
	return completeObjectValue(state, objectType, fields, result, path)
}

// isPossibleType reports whether objectType may stand in for abstractType.
func isPossibleType(abstractType, objectType *schema.Type) bool {
	if abstractType.Kind == schema.TypeKindInterface && objectType.Implements(abstractType.Name) {
		return true
	}
	for _, name := range abstractType.GetPossibleTypes() {
		if name == objectType.Name {
			return true
		}
	}
	return false
}

// pathToString renders a path as it appears in error messages, such as
// "items[0].name".
func pathToString(path Path) string {
	var b strings.Builder
	for i, elem := range path {
		switch v := elem.(type) {
		case string:
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(v)
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		}
	}
	return b.String()
}

// appendPath never shares the backing array of path, since sibling fields
// extend the same parent path.
func appendPath(path Path, elem PathElement) Path {
	return append(slices.Clip(path), elem)
}

// getOperation selects the named operation, or the only one when no name is
// given.
func getOperation(document *language.QueryDocument, operationName string) *language.OperationDefinition {
	if operationName == "" {
		if len(document.Operations) == 1 {
			return document.Operations[0]
		}
		return nil
	}
	return document.Operations.ForName(operationName)
}

func (state *executionState) addError(message string, path Path) {
	state.errors = append(state.errors, GraphQLError{Message: message, Path: path})
}

// mergeSelectionSets concatenates the sub-selections of fields sharing a
// response name.
func mergeSelectionSets(fields []*language.Field) language.SelectionSet {
	var merged language.SelectionSet
	for _, f := range fields {
		merged = append(merged, f.SelectionSet...)
	}
	return merged
}

// isNullish returns true for nil interfaces and typed nils (map, slice, ptr, interface)
func isNullish(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Interface, reflect.Ptr, reflect.Slice, reflect.Map, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}
