package executor

import (
	"fmt"
	"math"
	"strconv"

	language "github.com/hanpama/graphplug/internal/language"
	schema "github.com/hanpama/graphplug/internal/schema"
)

// coerceVariableValues coerces the provided variables against the
// operation's variable definitions. Omitted variables take their default;
// omitted variables without one are left out.
func coerceVariableValues(sch *schema.Schema, operation *language.OperationDefinition, provided map[string]any) (map[string]any, error) {
	coerced := make(map[string]any, len(operation.VariableDefinitions))
	for _, def := range operation.VariableDefinitions {
		name, typ := def.Variable, def.Type
		value, ok := provided[name]
		if !ok {
			switch {
			case def.DefaultValue != nil:
				value = valueFromAST(def.DefaultValue, nil)
			case typ.NonNull:
				return nil, fmt.Errorf("variable $%s of required type %s was not provided", name, typ.String())
			default:
				continue
			}
		}
		if value == nil && typ.NonNull {
			return nil, fmt.Errorf("variable $%s of type %s cannot be null", name, typ.String())
		}
		cv, err := coerceValue(sch, value, schema.TypeRefFromAST(typ))
		if err != nil {
			return nil, fmt.Errorf("variable $%s of type %s cannot be coerced: %v", name, typ.String(), err)
		}
		coerced[name] = cv
	}
	return coerced, nil
}

// coerceArgumentValues coerces argument values for a field. Defaults fill in
// omitted arguments; the first coercion failure is returned.
func coerceArgumentValues(sch *schema.Schema, fieldDef *schema.Field, arguments language.ArgumentList, variables map[string]any) (map[string]any, error) {
	coerced := make(map[string]any, len(fieldDef.Arguments))
	for _, def := range fieldDef.Arguments {
		arg := arguments.ForName(def.Name)
		if arg != nil && arg.Value != nil && arg.Value.Kind == language.Variable {
			// An omitted variable leaves the argument unset.
			if _, ok := variables[arg.Value.Raw]; !ok {
				arg = nil
			}
		}
		if arg == nil {
			if def.DefaultValue != nil {
				coerced[def.Name] = def.DefaultValue
			} else if schema.IsNonNull(def.Type) {
				return nil, fmt.Errorf("argument '%s' of required type was not provided", def.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, valueFromAST(arg.Value, variables), def.Type)
		if err != nil {
			return nil, fmt.Errorf("argument '%s' cannot be coerced: %v", def.Name, err)
		}
		coerced[def.Name] = cv
	}
	return coerced, nil
}

// valueFromAST converts a literal to a Go value, substituting variables.
// Enum literals become their names.
func valueFromAST(value *language.Value, variables map[string]any) any {
	if value == nil {
		return nil
	}
	switch value.Kind {
	case language.Variable:
		return variables[value.Raw]
	case language.IntValue:
		iv, _ := strconv.Atoi(value.Raw)
		return iv
	case language.FloatValue:
		fv, _ := strconv.ParseFloat(value.Raw, 64)
		return fv
	case language.StringValue, language.BlockValue, language.EnumValue:
		return value.Raw
	case language.BooleanValue:
		return value.Raw == "true"
	case language.ListValue:
		out := make([]any, len(value.Children))
		for i, c := range value.Children {
			out[i] = valueFromAST(c.Value, variables)
		}
		return out
	case language.ObjectValue:
		out := make(map[string]any, len(value.Children))
		for _, c := range value.Children {
			out[c.Name] = valueFromAST(c.Value, variables)
		}
		return out
	default:
		return nil
	}
}

// coerceValue coerces an input value to typ.
func coerceValue(sch *schema.Schema, value any, typ *schema.TypeRef) (any, error) {
	if schema.IsNonNull(typ) {
		if value == nil {
			return nil, fmt.Errorf("cannot provide null for non-null type")
		}
		return coerceValue(sch, value, schema.Unwrap(typ))
	}
	if value == nil {
		return nil, nil
	}
	if schema.IsList(typ) {
		return coerceListValue(sch, value, schema.Unwrap(typ))
	}

	name := schema.GetNamedType(typ)
	if coerce, ok := builtinScalars[name]; ok {
		return coerce(value)
	}
	var def *schema.Type
	if sch != nil {
		def = sch.LookupType(name)
	}
	if def == nil {
		// Custom scalars without a definition pass through.
		return value, nil
	}
	switch def.Kind {
	case schema.TypeKindEnum:
		return coerceToEnum(def, value)
	case schema.TypeKindInputObject:
		return coerceInputObject(sch, def, value)
	default:
		return value, nil
	}
}

// coerceListValue coerces each item; a single value becomes a list of one.
func coerceListValue(sch *schema.Schema, value any, itemType *schema.TypeRef) (any, error) {
	items, ok := value.([]any)
	if !ok {
		items = []any{value}
	}
	out := make([]any, len(items))
	for i, item := range items {
		cv, err := coerceValue(sch, item, itemType)
		if err != nil {
			return nil, err
		}
		out[i] = cv
	}
	return out, nil
}

func coerceToEnum(typ *schema.Type, value any) (any, error) {
	if name, ok := value.(string); ok {
		for _, ev := range typ.EnumValues {
			if ev.Name == name {
				return name, nil
			}
		}
	}
	return nil, fmt.Errorf("value %v is not a member of enum %s", value, typ.Name)
}

func coerceInputObject(sch *schema.Schema, typ *schema.Type, value any) (any, error) {
	fields, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected an object for %s, got %T", typ.Name, value)
	}
	defs, err := typ.ResolveInputFields()
	if err != nil {
		return nil, err
	}
	out := make(map[string]any, len(fields))
	known := make(map[string]bool, len(defs))
	for _, def := range defs {
		known[def.Name] = true
		v, present := fields[def.Name]
		if !present {
			if def.DefaultValue != nil {
				out[def.Name] = def.DefaultValue
			} else if schema.IsNonNull(def.Type) {
				return nil, fmt.Errorf("required field '%s' of %s was not provided", def.Name, typ.Name)
			}
			continue
		}
		cv, err := coerceValue(sch, v, def.Type)
		if err != nil {
			return nil, fmt.Errorf("field '%s' of %s: %v", def.Name, typ.Name, err)
		}
		out[def.Name] = cv
	}
	for name := range fields {
		if !known[name] {
			return nil, fmt.Errorf("field '%s' is not defined by %s", name, typ.Name)
		}
	}
	if typ.OneOf && len(out) != 1 {
		return nil, fmt.Errorf("exactly one field of %s must be provided", typ.Name)
	}
	return out, nil
}

// builtinScalars coerce input values of the specified scalars.
var builtinScalars = map[string]func(any) (any, error){
	"Int":     coerceToInt,
	"Float":   coerceToFloat,
	"String":  coerceToString,
	"Boolean": coerceToBoolean,
	"ID":      coerceToID,
}

// coerceToInt accepts integral floats because JSON decodes every number as
// float64.
func coerceToInt(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case float64:
		if v == math.Trunc(v) && v >= math.MinInt32 && v <= math.MaxInt32 {
			return int(v), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to int", value, value)
}

func coerceToFloat(value any) (any, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to float", value, value)
}

func coerceToString(value any) (any, error) {
	if v, ok := value.(string); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to string", value, value)
}

func coerceToBoolean(value any) (any, error) {
	if v, ok := value.(bool); ok {
		return v, nil
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to boolean", value, value)
}

// coerceToID accepts strings and integers, the latter as their decimal form.
func coerceToID(value any) (any, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case int:
		return strconv.Itoa(v), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', -1, 64), nil
		}
	}
	return nil, fmt.Errorf("cannot coerce %v (%T) to ID", value, value)
}
