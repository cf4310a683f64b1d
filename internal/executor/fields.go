package executor

import (
	language "github.com/hanpama/graphplug/internal/language"
	schema "github.com/hanpama/graphplug/internal/schema"
)

// collectedField groups the field nodes sharing one response name, in the
// order the name first appears in the query.
type collectedField struct {
	ResponseName string
	Fields       []*language.Field
}

// fieldCollector implements CollectFields for one object type.
type fieldCollector struct {
	state      *executionState
	objectType *schema.Type
	visited    map[string]bool
	index      map[string]int
	out        []collectedField
}

// collectFields flattens selectionSet for objectType, honoring @skip,
// @include and fragment type conditions. Each fragment is expanded once.
func collectFields(state *executionState, objectType *schema.Type, selectionSet language.SelectionSet) []collectedField {
	c := &fieldCollector{
		state:      state,
		objectType: objectType,
		visited:    make(map[string]bool),
		index:      make(map[string]int),
	}
	c.collect(selectionSet)
	return c.out
}

func (c *fieldCollector) collect(selectionSet language.SelectionSet) {
	for _, selection := range selectionSet {
		switch sel := selection.(type) {
		case *language.Field:
			if c.included(sel.Directives) {
				c.add(sel)
			}
		case *language.InlineFragment:
			if c.included(sel.Directives) && c.applies(sel.TypeCondition) {
				c.collect(sel.SelectionSet)
			}
		case *language.FragmentSpread:
			if c.visited[sel.Name] || !c.included(sel.Directives) {
				continue
			}
			c.visited[sel.Name] = true
			def := c.state.document.Fragments.ForName(sel.Name)
			if def == nil || !c.applies(def.TypeCondition) || !c.included(def.Directives) {
				continue
			}
			c.collect(def.SelectionSet)
		}
	}
}

func (c *fieldCollector) add(field *language.Field) {
	name := field.Alias
	if name == "" {
		name = field.Name
	}
	if i, ok := c.index[name]; ok {
		c.out[i].Fields = append(c.out[i].Fields, field)
		return
	}
	c.index[name] = len(c.out)
	c.out = append(c.out, collectedField{ResponseName: name, Fields: []*language.Field{field}})
}

// included evaluates @skip(if:) and @include(if:). Arguments that are not
// booleans leave the node included.
func (c *fieldCollector) included(directives language.DirectiveList) bool {
	if skip, ok := c.directiveIf(directives, "skip"); ok && skip {
		return false
	}
	if include, ok := c.directiveIf(directives, "include"); ok && !include {
		return false
	}
	return true
}

func (c *fieldCollector) directiveIf(directives language.DirectiveList, name string) (value, ok bool) {
	d := directives.ForName(name)
	if d == nil {
		return false, false
	}
	arg := d.Arguments.ForName("if")
	if arg == nil {
		return false, false
	}
	value, ok = valueFromAST(arg.Value, c.state.variableValues).(bool)
	return value, ok
}

// applies reports whether a fragment with typeCondition selects fields on the
// collected object type. Interface and union conditions match their
// implementations and members.
func (c *fieldCollector) applies(typeCondition string) bool {
	if typeCondition == "" || typeCondition == c.objectType.Name {
		return true
	}
	condition := c.state.schema.LookupType(typeCondition)
	if condition == nil {
		return false
	}
	switch condition.Kind {
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return isPossibleType(condition, c.objectType)
	default:
		return false
	}
}
