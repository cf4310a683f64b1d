package assembler

import (
	"fmt"
	"strings"

	"github.com/hanpama/graphplug/internal/schema"
)

// Decorator wraps a resolved type reference.
type Decorator func(*schema.TypeRef) *schema.TypeRef

var (
	// NonNull marks the wrapped type as required.
	NonNull Decorator = schema.NonNullType
	// List turns the wrapped type into a list of it.
	List Decorator = schema.ListType
)

// TypeDescriptor names a base type and the decorators applied to it, innermost
// first.
type TypeDescriptor struct {
	Base       string
	Decorators []Decorator
}

// Named returns a descriptor for base wrapped by decorators in order.
func Named(base string, decorators ...Decorator) TypeDescriptor {
	return TypeDescriptor{Base: base, Decorators: decorators}
}

// IsZero reports whether d names no type.
func (d TypeDescriptor) IsZero() bool { return d.Base == "" }

// Apply folds the decorators over ref.
func (d TypeDescriptor) Apply(ref *schema.TypeRef) *schema.TypeRef {
	for _, decorate := range d.Decorators {
		ref = decorate(ref)
	}
	return ref
}

// ParseTypeDescriptor reads GraphQL type syntax whose base may be a
// hierarchical name, e.g. "[entity:node!]!".
func ParseTypeDescriptor(s string) (TypeDescriptor, error) {
	rest := strings.TrimSpace(s)
	var outer []Decorator
	required := false
	for {
		switch {
		case strings.HasSuffix(rest, "!"):
			if required {
				return TypeDescriptor{}, fmt.Errorf("type %q: repeated non-null marker", s)
			}
			required = true
			outer = append(outer, NonNull)
			rest = strings.TrimSpace(strings.TrimSuffix(rest, "!"))
			continue
		case strings.HasPrefix(rest, "[") && strings.HasSuffix(rest, "]"):
			required = false
			outer = append(outer, List)
			rest = strings.TrimSpace(rest[1 : len(rest)-1])
			continue
		}
		break
	}
	if rest == "" || strings.ContainsAny(rest, "[]! \t") {
		return TypeDescriptor{}, fmt.Errorf("type %q: invalid base type", s)
	}
	decorators := make([]Decorator, len(outer))
	for i, d := range outer {
		decorators[len(outer)-1-i] = d
	}
	return TypeDescriptor{Base: rest, Decorators: decorators}, nil
}

// MustParseTypeDescriptor is ParseTypeDescriptor for literals.
func MustParseTypeDescriptor(s string) TypeDescriptor {
	d, err := ParseTypeDescriptor(s)
	if err != nil {
		panic(err)
	}
	return d
}
