package assembler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrUnknownType is wrapped by every *UnknownTypeError.
	ErrUnknownType = errors.New("unknown type")
	// ErrUnresolvableAbstractType is wrapped by every
	// *UnresolvableAbstractTypeError.
	ErrUnresolvableAbstractType = errors.New("unresolvable abstract type")
)

// UnknownTypeError reports a type name that no declared type or alias
// matches, even after falling back to its parents. Alias and Canonical are
// set when the match was an alias whose target is not declared.
type UnknownTypeError struct {
	Name      string
	Alias     string
	Canonical string
}

func (e *UnknownTypeError) Error() string {
	if e.Alias != "" {
		return fmt.Sprintf("missing type %s: alias %s points to undeclared type %s", e.Name, e.Alias, e.Canonical)
	}
	return fmt.Sprintf("missing type %s", e.Name)
}

func (e *UnknownTypeError) Unwrap() error { return ErrUnknownType }

// UnresolvableAbstractTypeError reports a value of an interface or union type
// that no associated concrete type claims.
type UnresolvableAbstractTypeError struct {
	AbstractType string
	Value        any
}

func (e *UnresolvableAbstractTypeError) Error() string {
	return fmt.Sprintf("could not resolve the concrete type of a %s value (%T)", e.AbstractType, e.Value)
}

func (e *UnresolvableAbstractTypeError) Unwrap() error { return ErrUnresolvableAbstractType }

// Extensions is reported in the GraphQL error of the field.
func (e *UnresolvableAbstractTypeError) Extensions() map[string]any {
	return map[string]any{
		"code":         "UNRESOLVABLE_ABSTRACT_TYPE",
		"abstractType": e.AbstractType,
	}
}

// MissingFactoryError reports a reference whose class has no factory in the
// manager for its kind.
type MissingFactoryError struct {
	Kind  string
	Class string
	ID    string
}

func (e *MissingFactoryError) Error() string {
	return fmt.Sprintf("no %s factory %q for %s", e.Kind, e.Class, e.ID)
}

// DefinitionError lists the structural problems of a Definition.
type DefinitionError struct {
	Problems []string
}

func (e *DefinitionError) Error() string {
	return "invalid definition: " + strings.Join(e.Problems, "; ")
}
