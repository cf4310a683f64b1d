package assembler

import (
	"fmt"
	"slices"

	"github.com/hanpama/graphplug/internal/resolution"
	"github.com/hanpama/graphplug/internal/schema"
)

// RootType is the owner name of query root fields.
const RootType = "Root"

// TypeEntry binds a GraphQL type name to its reference.
type TypeEntry struct {
	Name string
	Ref  *TypeReference
}

// Definition is everything the assembler builds a schema from. Declared
// order is kept by every batch operation and by dispatch.
type Definition struct {
	Types             []TypeEntry
	Fields            map[string]*FieldReference
	FieldAssociations map[string][]string
	Mutations         []*MutationReference
	// TypeAssociations lists the concrete types of each interface or union,
	// in dispatch order.
	TypeAssociations map[string][]string
	// TypeReferences maps alias names to declared GraphQL type names.
	TypeReferences map[string]string
	CacheTags      []string
	CacheMaxAge    int
}

// NewDefinition returns an empty definition whose schema may be cached
// without limit.
func NewDefinition() *Definition {
	return &Definition{
		Fields:            make(map[string]*FieldReference),
		FieldAssociations: make(map[string][]string),
		TypeAssociations:  make(map[string][]string),
		TypeReferences:    make(map[string]string),
		CacheMaxAge:       resolution.Permanent,
	}
}

// AddType declares a type under its definition's name.
func (d *Definition) AddType(ref *TypeReference) *Definition {
	d.Types = append(d.Types, TypeEntry{Name: ref.Definition.Name, Ref: ref})
	return d
}

// AddField declares a field and associates it with its owner.
func (d *Definition) AddField(ref *FieldReference) *Definition {
	if d.Fields == nil {
		d.Fields = make(map[string]*FieldReference)
	}
	if d.FieldAssociations == nil {
		d.FieldAssociations = make(map[string][]string)
	}
	d.Fields[ref.ID] = ref
	d.FieldAssociations[ref.Owner] = append(d.FieldAssociations[ref.Owner], ref.ID)
	return d
}

// AddMutation declares a mutation root field.
func (d *Definition) AddMutation(ref *MutationReference) *Definition {
	d.Mutations = append(d.Mutations, ref)
	return d
}

// Associate adds concrete to the possible types of abstract.
func (d *Definition) Associate(abstract string, concrete ...string) *Definition {
	if d.TypeAssociations == nil {
		d.TypeAssociations = make(map[string][]string)
	}
	d.TypeAssociations[abstract] = append(d.TypeAssociations[abstract], concrete...)
	return d
}

// Alias makes alias resolve to the declared type canonical.
func (d *Definition) Alias(alias, canonical string) *Definition {
	if d.TypeReferences == nil {
		d.TypeReferences = make(map[string]string)
	}
	d.TypeReferences[alias] = canonical
	return d
}

// Validate reports every structural problem at once: missing references,
// duplicate names or ids, dangling aliases and associations with types that
// do not resolve.
func (d *Definition) Validate() error {
	var problems []string
	report := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	declared := make(map[string]bool, len(d.Types))
	ids := make(map[string]string, len(d.Types))
	for i, entry := range d.Types {
		switch {
		case entry.Ref == nil || entry.Ref.Definition == nil:
			report("type #%d (%s) has no reference", i, entry.Name)
			continue
		case entry.Name == "":
			report("type #%d has no name", i)
			continue
		case entry.Name == QueryRootName || entry.Name == MutationRootName:
			report("type %s collides with a root type", entry.Name)
		case schema.BuiltinScalar(entry.Name) != nil:
			report("type %s redeclares a builtin scalar", entry.Name)
		}
		if entry.Ref.Definition.Name != entry.Name {
			report("type %s is declared as %s", entry.Ref.Definition.Name, entry.Name)
		}
		if declared[entry.Name] {
			report("type %s is declared twice", entry.Name)
		}
		declared[entry.Name] = true
		if !entry.Ref.Kind.Valid() {
			report("type %s has unknown kind %q", entry.Name, entry.Ref.Kind)
		}
		if entry.Ref.ID == "" {
			report("type %s has no id", entry.Name)
		} else if other, ok := ids[entry.Ref.ID]; ok && other != entry.Name {
			report("types %s and %s share id %s", other, entry.Name, entry.Ref.ID)
		}
		ids[entry.Ref.ID] = entry.Name
	}

	resolves := func(name string) bool {
		if declared[name] || schema.BuiltinScalar(name) != nil {
			return true
		}
		for n := name; n != ""; n = parentName(n) {
			if declared[n] {
				return true
			}
			if canonical, ok := d.TypeReferences[n]; ok {
				return declared[canonical]
			}
		}
		return false
	}

	for _, alias := range sortedKeys(d.TypeReferences) {
		if canonical := d.TypeReferences[alias]; !declared[canonical] {
			report("alias %s points to undeclared type %s", alias, canonical)
		}
	}
	// Descriptors are checked by name only, so nothing is built here.
	checkArgs := func(what string, args []ArgumentDefinition) {
		for _, arg := range args {
			if !arg.Type.IsZero() && !resolves(arg.Type.Base) {
				report("%s %s has unknown type %s", what, arg.Name, arg.Type.Base)
			}
		}
	}
	checkField := func(what string, def *FieldDefinition) {
		if !def.Type.IsZero() && !resolves(def.Type.Base) {
			report("%s has unknown type %s", what, def.Type.Base)
		}
		checkArgs("argument of "+what+":", def.Arguments)
	}
	for _, entry := range d.Types {
		if entry.Ref == nil || entry.Ref.Definition == nil {
			continue
		}
		for _, iface := range entry.Ref.Definition.Interfaces {
			if !resolves(iface) {
				report("type %s implements unknown interface %s", entry.Name, iface)
			}
		}
		checkArgs("input field of "+entry.Name+":", entry.Ref.Definition.Fields)
	}
	for _, abstract := range sortedKeys(d.TypeAssociations) {
		if !resolves(abstract) {
			report("association of unknown type %s", abstract)
		}
		for _, concrete := range d.TypeAssociations[abstract] {
			if !resolves(concrete) {
				report("type %s is associated with unknown type %s", abstract, concrete)
			}
		}
	}
	for _, owner := range sortedKeys(d.FieldAssociations) {
		for _, id := range d.FieldAssociations[owner] {
			ref, ok := d.Fields[id]
			if !ok || ref == nil || ref.Definition == nil {
				report("field %s of %s is not defined", id, owner)
				continue
			}
			if ref.Definition.Type.IsZero() {
				report("field %s of %s has no type", id, owner)
			}
			checkField("field "+id+" of "+owner, ref.Definition)
		}
	}
	mutations := make(map[string]bool, len(d.Mutations))
	for i, ref := range d.Mutations {
		if ref == nil || ref.Definition == nil {
			report("mutation #%d has no definition", i)
			continue
		}
		if ref.ID == "" {
			report("mutation %s has no id", ref.Definition.Name)
		}
		if mutations[ref.Definition.Name] {
			report("mutation %s is declared twice", ref.Definition.Name)
		}
		mutations[ref.Definition.Name] = true
		checkField("mutation "+ref.Definition.Name, ref.Definition)
	}

	if len(problems) > 0 {
		return &DefinitionError{Problems: problems}
	}
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
