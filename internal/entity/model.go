// Package entity produces assembler definitions from an entity model: entity
// types with their bundles and fields, loaded from YAML, whose instances live
// in a Storage.
package entity

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/hanpama/graphplug/internal/assembler"
	"github.com/hanpama/graphplug/internal/schema"
	"gopkg.in/yaml.v3"
)

// Model is the entity model a schema is derived from.
type Model struct {
	EntityTypes []*EntityType `yaml:"entity_types"`
}

// EntityType describes one kind of entity, e.g. node or user.
type EntityType struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	// Content types are exposed through the schema; configuration types
	// are not.
	Content bool `yaml:"content"`
	// BundleKey is set for types whose entities are split into bundles.
	BundleKey    string       `yaml:"bundle_key"`
	LabelKey     string       `yaml:"label_key"`
	Translatable bool         `yaml:"translatable"`
	Fields       []*FieldSpec `yaml:"fields"`
	Bundles      []*Bundle    `yaml:"bundles"`
}

// Bundle is a named variant of an entity type with extra fields.
type Bundle struct {
	ID     string       `yaml:"id"`
	Label  string       `yaml:"label"`
	Fields []*FieldSpec `yaml:"fields"`
}

// FieldSpec describes a stored field. Type uses GraphQL type syntax, e.g.
// "String!" or "[Int]".
type FieldSpec struct {
	Name        string `yaml:"name"`
	Label       string `yaml:"label"`
	Description string `yaml:"description"`
	Type        string `yaml:"type"`

	descriptor assembler.TypeDescriptor
}

// Descriptor returns the parsed field type.
func (f *FieldSpec) Descriptor() assembler.TypeDescriptor { return f.descriptor }

// Required reports whether the field must be set on creation.
func (f *FieldSpec) Required() bool {
	return f.descriptor.Apply(schema.NamedType(f.descriptor.Base)).IsNonNull()
}

var machineName = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// fieldTypes are the base types stored fields may have.
var fieldTypes = map[string]bool{
	"String": true, "Int": true, "Float": true, "Boolean": true, "ID": true, DateTimeType: true,
}

// LoadModel reads a model file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel decodes and checks a YAML model.
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model: %w", err)
	}
	if err := m.init(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Model) init() error {
	seen := make(map[string]bool, len(m.EntityTypes))
	for _, t := range m.EntityTypes {
		if !machineName.MatchString(t.ID) {
			return fmt.Errorf("entity type %q: invalid machine name", t.ID)
		}
		if seen[t.ID] {
			return fmt.Errorf("entity type %s is declared twice", t.ID)
		}
		seen[t.ID] = true
		if t.Label == "" {
			t.Label = t.ID
		}
		if len(t.Bundles) > 0 && t.BundleKey == "" {
			return fmt.Errorf("entity type %s has bundles but no bundle key", t.ID)
		}
		if err := initFields(t.ID, t.Fields); err != nil {
			return err
		}
		bundles := make(map[string]bool, len(t.Bundles))
		for _, b := range t.Bundles {
			if !machineName.MatchString(b.ID) {
				return fmt.Errorf("bundle %s:%q: invalid machine name", t.ID, b.ID)
			}
			if bundles[b.ID] {
				return fmt.Errorf("bundle %s:%s is declared twice", t.ID, b.ID)
			}
			bundles[b.ID] = true
			if b.Label == "" {
				b.Label = b.ID
			}
			if err := initFields(t.ID+":"+b.ID, append(append([]*FieldSpec(nil), t.Fields...), b.Fields...)); err != nil {
				return err
			}
		}
	}
	return nil
}

func initFields(owner string, fields []*FieldSpec) error {
	names := make(map[string]bool, len(fields))
	for _, f := range fields {
		if !machineName.MatchString(f.Name) {
			return fmt.Errorf("field %s.%q: invalid machine name", owner, f.Name)
		}
		if names[f.Name] {
			return fmt.Errorf("field %s.%s is declared twice", owner, f.Name)
		}
		names[f.Name] = true
		if strings.HasPrefix(f.Name, "entity_") {
			return fmt.Errorf("field %s.%s: the entity_ prefix is reserved", owner, f.Name)
		}
		d, err := assembler.ParseTypeDescriptor(f.Type)
		if err != nil {
			return fmt.Errorf("field %s.%s: %w", owner, f.Name, err)
		}
		if !fieldTypes[d.Base] {
			return fmt.Errorf("field %s.%s: unsupported type %s", owner, f.Name, d.Base)
		}
		f.descriptor = d
	}
	return nil
}

// EntityType returns the entity type with the given id.
func (m *Model) EntityType(id string) (*EntityType, bool) {
	for _, t := range m.EntityTypes {
		if t.ID == id {
			return t, true
		}
	}
	return nil, false
}

// HasBundles reports whether entities of t are split into bundles.
func (t *EntityType) HasBundles() bool { return t.BundleKey != "" }

// Bundle returns the bundle with the given id.
func (t *EntityType) Bundle(id string) (*Bundle, bool) {
	for _, b := range t.Bundles {
		if b.ID == id {
			return b, true
		}
	}
	return nil, false
}

// FieldsOf returns the base fields of t followed by the fields of bundle.
func (t *EntityType) FieldsOf(bundle string) []*FieldSpec {
	fields := append([]*FieldSpec(nil), t.Fields...)
	if b, ok := t.Bundle(bundle); ok {
		fields = append(fields, b.Fields...)
	}
	return fields
}
