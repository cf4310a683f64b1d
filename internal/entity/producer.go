package entity

import (
	"fmt"

	"github.com/hanpama/graphplug/internal/assembler"
)

// Field and mutation classes registered by Managers.
const (
	ClassEntityID          = "entity_id"
	ClassEntityUUID        = "entity_uuid"
	ClassEntityLabel       = "entity_label"
	ClassEntityBundle      = "entity_bundle"
	ClassEntityLanguage    = "entity_language"
	ClassEntityLanguages   = "entity_languages"
	ClassEntityCreated     = "entity_created"
	ClassEntityTranslation = "entity_translation"
	ClassEntityField       = "entity_field"
	ClassEntityByID        = "entity_by_id"
	ClassEntityQuery       = "entity_query"
	ClassEntityCreate      = "entity_create"
	ClassEntityDelete      = "entity_delete"
)

// Names of the supporting types every entity schema declares.
const (
	DateTimeType    = "DateTime"
	SortOrderType   = "SortOrder"
	QueryResultType = "EntityQueryResult"
	CrudOutputType  = "EntityCrudOutput"
)

// DefaultQueryLimit is the page size of entity queries without a limit.
const DefaultQueryLimit = 10

// Options are the schema-level settings of a produced definition.
type Options struct {
	CacheTags   []string
	CacheMaxAge int
}

type producer struct {
	def *assembler.Definition
}

// Produce derives the assembler definition of model: the Entity interface,
// one interface per bundled content type, one object type per bundle (or per
// entity type without bundles), root fields to load and list entities, and
// create/delete mutations.
func Produce(model *Model, opts Options) (*assembler.Definition, error) {
	p := &producer{def: assembler.NewDefinition()}
	p.def.CacheTags = append([]string(nil), opts.CacheTags...)
	p.def.CacheMaxAge = opts.CacheMaxAge

	p.supportTypes()

	p.def.AddType(&assembler.TypeReference{
		ID:    "interface:entity",
		Kind:  assembler.KindInterface,
		Class: assembler.DefaultClass,
		Definition: &assembler.TypeDefinition{
			Name:        EntityInterface,
			Type:        "entity",
			Description: "Common entity interface containing generic entity properties.",
		},
	})
	p.def.Alias("entity", EntityInterface)
	p.entityFields(EntityInterface, "entity")

	for _, ref := range DeriveInterfaces(model) {
		p.def.AddType(ref)
		p.def.Alias(ref.Definition.Type, ref.Definition.Name)
	}

	for _, t := range model.EntityTypes {
		if !t.Content {
			continue
		}
		if t.HasBundles() {
			iface := CamelCase(t.ID)
			p.entityFields(iface, DataType(t.ID, ""))
			p.storedFields(iface, t.Fields)
			for _, b := range t.Bundles {
				p.objectType(t, b)
			}
		} else {
			p.objectType(t, nil)
		}
		p.rootFields(t)
	}

	if err := p.def.Validate(); err != nil {
		return nil, err
	}
	return p.def, nil
}

func (p *producer) supportTypes() {
	p.def.AddType(&assembler.TypeReference{
		ID:    "scalar:datetime",
		Kind:  assembler.KindScalar,
		Class: assembler.DefaultClass,
		Definition: &assembler.TypeDefinition{
			Name:           DateTimeType,
			Description:    "A date and time, represented as an RFC 3339 string.",
			SpecifiedByURL: "https://datatracker.ietf.org/doc/html/rfc3339",
		},
	})
	p.def.AddType(&assembler.TypeReference{
		ID:    "enum:sort_order",
		Kind:  assembler.KindEnum,
		Class: assembler.DefaultClass,
		Definition: &assembler.TypeDefinition{
			Name: SortOrderType,
			Values: []assembler.EnumValueDefinition{
				{Name: "ASC", Description: "Oldest first."},
				{Name: "DESC", Description: "Newest first."},
			},
		},
	})
	p.def.AddType(&assembler.TypeReference{
		ID:    "object:entity_query_result",
		Kind:  assembler.KindObject,
		Class: assembler.DefaultClass,
		Definition: &assembler.TypeDefinition{
			Name:        QueryResultType,
			Description: "A page of entities.",
		},
	})
	p.field(QueryResultType, "count", ClassDefault, "Int!", "The number of matching entities.", nil)
	p.field(QueryResultType, "entities", ClassDefault, "[entity!]!", "The entities of the page.", nil)

	p.def.AddType(&assembler.TypeReference{
		ID:    "object:entity_crud_output",
		Kind:  assembler.KindObject,
		Class: assembler.DefaultClass,
		Definition: &assembler.TypeDefinition{
			Name:        CrudOutputType,
			Description: "The result of an entity mutation.",
		},
	})
	p.field(CrudOutputType, "entity", ClassDefault, "entity", "The affected entity.", nil)
	p.field(CrudOutputType, "errors", ClassDefault, "[String!]!", "Why the mutation failed, if it did.", nil)
}

// ClassDefault is the class of fields read from a map source.
const ClassDefault = assembler.DefaultClass

func (p *producer) field(owner, name, class, typ, description string, extra map[string]any, args ...assembler.ArgumentDefinition) {
	p.def.AddField(&assembler.FieldReference{
		ID:    owner + "." + name,
		Class: class,
		Owner: owner,
		Definition: &assembler.FieldDefinition{
			Name:        name,
			Description: description,
			Type:        assembler.MustParseTypeDescriptor(typ),
			Arguments:   args,
			Extra:       extra,
		},
	})
}

// entityFields adds the fields of the Entity interface to owner. Translations
// keep the data type of the owner.
func (p *producer) entityFields(owner, dataType string) {
	p.field(owner, "entityId", ClassEntityID, "String!", "The entity id.", nil)
	p.field(owner, "entityUuid", ClassEntityUUID, "String!", "The universally unique id.", nil)
	p.field(owner, "entityLabel", ClassEntityLabel, "String", "The label in the current language.", nil)
	p.field(owner, "entityBundle", ClassEntityBundle, "String!", "The bundle, or the entity type for types without bundles.", nil)
	p.field(owner, "entityLanguage", ClassEntityLanguage, "String!", "The current language.", nil)
	p.field(owner, "entityLanguages", ClassEntityLanguages, "[String!]!", "Every language the entity exists in.", nil)
	p.field(owner, "entityCreated", ClassEntityCreated, DateTimeType, "When the entity was created.", nil)
	p.field(owner, "entityTranslation", ClassEntityTranslation, dataType, "The entity in another language, if it exists.", nil,
		assembler.ArgumentDefinition{Name: "language", Type: assembler.MustParseTypeDescriptor("String!")})
}

func (p *producer) storedFields(owner string, fields []*FieldSpec) {
	for _, f := range fields {
		p.def.AddField(&assembler.FieldReference{
			ID:    owner + "." + f.Name,
			Class: ClassEntityField,
			Owner: owner,
			Definition: &assembler.FieldDefinition{
				Name:        PropCase(f.Name),
				Description: fieldDescription(f),
				Type:        f.Descriptor(),
				Extra:       map[string]any{"property": f.Name},
			},
		})
	}
}

func fieldDescription(f *FieldSpec) string {
	if f.Description != "" {
		return f.Description
	}
	return f.Label
}

// objectType adds the object type of bundle b of t, or of t itself when b is
// nil, with its fields, input type and create mutation.
func (p *producer) objectType(t *EntityType, b *Bundle) {
	var (
		name       = CamelCase(t.ID)
		dataType   = DataType(t.ID, "")
		interfaces = []string{EntityInterface}
		desc       = fmt.Sprintf("The '%s' entity type.", t.Label)
		bundle     string
	)
	if b != nil {
		bundle = b.ID
		name = CamelCase(t.ID, b.ID)
		dataType = DataType(t.ID, b.ID)
		interfaces = append(interfaces, DataType(t.ID, ""))
		desc = fmt.Sprintf("The '%s' bundle of the '%s' entity type.", b.Label, t.Label)
	}

	p.def.AddType(&assembler.TypeReference{
		ID:    "object:" + dataType,
		Kind:  assembler.KindObject,
		Class: assembler.DefaultClass,
		Definition: &assembler.TypeDefinition{
			Name:                  name,
			Type:                  dataType,
			Description:           desc,
			Interfaces:            interfaces,
			ResponseCacheContexts: responseCacheContexts(t),
			Extra:                 map[string]any{"entity_type": t.ID, "bundle": bundle},
		},
	})
	p.def.Alias(dataType, name)
	p.def.Associate(EntityInterface, dataType)
	if b != nil {
		p.def.Associate(CamelCase(t.ID), dataType)
	}
	p.entityFields(name, dataType)
	fields := t.FieldsOf(bundle)
	p.storedFields(name, fields)

	args := []assembler.ArgumentDefinition{{Name: "language", Type: assembler.Named("String")}}
	if len(fields) > 0 {
		input := name + "Input"
		inputFields := make([]assembler.ArgumentDefinition, len(fields))
		for i, f := range fields {
			inputFields[i] = assembler.ArgumentDefinition{Name: PropCase(f.Name), Description: fieldDescription(f), Type: f.Descriptor()}
		}
		p.def.AddType(&assembler.TypeReference{
			ID:    "input:" + dataType,
			Kind:  assembler.KindInput,
			Class: assembler.DefaultClass,
			Definition: &assembler.TypeDefinition{
				Name:        input,
				Description: fmt.Sprintf("The values of a new %s.", name),
				Fields:      inputFields,
			},
		})
		args = append([]assembler.ArgumentDefinition{{Name: "input", Type: assembler.MustParseTypeDescriptor(input + "!")}}, args...)
	}
	p.def.AddMutation(&assembler.MutationReference{
		ID:    "create:" + dataType,
		Class: ClassEntityCreate,
		Definition: &assembler.FieldDefinition{
			Name:        "create" + name,
			Description: fmt.Sprintf("Creates a %s.", name),
			Type:        assembler.MustParseTypeDescriptor(CrudOutputType + "!"),
			Arguments:   args,
			Extra:       map[string]any{"entity_type": t.ID, "bundle": bundle},
		},
	})
}

// rootFields adds the load and list root fields and the delete mutation of t.
func (p *producer) rootFields(t *EntityType) {
	extra := map[string]any{"entity_type": t.ID}
	p.field(assembler.RootType, PropCase(t.ID)+"ById", ClassEntityByID, DataType(t.ID, ""),
		fmt.Sprintf("Loads a '%s' entity by id.", t.Label), extra,
		assembler.ArgumentDefinition{Name: "id", Type: assembler.MustParseTypeDescriptor("String!")},
		assembler.ArgumentDefinition{Name: "language", Type: assembler.Named("String")},
	)
	args := []assembler.ArgumentDefinition{
		{Name: "offset", Type: assembler.Named("Int"), Default: 0},
		{Name: "limit", Type: assembler.Named("Int"), Default: DefaultQueryLimit},
		{Name: "sort", Type: assembler.Named(SortOrderType)},
	}
	if t.HasBundles() {
		args = append([]assembler.ArgumentDefinition{{Name: "bundle", Type: assembler.Named("String")}}, args...)
	}
	p.field(assembler.RootType, PropCase(t.ID)+"Query", ClassEntityQuery, QueryResultType+"!",
		fmt.Sprintf("Lists '%s' entities.", t.Label), extra, args...)

	p.def.AddMutation(&assembler.MutationReference{
		ID:    "delete:" + DataType(t.ID, ""),
		Class: ClassEntityDelete,
		Definition: &assembler.FieldDefinition{
			Name:        "delete" + CamelCase(t.ID),
			Description: fmt.Sprintf("Deletes a '%s' entity.", t.Label),
			Type:        assembler.MustParseTypeDescriptor(CrudOutputType + "!"),
			Arguments:   []assembler.ArgumentDefinition{{Name: "id", Type: assembler.MustParseTypeDescriptor("String!")}},
			Extra:       extra,
		},
	})
}
