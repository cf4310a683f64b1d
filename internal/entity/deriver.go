package entity

import (
	"fmt"

	"github.com/hanpama/graphplug/internal/assembler"
)

const (
	// EntityInterface is implemented by every exposed entity type.
	EntityInterface = "Entity"

	languageContext   = "languages:language_content"
	nodeGrantsContext = "user.node_grants:view"
)

// DataType returns the data type name of an entity type or of one of its
// bundles.
func DataType(entityType string, bundle string) string {
	if bundle == "" {
		return "entity:" + entityType
	}
	return "entity:" + entityType + ":" + bundle
}

// DeriveInterfaces returns one interface per content entity type that has
// bundles. Bundle object types implement it, which lets values of the
// interface be dispatched to their bundle.
func DeriveInterfaces(model *Model) []*assembler.TypeReference {
	var refs []*assembler.TypeReference
	for _, t := range model.EntityTypes {
		if !t.Content || !t.HasBundles() {
			continue
		}
		refs = append(refs, &assembler.TypeReference{
			ID:    "interface:" + DataType(t.ID, ""),
			Kind:  assembler.KindInterface,
			Class: assembler.DefaultClass,
			Definition: &assembler.TypeDefinition{
				Name:                  CamelCase(t.ID),
				Type:                  DataType(t.ID, ""),
				Description:           fmt.Sprintf("The '%s' entity type.", t.Label),
				Interfaces:            []string{EntityInterface},
				ResponseCacheContexts: responseCacheContexts(t),
				Extra:                 map[string]any{"entity_type": t.ID},
			},
		})
	}
	return refs
}

func responseCacheContexts(t *EntityType) []string {
	var contexts []string
	if t.ID == "node" {
		contexts = append(contexts, nodeGrantsContext)
	}
	if t.Translatable {
		contexts = append(contexts, languageContext)
	}
	return contexts
}
