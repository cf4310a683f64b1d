package entity

import (
	"fmt"
	"maps"
	"time"
)

// DefaultLanguage is the language of entities created without one.
const DefaultLanguage = "en"

// Entity is one stored entity with its translations.
type Entity struct {
	Type     string
	Bundle   string
	ID       string
	UUID     string
	Language string
	Created  time.Time
	// Values holds the field values in Language.
	Values map[string]any
	// Translations holds the translated field values per language; fields
	// missing from a translation keep their untranslated value.
	Translations map[string]map[string]any
}

// DataType returns the hierarchical data type, e.g. "entity:node:article".
func (e *Entity) DataType() string {
	if e.Bundle == "" {
		return "entity:" + e.Type
	}
	return "entity:" + e.Type + ":" + e.Bundle
}

// FieldValue returns a stored field value.
func (e *Entity) FieldValue(name string) (any, bool) {
	v, ok := e.Values[name]
	return v, ok
}

// HasTranslation reports whether e exists in lang.
func (e *Entity) HasTranslation(lang string) bool {
	if lang == e.Language {
		return true
	}
	_, ok := e.Translations[lang]
	return ok
}

// Translation returns e in lang, or e itself when it has no such translation.
func (e *Entity) Translation(lang string) *Entity {
	if lang == "" || lang == e.Language {
		return e
	}
	tr, ok := e.Translations[lang]
	if !ok {
		return e
	}
	out := *e
	out.Language = lang
	out.Values = maps.Clone(e.Values)
	if out.Values == nil {
		out.Values = make(map[string]any, len(tr))
	}
	maps.Copy(out.Values, tr)
	return &out
}

// Languages lists the original language followed by the translations.
func (e *Entity) Languages() []string {
	langs := []string{e.Language}
	for _, lang := range sortedKeys(e.Translations) {
		if lang != e.Language {
			langs = append(langs, lang)
		}
	}
	return langs
}

// Label returns the value of the label field, or a generated label.
func (e *Entity) Label(t *EntityType) string {
	if t != nil && t.LabelKey != "" {
		if v, ok := e.Values[t.LabelKey]; ok && v != nil {
			return fmt.Sprint(v)
		}
	}
	return fmt.Sprintf("%s %s", e.Type, e.ID)
}

// CacheTag is the tag responses containing e depend on.
func (e *Entity) CacheTag() string { return e.Type + ":" + e.ID }

// ListCacheTag is the tag responses listing entities of a type depend on.
func ListCacheTag(entityType string) string { return entityType + "_list" }
