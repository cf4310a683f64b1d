package entity

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entity does not exist.
var ErrNotFound = errors.New("entity not found")

// Query selects a page of entities of one type, ordered by id.
// A Limit of zero or less means no limit.
type Query struct {
	Type       string
	Bundle     string
	Offset     int
	Limit      int
	Descending bool
}

// Storage persists entities.
type Storage interface {
	// Load returns the entity or ErrNotFound.
	Load(ctx context.Context, entityType, id string) (*Entity, error)
	// Query returns a page of entities and the number of matches overall.
	Query(ctx context.Context, q Query) ([]*Entity, int, error)
	// Save stores e, assigning its id, uuid, language and creation time when
	// they are not set.
	Save(ctx context.Context, e *Entity) error
	// Delete removes the entity or returns ErrNotFound.
	Delete(ctx context.Context, entityType, id string) error
	Close() error
}

// prepare fills in what Save assigns besides the id.
func prepare(e *Entity, now func() time.Time) {
	if e.UUID == "" {
		e.UUID = uuid.NewString()
	}
	if e.Language == "" {
		e.Language = DefaultLanguage
	}
	if e.Created.IsZero() {
		e.Created = now().UTC().Truncate(time.Second)
	}
	if e.Values == nil {
		e.Values = make(map[string]any)
	}
}

func clone(e *Entity) *Entity {
	out := *e
	out.Values = maps.Clone(e.Values)
	if e.Translations != nil {
		out.Translations = make(map[string]map[string]any, len(e.Translations))
		for lang, values := range e.Translations {
			out.Translations[lang] = maps.Clone(values)
		}
	}
	return &out
}
