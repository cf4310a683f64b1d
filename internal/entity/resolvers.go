package entity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hanpama/graphplug/internal/assembler"
	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
)

// LanguageContext is the resolution context holding the language entities
// are read in.
const LanguageContext = "language"

// Managers returns the default managers extended with the entity field and
// mutation classes, reading and writing through store.
func Managers(model *Model, store Storage) *assembler.Managers {
	r := &resolvers{model: model, store: store}
	m := assembler.DefaultManagers()
	m.Fields.
		RegisterResolver(ClassEntityID, r.current(func(e *Entity) any { return e.ID })).
		RegisterResolver(ClassEntityUUID, r.current(func(e *Entity) any { return e.UUID })).
		RegisterResolver(ClassEntityBundle, r.current(func(e *Entity) any {
			if e.Bundle == "" {
				return e.Type
			}
			return e.Bundle
		})).
		RegisterResolver(ClassEntityLanguage, r.current(func(e *Entity) any { return e.Language })).
		RegisterResolver(ClassEntityLanguages, r.current(func(e *Entity) any { return e.Languages() })).
		RegisterResolver(ClassEntityCreated, r.current(func(e *Entity) any { return e.Created })).
		RegisterResolver(ClassEntityLabel, r.current(func(e *Entity) any {
			t, _ := model.EntityType(e.Type)
			return e.Label(t)
		})).
		RegisterResolver(ClassEntityTranslation, r.translation).
		Register(ClassEntityField, r.fieldFactory).
		Register(ClassEntityByID, r.typedFactory(r.byID)).
		Register(ClassEntityQuery, r.typedFactory(r.query))
	m.Mutations.
		Register(ClassEntityCreate, r.createFactory).
		Register(ClassEntityDelete, func(b assembler.Builder, _ *assembler.MutationManager, def *assembler.FieldDefinition, _ string) (assembler.MutationPlugin, error) {
			t, err := r.entityType(def)
			if err != nil {
				return nil, err
			}
			return newField(b, def, func(ctx context.Context, _ any, args map[string]any, rc *resolution.Context, _ *executor.ResolveInfo) (any, error) {
				return r.delete(ctx, t, args, rc)
			})
		})
	return m
}

type resolvers struct {
	model *Model
	store Storage
}

// newField keeps a failed build from yielding a typed nil plugin.
func newField(b assembler.Builder, def *assembler.FieldDefinition, resolve assembler.ResolveFunc) (assembler.MutationPlugin, error) {
	f, err := assembler.NewField(b, def, resolve)
	if err != nil {
		return nil, err
	}
	return f, nil
}

func (r *resolvers) entityType(def *assembler.FieldDefinition) (*EntityType, error) {
	id, _ := def.Extra["entity_type"].(string)
	t, ok := r.model.EntityType(id)
	if !ok {
		return nil, fmt.Errorf("field %s: unknown entity type %q", def.Name, id)
	}
	return t, nil
}

type typedResolver func(ctx context.Context, t *EntityType, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error)

// typedFactory builds fields bound to the entity type named in their
// definition.
func (r *resolvers) typedFactory(resolve typedResolver) assembler.FieldFactory {
	return func(b assembler.Builder, _ *assembler.FieldManager, def *assembler.FieldDefinition, _ string) (assembler.FieldPlugin, error) {
		t, err := r.entityType(def)
		if err != nil {
			return nil, err
		}
		return newField(b, def, func(ctx context.Context, _ any, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
			return resolve(ctx, t, args, rc, info)
		})
	}
}

// inLanguage returns source in the language in effect at the field, or nil
// when source is not an entity.
func inLanguage(source any, rc *resolution.Context, info *executor.ResolveInfo) *Entity {
	e, ok := source.(*Entity)
	if !ok || e == nil {
		return nil
	}
	lang, _ := rc.GetContext(LanguageContext, info.OperationName, info.Path, "").(string)
	if lang != "" && e.HasTranslation(lang) {
		return e.Translation(lang)
	}
	return e
}

func (r *resolvers) current(read func(*Entity) any) assembler.ResolveFunc {
	return func(_ context.Context, source any, _ map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
		e := inLanguage(source, rc, info)
		if e == nil {
			return nil, nil
		}
		return read(e), nil
	}
}

func (r *resolvers) translation(_ context.Context, source any, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
	e, ok := source.(*Entity)
	if !ok || e == nil {
		return nil, nil
	}
	lang, _ := args["language"].(string)
	if !e.HasTranslation(lang) {
		return nil, nil
	}
	rc.SetContext(LanguageContext, lang, info.OperationName, info.Path)
	return e.Translation(lang), nil
}

func (r *resolvers) fieldFactory(b assembler.Builder, _ *assembler.FieldManager, def *assembler.FieldDefinition, _ string) (assembler.FieldPlugin, error) {
	property, _ := def.Extra["property"].(string)
	if property == "" {
		return nil, fmt.Errorf("field %s: no property", def.Name)
	}
	return newField(b, def, func(_ context.Context, source any, _ map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
		e := inLanguage(source, rc, info)
		if e == nil {
			return nil, nil
		}
		v, _ := e.FieldValue(property)
		return v, nil
	})
}

func (r *resolvers) byID(ctx context.Context, t *EntityType, args map[string]any, rc *resolution.Context, info *executor.ResolveInfo) (any, error) {
	id, _ := args["id"].(string)
	e, err := r.store.Load(ctx, t.ID, id)
	if errors.Is(err, ErrNotFound) {
		rc.AddCacheTags(ListCacheTag(t.ID))
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rc.AddCacheTags(e.CacheTag())
	if lang, _ := args["language"].(string); lang != "" {
		rc.SetContext(LanguageContext, lang, info.OperationName, info.Path)
	}
	return e, nil
}

func (r *resolvers) query(ctx context.Context, t *EntityType, args map[string]any, rc *resolution.Context, _ *executor.ResolveInfo) (any, error) {
	q := Query{
		Type:   t.ID,
		Offset: intArg(args, "offset", 0),
		Limit:  intArg(args, "limit", DefaultQueryLimit),
	}
	q.Bundle, _ = args["bundle"].(string)
	if sort, _ := args["sort"].(string); sort == "DESC" {
		q.Descending = true
	}
	if q.Offset < 0 || q.Limit < 0 {
		return nil, fmt.Errorf("offset and limit must not be negative")
	}
	entities, total, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	if entities == nil {
		entities = []*Entity{}
	}
	rc.AddCacheTags(ListCacheTag(t.ID))
	for _, e := range entities {
		rc.AddCacheTags(e.CacheTag())
	}
	return map[string]any{"count": total, "entities": entities}, nil
}

func intArg(args map[string]any, name string, def int) int {
	switch v := args[name].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return def
}

func crudOutput(e *Entity, problems ...string) map[string]any {
	if problems == nil {
		problems = []string{}
	}
	out := map[string]any{"entity": nil, "errors": problems}
	if e != nil {
		out["entity"] = e
	}
	return out
}

func (r *resolvers) createFactory(b assembler.Builder, _ *assembler.MutationManager, def *assembler.FieldDefinition, _ string) (assembler.MutationPlugin, error) {
	t, err := r.entityType(def)
	if err != nil {
		return nil, err
	}
	bundle, _ := def.Extra["bundle"].(string)
	fields := t.FieldsOf(bundle)
	return newField(b, def, func(ctx context.Context, _ any, args map[string]any, rc *resolution.Context, _ *executor.ResolveInfo) (any, error) {
		rc.MergeCacheMaxAge(0)
		input, _ := args["input"].(map[string]any)
		e := &Entity{Type: t.ID, Bundle: bundle, Values: make(map[string]any, len(fields))}
		e.Language, _ = args["language"].(string)
		var problems []string
		for _, f := range fields {
			v, ok := input[PropCase(f.Name)]
			if !ok || v == nil {
				continue
			}
			if s, isString := v.(string); isString && f.Required() && strings.TrimSpace(s) == "" {
				problems = append(problems, fmt.Sprintf("%s must not be blank", f.Name))
				continue
			}
			e.Values[f.Name] = v
		}
		if len(problems) > 0 {
			return crudOutput(nil, problems...), nil
		}
		if err := r.store.Save(ctx, e); err != nil {
			return nil, err
		}
		rc.AddCacheTags(e.CacheTag(), ListCacheTag(t.ID))
		return crudOutput(e), nil
	})
}

func (r *resolvers) delete(ctx context.Context, t *EntityType, args map[string]any, rc *resolution.Context) (any, error) {
	rc.MergeCacheMaxAge(0)
	id, _ := args["id"].(string)
	e, err := r.store.Load(ctx, t.ID, id)
	if errors.Is(err, ErrNotFound) {
		return crudOutput(nil, fmt.Sprintf("%s %s does not exist", t.ID, id)), nil
	}
	if err != nil {
		return nil, err
	}
	if err := r.store.Delete(ctx, t.ID, id); err != nil {
		return nil, err
	}
	rc.AddCacheTags(e.CacheTag(), ListCacheTag(t.ID))
	return crudOutput(e), nil
}
