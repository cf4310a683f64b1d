package assembler

import (
	"context"
	"errors"
	"fmt"

	"github.com/hanpama/graphplug/internal/executor"
	"github.com/hanpama/graphplug/internal/resolution"
)

// ErrNoResolutionContext is returned when a field is resolved without a
// resolution.Context attached to the request context.
var ErrNoResolutionContext = errors.New("no resolution context in request context")

// Runtime resolves fields through built field plugins, dispatches abstract
// types through the registry and serializes leaves through leaf plugins.
type Runtime struct {
	registry *Registry
}

var _ executor.Runtime = (*Runtime)(nil)

func (rt *Runtime) ResolveField(ctx context.Context, info *executor.ResolveInfo, source any, args map[string]any) (any, error) {
	rc := resolution.FromContext(ctx)
	if rc == nil {
		return nil, ErrNoResolutionContext
	}
	field, err := info.ParentType.FieldByName(info.FieldName)
	if err != nil {
		return nil, err
	}
	p, ok := rt.registry.FieldPlugin(field)
	if !ok {
		return nil, fmt.Errorf("field %s.%s has no resolver", info.ParentType.Name, info.FieldName)
	}
	value, err := p.Resolve(ctx, source, args, rc, info)
	if err != nil {
		return nil, err
	}
	if c, ok := p.(Cacheable); ok {
		rc.AddCacheContexts(c.CacheContexts()...)
	}
	if t, err := rt.registry.ResolveType(info.ReturnType.GetNamedType()); err == nil {
		if c, ok := t.(Cacheable); ok {
			rc.AddCacheContexts(c.CacheContexts()...)
		}
	}
	return value, nil
}

func (rt *Runtime) ResolveType(ctx context.Context, info *executor.ResolveInfo, abstractType string, value any) (string, error) {
	obj, ok, err := rt.registry.ResolveConcreteType(ctx, abstractType, value, resolution.FromContext(ctx), info)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &UnresolvableAbstractTypeError{AbstractType: abstractType, Value: value}
	}
	return obj.Type().Name, nil
}

func (rt *Runtime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	p, err := rt.registry.ResolveType(typeName)
	if err != nil {
		return nil, err
	}
	leaf, ok := p.(LeafPlugin)
	if !ok {
		return nil, fmt.Errorf("type %s is not a leaf type", typeName)
	}
	return leaf.Serialize(value)
}
