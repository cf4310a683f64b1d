// Package resolution holds the per-request state shared by field resolvers:
// read-only globals and values scoped to a subtree of one operation's
// response.
//
// A value set at path a.b is visible at a.b and every path below it, in the
// same operation only. Lookups start at the reader's path and walk towards the
// root, so a value set deeper in the tree shadows its ancestors for that
// subtree alone.
package resolution

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
)

// Context is created once per request and discarded afterwards.
type Context struct {
	globals map[string]any

	mu       sync.Mutex
	contexts map[string]map[string]map[string]any // operation -> path key -> name -> value
	cache    Cacheability
}

// NewContext returns a context exposing globals to every resolver.
func NewContext(globals map[string]any) *Context {
	g := make(map[string]any, len(globals))
	for k, v := range globals {
		g[k] = v
	}
	return &Context{
		globals:  g,
		contexts: make(map[string]map[string]map[string]any),
		cache:    Cacheability{MaxAge: Permanent},
	}
}

// Global returns the named global value or def.
func (c *Context) Global(name string, def any) any {
	if v, ok := c.globals[name]; ok {
		return v
	}
	return def
}

// SetContext stores value for path and its descendants within operation.
func (c *Context) SetContext(name string, value any, operation string, path []any) *Context {
	key := PathKey(path)
	c.mu.Lock()
	defer c.mu.Unlock()
	byPath, ok := c.contexts[operation]
	if !ok {
		byPath = make(map[string]map[string]any)
		c.contexts[operation] = byPath
	}
	values, ok := byPath[key]
	if !ok {
		values = make(map[string]any)
		byPath[key] = values
	}
	values[name] = value
	return c
}

// GetContext returns the value set at the nearest ancestor of path (path
// itself included), or def when no ancestor set one. The empty path is only
// consulted when it is the path being read, so a value set there is not
// inherited by any field.
func (c *Context) GetContext(name string, operation string, path []any, def any) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	byPath := c.contexts[operation]
	if byPath == nil {
		return def
	}
	if v, ok := byPath[PathKey(path)][name]; ok {
		return v
	}
	for n := len(path) - 1; n > 0; n-- {
		if v, ok := byPath[PathKey(path[:n])][name]; ok {
			return v
		}
	}
	return def
}

// PathKey joins path segments with dots; integer segments are list indices
// and any other segment is written in its default format.
func PathKey(path []any) string {
	var b strings.Builder
	for i, seg := range path {
		if i > 0 {
			b.WriteByte('.')
		}
		switch v := seg.(type) {
		case string:
			b.WriteString(v)
		case int:
			b.WriteString(strconv.Itoa(v))
		case int64:
			b.WriteString(strconv.FormatInt(v, 10))
		default:
			fmt.Fprint(&b, v)
		}
	}
	return b.String()
}

type ctxKey struct{}

// WithContext attaches rc to ctx.
func WithContext(ctx context.Context, rc *Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, rc)
}

// FromContext returns the resolution context attached to ctx, or nil.
func FromContext(ctx context.Context) *Context {
	if rc, ok := ctx.Value(ctxKey{}).(*Context); ok {
		return rc
	}
	return nil
}
