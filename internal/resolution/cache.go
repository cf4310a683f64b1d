package resolution

import (
	"fmt"
	"sort"
	"strings"
)

// Permanent is the max age of a response that never expires.
const Permanent = -1

// Cacheability describes how a response may be cached.
// MaxAge is in seconds; Permanent means no limit and 0 means uncacheable.
type Cacheability struct {
	Tags     []string
	Contexts []string
	MaxAge   int
}

// Merge combines two cacheability records: tags and contexts are unioned and
// the lower max age wins.
func (c Cacheability) Merge(other Cacheability) Cacheability {
	return Cacheability{
		Tags:     union(c.Tags, other.Tags),
		Contexts: union(c.Contexts, other.Contexts),
		MaxAge:   mergeMaxAge(c.MaxAge, other.MaxAge),
	}
}

// CacheControl renders the Cache-Control header value.
func (c Cacheability) CacheControl() string {
	switch {
	case c.MaxAge == 0:
		return "no-cache"
	case c.MaxAge == Permanent:
		return "public"
	default:
		return fmt.Sprintf("public, max-age=%d", c.MaxAge)
	}
}

// AddCacheTags records tags the response depends on.
func (c *Context) AddCacheTags(tags ...string) *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Tags = union(c.cache.Tags, tags)
	return c
}

// AddCacheContexts records request contexts the response varies by.
func (c *Context) AddCacheContexts(contexts ...string) *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Contexts = union(c.cache.Contexts, contexts)
	return c
}

// MergeCacheMaxAge lowers the max age to maxAge if it is stricter.
func (c *Context) MergeCacheMaxAge(maxAge int) *Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.MaxAge = mergeMaxAge(c.cache.MaxAge, maxAge)
	return c
}

// Cacheability returns what resolvers recorded so far.
func (c *Context) Cacheability() Cacheability {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Cacheability{
		Tags:     append([]string(nil), c.cache.Tags...),
		Contexts: append([]string(nil), c.cache.Contexts...),
		MaxAge:   c.cache.MaxAge,
	}
}

func mergeMaxAge(a, b int) int {
	if a == Permanent {
		return b
	}
	if b == Permanent {
		return a
	}
	if a < b {
		return a
	}
	return b
}

// union returns the sorted, de-duplicated union of a and b.
func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
