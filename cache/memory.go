package cache

import (
	"sort"
	"sync"
)

// InMemoryCache is a thread-safe, process-local LanguageCache.
type InMemoryCache struct {
	mu    sync.RWMutex
	langs map[string]map[string]string
}

// NewInMemoryCache creates an empty cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{langs: make(map[string]map[string]string)}
}

// Get retrieves a translation.
func (c *InMemoryCache) Get(lang, key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries, ok := c.langs[lang]
	if !ok {
		return "", false
	}
	val, ok := entries[key]
	return val, ok
}

// Put stores a translation.
func (c *InMemoryCache) Put(lang, key, translation string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, ok := c.langs[lang]
	if !ok {
		entries = make(map[string]string)
		c.langs[lang] = entries
	}
	entries[key] = translation
	return nil
}

// HasRun reports whether lang has at least one entry.
func (c *InMemoryCache) HasRun(lang string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.langs[lang]) > 0
}

// Len returns the number of entries cached for lang.
func (c *InMemoryCache) Len(lang string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.langs[lang])
}

// Languages returns the languages with entries, sorted.
func (c *InMemoryCache) Languages() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.langs))
	for lang := range c.langs {
		out = append(out, lang)
	}
	sort.Strings(out)
	return out
}

// Clear removes every entry.
func (c *InMemoryCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.langs = make(map[string]map[string]string)
	return nil
}

// Snapshot returns a copy of all entries.
func (c *InMemoryCache) Snapshot() (map[string]map[string]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make(map[string]map[string]string, len(c.langs))
	for lang, entries := range c.langs {
		cp := make(map[string]string, len(entries))
		for k, v := range entries {
			cp[k] = v
		}
		out[lang] = cp
	}
	return out, nil
}

var (
	_ LanguageCache = (*InMemoryCache)(nil)
	_ Snapshotter   = (*InMemoryCache)(nil)
)
