// Package cache provides per-language translation caches.
//
// A cache maps (language, normalized key) to a translation. Entries are never
// evicted while the owning session is alive.
package cache

// LanguageCache stores translations per target language.
type LanguageCache interface {
	// Get returns the cached translation of key for lang.
	Get(lang, key string) (string, bool)

	// Put stores a translation. Last write wins. Storing any entry marks
	// lang as having run.
	Put(lang, key, translation string) error

	// HasRun reports whether a translation was ever committed for lang.
	HasRun(lang string) bool
}

// Snapshotter is implemented by caches that can list their contents.
type Snapshotter interface {
	// Snapshot returns a copy of all entries, keyed by language then key.
	Snapshot() (map[string]map[string]string, error)
}

// Clearer is implemented by caches scoped to a session that can drop all
// their entries.
type Clearer interface {
	Clear() error
}
