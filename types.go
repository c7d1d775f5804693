package livetl

import (
	"time"

	"golang.org/x/net/html"
)

// Default pipeline tuning.
const (
	DefaultBatchSize     = 150
	DefaultConcurrency   = 4
	DefaultBatchTimeout  = 25 * time.Second
	DefaultDebounce      = 40 * time.Millisecond
	DefaultWatchdog      = 30 * time.Second
	DefaultApplyCooldown = 120 * time.Millisecond
	DefaultSourceLang    = "en"
)

// DefaultRoots lists the selectors scanned for text, in order. Overlapping
// roots are de-duplicated by node identity.
var DefaultRoots = []string{"nav", "header", "main", "#root", "body"}

// Persisted preference keys.
const (
	// LangKey holds the last language chosen by the user (local scope).
	LangKey = "lang"
	// SessionKey marks that the user opted into translation (session scope).
	SessionKey = "i18nActive"
)

// TextUnit is one discoverable piece of document text.
type TextUnit struct {
	Node     *html.Node // Text node in the live document
	Original string     // Content captured the first time the node was seen
	Key      string     // Normalize(Original)
}

// RunStats summarizes a completed Run.
type RunStats struct {
	Units       int // Text units scanned
	UniqueKeys  int // Distinct normalized keys
	CachedKeys  int // Keys already present in the cache
	Translated  int // Keys fetched from the provider
	Fallback    int // Keys that fell back to their original text
	Failed      int // Keys whose batch failed and stayed uncached
	Applied     int // Nodes rewritten
	ElapsedTime time.Duration
}

// RTLLanguages contains language codes that use right-to-left text direction.
var RTLLanguages = map[string]bool{
	"ar": true, // Arabic
	"he": true, // Hebrew
	"fa": true, // Persian/Farsi
	"ur": true, // Urdu
	"ps": true, // Pashto
	"sd": true, // Sindhi
	"ug": true, // Uyghur
}
