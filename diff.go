package livetl

import (
	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/ZaguanLabs/livetl/dom"
)

// ScanKeys returns the distinct normalized keys under roots in document
// order, as a Run would see them. No roots means DefaultRoots.
func ScanKeys(doc *dom.Document, roots ...string) []string {
	if len(roots) == 0 {
		roots = DefaultRoots
	}

	var keys []string
	doc.View(func(gq *goquery.Document) {
		lists := make([][]*html.Node, 0, len(roots))
		for _, sel := range roots {
			lists = append(lists, dom.CollectTextNodes(gq.Find(sel).Nodes...))
		}

		seen := make(map[string]bool)
		for _, n := range dom.Dedupe(lists...) {
			key := Normalize(n.Data)
			if key == "" || seen[key] {
				continue
			}
			seen[key] = true
			keys = append(keys, key)
		}
	})
	return keys
}

// KeyDiff is the difference between the keys of two versions of a page.
type KeyDiff struct {
	// Added contains keys only in the new version, in its order.
	Added []string

	// Removed contains keys only in the old version, in its order.
	Removed []string

	// Unchanged contains keys present in both, in new-version order.
	Unchanged []string
}

// DiffStats contains summary statistics for a diff.
type DiffStats struct {
	Added     int
	Removed   int
	Unchanged int
}

// Stats returns summary statistics for the diff.
func (d *KeyDiff) Stats() DiffStats {
	return DiffStats{
		Added:     len(d.Added),
		Removed:   len(d.Removed),
		Unchanged: len(d.Unchanged),
	}
}

// HasChanges returns true if there are any differences.
func (d *KeyDiff) HasChanges() bool {
	return len(d.Added) > 0 || len(d.Removed) > 0
}

// NeedsTranslation returns the added keys that c holds no translation of
// for lang. These are the keys the next Run would send.
func (d *KeyDiff) NeedsTranslation(c LanguageCache, lang string) []string {
	out := make([]string, 0, len(d.Added))
	for _, key := range d.Added {
		if c != nil {
			if _, ok := c.Get(lang, key); ok {
				continue
			}
		}
		out = append(out, key)
	}
	return out
}

// DiffKeys compares the keys of two page versions.
func DiffKeys(oldKeys, newKeys []string) *KeyDiff {
	result := &KeyDiff{}

	inOld := make(map[string]bool, len(oldKeys))
	for _, key := range oldKeys {
		inOld[key] = true
	}
	inNew := make(map[string]bool, len(newKeys))
	for _, key := range newKeys {
		inNew[key] = true
	}

	for _, key := range newKeys {
		if inOld[key] {
			result.Unchanged = append(result.Unchanged, key)
		} else {
			result.Added = append(result.Added, key)
		}
	}
	for _, key := range oldKeys {
		if !inNew[key] {
			result.Removed = append(result.Removed, key)
		}
	}
	return result
}
