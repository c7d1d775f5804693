package livetl

import (
	"strings"
	"testing"

	"github.com/ZaguanLabs/livetl/cache"
	"github.com/ZaguanLabs/livetl/dom"
)

func TestScanKeys(t *testing.T) {
	doc, _ := dom.ParseString(`<body>
		<nav>Home</nav>
		<main><h1>Book  Appointment</h1><p>Home</p><code>x</code></main>
		<footer>Contact</footer>
	</body>`)

	got := strings.Join(ScanKeys(doc), "|")
	if got != "Home|Book Appointment|Contact" {
		t.Errorf("Unexpected keys: %s", got)
	}

	if got := strings.Join(ScanKeys(doc, "main"), "|"); got != "Book Appointment|Home" {
		t.Errorf("Unexpected keys for main: %s", got)
	}
}

func TestDiffKeys_NoChanges(t *testing.T) {
	keys := []string{"Hello", "World"}

	diff := DiffKeys(keys, keys)

	if diff.HasChanges() {
		t.Error("Expected no changes for identical content")
	}
	if len(diff.Unchanged) != 2 {
		t.Errorf("Expected 2 unchanged, got %d", len(diff.Unchanged))
	}
}

func TestDiffKeys_AllNew(t *testing.T) {
	diff := DiffKeys(nil, []string{"Hello", "World"})

	if len(diff.Added) != 2 {
		t.Errorf("Expected 2 added, got %d", len(diff.Added))
	}
	if len(diff.Removed) != 0 {
		t.Errorf("Expected 0 removed, got %d", len(diff.Removed))
	}
}

func TestDiffKeys_Mixed(t *testing.T) {
	diff := DiffKeys(
		[]string{"Home", "Old promo", "Contact"},
		[]string{"Home", "Contact", "New promo"},
	)

	stats := diff.Stats()
	if stats.Added != 1 || stats.Removed != 1 || stats.Unchanged != 2 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if diff.Added[0] != "New promo" || diff.Removed[0] != "Old promo" {
		t.Errorf("Unexpected diff: %+v", diff)
	}
}

func TestKeyDiff_NeedsTranslation(t *testing.T) {
	c := cache.NewInMemoryCache()
	c.Put("fr", "Contact", "Contact")

	diff := DiffKeys([]string{"Home"}, []string{"Home", "Contact", "Pricing"})

	got := diff.NeedsTranslation(c, "fr")
	if len(got) != 1 || got[0] != "Pricing" {
		t.Errorf("Expected only Pricing to need translation, got %v", got)
	}
	if got := diff.NeedsTranslation(nil, "fr"); len(got) != 2 {
		t.Errorf("Without a cache every added key is pending, got %v", got)
	}
}
