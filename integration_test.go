package livetl_test

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ZaguanLabs/livetl"
	"github.com/ZaguanLabs/livetl/cache"
	"github.com/ZaguanLabs/livetl/dom"
	"github.com/ZaguanLabs/livetl/provider"
	"github.com/ZaguanLabs/livetl/store"
)

// Integration tests using all real components

const clinicPage = `<!DOCTYPE html>
<html>
<head><title>Clinic</title></head>
<body>
  <header><nav><a href="/">Home</a> <a href="/book">Book Appointment</a></nav></header>
  <main>
    <h1>Hello World</h1>
    <p>Book Appointment</p>
    <pre>do not touch</pre>
  </main>
</body>
</html>`

func waitIdle(t *testing.T, busy *livetl.BusyIndicator) livetl.Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := busy.WaitIdle(ctx); err != nil {
		t.Fatalf("Engine did not become idle: %v", err)
	}
	return busy.Last()
}

func newIntegrationEngine(t *testing.T, doc *dom.Document, p livetl.Provider, opts ...livetl.EngineOption) (*livetl.Engine, *livetl.BusyIndicator) {
	t.Helper()
	busy := livetl.NewBusyIndicator()
	base := []livetl.EngineOption{
		livetl.WithFrames(dom.ImmediateFrames{}),
		livetl.WithDebounce(5 * time.Millisecond),
		livetl.WithEventHandler(busy.Handle),
	}
	e := livetl.NewEngine(doc, p, append(base, opts...)...)
	t.Cleanup(func() { e.Dispose() })
	return e, busy
}

func TestIntegration_TranslateAndRestore(t *testing.T) {
	doc, _ := dom.ParseString(clinicPage)
	p := provider.NewMockProvider()
	c := cache.NewInMemoryCache()
	engine, busy := newIntegrationEngine(t, doc, p, livetl.WithCache(c))
	engine.Start()

	if err := engine.SelectLanguage("fr"); err != nil {
		t.Fatalf("SelectLanguage failed: %v", err)
	}
	if ev := waitIdle(t, busy); ev.Type != livetl.Ended || ev.Err != nil {
		t.Fatalf("Unexpected final event: %+v", ev)
	}

	out, _ := doc.HTML()
	for _, want := range []string{"Accueil", "Réserver un rendez-vous", "Bonjour le monde", "do not touch", `lang="fr"`} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output", want)
		}
	}
	if strings.Contains(out, ">Home<") {
		t.Error("Home should have been translated")
	}
	if p.CallCount() != 1 {
		t.Errorf("Expected a single batch, got %d calls", p.CallCount())
	}
	if c.Len("fr") != 3 {
		t.Errorf("Expected 3 cached keys, got %d", c.Len("fr"))
	}

	engine.SelectLanguage("en")
	waitIdle(t, busy)

	out, _ = doc.HTML()
	if !strings.Contains(out, ">Home<") || !strings.Contains(out, "<h1>Hello World</h1>") {
		t.Errorf("Expected original text after restore, got %s", out)
	}
	if p.CallCount() != 1 {
		t.Errorf("Restore must not call the provider, got %d calls", p.CallCount())
	}
}

func TestIntegration_ProviderStack(t *testing.T) {
	doc, _ := dom.ParseString(clinicPage)
	mock := provider.NewMockProvider()

	var p livetl.Provider = mock
	p = livetl.NewRateLimitedProvider(p, livetl.RateLimitConfig{RequestsPerMinute: 6000, BurstSize: 4})
	p = livetl.NewCircuitBreakerProvider(p, livetl.BreakerConfig{}, nil)
	p = livetl.NewRetryableProvider(p, livetl.RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond}, nil)

	engine, busy := newIntegrationEngine(t, doc, p, livetl.WithBatchSize(1))
	engine.Start()
	engine.SelectLanguage("fr")

	ev := waitIdle(t, busy)
	if ev.Err != nil || ev.Stats == nil {
		t.Fatalf("Unexpected final event: %+v", ev)
	}
	if ev.Stats.Translated != 3 || mock.CallCount() != 3 {
		t.Errorf("Expected 3 single-item batches, got %+v (calls %d)", ev.Stats, mock.CallCount())
	}
}

func TestIntegration_ServiceErrorFallsBack(t *testing.T) {
	doc, _ := dom.ParseString(clinicPage)
	mock := provider.NewMockProvider()
	mock.Err = &livetl.ProviderError{Message: "bad gateway", StatusCode: 502}

	c := cache.NewInMemoryCache()
	engine, busy := newIntegrationEngine(t, doc, mock, livetl.WithCache(c))
	engine.Start()
	engine.SelectLanguage("fr")

	ev := waitIdle(t, busy)
	if ev.Err != nil {
		t.Fatalf("A fallback batch is not a run failure: %v", ev.Err)
	}
	if ev.Stats.Fallback != 3 {
		t.Errorf("Expected 3 fallback keys, got %+v", ev.Stats)
	}
	if tr, _ := c.Get("fr", "Home"); tr != "Home" {
		t.Errorf("Expected original cached as fallback, got %q", tr)
	}

	out, _ := doc.HTML()
	if !strings.Contains(out, ">Home<") {
		t.Error("Fallback should keep the original text")
	}
}

func TestIntegration_PreferencesSurviveRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.yaml")

	local, err := store.OpenFileStore(path)
	if err != nil {
		t.Fatalf("OpenFileStore failed: %v", err)
	}
	doc, _ := dom.ParseString(clinicPage)
	engine, busy := newIntegrationEngine(t, doc, provider.NewMockProvider(),
		livetl.WithPreferences(local, store.NewMemoryStore()))
	engine.Start()
	engine.SelectLanguage("ar")
	waitIdle(t, busy)
	engine.Dispose()

	reopened, err := store.OpenFileStore(path)
	if err != nil {
		t.Fatalf("Reopen failed: %v", err)
	}
	doc2, _ := dom.ParseString(clinicPage)
	p := provider.NewMockProvider()
	engine2, _ := newIntegrationEngine(t, doc2, p, livetl.WithPreferences(reopened, store.NewMemoryStore()))
	engine2.Start()

	if engine2.ActiveLanguage() != "ar" {
		t.Errorf("Expected persisted language ar, got %q", engine2.ActiveLanguage())
	}
	out, _ := doc2.HTML()
	if !strings.Contains(out, `dir="rtl"`) {
		t.Errorf("Expected rtl direction from preference, got %s", out)
	}

	// A new session is not opted in: navigation does nothing.
	engine2.OnNavigate()
	time.Sleep(30 * time.Millisecond)
	if p.CallCount() != 0 {
		t.Errorf("Expected no translation before opt-in, got %d calls", p.CallCount())
	}
}

func TestIntegration_ExportCache(t *testing.T) {
	doc, _ := dom.ParseString(clinicPage)
	c := cache.NewInMemoryCache()
	engine, busy := newIntegrationEngine(t, doc, provider.NewMockProvider(), livetl.WithCache(c))
	engine.Start()
	engine.SelectLanguage("fr")
	waitIdle(t, busy)

	var buf bytes.Buffer
	if err := cache.NewExporter(c).Export(&buf, map[string]string{"page": "clinic"}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export cache.ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Invalid export JSON: %v", err)
	}
	if len(export.Entries) != 3 || export.Metadata["page"] != "clinic" {
		t.Errorf("Unexpected export: %+v", export)
	}
}
