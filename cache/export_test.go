package cache

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type plainCache struct{}

func (plainCache) Get(string, string) (string, bool) { return "", false }
func (plainCache) Put(string, string, string) error  { return nil }
func (plainCache) HasRun(string) bool                { return false }

func TestExporter_Export(t *testing.T) {
	c := NewInMemoryCache()
	c.Put("th", "Home", "หน้าแรก")
	c.Put("fr", "Home", "Accueil")
	c.Put("fr", "Book Appointment", "Réserver un rendez-vous")

	exporter := NewExporter(c)
	exporter.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }

	var buf bytes.Buffer
	if err := exporter.Export(&buf, map[string]string{"session": "s1"}); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != "1.0" {
		t.Errorf("Expected version 1.0, got %s", export.Version)
	}
	if export.ExportedAt != "2024-01-01T00:00:00Z" {
		t.Errorf("Unexpected timestamp: %s", export.ExportedAt)
	}
	if len(export.Entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(export.Entries))
	}

	// Sorted by language, then key
	first := export.Entries[0]
	if first.Lang != "fr" || first.Key != "Book Appointment" {
		t.Errorf("Unexpected first entry: %+v", first)
	}
	if export.Entries[2].Lang != "th" {
		t.Errorf("Expected th last, got %+v", export.Entries[2])
	}
	if export.Metadata["session"] != "s1" {
		t.Errorf("Expected metadata, got %v", export.Metadata)
	}
}

func TestExporter_UnsupportedCache(t *testing.T) {
	exporter := NewExporter(plainCache{})

	var buf bytes.Buffer
	err := exporter.Export(&buf, nil)
	if err == nil || !strings.Contains(err.Error(), "does not support export") {
		t.Errorf("Expected unsupported error, got %v", err)
	}
}

func TestExporter_ExportToFile(t *testing.T) {
	c := NewInMemoryCache()
	c.Put("fr", "Home", "Accueil")

	path := filepath.Join(t.TempDir(), "dump.json")
	if err := NewExporter(c).ExportToFile(path, nil); err != nil {
		t.Fatalf("ExportToFile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if !strings.Contains(string(data), "Accueil") {
		t.Errorf("Dump should contain the translation: %s", data)
	}
}
