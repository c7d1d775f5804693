package cache

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"time"
)

// ExportFormat is the JSON layout of a cache dump.
type ExportFormat struct {
	Version    string            `json:"version"`
	ExportedAt string            `json:"exported_at"`
	Entries    []ExportEntry     `json:"entries"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ExportEntry is one cached translation.
type ExportEntry struct {
	Lang  string `json:"lang"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Exporter writes cache dumps for inspection. Dumps are not meant to be
// loaded back: translations do not outlive their session.
type Exporter struct {
	cache LanguageCache
	now   func() time.Time
}

// NewExporter creates an exporter for cache.
func NewExporter(cache LanguageCache) *Exporter {
	return &Exporter{cache: cache, now: time.Now}
}

// Export writes the cache contents to w as indented JSON, sorted by
// language then key.
func (e *Exporter) Export(w io.Writer, metadata map[string]string) error {
	entries, err := e.entries()
	if err != nil {
		return fmt.Errorf("getting cache entries: %w", err)
	}

	export := ExportFormat{
		Version:    "1.0",
		ExportedAt: e.now().UTC().Format(time.RFC3339),
		Entries:    entries,
		Metadata:   metadata,
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(export); err != nil {
		return fmt.Errorf("encoding JSON: %w", err)
	}
	return nil
}

// ExportToFile exports the cache to a file.
func (e *Exporter) ExportToFile(path string, metadata map[string]string) error {
	f, err := os.Create(path) // #nosec G304 - path is intentionally user-provided
	if err != nil {
		return fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	return e.Export(f, metadata)
}

func (e *Exporter) entries() ([]ExportEntry, error) {
	s, ok := e.cache.(Snapshotter)
	if !ok {
		return nil, fmt.Errorf("cache type %T does not support export", e.cache)
	}

	snapshot, err := s.Snapshot()
	if err != nil {
		return nil, err
	}

	entries := make([]ExportEntry, 0)
	for lang, values := range snapshot {
		for key, value := range values {
			entries = append(entries, ExportEntry{Lang: lang, Key: key, Value: value})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Lang != entries[j].Lang {
			return entries[i].Lang < entries[j].Lang
		}
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}
