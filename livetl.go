// Package livetl provides an incremental, cache-backed translation engine for
// live HTML documents.
//
// Livetl discovers visible text in a document, sends strings it has not seen
// before to a remote translation service in deduplicated batches, caches the
// results per target language and rewrites the document in place. A change
// watcher re-runs the pipeline for content inserted after the first
// translation, once the user has opted in.
//
// Basic usage:
//
//	import (
//	    "github.com/ZaguanLabs/livetl"
//	    "github.com/ZaguanLabs/livetl/dom"
//	    "github.com/ZaguanLabs/livetl/provider"
//	)
//
//	func main() {
//	    doc, _ := dom.ParseString(`<main><p>Book Appointment</p></main>`)
//
//	    p := provider.NewHTTPProvider(provider.HTTPConfig{
//	        URL: "https://translate.example.com/v1/batch",
//	    })
//
//	    busy := livetl.NewBusyIndicator()
//	    engine := livetl.NewEngine(doc, p, livetl.WithEventHandler(busy.Handle))
//	    engine.Start()
//	    defer engine.Dispose()
//
//	    engine.SelectLanguage("fr")
//	    busy.WaitIdle(context.Background())
//
//	    out, _ := doc.HTML()
//	    fmt.Println(out) // ...<p>Réserver un rendez-vous</p>...
//	}
package livetl
