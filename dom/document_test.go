package dom

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestDocument_HTMLRoundTrip(t *testing.T) {
	doc, err := ParseString(`<html><body><p>Hello</p></body></html>`)
	if err != nil {
		t.Fatalf("ParseString failed: %v", err)
	}

	out, err := doc.HTML()
	if err != nil {
		t.Fatalf("HTML failed: %v", err)
	}
	if !strings.Contains(out, "<p>Hello</p>") {
		t.Errorf("Expected paragraph in output, got: %s", out)
	}
}

func TestDocument_CommitNotifiesOnce(t *testing.T) {
	doc, _ := ParseString(`<body><p>One</p><p>Two</p></body>`)
	nodes := CollectTextNodes(doc.Body())

	var calls int
	var records []Mutation
	doc.Observe(doc.Body(), ObserveOptions{CharacterData: true, Subtree: true}, func(m []Mutation) {
		calls++
		records = append(records, m...)
	})

	doc.Commit(func(w *Writer) {
		w.SetText(nodes[0], "Uno")
		w.SetText(nodes[1], "Dos")
		w.SetText(nodes[1], "Dos") // unchanged, no record
	})

	if calls != 1 {
		t.Errorf("Expected 1 notification, got %d", calls)
	}
	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}
	if records[0].Type != CharacterData || records[0].OldValue != "One" {
		t.Errorf("Unexpected record: %+v", records[0])
	}
	if doc.Text(nodes[0]) != "Uno" {
		t.Errorf("Expected 'Uno', got %q", doc.Text(nodes[0]))
	}
}

func TestDocument_ObserveFiltersByType(t *testing.T) {
	doc, _ := ParseString(`<html><body><main></main></body></html>`)

	var got []MutationType
	disconnect := doc.Observe(doc.Body(), ObserveOptions{ChildList: true, CharacterData: true, Subtree: true}, func(m []Mutation) {
		for _, r := range m {
			got = append(got, r.Type)
		}
	})

	if _, err := doc.AppendHTML("main", "<p>New</p>"); err != nil {
		t.Fatalf("AppendHTML failed: %v", err)
	}
	doc.SetAttr("main", "class", "x") // attributes are not observed
	doc.SetDocumentLang("fr", "ltr")  // outside body
	if n := doc.Remove("main p"); n != 1 {
		t.Errorf("Expected 1 removal, got %d", n)
	}

	if len(got) != 2 || got[0] != ChildList || got[1] != ChildList {
		t.Fatalf("Expected two childList records, got %v", got)
	}

	disconnect()
	doc.AppendHTML("main", "<p>Later</p>")
	if len(got) != 2 {
		t.Errorf("Disconnected observer should not be called, got %v", got)
	}
}

func TestDocument_SubtreeOption(t *testing.T) {
	doc, _ := ParseString(`<body><main><p>Text</p></main></body>`)

	called := false
	doc.Observe(doc.Body(), ObserveOptions{ChildList: true}, func([]Mutation) {
		called = true
	})

	doc.AppendHTML("main", "<span>deep</span>")
	if called {
		t.Error("Observer without Subtree should ignore descendant changes")
	}

	doc.AppendHTML("body", "<footer>direct</footer>")
	if !called {
		t.Error("Observer should see direct child changes")
	}
}

func TestDocument_SetInnerHTML(t *testing.T) {
	doc, _ := ParseString(`<body><main><p>Old page</p></main></body>`)

	var removed, added int
	doc.Observe(doc.Body(), ObserveOptions{ChildList: true, Subtree: true}, func(m []Mutation) {
		for _, r := range m {
			removed += len(r.Removed)
			added += len(r.Added)
		}
	})

	if _, err := doc.SetInnerHTML("main", "<h1>New page</h1><p>Body</p>"); err != nil {
		t.Fatalf("SetInnerHTML failed: %v", err)
	}

	if removed != 1 || added != 2 {
		t.Errorf("Expected 1 removed and 2 added, got %d and %d", removed, added)
	}

	got := texts(CollectTextNodes(doc.Body()))
	if len(got) != 2 || got[0] != "New page" {
		t.Errorf("Unexpected texts after navigation: %v", got)
	}
}

func TestDocument_SetDocumentLang(t *testing.T) {
	doc, _ := ParseString(`<html><body></body></html>`)
	doc.SetDocumentLang("ar", "rtl")

	out, _ := doc.HTML()
	if !strings.Contains(out, `lang="ar"`) || !strings.Contains(out, `dir="rtl"`) {
		t.Errorf("Expected lang and dir attributes, got: %s", out)
	}
}

func TestTickerFrames(t *testing.T) {
	frames := TickerFrames{Interval: time.Millisecond}
	if err := StablePaint(context.Background(), frames); err != nil {
		t.Fatalf("StablePaint failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := (TickerFrames{Interval: time.Hour}).NextFrame(ctx); err == nil {
		t.Error("Expected error from cancelled context")
	}
	if err := (ImmediateFrames{}).NextFrame(ctx); err == nil {
		t.Error("ImmediateFrames should report a cancelled context")
	}
}
