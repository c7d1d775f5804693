// Package dom provides a live, observable HTML document.
//
// A Document wraps a parsed goquery document. Every change goes through the
// Document so that registered observers receive mutation records, in the
// spirit of a browser MutationObserver. Readers and writers are serialized by
// a RWMutex; a Commit applies many text changes under one write lock so that
// no reader ever sees a half-applied update.
package dom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a mutable HTML document with mutation observers.
type Document struct {
	mu        sync.RWMutex
	doc       *goquery.Document
	observers observerSet
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{doc: doc}, nil
}

// ParseString parses an HTML document from a string.
func ParseString(content string) (*Document, error) {
	return Parse(strings.NewReader(content))
}

// Query returns the nodes matching each selector, in selector order.
// A node matched by several selectors appears several times.
func (d *Document) Query(selectors ...string) []*html.Node {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var nodes []*html.Node
	for _, sel := range selectors {
		nodes = append(nodes, d.doc.Find(sel).Nodes...)
	}
	return nodes
}

// Body returns the <body> element, or nil.
func (d *Document) Body() *html.Node {
	if nodes := d.Query("body"); len(nodes) > 0 {
		return nodes[0]
	}
	return nil
}

// View runs fn with read access to the document. fn must not modify it.
func (d *Document) View(fn func(doc *goquery.Document)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	fn(d.doc)
}

// Text returns the current data of a text node.
func (d *Document) Text(n *html.Node) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return n.Data
}

// HTML renders the whole document.
func (d *Document) HTML() (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.doc.Html()
}

// Writer applies text changes inside a Commit.
type Writer struct {
	records []Mutation
}

// SetText replaces the data of a text node. Unchanged values are skipped and
// produce no mutation record. It reports whether the node changed.
func (w *Writer) SetText(n *html.Node, text string) bool {
	if n == nil || n.Type != html.TextNode || n.Data == text {
		return false
	}
	old := n.Data
	n.Data = text
	w.records = append(w.records, Mutation{Type: CharacterData, Target: n, OldValue: old})
	return true
}

// Commit runs fn under the write lock, then notifies observers once with all
// changes fn made.
func (d *Document) Commit(fn func(w *Writer)) {
	w := &Writer{}
	d.mu.Lock()
	fn(w)
	deliveries := d.observers.route(w.records)
	d.mu.Unlock()
	notify(deliveries)
}

// SetText replaces the data of a single text node.
func (d *Document) SetText(n *html.Node, text string) bool {
	changed := false
	d.Commit(func(w *Writer) {
		changed = w.SetText(n, text)
	})
	return changed
}

// AppendHTML parses fragment and appends it to every element matching
// selector. It returns the number of elements changed.
func (d *Document) AppendHTML(selector, fragment string) (int, error) {
	return d.mutateChildren(selector, fragment, false)
}

// SetInnerHTML replaces the children of every element matching selector with
// the parsed fragment.
func (d *Document) SetInnerHTML(selector, fragment string) (int, error) {
	return d.mutateChildren(selector, fragment, true)
}

func (d *Document) mutateChildren(selector, fragment string, replace bool) (int, error) {
	d.mu.Lock()
	targets := d.doc.Find(selector).Nodes

	var records []Mutation
	for _, target := range targets {
		children, err := html.ParseFragment(strings.NewReader(fragment), contextElement(target))
		if err != nil {
			d.mu.Unlock()
			return 0, fmt.Errorf("parsing fragment: %w", err)
		}

		m := Mutation{Type: ChildList, Target: target}
		if replace {
			for c := target.FirstChild; c != nil; {
				next := c.NextSibling
				target.RemoveChild(c)
				m.Removed = append(m.Removed, c)
				c = next
			}
		}
		for _, c := range children {
			target.AppendChild(c)
			m.Added = append(m.Added, c)
		}
		if len(m.Added) > 0 || len(m.Removed) > 0 {
			records = append(records, m)
		}
	}

	deliveries := d.observers.route(records)
	d.mu.Unlock()
	notify(deliveries)
	return len(targets), nil
}

// Remove detaches every element matching selector and returns how many were
// removed.
func (d *Document) Remove(selector string) int {
	d.mu.Lock()
	targets := d.doc.Find(selector).Nodes

	var records []Mutation
	for _, n := range targets {
		parent := n.Parent
		if parent == nil {
			continue
		}
		parent.RemoveChild(n)
		records = append(records, Mutation{Type: ChildList, Target: parent, Removed: []*html.Node{n}})
	}

	deliveries := d.observers.route(records)
	d.mu.Unlock()
	notify(deliveries)
	return len(records)
}

// SetAttr sets an attribute on every element matching selector.
func (d *Document) SetAttr(selector, key, value string) int {
	d.mu.Lock()
	sel := d.doc.Find(selector)

	var records []Mutation
	for _, n := range sel.Nodes {
		old, ok := attr(n, key)
		if ok && old == value {
			continue
		}
		records = append(records, Mutation{Type: Attributes, Target: n, AttributeName: key, OldValue: old})
	}
	sel.SetAttr(key, value)

	deliveries := d.observers.route(records)
	d.mu.Unlock()
	notify(deliveries)
	return len(records)
}

// SetDocumentLang sets the lang and dir attributes of the <html> element.
func (d *Document) SetDocumentLang(lang, dir string) {
	d.SetAttr("html", "lang", lang)
	d.SetAttr("html", "dir", dir)
}

// Observe registers fn for mutations of target (and its subtree when
// opts.Subtree is set). fn runs synchronously on the goroutine that made the
// change, after the document lock is released. The returned function
// disconnects the observer.
func (d *Document) Observe(target *html.Node, opts ObserveOptions, fn func([]Mutation)) (disconnect func()) {
	id := d.observers.add(&observer{target: target, opts: opts, fn: fn})
	var once sync.Once
	return func() {
		once.Do(func() { d.observers.remove(id) })
	}
}

func notify(deliveries []delivery) {
	for _, dl := range deliveries {
		dl.fn(dl.records)
	}
}

func contextElement(n *html.Node) *html.Node {
	if n.Type == html.ElementNode {
		return n
	}
	return &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
