package livetl

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/html"

	"github.com/ZaguanLabs/livetl/dom"
)

// suppressor tells the change watcher to ignore mutations made by the
// engine itself: during a commit, and for a cooldown afterwards.
type suppressor struct {
	mu       sync.Mutex
	applying bool
	until    time.Time
	now      func() time.Time
}

func newSuppressor() *suppressor {
	return &suppressor{now: time.Now}
}

func (s *suppressor) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applying = true
}

func (s *suppressor) end(cooldown time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applying = false
	s.until = s.now().Add(cooldown)
}

func (s *suppressor) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applying = false
	s.until = time.Time{}
}

// Suppressed reports whether mutations should be ignored right now.
func (s *suppressor) Suppressed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.applying || s.now().Before(s.until)
}

// applier writes translations into the document in one commit.
type applier struct {
	doc      *dom.Document
	frames   dom.FrameScheduler
	sup      *suppressor
	cooldown time.Duration
}

// lookupFunc returns the text to show for a unit, if any.
type lookupFunc func(unit TextUnit) (string, bool)

// apply waits one frame, then commits every unit that lookup resolves.
// onWrite is called under the document lock for each node changed.
// Cancellation is checked between nodes; a panic inside the commit is
// returned as *ApplyError.
func (a *applier) apply(ctx context.Context, units []TextUnit, lookup lookupFunc, onWrite func(n *html.Node, text string)) (applied int, err error) {
	a.sup.begin()
	defer a.sup.end(a.cooldown)

	if err := a.frames.NextFrame(ctx); err != nil {
		return 0, err
	}

	a.doc.Commit(func(w *dom.Writer) {
		defer func() {
			if r := recover(); r != nil {
				err = &ApplyError{Message: "commit panicked", Cause: fmt.Errorf("%v", r)}
			}
		}()

		for _, unit := range units {
			if ctxErr := ctx.Err(); ctxErr != nil {
				err = ctxErr
				return
			}
			// An empty translation leaves the node as it is.
			text, ok := lookup(unit)
			if !ok || strings.TrimSpace(text) == "" {
				continue
			}
			text = preserveWhitespace(unit.Original, text)
			if w.SetText(unit.Node, text) {
				applied++
			}
			if onWrite != nil {
				onWrite(unit.Node, text)
			}
		}
	})
	return applied, err
}

// unitTracker remembers the original text of every node the engine has
// seen, and the text it last wrote there.
type unitTracker struct {
	mu        sync.Mutex
	originals map[*html.Node]string
	written   map[*html.Node]string
}

func newUnitTracker() *unitTracker {
	return &unitTracker{
		originals: make(map[*html.Node]string),
		written:   make(map[*html.Node]string),
	}
}

// capture builds units for nodes. It must run with read access to the
// document. An original is captured the first time a node is seen, and
// again only if the node's text was changed by someone other than the
// engine. Nodes no longer in the tree are forgotten.
func (t *unitTracker) capture(nodes []*html.Node) []TextUnit {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[*html.Node]bool, len(nodes))
	units := make([]TextUnit, 0, len(nodes))
	for _, n := range nodes {
		seen[n] = true
		current := n.Data

		orig, known := t.originals[n]
		last, wrote := t.written[n]
		if !known || (current != orig && !(wrote && current == last)) {
			orig = current
			t.originals[n] = orig
			delete(t.written, n)
		}
		units = append(units, TextUnit{Node: n, Original: orig, Key: Normalize(orig)})
	}

	for n := range t.originals {
		if !seen[n] && detached(n) {
			delete(t.originals, n)
			delete(t.written, n)
		}
	}
	return units
}

func (t *unitTracker) recordWrite(n *html.Node, text string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.written[n] = text
}

func (t *unitTracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.originals)
}

func (t *unitTracker) clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.originals = make(map[*html.Node]string)
	t.written = make(map[*html.Node]string)
}

func detached(n *html.Node) bool {
	for n.Parent != nil {
		n = n.Parent
	}
	return n.Type != html.DocumentNode
}
