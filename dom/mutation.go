package dom

import (
	"sync"

	"golang.org/x/net/html"
)

// MutationType identifies the kind of change a Mutation records.
type MutationType int

const (
	// ChildList records inserted or removed children.
	ChildList MutationType = iota + 1
	// CharacterData records a changed text node.
	CharacterData
	// Attributes records a changed attribute.
	Attributes
)

func (t MutationType) String() string {
	switch t {
	case ChildList:
		return "childList"
	case CharacterData:
		return "characterData"
	case Attributes:
		return "attributes"
	default:
		return "unknown"
	}
}

// Mutation describes one change to the document.
type Mutation struct {
	Type          MutationType
	Target        *html.Node   // Parent for ChildList, the text node for CharacterData, the element for Attributes
	Added         []*html.Node // ChildList only
	Removed       []*html.Node // ChildList only
	AttributeName string       // Attributes only
	OldValue      string       // Previous text or attribute value
}

// ObserveOptions selects which mutations an observer receives.
type ObserveOptions struct {
	ChildList     bool
	CharacterData bool
	Attributes    bool
	Subtree       bool // Also observe descendants of the target
}

func (o ObserveOptions) wants(t MutationType) bool {
	switch t {
	case ChildList:
		return o.ChildList
	case CharacterData:
		return o.CharacterData
	case Attributes:
		return o.Attributes
	}
	return false
}

type observer struct {
	id     uint64
	target *html.Node
	opts   ObserveOptions
	fn     func([]Mutation)
}

// matches must be called while the document lock is held.
func (o *observer) matches(m Mutation) bool {
	if !o.opts.wants(m.Type) {
		return false
	}
	if m.Target == o.target {
		return true
	}
	return o.opts.Subtree && isAncestor(o.target, m.Target)
}

type observerSet struct {
	mu     sync.Mutex
	nextID uint64
	list   []*observer
}

func (s *observerSet) add(o *observer) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	o.id = s.nextID
	s.list = append(s.list, o)
	return o.id
}

func (s *observerSet) remove(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, o := range s.list {
		if o.id == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return
		}
	}
}

type delivery struct {
	fn      func([]Mutation)
	records []Mutation
}

// route groups records per interested observer. Called under the document lock.
func (s *observerSet) route(records []Mutation) []delivery {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	observers := append([]*observer(nil), s.list...)
	s.mu.Unlock()

	var out []delivery
	for _, o := range observers {
		var matched []Mutation
		for _, m := range records {
			if o.matches(m) {
				matched = append(matched, m)
			}
		}
		if len(matched) > 0 {
			out = append(out, delivery{fn: o.fn, records: matched})
		}
	}
	return out
}

func isAncestor(ancestor, n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}
