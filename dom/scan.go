package dom

import (
	"strings"

	"golang.org/x/net/html"
)

// IgnoredTags contains elements whose direct text is never prose.
var IgnoredTags = map[string]bool{
	"script":   true,
	"style":    true,
	"code":     true,
	"pre":      true,
	"noscript": true,
	"textarea": true,
}

// NoTranslateAttr excludes an element and its subtree from scanning.
const NoTranslateAttr = "data-no-translate"

// unrenderedTags are never displayed, regardless of styles.
var unrenderedTags = map[string]bool{
	"head":     true,
	"template": true,
}

// scanState is inherited from ancestors while walking down.
type scanState struct {
	hidden  bool // display:none, hidden attribute or opted out
	visible bool // computed visibility
}

// CollectTextNodes returns the eligible text nodes under roots in document
// order. A text node is eligible when its trimmed data is not empty, its
// nearest element ancestor is not in IgnoredTags and every ancestor is
// rendered. Nodes reachable from overlapping roots are returned once per
// root; use Dedupe to merge.
//
// Callers must hold read access to the document (Document.View) or own it.
func CollectTextNodes(roots ...*html.Node) []*html.Node {
	var out []*html.Node
	for _, root := range roots {
		if root == nil {
			continue
		}
		state := inheritedState(root.Parent)
		if state.hidden {
			continue
		}
		out = collect(root, state, out)
	}
	return out
}

func collect(n *html.Node, state scanState, out []*html.Node) []*html.Node {
	switch n.Type {
	case html.TextNode:
		if state.visible && eligibleText(n) {
			out = append(out, n)
		}
		return out
	case html.ElementNode:
		state = state.enter(n)
		if state.hidden {
			return out
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = collect(c, state, out)
	}
	return out
}

func eligibleText(n *html.Node) bool {
	if strings.TrimSpace(n.Data) == "" {
		return false
	}
	if p := n.Parent; p != nil && p.Type == html.ElementNode {
		return !IgnoredTags[strings.ToLower(p.Data)]
	}
	return true
}

// enter applies an element's own rules on top of the inherited state.
func (s scanState) enter(n *html.Node) scanState {
	if unrenderedTags[strings.ToLower(n.Data)] {
		s.hidden = true
		return s
	}

	for _, a := range n.Attr {
		switch a.Key {
		case "hidden", NoTranslateAttr:
			s.hidden = true
			return s
		case "style":
			display, visibility := parseStyle(a.Val)
			if display == "none" {
				s.hidden = true
				return s
			}
			switch visibility {
			case "hidden", "collapse":
				s.visible = false
			case "visible":
				s.visible = true
			}
		}
	}
	return s
}

// inheritedState computes the state a child of n starts from.
func inheritedState(n *html.Node) scanState {
	var chain []*html.Node
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode {
			chain = append(chain, p)
		}
	}

	state := scanState{visible: true}
	for i := len(chain) - 1; i >= 0; i-- {
		state = state.enter(chain[i])
		if state.hidden {
			return state
		}
	}
	return state
}

// parseStyle extracts display and visibility from an inline style attribute.
func parseStyle(style string) (display, visibility string) {
	for _, decl := range strings.Split(style, ";") {
		prop, value, ok := strings.Cut(decl, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "!important"))
		switch strings.ToLower(strings.TrimSpace(prop)) {
		case "display":
			display = strings.ToLower(value)
		case "visibility":
			visibility = strings.ToLower(value)
		}
	}
	return display, visibility
}

// Dedupe merges node lists, keeping the first occurrence of each node.
func Dedupe(lists ...[]*html.Node) []*html.Node {
	seen := make(map[*html.Node]bool)
	var out []*html.Node
	for _, list := range lists {
		for _, n := range list {
			if seen[n] {
				continue
			}
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
