package finder

import (
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

// matchBranches reports whether n matches any of branches, verifying each
// branch right to left starting at n.
func (c *context) matchBranches(branches []*branch, n *html.Node) bool {
	for _, b := range branches {
		if !b.pseudoElement && c.verify(b, len(b.twigs)-1, n) {
			return true
		}
	}
	return false
}

func (c *context) matchAny(l *leaf, n *html.Node) bool { return c.matchBranches(l.args, n) }

func (c *context) matchNot(l *leaf, n *html.Node) bool { return !c.matchBranches(l.args, n) }

// matchHas searches forward from n for a node matching one of the relative
// selectors. Each search runs on a fresh context.
func (c *context) matchHas(l *leaf, n *html.Node) bool {
	for _, b := range l.args {
		if c.fork().relative(b, 0, n, b.relative) {
			return true
		}
	}
	return false
}

// matchHost matches the shadow root of the tree being queried if its host
// matches the argument.
func (c *context) matchHost(l *leaf, n *html.Node) bool {
	host := c.shadowHost(n)
	if host == nil {
		return false
	} else if !l.node.Function {
		return true
	}
	return c.matchBranches(l.args, host)
}

func (c *context) matchHostContext(l *leaf, n *html.Node) bool {
	for h := c.shadowHost(n); dom.IsElement(h); h = h.Parent {
		if c.matchBranches(l.args, h) {
			return true
		}
	}
	return false
}

func (c *context) shadowHost(n *html.Node) *html.Node {
	if !c.shadow || n != c.root {
		return nil
	}
	return c.doc.Host(n)
}

// matchScope matches the scoping element of the query. For documents and
// shadow roots their top level elements match.
func (c *context) matchScope(_ *leaf, n *html.Node) bool {
	if c.scope.Type == html.DocumentNode {
		return n.Parent == c.scope
	}
	return n == c.scope
}

func (c *context) target() *html.Node {
	if !c.targetResolved {
		c.targetNode, c.targetResolved = c.doc.Target(), true
	}
	return c.targetNode
}
