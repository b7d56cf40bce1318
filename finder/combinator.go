package finder

import (
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

// failKey identifies a failed verification of twigs [0, i] of b at n.
type failKey struct {
	branch *branch
	i      int
	node   *html.Node
}

// parent returns the parent element of n. Inside a shadow tree the shadow
// root itself counts so that :host can be reached.
func (c *context) parent(n *html.Node) *html.Node {
	switch p := n.Parent; {
	case dom.IsElement(p):
		return p
	case p != nil && c.shadow && p == c.root:
		return p
	}
	return nil
}

// verify reports whether n matches twig i of b and twigs [0, i) match the
// nodes related to n backwards through the combinators.
func (c *context) verify(b *branch, i int, n *html.Node) bool {
	key := failKey{b, i, n}
	if c.failed[key] {
		return false
	}
	t, ok := b.twigs[i], false
	if !c.matchLeafSet(t.leaves, n) {
		ok = false
	} else if i == 0 {
		return true
	} else {
		switch t.combinator {
		case " ":
			for p := c.parent(n); p != nil && !ok; p = c.parent(p) {
				ok = c.verify(b, i-1, p)
			}
		case ">":
			if p := c.parent(n); p != nil {
				ok = c.verify(b, i-1, p)
			}
		case "+":
			if s := dom.PrevElementSibling(n); s != nil {
				ok = c.verify(b, i-1, s)
			}
		case "~":
			for s := dom.PrevElementSibling(n); s != nil && !ok; s = dom.PrevElementSibling(s) {
				ok = c.verify(b, i-1, s)
			}
		}
	}
	if !ok {
		c.failed[key] = true
	}
	return ok
}

// related calls f for each node related to n through combinator in forward
// direction, i.e. descendants, children, the next sibling or all following
// siblings. It stops and returns false as soon as f does.
func (c *context) related(n *html.Node, combinator string, f func(*html.Node) bool) bool {
	switch combinator {
	case " ":
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			if !descendants(ch, f) {
				return false
			}
		}
	case ">":
		for ch := dom.FirstElementChild(n); ch != nil; ch = dom.NextElementSibling(ch) {
			if !f(ch) {
				return false
			}
		}
	case "+":
		if s := dom.NextElementSibling(n); s != nil {
			return f(s)
		}
	case "~":
		for s := dom.NextElementSibling(n); s != nil; s = dom.NextElementSibling(s) {
			if !f(s) {
				return false
			}
		}
	}
	return true
}

func descendants(n *html.Node, f func(*html.Node) bool) bool {
	if dom.IsElement(n) && !f(n) {
		return false
	}
	for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
		if !descendants(ch, f) {
			return false
		}
	}
	return true
}

// relative reports whether some node reachable from n through combinator
// matches twigs [i, len) of b.
func (c *context) relative(b *branch, i int, n *html.Node, combinator string) bool {
	found := false
	c.related(n, combinator, func(m *html.Node) bool {
		if c.matchLeafSet(b.twigs[i].leaves, m) {
			found = i == len(b.twigs)-1 || c.relative(b, i+1, m, b.twigs[i+1].combinator)
		}
		return !found
	})
	return found
}

// extend returns the nodes related to nodes through the combinator of t that
// match t's leaves. nodes must be in document order; nodes covered by an
// earlier node (descendants of a previous node for " ", later siblings for
// "~") are skipped.
func (c *context) extend(t twig, nodes []*html.Node) []*html.Node {
	out, seen, parents := []*html.Node{}, map[*html.Node]bool{}, map[*html.Node]bool{}
	var last *html.Node
	collect := func(m *html.Node) bool {
		if !seen[m] && c.matchLeafSet(t.leaves, m) {
			seen[m] = true
			out = append(out, m)
		}
		return true
	}
	for _, n := range nodes {
		switch t.combinator {
		case " ":
			if last != nil && dom.Contains(last, n) {
				continue
			}
			last = n
		case "~":
			if parents[n.Parent] {
				continue
			}
			parents[n.Parent] = true
		}
		c.related(n, t.combinator, collect)
	}
	return out
}
