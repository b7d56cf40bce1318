package finder

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

// strategy is the entry point of a branch for querySelector(All).
type strategy int

const (
	strategyNone      strategy = iota // the branch never matches an element
	strategyID                        // id lookup on the rightmost compound, verified backwards
	strategyIDForward                 // id lookup on the leftmost compound, extended forwards
	strategyClass                     // class lookup on the rightmost compound
	strategyTag                       // tag lookup on the rightmost compound
	strategyForward                   // walk of the whole tree, extended forwards
	strategyBackward                  // walk of the scope, verified backwards
)

var strategyNames = [...]string{"none", "id", "id-forward", "class", "tag", "forward", "backward"}

func (s strategy) String() string { return strategyNames[s] }

func (c *context) strategy(r *record, b *branch, all bool) strategy {
	first, last := b.twigs[0].leaves, b.twigs[len(b.twigs)-1].leaves
	lookup := r.descendantOnly && !r.structural
	switch {
	case b.pseudoElement:
		return strategyNone
	case last.id != "":
		return strategyID
	case len(b.twigs) > 1 && first.id != "":
		return strategyIDForward
	case lookup && last.class != "":
		return strategyClass
	case lookup && last.tag != "":
		return strategyTag
	case all && len(b.twigs) > 1 && c.scope == c.root:
		return strategyForward
	}
	return strategyBackward
}

// collect returns the elements below the scope that match b.
func (c *context) collect(b *branch, s strategy) []*html.Node {
	i, last := len(b.twigs)-1, b.twigs[len(b.twigs)-1].leaves
	switch s {
	case strategyID:
		return c.verified(b, dom.ElementsByID(c.scope, last.id))
	case strategyClass:
		return c.verified(b, dom.ElementsByClassName(c.scope, last.class))
	case strategyTag:
		return c.verified(b, dom.ElementsByTagName(c.scope, last.tag))
	case strategyIDForward:
		anchors := c.rootAnchor(b)
		for _, n := range dom.ElementsByID(c.root, b.twigs[0].leaves.id) {
			if c.matchLeafSet(b.twigs[0].leaves, n) {
				anchors = append(anchors, n)
			}
		}
		return c.inScope(c.forward(b, anchors))
	case strategyForward:
		anchors := c.rootAnchor(b)
		c.engine.walker(c.root).each(c.root, func(n *html.Node) bool {
			if c.matchLeafSet(b.twigs[0].leaves, n) {
				anchors = append(anchors, n)
			}
			return true
		})
		return c.forward(b, anchors)
	case strategyBackward:
		out := []*html.Node{}
		c.engine.walker(c.root).each(c.scope, func(n *html.Node) bool {
			if c.verify(b, i, n) {
				out = append(out, n)
			}
			return true
		})
		return out
	}
	return nil
}

// rootAnchor returns the tree root if it matches the first twig of b. Lookups
// and walks only visit the elements below it, but a shadow root (:host) or
// the root element of a detached subtree may anchor a match as well.
func (c *context) rootAnchor(b *branch) []*html.Node {
	if (c.shadow || dom.IsElement(c.root)) && c.matchLeafSet(b.twigs[0].leaves, c.root) {
		return []*html.Node{c.root}
	}
	return []*html.Node{}
}

func (c *context) verified(b *branch, candidates []*html.Node) []*html.Node {
	out := []*html.Node{}
	for _, n := range candidates {
		if c.verify(b, len(b.twigs)-1, n) {
			out = append(out, n)
		}
	}
	return out
}

// forward extends anchors matching the first twig of b through the remaining
// twigs.
func (c *context) forward(b *branch, anchors []*html.Node) []*html.Node {
	nodes := anchors
	for _, t := range b.twigs[1:] {
		if len(nodes) == 0 {
			break
		}
		nodes = c.extend(t, dom.Sort(nodes))
	}
	return nodes
}

func (c *context) inScope(nodes []*html.Node) []*html.Node {
	if c.scope == c.root {
		return nodes
	}
	out := []*html.Node{}
	for _, n := range nodes {
		if n != c.scope && dom.Contains(c.scope, n) {
			out = append(out, n)
		}
	}
	return out
}

// first returns the first element below the scope in document order that
// matches r. Branches without a cheaper entry point share a single walk that
// stops at the best candidate found so far.
func (c *context) first(r *record) *html.Node {
	var best *html.Node
	walk := []*branch{}
	for _, b := range r.branches {
		s := c.strategy(r, b, false)
		c.engine.log.Debug("entry point", zap.String("selector", r.text), zap.Stringer("strategy", s))
		switch s {
		case strategyNone:
		case strategyBackward:
			walk = append(walk, b)
		default:
			for _, n := range c.collect(b, s) {
				if best == nil || dom.Compare(n, best) < 0 {
					best = n
				}
			}
		}
	}
	if len(walk) != 0 {
		c.engine.walker(c.root).each(c.scope, func(n *html.Node) bool {
			if n == best {
				return false
			}
			for _, b := range walk {
				if c.verify(b, len(b.twigs)-1, n) {
					best = n
					return false
				}
			}
			return true
		})
	}
	return best
}

// all returns the elements below the scope that match r in document order.
// Results are only sorted if they may be out of order.
func (c *context) all(r *record) []*html.Node {
	out, contributed, ordered := []*html.Node{}, 0, true
	for _, b := range r.branches {
		s := c.strategy(r, b, true)
		c.engine.log.Debug("entry point", zap.String("selector", r.text), zap.Stringer("strategy", s))
		if s == strategyNone {
			continue
		}
		nodes := c.collect(b, s)
		if len(nodes) == 0 {
			continue
		}
		contributed++
		ordered = ordered && s == strategyBackward
		out = append(out, nodes...)
	}
	if contributed > 1 || !ordered {
		out = dom.Sort(out)
	}
	return out
}
