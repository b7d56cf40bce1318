package finder

import (
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

// positionKey identifies one sibling sequence: all element children of parent,
// only those of one type, or only those matching the `of` list of leaf.
type positionKey struct {
	parent *html.Node
	tag    string
	leaf   *leaf
}

type positions struct {
	index map[*html.Node]int
	count int
}

// matchNth evaluates the nth-child family. Positions are computed once per
// sibling sequence and call.
func (c *context) matchNth(l *leaf, n *html.Node) bool {
	ofType := l.pseudo == pcNthOfType || l.pseudo == pcNthLastOfType
	last := l.pseudo == pcNthLastChild || l.pseudo == pcNthLastOfType
	if len(l.args) != 0 && !c.matchBranches(l.args, n) {
		return false
	} else if n.Parent == nil {
		return isNth(l.a, l.b, 1)
	}
	key := positionKey{parent: n.Parent}
	if ofType {
		key.tag = n.Namespace + "|" + n.Data
	} else if len(l.args) != 0 {
		key.leaf = l
	}
	p, ok := c.positions[key]
	if !ok {
		p = positions{index: map[*html.Node]int{}}
		for s := dom.FirstElementChild(n.Parent); s != nil; s = dom.NextElementSibling(s) {
			if ofType && (s.Data != n.Data || s.Namespace != n.Namespace) {
				continue
			} else if key.leaf != nil && !c.matchBranches(l.args, s) {
				continue
			}
			p.index[s] = p.count
			p.count++
		}
		c.positions[key] = p
	}
	i, ok := p.index[n]
	if !ok {
		return false
	} else if last {
		return isNth(l.a, l.b, p.count-i)
	}
	return isNth(l.a, l.b, i+1)
}

// isNth reports whether y is a position of the sequence an+b for some n >= 0.
func isNth(a, b, y int) bool {
	an := y - b
	return (a == 0 && b == y) || (a != 0 && an/a >= 0 && an%a == 0)
}
