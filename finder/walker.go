package finder

import (
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

// walker is a cursor over the elements below root in document order.
type walker struct {
	root    *html.Node
	current *html.Node
}

func (e *Engine) walker(root *html.Node) *walker {
	w := e.walkers[root]
	if w == nil {
		w = &walker{root: root}
		e.walkers[root] = w
	}
	return w
}

// next moves to the next element in document order and returns it, or nil
// once the subtree of root is exhausted.
func (w *walker) next() *html.Node { return w.advance(true) }

// nextSkip moves to the next element that is not a descendant of the current
// one.
func (w *walker) nextSkip() *html.Node { return w.advance(false) }

func (w *walker) advance(descend bool) *html.Node {
	n := w.current
	for n != nil {
		if descend && n.FirstChild != nil {
			n = n.FirstChild
		} else {
			for n != w.root && n.NextSibling == nil {
				n = n.Parent
			}
			if n == w.root {
				n = nil
				break
			}
			n = n.NextSibling
		}
		if dom.IsElement(n) {
			break
		}
		descend = true
	}
	if n == nil {
		w.current = w.root
		return nil
	}
	w.current = n
	return n
}

// reposition moves the cursor to target. Targets ahead of the cursor are
// reached by walking forward; otherwise the cursor climbs to the closest
// ancestor of target and walks forward from there.
func (w *walker) reposition(target *html.Node) bool {
	if !dom.Contains(w.root, target) {
		return false
	} else if !dom.Contains(w.root, w.current) {
		w.current = w.root
	}
	if !dom.Contains(w.current, target) && dom.Compare(w.current, target) > 0 {
		for w.current = w.current.Parent; w.current != w.root && !dom.Contains(w.current, target); {
			w.current = w.current.Parent
		}
	}
	for w.current != target {
		if dom.Contains(w.current, target) {
			if w.next() == nil {
				return false
			}
		} else if w.nextSkip() == nil {
			return false
		}
	}
	return true
}

// each calls f for the elements below scope until f returns false.
func (w *walker) each(scope *html.Node, f func(*html.Node) bool) {
	if !w.reposition(scope) {
		return
	}
	for n := w.next(); n != nil && dom.Contains(scope, n); n = w.next() {
		if !f(n) {
			return
		}
	}
}
