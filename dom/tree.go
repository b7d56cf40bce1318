package dom

import (
	"strings"
	"unsafe"

	"golang.org/x/exp/slices"
	"golang.org/x/net/html"
)

func IsElement(n *html.Node) bool {
	return n != nil && n.Type == html.ElementNode
}

func Children(n *html.Node) []*html.Node {
	children := []*html.Node{}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			children = append(children, c)
		}
	}
	return children
}

func FirstElementChild(n *html.Node) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if IsElement(c) {
			return c
		}
	}
	return nil
}

func LastElementChild(n *html.Node) *html.Node {
	for c := n.LastChild; c != nil; c = c.PrevSibling {
		if IsElement(c) {
			return c
		}
	}
	return nil
}

func NextElementSibling(n *html.Node) *html.Node {
	for s := n.NextSibling; s != nil; s = s.NextSibling {
		if IsElement(s) {
			return s
		}
	}
	return nil
}

func PrevElementSibling(n *html.Node) *html.Node {
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if IsElement(s) {
			return s
		}
	}
	return nil
}

// TreeRoot returns the topmost ancestor of n, i.e. the document, a shadow
// root or the root of a detached subtree.
func TreeRoot(n *html.Node) *html.Node {
	for n.Parent != nil {
		n = n.Parent
	}
	return n
}

// Contains reports whether b is a or one of its descendants.
func Contains(a, b *html.Node) bool {
	for ; b != nil; b = b.Parent {
		if a == b {
			return true
		}
	}
	return false
}

// Compare returns -1 if a precedes b in document order, 1 if it follows and 0
// if they are the same node. Nodes of different trees are ordered by their
// roots' pointer identity so the order is at least stable.
func Compare(a, b *html.Node) int {
	if a == b {
		return 0
	}
	pa, pb := ancestors(a), ancestors(b)
	if pa[0] != pb[0] {
		if uintptr(unsafe.Pointer(pa[0])) < uintptr(unsafe.Pointer(pb[0])) {
			return -1
		}
		return 1
	}
	i := 0
	for i < len(pa) && i < len(pb) && pa[i] == pb[i] {
		i++
	}
	if i == len(pa) {
		return -1
	} else if i == len(pb) {
		return 1
	}
	for s := pa[i].NextSibling; s != nil; s = s.NextSibling {
		if s == pb[i] {
			return -1
		}
	}
	return 1
}

// Sort sorts ns into document order and removes duplicates.
func Sort(ns []*html.Node) []*html.Node {
	if len(ns) < 2 {
		return ns
	}
	slices.SortFunc(ns, Compare)
	return slices.Compact(ns)
}

// Walk calls f for n and its descendants in document order. Returning false
// from f skips the children of the current node.
func Walk(n *html.Node, f func(*html.Node) bool) {
	if !f(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, f)
	}
}

// FindAll returns all elements below root (excluding root) for which f
// returns true, in document order.
func FindAll(root *html.Node, f func(*html.Node) bool) []*html.Node {
	ns := []*html.Node{}
	for c := root.FirstChild; c != nil; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if IsElement(n) && f(n) {
				ns = append(ns, n)
			}
			return true
		})
	}
	return ns
}

func FindFirst(root *html.Node, f func(*html.Node) bool) *html.Node {
	var found *html.Node
	for c := root.FirstChild; c != nil && found == nil; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if found == nil && IsElement(n) && f(n) {
				found = n
			}
			return found == nil
		})
	}
	return found
}

func ElementsByID(root *html.Node, id string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool {
		v, ok := Attr(n, "id")
		return ok && v == id
	})
}

func ElementsByClassName(root *html.Node, class string) []*html.Node {
	return FindAll(root, func(n *html.Node) bool { return HasClass(n, class) })
}

// ElementsByTagName matches the local name; html elements are compared case
// insensitively.
func ElementsByTagName(root *html.Node, name string) []*html.Node {
	lower := strings.ToLower(name)
	return FindAll(root, func(n *html.Node) bool {
		if n.Namespace == "" {
			return n.Data == lower
		}
		return n.Data == name
	})
}

// Text returns the concatenated text content of n.
func Text(n *html.Node) string {
	s := strings.Builder{}
	Walk(n, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			s.WriteString(n.Data)
		}
		return true
	})
	return s.String()
}

func Render(n *html.Node) string {
	s := strings.Builder{}
	if err := html.Render(&s, n); err != nil {
		return ""
	}
	return s.String()
}

func ancestors(n *html.Node) []*html.Node {
	path := []*html.Node{}
	for ; n != nil; n = n.Parent {
		path = append(path, n)
	}
	slices.Reverse(path)
	return path
}
