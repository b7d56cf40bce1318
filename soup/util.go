package soup

import (
	"regexp"
	"strings"
	"sync"
	"unsafe"

	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
	"github.com/niklasfasching/qsa/finder"
)

type Node html.Node
type Nodes []*Node

func AsHTMLNode(n *Node) *html.Node  { return (*html.Node)(unsafe.Pointer(n)) }
func AsNode(n *html.Node) *Node      { return (*Node)(unsafe.Pointer(n)) }
func AsNodes(ns *[]*html.Node) Nodes { return *(*[]*Node)(unsafe.Pointer(ns)) }

// session serializes queries against the engine of one document.
type session struct {
	sync.Mutex
	doc    *dom.Document
	engine *finder.Engine
}

var sessions = struct {
	sync.Mutex
	m map[*html.Node]*session
}{m: map[*html.Node]*session{}}

var duplicateWhitespace = regexp.MustCompile(`\s+(\n)\s*|\s*(\n)\s+|(\s)\s+`)

func register(d *dom.Document, opts ...finder.Option) *session {
	s := &session{doc: d, engine: finder.New(d, opts...)}
	sessions.Lock()
	defer sessions.Unlock()
	sessions.m[d.Root] = s
	for _, r := range d.ShadowRoots() {
		sessions.m[r] = s
	}
	return s
}

// sessionOf returns the session of the document n belongs to. Nodes of trees
// that were not parsed by this package get a document of their own.
func sessionOf(n *Node) *session {
	root := dom.TreeRoot(AsHTMLNode(n))
	sessions.Lock()
	s := sessions.m[root]
	sessions.Unlock()
	if s == nil {
		s = register(dom.New(root))
	}
	return s
}

// Document returns the document n belongs to.
func Document(n *Node) *dom.Document { return sessionOf(n).doc }

// Release forgets the document of n and the caches of its engine.
func Release(n *Node) {
	s := sessionOf(n)
	s.Lock()
	defer s.Unlock()
	sessions.Lock()
	defer sessions.Unlock()
	for root, other := range sessions.m {
		if other == s {
			s.engine.Drop(root)
			delete(sessions.m, root)
		}
	}
}

func appendText(out *strings.Builder, n *html.Node) {
	switch {
	case n == nil || n.Type == html.CommentNode:
		return
	case n.Type == html.TextNode:
		out.WriteString(n.Data)
	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			appendText(out, c)
		}
	}
}

func trimmed(s string) string {
	return duplicateWhitespace.ReplaceAllString(strings.TrimSpace(s), "$1")
}
