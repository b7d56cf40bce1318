// Package soup is a convenience layer over package finder for scraping: nodes
// know the document they belong to and can be queried with selector strings.
package soup

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
	"github.com/niklasfasching/qsa/finder"
)

func Parse(r io.Reader, opts ...finder.Option) (*Node, error) {
	d, err := dom.Parse(r)
	if err != nil {
		return nil, err
	}
	register(d, opts...)
	return AsNode(d.Root), nil
}

func MustParse(r io.Reader) *Node {
	n, err := Parse(r)
	if err != nil {
		panic(err)
	}
	return n
}

func Load(client *http.Client, url string, opts ...finder.Option) (*Node, error) {
	return LoadContext(context.Background(), client, url, opts...)
}

func LoadContext(ctx context.Context, client *http.Client, url string, opts ...finder.Option) (*Node, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return LoadReq(client, req, opts...)
}

func LoadReq(client *http.Client, req *http.Request, opts ...finder.Option) (*Node, error) {
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode >= 300 {
		return nil, fmt.Errorf("status: %d", res.StatusCode)
	}
	n, err := Parse(res.Body, opts...)
	if err == nil {
		Document(n).URL = res.Request.URL
	}
	return n, err
}

func MustLoad(client *http.Client, url string) *Node {
	n, err := Load(client, url)
	if err != nil {
		panic(err)
	}
	return n
}

// Query returns the first descendant of n matching selector.
func (n *Node) Query(selector string, opts ...finder.QueryOption) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	s := sessionOf(n)
	s.Lock()
	defer s.Unlock()
	m, err := s.engine.QuerySelector(selector, AsHTMLNode(n), opts...)
	return AsNode(m), err
}

// QueryAll returns the descendants of n matching selector in document order.
func (n *Node) QueryAll(selector string, opts ...finder.QueryOption) (Nodes, error) {
	if n == nil {
		return nil, nil
	}
	s := sessionOf(n)
	s.Lock()
	defer s.Unlock()
	ms, err := s.engine.QuerySelectorAll(selector, AsHTMLNode(n), opts...)
	return AsNodes(&ms), err
}

func (n *Node) First(selector string) *Node { return must(n.Query(selector)) }

func (n *Node) All(selector string) Nodes { return must(n.QueryAll(selector)) }

// Closest returns n or its closest ancestor matching selector.
func (n *Node) Closest(selector string) *Node { return must(n.ClosestMatch(selector)) }

// Is reports whether n matches selector.
func (n *Node) Is(selector string) bool { return must(n.Matches(selector)) }

func (n *Node) ClosestMatch(selector string, opts ...finder.QueryOption) (*Node, error) {
	if n == nil {
		return nil, nil
	}
	var m *html.Node
	err := With(n, func(e *finder.Engine) (err error) {
		m, err = e.Closest(selector, AsHTMLNode(n), opts...)
		return err
	})
	return AsNode(m), err
}

func (n *Node) Matches(selector string, opts ...finder.QueryOption) (bool, error) {
	if n == nil || n.Type != html.ElementNode {
		return false, nil
	}
	ok := false
	err := With(n, func(e *finder.Engine) (err error) {
		ok, err = e.Matches(selector, AsHTMLNode(n), opts...)
		return err
	})
	return ok, err
}

// With calls f with the engine of the document n belongs to. Calls for the
// same document are serialized.
func With(n *Node, f func(*finder.Engine) error) error {
	s := sessionOf(n)
	s.Lock()
	defer s.Unlock()
	return f(s.engine)
}

func (n *Node) Text() string {
	var out strings.Builder
	appendText(&out, AsHTMLNode(n))
	return out.String()
}

func (n *Node) TrimmedText() string {
	return trimmed(n.Text())
}

func (n *Node) OuterHTML() string {
	if n == nil {
		return ""
	}
	return dom.Render(AsHTMLNode(n))
}

func (n *Node) HTML() string {
	if n == nil {
		return ""
	}
	var out strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out.WriteString(dom.Render(c))
	}
	return out.String()
}

func (n *Node) Attribute(key string) string {
	if n == nil {
		return ""
	}
	return dom.AttrValue(AsHTMLNode(n), key)
}

func (ns Nodes) Eq(i int) *Node {
	if i < 0 || i >= len(ns) {
		return nil
	}
	return ns[i]
}

func (ns Nodes) Len() int {
	return len(ns)
}

func (ns Nodes) Text(sep string) string {
	ss := make([]string, len(ns))
	for i, n := range ns {
		ss[i] = n.Text()
	}
	return strings.Join(ss, sep)
}

func (ns Nodes) Attribute(key string) []string {
	as := make([]string, len(ns))
	for i, n := range ns {
		as[i] = n.Attribute(key)
	}
	return as
}

func (ns Nodes) First(selector string) *Node {
	for _, n := range ns {
		if f := n.First(selector); f != nil {
			return f
		}
	}
	return nil
}

// All returns the matches below all of ns in document order.
func (ns Nodes) All(selector string) Nodes {
	all := []*html.Node{}
	for _, n := range ns {
		for _, m := range n.All(selector) {
			all = append(all, AsHTMLNode(m))
		}
	}
	all = dom.Sort(all)
	return AsNodes(&all)
}

func (ns Nodes) HTML() string {
	ss := make([]string, len(ns))
	for i, n := range ns {
		ss[i] = n.OuterHTML()
	}
	return strings.Join(ss, "\n")
}

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}
