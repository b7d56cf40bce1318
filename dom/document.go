// Package dom provides the host side of selector matching on top of
// golang.org/x/net/html: document state (url, focus, custom elements, shadow
// roots), tree and lookup helpers and element state predicates.
package dom

import (
	"errors"
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

type Document struct {
	Root  *html.Node
	URL   *url.URL
	Focus *html.Node
	Modal *html.Node

	defined map[string]bool
	shadows map[*html.Node]*html.Node // host -> shadow root
	hosts   map[*html.Node]*html.Node // shadow root -> host
}

var reservedCustomElementNames = map[string]bool{
	"annotation-xml":   true,
	"color-profile":    true,
	"font-face":        true,
	"font-face-src":    true,
	"font-face-uri":    true,
	"font-face-format": true,
	"font-face-name":   true,
	"missing-glyph":    true,
}

func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return New(root), nil
}

func ParseString(s string) (*Document, error) {
	return Parse(strings.NewReader(s))
}

func MustParseString(s string) *Document {
	d, err := ParseString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// New wraps root and attaches declarative shadow roots, i.e. moves the content
// of <template shadowrootmode> elements into shadow roots of their parents.
func New(root *html.Node) *Document {
	d := &Document{
		Root:    root,
		URL:     &url.URL{Scheme: "about", Opaque: "blank"},
		defined: map[string]bool{},
		shadows: map[*html.Node]*html.Node{},
		hosts:   map[*html.Node]*html.Node{},
	}
	templates := []*html.Node{}
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if IsElement(n) && n.Data == "template" && n.Namespace == "" && HasAttr(n, "shadowrootmode") {
			templates = append(templates, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(root)
	for _, t := range templates {
		host := t.Parent
		if !IsElement(host) || d.shadows[host] != nil {
			continue
		}
		shadow, _ := d.AttachShadow(host)
		for c := t.FirstChild; c != nil; {
			next := c.NextSibling
			t.RemoveChild(c)
			shadow.AppendChild(c)
			c = next
		}
		host.RemoveChild(t)
	}
	return d
}

// AttachShadow creates an empty shadow root for host. Shadow roots are
// DocumentNodes without a parent; use Host to get back to the host.
func (d *Document) AttachShadow(host *html.Node) (*html.Node, error) {
	if !IsElement(host) {
		return nil, errors.New("shadow host must be an element")
	} else if d.shadows[host] != nil {
		return nil, errors.New("element already hosts a shadow root")
	}
	shadow := &html.Node{Type: html.DocumentNode}
	d.shadows[host], d.hosts[shadow] = shadow, host
	return shadow, nil
}

func (d *Document) ShadowRoot(host *html.Node) *html.Node { return d.shadows[host] }

func (d *Document) Host(shadow *html.Node) *html.Node { return d.hosts[shadow] }

func (d *Document) IsShadowRoot(n *html.Node) bool { return d.hosts[n] != nil }

// ShadowRoots returns all attached shadow roots.
func (d *Document) ShadowRoots() []*html.Node {
	roots := make([]*html.Node, 0, len(d.hosts))
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if s := d.shadows[c]; s != nil {
				roots = append(roots, s)
				walk(s)
			}
			walk(c)
		}
	}
	walk(d.Root)
	return roots
}

// DocumentElement returns the <html> element.
func (d *Document) DocumentElement() *html.Node {
	return FirstElementChild(d.Root)
}

func (d *Document) Define(name string) { d.defined[strings.ToLower(name)] = true }

// IsDefined reports whether n is a built-in element or a custom element whose
// name was registered with Define.
func (d *Document) IsDefined(n *html.Node) bool {
	if n.Namespace != "" || !IsCustomElementName(n.Data) {
		return true
	}
	return d.defined[n.Data]
}

// Fragment returns the url fragment (target id) of the document.
func (d *Document) Fragment() string {
	if d.URL == nil {
		return ""
	}
	return d.URL.Fragment
}

// Target returns the element identified by the url fragment, if any.
func (d *Document) Target() *html.Node {
	f := d.Fragment()
	if f == "" {
		return nil
	}
	if ns := ElementsByID(d.Root, f); len(ns) != 0 {
		return ns[0]
	}
	return FindFirst(d.Root, func(n *html.Node) bool {
		return n.Data == "a" && n.Namespace == "" && AttrValue(n, "name") == f
	})
}

func IsCustomElementName(name string) bool {
	return strings.Contains(name, "-") && name[0] >= 'a' && name[0] <= 'z' && !reservedCustomElementNames[name]
}
