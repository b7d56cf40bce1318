package dom

import (
	"strings"

	"golang.org/x/net/html"
)

const (
	HTMLNamespace   = "http://www.w3.org/1999/xhtml"
	SVGNamespace    = "http://www.w3.org/2000/svg"
	MathMLNamespace = "http://www.w3.org/1998/Math/MathML"
	XLinkNamespace  = "http://www.w3.org/1999/xlink"
	XMLNamespace    = "http://www.w3.org/XML/1998/namespace"
	XMLNSNamespace  = "http://www.w3.org/2000/xmlns/"
)

// Namespaces maps the prefixes known without declaration to their uri.
var Namespaces = map[string]string{
	"html":  HTMLNamespace,
	"svg":   SVGNamespace,
	"math":  MathMLNamespace,
	"xlink": XLinkNamespace,
	"xml":   XMLNamespace,
	"xmlns": XMLNSNamespace,
}

// Attr returns the value of the attribute key without namespace.
func Attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

func AttrValue(n *html.Node, key string) string {
	v, _ := Attr(n, key)
	return v
}

func HasAttr(n *html.Node, key string) bool {
	_, ok := Attr(n, key)
	return ok
}

// AttrNS returns the value of the attribute with the given namespace uri and
// local name.
func AttrNS(n *html.Node, uri, key string) (string, bool) {
	for _, a := range n.Attr {
		if AttrNamespaceURI(a) == uri && LocalAttrName(a) == key {
			return a.Val, true
		}
	}
	return "", false
}

// LocalAttrName returns the attribute name without prefix. The html parser
// keeps prefixed attributes of html elements (e.g. xlink:href) as plain keys.
func LocalAttrName(a html.Attribute) string {
	if a.Namespace != "" {
		return a.Key
	} else if i := strings.IndexByte(a.Key, ':'); i != -1 {
		return a.Key[i+1:]
	}
	return a.Key
}

func AttrNamespaceURI(a html.Attribute) string {
	if a.Namespace != "" {
		return Namespaces[a.Namespace]
	} else if i := strings.IndexByte(a.Key, ':'); i != -1 {
		return Namespaces[a.Key[:i]]
	}
	return ""
}

// NamespaceURI returns the namespace uri of element n.
func NamespaceURI(n *html.Node) string {
	switch n.Namespace {
	case "":
		return HTMLNamespace
	case "svg":
		return SVGNamespace
	case "math":
		return MathMLNamespace
	default:
		return n.Namespace
	}
}

// LookupNamespace resolves prefix via xmlns:prefix declarations on n and its
// ancestors, falling back to the built-in prefixes. The empty prefix resolves
// xmlns declarations only.
func LookupNamespace(n *html.Node, prefix string) (string, bool) {
	for ; n != nil; n = n.Parent {
		if !IsElement(n) {
			continue
		}
		for _, a := range n.Attr {
			switch {
			case prefix == "" && a.Namespace == "" && a.Key == "xmlns",
				prefix != "" && a.Namespace == "" && a.Key == "xmlns:"+prefix,
				prefix != "" && a.Namespace == "xmlns" && a.Key == prefix:
				return a.Val, true
			}
		}
	}
	uri, ok := Namespaces[prefix]
	return uri, ok
}

func Classes(n *html.Node) []string {
	return strings.Fields(AttrValue(n, "class"))
}

func HasClass(n *html.Node, class string) bool {
	v, ok := Attr(n, "class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(v) {
		if c == class {
			return true
		}
	}
	return false
}

// SetAttr sets (or adds) the attribute key without namespace.
func SetAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func RemoveAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Namespace == "" && a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
