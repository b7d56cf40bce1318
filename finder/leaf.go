package finder

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/css"
	"github.com/niklasfasching/qsa/dom"
)

// Attributes whose values html documents compare ASCII case-insensitively.
var caseInsensitiveAttributes = map[string]bool{
	"accept": true, "accept-charset": true, "align": true, "alink": true, "axis": true, "bgcolor": true,
	"charset": true, "checked": true, "clear": true, "codetype": true, "color": true, "compact": true,
	"declare": true, "defer": true, "dir": true, "direction": true, "disabled": true, "enctype": true,
	"face": true, "frame": true, "hreflang": true, "http-equiv": true, "lang": true, "language": true,
	"link": true, "media": true, "method": true, "multiple": true, "nohref": true, "noresize": true,
	"noshade": true, "nowrap": true, "readonly": true, "rel": true, "rev": true, "rules": true,
	"scope": true, "scrolling": true, "selected": true, "shape": true, "target": true, "text": true,
	"type": true, "valign": true, "valuetype": true, "vlink": true,
}

var attributeMatchers = map[string]func(value, s string) bool{
	"=": func(value, s string) bool { return value == s },
	"~=": func(value, s string) bool {
		return s != "" && !strings.ContainsAny(s, " \t\r\n\f") && includeMatch(value, s)
	},
	"|=": func(value, s string) bool { return value == s || strings.HasPrefix(value, s+"-") },
	"^=": func(value, s string) bool { return s != "" && strings.HasPrefix(value, s) },
	"$=": func(value, s string) bool { return s != "" && strings.HasSuffix(value, s) },
	"*=": func(value, s string) bool { return s != "" && strings.Contains(value, s) },
}

// matchLeafSet reports whether n matches every leaf of ls. Results for
// memoizable leaf sets are kept until the attribute count of n changes.
func (c *context) matchLeafSet(ls *leafSet, n *html.Node) bool {
	memoize := ls.memoizable && dom.IsElement(n) && !dom.IsFormAssociated(n)
	key := memoKey{ls, n}
	if memoize {
		if m, ok := c.engine.memo[key]; ok && m.attributes == len(n.Attr) {
			return m.ok
		}
	}
	ok := true
	for _, l := range ls.leaves {
		if !c.matchLeaf(l, n) {
			ok = false
			break
		}
	}
	if memoize {
		c.engine.memo[key] = memoEntry{len(n.Attr), ok}
	}
	return ok
}

func (c *context) matchLeaf(l *leaf, n *html.Node) bool {
	if l.unsupported {
		return false
	} else if !dom.IsElement(n) {
		return l.kind == css.PseudoClassSelector && (l.pseudo == pcHost || l.pseudo == pcHostContext) &&
			pseudoClassMatchers[l.pseudo](c, l, n)
	}
	switch l.kind {
	case css.TypeSelector:
		return matchType(l, n)
	case css.IdSelector:
		id, ok := dom.Attr(n, "id")
		return ok && id == l.name
	case css.ClassSelector:
		return dom.HasClass(n, l.name)
	case css.AttributeSelector:
		return matchAttribute(l, n)
	case css.PseudoClassSelector:
		return pseudoClassMatchers[l.pseudo](c, l, n)
	}
	return false
}

func matchType(l *leaf, n *html.Node) bool {
	if l.name != "*" {
		if n.Namespace == "" && n.Data != l.lower || n.Namespace != "" && n.Data != l.name {
			return false
		}
	}
	return matchNamespace(l.namespace, dom.NamespaceURI(n), n)
}

func matchNamespace(prefix *string, uri string, n *html.Node) bool {
	switch {
	case prefix == nil || *prefix == "*":
		return true
	case *prefix == "":
		return uri == ""
	}
	ns, ok := dom.LookupNamespace(n, *prefix)
	return ok && ns == uri
}

func matchAttribute(l *leaf, n *html.Node) bool {
	isHTML := n.Namespace == ""
	for _, a := range n.Attr {
		if matchAttributeName(l, a, n, isHTML) && (l.node.Matcher == "" || matchAttributeValue(l, a, isHTML)) {
			return true
		}
	}
	return false
}

func matchAttributeName(l *leaf, a html.Attribute, n *html.Node, isHTML bool) bool {
	name := l.name
	if isHTML {
		name = l.lower
	}
	switch {
	case l.namespace == nil:
		return a.Namespace == "" && a.Key == name
	case *l.namespace == "*":
		return dom.LocalAttrName(a) == name
	case *l.namespace == "":
		return a.Namespace == "" && a.Key == name && !strings.Contains(a.Key, ":")
	}
	uri, ok := dom.LookupNamespace(n, *l.namespace)
	return ok && dom.AttrNamespaceURI(a) == uri && dom.LocalAttrName(a) == name
}

func matchAttributeValue(l *leaf, a html.Attribute, isHTML bool) bool {
	value, s := a.Val, l.node.Value
	switch flags := strings.ToLower(l.node.Flags); {
	case flags == "i", flags == "" && isHTML && caseInsensitiveAttributes[l.lower]:
		value, s = asciiLower(value), asciiLower(s)
	}
	return attributeMatchers[l.node.Matcher](value, s)
}

func includeMatch(value, s string) bool {
	for {
		if i := strings.IndexAny(value, " \t\r\n\f"); i == -1 {
			return value == s
		} else if value[:i] == s {
			return true
		} else {
			value = value[i+1:]
		}
	}
}

func asciiLower(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'A' && r <= 'Z' {
			return r + 'a' - 'A'
		}
		return r
	}, s)
}
