package dom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/unicode/bidi"
)

// Lang returns the language of n as declared by the closest lang or xml:lang
// attribute.
func Lang(n *html.Node) (string, bool) {
	for ; n != nil; n = n.Parent {
		if !IsElement(n) {
			continue
		} else if v, ok := AttrNS(n, XMLNamespace, "lang"); ok {
			return v, true
		} else if v, ok := Attr(n, "lang"); ok {
			return v, true
		}
	}
	return "", false
}

// MatchLanguage implements RFC 4647 extended filtering of a language tag
// against a language range. Subtags compare case insensitively, "*" matches
// any subtag and non-matching subtags of the tag are skipped unless they are
// singletons.
func MatchLanguage(tag, languageRange string) bool {
	if languageRange == "*" {
		return tag != ""
	}
	r := strings.Split(strings.ToLower(languageRange), "-")
	t := strings.Split(strings.ToLower(tag), "-")
	if r[0] != "*" && r[0] != t[0] {
		return false
	}
	for i, j := 1, 1; i < len(r); {
		switch {
		case r[i] == "*":
			i++
		case j >= len(t):
			return false
		case r[i] == t[j]:
			i, j = i+1, j+1
		case len(t[j]) == 1:
			return false
		default:
			j++
		}
	}
	return true
}

// Dir returns the directionality (ltr or rtl) of n.
func Dir(n *html.Node) string {
	for ; IsElement(n); n = n.Parent {
		dir := strings.ToLower(AttrValue(n, "dir"))
		switch {
		case dir == "ltr", dir == "rtl":
			return dir
		case dir == "auto", dir == "" && n.Data == "bdi" && n.Namespace == "":
			if d := autoDir(n); d != "" {
				return d
			} else if n.Data == "input" || n.Data == "textarea" {
				return "ltr"
			}
		case n.Data == "input" && n.Namespace == "" && InputType(n) == "tel":
			return "ltr"
		}
	}
	return "ltr"
}

// autoDir returns the direction of the first strong character of the text of
// n, skipping subtrees that carry their own direction.
func autoDir(n *html.Node) string {
	if n.Namespace == "" && (n.Data == "input" || n.Data == "textarea") {
		return strongDirection(Value(n))
	}
	dir := ""
	for c := n.FirstChild; c != nil && dir == ""; c = c.NextSibling {
		Walk(c, func(n *html.Node) bool {
			if dir != "" {
				return false
			} else if n.Type == html.TextNode {
				dir = strongDirection(n.Data)
				return false
			} else if IsElement(n) {
				switch n.Data {
				case "bdi", "script", "style", "textarea":
					return false
				}
				return !HasAttr(n, "dir")
			}
			return true
		})
	}
	return dir
}

func strongDirection(s string) string {
	for i := 0; i < len(s); {
		p, w := bidi.LookupString(s[i:])
		if w == 0 {
			break
		}
		switch p.Class() {
		case bidi.L:
			return "ltr"
		case bidi.R, bidi.AL:
			return "rtl"
		}
		i += w
	}
	return ""
}
