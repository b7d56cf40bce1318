package dom

import (
	"strings"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"golang.org/x/net/html"
)

// Style returns the declarations of the inline style attribute of n with
// lower cased property names. !important is dropped.
func Style(n *html.Node) map[string]string {
	style, ok := Attr(n, "style")
	if !ok {
		return nil
	}
	declarations := map[string]string{}
	p := css.NewParser(parse.NewInputString(style), true)
	for {
		gt, _, data := p.Next()
		switch gt {
		case css.ErrorGrammar:
			return declarations
		case css.DeclarationGrammar:
			value := strings.Builder{}
			for _, t := range p.Values() {
				if t.TokenType == css.WhitespaceToken {
					value.WriteString(" ")
				} else {
					value.Write(t.Data)
				}
			}
			v := strings.TrimSpace(value.String())
			v = strings.TrimSpace(strings.TrimSuffix(v, "!important"))
			declarations[strings.ToLower(string(data))] = v
		}
	}
}

// IsVisible reports whether neither n nor one of its ancestors is hidden via
// the hidden attribute or an inline display:none. visibility is inherited and
// can be overridden by descendants.
func IsVisible(n *html.Node) bool {
	visibility := ""
	for ; IsElement(n); n = n.Parent {
		if HasAttr(n, "hidden") {
			return false
		}
		style := Style(n)
		if strings.EqualFold(style["display"], "none") {
			return false
		} else if v := strings.ToLower(style["visibility"]); v != "" && visibility == "" {
			visibility = v
		}
	}
	return visibility != "hidden" && visibility != "collapse"
}
