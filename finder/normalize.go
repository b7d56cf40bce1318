package finder

import (
	"strings"

	"golang.org/x/exp/slices"
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/css"
	"github.com/niklasfasching/qsa/dom"
)

// record is the normalized, immutable form of a selector text.
type record struct {
	text           string
	branches       []*branch
	descendantOnly bool
	cacheable      bool
	structural     bool
	unsupported    []string
	pseudoElements []string
}

type branch struct {
	twigs         []twig
	relative      string // leading combinator of :has() arguments
	pseudoElement bool
}

type twig struct {
	combinator string
	leaves     *leafSet
}

type leafSet struct {
	leaves     []*leaf
	key        string
	memoizable bool
	id         string
	class      string
	tag        string
}

type leaf struct {
	node        *css.Node
	kind        css.Kind
	name        string
	lower       string
	namespace   *string
	pseudo      pseudoClass
	args        []*branch
	a, b        int
	values      []string
	unsupported bool
	memoizable  bool
}

type normalizer struct {
	engine *Engine
	root   *html.Node
	record *record
}

// Pseudo-elements that are recognized but never match an element.
var pseudoElements = map[string]bool{
	"after": true, "backdrop": true, "before": true, "checkmark": true, "column": true, "cue": true,
	"details-content": true, "file-selector-button": true, "first-letter": true, "first-line": true,
	"grammar-error": true, "marker": true, "picker-icon": true, "placeholder": true, "scroll-marker": true,
	"scroll-marker-group": true, "selection": true, "spelling-error": true, "target-text": true,
}

// Functional pseudo-elements that address nodes this engine cannot reach.
var unsupportedPseudoElements = map[string]bool{
	"cue": true, "highlight": true, "part": true, "picker": true, "slotted": true,
	"view-transition-group": true, "view-transition-image-pair": true,
	"view-transition-new": true, "view-transition-old": true,
}

func (e *Engine) normalize(text string, list *css.Node, root *html.Node) (*record, error) {
	r := &record{text: text, descendantOnly: true, cacheable: true}
	n := &normalizer{engine: e, root: root, record: r}
	branches, err := n.list(list, false, false, 0)
	if err != nil {
		return nil, withSelector(err, text)
	}
	r.branches = branches
	for _, b := range branches {
		for i, t := range b.twigs {
			if i > 0 && t.combinator != " " {
				r.descendantOnly = false
			}
			for _, l := range t.leaves.leaves {
				if l.kind == css.PseudoClassSelector && pseudoClassDefs[l.pseudo].structural {
					r.structural = true
				}
			}
		}
	}
	return r, nil
}

// list normalizes a selector list. Forgiving lists drop branches that fail to
// normalize or use unsupported selectors instead of failing.
func (n *normalizer) list(list *css.Node, forgiving, relative bool, depth int) ([]*branch, error) {
	branches := []*branch{}
	for _, s := range list.Children {
		unsupported := len(n.record.unsupported)
		b, err := n.branch(s, relative, depth)
		if forgiving && (err != nil || len(n.record.unsupported) != unsupported) {
			n.record.unsupported = n.record.unsupported[:unsupported]
			continue
		} else if err != nil {
			return nil, err
		}
		branches = append(branches, b)
	}
	return branches, nil
}

func (n *normalizer) branch(s *css.Node, relative bool, depth int) (*branch, error) {
	b, leaves, combinator := &branch{}, []*leaf{}, ""
	if relative {
		b.relative = " "
	}
	for i, c := range s.Children {
		if c.Kind != css.Combinator {
			l, err := n.leaf(c, depth)
			if err != nil {
				return nil, err
			}
			b.pseudoElement = b.pseudoElement || l.kind == css.PseudoElementSelector
			leaves = append(leaves, l)
			continue
		} else if c.Name == "||" {
			return nil, notSupportedError("column combinator ||")
		} else if i == 0 && relative {
			b.relative = c.Name
			continue
		} else if len(leaves) == 0 {
			return nil, syntaxError("unexpected combinator %q", c.Name)
		}
		b.twigs = append(b.twigs, twig{combinator, n.engine.leafSet(leaves)})
		leaves, combinator = []*leaf{}, c.Name
	}
	if len(leaves) == 0 {
		return nil, syntaxError("dangling combinator %q", combinator)
	}
	b.twigs = append(b.twigs, twig{combinator, n.engine.leafSet(leaves)})
	return b, nil
}

func (n *normalizer) leaf(c *css.Node, depth int) (*leaf, error) {
	l := &leaf{node: c, kind: c.Kind, name: c.Unescaped(), namespace: c.Namespace, memoizable: true}
	l.lower = strings.ToLower(l.name)
	switch c.Kind {
	case css.TypeSelector, css.AttributeSelector:
		if c.Kind == css.AttributeSelector && c.Namespace != nil {
			n.record.cacheable = false
		}
		if err := n.checkNamespace(c.Namespace); err != nil {
			return nil, err
		}
		l.memoizable = c.Namespace == nil || *c.Namespace == "" || *c.Namespace == "*"
	case css.PseudoClassSelector:
		return l, n.pseudoClass(l, depth)
	case css.PseudoElementSelector:
		name := l.lower
		switch {
		case depth > 0:
			return nil, syntaxError("pseudo-element ::%s inside a selector argument", name)
		case unsupportedPseudoElements[name] && c.Function, strings.HasPrefix(name, "-webkit-"):
			l.unsupported = true
			n.record.unsupported = append(n.record.unsupported, "::"+name)
		case pseudoElements[name] && !c.Function:
			n.record.pseudoElements = append(n.record.pseudoElements, "::"+name)
		default:
			return nil, syntaxError("unknown pseudo-element ::%s", name)
		}
	}
	return l, nil
}

func (n *normalizer) pseudoClass(l *leaf, depth int) error {
	c, name := l.node, l.lower
	kind, ok := pseudoClassNames[name]
	if !ok && unsupportedPseudoClasses[name] {
		l.unsupported = true
		n.record.unsupported = append(n.record.unsupported, ":"+name)
		return nil
	} else if !ok {
		return syntaxError("unknown pseudo-class :%s", name)
	}
	l.pseudo, l.name = kind, name
	def := pseudoClassDefs[kind]
	if c.Function && !def.function || !c.Function && !def.plain {
		return syntaxError("invalid use of pseudo-class :%s", name)
	}
	l.memoizable = def.local
	var err error
	switch kind {
	case pcIs, pcWhere:
		l.args, err = n.list(c.Arguments(), true, false, depth+1)
	case pcNot, pcHost, pcHostContext:
		if c.Function {
			l.args, err = n.list(c.Arguments(), false, false, depth+1)
		}
	case pcHas:
		n.record.cacheable = false
		l.args, err = n.list(c.Arguments(), false, true, depth+1)
	case pcNthChild, pcNthLastChild, pcNthOfType, pcNthLastOfType:
		nth := c.Children[0]
		l.a, l.b = nth.Children[0].A, nth.Children[0].B
		if of := nth.Arguments(); of != nil {
			l.args, err = n.list(of, false, false, depth+1)
		}
	case pcLang:
		l.values = splitArguments(c.Value)
		if len(l.values) == 0 {
			return syntaxError("missing argument for :lang()")
		}
	case pcDir:
		if l.values = splitArguments(c.Value); len(l.values) != 1 {
			return syntaxError("invalid argument for :dir()")
		}
		l.values[0] = strings.ToLower(l.values[0])
	case pcContains:
		l.values = []string{unquote(c.Value)}
	}
	if err != nil {
		return err
	}
	if kind == pcIs || kind == pcWhere || kind == pcNot {
		l.memoizable = isLocal(l.args)
	}
	return nil
}

// checkNamespace fails for prefixes that are neither built in nor declared
// anywhere in the tree.
func (n *normalizer) checkNamespace(prefix *string) error {
	if prefix == nil || *prefix == "" || *prefix == "*" {
		return nil
	} else if _, ok := dom.Namespaces[*prefix]; ok {
		return nil
	}
	declared := n.engine.prefixes[n.root]
	if declared == nil {
		declared = map[string]bool{}
		dom.Walk(n.root, func(x *html.Node) bool {
			for _, a := range x.Attr {
				if a.Namespace == "" && strings.HasPrefix(a.Key, "xmlns:") {
					declared[a.Key[len("xmlns:"):]] = true
				} else if a.Namespace == "xmlns" {
					declared[a.Key] = true
				}
			}
			return true
		})
		n.engine.prefixes[n.root] = declared
	}
	if !declared[*prefix] {
		return syntaxError("undeclared namespace prefix %q", *prefix)
	}
	return nil
}

// leafSet returns the canonical (sorted and interned) leaf set for leaves.
func (e *Engine) leafSet(leaves []*leaf) *leafSet {
	slices.SortStableFunc(leaves, func(a, b *leaf) int {
		if a.kind != b.kind {
			return int(a.kind) - int(b.kind)
		}
		return strings.Compare(a.node.String(), b.node.String())
	})
	keys := make([]string, len(leaves))
	for i, l := range leaves {
		keys[i] = l.node.String()
	}
	key := strings.Join(keys, "")
	if ls := e.leafSets[key]; ls != nil {
		return ls
	}
	ls := &leafSet{leaves: leaves, key: key, memoizable: true}
	for _, l := range leaves {
		ls.memoizable = ls.memoizable && l.memoizable
		switch {
		case l.kind == css.IdSelector && ls.id == "":
			ls.id = l.name
		case l.kind == css.ClassSelector && ls.class == "":
			ls.class = l.name
		case l.kind == css.TypeSelector && l.name != "*" && (l.namespace == nil || *l.namespace == "*"):
			ls.tag = l.name
		}
	}
	e.leafSets[key] = ls
	return ls
}

// isLocal reports whether branches only look at the node itself, i.e. consist
// of a single memoizable compound each.
func isLocal(branches []*branch) bool {
	for _, b := range branches {
		if len(b.twigs) != 1 || !b.twigs[0].leaves.memoizable {
			return false
		}
	}
	return true
}

func splitArguments(value string) []string {
	values := []string{}
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, unquote(v))
		}
	}
	return values
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return css.Unescape(s[1 : len(s)-1])
	}
	return css.Unescape(s)
}
