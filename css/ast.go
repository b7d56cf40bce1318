// Package css parses CSS selectors (Selectors Level 4) into a plain AST.
//
// The AST is deliberately dumb: nodes carry names as written in the selector
// text and nothing is resolved. Matching lives in package finder.
package css

type Kind int

const (
	SelectorList Kind = iota
	Selector
	TypeSelector
	IdSelector
	ClassSelector
	AttributeSelector
	PseudoClassSelector
	PseudoElementSelector
	Combinator
	Nth
	AnPlusB
)

// Node is a selector AST node.
//
// Name holds the name as written (escapes intact) for type, id, class,
// attribute and pseudo nodes, the combinator symbol for Combinator nodes and
// the keyword or raw text for AnPlusB nodes. Container kinds (SelectorList,
// Selector, Nth and functional pseudo-classes) carry Children.
type Node struct {
	Kind      Kind
	Name      string
	Namespace *string
	Matcher   string
	Value     string
	Flags     string
	A, B      int
	Function  bool
	Children  []*Node
	Offset    int

	unescaped *string
}

var kindNames = [...]string{
	SelectorList:          "SelectorList",
	Selector:              "Selector",
	TypeSelector:          "TypeSelector",
	IdSelector:            "IdSelector",
	ClassSelector:         "ClassSelector",
	AttributeSelector:     "AttributeSelector",
	PseudoClassSelector:   "PseudoClassSelector",
	PseudoElementSelector: "PseudoElementSelector",
	Combinator:            "Combinator",
	Nth:                   "Nth",
	AnPlusB:               "AnPlusB",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Unescaped returns Name with CSS escapes resolved. The result is computed
// once and stored on the node.
func (n *Node) Unescaped() string {
	if n.unescaped == nil {
		s := Unescape(n.Name)
		n.unescaped = &s
	}
	return *n.unescaped
}

// Arguments returns the selector list argument of a functional pseudo-class
// or the `of` list of an Nth node, if any.
func (n *Node) Arguments() *Node {
	for _, c := range n.Children {
		if c.Kind == SelectorList {
			return c
		}
	}
	return nil
}

// Walk calls f for n and all its descendants in depth-first order until f
// returns false.
func (n *Node) Walk(f func(*Node) bool) bool {
	if !f(n) {
		return false
	}
	for _, c := range n.Children {
		if !c.Walk(f) {
			return false
		}
	}
	return true
}

func namespace(s string) *string { return &s }
