package css

import (
	"fmt"
	"strconv"
	"strings"
)

func (n *Node) String() string {
	switch n.Kind {
	case SelectorList:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return strings.Join(parts, ", ")
	case Selector:
		s := strings.Builder{}
		for i, c := range n.Children {
			switch {
			case c.Kind != Combinator:
				s.WriteString(c.String())
			case c.Name == " ":
				s.WriteString(" ")
			case i == 0:
				s.WriteString(c.Name + " ")
			default:
				s.WriteString(" " + c.Name + " ")
			}
		}
		return s.String()
	case TypeSelector:
		return n.namespacePrefix() + n.Name
	case IdSelector:
		return "#" + n.Name
	case ClassSelector:
		return "." + n.Name
	case AttributeSelector:
		s := "[" + n.namespacePrefix() + n.Name
		if n.Matcher != "" {
			s += n.Matcher + `"` + EscapeString(n.Value) + `"`
		}
		if n.Flags != "" {
			s += " " + n.Flags
		}
		return s + "]"
	case PseudoClassSelector, PseudoElementSelector:
		s := ":" + n.Name
		if n.Kind == PseudoElementSelector {
			s = ":" + s
		}
		if !n.Function {
			return s
		} else if len(n.Children) == 0 {
			return s + "(" + n.Value + ")"
		}
		return s + "(" + n.Children[0].String() + ")"
	case Nth:
		s := n.Children[0].String()
		if of := n.Arguments(); of != nil {
			s += " of " + of.String()
		}
		return s
	case AnPlusB:
		switch {
		case n.A == 0:
			return strconv.Itoa(n.B)
		case n.B == 0:
			return strconv.Itoa(n.A) + "n"
		default:
			return fmt.Sprintf("%dn%+d", n.A, n.B)
		}
	case Combinator:
		return n.Name
	}
	return ""
}

func (n *Node) namespacePrefix() string {
	if n.Namespace == nil {
		return ""
	}
	return *n.Namespace + "|"
}
