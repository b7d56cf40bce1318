package css

import (
	"fmt"
	"strings"

	csslex "github.com/tdewolff/parse/v2/css"
)

type Error struct {
	Offset int
	Msg    string
}

type parser struct {
	input  string
	tokens []token
	index  int
}

var attributeMatchers = map[csslex.TokenType]string{
	csslex.IncludeMatchToken:   "~=",
	csslex.DashMatchToken:      "|=",
	csslex.PrefixMatchToken:    "^=",
	csslex.SuffixMatchToken:    "$=",
	csslex.SubstringMatchToken: "*=",
}

// Pseudo-elements that may be written with a single colon.
var legacyPseudoElements = map[string]bool{
	"before":       true,
	"after":        true,
	"first-line":   true,
	"first-letter": true,
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d", e.Msg, e.Offset)
}

// Parse parses a selector list. The returned node is of Kind SelectorList and
// holds one Selector child per comma separated selector.
func Parse(selector string) (*Node, error) {
	tokens, err := lex(selector)
	if err != nil {
		return nil, err
	}
	p := &parser{input: selector, tokens: tokens}
	p.skipWhitespace()
	list, err := p.parseSelectorList(false, false, tokenEOF)
	if err != nil {
		return nil, err
	}
	if t := p.next(); t.category != tokenEOF {
		return nil, p.unexpected(t)
	}
	return list, nil
}

func MustParse(selector string) *Node {
	n, err := Parse(selector)
	if err != nil {
		panic(err)
	}
	return n
}

func (p *parser) next() token {
	if p.index >= len(p.tokens) {
		p.index++
		return p.tokens[len(p.tokens)-1]
	}
	t := p.tokens[p.index]
	p.index++
	return t
}

func (p *parser) peek() token {
	t := p.next()
	p.index--
	return t
}

func (p *parser) backup() {
	if p.index == 0 {
		panic("cannot backup at start")
	}
	p.index--
}

func (p *parser) skipWhitespace() bool {
	skipped := false
	for p.peek().category == csslex.WhitespaceToken {
		p.next()
		skipped = true
	}
	return skipped
}

func (p *parser) unexpected(t token) error {
	if t.category == tokenEOF {
		return &Error{t.index, "unexpected end of selector"}
	}
	return &Error{t.index, fmt.Sprintf("unexpected %q", t.string)}
}

// parseSelectorList parses comma separated (relative) selectors up to but not
// including the end token. In forgiving mode selectors that fail to parse are
// dropped instead of failing the whole list.
func (p *parser) parseSelectorList(relative, forgiving bool, end csslex.TokenType) (*Node, error) {
	list := &Node{Kind: SelectorList, Offset: p.peek().index}
	for {
		p.skipWhitespace()
		s, err := p.parseComplex(relative)
		if err == nil {
			p.skipWhitespace()
			if t := p.peek(); t.category != csslex.CommaToken && t.category != end {
				err = p.unexpected(t)
			}
		}
		if err != nil && !forgiving {
			return nil, err
		} else if err != nil {
			p.skipToComma()
		} else {
			list.Children = append(list.Children, s)
		}
		if p.peek().category != csslex.CommaToken {
			return list, nil
		}
		p.next()
	}
}

// skipToComma advances to the next top level comma, closing parenthesis or
// end of input.
func (p *parser) skipToComma() {
	for depth := 0; ; {
		switch t := p.next(); t.category {
		case tokenEOF:
			p.backup()
			return
		case csslex.FunctionToken, csslex.LeftParenthesisToken, csslex.LeftBracketToken:
			depth++
		case csslex.RightBracketToken:
			depth--
		case csslex.RightParenthesisToken, csslex.CommaToken:
			if depth == 0 {
				p.backup()
				return
			} else if t.category == csslex.RightParenthesisToken {
				depth--
			}
		}
	}
}

func (p *parser) parseComplex(relative bool) (*Node, error) {
	s := &Node{Kind: Selector, Offset: p.peek().index}
	if t := p.peek(); relative && (t.isCombinator() || t.category == csslex.ColumnToken) {
		p.next()
		p.skipWhitespace()
		s.Children = append(s.Children, &Node{Kind: Combinator, Name: t.string, Offset: t.index})
	}
	for {
		compound, err := p.parseCompound()
		if err != nil {
			return nil, err
		}
		s.Children = append(s.Children, compound...)
		c := p.parseCombinator()
		if c == nil {
			return s, nil
		} else if t := p.peek(); c.Name == " " && isListEnd(t) {
			return s, nil
		}
		s.Children = append(s.Children, c)
	}
}

func isListEnd(t token) bool {
	return t.category == tokenEOF || t.category == csslex.CommaToken || t.category == csslex.RightParenthesisToken
}

func (p *parser) parseCombinator() *Node {
	start := p.peek()
	space := p.skipWhitespace()
	if t := p.peek(); t.isCombinator() || t.category == csslex.ColumnToken {
		p.next()
		p.skipWhitespace()
		return &Node{Kind: Combinator, Name: t.string, Offset: t.index}
	} else if space {
		return &Node{Kind: Combinator, Name: " ", Offset: start.index}
	}
	return nil
}

func (p *parser) parseCompound() ([]*Node, error) {
	nodes := []*Node{}
	if n, err := p.parseTypeSelector(); err != nil {
		return nil, err
	} else if n != nil {
		nodes = append(nodes, n)
	}
	for {
		t := p.peek()
		switch {
		case t.category == csslex.HashToken:
			p.next()
			if !isIdentifier(t.string[1:]) {
				return nil, &Error{t.index, fmt.Sprintf("invalid id selector %q", t.string)}
			}
			nodes = append(nodes, &Node{Kind: IdSelector, Name: t.string[1:], Offset: t.index})
		case t.isDelim("."):
			p.next()
			if name := p.next(); name.category != csslex.IdentToken {
				return nil, &Error{name.index, "expected class name after ."}
			} else {
				nodes = append(nodes, &Node{Kind: ClassSelector, Name: name.string, Offset: t.index})
			}
		case t.category == csslex.LeftBracketToken:
			n, err := p.parseAttributeSelector()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		case t.category == csslex.ColonToken:
			n, err := p.parsePseudoSelector()
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		default:
			if len(nodes) == 0 {
				return nil, &Error{t.index, "expected selector"}
			}
			return nodes, nil
		}
	}
}

func (p *parser) parseTypeSelector() (*Node, error) {
	start, ns := p.peek(), (*string)(nil)
	switch {
	case start.isDelim("|"):
		p.next()
		ns = namespace("")
	case start.category == csslex.IdentToken || start.isDelim("*"):
		p.next()
		if !p.peek().isDelim("|") {
			return &Node{Kind: TypeSelector, Name: start.string, Offset: start.index}, nil
		}
		p.next()
		ns = namespace(start.string)
	default:
		return nil, nil
	}
	if t := p.next(); t.category == csslex.IdentToken || t.isDelim("*") {
		return &Node{Kind: TypeSelector, Name: t.string, Namespace: ns, Offset: start.index}, nil
	} else {
		return nil, &Error{t.index, "expected type selector after |"}
	}
}

func (p *parser) parseAttributeSelector() (*Node, error) {
	start := p.next()
	p.skipWhitespace()
	n, t := &Node{Kind: AttributeSelector, Offset: start.index}, p.next()
	if t.isDelim("|") {
		n.Namespace, t = namespace(""), p.next()
	} else if (t.category == csslex.IdentToken || t.isDelim("*")) && p.peek().isDelim("|") {
		p.next()
		n.Namespace, t = namespace(t.string), p.next()
	}
	if t.category != csslex.IdentToken {
		return nil, &Error{t.index, "expected attribute name"}
	}
	n.Name = t.string
	p.skipWhitespace()
	if t = p.next(); t.category == csslex.RightBracketToken {
		return n, nil
	} else if t.isDelim("=") {
		n.Matcher = "="
	} else if n.Matcher = attributeMatchers[t.category]; n.Matcher == "" {
		return nil, &Error{t.index, "expected ] or attribute matcher"}
	}
	p.skipWhitespace()
	switch v := p.next(); v.category {
	case csslex.IdentToken:
		n.Value = Unescape(v.string)
	case csslex.StringToken:
		n.Value = unquote(v.string)
	default:
		return nil, &Error{v.index, "expected attribute value"}
	}
	p.skipWhitespace()
	if t = p.peek(); t.category == csslex.IdentToken {
		p.next()
		if n.Flags = strings.ToLower(t.string); n.Flags != "i" && n.Flags != "s" {
			return nil, &Error{t.index, fmt.Sprintf("invalid attribute flag %q", t.string)}
		}
		p.skipWhitespace()
	}
	if t = p.next(); t.category != csslex.RightBracketToken {
		return nil, &Error{t.index, "expected ]"}
	}
	return n, nil
}

func (p *parser) parsePseudoSelector() (*Node, error) {
	start, kind := p.next(), PseudoClassSelector
	if p.peek().category == csslex.ColonToken {
		p.next()
		kind = PseudoElementSelector
	}
	switch t := p.next(); t.category {
	case csslex.IdentToken:
		n := &Node{Kind: kind, Name: t.string, Offset: start.index}
		if legacyPseudoElements[strings.ToLower(n.Unescaped())] {
			n.Kind = PseudoElementSelector
		}
		return n, nil
	case csslex.FunctionToken:
		n := &Node{Kind: kind, Name: strings.TrimSuffix(t.string, "("), Function: true, Offset: start.index}
		if err := p.parseArguments(n); err != nil {
			return nil, err
		}
		return n, nil
	default:
		return nil, &Error{t.index, "expected pseudo-class name"}
	}
}

func (p *parser) parseArguments(n *Node) error {
	p.skipWhitespace()
	var arg *Node
	var err error
	switch name := strings.ToLower(n.Unescaped()); {
	case n.Kind == PseudoElementSelector:
		n.Value, err = p.parseRaw()
	case name == "is" || name == "where":
		arg, err = p.parseSelectorList(false, true, csslex.RightParenthesisToken)
	case name == "not" || name == "host" || name == "host-context":
		arg, err = p.parseSelectorList(false, false, csslex.RightParenthesisToken)
	case name == "has":
		arg, err = p.parseSelectorList(true, false, csslex.RightParenthesisToken)
	case name == "nth-child" || name == "nth-last-child":
		arg, err = p.parseNth(true)
	case name == "nth-of-type" || name == "nth-last-of-type" || name == "nth-col" || name == "nth-last-col":
		arg, err = p.parseNth(false)
	default:
		n.Value, err = p.parseRaw()
	}
	if err != nil {
		return err
	} else if arg != nil {
		n.Children = append(n.Children, arg)
	}
	p.skipWhitespace()
	if t := p.next(); t.category != csslex.RightParenthesisToken {
		return &Error{t.index, fmt.Sprintf("expected ) to close :%s(", n.Name)}
	}
	return nil
}

// parseRaw returns the text up to the closing parenthesis of the current
// function.
func (p *parser) parseRaw() (string, error) {
	start := p.peek().index
	for depth := 0; ; {
		switch t := p.next(); t.category {
		case tokenEOF:
			return "", &Error{t.index, "unterminated argument list"}
		case csslex.FunctionToken, csslex.LeftParenthesisToken:
			depth++
		case csslex.RightParenthesisToken:
			if depth == 0 {
				p.backup()
				return strings.TrimSpace(p.input[start:t.index]), nil
			}
			depth--
		}
	}
}

func (p *parser) parseNth(of bool) (*Node, error) {
	start, text := p.peek(), strings.Builder{}
	for t := p.peek(); !isListEnd(t) && !(t.category == csslex.IdentToken && strings.EqualFold(t.string, "of")); t = p.peek() {
		text.WriteString(p.next().string)
	}
	a, b, err := ParseNth(text.String())
	if err != nil {
		return nil, &Error{start.index, err.Error()}
	}
	nth := &Node{Kind: Nth, Offset: start.index, Children: []*Node{
		{Kind: AnPlusB, Name: strings.TrimSpace(text.String()), A: a, B: b, Offset: start.index},
	}}
	if t := p.peek(); t.category == csslex.IdentToken {
		if !of {
			return nil, p.unexpected(t)
		}
		p.next()
		p.skipWhitespace()
		list, err := p.parseSelectorList(false, false, csslex.RightParenthesisToken)
		if err != nil {
			return nil, err
		}
		nth.Children = append(nth.Children, list)
	}
	return nth, nil
}

func unquote(s string) string {
	if len(s) >= 2 && s[len(s)-1] == s[0] {
		s = s[:len(s)-1]
	}
	return Unescape(s[1:])
}
