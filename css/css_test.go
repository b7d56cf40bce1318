package css

import (
	"errors"
	"reflect"
	"testing"
)

var parseTests = []struct {
	selector string
	expected string
}{
	{"div", "div"},
	{"  div  ", "div"},
	{"div.a#b", "div.a#b"},
	{"a>b", "a > b"},
	{"a   b", "a b"},
	{"a ~ b+c", "a ~ b + c"},
	{"a || b", "a || b"},
	{"a , b", "a, b"},
	{"a /* comment */ b", "a b"},
	{"*", "*"},
	{"*|*", "*|*"},
	{"|a", "|a"},
	{"svg|rect", "svg|rect"},
	{"[href]", "[href]"},
	{"[ href = x ]", `[href="x"]`},
	{"[a~='b c' i]", `[a~="b c" i]`},
	{"[a^=b s]", `[a^="b" s]`},
	{"[ns|a|=b]", `[ns|a|="b"]`},
	{"[*|a]", "[*|a]"},
	{`[title="a\"b"]`, `[title="a\"b"]`},
	{":not(.a,.b)", ":not(.a, .b)"},
	{":is(.a, !, .b)", ":is(.a, .b)"},
	{":where(.a >, .b)", ":where(.b)"},
	{":is()", ":is()"},
	{":has(> img, + p, ~ p, img)", ":has(> img, + p, ~ p, img)"},
	{":nth-child(2n+1)", ":nth-child(2n+1)"},
	{":nth-child( odd )", ":nth-child(2n+1)"},
	{":nth-child(2n - 1)", ":nth-child(2n-1)"},
	{":nth-child(-n+3 of .a, .b)", ":nth-child(-1n+3 of .a, .b)"},
	{":nth-last-of-type(even)", ":nth-last-of-type(2n)"},
	{":nth-child(3)", ":nth-child(3)"},
	{":NTH-CHILD(N)", ":NTH-CHILD(1n)"},
	{":lang(en, de)", ":lang(en, de)"},
	{`:contains("a b")`, `:contains("a b")`},
	{"::before", "::before"},
	{"a:after", "a::after"},
	{"::part(label)", "::part(label)"},
	{"#\\31 23", "#\\31 23"},
	{".a:hover::before", ".a:hover::before"},
}

var parseErrorTests = []struct {
	selector string
	offset   int
}{
	{"", 0},
	{"a >", 3},
	{"a > > b", 4},
	{",a", 0},
	{"a,", 2},
	{"#1a", 0},
	{"[a=]", 3},
	{"[a=b x]", 5},
	{"[a", 2},
	{"[=a]", 1},
	{":not(", 5},
	{":not(a", 6},
	{":nth-child(foo)", 11},
	{":nth-of-type(2n of a)", 16},
	{". a", 1},
	{"a:", 2},
	{"a)", 1},
	{"a{", 1},
	{"a|", 2},
}

func TestParse(t *testing.T) {
	for _, pt := range parseTests {
		n, err := Parse(pt.selector)
		if err != nil {
			t.Errorf("%s\ngot:\n\t'%s'\n\nexpected:\n\t'%s'", pt.selector, err, pt.expected)
			continue
		}
		if actual := n.String(); actual != pt.expected {
			t.Errorf("%s\ngot:\n\t'%s'\n\nexpected:\n\t'%s'", pt.selector, actual, pt.expected)
			continue
		}
		reparsed, err := Parse(n.String())
		if err != nil {
			t.Errorf("%s: bad string conversion\ngot: %s", pt.selector, err)
		} else if reparsed.String() != n.String() {
			t.Errorf("%s: bad string conversion\ngot:\n\t'%s'\n\nexpected:\n\t'%s'", pt.selector, reparsed, n)
		}
	}
}

func TestParseError(t *testing.T) {
	for _, pt := range parseErrorTests {
		n, err := Parse(pt.selector)
		if err == nil {
			t.Errorf("%q\ngot:\n\t'%s'\n\nexpected:\n\terror at %d", pt.selector, n, pt.offset)
			continue
		}
		parseErr := &Error{}
		if !errors.As(err, &parseErr) {
			t.Errorf("%q: expected *Error, got %T", pt.selector, err)
		} else if parseErr.Offset != pt.offset {
			t.Errorf("%q\ngot:\n\t'%s'\n\nexpected:\n\terror at %d", pt.selector, err, pt.offset)
		}
	}
}

func TestParseStructure(t *testing.T) {
	n := MustParse("div.a > p, :has(img)")
	if n.Kind != SelectorList || len(n.Children) != 2 {
		t.Fatalf("expected selector list with two selectors, got %s with %d", n.Kind, len(n.Children))
	}
	kinds := []Kind{}
	for _, c := range n.Children[0].Children {
		kinds = append(kinds, c.Kind)
	}
	if expected := []Kind{TypeSelector, ClassSelector, Combinator, TypeSelector}; !reflect.DeepEqual(kinds, expected) {
		t.Errorf("got:\n\t'%v'\n\nexpected:\n\t'%v'", kinds, expected)
	}
	has := n.Children[1].Children[0]
	if has.Kind != PseudoClassSelector || !has.Function || has.Arguments() == nil {
		t.Fatalf("expected :has() with selector list argument, got %#v", has)
	}
	if first := has.Arguments().Children[0].Children[0]; first.Kind != TypeSelector || first.Name != "img" {
		t.Errorf("expected relative selector without leading combinator, got %#v", first)
	}

	nth := MustParse(":nth-last-child(2n+3 of .x)").Children[0].Children[0].Children[0]
	if nth.Kind != Nth || nth.Children[0].A != 2 || nth.Children[0].B != 3 || nth.Arguments() == nil {
		t.Errorf("bad nth node: %#v", nth)
	}
}

func TestUnescaped(t *testing.T) {
	n := MustParse(`.\31 a`).Children[0].Children[0]
	if n.Name != `\31 a` || n.Unescaped() != "1a" {
		t.Errorf("got:\n\t'%s' '%s'\n\nexpected:\n\t'%s' '%s'", n.Name, n.Unescaped(), `\31 a`, "1a")
	}
}

func TestParseNth(t *testing.T) {
	tests := []struct {
		in   string
		a, b int
	}{
		{"odd", 2, 1},
		{"EVEN", 2, 0},
		{"5", 0, 5},
		{"-5", 0, -5},
		{"n", 1, 0},
		{"-n+3", -1, 3},
		{"+n", 1, 0},
		{"0n+0", 0, 0},
		{"3n - 2", 3, -2},
	}
	for _, tt := range tests {
		a, b, err := ParseNth(tt.in)
		if err != nil || a != tt.a || b != tt.b {
			t.Errorf("%s\ngot:\n\t'%d %d %v'\n\nexpected:\n\t'%d %d'", tt.in, a, b, err, tt.a, tt.b)
		}
	}
	for _, in := range []string{"", "n+", "2 n", "x"} {
		if _, _, err := ParseNth(in); err == nil {
			t.Errorf("%q: expected error", in)
		}
	}
}
