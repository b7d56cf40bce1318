package css

import (
	"testing"
)

type escapeTest struct{ unescaped, escapedID, escapedString string }

var escapeTests = []escapeTest{
	{"0123abc", "\\30 123abc", "0123abc"},
	{"-0123abc", "-\\30 123abc", "-0123abc"},
	{"-", "\\-", "-"},
	{"#foo.bar", "\\#foo\\.bar", "#foo.bar"},
	{"�", "�", "�"},
	{"\\ \"", "\\\\\\ \\\"", "\\\\ \\\""},
}

var unescapeTests = []struct{ escaped, unescaped string }{
	{"plain", "plain"},
	{"\\31 23", "123"},
	{"\\000031x", "1x"},
	{"\\0", "�"},
	{"\\D800", "�"},
	{"\\110000", "�"},
	{"a\\", "a�"},
	{"a\\\nb", "ab"},
	{"\\e9t\\E9", "été"},
	{"\\:hover", ":hover"},
}

func TestEscape(t *testing.T) {
	for _, escapeTest := range escapeTests {
		if escapedID := EscapeIdentifier(escapeTest.unescaped); escapeTest.escapedID != escapedID {
			t.Errorf("escapeID\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", escapedID, escapeTest.escapedID)
		}
		if escapedString := EscapeString(escapeTest.unescaped); escapeTest.escapedString != escapedString {
			t.Errorf("escapeString\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", escapedString, escapeTest.escapedString)
		}
		if unescapedID := Unescape(escapeTest.escapedID); escapeTest.unescaped != unescapedID {
			t.Errorf("unescapeID\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", unescapedID, escapeTest.unescaped)
		}
		if unescapedString := Unescape(escapeTest.escapedString); escapeTest.unescaped != unescapedString {
			t.Errorf("unescapeString\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", unescapedString, escapeTest.unescaped)
		}
	}
}

func TestEscapeNull(t *testing.T) {
	if s := EscapeIdentifier("abc\000def"); s != "abc�def" {
		t.Errorf("escapeID\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", s, "abc�def")
	}
	if s := EscapeString("\000"); s != "�" {
		t.Errorf("escapeString\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", s, "�")
	}
}

func TestUnescape(t *testing.T) {
	for _, ut := range unescapeTests {
		if s := Unescape(ut.escaped); s != ut.unescaped {
			t.Errorf("%q\ngot:\n\t'%#v'\n\nexpected:\n\t'%#v'", ut.escaped, s, ut.unescaped)
		}
	}
}
