// https://drafts.csswg.org/cssom/#common-serializing-idioms
// https://drafts.csswg.org/css-syntax/#consume-escaped-code-point
package css

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

func EscapeIdentifier(unescaped string) string {
	escaped := strings.Builder{}
	for i := 0; i < len(unescaped); {
		r, w := utf8.DecodeRuneInString(unescaped[i:])
		switch {
		case r == '\u0000':
			escaped.WriteRune('�')
		case r >= '\u0001' && r <= '\u001F', r == '\u007F',
			i == 0 && r >= '0' && r <= '9',
			i == 1 && r >= '0' && r <= '9' && unescaped[0] == '-':
			escaped.WriteString(`\` + strconv.FormatInt(int64(r), 16) + " ")
		case i == 0 && len(unescaped) == 1 && r == '-':
			escaped.WriteString(`\-`)
		case r == '-' || r == '_' || r >= '\u0080' ||
			r >= '0' && r <= '9' ||
			r >= 'A' && r <= 'Z' ||
			r >= 'a' && r <= 'z':
			escaped.WriteRune(r)
		default:
			escaped.WriteString(`\` + string(r))
		}
		i += w
	}
	return escaped.String()
}

func EscapeString(unescaped string) string {
	escaped := strings.Builder{}
	for i := 0; i < len(unescaped); {
		r, w := utf8.DecodeRuneInString(unescaped[i:])
		switch {
		case r == '\u0000':
			escaped.WriteRune('�')
		case r >= '\u0001' && r <= '\u001F', r == '\u007F':
			escaped.WriteString(`\` + strconv.FormatInt(int64(r), 16) + " ")
		case r == '"' || r == '\\':
			escaped.WriteString(`\` + string(r))
		default:
			escaped.WriteRune(r)
		}
		i += w
	}
	return escaped.String()
}

// Unescape resolves backslash escapes. Hex escapes consume up to six digits
// and one trailing whitespace; zero, surrogate and out of range code points
// become U+FFFD. An escaped newline is dropped (string continuation).
func Unescape(escaped string) string {
	if !strings.Contains(escaped, `\`) {
		return escaped
	}
	unescaped := strings.Builder{}
	for i := 0; i < len(escaped); {
		r, w := utf8.DecodeRuneInString(escaped[i:])
		i += w
		switch {
		case r != '\\':
			unescaped.WriteRune(r)
		case i == len(escaped):
			unescaped.WriteRune('�')
		case escaped[i] == '\n':
			i++
		case !isHexDigit(rune(escaped[i])):
			r, w := utf8.DecodeRuneInString(escaped[i:])
			unescaped.WriteRune(r)
			i += w
		default:
			j := i
			for ; j < i+6 && j < len(escaped) && isHexDigit(rune(escaped[j])); j++ {
			}
			v, _ := strconv.ParseUint(escaped[i:j], 16, 32)
			if v == 0 || v > utf8.MaxRune || (v >= 0xD800 && v <= 0xDFFF) {
				v = 0xFFFD
			}
			unescaped.WriteRune(rune(v))
			if i = j; i < len(escaped) && isWhitespace(rune(escaped[i])) {
				i++
			}
		}
	}
	return unescaped.String()
}
