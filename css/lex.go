package css

import (
	"errors"
	"io"
	"strings"

	"github.com/tdewolff/parse/v2"
	csslex "github.com/tdewolff/parse/v2/css"
)

type token struct {
	category csslex.TokenType
	string   string
	index    int
}

// tokenEOF terminates every token stream.
const tokenEOF = csslex.ErrorToken

func lex(input string) ([]token, error) {
	l, tokens, index := csslex.NewLexer(parse.NewInputString(input)), []token{}, 0
	for {
		category, data := l.Next()
		switch category {
		case csslex.ErrorToken:
			if err := l.Err(); err != nil && !errors.Is(err, io.EOF) {
				return nil, &Error{index, err.Error()}
			}
			return append(tokens, token{tokenEOF, "", index}), nil
		case csslex.BadStringToken:
			return nil, &Error{index, "unterminated string"}
		case csslex.BadURLToken, csslex.CDOToken, csslex.CDCToken, csslex.AtKeywordToken,
			csslex.SemicolonToken, csslex.LeftBraceToken, csslex.RightBraceToken:
			return nil, &Error{index, "unexpected " + string(data)}
		case csslex.CommentToken:
			index += len(data)
			continue
		}
		tokens = append(tokens, token{category, string(data), index})
		index += len(data)
	}
}

func isHexDigit(r rune) bool {
	return 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F' || '0' <= r && r <= '9'
}

func isWhitespace(r rune) bool { return strings.ContainsRune(" \t\f\r\n", r) }
func isDigit(r rune) bool      { return '0' <= r && r <= '9' }

// isIdentifier reports whether a raw (escaped) name is a valid identifier,
// i.e. does not start with a digit or a hyphen followed by a digit.
func isIdentifier(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return s != "" && !isDigit(rune(s[0]))
}

func (t token) isDelim(s string) bool {
	return t.category == csslex.DelimToken && t.string == s
}

func (t token) isCombinator() bool {
	return t.isDelim(">") || t.isDelim("+") || t.isDelim("~")
}
