// Package sheet extracts the selectors of stylesheets and reports how many
// elements of a document each of them matches.
package sheet

import (
	"bytes"
	"errors"
	"io"
	"strings"

	parse "github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/css"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/finder"
)

// Rule is a single selector of a style rule. Grouped selectors (a, b) are
// split into one Rule each.
type Rule struct {
	Selector string
	Media    string
}

type Usage struct {
	Rule
	Count int
	Err   error
}

type Parser struct {
	log *zap.Logger
}

// at-rules whose blocks contain something other than style rules.
var skippedAtRules = map[string]bool{
	"@keyframes":           true,
	"@-webkit-keyframes":   true,
	"@font-face":           true,
	"@page":                true,
	"@counter-style":       true,
	"@font-feature-values": true,
	"@property":            true,
}

func NewParser(log *zap.Logger) *Parser {
	if log == nil {
		log = zap.NewNop()
	}
	return &Parser{log: log.Named("sheet")}
}

// Parse returns the selectors of all style rules of the stylesheet in data,
// including the ones nested in conditional at-rules.
func (p *Parser) Parse(data []byte) ([]Rule, error) {
	parser := css.NewParser(parse.NewInput(bytes.NewReader(data)), false)
	rules, atRules, pending := []Rule{}, []string{}, []css.Token(nil)
	for {
		gt, _, data := parser.Next()
		switch gt {
		case css.ErrorGrammar:
			if err := parser.Err(); err != nil && !errors.Is(err, io.EOF) {
				return rules, err
			}
			p.log.Debug("parsed stylesheet", zap.Int("rules", len(rules)))
			return rules, nil
		case css.BeginAtRuleGrammar:
			atRules = append(atRules, strings.ToLower(string(data))+" "+tokensText(parser.Values()))
		case css.EndAtRuleGrammar:
			if len(atRules) > 0 {
				atRules = atRules[:len(atRules)-1]
			}
		case css.QualifiedRuleGrammar:
			// the selector list is split at commas, possibly inside :is() and
			// friends; collect all parts and split again below.
			pending = append(copyTokens(pending, parser.Values()), css.Token{TokenType: css.CommaToken, Data: []byte(",")})
		case css.BeginRulesetGrammar:
			tokens := copyTokens(pending, parser.Values())
			pending = nil
			if skipped(atRules) {
				continue
			}
			media := ""
			for _, a := range atRules {
				if strings.HasPrefix(a, "@media ") {
					media = strings.TrimSpace(strings.TrimPrefix(a, "@media "))
				}
			}
			for _, s := range splitSelectors(tokens) {
				rules = append(rules, Rule{Selector: s, Media: media})
			}
		case css.AtRuleGrammar:
			p.log.Debug("skipping at-rule", zap.String("rule", string(data)))
		}
	}
}

// Coverage counts the elements below scope matched by each rule. Selectors
// the engine rejects carry the error and a count of 0.
func Coverage(e *finder.Engine, scope *html.Node, rules []Rule, opts ...finder.QueryOption) []Usage {
	usages := make([]Usage, len(rules))
	for i, r := range rules {
		ns, err := e.QuerySelectorAll(r.Selector, scope, opts...)
		usages[i] = Usage{r, len(ns), err}
	}
	return usages
}

// Unused returns the rules that match nothing and are valid selectors.
func Unused(usages []Usage) []Rule {
	rules := []Rule{}
	for _, u := range usages {
		if u.Count == 0 && u.Err == nil {
			rules = append(rules, u.Rule)
		}
	}
	return rules
}

func skipped(atRules []string) bool {
	for _, a := range atRules {
		if name, _, _ := strings.Cut(a, " "); skippedAtRules[name] {
			return true
		}
	}
	return false
}

func splitSelectors(tokens []css.Token) []string {
	selectors, current, depth := []string{}, strings.Builder{}, 0
	add := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			selectors = append(selectors, s)
		}
		current.Reset()
	}
	for _, t := range tokens {
		switch t.TokenType {
		case css.FunctionToken, css.LeftParenthesisToken, css.LeftBracketToken:
			depth++
		case css.RightParenthesisToken, css.RightBracketToken:
			depth--
		case css.CommaToken:
			if depth == 0 {
				add()
				continue
			}
		case css.CommentToken:
			continue
		}
		if t.TokenType == css.WhitespaceToken {
			current.WriteByte(' ')
		} else {
			current.Write(t.Data)
		}
	}
	add()
	return selectors
}

// copyTokens appends tokens to dst. The parser reuses the memory of its
// values between calls.
func copyTokens(dst, tokens []css.Token) []css.Token {
	for _, t := range tokens {
		dst = append(dst, css.Token{TokenType: t.TokenType, Data: append([]byte(nil), t.Data...)})
	}
	return dst
}

func tokensText(tokens []css.Token) string {
	w := strings.Builder{}
	for _, t := range tokens {
		if t.TokenType == css.WhitespaceToken {
			w.WriteByte(' ')
		} else {
			w.Write(t.Data)
		}
	}
	return strings.TrimSpace(w.String())
}
