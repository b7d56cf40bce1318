package finder

import (
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/css"
)

// resolve returns the normalized record for text. Records are cached per tree
// root unless their evaluation depends on more than the selector's shape.
func (e *Engine) resolve(text string, root *html.Node) (*record, error) {
	if r := e.cache[root][text]; r != nil {
		e.log.Debug("selector cache hit", zap.String("selector", text))
		return r, nil
	}
	list, err := css.Parse(text)
	if err != nil {
		return nil, &Error{Kind: SyntaxError, Selector: text, Msg: "invalid selector", Err: err}
	}
	r, err := e.normalize(text, list, root)
	if err != nil {
		return nil, err
	}
	e.log.Debug("normalized selector",
		zap.String("selector", text),
		zap.Int("branches", len(r.branches)),
		zap.Bool("cacheable", r.cacheable),
		zap.Bool("descendantOnly", r.descendantOnly))
	if r.cacheable {
		if e.cache[root] == nil {
			e.cache[root] = map[string]*record{}
		}
		e.cache[root][text] = r
	}
	return r, nil
}
