package finder

import (
	"errors"
	"strings"

	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

// context is the state of a single query.
type context struct {
	config
	engine *Engine
	doc    *dom.Document
	scope  *html.Node
	root   *html.Node
	shadow bool

	failed         map[failKey]bool
	positions      map[positionKey]positions
	targetNode     *html.Node
	targetResolved bool
}

func (e *Engine) newContext(scope *html.Node, cfg config) *context {
	root := dom.TreeRoot(scope)
	return &context{
		config:    cfg,
		engine:    e,
		doc:       e.doc,
		scope:     scope,
		root:      root,
		shadow:    e.doc.IsShadowRoot(root),
		failed:    map[failKey]bool{},
		positions: map[positionKey]positions{},
	}
}

// fork returns a context for an independent search within the same query.
func (c *context) fork() *context {
	sub := *c
	sub.failed = map[failKey]bool{}
	sub.positions = map[positionKey]positions{}
	return &sub
}

// Matches reports whether element n matches selector.
func (e *Engine) Matches(selector string, n *html.Node, opts ...QueryOption) (bool, error) {
	cfg := newConfig(opts)
	if !dom.IsElement(n) {
		return false, typeError("matches", n)
	} else if m := e.fast(selector); m != nil {
		return m.Match(n), nil
	}
	c, r, err := e.prepare(selector, n, cfg)
	if err != nil {
		return false, cfg.handle(err)
	}
	return c.matches(r, n), nil
}

// Closest returns the closest inclusive ancestor of element n that matches
// selector, or nil.
func (e *Engine) Closest(selector string, n *html.Node, opts ...QueryOption) (*html.Node, error) {
	cfg := newConfig(opts)
	if !dom.IsElement(n) {
		return nil, typeError("closest", n)
	} else if m := e.fast(selector); m != nil {
		for ; dom.IsElement(n); n = n.Parent {
			if m.Match(n) {
				return n, nil
			}
		}
		return nil, nil
	}
	c, r, err := e.prepare(selector, n, cfg)
	if err != nil {
		return nil, cfg.handle(err)
	}
	for ; dom.IsElement(n); n = n.Parent {
		if c.matches(r, n) {
			return n, nil
		}
	}
	return nil, nil
}

// QuerySelector returns the first element below scope (an element, document
// or shadow root) in document order that matches selector, or nil.
func (e *Engine) QuerySelector(selector string, scope *html.Node, opts ...QueryOption) (*html.Node, error) {
	cfg := newConfig(opts)
	if !isScope(scope) {
		return nil, typeError("querySelector", scope)
	} else if m := e.fast(selector); m != nil {
		return cascadia.Query(scope, m), nil
	}
	c, r, err := e.prepare(selector, scope, cfg)
	if err != nil {
		return nil, cfg.handle(err)
	}
	return c.first(r), nil
}

// QuerySelectorAll returns the elements below scope that match selector in
// document order. scope itself is never part of the result.
func (e *Engine) QuerySelectorAll(selector string, scope *html.Node, opts ...QueryOption) ([]*html.Node, error) {
	cfg := newConfig(opts)
	if !isScope(scope) {
		return nil, typeError("querySelectorAll", scope)
	} else if m := e.fast(selector); m != nil {
		return cascadia.QueryAll(scope, m), nil
	}
	c, r, err := e.prepare(selector, scope, cfg)
	if err != nil {
		return nil, cfg.handle(err)
	}
	return c.all(r), nil
}

func (e *Engine) prepare(selector string, scope *html.Node, cfg config) (*context, *record, error) {
	c := e.newContext(scope, cfg)
	r, err := e.resolve(selector, c.root)
	if err != nil {
		return nil, nil, err
	}
	if len(r.unsupported) != 0 {
		if !cfg.warn {
			return nil, nil, &Error{
				Kind:     NotSupportedError,
				Selector: selector,
				Msg:      "unsupported " + strings.Join(r.unsupported, ", "),
			}
		}
		e.log.Warn("unsupported selectors never match", zap.String("selector", selector), zap.Strings("unsupported", r.unsupported))
	}
	if len(r.pseudoElements) != 0 && cfg.warn {
		e.log.Warn("pseudo-elements never match", zap.String("selector", selector), zap.Strings("pseudoElements", r.pseudoElements))
	}
	return c, r, nil
}

func (c *context) matches(r *record, n *html.Node) bool {
	return c.matchBranches(r.branches, n)
}

// handle drops selector errors if noexcept is set.
func (cfg config) handle(err error) error {
	if cfg.noexcept && !errors.Is(err, ErrType) {
		return nil
	}
	return err
}

func isScope(n *html.Node) bool {
	return n != nil && (n.Type == html.ElementNode || n.Type == html.DocumentNode)
}

func typeError(operation string, n *html.Node) *Error {
	kind := "nil"
	if n != nil {
		kind = nodeTypes[n.Type]
	}
	return &Error{Kind: TypeError, Msg: operation + ": unexpected " + kind + " node"}
}

var nodeTypes = map[html.NodeType]string{
	html.ErrorNode:    "error",
	html.TextNode:     "text",
	html.DocumentNode: "document",
	html.ElementNode:  "element",
	html.CommentNode:  "comment",
	html.DoctypeNode:  "doctype",
	html.RawNode:      "raw",
}
