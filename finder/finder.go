// Package finder implements matches, closest, querySelector and
// querySelectorAll on top of golang.org/x/net/html.
//
// Selectors are parsed with package css and normalized into branches (one per
// comma separated selector) of twigs (a compound selector and the combinator
// in front of it). Normalized selectors are cached per tree root. Simple
// selectors are handed to cascadia.
//
// An Engine is bound to one document and must not be used concurrently.
package finder

import (
	"github.com/andybalholm/cascadia"
	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

type Engine struct {
	doc      *dom.Document
	log      *zap.Logger
	fastPath bool

	cache    map[*html.Node]map[string]*record
	walkers  map[*html.Node]*walker
	memo     map[memoKey]memoEntry
	leafSets map[string]*leafSet
	prefixes map[*html.Node]map[string]bool
	compiled map[string]cascadia.SelectorGroup
	rejected map[string]bool
}

type memoKey struct {
	leaves *leafSet
	node   *html.Node
}

type memoEntry struct {
	attributes int
	ok         bool
}

func New(doc *dom.Document, opts ...Option) *Engine {
	e := &Engine{
		doc:      doc,
		log:      zap.NewNop(),
		fastPath: true,
		cache:    map[*html.Node]map[string]*record{},
		walkers:  map[*html.Node]*walker{},
		memo:     map[memoKey]memoEntry{},
		leafSets: map[string]*leafSet{},
		prefixes: map[*html.Node]map[string]bool{},
		compiled: map[string]cascadia.SelectorGroup{},
		rejected: map[string]bool{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Document() *dom.Document { return e.doc }

// Drop releases the selector cache, tree walker and match memo of the tree
// rooted at root.
func (e *Engine) Drop(root *html.Node) {
	delete(e.cache, root)
	delete(e.walkers, root)
	delete(e.prefixes, root)
	maps.DeleteFunc(e.memo, func(k memoKey, _ memoEntry) bool {
		return dom.TreeRoot(k.node) == root
	})
	e.log.Debug("dropped root", zap.Int("memo", len(e.memo)))
}

// CachedSelectors lists the selector texts cached for root.
func (e *Engine) CachedSelectors(root *html.Node) []string {
	selectors := maps.Keys(e.cache[root])
	slices.Sort(selectors)
	return selectors
}
