package finder

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/niklasfasching/qsa/dom"
)

type pseudoClass int

const (
	pcUnknown pseudoClass = iota

	pcIs
	pcWhere
	pcNot
	pcHas
	pcHost
	pcHostContext
	pcScope

	pcRoot
	pcEmpty
	pcFirstChild
	pcLastChild
	pcOnlyChild
	pcFirstOfType
	pcLastOfType
	pcOnlyOfType
	pcNthChild
	pcNthLastChild
	pcNthOfType
	pcNthLastOfType

	pcAnyLink
	pcLink
	pcVisited
	pcLocalLink
	pcTarget
	pcTargetWithin

	pcHover
	pcActive
	pcFocus
	pcFocusVisible
	pcFocusWithin

	pcChecked
	pcIndeterminate
	pcDefault
	pcDisabled
	pcEnabled
	pcRequired
	pcOptional
	pcReadOnly
	pcReadWrite
	pcPlaceholderShown
	pcValid
	pcInvalid
	pcInRange
	pcOutOfRange

	pcDefined
	pcLang
	pcDir
	pcOpen
	pcClosed
	pcPopoverOpen
	pcModal
	pcContains

	pcCount
)

// pseudoDef describes how a pseudo-class may be written and what its result
// depends on. local pseudo-classes only read the element's own attributes
// and are safe to memoize. structural ones depend on the element's siblings.
type pseudoDef struct {
	name       string
	plain      bool
	function   bool
	local      bool
	structural bool
}

var pseudoClassDefs = [pcCount]pseudoDef{
	pcIs:          {name: "is", function: true},
	pcWhere:       {name: "where", function: true},
	pcNot:         {name: "not", function: true},
	pcHas:         {name: "has", function: true},
	pcHost:        {name: "host", plain: true, function: true},
	pcHostContext: {name: "host-context", function: true},
	pcScope:       {name: "scope", plain: true},

	pcRoot:          {name: "root", plain: true},
	pcEmpty:         {name: "empty", plain: true},
	pcFirstChild:    {name: "first-child", plain: true, structural: true},
	pcLastChild:     {name: "last-child", plain: true, structural: true},
	pcOnlyChild:     {name: "only-child", plain: true, structural: true},
	pcFirstOfType:   {name: "first-of-type", plain: true, structural: true},
	pcLastOfType:    {name: "last-of-type", plain: true, structural: true},
	pcOnlyOfType:    {name: "only-of-type", plain: true, structural: true},
	pcNthChild:      {name: "nth-child", function: true, structural: true},
	pcNthLastChild:  {name: "nth-last-child", function: true, structural: true},
	pcNthOfType:     {name: "nth-of-type", function: true, structural: true},
	pcNthLastOfType: {name: "nth-last-of-type", function: true, structural: true},

	pcAnyLink:      {name: "any-link", plain: true, local: true},
	pcLink:         {name: "link", plain: true, local: true},
	pcVisited:      {name: "visited", plain: true, local: true},
	pcLocalLink:    {name: "local-link", plain: true},
	pcTarget:       {name: "target", plain: true},
	pcTargetWithin: {name: "target-within", plain: true},

	pcHover:        {name: "hover", plain: true},
	pcActive:       {name: "active", plain: true},
	pcFocus:        {name: "focus", plain: true},
	pcFocusVisible: {name: "focus-visible", plain: true},
	pcFocusWithin:  {name: "focus-within", plain: true},

	pcChecked:          {name: "checked", plain: true},
	pcIndeterminate:    {name: "indeterminate", plain: true},
	pcDefault:          {name: "default", plain: true},
	pcDisabled:         {name: "disabled", plain: true},
	pcEnabled:          {name: "enabled", plain: true},
	pcRequired:         {name: "required", plain: true, local: true},
	pcOptional:         {name: "optional", plain: true, local: true},
	pcReadOnly:         {name: "read-only", plain: true},
	pcReadWrite:        {name: "read-write", plain: true},
	pcPlaceholderShown: {name: "placeholder-shown", plain: true, local: true},
	pcValid:            {name: "valid", plain: true},
	pcInvalid:          {name: "invalid", plain: true},
	pcInRange:          {name: "in-range", plain: true, local: true},
	pcOutOfRange:       {name: "out-of-range", plain: true, local: true},

	pcDefined:     {name: "defined", plain: true},
	pcLang:        {name: "lang", function: true},
	pcDir:         {name: "dir", function: true},
	pcOpen:        {name: "open", plain: true, local: true},
	pcClosed:      {name: "closed", plain: true, local: true},
	pcPopoverOpen: {name: "popover-open", plain: true},
	pcModal:       {name: "modal", plain: true},
	pcContains:    {name: "contains", function: true},
}

var pseudoClassNames = func() map[string]pseudoClass {
	m := map[string]pseudoClass{}
	for kind, def := range pseudoClassDefs {
		if def.name != "" {
			m[def.name] = pseudoClass(kind)
		}
	}
	return m
}()

// Recognized pseudo-classes that depend on state a static tree cannot express.
var unsupportedPseudoClasses = map[string]bool{
	"active-view-transition": true, "active-view-transition-type": true, "autofill": true, "blank": true,
	"buffering": true, "current": true, "fullscreen": true, "future": true, "has-slotted": true,
	"-webkit-autofill": true, "muted": true, "nth-col": true, "nth-last-col": true, "past": true,
	"paused": true, "picture-in-picture": true, "playing": true, "seeking": true, "stalled": true,
	"state": true, "target-current": true, "user-invalid": true, "user-valid": true,
	"volume-locked": true, "xr-overlay": true,
}

var pseudoClassMatchers [pcCount]func(*context, *leaf, *html.Node) bool

func init() {
	pseudoClassMatchers = [pcCount]func(*context, *leaf, *html.Node) bool{
		pcUnknown: never,

		pcIs:          (*context).matchAny,
		pcWhere:       (*context).matchAny,
		pcNot:         (*context).matchNot,
		pcHas:         (*context).matchHas,
		pcHost:        (*context).matchHost,
		pcHostContext: (*context).matchHostContext,
		pcScope:       (*context).matchScope,

		pcRoot:  func(c *context, _ *leaf, n *html.Node) bool { return n.Parent != nil && n.Parent == c.doc.Root },
		pcEmpty: node(dom.IsEmpty),
		pcFirstChild: node(func(n *html.Node) bool {
			return dom.PrevElementSibling(n) == nil
		}),
		pcLastChild: node(func(n *html.Node) bool {
			return dom.NextElementSibling(n) == nil
		}),
		pcOnlyChild: node(func(n *html.Node) bool {
			return dom.PrevElementSibling(n) == nil && dom.NextElementSibling(n) == nil
		}),
		pcFirstOfType: node(func(n *html.Node) bool {
			return siblingOfType(n, dom.PrevElementSibling) == nil
		}),
		pcLastOfType: node(func(n *html.Node) bool {
			return siblingOfType(n, dom.NextElementSibling) == nil
		}),
		pcOnlyOfType: node(func(n *html.Node) bool {
			return siblingOfType(n, dom.PrevElementSibling) == nil && siblingOfType(n, dom.NextElementSibling) == nil
		}),
		pcNthChild:      (*context).matchNth,
		pcNthLastChild:  (*context).matchNth,
		pcNthOfType:     (*context).matchNth,
		pcNthLastOfType: (*context).matchNth,

		pcAnyLink: node(dom.IsLink),
		pcLink:    node(dom.IsLink),
		pcVisited: never,
		pcLocalLink: func(c *context, _ *leaf, n *html.Node) bool {
			return dom.IsLocalLink(n, c.doc.URL)
		},
		pcTarget: func(c *context, _ *leaf, n *html.Node) bool { return n == c.target() },
		pcTargetWithin: func(c *context, _ *leaf, n *html.Node) bool {
			t := c.target()
			return t != nil && dom.Contains(n, t)
		},

		pcHover: func(c *context, _ *leaf, n *html.Node) bool {
			return c.isMouse("mouseover", "mouseenter", "mousemove", "pointerover", "pointerenter", "pointermove") &&
				dom.Contains(n, c.event.Target)
		},
		pcActive: func(c *context, _ *leaf, n *html.Node) bool {
			return c.isMouse("mousedown", "pointerdown") && dom.Contains(n, c.event.Target)
		},
		pcFocus: func(c *context, _ *leaf, n *html.Node) bool { return n == c.doc.Focus },
		pcFocusVisible: func(c *context, _ *leaf, n *html.Node) bool {
			return n == c.doc.Focus && (dom.IsTextEditable(n) || c.isKeyboard())
		},
		pcFocusWithin: func(c *context, _ *leaf, n *html.Node) bool {
			return c.doc.Focus != nil && dom.Contains(n, c.doc.Focus)
		},

		pcChecked:       node(dom.IsChecked),
		pcIndeterminate: node(dom.IsIndeterminate),
		pcDefault:       node(dom.IsDefault),
		pcDisabled:      node(dom.IsDisabled),
		pcEnabled:       node(dom.IsEnabled),
		pcRequired:      node(dom.IsRequired),
		pcOptional:      node(dom.IsOptional),
		pcReadOnly: node(func(n *html.Node) bool {
			return !dom.IsReadWrite(n)
		}),
		pcReadWrite:        node(dom.IsReadWrite),
		pcPlaceholderShown: node(dom.IsPlaceholderShown),
		pcValid: node(func(n *html.Node) bool {
			candidate, valid := dom.Validity(n)
			return candidate && valid
		}),
		pcInvalid: node(func(n *html.Node) bool {
			candidate, valid := dom.Validity(n)
			return candidate && !valid
		}),
		pcInRange: node(func(n *html.Node) bool {
			applies, in := dom.Range(n)
			return applies && in
		}),
		pcOutOfRange: node(func(n *html.Node) bool {
			applies, in := dom.Range(n)
			return applies && !in
		}),

		pcDefined: func(c *context, _ *leaf, n *html.Node) bool { return c.doc.IsDefined(n) },
		pcLang: func(_ *context, l *leaf, n *html.Node) bool {
			lang, ok := dom.Lang(n)
			if !ok {
				return false
			}
			for _, v := range l.values {
				if dom.MatchLanguage(lang, v) {
					return true
				}
			}
			return false
		},
		pcDir: func(_ *context, l *leaf, n *html.Node) bool { return dom.Dir(n) == l.values[0] },
		pcOpen: node(func(n *html.Node) bool {
			open, ok := dom.IsOpen(n)
			return ok && open
		}),
		pcClosed: node(func(n *html.Node) bool {
			open, ok := dom.IsOpen(n)
			return ok && !open
		}),
		pcPopoverOpen: node(dom.IsPopoverOpen),
		pcModal:       func(c *context, _ *leaf, n *html.Node) bool { return n == c.doc.Modal },
		pcContains: func(_ *context, l *leaf, n *html.Node) bool {
			return strings.Contains(dom.Text(n), l.values[0])
		},
	}
}

func never(*context, *leaf, *html.Node) bool { return false }

func node(f func(*html.Node) bool) func(*context, *leaf, *html.Node) bool {
	return func(_ *context, _ *leaf, n *html.Node) bool { return f(n) }
}

func siblingOfType(n *html.Node, next func(*html.Node) *html.Node) *html.Node {
	for s := next(n); s != nil; s = next(s) {
		if s.Data == n.Data && s.Namespace == n.Namespace {
			return s
		}
	}
	return nil
}
