package finder

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/niklasfasching/qsa/dom"
	"github.com/niklasfasching/qsa/util"
)

var fixture = `<!DOCTYPE html>
<html><head><title>fixture</title></head><body>
<div id="main" class="container" lang="en-US">
  <ul id="list">
    <li id="l1" class="item a">one</li>
    <li id="l2" class="item">two</li>
    <li id="l3" class="item a">three</li>
    <li id="l4" class="item">four</li>
    <li id="l5" class="item">five</li>
  </ul>
  <p id="p1" class="text" data-state="on">hello <a id="a1" href="#p1">link</a></p>
  <p id="p2" class="text" title="hello world"><span id="s1"></span></p>
  <form id="f1">
    <input id="i1" type="checkbox" checked>
    <input id="i2" required>
    <input id="i3" disabled>
  </form>
</div>
<div id="other"><div id="deep"><span id="s2" class="target"></span></div></div>
</body></html>`

var queryTests = []struct {
	selector string
	expected []string
}{
	{"li", []string{"l1", "l2", "l3", "l4", "l5"}},
	{".a", []string{"l1", "l3"}},
	{".a.item", []string{"l1", "l3"}},
	{"#list > li.a", []string{"l1", "l3"}},
	{"#main span", []string{"s1"}},
	{"div div span", []string{"s2"}},
	{"li + li + li", []string{"l3", "l4", "l5"}},
	{"#l2 ~ li", []string{"l3", "l4", "l5"}},
	{"#l5, #l1", []string{"l1", "l5"}},
	{"p, li.a", []string{"l1", "l3", "p1", "p2"}},
	{"li:first-child, li:last-child", []string{"l1", "l5"}},

	{"li:nth-child(2n+1)", []string{"l1", "l3", "l5"}},
	{"li:nth-child(odd)", []string{"l1", "l3", "l5"}},
	{"li:nth-last-child(1)", []string{"l5"}},
	{"li:nth-child(0n+0)", []string{}},
	{"li:nth-child(-n+2)", []string{"l1", "l2"}},
	{"li:nth-child(2 of .item)", []string{"l2"}},
	{"li:nth-child(even of :not(.a))", []string{"l4"}},
	{"#main li:nth-of-type(2)", []string{"l2"}},
	{"p:last-of-type", []string{"p2"}},
	{"span:only-child", []string{"s1", "s2"}},
	{"body > *:first-child", []string{"main"}},

	{"li:not(.a)", []string{"l2", "l4", "l5"}},
	{"li:not(:not(.a))", []string{"l1", "l3"}},
	{":is(.a, #l2)", []string{"l1", "l2", "l3"}},
	{"li:is(.a, :playing)", []string{"l1", "l3"}},
	{":where(li:unknown-thing, #l5)", []string{"l5"}},
	{"p:has(> a)", []string{"p1"}},
	{"div:has(.target)", []string{"other", "deep"}},
	{"ul:has(+ p)", []string{"list"}},
	{"li:has(span)", []string{}},

	{"[data-state=on]", []string{"p1"}},
	{"[data-state]", []string{"p1"}},
	{"[title~=world]", []string{"p2"}},
	{"[title|=hello]", []string{}},
	{"[title^=hel][title$=rld]", []string{"p2"}},
	{"[title*='o w']", []string{"p2"}},
	{"[TITLE='HELLO WORLD' i]", []string{"p2"}},
	{"[title='HELLO WORLD']", []string{}},
	{"[type=CHECKBOX]", []string{"i1"}},
	{"*|li.a", []string{"l1", "l3"}},
	{"|li", []string{}},

	{"input:checked", []string{"i1"}},
	{"input:required", []string{"i2"}},
	{":disabled", []string{"i3"}},
	{"input:enabled", []string{"i1", "i2"}},
	{"li:contains('thr')", []string{"l3"}},
	{"p:lang(en)", []string{"p1", "p2"}},
	{"p:lang(de)", []string{}},
	{"li::before", []string{}},
	{"li, li::before", []string{"l1", "l2", "l3", "l4", "l5"}},
}

func ids(ns []*html.Node) []string {
	out := []string{}
	for _, n := range ns {
		out = append(out, dom.AttrValue(n, "id"))
	}
	return out
}

func byID(d *dom.Document, id string) *html.Node {
	if ns := dom.ElementsByID(d.Root, id); len(ns) != 0 {
		return ns[0]
	}
	for _, s := range d.ShadowRoots() {
		if ns := dom.ElementsByID(s, id); len(ns) != 0 {
			return ns[0]
		}
	}
	panic("no element with id " + id)
}

func TestQuerySelectorAll(t *testing.T) {
	d := dom.MustParseString(fixture)
	for _, e := range []*Engine{New(d), New(d, WithoutFastPath())} {
		for _, tt := range queryTests {
			ns, err := e.QuerySelectorAll(tt.selector, d.Root)
			if err != nil {
				t.Errorf("%s: %s", tt.selector, err)
				continue
			}
			if got := ids(ns); strings.Join(got, " ") != strings.Join(tt.expected, " ") {
				t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, got, tt.expected)
			}
		}
	}
}

func TestQuerySelector(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d, WithoutFastPath())
	for _, tt := range queryTests {
		n, err := e.QuerySelector(tt.selector, d.Root)
		if err != nil {
			t.Errorf("%s: %s", tt.selector, err)
			continue
		}
		expected := ""
		if len(tt.expected) != 0 {
			expected = tt.expected[0]
		}
		if got := dom.AttrValue(n, "id"); n == nil && expected != "" || n != nil && got != expected {
			t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, got, expected)
		}
	}
}

func TestMatchesAgreesWithQuerySelectorAll(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d, WithoutFastPath())
	elements := dom.FindAll(d.Root, dom.IsElement)
	for _, tt := range queryTests {
		expected := map[string]bool{}
		for _, id := range tt.expected {
			expected[id] = true
		}
		for _, n := range elements {
			ok, err := e.Matches(tt.selector, n)
			if err != nil {
				t.Errorf("%s: %s", tt.selector, err)
				break
			}
			if id := dom.AttrValue(n, "id"); id != "" && ok != expected[id] {
				t.Errorf("%s: matches(#%s)\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, id, ok, expected[id])
			}
		}
	}
}

func TestScopedQueries(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d, WithoutFastPath())
	list, main := byID(d, "list"), byID(d, "main")
	for _, tt := range []struct {
		selector string
		scope    *html.Node
		expected []string
	}{
		{"li", list, []string{"l1", "l2", "l3", "l4", "l5"}},
		{":scope > li.a", list, []string{"l1", "l3"}},
		{"#main li:last-child", list, []string{"l5"}},
		{"ul", list, []string{}},
		{"div ul", list, []string{}},
		{"div li", list, []string{"l1", "l2", "l3", "l4", "l5"}},
		{"#list ~ p", main, []string{"p1", "p2"}},
		{":scope > ul > li:nth-child(3)", main, []string{"l3"}},
		{":scope > div", d.Root, []string{}},
		{":scope", d.Root, []string{""}},
	} {
		ns, err := e.QuerySelectorAll(tt.selector, tt.scope)
		if err != nil {
			t.Errorf("%s: %s", tt.selector, err)
			continue
		}
		if got := ids(ns); strings.Join(got, " ") != strings.Join(tt.expected, " ") {
			t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, got, tt.expected)
		}
		for _, n := range ns {
			if n == tt.scope {
				t.Errorf("%s: result contains scope", tt.selector)
			}
		}
	}
}

func TestDetachedRoot(t *testing.T) {
	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	ns, err := html.ParseFragment(strings.NewReader(`<div id="x" class="r"><p id="p1">a</p><p id="p2">b <span id="s1"></span></p></div>`), body)
	if err != nil || len(ns) != 1 || ns[0].Parent != nil {
		t.Fatalf("bad fragment: %v %v", ns, err)
	}
	root := ns[0]
	e := New(dom.New(root), WithoutFastPath())
	elements := dom.FindAll(root, dom.IsElement)
	for _, tt := range []struct {
		selector string
		expected []string
	}{
		{"div > p", []string{"p1", "p2"}},
		{"#x > p", []string{"p1", "p2"}},
		{".r > p:first-child", []string{"p1"}},
		{"div > p:nth-child(1)", []string{"p1"}},
		{"div p + p", []string{"p2"}},
		{"#x span", []string{"s1"}},
		{"div > p > span", []string{"s1"}},
		{"div", []string{}},
	} {
		got, err := e.QuerySelectorAll(tt.selector, root)
		if err != nil {
			t.Errorf("%s: %s", tt.selector, err)
			continue
		}
		if strings.Join(ids(got), " ") != strings.Join(tt.expected, " ") {
			t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, ids(got), tt.expected)
		}
		n, err := e.QuerySelector(tt.selector, root)
		if err != nil || (len(tt.expected) == 0) != (n == nil) || (n != nil && dom.AttrValue(n, "id") != tt.expected[0]) {
			t.Errorf("%s: querySelector\ngot:\n\t'%v %v'\n\nexpected:\n\t'%v'", tt.selector, n, err, tt.expected)
		}
		matched := map[*html.Node]bool{}
		for _, n := range got {
			matched[n] = true
		}
		for _, n := range elements {
			if ok, _ := e.Matches(tt.selector, n); ok != matched[n] {
				t.Errorf("%s: matches(#%s)\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, dom.AttrValue(n, "id"), ok, matched[n])
			}
		}
	}
	fast := New(dom.New(root))
	for _, selector := range []string{"div > p", "div > p:first-child"} {
		got, err := fast.QuerySelectorAll(selector, root)
		if err != nil || len(got) == 0 || dom.AttrValue(got[0], "id") != "p1" {
			t.Errorf("%s: fast path\ngot:\n\t'%v %v'", selector, ids(got), err)
		}
	}
}

func TestClosest(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d, WithoutFastPath())
	s1 := byID(d, "s1")
	for _, tt := range []struct {
		selector string
		expected string
	}{
		{".container", "main"},
		{"span", "s1"},
		{"[title]", "p2"},
		{"div:has(> ul)", "main"},
		{"ul", ""},
		{"li", ""},
	} {
		n, err := e.Closest(tt.selector, s1)
		if err != nil {
			t.Errorf("%s: %s", tt.selector, err)
			continue
		}
		if got := dom.AttrValue(n, "id"); n == nil && tt.expected != "" || n != nil && got != tt.expected {
			t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, got, tt.expected)
		}
	}
	if n, _ := New(d).Closest("div", byID(d, "s2")); dom.AttrValue(n, "id") != "deep" {
		t.Errorf("fast path closest: got %v", n)
	}
}

func TestNthWithoutParent(t *testing.T) {
	e := New(dom.MustParseString(""), WithoutFastPath())
	n := &html.Node{Type: html.ElementNode, Data: "li"}
	for selector, expected := range map[string]bool{
		":first-child":       true,
		":nth-child(1)":      true,
		":nth-child(n+1)":    true,
		":nth-child(2)":      false,
		":nth-last-child(1)": true,
		":only-of-type":      true,
		":root":              false,
	} {
		if got, err := e.Matches(selector, n); err != nil || got != expected {
			t.Errorf("%s\ngot:\n\t'%v' (%v)\n\nexpected:\n\t'%v'", selector, got, err, expected)
		}
	}
}

// Changing an attribute value without changing the attribute count is not
// noticed by the match memo of the same engine.
func TestStaleMemo(t *testing.T) {
	d := dom.MustParseString(`<p id="x" data-state="on"></p>`)
	e, p := New(d, WithoutFastPath()), byID(d, "x")
	matches := func() bool {
		ok, err := e.Matches(`[data-state="on"]`, p)
		if err != nil {
			t.Fatal(err)
		}
		return ok
	}
	if !matches() {
		t.Fatal("expected initial match")
	}
	dom.SetAttr(p, "data-state", "off")
	if !matches() {
		t.Errorf("expected stale memoized match after value change")
	}
	if ok, _ := New(d, WithoutFastPath()).Matches(`[data-state="on"]`, p); ok {
		t.Errorf("expected fresh engine to see the new value")
	}
	dom.SetAttr(p, "class", "y")
	if matches() {
		t.Errorf("expected memo invalidation after attribute count change")
	}
	dom.RemoveAttr(p, "class")
	dom.SetAttr(p, "data-state", "on")
	if !matches() {
		t.Errorf("expected match after restoring the value")
	}
}

func TestErrors(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d)
	for _, tt := range []struct {
		selector string
		expected error
	}{
		{"div >", ErrSyntax},
		{"div > > p", ErrSyntax},
		{"", ErrSyntax},
		{"div,", ErrSyntax},
		{":unknown", ErrSyntax},
		{":not(:unknown)", ErrSyntax},
		{":hover(x)", ErrSyntax},
		{":not", ErrSyntax},
		{"::bogus", ErrSyntax},
		{":not(::before)", ErrSyntax},
		{"foo|div", ErrSyntax},
		{":playing", ErrNotSupported},
		{"video:not(:paused)", ErrNotSupported},
		{"td || th", ErrNotSupported},
		{"::part(label)", ErrNotSupported},
	} {
		_, err := e.QuerySelectorAll(tt.selector, d.Root)
		if !errors.Is(err, tt.expected) {
			t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, err, tt.expected)
			continue
		}
		if ns, err := e.QuerySelectorAll(tt.selector, d.Root, Noexcept()); err != nil || len(ns) != 0 {
			t.Errorf("%s: noexcept: got %v %v", tt.selector, ns, err)
		}
		var fe *Error
		if errors.As(err, &fe) && fe.Selector != tt.selector {
			t.Errorf("%s: error does not name selector: %v", tt.selector, err)
		}
	}

	text := byID(d, "l1").FirstChild
	if _, err := e.Matches("li", text, Noexcept()); !errors.Is(err, ErrType) {
		t.Errorf("expected TypeError for text node, got %v", err)
	}
	if _, err := e.Closest("li", nil); !errors.Is(err, ErrType) {
		t.Errorf("expected TypeError for nil node, got %v", err)
	}
	if _, err := e.QuerySelectorAll("li", text, Noexcept()); !errors.Is(err, ErrType) {
		t.Errorf("expected TypeError for text scope, got %v", err)
	}
}

func TestWarn(t *testing.T) {
	d := dom.MustParseString(fixture)
	core, logs := observer.New(zap.WarnLevel)
	e := New(d, WithLogger(zap.New(core)))
	l1 := byID(d, "l1")
	if ok, err := e.Matches("li:not(:playing)", l1, Warn()); err != nil || !ok {
		t.Errorf("expected :not(:playing) to match with warn, got %v %v", ok, err)
	}
	if ok, err := e.Matches("li:playing", l1, Warn()); err != nil || ok {
		t.Errorf("expected :playing to never match with warn, got %v %v", ok, err)
	}
	if ns, err := e.QuerySelectorAll("li::marker", d.Root, Warn()); err != nil || len(ns) != 0 {
		t.Errorf("expected no pseudo-element matches, got %v %v", ns, err)
	}
	if n := logs.FilterMessage("unsupported selectors never match").Len(); n != 2 {
		t.Errorf("expected 2 unsupported warnings, got %d", n)
	}
	if n := logs.FilterMessage("pseudo-elements never match").Len(); n != 1 {
		t.Errorf("expected 1 pseudo-element warning, got %d", n)
	}
}

func TestShadowRoot(t *testing.T) {
	d := dom.MustParseString(`<body><div id="host" class="h">
      <template shadowrootmode="open"><p id="sp" class="x">a</p><div id="sd"><span id="ss"></span></div></template>
      <span id="light"></span>
    </div></body>`)
	e := New(d, WithoutFastPath())
	shadow := d.ShadowRoot(byID(d, "host"))
	for _, tt := range []struct {
		selector string
		expected []string
	}{
		{"p", []string{"sp"}},
		{":host", []string{}},
		{":host > p", []string{"sp"}},
		{":host(.h) span", []string{"ss"}},
		{":host(.nope) span", []string{}},
		{":host-context(body) .x", []string{"sp"}},
		{":host-context(section) .x", []string{}},
		{"div span", []string{"ss"}},
		{"#host span", []string{}},
	} {
		ns, err := e.QuerySelectorAll(tt.selector, shadow)
		if err != nil {
			t.Errorf("%s: %s", tt.selector, err)
			continue
		}
		if got := ids(ns); strings.Join(got, " ") != strings.Join(tt.expected, " ") {
			t.Errorf("%s\ngot:\n\t'%v'\n\nexpected:\n\t'%v'", tt.selector, got, tt.expected)
		}
	}
	if ok, _ := e.Matches(":host > p", byID(d, "sp")); !ok {
		t.Errorf("expected :host > p to match #sp")
	}
	if ok, _ := e.Matches(":host", byID(d, "host")); ok {
		t.Errorf("expected :host to not match the host from the light tree")
	}
	if n, _ := e.Closest("div", byID(d, "ss")); dom.AttrValue(n, "id") != "sd" {
		t.Errorf("expected closest to stay inside the shadow tree, got %v", n)
	}
	if ns, _ := e.QuerySelectorAll("span", d.Root); strings.Join(ids(ns), " ") != "light" {
		t.Errorf("expected document query to skip the shadow tree, got %v", ids(ns))
	}
}

func TestUserActionPseudoClasses(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d)
	d.Focus = byID(d, "i2")
	hover := WithEvent(&Event{Type: "mouseover", Target: byID(d, "s1")})
	for _, tt := range []struct {
		selector string
		id       string
		opts     []QueryOption
		expected bool
	}{
		{":hover", "p2", []QueryOption{hover}, true},
		{":hover", "main", []QueryOption{hover}, true},
		{":hover", "p1", []QueryOption{hover}, false},
		{":hover", "p2", nil, false},
		{":active", "p2", []QueryOption{WithEvent(&Event{Type: "mousedown", Target: byID(d, "s1")})}, true},
		{":focus", "i2", nil, true},
		{":focus", "i1", nil, false},
		{":focus-within", "f1", nil, true},
		{":focus-within", "list", nil, false},
		{":focus-visible", "i2", nil, true},
	} {
		if got, err := e.Matches(tt.selector, byID(d, tt.id), tt.opts...); err != nil || got != tt.expected {
			t.Errorf("%s #%s\ngot:\n\t'%v' (%v)\n\nexpected:\n\t'%v'", tt.selector, tt.id, got, err, tt.expected)
		}
	}
}

func TestSelectorCache(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d)
	for _, selector := range []string{"li", "li:first-child", "p:has(a)", "li.a", "li:first-child"} {
		if _, err := e.QuerySelectorAll(selector, d.Root); err != nil {
			t.Fatal(err)
		}
	}
	if got := e.CachedSelectors(d.Root); strings.Join(got, ",") != "li:first-child" {
		t.Errorf("got:\n\t'%v'\n\nexpected:\n\t'%v'", got, []string{"li:first-child"})
	}
	e.Drop(d.Root)
	if got := e.CachedSelectors(d.Root); len(got) != 0 {
		t.Errorf("expected empty cache after drop, got %v", got)
	}
	if ns, _ := e.QuerySelectorAll("li:first-child", d.Root); strings.Join(ids(ns), " ") != "l1" {
		t.Errorf("expected query to work after drop, got %v", ids(ns))
	}
}

func TestWalkerReposition(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d)
	w := e.walker(d.Root)
	for _, id := range []string{"p2", "l3", "s2", "main", "s1"} {
		if !w.reposition(byID(d, id)) || dom.AttrValue(w.current, "id") != id {
			t.Errorf("reposition(#%s): cursor at %v", id, dom.AttrValue(w.current, "id"))
		}
	}
	got := []string{}
	w.each(byID(d, "list"), func(n *html.Node) bool {
		got = append(got, dom.AttrValue(n, "id"))
		return len(got) < 3
	})
	if strings.Join(got, " ") != "l1 l2 l3" {
		t.Errorf("got:\n\t'%v'\n\nexpected:\n\t'%v'", got, []string{"l1", "l2", "l3"})
	}
}

func TestEntryStrategies(t *testing.T) {
	d := dom.MustParseString(fixture)
	e := New(d)
	strategies := map[string][]string{}
	for _, selector := range []string{
		"#l1", "#main li:first-child", "#main > ul li", "ul .a", "ul li", "li:nth-child(2)",
		"main > ul li:first-child", ":is(p, li) + li", "p::before, li:first-child",
	} {
		c, r, err := e.prepare(selector, d.Root, config{})
		if err != nil {
			t.Fatal(err)
		}
		for _, b := range r.branches {
			strategies[selector] = append(strategies[selector], c.strategy(r, b, true).String())
		}
	}
	util.Snapshot(t, strategies)
}
