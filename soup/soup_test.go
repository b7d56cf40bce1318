package soup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/niklasfasching/qsa/finder"
)

func TestSoup(t *testing.T) {
	d := MustParse(strings.NewReader(`<ul><li>foo</li><li class="x">bar</li></ul><p>baz <b>qux</b></p>`))
	if actual := d.All("li").Text("\n"); actual != "foo\nbar" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "foo\nbar")
	}
	if actual := d.First("li:nth-child(2)").Attribute("class"); actual != "x" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "x")
	}
	b := d.First("b")
	if !b.Is("p > b") || b.Is("li b") {
		t.Errorf("bad Is")
	}
	if actual := b.Closest("p").TrimmedText(); actual != "baz qux" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "baz qux")
	}
	if actual := d.All("ul, p").All("li:has(+ li), b").Text(","); actual != "foo,qux" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "foo,qux")
	}
	if d.All("li").Eq(2) != nil || d.All("li").Eq(1).Text() != "bar" {
		t.Errorf("bad Eq")
	}
	if _, err := d.QueryAll("li:unknown"); err == nil {
		t.Errorf("expected error for unknown pseudo-class")
	}
	Release(d)
}

func TestShadowDocument(t *testing.T) {
	d := MustParse(strings.NewReader(`<div id="host"><template shadowrootmode="open"><p>inside</p></template></div>`))
	host := d.First("#host")
	shadow := AsNode(Document(d).ShadowRoot(AsHTMLNode(host)))
	if actual := shadow.First(":host > p").Text(); actual != "inside" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "inside")
	}
	if d.First("p") != nil {
		t.Errorf("expected shadow content to be hidden from the document")
	}
}

func TestTransportCache(t *testing.T) {
	requests := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests[r.URL.Path]++
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
		}
		fmt.Fprintf(w, `<p id="n">%d</p><p id="ua">%s</p>`, requests[r.URL.Path], r.UserAgent())
	}))
	defer server.Close()
	client := Transport{Cache: &FileCache{t.TempDir()}, UserAgent: "qsa-test"}.Client()
	for i := 0; i < 2; i++ {
		d, err := Load(client, server.URL+"/page")
		if err != nil {
			t.Fatal(err)
		}
		if actual := d.First("#n").Text() + " " + d.First("#ua").Text(); actual != "1 qsa-test" {
			t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "1 qsa-test")
		}
		if u := Document(d).URL.String(); u != server.URL+"/page" {
			t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", u, server.URL+"/page")
		}
		if _, err := Load(client, server.URL+"/broken"); err == nil || err.Error() != "status: 500" {
			t.Errorf("got:\n\t'%v'\n\nexpected:\n\t'%s'", err, "status: 500")
		}
	}
	if requests["/page"] != 1 || requests["/broken"] != 2 {
		t.Errorf("expected cached page and uncached errors, got %v", requests)
	}
}

func TestQueryOptions(t *testing.T) {
	d := MustParse(strings.NewReader(`<div><p>a <b>b</b></p></div>`))
	b := d.First("b")
	if ok, err := b.Matches("b::before"); err != nil || ok {
		t.Errorf("expected pseudo-element not to match, got %v %v", ok, err)
	}
	if _, err := b.ClosestMatch("div:playing"); err == nil {
		t.Errorf("expected error for unsupported pseudo-class")
	}
	if m, err := b.ClosestMatch("div:playing", finder.Noexcept()); err != nil || m != nil {
		t.Errorf("expected noexcept to swallow the error, got %v %v", m, err)
	}
	count := 0
	err := With(b, func(e *finder.Engine) error {
		count = len(e.CachedSelectors(Document(b).Root))
		return nil
	})
	if err != nil || count == 0 {
		t.Errorf("expected cached selectors, got %d %v", count, err)
	}
}

func TestLoadStatus(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()
	if _, err := LoadContext(context.Background(), http.DefaultClient, server.URL); err == nil || err.Error() != "status: 404" {
		t.Errorf("got:\n\t'%v'\n\nexpected:\n\t'%s'", err, "status: 404")
	}
}
