package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/niklasfasching/qsa/store"
)

var page = `<html><body><ul id="list"><li>a</li><li class="x">b <b>!</b></li></ul><p>c</p></body></html>`

func TestQuery(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "page.html", page)
	tests := []struct {
		name     string
		args     []string
		expected string
	}{
		{"all", []string{"query", "-s", "li", path}, "<li>a</li>\n<li class=\"x\">b <b>!</b></li>\n"},
		{"first", []string{"query", "-m", "first", "-s", "li", path}, "<li>a</li>\n"},
		{"matches", []string{"query", "-m", "matches", "--node", "b", "-s", "ul > .x b", path}, "true\n"},
		{"closest", []string{"query", "-m", "closest", "--node", "b", "-s", "ul", path}, "<ul id=\"list\"><li>a</li><li class=\"x\">b <b>!</b></li></ul>\n"},
		{"noexcept", []string{"query", "--noexcept", "-s", "li:bogus", path}, ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if actual := run(t, tc.args...); actual != tc.expected {
				t.Errorf("%s\ngot:\n\t'%s'\n\nexpected:\n\t'%s'", tc.name, actual, tc.expected)
			}
		})
	}
}

func TestQueryErrors(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "page.html", page)
	out := &bytes.Buffer{}
	err := newApp(out).Run(context.Background(), []string{"qsa", "query", "-s", "p", path, filepath.Join(dir, "missing.html")})
	if err == nil || !strings.Contains(err.Error(), "missing.html") {
		t.Errorf("expected error for missing source, got %v", err)
	}
	expected := "==> " + path + " <==\n<p>c</p>\n==> " + filepath.Join(dir, "missing.html") + " <==\n"
	if out.String() != expected {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", out.String(), expected)
	}
	if err := newApp(out).Run(context.Background(), []string{"qsa", "query", "-s", "li:bogus", path}); err == nil {
		t.Errorf("expected error for unknown pseudo-class")
	}
	if err := newApp(out).Run(context.Background(), []string{"qsa", "query", "-m", "some", "-s", "li", path}); err == nil {
		t.Errorf("expected error for unknown mode")
	}
}

func TestQueryConfig(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "page.html", page)
	config := write(t, dir, "qsa.yaml", "selector: li\nmode: first\n")
	if actual := run(t, "--config", config, "query", path); actual != "<li>a</li>\n" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "<li>a</li>\n")
	}
	t.Setenv("QSA_SELECTOR", "b")
	if actual := run(t, "--config", config, "query", path); actual != "<b>!</b>\n" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "<b>!</b>\n")
	}
	if actual := run(t, "--config", config, "query", "-s", "p", path); actual != "<p>c</p>\n" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "<p>c</p>\n")
	}
}

func TestQueryDB(t *testing.T) {
	dir := t.TempDir()
	path, dbPath := write(t, dir, "page.html", page), filepath.Join(dir, "results.db")
	run(t, "query", "--db", dbPath, "-s", "li", path)
	db, err := store.Open(dbPath, nil)
	if err != nil {
		t.Fatal(err)
	}
	runs, err := db.Runs(context.Background(), "li")
	if err != nil || len(runs) != 1 || runs[0].Count != 2 || runs[0].Source != path {
		t.Errorf("got:\n\t'%#v' %v", runs, err)
	}
	db.Close()

	run(t, "query", "--db", dbPath, "-m", "first", "-s", "li", path)
	expected := "1\tall\t" + path + "\t2\n\tli\t2\n2\tfirst\t" + path + "\t1\n\tli\t1\n"
	if actual := run(t, "runs", "--db", dbPath, "--tags", "li"); actual != expected {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, expected)
	}
	expected = "1\tall\t" + path + "\t2\n\t<li>a</li>\n\t<li class=\"x\">b <b>!</b></li>\n2\tfirst\t" + path + "\t1\n\t<li>a</li>\n"
	if actual := run(t, "runs", "--db", dbPath, "--matches", "li"); actual != expected {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, expected)
	}
	if actual := run(t, "runs", "--db", dbPath, "ul"); actual != "" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t''", actual)
	}
}

func TestCoverage(t *testing.T) {
	dir := t.TempDir()
	path := write(t, dir, "page.html", page)
	css := write(t, dir, "style.css", "li, .x b { color: red }\n@media print { table { margin: 0 } }\n")
	expected := "4\tli\n2\t.x b\n0\ttable @media print\n"
	if actual := run(t, "coverage", css, path, path); actual != expected {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, expected)
	}
	if actual := run(t, "coverage", "--unused", css, path); actual != "table @media print\n" {
		t.Errorf("got:\n\t'%s'\n\nexpected:\n\t'%s'", actual, "table @media print\n")
	}
}

func run(t *testing.T, args ...string) string {
	out := &bytes.Buffer{}
	if err := newApp(out).Run(context.Background(), append([]string{"qsa"}, args...)); err != nil {
		t.Fatal(err)
	}
	return out.String()
}

func write(t *testing.T, dir, name, content string) string {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}
