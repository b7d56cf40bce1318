package util

import (
	"encoding/json"
	"errors"
	"flag"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

var updateSnapshots = flag.Bool("update-snapshots", false, "update testdata snapshots")

type SnapMarshaller interface {
	MarshalSnap() (string, string, error)
}

// Snapshot compares v with testdata/<test name>.json. Missing snapshots are
// recorded; -update-snapshots overwrites existing ones.
func Snapshot[V any](t *testing.T, v V) {
	t.Helper()
	p, actual, ext := filepath.Join("testdata", t.Name()), "", ".json"
	if m, ok := any(v).(SnapMarshaller); ok {
		s, e, err := m.MarshalSnap()
		if err != nil {
			t.Fatalf("failed to marshal snapshot: %s (%v)", err, v)
		}
		actual, ext = s, e
	} else {
		bs, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			t.Fatalf("failed to marshal snapshot: %s (%v)", err, v)
		}
		actual = string(bs) + "\n"
	}
	bs, err := os.ReadFile(p + ext)
	if missing := errors.Is(err, fs.ErrNotExist); *updateSnapshots || missing {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatalf("failed to create testdata: %s", err)
		} else if err := os.WriteFile(p+ext, []byte(actual), 0644); err != nil {
			t.Fatalf("failed to write snapshot: %s", err)
		}
		if missing {
			t.Logf("recorded snapshot %s", p+ext)
		}
	} else if err != nil {
		t.Fatalf("failed to read snapshot: %s", err)
	} else if expected := string(bs); actual != expected {
		t.Fatalf("snapshot does not match\ngot:\n\t'%s'\n\nexpected:\n\t'%s'", actual, expected)
	}
}
