package cache

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cnav/internal/index"
)

func TestKeyIgnoresFlagOrder(t *testing.T) {
	var h [32]byte
	a := KeyFor("a.c", h, []string{"X=1", "Y"}, nil)
	b := KeyFor("a.c", h, []string{"Y", "X=1"}, nil)
	if a != b {
		t.Fatalf("keys differ for reordered defines")
	}
	if a == KeyFor("a.c", h, nil, []string{"X=1", "Y"}) {
		t.Fatalf("defines and undefines must not collide")
	}
	if a == KeyFor("b.c", h, []string{"X=1", "Y"}, nil) {
		t.Fatalf("path must be part of the key")
	}
}

func TestPutGet(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ix, _, err := index.BuildText(context.Background(), "u.c", []byte("int x;\nint f(void) { return x; }\n"), index.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	key := KeyFor(ix.Path(), ix.File.Hash, nil, nil)

	if _, ok, err := c.Get(key); ok || err != nil {
		t.Fatalf("empty cache: ok=%v err=%v", ok, err)
	}
	if err := c.Put(key, ix); err != nil {
		t.Fatal(err)
	}
	got, ok, err := c.Get(key)
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if len(got.Bindings()) != len(ix.Bindings()) {
		t.Fatalf("bindings = %d, want %d", len(got.Bindings()), len(ix.Bindings()))
	}
}

func TestCorruptEntryIsAnError(t *testing.T) {
	c, err := Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	var key Key
	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte("not msgpack"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, ok, err := c.Get(key); ok || err == nil {
		t.Fatalf("corrupt entry: ok=%v err=%v", ok, err)
	}
}

func TestDropAll(t *testing.T) {
	c, err := Open(filepath.Join(t.TempDir(), "c"))
	if err != nil {
		t.Fatal(err)
	}
	ix, _, err := index.BuildText(context.Background(), "u.c", []byte("int x;\n"), index.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	var key Key
	if err := c.Put(key, ix); err != nil {
		t.Fatal(err)
	}
	if err := c.DropAll(); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := c.Get(key); ok {
		t.Fatalf("entry survived DropAll")
	}
}
