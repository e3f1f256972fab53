package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"cnav/internal/cache"
	"cnav/internal/index"
)

const unitA = "int counter;\nint bump(void) { return ++counter; }\n"

func TestUpdateAndQuery(t *testing.T) {
	w := New(Options{})
	if _, err := w.Update(context.Background(), "a.c", []byte(unitA)); err != nil {
		t.Fatal(err)
	}
	// "counter" in "++counter" on line 1 (0-based), column 27
	got, err := w.Definition("a.c", 1, 27)
	if err != nil {
		t.Fatal(err)
	}
	if want := (index.Range{Line: 0, StartCol: 4, EndLine: 0, EndCol: 11}); got != want {
		t.Fatalf("Definition = %v, want %v", got, want)
	}
	refs, err := w.References("a.c", 0, 5, true)
	if err != nil {
		t.Fatal(err)
	}
	if len(refs) != 2 {
		t.Fatalf("References = %v", refs)
	}
}

func TestUnknownUnit(t *testing.T) {
	w := New(Options{})
	if _, err := w.Definition("nope.c", 0, 0); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("err = %v, want ErrUnknownUnit", err)
	}
	if _, err := w.State("nope.c"); !errors.Is(err, ErrUnknownUnit) {
		t.Fatalf("err = %v, want ErrUnknownUnit", err)
	}
}

func TestFailedBuildKeepsSnapshot(t *testing.T) {
	w := New(Options{})
	ctx := context.Background()
	good, err := w.Update(ctx, "a.c", []byte(unitA))
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Update(ctx, "a.c", []byte("int x; /* open"))
	var be *index.BuildError
	if !errors.As(err, &be) {
		t.Fatalf("err = %v, want *index.BuildError", err)
	}
	st, err := w.State("a.c")
	if err != nil {
		t.Fatal(err)
	}
	if !st.Failed || len(st.Diagnostics) == 0 {
		t.Fatalf("state = %+v", st)
	}
	if st.Index != good {
		t.Fatalf("previous snapshot was replaced")
	}
	if _, err := w.Definition("a.c", 1, 27); err != nil {
		t.Fatalf("queries must keep working: %v", err)
	}
}

func TestFirstBuildFailing(t *testing.T) {
	w := New(Options{})
	if _, err := w.Update(context.Background(), "b.c", []byte("}")); err == nil {
		t.Fatalf("expected a build error")
	}
	if _, err := w.Snapshot("b.c"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("err = %v, want ErrNoSnapshot", err)
	}
}

func TestLastEditWins(t *testing.T) {
	w := New(Options{})
	u := w.ensure("a.c")
	u.mu.Lock()

	older := []byte("int old;\n")
	newer := []byte("int newer;\n")
	errs := make([]error, 2)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[0] = w.Update(context.Background(), "a.c", older)
	}()
	for u.seq.Load() < 1 {
		runtime.Gosched()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, errs[1] = w.Update(context.Background(), "a.c", newer)
	}()
	for u.seq.Load() < 2 {
		runtime.Gosched()
	}
	// let both builds reach the publish step before releasing it
	time.Sleep(20 * time.Millisecond)
	u.mu.Unlock()
	wg.Wait()

	if errs[1] != nil {
		t.Fatalf("newest update failed: %v", errs[1])
	}
	if errs[0] != nil && !errors.Is(errs[0], ErrStale) {
		t.Fatalf("older update: %v", errs[0])
	}
	ix, err := w.Snapshot("a.c")
	if err != nil {
		t.Fatal(err)
	}
	if string(ix.File.Content) != string(newer) {
		t.Fatalf("snapshot holds %q", ix.File.Content)
	}
}

func TestStaleUpdateIsDropped(t *testing.T) {
	w := New(Options{})
	u := w.ensure("a.c")
	// a newer edit was already applied
	u.mu.Lock()
	u.applied = 3
	u.mu.Unlock()
	if _, err := w.Update(context.Background(), "a.c", []byte(unitA)); !errors.Is(err, ErrStale) {
		t.Fatalf("err = %v, want ErrStale", err)
	}
	if _, err := w.Snapshot("a.c"); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("stale build was published")
	}
}

func TestFlagsPerUnit(t *testing.T) {
	w := New(Options{Flags: func(unit string) Flags {
		if unit == "on.c" {
			return Flags{Defines: []string{"FEATURE"}}
		}
		return Flags{}
	}})
	src := []byte("#ifdef FEATURE\nint enabled;\n#endif\nint probe(void) { return enabled; }\n")
	on, err := w.Update(context.Background(), "on.c", src)
	if err != nil {
		t.Fatal(err)
	}
	off, err := w.Update(context.Background(), "off.c", src)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := on.Definition(index.Coords{}, index.Position{Line: 3, Col: 26}); err != nil {
		t.Fatalf("on.c: %v", err)
	}
	if _, err := off.Definition(index.Coords{}, index.Position{Line: 3, Col: 26}); !errors.Is(err, index.ErrNotFound) {
		t.Fatalf("off.c: err = %v, want ErrNotFound", err)
	}
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestIndexFilesIsolatesFailures(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"good.c":   unitA,
		"broken.c": "int f(void) {\n",
	})
	paths := []string{
		filepath.Join(dir, "good.c"),
		filepath.Join(dir, "broken.c"),
		filepath.Join(dir, "missing.c"),
	}

	var mu sync.Mutex
	final := map[string]Status{}
	sink := SinkFunc(func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		final[ev.File] = ev.Status
	})

	w := New(Options{})
	sum, err := w.IndexFiles(context.Background(), paths, 2, sink)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Indexed != 1 || len(sum.Failures) != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if sum.Failures[0].Path != paths[1] || sum.Failures[1].Path != paths[2] {
		t.Fatalf("failures out of order: %+v", sum.Failures)
	}
	if final[paths[0]] != StatusDone || final[paths[1]] != StatusError || final[paths[2]] != StatusError {
		t.Fatalf("final statuses = %v", final)
	}
	if _, err := w.Snapshot(paths[0]); err != nil {
		t.Fatalf("good.c not published: %v", err)
	}
}

func TestIndexFilesUsesCache(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": unitA, "b.c": "struct s { int v; };\n"})
	paths := []string{filepath.Join(dir, "a.c"), filepath.Join(dir, "b.c")}
	c, err := cache.Open(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	first, err := New(Options{Cache: c}).IndexFiles(context.Background(), paths, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if first.Indexed != 2 || first.Cached != 0 {
		t.Fatalf("first run = %+v", first)
	}
	w := New(Options{Cache: c})
	second, err := w.IndexFiles(context.Background(), paths, 0, nil)
	if err != nil {
		t.Fatal(err)
	}
	if second.Cached != 2 {
		t.Fatalf("second run = %+v", second)
	}
	if _, err := w.Definition(paths[0], 1, 27); err != nil {
		t.Fatalf("cached snapshot: %v", err)
	}
}

func TestIndexFilesCancelled(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.c": unitA})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := New(Options{}).IndexFiles(ctx, []string{filepath.Join(dir, "a.c")}, 1, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}
