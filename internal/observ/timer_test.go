package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestReportFoldsRepeatedPhases(t *testing.T) {
	tm := NewTimer()
	for range 3 {
		tm.End(tm.Begin("bind"), "")
	}
	tm.End(tm.Begin("freeze"), "42 symbols")

	r := tm.Report()
	if len(r.Phases) != 2 {
		t.Fatalf("phases = %+v", r.Phases)
	}
	if r.Phases[0].Name != "bind" || r.Phases[0].Count != 3 {
		t.Fatalf("bind = %+v", r.Phases[0])
	}
	if r.Phases[1].Note != "42 symbols" {
		t.Fatalf("freeze note lost: %+v", r.Phases[1])
	}
	if !strings.Contains(tm.Summary(), "x3") {
		t.Fatalf("summary misses count:\n%s", tm.Summary())
	}
}

func TestConcurrentPhases(t *testing.T) {
	tm := NewTimer()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.End(tm.Begin("preprocess"), "")
		}()
	}
	wg.Wait()
	if got := tm.Report().Phases[0].Count; got != 8 {
		t.Fatalf("count = %d, want 8", got)
	}
}

func TestEndIgnoresBadHandle(t *testing.T) {
	tm := NewTimer()
	tm.End(5, "x")
	if r := tm.Report(); len(r.Phases) != 0 {
		t.Fatalf("unexpected phases %+v", r.Phases)
	}
}
