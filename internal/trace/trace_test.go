package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelsFilterScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeCommand, false},
		{LevelPhase, ScopeUnit, true},
		{LevelPhase, ScopePass, false},
		{LevelDetail, ScopePass, true},
		{LevelDetail, ScopeRequest, false},
		{LevelDebug, ScopeRequest, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Fatalf("%s.ShouldEmit(%s) = %v", tt.level, tt.scope, got)
		}
	}
}

func TestParseLevel(t *testing.T) {
	for _, name := range []string{"off", "phase", "detail", "debug"} {
		l, err := ParseLevel(name)
		if err != nil || l.String() != name {
			t.Fatalf("ParseLevel(%q) = %v, %v", name, l, err)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("expected an error for an unknown level")
	}
}

func TestStreamTextNesting(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Output: &buf, Format: FormatText})
	if err != nil {
		t.Fatal(err)
	}
	ctx := WithTracer(context.Background(), tr)
	unit := Begin(FromContext(ctx), ScopeUnit, "index", 0).WithExtra("path", "a.c")
	ctx = WithSpan(ctx, unit)
	pass := Begin(FromContext(ctx), ScopePass, "bind", CurrentSpan(ctx).SpanID)
	pass.End("12 symbols")
	Begin(tr, ScopeRequest, "hidden", 0).End("")
	unit.End("")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	if !strings.Contains(lines[1], "> bind") || !strings.Contains(lines[2], "(12 symbols)") {
		t.Fatalf("unexpected pass lines:\n%s", buf.String())
	}
	if !strings.Contains(lines[3], "{path=a.c}") {
		t.Fatalf("extra missing: %s", lines[3])
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr := NewStreamTracer(&buf, LevelPhase, FormatNDJSON)
	Begin(tr, ScopeCommand, "refs", 0).End("3 results")
	dec := json.NewDecoder(&buf)
	var begin, end map[string]any
	if err := dec.Decode(&begin); err != nil {
		t.Fatal(err)
	}
	if err := dec.Decode(&end); err != nil {
		t.Fatal(err)
	}
	if begin["kind"] != "begin" || end["detail"] != "3 results" || end["span"] != begin["span"] {
		t.Fatalf("events = %v / %v", begin, end)
	}
}

func TestNopSpansAreInert(t *testing.T) {
	s := Begin(Nop, ScopeCommand, "x", 0)
	if s.ID() != 0 || s.WithExtra("k", "v").End("") != 0 {
		t.Fatalf("nop span should do nothing")
	}
	if FromContext(context.Background()) != Nop {
		t.Fatalf("empty context must yield Nop")
	}
}
