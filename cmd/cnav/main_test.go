package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	runCleanups()
	return out.String(), err
}

const sample = `#define LIMIT 8
struct box { int w; };
int area(struct box *b) {
    return b->w * LIMIT;
}
`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "box.c")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadUIMode(t *testing.T) {
	for in, want := range map[string]uiMode{"": uiModeAuto, "ON": uiModeOn, " off ": uiModeOff} {
		got, err := readUIMode(in)
		if err != nil || got != want {
			t.Fatalf("readUIMode(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := readUIMode("sometimes"); err == nil {
		t.Fatal("expected error")
	}
}

func TestParsePosition(t *testing.T) {
	pos, err := parsePosition([]string{"3", "12"})
	if err != nil || pos.Line != 3 || pos.Col != 12 {
		t.Fatalf("parsePosition = %+v, %v", pos, err)
	}
	if _, err := parsePosition([]string{"x", "1"}); err == nil {
		t.Fatal("expected error for bad line")
	}
}

func TestDefCommand(t *testing.T) {
	path := writeSample(t)
	// "w" in b->w, base 1
	out, err := execute(t, "def", path, "4", "15", "--base", "1", "--format", "json")
	if err != nil {
		t.Fatalf("def: %v\n%s", err, out)
	}
	var locs []location
	if err := json.Unmarshal([]byte(out), &locs); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	if len(locs) != 1 || locs[0].File != "box.c" || locs[0].Line != 2 || locs[0].Col != 18 || locs[0].Text != "w" {
		t.Fatalf("def = %+v", locs)
	}
}

func TestRefsCommand(t *testing.T) {
	path := writeSample(t)
	// LIMIT on line 0, base 0
	out, err := execute(t, "refs", path, "0", "8", "--base", "0", "--format", "pretty")
	if err != nil {
		t.Fatalf("refs: %v\n%s", err, out)
	}
	want := "box.c:0:8 LIMIT\nbox.c:3:18 LIMIT\n"
	if out != want {
		t.Fatalf("refs output:\n%s\nwant:\n%s", out, want)
	}
}

func TestSymbolsCommand(t *testing.T) {
	path := writeSample(t)
	out, err := execute(t, "symbols", path, "--base", "1", "--format", "pretty")
	if err != nil {
		t.Fatalf("symbols: %v\n%s", err, out)
	}
	for _, want := range []string{"macro-object", "LIMIT", "struct-tag", "box", "function", "area"} {
		if !strings.Contains(out, want) {
			t.Fatalf("symbols output lacks %q:\n%s", want, out)
		}
	}
}

func TestVerifyCommand(t *testing.T) {
	dir := t.TempDir()
	src := "int target; // @def: t:target\nint use = target; // @jump: t:target\n"
	if err := os.WriteFile(filepath.Join(dir, "m.c"), []byte(src), 0o600); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, "verify", dir)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "score: 1 / 1") {
		t.Fatalf("verify output:\n%s", out)
	}
}

func TestIndexCommandReportsFailures(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"good.c": "int ok;\n",
		"bad.c":  "#if 1\nint broken;\n",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	out, err := execute(t, "index", dir, "--ui", "off", "--format", "json")
	if err == nil {
		t.Fatalf("expected failure for unterminated #if\n%s", out)
	}
	start := strings.Index(out, "{")
	if start < 0 {
		t.Fatalf("no JSON report:\n%s", out)
	}
	var report indexReport
	if err := json.NewDecoder(strings.NewReader(out[start:])).Decode(&report); err != nil {
		t.Fatalf("bad JSON: %v\n%s", err, out)
	}
	if report.Indexed != 1 || report.Failed != 1 || len(report.Files) != 2 {
		t.Fatalf("report = %+v", report)
	}
}
