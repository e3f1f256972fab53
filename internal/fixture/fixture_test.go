package fixture

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"cnav/internal/index"
	"cnav/internal/testkit"
)

func TestLocate(t *testing.T) {
	tests := []struct {
		code, tag, word string
		want            string
	}{
		{"    RED, ", "RED", "", "RED"},
		{"    int i; ", "d_i", "", "i"},
		{"    d.i = 10; ", "d_i", "", "i"},
		{"#define MY_MACRO 1 ", "my_macro", "", "MY_MACRO"},
		{"#ifdef MY_MACRO ", "my_macro", "", "MY_MACRO"},
		{"    out.inner.val = 5; ", "val_member", "val", "val"},
		{"    local_var = 0; ", "l_var", "", "local_var"},
		{"    int x; ", "point_x", "", "x"},
		{"    return; ", "nothing", "", ""},
	}
	for _, tt := range tests {
		start, n, ok := locate(tt.code, tt.tag, tt.word)
		got := ""
		if ok {
			got = tt.code[start : start+n]
		}
		if got != tt.want {
			t.Fatalf("locate(%q, %q, %q) = %q, want %q", tt.code, tt.tag, tt.word, got, tt.want)
		}
	}
}

func TestParse(t *testing.T) {
	src := "int val; // @def: val_member:val\nint y;\nint w = val; // @jump: val_member:val\n"
	ix, _, err := index.BuildText(context.Background(), "p.c", []byte(src), index.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	got := Parse(&ix.File)
	if len(got) != 2 {
		t.Fatalf("got %d markers, want 2", len(got))
	}
	if got[0].Kind != KindDef || got[0].Tag != "val_member" || got[0].Word != "val" || got[0].Line != 1 {
		t.Fatalf("first marker %+v", got[0])
	}
	if got[1].Kind != KindJump || got[1].Line != 3 || ix.Text(got[1].Span) != "val" {
		t.Fatalf("second marker %+v", got[1])
	}
}

func TestFixtures(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "*.c"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatal("no fixtures")
	}
	var reports []*Report
	for _, path := range paths {
		t.Run(filepath.Base(path), func(t *testing.T) {
			ix, _, err := index.BuildFile(context.Background(), path, index.BuildOptions{Validate: true})
			if err != nil {
				t.Fatalf("build: %v", err)
			}
			if err := testkit.CheckIndexInvariants(ix); err != nil {
				t.Fatalf("invariants: %v", err)
			}
			rep := Verify(ix)
			reports = append(reports, rep)
			if rep.Total() == 0 {
				t.Fatal("fixture has no checks")
			}
			for _, p := range rep.Problems {
				t.Errorf("problem: %s", p)
			}
			for _, res := range rep.Results {
				if !res.Pass {
					t.Errorf("line %d %s %s: %s", res.Line, res.Check, res.Tag, res.Detail)
				}
			}
		})
	}
	if passed, total := Score(reports); passed != total {
		t.Fatalf("score %d/%d", passed, total)
	}
}

func TestVerifyReportsFailures(t *testing.T) {
	src := strings.Join([]string{
		"int a; // @def: a",
		"int b; // @def: a",
		"int c = b; // @jump: a:b",
		"int d; // @ref_target: d",
		"int e = d; // @ref_expect: d",
		"int f = e; // @ref_expect: d",
		"int g; // @ref_expect: orphan",
		"int h = q; // @jump: missing:q",
		"",
	}, "\n")
	ix, _, err := index.BuildText(context.Background(), "bad.c", []byte(src), index.BuildOptions{})
	if err != nil {
		t.Fatal(err)
	}
	rep := Verify(ix)
	if rep.OK() {
		t.Fatal("broken fixture reported ok")
	}
	if len(rep.Problems) != 2 {
		t.Fatalf("problems = %v, want duplicate @def and orphan @ref_expect", rep.Problems)
	}
	want := []struct {
		line uint32
		pass bool
		in   string
	}{
		{3, false, "want line 1"},
		{4, false, "missing lines 6"},
		{8, false, "no @def"},
	}
	if len(rep.Results) != len(want) {
		t.Fatalf("got %d results, want %d: %+v", len(rep.Results), len(want), rep.Results)
	}
	for i, w := range want {
		got := rep.Results[i]
		if got.Line != w.line || got.Pass != w.pass || !strings.Contains(got.Detail, w.in) {
			t.Fatalf("result %d = %+v, want line %d pass %v detail containing %q", i, got, w.line, w.pass, w.in)
		}
	}
}
