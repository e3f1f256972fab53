package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"cnav/internal/diag"
	"cnav/internal/source"
)

func virtual(t *testing.T, path, content string) *source.File {
	t.Helper()
	fs := source.NewFileSet()
	return fs.Get(fs.AddVirtual(path, []byte(content)))
}

func TestPrettyPathModes(t *testing.T) {
	f := virtual(t, "/home/user/project/src/test.c", "int x = \"unterminated;\n")
	d := diag.New(diag.SevError, diag.LexUnterminatedString, source.Span{File: f.ID, Start: 8, End: 22}, "unterminated string literal")

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{"absolute", PathModeAbsolute, "/home/user/project/src/test.c:1:9:"},
		{"relative", PathModeRelative, "src/test.c:1:9:"},
		{"basename", PathModeBasename, "test.c:1:9:"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, f, []diag.Diagnostic{d}, PrettyOpts{PathMode: tt.mode, BaseDir: "/home/user/project"})
			out := buf.String()
			for _, want := range []string{tt.contains, "ERROR", "LEX1002", "unterminated string literal"} {
				if !strings.Contains(out, want) {
					t.Fatalf("output lacks %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestPrettyPathModeAuto(t *testing.T) {
	tests := []struct {
		path, want string
	}{
		{"test.c", "test.c:1:"},
		{"/very/long/absolute/path/to/some/nested/directory/file.c", "\nfile.c:1:"},
	}
	for _, tt := range tests {
		f := virtual(t, tt.path, "int x = 42;\n")
		d := diag.New(diag.SevWarning, diag.LexUnknownChar, source.Span{File: f.ID, Start: 8, End: 10}, "test warning")
		var buf bytes.Buffer
		Pretty(&buf, f, []diag.Diagnostic{d}, PrettyOpts{})
		if !strings.Contains("\n"+buf.String(), tt.want) {
			t.Fatalf("auto path for %s:\n%s", tt.path, buf.String())
		}
	}
}

func TestPrettyUnderline(t *testing.T) {
	f := virtual(t, "u.c", "int a;\n\tint bad = 1;\n")
	// "bad" on line 2, after a tab
	d := diag.New(diag.SevWarning, diag.SemaVariableRedefined, source.Span{File: f.ID, Start: 12, End: 15}, "redefined")
	var buf bytes.Buffer
	Pretty(&buf, f, []diag.Diagnostic{d}, PrettyOpts{})
	want := strings.Join([]string{
		"u.c:2:6: WARNING SEM3008: redefined",
		"2 |     int bad = 1;",
		"  |         ^~~",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("got:\n%s\nwant:\n%s", buf.String(), want)
	}
}

func TestPrettyContextAndNotes(t *testing.T) {
	f := virtual(t, "n.c", "struct s { int a; };\nstruct s { int b; };\n")
	d := diag.New(diag.SevWarning, diag.SemaTagRedefinition, source.Span{File: f.ID, Start: 28, End: 29}, "redefinition of struct s").
		WithNote(source.Span{File: f.ID, Start: 7, End: 8}, "previous definition")
	var buf bytes.Buffer
	Pretty(&buf, f, []diag.Diagnostic{d}, PrettyOpts{Context: 1, ShowNotes: true})
	out := buf.String()
	for _, want := range []string{
		"1 | struct s { int a; };",
		"2 | struct s { int b; };",
		"note: n.c:1:8: previous definition",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
}

func TestPrettyWidthTruncates(t *testing.T) {
	line := "int " + strings.Repeat("x", 60) + " = 1;"
	f := virtual(t, "w.c", line+"\n")
	d := diag.New(diag.SevError, diag.SynExpectSemicolon, source.Span{File: f.ID, Start: 0, End: 3}, "oops")
	var buf bytes.Buffer
	Pretty(&buf, f, []diag.Diagnostic{d}, PrettyOpts{Width: 20})
	if strings.Contains(buf.String(), line) || !strings.Contains(buf.String(), "…") {
		t.Fatalf("line not truncated:\n%s", buf.String())
	}
}
