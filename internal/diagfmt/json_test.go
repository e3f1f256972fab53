package diagfmt

import (
	"bytes"
	"encoding/json"
	"testing"

	"cnav/internal/diag"
	"cnav/internal/lexer"
	"cnav/internal/source"
)

func TestJSONPositionsAndMax(t *testing.T) {
	f := virtual(t, "j.c", "int a;\nint b;\n")
	diags := []diag.Diagnostic{
		diag.New(diag.SevWarning, diag.SemaVariableRedefined, source.Span{File: f.ID, Start: 11, End: 12}, "first").
			WithNote(source.Span{File: f.ID, Start: 4, End: 5}, "here"),
		diag.New(diag.SevError, diag.SynExpectSemicolon, source.Span{File: f.ID, Start: 0, End: 3}, "second"),
	}

	var buf bytes.Buffer
	if err := JSON(&buf, f, diags, JSONOpts{IncludePositions: true, IncludeNotes: true, Max: 1}); err != nil {
		t.Fatal(err)
	}
	var out DiagnosticsOutput
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if out.Count != 1 || len(out.Diagnostics) != 1 {
		t.Fatalf("count = %d, want 1", out.Count)
	}
	d := out.Diagnostics[0]
	if d.Severity != "WARNING" || d.Code != "SEM3008" || d.Location.File != "j.c" {
		t.Fatalf("diagnostic = %+v", d)
	}
	if d.Location.StartLine != 2 || d.Location.StartCol != 5 || d.Location.EndCol != 6 {
		t.Fatalf("location = %+v", d.Location)
	}
	if len(d.Notes) != 1 || d.Notes[0].Location.StartLine != 1 {
		t.Fatalf("notes = %+v", d.Notes)
	}
}

func TestJSONOmitsNotesUnlessAsked(t *testing.T) {
	f := virtual(t, "j.c", "int a;\n")
	d := diag.New(diag.SevInfo, diag.SemaInfo, source.Span{File: f.ID, Start: 4, End: 5}, "x").
		WithNote(source.Span{File: f.ID, Start: 0, End: 3}, "n")
	out := BuildDiagnosticsOutput(f, []diag.Diagnostic{d}, JSONOpts{})
	if len(out.Diagnostics[0].Notes) != 0 || out.Diagnostics[0].Location.StartLine != 0 {
		t.Fatalf("unexpected detail: %+v", out.Diagnostics[0])
	}
}

func TestFormatTokens(t *testing.T) {
	f := virtual(t, "t.c", "int x;\n")
	toks := lexer.Tokenize(f, lexer.Options{})

	var pretty bytes.Buffer
	if err := FormatTokensPretty(&pretty, toks, f); err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(pretty.Bytes(), []byte(`"x" at 1:5-1:6`)) {
		t.Fatalf("pretty tokens:\n%s", pretty.String())
	}

	var js bytes.Buffer
	if err := FormatTokensJSON(&js, toks); err != nil {
		t.Fatal(err)
	}
	var got []TokenOutput
	if err := json.Unmarshal(js.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != len(toks) || got[len(got)-1].Kind != "EOF" {
		t.Fatalf("json tokens = %+v", got)
	}
}
