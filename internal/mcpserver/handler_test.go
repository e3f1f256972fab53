package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"cnav/internal/index"
	"cnav/internal/workspace"
)

const sample = `#define LIMIT 4
struct point { int x; int y; };
int area(struct point *p) {
    return p->x * p->y * LIMIT;
}
`

func setup(t *testing.T) (*Handler, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.c")
	if err := os.WriteFile(path, []byte(sample), 0o600); err != nil {
		t.Fatal(err)
	}
	ws := workspace.New(workspace.Options{Coords: index.Coords{Base: 1}})
	return NewHandler(ws), path
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func TestDefinitionFollowsMember(t *testing.T) {
	h, path := setup(t)
	// "x" in p->x on line 4
	res, err := h.Definition(context.Background(), call(map[string]any{
		"file": path, "line": 4, "column": 15,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}
	loc, ok := res.StructuredContent.(Location)
	if !ok {
		t.Fatalf("structured content %T", res.StructuredContent)
	}
	if loc.Line != 2 || loc.Column != 20 || loc.Text != "x" {
		t.Fatalf("definition = %+v, want line 2 col 20", loc)
	}
}

func TestReferencesOfMacro(t *testing.T) {
	h, path := setup(t)
	for _, tt := range []struct {
		include bool
		want    int
	}{
		{true, 2},
		{false, 1},
	} {
		res, err := h.References(context.Background(), call(map[string]any{
			"file": path, "line": 1, "column": 9, "include_declaration": tt.include,
		}))
		if err != nil {
			t.Fatal(err)
		}
		refs, ok := res.StructuredContent.(referencesResult)
		if !ok {
			t.Fatalf("structured content %T", res.StructuredContent)
		}
		if len(refs.References) != tt.want {
			t.Fatalf("include=%v: got %d refs, want %d", tt.include, len(refs.References), tt.want)
		}
		for _, r := range refs.References {
			if r.Text != "LIMIT" {
				t.Fatalf("reference text %q", r.Text)
			}
		}
	}
}

func TestSymbolsListsDeclarations(t *testing.T) {
	h, path := setup(t)
	res, err := h.Symbols(context.Background(), call(map[string]any{"file": path}))
	if err != nil {
		t.Fatal(err)
	}
	syms, ok := res.StructuredContent.(symbolsResult)
	if !ok {
		t.Fatalf("structured content %T", res.StructuredContent)
	}
	kinds := make(map[string]string)
	for _, s := range syms.Symbols {
		kinds[s.Name] = s.Kind
	}
	for name, kind := range map[string]string{
		"LIMIT": "macro-object",
		"point": "struct-tag",
		"x":     "struct-member",
		"area":  "function",
		"p":     "variable",
	} {
		if kinds[name] != kind {
			t.Fatalf("symbol %s kind %q, want %q (all: %v)", name, kinds[name], kind, kinds)
		}
	}
	if syms.Symbols[0].Name != "LIMIT" {
		t.Fatalf("symbols not in source order: %+v", syms.Symbols[0])
	}
}

func TestToolErrors(t *testing.T) {
	h, path := setup(t)
	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"missing file", map[string]any{"line": 1, "column": 1}, "file"},
		{"missing line", map[string]any{"file": path, "column": 1}, "line"},
		{"unreadable", map[string]any{"file": path + ".nope", "line": 1, "column": 1}, "cannot index"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := h.Definition(context.Background(), call(tt.args))
			if err != nil {
				t.Fatal(err)
			}
			if !res.IsError {
				t.Fatalf("expected tool error, got %+v", res)
			}
			text, _ := mcp.AsTextContent(res.Content[0])
			if text == nil || !strings.Contains(text.Text, tt.want) {
				t.Fatalf("error content %+v does not mention %q", res.Content, tt.want)
			}
		})
	}
}

func TestNoSymbolAtPosition(t *testing.T) {
	h, path := setup(t)
	res, err := h.Definition(context.Background(), call(map[string]any{
		"file": path, "line": 4, "column": 5,
	}))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsError {
		t.Fatalf("unexpected error result")
	}
	text, _ := mcp.AsTextContent(res.Content[0])
	if text == nil || text.Text != "no definition found" {
		t.Fatalf("content = %+v", res.Content)
	}
}

func TestServerRegistersTools(t *testing.T) {
	h, _ := setup(t)
	s := New(h)
	for _, name := range []string{"definition", "references", "symbols"} {
		if s.GetTool(name) == nil {
			t.Fatalf("tool %s not registered", name)
		}
	}
}
