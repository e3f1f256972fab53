package index

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/symbols"
)

func build(t *testing.T, src string, opts BuildOptions) *Index {
	t.Helper()
	opts.Validate = true
	ix, bag, err := BuildText(context.Background(), "unit.c", []byte(src), opts)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if bag.HasErrors() {
		t.Fatalf("unexpected errors: %v", bag.Errors())
	}
	return ix
}

func isWordByte(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}

// word returns the offset of the nth (0-based) whole-word occurrence.
func word(t *testing.T, src, w string, nth int) uint32 {
	t.Helper()
	from := 0
	for {
		i := strings.Index(src[from:], w)
		if i < 0 {
			t.Fatalf("no occurrence %d of %q", nth, w)
		}
		i += from
		end := i + len(w)
		if (i == 0 || !isWordByte(src[i-1])) && (end == len(src) || !isWordByte(src[end])) {
			if nth == 0 {
				return uint32(i) // #nosec G115 -- test sources are small
			}
			nth--
		}
		from = i + 1
	}
}

func texts(ix *Index, spans []source.Span) []string {
	out := make([]string, len(spans))
	for i, sp := range spans {
		out[i] = ix.Text(sp)
	}
	return out
}

func TestEnumUnionScenario(t *testing.T) {
	src := "enum Color{RED,BLUE}; union Data{int i; float f;}; int main(){enum Color c=BLUE; union Data d; d.i=10;}"
	ix := build(t, src, BuildOptions{})

	def, err := ix.DefinitionAt(word(t, src, "BLUE", 1))
	if err != nil {
		t.Fatalf("BLUE: %v", err)
	}
	if def.Start != word(t, src, "BLUE", 0) || ix.Text(def) != "BLUE" {
		t.Fatalf("BLUE definition = %v", def)
	}

	def, err = ix.DefinitionAt(word(t, src, "i", 1))
	if err != nil {
		t.Fatalf("d.i: %v", err)
	}
	if def.Start != word(t, src, "i", 0) {
		t.Fatalf("d.i definition = %v, want the member of union Data", def)
	}
	sym := ix.Symbol(ix.Occurrences[0].Symbol)
	if sym == nil || sym.Kind != symbols.SymbolEnumTag || sym.Name != "Color" {
		t.Fatalf("first occurrence = %+v", sym)
	}
}

func TestNestedMemberScenario(t *testing.T) {
	src := `struct Inner{int val;}; struct Outer{struct Inner inner;};
int main(void) {
	struct Outer out;
	out.inner.val = 5;
	out.inner.val = 10;
	return 0;
}
`
	ix := build(t, src, BuildOptions{})
	for _, tc := range []struct {
		word     string
		use, def int
	}{
		{"inner", 1, 0},
		{"inner", 2, 0},
		{"val", 1, 0},
		{"val", 2, 0},
		{"out", 1, 0},
	} {
		got, err := ix.DefinitionAt(word(t, src, tc.word, tc.use))
		if err != nil {
			t.Fatalf("%s #%d: %v", tc.word, tc.use, err)
		}
		if want := word(t, src, tc.word, tc.def); got.Start != want {
			t.Fatalf("%s #%d resolved to %d, want %d", tc.word, tc.use, got.Start, want)
		}
	}
	refs, err := ix.ReferencesAt(word(t, src, "val", 0), true)
	if err != nil || len(refs) != 3 {
		t.Fatalf("val references = %v, %v", refs, err)
	}
}

func TestMemberNamespacesAreIsolated(t *testing.T) {
	src := `struct Point { int x; int y; };
struct Rect { int x; int w; };
void move(struct Point *p, struct Rect *r) {
	p->x = r->x;
	p->x += 1;
}
`
	ix := build(t, src, BuildOptions{})
	refs, err := ix.ReferencesAt(word(t, src, "x", 0), true)
	if err != nil {
		t.Fatalf("references: %v", err)
	}
	want := []uint32{word(t, src, "x", 0), word(t, src, "x", 2), word(t, src, "x", 4)}
	if len(refs) != len(want) {
		t.Fatalf("Point.x references = %v", refs)
	}
	for i, sp := range refs {
		if sp.Start != want[i] {
			t.Fatalf("reference %d at %d, want %d", i, sp.Start, want[i])
		}
	}
	uses, _ := ix.ReferencesAt(word(t, src, "x", 3), false)
	if len(uses) != 1 || uses[0].Start != word(t, src, "x", 3) {
		t.Fatalf("Rect.x uses = %v", uses)
	}
}

func TestShadowedReferencesStayInTheirBlock(t *testing.T) {
	src := `int level = 0;
int f(void) {
	int level = 1;
	{
		int level = 2;
		level++;
	}
	return level;
}
int g(void) { return level; }
`
	ix := build(t, src, BuildOptions{})
	cases := []struct {
		decl int
		want []int
	}{
		{0, []int{0, 5}},
		{1, []int{1, 4}},
		{2, []int{2, 3}},
	}
	for _, tc := range cases {
		refs, err := ix.ReferencesAt(word(t, src, "level", tc.decl), true)
		if err != nil {
			t.Fatalf("level #%d: %v", tc.decl, err)
		}
		if len(refs) != len(tc.want) {
			t.Fatalf("level #%d references = %v", tc.decl, refs)
		}
		for i, n := range tc.want {
			if refs[i].Start != word(t, src, "level", n) {
				t.Fatalf("level #%d reference %d at %d, want occurrence %d", tc.decl, i, refs[i].Start, n)
			}
		}
	}
}

func TestMacroGuardsAndValuesShareReferences(t *testing.T) {
	src := `#define MY_MACRO 1
#ifdef MY_MACRO
int v = MY_MACRO;
#endif
#if defined(MY_MACRO) && MY_MACRO > 0
int w;
#endif
`
	ix := build(t, src, BuildOptions{})
	refs, err := ix.ReferencesAt(word(t, src, "MY_MACRO", 2), true)
	if err != nil {
		t.Fatalf("references: %v", err)
	}
	if len(refs) != 5 {
		t.Fatalf("MY_MACRO references = %v", texts(ix, refs))
	}
	def, err := ix.DefinitionAt(word(t, src, "MY_MACRO", 1))
	if err != nil || def.Start != word(t, src, "MY_MACRO", 0) {
		t.Fatalf("guard definition = %v, %v", def, err)
	}
}

func TestCommandLineMacroHasNoDefinition(t *testing.T) {
	src := "int table[LIMIT];\n"
	ix := build(t, src, BuildOptions{Defines: []string{"LIMIT=4"}})
	off := word(t, src, "LIMIT", 0)
	if _, err := ix.DefinitionAt(off); !errors.Is(err, ErrNotFound) {
		t.Fatalf("definition err = %v, want ErrNotFound", err)
	}
	refs, err := ix.ReferencesAt(off, true)
	if err != nil || len(refs) != 1 {
		t.Fatalf("references = %v, %v", refs, err)
	}
}

func TestUnresolvedIsNotFound(t *testing.T) {
	src := "int f(void) { return undeclared + 1; }\n"
	ix := build(t, src, BuildOptions{})
	if _, err := ix.DefinitionAt(word(t, src, "undeclared", 0)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
	if _, err := ix.ReferencesAt(word(t, src, "return", 0), true); !errors.Is(err, ErrNotFound) {
		t.Fatalf("keyword err = %v", err)
	}
}

func TestOffsetOffIdentifierIsNotFound(t *testing.T) {
	src := "struct s { int m; } a;\nint get(void) { return a.m + 1; }\n"
	ix := build(t, src, BuildOptions{})
	dot := word(t, src, "a", 1) + 1
	plus := word(t, src, "m", 1) + 2
	end := word(t, src, "m", 1) + 1
	for name, off := range map[string]uint32{"dot": dot, "plus": plus, "space after member": end} {
		if def, err := ix.DefinitionAt(off); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: definition = %v, %v; want ErrNotFound", name, def, err)
		}
		if refs, err := ix.ReferencesAt(off, true); !errors.Is(err, ErrNotFound) {
			t.Fatalf("%s: references = %v, %v; want ErrNotFound", name, refs, err)
		}
	}
	def, err := ix.DefinitionAt(word(t, src, "m", 1))
	if err != nil || def.Start != word(t, src, "m", 0) {
		t.Fatalf("member definition = %v, %v", def, err)
	}
}

func TestMacroInvocationIsNarrowest(t *testing.T) {
	src := "#define MAX(a, b) ((a) > (b) ? (a) : (b))\nint hi(int x, int y) { return MAX(x, y); }\n"
	ix := build(t, src, BuildOptions{})
	def, err := ix.DefinitionAt(word(t, src, "y", 1))
	if err != nil || def.Start != word(t, src, "y", 0) {
		t.Fatalf("argument definition = %v, %v", def, err)
	}
	def, err = ix.DefinitionAt(word(t, src, "MAX", 1) + 1)
	if err != nil || def.Start != word(t, src, "MAX", 0) {
		t.Fatalf("macro definition = %v, %v", def, err)
	}
	// the comma lies inside the invocation only
	comma := word(t, src, "x", 1) + 1
	def, err = ix.DefinitionAt(comma + 1)
	if err != nil || ix.Text(def) != "MAX" {
		t.Fatalf("inside invocation = %v, %v", def, err)
	}
}

func TestCoordinates(t *testing.T) {
	src := "int alpha;\nint beta(void) { return alpha; }\n"
	ix := build(t, src, BuildOptions{})
	tests := []struct {
		base int
		pos  Position
		want Range
	}{
		{0, Position{Line: 1, Col: 24}, Range{Line: 0, StartCol: 4, EndLine: 0, EndCol: 9}},
		{1, Position{Line: 2, Col: 25}, Range{Line: 1, StartCol: 5, EndLine: 1, EndCol: 10}},
	}
	for _, tt := range tests {
		got, err := ix.Definition(Coords{Base: tt.base}, tt.pos)
		if err != nil {
			t.Fatalf("base %d: %v", tt.base, err)
		}
		if got != tt.want {
			t.Fatalf("base %d: got %v, want %v", tt.base, got, tt.want)
		}
	}
	refs, err := ix.References(Coords{Base: 1}, Position{Line: 1, Col: 5}, true)
	if err != nil || len(refs) != 2 || refs[1].Line != 2 {
		t.Fatalf("references = %v, %v", refs, err)
	}
	if _, err := ix.Definition(Coords{Base: 1}, Position{Line: 0, Col: 1}); err == nil {
		t.Fatalf("line 0 is outside base 1 coordinates")
	}
}

func TestRebuildIsIdempotent(t *testing.T) {
	src := `#define WRAP(v) ((v) + 1)
typedef struct node { int val; struct node *next; } node_t;
int sum(node_t *n) {
	int total = 0;
	for (; n; n = n->next)
		total += WRAP(n->val);
	return total;
}
`
	a := build(t, src, BuildOptions{})
	b := build(t, src, BuildOptions{})
	if !reflect.DeepEqual(a.Bindings(), b.Bindings()) {
		t.Fatalf("bindings differ between builds")
	}
	if len(a.Bindings()) == 0 {
		t.Fatalf("no bindings")
	}
}

func TestStructuralErrorsAbortTheBuild(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unterminated comment", "int a; /* never closed\n", diag.LexUnterminatedBlockComment},
		{"unterminated string", "const char *s = \"open;\n", diag.LexUnterminatedString},
		{"unbalanced braces", "int f(void) {\n", diag.SynUnclosedBrace},
		{"unterminated conditional", "#ifdef X\nint a;\n", diag.PPUnterminatedCond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix, bag, err := BuildText(context.Background(), "bad.c", []byte(tt.src), BuildOptions{})
			var be *BuildError
			if !errors.As(err, &be) {
				t.Fatalf("err = %v, want *BuildError", err)
			}
			if ix != nil {
				t.Fatalf("failed build returned an index")
			}
			if !bag.HasErrors() || be.Diagnostics[0].Code != tt.code {
				t.Fatalf("diagnostics = %v, want %s", be.Diagnostics, tt.code.ID())
			}
		})
	}
}

func TestConflictsAreSoft(t *testing.T) {
	src := "typedef int handle;\nint handle;\nhandle h;\n"
	ix := build(t, src, BuildOptions{})
	if len(ix.Diagnostics) == 0 || ix.Diagnostics[0].Code != diag.SemaConflictingKinds {
		t.Fatalf("diagnostics = %v", ix.Diagnostics)
	}
	def, err := ix.DefinitionAt(word(t, src, "handle", 2))
	if err != nil || def.Start != word(t, src, "handle", 0) {
		t.Fatalf("earlier declaration must stay authoritative: %v, %v", def, err)
	}
}

func TestCodecRoundTrip(t *testing.T) {
	src := "struct P { int x; };\nint get(struct P *p) { return p->x; }\n"
	ix := build(t, src, BuildOptions{Defines: []string{"DEBUG"}})
	var buf bytes.Buffer
	if err := ix.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !reflect.DeepEqual(ix.Bindings(), back.Bindings()) {
		t.Fatalf("bindings changed across the codec")
	}
	def, err := back.DefinitionAt(word(t, src, "x", 1))
	if err != nil || def.Start != word(t, src, "x", 0) {
		t.Fatalf("decoded definition = %v, %v", def, err)
	}
	if len(back.Defines) != 1 || back.Defines[0] != "DEBUG" {
		t.Fatalf("defines = %v", back.Defines)
	}
}
