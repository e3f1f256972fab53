package lexer_test

import (
	"testing"

	"cnav/internal/diag"
	"cnav/internal/lexer"
	"cnav/internal/source"
	"cnav/internal/token"
)

func lex(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet()
	f := fs.Get(fs.AddVirtual("test.c", []byte(src)))
	bag := diag.NewBag(20)
	toks := lexer.Tokenize(f, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, 0, len(toks))
	for _, tk := range toks {
		out = append(out, tk.Kind)
	}
	return out
}

func TestLexDeclaration(t *testing.T) {
	toks, bag := lex(t, "struct Point { int x; } *p = &pt;")
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	want := []token.Kind{
		token.Ident, token.Ident, token.LBrace, token.Ident, token.Ident, token.Semicolon,
		token.RBrace, token.Star, token.Ident, token.Assign, token.Amp, token.Ident,
		token.Semicolon, token.EOF,
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v (%q)", i, got[i], want[i], toks[i].Text)
		}
	}
	if toks[1].Text != "Point" || toks[1].Span.Start != 7 || toks[1].Span.End != 12 {
		t.Fatalf("Point token = %+v", toks[1])
	}
}

func TestLexOperatorsMaximalMunch(t *testing.T) {
	toks, _ := lex(t, "a->b ... <<= >>= ## %:")
	want := []token.Kind{token.Ident, token.Arrow, token.Ident, token.Ellipsis,
		token.ShlAssign, token.ShrAssign, token.HashHash, token.Hash, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestLexFlags(t *testing.T) {
	src := "#define F(x) x\n  int a;/* c */b \\\n c"
	toks, _ := lex(t, src)
	type exp struct {
		text  string
		bol   bool
		space bool
	}
	want := []exp{
		{"#", true, false}, {"define", false, false}, {"F", false, true},
		{"(", false, false}, {"x", false, false}, {")", false, false}, {"x", false, true},
		{"int", true, true}, {"a", false, true}, {";", false, false},
		{"b", false, true}, {"c", false, true},
	}
	for i, w := range want {
		tk := toks[i]
		if tk.Text != w.text || tk.Has(token.BOL) != w.bol || tk.Has(token.SpaceBefore) != w.space {
			t.Errorf("token %d = %q bol=%v space=%v, want %+v",
				i, tk.Text, tk.Has(token.BOL), tk.Has(token.SpaceBefore), w)
		}
	}
}

func TestLexLiterals(t *testing.T) {
	toks, bag := lex(t, `s = L"wide\"q" + u8'c' + 0x1Fp-3 + 1'000 + .5e+2;`)
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %v", bag.Items())
	}
	var texts []string
	for _, tk := range toks {
		if tk.IsLiteral() {
			texts = append(texts, tk.Text)
		}
	}
	want := []string{`L"wide\"q"`, `u8'c'`, `0x1Fp-3`, `1'000`, `.5e+2`}
	if len(texts) != len(want) {
		t.Fatalf("literals = %q, want %q", texts, want)
	}
	for i := range want {
		if texts[i] != want[i] {
			t.Fatalf("literal %d = %q, want %q", i, texts[i], want[i])
		}
	}
}

func TestLexUnterminatedLiteralIsFlagged(t *testing.T) {
	toks, bag := lex(t, "char *s = \"oops;\nint x;")
	if bag.HasErrors() {
		t.Fatalf("lexer must leave unterminated strings to the preprocessor")
	}
	var found bool
	for _, tk := range toks {
		if tk.Kind == token.StringLit {
			found = true
			if !tk.Has(token.Unterminated) {
				t.Fatalf("string %q not flagged", tk.Text)
			}
		}
		if tk.Text == "int" && !tk.Has(token.BOL) {
			t.Fatalf("line after unterminated string lost BOL")
		}
	}
	if !found {
		t.Fatalf("no string token")
	}
}

func TestLexUnterminatedBlockComment(t *testing.T) {
	toks, bag := lex(t, "int a; /* never closed")
	if !bag.HasErrors() {
		t.Fatalf("expected an error")
	}
	if bag.Items()[0].Code != diag.LexUnterminatedBlockComment {
		t.Fatalf("code = %v", bag.Items()[0].Code)
	}
	if toks[len(toks)-1].Kind != token.EOF {
		t.Fatalf("stream must end with EOF")
	}
}
