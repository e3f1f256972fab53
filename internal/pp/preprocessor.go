package pp

import (
	"fmt"

	"fortio.org/safecast"

	"cnav/internal/diag"
	"cnav/internal/lexer"
	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// Options configures one preprocessing run.
type Options struct {
	Reporter diag.Reporter
	// Table receives macro symbols; nil allocates a private table.
	Table *symbols.Table
	// Occurrences receives macro name occurrences; nil discards them.
	Occurrences *symbols.Occurrences
	// Defines are -D arguments: NAME, NAME=VALUE or NAME(args)=BODY.
	Defines []string
	// Undefines are -U arguments, applied after Defines.
	Undefines []string
}

// Preprocessor expands one translation unit.
type Preprocessor struct {
	file   *source.File
	lx     *lexer.Lexer
	opts   Options
	table  *symbols.Table
	occ    *symbols.Occurrences
	macros map[string]*Macro
	cond   condStack
	main   *expander
	out    []token.Token
}

func New(file *source.File, opts Options) *Preprocessor {
	table := opts.Table
	if table == nil {
		table = symbols.NewTable(symbols.Hints{}, nil)
	}
	occ := opts.Occurrences
	if occ == nil {
		occ = &symbols.Occurrences{}
	}
	p := &Preprocessor{
		file:   file,
		lx:     lexer.New(file, lexer.Options{Reporter: opts.Reporter}),
		opts:   opts,
		table:  table,
		occ:    occ,
		macros: make(map[string]*Macro),
	}
	p.main = &expander{pp: p, fromLexer: true}
	end, err := safecast.Conv[uint32](len(file.Content))
	if err != nil {
		panic(fmt.Errorf("file content too large: %w", err))
	}
	table.FileRoot(source.Span{File: file.ID, End: end})
	return p
}

// Run preprocesses the whole file and returns classified tokens ending in EOF.
func (p *Preprocessor) Run() []token.Token {
	p.applyCommandLine()
	p.out = make([]token.Token, 0, len(p.file.Content)/4+1)
	e := p.main
	for {
		t := e.next()
		if t.Kind == token.EOF {
			p.out = append(p.out, t.Token)
			return p.out
		}
		if t.IsWord() {
			if t.Text == "_Pragma" && e.skipPragmaOperator() {
				continue
			}
			if e.tryExpand(&t) {
				continue
			}
		}
		e.last = t.Kind
		p.out = append(p.out, token.Classify(t.Token))
	}
}

// Preprocess is New(file, opts).Run().
func Preprocess(file *source.File, opts Options) []token.Token {
	return New(file, opts).Run()
}

// Macro returns the active definition of name.
func (p *Preprocessor) Macro(name string) (*Macro, bool) {
	m, ok := p.macros[name]
	return m, ok
}

// Table returns the table macro symbols were declared in.
func (p *Preprocessor) Table() *symbols.Table { return p.table }

// lexNext returns the next source token of an active region. Directives are
// executed on the way and skipped regions are dropped.
func (p *Preprocessor) lexNext() ptok {
	for {
		t := p.lx.Next()
		if t.Kind == token.EOF {
			if p.cond.Depth() > 0 {
				diag.ReportError(p.opts.Reporter, diag.PPUnterminatedCond, p.cond.Unclosed(),
					"unterminated conditional directive").Emit()
				p.cond = condStack{}
			}
			return ptok{Token: t}
		}
		if t.Has(token.BOL) && t.Kind == token.Hash {
			p.directive(t)
			continue
		}
		if !p.cond.Active() {
			continue
		}
		p.checkLiteral(t)
		return ptok{Token: t}
	}
}

// checkLiteral reports unterminated literals that survive into an active region.
func (p *Preprocessor) checkLiteral(t token.Token) {
	if !t.Has(token.Unterminated) {
		return
	}
	code, what := diag.LexUnterminatedString, "string literal"
	if t.Kind == token.CharLit {
		code, what = diag.LexUnterminatedChar, "character constant"
	}
	diag.ReportError(p.opts.Reporter, code, t.Span, "unterminated "+what).Emit()
}

// lineTokens reads the rest of the current logical line.
func (p *Preprocessor) lineTokens() []token.Token {
	var out []token.Token
	for {
		t := p.lx.Peek()
		if t.Kind == token.EOF || t.Has(token.BOL) {
			return out
		}
		out = append(out, p.lx.Next())
	}
}

func (p *Preprocessor) warn(code diag.Code, sp source.Span, msg string) {
	diag.ReportWarning(p.opts.Reporter, code, sp, msg).Emit()
}

// recordUse binds a source occurrence of a macro name.
func (p *Preprocessor) recordUse(sp source.Span, m *Macro) {
	if m != nil {
		p.occ.Add(sp, m.Symbol, symbols.RoleUse)
	}
}
