package binder

import (
	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// Options configures a binding pass.
type Options struct {
	Reporter diag.Reporter
}

// Binder holds the state of one pass over a translation unit.
type Binder struct {
	file  *source.File
	toks  []token.Token
	pos   int
	opts  Options
	table *symbols.Table
	res   *symbols.Resolver
	occ   *symbols.Occurrences

	fn          *labelState // innermost function body, nil at file scope
	eofReported bool
}

// Bind runs the binder over toks, which must end with EOF. Declarations go
// into table (whose file scope already holds the macros) and every bound
// identifier is appended to occ.
func Bind(file *source.File, toks []token.Token, table *symbols.Table, occ *symbols.Occurrences, opts Options) {
	if len(toks) == 0 || toks[len(toks)-1].Kind != token.EOF {
		toks = append(toks, token.Token{Kind: token.EOF, Span: source.Span{File: file.ID}})
	}
	root := table.FileRoot(source.Span{File: file.ID})
	b := &Binder{
		file:  file,
		toks:  toks,
		opts:  opts,
		table: table,
		res:   symbols.NewResolver(table, root, symbols.ResolverOptions{Reporter: opts.Reporter}),
		occ:   occ,
	}
	b.translationUnit()
}

func (b *Binder) translationUnit() {
	for !b.atEOF() {
		start := b.pos
		b.externalDeclaration()
		if b.pos == start {
			t := b.next()
			b.warnf(diag.SynUnexpectedToken, t, "unexpected '%s'", describe(t))
		}
	}
}

func (b *Binder) externalDeclaration() {
	switch b.peek().Kind {
	case token.Semicolon:
		b.next()
	case token.RBrace:
		t := b.next()
		diag.ReportError(b.opts.Reporter, diag.SynStrayRBrace, t.Span, "unmatched '}'").Emit()
	case token.KwStaticAssert:
		b.staticAssert()
	case token.KwAsm:
		// file-scope asm("...");
		b.skipAttributes()
		b.accept(token.Semicolon)
	default:
		b.declaration(true)
	}
}

// record binds a source occurrence. Tokens produced by a macro body have no
// range of their own and are never recorded.
func (b *Binder) record(t token.Token, sym symbols.SymbolID, role symbols.Role) {
	if t.FromSource() {
		b.occ.Add(t.Span, sym, role)
	}
}

func (b *Binder) intern(t token.Token) source.StringID {
	return b.table.Strings.Intern(t.Text)
}

// lookupOrdinary resolves an identifier in the ordinary namespace without
// recording anything.
func (b *Binder) lookupOrdinary(t token.Token) symbols.SymbolID {
	id, ok := b.table.Strings.Find(t.Text)
	if !ok {
		return symbols.NoSymbolID
	}
	return b.res.Lookup(symbols.NSOrdinary, id)
}

// typedefNamed returns the typedef an identifier currently denotes.
func (b *Binder) typedefNamed(t token.Token) (symbols.SymbolID, bool) {
	if t.Kind != token.Ident {
		return symbols.NoSymbolID, false
	}
	id := b.lookupOrdinary(t)
	if sym := b.table.Symbols.Get(id); sym != nil && sym.Kind == symbols.SymbolTypedef {
		return id, true
	}
	return symbols.NoSymbolID, false
}

// declare installs one named declaration and records its declaring occurrence.
func (b *Binder) declare(name token.Token, d symbols.Decl) symbols.DeclResult {
	d.Name = b.intern(name)
	d.Span = name.Span
	if !name.FromSource() {
		d.Flags |= symbols.SymbolFlagExpanded
	}
	res := b.res.Declare(d)
	role := symbols.RoleDecl
	if d.Defining {
		role = symbols.RoleDef
	}
	b.record(name, res.ID, role)
	return res
}

func (b *Binder) atFileScope() bool { return b.res.Depth() == 1 }

func (b *Binder) staticAssert() {
	b.next()
	if !b.expect(token.LParen, diag.SynUnexpectedToken) {
		b.recover()
		return
	}
	b.assignment()
	if b.accept(token.Comma) {
		for b.at(token.StringLit) {
			b.next()
		}
	}
	b.expect(token.RParen, diag.SynExpectRParen)
	b.expect(token.Semicolon, diag.SynExpectSemicolon)
}
