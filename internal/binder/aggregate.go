package binder

import (
	"cnav/internal/diag"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

func tagKind(k token.Kind) symbols.SymbolKind {
	switch k {
	case token.KwUnion:
		return symbols.SymbolUnionTag
	case token.KwEnum:
		return symbols.SymbolEnumTag
	}
	return symbols.SymbolStructTag
}

// tagSpecifier parses struct, union and enum specifiers. A body defines the
// tag in the current scope; "struct S;" declares it there; any other mention
// refers to the visible tag or implicitly declares one.
func (b *Binder) tagSpecifier() symbols.Type {
	kw := b.next()
	kind := tagKind(kw.Kind)
	b.skipAttributes()
	var name token.Token
	if b.at(token.Ident) {
		name = b.next()
	}
	b.skipAttributes()
	if kind == symbols.SymbolEnumTag && b.at(token.Colon) {
		b.next()
		b.typeName()
	}
	hasBody := b.at(token.LBrace)

	var tag symbols.SymbolID
	switch {
	case name.Kind != token.Ident:
		if !hasBody {
			b.warnf(diag.SynExpectIdent, b.peek(), "expected tag name or '{' after '%s'", kw.Text)
			return symbols.Unknown
		}
		tag = b.res.Declare(symbols.Decl{
			Kind:     kind,
			Span:     kw.Span,
			Flags:    symbols.SymbolFlagAnonymous,
			Defining: true,
		}).ID
	case hasBody:
		tag = b.declare(name, symbols.Decl{Kind: kind, Defining: true}).ID
	case b.at(token.Semicolon):
		tag = b.declare(name, symbols.Decl{Kind: kind}).ID
	default:
		tag = b.tagReference(name, kind)
	}

	if hasBody {
		if kind == symbols.SymbolEnumTag {
			b.enumBody()
		} else {
			b.memberList(tag)
		}
	}
	return symbols.TagType(tag)
}

func (b *Binder) tagReference(name token.Token, kind symbols.SymbolKind) symbols.SymbolID {
	id := b.res.Lookup(symbols.NSTag, b.intern(name))
	if id.IsValid() {
		b.record(name, id, symbols.RoleUse)
		return id
	}
	return b.declare(name, symbols.Decl{
		Kind:  kind,
		Scope: b.implicitTagScope(),
		Flags: symbols.SymbolFlagImplicit,
	}).ID
}

// implicitTagScope is where a tag first mentioned without a declaration
// lands: the innermost scope that is not a parameter list.
func (b *Binder) implicitTagScope() symbols.ScopeID {
	id := b.res.CurrentScope()
	for {
		s := b.table.Scopes.Get(id)
		if s == nil || s.Kind != symbols.ScopePrototype || !s.Parent.IsValid() {
			return id
		}
		id = s.Parent
	}
}

func (b *Binder) memberList(tag symbols.SymbolID) {
	open := b.next()
	ms := b.res.NewMemberScope(tag, open.Span)
	memberKind := symbols.SymbolStructMember
	if sym := b.table.Symbols.Get(tag); sym != nil && sym.Kind == symbols.SymbolUnionTag {
		memberKind = symbols.SymbolUnionMember
	}

	for !b.at(token.RBrace) && !b.atEOF() {
		start := b.pos
		switch {
		case b.at(token.KwStaticAssert):
			b.staticAssert()
			continue
		case b.accept(token.Semicolon):
			continue
		}
		s := b.declSpecs(ctxMember)
		if b.accept(token.Semicolon) {
			b.embedAnonymous(ms, s.typ)
			continue
		}
		for {
			d := b.declarator(false)
			if d.named() {
				b.declare(d.name, symbols.Decl{
					Kind:     memberKind,
					Scope:    ms,
					Owner:    tag,
					Type:     d.typeOf(s.typ),
					Defining: true,
				})
			}
			if b.accept(token.Colon) {
				b.conditional()
			}
			b.skipAttributes()
			if !b.accept(token.Comma) {
				break
			}
		}
		if !b.expect(token.Semicolon, diag.SynExpectSemicolon) {
			b.recover()
		}
		if b.pos == start {
			b.next()
		}
	}
	end := b.peek().Span
	if b.expect(token.RBrace, diag.SynExpectRBrace) {
		if s := b.table.Scopes.Get(ms); s != nil {
			s.Span = s.Span.Cover(end)
		}
	}
}

// embedAnonymous makes the members of an anonymous struct or union member
// reachable through the enclosing aggregate.
func (b *Binder) embedAnonymous(ms symbols.ScopeID, typ symbols.Type) {
	inner, ok := typ.Aggregate()
	if !ok {
		return
	}
	sym := b.table.Symbols.Get(inner)
	if sym == nil || !sym.Has(symbols.SymbolFlagAnonymous) || !sym.Members.IsValid() {
		return
	}
	if s := b.table.Scopes.Get(ms); s != nil {
		s.Embedded = append(s.Embedded, sym.Members)
	}
}

// enumBody declares enumeration constants in the ordinary namespace of the
// enclosing scope; each is visible from the end of its own enumerator.
// A malformed list resyncs to the enum's own '}' so the braces stay paired.
func (b *Binder) enumBody() {
	b.next()
	for !b.at(token.RBrace) && !b.atEOF() {
		if !b.at(token.Ident) {
			t := b.peek()
			b.warnf(diag.SynExpectIdent, t, "expected enumerator name before '%s'", describe(t))
			if !b.skipEnumerator() {
				b.skipToRBrace()
				break
			}
			continue
		}
		name := b.next()
		b.skipAttributes()
		if b.accept(token.Assign) {
			b.conditional()
		}
		b.declare(name, symbols.Decl{
			Kind:     symbols.SymbolEnumConstant,
			Type:     symbols.IntType,
			Defining: true,
		})
		if b.accept(token.Comma) || b.at(token.RBrace) || b.atEOF() {
			continue
		}
		t := b.peek()
		b.warnf(diag.SynUnexpectedToken, t, "expected ',' or '}' before '%s'", describe(t))
		if t.Kind == token.Ident {
			// missing comma: the next enumerator still binds
			continue
		}
		b.skipToRBrace()
		break
	}
	b.expect(token.RBrace, diag.SynExpectRBrace)
}

// skipEnumerator drops one malformed enumerator. It reports whether it
// consumed the separating comma.
func (b *Binder) skipEnumerator() bool {
	for !b.atEOF() {
		switch b.peek().Kind {
		case token.Comma:
			b.next()
			return true
		case token.RBrace, token.Semicolon:
			return false
		case token.LParen, token.LBracket, token.LBrace:
			b.skipGroup()
		default:
			b.next()
		}
	}
	return false
}

// skipToRBrace advances to the '}' closing the current brace level without
// consuming it.
func (b *Binder) skipToRBrace() {
	for !b.atEOF() && !b.at(token.RBrace) {
		switch b.peek().Kind {
		case token.LParen, token.LBracket, token.LBrace:
			b.skipGroup()
		default:
			b.next()
		}
	}
}
