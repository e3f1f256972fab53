package binder

import (
	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// compound parses a braced block and returns the span of its closing brace.
// A function body reuses the function scope instead of opening a new one.
func (b *Binder) compound(newScope bool) source.Span {
	open := b.peek()
	if !b.expect(token.LBrace, diag.SynUnexpectedToken) {
		return open.Span
	}
	var scope symbols.ScopeID
	if newScope {
		scope = b.res.Enter(symbols.ScopeBlock, symbols.NoSymbolID, open.Span)
	}
	for !b.at(token.RBrace) && !b.atEOF() {
		start := b.pos
		b.blockItem()
		if b.pos == start {
			t := b.next()
			b.warnf(diag.SynUnexpectedToken, t, "unexpected '%s'", describe(t))
		}
	}
	end := b.peek().Span
	if !b.expect(token.RBrace, diag.SynExpectRBrace) {
		end = open.Span
	}
	if newScope {
		b.res.Leave(scope)
		b.extendScope(scope, end)
	}
	return end
}

func (b *Binder) extendScope(id symbols.ScopeID, end source.Span) {
	if s := b.table.Scopes.Get(id); s != nil {
		s.Span = s.Span.Cover(end)
	}
}

func (b *Binder) blockItem() {
	switch {
	case b.at(token.KwStaticAssert):
		b.staticAssert()
	case b.at(token.Ident) && b.peekAt(1).Kind == token.Colon:
		b.statement()
	case b.isDeclarationAt(b.pos):
		b.declaration(false)
	default:
		b.statement()
	}
}

func (b *Binder) statement() {
	t := b.peek()
	switch t.Kind {
	case token.LBrace:
		b.compound(true)
	case token.Semicolon:
		b.next()
	case token.KwIf:
		b.next()
		b.parenExpr()
		b.statement()
		if b.accept(token.KwElse) {
			b.statement()
		}
	case token.KwSwitch, token.KwWhile:
		b.next()
		b.parenExpr()
		b.statement()
	case token.KwDo:
		b.next()
		b.statement()
		if !b.expect(token.KwWhile, diag.SynUnexpectedToken) {
			b.recover()
			return
		}
		b.parenExpr()
		b.endStatement()
	case token.KwFor:
		b.forStatement()
	case token.KwGoto:
		b.next()
		switch {
		case b.accept(token.Star):
			b.expression()
		case b.at(token.Ident):
			b.useLabel(b.next())
		default:
			n := b.peek()
			b.warnf(diag.SynExpectIdent, n, "expected label name before '%s'", describe(n))
		}
		b.endStatement()
	case token.KwContinue, token.KwBreak:
		b.next()
		b.endStatement()
	case token.KwReturn:
		b.next()
		if !b.at(token.Semicolon) {
			b.expression()
		}
		b.endStatement()
	case token.KwCase:
		b.next()
		b.conditional()
		if b.accept(token.Ellipsis) {
			b.conditional()
		}
		b.expect(token.Colon, diag.SynExpectColon)
		b.labeled()
	case token.KwDefault:
		b.next()
		b.expect(token.Colon, diag.SynExpectColon)
		b.labeled()
	case token.KwAsm:
		b.skipAttributes()
		b.endStatement()
	case token.KwStaticAssert:
		b.staticAssert()
	case token.Ident:
		if b.peekAt(1).Kind == token.Colon {
			b.declareLabel(b.next())
			b.next()
			b.skipAttributes()
			b.labeled()
			return
		}
		b.expression()
		b.endStatement()
	default:
		b.expression()
		b.endStatement()
	}
}

// labeled parses what follows a label; since C23 that may be a declaration
// or nothing at all before '}'.
func (b *Binder) labeled() {
	if b.at(token.RBrace) {
		return
	}
	b.blockItem()
}

func (b *Binder) parenExpr() {
	if !b.expect(token.LParen, diag.SynUnexpectedToken) {
		return
	}
	b.expression()
	b.expect(token.RParen, diag.SynExpectRParen)
}

func (b *Binder) endStatement() {
	if !b.expect(token.Semicolon, diag.SynExpectSemicolon) {
		b.recover()
	}
}

// forStatement opens a block scope around the whole loop so a declaration
// in the init clause is visible in the body only.
func (b *Binder) forStatement() {
	kw := b.next()
	if !b.expect(token.LParen, diag.SynUnexpectedToken) {
		b.recover()
		return
	}
	scope := b.res.Enter(symbols.ScopeBlock, symbols.NoSymbolID, kw.Span)
	defer b.res.Leave(scope)

	if b.isDeclarationAt(b.pos) {
		b.declaration(false)
	} else {
		if !b.at(token.Semicolon) {
			b.expression()
		}
		b.expect(token.Semicolon, diag.SynExpectSemicolon)
	}
	if !b.at(token.Semicolon) {
		b.expression()
	}
	b.expect(token.Semicolon, diag.SynExpectSemicolon)
	if !b.at(token.RParen) {
		b.expression()
	}
	if !b.expect(token.RParen, diag.SynExpectRParen) {
		b.recover()
		return
	}
	b.statement()
	b.extendScope(scope, b.tokAt(b.pos-1).Span)
}
