package binder

import (
	"slices"

	"cnav/internal/diag"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// initializer parses the value after '=' in a declaration, or the braces of
// a compound literal, binding designators against t.
func (b *Binder) initializer(t symbols.Type) {
	if !b.at(token.LBrace) {
		b.assignment()
		return
	}
	b.next()
	var members []symbols.SymbolID
	if tag, ok := t.Aggregate(); ok {
		members = b.table.Members(tag)
	}
	// idx is the member the next positional initializer lands on; a
	// designator moves it.
	idx := 0
	for !b.at(token.RBrace) && !b.atEOF() {
		start := b.pos
		var elem symbols.Type
		switch {
		case b.at(token.Dot) || b.at(token.LBracket):
			elem = b.designation(t, members, &idx)
		case b.at(token.Ident) && b.peekAt(1).Kind == token.Colon:
			// GNU "member: value"
			name := b.next()
			b.next()
			id, mt := b.bindMember(t, name)
			if i := slices.Index(members, id); id.IsValid() && i >= 0 {
				idx = i
			}
			elem = mt
		default:
			elem = b.positional(t, members, idx)
		}
		b.initializer(elem)
		idx++
		if !b.accept(token.Comma) {
			break
		}
		if b.pos == start {
			b.next()
		}
	}
	if !b.expect(token.RBrace, diag.SynExpectRBrace) && !b.atEOF() {
		b.recoverInitializer()
	}
}

// designation consumes ".a[2].b =" and returns the type being initialized.
func (b *Binder) designation(t symbols.Type, members []symbols.SymbolID, idx *int) symbols.Type {
	cur := t
	first := true
	for {
		switch {
		case b.accept(token.Dot):
			name := b.peek()
			if name.Kind != token.Ident {
				b.warnf(diag.SynExpectIdent, name, "expected member name before '%s'", describe(name))
				return symbols.Unknown
			}
			b.next()
			id, mt := b.bindMember(cur, name)
			if first && id.IsValid() {
				if i := slices.Index(members, id); i >= 0 {
					*idx = i
				}
			}
			cur = mt
		case b.at(token.LBracket):
			b.next()
			b.conditional()
			if b.accept(token.Ellipsis) {
				b.conditional()
			}
			b.expect(token.RBracket, diag.SynExpectRBracket)
			cur = cur.Deref()
		default:
			// '=' may be omitted after an array designator in GNU C
			b.accept(token.Assign)
			return cur
		}
		first = false
	}
}

func (b *Binder) positional(t symbols.Type, members []symbols.SymbolID, idx int) symbols.Type {
	if t.IsPointerLike() {
		return t.Deref()
	}
	if _, ok := t.Aggregate(); ok {
		if idx < len(members) {
			return b.table.Symbols.Get(members[idx]).Type
		}
		return symbols.Unknown
	}
	return t
}

func (b *Binder) recoverInitializer() {
	for !b.atEOF() {
		switch b.peek().Kind {
		case token.RBrace:
			b.next()
			return
		case token.Semicolon:
			return
		case token.LParen, token.LBracket, token.LBrace:
			b.skipGroup()
		default:
			b.next()
		}
	}
}
