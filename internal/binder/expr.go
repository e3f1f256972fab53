package binder

import (
	"strings"

	"cnav/internal/diag"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// Expressions are parsed for their identifiers. The returned type is only
// as precise as member access needs: "p->next->val" must reach the tag of
// next before val can be bound.

var stringType = symbols.Type{Base: symbols.TypeInt, Derivs: []symbols.Deriv{{Kind: symbols.DerivArray}}}

var voidPtrType = symbols.Type{Base: symbols.TypeVoid, Derivs: []symbols.Deriv{{Kind: symbols.DerivPointer}}}

func (b *Binder) expression() symbols.Type {
	t := b.assignment()
	for b.accept(token.Comma) {
		t = b.assignment()
	}
	return t
}

func (b *Binder) assignment() symbols.Type {
	lhs := b.conditional()
	if b.peek().Kind.IsAssign() {
		b.next()
		b.assignment()
	}
	return lhs
}

func (b *Binder) conditional() symbols.Type {
	cond := b.binary()
	if !b.accept(token.Question) {
		return cond
	}
	then := cond // GNU "a ?: b"
	if !b.at(token.Colon) {
		then = b.expression()
	}
	b.expect(token.Colon, diag.SynExpectColon)
	els := b.conditional()
	if then.IsUnknown() {
		return els
	}
	return then
}

// binary folds every infix operator left to right. Precedence does not
// change which names an expression mentions, and the result type only
// matters for pointer arithmetic.
func (b *Binder) binary() symbols.Type {
	t := b.cast()
	for b.peek().Kind.IsBinary() {
		op := b.next().Kind
		rhs := b.cast()
		switch {
		case op.IsComparison():
			t = symbols.IntType
		case op == token.Minus && t.IsPointerLike() && rhs.IsPointerLike():
			t = symbols.IntType
		case t.IsPointerLike():
			t = t.Decay()
		case rhs.IsPointerLike() && op == token.Plus:
			t = rhs.Decay()
		case t.IsUnknown():
			t = rhs
		}
	}
	return t
}

func (b *Binder) cast() symbols.Type {
	if b.at(token.LParen) && b.isTypeNameAt(b.pos+1) {
		b.next()
		t := b.typeName()
		b.expect(token.RParen, diag.SynExpectRParen)
		if b.at(token.LBrace) {
			b.initializer(t)
			return b.postfixOps(t)
		}
		b.cast()
		return t
	}
	return b.unary()
}

func (b *Binder) unary() symbols.Type {
	switch b.peek().Kind {
	case token.PlusPlus, token.MinusMinus:
		b.next()
		return b.unary()
	case token.Amp:
		b.next()
		return b.cast().AddressOf()
	case token.Star:
		b.next()
		return b.cast().Deref()
	case token.Plus, token.Minus, token.Tilde:
		b.next()
		return b.cast()
	case token.Bang:
		b.next()
		b.cast()
		return symbols.IntType
	case token.AndAnd:
		// &&label
		b.next()
		if b.at(token.Ident) {
			b.useLabel(b.next())
		}
		return voidPtrType
	case token.KwSizeof, token.KwAlignof:
		b.next()
		if b.at(token.LParen) && b.isTypeNameAt(b.pos+1) {
			b.next()
			t := b.typeName()
			b.expect(token.RParen, diag.SynExpectRParen)
			if b.at(token.LBrace) {
				b.initializer(t)
				b.postfixOps(t)
			}
		} else {
			b.unary()
		}
		return symbols.IntType
	case token.KwExtension:
		b.next()
		return b.cast()
	}
	return b.postfixOps(b.primary())
}

func (b *Binder) postfixOps(t symbols.Type) symbols.Type {
	for {
		switch b.peek().Kind {
		case token.LBracket:
			b.next()
			idx := b.expression()
			b.expect(token.RBracket, diag.SynExpectRBracket)
			if !t.IsPointerLike() && idx.IsPointerLike() {
				// 2[arr]
				t = idx
			}
			t = t.Deref()
		case token.LParen:
			b.next()
			b.arguments()
			t = t.Call()
		case token.Dot:
			b.next()
			t = b.memberAccess(t)
		case token.Arrow:
			b.next()
			t = b.memberAccess(t.Deref())
		case token.PlusPlus, token.MinusMinus:
			b.next()
		default:
			return t
		}
	}
}

func (b *Binder) arguments() {
	for !b.at(token.RParen) && !b.atEOF() {
		b.assignment()
		if !b.accept(token.Comma) {
			break
		}
	}
	b.expect(token.RParen, diag.SynExpectRParen)
}

func (b *Binder) memberAccess(base symbols.Type) symbols.Type {
	name := b.peek()
	if name.Kind != token.Ident {
		b.warnf(diag.SynExpectIdent, name, "expected member name before '%s'", describe(name))
		return symbols.Unknown
	}
	b.next()
	_, t := b.bindMember(base, name)
	return t
}

// bindMember resolves name as a member of base, which must be a struct or
// union value. Unknown bases stay silent; a complete aggregate without the
// member gets a warning.
func (b *Binder) bindMember(base symbols.Type, name token.Token) (symbols.SymbolID, symbols.Type) {
	tag, ok := base.Aggregate()
	if !ok {
		return symbols.NoSymbolID, symbols.Unknown
	}
	id := b.table.LookupMember(tag, b.intern(name))
	if !id.IsValid() {
		if sym := b.table.Symbols.Get(tag); sym != nil && sym.Members.IsValid() {
			b.warnf(diag.SemaUnknownMember, name, "no member named '%s' in '%s'", name.Text, b.tagName(tag))
		}
		return symbols.NoSymbolID, symbols.Unknown
	}
	b.record(name, id, symbols.RoleUse)
	return id, b.table.Symbols.Get(id).Type
}

func (b *Binder) tagName(tag symbols.SymbolID) string {
	sym := b.table.Symbols.Get(tag)
	if sym == nil {
		return "?"
	}
	kw := "struct"
	if sym.Kind == symbols.SymbolUnionTag {
		kw = "union"
	}
	if sym.Has(symbols.SymbolFlagAnonymous) {
		return kw + " <anonymous>"
	}
	return kw + " " + b.table.Name(tag)
}

func (b *Binder) primary() symbols.Type {
	t := b.peek()
	switch t.Kind {
	case token.Ident:
		if t.Text == "offsetof" && b.peekAt(1).Kind == token.LParen && !b.lookupOrdinary(t).IsValid() {
			b.next()
			b.offsetof()
			return symbols.IntType
		}
		b.next()
		id := b.lookupOrdinary(t)
		sym := b.table.Symbols.Get(id)
		if sym == nil {
			// implicitly declared function or a name from an unseen header
			return symbols.Unknown
		}
		b.record(t, id, symbols.RoleUse)
		if sym.Kind == symbols.SymbolTypedef {
			return symbols.Unknown
		}
		return sym.Type
	case token.Number:
		b.next()
		return numberType(t.Text)
	case token.CharLit:
		b.next()
		return symbols.IntType
	case token.StringLit:
		for b.at(token.StringLit) {
			b.next()
		}
		return stringType
	case token.LParen:
		b.next()
		if b.at(token.LBrace) {
			// GNU statement expression
			b.compound(true)
			b.expect(token.RParen, diag.SynExpectRParen)
			return symbols.Unknown
		}
		inner := b.expression()
		b.expect(token.RParen, diag.SynExpectRParen)
		return inner
	case token.KwGeneric:
		return b.generic()
	case token.KwVaArg:
		b.next()
		if !b.expect(token.LParen, diag.SynUnexpectedToken) {
			return symbols.Unknown
		}
		b.assignment()
		b.expect(token.Comma, diag.SynUnexpectedToken)
		typ := b.typeName()
		b.expect(token.RParen, diag.SynExpectRParen)
		return typ
	case token.KwOffsetof:
		b.next()
		b.offsetof()
		return symbols.IntType
	}
	b.warnf(diag.SynUnexpectedToken, t, "expected expression before '%s'", describe(t))
	return symbols.Unknown
}

func numberType(text string) symbols.Type {
	lower := strings.ToLower(text)
	hex := strings.HasPrefix(lower, "0x")
	if strings.Contains(lower, ".") || (!hex && strings.Contains(lower, "e")) || (hex && strings.Contains(lower, "p")) {
		return symbols.Type{Base: symbols.TypeFloat}
	}
	return symbols.IntType
}

// generic parses _Generic(ctrl, type: expr, ..., default: expr) and takes
// the type of the first association it can follow.
func (b *Binder) generic() symbols.Type {
	b.next()
	if !b.expect(token.LParen, diag.SynUnexpectedToken) {
		return symbols.Unknown
	}
	b.assignment()
	result := symbols.Unknown
	for b.accept(token.Comma) {
		if !b.accept(token.KwDefault) {
			b.typeName()
		}
		b.expect(token.Colon, diag.SynExpectColon)
		if t := b.assignment(); result.IsUnknown() {
			result = t
		}
	}
	b.expect(token.RParen, diag.SynExpectRParen)
	return result
}

// offsetof parses "(type, member.designator[i])" after the keyword, binding
// each member name against the type it walks through.
func (b *Binder) offsetof() {
	if !b.expect(token.LParen, diag.SynUnexpectedToken) {
		return
	}
	t := b.typeName()
	b.expect(token.Comma, diag.SynUnexpectedToken)
	for {
		switch {
		case b.at(token.Ident):
			_, t = b.bindMember(t, b.next())
		case b.accept(token.Dot):
			continue
		case b.at(token.LBracket):
			b.next()
			b.expression()
			b.expect(token.RBracket, diag.SynExpectRBracket)
			t = t.Deref()
		default:
			b.expect(token.RParen, diag.SynExpectRParen)
			return
		}
	}
}
