package binder

import (
	"cnav/internal/diag"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// declSpec is the result of a declaration-specifier sequence.
type declSpec struct {
	storage token.Kind // KwTypedef, KwExtern, KwStatic, ... or Invalid
	typ     symbols.Type
	hasType bool
	any     bool // consumed at least one specifier
}

func (s declSpec) flags() symbols.SymbolFlags {
	switch s.storage {
	case token.KwExtern:
		return symbols.SymbolFlagExtern
	case token.KwStatic:
		return symbols.SymbolFlagStatic
	}
	return 0
}

// declarator is a parsed (possibly abstract) declarator. derivs run from
// the name outward.
type declarator struct {
	name   token.Token
	derivs []symbols.Deriv
	kr     bool // K&R identifier list in the function layer nearest the name
}

func (d declarator) named() bool { return d.name.Kind == token.Ident }

func (d declarator) isFunc() bool {
	return len(d.derivs) > 0 && d.derivs[0].Kind == symbols.DerivFunc
}

func (d declarator) typeOf(base symbols.Type) symbols.Type {
	return base.Derive(d.derivs...)
}

type specContext uint8

const (
	ctxDecl   specContext = iota // block or file scope declaration
	ctxParam                     // parameter declaration
	ctxMember                    // struct/union member
	ctxType                      // type name in a cast, sizeof or compound literal
)

func (b *Binder) declSpecs(ctx specContext) declSpec {
	var s declSpec
	for {
		t := b.peek()
		switch t.Kind {
		case token.KwTypedef, token.KwExtern, token.KwStatic, token.KwAuto, token.KwRegister, token.KwThreadLocal:
			if s.storage == token.Invalid || s.storage == token.KwThreadLocal {
				s.storage = t.Kind
			}
			b.next()
		case token.KwInline, token.KwNoreturn, token.KwConst, token.KwVolatile, token.KwRestrict:
			b.next()
		case token.KwAtomic:
			b.next()
			if b.at(token.LParen) {
				b.next()
				s.typ = b.typeName()
				s.hasType = true
				b.expect(token.RParen, diag.SynExpectRParen)
			}
		case token.KwAttribute, token.KwDeclspec, token.KwAlignas, token.KwExtension:
			b.skipAttributes()
		case token.KwVoid:
			b.next()
			s.typ, s.hasType = symbols.Type{Base: symbols.TypeVoid}, true
		case token.KwFloat, token.KwDouble, token.KwComplex:
			b.next()
			s.typ, s.hasType = symbols.Type{Base: symbols.TypeFloat}, true
		case token.KwChar, token.KwShort, token.KwInt, token.KwLong, token.KwSigned, token.KwUnsigned,
			token.KwBool, token.KwInt128:
			b.next()
			if !s.hasType || s.typ.Base != symbols.TypeFloat {
				s.typ = symbols.IntType
			}
			s.hasType = true
		case token.KwStruct, token.KwUnion, token.KwEnum:
			s.typ, s.hasType = b.tagSpecifier(), true
		case token.KwTypeof:
			s.typ, s.hasType = b.typeofSpecifier(), true
		case token.Ident:
			if s.hasType {
				return s
			}
			if id, ok := b.typedefNamed(t); ok {
				b.next()
				b.record(t, id, symbols.RoleUse)
				s.typ = b.table.Symbols.Get(id).Type
				s.hasType = true
			} else if b.unknownTypeAt(b.pos, ctx) {
				b.next()
				s.typ, s.hasType = symbols.Unknown, true
			} else {
				return s
			}
		default:
			return s
		}
		s.any = true
	}
}

func (b *Binder) typeofSpecifier() symbols.Type {
	b.next()
	if !b.expect(token.LParen, diag.SynUnexpectedToken) {
		return symbols.Unknown
	}
	var t symbols.Type
	if b.isTypeNameAt(b.pos) {
		t = b.typeName()
	} else {
		t = b.expression()
	}
	b.expect(token.RParen, diag.SynExpectRParen)
	return t
}

// typeName parses specifiers plus an abstract declarator.
func (b *Binder) typeName() symbols.Type {
	s := b.declSpecs(ctxType)
	d := b.declarator(true)
	return d.typeOf(s.typ)
}

// declarator parses pointers, an optional name or nested declarator, and
// array and function suffixes. With abstract set the name may be missing.
func (b *Binder) declarator(abstract bool) declarator {
	var pointers []symbols.Deriv
	for b.at(token.Star) || b.at(token.Caret) {
		b.next()
		pointers = append(pointers, symbols.Deriv{Kind: symbols.DerivPointer})
		for b.at(token.KwConst) || b.at(token.KwVolatile) || b.at(token.KwRestrict) || b.at(token.KwAtomic) ||
			b.at(token.KwAttribute) {
			if b.at(token.KwAttribute) {
				b.skipAttributes()
				continue
			}
			b.next()
		}
	}
	b.skipAttributes()

	var d declarator
	switch {
	case b.at(token.Ident):
		d.name = b.next()
	case b.at(token.LParen) && b.nestedDeclaratorAt(b.pos):
		b.next()
		d = b.declarator(abstract)
		b.expect(token.RParen, diag.SynExpectRParen)
	}

	var suffixes []symbols.Deriv
	for {
		switch {
		case b.at(token.LBracket):
			b.arraySuffix()
			suffixes = append(suffixes, symbols.Deriv{Kind: symbols.DerivArray})
			continue
		case b.at(token.LParen):
			params, kr := b.parameterList()
			if len(suffixes) == 0 && len(d.derivs) == 0 {
				d.kr = kr
			}
			suffixes = append(suffixes, symbols.Deriv{Kind: symbols.DerivFunc, Params: params})
			continue
		}
		break
	}

	derivs := make([]symbols.Deriv, 0, len(d.derivs)+len(suffixes)+len(pointers))
	derivs = append(derivs, d.derivs...)
	derivs = append(derivs, suffixes...)
	for i := len(pointers) - 1; i >= 0; i-- {
		derivs = append(derivs, pointers[i])
	}
	d.derivs = derivs
	b.skipAttributes()
	return d
}

// nestedDeclaratorAt decides whether '(' at i opens a nested declarator
// rather than a parameter list.
func (b *Binder) nestedDeclaratorAt(i int) bool {
	t := b.tokAt(i + 1)
	switch t.Kind {
	case token.Star, token.Caret, token.LParen, token.LBracket, token.KwAttribute, token.KwDeclspec:
		return true
	case token.Ident:
		_, isType := b.typedefNamed(t)
		return !isType && !b.unknownTypeAt(i+1, ctxParam)
	}
	return false
}

func (b *Binder) arraySuffix() {
	b.next()
	for b.at(token.KwStatic) || b.at(token.KwConst) || b.at(token.KwVolatile) || b.at(token.KwRestrict) {
		b.next()
	}
	if b.at(token.Star) && b.peekAt(1).Kind == token.RBracket {
		b.next()
	}
	if !b.at(token.RBracket) {
		b.assignment()
	}
	b.expect(token.RBracket, diag.SynExpectRBracket)
}

// parameterList parses "( ... )" into a fresh prototype scope.
func (b *Binder) parameterList() (symbols.ScopeID, bool) {
	open := b.next()
	scope := b.res.Enter(symbols.ScopePrototype, symbols.NoSymbolID, open.Span)
	defer b.res.Leave(scope)

	if b.krListAt(b.pos) {
		for b.at(token.Ident) {
			name := b.next()
			b.declare(name, symbols.Decl{
				Kind:  symbols.SymbolVariable,
				Flags: symbols.SymbolFlagParam | symbols.SymbolFlagUntyped,
			})
			if !b.accept(token.Comma) {
				break
			}
		}
		b.closeParams(scope)
		return scope, true
	}

	for !b.at(token.RParen) && !b.atEOF() {
		if b.accept(token.Ellipsis) {
			continue
		}
		start := b.pos
		s := b.declSpecs(ctxParam)
		d := b.declarator(true)
		if d.named() {
			b.declare(d.name, symbols.Decl{
				Kind:     symbols.SymbolVariable,
				Flags:    symbols.SymbolFlagParam,
				Type:     d.typeOf(s.typ).Decay(),
				Defining: true,
			})
		}
		if b.pos == start {
			t := b.next()
			b.warnf(diag.SynUnexpectedToken, t, "unexpected '%s' in parameter list", describe(t))
		}
		if !b.accept(token.Comma) && !b.at(token.RParen) {
			b.skipToParamEnd()
		}
	}
	b.closeParams(scope)
	return scope, false
}

func (b *Binder) closeParams(scope symbols.ScopeID) {
	if t := b.peek(); t.Kind == token.RParen {
		if s := b.table.Scopes.Get(scope); s != nil {
			s.Span = s.Span.Cover(t.Span)
		}
	}
	b.expect(token.RParen, diag.SynExpectRParen)
}

func (b *Binder) skipToParamEnd() {
	for !b.atEOF() {
		switch b.peek().Kind {
		case token.Comma:
			b.next()
			return
		case token.RParen, token.Semicolon, token.LBrace, token.RBrace:
			return
		case token.LParen, token.LBracket:
			b.skipGroup()
		default:
			b.next()
		}
	}
}

// krListAt reports an identifier list "(a, b, c)" of old-style parameters:
// plain identifiers that do not name types.
func (b *Binder) krListAt(i int) bool {
	if b.tokAt(i).Kind != token.Ident {
		return false
	}
	for {
		t := b.tokAt(i)
		if t.Kind != token.Ident {
			return false
		}
		if _, isType := b.typedefNamed(t); isType {
			return false
		}
		switch b.tokAt(i + 1).Kind {
		case token.Comma:
			i += 2
		case token.RParen:
			return true
		default:
			return false
		}
	}
}

// unknownTypeAt guesses that an identifier nobody declared names a type
// from an unseen header, from the shape around it: "size_t n", "FILE *fp",
// "(size_t)x".
func (b *Binder) unknownTypeAt(i int, ctx specContext) bool {
	t := b.tokAt(i)
	if t.Kind != token.Ident || b.lookupOrdinary(t).IsValid() {
		return false
	}
	j := i + 1
	stars := 0
	for {
		k := b.tokAt(j).Kind
		if k == token.Star {
			stars++
		} else if k != token.KwConst && k != token.KwVolatile && k != token.KwRestrict {
			break
		}
		j++
	}
	after := b.tokAt(j)
	switch ctx {
	case ctxType:
		if after.Kind == token.RParen {
			if stars > 0 {
				return true
			}
			switch b.tokAt(j + 1).Kind {
			case token.Ident, token.Number, token.CharLit, token.StringLit, token.LParen, token.LBrace:
				return true
			}
			return false
		}
		return after.Kind == token.LBracket && stars == 0 && b.tokAt(j+1).Kind == token.RBracket
	case ctxParam:
		switch after.Kind {
		case token.Ident:
			return true
		case token.Comma, token.RParen, token.LBracket, token.LParen:
			return stars > 0 || after.Kind != token.LParen
		}
		return false
	}
	if after.Kind != token.Ident {
		return false
	}
	switch b.tokAt(j + 1).Kind {
	case token.Semicolon, token.Assign, token.Comma, token.LBracket, token.RParen, token.Colon:
		return true
	case token.LParen:
		return stars == 0 || b.atFileScope()
	case token.KwAttribute, token.KwAsm:
		return true
	}
	return false
}

// isTypeNameAt reports whether a type name starts at token i.
func (b *Binder) isTypeNameAt(i int) bool {
	t := b.tokAt(i)
	switch t.Kind {
	case token.KwVoid, token.KwChar, token.KwShort, token.KwInt, token.KwLong, token.KwFloat, token.KwDouble,
		token.KwSigned, token.KwUnsigned, token.KwBool, token.KwComplex, token.KwInt128,
		token.KwStruct, token.KwUnion, token.KwEnum, token.KwTypeof,
		token.KwConst, token.KwVolatile, token.KwRestrict, token.KwAtomic, token.KwAttribute, token.KwAlignas:
		return true
	case token.KwExtension:
		return b.isTypeNameAt(i + 1)
	case token.Ident:
		if _, ok := b.typedefNamed(t); ok {
			return true
		}
		return b.unknownTypeAt(i, ctxType)
	}
	return false
}

// isDeclarationAt reports whether a block item starting at i is a declaration.
func (b *Binder) isDeclarationAt(i int) bool {
	t := b.tokAt(i)
	switch t.Kind {
	case token.KwTypedef, token.KwExtern, token.KwStatic, token.KwAuto, token.KwRegister, token.KwThreadLocal,
		token.KwInline, token.KwNoreturn, token.KwStaticAssert:
		return true
	case token.KwExtension:
		return b.isDeclarationAt(i + 1)
	case token.Ident:
		if b.tokAt(i+1).Kind == token.Colon {
			return false
		}
		if _, ok := b.typedefNamed(t); ok {
			switch b.tokAt(i + 1).Kind {
			case token.Dot, token.Arrow, token.Assign, token.PlusPlus, token.MinusMinus:
				return false
			}
			return true
		}
		return b.unknownTypeAt(i, ctxDecl)
	}
	return b.isTypeNameAt(i)
}

// declaration parses one declaration, or a function definition when
// allowed and the first declarator is followed by a body.
func (b *Binder) declaration(external bool) {
	s := b.declSpecs(ctxDecl)
	if b.accept(token.Semicolon) {
		return
	}
	if !s.any {
		// implicit int: "main() { ... }"
		if !(external && b.at(token.Ident) && b.peekAt(1).Kind == token.LParen) {
			t := b.peek()
			b.warnf(diag.SynUnexpectedToken, t, "expected declaration before '%s'", describe(t))
			b.recover()
			return
		}
		s.typ = symbols.IntType
	}

	first := true
	for {
		d := b.declarator(false)
		if !d.named() {
			t := b.peek()
			b.warnf(diag.SynExpectIdent, t, "expected identifier before '%s'", describe(t))
			b.recover()
			return
		}
		if first && d.isFunc() && s.storage != token.KwTypedef && b.bodyFollows(d) {
			b.functionDefinition(s, d)
			return
		}
		first = false
		typ := d.typeOf(s.typ)
		kind := symbols.SymbolVariable
		switch {
		case s.storage == token.KwTypedef:
			kind = symbols.SymbolTypedef
		case d.isFunc():
			kind = symbols.SymbolFunction
		}
		init := b.at(token.Assign)
		defining := false
		switch kind {
		case symbols.SymbolTypedef:
			defining = true
		case symbols.SymbolVariable:
			defining = init || (!b.atFileScope() && s.storage != token.KwExtern)
		}
		b.declare(d.name, symbols.Decl{
			Kind:     kind,
			Flags:    s.flags(),
			Type:     typ,
			Defining: defining,
		})
		if init {
			b.next()
			b.initializer(typ)
		}
		if b.accept(token.Comma) {
			continue
		}
		if !b.expect(token.Semicolon, diag.SynExpectSemicolon) {
			b.recover()
		}
		return
	}
}

// bodyFollows reports a function body, possibly preceded by K&R parameter
// declarations.
func (b *Binder) bodyFollows(d declarator) bool {
	if b.at(token.LBrace) {
		return true
	}
	return d.kr && b.isDeclarationAt(b.pos)
}

func (b *Binder) functionDefinition(s declSpec, d declarator) {
	typ := d.typeOf(s.typ)
	res := b.declare(d.name, symbols.Decl{
		Kind:     symbols.SymbolFunction,
		Flags:    s.flags(),
		Type:     typ,
		Defining: true,
	})
	params := d.derivs[0].Params

	if d.kr {
		b.res.Reenter(params)
		for !b.at(token.LBrace) && !b.atEOF() {
			start := b.pos
			b.declaration(false)
			if b.pos == start {
				b.next()
			}
		}
		b.res.Leave(params)
	}

	if scope := b.table.Scopes.Get(params); scope != nil {
		scope.Kind = symbols.ScopeFunction
		scope.Owner = res.ID
	}
	b.res.Reenter(params)
	saved := b.fn
	b.fn = &labelState{scope: params}
	end := b.compound(false)
	b.finishLabels()
	b.fn = saved
	b.res.Leave(params)
	if scope := b.table.Scopes.Get(params); scope != nil {
		scope.Span = scope.Span.Cover(end)
	}
}
