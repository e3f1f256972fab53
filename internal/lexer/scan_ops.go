package lexer

import (
	"cnav/internal/token"
)

type punct struct {
	text string
	kind token.Kind
}

// Longest first; digraphs map to the tokens they stand for.
var puncts3 = []punct{
	{"...", token.Ellipsis}, {"<<=", token.ShlAssign}, {">>=", token.ShrAssign},
}

var puncts4 = []punct{{"%:%:", token.HashHash}}

var puncts2 = []punct{
	{"->", token.Arrow}, {"++", token.PlusPlus}, {"--", token.MinusMinus},
	{"<<", token.Shl}, {">>", token.Shr}, {"<=", token.LtEq}, {">=", token.GtEq},
	{"==", token.EqEq}, {"!=", token.BangEq}, {"&&", token.AndAnd}, {"||", token.OrOr},
	{"+=", token.PlusAssign}, {"-=", token.MinusAssign}, {"*=", token.StarAssign},
	{"/=", token.SlashAssign}, {"%=", token.PercentAssign}, {"&=", token.AmpAssign},
	{"|=", token.PipeAssign}, {"^=", token.CaretAssign}, {"##", token.HashHash},
	{"<:", token.LBracket}, {":>", token.RBracket}, {"<%", token.LBrace},
	{"%>", token.RBrace}, {"%:", token.Hash},
}

var puncts1 = map[byte]token.Kind{
	'(': token.LParen, ')': token.RParen, '{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket, ';': token.Semicolon, ',': token.Comma,
	'.': token.Dot, '?': token.Question, ':': token.Colon, '#': token.Hash,
	'+': token.Plus, '-': token.Minus, '*': token.Star, '/': token.Slash,
	'%': token.Percent, '&': token.Amp, '|': token.Pipe, '^': token.Caret,
	'~': token.Tilde, '!': token.Bang, '=': token.Assign, '<': token.Lt, '>': token.Gt,
}

func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: lx.text(sp)}
	}

	for _, set := range [][]punct{puncts4, puncts3, puncts2} {
		for _, p := range set {
			if lx.hasPrefix(p.text) {
				lx.cursor.Off += uint32(len(p.text)) // #nosec G115 -- at most 4
				return emit(p.kind)
			}
		}
	}
	b := lx.cursor.Bump()
	if k, ok := puncts1[b]; ok {
		return emit(k)
	}
	return emit(token.Other)
}

func (lx *Lexer) hasPrefix(s string) bool {
	for i := 0; i < len(s); i++ {
		if lx.cursor.PeekAt(uint32(i)) != s[i] { // #nosec G115 -- at most 4
			return false
		}
	}
	return true
}
