package lexer

import (
	"cnav/internal/token"
)

// scanIdentOrPrefixedLiteral reads a word; L"..", u8'..' and friends become literals.
func (lx *Lexer) scanIdentOrPrefixedLiteral() token.Token {
	start := lx.cursor.Mark()
	for !lx.cursor.EOF() && isIdentContinueByte(lx.cursor.Peek()) {
		lx.cursor.Bump()
	}
	sp := lx.cursor.SpanFrom(start)
	word := lx.text(sp)
	if isLiteralPrefix(word) {
		switch lx.cursor.Peek() {
		case '"':
			return lx.scanQuoted(start, '"', token.StringLit)
		case '\'':
			return lx.scanQuoted(start, '\'', token.CharLit)
		}
	}
	return token.Token{Kind: token.Ident, Span: sp, Text: word}
}
