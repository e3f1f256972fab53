package lexer

import (
	"cnav/internal/token"
)

// scanNumber reads a pp-number: digits, letters, '_', '.', digit separators
// and signed exponents (e+, E-, p+, P-).
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case (b == 'e' || b == 'E' || b == 'p' || b == 'P') &&
			(lx.cursor.PeekAt(1) == '+' || lx.cursor.PeekAt(1) == '-'):
			lx.cursor.Off += 2
		case b == '\'' && isIdentContinueByte(lx.cursor.PeekAt(1)):
			lx.cursor.Off += 2
		case isIdentContinueByte(b) || b == '.':
			lx.cursor.Bump()
		default:
			sp := lx.cursor.SpanFrom(start)
			return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
		}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: token.Number, Span: sp, Text: lx.text(sp)}
}
