package lexer

import (
	"cnav/internal/token"
)

// scanQuoted reads a string or character literal whose opening quote is at
// the cursor; start may sit earlier to include an encoding prefix.
// A literal cut by a newline or EOF is returned with the Unterminated flag;
// whether that is fatal depends on the preprocessor region it lands in.
func (lx *Lexer) scanQuoted(start Mark, quote byte, kind token.Kind) token.Token {
	lx.cursor.Bump()
	var flags token.Flags
	for {
		if lx.cursor.EOF() || lx.cursor.Peek() == '\n' {
			flags |= token.Unterminated
			break
		}
		b := lx.cursor.Bump()
		if b == quote {
			break
		}
		if b == '\\' && !lx.cursor.EOF() {
			// escapes and line splices both take the next byte
			lx.cursor.Bump()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: lx.text(sp), Flags: flags}
}
