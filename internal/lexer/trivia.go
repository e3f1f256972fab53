package lexer

import (
	"cnav/internal/diag"
)

// skipTrivia consumes whitespace, line splices and comments, updating the
// BOL and SpaceBefore state for the next token.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch {
		case b == '\n':
			lx.cursor.Bump()
			lx.bol = true
			lx.space = true
		case b == ' ' || b == '\t' || b == '\r' || b == '\f' || b == '\v':
			lx.cursor.Bump()
			lx.space = true
		case b == '\\' && lx.spliceLen() > 0:
			lx.cursor.Off += lx.spliceLen()
			lx.space = true
		case b == '/' && lx.cursor.PeekAt(1) == '/':
			lx.skipLineComment()
			lx.space = true
		case b == '/' && lx.cursor.PeekAt(1) == '*':
			lx.skipBlockComment()
			lx.space = true
		default:
			return
		}
	}
}

// spliceLen returns the length of a backslash-newline at the cursor, or 0.
// Trailing blanks between the backslash and the newline are tolerated, as GCC does.
func (lx *Lexer) spliceLen() uint32 {
	if lx.cursor.Peek() != '\\' {
		return 0
	}
	n := uint32(1)
	for {
		switch lx.cursor.PeekAt(n) {
		case ' ', '\t', '\r':
			n++
			continue
		case '\n':
			return n + 1
		}
		return 0
	}
}

func (lx *Lexer) skipLineComment() {
	for !lx.cursor.EOF() {
		if n := lx.spliceLen(); n > 0 {
			lx.cursor.Off += n
			continue
		}
		if lx.cursor.Peek() == '\n' {
			return
		}
		lx.cursor.Bump()
	}
}

func (lx *Lexer) skipBlockComment() {
	start := lx.cursor.Mark()
	lx.cursor.Off += 2
	for !lx.cursor.EOF() {
		if lx.cursor.Peek() == '*' && lx.cursor.PeekAt(1) == '/' {
			lx.cursor.Off += 2
			return
		}
		lx.cursor.Bump()
	}
	lx.report(diag.LexUnterminatedBlockComment, diag.SevError, lx.cursor.SpanFrom(start), "unterminated /* comment")
}
