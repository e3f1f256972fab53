package binder

import (
	"fmt"

	"cnav/internal/diag"
	"cnav/internal/token"
)

func (b *Binder) peek() token.Token { return b.toks[b.pos] }

// peekAt looks n tokens ahead; past the end it yields the trailing EOF.
func (b *Binder) peekAt(n int) token.Token {
	if b.pos+n < len(b.toks) {
		return b.toks[b.pos+n]
	}
	return b.toks[len(b.toks)-1]
}

func (b *Binder) tokAt(i int) token.Token {
	if i < len(b.toks) {
		return b.toks[i]
	}
	return b.toks[len(b.toks)-1]
}

func (b *Binder) next() token.Token {
	t := b.toks[b.pos]
	if t.Kind != token.EOF {
		b.pos++
	}
	return t
}

func (b *Binder) at(k token.Kind) bool { return b.toks[b.pos].Kind == k }

func (b *Binder) atEOF() bool { return b.at(token.EOF) }

func (b *Binder) accept(k token.Kind) bool {
	if b.at(k) {
		b.next()
		return true
	}
	return false
}

// expect consumes k or reports its absence. Running out of input while a
// bracket is open is structural and therefore an error.
func (b *Binder) expect(k token.Kind, code diag.Code) bool {
	if b.accept(k) {
		return true
	}
	t := b.peek()
	if t.Kind == token.EOF {
		switch k {
		case token.RBrace:
			b.unclosed(diag.SynUnclosedBrace, "expected '}' at end of input")
			return false
		case token.RParen, token.RBracket:
			b.unclosed(diag.SynUnclosedParen, fmt.Sprintf("expected '%s' at end of input", k))
			return false
		}
	}
	b.warnf(code, t, "expected '%s' before '%s'", k, describe(t))
	return false
}

func (b *Binder) unclosed(code diag.Code, msg string) {
	if b.eofReported {
		return
	}
	b.eofReported = true
	diag.ReportError(b.opts.Reporter, code, b.peek().Span, msg).Emit()
}

func (b *Binder) warnf(code diag.Code, at token.Token, format string, args ...any) {
	if at.Kind == token.EOF && b.eofReported {
		return
	}
	diag.ReportWarning(b.opts.Reporter, code, at.Span, fmt.Sprintf(format, args...)).Emit()
}

func describe(t token.Token) string {
	if t.Kind == token.EOF {
		return "end of input"
	}
	return t.Text
}

// skipGroup consumes a balanced (...), [...] or {...} group starting at the
// current token.
func (b *Binder) skipGroup() {
	open := b.peek().Kind
	var close token.Kind
	switch open {
	case token.LParen:
		close = token.RParen
	case token.LBracket:
		close = token.RBracket
	case token.LBrace:
		close = token.RBrace
	default:
		return
	}
	depth := 0
	for !b.atEOF() {
		switch b.next().Kind {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return
			}
		}
	}
	if close == token.RBrace {
		b.unclosed(diag.SynUnclosedBrace, "expected '}' at end of input")
	} else {
		b.unclosed(diag.SynUnclosedParen, fmt.Sprintf("expected '%s' at end of input", close))
	}
}

// recover skips to the end of the current declaration or statement: past
// the next ';' or up to a '}' that closes the enclosing block.
func (b *Binder) recover() {
	for !b.atEOF() {
		switch b.peek().Kind {
		case token.Semicolon:
			b.next()
			return
		case token.RBrace:
			return
		case token.LParen, token.LBracket, token.LBrace:
			b.skipGroup()
		default:
			b.next()
		}
	}
}

// skipAttributes drops GNU attributes, declspecs, alignment specifiers and
// asm labels.
func (b *Binder) skipAttributes() {
	for {
		switch b.peek().Kind {
		case token.KwAttribute, token.KwDeclspec, token.KwAlignas, token.KwAsm:
			b.next()
			for b.at(token.KwVolatile) || b.at(token.KwInline) || b.at(token.KwGoto) {
				b.next()
			}
			if b.at(token.LParen) {
				b.skipGroup()
			}
		case token.KwExtension:
			b.next()
		case token.LBracket:
			// C23 [[attribute]]
			if b.peekAt(1).Kind != token.LBracket {
				return
			}
			b.skipGroup()
		default:
			return
		}
	}
}
