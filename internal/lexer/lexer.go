package lexer

import (
	"cnav/internal/source"
	"cnav/internal/token"
)

// Lexer turns C source bytes into preprocessing tokens.
// Every word comes out as token.Ident; keyword classification happens after expansion.
type Lexer struct {
	file   *source.File
	cursor Cursor
	opts   Options
	bol    bool // next token starts a logical line
	space  bool // whitespace seen since the previous token
	look   *token.Token
}

func New(file *source.File, opts Options) *Lexer {
	return &Lexer{
		file:   file,
		cursor: NewCursor(file),
		opts:   opts,
		bol:    true,
	}
}

// Next returns the next token. After EOF it keeps returning EOF.
func (lx *Lexer) Next() token.Token {
	if lx.look != nil {
		tok := *lx.look
		lx.look = nil
		return tok
	}

	lx.skipTrivia()
	if lx.cursor.EOF() {
		return token.Token{
			Kind:  token.EOF,
			Span:  lx.emptySpan(),
			Flags: token.BOL,
		}
	}

	ch := lx.cursor.Peek()
	var tok token.Token
	switch {
	case isIdentStartByte(ch) || ch >= utf8RuneSelf:
		tok = lx.scanIdentOrPrefixedLiteral()
	case isDec(ch), ch == '.' && isDec(lx.cursor.PeekAt(1)):
		tok = lx.scanNumber()
	case ch == '"':
		tok = lx.scanQuoted(lx.cursor.Mark(), '"', token.StringLit)
	case ch == '\'':
		tok = lx.scanQuoted(lx.cursor.Mark(), '\'', token.CharLit)
	default:
		tok = lx.scanOperatorOrPunct()
	}

	if lx.bol {
		tok.Flags |= token.BOL
	}
	if lx.space {
		tok.Flags |= token.SpaceBefore
	}
	lx.bol = false
	lx.space = false
	return tok
}

// Peek returns the next token without consuming it.
func (lx *Lexer) Peek() token.Token {
	t := lx.Next()
	lx.look = &t
	return t
}

func (lx *Lexer) emptySpan() source.Span {
	return source.Span{File: lx.file.ID, Start: lx.cursor.Off, End: lx.cursor.Off}
}

func (lx *Lexer) text(sp source.Span) string {
	return string(lx.file.Content[sp.Start:sp.End])
}

// Tokenize lexes the whole file; the result always ends with EOF.
func Tokenize(file *source.File, opts Options) []token.Token {
	lx := New(file, opts)
	out := make([]token.Token, 0, len(file.Content)/4+1)
	for {
		tok := lx.Next()
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}
