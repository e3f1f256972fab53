package token

import (
	"cnav/internal/source"
)

// Flags carry layout and provenance facts through preprocessing.
type Flags uint8

const (
	// BOL marks the first token of a logical line.
	BOL Flags = 1 << iota
	// SpaceBefore marks a token preceded by whitespace or a comment.
	SpaceBefore
	// Expanded marks a token copied out of a macro body; its Span is the invocation.
	Expanded
	// NoExpand marks an identifier that must not be expanded again.
	NoExpand
	// Unterminated marks a string or char literal missing its closing quote.
	Unterminated
)

// Token is a single C token.
type Token struct {
	Kind  Kind
	Span  source.Span
	Text  string
	Flags Flags
}

func (t Token) Is(k Kind) bool { return t.Kind == k }

func (t Token) Has(f Flags) bool { return t.Flags&f != 0 }

// IsIdent reports identifiers (never keywords after classification).
func (t Token) IsIdent() bool { return t.Kind == Ident }

// IsWord reports identifiers and keywords alike; the preprocessor treats
// both as names.
func (t Token) IsWord() bool { return t.Kind == Ident || t.Kind.IsKeyword() }

func (t Token) IsLiteral() bool {
	switch t.Kind {
	case Number, CharLit, StringLit:
		return true
	}
	return false
}

// FromSource reports whether the token text sits at its own span.
func (t Token) FromSource() bool { return t.Flags&Expanded == 0 }

// Classify turns an identifier spelled like a keyword into that keyword.
func Classify(t Token) Token {
	if t.Kind == Ident {
		if k, ok := LookupKeyword(t.Text); ok {
			t.Kind = k
		}
	}
	return t
}
