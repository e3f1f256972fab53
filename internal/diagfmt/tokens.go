package diagfmt

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"cnav/internal/source"
	"cnav/internal/token"
)

type TokenOutput struct {
	Kind  string      `json:"kind"`
	Text  string      `json:"text,omitempty"`
	Span  source.Span `json:"span"`
	Flags []string    `json:"flags,omitempty"`
}

func tokenFlags(t token.Token) []string {
	var out []string
	for _, f := range []struct {
		bit  token.Flags
		name string
	}{
		{token.BOL, "bol"},
		{token.SpaceBefore, "space"},
		{token.Expanded, "expanded"},
		{token.NoExpand, "noexpand"},
		{token.Unterminated, "unterminated"},
	} {
		if t.Has(f.bit) {
			out = append(out, f.name)
		}
	}
	return out
}

// FormatTokensPretty prints one token per line with its position.
func FormatTokensPretty(w io.Writer, tokens []token.Token, f *source.File) error {
	for i, tok := range tokens {
		start, end := f.LineCol(tok.Span.Start), f.LineCol(tok.Span.End)
		var b strings.Builder
		fmt.Fprintf(&b, "%3d: %-15s", i+1, tok.Kind.String())
		if tok.Text != "" {
			fmt.Fprintf(&b, " %q", tok.Text)
		}
		fmt.Fprintf(&b, " at %d:%d-%d:%d", start.Line, start.Col, end.Line, end.Col)
		if flags := tokenFlags(tok); len(flags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(flags, ", "))
		}
		if _, err := fmt.Fprintln(w, b.String()); err != nil {
			return err
		}
		if tok.Kind == token.EOF {
			break
		}
	}
	return nil
}

// FormatTokensJSON writes tokens as a JSON array.
func FormatTokensJSON(w io.Writer, tokens []token.Token) error {
	output := make([]TokenOutput, 0, len(tokens))
	for _, tok := range tokens {
		output = append(output, TokenOutput{
			Kind:  tok.Kind.String(),
			Text:  tok.Text,
			Span:  tok.Span,
			Flags: tokenFlags(tok),
		})
		if tok.Kind == token.EOF {
			break
		}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}
