package pp

import (
	"strings"

	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// SplitDefine splits a -D argument into the macro head and its body.
// "NAME" defines NAME as 1, like a compiler driver does.
func SplitDefine(arg string) (head, body string) {
	head, body, ok := strings.Cut(arg, "=")
	if !ok {
		body = "1"
	}
	return strings.TrimSpace(head), body
}

// applyCommandLine installs -D and -U macros before the first line. Their
// tokens carry no span in the unit, so they produce no occurrences.
func (p *Preprocessor) applyCommandLine() {
	nowhere := source.Span{File: p.file.ID}
	for _, arg := range p.opts.Defines {
		head, body := SplitDefine(arg)
		if head == "" {
			continue
		}
		toks := lexFragment(head + " " + body)
		for i := range toks {
			toks[i].Span = nowhere
			toks[i].Flags &^= token.BOL
		}
		p.define(toks, symbols.SymbolFlagCommandLine)
	}
	for _, name := range p.opts.Undefines {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		p.undef(token.Token{Kind: token.Ident, Text: name, Span: nowhere})
	}
}
