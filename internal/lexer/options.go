package lexer

import (
	"cnav/internal/diag"
	"cnav/internal/source"
)

type Options struct {
	Reporter diag.Reporter // nil drops diagnostics, lexing continues
}

func (lx *Lexer) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if lx.opts.Reporter != nil {
		lx.opts.Reporter.Report(code, sev, sp, msg, nil)
	}
}
