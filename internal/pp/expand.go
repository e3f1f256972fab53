package pp

import (
	"fmt"
	"strconv"
	"strings"

	"cnav/internal/diag"
	"cnav/internal/lexer"
	"cnav/internal/source"
	"cnav/internal/token"
)

// expander rescans a token stream, replacing macro invocations. The main
// expander falls back to the lexer once its queue is drained; argument and
// #if expanders only see their queue.
type expander struct {
	pp        *Preprocessor
	queue     []ptok
	fromLexer bool
	last      token.Kind // previous token handed to the consumer
}

func (e *expander) next() ptok {
	if len(e.queue) > 0 {
		t := e.queue[0]
		e.queue = e.queue[1:]
		return t
	}
	if e.fromLexer {
		return e.pp.lexNext()
	}
	return ptok{Token: token.Token{Kind: token.EOF}}
}

func (e *expander) unread(toks ...ptok) {
	if len(toks) == 0 {
		return
	}
	q := make([]ptok, 0, len(toks)+len(e.queue))
	q = append(q, toks...)
	e.queue = append(q, e.queue...)
}

func (e *expander) peek() ptok {
	t := e.next()
	e.unread(t)
	return t
}

// drain expands everything left in a queue-only expander.
func (e *expander) drain() []ptok {
	var out []ptok
	for {
		t := e.next()
		if t.Kind == token.EOF {
			return out
		}
		if t.IsWord() && e.tryExpand(&t) {
			continue
		}
		e.last = t.Kind
		out = append(out, t)
	}
}

// tryExpand replaces t when it names an expandable macro and reports
// whether it did. A name hidden by its own expansion is painted so it stays
// unexpanded in every later rescan.
func (e *expander) tryExpand(t *ptok) bool {
	if t.Has(token.NoExpand) || e.last == token.Dot || e.last == token.Arrow {
		return false
	}
	m, ok := e.pp.macros[t.Text]
	if !ok {
		return e.expandBuiltin(t)
	}
	if t.hide.has(t.Text) {
		t.Flags |= token.NoExpand
		return false
	}
	if m.FuncLike {
		return e.expandFunc(*t, m)
	}
	if t.FromSource() {
		e.pp.recordUse(t.Span, m)
	}
	body := e.pp.substitute(m, nil, t.Span, t.hide.with(m.Name))
	e.pushExpansion(*t, body)
	return true
}

func (e *expander) expandFunc(name ptok, m *Macro) bool {
	lp := e.next()
	if lp.Kind != token.LParen {
		e.unread(lp)
		return false
	}
	args, rp, ok := e.collectArgs(name, m)
	if !ok {
		return true
	}
	site := name.Span
	if name.FromSource() {
		if rp.FromSource() && rp.Span.File == site.File && rp.Span.End > site.End {
			site.End = rp.Span.End
		}
		e.pp.recordUse(site, m)
	}
	hide := name.hide.intersect(rp.hide).with(m.Name)
	body := e.pp.substitute(m, args, site, hide)
	e.pushExpansion(name, body)
	return true
}

// collectArgs reads a parenthesized argument list whose '(' was consumed.
func (e *expander) collectArgs(name ptok, m *Macro) ([][]ptok, ptok, bool) {
	var (
		args  [][]ptok
		cur   []ptok
		depth int
	)
	for {
		t := e.next()
		t.Flags &^= token.BOL
		switch t.Kind {
		case token.EOF:
			diag.ReportError(e.pp.opts.Reporter, diag.PPUnterminatedArgs, name.Span,
				fmt.Sprintf("unterminated argument list invoking macro '%s'", m.Name)).Emit()
			e.unread(t)
			return nil, t, false
		case token.LParen:
			depth++
		case token.RParen:
			if depth == 0 {
				args = append(args, cur)
				return e.pp.fitArgs(name, m, args), t, true
			}
			depth--
		case token.Comma:
			if depth == 0 && !(m.Variadic && len(args) == len(m.Params)-1) {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
}

// fitArgs matches collected arguments to parameters. A count mismatch is
// reported but the invocation still expands, so the rest of the unit binds.
func (p *Preprocessor) fitArgs(name ptok, m *Macro, args [][]ptok) [][]ptok {
	want := len(m.Params)
	if want == 0 && len(args) == 1 && len(args[0]) == 0 {
		return nil
	}
	if m.Variadic && len(args) == want-1 {
		return append(args, nil)
	}
	if len(args) == want {
		return args
	}
	p.warn(diag.PPArgCountMismatch, name.Span,
		fmt.Sprintf("macro '%s' requires %d arguments, but %d given", m.Name, want, len(args)))
	for len(args) < want {
		args = append(args, nil)
	}
	return args[:want]
}

func (e *expander) pushExpansion(name ptok, body []ptok) {
	if len(body) == 0 {
		return
	}
	body[0].Flags = body[0].Flags&^token.SpaceBefore | name.Flags&token.SpaceBefore
	e.unread(body...)
}

func (e *expander) expandBuiltin(t *ptok) bool {
	var out ptok
	switch t.Text {
	case "__LINE__":
		lc := e.pp.file.LineCol(t.Span.Start)
		out = ptok{Token: token.Token{Kind: token.Number, Text: strconv.FormatUint(uint64(lc.Line), 10)}}
	case "__FILE__":
		out = ptok{Token: token.Token{Kind: token.StringLit, Text: strconv.Quote(e.pp.file.Path)}}
	default:
		return false
	}
	out.Span = t.Span
	out.Flags = t.Flags&token.SpaceBefore | token.Expanded
	e.unread(out)
	return true
}

// skipPragmaOperator drops a _Pragma("...") operator.
func (e *expander) skipPragmaOperator() bool {
	if e.peek().Kind != token.LParen {
		return false
	}
	depth := 0
	for {
		t := e.next()
		switch t.Kind {
		case token.EOF:
			e.unread(t)
			return true
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return true
			}
		}
	}
}

// substitute builds the replacement list of one invocation. Body tokens
// take the invocation span and the Expanded flag; argument tokens keep
// their own spans so identifiers passed to a macro still bind.
func (p *Preprocessor) substitute(m *Macro, args [][]ptok, site source.Span, hide hideSet) []ptok {
	out := p.replace(m, m.Body, args, site, make(map[int][]ptok))
	for i := range out {
		out[i].hide = out[i].hide.union(hide)
	}
	return out
}

func (p *Preprocessor) replace(m *Macro, body []token.Token, args [][]ptok, site source.Span, expanded map[int][]ptok) []ptok {
	var out []ptok
	param := func(t token.Token) int {
		if !t.IsWord() {
			return -1
		}
		return m.paramIndex(t.Text)
	}
	vaIdx := -1
	if m.Variadic {
		vaIdx = len(m.Params) - 1
	}
	lhsEmpty := false // left operand of a pending ## is a placemarker

	for i := 0; i < len(body); i++ {
		t := body[i]
		nextIsPaste := i+1 < len(body) && body[i+1].Kind == token.HashHash

		if m.FuncLike && t.Kind == token.Hash && i+1 < len(body) {
			if idx := param(body[i+1]); idx >= 0 {
				out = append(out, p.stringify(args[idx], site, t))
				lhsEmpty = false
				i++
				continue
			}
		}

		if t.Kind == token.HashHash && i+1 < len(body) {
			i++
			rhsTok := body[i]
			var rhs []ptok
			if idx := param(rhsTok); idx >= 0 {
				rhs = clonePtoks(args[idx])
				// GNU comma elision: , ## __VA_ARGS__ with no variadic arguments
				if idx == vaIdx && len(rhs) == 0 && len(out) > 0 && out[len(out)-1].Kind == token.Comma {
					out = out[:len(out)-1]
					continue
				}
				if idx == vaIdx && len(out) > 0 && out[len(out)-1].Kind == token.Comma {
					out = append(out, rhs...)
					continue
				}
			} else {
				rhs = []ptok{bodyTok(rhsTok, site)}
			}
			switch {
			case lhsEmpty || len(out) == 0:
				out = append(out, rhs...)
				lhsEmpty = len(rhs) == 0
			case len(rhs) > 0:
				lhs := out[len(out)-1]
				out = append(out[:len(out)-1], p.paste(lhs, rhs[0], site)...)
				out = append(out, rhs[1:]...)
			}
			continue
		}

		if idx := param(t); idx >= 0 {
			if nextIsPaste {
				raw := clonePtoks(args[idx])
				out = append(out, raw...)
				lhsEmpty = len(raw) == 0
				continue
			}
			exp, ok := expanded[idx]
			if !ok {
				sub := &expander{pp: p, queue: clonePtoks(args[idx])}
				exp = sub.drain()
				expanded[idx] = exp
			}
			out = append(out, clonePtoks(exp)...)
			lhsEmpty = false
			continue
		}

		if t.Text == "__VA_OPT__" && vaIdx >= 0 && i+1 < len(body) && body[i+1].Kind == token.LParen {
			end := matchParen(body, i+1)
			if end < 0 {
				out = append(out, bodyTok(t, site))
				continue
			}
			if len(args[vaIdx]) > 0 {
				out = append(out, p.replace(m, body[i+2:end], args, site, expanded)...)
			}
			i = end
			lhsEmpty = false
			continue
		}

		out = append(out, bodyTok(t, site))
		lhsEmpty = false
	}
	return out
}

func bodyTok(t token.Token, site source.Span) ptok {
	return ptok{Token: token.Token{
		Kind:  t.Kind,
		Span:  site,
		Text:  t.Text,
		Flags: t.Flags&token.SpaceBefore | token.Expanded,
	}}
}

func clonePtoks(toks []ptok) []ptok {
	if len(toks) == 0 {
		return nil
	}
	out := make([]ptok, len(toks))
	copy(out, toks)
	return out
}

func matchParen(body []token.Token, open int) int {
	depth := 0
	for i := open; i < len(body); i++ {
		switch body[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// stringify implements the # operator.
func (p *Preprocessor) stringify(arg []ptok, site source.Span, hash token.Token) ptok {
	var sb strings.Builder
	sb.WriteByte('"')
	for i, t := range arg {
		if i > 0 && t.Has(token.SpaceBefore) {
			sb.WriteByte(' ')
		}
		if t.Kind == token.StringLit || t.Kind == token.CharLit {
			for j := 0; j < len(t.Text); j++ {
				if c := t.Text[j]; c == '"' || c == '\\' {
					sb.WriteByte('\\')
				}
				sb.WriteByte(t.Text[j])
			}
			continue
		}
		sb.WriteString(t.Text)
	}
	sb.WriteByte('"')
	return ptok{Token: token.Token{
		Kind:  token.StringLit,
		Span:  site,
		Text:  sb.String(),
		Flags: hash.Flags&token.SpaceBefore | token.Expanded,
	}}
}

// paste implements ##. A concatenation that does not form one token keeps
// both operands.
func (p *Preprocessor) paste(lhs, rhs ptok, site source.Span) []ptok {
	text := lhs.Text + rhs.Text
	toks := lexFragment(text)
	if len(toks) != 1 {
		p.warn(diag.PPInvalidPaste, site,
			fmt.Sprintf("pasting \"%s\" and \"%s\" does not give a valid preprocessing token", lhs.Text, rhs.Text))
		rhs.Flags |= token.Expanded
		return []ptok{lhs, rhs}
	}
	return []ptok{{
		Token: token.Token{
			Kind:  toks[0].Kind,
			Span:  site,
			Text:  text,
			Flags: lhs.Flags&token.SpaceBefore | token.Expanded,
		},
		hide: lhs.hide.union(rhs.hide),
	}}
}

// lexFragment lexes text that is not part of any file; spans are meaningless.
func lexFragment(text string) []token.Token {
	toks := lexer.Tokenize(&source.File{Content: []byte(text)}, lexer.Options{})
	return toks[:len(toks)-1]
}
