package pp

import (
	"fmt"
	"strings"

	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// directive executes the directive introduced by hash. Conditional
// directives run in every region; the rest only in active ones.
func (p *Preprocessor) directive(hash token.Token) {
	line := p.lineTokens()
	if len(line) == 0 || !line[0].IsWord() {
		// null directive or a "# 12 file" line marker
		return
	}
	name, args := line[0], line[1:]
	switch name.Text {
	case "if":
		p.doIf(name, args)
		return
	case "ifdef", "ifndef":
		p.doIfdef(name, args, name.Text == "ifndef")
		return
	case "elif", "elifdef", "elifndef":
		p.doElif(name, args)
		return
	case "else":
		p.doElse(name)
		return
	case "endif":
		if p.cond.Depth() == 0 {
			diag.ReportError(p.opts.Reporter, diag.PPEndifWithoutIf, name.Span, "#endif without #if").Emit()
			return
		}
		p.cond.Pop()
		return
	}

	if !p.cond.Active() {
		return
	}
	switch name.Text {
	case "define":
		p.checkLine(args)
		p.define(args, 0)
	case "undef":
		if len(args) == 0 || !args[0].IsWord() {
			p.warn(diag.PPMissingMacroName, name.Span, "macro name missing in #undef")
			return
		}
		p.undef(args[0])
	case "error":
		p.warn(diag.PPErrorDirective, cover(hash, line), "#error "+spell(args))
	case "warning":
		p.warn(diag.PPWarningDirective, cover(hash, line), "#warning "+spell(args))
	case "include", "include_next", "import", "line", "pragma", "ident", "sccs", "assert", "unassert":
		// no effect on binding
	default:
		p.warn(diag.PPUnknownDirective, name.Span, fmt.Sprintf("invalid preprocessing directive #%s", name.Text))
	}
}

func (p *Preprocessor) doIf(name token.Token, args []token.Token) {
	if !p.cond.Active() {
		p.cond.Push(false, name.Span)
		return
	}
	p.checkLine(args)
	p.cond.Push(p.evalCondition(name, args), name.Span)
}

func (p *Preprocessor) doIfdef(name token.Token, args []token.Token, negate bool) {
	if !p.cond.Active() {
		p.cond.Push(false, name.Span)
		return
	}
	p.cond.Push(p.guard(name, args) != negate, name.Span)
}

// guard evaluates the operand of #ifdef-like directives and records it as
// a use of the macro.
func (p *Preprocessor) guard(name token.Token, args []token.Token) bool {
	if len(args) == 0 || !args[0].IsWord() {
		p.warn(diag.PPMissingMacroName, name.Span, fmt.Sprintf("macro name missing in #%s", name.Text))
		return false
	}
	m := p.macros[args[0].Text]
	p.recordUse(args[0].Span, m)
	return m != nil
}

func (p *Preprocessor) doElif(name token.Token, args []token.Token) {
	if p.cond.Depth() == 0 {
		diag.ReportError(p.opts.Reporter, diag.PPElseWithoutIf, name.Span,
			fmt.Sprintf("#%s without #if", name.Text)).Emit()
		return
	}
	if p.cond.SeenElse() {
		p.warn(diag.PPElifAfterElse, name.Span, fmt.Sprintf("#%s after #else", name.Text))
	}
	if !p.cond.NeedsEval() {
		p.cond.Elif(false)
		return
	}
	var ok bool
	switch name.Text {
	case "elifdef":
		ok = p.guard(name, args)
	case "elifndef":
		ok = !p.guard(name, args)
	default:
		p.checkLine(args)
		ok = p.evalCondition(name, args)
	}
	p.cond.Elif(ok)
}

func (p *Preprocessor) doElse(name token.Token) {
	if p.cond.Depth() == 0 {
		diag.ReportError(p.opts.Reporter, diag.PPElseWithoutIf, name.Span, "#else without #if").Emit()
		return
	}
	if p.cond.SeenElse() {
		p.warn(diag.PPElifAfterElse, name.Span, "#else after #else")
	}
	p.cond.Else()
}

func (p *Preprocessor) checkLine(toks []token.Token) {
	for _, t := range toks {
		p.checkLiteral(t)
	}
}

// define parses "NAME body" or "NAME(params) body" and installs the macro.
func (p *Preprocessor) define(args []token.Token, flags symbols.SymbolFlags) *Macro {
	if len(args) == 0 || !args[0].IsWord() {
		sp := source.Span{File: p.file.ID}
		if len(args) > 0 {
			sp = args[0].Span
		}
		p.warn(diag.PPMissingMacroName, sp, "macro name missing in #define")
		return nil
	}
	nameTok := args[0]
	m := &Macro{Name: nameTok.Text, Span: nameTok.Span}
	body := args[1:]
	if len(body) > 0 && body[0].Kind == token.LParen && !body[0].Has(token.SpaceBefore) {
		rest, ok := p.parseParams(m, nameTok, body[1:])
		if !ok {
			return nil
		}
		body = rest
	}
	m.Body = make([]token.Token, len(body))
	for i, t := range body {
		t.Flags &^= token.BOL
		m.Body[i] = t
	}
	for _, t := range m.Body {
		if !t.IsWord() || m.paramIndex(t.Text) >= 0 {
			continue
		}
		if active, ok := p.macros[t.Text]; ok {
			p.recordUse(t.Span, active)
		}
	}
	p.install(m, flags)
	return m
}

func (p *Preprocessor) parseParams(m *Macro, name token.Token, toks []token.Token) ([]token.Token, bool) {
	m.FuncLike = true
	bad := func() ([]token.Token, bool) {
		p.warn(diag.PPBadMacroParams, name.Span, fmt.Sprintf("invalid parameter list in definition of '%s'", m.Name))
		return nil, false
	}
	if len(toks) > 0 && toks[0].Kind == token.RParen {
		return toks[1:], true
	}
	i := 0
	for {
		if i >= len(toks) {
			return bad()
		}
		t := toks[i]
		switch {
		case t.Kind == token.Ellipsis:
			m.Params = append(m.Params, "__VA_ARGS__")
			m.Variadic = true
			i++
		case t.IsWord():
			if m.paramIndex(t.Text) >= 0 {
				p.warn(diag.PPDuplicateMacroArg, t.Span, fmt.Sprintf("duplicate macro parameter '%s'", t.Text))
				return nil, false
			}
			m.Params = append(m.Params, t.Text)
			i++
			if i < len(toks) && toks[i].Kind == token.Ellipsis {
				m.Variadic = true
				i++
			}
		default:
			return bad()
		}
		if i >= len(toks) {
			return bad()
		}
		switch toks[i].Kind {
		case token.RParen:
			return toks[i+1:], true
		case token.Comma:
			if m.Variadic {
				return bad()
			}
			i++
		default:
			return bad()
		}
	}
}

// install makes m the active definition of its name. The new symbol
// supersedes the old one for everything that follows.
func (p *Preprocessor) install(m *Macro, flags symbols.SymbolFlags) {
	if prev, ok := p.macros[m.Name]; ok && !prev.sameDefinition(m) {
		b := diag.ReportWarning(p.opts.Reporter, diag.PPMacroRedefined, m.Span, fmt.Sprintf("'%s' macro redefined", m.Name))
		if !prev.Span.Empty() {
			b.WithNote(prev.Span, "previous definition is here")
		}
		b.Emit()
	}
	name := p.table.Strings.Intern(m.Name)
	m.Symbol = p.table.DeclareMacro(name, m.Span, m.kind(), flags)
	p.occ.Add(m.Span, m.Symbol, symbols.RoleDef)
	p.macros[m.Name] = m
}

func (p *Preprocessor) undef(name token.Token) {
	m, ok := p.macros[name.Text]
	if !ok {
		return
	}
	p.recordUse(name.Span, m)
	if id, found := p.table.Strings.Find(name.Text); found {
		p.table.UndefMacro(id)
	}
	delete(p.macros, name.Text)
}

// spell renders tokens the way they were written, one space where the
// source had whitespace.
func spell(toks []token.Token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && t.Has(token.SpaceBefore) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.Text)
	}
	return sb.String()
}

func cover(first token.Token, rest []token.Token) source.Span {
	sp := first.Span
	if len(rest) > 0 {
		sp = sp.Cover(rest[len(rest)-1].Span)
	}
	return sp
}
