package pp

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/token"
)

// evalCondition evaluates the controlling expression of #if or #elif.
// defined operands and macro names in the expression are recorded as macro
// uses. A malformed expression is reported and counts as false.
func (p *Preprocessor) evalCondition(dir token.Token, args []token.Token) bool {
	var pre []ptok
	for i := 0; i < len(args); i++ {
		t := args[i]
		if !t.IsWord() {
			pre = append(pre, ptok{Token: t})
			continue
		}
		switch {
		case t.Text == "defined":
			val, n := p.definedOperand(args[i+1:], true)
			pre = append(pre, ptok{Token: number(val, t.Span)})
			i += n
		case hasQuery(t.Text):
			pre = append(pre, ptok{Token: number(0, t.Span)})
			if i+1 < len(args) && args[i+1].Kind == token.LParen {
				i = skipGroup(args, i+1)
			}
		default:
			pre = append(pre, ptok{Token: t})
		}
	}

	sub := &expander{pp: p, queue: pre}
	expanded := sub.drain()
	toks := make([]token.Token, len(expanded))
	for i := range expanded {
		toks[i] = expanded[i].Token
	}

	ev := &evaluator{pp: p, toks: toks, at: dir.Span}
	if len(toks) == 0 {
		ev.fail(dir.Span, fmt.Sprintf("#%s with no expression", dir.Text))
		return false
	}
	v := ev.comma()
	if ev.err == "" && ev.pos < len(ev.toks) {
		ev.fail(ev.toks[ev.pos].Span, fmt.Sprintf("token \"%s\" is not valid in preprocessor expressions", ev.toks[ev.pos].Text))
	}
	if ev.err != "" {
		p.warn(diag.PPBadIfExpr, ev.errAt, ev.err)
		return false
	}
	return v != 0
}

// definedOperand reads "X" or "( X )" after defined and returns the value
// plus the number of tokens consumed.
func (p *Preprocessor) definedOperand(rest []token.Token, record bool) (int64, int) {
	var name token.Token
	n := 0
	switch {
	case len(rest) > 0 && rest[0].IsWord():
		name, n = rest[0], 1
	case len(rest) > 2 && rest[0].Kind == token.LParen && rest[1].IsWord() && rest[2].Kind == token.RParen:
		name, n = rest[1], 3
	default:
		return 0, 0
	}
	m := p.macros[name.Text]
	if record {
		p.recordUse(name.Span, m)
	}
	if m != nil {
		return 1, n
	}
	return 0, n
}

// hasQuery reports feature-test operators whose operand this stage cannot
// answer; they evaluate to 0.
func hasQuery(name string) bool {
	switch name {
	case "__has_include", "__has_include_next", "__has_attribute", "__has_c_attribute",
		"__has_cpp_attribute", "__has_builtin", "__has_feature", "__has_extension",
		"__has_warning", "__has_embed":
		return true
	}
	return false
}

func skipGroup(toks []token.Token, open int) int {
	depth := 0
	for i := open; i < len(toks); i++ {
		switch toks[i].Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return len(toks) - 1
}

func number(v int64, sp source.Span) token.Token {
	return token.Token{Kind: token.Number, Text: strconv.FormatInt(v, 10), Span: sp}
}

type evaluator struct {
	pp    *Preprocessor
	toks  []token.Token
	pos   int
	at    source.Span
	dead  int // inside a short-circuited operand
	err   string
	errAt source.Span
}

func (ev *evaluator) fail(sp source.Span, msg string) {
	if ev.err == "" {
		ev.err = msg
		ev.errAt = sp
	}
}

func (ev *evaluator) peek() token.Token {
	if ev.pos < len(ev.toks) {
		return ev.toks[ev.pos]
	}
	return token.Token{Kind: token.EOF, Span: ev.at}
}

func (ev *evaluator) take() token.Token {
	t := ev.peek()
	if ev.pos < len(ev.toks) {
		ev.pos++
	}
	return t
}

func (ev *evaluator) expect(k token.Kind, what string) {
	if t := ev.take(); t.Kind != k {
		ev.fail(t.Span, fmt.Sprintf("expected '%s' in preprocessor expression", what))
	}
}

func (ev *evaluator) comma() int64 {
	v := ev.ternary()
	for ev.err == "" && ev.peek().Kind == token.Comma {
		ev.take()
		v = ev.ternary()
	}
	return v
}

func (ev *evaluator) ternary() int64 {
	cond := ev.binary(1)
	if ev.peek().Kind != token.Question {
		return cond
	}
	ev.take()
	if cond == 0 {
		ev.dead++
	}
	a := ev.comma()
	if cond == 0 {
		ev.dead--
	}
	ev.expect(token.Colon, ":")
	if cond != 0 {
		ev.dead++
	}
	b := ev.ternary()
	if cond != 0 {
		ev.dead--
	}
	if cond != 0 {
		return a
	}
	return b
}

func precedence(k token.Kind) int {
	switch k {
	case token.OrOr:
		return 1
	case token.AndAnd:
		return 2
	case token.Pipe:
		return 3
	case token.Caret:
		return 4
	case token.Amp:
		return 5
	case token.EqEq, token.BangEq:
		return 6
	case token.Lt, token.Gt, token.LtEq, token.GtEq:
		return 7
	case token.Shl, token.Shr:
		return 8
	case token.Plus, token.Minus:
		return 9
	case token.Star, token.Slash, token.Percent:
		return 10
	}
	return 0
}

func (ev *evaluator) binary(min int) int64 {
	lhs := ev.unary()
	for ev.err == "" {
		op := ev.peek()
		prec := precedence(op.Kind)
		if prec == 0 || prec < min {
			return lhs
		}
		ev.take()
		short := (op.Kind == token.AndAnd && lhs == 0) || (op.Kind == token.OrOr && lhs != 0)
		if short {
			ev.dead++
		}
		rhs := ev.binary(prec + 1)
		if short {
			ev.dead--
		}
		lhs = ev.apply(op, lhs, rhs)
	}
	return lhs
}

func (ev *evaluator) apply(op token.Token, a, b int64) int64 {
	truth := func(c bool) int64 {
		if c {
			return 1
		}
		return 0
	}
	switch op.Kind {
	case token.OrOr:
		return truth(a != 0 || b != 0)
	case token.AndAnd:
		return truth(a != 0 && b != 0)
	case token.Pipe:
		return a | b
	case token.Caret:
		return a ^ b
	case token.Amp:
		return a & b
	case token.EqEq:
		return truth(a == b)
	case token.BangEq:
		return truth(a != b)
	case token.Lt:
		return truth(a < b)
	case token.Gt:
		return truth(a > b)
	case token.LtEq:
		return truth(a <= b)
	case token.GtEq:
		return truth(a >= b)
	case token.Shl:
		return a << uint64(b&63)
	case token.Shr:
		return a >> uint64(b&63)
	case token.Plus:
		return a + b
	case token.Minus:
		return a - b
	case token.Star:
		return a * b
	case token.Slash, token.Percent:
		if b == 0 {
			if ev.dead == 0 {
				ev.fail(op.Span, "division by zero in preprocessor expression")
			}
			return 0
		}
		if op.Kind == token.Slash {
			return a / b
		}
		return a % b
	}
	return 0
}

func (ev *evaluator) unary() int64 {
	t := ev.take()
	switch t.Kind {
	case token.Plus:
		return ev.unary()
	case token.Minus:
		return -ev.unary()
	case token.Bang:
		if ev.unary() == 0 {
			return 1
		}
		return 0
	case token.Tilde:
		return ^ev.unary()
	case token.LParen:
		v := ev.comma()
		ev.expect(token.RParen, ")")
		return v
	case token.Number:
		v, ok := parseInt(t.Text)
		if !ok {
			ev.fail(t.Span, fmt.Sprintf("invalid integer constant '%s' in preprocessor expression", t.Text))
		}
		return v
	case token.CharLit:
		return charValue(t.Text)
	case token.Ident:
		if t.Text == "defined" {
			// produced by a macro expansion; evaluated without recording
			v, n := ev.pp.definedOperand(ev.toks[ev.pos:], false)
			ev.pos += n
			return v
		}
		if t.Text == "true" {
			return 1
		}
		return 0
	case token.EOF:
		ev.fail(t.Span, "missing operand in preprocessor expression")
		return 0
	}
	if t.Kind.IsKeyword() {
		return 0
	}
	ev.fail(t.Span, fmt.Sprintf("token \"%s\" is not valid in preprocessor expressions", t.Text))
	return 0
}

// parseInt reads a C integer constant, ignoring suffixes and digit separators.
func parseInt(text string) (int64, bool) {
	s := strings.ReplaceAll(text, "'", "")
	s = strings.TrimRight(s, "uUlLzZ")
	base := 10
	switch {
	case len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X"):
		base, s = 16, s[2:]
	case len(s) > 2 && (s[:2] == "0b" || s[:2] == "0B"):
		base, s = 2, s[2:]
	case len(s) > 1 && s[0] == '0':
		base, s = 8, s[1:]
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return 0, false
	}
	return int64(v), true // #nosec G115 -- wraps like the unsigned arithmetic of #if
}

// charValue evaluates a character constant, prefixes included.
func charValue(text string) int64 {
	start := strings.IndexByte(text, '\'')
	if start < 0 {
		return 0
	}
	body := strings.TrimSuffix(text[start+1:], "'")
	var v int64
	for len(body) > 0 {
		var c int64
		if body[0] == '\\' && len(body) > 1 {
			c, body = unescape(body[1:])
		} else {
			r, size := utf8.DecodeRuneInString(body)
			c, body = int64(r), body[size:]
		}
		v = v<<8 | c
	}
	return v
}

func unescape(s string) (int64, string) {
	switch s[0] {
	case 'n':
		return '\n', s[1:]
	case 't':
		return '\t', s[1:]
	case 'r':
		return '\r', s[1:]
	case 'a':
		return 7, s[1:]
	case 'b':
		return 8, s[1:]
	case 'f':
		return 12, s[1:]
	case 'v':
		return 11, s[1:]
	case 'e':
		return 27, s[1:]
	case 'x':
		i := 1
		for i < len(s) && strings.IndexByte("0123456789abcdefABCDEF", s[i]) >= 0 {
			i++
		}
		v, _ := strconv.ParseInt(s[1:i], 16, 64)
		return v, s[i:]
	}
	if s[0] >= '0' && s[0] <= '7' {
		i := 0
		for i < len(s) && i < 3 && s[i] >= '0' && s[i] <= '7' {
			i++
		}
		v, _ := strconv.ParseInt(s[:i], 8, 64)
		return v, s[i:]
	}
	return int64(s[0]), s[1:]
}
