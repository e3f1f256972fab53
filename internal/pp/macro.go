package pp

import (
	"slices"

	"cnav/internal/source"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// Macro is one #define.
type Macro struct {
	Name     string
	Symbol   symbols.SymbolID
	Span     source.Span // name in #define; empty for command-line macros
	FuncLike bool
	Params   []string
	Variadic bool // last entry of Params collects the trailing arguments
	Body     []token.Token
}

func (m *Macro) paramIndex(name string) int {
	if !m.FuncLike {
		return -1
	}
	return slices.Index(m.Params, name)
}

// sameDefinition compares two definitions the way redefinition checks do:
// parameters, body spelling and whitespace separation.
func (m *Macro) sameDefinition(o *Macro) bool {
	if m.FuncLike != o.FuncLike || m.Variadic != o.Variadic || !slices.Equal(m.Params, o.Params) {
		return false
	}
	if len(m.Body) != len(o.Body) {
		return false
	}
	for i := range m.Body {
		a, b := m.Body[i], o.Body[i]
		if a.Text != b.Text {
			return false
		}
		if i > 0 && a.Has(token.SpaceBefore) != b.Has(token.SpaceBefore) {
			return false
		}
	}
	return true
}

func (m *Macro) kind() symbols.SymbolKind {
	if m.FuncLike {
		return symbols.SymbolMacroFunction
	}
	return symbols.SymbolMacroObject
}

// hideSet lists the macros a token must not expand again.
type hideSet []string

func (h hideSet) has(name string) bool { return slices.Contains(h, name) }

func (h hideSet) with(name string) hideSet {
	if h.has(name) {
		return h
	}
	out := make(hideSet, 0, len(h)+1)
	out = append(out, h...)
	return append(out, name)
}

func (h hideSet) union(o hideSet) hideSet {
	out := h
	for _, name := range o {
		out = out.with(name)
	}
	return out
}

func (h hideSet) intersect(o hideSet) hideSet {
	var out hideSet
	for _, name := range h {
		if o.has(name) {
			out = append(out, name)
		}
	}
	return out
}

// ptok is a token travelling through expansion.
type ptok struct {
	token.Token
	hide hideSet
}
