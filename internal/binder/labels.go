package binder

import (
	"cnav/internal/diag"
	"cnav/internal/symbols"
	"cnav/internal/token"
)

// labelState tracks the labels of one function body. Labels have function
// scope, so a goto may precede its target; uses are resolved at the end.
type labelState struct {
	scope   symbols.ScopeID
	pending []token.Token
}

func (b *Binder) declareLabel(name token.Token) {
	if b.fn == nil {
		b.warnf(diag.SynUnexpectedToken, name, "label '%s' outside a function", name.Text)
		return
	}
	b.declare(name, symbols.Decl{
		Kind:     symbols.SymbolLabel,
		Scope:    b.fn.scope,
		Defining: true,
	})
}

func (b *Binder) useLabel(name token.Token) {
	if b.fn == nil {
		return
	}
	b.fn.pending = append(b.fn.pending, name)
}

func (b *Binder) finishLabels() {
	fn := b.fn
	if fn == nil {
		return
	}
	scope := b.table.Scopes.Get(fn.scope)
	for _, t := range fn.pending {
		var (
			id symbols.SymbolID
			ok bool
		)
		if scope != nil {
			id, ok = scope.Lookup(symbols.NSLabel, b.intern(t))
		}
		if !ok {
			b.warnf(diag.SemaUndeclaredLabel, t, "label '%s' used but not defined", t.Text)
			continue
		}
		b.record(t, id, symbols.RoleUse)
	}
	fn.pending = nil
}
