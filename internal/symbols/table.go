package symbols

import (
	"fmt"

	"fortio.org/safecast"

	"cnav/internal/source"
)

// Hints provide optional capacity suggestions for the table arenas.
type Hints struct{ Scopes, Symbols uint }

// Table aggregates the arenas of one translation unit build.
type Table struct {
	Scopes  *Scopes
	Symbols *Symbols
	Strings *source.Interner
	root    ScopeID
}

// NewTable builds a fresh table. If strings is nil, a fresh interner is allocated.
func NewTable(h Hints, strings *source.Interner) *Table {
	scopeCap, err := safecast.Conv[uint32](h.Scopes)
	if err != nil {
		panic(fmt.Errorf("scope capacity overflow: %w", err))
	}
	symCap, err := safecast.Conv[uint32](h.Symbols)
	if err != nil {
		panic(fmt.Errorf("symbol capacity overflow: %w", err))
	}
	if strings == nil {
		strings = source.NewInterner()
	}
	return &Table{
		Scopes:  NewScopes(scopeCap),
		Symbols: NewSymbols(symCap),
		Strings: strings,
	}
}

// FileRoot returns the file scope, creating it on first use.
func (t *Table) FileRoot(span source.Span) ScopeID {
	if !t.root.IsValid() {
		t.root = t.Scopes.New(ScopeFile, NoScopeID, NoSymbolID, span)
	}
	return t.root
}

// Root returns the file scope or NoScopeID before FileRoot was called.
func (t *Table) Root() ScopeID { return t.root }

// Name returns the spelling of a symbol.
func (t *Table) Name(id SymbolID) string {
	sym := t.Symbols.Get(id)
	if sym == nil {
		return ""
	}
	s, _ := t.Strings.Lookup(sym.Name)
	return s
}

// addSymbol stores sym and lists it in its declaring scope.
func (t *Table) addSymbol(sym *Symbol) SymbolID {
	id := t.Symbols.New(sym)
	if scope := t.Scopes.Get(sym.Scope); scope != nil {
		scope.Symbols = append(scope.Symbols, id)
	}
	return id
}

// LookupChain walks lexical scopes from scope outward. Member scopes are
// skipped; they are reachable only through LookupMember.
func (t *Table) LookupChain(scope ScopeID, ns Namespace, name source.StringID) SymbolID {
	if ns == NSMacro {
		return t.LookupMacro(name)
	}
	for scope.IsValid() {
		s := t.Scopes.Get(scope)
		if s == nil {
			break
		}
		if s.IsLexical() {
			if id, ok := s.Lookup(ns, name); ok {
				return id
			}
		}
		scope = s.Parent
	}
	return NoSymbolID
}

// LookupMember finds name among the members of aggregate tag, descending
// into anonymous struct/union members.
func (t *Table) LookupMember(tag SymbolID, name source.StringID) SymbolID {
	sym := t.Symbols.Get(tag)
	if sym == nil || !sym.Kind.IsAggregate() || !sym.Members.IsValid() {
		return NoSymbolID
	}
	return t.lookupMemberScope(sym.Members, name, 0)
}

func (t *Table) lookupMemberScope(scope ScopeID, name source.StringID, depth int) SymbolID {
	s := t.Scopes.Get(scope)
	if s == nil || depth > 64 {
		return NoSymbolID
	}
	if id, ok := s.Lookup(NSMember, name); ok {
		return id
	}
	for _, inner := range s.Embedded {
		if id := t.lookupMemberScope(inner, name, depth+1); id.IsValid() {
			return id
		}
	}
	return NoSymbolID
}

// Members lists the bound members of an aggregate in declaration order.
func (t *Table) Members(tag SymbolID) []SymbolID {
	sym := t.Symbols.Get(tag)
	if sym == nil || !sym.Members.IsValid() {
		return nil
	}
	scope := t.Scopes.Get(sym.Members)
	out := make([]SymbolID, 0, len(scope.Symbols))
	for _, id := range scope.Symbols {
		if m := t.Symbols.Get(id); m != nil && !m.Has(SymbolFlagConflict) {
			out = append(out, id)
		}
	}
	return out
}

// DeclareMacro binds a new macro symbol in the file scope, superseding any
// active macro of the same name.
func (t *Table) DeclareMacro(name source.StringID, span source.Span, kind SymbolKind, flags SymbolFlags) SymbolID {
	root := t.FileRoot(source.Span{File: span.File})
	id := t.addSymbol(&Symbol{
		Name:  name,
		Kind:  kind,
		Scope: root,
		Span:  span,
		Flags: flags | SymbolFlagDefined,
	})
	t.Scopes.Get(root).bind(NSMacro, name, id)
	return id
}

// UndefMacro removes the active binding of name and returns it.
func (t *Table) UndefMacro(name source.StringID) (SymbolID, bool) {
	root := t.Scopes.Get(t.root)
	if root == nil {
		return NoSymbolID, false
	}
	id, ok := root.Lookup(NSMacro, name)
	if ok {
		root.unbind(NSMacro, name)
	}
	return id, ok
}

// LookupMacro returns the active macro named name.
func (t *Table) LookupMacro(name source.StringID) SymbolID {
	root := t.Scopes.Get(t.root)
	if root == nil {
		return NoSymbolID
	}
	id, _ := root.Lookup(NSMacro, name)
	return id
}
