package symbols

import (
	"fmt"

	"cnav/internal/diag"
	"cnav/internal/source"
)

// ResolverOptions configures resolver construction.
type ResolverOptions struct {
	Reporter diag.Reporter
}

// Decl describes one declaration handed to Resolver.Declare.
type Decl struct {
	Name  source.StringID
	Span  source.Span
	Kind  SymbolKind
	Flags SymbolFlags
	Type  Type
	Scope ScopeID // target scope; NoScopeID means the current one
	Owner SymbolID
	// Defining is set for function bodies, tag bodies, initialized variables
	// and labels.
	Defining bool
}

// DeclResult tells the caller which symbol the declaration now denotes.
type DeclResult struct {
	ID       SymbolID
	Merged   bool // compatible redeclaration of an existing symbol
	Conflict bool // binder conflict; ID is an unbound symbol of its own
}

// Resolver drives the scope stack and declaration rules for one build.
type Resolver struct {
	table    *Table
	reporter diag.Reporter
	stack    []ScopeID
}

// NewResolver starts with root as the current scope.
func NewResolver(table *Table, root ScopeID, opts ResolverOptions) *Resolver {
	r := &Resolver{
		table:    table,
		reporter: opts.Reporter,
		stack:    make([]ScopeID, 0, 8),
	}
	if root.IsValid() {
		r.stack = append(r.stack, root)
	}
	return r
}

func (r *Resolver) Table() *Table { return r.table }

// CurrentScope returns the scope at the top of the stack.
func (r *Resolver) CurrentScope() ScopeID {
	if len(r.stack) == 0 {
		return NoScopeID
	}
	return r.stack[len(r.stack)-1]
}

// Depth reports the stack height; the file scope alone is 1.
func (r *Resolver) Depth() int { return len(r.stack) }

// Enter creates a child scope, pushes it and returns its ID.
func (r *Resolver) Enter(kind ScopeKind, owner SymbolID, span source.Span) ScopeID {
	scope := r.table.Scopes.New(kind, r.CurrentScope(), owner, span)
	r.stack = append(r.stack, scope)
	return scope
}

// Reenter pushes an existing scope again: a prototype scope becomes the
// function scope once the body shows up.
func (r *Resolver) Reenter(scope ScopeID) {
	r.stack = append(r.stack, scope)
}

// Leave pops the current scope. A mismatch pops down to expected so a
// recovery path cannot leave stale scopes behind.
func (r *Resolver) Leave(expected ScopeID) {
	if len(r.stack) <= 1 {
		return
	}
	for len(r.stack) > 1 {
		top := r.stack[len(r.stack)-1]
		r.stack = r.stack[:len(r.stack)-1]
		if !expected.IsValid() || top == expected {
			return
		}
	}
}

// NewMemberScope creates the member scope of an aggregate tag. It hangs off
// the current lexical scope in the tree but is never on the lookup chain.
func (r *Resolver) NewMemberScope(tag SymbolID, span source.Span) ScopeID {
	scope := r.table.Scopes.New(ScopeMember, r.CurrentScope(), tag, span)
	if sym := r.table.Symbols.Get(tag); sym != nil {
		sym.Members = scope
	}
	return scope
}

// Lookup searches namespace ns from the current scope outward.
func (r *Resolver) Lookup(ns Namespace, name source.StringID) SymbolID {
	return r.table.LookupChain(r.CurrentScope(), ns, name)
}

// LookupLocal searches only the current scope.
func (r *Resolver) LookupLocal(ns Namespace, name source.StringID) SymbolID {
	if s := r.table.Scopes.Get(r.CurrentScope()); s != nil {
		if id, ok := s.Lookup(ns, name); ok {
			return id
		}
	}
	return NoSymbolID
}

// Declare installs d into its scope. Compatible redeclarations merge into the
// existing symbol; anything else is a binder conflict: the later declaration
// gets an unbound symbol and a warning, the earlier one stays authoritative.
func (r *Resolver) Declare(d Decl) DeclResult {
	scopeID := d.Scope
	if !scopeID.IsValid() {
		scopeID = r.CurrentScope()
	}
	scope := r.table.Scopes.Get(scopeID)
	if scope == nil {
		return DeclResult{}
	}
	ns := d.Kind.Namespace()

	if prevID, ok := scope.Lookup(ns, d.Name); ok && d.Name != source.NoStringID {
		prev := r.table.Symbols.Get(prevID)
		code, merge := redeclaration(scope, prev, d)
		if merge {
			r.merge(prev, d)
			return DeclResult{ID: prevID, Merged: true}
		}
		id := r.table.addSymbol(&Symbol{
			Name:  d.Name,
			Kind:  d.Kind,
			Scope: scopeID,
			Span:  d.Span,
			Flags: d.Flags | SymbolFlagConflict | definedFlag(d),
			Type:  d.Type,
			Owner: d.Owner,
		})
		r.reportConflict(code, d, prev)
		return DeclResult{ID: id, Conflict: true}
	}

	id := r.table.addSymbol(&Symbol{
		Name:  d.Name,
		Kind:  d.Kind,
		Scope: scopeID,
		Span:  d.Span,
		Flags: d.Flags | definedFlag(d),
		Type:  d.Type,
		Owner: d.Owner,
	})
	if d.Name != source.NoStringID {
		scope.bind(ns, d.Name, id)
	}
	return DeclResult{ID: id}
}

func definedFlag(d Decl) SymbolFlags {
	if d.Defining {
		return SymbolFlagDefined
	}
	return 0
}

// redeclaration decides whether d may merge into prev, otherwise which
// diagnostic the conflict gets.
func redeclaration(scope *Scope, prev *Symbol, d Decl) (diag.Code, bool) {
	bothDefined := prev.Has(SymbolFlagDefined) && d.Defining
	switch {
	case prev.Kind == d.Kind:
		switch d.Kind {
		case SymbolFunction:
			if bothDefined {
				return diag.SemaFunctionRedefined, false
			}
			return 0, true
		case SymbolVariable:
			if prev.Has(SymbolFlagParam) {
				if prev.Has(SymbolFlagUntyped) && d.Flags&SymbolFlagParam == 0 {
					return 0, true
				}
				return diag.SemaDuplicateParam, false
			}
			if scope.Kind == ScopeFile {
				if bothDefined {
					return diag.SemaVariableRedefined, false
				}
				return 0, true
			}
			if prev.Has(SymbolFlagExtern) && d.Flags&SymbolFlagExtern != 0 {
				return 0, true
			}
			return diag.SemaVariableRedefined, false
		case SymbolTypedef:
			if !prev.Type.IsUnknown() && !d.Type.IsUnknown() && !prev.Type.Equal(d.Type) {
				return diag.SemaTypedefRedefined, false
			}
			return 0, true
		case SymbolStructTag, SymbolUnionTag, SymbolEnumTag:
			if bothDefined {
				return diag.SemaTagRedefinition, false
			}
			return 0, true
		case SymbolStructMember, SymbolUnionMember:
			return diag.SemaDuplicateMember, false
		case SymbolLabel:
			return diag.SemaDuplicateLabel, false
		case SymbolEnumConstant:
			return diag.SemaEnumConstRedecl, false
		}
		return diag.SemaConflictingKinds, false
	case prev.Kind.IsTag() && d.Kind.IsTag():
		return diag.SemaTagKindMismatch, false
	case prev.Kind == SymbolEnumConstant || d.Kind == SymbolEnumConstant:
		return diag.SemaEnumConstRedecl, false
	}
	return diag.SemaConflictingKinds, false
}

// merge folds a compatible redeclaration into prev. The definition site
// moves to the first defining declaration; an extern declaration yields to a
// later non-extern one.
func (r *Resolver) merge(prev *Symbol, d Decl) {
	switch {
	case d.Defining && !prev.Has(SymbolFlagDefined):
		prev.Span = d.Span
		prev.Flags |= SymbolFlagDefined
		prev.Flags &^= SymbolFlagExtern | SymbolFlagImplicit
		if !d.Type.IsUnknown() {
			prev.Type = d.Type
		}
	case prev.Has(SymbolFlagExtern) && d.Flags&SymbolFlagExtern == 0 && !prev.Has(SymbolFlagDefined):
		prev.Span = d.Span
		prev.Flags &^= SymbolFlagExtern
	case prev.Has(SymbolFlagImplicit) && d.Flags&SymbolFlagImplicit == 0:
		// "struct S *p;" met before "struct S;"
		prev.Span = d.Span
		prev.Flags &^= SymbolFlagImplicit
	}
	if prev.Has(SymbolFlagUntyped) && !d.Type.IsUnknown() {
		prev.Type = d.Type
		prev.Flags &^= SymbolFlagUntyped
	}
	if prev.Type.IsUnknown() && !d.Type.IsUnknown() {
		prev.Type = d.Type
	}
	prev.Flags |= d.Flags & (SymbolFlagStatic)
}

func (r *Resolver) reportConflict(code diag.Code, d Decl, prev *Symbol) {
	if r.reporter == nil {
		return
	}
	name := r.table.Strings.MustLookup(d.Name)
	var msg string
	if prev.Kind == d.Kind {
		msg = fmt.Sprintf("redeclaration of %s '%s'", d.Kind, name)
	} else {
		msg = fmt.Sprintf("'%s' redeclared as %s, previously declared as %s", name, d.Kind, prev.Kind)
	}
	b := diag.ReportWarning(r.reporter, code, d.Span, msg)
	if prev.HasRange() && !prev.Span.Empty() {
		b.WithNote(prev.Span, "previous declaration here")
	}
	b.Emit()
}
