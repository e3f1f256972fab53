package symbols

import (
	"errors"
	"fmt"
	"slices"

	"fortio.org/safecast"
)

// Validate walks the arenas checking structural invariants. Returns nil if
// everything is consistent; otherwise joins all detected issues.
func (t *Table) Validate() error {
	var errs []error

	for idx := 1; idx < len(t.Scopes.data); idx++ {
		scopeID, err := toScopeID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		scope := &t.Scopes.data[idx]
		if scope.Kind == ScopeInvalid {
			errs = append(errs, fmt.Errorf("scope %d has invalid kind", scopeID))
		}
		if scope.Parent.IsValid() {
			if int(scope.Parent) >= len(t.Scopes.data) || scope.Parent == scopeID {
				errs = append(errs, fmt.Errorf("scope %d has invalid parent %d", scopeID, scope.Parent))
				continue
			}
			if !slices.Contains(t.Scopes.data[scope.Parent].Children, scopeID) {
				errs = append(errs, fmt.Errorf("scope %d parent %d missing backlink", scopeID, scope.Parent))
			}
		} else if scope.Kind != ScopeFile {
			errs = append(errs, fmt.Errorf("%s scope %d has no parent", scope.Kind, scopeID))
		}
		for _, child := range scope.Children {
			if int(child) >= len(t.Scopes.data) || t.Scopes.data[child].Parent != scopeID {
				errs = append(errs, fmt.Errorf("scope %d child %d missing parent backlink", scopeID, child))
			}
		}
		if scope.Kind == ScopeMember {
			owner := t.Symbols.Get(scope.Owner)
			if owner == nil || !owner.Kind.IsAggregate() {
				errs = append(errs, fmt.Errorf("member scope %d is not owned by a struct or union tag", scopeID))
			}
		}
		for _, inner := range scope.Embedded {
			if s := t.Scopes.Get(inner); s == nil || s.Kind != ScopeMember {
				errs = append(errs, fmt.Errorf("scope %d embeds non-member scope %d", scopeID, inner))
			}
		}

		for ns := range scope.Names {
			for name, id := range scope.Names[ns] {
				sym := t.Symbols.Get(id)
				switch {
				case sym == nil:
					errs = append(errs, fmt.Errorf("scope %d binds %d to missing symbol %d", scopeID, name, id))
				case sym.Scope != scopeID:
					errs = append(errs, fmt.Errorf("scope %d binds symbol %d declared in scope %d", scopeID, id, sym.Scope))
				case sym.Kind.Namespace() != Namespace(ns):
					errs = append(errs, fmt.Errorf("scope %d binds %s symbol %d in %s namespace", scopeID, sym.Kind, id, Namespace(ns)))
				case sym.Name != name:
					errs = append(errs, fmt.Errorf("scope %d binds symbol %d under a foreign name", scopeID, id))
				case sym.Has(SymbolFlagConflict):
					errs = append(errs, fmt.Errorf("scope %d binds conflicting symbol %d", scopeID, id))
				}
			}
		}
	}

	for idx := 1; idx < len(t.Symbols.data); idx++ {
		symbolID, err := toSymbolID(idx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		sym := &t.Symbols.data[idx]
		if !sym.Scope.IsValid() || int(sym.Scope) >= len(t.Scopes.data) {
			errs = append(errs, fmt.Errorf("symbol %d has invalid scope %d", symbolID, sym.Scope))
			continue
		}
		if !slices.Contains(t.Scopes.data[sym.Scope].Symbols, symbolID) {
			errs = append(errs, fmt.Errorf("symbol %d is missing from scope %d list", symbolID, sym.Scope))
		}
		if sym.Kind.Namespace() == NSMember {
			scope := &t.Scopes.data[sym.Scope]
			if scope.Kind != ScopeMember || scope.Owner != sym.Owner {
				errs = append(errs, fmt.Errorf("member %d is not declared in its aggregate's member scope", symbolID))
			}
		}
		if sym.Members.IsValid() && !sym.Kind.IsAggregate() {
			errs = append(errs, fmt.Errorf("%s symbol %d owns a member scope", sym.Kind, symbolID))
		}
	}

	return errors.Join(errs...)
}

func toScopeID(idx int) (ScopeID, error) {
	v, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoScopeID, fmt.Errorf("scope index %d overflow: %w", idx, err)
	}
	return ScopeID(v), nil
}

func toSymbolID(idx int) (SymbolID, error) {
	v, err := safecast.Conv[uint32](idx)
	if err != nil {
		return NoSymbolID, fmt.Errorf("symbol index %d overflow: %w", idx, err)
	}
	return SymbolID(v), nil
}
