package symbols

import (
	"cnav/internal/source"
)

// ScopeKind enumerates scope categories.
type ScopeKind uint8

const (
	ScopeInvalid   ScopeKind = iota
	ScopeFile                // translation unit root
	ScopeFunction            // parameters and outermost block of a function definition
	ScopePrototype           // parameters of a declaration without a body
	ScopeBlock               // compound statement, for-init
	ScopeMember              // members of one struct or union; never on the lexical chain
)

func (k ScopeKind) String() string {
	switch k {
	case ScopeFile:
		return "file"
	case ScopeFunction:
		return "function"
	case ScopePrototype:
		return "prototype"
	case ScopeBlock:
		return "block"
	case ScopeMember:
		return "member"
	default:
		return "invalid"
	}
}

// Scope is a node of the scope tree. Each namespace has its own name map so
// equal spellings in different namespaces can never collide.
type Scope struct {
	Kind     ScopeKind
	Parent   ScopeID
	Owner    SymbolID // tag for member scopes, function for function scopes
	Span     source.Span
	Names    [namespaceCount]map[source.StringID]SymbolID
	Symbols  []SymbolID // every symbol declared here, conflicting ones included
	Children []ScopeID
	Embedded []ScopeID // member scopes of anonymous struct/union members
}

// Lookup returns the symbol bound to name in namespace ns of this scope only.
func (s *Scope) Lookup(ns Namespace, name source.StringID) (SymbolID, bool) {
	m := s.Names[ns]
	if m == nil {
		return NoSymbolID, false
	}
	id, ok := m[name]
	return id, ok
}

func (s *Scope) bind(ns Namespace, name source.StringID, id SymbolID) {
	if s.Names[ns] == nil {
		s.Names[ns] = make(map[source.StringID]SymbolID)
	}
	s.Names[ns][name] = id
}

func (s *Scope) unbind(ns Namespace, name source.StringID) {
	if s.Names[ns] != nil {
		delete(s.Names[ns], name)
	}
}

// IsLexical reports scopes that take part in unqualified lookup.
func (s *Scope) IsLexical() bool {
	return s.Kind != ScopeMember && s.Kind != ScopeInvalid
}
