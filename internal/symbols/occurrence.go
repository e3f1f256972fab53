package symbols

import "cnav/internal/source"

// Role distinguishes declaring occurrences from uses.
type Role uint8

const (
	RoleUse Role = iota
	RoleDecl
	RoleDef
)

func (r Role) String() string {
	switch r {
	case RoleDecl:
		return "decl"
	case RoleDef:
		return "def"
	}
	return "use"
}

// IsDeclaration reports declaring roles.
func (r Role) IsDeclaration() bool { return r != RoleUse }

// Occurrence binds a source range to the symbol it denotes.
type Occurrence struct {
	Span   source.Span
	Symbol SymbolID
	Role   Role
}

// Occurrences collects bindings in the order the preprocessor and binder find them.
type Occurrences struct {
	items []Occurrence
}

func (o *Occurrences) Add(span source.Span, sym SymbolID, role Role) {
	if !sym.IsValid() || span.Empty() {
		return
	}
	o.items = append(o.items, Occurrence{Span: span, Symbol: sym, Role: role})
}

func (o *Occurrences) Items() []Occurrence { return o.items }

func (o *Occurrences) Len() int { return len(o.items) }
