package index

import (
	"errors"
	"sort"

	"cnav/internal/diag"
	"cnav/internal/source"
	"cnav/internal/symbols"
)

// ErrNotFound is returned when a position is not on a resolved identifier,
// or the symbol there has no range in the unit.
var ErrNotFound = errors.New("no symbol at position")

// Symbol is the frozen form of one table symbol.
type Symbol struct {
	Name  string              `msgpack:"name"`
	Kind  symbols.SymbolKind  `msgpack:"kind"`
	Owner symbols.SymbolID    `msgpack:"owner,omitempty"`
	Def   source.Span         `msgpack:"def"`
	Flags symbols.SymbolFlags `msgpack:"flags,omitempty"`
	// Refs lists indexes into Index.Occurrences in source order.
	Refs []int32 `msgpack:"refs,omitempty"`
}

// Namespace reports the C name domain of the symbol.
func (s *Symbol) Namespace() symbols.Namespace { return s.Kind.Namespace() }

// HasRange is false for macros defined on the command line.
func (s *Symbol) HasRange() bool {
	return s.Flags&symbols.SymbolFlagCommandLine == 0
}

// Occurrence binds a source range to a symbol.
type Occurrence struct {
	Span   source.Span      `msgpack:"span"`
	Symbol symbols.SymbolID `msgpack:"sym"`
	Role   symbols.Role     `msgpack:"role"`
}

// Index is the immutable query structure of one translation unit.
type Index struct {
	File source.File `msgpack:"file"`
	// Symbols is addressed by SymbolID; slot 0 is unused.
	Symbols []Symbol `msgpack:"symbols"`
	// Occurrences are sorted by start, then end; at most one per range.
	Occurrences []Occurrence      `msgpack:"occ"`
	Diagnostics []diag.Diagnostic `msgpack:"diags,omitempty"`
	Defines     []string          `msgpack:"defines,omitempty"`
	Undefines   []string          `msgpack:"undefines,omitempty"`

	maxSpan uint32
}

// Path is the unit's file path.
func (ix *Index) Path() string { return ix.File.Path }

// Symbol returns the frozen symbol for id, or nil.
func (ix *Index) Symbol(id symbols.SymbolID) *Symbol {
	if !id.IsValid() || int(id) >= len(ix.Symbols) {
		return nil
	}
	return &ix.Symbols[id]
}

// Text returns the source text covered by sp.
func (ix *Index) Text(sp source.Span) string { return ix.File.Text(sp) }

func (ix *Index) prepare() {
	ix.maxSpan = 0
	for _, o := range ix.Occurrences {
		if n := o.Span.Len(); n > ix.maxSpan {
			ix.maxSpan = n
		}
	}
}

// OccurrenceAt returns the narrowest occurrence containing off.
func (ix *Index) OccurrenceAt(off uint32) (Occurrence, bool) {
	// first occurrence starting after off
	i := sort.Search(len(ix.Occurrences), func(i int) bool {
		return ix.Occurrences[i].Span.Start > off
	})
	var (
		best  Occurrence
		found bool
	)
	for j := i - 1; j >= 0; j-- {
		o := ix.Occurrences[j]
		if o.Span.Start+ix.maxSpan < off {
			break
		}
		if !o.Span.Contains(off) {
			continue
		}
		if !found || o.Span.Len() < best.Span.Len() {
			best, found = o, true
		}
	}
	return best, found
}

// SymbolAt returns the symbol bound at off.
func (ix *Index) SymbolAt(off uint32) (symbols.SymbolID, error) {
	o, ok := ix.OccurrenceAt(off)
	if !ok {
		return symbols.NoSymbolID, ErrNotFound
	}
	return o.Symbol, nil
}

// DefinitionAt returns the declaration range of the symbol at off.
func (ix *Index) DefinitionAt(off uint32) (source.Span, error) {
	id, err := ix.SymbolAt(off)
	if err != nil {
		return source.Span{}, err
	}
	sym := ix.Symbol(id)
	if sym == nil || !sym.HasRange() {
		return source.Span{}, ErrNotFound
	}
	return sym.Def, nil
}

// ReferencesAt lists every range bound to the symbol at off in source order.
// With includeDecl unset, declaring occurrences are left out.
func (ix *Index) ReferencesAt(off uint32, includeDecl bool) ([]source.Span, error) {
	id, err := ix.SymbolAt(off)
	if err != nil {
		return nil, err
	}
	return ix.ReferencesOf(id, includeDecl), nil
}

// ReferencesOf lists the ranges bound to id in source order.
func (ix *Index) ReferencesOf(id symbols.SymbolID, includeDecl bool) []source.Span {
	sym := ix.Symbol(id)
	if sym == nil {
		return nil
	}
	out := make([]source.Span, 0, len(sym.Refs)+1)
	hasDef := false
	for _, i := range sym.Refs {
		o := ix.Occurrences[i]
		if o.Role.IsDeclaration() && !includeDecl {
			continue
		}
		if o.Span == sym.Def {
			hasDef = true
		}
		out = append(out, o.Span)
	}
	if includeDecl && !hasDef && sym.HasRange() && !sym.Def.Empty() {
		// declared by a macro body: the definition is the invocation site
		at := sort.Search(len(out), func(i int) bool { return out[i].Start >= sym.Def.Start })
		out = append(out, source.Span{})
		copy(out[at+1:], out[at:])
		out[at] = sym.Def
	}
	return out
}

// Definitions lists the symbols that have a range in the unit, ordered by
// definition site.
func (ix *Index) Definitions() []symbols.SymbolID {
	var out []symbols.SymbolID
	for i := 1; i < len(ix.Symbols); i++ {
		sym := &ix.Symbols[i]
		if sym.HasRange() && !sym.Def.Empty() && sym.Flags&symbols.SymbolFlagConflict == 0 {
			out = append(out, symbols.SymbolID(i)) // #nosec G115 -- bounded by the arena size
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		return ix.Symbols[out[a]].Def.Start < ix.Symbols[out[b]].Def.Start
	})
	return out
}

// Binding is one occurrence in identity-free form.
type Binding struct {
	Span source.Span
	Def  source.Span
	Name string
	Kind symbols.SymbolKind
	Role symbols.Role
}

// Bindings lists every occurrence with the symbol it denotes, in source
// order. Two builds of the same text produce equal listings.
func (ix *Index) Bindings() []Binding {
	out := make([]Binding, 0, len(ix.Occurrences))
	for _, o := range ix.Occurrences {
		sym := ix.Symbol(o.Symbol)
		if sym == nil {
			continue
		}
		out = append(out, Binding{Span: o.Span, Def: sym.Def, Name: sym.Name, Kind: sym.Kind, Role: o.Role})
	}
	return out
}
