package symbols

import "slices"

// BaseKind is the innermost type category of a C type.
type BaseKind uint8

const (
	TypeUnknown BaseKind = iota
	TypeVoid
	TypeInt // integer, character and enum-compatible arithmetic
	TypeFloat
	TypeTag // struct, union or enum named by Type.Tag
)

// DerivKind is one declarator derivation.
type DerivKind uint8

const (
	DerivPointer DerivKind = iota + 1
	DerivArray
	DerivFunc
)

// Deriv is a pointer, array or function layer. Params is the prototype or
// function scope of a function layer.
type Deriv struct {
	Kind   DerivKind
	Params ScopeID
}

// Type is the static type of a declaration or expression as far as member
// access needs it: a base plus derivations listed outermost first, so
// "struct P *a[4]" is {Tag P, [Array, Pointer]}.
type Type struct {
	Base   BaseKind
	Tag    SymbolID
	Derivs []Deriv
}

// Unknown is the type of anything the binder cannot follow.
var Unknown = Type{}

// IntType is the type of integer constants and comparisons.
var IntType = Type{Base: TypeInt}

// TagType names a struct, union or enum.
func TagType(tag SymbolID) Type {
	return Type{Base: TypeTag, Tag: tag}
}

func (t Type) IsUnknown() bool { return t.Base == TypeUnknown && len(t.Derivs) == 0 }

// Aggregate returns the tag when t is a plain struct/union/enum value.
func (t Type) Aggregate() (SymbolID, bool) {
	if t.Base == TypeTag && len(t.Derivs) == 0 && t.Tag.IsValid() {
		return t.Tag, true
	}
	return NoSymbolID, false
}

// IsPointerLike reports pointers and arrays (which decay).
func (t Type) IsPointerLike() bool {
	return len(t.Derivs) > 0 && (t.Derivs[0].Kind == DerivPointer || t.Derivs[0].Kind == DerivArray)
}

// Derive prepends outer derivations: Derive(Pointer) of T is "pointer to T".
func (t Type) Derive(outer ...Deriv) Type {
	if len(outer) == 0 {
		return t
	}
	derivs := make([]Deriv, 0, len(outer)+len(t.Derivs))
	derivs = append(derivs, outer...)
	derivs = append(derivs, t.Derivs...)
	t.Derivs = derivs
	return t
}

// Deref strips one pointer or array layer, as *p and p[i] do.
func (t Type) Deref() Type {
	if len(t.Derivs) == 0 {
		return Unknown
	}
	switch t.Derivs[0].Kind {
	case DerivPointer, DerivArray:
		t.Derivs = slices.Clone(t.Derivs[1:])
		return t
	case DerivFunc:
		// *f of a function designator is the function again
		return t
	}
	return Unknown
}

// AddressOf is &t.
func (t Type) AddressOf() Type {
	if t.IsUnknown() {
		return Unknown
	}
	return t.Derive(Deriv{Kind: DerivPointer})
}

// Call returns the result of calling t: a function or a pointer to one.
func (t Type) Call() Type {
	d := t.Derivs
	if len(d) >= 2 && d[0].Kind == DerivPointer && d[1].Kind == DerivFunc {
		d = d[1:]
	}
	if len(d) == 0 || d[0].Kind != DerivFunc {
		return Unknown
	}
	t.Derivs = slices.Clone(d[1:])
	return t
}

// Decay turns array and function parameters into pointers.
func (t Type) Decay() Type {
	if len(t.Derivs) == 0 {
		return t
	}
	switch t.Derivs[0].Kind {
	case DerivArray:
		derivs := slices.Clone(t.Derivs)
		derivs[0] = Deriv{Kind: DerivPointer}
		t.Derivs = derivs
	case DerivFunc:
		t = t.Derive(Deriv{Kind: DerivPointer})
	}
	return t
}

// IsFunction reports a function designator type.
func (t Type) IsFunction() bool {
	return len(t.Derivs) > 0 && t.Derivs[0].Kind == DerivFunc
}

// Params returns the parameter scope of a function type.
func (t Type) Params() ScopeID {
	if t.IsFunction() {
		return t.Derivs[0].Params
	}
	return NoScopeID
}

// Equal compares types structurally, ignoring parameter scopes.
func (t Type) Equal(o Type) bool {
	if t.Base != o.Base || t.Tag != o.Tag || len(t.Derivs) != len(o.Derivs) {
		return false
	}
	for i := range t.Derivs {
		if t.Derivs[i].Kind != o.Derivs[i].Kind {
			return false
		}
	}
	return true
}
