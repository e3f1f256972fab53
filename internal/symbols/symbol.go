package symbols

import (
	"cnav/internal/source"
)

// SymbolKind classifies the entity a symbol denotes.
type SymbolKind uint8

const (
	SymbolInvalid SymbolKind = iota
	SymbolFunction
	SymbolVariable
	SymbolStructTag
	SymbolUnionTag
	SymbolEnumTag
	SymbolEnumConstant
	SymbolStructMember
	SymbolUnionMember
	SymbolTypedef
	SymbolMacroObject
	SymbolMacroFunction
	SymbolLabel
)

var kindNames = [...]string{
	SymbolInvalid:       "invalid",
	SymbolFunction:      "function",
	SymbolVariable:      "variable",
	SymbolStructTag:     "struct-tag",
	SymbolUnionTag:      "union-tag",
	SymbolEnumTag:       "enum-tag",
	SymbolEnumConstant:  "enum-constant",
	SymbolStructMember:  "struct-member",
	SymbolUnionMember:   "union-member",
	SymbolTypedef:       "typedef",
	SymbolMacroObject:   "macro-object",
	SymbolMacroFunction: "macro-function",
	SymbolLabel:         "label",
}

func (k SymbolKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "invalid"
}

// Namespace returns the C name domain the kind lives in.
func (k SymbolKind) Namespace() Namespace {
	switch k {
	case SymbolStructTag, SymbolUnionTag, SymbolEnumTag:
		return NSTag
	case SymbolStructMember, SymbolUnionMember:
		return NSMember
	case SymbolMacroObject, SymbolMacroFunction:
		return NSMacro
	case SymbolLabel:
		return NSLabel
	default:
		return NSOrdinary
	}
}

// IsTag reports struct, union and enum tags.
func (k SymbolKind) IsTag() bool { return k.Namespace() == NSTag }

// IsAggregate reports tags that own a member scope.
func (k SymbolKind) IsAggregate() bool { return k == SymbolStructTag || k == SymbolUnionTag }

// IsMacro reports object- and function-like macros.
func (k SymbolKind) IsMacro() bool { return k.Namespace() == NSMacro }

// Namespace is one of the disjoint C name domains.
type Namespace uint8

const (
	NSOrdinary Namespace = iota
	NSTag
	NSMember // qualified by the owning aggregate (Scope.Owner)
	NSMacro
	NSLabel
	namespaceCount
)

func (ns Namespace) String() string {
	switch ns {
	case NSOrdinary:
		return "ordinary"
	case NSTag:
		return "tag"
	case NSMember:
		return "member"
	case NSMacro:
		return "macro"
	case NSLabel:
		return "label"
	}
	return "invalid"
}

// SymbolFlags encode misc attributes for quick checks.
type SymbolFlags uint16

const (
	// SymbolFlagDefined is set once the defining declaration was seen.
	SymbolFlagDefined SymbolFlags = 1 << iota
	SymbolFlagParam
	SymbolFlagExtern
	SymbolFlagStatic
	SymbolFlagAnonymous
	// SymbolFlagConflict marks the later side of a binder conflict; never bound in a scope.
	SymbolFlagConflict
	// SymbolFlagCommandLine marks macros from -D; they have no range in the unit.
	SymbolFlagCommandLine
	// SymbolFlagExpanded marks declarations whose name came out of a macro body.
	SymbolFlagExpanded
	// SymbolFlagImplicit marks tags introduced by use before any declaration.
	SymbolFlagImplicit
	// SymbolFlagUntyped marks K&R parameters awaiting their declaration.
	SymbolFlagUntyped
)

var flagNames = []struct {
	flag SymbolFlags
	name string
}{
	{SymbolFlagDefined, "defined"},
	{SymbolFlagParam, "param"},
	{SymbolFlagExtern, "extern"},
	{SymbolFlagStatic, "static"},
	{SymbolFlagAnonymous, "anonymous"},
	{SymbolFlagConflict, "conflict"},
	{SymbolFlagCommandLine, "command-line"},
	{SymbolFlagExpanded, "expanded"},
	{SymbolFlagImplicit, "implicit"},
	{SymbolFlagUntyped, "untyped"},
}

// Strings returns textual flag labels.
func (f SymbolFlags) Strings() []string {
	if f == 0 {
		return nil
	}
	labels := make([]string, 0, 4)
	for _, fn := range flagNames {
		if f&fn.flag != 0 {
			labels = append(labels, fn.name)
		}
	}
	return labels
}

// Symbol describes a named entity.
type Symbol struct {
	Name    source.StringID
	Kind    SymbolKind
	Scope   ScopeID     // declaring scope; member scope for members, file scope for macros
	Span    source.Span // definition site: defining declaration, else first declaration
	Flags   SymbolFlags
	Type    Type     // variables, members, functions, typedefs, enum constants
	Members ScopeID  // struct/union tags
	Owner   SymbolID // members: the aggregate tag
}

func (s *Symbol) Has(f SymbolFlags) bool { return s.Flags&f != 0 }

// HasRange reports whether the symbol was declared inside the unit text.
func (s *Symbol) HasRange() bool {
	return s.Flags&SymbolFlagCommandLine == 0
}
