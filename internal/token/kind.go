package token

// Kind represents the category of a token.
type Kind uint8

const (
	Invalid Kind = iota
	EOF

	Ident
	Number    // pp-number: integer or floating constant
	CharLit   // 'a', L'a', u8'a'
	StringLit // "abc", L"abc"
	Other     // stray byte the grammar has no use for

	// punctuators
	LParen        // (
	RParen        // )
	LBrace        // {
	RBrace        // }
	LBracket      // [
	RBracket      // ]
	Semicolon     // ;
	Comma         // ,
	Dot           // .
	Ellipsis      // ...
	Arrow         // ->
	Question      // ?
	Colon         // :
	Hash          // #
	HashHash      // ##
	Plus          // +
	Minus         // -
	Star          // *
	Slash         // /
	Percent       // %
	Amp           // &
	Pipe          // |
	Caret         // ^
	Tilde         // ~
	Bang          // !
	Assign        // =
	Lt            // <
	Gt            // >
	PlusPlus      // ++
	MinusMinus    // --
	Shl           // <<
	Shr           // >>
	LtEq          // <=
	GtEq          // >=
	EqEq          // ==
	BangEq        // !=
	AndAnd        // &&
	OrOr          // ||
	PlusAssign    // +=
	MinusAssign   // -=
	StarAssign    // *=
	SlashAssign   // /=
	PercentAssign // %=
	AmpAssign     // &=
	PipeAssign    // |=
	CaretAssign   // ^=
	ShlAssign     // <<=
	ShrAssign     // >>=

	kwBegin
	// storage and function specifiers
	KwAuto
	KwExtern
	KwRegister
	KwStatic
	KwTypedef
	KwThreadLocal // _Thread_local
	KwInline      // inline, __inline, __inline__
	KwNoreturn    // _Noreturn
	// qualifiers
	KwConst
	KwVolatile
	KwRestrict
	KwAtomic // _Atomic
	// type specifiers
	KwVoid
	KwChar
	KwShort
	KwInt
	KwLong
	KwFloat
	KwDouble
	KwSigned
	KwUnsigned
	KwBool    // _Bool
	KwComplex // _Complex, _Imaginary
	KwInt128  // __int128
	KwStruct
	KwUnion
	KwEnum
	KwTypeof // typeof, __typeof__
	// statements
	KwIf
	KwElse
	KwSwitch
	KwCase
	KwDefault
	KwWhile
	KwDo
	KwFor
	KwGoto
	KwContinue
	KwBreak
	KwReturn
	// operators and the rest
	KwSizeof
	KwAlignof      // _Alignof, __alignof__
	KwAlignas      // _Alignas
	KwGeneric      // _Generic
	KwStaticAssert // _Static_assert
	KwAsm          // asm, __asm__
	KwAttribute    // __attribute__
	KwDeclspec     // __declspec
	KwExtension    // __extension__
	KwVaArg        // __builtin_va_arg
	KwOffsetof     // __builtin_offsetof
	kwEnd
)

var kindNames = [...]string{
	Invalid:       "Invalid",
	EOF:           "EOF",
	Ident:         "Ident",
	Number:        "Number",
	CharLit:       "CharLit",
	StringLit:     "StringLit",
	Other:         "Other",
	LParen:        "(",
	RParen:        ")",
	LBrace:        "{",
	RBrace:        "}",
	LBracket:      "[",
	RBracket:      "]",
	Semicolon:     ";",
	Comma:         ",",
	Dot:           ".",
	Ellipsis:      "...",
	Arrow:         "->",
	Question:      "?",
	Colon:         ":",
	Hash:          "#",
	HashHash:      "##",
	Plus:          "+",
	Minus:         "-",
	Star:          "*",
	Slash:         "/",
	Percent:       "%",
	Amp:           "&",
	Pipe:          "|",
	Caret:         "^",
	Tilde:         "~",
	Bang:          "!",
	Assign:        "=",
	Lt:            "<",
	Gt:            ">",
	PlusPlus:      "++",
	MinusMinus:    "--",
	Shl:           "<<",
	Shr:           ">>",
	LtEq:          "<=",
	GtEq:          ">=",
	EqEq:          "==",
	BangEq:        "!=",
	AndAnd:        "&&",
	OrOr:          "||",
	PlusAssign:    "+=",
	MinusAssign:   "-=",
	StarAssign:    "*=",
	SlashAssign:   "/=",
	PercentAssign: "%=",
	AmpAssign:     "&=",
	PipeAssign:    "|=",
	CaretAssign:   "^=",
	ShlAssign:     "<<=",
	ShrAssign:     ">>=",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	if k.IsKeyword() {
		return "keyword " + keywordSpelling[k]
	}
	return "Kind(?)"
}

// IsKeyword reports whether k is any C keyword kind.
func (k Kind) IsKeyword() bool {
	return k > kwBegin && k < kwEnd
}

// IsAssign reports simple and compound assignment operators.
func (k Kind) IsAssign() bool {
	switch k {
	case Assign, PlusAssign, MinusAssign, StarAssign, SlashAssign, PercentAssign,
		AmpAssign, PipeAssign, CaretAssign, ShlAssign, ShrAssign:
		return true
	}
	return false
}

// IsBinary reports infix operators other than assignment, '?' and ','.
func (k Kind) IsBinary() bool {
	switch k {
	case Plus, Minus, Star, Slash, Percent, Amp, Pipe, Caret, Lt, Gt,
		Shl, Shr, LtEq, GtEq, EqEq, BangEq, AndAnd, OrOr:
		return true
	}
	return false
}

// IsComparison reports operators yielding int regardless of operands.
func (k Kind) IsComparison() bool {
	switch k {
	case Lt, Gt, LtEq, GtEq, EqEq, BangEq, AndAnd, OrOr:
		return true
	}
	return false
}
