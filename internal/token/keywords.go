package token

var keywords = map[string]Kind{
	"auto":               KwAuto,
	"extern":             KwExtern,
	"register":           KwRegister,
	"static":             KwStatic,
	"typedef":            KwTypedef,
	"_Thread_local":      KwThreadLocal,
	"__thread":           KwThreadLocal,
	"inline":             KwInline,
	"__inline":           KwInline,
	"__inline__":         KwInline,
	"_Noreturn":          KwNoreturn,
	"const":              KwConst,
	"__const":            KwConst,
	"__const__":          KwConst,
	"volatile":           KwVolatile,
	"__volatile__":       KwVolatile,
	"restrict":           KwRestrict,
	"__restrict":         KwRestrict,
	"__restrict__":       KwRestrict,
	"_Atomic":            KwAtomic,
	"void":               KwVoid,
	"char":               KwChar,
	"short":              KwShort,
	"int":                KwInt,
	"long":               KwLong,
	"float":              KwFloat,
	"double":             KwDouble,
	"signed":             KwSigned,
	"__signed__":         KwSigned,
	"unsigned":           KwUnsigned,
	"_Bool":              KwBool,
	"_Complex":           KwComplex,
	"_Imaginary":         KwComplex,
	"__int128":           KwInt128,
	"struct":             KwStruct,
	"union":              KwUnion,
	"enum":               KwEnum,
	"typeof":             KwTypeof,
	"__typeof":           KwTypeof,
	"__typeof__":         KwTypeof,
	"if":                 KwIf,
	"else":               KwElse,
	"switch":             KwSwitch,
	"case":               KwCase,
	"default":            KwDefault,
	"while":              KwWhile,
	"do":                 KwDo,
	"for":                KwFor,
	"goto":               KwGoto,
	"continue":           KwContinue,
	"break":              KwBreak,
	"return":             KwReturn,
	"sizeof":             KwSizeof,
	"_Alignof":           KwAlignof,
	"__alignof__":        KwAlignof,
	"_Alignas":           KwAlignas,
	"_Generic":           KwGeneric,
	"_Static_assert":     KwStaticAssert,
	"asm":                KwAsm,
	"__asm":              KwAsm,
	"__asm__":            KwAsm,
	"__attribute__":      KwAttribute,
	"__attribute":        KwAttribute,
	"__declspec":         KwDeclspec,
	"__extension__":      KwExtension,
	"__builtin_va_arg":   KwVaArg,
	"__builtin_offsetof": KwOffsetof,
}

// keywordSpelling maps a kind back to its canonical spelling.
var keywordSpelling = func() map[Kind]string {
	out := make(map[Kind]string, len(keywords))
	for s, k := range keywords {
		if prev, ok := out[k]; ok && len(prev) <= len(s) {
			continue
		}
		out[k] = s
	}
	return out
}()

// LookupKeyword returns the keyword kind for an identifier spelling.
func LookupKeyword(ident string) (Kind, bool) {
	k, ok := keywords[ident]
	return k, ok
}
