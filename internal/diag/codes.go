package diag

import "fmt"

// Code is a compact numeric diagnostic identifier with a stable string form.
type Code uint16

const (
	UnknownCode Code = 0

	// Lexical (1000-1099)
	LexInfo                     Code = 1000
	LexUnknownChar              Code = 1001
	LexUnterminatedString       Code = 1002
	LexUnterminatedChar         Code = 1003
	LexUnterminatedBlockComment Code = 1004
	LexBadNumber                Code = 1005
	LexStrayBackslash           Code = 1006

	// Preprocessor (1100-1199)
	PPUnknownDirective  Code = 1101
	PPMissingMacroName  Code = 1102
	PPBadMacroParams    Code = 1103
	PPUnterminatedCond  Code = 1104
	PPElseWithoutIf     Code = 1105
	PPEndifWithoutIf    Code = 1106
	PPElifAfterElse     Code = 1107
	PPUnterminatedArgs  Code = 1108
	PPArgCountMismatch  Code = 1109
	PPBadIfExpr         Code = 1110
	PPMacroRedefined    Code = 1111
	PPErrorDirective    Code = 1112
	PPWarningDirective  Code = 1113
	PPDuplicateMacroArg Code = 1114
	PPInvalidPaste      Code = 1115

	// Syntax (2000-2099)
	SynInfo            Code = 2000
	SynUnexpectedToken Code = 2001
	SynExpectSemicolon Code = 2002
	SynExpectRParen    Code = 2003
	SynExpectRBracket  Code = 2004
	SynExpectRBrace    Code = 2005
	SynUnclosedBrace   Code = 2006
	SynStrayRBrace     Code = 2007
	SynExpectIdent     Code = 2008
	SynExpectColon     Code = 2009
	SynUnclosedParen   Code = 2010

	// Binding (3000-3099)
	SemaInfo               Code = 3000
	SemaConflictingKinds   Code = 3001
	SemaTagRedefinition    Code = 3002
	SemaTagKindMismatch    Code = 3003
	SemaDuplicateMember    Code = 3004
	SemaDuplicateLabel     Code = 3005
	SemaDuplicateParam     Code = 3006
	SemaEnumConstRedecl    Code = 3007
	SemaVariableRedefined  Code = 3008
	SemaFunctionRedefined  Code = 3009
	SemaTypedefRedefined   Code = 3010
	SemaUndeclaredLabel    Code = 3011
	SemaUnknownMember      Code = 3012
	SemaInvariantViolation Code = 3099

	// I/O (4000-4099)
	IOLoadFileError  Code = 4001
	IOCacheReadError Code = 4002

	// Project (5000-5099)
	ProjInfo         Code = 5000
	ProjBadConfig    Code = 5001
	ProjBadCompileDB Code = 5002
	ProjMissingUnit  Code = 5003

	// Observability (6000-6099)
	ObsInfo    Code = 6000
	ObsTimings Code = 6001
)

var codeDescription = map[Code]string{
	UnknownCode:                 "Unknown error",
	LexInfo:                     "Lexical information",
	LexUnknownChar:              "Unknown character",
	LexUnterminatedString:       "Unterminated string literal",
	LexUnterminatedChar:         "Unterminated character literal",
	LexUnterminatedBlockComment: "Unterminated block comment",
	LexBadNumber:                "Malformed number literal",
	LexStrayBackslash:           "Stray backslash in program",
	PPUnknownDirective:          "Unknown preprocessing directive",
	PPMissingMacroName:          "Macro name missing",
	PPBadMacroParams:            "Malformed macro parameter list",
	PPUnterminatedCond:          "Unterminated conditional directive",
	PPElseWithoutIf:             "#else or #elif without #if",
	PPEndifWithoutIf:            "#endif without #if",
	PPElifAfterElse:             "#elif after #else",
	PPUnterminatedArgs:          "Unterminated macro argument list",
	PPArgCountMismatch:          "Macro argument count mismatch",
	PPBadIfExpr:                 "Invalid #if expression",
	PPMacroRedefined:            "Macro redefined",
	PPErrorDirective:            "#error directive",
	PPWarningDirective:          "#warning directive",
	PPDuplicateMacroArg:         "Duplicate macro parameter",
	PPInvalidPaste:              "Invalid token paste",
	SynInfo:                     "Syntax information",
	SynUnexpectedToken:          "Unexpected token",
	SynExpectSemicolon:          "Expected ';'",
	SynExpectRParen:             "Expected ')'",
	SynExpectRBracket:           "Expected ']'",
	SynExpectRBrace:             "Expected '}'",
	SynUnclosedBrace:            "Unclosed brace",
	SynStrayRBrace:              "Unmatched '}'",
	SynExpectIdent:              "Expected identifier",
	SynExpectColon:              "Expected ':'",
	SynUnclosedParen:            "Unclosed parenthesis",
	SemaInfo:                    "Binding information",
	SemaConflictingKinds:        "Redeclared as a different kind of symbol",
	SemaTagRedefinition:         "Tag redefinition",
	SemaTagKindMismatch:         "Tag used with a different kind",
	SemaDuplicateMember:         "Duplicate member",
	SemaDuplicateLabel:          "Duplicate label",
	SemaDuplicateParam:          "Duplicate parameter",
	SemaEnumConstRedecl:         "Enumerator redeclared",
	SemaVariableRedefined:       "Variable redefined",
	SemaFunctionRedefined:       "Function redefined",
	SemaTypedefRedefined:        "Typedef redefined with a different type",
	SemaUndeclaredLabel:         "Use of undeclared label",
	SemaUnknownMember:           "No member with this name",
	SemaInvariantViolation:      "Symbol table invariant violated",
	IOLoadFileError:             "I/O load file error",
	IOCacheReadError:            "Index cache read error",
	ProjInfo:                    "Project information",
	ProjBadConfig:               "Invalid project configuration",
	ProjBadCompileDB:            "Invalid compile_commands.json",
	ProjMissingUnit:             "Translation unit not found",
	ObsInfo:                     "Observability information",
	ObsTimings:                  "Pipeline timings",
}

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 2000:
		return fmt.Sprintf("LEX%04d", ic)
	case ic >= 2000 && ic < 3000:
		return fmt.Sprintf("SYN%04d", ic)
	case ic >= 3000 && ic < 4000:
		return fmt.Sprintf("SEM%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	case ic >= 5000 && ic < 6000:
		return fmt.Sprintf("PRJ%04d", ic)
	case ic >= 6000 && ic < 7000:
		return fmt.Sprintf("OBS%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[UnknownCode]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
