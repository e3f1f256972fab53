package lexer

import "unicode/utf8"

const utf8RuneSelf = utf8.RuneSelf

// '$' is accepted in identifiers as GCC does.
func isIdentStartByte(b byte) bool {
	return b == '_' || b == '$' || (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

func isIdentContinueByte(b byte) bool {
	return isIdentStartByte(b) || isDec(b) || b >= utf8RuneSelf
}

func isDec(b byte) bool {
	return b >= '0' && b <= '9'
}

func isLiteralPrefix(word string) bool {
	switch word {
	case "L", "u", "U", "u8":
		return true
	}
	return false
}
