package source

import (
	"fmt"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Normalize converts raw file bytes into the form the lexer expects:
// UTF-16 with a BOM is transcoded to UTF-8, a UTF-8 BOM is dropped and CRLF becomes LF.
func Normalize(raw []byte) ([]byte, FileFlags, error) {
	var flags FileFlags
	content := raw
	if endian, ok := utf16BOM(raw); ok {
		dec := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder()
		out, _, err := transform.Bytes(dec, raw)
		if err != nil {
			return nil, 0, fmt.Errorf("decode utf-16: %w", err)
		}
		content = out
		flags |= FileDecodedUTF16 | FileHadBOM
	}
	content, hadBOM := removeBOM(content)
	if hadBOM {
		flags |= FileHadBOM
	}
	content, hadCRLF := normalizeCRLF(content)
	if hadCRLF {
		flags |= FileNormalizedCRLF
	}
	return content, flags, nil
}

func utf16BOM(raw []byte) (unicode.Endianness, bool) {
	if len(raw) < 2 {
		return unicode.LittleEndian, false
	}
	switch {
	case raw[0] == 0xFF && raw[1] == 0xFE:
		return unicode.LittleEndian, true
	case raw[0] == 0xFE && raw[1] == 0xFF:
		return unicode.BigEndian, true
	}
	return unicode.LittleEndian, false
}
