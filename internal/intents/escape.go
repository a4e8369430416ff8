package intents

import (
	"strconv"
	"unicode/utf16"
)

// checkEscapes rejects \u escapes that encode an unpaired UTF-16 surrogate.
// encoding/json would replace them with U+FFFD, changing the hashed bytes.
// Other malformed escapes are left for the decoder to report.
func checkEscapes(data []byte) error {
	inString := false
	for i := 0; i < len(data); i++ {
		c := data[i]
		if !inString {
			inString = c == '"'
			continue
		}
		switch c {
		case '"':
			inString = false
		case '\\':
			r, ok := unicodeEscape(data, i)
			if !ok {
				i++
				continue
			}
			i += 5
			if !utf16.IsSurrogate(r) {
				continue
			}
			if r >= 0xDC00 {
				return serializationError("string contains an unpaired surrogate escape")
			}
			low, ok := unicodeEscape(data, i+1)
			if !ok || low < 0xDC00 || low > 0xDFFF {
				return serializationError("string contains an unpaired surrogate escape")
			}
			i += 6
		}
	}
	return nil
}

// unicodeEscape reads a \uXXXX escape starting at data[i].
func unicodeEscape(data []byte, i int) (rune, bool) {
	if i+6 > len(data) || data[i] != '\\' || data[i+1] != 'u' {
		return 0, false
	}
	v, err := strconv.ParseUint(string(data[i+2:i+6]), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(v), true
}
