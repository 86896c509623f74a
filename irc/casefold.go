package irc

// Fold lowercases a nickname or channel name using rfc1459 casemapping.
// The characters []\~ are the uppercase forms of {}|^ respectively, so a
// generic unicode lowercase is not correct for IRC identifiers.
func Fold(s string) string {
	out := []byte(s)
	for i := 0; i < len(out); i++ {
		c := out[i]
		switch {
		case c >= 'A' && c <= 'Z':
			out[i] = c + ('a' - 'A')
		case c == '[':
			out[i] = '{'
		case c == ']':
			out[i] = '}'
		case c == '\\':
			out[i] = '|'
		case c == '~':
			out[i] = '^'
		}
	}
	return string(out)
}

// EqualFold compares two IRC identifiers under rfc1459 casemapping.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return Fold(a) == Fold(b)
}
