package core

func IsWhiteSpace(ch byte) bool {
	return ch == 0x00 || ch == 0x09 || ch == 0x0A || ch == 0x0C || ch == 0x0D || ch == 0x20
}

func IsPrintable(char byte) bool {
	if char < 0x21 || char > 0x7E {
		return false
	}
	return true
}

func IsDelimiter(char byte) bool {
	switch char {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func IsDecimalDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func IsOctalDigit(c byte) bool {
	return c >= '0' && c <= '7'
}

func IsFloatDigit(c byte) bool {
	return IsDecimalDigit(c) || c == '.'
}
