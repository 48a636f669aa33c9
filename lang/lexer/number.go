package lexer

import "github.com/nilfoo/stako/lang/token"

// number scans an integer or float literal starting at the already-read
// digit (or '.') in l.cur, following the surface's decimal/binary/octal/hex
// integers with '_' digit separators and decimal floats with an optional
// exponent.
func (l *Lexer) number(start int) (kind token.Kind, base int, lit string) {
	kind = token.INT
	base = 10
	prefix := byte(0)

	if l.cur == '0' {
		l.advance()
		switch l.cur {
		case 'x', 'X':
			l.advance()
			base, prefix = 16, 'x'
		case 'o', 'O':
			l.advance()
			base, prefix = 8, 'o'
		case 'b', 'B':
			l.advance()
			base, prefix = 2, 'b'
		}
	}
	l.digits(base)

	if l.cur == '.' && prefix == 0 {
		kind = token.FLOAT
		l.advance()
		l.digits(10)
	}
	if (l.cur == 'e' || l.cur == 'E') && prefix == 0 {
		kind = token.FLOAT
		l.advance()
		if l.cur == '+' || l.cur == '-' {
			l.advance()
		}
		if !isDecimal(l.cur) {
			l.error(l.off, "exponent has no digits")
		}
		l.digits(10)
	}

	lit = string(l.src[start:l.off])
	if len(lit) == 0 || (prefix != 0 && len(lit) <= 2) {
		l.error(start, "%s has no digits", litname(prefix))
	}
	return kind, base, lit
}

func (l *Lexer) digits(base int) {
	max := rune('0' + base)
	isDigitInBase := func(r rune) bool {
		if base <= 10 {
			return isDecimal(r) && r < max
		}
		return isHex(r)
	}
	for isDigitInBase(l.cur) || l.cur == '_' {
		l.advance()
	}
}

func litname(prefix byte) string {
	switch prefix {
	case 'x':
		return "hexadecimal literal"
	case 'o':
		return "octal literal"
	case 'b':
		return "binary literal"
	}
	return "decimal literal"
}
