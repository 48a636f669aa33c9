// Package lexer tokenizes source text into the token stream the parser
// consumes. It is out of the spec's core scope (treated as an external
// token-stream producer) but is implemented here so the pipeline runs
// end to end, grounded on the teacher's lang/scanner package: the same
// rune-at-a-time Init/advance/Scan shape, adapted to this language's
// token kinds and literal grammar (decimal/binary/octal/hex integers with
// '_' separators, short double/single-quoted strings, `--` line comments).
package lexer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/nilfoo/stako/lang/token"
)

// Lexer tokenizes one source file for the parser to consume.
type Lexer struct {
	file *token.File
	src  []byte
	err  func(token.Position, string)

	sb  strings.Builder
	cur rune
	off int
	roff int
}

// Init (re-)initializes l to tokenize src, which must belong to file
// (file.Size() must equal len(src)). errHandler receives one call per
// diagnostic encountered while scanning.
func (l *Lexer) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("lexer: file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}
	l.file = file
	l.src = src
	l.err = errHandler
	l.sb.Reset()
	l.cur = ' '
	l.off = 0
	l.roff = 0
	l.advance()
}

func (l *Lexer) error(off int, format string, args ...any) {
	if l.err != nil {
		l.err(l.file.Position(l.file.Pos(off)), fmt.Sprintf(format, args...))
	}
}

func (l *Lexer) peek() byte {
	if l.roff < len(l.src) {
		return l.src[l.roff]
	}
	return 0
}

func (l *Lexer) advance() {
	if l.roff >= len(l.src) {
		l.off = len(l.src)
		if l.cur == '\n' {
			l.file.AddLine(l.off)
		}
		l.cur = -1
		return
	}
	l.off = l.roff
	if l.cur == '\n' {
		l.file.AddLine(l.off)
	}
	r, w := rune(l.src[l.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(l.src[l.roff:])
		if r == utf8.RuneError && w == 1 {
			l.error(l.off, "illegal UTF-8 encoding")
		}
	}
	l.roff += w
	l.cur = r
}

func (l *Lexer) advanceIf(b byte) bool {
	if l.cur == rune(b) {
		l.advance()
		return true
	}
	return false
}

// Scan returns the next token's kind and, for literals, fills val with its
// payload. val.Pos and val.Raw are always set.
func (l *Lexer) Scan(val *token.Value) token.Kind {
	l.skipTrivia()

	pos := l.file.Pos(l.off)
	start := l.off

	switch cur := l.cur; {
	case isLetter(cur):
		lit := l.ident()
		kind := lookupKeyword(lit)
		*val = token.Value{Pos: pos, Raw: lit}
		return kind

	case isDecimal(cur) || (cur == '.' && isDecimal(rune(l.peek()))):
		kind, base, lit := l.number(start)
		*val = token.Value{Pos: pos, Raw: lit}
		if kind == token.INT {
			n, err := parseInt(lit, base)
			if err != nil {
				l.error(start, "integer literal value out of range")
			}
			val.Int = n
		} else {
			f, err := strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
			if err != nil {
				l.error(start, "float literal value out of range")
			}
			val.Float = f
		}
		return kind
	}

	cur := l.cur
	l.advance()
	switch cur {
	case '=':
		if l.advanceIf('=') {
			*val = token.Value{Pos: pos, Raw: "=="}
			return token.EQL
		}
		*val = token.Value{Pos: pos, Raw: "="}
		return token.EQ

	case '"', '\'':
		lit, s := l.shortString(byte(cur), start)
		*val = token.Value{Pos: pos, Raw: lit, String: s}
		return token.STRING

	case '#':
		lit := "#" + l.ident()
		l.error(start, "unknown hash directive %q", lit)
		*val = token.Value{Pos: pos, Raw: lit}
		return token.HASH_DIRECTIVE

	case '(', ')', ',', '{', '}', ';', ':':
		return l.punct(cur, pos, val, start)

	case '+', '*', '/', '%':
		return l.punctEq(cur, pos, val, start)

	case '-':
		if l.advanceIf('-') {
			for l.cur != '\n' && l.cur != -1 {
				l.advance()
			}
			return l.Scan(val)
		}
		if l.advanceIf('>') {
			*val = token.Value{Pos: pos, Raw: "->"}
			return token.ARROW
		}
		return l.punctEq(cur, pos, val, start)

	case '<', '>':
		return l.punctEq(cur, pos, val, start)

	case '!':
		k := token.NOT
		if l.advanceIf('=') {
			k = token.NEQ
		}
		*val = token.Value{Pos: pos, Raw: string(l.src[start:l.off])}
		return k

	case '.':
		*val = token.Value{Pos: pos, Raw: "."}
		return token.DOT

	case -1:
		*val = token.Value{Pos: pos, Raw: ""}
		return token.EOF

	default:
		l.error(start, "illegal character %#U", cur)
		*val = token.Value{Pos: pos, Raw: string(cur)}
		return token.ILLEGAL
	}
}

// punct handles single-char punctuation with no compound form.
func (l *Lexer) punct(cur rune, pos token.Pos, val *token.Value, start int) token.Kind {
	var k token.Kind
	switch cur {
	case '(':
		k = token.LPAREN
	case ')':
		k = token.RPAREN
	case ',':
		k = token.COMMA
	case '{':
		k = token.LBRACE
	case '}':
		k = token.RBRACE
	case ';':
		k = token.SEMI
	case ':':
		k = token.COLON
		if l.advanceIf(':') {
			k = token.COLONCOLON
		}
	}
	*val = token.Value{Pos: pos, Raw: string(l.src[start:l.off])}
	return k
}

// punctEq handles an operator that may be followed by '=' to form its
// compound-assignment counterpart (+ - * / % < >), plus the two-char
// comparison forms (<=, >=).
func (l *Lexer) punctEq(cur rune, pos token.Pos, val *token.Value, start int) token.Kind {
	eq := l.advanceIf('=')
	var k token.Kind
	switch cur {
	case '+':
		k = token.PLUS
		if eq {
			k = token.PLUS_EQ
		}
	case '-':
		k = token.MINUS
		if eq {
			k = token.MINUS_EQ
		}
	case '*':
		k = token.STAR
		if eq {
			k = token.STAR_EQ
		}
	case '/':
		k = token.SLASH
		if eq {
			k = token.SLASH_EQ
		}
	case '%':
		k = token.PERCENT
		if eq {
			k = token.PERCENT_EQ
		}
	case '<':
		k = token.LT
		if eq {
			k = token.LE
		}
	case '>':
		k = token.GT
		if eq {
			k = token.GE
		}
	}
	*val = token.Value{Pos: pos, Raw: string(l.src[start:l.off])}
	return k
}

func (l *Lexer) ident() string {
	start := l.off
	for isLetter(l.cur) || isDigit(l.cur) {
		l.advance()
	}
	return string(l.src[start:l.off])
}

func (l *Lexer) skipTrivia() {
	for isSpace(l.cur) {
		l.advance()
	}
}

func isSpace(r rune) bool   { return r == ' ' || r == '\t' || r == '\n' || r == '\r' }
func isLetter(r rune) bool  { return r == '_' || unicode.IsLetter(r) }
func isDigit(r rune) bool   { return unicode.IsDigit(r) }
func isDecimal(r rune) bool { return '0' <= r && r <= '9' }
func isHex(r rune) bool {
	return isDecimal(r) || 'a' <= r && r <= 'f' || 'A' <= r && r <= 'F'
}

var keywords = map[string]token.Kind{
	"break":     token.BREAK,
	"cast":      token.CAST,
	"continue":  token.CONTINUE,
	"do":        token.DO,
	"else":      token.ELSE,
	"false":     token.FALSE,
	"if":        token.IF,
	"print":     token.PRINT,
	"return":    token.RETURN,
	"sizeof":    token.SIZEOF,
	"struct":    token.STRUCT,
	"transmute": token.TRANSMUTE,
	"true":      token.TRUE,
	"typeof":    token.TYPEOF,
	"while":     token.WHILE,
}

func lookupKeyword(lit string) token.Kind {
	if k, ok := keywords[lit]; ok {
		return k
	}
	return token.IDENT
}

func parseInt(lit string, base int) (int64, error) {
	if base != 10 {
		lit = lit[2:]
	}
	return strconv.ParseInt(strings.ReplaceAll(lit, "_", ""), base, 64)
}
