package lexer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/lang/lexer"
	"github.com/nilfoo/stako/lang/token"
)

func scanAll(t *testing.T, src string) ([]token.Kind, []token.Value, []string) {
	t.Helper()
	fs := token.NewFileSet()
	f := fs.AddFile("test.sk", len(src))

	var errs []string
	var l lexer.Lexer
	l.Init(f, []byte(src), func(pos token.Position, msg string) {
		errs = append(errs, pos.String()+": "+msg)
	})

	var kinds []token.Kind
	var vals []token.Value
	for {
		var v token.Value
		k := l.Scan(&v)
		kinds = append(kinds, k)
		vals = append(vals, v)
		if k == token.EOF {
			break
		}
	}
	return kinds, vals, errs
}

func TestScanDeclarationsAndOperators(t *testing.T) {
	kinds, _, errs := scanAll(t, `x : int = 1 + 2;`)
	require.Empty(t, errs)
	assert.Equal(t, []token.Kind{
		token.IDENT, token.COLON, token.IDENT, token.EQ, token.INT,
		token.PLUS, token.INT, token.SEMI, token.EOF,
	}, kinds)
}

func TestScanConstantDeclaration(t *testing.T) {
	kinds, _, errs := scanAll(t, `main :: () -> void {};`)
	require.Empty(t, errs)
	assert.Equal(t, []token.Kind{
		token.IDENT, token.COLONCOLON, token.LPAREN, token.RPAREN, token.ARROW,
		token.IDENT, token.LBRACE, token.RBRACE, token.SEMI, token.EOF,
	}, kinds)
}

func TestScanIntegerBases(t *testing.T) {
	kinds, vals, errs := scanAll(t, `0b101 0o17 0x1F 1_000`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{token.INT, token.INT, token.INT, token.INT, token.EOF}, kinds)
	assert.EqualValues(t, 5, vals[0].Int)
	assert.EqualValues(t, 15, vals[1].Int)
	assert.EqualValues(t, 31, vals[2].Int)
	assert.EqualValues(t, 1000, vals[3].Int)
}

func TestScanFloat(t *testing.T) {
	kinds, vals, errs := scanAll(t, `1.23e4`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{token.FLOAT, token.EOF}, kinds)
	assert.InDelta(t, 1.23e4, vals[0].Float, 0.0001)
}

func TestScanString(t *testing.T) {
	kinds, vals, errs := scanAll(t, `"hello\nworld"`)
	require.Empty(t, errs)
	require.Equal(t, []token.Kind{token.STRING, token.EOF}, kinds)
	assert.Equal(t, "hello\nworld", vals[0].String)
}

func TestScanLineComment(t *testing.T) {
	kinds, _, errs := scanAll(t, "x := 1 -- a comment\n;")
	require.Empty(t, errs)
	assert.Equal(t, []token.Kind{token.IDENT, token.COLON, token.EQ, token.INT, token.SEMI, token.EOF}, kinds)
}

func TestScanKeywords(t *testing.T) {
	kinds, _, errs := scanAll(t, `if else while break continue return print cast transmute typeof sizeof struct true false do`)
	require.Empty(t, errs)
	want := []token.Kind{
		token.IF, token.ELSE, token.WHILE, token.BREAK, token.CONTINUE, token.RETURN,
		token.PRINT, token.CAST, token.TRANSMUTE, token.TYPEOF, token.SIZEOF, token.STRUCT,
		token.TRUE, token.FALSE, token.DO, token.EOF,
	}
	assert.Equal(t, want, kinds)
}

func TestScanCompoundAssignAndRelational(t *testing.T) {
	kinds, _, errs := scanAll(t, `+= -= *= /= %= == != <= >=`)
	require.Empty(t, errs)
	want := []token.Kind{
		token.PLUS_EQ, token.MINUS_EQ, token.STAR_EQ, token.SLASH_EQ, token.PERCENT_EQ,
		token.EQL, token.NEQ, token.LE, token.GE, token.EOF,
	}
	assert.Equal(t, want, kinds)
}

func TestUnterminatedStringReportsError(t *testing.T) {
	_, _, errs := scanAll(t, `"abc`)
	require.NotEmpty(t, errs)
}

func TestUnknownHashDirectiveReportsError(t *testing.T) {
	_, _, errs := scanAll(t, `#bogus`)
	require.NotEmpty(t, errs)
}

func TestIllegalCharacterReportsError(t *testing.T) {
	_, _, errs := scanAll(t, `@`)
	require.NotEmpty(t, errs)
}
