// Package parser implements the recursive-descent parser that turns a token
// stream into an *ast.Scope (the file's global scope). It is out of the
// compiler's core scope per the source language's external interface (the
// implementer only needs to match the parser's output), but is implemented
// here so the pipeline runs end to end.
//
// The parser struct's shape — buffered current token/value, an init that
// registers the file and advances once, an expect that consumes an expected
// token or panics into a recovered "bad node" — is grounded on the teacher's
// lang/parser package, adapted from its Lua-like block/end grammar to this
// language's brace-and-semicolon statement grammar and from its untyped
// literal-only AST to this language's declaration/type-expression surface.
package parser

import (
	"errors"
	"strings"

	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/diag"
	"github.com/nilfoo/stako/lang/lexer"
	"github.com/nilfoo/stako/lang/token"
)

// ParseFile parses the source of one file into its global scope. The
// returned scope is always non-nil; on failure, errs.HadError() is true and
// the scope may contain InvalidStatement/InvalidExpression nodes in place of
// the text that failed to parse.
func ParseFile(fset *token.FileSet, filename string, src []byte) (*ast.Scope, *diag.Bag) {
	var p parser
	p.errs = &diag.Bag{}
	p.init(fset, filename, src)
	global := p.parseGlobalScope()
	return global, p.errs
}

// parser holds the state of one in-progress parse.
type parser struct {
	lex  lexer.Lexer
	errs *diag.Bag
	file *token.File

	tok token.Kind
	val token.Value

	hasPeek bool
	peekTok token.Kind
	peekVal token.Value
}

func (p *parser) init(fset *token.FileSet, filename string, src []byte) {
	p.file = fset.AddFile(filename, len(src))
	p.lex.Init(p.file, src, func(pos token.Position, msg string) {
		p.errs.Add(pos, "%s", msg)
	})
	p.advance()
}

func (p *parser) advance() {
	if p.hasPeek {
		p.tok, p.val = p.peekTok, p.peekVal
		p.hasPeek = false
		return
	}
	p.tok = p.lex.Scan(&p.val)
}

// peek returns the token after the current one without consuming it,
// scanning and caching it on first use.
func (p *parser) peek() token.Kind {
	if !p.hasPeek {
		p.peekTok = p.lex.Scan(&p.peekVal)
		p.hasPeek = true
	}
	return p.peekTok
}

// parseGlobalScope parses every top-level declaration up to EOF.
func (p *parser) parseGlobalScope() *ast.Scope {
	start := p.val.Pos
	scope := ast.NewScope(start, start, true)
	scope.Stmts = p.parseStmts(token.EOF)
	scope.End = p.val.Pos
	return scope
}

// errPanicMode unwinds to the nearest parseStmt call when expect fails,
// which synchronizes to the next statement boundary and yields an
// InvalidStatement for the skipped span.
var errPanicMode = errors.New("parser: panic mode")

// expect consumes the current token if it is one of want, returning its
// start position; otherwise it records a diagnostic and panics with
// errPanicMode, which parseStmt recovers.
func (p *parser) expect(want ...token.Kind) token.Pos {
	pos := p.val.Pos
	for _, k := range want {
		if p.tok == k {
			p.advance()
			return pos
		}
	}
	p.errorExpected(pos, describeKinds(want))
	panic(errPanicMode)
}

// accept consumes the current token and reports true if it is k.
func (p *parser) accept(k token.Kind) bool {
	if p.tok == k {
		p.advance()
		return true
	}
	return false
}

func (p *parser) error(pos token.Pos, format string, args ...interface{}) {
	p.errs.Add(p.file.Position(pos), format, args...)
}

func (p *parser) errorExpected(pos token.Pos, want string) {
	if pos == p.val.Pos {
		got := p.val.Raw
		if got == "" {
			got = p.tok.String()
		}
		p.error(pos, "expected %s, found %s", want, got)
		return
	}
	p.error(pos, "expected %s", want)
}

func describeKinds(kinds []token.Kind) string {
	if len(kinds) == 1 {
		return kinds[0].GoString()
	}
	var sb strings.Builder
	sb.WriteString("one of ")
	for i, k := range kinds {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(k.GoString())
	}
	return sb.String()
}

// syncToStmtBoundary advances past tokens until one that safely starts or
// ends a statement, so a single parse error doesn't cascade into spurious
// follow-on errors for the rest of the file.
func (p *parser) syncToStmtBoundary() token.Pos {
	for p.tok != token.EOF {
		if p.tok == token.SEMI {
			p.advance()
			return p.val.Pos
		}
		if p.tok == token.RBRACE || statementStarters[p.tok] {
			return p.val.Pos
		}
		p.advance()
	}
	return p.val.Pos
}

var statementStarters = map[token.Kind]bool{
	token.IF:       true,
	token.WHILE:    true,
	token.BREAK:    true,
	token.CONTINUE: true,
	token.RETURN:   true,
	token.PRINT:    true,
	token.LBRACE:   true,
}
