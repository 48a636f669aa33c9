package parser

import (
	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/token"
)

// parseStmts parses statements until the current token is end or EOF.
func (p *parser) parseStmts(end token.Kind) []ast.Stmt {
	var stmts []ast.Stmt
	for p.tok != end && p.tok != token.EOF {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

// parseBlock parses a brace-delimited list of statements into its own scope.
func (p *parser) parseBlock() *ast.Scope {
	start := p.expect(token.LBRACE)
	scope := ast.NewScope(start, start, false)
	scope.Stmts = p.parseStmts(token.RBRACE)
	scope.End = p.expect(token.RBRACE)
	return scope
}

// parseBody parses an if/while body: either a brace block, or the `do`
// single-statement sugar (`if cond do return 1;`).
func (p *parser) parseBody() *ast.Scope {
	if p.tok == token.LBRACE {
		return p.parseBlock()
	}
	doPos := p.expect(token.DO)
	scope := ast.NewScope(doPos, doPos, false)
	stmt := p.parseStmt()
	_, scope.End = stmt.Span()
	scope.Stmts = []ast.Stmt{stmt}
	return scope
}

// parseStmt parses a single statement, recovering from a panic-mode error by
// synchronizing to the next statement boundary and producing an
// InvalidStatement spanning the skipped text.
func (p *parser) parseStmt() (stmt ast.Stmt) {
	start := p.val.Pos

	defer func() {
		if err := recover(); err != nil {
			if err == errPanicMode {
				stmt = ast.NewInvalidStatement(start, p.syncToStmtBoundary())
				return
			}
			panic(err)
		}
	}()

	switch p.tok {
	case token.SEMI:
		pos := p.expect(token.SEMI)
		return ast.NewSemicolon(pos)
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.BREAK:
		pos := p.expect(token.BREAK)
		p.expect(token.SEMI)
		return ast.NewBreak(pos)
	case token.CONTINUE:
		pos := p.expect(token.CONTINUE)
		p.expect(token.SEMI)
		return ast.NewContinue(pos)
	case token.RETURN:
		return p.parseReturn()
	case token.PRINT:
		return p.parsePrint()
	case token.LBRACE:
		return p.parseBlock()
	default:
		return p.parseSimpleStmt()
	}
}

func (p *parser) parseIf() *ast.If {
	start := p.expect(token.IF)
	cond := p.parseExpr()
	then := p.parseBody()
	n := ast.NewIf(start, cond, then)
	if p.tok == token.ELSE {
		n.ElsePos = p.expect(token.ELSE)
		n.Else = p.parseBody()
	}
	return n
}

func (p *parser) parseWhile() *ast.While {
	start := p.expect(token.WHILE)
	cond := p.parseExpr()
	body := p.parseBody()
	return ast.NewWhile(start, cond, body)
}

func (p *parser) parseReturn() *ast.Return {
	start := p.expect(token.RETURN)
	var value ast.Expr
	if p.tok != token.SEMI {
		value = p.parseExpr()
	}
	p.expect(token.SEMI)
	return ast.NewReturn(start, value)
}

func (p *parser) parsePrint() *ast.Print {
	pos := p.expect(token.PRINT)
	value := p.parseExpr()
	p.expect(token.SEMI)
	return ast.NewPrint(pos, value)
}

// parseSimpleStmt parses a declaration (`name : Type = v;`, `name := v;`,
// `name :: v;`, `name : Type : v;`), an assignment (plain or compound), or a
// bare expression statement. A one-token lookahead past a leading
// identifier, via p.peek, disambiguates a declaration from everything else.
func (p *parser) parseSimpleStmt() ast.Stmt {
	if p.tok == token.IDENT {
		next := p.peek()
		if next == token.COLON || next == token.COLONCOLON {
			namePos, name := p.val.Pos, p.val.Raw
			p.advance()
			return p.parseDeclaration(namePos, name)
		}
	}
	expr := p.parseExpr()
	return p.parseAssignOrExprStmt(expr)
}

func (p *parser) parseDeclaration(namePos token.Pos, name string) *ast.Declaration {
	if p.tok == token.COLONCOLON {
		p.advance()
		d := ast.NewDeclaration(namePos, name, true)
		d.Value = p.parseExpr()
		p.expect(token.SEMI)
		return d
	}

	p.expect(token.COLON)
	if p.tok == token.EQ {
		p.advance()
		d := ast.NewDeclaration(namePos, name, false)
		d.Value = p.parseExpr()
		p.expect(token.SEMI)
		return d
	}

	typeExpr := p.parseTypeExpr()
	switch p.tok {
	case token.EQ:
		p.advance()
		d := ast.NewDeclaration(namePos, name, false)
		d.TypeExpr = typeExpr
		d.Value = p.parseExpr()
		p.expect(token.SEMI)
		return d
	case token.COLON:
		p.advance()
		d := ast.NewDeclaration(namePos, name, true)
		d.TypeExpr = typeExpr
		d.Value = p.parseExpr()
		p.expect(token.SEMI)
		return d
	default:
		p.errorExpected(p.val.Pos, "'=' or ':'")
		panic(errPanicMode)
	}
}

func (p *parser) parseAssignOrExprStmt(first ast.Expr) ast.Stmt {
	if p.tok.IsAssign() {
		op := p.tok
		opPos := p.expect(op)
		value := p.parseExpr()
		p.expect(token.SEMI)
		return ast.NewAssignment(first, op, opPos, value)
	}
	p.expect(token.SEMI)
	return ast.NewStatementExpression(first)
}
