package parser

import (
	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/token"
)

// binPrec gives each binary operator's precedence (higher binds tighter);
// all are left-associative. Unary `+ - !` and the postfix call/member forms
// bind tighter than every entry here.
var binPrec = map[token.Kind]int{
	token.STAR: 5, token.SLASH: 5, token.PERCENT: 5,
	token.PLUS: 4, token.MINUS: 4,
	token.LT: 3, token.GT: 3, token.LE: 3, token.GE: 3,
	token.EQL: 2, token.NEQ: 2,
}

func (p *parser) parseExpr() ast.Expr { return p.parseBinary(0) }

// parseBinary implements precedence climbing: it only continues consuming
// an operator whose precedence is at least minPrec, recursing with prec+1
// for the right operand so that equal-precedence operators associate left.
func (p *parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		prec, ok := binPrec[p.tok]
		if !ok || prec < minPrec {
			return left
		}
		op := p.tok
		opPos := p.expect(op)
		right := p.parseBinary(prec + 1)
		left = ast.NewBinary(left, op, opPos, right)
	}
}

func (p *parser) parseUnary() ast.Expr {
	switch p.tok {
	case token.PLUS, token.MINUS, token.NOT:
		op := p.tok
		opPos := p.expect(op)
		operand := p.parseUnary()
		return ast.NewUnary(op, opPos, operand)
	}
	return p.parsePostfix()
}

// parsePostfix parses a primary expression followed by any number of call
// or member-access suffixes.
func (p *parser) parsePostfix() ast.Expr {
	e := p.parsePrimary()
	for {
		switch p.tok {
		case token.LPAREN:
			e = p.parseCall(e)
		case token.DOT:
			e = p.parseMember(e)
		default:
			return e
		}
	}
}

func (p *parser) parseCall(callee ast.Expr) *ast.Call {
	lparen := p.expect(token.LPAREN)
	var args []ast.Expr
	for p.tok != token.RPAREN {
		args = append(args, p.parseExpr())
		if !p.accept(token.COMMA) {
			break
		}
	}
	rparen := p.expect(token.RPAREN)
	return ast.NewCall(callee, args, lparen, rparen)
}

func (p *parser) parseMember(target ast.Expr) *ast.MemberAccess {
	p.expect(token.DOT)
	memberPos, member := p.val.Pos, p.val.Raw
	p.expect(token.IDENT)
	return ast.NewMemberAccess(target, member, memberPos)
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.tok {
	case token.INT:
		pos, raw, v := p.val.Pos, p.val.Raw, p.val.Int
		p.advance()
		return ast.NewInteger(pos, uint64(v), raw)
	case token.FLOAT:
		pos, raw, v := p.val.Pos, p.val.Raw, p.val.Float
		p.advance()
		return ast.NewFloat(pos, v, raw)
	case token.STRING:
		pos, raw, v := p.val.Pos, p.val.Raw, p.val.String
		p.advance()
		return ast.NewString(pos, v, raw)
	case token.TRUE:
		pos := p.val.Pos
		p.advance()
		return ast.NewTrue(pos)
	case token.FALSE:
		pos := p.val.Pos
		p.advance()
		return ast.NewFalse(pos)
	case token.IDENT:
		pos, lit := p.val.Pos, p.val.Raw
		p.advance()
		return ast.NewName(pos, lit)
	case token.LPAREN:
		return p.parseProcedure()
	case token.CAST:
		return p.parseCastOrTransmute(false)
	case token.TRANSMUTE:
		return p.parseCastOrTransmute(true)
	case token.TYPEOF:
		return p.parseTypeOfOrSizeOf(false)
	case token.SIZEOF:
		return p.parseTypeOfOrSizeOf(true)
	case token.STRUCT:
		return p.parseStruct()
	default:
		start := p.val.Pos
		p.errorExpected(start, "expression")
		panic(errPanicMode)
	}
}

func (p *parser) parseCastOrTransmute(transmute bool) ast.Expr {
	start := p.val.Pos
	if transmute {
		p.expect(token.TRANSMUTE)
	} else {
		p.expect(token.CAST)
	}
	p.expect(token.LPAREN)
	typeExpr := p.parseTypeExpr()
	p.expect(token.RPAREN)
	value := p.parseUnary()
	if transmute {
		return ast.NewTransmute(start, typeExpr, value)
	}
	return ast.NewCast(start, typeExpr, value)
}

func (p *parser) parseTypeOfOrSizeOf(isSizeof bool) ast.Expr {
	start := p.val.Pos
	if isSizeof {
		p.expect(token.SIZEOF)
	} else {
		p.expect(token.TYPEOF)
	}
	p.expect(token.LPAREN)
	value := p.parseExpr()
	end := p.expect(token.RPAREN)
	if isSizeof {
		return ast.NewSizeOf(start, end+1, value)
	}
	return ast.NewTypeOf(start, end+1, value)
}

// parseProcedure parses `(params) -> ReturnType { body }`, or, when no
// brace body follows, the bodyless type-literal form `(params) -> ReturnType`
// used in type position.
func (p *parser) parseProcedure() *ast.Procedure {
	start := p.expect(token.LPAREN)
	proc := ast.NewProcedure(start)
	for p.tok != token.RPAREN {
		proc.Params = append(proc.Params, p.parseParam())
		if !p.accept(token.COMMA) {
			break
		}
	}
	p.expect(token.RPAREN)
	if p.accept(token.ARROW) {
		proc.ReturnTypeExpr = p.parseTypeExpr()
	}
	if p.tok == token.LBRACE {
		proc.Body = p.parseBlock()
		_, proc.End = proc.Body.Span()
	} else {
		proc.End = p.val.Pos
	}
	return proc
}

func (p *parser) parseParam() *ast.Declaration {
	namePos, name := p.val.Pos, p.val.Raw
	p.expect(token.IDENT)
	p.expect(token.COLON)
	d := ast.NewDeclaration(namePos, name, false)
	d.TypeExpr = p.parseTypeExpr()
	return d
}

func (p *parser) parseStruct() *ast.Struct {
	start := p.expect(token.STRUCT)
	s := ast.NewStruct(start)
	p.expect(token.LBRACE)
	for p.tok != token.RBRACE {
		s.Members = append(s.Members, p.parseStructMember())
		if !p.accept(token.COMMA) {
			break
		}
	}
	end := p.expect(token.RBRACE)
	s.End = end + 1
	return s
}

func (p *parser) parseStructMember() *ast.Declaration {
	namePos, name := p.val.Pos, p.val.Raw
	p.expect(token.IDENT)
	p.expect(token.COLON)
	d := ast.NewDeclaration(namePos, name, false)
	d.TypeExpr = p.parseTypeExpr()
	return d
}

// builtinTypeNames mirrors the built-in type name table the resolver
// consults (types.Builtins): these identifiers denote a BuiltinType node
// rather than a Name reference to a type-valued constant.
var builtinTypeNames = map[string]bool{
	"type": true, "bool": true, "string": true, "void": true,
	"int": true, "uint": true,
	"s8": true, "s16": true, "s32": true, "s64": true,
	"u8": true, "u16": true, "u32": true, "u64": true,
	"f32": true, "f64": true,
}

// parseTypeExpr parses an expression in type position: a built-in type
// name, a name denoting a type-valued constant, a struct literal, or a
// bodyless procedure type literal.
func (p *parser) parseTypeExpr() ast.Expr {
	switch p.tok {
	case token.IDENT:
		pos, lit := p.val.Pos, p.val.Raw
		p.advance()
		if builtinTypeNames[lit] {
			return ast.NewBuiltinType(pos, lit)
		}
		return ast.NewName(pos, lit)
	case token.LPAREN:
		return p.parseProcedure()
	case token.STRUCT:
		return p.parseStruct()
	default:
		start := p.val.Pos
		p.errorExpected(start, "type")
		panic(errPanicMode)
	}
}
