package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/parser"
	"github.com/nilfoo/stako/lang/token"
)

func parse(t *testing.T, src string) *ast.Scope {
	t.Helper()
	fset := token.NewFileSet()
	global, errs := parser.ParseFile(fset, "test.sk", []byte(src))
	require.False(t, errs.HadError(), "unexpected parse errors: %v", errs.Errors())
	return global
}

func mainDecl(t *testing.T, global *ast.Scope) *ast.Procedure {
	t.Helper()
	require.NotEmpty(t, global.Stmts)
	d, ok := global.Stmts[len(global.Stmts)-1].(*ast.Declaration)
	require.True(t, ok)
	assert.Equal(t, "main", d.Name)
	assert.True(t, d.Constant)
	proc, ok := d.Value.(*ast.Procedure)
	require.True(t, ok)
	return proc
}

func TestParseHelloInteger(t *testing.T) {
	global := parse(t, `main :: () -> void { print 42; };`)
	proc := mainDecl(t, global)
	require.Len(t, proc.Body.Stmts, 1)
	p, ok := proc.Body.Stmts[0].(*ast.Print)
	require.True(t, ok)
	i, ok := p.Value.(*ast.Integer)
	require.True(t, ok)
	assert.EqualValues(t, 42, i.Value)
}

func TestParseArithmeticPrecedence(t *testing.T) {
	global := parse(t, `main :: () -> void { print 2 + 3 * 4; };`)
	proc := mainDecl(t, global)
	p := proc.Body.Stmts[0].(*ast.Print)
	add, ok := p.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, token.PLUS, add.Op)
	left, ok := add.Left.(*ast.Integer)
	require.True(t, ok)
	assert.EqualValues(t, 2, left.Value)
	mul, ok := add.Right.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, token.STAR, mul.Op)
}

func TestParseRecursiveFactorial(t *testing.T) {
	global := parse(t, `
fact :: (n: int) -> int {
  if n == 0 do return 1;
  return n * fact(n - 1);
};
main :: () -> void { print fact(6); };
`)
	require.Len(t, global.Stmts, 2)

	fact := global.Stmts[0].(*ast.Declaration)
	assert.Equal(t, "fact", fact.Name)
	assert.True(t, fact.Constant)
	proc := fact.Value.(*ast.Procedure)
	require.Len(t, proc.Params, 1)
	assert.Equal(t, "n", proc.Params[0].Name)
	paramType, ok := proc.Params[0].TypeExpr.(*ast.BuiltinType)
	require.True(t, ok)
	assert.Equal(t, "int", paramType.Name)
	retType, ok := proc.ReturnTypeExpr.(*ast.BuiltinType)
	require.True(t, ok)
	assert.Equal(t, "int", retType.Name)

	require.Len(t, proc.Body.Stmts, 2)
	ifStmt, ok := proc.Body.Stmts[0].(*ast.If)
	require.True(t, ok)
	assert.Nil(t, ifStmt.Else)
	require.Len(t, ifStmt.Then.Stmts, 1)
	_, ok = ifStmt.Then.Stmts[0].(*ast.Return)
	require.True(t, ok)

	ret, ok := proc.Body.Stmts[1].(*ast.Return)
	require.True(t, ok)
	mul, ok := ret.Value.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, token.STAR, mul.Op)
	call, ok := mul.Right.(*ast.Call)
	require.True(t, ok)
	callee, ok := call.Callee.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "fact", callee.Lit)
	require.Len(t, call.Args, 1)
}

func TestParseWhileBreak(t *testing.T) {
	global := parse(t, `
main :: () -> void {
  i := 0;
  while true { if i == 5 do break; i = i + 1; };
  print i;
};
`)
	proc := mainDecl(t, global)
	require.Len(t, proc.Body.Stmts, 4)

	decl, ok := proc.Body.Stmts[0].(*ast.Declaration)
	require.True(t, ok)
	assert.Equal(t, "i", decl.Name)
	assert.False(t, decl.Constant)
	assert.Nil(t, decl.TypeExpr)

	w, ok := proc.Body.Stmts[1].(*ast.While)
	require.True(t, ok)
	_, ok = w.Cond.(*ast.True)
	require.True(t, ok)
	require.Len(t, w.Body.Stmts, 2)

	ifStmt, ok := w.Body.Stmts[0].(*ast.If)
	require.True(t, ok)
	require.Len(t, ifStmt.Then.Stmts, 1)
	_, ok = ifStmt.Then.Stmts[0].(*ast.Break)
	require.True(t, ok)

	assign, ok := w.Body.Stmts[1].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, token.EQ, assign.Op)

	_, ok = proc.Body.Stmts[2].(*ast.Semicolon)
	require.True(t, ok)
	_, ok = proc.Body.Stmts[3].(*ast.Print)
	require.True(t, ok)
}

func TestParseCastSignedUnsigned(t *testing.T) {
	global := parse(t, `
main :: () -> void {
  x : int = -1;
  y : uint = cast(uint) x;
  print y;
};
`)
	proc := mainDecl(t, global)
	require.Len(t, proc.Body.Stmts, 3)

	x := proc.Body.Stmts[0].(*ast.Declaration)
	assert.Equal(t, "x", x.Name)
	xType := x.TypeExpr.(*ast.BuiltinType)
	assert.Equal(t, "int", xType.Name)
	neg, ok := x.Value.(*ast.Unary)
	require.True(t, ok)
	assert.Equal(t, token.MINUS, neg.Op)

	y := proc.Body.Stmts[1].(*ast.Declaration)
	cast, ok := y.Value.(*ast.Cast)
	require.True(t, ok)
	castType := cast.TypeExpr.(*ast.BuiltinType)
	assert.Equal(t, "uint", castType.Name)
	name, ok := cast.Value.(*ast.Name)
	require.True(t, ok)
	assert.Equal(t, "x", name.Lit)
}

func TestParseMutualRecursionThroughConstants(t *testing.T) {
	global := parse(t, `
isEven :: (n: int) -> bool { if n == 0 do return true; return isOdd(n - 1); };
isOdd  :: (n: int) -> bool { if n == 0 do return false; return isEven(n - 1); };
main :: () -> void { print isEven(10); };
`)
	require.Len(t, global.Stmts, 3)
	for _, name := range []string{"isEven", "isOdd", "main"} {
		found := false
		for _, s := range global.Stmts {
			if d, ok := s.(*ast.Declaration); ok && d.Name == name {
				found = true
			}
		}
		assert.True(t, found, "missing declaration %q", name)
	}
}

func TestParseDeclarationForms(t *testing.T) {
	global := parse(t, `
a :: 1;
b := 2;
c : int = 3;
d : int : 4;
`)
	require.Len(t, global.Stmts, 4)

	a := global.Stmts[0].(*ast.Declaration)
	assert.True(t, a.Constant)
	assert.Nil(t, a.TypeExpr)

	b := global.Stmts[1].(*ast.Declaration)
	assert.False(t, b.Constant)
	assert.Nil(t, b.TypeExpr)

	c := global.Stmts[2].(*ast.Declaration)
	assert.False(t, c.Constant)
	require.NotNil(t, c.TypeExpr)

	d := global.Stmts[3].(*ast.Declaration)
	assert.True(t, d.Constant)
	require.NotNil(t, d.TypeExpr)
}

func TestParseMemberAndCompoundAssign(t *testing.T) {
	global := parse(t, `
main :: () -> void {
  p.x += 1;
};
`)
	proc := mainDecl(t, global)
	require.Len(t, proc.Body.Stmts, 1)
	assign, ok := proc.Body.Stmts[0].(*ast.Assignment)
	require.True(t, ok)
	assert.Equal(t, token.PLUS_EQ, assign.Op)
	member, ok := assign.Target.(*ast.MemberAccess)
	require.True(t, ok)
	assert.Equal(t, "x", member.Member)
}

func TestParseErrorRecoveryProducesInvalidStatement(t *testing.T) {
	fset := token.NewFileSet()
	global, errs := parser.ParseFile(fset, "bad.sk", []byte(`main :: () -> void { print 1 print 2; };`))
	assert.True(t, errs.HadError())
	proc := mainDecl(t, global)
	assert.NotEmpty(t, proc.Body.Stmts)
	_, ok := proc.Body.Stmts[0].(*ast.InvalidStatement)
	assert.True(t, ok)
}
