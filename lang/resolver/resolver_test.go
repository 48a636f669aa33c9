package resolver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/lang/parser"
	"github.com/nilfoo/stako/lang/resolver"
	"github.com/nilfoo/stako/lang/token"
)

func resolve(t *testing.T, src string) (bool, *resolver.Resolver) {
	t.Helper()
	fset := token.NewFileSet()
	global, perrs := parser.ParseFile(fset, "test.sk", []byte(src))
	require.False(t, perrs.HadError(), "unexpected parse errors: %v", perrs.Errors())

	r := resolver.New(fset)
	ok := r.Resolve(global)
	return ok, r
}

func TestResolveValidProgram(t *testing.T) {
	ok, r := resolve(t, `
fact :: (n: int) -> int {
  if n == 0 do return 1;
  return n * fact(n - 1);
};
main :: () -> void { print fact(6); };
`)
	assert.True(t, ok, "errors: %v", r.Errors().Errors())
}

func TestResolveMutualRecursionThroughConstants(t *testing.T) {
	ok, r := resolve(t, `
isEven :: (n: int) -> bool { if n == 0 do return true; return isOdd(n - 1); };
isOdd  :: (n: int) -> bool { if n == 0 do return false; return isEven(n - 1); };
main :: () -> void { print isEven(10); };
`)
	assert.True(t, ok, "errors: %v", r.Errors().Errors())
}

func TestResolveMissingMainFails(t *testing.T) {
	ok, r := resolve(t, `x :: 1;`)
	assert.False(t, ok)
	assert.True(t, r.Errors().HadError())
}

func TestResolveMainWithParamsFails(t *testing.T) {
	ok, _ := resolve(t, `main :: (x: int) -> void {};`)
	assert.False(t, ok)
}

func TestResolveMainNonVoidReturnFails(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> int { return 0; };`)
	assert.False(t, ok)
}

func TestResolveUndeclaredNameFails(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> void { print y; };`)
	assert.False(t, ok)
}

func TestResolveDuplicateDeclarationFails(t *testing.T) {
	ok, _ := resolve(t, `
main :: () -> void {
  x := 1;
  x := 2;
  print x;
};
`)
	assert.False(t, ok)
}

func TestResolveAssignToConstantFails(t *testing.T) {
	ok, _ := resolve(t, `
x :: 1;
main :: () -> void { x = 2; };
`)
	assert.False(t, ok)
}

func TestResolveBreakOutsideLoopFails(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> void { break; };`)
	assert.False(t, ok)
}

func TestResolveTypeMismatchFails(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> void { x : int = true; };`)
	assert.False(t, ok)
}

func TestResolveCyclicConstantsFail(t *testing.T) {
	ok, _ := resolve(t, `
a :: b + 1;
b :: a + 1;
main :: () -> void {};
`)
	assert.False(t, ok)
}

func TestResolveCastBetweenIntTypes(t *testing.T) {
	ok, r := resolve(t, `
main :: () -> void {
  x : int = -1;
  y : uint = cast(uint) x;
  print y;
};
`)
	assert.True(t, ok, "errors: %v", r.Errors().Errors())
}

func TestResolveWhileConditionMustBeBool(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> void { while 1 { break; }; };`)
	assert.False(t, ok)
}

func TestResolveMissingReturnValueFails(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> void {}; f :: () -> int { return; };`)
	assert.False(t, ok)
}

func TestResolveReturnInEitherIfBranchThenTrailingStatement(t *testing.T) {
	ok, r := resolve(t, `
main :: () -> void {};
f :: (n: int) -> int {
  if n == 0 { return 1; } else { return 2; }
  n = n + 1;
};
`)
	assert.True(t, ok, "errors: %v", r.Errors().Errors())
}

func TestResolveWhileTrueBreakDoesNotSatisfyReturn(t *testing.T) {
	ok, _ := resolve(t, `
main :: () -> void {};
f :: () -> int { while true { break; } };
`)
	assert.False(t, ok)
}

func TestResolvePrintNonPrintableFails(t *testing.T) {
	ok, _ := resolve(t, `main :: () -> void { print "x"; };`)
	assert.False(t, ok)
}

func TestResolvePrintIntAndBoolSucceed(t *testing.T) {
	ok, r := resolve(t, `main :: () -> void { print 1; print true; };`)
	assert.True(t, ok, "errors: %v", r.Errors().Errors())
}
