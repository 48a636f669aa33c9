package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/lang/compiler"
	"github.com/nilfoo/stako/lang/parser"
	"github.com/nilfoo/stako/lang/resolver"
	"github.com/nilfoo/stako/lang/token"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	fset := token.NewFileSet()
	global, perrs := parser.ParseFile(fset, "test.sk", []byte(src))
	require.False(t, perrs.HadError(), "parse errors: %v", perrs.Errors())

	r := resolver.New(fset)
	require.True(t, r.Resolve(global), "resolve errors: %v", r.Errors().Errors())

	prog, err := compiler.Compile(global)
	require.NoError(t, err)
	return prog
}

func TestCompileProducesNonEmptyProgram(t *testing.T) {
	prog := compile(t, `main :: () -> void { print 1; };`)
	assert.NotEmpty(t, prog.Code)
	// AllocStack opcode followed by an 8-byte size is always the first
	// instruction the emitter writes.
	assert.Equal(t, byte(compiler.AllocStack), prog.Code[0])
}

func TestCompileOrdersConstantsByDependency(t *testing.T) {
	// b depends on a; emitting in declaration order (b, a) would read a's
	// storage before it is initialized. This must not error.
	prog := compile(t, `
b :: a + 1;
a :: 41;
main :: () -> void { print b; };
`)
	assert.NotEmpty(t, prog.Code)
}

func TestCompileAllocatesGlobalStorageForConstants(t *testing.T) {
	prog := compile(t, `
a :: 1;
b :: 2;
main :: () -> void { print a + b; };
`)
	assert.Greater(t, prog.GlobalSize, 0)
}

func TestCompileNestedProcedureLiteral(t *testing.T) {
	prog := compile(t, `
apply :: (f: (x: int) -> int, v: int) -> int { return f(v); };
main :: () -> void {
  double : (x: int) -> int = (x: int) -> int { return x * 2; };
  print apply(double, 21);
};
`)
	assert.NotEmpty(t, prog.Code)
}
