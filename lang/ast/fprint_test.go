package ast_test

import (
	"bytes"
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/parser"
	"github.com/nilfoo/stako/lang/token"
)

// TestFprintIsDeterministic dumps the same source's AST twice and diffs the
// two dumps with kylelemons/godebug/diff, a golden-file comparison library,
// applied here directly to an AST dump instead of a testdata corpus.
func TestFprintIsDeterministic(t *testing.T) {
	const src = `
fact :: (n: int) -> int {
  if n == 0 do return 1;
  return n * fact(n - 1);
};
main :: () -> void { print fact(6); };
`
	dump := func() string {
		fset := token.NewFileSet()
		global, errs := parser.ParseFile(fset, "test.sk", []byte(src))
		require.False(t, errs.HadError(), "parse errors: %v", errs.Errors())
		var buf bytes.Buffer
		ast.Fprint(&buf, global)
		return buf.String()
	}

	want, got := dump(), dump()
	if patch := diff.Diff(want, got); patch != "" {
		t.Fatalf("ast dump not deterministic:\n%s", patch)
	}
}
