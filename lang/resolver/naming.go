package resolver

import (
	"github.com/dolthub/swiss"

	"github.com/nilfoo/stako/lang/ast"
)

// scopeTable is the per-scope name lookup table. Constant declarations are
// registered before the scope is walked (so they are visible anywhere in
// the scope, including before their own textual position, enabling forward
// reference and mutual recursion); non-constant declarations are registered
// only once the walker reaches their statement, so a later reference sees
// them but an earlier one does not.
type scopeTable struct {
	m      *swiss.Map[string, *ast.Declaration]
	parent *scopeTable
}

func newScopeTable(parent *scopeTable) *scopeTable {
	return &scopeTable{m: swiss.NewMap[string, *ast.Declaration](8), parent: parent}
}

func (t *scopeTable) declare(name string, decl *ast.Declaration) (prior *ast.Declaration, redeclared bool) {
	if prior, ok := t.m.Get(name); ok {
		return prior, true
	}
	t.m.Put(name, decl)
	return nil, false
}

// lookupLocal reports a declaration registered directly in this table,
// without consulting parents.
func (t *scopeTable) lookupLocal(name string) (*ast.Declaration, bool) {
	return t.m.Get(name)
}

// lookup walks the table chain from innermost to outermost.
func (t *scopeTable) lookup(name string) (*ast.Declaration, bool) {
	for s := t; s != nil; s = s.parent {
		if d, ok := s.m.Get(name); ok {
			return d, true
		}
	}
	return nil, false
}
