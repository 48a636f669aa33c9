// Package ast defines the tagged tree of statements, expressions and
// (resolved) types produced by the parser and annotated in place by the
// resolver and emitter. Every node carries a process-unique monotonic
// identity integer, used only for debug printing, and implements
// fmt.Formatter the way the teacher's AST package does: verbs 'v' and 's'
// are supported, the '#' flag prints child-count information, and a field
// width pads or truncates the printed label.
package ast

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nilfoo/stako/lang/token"
)

// Node is implemented by every node in the tree: statements, expressions and
// resolved types alike.
type Node interface {
	fmt.Formatter

	// ID returns the node's process-unique, monotonically assigned identity,
	// used only for debug printing.
	ID() int

	// Span reports the node's start and end source position.
	Span() (start, end token.Pos)

	// Walk visits the node's children with v.
	Walk(v Visitor)
}

// Stmt is a statement node. Every statement knows the scope that contains it.
type Stmt interface {
	Node
	ParentScope() *Scope
	SetParentScope(*Scope)
	stmtNode()
}

// Expr is an expression node. Every expression knows the statement it
// belongs to and carries the type the resolver assigns it exactly once.
type Expr interface {
	Node
	ParentStmt() Stmt
	SetParentStmt(Stmt)
	ResolvedType() Type
	SetResolvedType(Type)
	exprNode()
}

// TypeKind tags the variant of a Type node.
type TypeKind uint8

//nolint:revive
const (
	KindTypeType TypeKind = iota
	KindInteger
	KindFloat
	KindBool
	KindString
	KindVoid
	KindProcedure
	KindStruct
)

// Type is a resolved, interned type. Two Type values are the same type iff
// they are the same pointer: the resolver's intern pool is the sole
// authority on type identity.
type Type interface {
	Node
	Kind() TypeKind
	Size() int
	setSize(int)
	typeNode()
}

var nextID int

func newID() int {
	nextID++
	return nextID
}

type idBase struct{ id int }

func (n idBase) ID() int { return n.id }

// formatNode implements the shared rendering logic for every node's Format
// method: replace control characters with visible glyphs, pad/truncate to
// the requested field width, and append a "{k=v, ...}" suffix when the '#'
// flag is set.
func formatNode(f fmt.State, verb rune, label string, counts map[string]int) {
	if verb != 'v' && verb != 's' {
		fmt.Fprintf(f, "%%!%c(ast)", verb)
		return
	}

	label = strings.NewReplacer("\r\n", "⏎", "\n", "⏎", "\t", "⭾").Replace(label)

	if w, ok := f.Width(); ok {
		minus, plus := f.Flag('-'), f.Flag('+')
		runes := []rune(label)
		switch {
		case len(runes) >= w:
			runes = runes[:w]
		case minus:
			runes = append(runes, []rune(strings.Repeat(" ", w-len(runes)))...)
		case !plus:
			runes = append([]rune(strings.Repeat(" ", w-len(runes))), runes...)
		}
		label = string(runes)
	}

	fmt.Fprint(f, label)
	if f.Flag('#') && len(counts) > 0 {
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprint(f, " {")
		for i, k := range keys {
			if i > 0 {
				fmt.Fprint(f, ", ")
			}
			fmt.Fprintf(f, "%s=%d", k, counts[k])
		}
		fmt.Fprint(f, "}")
	}
}

// Scope owns an ordered list of statements and forms, together with its
// parent link, the lexical scope tree whose root is the global scope.
type Scope struct {
	idBase
	parentScope *Scope // nil for the global scope

	Start, End token.Pos
	Stmts      []Stmt
	Global     bool
	Parent     *Procedure // enclosing procedure, nil at global scope or for a nested non-function block

	// DeclOffset is not written by the resolver or the compiler and stays
	// zero: the layout pass keeps each function's running local-variable
	// offset in its own counter, shared by nested (if/while) scopes.
	DeclOffset uint64
}

func (n *Scope) ParentScope() *Scope     { return n.parentScope }
func (n *Scope) SetParentScope(s *Scope) { n.parentScope = s }
func (n *Scope) stmtNode()               {}
func (n *Scope) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *Scope) Walk(v Visitor) {
	for _, s := range n.Stmts {
		Walk(v, s)
	}
}
func (n *Scope) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "scope", map[string]int{"stmts": len(n.Stmts)})
}

// NewScope constructs a Scope with a fresh identity.
func NewScope(start, end token.Pos, global bool) *Scope {
	return &Scope{idBase: idBase{newID()}, Start: start, End: end, Global: global}
}
