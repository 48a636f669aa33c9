package ast

import (
	"fmt"

	"github.com/nilfoo/stako/lang/token"
)

// stmtBase factors out the fields and methods every Stmt variant shares:
// identity, position and enclosing-scope back-reference.
type stmtBase struct {
	idBase
	parentScope *Scope
}

func (n *stmtBase) ParentScope() *Scope     { return n.parentScope }
func (n *stmtBase) SetParentScope(s *Scope) { n.parentScope = s }
func (n *stmtBase) stmtNode()               {}

// ResolveMarker is the three-valued resolution state attached to
// declarations (and, implicitly, to the expression currently being resolved)
// to detect recursive constant dependencies.
type ResolveMarker uint8

const (
	Unresolved ResolveMarker = iota
	Resolving
	Resolved
)

// Declaration introduces a name, e.g. `x : int = 1;`, `x := 1;`,
// `x :: 1;` or as a procedure parameter.
type Declaration struct {
	stmtBase

	NamePos  token.Pos
	Name     string
	TypeExpr Expr // optional explicit type expression
	Value    Expr // optional initializer/value expression
	Constant bool // true for `::` declarations

	ResolvedType Type
	Marker       ResolveMarker

	// Parent is non-nil iff this declaration is a procedure parameter.
	Parent *Procedure

	// GlobalOffset and Offset are populated by the layout pass: GlobalOffset
	// is true for constants and declarations at global scope (Offset then
	// indexes the global/constant data region); otherwise Offset is relative
	// to the enclosing function's base pointer.
	GlobalOffset bool
	Offset       uint64
}

func NewDeclaration(namePos token.Pos, name string, constant bool) *Declaration {
	return &Declaration{stmtBase: stmtBase{idBase: idBase{newID()}}, NamePos: namePos, Name: name, Constant: constant}
}

func (n *Declaration) Span() (token.Pos, token.Pos) {
	end := n.NamePos + token.Pos(len(n.Name))
	if n.Value != nil {
		_, end = n.Value.Span()
	} else if n.TypeExpr != nil {
		_, end = n.TypeExpr.Span()
	}
	return n.NamePos, end
}
func (n *Declaration) Walk(v Visitor) {
	if n.TypeExpr != nil {
		Walk(v, n.TypeExpr)
	}
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *Declaration) Format(f fmt.State, verb rune) {
	lbl := "decl " + n.Name
	if n.Constant {
		lbl = "const decl " + n.Name
	}
	formatNode(f, verb, lbl, nil)
}

// Assignment represents `target = value;` or a compound form (`+= -= *= /=
// %=`).
type Assignment struct {
	stmtBase
	Target Expr
	Op     token.Kind // EQ or one of the _EQ compound forms
	OpPos  token.Pos
	Value  Expr
}

func NewAssignment(target Expr, op token.Kind, opPos token.Pos, value Expr) *Assignment {
	return &Assignment{stmtBase: stmtBase{idBase: idBase{newID()}}, Target: target, Op: op, OpPos: opPos, Value: value}
}
func (n *Assignment) Span() (token.Pos, token.Pos) {
	start, _ := n.Target.Span()
	_, end := n.Value.Span()
	return start, end
}
func (n *Assignment) Walk(v Visitor) { Walk(v, n.Target); Walk(v, n.Value) }
func (n *Assignment) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "assign "+n.Op.String(), nil)
}

// If represents an if/else statement. Else is nil when there is no else
// clause.
type If struct {
	stmtBase
	Start      token.Pos
	Cond       Expr
	Then       *Scope
	ElsePos    token.Pos
	Else       *Scope
}

func NewIf(start token.Pos, cond Expr, then *Scope) *If {
	return &If{stmtBase: stmtBase{idBase: idBase{newID()}}, Start: start, Cond: cond, Then: then}
}
func (n *If) Span() (token.Pos, token.Pos) {
	_, end := n.Then.Span()
	if n.Else != nil {
		_, end = n.Else.Span()
	}
	return n.Start, end
}
func (n *If) Walk(v Visitor) {
	Walk(v, n.Cond)
	Walk(v, n.Then)
	if n.Else != nil {
		Walk(v, n.Else)
	}
}
func (n *If) Format(f fmt.State, verb rune) {
	lbl := "if"
	if n.Else != nil {
		lbl = "if/else"
	}
	formatNode(f, verb, lbl, nil)
}

// While represents a while loop.
type While struct {
	stmtBase
	Start token.Pos
	Cond  Expr
	Body  *Scope
}

func NewWhile(start token.Pos, cond Expr, body *Scope) *While {
	return &While{stmtBase: stmtBase{idBase: idBase{newID()}}, Start: start, Cond: cond, Body: body}
}
func (n *While) Span() (token.Pos, token.Pos) { _, end := n.Body.Span(); return n.Start, end }
func (n *While) Walk(v Visitor)               { Walk(v, n.Cond); Walk(v, n.Body) }
func (n *While) Format(f fmt.State, verb rune) { formatNode(f, verb, "while", nil) }

// Return represents `return;` or `return value;`.
type Return struct {
	stmtBase
	Start token.Pos
	Value Expr // nil if no value
}

func NewReturn(start token.Pos, value Expr) *Return {
	return &Return{stmtBase: stmtBase{idBase: idBase{newID()}}, Start: start, Value: value}
}
func (n *Return) Span() (token.Pos, token.Pos) {
	end := n.Start + token.Pos(len("return"))
	if n.Value != nil {
		_, end = n.Value.Span()
	}
	return n.Start, end
}
func (n *Return) Walk(v Visitor) {
	if n.Value != nil {
		Walk(v, n.Value)
	}
}
func (n *Return) Format(f fmt.State, verb rune) {
	hasVal := 0
	if n.Value != nil {
		hasVal = 1
	}
	formatNode(f, verb, "return", map[string]int{"value": hasVal})
}

// StatementExpression is an expression used as a statement (a function call).
type StatementExpression struct {
	stmtBase
	Expr Expr
}

func NewStatementExpression(e Expr) *StatementExpression {
	return &StatementExpression{stmtBase: stmtBase{idBase: idBase{newID()}}, Expr: e}
}
func (n *StatementExpression) Span() (token.Pos, token.Pos) { return n.Expr.Span() }
func (n *StatementExpression) Walk(v Visitor)               { Walk(v, n.Expr) }
func (n *StatementExpression) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "expr stmt", nil)
}

// Semicolon is a no-op statement, a bare `;`.
type Semicolon struct {
	stmtBase
	Pos token.Pos
}

func NewSemicolon(pos token.Pos) *Semicolon {
	return &Semicolon{stmtBase: stmtBase{idBase: idBase{newID()}}, Pos: pos}
}
func (n *Semicolon) Span() (token.Pos, token.Pos)  { return n.Pos, n.Pos + 1 }
func (n *Semicolon) Walk(Visitor)                  {}
func (n *Semicolon) Format(f fmt.State, verb rune) { formatNode(f, verb, "semicolon", nil) }

// Break represents a `break;` statement.
type Break struct {
	stmtBase
	Pos token.Pos
}

func NewBreak(pos token.Pos) *Break {
	return &Break{stmtBase: stmtBase{idBase: idBase{newID()}}, Pos: pos}
}
func (n *Break) Span() (token.Pos, token.Pos)  { return n.Pos, n.Pos + token.Pos(len("break")) }
func (n *Break) Walk(Visitor)                  {}
func (n *Break) Format(f fmt.State, verb rune) { formatNode(f, verb, "break", nil) }

// Continue represents a `continue;` statement.
type Continue struct {
	stmtBase
	Pos token.Pos
}

func NewContinue(pos token.Pos) *Continue {
	return &Continue{stmtBase: stmtBase{idBase: idBase{newID()}}, Pos: pos}
}
func (n *Continue) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos + token.Pos(len("continue")) }
func (n *Continue) Walk(Visitor)                 {}
func (n *Continue) Format(f fmt.State, verb rune) { formatNode(f, verb, "continue", nil) }

// Print represents `print value;`.
type Print struct {
	stmtBase
	Pos   token.Pos
	Value Expr
}

func NewPrint(pos token.Pos, value Expr) *Print {
	return &Print{stmtBase: stmtBase{idBase: idBase{newID()}}, Pos: pos, Value: value}
}
func (n *Print) Span() (token.Pos, token.Pos) { _, end := n.Value.Span(); return n.Pos, end }
func (n *Print) Walk(v Visitor)               { Walk(v, n.Value) }
func (n *Print) Format(f fmt.State, verb rune) { formatNode(f, verb, "print", nil) }

// InvalidStatement represents a statement that failed to parse.
type InvalidStatement struct {
	stmtBase
	Start, End token.Pos
}

func NewInvalidStatement(start, end token.Pos) *InvalidStatement {
	return &InvalidStatement{stmtBase: stmtBase{idBase: idBase{newID()}}, Start: start, End: end}
}
func (n *InvalidStatement) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *InvalidStatement) Walk(Visitor)                 {}
func (n *InvalidStatement) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "!invalid stmt!", nil)
}
