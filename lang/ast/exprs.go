package ast

import (
	"fmt"

	"github.com/nilfoo/stako/lang/token"
)

// exprBase factors out the fields and methods every Expr variant shares:
// identity, enclosing-statement back-reference and the resolver-assigned
// type.
type exprBase struct {
	idBase
	parentStmt   Stmt
	resolvedType Type
}

func (n *exprBase) ParentStmt() Stmt        { return n.parentStmt }
func (n *exprBase) SetParentStmt(s Stmt)    { n.parentStmt = s }
func (n *exprBase) ResolvedType() Type      { return n.resolvedType }
func (n *exprBase) SetResolvedType(t Type)  { n.resolvedType = t }
func (n *exprBase) exprNode()               {}

// Unary represents a prefix unary expression, e.g. `-x`, `!x`.
type Unary struct {
	exprBase
	Op      token.Kind
	OpPos   token.Pos
	Operand Expr
}

func NewUnary(op token.Kind, opPos token.Pos, operand Expr) *Unary {
	return &Unary{exprBase: exprBase{idBase: idBase{newID()}}, Op: op, OpPos: opPos, Operand: operand}
}
func (n *Unary) Span() (token.Pos, token.Pos) { _, end := n.Operand.Span(); return n.OpPos, end }
func (n *Unary) Walk(v Visitor)               { Walk(v, n.Operand) }
func (n *Unary) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "unary "+n.Op.String(), nil)
}

// Binary represents an infix binary expression, e.g. `a + b`.
type Binary struct {
	exprBase
	Op    token.Kind
	OpPos token.Pos
	Left  Expr
	Right Expr
}

func NewBinary(left Expr, op token.Kind, opPos token.Pos, right Expr) *Binary {
	return &Binary{exprBase: exprBase{idBase: idBase{newID()}}, Op: op, OpPos: opPos, Left: left, Right: right}
}
func (n *Binary) Span() (token.Pos, token.Pos) {
	start, _ := n.Left.Span()
	_, end := n.Right.Span()
	return start, end
}
func (n *Binary) Walk(v Visitor) { Walk(v, n.Left); Walk(v, n.Right) }
func (n *Binary) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "binary "+n.Op.String(), nil)
}

// Cast represents `cast(T) value`: a checked conversion.
type Cast struct {
	exprBase
	Start    token.Pos
	TypeExpr Expr
	Value    Expr
}

func NewCast(start token.Pos, typeExpr, value Expr) *Cast {
	return &Cast{exprBase: exprBase{idBase: idBase{newID()}}, Start: start, TypeExpr: typeExpr, Value: value}
}
func (n *Cast) Span() (token.Pos, token.Pos) { _, end := n.Value.Span(); return n.Start, end }
func (n *Cast) Walk(v Visitor)               { Walk(v, n.TypeExpr); Walk(v, n.Value) }
func (n *Cast) Format(f fmt.State, verb rune) { formatNode(f, verb, "cast", nil) }

// Transmute represents `transmute(T) value`: a same-size bit reinterpret.
type Transmute struct {
	exprBase
	Start    token.Pos
	TypeExpr Expr
	Value    Expr
}

func NewTransmute(start token.Pos, typeExpr, value Expr) *Transmute {
	return &Transmute{exprBase: exprBase{idBase: idBase{newID()}}, Start: start, TypeExpr: typeExpr, Value: value}
}
func (n *Transmute) Span() (token.Pos, token.Pos) { _, end := n.Value.Span(); return n.Start, end }
func (n *Transmute) Walk(v Visitor)               { Walk(v, n.TypeExpr); Walk(v, n.Value) }
func (n *Transmute) Format(f fmt.State, verb rune) { formatNode(f, verb, "transmute", nil) }

// TypeOf represents `typeof(value)`, which evaluates to the value's static
// type rather than its runtime value.
type TypeOf struct {
	exprBase
	Start token.Pos
	End   token.Pos
	Value Expr
}

func NewTypeOf(start, end token.Pos, value Expr) *TypeOf {
	return &TypeOf{exprBase: exprBase{idBase: idBase{newID()}}, Start: start, End: end, Value: value}
}
func (n *TypeOf) Span() (token.Pos, token.Pos)  { return n.Start, n.End }
func (n *TypeOf) Walk(v Visitor)                { Walk(v, n.Value) }
func (n *TypeOf) Format(f fmt.State, verb rune) { formatNode(f, verb, "typeof", nil) }

// SizeOf represents `sizeof(value)`, evaluating to the value's static type's
// size in bytes as an integer constant.
type SizeOf struct {
	exprBase
	Start token.Pos
	End   token.Pos
	Value Expr
}

func NewSizeOf(start, end token.Pos, value Expr) *SizeOf {
	return &SizeOf{exprBase: exprBase{idBase: idBase{newID()}}, Start: start, End: end, Value: value}
}
func (n *SizeOf) Span() (token.Pos, token.Pos)  { return n.Start, n.End }
func (n *SizeOf) Walk(v Visitor)                { Walk(v, n.Value) }
func (n *SizeOf) Format(f fmt.State, verb rune) { formatNode(f, verb, "sizeof", nil) }

// Integer is an integer literal.
type Integer struct {
	exprBase
	Pos   token.Pos
	Value uint64
	Raw   string
}

func NewInteger(pos token.Pos, value uint64, raw string) *Integer {
	return &Integer{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos, Value: value, Raw: raw}
}
func (n *Integer) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *Integer) Walk(Visitor)                 {}
func (n *Integer) Format(f fmt.State, verb rune) { formatNode(f, verb, "int "+n.Raw, nil) }

// Float is a floating-point literal.
type Float struct {
	exprBase
	Pos   token.Pos
	Value float64
	Raw   string
}

func NewFloat(pos token.Pos, value float64, raw string) *Float {
	return &Float{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos, Value: value, Raw: raw}
}
func (n *Float) Span() (token.Pos, token.Pos)  { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *Float) Walk(Visitor)                  {}
func (n *Float) Format(f fmt.State, verb rune) { formatNode(f, verb, "float "+n.Raw, nil) }

// String is a string literal.
type String struct {
	exprBase
	Pos   token.Pos
	Value string
	Raw   string
}

func NewString(pos token.Pos, value, raw string) *String {
	return &String{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos, Value: value, Raw: raw}
}
func (n *String) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos + token.Pos(len(n.Raw)) }
func (n *String) Walk(Visitor)                 {}
func (n *String) Format(f fmt.State, verb rune) { formatNode(f, verb, "string "+n.Raw, nil) }

// True is the `true` literal.
type True struct {
	exprBase
	Pos token.Pos
}

func NewTrue(pos token.Pos) *True { return &True{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos} }
func (n *True) Span() (token.Pos, token.Pos)  { return n.Pos, n.Pos + token.Pos(len("true")) }
func (n *True) Walk(Visitor)                  {}
func (n *True) Format(f fmt.State, verb rune) { formatNode(f, verb, "true", nil) }

// False is the `false` literal.
type False struct {
	exprBase
	Pos token.Pos
}

func NewFalse(pos token.Pos) *False {
	return &False{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos}
}
func (n *False) Span() (token.Pos, token.Pos)  { return n.Pos, n.Pos + token.Pos(len("false")) }
func (n *False) Walk(Visitor)                  {}
func (n *False) Format(f fmt.State, verb rune) { formatNode(f, verb, "false", nil) }

// Name is an identifier reference; the resolver fills in
// ResolvedDeclaration once the name has been looked up.
type Name struct {
	exprBase
	Pos                  token.Pos
	Lit                  string
	ResolvedDeclaration *Declaration
}

func NewName(pos token.Pos, lit string) *Name {
	return &Name{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos, Lit: lit}
}
func (n *Name) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos + token.Pos(len(n.Lit)) }
func (n *Name) Walk(Visitor)                 {}
func (n *Name) Format(f fmt.State, verb rune) { formatNode(f, verb, "name "+n.Lit, nil) }

// Procedure is a procedure literal: `(params) -> ReturnType { ... }`, or the
// bodyless type-literal form `(params) -> ReturnType`, for which Body is nil.
// The lexer rejects `#` directives and the parser never sets BuiltinName, so
// it stays empty for every parsed procedure.
type Procedure struct {
	exprBase
	Start          token.Pos
	End            token.Pos
	Params         []*Declaration
	ReturnTypeExpr Expr // nil means void
	Body           *Scope
	BuiltinName    string // non-empty iff this is a builtin
}

func NewProcedure(start token.Pos) *Procedure {
	return &Procedure{exprBase: exprBase{idBase: idBase{newID()}}, Start: start}
}
func (n *Procedure) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *Procedure) Walk(v Visitor) {
	for _, p := range n.Params {
		Walk(v, p)
	}
	if n.ReturnTypeExpr != nil {
		Walk(v, n.ReturnTypeExpr)
	}
	if n.Body != nil {
		Walk(v, n.Body)
	}
}
func (n *Procedure) Format(f fmt.State, verb rune) {
	lbl := "procedure"
	if n.BuiltinName != "" {
		lbl = "builtin procedure " + n.BuiltinName
	}
	formatNode(f, verb, lbl, map[string]int{"params": len(n.Params)})
}

// Call represents a procedure call `callee(args...)`.
type Call struct {
	exprBase
	Callee Expr
	Args   []Expr
	Lparen token.Pos
	Rparen token.Pos
}

func NewCall(callee Expr, args []Expr, lparen, rparen token.Pos) *Call {
	return &Call{exprBase: exprBase{idBase: idBase{newID()}}, Callee: callee, Args: args, Lparen: lparen, Rparen: rparen}
}
func (n *Call) Span() (token.Pos, token.Pos) {
	start, _ := n.Callee.Span()
	return start, n.Rparen + 1
}
func (n *Call) Walk(v Visitor) {
	Walk(v, n.Callee)
	for _, a := range n.Args {
		Walk(v, a)
	}
}
func (n *Call) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "call", map[string]int{"args": len(n.Args)})
}

// MemberAccess represents `target.member`.
type MemberAccess struct {
	exprBase
	Target   Expr
	Member   string
	MemberPos token.Pos
}

func NewMemberAccess(target Expr, member string, memberPos token.Pos) *MemberAccess {
	return &MemberAccess{exprBase: exprBase{idBase: idBase{newID()}}, Target: target, Member: member, MemberPos: memberPos}
}
func (n *MemberAccess) Span() (token.Pos, token.Pos) {
	start, _ := n.Target.Span()
	return start, n.MemberPos + token.Pos(len(n.Member))
}
func (n *MemberAccess) Walk(v Visitor) { Walk(v, n.Target) }
func (n *MemberAccess) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "member ."+n.Member, nil)
}

// BuiltinType is a reference to a named builtin type (`int`, `uint`, `bool`,
// `string`, `void`, `type`, or a sized form like `s32`/`u8`/`f64`).
type BuiltinType struct {
	exprBase
	Pos  token.Pos
	Name string
}

func NewBuiltinType(pos token.Pos, name string) *BuiltinType {
	return &BuiltinType{exprBase: exprBase{idBase: idBase{newID()}}, Pos: pos, Name: name}
}
func (n *BuiltinType) Span() (token.Pos, token.Pos) { return n.Pos, n.Pos + token.Pos(len(n.Name)) }
func (n *BuiltinType) Walk(Visitor)                 {}
func (n *BuiltinType) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "builtin type "+n.Name, nil)
}

// Struct is a struct type literal: `struct { members... }`.
type Struct struct {
	exprBase
	Start   token.Pos
	End     token.Pos
	Members []*Declaration
}

func NewStruct(start token.Pos) *Struct {
	return &Struct{exprBase: exprBase{idBase: idBase{newID()}}, Start: start}
}
func (n *Struct) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *Struct) Walk(v Visitor) {
	for _, m := range n.Members {
		Walk(v, m)
	}
}
func (n *Struct) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "struct", map[string]int{"members": len(n.Members)})
}

// InvalidExpression represents an expression that failed to parse.
type InvalidExpression struct {
	exprBase
	Start, End token.Pos
}

func NewInvalidExpression(start, end token.Pos) *InvalidExpression {
	return &InvalidExpression{exprBase: exprBase{idBase: idBase{newID()}}, Start: start, End: end}
}
func (n *InvalidExpression) Span() (token.Pos, token.Pos) { return n.Start, n.End }
func (n *InvalidExpression) Walk(Visitor)                 {}
func (n *InvalidExpression) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "!invalid expr!", nil)
}
