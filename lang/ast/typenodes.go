package ast

import (
	"fmt"

	"github.com/nilfoo/stako/lang/token"
)

// typeBase factors out the fields every resolved Type node shares: identity
// and the byte size the layout pass needs. Type nodes carry no source span
// of their own beyond the expression they were resolved from, and have no
// parent scope or statement; they live in the resolver's intern pool, not
// in the parsed tree.
type typeBase struct {
	idBase
	size int
}

func (n *typeBase) Size() int      { return n.size }
func (n *typeBase) setSize(s int)  { n.size = s }
func (n *typeBase) typeNode()      {}
func (n *typeBase) Walk(Visitor)   {}

// TypeType is the type of a type expression itself (the result type of
// `typeof`, and of a bare builtin/struct/procedure type expression).
type TypeType struct{ typeBase }

func NewTypeType() *TypeType {
	return &TypeType{typeBase{idBase: idBase{newID()}, size: 0}}
}
func (n *TypeType) Kind() TypeKind { return KindTypeType }
func (n *TypeType) Span() (token.Pos, token.Pos) { return 0, 0 }
func (n *TypeType) Format(f fmt.State, verb rune) { formatNode(f, verb, "type", nil) }

// TypeInteger is an interned integer type, distinguished by signedness and
// bit width (8/16/32/64).
type TypeInteger struct {
	typeBase
	Signed bool
	Bits   int
}

func NewTypeInteger(signed bool, bits int) *TypeInteger {
	return &TypeInteger{typeBase: typeBase{idBase: idBase{newID()}, size: bits / 8}, Signed: signed, Bits: bits}
}
func (n *TypeInteger) Kind() TypeKind       { return KindInteger }
func (n *TypeInteger) Span() (token.Pos, token.Pos)     { return 0, 0 }
func (n *TypeInteger) Format(f fmt.State, verb rune) {
	name := "u"
	if n.Signed {
		name = "s"
	}
	formatNode(f, verb, fmt.Sprintf("type %s%d", name, n.Bits), nil)
}

// TypeFloat is an interned floating-point type (32 or 64 bits). No VM
// opcode or operator-table entry currently consumes this kind: float
// literals resolve to it but float arithmetic has nothing to dispatch to,
// so it fails resolution the same way any other missing operator entry
// would, without a special case in the resolver.
type TypeFloat struct {
	typeBase
	Bits int
}

func NewTypeFloat(bits int) *TypeFloat {
	return &TypeFloat{typeBase: typeBase{idBase: idBase{newID()}, size: bits / 8}, Bits: bits}
}
func (n *TypeFloat) Kind() TypeKind   { return KindFloat }
func (n *TypeFloat) Span() (token.Pos, token.Pos) { return 0, 0 }
func (n *TypeFloat) Format(f fmt.State, verb rune) {
	formatNode(f, verb, fmt.Sprintf("type float%d", n.Bits), nil)
}

// TypeBool is the interned boolean type.
type TypeBool struct{ typeBase }

func NewTypeBool() *TypeBool {
	return &TypeBool{typeBase{idBase: idBase{newID()}, size: 1}}
}
func (n *TypeBool) Kind() TypeKind     { return KindBool }
func (n *TypeBool) Span() (token.Pos, token.Pos)   { return 0, 0 }
func (n *TypeBool) Format(f fmt.State, verb rune) { formatNode(f, verb, "type bool", nil) }

// TypeString is the interned string type: a fat pointer (data pointer +
// length) at runtime.
type TypeString struct{ typeBase }

func NewTypeString() *TypeString {
	return &TypeString{typeBase{idBase: idBase{newID()}, size: 16}}
}
func (n *TypeString) Kind() TypeKind   { return KindString }
func (n *TypeString) Span() (token.Pos, token.Pos) { return 0, 0 }
func (n *TypeString) Format(f fmt.State, verb rune) { formatNode(f, verb, "type string", nil) }

// TypeVoid is the interned void type, usable only as a procedure's return
// type.
type TypeVoid struct{ typeBase }

func NewTypeVoid() *TypeVoid {
	return &TypeVoid{typeBase{idBase: idBase{newID()}, size: 0}}
}
func (n *TypeVoid) Kind() TypeKind     { return KindVoid }
func (n *TypeVoid) Span() (token.Pos, token.Pos)   { return 0, 0 }
func (n *TypeVoid) Format(f fmt.State, verb rune) { formatNode(f, verb, "type void", nil) }

// TypeProcedure is an interned procedure signature: parameter types plus a
// return type. Two procedure types are the same type iff their parameter
// and return types are pairwise identical (interned) and in the same
// order.
type TypeProcedure struct {
	typeBase
	Params []Type
	Return Type
}

func NewTypeProcedure(params []Type, ret Type) *TypeProcedure {
	return &TypeProcedure{typeBase: typeBase{idBase: idBase{newID()}, size: 8}, Params: params, Return: ret}
}
func (n *TypeProcedure) Kind() TypeKind   { return KindProcedure }
func (n *TypeProcedure) Span() (token.Pos, token.Pos) { return 0, 0 }
func (n *TypeProcedure) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "type procedure", map[string]int{"params": len(n.Params)})
}

// TypeStruct is an interned struct layout: an ordered list of member names
// and their types. Member order determines both byte offset and equality:
// two struct types are the same type iff their member name/type sequences
// match exactly.
type TypeStruct struct {
	typeBase
	MemberNames []string
	MemberTypes []Type
}

func NewTypeStruct(names []string, types []Type, size int) *TypeStruct {
	return &TypeStruct{typeBase: typeBase{idBase: idBase{newID()}, size: size}, MemberNames: names, MemberTypes: types}
}
func (n *TypeStruct) Kind() TypeKind   { return KindStruct }
func (n *TypeStruct) Span() (token.Pos, token.Pos) { return 0, 0 }
func (n *TypeStruct) Format(f fmt.State, verb rune) {
	formatNode(f, verb, "type struct", map[string]int{"members": len(n.MemberNames)})
}
