// Package types owns the interning pool for every resolved type, the
// built-in name table the resolver consults when a name doesn't resolve to
// a local declaration, and the operator/cast dispatch tables. It imports
// lang/ast (the Type node variants live there, as a third Node super-kind
// alongside Stmt and Expr, to avoid a types->ast->types import cycle) but is
// never imported back by ast.
package types

import (
	"fmt"

	"github.com/nilfoo/stako/lang/ast"
)

// Pool interns every Type value produced while resolving one compilation
// unit: two structurally equal types are always the same pointer, so type
// equality anywhere downstream (operator dispatch, cast table, assignment
// checks) reduces to a pointer comparison.
type Pool struct {
	integers   map[integerKey]*ast.TypeInteger
	floats     map[int]*ast.TypeFloat
	procedures []*ast.TypeProcedure
	structs    []*ast.TypeStruct

	typeType *ast.TypeType
	boolean  *ast.TypeBool
	str      *ast.TypeString
	void     *ast.TypeVoid
}

type integerKey struct {
	signed bool
	bits   int
}

// NewPool returns an empty interning pool. Each compilation unit (one run
// of the resolver) owns its own pool; nothing is shared process-wide.
func NewPool() *Pool {
	return &Pool{
		integers: make(map[integerKey]*ast.TypeInteger),
		floats:   make(map[int]*ast.TypeFloat),
	}
}

func (p *Pool) Integer(signed bool, bits int) *ast.TypeInteger {
	k := integerKey{signed, bits}
	if t, ok := p.integers[k]; ok {
		return t
	}
	t := ast.NewTypeInteger(signed, bits)
	p.integers[k] = t
	return t
}

func (p *Pool) Float(bits int) *ast.TypeFloat {
	if t, ok := p.floats[bits]; ok {
		return t
	}
	t := ast.NewTypeFloat(bits)
	p.floats[bits] = t
	return t
}

func (p *Pool) Bool() *ast.TypeBool {
	if p.boolean == nil {
		p.boolean = ast.NewTypeBool()
	}
	return p.boolean
}

func (p *Pool) String() *ast.TypeString {
	if p.str == nil {
		p.str = ast.NewTypeString()
	}
	return p.str
}

func (p *Pool) Void() *ast.TypeVoid {
	if p.void == nil {
		p.void = ast.NewTypeVoid()
	}
	return p.void
}

func (p *Pool) TypeType() *ast.TypeType {
	if p.typeType == nil {
		p.typeType = ast.NewTypeType()
	}
	return p.typeType
}

// Procedure interns a procedure signature by structural equality of its
// parameter and return types (which are themselves already interned, so
// this reduces to pointer comparisons of the slice elements).
func (p *Pool) Procedure(params []ast.Type, ret ast.Type) *ast.TypeProcedure {
	for _, t := range p.procedures {
		if sameProcedure(t, params, ret) {
			return t
		}
	}
	t := ast.NewTypeProcedure(params, ret)
	p.procedures = append(p.procedures, t)
	return t
}

func sameProcedure(t *ast.TypeProcedure, params []ast.Type, ret ast.Type) bool {
	if t.Return != ret || len(t.Params) != len(params) {
		return false
	}
	for i, pt := range t.Params {
		if pt != params[i] {
			return false
		}
	}
	return true
}

// Struct interns a struct layout by structural equality of its member name
// and type sequence; its size is the sum of its members' sizes (member
// offsets are derived on demand by MemberOffset).
func (p *Pool) Struct(names []string, memberTypes []ast.Type) *ast.TypeStruct {
	for _, t := range p.structs {
		if sameStruct(t, names, memberTypes) {
			return t
		}
	}
	size := 0
	for _, mt := range memberTypes {
		size += mt.Size()
	}
	t := ast.NewTypeStruct(names, memberTypes, size)
	p.structs = append(p.structs, t)
	return t
}

func sameStruct(t *ast.TypeStruct, names []string, memberTypes []ast.Type) bool {
	if len(t.MemberNames) != len(names) {
		return false
	}
	for i := range names {
		if t.MemberNames[i] != names[i] || t.MemberTypes[i] != memberTypes[i] {
			return false
		}
	}
	return true
}

// MemberOffset returns the byte offset of the named member within a struct
// type, or an error if no such member exists.
func MemberOffset(t *ast.TypeStruct, name string) (int, error) {
	offset := 0
	for i, n := range t.MemberNames {
		if n == name {
			return offset, nil
		}
		offset += t.MemberTypes[i].Size()
	}
	return 0, fmt.Errorf("no member %q in struct type", name)
}
