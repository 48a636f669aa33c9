package types

import (
	"github.com/nilfoo/stako/lang/ast"
)

// Builtins holds the fixed table of built-in type names, consulted by the
// resolver for BuiltinType nodes (which the parser creates only in type
// position); a Name in expression position that matches no declaration is
// reported as undefined and is not looked up in this table. It also holds the
// operator and cast dispatch tables every unary/binary/cast/transmute
// expression is resolved against. One Builtins value is created per pool
// and is immutable after construction.
type Builtins struct {
	pool  *Pool
	names map[string]ast.Type

	unary  []unaryEntry
	binary []binaryEntry
	casts  map[castKey]bool
}

type unaryEntry struct {
	op      string
	operand ast.Type
	result  ast.Type
}

type binaryEntry struct {
	op     string
	left   ast.Type
	right  ast.Type
	result ast.Type
}

type castKey struct {
	from ast.Type
	to   ast.Type
}

// NewBuiltins constructs the name table and operator/cast tables against
// pool, interning every built-in type exactly once.
func NewBuiltins(pool *Pool) *Builtins {
	b := &Builtins{pool: pool, names: make(map[string]ast.Type), casts: make(map[castKey]bool)}

	typ := pool.TypeType()
	boolean := pool.Bool()
	str := pool.String()
	void := pool.Void()

	s64 := pool.Integer(true, 64)
	u64 := pool.Integer(false, 64)
	s8 := pool.Integer(true, 8)
	s16 := pool.Integer(true, 16)
	s32 := pool.Integer(true, 32)
	u8 := pool.Integer(false, 8)
	u16 := pool.Integer(false, 16)
	u32 := pool.Integer(false, 32)
	f32 := pool.Float(32)
	f64 := pool.Float(64)

	b.names["type"] = typ
	b.names["bool"] = boolean
	b.names["string"] = str
	b.names["void"] = void
	b.names["int"] = s64
	b.names["uint"] = u64
	b.names["s8"] = s8
	b.names["s16"] = s16
	b.names["s32"] = s32
	b.names["s64"] = s64
	b.names["u8"] = u8
	b.names["u16"] = u16
	b.names["u32"] = u32
	b.names["u64"] = u64
	b.names["f32"] = f32
	b.names["f64"] = f64

	for _, it := range []ast.Type{s64, u64} {
		for _, op := range []string{"+", "-", "*", "/", "%"} {
			b.binary = append(b.binary, binaryEntry{op, it, it, it})
		}
		for _, op := range []string{"<", ">", "<=", ">=", "==", "!="} {
			b.binary = append(b.binary, binaryEntry{op, it, it, boolean})
		}
		b.unary = append(b.unary, unaryEntry{"-", it, it})
		b.unary = append(b.unary, unaryEntry{"+", it, it})
	}
	b.binary = append(b.binary, binaryEntry{"==", boolean, boolean, boolean})
	b.binary = append(b.binary, binaryEntry{"!=", boolean, boolean, boolean})
	b.unary = append(b.unary, unaryEntry{"!", boolean, boolean})

	b.casts[castKey{s64, u64}] = true
	b.casts[castKey{u64, s64}] = true

	return b
}

// Lookup resolves a built-in name, reporting ok=false if name isn't one.
func (b *Builtins) Lookup(name string) (ast.Type, bool) {
	t, ok := b.names[name]
	return t, ok
}

// Unary scans the unary operator table for the first entry matching
// (op, operand) by interned type identity.
func (b *Builtins) Unary(op string, operand ast.Type) (ast.Type, bool) {
	for _, e := range b.unary {
		if e.op == op && e.operand == operand {
			return e.result, true
		}
	}
	return nil, false
}

// Binary scans the binary operator table for the first entry matching
// (op, left, right) by interned type identity.
func (b *Builtins) Binary(op string, left, right ast.Type) (ast.Type, bool) {
	for _, e := range b.binary {
		if e.op == op && e.left == left && e.right == right {
			return e.result, true
		}
	}
	return nil, false
}

// CastAllowed reports whether a `cast(to) value` of a value of type from is
// permitted. Identity casts are always permitted regardless of the table.
func (b *Builtins) CastAllowed(from, to ast.Type) bool {
	if from == to {
		return true
	}
	return b.casts[castKey{from, to}]
}

// TransmuteAllowed reports whether `transmute(to) value` is permitted: same
// byte size is sufficient, there is no table to consult.
func (b *Builtins) TransmuteAllowed(from, to ast.Type) bool {
	return from.Size() == to.Size()
}
