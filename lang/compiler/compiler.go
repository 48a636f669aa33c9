// Package compiler implements the two-pass layout-and-emission stage: a
// layout pass assigns every declaration its global or base-pointer-relative
// storage offset, and an emission pass walks the resolved tree a second
// time, producing a single contiguous bytecode buffer for the VM.
//
// The overall shape — a compiler struct accumulating a byte buffer plus
// patch queues that are resolved once the target address becomes known —
// is grounded on the teacher's lang/compiler package; the instruction
// encoding itself (one-byte opcode, 8-byte little-endian immediates) is
// this language's own fixed-width wire format rather than the teacher's
// variable-length encoding.
package compiler

import (
	"encoding/binary"
	"fmt"

	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/token"
)

// Program is the output of compilation: a flat bytecode buffer plus the
// total byte size of the global/constant data region that AllocStack zeroes
// before execution begins.
type Program struct {
	Code       []byte
	GlobalSize int
}

// Compile runs the layout pass followed by the emission pass over global,
// the resolved global scope, and returns the assembled Program.
func Compile(global *ast.Scope) (*Program, error) {
	l := &layout{frameLocalSize: make(map[*ast.Procedure]int)}
	l.layoutScope(global, nil)

	order, err := topoSortConstants(l.constants)
	if err != nil {
		return nil, err
	}

	c := &compiler{frameLocalSize: l.frameLocalSize}
	c.emitU8(byte(AllocStack))
	c.emitU64(uint64(l.globalOffset))

	for _, d := range order {
		c.emitDeclarationInit(d)
	}

	main := findMain(order)
	if main == nil {
		return nil, fmt.Errorf("internal: main not found after resolution")
	}
	c.emitU8(byte(LoadAbsolute))
	c.emitU64(main.Offset)
	c.emitU64(8)
	c.emitU8(byte(Call))
	c.emitU64(0)
	c.emitU8(byte(Exit))

	c.drainPending()

	return &Program{Code: c.buf, GlobalSize: l.globalOffset}, nil
}

func findMain(decls []*ast.Declaration) *ast.Declaration {
	for _, d := range decls {
		if d.Name == "main" && d.Constant {
			return d
		}
	}
	return nil
}

// layout assigns storage offsets in one pre-order traversal of the resolved
// tree, without emitting any bytecode.
type layout struct {
	globalOffset   int
	constants      []*ast.Declaration
	frameLocalSize map[*ast.Procedure]int
}

func (l *layout) layoutScope(scope *ast.Scope, fn *funcLayout) {
	for _, s := range scope.Stmts {
		l.layoutStmt(s, fn)
	}
}

// funcLayout tracks the running local-offset counter shared by a function
// body and every nested (if/while) scope within it.
type funcLayout struct {
	offset *uint64
}

func (l *layout) layoutStmt(s ast.Stmt, fn *funcLayout) {
	switch s := s.(type) {
	case *ast.Declaration:
		l.layoutDeclaration(s, fn)
	case *ast.If:
		l.layoutScope(s.Then, fn)
		if s.Else != nil {
			l.layoutScope(s.Else, fn)
		}
	case *ast.While:
		l.layoutScope(s.Body, fn)
	}
	if e, ok := exprOf(s); ok {
		l.layoutProcedureLiterals(e, fn)
	}
}

// exprOf extracts the expression a statement carries, if any, so nested
// procedure literals (which own their own function-local layout) can be
// found without a bespoke Walk visitor.
func exprOf(s ast.Stmt) (ast.Expr, bool) {
	switch s := s.(type) {
	case *ast.Declaration:
		return s.Value, s.Value != nil
	case *ast.Assignment:
		return s.Value, true
	case *ast.Return:
		return s.Value, s.Value != nil
	case *ast.StatementExpression:
		return s.Expr, true
	case *ast.Print:
		return s.Value, true
	}
	return nil, false
}

// layoutProcedureLiterals finds any Procedure expression nested in e (an
// initializer, assigned value, argument, etc.) and lays out its body's
// local frame, recursing into nested scopes along the way.
func (l *layout) layoutProcedureLiterals(e ast.Expr, fn *funcLayout) {
	switch e := e.(type) {
	case *ast.Procedure:
		if e.Body == nil {
			return
		}
		offset := uint64(0)
		for _, p := range e.Params {
			p.GlobalOffset = false
			p.Offset = offset
			offset += uint64(sizeOf(p.ResolvedType))
		}
		paramsSize := offset
		inner := &funcLayout{offset: &offset}
		l.layoutScope(e.Body, inner)
		l.frameLocalSize[e] = int(offset - paramsSize)
	case *ast.Call:
		l.layoutProcedureLiterals(e.Callee, fn)
		for _, a := range e.Args {
			l.layoutProcedureLiterals(a, fn)
		}
	case *ast.Binary:
		l.layoutProcedureLiterals(e.Left, fn)
		l.layoutProcedureLiterals(e.Right, fn)
	case *ast.Unary:
		l.layoutProcedureLiterals(e.Operand, fn)
	case *ast.Cast:
		l.layoutProcedureLiterals(e.Value, fn)
	case *ast.Transmute:
		l.layoutProcedureLiterals(e.Value, fn)
	}
}

func (l *layout) layoutDeclaration(d *ast.Declaration, fn *funcLayout) {
	if d.Constant || fn == nil {
		d.GlobalOffset = true
		d.Offset = uint64(l.globalOffset)
		l.globalOffset += sizeOf(d.ResolvedType)
		l.constants = append(l.constants, d)
	} else {
		d.GlobalOffset = false
		d.Offset = *fn.offset
		*fn.offset += uint64(sizeOf(d.ResolvedType))
	}
	if d.Value != nil {
		l.layoutProcedureLiterals(d.Value, fn)
	}
}

func sizeOf(t ast.Type) int {
	if t == nil {
		return 0
	}
	return t.Size()
}

// topoSortConstants orders global declarations so that a constant's
// initializer is emitted only after every other global name it references,
// resolving the dependency-ordering question left open by discovery-order
// emission: Kahn's algorithm over the reference graph induced by Name
// expressions inside each declaration's initializer. The resolver has
// already rejected cyclic constant dependencies, so this can never find a
// residual cycle.
func topoSortConstants(decls []*ast.Declaration) ([]*ast.Declaration, error) {
	index := make(map[*ast.Declaration]int, len(decls))
	for i, d := range decls {
		index[d] = i
	}

	deps := make([][]int, len(decls))
	indegree := make([]int, len(decls))
	for i, d := range decls {
		refs := collectGlobalRefs(d, index)
		deps[i] = refs
	}
	// deps[i] holds the indices d[i] depends on; build reverse edges for
	// Kahn's algorithm (edge dep -> i means dep must be emitted before i).
	adj := make([][]int, len(decls))
	for i, ds := range deps {
		for _, dep := range ds {
			adj[dep] = append(adj[dep], i)
			indegree[i]++
		}
	}

	var queue []int
	for i := range decls {
		if indegree[i] == 0 {
			queue = append(queue, i)
		}
	}
	order := make([]*ast.Declaration, 0, len(decls))
	for len(queue) > 0 {
		i := queue[0]
		queue = queue[1:]
		order = append(order, decls[i])
		for _, j := range adj[i] {
			indegree[j]--
			if indegree[j] == 0 {
				queue = append(queue, j)
			}
		}
	}
	if len(order) != len(decls) {
		return nil, fmt.Errorf("internal: cyclic constant dependency survived resolution")
	}
	return order, nil
}

// collectGlobalRefs walks d's initializer looking for Name expressions that
// resolve to another declaration present in index, i.e. another global.
func collectGlobalRefs(d *ast.Declaration, index map[*ast.Declaration]int) []int {
	var refs []int
	seen := map[int]bool{}
	var walk func(e ast.Expr)
	walk = func(e ast.Expr) {
		if e == nil {
			return
		}
		switch e := e.(type) {
		case *ast.Name:
			if e.ResolvedDeclaration != nil {
				if i, ok := index[e.ResolvedDeclaration]; ok && !seen[i] {
					seen[i] = true
					refs = append(refs, i)
				}
			}
		case *ast.Binary:
			walk(e.Left)
			walk(e.Right)
		case *ast.Unary:
			walk(e.Operand)
		case *ast.Cast:
			walk(e.Value)
		case *ast.Transmute:
			walk(e.Value)
		case *ast.Call:
			walk(e.Callee)
			for _, a := range e.Args {
				walk(a)
			}
		case *ast.MemberAccess:
			walk(e.Target)
			// A procedure literal's body is resolved lazily and may call other
			// globals, but those calls go through a Load+Call at runtime, not an
			// eager initializer read, so the body itself imposes no ordering
			// constraint on constant initialization.
		}
	}
	walk(d.Value)
	return refs
}

// compiler accumulates the emitted bytecode buffer and the two patch
// queues described in the layout/emitter design: pending procedure-literal
// call-target patches, and pending break-statement jump patches (scoped per
// enclosing while loop).
type compiler struct {
	buf     []byte
	pending []pendingCall

	frameLocalSize map[*ast.Procedure]int

	breakStack    [][]int // one slice of patch locations per enclosing while
	continueStack []int   // one jump target (the while's condition test) per enclosing while
}

type pendingCall struct {
	loc  int
	proc *ast.Procedure
}

func (c *compiler) emitU8(b byte)        { c.buf = append(c.buf, b) }
func (c *compiler) emitBool(v bool) {
	if v {
		c.emitU8(1)
	} else {
		c.emitU8(0)
	}
}
func (c *compiler) emitU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	c.buf = append(c.buf, b[:]...)
}
func (c *compiler) patchU64(loc int, v uint64) {
	binary.LittleEndian.PutUint64(c.buf[loc:loc+8], v)
}
func (c *compiler) here() int { return len(c.buf) }

func (c *compiler) emitDeclarationInit(d *ast.Declaration) {
	if d.Value != nil {
		c.emitExpr(d.Value)
	} else {
		c.emitU8(byte(Push))
		c.emitU64(uint64(sizeOf(d.ResolvedType)))
		for i := 0; i < sizeOf(d.ResolvedType); i++ {
			c.emitU8(0)
		}
	}
	c.emitStore(d)
}

func (c *compiler) emitStore(d *ast.Declaration) {
	if d.GlobalOffset {
		c.emitU8(byte(StoreAbsolute))
	} else {
		c.emitU8(byte(StoreRelative))
	}
	c.emitU64(d.Offset)
	c.emitU64(uint64(sizeOf(d.ResolvedType)))
}

func (c *compiler) emitLoad(d *ast.Declaration) {
	if d.GlobalOffset {
		c.emitU8(byte(LoadAbsolute))
	} else {
		c.emitU8(byte(LoadRelative))
	}
	c.emitU64(d.Offset)
	c.emitU64(uint64(sizeOf(d.ResolvedType)))
}

func (c *compiler) emitStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Declaration:
		if s.GlobalOffset {
			return // already emitted during the constant-init pass
		}
		c.emitDeclarationInit(s)
	case *ast.Assignment:
		c.emitAssignment(s)
	case *ast.If:
		c.emitExpr(s.Cond)
		condSize := sizeOf(s.Cond.ResolvedType())
		c.emitU8(byte(JumpZero))
		falseLoc := c.here()
		c.emitU64(0)
		c.emitU64(uint64(condSize))
		c.emitScopeBody(s.Then)
		c.emitU8(byte(Jump))
		endLoc := c.here()
		c.emitU64(0)
		c.patchU64(falseLoc, uint64(c.here()))
		if s.Else != nil {
			c.emitScopeBody(s.Else)
		}
		c.patchU64(endLoc, uint64(c.here()))
	case *ast.While:
		start := c.here()
		c.emitExpr(s.Cond)
		condSize := sizeOf(s.Cond.ResolvedType())
		c.emitU8(byte(JumpZero))
		exitLoc := c.here()
		c.emitU64(0)
		c.emitU64(uint64(condSize))
		c.breakStack = append(c.breakStack, nil)
		c.continueStack = append(c.continueStack, start)
		c.emitScopeBody(s.Body)
		c.continueStack = c.continueStack[:len(c.continueStack)-1]
		c.emitU8(byte(Jump))
		c.emitU64(uint64(start))
		c.patchU64(exitLoc, uint64(c.here()))
		breaks := c.breakStack[len(c.breakStack)-1]
		c.breakStack = c.breakStack[:len(c.breakStack)-1]
		for _, loc := range breaks {
			c.patchU64(loc, uint64(c.here()))
		}
	case *ast.Break:
		c.emitU8(byte(Jump))
		loc := c.here()
		c.emitU64(0)
		top := len(c.breakStack) - 1
		c.breakStack[top] = append(c.breakStack[top], loc)
	case *ast.Continue:
		c.emitU8(byte(Jump))
		c.emitU64(uint64(c.continueStack[len(c.continueStack)-1]))
	case *ast.Return:
		if s.Value != nil {
			c.emitExpr(s.Value)
			c.emitU8(byte(Return))
			c.emitU64(uint64(sizeOf(s.Value.ResolvedType())))
		} else {
			c.emitU8(byte(Return))
			c.emitU64(0)
		}
	case *ast.StatementExpression:
		c.emitExpr(s.Expr)
		sz := sizeOf(s.Expr.ResolvedType())
		if sz > 0 {
			c.emitU8(byte(Pop))
			c.emitU64(uint64(sz))
		}
	case *ast.Print:
		c.emitExpr(s.Value)
		switch t := s.Value.ResolvedType().(type) {
		case *ast.TypeInteger:
			if t.Signed {
				c.emitU8(byte(PrintI64))
			} else {
				c.emitU8(byte(PrintU64))
			}
		case *ast.TypeBool:
			c.emitU8(byte(PrintBool))
		default:
			// resolveStmt's Print case rejects every other resolved type,
			// so t is always TypeInteger or TypeBool by the time this runs.
		}
	case *ast.Semicolon, *ast.InvalidStatement:
		// no-op
	}
}

func (c *compiler) emitScopeBody(scope *ast.Scope) {
	for _, s := range scope.Stmts {
		c.emitStmt(s)
	}
}

func (c *compiler) emitAssignment(a *ast.Assignment) {
	target, ok := a.Target.(*ast.Name)
	if !ok {
		return
	}
	d := target.ResolvedDeclaration
	if a.Op == token.EQ {
		c.emitExpr(a.Value)
		c.emitStore(d)
		return
	}
	c.emitLoad(d)
	c.emitExpr(a.Value)
	c.emitArithOp(compoundOpcode(a.Op, d.ResolvedType))
	c.emitStore(d)
}

func (c *compiler) emitArithOp(op Opcode) { c.emitU8(byte(op)) }

// compoundOpcode maps a compound-assignment token (+= -= *= /= %=) to the
// arithmetic opcode for t's signedness.
func compoundOpcode(op token.Kind, t ast.Type) Opcode {
	switch op {
	case token.PLUS_EQ:
		return arithOpcode("+", t)
	case token.MINUS_EQ:
		return arithOpcode("-", t)
	case token.STAR_EQ:
		return arithOpcode("*", t)
	case token.SLASH_EQ:
		return arithOpcode("/", t)
	case token.PERCENT_EQ:
		return arithOpcode("%", t)
	}
	return Invalid
}

// arithOpcode maps a binary arithmetic operator and its (equal-width,
// equal-signedness) operand type to the matching I64/U64 opcode.
func arithOpcode(op string, t ast.Type) Opcode {
	it, _ := t.(*ast.TypeInteger)
	signed := it != nil && it.Signed
	switch op {
	case "+":
		if signed {
			return AddI64
		}
		return AddU64
	case "-":
		if signed {
			return SubI64
		}
		return SubU64
	case "*":
		if signed {
			return MulI64
		}
		return MulU64
	case "/":
		if signed {
			return DivI64
		}
		return DivU64
	case "%":
		if signed {
			return ModI64
		}
		return ModU64
	}
	return Invalid
}

// relOpcode maps a relational operator and its operand type to the matching
// signed/unsigned comparison opcode.
func relOpcode(op string, t ast.Type) Opcode {
	it, _ := t.(*ast.TypeInteger)
	signed := it != nil && it.Signed
	switch op {
	case "<":
		if signed {
			return LtI64
		}
		return LtU64
	case ">":
		if signed {
			return GtI64
		}
		return GtU64
	case "<=":
		if signed {
			return LeI64
		}
		return LeU64
	case ">=":
		if signed {
			return GeI64
		}
		return GeU64
	}
	return Invalid
}

func (c *compiler) emitExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.Integer:
		c.emitU8(byte(Push))
		c.emitU64(8)
		c.emitU64(e.Value)
	case *ast.True:
		c.emitU8(byte(Push))
		c.emitU64(1)
		c.emitBool(true)
	case *ast.False:
		c.emitU8(byte(Push))
		c.emitU64(1)
		c.emitBool(false)
	case *ast.Name:
		c.emitLoad(e.ResolvedDeclaration)
	case *ast.Unary:
		c.emitExpr(e.Operand)
		c.emitUnaryOp(e)
	case *ast.Binary:
		c.emitExpr(e.Left)
		c.emitExpr(e.Right)
		c.emitBinaryOp(e)
	case *ast.Cast:
		c.emitExpr(e.Value)
		c.emitCastOp(e.Value.ResolvedType(), e.ResolvedType())
	case *ast.Transmute:
		c.emitExpr(e.Value)
	case *ast.Call:
		c.emitExpr(e.Callee)
		argSize := 0
		for _, a := range e.Args {
			c.emitExpr(a)
			argSize += sizeOf(a.ResolvedType())
		}
		c.emitU8(byte(Call))
		c.emitU64(uint64(argSize))
	case *ast.Procedure:
		c.emitU8(byte(Push))
		c.emitU64(8)
		loc := c.here()
		c.emitU64(0)
		if e.Body != nil {
			c.pending = append(c.pending, pendingCall{loc: loc, proc: e})
		} else {
			c.patchU64(loc, 0)
		}
	case *ast.SizeOf:
		// the operand is not evaluated; its type's byte size is pushed as a u64.
		c.emitU8(byte(Push))
		c.emitU64(8)
		c.emitU64(uint64(sizeOf(e.Value.ResolvedType())))
	default:
		// TypeOf/MemberAccess/Struct/BuiltinType/InvalidExpression carry no
		// runtime representation and emit no code.
	}
}

func (c *compiler) emitUnaryOp(e *ast.Unary) {
	it, isInt := e.Operand.ResolvedType().(*ast.TypeInteger)
	switch e.Op.String() {
	case "-":
		if isInt {
			if it.Signed {
				c.emitU8(byte(NegateI64))
			} else {
				c.emitU8(byte(NegateU64))
			}
		}
	case "!":
		c.emitU8(byte(NegateBool))
	}
}

func (c *compiler) emitBinaryOp(e *ast.Binary) {
	left := e.Left.ResolvedType()
	switch e.Op.String() {
	case "+", "-", "*", "/", "%":
		c.emitArithOp(arithOpcode(e.Op.String(), left))
	case "<", ">", "<=", ">=":
		c.emitArithOp(relOpcode(e.Op.String(), left))
	case "==":
		c.emitU8(byte(Equal))
		c.emitU64(uint64(sizeOf(left)))
	case "!=":
		c.emitU8(byte(Equal))
		c.emitU64(uint64(sizeOf(left)))
		c.emitU8(byte(NegateBool))
	}
}

func (c *compiler) emitCastOp(from, to ast.Type) {
	if from == to {
		return
	}
	fi, fok := from.(*ast.TypeInteger)
	ti, tok := to.(*ast.TypeInteger)
	if fok && tok && fi.Bits == 64 && ti.Bits == 64 {
		if ti.Signed {
			c.emitU8(byte(U64ToI64))
		} else {
			c.emitU8(byte(I64ToU64))
		}
	}
}

// drainPending emits the body of every procedure literal referenced by a
// Push placeholder, patching the placeholder to the body's entry address.
// Params are never re-stored here: Call itself replays the caller's argument
// bytes onto the callee's fresh frame, so the prologue only needs to
// allocate room for the body's own locals.
func (c *compiler) drainPending() {
	for len(c.pending) > 0 {
		pc := c.pending[0]
		c.pending = c.pending[1:]
		c.patchU64(pc.loc, uint64(c.here()))
		proc := pc.proc
		c.emitU8(byte(AllocStack))
		c.emitU64(uint64(c.frameLocalSize[proc]))
		c.emitScopeBody(proc.Body)
		c.emitU8(byte(Return))
		c.emitU64(0)
	}
}
