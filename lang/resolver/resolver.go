// Package resolver implements the two-phase name/type resolver: walk the
// global scope in declaration order, deferring procedure bodies to a FIFO
// work queue processed once the global scope is fully walked, so that a
// procedure body can reference names declared anywhere at global scope
// (including textually after it) the same way a constant can.
//
// Much of the shape of this package — a resolver struct threading a sticky
// error bag through a recursive statement/expression walk, with a block
// chain for scoping — is adapted from the teacher's lang/resolver package,
// generalized from binding-only resolution to the fully typed resolution
// this language's operator and cast tables require.
package resolver

import (
	"github.com/nilfoo/stako/lang/ast"
	"github.com/nilfoo/stako/lang/diag"
	"github.com/nilfoo/stako/lang/token"
	"github.com/nilfoo/stako/lang/types"
)

// Resolver holds the state shared across one compilation unit's resolution:
// the type pool, the built-in name/operator/cast tables, the accumulating
// diagnostics bag and the deferred-procedure-body work queue.
type Resolver struct {
	Pool     *types.Pool
	Builtins *types.Builtins
	errs     *diag.Bag
	fset     *token.FileSet

	pending []*pendingBody

	// declTables remembers, for each constant declaration, the scope table
	// it was declared in, so that a forward reference from a different
	// (nested) scope resolves the constant's own initializer against its
	// own visible names rather than the referencing site's.
	declTables map[*ast.Declaration]*scopeTable

	loopDepth int
	curProc   *ast.Procedure
}

type pendingBody struct {
	proc  *ast.Procedure
	table *scopeTable
}

// New returns a Resolver with a fresh type pool and built-in tables.
func New(fset *token.FileSet) *Resolver {
	pool := types.NewPool()
	return &Resolver{
		Pool:       pool,
		Builtins:   types.NewBuiltins(pool),
		errs:       &diag.Bag{},
		fset:       fset,
		declTables: make(map[*ast.Declaration]*scopeTable),
	}
}

// Errors returns the diagnostics accumulated during Resolve.
func (r *Resolver) Errors() *diag.Bag { return r.errs }

func (r *Resolver) errorf(pos token.Pos, format string, args ...interface{}) {
	r.errs.Add(r.fset.Position(pos), format, args...)
}

// Resolve walks global, the top-level scope of the program, resolving every
// declaration, statement and expression in place. It reports whether
// resolution succeeded; on failure, Errors() holds the diagnostics.
func (r *Resolver) Resolve(global *ast.Scope) bool {
	global.Global = true
	tbl := newScopeTable(nil)
	r.resolveScope(global, tbl, nil)

	for len(r.pending) > 0 {
		pb := r.pending[0]
		r.pending = r.pending[1:]
		r.resolveProcedureBody(pb.proc, pb.table)
	}

	r.checkMain(global, tbl)

	return !r.errs.HadError()
}

func (r *Resolver) checkMain(global *ast.Scope, tbl *scopeTable) {
	d, ok := tbl.lookupLocal("main")
	if !ok {
		r.errorf(global.Start, "missing declaration of main")
		return
	}
	if !d.Constant {
		r.errorf(d.NamePos, "main must be declared as a constant")
		return
	}
	proc, ok := d.Value.(*ast.Procedure)
	if !ok {
		r.errorf(d.NamePos, "main must be a procedure")
		return
	}
	if len(proc.Params) != 0 {
		r.errorf(d.NamePos, "main must take no parameters")
	}
	if pt, ok := d.ResolvedType.(*ast.TypeProcedure); ok {
		if pt.Return != r.Pool.Void() {
			r.errorf(d.NamePos, "main must return void")
		}
	}
}

// resolveScope pre-registers every constant declaration directly in scope
// (so forward references and mutual recursion among constants work), then
// walks the statements in order, registering each non-constant declaration
// only once its own statement has been resolved.
func (r *Resolver) resolveScope(scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure) {
	for _, s := range scope.Stmts {
		s.SetParentScope(scope)
		if d, ok := s.(*ast.Declaration); ok && d.Constant {
			if _, dup := tbl.declare(d.Name, d); dup {
				r.errorf(d.NamePos, "%q already declared in this scope", d.Name)
			}
			r.declTables[d] = tbl
		}
	}
	for _, s := range scope.Stmts {
		r.resolveStmt(s, scope, tbl, proc)
	}
}

func (r *Resolver) resolveStmt(s ast.Stmt, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure) {
	switch s := s.(type) {
	case *ast.Declaration:
		r.resolveDeclaration(s, scope, tbl, proc)
	case *ast.Assignment:
		r.resolveAssignment(s, scope, tbl, proc)
	case *ast.If:
		r.resolveExprExpect(s.Cond, scope, tbl, proc, s, r.Pool.Bool(), "if condition")
		thenTbl := newScopeTable(tbl)
		r.resolveScope(s.Then, thenTbl, proc)
		if s.Else != nil {
			elseTbl := newScopeTable(tbl)
			r.resolveScope(s.Else, elseTbl, proc)
		}
	case *ast.While:
		r.resolveExprExpect(s.Cond, scope, tbl, proc, s, r.Pool.Bool(), "while condition")
		bodyTbl := newScopeTable(tbl)
		r.loopDepth++
		r.resolveScope(s.Body, bodyTbl, proc)
		r.loopDepth--
	case *ast.Return:
		if proc == nil {
			r.errorf(s.Start, "return outside of a procedure")
			break
		}
		var retType ast.Type = r.Pool.Void()
		if pt, ok := proc.ResolvedType().(*ast.TypeProcedure); ok {
			retType = pt.Return
		}
		if s.Value == nil {
			if retType != r.Pool.Void() {
				r.errorf(s.Start, "missing return value")
			}
			break
		}
		r.resolveExprExpect(s.Value, scope, tbl, proc, s, retType, "return value")
	case *ast.StatementExpression:
		r.resolveExpr(s.Expr, scope, tbl, proc, s, nil)
	case *ast.Semicolon, *ast.InvalidStatement:
		// no-op
	case *ast.Break:
		if r.loopDepth == 0 {
			r.errorf(s.Pos, "break outside of a loop")
		}
	case *ast.Continue:
		if r.loopDepth == 0 {
			r.errorf(s.Pos, "continue outside of a loop")
		}
	case *ast.Print:
		t := r.resolveExpr(s.Value, scope, tbl, proc, s, nil)
		if t != nil && !isPrintable(t) {
			start, _ := s.Value.Span()
			r.errorf(start, "print operand must be an integer or bool, got %v", t)
		}
	default:
		r.errorf(0, "internal: unhandled statement %T", s)
	}
}

func (r *Resolver) resolveDeclaration(d *ast.Declaration, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure) {
	switch d.Marker {
	case ast.Resolved:
		return
	case ast.Resolving:
		r.errorf(d.NamePos, "recursive constant dependency involving %q", d.Name)
		return
	}
	d.Marker = ast.Resolving

	var declaredType ast.Type
	if d.TypeExpr != nil {
		declaredType = r.resolveTypeExpr(d.TypeExpr, scope, tbl, d)
	}

	var valueType ast.Type
	if d.Value != nil {
		valueType = r.resolveExpr(d.Value, scope, tbl, proc, d, declaredType)
	}

	switch {
	case declaredType != nil && valueType != nil && declaredType != valueType:
		r.errorf(d.NamePos, "cannot initialize %q of type %v with value of type %v", d.Name, declaredType, valueType)
	case declaredType == nil:
		declaredType = valueType
	}
	d.ResolvedType = declaredType
	d.Marker = ast.Resolved

	if !d.Constant {
		if _, dup := tbl.declare(d.Name, d); dup {
			r.errorf(d.NamePos, "%q already declared in this scope", d.Name)
		}
	}
}

func (r *Resolver) resolveAssignment(a *ast.Assignment, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure) {
	targetType := r.resolveExpr(a.Target, scope, tbl, proc, a, nil)
	if name, ok := a.Target.(*ast.Name); ok && name.ResolvedDeclaration != nil && name.ResolvedDeclaration.Constant {
		r.errorf(a.OpPos, "cannot assign to constant %q", name.Lit)
		return
	}

	if a.Op == token.EQ {
		r.resolveExprExpect(a.Value, scope, tbl, proc, a, targetType, "assignment")
		return
	}

	op := compoundOp(a.Op)
	valType := r.resolveExpr(a.Value, scope, tbl, proc, a, targetType)
	if targetType == nil || valType == nil {
		return
	}
	if _, ok := r.Builtins.Binary(op, targetType, valType); !ok {
		r.errorf(a.OpPos, "no operator %s for %v and %v", op, targetType, valType)
	}
}

func compoundOp(k token.Kind) string {
	switch k {
	case token.PLUS_EQ:
		return "+"
	case token.MINUS_EQ:
		return "-"
	case token.STAR_EQ:
		return "*"
	case token.SLASH_EQ:
		return "/"
	case token.PERCENT_EQ:
		return "%"
	}
	return k.String()
}

// resolveExprExpect resolves e and, if the resolved type doesn't match
// expected, reports a diagnostic naming use. It tolerates a nil expected
// (no check performed), matching contexts where there is no contextual
// type to check against.
func (r *Resolver) resolveExprExpect(e ast.Expr, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt, expected ast.Type, use string) ast.Type {
	got := r.resolveExpr(e, scope, tbl, proc, stmt, expected)
	if expected != nil && got != nil && got != expected {
		start, _ := e.Span()
		r.errorf(start, "%s must be of type %v, got %v", use, expected, got)
	}
	return got
}

// resolveExpr resolves e's type, setting e.ResolvedType, and returns it (nil
// on error, with a diagnostic already recorded). expected threads a
// contextual type hint down to integer/float/string literals. stmt is the
// statement e is (transitively) part of; it is recorded on e so that
// following parentStatement reaches the enclosing statement directly,
// however deep e sits inside nested operands.
func (r *Resolver) resolveExpr(e ast.Expr, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt, expected ast.Type) ast.Type {
	e.SetParentStmt(stmt)
	var result ast.Type
	switch e := e.(type) {
	case *ast.Integer:
		result = r.Pool.Integer(true, 64)
		if _, ok := expected.(*ast.TypeInteger); ok {
			result = expected
		}
	case *ast.Float:
		result = r.Pool.Float(64)
		if _, ok := expected.(*ast.TypeFloat); ok {
			result = expected
		}
	case *ast.String:
		result = r.Pool.String()
	case *ast.True, *ast.False:
		result = r.Pool.Bool()
	case *ast.Name:
		result = r.resolveName(e, tbl)
	case *ast.Unary:
		result = r.resolveUnary(e, scope, tbl, proc, stmt)
	case *ast.Binary:
		result = r.resolveBinary(e, scope, tbl, proc, stmt)
	case *ast.Cast:
		result = r.resolveCast(e, scope, tbl, proc, stmt)
	case *ast.Transmute:
		result = r.resolveTransmute(e, scope, tbl, proc, stmt)
	case *ast.TypeOf:
		r.resolveExpr(e.Value, scope, tbl, proc, stmt, nil)
		result = r.Pool.TypeType()
	case *ast.SizeOf:
		r.resolveExpr(e.Value, scope, tbl, proc, stmt, nil)
		result = r.Pool.Integer(false, 64)
	case *ast.Call:
		result = r.resolveCall(e, scope, tbl, proc, stmt)
	case *ast.MemberAccess:
		result = r.resolveMemberAccess(e, scope, tbl, proc, stmt)
	case *ast.Procedure:
		result = r.resolveProcedureExpr(e, scope, tbl, proc, stmt)
	case *ast.BuiltinType:
		if _, ok := r.Builtins.Lookup(e.Name); !ok {
			r.errorf(e.Pos, "unknown type %q", e.Name)
		}
		result = r.Pool.TypeType()
	case *ast.Struct:
		r.resolveStructExpr(e, scope, tbl, proc, stmt)
		result = r.Pool.TypeType()
	case *ast.InvalidExpression:
		result = nil
	default:
		r.errorf(0, "internal: unhandled expression %T", e)
	}
	e.SetResolvedType(result)
	return result
}

// isPrintable reports whether print can emit a value of type t: an integer
// of any width/signedness, or a bool. Anything else (struct, procedure,
// string, type) resolves successfully as an expression but is rejected here,
// matching the compiler's Print emission, which only knows how to encode
// these two kinds.
func isPrintable(t ast.Type) bool {
	switch t.(type) {
	case *ast.TypeInteger, *ast.TypeBool:
		return true
	default:
		return false
	}
}

func (r *Resolver) resolveName(e *ast.Name, tbl *scopeTable) ast.Type {
	d, ok := tbl.lookup(e.Lit)
	if !ok {
		r.errorf(e.Pos, "undefined name %q", e.Lit)
		return nil
	}
	if d.Marker == ast.Unresolved && d.Constant {
		ownTbl := r.declTables[d]
		if ownTbl == nil {
			ownTbl = tbl
		}
		r.resolveDeclaration(d, d.ParentScope(), ownTbl, nil)
	} else if d.Marker == ast.Resolving {
		r.errorf(e.Pos, "recursive constant dependency involving %q", e.Lit)
		return nil
	}
	e.ResolvedDeclaration = d
	return d.ResolvedType
}

func (r *Resolver) resolveUnary(e *ast.Unary, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	operand := r.resolveExpr(e.Operand, scope, tbl, proc, stmt, nil)
	if operand == nil {
		return nil
	}
	result, ok := r.Builtins.Unary(e.Op.String(), operand)
	if !ok {
		r.errorf(e.OpPos, "no unary operator %s for %v", e.Op, operand)
		return nil
	}
	return result
}

func (r *Resolver) resolveBinary(e *ast.Binary, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	left := r.resolveExpr(e.Left, scope, tbl, proc, stmt, nil)
	right := r.resolveExpr(e.Right, scope, tbl, proc, stmt, left)
	if left == nil || right == nil {
		return nil
	}
	result, ok := r.Builtins.Binary(e.Op.String(), left, right)
	if !ok {
		r.errorf(e.OpPos, "no operator %s for %v and %v", e.Op, left, right)
		return nil
	}
	return result
}

func (r *Resolver) resolveCast(e *ast.Cast, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	to := r.resolveTypeExpr(e.TypeExpr, scope, tbl, stmt)
	from := r.resolveExpr(e.Value, scope, tbl, proc, stmt, nil)
	if to == nil || from == nil {
		return nil
	}
	if !r.Builtins.CastAllowed(from, to) {
		start, _ := e.Span()
		r.errorf(start, "cannot cast %v to %v", from, to)
		return nil
	}
	return to
}

func (r *Resolver) resolveTransmute(e *ast.Transmute, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	to := r.resolveTypeExpr(e.TypeExpr, scope, tbl, stmt)
	from := r.resolveExpr(e.Value, scope, tbl, proc, stmt, nil)
	if to == nil || from == nil {
		return nil
	}
	if !r.Builtins.TransmuteAllowed(from, to) {
		start, _ := e.Span()
		r.errorf(start, "cannot transmute %v (size %d) to %v (size %d)", from, from.Size(), to, to.Size())
		return nil
	}
	return to
}

func (r *Resolver) resolveCall(e *ast.Call, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	calleeType := r.resolveExpr(e.Callee, scope, tbl, proc, stmt, nil)
	argTypes := make([]ast.Type, len(e.Args))
	for i, a := range e.Args {
		argTypes[i] = r.resolveExpr(a, scope, tbl, proc, stmt, nil)
	}
	if calleeType == nil {
		return nil
	}
	pt, ok := calleeType.(*ast.TypeProcedure)
	if !ok {
		start, _ := e.Callee.Span()
		r.errorf(start, "cannot call a value of type %v", calleeType)
		return nil
	}
	if len(pt.Params) != len(e.Args) {
		r.errorf(e.Lparen, "wrong number of arguments: expected %d, got %d", len(pt.Params), len(e.Args))
		return pt.Return
	}
	for i, want := range pt.Params {
		if argTypes[i] != nil && argTypes[i] != want {
			start, _ := e.Args[i].Span()
			r.errorf(start, "argument %d: expected %v, got %v", i+1, want, argTypes[i])
		}
	}
	return pt.Return
}

func (r *Resolver) resolveMemberAccess(e *ast.MemberAccess, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	targetType := r.resolveExpr(e.Target, scope, tbl, proc, stmt, nil)
	if targetType == nil {
		return nil
	}
	st, ok := targetType.(*ast.TypeStruct)
	if !ok {
		r.errorf(e.MemberPos, "%v has no member %q", targetType, e.Member)
		return nil
	}
	for i, n := range st.MemberNames {
		if n == e.Member {
			return st.MemberTypes[i]
		}
	}
	r.errorf(e.MemberPos, "%v has no member %q", targetType, e.Member)
	return nil
}

// resolveProcedureExpr resolves a procedure literal used as a value: its
// parameters are resolved and registered in a fresh scope table, its
// signature is interned as a TypeProcedure, and (if it has a body) the body
// is deferred onto the FIFO work queue instead of being resolved
// immediately, so the body can see names declared later at the enclosing
// scope.
func (r *Resolver) resolveProcedureExpr(e *ast.Procedure, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) ast.Type {
	paramTbl := newScopeTable(tbl)
	paramTypes := make([]ast.Type, len(e.Params))
	for i, p := range e.Params {
		p.Parent = e
		var pt ast.Type
		if p.TypeExpr != nil {
			pt = r.resolveTypeExpr(p.TypeExpr, scope, paramTbl, stmt)
		}
		p.ResolvedType = pt
		p.Marker = ast.Resolved
		paramTypes[i] = pt
		if _, dup := paramTbl.declare(p.Name, p); dup {
			r.errorf(p.NamePos, "duplicate parameter %q", p.Name)
		}
	}
	var retType ast.Type = r.Pool.Void()
	if e.ReturnTypeExpr != nil {
		retType = r.resolveTypeExpr(e.ReturnTypeExpr, scope, tbl, stmt)
	}
	sig := r.Pool.Procedure(paramTypes, retType)
	e.SetResolvedType(sig)

	if e.Body != nil {
		r.pending = append(r.pending, &pendingBody{proc: e, table: paramTbl})
	}
	return sig
}

func (r *Resolver) resolveProcedureBody(proc *ast.Procedure, paramTbl *scopeTable) {
	prevProc, prevDepth := r.curProc, r.loopDepth
	r.curProc, r.loopDepth = proc, 0
	proc.Body.Parent = proc
	bodyTbl := newScopeTable(paramTbl)
	r.resolveScope(proc.Body, bodyTbl, proc)
	if !r.reachesReturn(proc.Body) {
		pt := proc.ResolvedType().(*ast.TypeProcedure)
		if pt.Return != r.Pool.Void() {
			r.errorf(proc.Start, "missing return on some path")
		}
	}
	r.curProc, r.loopDepth = prevProc, prevDepth
}

// reachesReturn reports whether scope is guaranteed to return: true if any
// contained statement returns, matching BodyReturns' "OR over every
// statement in the scope" rule rather than only inspecting the last one.
// An if/else returns only when both of its branches do; a while loop never
// counts as returning, even with a literal `true` condition, since a
// break can still fall through past it.
func (r *Resolver) reachesReturn(scope *ast.Scope) bool {
	for _, s := range scope.Stmts {
		if r.stmtReturns(s) {
			return true
		}
	}
	return false
}

func (r *Resolver) stmtReturns(s ast.Stmt) bool {
	switch s := s.(type) {
	case *ast.Return:
		return true
	case *ast.If:
		return s.Else != nil && r.reachesReturn(s.Then) && r.reachesReturn(s.Else)
	default:
		return false
	}
}

func (r *Resolver) resolveStructExpr(e *ast.Struct, scope *ast.Scope, tbl *scopeTable, proc *ast.Procedure, stmt ast.Stmt) *ast.TypeStruct {
	names := make([]string, len(e.Members))
	memberTypes := make([]ast.Type, len(e.Members))
	seen := map[string]bool{}
	for i, m := range e.Members {
		names[i] = m.Name
		memberTypes[i] = r.resolveTypeExpr(m.TypeExpr, scope, tbl, stmt)
		m.ResolvedType = memberTypes[i]
		m.Marker = ast.Resolved
		if seen[m.Name] {
			r.errorf(m.NamePos, "duplicate member %q", m.Name)
		}
		seen[m.Name] = true
	}
	return r.Pool.Struct(names, memberTypes)
}

// resolveTypeExpr evaluates e in type position, returning the ast.Type it
// denotes rather than the meta-type of the expression. It handles the
// syntactic forms that may appear where a type is expected: a builtin type
// name, a name bound to a type-valued constant, a struct literal, and a
// bodyless procedure literal (the `(params) -> Ret` type-literal form).
func (r *Resolver) resolveTypeExpr(e ast.Expr, scope *ast.Scope, tbl *scopeTable, stmt ast.Stmt) ast.Type {
	e.SetParentStmt(stmt)
	switch e := e.(type) {
	case *ast.BuiltinType:
		t, ok := r.Builtins.Lookup(e.Name)
		if !ok {
			r.errorf(e.Pos, "unknown type %q", e.Name)
			return nil
		}
		e.SetResolvedType(r.Pool.TypeType())
		return t
	case *ast.Name:
		d, ok := tbl.lookup(e.Lit)
		if !ok {
			r.errorf(e.Pos, "undefined name %q", e.Lit)
			return nil
		}
		if !d.Constant {
			r.errorf(e.Pos, "%q is not a type", e.Lit)
			return nil
		}
		if d.Marker != ast.Resolved {
			ownTbl := r.declTables[d]
			if ownTbl == nil {
				ownTbl = tbl
			}
			r.resolveDeclaration(d, d.ParentScope(), ownTbl, nil)
		}
		e.ResolvedDeclaration = d
		e.SetResolvedType(r.Pool.TypeType())
		return r.resolveTypeExpr(d.Value, scope, tbl, stmt)
	case *ast.Struct:
		return r.resolveStructExpr(e, scope, tbl, nil, stmt)
	case *ast.Procedure:
		paramTypes := make([]ast.Type, len(e.Params))
		for i, p := range e.Params {
			paramTypes[i] = r.resolveTypeExpr(p.TypeExpr, scope, tbl, stmt)
			p.ResolvedType = paramTypes[i]
			p.Marker = ast.Resolved
		}
		var ret ast.Type = r.Pool.Void()
		if e.ReturnTypeExpr != nil {
			ret = r.resolveTypeExpr(e.ReturnTypeExpr, scope, tbl, stmt)
		}
		sig := r.Pool.Procedure(paramTypes, ret)
		e.SetResolvedType(sig)
		return sig
	default:
		start, _ := e.Span()
		r.errorf(start, "%T is not usable as a type", e)
		return nil
	}
}

