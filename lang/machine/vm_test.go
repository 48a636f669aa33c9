package machine_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nilfoo/stako/lang/compiler"
	"github.com/nilfoo/stako/lang/machine"
)

// asm is a tiny hand-rolled assembler for test programs: it lets a test spell
// out a sequence of opcodes and immediates without going through the lexer,
// parser, resolver and compiler packages.
type asm struct{ buf []byte }

func (a *asm) op(op compiler.Opcode) *asm { a.buf = append(a.buf, byte(op)); return a }
func (a *asm) u64(v uint64) *asm {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	a.buf = append(a.buf, b[:]...)
	return a
}
func (a *asm) push8(v uint64) *asm  { return a.op(compiler.Push).u64(8).u64(v) }
func (a *asm) pushBool(v bool) *asm {
	a.op(compiler.Push).u64(1)
	if v {
		a.buf = append(a.buf, 1)
	} else {
		a.buf = append(a.buf, 0)
	}
	return a
}
func (a *asm) here() int { return len(a.buf) }

func run(t *testing.T, code []byte) (string, error) {
	t.Helper()
	var out bytes.Buffer
	vm := machine.New(&compiler.Program{Code: code})
	vm.Stdout = &out
	err := vm.Run(context.Background())
	return out.String(), err
}

func TestExitHalts(t *testing.T) {
	code := new(asm).op(compiler.Exit).buf
	out, err := run(t, code)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPushPrintI64(t *testing.T) {
	code := new(asm).push8(42).op(compiler.PrintI64).op(compiler.Exit).buf
	out, err := run(t, code)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestArithmetic(t *testing.T) {
	// (3 + 4) * 2 == 14
	code := new(asm).
		push8(3).push8(4).op(compiler.AddI64).
		push8(2).op(compiler.MulI64).
		op(compiler.PrintI64).op(compiler.Exit).buf
	out, err := run(t, code)
	require.NoError(t, err)
	assert.Equal(t, "14\n", out)
}

func TestDivisionByZeroHalts(t *testing.T) {
	code := new(asm).push8(1).push8(0).op(compiler.DivI64).op(compiler.Exit).buf
	_, err := run(t, code)
	require.Error(t, err)
}

func TestRelationalOps(t *testing.T) {
	code := new(asm).push8(3).push8(4).op(compiler.LtI64).op(compiler.PrintBool).op(compiler.Exit).buf
	out, err := run(t, code)
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestJumpZeroSkipsBranch(t *testing.T) {
	a := new(asm)
	a.pushBool(false)
	a.op(compiler.JumpZero)
	patchLoc := a.here()
	a.u64(0).u64(1)
	a.push8(1).op(compiler.PrintI64) // skipped
	target := a.here()
	binary.LittleEndian.PutUint64(a.buf[patchLoc:patchLoc+8], uint64(target))
	a.push8(2).op(compiler.PrintI64)
	a.op(compiler.Exit)

	out, err := run(t, a.buf)
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

// TestCallReturn exercises the calling convention directly: push callee
// address, push one 8-byte argument, Call 8; the callee doubles its only
// parameter (loaded from bp+0) and returns it.
func TestCallReturn(t *testing.T) {
	a := new(asm)

	// entry: push callee addr placeholder, push arg 21, Call 8, PrintI64, Exit
	a.op(compiler.Push).u64(8)
	calleeAddrLoc := a.here()
	a.u64(0)
	a.push8(21)
	a.op(compiler.Call).u64(8)
	a.op(compiler.PrintI64)
	a.op(compiler.Exit)

	calleeAddr := a.here()
	binary.LittleEndian.PutUint64(a.buf[calleeAddrLoc:calleeAddrLoc+8], uint64(calleeAddr))

	// callee: load param at bp+0, double it, return it
	a.op(compiler.LoadRelative).u64(0).u64(8)
	a.push8(2)
	a.op(compiler.MulI64)
	a.op(compiler.Return).u64(8)

	out, err := run(t, a.buf)
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestInvalidOpcodeHalts(t *testing.T) {
	code := []byte{byte(compiler.Invalid)}
	_, err := run(t, code)
	require.Error(t, err)
}

func TestMaxStepsHalts(t *testing.T) {
	a := new(asm)
	start := a.here()
	a.op(compiler.Jump).u64(uint64(start))
	vm := machine.New(&compiler.Program{Code: a.buf})
	vm.MaxSteps = 10
	err := vm.Run(context.Background())
	require.Error(t, err)
}
