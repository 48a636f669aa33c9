// Package machine implements the stack virtual machine that executes a
// compiled Program: a fetch/decode/step interpreter over a byte-addressable
// code region with a separate byte-addressable data stack.
//
// The VM struct's shape — Name, Stdout/Stderr, MaxSteps, a context, a
// steps counter — is grounded on the teacher's lang/machine.Thread;
// everything below the field list (code/stack regions, ip/sp/bp, the
// fetch-decode-step loop) is this language's own byte-addressable design,
// since the teacher's thread executes a tagged Value/Frame/Funcode model
// rather than a flat byte stack.
package machine

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nilfoo/stako/lang/compiler"
)

// DefaultStackSize is used when VM.StackSize is left at zero.
const DefaultStackSize = 1 << 20

// VM executes one compiled Program. A VM is single-use: call Run once.
type VM struct {
	// Name optionally identifies this VM instance for diagnostics.
	Name string

	// Stdout and Stderr are the destinations for Print opcodes and runtime
	// error reporting. If nil, os.Stdout and os.Stderr are used.
	Stdout io.Writer
	Stderr io.Writer

	// MaxSteps bounds the number of Step calls before the VM halts with an
	// error, guarding against runaway or infinite-looping programs. A value
	// <= 0 means no limit.
	MaxSteps int

	// StackSize is the size in bytes of the data stack region. A value <= 0
	// selects DefaultStackSize.
	StackSize int

	code  []byte
	stack []byte

	ip, sp, bp int

	steps, maxSteps uint64

	stdout, stderr io.Writer

	ctx context.Context
}

// New constructs a VM ready to execute p.
func New(p *compiler.Program) *VM {
	return &VM{code: p.Code}
}

func (vm *VM) init(ctx context.Context) {
	if vm.MaxSteps <= 0 {
		vm.maxSteps-- // wraps to math.MaxUint64: effectively unbounded
	} else {
		vm.maxSteps = uint64(vm.MaxSteps)
	}
	size := vm.StackSize
	if size <= 0 {
		size = DefaultStackSize
	}
	vm.stack = make([]byte, size)
	if vm.Stdout != nil {
		vm.stdout = vm.Stdout
	} else {
		vm.stdout = os.Stdout
	}
	if vm.Stderr != nil {
		vm.stderr = vm.Stderr
	} else {
		vm.stderr = os.Stderr
	}
	if ctx == nil {
		ctx = context.Background()
	}
	vm.ctx = ctx
}

// Run executes the program to completion, stepping until Exit, a halting
// error, or ctx is cancelled. It returns the error the program halted with,
// or nil on a normal Exit.
func (vm *VM) Run(ctx context.Context) error {
	vm.init(ctx)
	for {
		if err := vm.ctx.Err(); err != nil {
			return err
		}
		cont, err := vm.step()
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
}

// step fetches and executes one instruction. It reports cont=false with a
// nil error on a normal Exit, and a non-nil error on any halting condition.
func (vm *VM) step() (cont bool, err error) {
	vm.steps++
	if vm.steps > vm.maxSteps {
		return false, fmt.Errorf("machine: exceeded max steps (%d)", vm.maxSteps)
	}
	if vm.ip < 0 || vm.ip >= len(vm.code) {
		return false, fmt.Errorf("machine: ip %d out of range [0, %d)", vm.ip, len(vm.code))
	}
	op := compiler.Opcode(vm.code[vm.ip])
	if !op.Valid() {
		return false, fmt.Errorf("machine: invalid opcode %d at ip %d", op, vm.ip)
	}
	vm.ip++
	return vm.exec(op)
}
