package machine

import (
	"encoding/binary"
	"fmt"

	"github.com/nilfoo/stako/lang/compiler"
)

func (vm *VM) readU64() (uint64, error) {
	if vm.ip < 0 || vm.ip+8 > len(vm.code) {
		return 0, fmt.Errorf("machine: ip %d out of range reading immediate", vm.ip)
	}
	v := binary.LittleEndian.Uint64(vm.code[vm.ip : vm.ip+8])
	vm.ip += 8
	return v, nil
}

func (vm *VM) push(b []byte) error {
	if vm.sp < 0 || vm.sp+len(b) > len(vm.stack) {
		return fmt.Errorf("machine: sp %d out of range pushing %d bytes", vm.sp, len(b))
	}
	copy(vm.stack[vm.sp:], b)
	vm.sp += len(b)
	return nil
}

func (vm *VM) pop(n int) ([]byte, error) {
	if vm.sp-n < 0 || vm.sp > len(vm.stack) {
		return nil, fmt.Errorf("machine: sp %d out of range popping %d bytes", vm.sp, n)
	}
	b := make([]byte, n)
	copy(b, vm.stack[vm.sp-n:vm.sp])
	vm.sp -= n
	return b, nil
}

func (vm *VM) peek(n int) ([]byte, error) {
	if vm.sp-n < 0 || vm.sp > len(vm.stack) {
		return nil, fmt.Errorf("machine: sp %d out of range peeking %d bytes", vm.sp, n)
	}
	return vm.stack[vm.sp-n : vm.sp], nil
}

func (vm *VM) pushU64(v uint64) error {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return vm.push(b[:])
}

func (vm *VM) popU64() (uint64, error) {
	b, err := vm.pop(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}

func anyNonZero(b []byte) bool { return !allZero(b) }

// exec executes the instruction for op, whose immediates (if any) begin at
// the current ip. Every arm either advances ip/sp/bp consistently or
// returns an error; a returned error always means the program halts.
func (vm *VM) exec(op compiler.Opcode) (bool, error) {
	switch op {
	case compiler.Invalid:
		return false, fmt.Errorf("machine: Invalid opcode executed")
	case compiler.Exit:
		return false, nil

	case compiler.Push:
		size, err := vm.readU64()
		if err != nil {
			return false, err
		}
		if vm.ip < 0 || vm.ip+int(size) > len(vm.code) {
			return false, fmt.Errorf("machine: ip out of range reading Push payload")
		}
		payload := vm.code[vm.ip : vm.ip+int(size)]
		vm.ip += int(size)
		if err := vm.push(payload); err != nil {
			return false, err
		}

	case compiler.Pop:
		size, err := vm.readU64()
		if err != nil {
			return false, err
		}
		if _, err := vm.pop(int(size)); err != nil {
			return false, err
		}

	case compiler.AllocStack:
		size, err := vm.readU64()
		if err != nil {
			return false, err
		}
		if vm.sp < 0 || vm.sp+int(size) > len(vm.stack) {
			return false, fmt.Errorf("machine: sp out of range in AllocStack")
		}
		for i := 0; i < int(size); i++ {
			vm.stack[vm.sp+i] = 0
		}
		vm.sp += int(size)

	case compiler.Dup:
		size, err := vm.readU64()
		if err != nil {
			return false, err
		}
		top, err := vm.peek(int(size))
		if err != nil {
			return false, err
		}
		dup := make([]byte, len(top))
		copy(dup, top)
		if err := vm.push(dup); err != nil {
			return false, err
		}

	case compiler.AddI64, compiler.SubI64, compiler.MulI64, compiler.DivI64, compiler.ModI64:
		if err := vm.binI64(op); err != nil {
			return false, err
		}
	case compiler.AddU64, compiler.SubU64, compiler.MulU64, compiler.DivU64, compiler.ModU64:
		if err := vm.binU64(op); err != nil {
			return false, err
		}

	case compiler.NegateI64:
		v, err := vm.popU64()
		if err != nil {
			return false, err
		}
		if err := vm.pushU64(uint64(-int64(v))); err != nil {
			return false, err
		}
	case compiler.NegateU64:
		v, err := vm.popU64()
		if err != nil {
			return false, err
		}
		if err := vm.pushU64(-v); err != nil {
			return false, err
		}
	case compiler.NegateBool:
		b, err := vm.pop(1)
		if err != nil {
			return false, err
		}
		if err := vm.push([]byte{boolByte(b[0] == 0)}); err != nil {
			return false, err
		}

	case compiler.LtI64, compiler.LeI64, compiler.GtI64, compiler.GeI64:
		if err := vm.relI64(op); err != nil {
			return false, err
		}
	case compiler.LtU64, compiler.LeU64, compiler.GtU64, compiler.GeU64:
		if err := vm.relU64(op); err != nil {
			return false, err
		}

	case compiler.PrintI64:
		v, err := vm.popU64()
		if err != nil {
			return false, err
		}
		fmt.Fprintf(vm.stdout, "%d\n", int64(v))
	case compiler.PrintU64:
		v, err := vm.popU64()
		if err != nil {
			return false, err
		}
		fmt.Fprintf(vm.stdout, "%d\n", v)
	case compiler.PrintBool:
		b, err := vm.pop(1)
		if err != nil {
			return false, err
		}
		fmt.Fprintf(vm.stdout, "%t\n", b[0] != 0)

	case compiler.I64ToU64, compiler.U64ToI64:
		// two's-complement reinterpretation of the top 8 bytes is a no-op.

	case compiler.Equal:
		size, err := vm.readU64()
		if err != nil {
			return false, err
		}
		b, err := vm.pop(int(size))
		if err != nil {
			return false, err
		}
		a, err := vm.pop(int(size))
		if err != nil {
			return false, err
		}
		eq := true
		for i := range a {
			if a[i] != b[i] {
				eq = false
				break
			}
		}
		if err := vm.push([]byte{boolByte(eq)}); err != nil {
			return false, err
		}

	case compiler.Jump:
		loc, err := vm.readU64()
		if err != nil {
			return false, err
		}
		vm.ip = int(loc)

	case compiler.JumpZero, compiler.JumpNonZero:
		loc, err := vm.readU64()
		if err != nil {
			return false, err
		}
		size, err := vm.readU64()
		if err != nil {
			return false, err
		}
		cond, err := vm.pop(int(size))
		if err != nil {
			return false, err
		}
		take := allZero(cond)
		if op == compiler.JumpNonZero {
			take = anyNonZero(cond)
		}
		if take {
			vm.ip = int(loc)
		}

	case compiler.Call:
		if err := vm.call(); err != nil {
			return false, err
		}

	case compiler.Return:
		if err := vm.ret(); err != nil {
			return false, err
		}

	case compiler.LoadRelative:
		if err := vm.loadStore(false, true); err != nil {
			return false, err
		}
	case compiler.StoreRelative:
		if err := vm.loadStore(true, true); err != nil {
			return false, err
		}
	case compiler.LoadAbsolute:
		if err := vm.loadStore(false, false); err != nil {
			return false, err
		}
	case compiler.StoreAbsolute:
		if err := vm.loadStore(true, false); err != nil {
			return false, err
		}

	default:
		return false, fmt.Errorf("machine: unimplemented opcode %s", op)
	}
	return true, nil
}

func (vm *VM) binI64(op compiler.Opcode) error {
	rv, err := vm.popU64()
	if err != nil {
		return err
	}
	lv, err := vm.popU64()
	if err != nil {
		return err
	}
	l, r := int64(lv), int64(rv)
	var res int64
	switch op {
	case compiler.AddI64:
		res = l + r
	case compiler.SubI64:
		res = l - r
	case compiler.MulI64:
		res = l * r
	case compiler.DivI64:
		if r == 0 {
			return fmt.Errorf("machine: division by zero")
		}
		res = l / r
	case compiler.ModI64:
		if r == 0 {
			return fmt.Errorf("machine: division by zero")
		}
		res = l % r
	}
	return vm.pushU64(uint64(res))
}

func (vm *VM) binU64(op compiler.Opcode) error {
	r, err := vm.popU64()
	if err != nil {
		return err
	}
	l, err := vm.popU64()
	if err != nil {
		return err
	}
	var res uint64
	switch op {
	case compiler.AddU64:
		res = l + r
	case compiler.SubU64:
		res = l - r
	case compiler.MulU64:
		res = l * r
	case compiler.DivU64:
		if r == 0 {
			return fmt.Errorf("machine: division by zero")
		}
		res = l / r
	case compiler.ModU64:
		if r == 0 {
			return fmt.Errorf("machine: division by zero")
		}
		res = l % r
	}
	return vm.pushU64(res)
}

func (vm *VM) relI64(op compiler.Opcode) error {
	rv, err := vm.popU64()
	if err != nil {
		return err
	}
	lv, err := vm.popU64()
	if err != nil {
		return err
	}
	l, r := int64(lv), int64(rv)
	var res bool
	switch op {
	case compiler.LtI64:
		res = l < r
	case compiler.LeI64:
		res = l <= r
	case compiler.GtI64:
		res = l > r
	case compiler.GeI64:
		res = l >= r
	}
	return vm.push([]byte{boolByte(res)})
}

func (vm *VM) relU64(op compiler.Opcode) error {
	r, err := vm.popU64()
	if err != nil {
		return err
	}
	l, err := vm.popU64()
	if err != nil {
		return err
	}
	var res bool
	switch op {
	case compiler.LtU64:
		res = l < r
	case compiler.LeU64:
		res = l <= r
	case compiler.GtU64:
		res = l > r
	case compiler.GeU64:
		res = l >= r
	}
	return vm.push([]byte{boolByte(res)})
}

// call implements the Call opcode's calling convention: the caller has
// already pushed the callee's 8-byte address followed by argSize bytes of
// argument data; call installs a new frame header at the callee's base and
// replays the arguments onto it before transferring control.
func (vm *VM) call() error {
	argSize, err := vm.readU64()
	if err != nil {
		return err
	}
	args, err := vm.pop(int(argSize))
	if err != nil {
		return err
	}
	addr, err := vm.popU64()
	if err != nil {
		return err
	}
	if err := vm.pushU64(uint64(vm.ip)); err != nil { // saved ip
		return err
	}
	if err := vm.pushU64(uint64(vm.bp)); err != nil { // saved bp
		return err
	}
	vm.bp = vm.sp
	vm.ip = int(addr)
	return vm.push(args)
}

// ret implements the Return opcode: snapshot the top returnSize bytes (the
// value just pushed by the return expression), tear the frame down to its
// saved ip/bp, and push the snapshot back on top of the caller's stack.
func (vm *VM) ret() error {
	returnSize, err := vm.readU64()
	if err != nil {
		return err
	}
	var retbuf []byte
	if returnSize > 0 {
		retbuf, err = vm.pop(int(returnSize))
		if err != nil {
			return err
		}
	}
	if vm.bp < 16 {
		return fmt.Errorf("machine: bp %d too small to hold a frame header", vm.bp)
	}
	vm.sp = vm.bp
	savedBp, err := vm.popU64()
	if err != nil {
		return err
	}
	savedIp, err := vm.popU64()
	if err != nil {
		return err
	}
	vm.bp = int(savedBp)
	vm.ip = int(savedIp)
	if returnSize > 0 {
		return vm.push(retbuf)
	}
	return nil
}

// loadStore implements the four Load/Store opcodes. store selects Store*
// (copy top of stack into the addressed region) versus Load* (copy the
// addressed region onto the top of stack); relative selects bp-relative
// addressing versus absolute (process-wide data region) addressing.
func (vm *VM) loadStore(store, relative bool) error {
	offset, err := vm.readU64()
	if err != nil {
		return err
	}
	size, err := vm.readU64()
	if err != nil {
		return err
	}
	base := int(offset)
	if relative {
		base += vm.bp
	}
	if base < 0 || base+int(size) > len(vm.stack) {
		return fmt.Errorf("machine: address %d out of stack bounds", base)
	}
	if store {
		b, err := vm.pop(int(size))
		if err != nil {
			return err
		}
		copy(vm.stack[base:base+int(size)], b)
		return nil
	}
	b := make([]byte, size)
	copy(b, vm.stack[base:base+int(size)])
	return vm.push(b)
}
