package interp

import (
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
)

func registerArithHandlers() {
	dispatchTable[opIAdd] = intBinop(func(a, b int32) int32 { return a + b })
	dispatchTable[opISub] = intBinop(func(a, b int32) int32 { return a - b })
	dispatchTable[opIMul] = intBinop(func(a, b int32) int32 { return a * b })
	dispatchTable[opIDiv] = intBinop(func(a, b int32) int32 { return a / b })
	dispatchTable[opIRem] = intBinop(func(a, b int32) int32 { return a % b })
	dispatchTable[opIAnd] = intBinop(func(a, b int32) int32 { return a & b })
	dispatchTable[opIOr] = intBinop(func(a, b int32) int32 { return a | b })
	dispatchTable[opIXor] = intBinop(func(a, b int32) int32 { return a ^ b })
	dispatchTable[opIShl] = intBinop(func(a, b int32) int32 { return a << uint32(b&0x1f) })
	dispatchTable[opIShr] = intBinop(func(a, b int32) int32 { return a >> uint32(b&0x1f) })
	dispatchTable[opIUShr] = intBinop(func(a, b int32) int32 { return int32(uint32(a) >> uint32(b&0x1f)) })

	dispatchTable[opINeg] = func(ip *Interp, t *machine.Thread) {
		v := t.Pop()
		t.Push(objects.IntSlot(-int32(v.I64)))
	}

	dispatchTable[opLAdd] = longBinop(func(a, b int64) int64 { return a + b })
	dispatchTable[opLSub] = longBinop(func(a, b int64) int64 { return a - b })
	dispatchTable[opLMul] = longBinop(func(a, b int64) int64 { return a * b })
	dispatchTable[opLDiv] = longBinop(func(a, b int64) int64 { return a / b })
	dispatchTable[opLRem] = longBinop(func(a, b int64) int64 { return a % b })
	dispatchTable[opLAnd] = longBinop(func(a, b int64) int64 { return a & b })
	dispatchTable[opLOr] = longBinop(func(a, b int64) int64 { return a | b })
	dispatchTable[opLXor] = longBinop(func(a, b int64) int64 { return a ^ b })
	dispatchTable[opLShl] = longBinop(func(a, b int64) int64 { return a << uint64(b&0x3f) })
	dispatchTable[opLShr] = longBinop(func(a, b int64) int64 { return a >> uint64(b&0x3f) })

	// lushr is an unsigned right shift. The original implementation shifted
	// left here, like lshl; that is not reproduced. See the deviation note
	// in DESIGN.md.
	dispatchTable[opLUShr] = longBinop(func(a, b int64) int64 { return int64(uint64(a) >> uint64(b&0x3f)) })

	dispatchTable[opLNeg] = func(ip *Interp, t *machine.Thread) {
		v := t.Pop()
		t.Push(objects.LongSlot(-v.I64))
	}

	dispatchTable[opLCmp] = func(ip *Interp, t *machine.Thread) {
		b, a := t.Pop().I64, t.Pop().I64
		switch {
		case a > b:
			t.Push(objects.IntSlot(1))
		case a == b:
			t.Push(objects.IntSlot(0))
		default:
			t.Push(objects.IntSlot(-1))
		}
	}

	dispatchTable[opIInc] = func(ip *Interp, t *machine.Thread) {
		index := fetchU8(t)
		delta := fetchS8(t)
		local := &t.Frame.Locals[index]
		local.I64 = int64(int32(local.I64) + int32(delta))
	}

	dispatchTable[opI2L] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.LongSlot(int64(int32(t.Pop().I64))))
	}
	dispatchTable[opL2I] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.IntSlot(int32(t.Pop().I64)))
	}
	dispatchTable[opI2B] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.IntSlot(int32(int8(t.Pop().I64))))
	}
	dispatchTable[opI2C] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.IntSlot(int32(uint16(t.Pop().I64))))
	}
	dispatchTable[opI2S] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.IntSlot(int32(int16(t.Pop().I64))))
	}
}

// intBinop wraps a pop-b/pop-a/push-op(a,b) int32 handler — 32-bit integer
// arithmetic wraps modulo 2^32 the same way Go's int32 does, so no
// explicit masking is needed beyond what each op already does.
func intBinop(op func(a, b int32) int32) opHandler {
	return func(ip *Interp, t *machine.Thread) {
		b := int32(t.Pop().I64)
		a := int32(t.Pop().I64)
		t.Push(objects.IntSlot(op(a, b)))
	}
}

func longBinop(op func(a, b int64) int64) opHandler {
	return func(ip *Interp, t *machine.Thread) {
		b := t.Pop().I64
		a := t.Pop().I64
		t.Push(objects.LongSlot(op(a, b)))
	}
}
