package interp

import (
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/resolve"
)

func registerConstHandlers() {
	dispatchTable[opNop] = func(ip *Interp, t *machine.Thread) {}
	dispatchTable[opAConstNull] = func(ip *Interp, t *machine.Thread) { t.Push(objects.NullSlot()) }

	dispatchTable[opIConstM1] = pushInt(-1)
	dispatchTable[opIConst0] = pushInt(0)
	dispatchTable[opIConst1] = pushInt(1)
	dispatchTable[opIConst2] = pushInt(2)
	dispatchTable[opIConst3] = pushInt(3)
	dispatchTable[opIConst4] = pushInt(4)
	dispatchTable[opIConst5] = pushInt(5)
	dispatchTable[opLConst0] = pushLong(0)
	dispatchTable[opLConst1] = pushLong(1)

	dispatchTable[opBipush] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.IntSlot(int32(fetchS8(t))))
	}
	dispatchTable[opSipush] = func(ip *Interp, t *machine.Thread) {
		t.Push(objects.IntSlot(int32(fetchS16(t))))
	}

	dispatchTable[opLdc] = func(ip *Interp, t *machine.Thread) {
		pushConstant(ip, t, int(fetchU8(t)))
	}
	dispatchTable[opLdcW] = func(ip *Interp, t *machine.Thread) {
		pushConstant(ip, t, fetchU16(t))
	}
	dispatchTable[opLdc2W] = func(ip *Interp, t *machine.Thread) {
		pushConstant(ip, t, fetchU16(t))
	}

	// iload/lload/aload share one handler, as do istore/lstore/astore, and
	// each 0..3 immediate-index form shares one handler per index. Kind
	// is not tracked at the slot level here (a Slot already carries its
	// own Kind), so load and store just move whatever Slot sits there.
	dispatchTable[opILoad] = loadIndexed
	dispatchTable[opLLoad] = loadIndexed
	dispatchTable[opALoad] = loadIndexed

	dispatchTable[opILoad0] = loadLocal(0)
	dispatchTable[opILoad1] = loadLocal(1)
	dispatchTable[opILoad2] = loadLocal(2)
	dispatchTable[opILoad3] = loadLocal(3)
	dispatchTable[opLLoad0] = loadLocal(0)
	dispatchTable[opLLoad1] = loadLocal(1)
	dispatchTable[opLLoad2] = loadLocal(2)
	dispatchTable[opLLoad3] = loadLocal(3)
	dispatchTable[opALoad0] = loadLocal(0)
	dispatchTable[opALoad1] = loadLocal(1)
	dispatchTable[opALoad2] = loadLocal(2)
	dispatchTable[opALoad3] = loadLocal(3)

	dispatchTable[opIStore] = storeIndexed
	dispatchTable[opLStore] = storeIndexed
	dispatchTable[opAStore] = storeIndexed

	dispatchTable[opIStore0] = storeLocal(0)
	dispatchTable[opIStore1] = storeLocal(1)
	dispatchTable[opIStore2] = storeLocal(2)
	dispatchTable[opIStore3] = storeLocal(3)
	dispatchTable[opLStore0] = storeLocal(0)
	dispatchTable[opLStore1] = storeLocal(1)
	dispatchTable[opLStore2] = storeLocal(2)
	dispatchTable[opLStore3] = storeLocal(3)
	dispatchTable[opAStore0] = storeLocal(0)
	dispatchTable[opAStore1] = storeLocal(1)
	dispatchTable[opAStore2] = storeLocal(2)
	dispatchTable[opAStore3] = storeLocal(3)

	dispatchTable[opPop] = func(ip *Interp, t *machine.Thread) { t.Pop() }
	dispatchTable[opPop2] = func(ip *Interp, t *machine.Thread) {
		top := t.Top()
		if top.Kind == objects.KindLong || top.Kind == objects.KindDouble {
			t.SP--
		} else {
			t.SP -= 2
		}
	}

	dispatchTable[opDup] = func(ip *Interp, t *machine.Thread) { t.Push(t.Top()) }
	dispatchTable[opDupX1] = func(ip *Interp, t *machine.Thread) {
		first, second := t.Pop(), t.Pop()
		t.Push(first)
		t.Push(second)
		t.Push(first)
	}
	dispatchTable[opDupX2] = func(ip *Interp, t *machine.Thread) {
		first, second, third := t.Pop(), t.Pop(), t.Pop()
		t.Push(first)
		t.Push(third)
		t.Push(second)
		t.Push(first)
	}
	dispatchTable[opDup2] = func(ip *Interp, t *machine.Thread) {
		first := t.Top()
		if isWide(first) {
			t.Push(first)
		} else {
			second := t.Stack[t.SP-2]
			t.Push(second)
			t.Push(first)
		}
	}
	dispatchTable[opDup2X1] = func(ip *Interp, t *machine.Thread) {
		first, second := t.Pop(), t.Pop()
		if isWide(first) {
			t.Push(first)
			t.Push(second)
			t.Push(first)
		} else {
			third := t.Pop()
			t.Push(second)
			t.Push(first)
			t.Push(third)
			t.Push(second)
			t.Push(first)
		}
	}
	dispatchTable[opDup2X2] = func(ip *Interp, t *machine.Thread) {
		first, second := t.Pop(), t.Pop()
		if isWide(first) {
			if isWide(second) {
				t.Push(first)
				t.Push(second)
				t.Push(first)
			} else {
				third := t.Pop()
				t.Push(first)
				t.Push(third)
				t.Push(second)
				t.Push(first)
			}
		} else {
			third := t.Pop()
			if isWide(third) {
				t.Push(second)
				t.Push(first)
				t.Push(third)
				t.Push(second)
				t.Push(first)
			} else {
				fourth := t.Pop()
				t.Push(second)
				t.Push(first)
				t.Push(fourth)
				t.Push(third)
				t.Push(second)
				t.Push(first)
			}
		}
	}
	dispatchTable[opSwap] = func(ip *Interp, t *machine.Thread) {
		t.Stack[t.SP-1], t.Stack[t.SP-2] = t.Stack[t.SP-2], t.Stack[t.SP-1]
	}
}

func isWide(s objects.Slot) bool { return s.Kind == objects.KindLong || s.Kind == objects.KindDouble }

func pushInt(v int32) opHandler {
	return func(ip *Interp, t *machine.Thread) { t.Push(objects.IntSlot(v)) }
}

func pushLong(v int64) opHandler {
	return func(ip *Interp, t *machine.Thread) { t.Push(objects.LongSlot(v)) }
}

func loadLocal(index int) opHandler {
	return func(ip *Interp, t *machine.Thread) { t.Push(t.Frame.Locals[index]) }
}

func storeLocal(index int) opHandler {
	return func(ip *Interp, t *machine.Thread) { t.Frame.Locals[index] = t.Pop() }
}

func loadIndexed(ip *Interp, t *machine.Thread) {
	t.Push(t.Frame.Locals[fetchU8(t)])
}

func storeIndexed(ip *Interp, t *machine.Thread) {
	index := fetchU8(t)
	t.Frame.Locals[index] = t.Pop()
}

// pushConstant pushes pool[index]. Int/long/string literals are pushed as
// they are; an unresolved class entry is resolved (and rewritten in place)
// the first time ldc/ldc_w/ldc2_w touches it.
func pushConstant(ip *Interp, t *machine.Thread, index int) {
	entry := &t.Code.Pool[index]
	switch entry.Tag {
	case objects.PoolInt:
		t.Push(objects.IntSlot(int32(entry.I64)))
	case objects.PoolLong:
		t.Push(objects.LongSlot(entry.I64))
	case objects.PoolString:
		t.Push(makeStringLiteral(entry.Bytes))
	case objects.PoolClass:
		t.Push(objects.RefSlot(classLiteralHeader(entry.Class)))
	case objects.PoolUnresolvedClass:
		class, err := resolve.PoolClass(ip.M, t.Code.Pool, index)
		if err != nil {
			throwf(ip, t, ip.Bi.ClassNotFoundException, "%v", err)
			return
		}
		t.Push(objects.RefSlot(classLiteralHeader(class)))
	default:
		ip.M.Abortf("interp: ldc on unresolved non-literal pool entry at index %d", index)
	}
}

func makeStringLiteral(b []byte) objects.Slot {
	slots := make([]objects.Slot, len(b))
	for i, c := range b {
		slots[i] = objects.IntSlot(int32(c))
	}
	return objects.RefSlot(&objects.Header{IsArray: true, ElemK: objects.KindInt, Slots: slots})
}

// classLiteralHeader wraps a resolved *Class as the object a `ldc` of a
// class constant pushes — this core has no java/lang/Class instance
// layout of its own, so the class pointer is carried directly.
func classLiteralHeader(class *objects.Class) *objects.Header {
	return &objects.Header{Class: class}
}
