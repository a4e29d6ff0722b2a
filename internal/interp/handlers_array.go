package interp

import (
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/resolve"
)

func registerArrayHandlers() {
	dispatchTable[opIALoad] = arrayLoad(objects.KindInt)
	dispatchTable[opLALoad] = arrayLoad(objects.KindLong)
	dispatchTable[opAALoad] = arrayLoad(objects.KindRef)
	dispatchTable[opBALoad] = arrayLoad(objects.KindInt)
	dispatchTable[opCALoad] = arrayLoad(objects.KindInt)
	dispatchTable[opSALoad] = arrayLoad(objects.KindInt)

	dispatchTable[opIAStore] = arrayStore(objects.KindInt)
	dispatchTable[opLAStore] = arrayStore(objects.KindLong)
	dispatchTable[opAAStore] = arrayStore(objects.KindRef)
	dispatchTable[opBAStore] = arrayStore(objects.KindInt)
	dispatchTable[opCAStore] = arrayStore(objects.KindInt)
	dispatchTable[opSAStore] = arrayStore(objects.KindInt)

	dispatchTable[opArrayLength] = func(ip *Interp, t *machine.Thread) {
		ref := t.Pop()
		if ref.IsNull() {
			throwNew(ip, t, ip.Bi.NullPointerException, "array is null")
			return
		}
		t.Push(objects.IntSlot(int32(ref.Ref.Length())))
	}

	dispatchTable[opNewArray] = func(ip *Interp, t *machine.Thread) {
		atype := fetchU8(t)
		count := int32(t.Pop().I64)
		if count < 0 {
			throwf(ip, t, ip.Bi.NegativeArraySizeException, "%d", count)
			return
		}
		elemK := objects.ArrayTypeTag(atype).ElemKind()
		machine.Allocate(t, int(count))
		slots := make([]objects.Slot, count)
		t.Push(objects.RefSlot(&objects.Header{IsArray: true, ElemK: elemK, Slots: slots}))
	}

	dispatchTable[opANewArray] = func(ip *Interp, t *machine.Thread) {
		index := fetchU16(t)
		count := int32(t.Pop().I64)
		if count < 0 {
			throwf(ip, t, ip.Bi.NegativeArraySizeException, "%d", count)
			return
		}
		_, err := resolve.PoolClass(ip.M, t.Code.Pool, index)
		if err != nil {
			throwf(ip, t, ip.Bi.ClassNotFoundException, "%v", err)
			return
		}
		machine.Allocate(t, int(count))
		slots := make([]objects.Slot, count)
		for i := range slots {
			slots[i] = objects.NullSlot()
		}
		t.Push(objects.RefSlot(&objects.Header{IsArray: true, ElemK: objects.KindRef, Slots: slots}))
	}
}

// arrayLoad and arrayStore share one bounds-checked path across every
// element width — the Slot a Header carries already has the right Kind, so
// there is no need for width-specific load/store code the way a
// byte-packed heap would require.
func arrayLoad(kind objects.Kind) opHandler {
	return func(ip *Interp, t *machine.Thread) {
		index := int32(t.Pop().I64)
		ref := t.Pop()
		if ref.IsNull() {
			throwNew(ip, t, ip.Bi.NullPointerException, "array is null")
			return
		}
		array := ref.Ref
		if index < 0 || int(index) >= array.Length() {
			throwf(ip, t, ip.Bi.ArrayIndexOutOfBoundsException, "%d not in [0,%d]", index, array.Length())
			return
		}
		t.Push(array.Slots[index])
	}
}

func arrayStore(kind objects.Kind) opHandler {
	return func(ip *Interp, t *machine.Thread) {
		value := t.Pop()
		index := int32(t.Pop().I64)
		ref := t.Pop()
		if ref.IsNull() {
			throwNew(ip, t, ip.Bi.NullPointerException, "array is null")
			return
		}
		array := ref.Ref
		if index < 0 || int(index) >= array.Length() {
			throwf(ip, t, ip.Bi.ArrayIndexOutOfBoundsException, "%d not in [0,%d]", index, array.Length())
			return
		}
		heap.Set(ip.M.Heap, ip.M.HeapLock, &array.Slots[index], value)
	}
}
