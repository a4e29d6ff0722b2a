package interp

import (
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/resolve"
)

func registerObjectHandlers() {
	dispatchTable[opNew] = opNewHandler
	dispatchTable[opGetStatic] = opGetStaticHandler
	dispatchTable[opPutStatic] = opPutStaticHandler
	dispatchTable[opGetField] = opGetFieldHandler
	dispatchTable[opPutField] = opPutFieldHandler
	dispatchTable[opCheckCast] = opCheckCastHandler
	dispatchTable[opInstanceOf] = opInstanceOfHandler

	dispatchTable[opInvokeStat] = opInvokeStaticHandler
	dispatchTable[opInvokeSpec] = opInvokeSpecialHandler
	dispatchTable[opInvokeVirt] = opInvokeVirtualHandler
	dispatchTable[opInvokeIface] = opInvokeInterfaceHandler

	dispatchTable[opIReturn] = returnWithValue
	dispatchTable[opLReturn] = returnWithValue
	dispatchTable[opAReturn] = returnWithValue
	dispatchTable[opReturn] = func(ip *Interp, t *machine.Thread) { doReturn(t, false) }

	dispatchTable[opAThrow] = opAThrowHandler
}

func returnWithValue(ip *Interp, t *machine.Thread) { doReturn(t, true) }

// injectInitializer implements lazy class initialization for
// getstatic/putstatic/new: if class still has a pending <clinit>, pop it
// off the chain, rewind ip to the start of the opcode that touched class,
// and invoke the initializer so the opcode re-runs once it returns.
// Returns true when it injected a call (the caller must stop decoding).
func injectInitializer(ip *Interp, t *machine.Thread, class *objects.Class, opStart int) bool {
	init := class.PopInitializer()
	if init == nil {
		return false
	}
	t.IP = opStart
	prepareInvoke(ip, t, init, 0)
	return true
}

func opNewHandler(ip *Interp, t *machine.Thread) {
	opStart := t.IP - 1
	index := fetchU16(t)
	class, err := resolve.PoolClass(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.ClassNotFoundException, "%v", err)
		return
	}
	if injectInitializer(ip, t, class, opStart) {
		return
	}
	machine.Allocate(t, class.FixedSize)
	instance := &objects.Header{Class: class, Slots: make([]objects.Slot, class.FixedSize)}
	t.Push(objects.RefSlot(instance))
}

func opGetStaticHandler(ip *Interp, t *machine.Thread) {
	opStart := t.IP - 1
	index := fetchU16(t)
	field, err := resolve.PoolField(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchFieldError, "%v", err)
		return
	}
	if injectInitializer(ip, t, field.Owner, opStart) {
		return
	}
	t.Push(field.Owner.StaticSlot[field.Offset])
}

func opPutStaticHandler(ip *Interp, t *machine.Thread) {
	opStart := t.IP - 1
	index := fetchU16(t)
	field, err := resolve.PoolField(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchFieldError, "%v", err)
		return
	}
	if injectInitializer(ip, t, field.Owner, opStart) {
		return
	}
	value := t.Pop()
	heap.Set(ip.M.Heap, ip.M.HeapLock, &field.Owner.StaticSlot[field.Offset], value)
}

func opGetFieldHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	field, err := resolve.PoolField(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchFieldError, "%v", err)
		return
	}
	ref := t.Pop()
	if ref.IsNull() {
		throwNew(ip, t, ip.Bi.NullPointerException, "getfield on null")
		return
	}
	t.Push(ref.Ref.Slots[field.Offset])
}

func opPutFieldHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	field, err := resolve.PoolField(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchFieldError, "%v", err)
		return
	}
	value := t.Pop()
	ref := t.Pop()
	if ref.IsNull() {
		throwNew(ip, t, ip.Bi.NullPointerException, "putfield on null")
		return
	}
	heap.Set(ip.M.Heap, ip.M.HeapLock, &ref.Ref.Slots[field.Offset], value)
}

func opCheckCastHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	class, err := resolve.PoolClass(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.ClassNotFoundException, "%v", err)
		return
	}
	v := t.Top()
	if !v.IsNull() && !objects.InstanceOf(class, v.Ref) {
		throwf(ip, t, ip.Bi.ClassCastException, "%s cannot be cast to %s", v.Ref.Class.Name, class.Name)
		return
	}
}

func opInstanceOfHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	class, err := resolve.PoolClass(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.ClassNotFoundException, "%v", err)
		return
	}
	v := t.Pop()
	if v.IsNull() || !objects.InstanceOf(class, v.Ref) {
		t.Push(objects.IntSlot(0))
		return
	}
	t.Push(objects.IntSlot(1))
}

func opInvokeStaticHandler(ip *Interp, t *machine.Thread) {
	opStart := t.IP - 1
	index := fetchU16(t)
	method, err := resolve.PoolMethod(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchMethodError, "%v", err)
		return
	}
	if injectInitializer(ip, t, method.Owner, opStart) {
		return
	}
	prepareInvoke(ip, t, method, method.ParameterCount)
}

// opInvokeSpecialHandler invokes the declared method directly unless
// IsSpecialMethod holds, in which case the same-offset method on the
// *calling* class's superclass runs instead: the super.method()
// call-site pattern.
func opInvokeSpecialHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	method, err := resolve.PoolMethod(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchMethodError, "%v", err)
		return
	}

	argCount := method.ParameterCount + 1 // declared params plus the implicit receiver
	receiver := t.Stack[t.SP-argCount]
	if receiver.IsNull() {
		throwNew(ip, t, ip.Bi.NullPointerException, "invokespecial on null receiver")
		return
	}

	target := method
	currentClass := t.Frame.Method.Owner
	if objects.IsSpecialMethod(method, currentClass) {
		if super := currentClass.SuperClass(); super != nil {
			if m := objects.FindMethod(method, super); m != nil {
				target = m
			}
		}
	}
	prepareInvoke(ip, t, target, argCount)
}

func opInvokeVirtualHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	method, err := resolve.PoolMethod(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchMethodError, "%v", err)
		return
	}

	argCount := method.ParameterCount + 1
	receiver := t.Stack[t.SP-argCount]
	if receiver.IsNull() {
		throwNew(ip, t, ip.Bi.NullPointerException, "invokevirtual on null receiver")
		return
	}

	target := objects.FindMethod(method, receiver.Ref.Class)
	if target == nil {
		throwf(ip, t, ip.Bi.NoSuchMethodError, "%s.%s%s", receiver.Ref.Class.Name, method.Name, method.Spec)
		return
	}
	prepareInvoke(ip, t, target, argCount)
}

// opInvokeInterfaceHandler reads and discards its two trailing format
// bytes (count, zero); they carry no information this implementation
// needs, but the encoding reserves them.
func opInvokeInterfaceHandler(ip *Interp, t *machine.Thread) {
	index := fetchU16(t)
	method, err := resolve.PoolMethod(ip.M, t.Code.Pool, index)
	if err != nil {
		throwf(ip, t, ip.Bi.NoSuchMethodError, "%v", err)
		return
	}
	fetchU8(t) // count, discarded
	fetchU8(t) // zero, discarded

	argCount := method.ParameterCount + 1
	receiver := t.Stack[t.SP-argCount]
	if receiver.IsNull() {
		throwNew(ip, t, ip.Bi.NullPointerException, "invokeinterface on null receiver")
		return
	}

	target := objects.FindInterfaceMethod(method, receiver.Ref.Class)
	if target == nil {
		throwf(ip, t, ip.Bi.NoSuchMethodError, "%s.%s%s", receiver.Ref.Class.Name, method.Name, method.Spec)
		return
	}
	prepareInvoke(ip, t, target, argCount)
}

func opAThrowHandler(ip *Interp, t *machine.Thread) {
	exc := t.Pop()
	if exc.IsNull() {
		throwNew(ip, t, ip.Bi.NullPointerException, "athrow on null")
		return
	}
	raise(ip, t, exc)
}
