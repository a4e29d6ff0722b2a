package interp

import (
	"testing"

	"github.com/corda/gojvm/internal/classfile"
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/loader/memory"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/sysabi"
)

func newTestInterp(t *testing.T) (*machine.Machine, *Interp, *memory.Finder) {
	t.Helper()
	finder := memory.New()
	m := machine.New(sysabi.NewDefault(), heap.NewDefault(), finder)
	return m, New(m), finder
}

func activeThread(ip *Interp, stackSize, arenaSize int) *machine.Thread {
	th := ip.NewThread(stackSize, arenaSize)
	ip.M.Register(th, nil)
	machine.Enter(th, machine.Active)
	return th
}

func startAndRun(t *testing.T, ip *Interp, method *objects.Method) (objects.Slot, *machine.Thread) {
	t.Helper()
	th := activeThread(ip, 64, 4096)
	Start(th, method)
	result, err := ip.Run(th)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return result, th
}

// iconst_3; iconst_4; iadd; ireturn from a method
// returning int, invoked with no parameters -> 7.
func TestIntAddReturnsSeven(t *testing.T) {
	_, ip, _ := newTestInterp(t)

	b := classfile.NewBuilder([]byte("Calc"), nil, objects.AccPublic)
	b.AddCodeMethod([]byte("add"), []byte("()I"), objects.AccStatic, 0,
		2, 0,
		[]byte{opIConst3, opIConst4, opIAdd, opIReturn},
		nil, nil,
	)
	class, err := classfile.Parse(b.Encode())
	if err != nil {
		t.Fatal(err)
	}

	result, _ := startAndRun(t, ip, class.Methods[0])
	if result.I64 != 7 {
		t.Fatalf("result = %d, want 7", result.I64)
	}
}

// new C; dup; invokespecial C.<init>; areturn where C has
// no <init> declared and inherits Object.<init> -> a new C instance whose
// class is C.
func TestNewInheritsDefaultInit(t *testing.T) {
	m, ip, _ := newTestInterp(t)

	objectBuilder := classfile.NewBuilder([]byte("java/lang/Object"), nil, objects.AccPublic)
	objectBuilder.AddCodeMethod([]byte("<init>"), []byte("()V"), 0, 0, 1, 1, []byte{opReturn}, nil, nil)
	objectClass, err := classfile.Parse(objectBuilder.Encode())
	if err != nil {
		t.Fatal(err)
	}

	pool := []objects.PoolEntry{
		{Tag: objects.PoolUnresolvedClass, ClassName: []byte("C")},
		{Tag: objects.PoolUnresolvedRef, ClassName: []byte("C"), MemberName: []byte("<init>"), MemberSpec: []byte("()V")},
	}
	cBuilder := classfile.NewBuilder([]byte("C"), []byte("java/lang/Object"), objects.AccPublic)
	cBuilder.AddCodeMethod([]byte("make"), []byte("()LC;"), objects.AccStatic, 0,
		3, 1,
		[]byte{opNew, 0, 0, opDup, opInvokeSpec, 0, 1, opAReturn},
		pool, nil,
	)
	cClass, err := classfile.Parse(cBuilder.Encode())
	if err != nil {
		t.Fatal(err)
	}

	m.ClassMap["java/lang/Object"] = objectClass
	m.ClassMap["C"] = cClass

	result, _ := startAndRun(t, ip, cClass.Methods[0])
	if result.IsNull() {
		t.Fatal("expected a non-null instance")
	}
	if result.Ref.Class != cClass {
		t.Fatalf("objectClass(result) = %v, want C", result.Ref.Class)
	}
}

// iaload on an int[3] = {10,20,30} at index 1 returns 20;
// at index 3 (== length) it throws AIOOBE with message "3 not in [0,3]".
func TestArrayLoadBoundsCheck(t *testing.T) {
	_, ip, _ := newTestInterp(t)

	array := &objects.Header{IsArray: true, ElemK: objects.KindInt, Slots: []objects.Slot{
		objects.IntSlot(10), objects.IntSlot(20), objects.IntSlot(30),
	}}

	th := activeThread(ip, 16, 4096)
	th.Push(objects.RefSlot(array))
	th.Push(objects.IntSlot(1))
	dispatchTable[opIALoad](ip, th)
	if got := th.Pop(); got.I64 != 20 {
		t.Fatalf("iaload[1] = %d, want 20", got.I64)
	}

	th2 := activeThread(ip, 16, 4096)
	th2.Push(objects.RefSlot(array))
	th2.Push(objects.IntSlot(3))
	dispatchTable[opIALoad](ip, th2)

	exc := th2.Top()
	if exc.IsNull() {
		t.Fatal("expected an AIOOBE instance on the stack")
	}
	if exc.Ref.Class != ip.Bi.ArrayIndexOutOfBoundsException {
		t.Fatalf("exception class = %v, want ArrayIndexOutOfBoundsException", exc.Ref.Class)
	}
	if msg := decodeMessage(exc.Ref); msg != "3 not in [0,3]" {
		t.Fatalf("message = %q, want %q", msg, "3 not in [0,3]")
	}
}

// A method invokes a static method on a class whose
// initializer chain is nonempty; the initializer runs first, then the
// invoking opcode re-executes and the target method runs.
func TestStaticInitializerInjection(t *testing.T) {
	m, ip, _ := newTestInterp(t)

	fieldPool := []objects.PoolEntry{
		{Tag: objects.PoolUnresolvedRef, ClassName: []byte("S"), MemberName: []byte("x"), MemberSpec: []byte("I")},
	}
	getXPool := []objects.PoolEntry{
		{Tag: objects.PoolUnresolvedRef, ClassName: []byte("S"), MemberName: []byte("x"), MemberSpec: []byte("I")},
	}
	mainPool := []objects.PoolEntry{
		{Tag: objects.PoolUnresolvedRef, ClassName: []byte("S"), MemberName: []byte("getX"), MemberSpec: []byte("()I")},
	}

	b := classfile.NewBuilder([]byte("S"), nil, objects.AccPublic)
	b.AddField([]byte("x"), []byte("I"), objects.AccStatic)
	b.AddCodeMethod([]byte("<clinit>"), []byte("()V"), objects.AccStatic, 0,
		2, 0,
		[]byte{opBipush, 42, opPutStatic, 0, 0, opReturn},
		fieldPool, nil,
	)
	b.AddCodeMethod([]byte("getX"), []byte("()I"), objects.AccStatic, 0,
		1, 0,
		[]byte{opGetStatic, 0, 0, opIReturn},
		getXPool, nil,
	)
	b.AddCodeMethod([]byte("main"), []byte("()I"), objects.AccStatic, 0,
		1, 0,
		[]byte{opInvokeStat, 0, 0, opIReturn},
		mainPool, nil,
	)

	class, err := classfile.Parse(b.Encode())
	if err != nil {
		t.Fatal(err)
	}
	m.ClassMap["S"] = class

	if len(class.InitChain) != 1 {
		t.Fatalf("expected one pending initializer, got %d", len(class.InitChain))
	}

	var mainMethod *objects.Method
	for _, meth := range class.Methods {
		if string(meth.Name) == "main" {
			mainMethod = meth
		}
	}
	if mainMethod == nil {
		t.Fatal("main method not found")
	}

	result, _ := startAndRun(t, ip, mainMethod)
	if result.I64 != 42 {
		t.Fatalf("result = %d, want 42", result.I64)
	}
	if len(class.InitChain) != 0 {
		t.Fatal("expected the initializer chain to be fully drained")
	}
}

// A method throws via athrow; a catch-all handler at
// ip=42 catches it. After the throw: sp == frame.stackBase+1 (just the
// exception), ip == 42, and the exception register is cleared.
func TestThrowCaughtByHandler(t *testing.T) {
	_, ip, _ := newTestInterp(t)

	body := make([]byte, 45)
	body[0] = opPop // placeholder opcode, never reached: frame starts mid-body in this test
	handlers := []objects.ExceptionHandler{{StartIP: 0, EndIP: 2, HandlerIP: 42, CatchPool: 0}}
	code := &objects.Code{Body: body, MaxStack: 4, MaxLocals: 1, Handlers: handlers}
	method := &objects.Method{Name: []byte("m"), Spec: []byte("()V"), Code: code}

	th := ip.NewThread(16, 4096)
	th.Frame = objects.NewFrame(method, nil, 0, 1)
	th.Code = code

	exc := NewException(ip.Bi.NullPointerException, "boom")
	raise(ip, th, exc)

	if th.SP != th.Frame.StackBase+1 {
		t.Fatalf("sp = %d, want stackBase+1 = %d", th.SP, th.Frame.StackBase+1)
	}
	if th.IP != 42 {
		t.Fatalf("ip = %d, want 42", th.IP)
	}
	if !th.Exception.IsNull() {
		t.Fatal("expected the exception register to be cleared once caught")
	}
	if th.Top().Ref != exc.Ref {
		t.Fatal("expected the exception instance to be the new top of stack")
	}
}

// The two-thread collector-election interleaving is exercised in package
// machine's own state-machine tests; see machine/state_test.go.

// RunBytes stands up a whole machine around an in-memory class map.
func TestRunBytes(t *testing.T) {
	b := classfile.NewBuilder([]byte("Calc"), nil, objects.AccPublic)
	b.AddCodeMethod([]byte("add"), []byte("()I"), objects.AccStatic, 0,
		2, 0,
		[]byte{opIConst3, opIConst4, opIAdd, opIReturn},
		nil, nil,
	)

	result, err := RunBytes(map[string][]byte{"Calc": b.Encode()}, "Calc", "add", "()I")
	if err != nil {
		t.Fatal(err)
	}
	if result.I64 != 7 {
		t.Fatalf("result = %d, want 7", result.I64)
	}

	if _, err := RunBytes(map[string][]byte{"Calc": b.Encode()}, "Calc", "missing", "()V"); err == nil {
		t.Fatal("expected an error for an unknown entry method")
	}
}

// dup; pop on any stack is a no-op.
func TestDupPopIsNoOp(t *testing.T) {
	_, ip, _ := newTestInterp(t)
	th := activeThread(ip, 16, 4096)

	th.Push(objects.IntSlot(99))
	before := th.SP
	dispatchTable[opDup](ip, th)
	dispatchTable[opPop](ip, th)

	if th.SP != before {
		t.Fatalf("sp = %d, want %d", th.SP, before)
	}
	if got := th.Top(); got.I64 != 99 {
		t.Fatalf("top = %d, want 99", got.I64)
	}
}

// aload_k; astore_k is a no-op on local k.
func TestLoadStoreLocalRoundTrip(t *testing.T) {
	_, ip, _ := newTestInterp(t)
	th := activeThread(ip, 16, 4096)

	method := &objects.Method{Name: []byte("m"), Spec: []byte("()V"),
		Code: &objects.Code{MaxStack: 4, MaxLocals: 4}}
	th.Frame = objects.NewFrame(method, nil, 0, 4)

	obj := &objects.Header{}
	th.Frame.Locals[2] = objects.RefSlot(obj)

	dispatchTable[opALoad2](ip, th)
	dispatchTable[opAStore2](ip, th)

	if th.SP != 0 {
		t.Fatalf("sp = %d, want 0", th.SP)
	}
	if th.Frame.Locals[2].Ref != obj {
		t.Fatal("local 2 changed across aload_2; astore_2")
	}
}

// Each non-allocating opcode's stack effect matches its documented delta
//. The stack is pre-seeded per row so every pop has an
// operand of the right kind.
func TestOpcodeStackEffects(t *testing.T) {
	_, ip, _ := newTestInterp(t)

	intPair := []objects.Slot{objects.IntSlot(6), objects.IntSlot(3)}
	longPair := []objects.Slot{objects.LongSlot(6), objects.LongSlot(3)}

	tests := []struct {
		name  string
		op    byte
		setup []objects.Slot
		delta int
	}{
		{"iconst_0", opIConst0, nil, +1},
		{"lconst_1", opLConst1, nil, +1},
		{"aconst_null", opAConstNull, nil, +1},
		{"iadd", opIAdd, intPair, -1},
		{"isub", opISub, intPair, -1},
		{"imul", opIMul, intPair, -1},
		{"idiv", opIDiv, intPair, -1},
		{"irem", opIRem, intPair, -1},
		{"iand", opIAnd, intPair, -1},
		{"ishl", opIShl, intPair, -1},
		{"ladd", opLAdd, longPair, -1},
		{"lshr", opLShr, longPair, -1},
		{"lcmp", opLCmp, longPair, -1},
		{"ineg", opINeg, intPair[:1], 0},
		{"lneg", opLNeg, longPair[:1], 0},
		{"i2l", opI2L, intPair[:1], 0},
		{"l2i", opL2I, longPair[:1], 0},
		{"i2b", opI2B, intPair[:1], 0},
		{"pop", opPop, intPair[:1], -1},
		{"dup", opDup, intPair[:1], +1},
		{"dup_x1", opDupX1, intPair, +1},
		{"swap", opSwap, intPair, 0},
		{"nop", opNop, nil, 0},
	}

	for _, tt := range tests {
		th := ip.NewThread(16, 4096)
		for _, s := range tt.setup {
			th.Push(s)
		}
		before := th.SP
		dispatchTable[tt.op](ip, th)
		if got := th.SP - before; got != tt.delta {
			t.Errorf("%s: delta sp = %d, want %d", tt.name, got, tt.delta)
		}
	}
}

// A callee whose codeMaxStack + sp - parameterCount == StackSize fits
// exactly; one slot more raises StackOverflowError.
func TestInvokeStackOverflowBoundary(t *testing.T) {
	_, ip, _ := newTestInterp(t)

	const stackSize = 8
	fits := &objects.Method{Name: []byte("fits"), Spec: []byte("()V"),
		Code: &objects.Code{Body: []byte{opReturn}, MaxStack: stackSize, MaxLocals: 0}}

	th := activeThread(ip, stackSize, 4096)
	prepareInvoke(ip, th, fits, 0)
	if !th.Exception.IsNull() || th.Frame == nil || th.Frame.Method != fits {
		t.Fatal("exact-fit invoke should have pushed the callee frame")
	}

	over := &objects.Method{Name: []byte("over"), Spec: []byte("()V"),
		Code: &objects.Code{Body: []byte{opReturn}, MaxStack: stackSize + 1, MaxLocals: 0}}

	th2 := activeThread(ip, stackSize, 4096)
	prepareInvoke(ip, th2, over, 0)
	exc := th2.Top()
	if exc.IsNull() || exc.Ref.Class != ip.Bi.StackOverflowError {
		t.Fatalf("expected StackOverflowError, got %v", exc)
	}
}

// A synthesized exception carries a (method, ip) trace of the frame chain
// that was live when it was thrown.
func TestSynthesizedExceptionCarriesTrace(t *testing.T) {
	m, ip, _ := newTestInterp(t)

	boomPool := []objects.PoolEntry(nil)
	mainPool := []objects.PoolEntry{
		{Tag: objects.PoolUnresolvedRef, ClassName: []byte("T"), MemberName: []byte("boom"), MemberSpec: []byte("()V")},
	}

	b := classfile.NewBuilder([]byte("T"), nil, objects.AccPublic)
	b.AddCodeMethod([]byte("boom"), []byte("()V"), objects.AccStatic, 0,
		2, 0,
		[]byte{opAConstNull, opIConst0, opIALoad, opReturn},
		boomPool, nil,
	)
	b.AddCodeMethod([]byte("main"), []byte("()V"), objects.AccStatic, 0,
		1, 0,
		[]byte{opInvokeStat, 0, 0, opReturn},
		mainPool, nil,
	)
	class, err := classfile.Parse(b.Encode())
	if err != nil {
		t.Fatal(err)
	}
	m.ClassMap["T"] = class

	var mainMethod *objects.Method
	for _, meth := range class.Methods {
		if string(meth.Name) == "main" {
			mainMethod = meth
		}
	}

	_, th := startAndRun(t, ip, mainMethod)

	// Uncaught, so the default handler took over with the exception as the
	// sole stack slot.
	if th.SP != 1 {
		t.Fatalf("sp = %d, want 1", th.SP)
	}
	exc := th.Stack[0]
	if exc.Ref.Class != ip.Bi.NullPointerException {
		t.Fatalf("exception class = %s, want NullPointerException", exc.Ref.Class.Name)
	}

	trace := exc.Ref.Slots[throwableTrace]
	if trace.IsNull() {
		t.Fatal("expected a non-null trace")
	}
	// The chain head is the outermost frame; its next is the thrower.
	if got := decodeBytes(trace.Ref.Slots[traceMethod].Ref); got != "main" {
		t.Fatalf("trace head method = %q, want main", got)
	}
	inner := trace.Ref.Slots[traceNext]
	if inner.IsNull() {
		t.Fatal("expected a second trace element")
	}
	if got := decodeBytes(inner.Ref.Slots[traceMethod].Ref); got != "boom" {
		t.Fatalf("inner trace method = %q, want boom", got)
	}
	if ipAt := inner.Ref.Slots[traceIP].I64; ipAt == 0 {
		t.Fatalf("inner trace ip = %d, want the throwing opcode's ip", ipAt)
	}
}

func decodeMessage(instance *objects.Header) string {
	return decodeBytes(instance.Slots[0].Ref)
}

func decodeBytes(arr *objects.Header) string {
	b := make([]byte, len(arr.Slots))
	for i, s := range arr.Slots {
		b[i] = byte(s.I64)
	}
	return string(b)
}
