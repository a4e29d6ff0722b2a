package interp

import (
	goerrors "github.com/corda/gojvm/internal/errors"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/resolve"
)

// opHandler executes exactly one decoded instruction. Handlers that cross
// a frame boundary (invoke*, return*, new/getstatic/putstatic's
// initializer injection, athrow) call prepareInvoke/doReturn/raise
// directly instead of signalling the loop.
type opHandler func(ip *Interp, t *machine.Thread)

var dispatchTable [256]opHandler

// Interp owns the machine and intrinsic classes every handler resolves
// and throws against.
type Interp struct {
	M  *machine.Machine
	Bi *Builtins
}

// New wires an interpreter to m, registering the intrinsic exception
// hierarchy that every thread's DefaultHandler and every
// exception-synthesizing opcode site needs.
func New(m *machine.Machine) *Interp {
	return &Interp{M: m, Bi: NewBuiltins(m)}
}

// NewThread allocates a thread wired to this interpreter's builtins and
// ready to Run once given a starting method.
func (ip *Interp) NewThread(stackSize, arenaSize int) *machine.Thread {
	t := machine.NewThread(stackSize, arenaSize)
	t.DefaultHandler = ip.Bi.DefaultHandler
	return t
}

// Run drives t's fetch-decode-dispatch loop until its outermost frame
// returns, then reports the returned value. t must already have Frame,
// Code and IP set up (see Start).
func (ip *Interp) Run(t *machine.Thread) (objects.Slot, error) {
	for !t.Finished {
		op := t.Code.Body[t.IP]
		t.IP++

		h := dispatchTable[op]
		if h == nil {
			diag := goerrors.Diagnostic{Opcode: op, IP: t.IP - 1, FrameDepth: frameDepth(t)}
			ip.M.Abortf("interp: unknown opcode %s", diag.Format())
			return objects.Slot{}, nil
		}
		h(ip, t)
	}
	return t.Returned, nil
}

// frameDepth counts frames from t's current top down to the outermost,
// the depth a Diagnostic reports alongside the opcode and ip that
// triggered a fatal abort.
func frameDepth(t *machine.Thread) int {
	n := 0
	for f := t.Frame; f != nil; f = f.Next {
		n++
	}
	return n
}

// Start sets up t's initial frame for method with no arguments already on
// the stack — the entry point cmd/gojvm and tests use to kick off a
// thread's main method.
func Start(t *machine.Thread, method *objects.Method) {
	t.Frame = objects.NewFrame(method, nil, 0, method.Code.MaxLocals)
	t.Code = method.Code
	t.IP = 0
}

// prepareInvoke is the shared invocation path: stack-overflow check,
// caller ip save, argument-slot reuse as the callee's leading locals,
// frame push, ip reset.
func prepareInvoke(ip *Interp, t *machine.Thread, method *objects.Method, parameterCount int) {
	code := method.Code
	if code.MaxStack+t.SP-parameterCount > len(t.Stack) {
		throwNew(ip, t, ip.Bi.StackOverflowError, "stack overflow")
		return
	}

	if t.Frame != nil {
		t.Frame.SavedIP = t.IP
	}

	t.SP -= parameterCount
	frame := objects.NewFrame(method, t.Frame, t.SP, code.MaxLocals)
	copy(frame.Locals, t.Stack[t.SP:t.SP+parameterCount])

	t.Frame = frame
	t.Code = code
	t.IP = 0
}

// doReturn implements areturn/ireturn/lreturn/return_: pop the result (if
// any), pop the frame, and either resume the caller or finish the thread.
func doReturn(t *machine.Thread, hasValue bool) {
	var value objects.Slot
	if hasValue {
		value = t.Pop()
	}

	t.Frame = t.Frame.Next
	if t.Frame != nil {
		t.Code = t.Frame.Method.Code
		t.IP = t.Frame.SavedIP
		if hasValue {
			t.Push(value)
		}
	} else {
		// A void return from the outermost frame yields whatever is left on
		// top of the operand stack, or null when the stack is empty.
		if !hasValue {
			value = objects.NullSlot()
			if t.SP > 0 {
				value = t.Top()
			}
		}
		t.Code = nil
		t.Finished = true
		t.Returned = value
	}
}

// raise installs exc in the thread's exception register, walks frames
// outward searching each one's exception table for a matching handler,
// and installs the thread's default handler if none match. The register
// is cleared the moment a handler (or the default handler) takes over.
func raise(ip *Interp, t *machine.Thread, exc objects.Slot) {
	t.Exception = exc

	for f := t.Frame; f != nil; f = f.Next {
		code := f.Method.Code
		for _, h := range code.Handlers {
			if h.CatchPool == 0 || catches(ip, code, h.CatchPool, exc) {
				t.Frame = f
				t.Code = code
				t.SP = f.StackBase
				t.IP = h.HandlerIP
				t.Exception = objects.NullSlot()
				t.Push(exc)
				return
			}
		}
	}

	handler := t.DefaultHandler
	t.Frame = objects.NewFrame(handler, nil, 0, handler.Code.MaxLocals)
	t.Code = handler.Code
	t.SP = 0
	t.IP = 0
	t.Exception = objects.NullSlot()
	t.Push(exc)
}

// catches resolves a handler row's catch-type pool entry and tests it
// against exc. A catch class that fails to resolve is treated as a
// non-match rather than a nested throw.
func catches(ip *Interp, code *objects.Code, catchPool int, exc objects.Slot) bool {
	class, err := resolve.PoolClass(ip.M, code.Pool, catchPool)
	if err != nil {
		return false
	}
	return objects.InstanceOf(class, exc.Ref)
}

func init() {
	registerConstHandlers()
	registerArithHandlers()
	registerControlHandlers()
	registerArrayHandlers()
	registerObjectHandlers()
}
