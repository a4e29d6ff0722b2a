package interp

import (
	"fmt"

	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
)

// Builtins holds the intrinsic classes the interpreter throws without any
// classpath involved — the handful of core exceptions this VM assumes
// exist rather than loads, installed directly into the machine's class
// table since there is no class file to parse for them.
type Builtins struct {
	Object                         *objects.Class
	Throwable                      *objects.Class
	NullPointerException           *objects.Class
	ArrayIndexOutOfBoundsException *objects.Class
	ClassCastException             *objects.Class
	NegativeArraySizeException     *objects.Class
	StackOverflowError             *objects.Class
	ClassNotFoundException         *objects.Class
	NoSuchFieldError               *objects.Class
	NoSuchMethodError              *objects.Class

	// TraceElement is the intrinsic record class behind a throwable's
	// trace chain: one element per frame, linked through its `next` field
	// with the outermost frame at the head.
	TraceElement *objects.Class

	// DefaultHandler is installed on every new Thread: the method
	// the unwind path falls back to when no frame's handler table catches
	// the pending exception. Its single `return` opcode just ends the
	// thread with the exception sitting on the stack.
	DefaultHandler *objects.Method
}

// Field offsets on every intrinsic throwable, and on TraceElement.
const (
	throwableMessage = 0
	throwableTrace   = 1

	traceMethod = 0
	traceIP     = 1
	traceNext   = 2
)

// NewBuiltins registers the intrinsic hierarchy against m and returns a
// handle the interpreter's exception-synthesizing helpers use.
func NewBuiltins(m *machine.Machine) *Builtins {
	b := &Builtins{}
	b.Object = intrinsicThrowable(m, "java/lang/Object", nil)
	b.Throwable = intrinsicThrowable(m, "java/lang/Throwable", b.Object)
	b.NullPointerException = intrinsicThrowable(m, "java/lang/NullPointerException", b.Throwable)
	b.ArrayIndexOutOfBoundsException = intrinsicThrowable(m, "java/lang/ArrayIndexOutOfBoundsException", b.Throwable)
	b.ClassCastException = intrinsicThrowable(m, "java/lang/ClassCastException", b.Throwable)
	b.NegativeArraySizeException = intrinsicThrowable(m, "java/lang/NegativeArraySizeException", b.Throwable)
	b.StackOverflowError = intrinsicThrowable(m, "java/lang/StackOverflowError", b.Throwable)
	b.ClassNotFoundException = intrinsicThrowable(m, "java/lang/ClassNotFoundException", b.Throwable)
	b.NoSuchFieldError = intrinsicThrowable(m, "java/lang/NoSuchFieldError", b.Throwable)
	b.NoSuchMethodError = intrinsicThrowable(m, "java/lang/NoSuchMethodError", b.Throwable)

	b.TraceElement = intrinsicClass(m, "gojvm/TraceElement", b.Object, []*objects.Field{
		{Name: []byte("method"), Spec: []byte("[B"), Offset: traceMethod},
		{Name: []byte("ip"), Spec: []byte("I"), Offset: traceIP},
		{Name: []byte("next"), Spec: []byte("Lgojvm/TraceElement;"), Offset: traceNext},
	})

	handlerCode := &objects.Code{Body: []byte{opReturn}, MaxStack: 1, MaxLocals: 1}
	b.DefaultHandler = &objects.Method{
		Owner:          b.Throwable,
		Name:           []byte("<defaultHandler>"),
		Spec:           []byte("(Ljava/lang/Throwable;)V"),
		ParameterCount: 1,
		Code:           handlerCode,
	}
	return b
}

func intrinsicThrowable(m *machine.Machine, name string, super *objects.Class) *objects.Class {
	return intrinsicClass(m, name, super, []*objects.Field{
		{Name: []byte("message"), Spec: []byte("[B"), Offset: throwableMessage},
		{Name: []byte("trace"), Spec: []byte("Lgojvm/TraceElement;"), Offset: throwableTrace},
	})
}

func intrinsicClass(m *machine.Machine, name string, super *objects.Class, fields []*objects.Field) *objects.Class {
	var superAny any
	if super != nil {
		superAny = super
	}
	class := objects.NewClass([]byte(name), superAny, objects.AccPublic)
	for _, f := range fields {
		f.Owner = class
	}
	class.Fields = fields
	class.FixedSize = len(fields)

	m.ClassLock.Acquire()
	m.ClassMap[name] = class
	m.ClassLock.Release()
	return class
}

// throwNew synthesizes an instance of class with msg and a trace of the
// thread's current frame chain, installs it in the exception register, and
// unwinds. Every exception-synthesizing opcode site funnels here.
func throwNew(ip *Interp, t *machine.Thread, class *objects.Class, msg string) {
	raise(ip, t, makeException(ip, t, class, msg))
}

func throwf(ip *Interp, t *machine.Thread, class *objects.Class, format string, args ...any) {
	throwNew(ip, t, class, fmt.Sprintf(format, args...))
}

// makeException composes three allocations (message, trace, instance), so
// the earlier results are registered on the thread's protector chain
// while the later allocations may trigger a collection.
func makeException(ip *Interp, t *machine.Thread, class *objects.Class, msg string) objects.Slot {
	message := makeString(t, msg)
	mtok := t.Protector.Acquire(&message)

	trace := makeTrace(ip, t)
	ttok := t.Protector.Acquire(&trace)

	machine.Allocate(t, class.FixedSize)
	instance := &objects.Header{Class: class, Slots: []objects.Slot{message, trace}}

	t.Protector.Release(ttok)
	t.Protector.Release(mtok)
	return objects.RefSlot(instance)
}

// makeTrace records one (method, ip) element per live frame, linked with
// the outermost frame at the chain head. The current frame's ip register
// is flushed into the frame first so the innermost element reports the
// opcode that threw, not wherever the frame's last saved ip happened to
// point.
func makeTrace(ip *Interp, t *machine.Thread) objects.Slot {
	trace := objects.NullSlot()
	tok := t.Protector.Acquire(&trace)

	if t.Frame != nil {
		t.Frame.SavedIP = t.IP
	}
	for f := t.Frame; f != nil; f = f.Next {
		name := makeString(t, string(f.Method.Name))
		ntok := t.Protector.Acquire(&name)
		machine.Allocate(t, ip.Bi.TraceElement.FixedSize)
		entry := &objects.Header{Class: ip.Bi.TraceElement, Slots: []objects.Slot{
			name, objects.IntSlot(int32(f.SavedIP)), trace,
		}}
		t.Protector.Release(ntok)
		trace = objects.RefSlot(entry)
	}

	t.Protector.Release(tok)
	return trace
}

// makeString allocates msg as an int-array of character codes in t's
// arena.
func makeString(t *machine.Thread, msg string) objects.Slot {
	raw := []byte(msg)
	machine.Allocate(t, len(raw))
	slots := make([]objects.Slot, len(raw))
	for i, c := range raw {
		slots[i] = objects.IntSlot(int32(c))
	}
	return objects.RefSlot(&objects.Header{IsArray: true, ElemK: objects.KindInt, Slots: slots})
}

// NewException builds an instance of class carrying msg but no trace and
// no arena accounting — the out-of-band construction tests use to hand the
// unwind path a ready-made throwable without a running thread.
func NewException(class *objects.Class, msg string) objects.Slot {
	raw := []byte(msg)
	slots := make([]objects.Slot, len(raw))
	for i, c := range raw {
		slots[i] = objects.IntSlot(int32(c))
	}
	message := &objects.Header{IsArray: true, ElemK: objects.KindInt, Slots: slots}
	instance := &objects.Header{Class: class, Slots: []objects.Slot{
		objects.RefSlot(message), objects.NullSlot(),
	}}
	return objects.RefSlot(instance)
}
