package machine

import (
	"github.com/corda/gojvm/internal/heap"
)

// Roots implements heap.Iterator over everything a collection run needs to
// see: the global class table's static fields, and every registered
// thread's (ThreadObj, Exception, frame locals, live operand stack,
// protector chain). Threads are visited via Machine.ForEachThread's DFS, so
// a child thread's roots are seen regardless of which live thread triggered
// the collection.
//
// The stack scan visits each live slot in [0, sp) exactly once.
type Roots struct {
	M *Machine
}

func (r Roots) Iterate(v heap.Visitor) {
	r.M.ClassLock.Acquire()
	for _, class := range r.M.ClassMap {
		for i := range class.StaticSlot {
			v.Visit(&class.StaticSlot[i])
		}
	}
	r.M.ClassLock.Release()

	r.M.ForEachThread(func(t *Thread) {
		visitThreadRoots(t, v)
	})
}

func visitThreadRoots(t *Thread, v heap.Visitor) {
	// The collector is copying: survivors are evacuated as they are
	// visited, so the arena is logically empty again once iteration of
	// this thread starts.
	t.Arena.Reset()

	v.Visit(&t.ThreadObj)
	v.Visit(&t.Exception)

	for i := 0; i < t.SP; i++ {
		v.Visit(&t.Stack[i])
	}

	for f := t.Frame; f != nil; f = f.Next {
		for i := range f.Locals {
			v.Visit(&f.Locals[i])
		}
	}

	t.Protector.Iterate(v)
}

// RunCollection drives a minor collection over every thread's roots plus
// the class table. Callers hold HeapLock across the call so a
// concurrent allocator never observes a collection in progress.
func (m *Machine) RunCollection() {
	m.Heap.Collect(heap.MinorCollection, Roots{M: m})
}

// Allocate performs the safe-point check every allocating opcode goes
// through: if this allocation would overflow the arena, or another
// thread wants exclusive access, fall into the slow path before bumping.
func Allocate(t *Thread, size int) {
	if t.Arena.Overflows(size) || t.VM.exclusivePending() {
		maybeYieldAndMaybeCollect(t, size)
	}
	t.Arena.Bump(size)
}

// maybeYieldAndMaybeCollect is the slow path: yield out of Active while a
// collector is waiting to go Exclusive, then — if this thread's own arena
// still can't fit size — become the collector itself.
//
// TooLarge is checked first and is fatal: there is no large-object
// allocation path.
func maybeYieldAndMaybeCollect(t *Thread, size int) {
	m := t.VM
	if t.Arena.TooLarge(size) {
		m.Sys.Abort("machine: object too large for arena")
	}

	m.StateLock.Acquire()
	for m.exclusive != nil {
		// Another thread wants the exclusive state, either for a
		// collection or some other reason. Give it a chance here.
		enterLocked(m, t, Idle)
		enterLocked(m, t, Active)
	}
	overflow := t.Arena.Overflows(size)
	if overflow {
		enterLocked(m, t, Exclusive)
	}
	m.StateLock.Release()

	if overflow {
		m.HeapLock.Acquire()
		m.RunCollection()
		m.HeapLock.Release()
		Enter(t, Active)
	}
}

func (m *Machine) exclusivePending() bool {
	m.StateLock.Acquire()
	defer m.StateLock.Release()
	return m.exclusive != nil
}
