// Package machine is the process-wide VM singleton and the thread
// coordination state machine built on top of it: one lock per concern
// (state, heap, class table), a registry of every execution thread, and
// the exclusive-mode latch stop-the-world collections ride on.
package machine

import (
	"fmt"

	"github.com/corda/gojvm/internal/classfile"
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/sysabi"
)

// Machine owns the three monitors every thread coordinates through, the
// class table, and the root of the thread registry.
type Machine struct {
	Sys    sysabi.System
	Heap   heap.Heap
	Finder classfile.ClassFinder

	StateLock sysabi.Monitor
	HeapLock  sysabi.Monitor
	ClassLock sysabi.Monitor

	// ClassMap is read and mutated only under ClassLock.
	ClassMap map[string]*objects.Class

	RootThread  *Thread
	exclusive   *Thread
	activeCount int
	liveCount   int
}

// New constructs a Machine over its three collaborators. A monitor
// construction failure is fatal: there is no way to run
// without the locks that guard every other invariant.
func New(sys sysabi.System, h heap.Heap, finder classfile.ClassFinder) *Machine {
	stateLock, s1 := sys.Make()
	heapLock, s2 := sys.Make()
	classLock, s3 := sys.Make()
	if !sysabi.Success(s1) || !sysabi.Success(s2) || !sysabi.Success(s3) {
		sys.Abort("machine: failed to create monitors")
	}

	return &Machine{
		Sys:       sys,
		Heap:      h,
		Finder:    finder,
		StateLock: stateLock,
		HeapLock:  heapLock,
		ClassLock: classLock,
		ClassMap:  make(map[string]*objects.Class),
	}
}

// Dispose releases every monitor New created.
func (m *Machine) Dispose() {
	m.StateLock.Dispose()
	m.HeapLock.Dispose()
	m.ClassLock.Dispose()
}

// Register links t into the thread registry: the first thread ever
// registered becomes RootThread; later threads become either a sibling of
// RootThread (parent == nil) or a child of parent, kept in the
// (next, child) layout ForEachThread walks.
func (m *Machine) Register(t *Thread, parent *Thread) {
	t.VM = m
	if m.RootThread == nil {
		m.RootThread = t
		return
	}
	if parent != nil {
		t.Next = parent.Child
		parent.Child = t
	} else {
		t.Next = m.RootThread.Next
		m.RootThread.Next = t
	}
}

// ForEachThread performs the DFS over (Next, Child) the GC root scan
// relies on: siblings via Next, descendants via Child.
func (m *Machine) ForEachThread(fn func(*Thread)) {
	for t := m.RootThread; t != nil; t = t.Next {
		forEachThread(t, fn)
	}
}

func forEachThread(t *Thread, fn func(*Thread)) {
	fn(t)
	for c := t.Child; c != nil; c = c.Next {
		forEachThread(c, fn)
	}
}

// Abortf formats its message and aborts the process via Sys. Any context
// a fatal site reports is in the format arguments; interp.Run's
// unknown-opcode path passes an (opcode, ip, frame depth) Diagnostic.
func (m *Machine) Abortf(format string, args ...any) {
	m.Sys.Abort(fmt.Sprintf(format, args...))
}
