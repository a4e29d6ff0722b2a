// Package heap is the VM's Heap collaborator plus the per-thread
// bump-allocation arena the interpreter allocates through. Go's own
// runtime already owns real object lifetime, so this package implements
// the VM-visible protocol (arena accounting, safe-point triggering, root
// visitation, the write-barrier call site) without reimplementing a
// byte-addressed allocator underneath it. See DESIGN.md for why Collect's
// relocation step is the identity function here.
package heap

import (
	"sync"

	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/sysabi"
)

// CollectionType selects a collection strategy; only MinorCollection is
// exercised by this core.
type CollectionType int

const MinorCollection CollectionType = 0

// Visitor receives the address of every live root slot so a moving
// collector may rewrite it in place.
type Visitor interface {
	Visit(slot *objects.Slot)
}

// Iterator enumerates a collection's root set by calling v.Visit once per
// root slot.
type Iterator interface {
	Iterate(v Visitor)
}

type VisitorFunc func(slot *objects.Slot)

func (f VisitorFunc) Visit(slot *objects.Slot) { f(slot) }

// Heap is the external collaborator the machine package depends on for
// collection and the write barrier.
type Heap interface {
	Collect(t CollectionType, it Iterator)
	Check(slot *objects.Slot, lock sysabi.Monitor)
}

// Default is the production Heap: objects already live on the Go runtime
// heap, so a collection's only VM-visible job is to walk every root; there
// is no separate survivor space to copy into. Check counts write-barrier
// invocations under the supplied lock; a generational implementation
// would use that hook to maintain a remembered set, but this core never
// runs more than one collection type so there is nothing to remember.
type Default struct {
	mu          sync.Mutex
	collections int64
	barrierHits int64
}

func NewDefault() *Default {
	return &Default{}
}

func (h *Default) Collect(t CollectionType, it Iterator) {
	h.mu.Lock()
	h.collections++
	h.mu.Unlock()

	it.Iterate(VisitorFunc(func(slot *objects.Slot) {
		// Identity relocation: the slot already points at a live Go value,
		// so there is nothing to copy or rewrite. Visiting it is still
		// required; it is how the root set gets enumerated, for this
		// collector and for any future one that does move things.
		_ = slot
	}))
}

func (h *Default) Check(slot *objects.Slot, lock sysabi.Monitor) {
	lock.Acquire()
	h.barrierHits++
	lock.Release()
}

func (h *Default) Stats() (collections, barrierHits int64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collections, h.barrierHits
}

// Set is the write barrier's call site: every heap-resident slot
// mutation funnels through here so the Heap gets a chance to record the
// store before the next collection runs.
func Set(h Heap, lock sysabi.Monitor, target *objects.Slot, value objects.Slot) {
	*target = value
	h.Check(target, lock)
}
