package machine

import (
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/objects"
)

// Thread is one execution context: the interpreter's live registers
// (IP, SP, Code, Frame, Exception), its operand stack, its bump-allocation
// arena, and the bookkeeping the state coordinator needs. Stack and arena
// capacity are configured per machine (see internal/pkg's vm.toml
// arena/stack settings) rather than compiled in.
type Thread struct {
	VM    *Machine
	Next  *Thread
	Child *Thread

	State State

	// ThreadObj is the VM-visible thread object exposed to running code;
	// it is a GC root like everything else reachable from this Thread.
	// Stored as a Slot, not a bare *Header, so the collector can visit its
	// address uniformly with every other root.
	ThreadObj objects.Slot

	Frame     *objects.Frame
	Code      *objects.Code
	Exception objects.Slot

	IP int
	SP int

	Stack []objects.Slot
	Arena *heap.Arena

	Protector heap.Protector

	// DefaultHandler is the method the unwind path dispatches to
	// when no frame's handler table catches the pending exception.
	DefaultHandler *objects.Method

	// Finished and Returned hold the outcome once the outermost frame
	// returns.
	Finished bool
	Returned objects.Slot
}

// NewThread allocates a Thread with the given stack and arena capacity.
// It starts in NoState and must be registered with a Machine and Entered
// into Active before it can run.
func NewThread(stackSize, arenaSize int) *Thread {
	return &Thread{
		State:     NoState,
		Stack:     make([]objects.Slot, stackSize),
		Arena:     heap.NewArena(arenaSize),
		ThreadObj: objects.NullSlot(),
		Exception: objects.NullSlot(),
	}
}

func (t *Thread) Push(s objects.Slot) {
	t.Stack[t.SP] = s
	t.SP++
}

func (t *Thread) Pop() objects.Slot {
	t.SP--
	return t.Stack[t.SP]
}

func (t *Thread) Top() objects.Slot {
	return t.Stack[t.SP-1]
}
