package heap

import "github.com/corda/gojvm/internal/objects"

// Protector is a per-thread LIFO stack of slot addresses a helper function
// has registered as roots for its extent — used when a helper
// composes several allocating operations and needs its own locals to
// survive a collection triggered by one of the later ones.
//
// Acquisition and release are strictly scoped: Release always pops the
// most recently pushed entry.
type Protector struct {
	stack []*objects.Slot
}

// Acquire registers slot as a root and returns a token Release needs.
func (p *Protector) Acquire(slot *objects.Slot) int {
	p.stack = append(p.stack, slot)
	return len(p.stack) - 1
}

// Release pops back to token, asserting the caller released in the same
// order it acquired.
func (p *Protector) Release(token int) {
	if token != len(p.stack)-1 {
		panic("heap: protector released out of order")
	}
	p.stack = p.stack[:token]
}

// Iterate visits every currently-registered slot, outermost first — part
// of the per-thread root set.
func (p *Protector) Iterate(v Visitor) {
	for _, s := range p.stack {
		v.Visit(s)
	}
}

// Len reports how many protectors are currently live.
func (p *Protector) Len() int { return len(p.stack) }
