package interp

import "github.com/corda/gojvm/internal/machine"

func fetchU8(t *machine.Thread) uint8 {
	b := t.Code.Body[t.IP]
	t.IP++
	return b
}

func fetchS8(t *machine.Thread) int8 { return int8(fetchU8(t)) }

func fetchU16(t *machine.Thread) int {
	hi := fetchU8(t)
	lo := fetchU8(t)
	return int(hi)<<8 | int(lo)
}

// fetchS16 reads a signed 16-bit branch offset, the JVM's `if`/`goto`
// operand. Reading the two bytes as signed gets backward branches right
// without relying on unsigned wraparound arithmetic.
func fetchS16(t *machine.Thread) int16 {
	return int16(fetchU16(t))
}

func fetchS32(t *machine.Thread) int32 {
	b0 := fetchU8(t)
	b1 := fetchU8(t)
	b2 := fetchU8(t)
	b3 := fetchU8(t)
	return int32(uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3))
}
