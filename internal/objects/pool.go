package objects

// PoolTag discriminates a constant-pool cell's current shape. A class or
// member-reference cell starts life as one of the Unresolved* tags and is
// rewritten, exactly once, to the matching resolved tag the first time an
// opcode touches it; literal cells (PoolInt, PoolLong, PoolString) hold
// their value from the start. Once
// resolved a cell is never un-resolved — the interpreter never needs to
// re-check the tag on a second visit to the same cell.
type PoolTag byte

const (
	PoolUnresolvedClass PoolTag = iota // ClassName holds the unresolved byte-array
	PoolUnresolvedRef                  // ClassName/MemberName/MemberSpec triple
	PoolClass                          // Class holds the resolved class
	PoolField                          // Field holds the resolved field
	PoolMethod                         // Method holds the resolved method
	PoolInt                            // I64 holds a 32-bit int constant (ldc)
	PoolLong                           // I64 holds a 64-bit long constant (ldc2_w)
	PoolString                         // Bytes holds a string literal's bytes (ldc)
)

// PoolEntry is one constant-pool cell. Only the fields matching Tag are
// meaningful; the rest are zero.
type PoolEntry struct {
	Tag PoolTag

	ClassName  []byte
	MemberName []byte
	MemberSpec []byte

	Class  *Class
	Field  *Field
	Method *Method

	I64   int64
	Bytes []byte
}

func (e *PoolEntry) IsResolved() bool {
	switch e.Tag {
	case PoolClass, PoolField, PoolMethod, PoolInt, PoolLong, PoolString:
		return true
	default:
		return false
	}
}
