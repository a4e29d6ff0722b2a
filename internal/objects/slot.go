// Package objects defines the in-heap representation shared by the resolver,
// the interpreter and the collector: object headers, slots and the class
// metadata a header's first slot points at.
package objects

// Kind tags what a Slot currently holds. Arrays of a primitive kind store
// their elements unboxed (as Int64 reinterpreted to the right width); arrays
// of Ref kind store object references.
type Kind byte

const (
	KindVoid Kind = iota
	KindInt
	KindLong
	KindFloat
	KindDouble
	KindRef
)

// Slot is a single stack/local/field cell. Reference-carrying slots are the
// GC's unit of relocation: a collector visits a *Slot, not a Ref, so it can
// rewrite Ref in place when it moves the object.
type Slot struct {
	Kind Kind
	I64  int64 // ints, longs, and the bit pattern of floats/doubles
	Ref  *Header
}

func IntSlot(v int32) Slot   { return Slot{Kind: KindInt, I64: int64(v)} }
func LongSlot(v int64) Slot  { return Slot{Kind: KindLong, I64: v} }
func RefSlot(r *Header) Slot { return Slot{Kind: KindRef, Ref: r} }
func NullSlot() Slot         { return Slot{Kind: KindRef, Ref: nil} }

func (s Slot) IsNull() bool { return s.Kind == KindRef && s.Ref == nil }

// Header is the first slot of every heap object: [class][field0]...[fieldn]
// for plain instances, [class][length][elem0]... for arrays. Arrays carry
// their element kind separately since a *Class does not exist for primitive
// array element types.
type Header struct {
	Class   *Class
	IsArray bool
	ElemK   Kind // valid only when IsArray
	Slots   []Slot
}

func (h *Header) Length() int {
	if !h.IsArray {
		return 0
	}
	return len(h.Slots)
}

// ArrayTypeTag mirrors newarray's atype operand space, used by the
// interpreter when allocating primitive arrays.
type ArrayTypeTag byte

const (
	TagBoolean ArrayTypeTag = 4
	TagChar    ArrayTypeTag = 5
	TagFloat   ArrayTypeTag = 6
	TagDouble  ArrayTypeTag = 7
	TagByte    ArrayTypeTag = 8
	TagShort   ArrayTypeTag = 9
	TagInt     ArrayTypeTag = 10
	TagLong    ArrayTypeTag = 11
)

func (t ArrayTypeTag) ElemKind() Kind {
	switch t {
	case TagFloat:
		return KindFloat
	case TagDouble:
		return KindDouble
	case TagLong:
		return KindLong
	default:
		return KindInt
	}
}
