package objects

// Access flags, a narrow subset of the JVM's ACC_* bits — only the ones the
// interpreter actually branches on.
const (
	AccPublic    uint16 = 0x0001
	AccStatic    uint16 = 0x0008
	AccSuper     uint16 = 0x0020
	AccInterface uint16 = 0x0200
	AccAbstract  uint16 = 0x0400
)

// classIDSeq hands out monotonically increasing class/interface ids so that
// InstanceOf and isSuperclass reduce to an integer compare instead of a
// pointer walk through a possibly self-referential super chain.
var classIDSeq int32
var interfaceIDSeq int32

func nextClassID() int32 {
	classIDSeq++
	return classIDSeq
}

func nextInterfaceID() int32 {
	interfaceIDSeq++
	return interfaceIDSeq
}

// InterfaceEntry pairs an interface with the itable slice a class uses to
// dispatch invokeinterface call sites: ITable[method.Offset] is the
// implementing method for methods declared on Iface.
type InterfaceEntry struct {
	Iface  *Class // nil until resolved against Name
	Name   []byte // unresolved interface name; read by the resolver
	ITable []*Method
}

// Class is the runtime representation of a loaded class or interface. Super
// starts out either nil (Object has no super) or an unresolved name; the
// resolver overwrites it with a *Class on first touch and that replacement
// is never undone (see resolve.ResolveSuper).
type Class struct {
	Name  []byte
	Super any // nil, []byte (unresolved name), or *Class
	Flags uint16
	ID    int32

	// IfaceID is only meaningful when Flags&AccInterface != 0.
	IfaceID int32

	Interfaces []InterfaceEntry
	Methods    []*Method
	Fields     []*Field
	StaticSlot []Slot

	// InitChain holds the class's own <clinit>/static-initializer methods
	// that have not yet run, head first. The interpreter drains it one
	// entry at a time via PopInitializer, interleaved with the bytecode
	// that provoked the class touch (see the getstatic/putstatic/new
	// rewind-ip pattern in package interp).
	InitChain []*Method

	FixedSize int // slot count of a plain instance, header excluded
}

// NewClass allocates a Class with a freshly assigned id. super may be nil,
// an unresolved name ([]byte), or an already-resolved *Class.
func NewClass(name []byte, super any, flags uint16) *Class {
	c := &Class{Name: name, Super: super, Flags: flags, ID: nextClassID()}
	if flags&AccInterface != 0 {
		c.IfaceID = nextInterfaceID()
	}
	return c
}

// SuperClass returns the resolved super, or nil if Super is nil or still an
// unresolved name. Callers that need to trigger resolution go through
// package resolve instead.
func (c *Class) SuperClass() *Class {
	if sc, ok := c.Super.(*Class); ok {
		return sc
	}
	return nil
}

// PopInitializer removes and returns the head of InitChain, or nil if the
// chain is already drained.
func (c *Class) PopInitializer() *Method {
	if len(c.InitChain) == 0 {
		return nil
	}
	m := c.InitChain[0]
	c.InitChain = c.InitChain[1:]
	return m
}

// Method is an entry in a class's ordered method table. Offset is the
// method's index within that table (and, for interface methods, within
// every itable row built against that interface) — dispatch looks it up by
// offset, never by name, once resolution has found the declared method.
type Method struct {
	Owner  *Class
	Name   []byte
	Spec   []byte
	Offset int

	// ParameterCount is the method's own declared argument count and
	// never includes the implicit receiver — invokestatic consumes
	// exactly ParameterCount stack slots, while invokespecial/
	// invokevirtual/invokeinterface consume ParameterCount+1 (receiver
	// plus declared args) and place the receiver in locals[0].
	ParameterCount int
	Flags          uint16
	Code           *Code
}

func (m *Method) IsStatic() bool { return m.Flags&AccStatic != 0 }

// Field is an entry in a class's field or static table. Offset indexes
// Header.Slots for instance fields, or Class.StaticSlot for static ones.
type Field struct {
	Owner  *Class
	Name   []byte
	Spec   []byte
	Offset int
	Flags  uint16
}

func (f *Field) IsStatic() bool { return f.Flags&AccStatic != 0 }

// ExceptionHandler is one row of a Code's exception table. CatchPool == 0
// means "any"; otherwise it is a constant-pool index that resolves
// (lazily, like every other pool entry) to the catch class.
type ExceptionHandler struct {
	StartIP, EndIP, HandlerIP int
	CatchPool                 int
}

// Code is a method body: raw bytecode, its constant pool, and the sizing
// and handler metadata the interpreter needs to run it.
type Code struct {
	Body      []byte
	Pool      []PoolEntry
	MaxStack  int
	MaxLocals int
	Handlers  []ExceptionHandler
}

// InstanceOf implements the instanceof/checkcast test: for an interface
// target, scan every ancestor's itable for a matching interface id; for a
// class target, walk the super chain comparing class ids.
func InstanceOf(class *Class, o *Header) bool {
	if o == nil {
		return false
	}
	if class.Flags&AccInterface != 0 {
		for oc := o.Class; oc != nil; oc = oc.SuperClass() {
			for _, ie := range oc.Interfaces {
				if ie.Iface != nil && ie.Iface.IfaceID == class.IfaceID {
					return true
				}
			}
		}
		return false
	}
	for oc := o.Class; oc != nil; oc = oc.SuperClass() {
		if oc.ID == class.ID {
			return true
		}
	}
	return false
}

// IsSuperclass reports whether class is a strict ancestor of base, by id —
// used by isSpecialMethod to decide invokespecial's super-dispatch rule.
func IsSuperclass(class, base *Class) bool {
	for oc := base.SuperClass(); oc != nil; oc = oc.SuperClass() {
		if oc.ID == class.ID {
			return true
		}
	}
	return false
}

// FindMethod returns class's method table entry at the same offset as
// method — the table-indexed dispatch step invokevirtual and invokespecial
// (super calls) rely on once resolution has located the declared method.
// invokeinterface uses FindInterfaceMethod instead.
func FindMethod(method *Method, class *Class) *Method {
	if method.Offset < 0 || method.Offset >= len(class.Methods) {
		return nil
	}
	return class.Methods[method.Offset]
}

// FindInterfaceMethod scans receiverClass's itable for the row matching
// method's declaring interface and returns the slot at method.Offset.
func FindInterfaceMethod(method *Method, receiverClass *Class) *Method {
	id := method.Owner.IfaceID
	for _, ie := range receiverClass.Interfaces {
		if ie.Iface != nil && ie.Iface.IfaceID == id {
			if method.Offset < 0 || method.Offset >= len(ie.ITable) {
				return nil
			}
			return ie.ITable[method.Offset]
		}
	}
	return nil
}

// IsSpecialMethod reports whether an invokespecial call site must
// dispatch to the calling class's superclass instead of the named method.
func IsSpecialMethod(method *Method, class *Class) bool {
	return class.Flags&AccSuper != 0 &&
		string(method.Name) != "<init>" &&
		IsSuperclass(method.Owner, class)
}

// FindFieldInTable and FindMethodInTable perform the byte-for-byte
// (name, spec) linear scan that resolves a declared member.
func FindFieldInTable(table []*Field, name, spec []byte) *Field {
	for _, f := range table {
		if bytesEqual(f.Name, name) && bytesEqual(f.Spec, spec) {
			return f
		}
	}
	return nil
}

func FindMethodInTable(table []*Method, name, spec []byte) *Method {
	for _, m := range table {
		if bytesEqual(m.Name, name) && bytesEqual(m.Spec, spec) {
			return m
		}
	}
	return nil
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
