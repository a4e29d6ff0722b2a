package classfile

import (
	"bytes"
	"encoding/binary"

	"github.com/corda/gojvm/internal/objects"
)

// Builder assembles the wire format Parse consumes. There is no compiler
// front end in this repository, so hand-assembling bytecode through a
// Builder is the only way to produce a class file short of loading one
// from disk.
type Builder struct {
	name, super []byte
	flags       uint16
	interfaces  [][]byte
	fields      []fieldSpec
	methods     []methodSpec
}

type fieldSpec struct {
	name, spec []byte
	flags      uint16
}

type methodSpec struct {
	name, spec          []byte
	flags               uint16
	paramCount          int
	maxStack, maxLocals int
	body                []byte
	pool                []objects.PoolEntry
	handlers            []objects.ExceptionHandler
}

func NewBuilder(name, super []byte, flags uint16) *Builder {
	return &Builder{name: name, super: super, flags: flags}
}

func (b *Builder) AddInterface(name []byte) { b.interfaces = append(b.interfaces, name) }

func (b *Builder) AddField(name, spec []byte, flags uint16) {
	b.fields = append(b.fields, fieldSpec{name: name, spec: spec, flags: flags})
}

// AddMethod adds a method without a body (e.g. an abstract or interface
// method declaration).
func (b *Builder) AddMethod(name, spec []byte, flags uint16, paramCount int) {
	b.methods = append(b.methods, methodSpec{name: name, spec: spec, flags: flags, paramCount: paramCount})
}

// AddCodeMethod adds a method with a body.
func (b *Builder) AddCodeMethod(name, spec []byte, flags uint16, paramCount, maxStack, maxLocals int, body []byte, pool []objects.PoolEntry, handlers []objects.ExceptionHandler) {
	b.methods = append(b.methods, methodSpec{
		name: name, spec: spec, flags: flags, paramCount: paramCount,
		maxStack: maxStack, maxLocals: maxLocals, body: body, pool: pool, handlers: handlers,
	})
}

func (b *Builder) Encode() []byte {
	var buf bytes.Buffer
	w := &buf

	binary.Write(w, binary.BigEndian, Magic)
	binary.Write(w, binary.BigEndian, MajorVersion)
	binary.Write(w, binary.BigEndian, MinorVersion)

	writeBytes16(w, b.name)
	writeBytes16(w, b.super)
	binary.Write(w, binary.BigEndian, b.flags)

	binary.Write(w, binary.BigEndian, uint16(len(b.interfaces)))
	for _, ifn := range b.interfaces {
		writeBytes16(w, ifn)
	}

	binary.Write(w, binary.BigEndian, uint16(len(b.fields)))
	for _, f := range b.fields {
		writeBytes16(w, f.name)
		writeBytes16(w, f.spec)
		binary.Write(w, binary.BigEndian, f.flags)
	}

	binary.Write(w, binary.BigEndian, uint16(len(b.methods)))
	for _, m := range b.methods {
		writeBytes16(w, m.name)
		writeBytes16(w, m.spec)
		binary.Write(w, binary.BigEndian, m.flags)
		binary.Write(w, binary.BigEndian, uint16(m.paramCount))
		if m.body == nil {
			binary.Write(w, binary.BigEndian, uint8(0))
			continue
		}
		binary.Write(w, binary.BigEndian, uint8(1))
		binary.Write(w, binary.BigEndian, uint16(m.maxStack))
		binary.Write(w, binary.BigEndian, uint16(m.maxLocals))
		binary.Write(w, binary.BigEndian, uint32(len(m.body)))
		w.Write(m.body)
		binary.Write(w, binary.BigEndian, uint16(len(m.pool)))
		for _, e := range m.pool {
			writePoolEntry(w, e)
		}
		binary.Write(w, binary.BigEndian, uint16(len(m.handlers)))
		for _, h := range m.handlers {
			binary.Write(w, binary.BigEndian, uint16(h.StartIP))
			binary.Write(w, binary.BigEndian, uint16(h.EndIP))
			binary.Write(w, binary.BigEndian, uint16(h.HandlerIP))
			binary.Write(w, binary.BigEndian, uint16(h.CatchPool))
		}
	}

	return buf.Bytes()
}

func writePoolEntry(w *bytes.Buffer, e objects.PoolEntry) {
	switch e.Tag {
	case objects.PoolUnresolvedClass:
		binary.Write(w, binary.BigEndian, tagUnresolvedClass)
		writeBytes16(w, e.ClassName)
	case objects.PoolUnresolvedRef:
		binary.Write(w, binary.BigEndian, tagUnresolvedRef)
		writeBytes16(w, e.ClassName)
		writeBytes16(w, e.MemberName)
		writeBytes16(w, e.MemberSpec)
	case objects.PoolInt:
		binary.Write(w, binary.BigEndian, tagInt)
		binary.Write(w, binary.BigEndian, int32(e.I64))
	case objects.PoolLong:
		binary.Write(w, binary.BigEndian, tagLong)
		binary.Write(w, binary.BigEndian, e.I64)
	case objects.PoolString:
		binary.Write(w, binary.BigEndian, tagString)
		writeBytes16(w, e.Bytes)
	default:
		panic("classfile: cannot encode an already-resolved pool entry")
	}
}

func writeBytes16(w *bytes.Buffer, b []byte) {
	binary.Write(w, binary.BigEndian, uint16(len(b)))
	w.Write(b)
}
