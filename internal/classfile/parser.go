package classfile

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/corda/gojvm/internal/objects"
)

// Parse reads one encoded class from data and returns the objects.Class
// the resolver will insert into the class table. Super is left as a []byte
// name when the encoded super name is non-empty, and every constant-pool
// cell that isn't a literal is left as an unresolved tag: resolution is
// the resolver's job, not the parser's.
func Parse(data []byte) (*objects.Class, error) {
	r := bytes.NewReader(data)

	var magic uint32
	if err := binary.Read(r, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("classfile: reading magic: %w", err)
	}
	if magic != Magic {
		return nil, fmt.Errorf("classfile: bad magic 0x%08X", magic)
	}

	var major, minor uint16
	if err := binary.Read(r, binary.BigEndian, &major); err != nil {
		return nil, fmt.Errorf("classfile: reading major version: %w", err)
	}
	if err := binary.Read(r, binary.BigEndian, &minor); err != nil {
		return nil, fmt.Errorf("classfile: reading minor version: %w", err)
	}

	name, err := readBytes16(r)
	if err != nil {
		return nil, fmt.Errorf("classfile: reading class name: %w", err)
	}

	superName, err := readBytes16(r)
	if err != nil {
		return nil, fmt.Errorf("classfile: reading super name: %w", err)
	}

	var flags uint16
	if err := binary.Read(r, binary.BigEndian, &flags); err != nil {
		return nil, fmt.Errorf("classfile: reading flags: %w", err)
	}

	var super any
	if len(superName) > 0 {
		super = superName
	}
	class := objects.NewClass(name, super, flags)

	var ifaceCount uint16
	if err := binary.Read(r, binary.BigEndian, &ifaceCount); err != nil {
		return nil, fmt.Errorf("classfile: reading interface count: %w", err)
	}
	class.Interfaces = make([]objects.InterfaceEntry, ifaceCount)
	for i := range class.Interfaces {
		ifName, err := readBytes16(r)
		if err != nil {
			return nil, fmt.Errorf("classfile: reading interface %d: %w", i, err)
		}
		class.Interfaces[i] = objects.InterfaceEntry{Name: ifName}
	}

	fieldCount, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("classfile: reading field count: %w", err)
	}
	class.Fields = make([]*objects.Field, fieldCount)
	offset := 0
	for i := range class.Fields {
		f, err := parseField(r, class)
		if err != nil {
			return nil, fmt.Errorf("classfile: reading field %d: %w", i, err)
		}
		if f.Flags&objects.AccStatic == 0 {
			f.Offset = offset
			offset++
		}
		class.Fields[i] = f
	}
	class.FixedSize = offset
	assignStaticOffsets(class)

	methodCount, err := readU16(r)
	if err != nil {
		return nil, fmt.Errorf("classfile: reading method count: %w", err)
	}
	class.Methods = make([]*objects.Method, methodCount)
	for i := range class.Methods {
		m, err := parseMethod(r, class, i)
		if err != nil {
			return nil, fmt.Errorf("classfile: reading method %d: %w", i, err)
		}
		class.Methods[i] = m
		if m.IsStatic() && string(m.Name) == "<clinit>" {
			class.InitChain = append(class.InitChain, m)
		}
	}

	return class, nil
}

func assignStaticOffsets(class *objects.Class) {
	n := 0
	for _, f := range class.Fields {
		if f.Flags&objects.AccStatic != 0 {
			f.Offset = n
			n++
		}
	}
	class.StaticSlot = make([]objects.Slot, n)
}

func parseField(r io.Reader, owner *objects.Class) (*objects.Field, error) {
	name, err := readBytes16(r)
	if err != nil {
		return nil, err
	}
	spec, err := readBytes16(r)
	if err != nil {
		return nil, err
	}
	flags, err := readU16(r)
	if err != nil {
		return nil, err
	}
	return &objects.Field{Owner: owner, Name: name, Spec: spec, Flags: flags}, nil
}

func parseMethod(r io.Reader, owner *objects.Class, offset int) (*objects.Method, error) {
	name, err := readBytes16(r)
	if err != nil {
		return nil, err
	}
	spec, err := readBytes16(r)
	if err != nil {
		return nil, err
	}
	flags, err := readU16(r)
	if err != nil {
		return nil, err
	}
	paramCount, err := readU16(r)
	if err != nil {
		return nil, err
	}

	var hasCode uint8
	if err := binary.Read(r, binary.BigEndian, &hasCode); err != nil {
		return nil, err
	}

	m := &objects.Method{
		Owner:          owner,
		Name:           name,
		Spec:           spec,
		Offset:         offset,
		Flags:          flags,
		ParameterCount: int(paramCount),
	}

	if hasCode != 0 {
		code, err := parseCode(r)
		if err != nil {
			return nil, err
		}
		m.Code = code
	}

	return m, nil
}

func parseCode(r io.Reader) (*objects.Code, error) {
	maxStack, err := readU16(r)
	if err != nil {
		return nil, err
	}
	maxLocals, err := readU16(r)
	if err != nil {
		return nil, err
	}

	var bodyLen uint32
	if err := binary.Read(r, binary.BigEndian, &bodyLen); err != nil {
		return nil, err
	}
	body := make([]byte, bodyLen)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, err
	}

	poolCount, err := readU16(r)
	if err != nil {
		return nil, err
	}
	pool := make([]objects.PoolEntry, poolCount)
	for i := range pool {
		entry, err := parsePoolEntry(r)
		if err != nil {
			return nil, fmt.Errorf("pool entry %d: %w", i, err)
		}
		pool[i] = entry
	}

	handlerCount, err := readU16(r)
	if err != nil {
		return nil, err
	}
	handlers := make([]objects.ExceptionHandler, handlerCount)
	for i := range handlers {
		var startIP, endIP, handlerIP, catchPool uint16
		for _, v := range []*uint16{&startIP, &endIP, &handlerIP, &catchPool} {
			if err := binary.Read(r, binary.BigEndian, v); err != nil {
				return nil, err
			}
		}
		handlers[i] = objects.ExceptionHandler{
			StartIP:   int(startIP),
			EndIP:     int(endIP),
			HandlerIP: int(handlerIP),
			CatchPool: int(catchPool),
		}
	}

	return &objects.Code{
		Body:      body,
		Pool:      pool,
		MaxStack:  int(maxStack),
		MaxLocals: int(maxLocals),
		Handlers:  handlers,
	}, nil
}

func parsePoolEntry(r io.Reader) (objects.PoolEntry, error) {
	var tag uint8
	if err := binary.Read(r, binary.BigEndian, &tag); err != nil {
		return objects.PoolEntry{}, err
	}
	switch tag {
	case tagUnresolvedClass:
		name, err := readBytes16(r)
		if err != nil {
			return objects.PoolEntry{}, err
		}
		return objects.PoolEntry{Tag: objects.PoolUnresolvedClass, ClassName: name}, nil
	case tagUnresolvedRef:
		className, err := readBytes16(r)
		if err != nil {
			return objects.PoolEntry{}, err
		}
		memberName, err := readBytes16(r)
		if err != nil {
			return objects.PoolEntry{}, err
		}
		memberSpec, err := readBytes16(r)
		if err != nil {
			return objects.PoolEntry{}, err
		}
		return objects.PoolEntry{
			Tag:        objects.PoolUnresolvedRef,
			ClassName:  className,
			MemberName: memberName,
			MemberSpec: memberSpec,
		}, nil
	case tagInt:
		var v int32
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return objects.PoolEntry{}, err
		}
		return objects.PoolEntry{Tag: objects.PoolInt, I64: int64(v)}, nil
	case tagLong:
		var v int64
		if err := binary.Read(r, binary.BigEndian, &v); err != nil {
			return objects.PoolEntry{}, err
		}
		return objects.PoolEntry{Tag: objects.PoolLong, I64: v}, nil
	case tagString:
		b, err := readBytes16(r)
		if err != nil {
			return objects.PoolEntry{}, err
		}
		return objects.PoolEntry{Tag: objects.PoolString, Bytes: b}, nil
	default:
		return objects.PoolEntry{}, fmt.Errorf("unknown pool tag %d", tag)
	}
}

func readU16(r io.Reader) (uint16, error) {
	var v uint16
	err := binary.Read(r, binary.BigEndian, &v)
	return v, err
}

func readBytes16(r io.Reader) ([]byte, error) {
	n, err := readU16(r)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return b, nil
}
