package resolve

import (
	"github.com/corda/gojvm/internal/classfile"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
)

// Class returns the named class, loading and parsing it through the
// machine's ClassFinder on first touch. The whole step (class table probe,
// finder lookup, parse, insert) runs under ClassLock, so two threads never
// load the same class twice.
func Class(m *machine.Machine, name []byte) (*objects.Class, error) {
	key := string(name)

	m.ClassLock.Acquire()
	defer m.ClassLock.Release()
	if c, ok := m.ClassMap[key]; ok {
		return c, nil
	}

	data, ok := m.Finder.Find(key)
	if !ok {
		return nil, &ClassNotFoundError{Name: key}
	}

	parsed, err := classfile.Parse(data)
	if err != nil {
		return nil, &MalformedClassError{Name: key, Err: err}
	}

	m.ClassMap[key] = parsed
	return parsed, nil
}

// ResolveSuper rewrites class.Super from an unresolved name to a *Class,
// recursively resolving the whole super chain. Classes with no declared
// super (only java/lang/Object in practice) leave Super nil.
func ResolveSuper(m *machine.Machine, class *objects.Class) error {
	name, ok := class.Super.([]byte)
	if !ok {
		return nil
	}
	super, err := Class(m, name)
	if err != nil {
		return err
	}
	class.Super = super
	return ResolveSuper(m, super)
}

// ResolveInterfaces resolves every InterfaceEntry.Name this class declares
// and builds its itable, resolving each interface's own super chain and
// itables first so a multiply-implemented interface is only ever resolved
// once per class.
func ResolveInterfaces(m *machine.Machine, class *objects.Class) error {
	for i := range class.Interfaces {
		ie := &class.Interfaces[i]
		if ie.Iface != nil {
			continue
		}
		iface, err := Class(m, ie.Name)
		if err != nil {
			return err
		}
		if err := ResolveSuper(m, iface); err != nil {
			return err
		}
		if err := ResolveInterfaces(m, iface); err != nil {
			return err
		}
		ie.Iface = iface
		ie.ITable = buildITable(iface, class)
	}
	return nil
}

// buildITable produces the per-interface dispatch row invokeinterface
// uses: ITable[method.Offset] is whichever concrete method on impl (or an
// ancestor of impl) matches that interface method's (name, spec).
func buildITable(iface *objects.Class, impl *objects.Class) []*objects.Method {
	table := make([]*objects.Method, len(iface.Methods))
	for i, im := range iface.Methods {
		table[i] = findMethodUpChain(impl, im.Name, im.Spec)
	}
	return table
}

func findMethodUpChain(class *objects.Class, name, spec []byte) *objects.Method {
	for c := class; c != nil; c = c.SuperClass() {
		if found := objects.FindMethodInTable(c.Methods, name, spec); found != nil {
			return found
		}
	}
	return nil
}

// Field walks class's super chain for a declared (name, spec) field.
func Field(class *objects.Class, name, spec []byte) (*objects.Field, error) {
	for c := class; c != nil; c = c.SuperClass() {
		if f := objects.FindFieldInTable(c.Fields, name, spec); f != nil {
			return f, nil
		}
	}
	return nil, &NoSuchFieldError{Class: string(class.Name), Name: string(name), Spec: string(spec)}
}

// Method walks class's super chain for a declared (name, spec) method.
func Method(class *objects.Class, name, spec []byte) (*objects.Method, error) {
	if m := findMethodUpChain(class, name, spec); m != nil {
		return m, nil
	}
	return nil, &NoSuchMethodError{Class: string(class.Name), Name: string(name), Spec: string(spec)}
}
