package resolve

import (
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
)

// PoolClass resolves pool[index] as a class reference, rewriting the
// cell in place exactly once. Later visits to the same index find
// entry.Tag already PoolClass and skip straight to entry.Class.
func PoolClass(m *machine.Machine, pool []objects.PoolEntry, index int) (*objects.Class, error) {
	entry := &pool[index]
	if entry.Tag == objects.PoolClass {
		return entry.Class, nil
	}
	c, err := Class(m, entry.ClassName)
	if err != nil {
		return nil, err
	}
	if err := ResolveSuper(m, c); err != nil {
		return nil, err
	}
	if err := ResolveInterfaces(m, c); err != nil {
		return nil, err
	}
	entry.Class = c
	entry.Tag = objects.PoolClass
	return c, nil
}

// PoolField resolves pool[index] as a field reference: first the owning
// class from the reference triple's ClassName, then the field itself by
// (MemberName, MemberSpec) up that class's super chain.
func PoolField(m *machine.Machine, pool []objects.PoolEntry, index int) (*objects.Field, error) {
	entry := &pool[index]
	if entry.Tag == objects.PoolField {
		return entry.Field, nil
	}
	class, err := Class(m, entry.ClassName)
	if err != nil {
		return nil, err
	}
	if err := ResolveSuper(m, class); err != nil {
		return nil, err
	}
	f, err := Field(class, entry.MemberName, entry.MemberSpec)
	if err != nil {
		return nil, err
	}
	entry.Field = f
	entry.Tag = objects.PoolField
	return f, nil
}

// PoolMethod resolves pool[index] as a method reference the same way
// PoolField resolves a field one.
func PoolMethod(m *machine.Machine, pool []objects.PoolEntry, index int) (*objects.Method, error) {
	entry := &pool[index]
	if entry.Tag == objects.PoolMethod {
		return entry.Method, nil
	}
	class, err := Class(m, entry.ClassName)
	if err != nil {
		return nil, err
	}
	if err := ResolveSuper(m, class); err != nil {
		return nil, err
	}
	method, err := Method(class, entry.MemberName, entry.MemberSpec)
	if err != nil {
		return nil, err
	}
	entry.Method = method
	entry.Tag = objects.PoolMethod
	return method, nil
}
