package resolve

import (
	"testing"

	"github.com/corda/gojvm/internal/classfile"
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/loader/memory"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/sysabi"
)

func newTestMachine(t *testing.T) (*machine.Machine, *memory.Finder) {
	t.Helper()
	finder := memory.New()
	m := machine.New(sysabi.NewDefault(), heap.NewDefault(), finder)
	return m, finder
}

func putClass(finder *memory.Finder, b *classfile.Builder) {
	buf := b.Encode()
	// The name round-trips through Parse, so re-parse just to read it back
	// for the map key instead of threading the name separately.
	c, err := classfile.Parse(buf)
	if err != nil {
		panic(err)
	}
	finder.Put(string(c.Name), buf)
}

func TestResolveClassNotFound(t *testing.T) {
	m, _ := newTestMachine(t)
	_, err := Class(m, []byte("does/not/Exist"))
	if err == nil {
		t.Fatal("expected ClassNotFoundError")
	}
	if _, ok := err.(*ClassNotFoundError); !ok {
		t.Fatalf("expected *ClassNotFoundError, got %T: %v", err, err)
	}
}

func TestResolveClassCaches(t *testing.T) {
	m, finder := newTestMachine(t)
	b := classfile.NewBuilder([]byte("Foo"), []byte("java/lang/Object"), objects.AccPublic)
	putClass(finder, b)

	c1, err := Class(m, []byte("Foo"))
	if err != nil {
		t.Fatal(err)
	}
	c2, err := Class(m, []byte("Foo"))
	if err != nil {
		t.Fatal(err)
	}
	if c1 != c2 {
		t.Fatal("expected the second Class call to return the cached instance")
	}
}

func TestResolveSuperChain(t *testing.T) {
	m, finder := newTestMachine(t)
	putClass(finder, classfile.NewBuilder([]byte("java/lang/Object"), nil, objects.AccPublic))
	putClass(finder, classfile.NewBuilder([]byte("Base"), []byte("java/lang/Object"), objects.AccPublic))
	putClass(finder, classfile.NewBuilder([]byte("Derived"), []byte("Base"), objects.AccPublic))

	derived, err := Class(m, []byte("Derived"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ResolveSuper(m, derived); err != nil {
		t.Fatal(err)
	}

	base := derived.SuperClass()
	if base == nil || string(base.Name) != "Base" {
		t.Fatalf("expected super Base, got %v", base)
	}
	object := base.SuperClass()
	if object == nil || string(object.Name) != "java/lang/Object" {
		t.Fatalf("expected super's super java/lang/Object, got %v", object)
	}
	if object.SuperClass() != nil {
		t.Fatal("java/lang/Object must not have a super")
	}
}

func TestResolveInterfacesBuildsITable(t *testing.T) {
	m, finder := newTestMachine(t)

	iface := classfile.NewBuilder([]byte("Runnable"), nil, objects.AccInterface|objects.AccAbstract)
	iface.AddMethod([]byte("run"), []byte("()V"), objects.AccAbstract, 0)
	putClass(finder, iface)

	impl := classfile.NewBuilder([]byte("Task"), []byte("java/lang/Object"), objects.AccPublic)
	impl.AddInterface([]byte("Runnable"))
	impl.AddCodeMethod([]byte("run"), []byte("()V"), objects.AccPublic, 0, 1, 1, []byte{0xb1}, nil, nil)
	putClass(finder, impl)

	task, err := Class(m, []byte("Task"))
	if err != nil {
		t.Fatal(err)
	}
	if err := ResolveInterfaces(m, task); err != nil {
		t.Fatal(err)
	}

	if len(task.Interfaces) != 1 || task.Interfaces[0].Iface == nil {
		t.Fatalf("expected interface to be resolved, got %+v", task.Interfaces)
	}
	runMethod := task.Interfaces[0].Iface.Methods[0]
	impl2 := objects.FindInterfaceMethod(runMethod, task)
	if impl2 == nil || string(impl2.Name) != "run" {
		t.Fatalf("expected itable to resolve run to Task.run, got %v", impl2)
	}
}

func TestFieldAndMethodNoSuch(t *testing.T) {
	m, finder := newTestMachine(t)
	b := classfile.NewBuilder([]byte("Empty"), nil, objects.AccPublic)
	putClass(finder, b)
	class, err := Class(m, []byte("Empty"))
	if err != nil {
		t.Fatal(err)
	}

	if _, err := Field(class, []byte("missing"), []byte("I")); err == nil {
		t.Fatal("expected NoSuchFieldError")
	} else if _, ok := err.(*NoSuchFieldError); !ok {
		t.Fatalf("expected *NoSuchFieldError, got %T", err)
	}

	if _, err := Method(class, []byte("missing"), []byte("()V")); err == nil {
		t.Fatal("expected NoSuchMethodError")
	} else if _, ok := err.(*NoSuchMethodError); !ok {
		t.Fatalf("expected *NoSuchMethodError, got %T", err)
	}
}

func TestPoolFieldResolvesOnce(t *testing.T) {
	m, finder := newTestMachine(t)
	b := classfile.NewBuilder([]byte("Holder"), nil, objects.AccPublic)
	b.AddField([]byte("x"), []byte("I"), objects.AccPublic)
	putClass(finder, b)

	class, err := Class(m, []byte("Holder"))
	if err != nil {
		t.Fatal(err)
	}

	pool := []objects.PoolEntry{{
		Tag:        objects.PoolUnresolvedRef,
		ClassName:  []byte("Holder"),
		MemberName: []byte("x"),
		MemberSpec: []byte("I"),
	}}

	f1, err := PoolField(m, pool, 0)
	if err != nil {
		t.Fatal(err)
	}
	if f1.Owner != class {
		t.Fatal("resolved field should belong to Holder")
	}
	if pool[0].Tag != objects.PoolField {
		t.Fatalf("expected pool cell to be rewritten to PoolField, got %v", pool[0].Tag)
	}

	f2, err := PoolField(m, pool, 0)
	if err != nil {
		t.Fatal(err)
	}
	if f1 != f2 {
		t.Fatal("second resolution should return the cached field")
	}
}
