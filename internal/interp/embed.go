package interp

import (
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/loader/memory"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/pkg"
	"github.com/corda/gojvm/internal/resolve"
	"github.com/corda/gojvm/internal/sysabi"
)

// RunBytes is the embeddable entrypoint: it stands up a machine over an
// in-memory class map, resolves mainClass's (methodName, methodSpec)
// entry method, and runs it on a fresh thread to completion. Callers that
// need more control (classpath loading, multiple threads, a shared
// machine) wire the pieces themselves the way cmd/gojvm does.
func RunBytes(classes map[string][]byte, mainClass, methodName, methodSpec string) (objects.Slot, error) {
	finder := memory.New()
	for name, data := range classes {
		finder.Put(name, data)
	}

	m := machine.New(sysabi.NewDefault(), heap.NewDefault(), finder)
	defer m.Dispose()
	ip := New(m)

	class, err := resolve.Class(m, []byte(mainClass))
	if err != nil {
		return objects.Slot{}, err
	}
	method := objects.FindMethodInTable(class.Methods, []byte(methodName), []byte(methodSpec))
	if method == nil {
		return objects.Slot{}, &resolve.NoSuchMethodError{Class: mainClass, Name: methodName, Spec: methodSpec}
	}

	cfg := pkg.Default()
	t := ip.NewThread(cfg.VM.StackSize, cfg.VM.ArenaSize)
	m.Register(t, nil)
	machine.Enter(t, machine.Active)
	Start(t, method)

	result, err := ip.Run(t)
	machine.Enter(t, machine.Zombie)
	return result, err
}
