// Command gojvm is a thin harness that loads a class from a classpath,
// resolves its main method, and runs it to completion. It exists only to
// drive the interpreter end to end; there is no compiler front end in
// this repository, so every class it runs must already be assembled
// (see internal/classfile.Builder).
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	goerrors "github.com/corda/gojvm/internal/errors"
	"github.com/corda/gojvm/internal/heap"
	"github.com/corda/gojvm/internal/interp"
	"github.com/corda/gojvm/internal/loader"
	"github.com/corda/gojvm/internal/loader/classpath"
	"github.com/corda/gojvm/internal/machine"
	"github.com/corda/gojvm/internal/objects"
	"github.com/corda/gojvm/internal/pkg"
	"github.com/corda/gojvm/internal/resolve"
	"github.com/corda/gojvm/internal/sysabi"
)

var (
	configPath = flag.String("config", "", "path to vm.toml (default: search upward from cwd)")
	cp         = flag.String("cp", "", "colon-separated classpath roots, appended after vm.toml's")
	mainSpec   = flag.String("main", "main()I", "entry method name+descriptor to run")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("gojvm - a stack-based bytecode VM")
		fmt.Println()
		fmt.Println("Usage: gojvm [options] <main-class>")
		fmt.Println()
		flag.PrintDefaults()
		os.Exit(0)
	}

	cfg := loadConfig()
	finder := classpath.New(cfg.Classpath...)
	for _, root := range splitNonEmpty(*cp, ":") {
		finder.AddRoot(root)
	}

	sys := sysabi.NewDefault()
	m := machine.New(sys, heap.NewDefault(), finder)
	ip := interp.New(m)

	className := flag.Arg(0)
	class, err := resolve.Class(m, []byte(className))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", goerrors.Red("gojvm:"), err)
		os.Exit(1)
	}

	name, spec := splitMethodSpec(*mainSpec)
	method := objects.FindMethodInTable(class.Methods, []byte(name), []byte(spec))
	if method == nil {
		fmt.Fprintf(os.Stderr, "%s no %s%s on %s\n", goerrors.Red("gojvm:"), name, spec, className)
		os.Exit(1)
	}

	th := ip.NewThread(cfg.VM.StackSize, cfg.VM.ArenaSize)
	m.Register(th, nil)
	machine.Enter(th, machine.Active)
	interp.Start(th, method)

	result, err := ip.Run(th)
	machine.Enter(th, machine.Exit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", goerrors.Red("gojvm:"), err)
		os.Exit(1)
	}

	fmt.Println(result.I64)
}

func loadConfig() *pkg.Config {
	path := *configPath
	if path == "" {
		path = loader.FindConfigFile(".")
	}
	if path == "" {
		return pkg.Default()
	}
	cfg, err := pkg.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", goerrors.Yellow("gojvm: warning:"), err)
		return pkg.Default()
	}
	return cfg
}

func splitMethodSpec(s string) (name, spec string) {
	i := strings.IndexByte(s, '(')
	if i < 0 {
		return s, "()V"
	}
	return s[:i], s[i:]
}

func splitNonEmpty(s, sep string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, sep)
}
