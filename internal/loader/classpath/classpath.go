// Package classpath implements classfile.ClassFinder over an ordered
// list of filesystem roots, each holding ".class"-equivalent files laid
// out by slashed class name.
package classpath

import (
	"os"
	"path/filepath"
	"strings"
)

// Finder reads <root>/<slashed-name>.class for the first root that has it.
// Roots are searched in order, first match wins — the conventional
// classpath precedence rule.
type Finder struct {
	roots []string
}

// New builds a Finder over roots, in search order.
func New(roots ...string) *Finder {
	return &Finder{roots: roots}
}

// AddRoot appends a classpath root, searched after every root already
// present.
func (f *Finder) AddRoot(root string) {
	f.roots = append(f.roots, root)
}

func (f *Finder) Find(name string) ([]byte, bool) {
	rel := strings.ReplaceAll(name, ".", "/") + ".class"
	for _, root := range f.roots {
		data, err := os.ReadFile(filepath.Join(root, rel))
		if err == nil {
			return data, true
		}
	}
	return nil, false
}
