// Package stdlib provides the Lox native function registry.
package stdlib

import (
	"sort"

	"github.com/thomasrohde/golox/pkg/evaluator"
)

// Fn represents a native function.
type Fn struct {
	Name    string
	Arity   int
	Execute evaluator.NativeFunc
}

// Registry holds registered native functions.
type Registry struct {
	fns map[string]*Fn
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		fns: make(map[string]*Fn),
	}
}

// Register adds a native function to the registry.
func (r *Registry) Register(fn Fn) {
	r.fns[fn.Name] = &fn
}

// Get retrieves a native function by name.
func (r *Registry) Get(name string) *Fn {
	return r.fns[name]
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fns))
	for name := range r.fns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Natives converts the functions accepted by allow into interpreter
// values, in name order. A nil allow accepts everything.
func (r *Registry) Natives(allow func(name string) bool) []*evaluator.LoxNative {
	var out []*evaluator.LoxNative
	for _, name := range r.Names() {
		if allow != nil && !allow(name) {
			continue
		}
		fn := r.fns[name]
		out = append(out, &evaluator.LoxNative{Name: fn.Name, Params: fn.Arity, Execute: fn.Execute})
	}
	return out
}
