package registry

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Well-known names.
const (
	ClassException = "Exception"
	ClassStd       = "stdClass"
	IfaceThrowable = "Throwable"
)

// ErrRedeclared is returned when a name is declared twice.
var ErrRedeclared = errors.New("cannot redeclare")

// Registry is an immutable set of interface and class declarations.
type Registry struct {
	interfaces map[string]*InterfaceSpec
	classes    map[string]*ClassSpec
	order      []string // folded names in declaration order
}

func newRegistry() *Registry {
	return &Registry{
		interfaces: make(map[string]*InterfaceSpec),
		classes:    make(map[string]*ClassSpec),
	}
}

func fold(name string) string {
	return strings.ToLower(name)
}

func (r *Registry) declared(name string) bool {
	key := fold(name)
	_, isIface := r.interfaces[key]
	_, isClass := r.classes[key]
	return isIface || isClass
}

func (r *Registry) addInterface(spec *InterfaceSpec) error {
	if r.declared(spec.Name) {
		return fmt.Errorf("%w interface %s", ErrRedeclared, spec.Name)
	}
	key := fold(spec.Name)
	r.interfaces[key] = spec
	r.order = append(r.order, key)
	return nil
}

func (r *Registry) addClass(spec *ClassSpec) error {
	if r.declared(spec.Name) {
		return fmt.Errorf("%w class %s", ErrRedeclared, spec.Name)
	}
	key := fold(spec.Name)
	r.classes[key] = spec
	r.order = append(r.order, key)
	return nil
}

var builtins = sync.OnceValues(func() (*Registry, error) {
	return CompileSource("builtins.cue", builtinsSource)
})

// Builtins returns the builtin declarations. The result is shared and must
// not be modified.
func Builtins() *Registry {
	r, err := builtins()
	if err != nil {
		panic(fmt.Sprintf("registry: builtin declarations do not compile: %v", err))
	}
	return r
}

// Merge returns a registry holding r's declarations followed by other's.
// Neither input is modified. Redeclaring a name is an error.
func (r *Registry) Merge(other *Registry) (*Registry, error) {
	out := newRegistry()
	for _, src := range []*Registry{r, other} {
		if src == nil {
			continue
		}
		for _, key := range src.order {
			var err error
			if iface, ok := src.interfaces[key]; ok {
				err = out.addInterface(iface)
			} else {
				err = out.addClass(src.classes[key])
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// Interface looks up an interface by case-insensitive name.
func (r *Registry) Interface(name string) (*InterfaceSpec, bool) {
	spec, ok := r.interfaces[fold(name)]
	return spec, ok
}

// Class looks up a class by case-insensitive name.
func (r *Registry) Class(name string) (*ClassSpec, bool) {
	spec, ok := r.classes[fold(name)]
	return spec, ok
}

// KindOf reports whether name is a declared interface or class.
func (r *Registry) KindOf(name string) Kind {
	key := fold(name)
	if _, ok := r.interfaces[key]; ok {
		return KindInterface
	}
	if _, ok := r.classes[key]; ok {
		return KindClass
	}
	return KindUnknown
}

// Interfaces returns interface declarations in declaration order.
func (r *Registry) Interfaces() []*InterfaceSpec {
	var out []*InterfaceSpec
	for _, key := range r.order {
		if spec, ok := r.interfaces[key]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// Classes returns class declarations in declaration order.
func (r *Registry) Classes() []*ClassSpec {
	var out []*ClassSpec
	for _, key := range r.order {
		if spec, ok := r.classes[key]; ok {
			out = append(out, spec)
		}
	}
	return out
}

// Len returns the number of declarations.
func (r *Registry) Len() int { return len(r.order) }

// Ancestors returns the parent chain of a class, nearest first. Unknown
// parents end the chain; cycles are cut at the first repeat.
func (r *Registry) Ancestors(class string) []*ClassSpec {
	var out []*ClassSpec
	seen := map[string]bool{fold(class): true}
	spec, ok := r.Class(class)
	for ok && spec.Extends != "" {
		key := fold(spec.Extends)
		if seen[key] {
			break
		}
		seen[key] = true
		spec, ok = r.classes[key]
		if ok {
			out = append(out, spec)
		}
	}
	return out
}

// InterfacesOf returns every interface name a class or interface
// satisfies, transitively, in first-seen order.
func (r *Registry) InterfacesOf(name string) []string {
	var out []string
	seen := make(map[string]bool)

	var visitIface func(string)
	visitIface = func(n string) {
		key := fold(n)
		if seen[key] {
			return
		}
		seen[key] = true
		spec, ok := r.interfaces[key]
		if !ok {
			return
		}
		out = append(out, spec.Name)
		for _, parent := range spec.Extends {
			visitIface(parent)
		}
	}

	if spec, ok := r.Interface(name); ok {
		seen[fold(spec.Name)] = true
		for _, parent := range spec.Extends {
			visitIface(parent)
		}
		return out
	}

	spec, ok := r.Class(name)
	if !ok {
		return nil
	}
	for _, c := range append([]*ClassSpec{spec}, r.Ancestors(name)...) {
		for _, iface := range c.Implements {
			visitIface(iface)
		}
	}
	return out
}

// Implements reports whether class (or interface) name satisfies iface,
// directly or through parents.
func (r *Registry) Implements(name, iface string) bool {
	target := fold(iface)
	for _, n := range r.InterfacesOf(name) {
		if fold(n) == target {
			return true
		}
	}
	return false
}

// IsSubclassOf reports whether child strictly derives from parent, by class
// extension or interface implementation.
func (r *Registry) IsSubclassOf(child, parent string) bool {
	if fold(child) == fold(parent) {
		return false
	}
	for _, anc := range r.Ancestors(child) {
		if fold(anc.Name) == fold(parent) {
			return true
		}
	}
	return r.Implements(child, parent)
}

// InstanceOf reports whether a value of class name is an instance of target.
func (r *Registry) InstanceOf(name, target string) bool {
	return fold(name) == fold(target) || r.IsSubclassOf(name, target)
}

// FindMethod resolves a method on a class, searching parents.
func (r *Registry) FindMethod(class, method string) (Method, *ClassSpec, bool) {
	spec, ok := r.Class(class)
	if !ok {
		return Method{}, nil, false
	}
	for _, c := range append([]*ClassSpec{spec}, r.Ancestors(class)...) {
		if m, ok := c.Method(method); ok {
			return m, c, true
		}
	}
	return Method{}, nil, false
}
