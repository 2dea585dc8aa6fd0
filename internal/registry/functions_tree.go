package registry

import (
	"sort"

	"github.com/funvibe/fhirpath/internal/runtime"
)

// registerTreeFunctions installs children()/descendants() (spec §4.3),
// the structural-navigation complements to the dot-path operator: they
// walk a Complex's Fields map rather than a single named child.
func registerTreeFunctions(r *Registry) {
	r.RegisterFunction(&Function{Name: "children", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		return directChildren(input), nil
	})})

	r.RegisterFunction(&Function{Name: "descendants", Arity: Arity{0, 0}, Eval: valueFn(func(input runtime.Collection) (runtime.Collection, error) {
		var out runtime.Collection
		frontier := directChildren(input)
		for len(frontier) > 0 {
			out = append(out, frontier...)
			frontier = directChildren(frontier)
		}
		return out, nil
	})})
}

// directChildren collects the field values of every Complex element of c,
// in a stable field-name order, skipping primitive elements (which have no
// children).
func directChildren(c runtime.Collection) runtime.Collection {
	var out runtime.Collection
	for _, v := range c {
		complex, ok := v.(*runtime.Complex)
		if !ok {
			continue
		}
		for _, name := range sortedFieldNames(complex) {
			out = append(out, complex.Fields[name]...)
		}
	}
	return out
}

func sortedFieldNames(c *runtime.Complex) []string {
	names := make([]string, 0, len(c.Fields))
	for name := range c.Fields {
		names = append(names, name)
	}
	// Field order only needs to be stable across calls within one process,
	// not FHIR-declaration order, since children()/descendants() callers
	// normally wrap the result in distinct()/where() anyway.
	sort.Strings(names)
	return names
}
