package manifest

import (
	"sort"

	"vacpac/internal/syntax"
)

// Binding links a local declaration name to the name it is exported under.
// Reexport is set for `export { ... } from '...'`, where Local names a
// binding of another module.
type Binding struct {
	Local    string
	Exported string
	Reexport bool
}

// Exports is the set of names a module exposes.
type Exports struct {
	names    map[string]struct{}
	bindings []Binding
}

// Has reports whether name is exported.
func (e Exports) Has(name string) bool {
	_, ok := e.names[name]
	return ok
}

// Names returns the exported names in lexical order.
func (e Exports) Names() []string {
	names := make([]string, 0, len(e.names))
	for name := range e.names {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bindings returns the bindings in the order their exports appear.
func (e Exports) Bindings() []Binding {
	return append([]Binding(nil), e.bindings...)
}

func (e *Exports) add(b Binding) {
	if e.names == nil {
		e.names = make(map[string]struct{})
	}
	e.names[b.Exported] = struct{}{}
	e.bindings = append(e.bindings, b)
}

// ResolveExports gathers the exported names of body. Only function
// declarations contribute their own identifier; specifier lists contribute
// every exported name whatever it refers to.
func ResolveExports(body []syntax.Node) Exports {
	var exports Exports
	syntax.Walk(body, func(n syntax.Node) bool {
		switch v := n.(type) {
		case *syntax.ExportDefault:
			if fn, ok := v.Declaration.(*syntax.FunctionDecl); ok && fn.Identifier != "" {
				exports.add(Binding{Local: fn.Identifier, Exported: fn.Identifier})
			}
		case *syntax.ExportNamed:
			if v.Declaration != nil {
				if fn, ok := v.Declaration.(*syntax.FunctionDecl); ok && fn.Identifier != "" {
					exports.add(Binding{Local: fn.Identifier, Exported: fn.Identifier})
				}
				break
			}
			for _, spec := range v.Specifiers {
				exports.add(Binding{Local: spec.Local, Exported: spec.Exported, Reexport: v.Source != ""})
			}
		case *syntax.FunctionDecl, *syntax.Group:
		}
		return true
	})
	return exports
}
