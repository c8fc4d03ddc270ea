package manifest

import "vacpac/internal/syntax"

// Mode selects how declarations are matched against exports.
type Mode int

const (
	// ModeLiteral keeps a declaration only when its own identifier is an
	// exported name. `export { foo as bar }` therefore drops foo.
	ModeLiteral Mode = iota
	// ModeAliasResolve matches declarations against the local side of each
	// binding and publishes them under the exported name.
	ModeAliasResolve
)

// Match is a declaration that survived filtering together with the name it
// is published under.
type Match struct {
	Decl       *syntax.FunctionDecl
	Identifier string
}

// FilterExported returns the exported declarations in declaration order.
func FilterExported(decls []*syntax.FunctionDecl, exports Exports, mode Mode) []Match {
	var matches []Match
	for _, decl := range decls {
		if mode == ModeLiteral {
			if exports.Has(decl.Identifier) {
				matches = append(matches, Match{Decl: decl, Identifier: decl.Identifier})
			}
			continue
		}
		seen := make(map[string]bool)
		for _, b := range exports.bindings {
			if b.Reexport || b.Local != decl.Identifier || seen[b.Exported] {
				continue
			}
			seen[b.Exported] = true
			matches = append(matches, Match{Decl: decl, Identifier: b.Exported})
		}
	}
	return matches
}

// Unresolved lists exported names that no declaration satisfies under mode,
// in export order. They are omitted from the manifest without error.
func Unresolved(decls []*syntax.FunctionDecl, exports Exports, mode Mode) []string {
	declared := make(map[string]bool, len(decls))
	for _, decl := range decls {
		declared[decl.Identifier] = true
	}
	var names []string
	seen := make(map[string]bool)
	for _, b := range exports.bindings {
		key := b.Exported
		if mode == ModeAliasResolve && !b.Reexport {
			key = b.Local
		}
		if declared[key] || seen[b.Exported] {
			continue
		}
		seen[b.Exported] = true
		names = append(names, b.Exported)
	}
	return names
}
