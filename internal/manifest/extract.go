package manifest

import (
	"fmt"

	"vacpac/internal/syntax"
)

type extractOptions struct {
	mode       Mode
	unresolved func(name string)
}

// Option configures Extract.
type Option func(*extractOptions)

// WithAliasResolution publishes `export { foo as bar }` as bar instead of
// dropping it.
func WithAliasResolution() Option {
	return func(o *extractOptions) {
		o.mode = ModeAliasResolve
	}
}

// WithMode sets the export matching mode directly.
func WithMode(mode Mode) Option {
	return func(o *extractOptions) {
		o.mode = mode
	}
}

// WithUnresolved registers a callback for exported names that have no
// matching function declaration.
func WithUnresolved(fn func(name string)) Option {
	return func(o *extractOptions) {
		o.unresolved = fn
	}
}

// Extract runs the whole pipeline over a parsed module and returns its
// manifest. It fails without a partial result when any function
// declaration is anonymous.
func Extract(name, version string, mod *syntax.Module, opts ...Option) (*Manifest, error) {
	o := &extractOptions{mode: ModeLiteral}
	for _, opt := range opts {
		opt(o)
	}
	if mod == nil {
		return nil, fmt.Errorf("extract %s: nil module", name)
	}

	decls, err := CollectDeclarations(mod.Body)
	if err != nil {
		if mod.Path != "" {
			return nil, fmt.Errorf("%s:%w", mod.Path, err)
		}
		return nil, err
	}
	exports := ResolveExports(mod.Body)

	matches := FilterExported(decls, exports, o.mode)
	if o.unresolved != nil {
		for _, n := range Unresolved(decls, exports, o.mode) {
			o.unresolved(n)
		}
	}

	entries := make([]Entry, 0, len(matches))
	for _, m := range matches {
		var doc string
		if c, ok := MatchComment(mod.Comments, m.Decl); ok {
			doc = NormalizeDocString(&c)
		}
		entries = append(entries, Entry{Identifier: m.Identifier, Decl: m.Decl, DocString: doc})
	}
	return Build(name, version, entries), nil
}
