package manifest

import "vacpac/internal/syntax"

// CollectDeclarations returns every function declaration reachable from body,
// at any depth, in document order.
func CollectDeclarations(body []syntax.Node) ([]*syntax.FunctionDecl, error) {
	var decls []*syntax.FunctionDecl
	var err error
	syntax.Walk(body, func(n syntax.Node) bool {
		if err != nil {
			return false
		}
		fn, ok := n.(*syntax.FunctionDecl)
		if !ok {
			return true
		}
		if fn.Identifier == "" {
			err = &MissingIdentifierError{Span: fn.Span}
			return false
		}
		decls = append(decls, fn)
		return true
	})
	if err != nil {
		return nil, err
	}
	return decls, nil
}
