package syntax

// Walk visits nodes depth-first in document order. Children of a node are
// skipped when visit returns false.
func Walk(nodes []Node, visit func(Node) bool) {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if !visit(n) {
			continue
		}
		Walk(Children(n), visit)
	}
}

// Children returns the nodes directly beneath n.
func Children(n Node) []Node {
	switch v := n.(type) {
	case *FunctionDecl:
		return v.Nested
	case *ExportDefault:
		if v.Declaration == nil {
			return nil
		}
		return []Node{v.Declaration}
	case *ExportNamed:
		if v.Declaration == nil {
			return nil
		}
		return []Node{v.Declaration}
	case *Group:
		return v.Children
	default:
		return nil
	}
}
