package syntax

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWalk_DocumentOrder(t *testing.T) {
	inner := &FunctionDecl{Identifier: "inner"}
	outer := &FunctionDecl{Identifier: "outer", Nested: []Node{&Group{Children: []Node{inner}}}}
	exported := &FunctionDecl{Identifier: "exported"}
	body := []Node{
		outer,
		&ExportNamed{Declaration: exported},
		&ExportDefault{},
		nil,
	}

	var names []string
	Walk(body, func(n Node) bool {
		if fn, ok := n.(*FunctionDecl); ok {
			names = append(names, fn.Identifier)
		}
		return true
	})

	assert.Equal(t, []string{"outer", "inner", "exported"}, names)
}

func TestWalk_SkipChildren(t *testing.T) {
	inner := &FunctionDecl{Identifier: "inner"}
	body := []Node{&FunctionDecl{Identifier: "outer", Nested: []Node{inner}}}

	visited := 0
	Walk(body, func(n Node) bool {
		visited++
		return false
	})

	assert.Equal(t, 1, visited)
}
