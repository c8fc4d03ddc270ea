package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"vacpac/internal/syntax"
)

// parseModule runs tree-sitter with the given grammar and lowers the result.
func parseModule(ctx context.Context, grammar *sitter.Language, lang Language, opts Options, path string, src []byte) (*syntax.Module, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s parse canceled before start: %w", lang, err)
	}
	if opts.MaxFileSize > 0 && len(src) > opts.MaxFileSize {
		return nil, fmt.Errorf("%w: %s: file exceeds %d bytes", ErrParseFailure, path, opts.MaxFileSize)
	}
	if !utf8.Valid(src) {
		return nil, fmt.Errorf("%w: %s: invalid UTF-8", ErrParseFailure, path)
	}

	parser := sitter.NewParser()
	defer parser.Close()
	parser.SetLanguage(grammar)

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParseFailure, path, err)
	}
	defer tree.Close()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s parse canceled after tree-sitter: %w", lang, err)
	}

	root := tree.RootNode()
	if root == nil {
		return nil, fmt.Errorf("%w: %s: empty syntax tree", ErrParseFailure, path)
	}
	if root.HasError() {
		if bad := firstError(root); bad != nil {
			p := bad.StartPoint()
			return nil, fmt.Errorf("%w: %s:%d:%d: syntax error", ErrParseFailure, path, p.Row+1, p.Column)
		}
		return nil, fmt.Errorf("%w: %s: syntax error", ErrParseFailure, path)
	}

	l := &lowerer{src: src}
	mod := &syntax.Module{
		Path:     path,
		Language: string(lang),
		Body:     l.children(root),
	}
	collectComments(root, src, &mod.Comments)
	return mod, nil
}

func firstError(node *sitter.Node) *sitter.Node {
	if node.Type() == "ERROR" || node.IsMissing() {
		return node
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		if bad := firstError(node.Child(i)); bad != nil {
			return bad
		}
	}
	return nil
}

// lowerer maps the concrete tree onto the syntax variants. Nodes of kinds the
// manifest pipeline does not inspect are dropped and their inspected
// descendants are hoisted in document order.
type lowerer struct {
	src []byte
}

func (l *lowerer) children(node *sitter.Node) []syntax.Node {
	var out []syntax.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, l.lower(node.NamedChild(i))...)
	}
	return out
}

func (l *lowerer) lower(node *sitter.Node) []syntax.Node {
	switch node.Type() {
	case "comment":
		return nil
	case "function_declaration", "generator_function_declaration":
		return []syntax.Node{l.function(node)}
	case "export_statement":
		return []syntax.Node{l.export(node)}
	default:
		return l.children(node)
	}
}

// function lowers declarations and function expressions alike. An
// expression without a name yields an empty Identifier.
func (l *lowerer) function(node *sitter.Node) *syntax.FunctionDecl {
	fn := &syntax.FunctionDecl{
		Span:      spanOf(node),
		Generator: strings.HasPrefix(node.Type(), "generator_function"),
	}
	if name := node.ChildByFieldName("name"); name != nil {
		fn.Identifier = name.Content(l.src)
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		switch node.Child(i).Type() {
		case "async":
			fn.Async = true
		case "*":
			fn.Generator = true
		}
	}
	if params := node.ChildByFieldName("parameters"); params != nil {
		fn.Params = l.params(params)
	}
	if body := node.ChildByFieldName("body"); body != nil {
		fn.Nested = l.children(body)
	}
	return fn
}

func (l *lowerer) params(node *sitter.Node) []syntax.Param {
	params := make([]syntax.Param, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == "comment" {
			continue
		}
		params = append(params, syntax.Param{Name: l.paramName(child)})
	}
	return params
}

// paramName names a formal parameter by the identifier it binds. Destructuring
// patterns bind several names and are named by their source text.
func (l *lowerer) paramName(node *sitter.Node) string {
	switch node.Type() {
	case "identifier":
		return node.Content(l.src)
	case "assignment_pattern":
		if left := node.ChildByFieldName("left"); left != nil {
			return l.paramName(left)
		}
	case "required_parameter", "optional_parameter":
		if pattern := node.ChildByFieldName("pattern"); pattern != nil {
			return l.paramName(pattern)
		}
	case "rest_pattern":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			if child := node.NamedChild(i); child.Type() != "type_annotation" {
				return l.paramName(child)
			}
		}
	}
	return node.Content(l.src)
}

func (l *lowerer) export(node *sitter.Node) syntax.Node {
	span := spanOf(node)
	isDefault := false
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == "default" {
			isDefault = true
			break
		}
	}

	if isDefault {
		out := &syntax.ExportDefault{Span: span}
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			out.Declaration = l.declaration(decl)
		} else if value := node.ChildByFieldName("value"); value != nil {
			out.Declaration = l.value(value)
		}
		return out
	}

	out := &syntax.ExportNamed{Span: span}
	if decl := node.ChildByFieldName("declaration"); decl != nil {
		out.Declaration = l.declaration(decl)
		return out
	}
	if source := node.ChildByFieldName("source"); source != nil {
		out.Source = unquote(source.Content(l.src))
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		clause := node.NamedChild(i)
		if clause.Type() != "export_clause" {
			continue
		}
		for j := 0; j < int(clause.NamedChildCount()); j++ {
			if spec := clause.NamedChild(j); spec.Type() == "export_specifier" {
				out.Specifiers = append(out.Specifiers, l.specifier(spec))
			}
		}
	}
	if out.Specifiers == nil {
		out.Specifiers = []syntax.ExportSpecifier{}
	}
	return out
}

func (l *lowerer) declaration(node *sitter.Node) syntax.Node {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		return l.function(node)
	default:
		return &syntax.Group{Children: l.children(node), Span: spanOf(node)}
	}
}

// value lowers the expression of `export default <expr>`. Only a bare
// anonymous `function` in that position is the anonymous declaration form;
// any other expression, parenthesized functions included, yields nil unless
// it encloses function declarations.
func (l *lowerer) value(node *sitter.Node) syntax.Node {
	switch node.Type() {
	case "function", "function_expression", "generator_function":
		return l.function(node)
	}
	if children := l.children(node); len(children) > 0 {
		return &syntax.Group{Children: children, Span: spanOf(node)}
	}
	return nil
}

func (l *lowerer) specifier(node *sitter.Node) syntax.ExportSpecifier {
	spec := syntax.ExportSpecifier{Span: spanOf(node)}
	name := node.ChildByFieldName("name")
	alias := node.ChildByFieldName("alias")
	if name == nil && node.NamedChildCount() > 0 {
		name = node.NamedChild(0)
	}
	if name != nil {
		spec.Local = unquote(name.Content(l.src))
	}
	spec.Exported = spec.Local
	if alias != nil {
		spec.Exported = unquote(alias.Content(l.src))
	}
	return spec
}

func collectComments(node *sitter.Node, src []byte, out *[]syntax.Comment) {
	if node.Type() == "comment" {
		if c, ok := toComment(node.Content(src), spanOf(node)); ok {
			*out = append(*out, c)
		}
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		collectComments(node.Child(i), src, out)
	}
}

func toComment(raw string, span syntax.Span) (syntax.Comment, bool) {
	switch {
	case strings.HasPrefix(raw, "/*"):
		text := strings.TrimPrefix(raw, "/*")
		text = strings.TrimSuffix(text, "*/")
		return syntax.Comment{Kind: syntax.CommentBlock, Text: text, Span: span}, true
	case strings.HasPrefix(raw, "//"):
		text := strings.TrimSpace(strings.TrimPrefix(raw, "//"))
		return syntax.Comment{Kind: syntax.CommentLine, Text: text, Span: span}, true
	default:
		return syntax.Comment{}, false
	}
}

func spanOf(node *sitter.Node) syntax.Span {
	start, end := node.StartPoint(), node.EndPoint()
	return syntax.Span{
		Start: syntax.Position{Line: int(start.Row) + 1, Column: int(start.Column)},
		End:   syntax.Position{Line: int(end.Row) + 1, Column: int(end.Column)},
	}
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}
