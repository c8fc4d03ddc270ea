package syntax

// Position is a location in source text. Line is 1-indexed, Column is a
// 0-indexed byte offset within the line.
type Position struct {
	Line   int
	Column int
}

// Span covers a node from Start to End (inclusive line range).
type Span struct {
	Start Position
	End   Position
}

// CommentKind distinguishes `//` comments from `/* */` comments.
type CommentKind string

const (
	CommentLine  CommentKind = "Line"
	CommentBlock CommentKind = "Block"
)

// Comment is a single source comment. For block comments Text holds
// everything between the delimiters as authored; for line comments it holds
// the text after the marker.
type Comment struct {
	Kind CommentKind
	Text string
	Span Span
}

// Node is one of the node kinds the manifest pipeline inspects. The set is
// closed: FunctionDecl, ExportDefault, ExportNamed and Group.
type Node interface {
	Loc() Span
	sealed()
}

// Param describes a single formal parameter.
type Param struct {
	Name string
}

// FunctionDecl is a function declaration statement. Identifier is empty for
// the anonymous `export default function () {}` form. Nested holds
// declarations found inside the body; the body text itself is not kept.
type FunctionDecl struct {
	Identifier string
	Params     []Param
	Async      bool
	Generator  bool
	Span       Span
	Nested     []Node
}

// ExportDefault is `export default ...`. Declaration is nil when the export
// wraps an expression that neither is nor contains a function.
type ExportDefault struct {
	Declaration Node
	Span        Span
}

// ExportSpecifier is one `local as exported` entry of a specifier list.
type ExportSpecifier struct {
	Local    string
	Exported string
	Span     Span
}

// ExportNamed is `export <declaration>` or `export { ... } [from '...']`.
// Exactly one of Declaration and Specifiers is set.
type ExportNamed struct {
	Declaration Node
	Specifiers  []ExportSpecifier
	Source      string
	Span        Span
}

// Group stands in for any node kind the pipeline does not inspect and keeps
// the inspected nodes found beneath it.
type Group struct {
	Children []Node
	Span     Span
}

func (n *FunctionDecl) Loc() Span  { return n.Span }
func (n *ExportDefault) Loc() Span { return n.Span }
func (n *ExportNamed) Loc() Span   { return n.Span }
func (n *Group) Loc() Span         { return n.Span }

func (*FunctionDecl) sealed()  {}
func (*ExportDefault) sealed() {}
func (*ExportNamed) sealed()   {}
func (*Group) sealed()         {}

// Module is a parsed source file: its top-level nodes and every comment in
// document order.
type Module struct {
	Path     string
	Language string
	Body     []Node
	Comments []Comment
}
