package manifest

import (
	"regexp"
	"strings"

	"vacpac/internal/syntax"
)

var blockIndent = regexp.MustCompile(`(?m)^[ \t]*\*[ \t]*`)

// MatchComment finds the comment ending on the line directly above decl.
// When several qualify the last one in document order wins. Each call scans
// the whole list.
func MatchComment(comments []syntax.Comment, decl *syntax.FunctionDecl) (syntax.Comment, bool) {
	var (
		found syntax.Comment
		ok    bool
	)
	want := decl.Span.Start.Line - 1
	for _, c := range comments {
		if c.Span.End.Line == want {
			found, ok = c, true
		}
	}
	return found, ok
}

// NormalizeDocString turns a matched comment into documentation text. A nil
// comment yields "". Line comments are returned as is.
func NormalizeDocString(c *syntax.Comment) string {
	if c == nil {
		return ""
	}
	if c.Kind != syntax.CommentBlock {
		return c.Text
	}
	text := strings.ReplaceAll(c.Text, "\r", "")
	text = blockIndent.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}
