package parser

import (
	"context"

	"github.com/smacker/go-tree-sitter/javascript"

	"vacpac/internal/syntax"
)

// JavaScriptParser implements ModuleParser for JavaScript, including JSX.
type JavaScriptParser struct {
	options Options
}

// NewJavaScriptParser creates a new JavaScript parser
func NewJavaScriptParser(opts ...Option) *JavaScriptParser {
	return &JavaScriptParser{options: newOptions(opts)}
}

// Language returns the language name
func (p *JavaScriptParser) Language() string {
	return string(LanguageJavaScript)
}

// Parse builds the module syntax tree of a JavaScript source file.
func (p *JavaScriptParser) Parse(ctx context.Context, path string, src []byte) (*syntax.Module, error) {
	return parseModule(ctx, javascript.GetLanguage(), LanguageJavaScript, p.options, path, src)
}
