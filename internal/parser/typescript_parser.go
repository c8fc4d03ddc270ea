package parser

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"vacpac/internal/syntax"
)

// TypeScriptParser implements ModuleParser for TypeScript. Files ending in
// .tsx are parsed with the TSX grammar, since type assertions written as
// `<T>x` are ambiguous with JSX.
type TypeScriptParser struct {
	options Options
}

// NewTypeScriptParser creates a new TypeScript parser
func NewTypeScriptParser(opts ...Option) *TypeScriptParser {
	return &TypeScriptParser{options: newOptions(opts)}
}

// Language returns the language name
func (p *TypeScriptParser) Language() string {
	return string(LanguageTypeScript)
}

// Parse builds the module syntax tree of a TypeScript source file.
func (p *TypeScriptParser) Parse(ctx context.Context, path string, src []byte) (*syntax.Module, error) {
	return parseModule(ctx, grammarFor(path), LanguageTypeScript, p.options, path, src)
}

func grammarFor(path string) *sitter.Language {
	if strings.EqualFold(filepath.Ext(path), ".tsx") {
		return tsx.GetLanguage()
	}
	return typescript.GetLanguage()
}
