package parser

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// extensions maps every accepted entry-file extension to its grammar family.
var extensions = map[string]Language{
	".js":  LanguageJavaScript,
	".jsx": LanguageJavaScript,
	".mjs": LanguageJavaScript,
	".cjs": LanguageJavaScript,
	".ts":  LanguageTypeScript,
	".tsx": LanguageTypeScript,
	".mts": LanguageTypeScript,
	".cts": LanguageTypeScript,
}

// ParserFactory hands out one ModuleParser per language. Parsers hold no
// per-call state and are shared.
type ParserFactory struct {
	parsers map[Language]ModuleParser
}

// NewParserFactory creates a factory whose parsers all use opts.
func NewParserFactory(opts ...Option) *ParserFactory {
	return &ParserFactory{
		parsers: map[Language]ModuleParser{
			LanguageJavaScript: NewJavaScriptParser(opts...),
			LanguageTypeScript: NewTypeScriptParser(opts...),
		},
	}
}

// GetParser returns the parser of lang.
func (f *ParserFactory) GetParser(lang Language) (ModuleParser, error) {
	mp, ok := f.parsers[lang]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported language %q", ErrParseFailure, lang)
	}
	return mp, nil
}

// GetParserByFilePath picks the parser from the extension of filePath.
func (f *ParserFactory) GetParserByFilePath(filePath string) (ModuleParser, error) {
	lang := DetectLanguage(filePath)
	if lang == "" {
		return nil, fmt.Errorf("%w: %s: unsupported file type (want one of %s)",
			ErrParseFailure, filePath, strings.Join(SupportedExtensions(), " "))
	}
	return f.GetParser(lang)
}

// DetectLanguage returns the language of filePath, or "" when the extension
// is not a JavaScript or TypeScript one.
func DetectLanguage(filePath string) Language {
	return extensions[strings.ToLower(filepath.Ext(filePath))]
}

// SupportedExtensions returns the accepted extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extensions))
	for ext := range extensions {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// IsSupportedFile reports whether filePath can be parsed.
func IsSupportedFile(filePath string) bool {
	return DetectLanguage(filePath) != ""
}
