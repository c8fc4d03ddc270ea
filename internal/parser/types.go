package parser

import (
	"context"
	"errors"

	"vacpac/internal/syntax"
)

// ModuleParser turns one source file into the syntax tree consumed by the
// manifest pipeline.
type ModuleParser interface {
	// Parse lowers src into a module. path is only used for messages and
	// grammar selection.
	Parse(ctx context.Context, path string, src []byte) (*syntax.Module, error)

	// Language returns the language name
	Language() string
}

// Language represents supported source languages
type Language string

const (
	LanguageJavaScript Language = "javascript"
	LanguageTypeScript Language = "typescript"
)

// DefaultMaxFileSize is the largest source file accepted by default.
const DefaultMaxFileSize = 10 * 1024 * 1024

// ErrParseFailure is returned for sources that cannot be turned into a
// complete syntax tree.
var ErrParseFailure = errors.New("parse failure")

// Options control parsing limits.
type Options struct {
	MaxFileSize int
}

// Option configures a parser.
type Option func(*Options)

// WithMaxFileSize rejects sources larger than size bytes.
func WithMaxFileSize(size int) Option {
	return func(o *Options) {
		o.MaxFileSize = size
	}
}

func newOptions(opts []Option) Options {
	o := Options{MaxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
