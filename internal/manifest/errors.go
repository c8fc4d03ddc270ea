package manifest

import (
	"errors"
	"fmt"

	"vacpac/internal/syntax"
)

// ErrMissingIdentifier is matched by every MissingIdentifierError.
var ErrMissingIdentifier = errors.New("function declaration has no identifier")

// MissingIdentifierError reports an anonymous function declaration, which
// cannot be named in a manifest.
type MissingIdentifierError struct {
	Span syntax.Span
}

func (e *MissingIdentifierError) Error() string {
	return fmt.Sprintf("%d:%d: %v", e.Span.Start.Line, e.Span.Start.Column, ErrMissingIdentifier)
}

func (e *MissingIdentifierError) Unwrap() error {
	return ErrMissingIdentifier
}
