package errors

import stderrors "errors"

// Re-exports so callers never need to alias this package against the stdlib.

// New returns an error that formats as the given text.
func New(text string) error { return stderrors.New(text) }

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool { return stderrors.Is(err, target) }

// As finds the first error in err's chain that matches target.
func As(err error, target any) bool { return stderrors.As(err, target) }
