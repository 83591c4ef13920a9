package errors

import (
	"fmt"
	"strings"
)

// Kind classifies every failure the host can produce. Discovery kinds are
// collected and returned alongside the loaded count, resolution kinds abort a
// run before any plugin executes, and execution kinds are contained to the
// report entry of the plugin that produced them.
type Kind string

const (
	KindInvalidSignature    Kind = "invalid_signature"
	KindDuplicateID         Kind = "duplicate_id"
	KindIncompatibleVersion Kind = "incompatible_version"

	KindDependencyCycle   Kind = "dependency_cycle"
	KindMissingDependency Kind = "missing_dependency"

	KindRuntimeError Kind = "runtime_error"
	KindTimeout      Kind = "timeout"
	KindSkipped      Kind = "skipped"
)

// Kinder is implemented by every typed error in this package.
type Kinder interface {
	Kind() Kind
}

// KindOf extracts the Kind carried by err, or an empty Kind when err carries none.
func KindOf(err error) Kind {
	var k Kinder
	if As(err, &k) {
		return k.Kind()
	}
	return Kind("")
}

// ParseError represents a config or manifest parsing failure with optional line metadata.
type ParseError struct {
	Path    string
	Line    int
	Message string
	Err     error
}

// NewParseError constructs a ParseError.
func NewParseError(path string, line int, err error) error {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ParseError{Path: path, Line: line, Message: message, Err: err}
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse error: %s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("parse error: %s: %s", e.Path, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ValidationError captures configuration validation issues.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError constructs a ValidationError.
func NewValidationError(field, message string, err error) error {
	return &ValidationError{Field: field, Message: message, Err: err}
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SignatureError rejects a discovery candidate that does not expose the
// required plugin signature (marker, id, description, entry point).
type SignatureError struct {
	Candidate string
	Message   string
	Err       error
}

// NewSignatureError constructs a SignatureError for the given candidate directory.
func NewSignatureError(candidate, message string, err error) error {
	return &SignatureError{Candidate: candidate, Message: message, Err: err}
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid plugin signature in %q: %s", e.Candidate, e.Message)
}

func (e *SignatureError) Unwrap() error { return e.Err }
func (e *SignatureError) Kind() Kind    { return KindInvalidSignature }

// DuplicateError rejects a plugin whose id is already registered.
type DuplicateError struct {
	PluginID string
}

// NewDuplicateError constructs a DuplicateError.
func NewDuplicateError(id string) error {
	return &DuplicateError{PluginID: id}
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("plugin id already registered: %s", e.PluginID)
}

func (e *DuplicateError) Kind() Kind { return KindDuplicateID }

// VersionError rejects a candidate requiring a newer host than the one running.
type VersionError struct {
	PluginID string
	Required string
	Actual   string
}

// NewVersionError constructs a VersionError.
func NewVersionError(id, required, actual string) error {
	return &VersionError{PluginID: id, Required: required, Actual: actual}
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("plugin %s requires host >= %s, running %s", e.PluginID, e.Required, e.Actual)
}

func (e *VersionError) Kind() Kind { return KindIncompatibleVersion }

// CycleError aborts resolution when the dependency graph contains a cycle.
// IDs lists every plugin involved; none of them is silently dropped.
type CycleError struct {
	IDs []string
}

// NewCycleError constructs a CycleError naming the involved plugin ids.
func NewCycleError(ids []string) error {
	return &CycleError{IDs: ids}
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle involving: %s", strings.Join(e.IDs, ", "))
}

func (e *CycleError) Kind() Kind { return KindDependencyCycle }

// MissingDependencyError aborts resolution when a plugin requires an id that
// is absent from the registry or disabled for the run.
type MissingDependencyError struct {
	Dependent string
	Missing   string
}

// NewMissingDependencyError constructs a MissingDependencyError.
func NewMissingDependencyError(dependent, missing string) error {
	return &MissingDependencyError{Dependent: dependent, Missing: missing}
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("plugin %s requires %s, which is not available for this run", e.Dependent, e.Missing)
}

func (e *MissingDependencyError) Kind() Kind { return KindMissingDependency }

// RunError wraps a failure raised by a single plugin invocation. It never
// propagates beyond that plugin's report entry.
type RunError struct {
	PluginID string
	Err      error
}

// NewRunError constructs a RunError.
func NewRunError(id string, err error) error {
	return &RunError{PluginID: id, Err: err}
}

func (e *RunError) Error() string {
	return fmt.Sprintf("plugin %s failed: %v", e.PluginID, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }
func (e *RunError) Kind() Kind    { return KindRuntimeError }
