package welderr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind defines the category of the error.
type Kind string

const (
	// KindMissingTemplate reports a resolved callee with no registered template.
	KindMissingTemplate Kind = "MissingTemplate"
	// KindUnsupportedLambdaForm reports a lambda slot argument that is not a
	// function literal (a named function value, a method value, a conversion).
	KindUnsupportedLambdaForm Kind = "UnsupportedLambdaForm"
	// KindLambdaSlotNotFound reports a call site passing arguments but no
	// function literal when the template requires one.
	KindLambdaSlotNotFound Kind = "LambdaSlotNotFound"
	// KindAmbiguousLambdaSlot reports a call site passing more than one
	// function literal.
	KindAmbiguousLambdaSlot Kind = "AmbiguousLambdaSlot"
	// KindNoLambdaSlot reports a template that references lambda placeholders
	// while the call site supplies no lambda at all.
	KindNoLambdaSlot Kind = "NoLambdaSlot"
	// KindSymbolResolutionFailed reports a callee that could not be resolved to
	// exactly one declaration in the scanned package.
	KindSymbolResolutionFailed Kind = "SymbolResolutionFailed"
	// KindDeclaringTypeNotFound reports a receiver type the generated method
	// would attach to that is not declared in the scanned package.
	KindDeclaringTypeNotFound Kind = "DeclaringTypeNotFound"
	// KindDuplicateTemplate reports two template registrations under one key.
	KindDuplicateTemplate Kind = "DuplicateTemplate"
	// KindBadDirective reports a malformed weld comment directive.
	KindBadDirective Kind = "BadDirective"
	// KindConfig reports an invalid weld.toml or flag combination.
	KindConfig Kind = "ConfigError"
	// KindUnresolvedPlaceholder reports a placeholder left verbatim in rendered
	// output. It is advisory: generation proceeds.
	KindUnresolvedPlaceholder Kind = "UnresolvedPlaceholder"
)

// Soft reports whether errors of this kind are advisory rather than fatal for
// the triggering method.
func (k Kind) Soft() bool {
	return k == KindUnresolvedPlaceholder
}

// WeldError is the interface for all weld-related errors.
type WeldError interface {
	error
	Kind() Kind
}

// Error is a categorized error with an optional source position.
type Error struct {
	Category Kind
	Path     string
	Line     int
	Column   int
	Msg      string
}

func (e *Error) Error() string {
	if e.Line > 0 {
		if e.Path != "" {
			return fmt.Sprintf("[%s] %s:%d:%d %s", e.Category, e.Path, e.Line, e.Column, e.Msg)
		}
		return fmt.Sprintf("[%s] line %d:%d %s", e.Category, e.Line, e.Column, e.Msg)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Msg)
}

func (e *Error) Kind() Kind {
	return e.Category
}

// At returns a copy of the error positioned at path:line:column.
func (e *Error) At(path string, line, column int) *Error {
	c := *e
	c.Path = path
	c.Line = line
	c.Column = column
	return &c
}

// New creates a categorized error without a position.
func New(kind Kind, msg string) *Error {
	return &Error{Category: kind, Msg: msg}
}

// Newf creates a categorized error from a format string.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Category: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewAt creates a categorized error positioned at path:line:column.
func NewAt(kind Kind, path string, line, column int, msg string) *Error {
	return &Error{Category: kind, Path: path, Line: line, Column: column, Msg: msg}
}

// As unwraps err into a categorized *Error, if it is one.
func As(err error) (*Error, bool) {
	var we *Error
	if errors.As(err, &we) {
		return we, true
	}
	return nil, false
}

// IsKind reports whether err is a weld error of the given kind.
func IsKind(err error, kind Kind) bool {
	we, ok := As(err)
	return ok && we.Category == kind
}

// MultiError collects multiple weld errors.
type MultiError struct {
	Errors []error
}

func (m *MultiError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d error(s) occurred:\n", len(m.Errors)))
	for _, err := range m.Errors {
		sb.WriteString(fmt.Sprintf("- %v\n", err))
	}
	return sb.String()
}

func (m *MultiError) Kind() Kind {
	if len(m.Errors) > 0 {
		if we, ok := m.Errors[0].(WeldError); ok {
			return we.Kind()
		}
	}
	return "MultiError"
}

// Append adds err to the collection, flattening nested MultiErrors.
func (m *MultiError) Append(err error) {
	if err == nil {
		return
	}
	var nested *MultiError
	if errors.As(err, &nested) {
		m.Errors = append(m.Errors, nested.Errors...)
		return
	}
	m.Errors = append(m.Errors, err)
}

// ErrorOrNil returns the collection as an error: nil when empty, the sole
// error when it holds exactly one.
func (m *MultiError) ErrorOrNil() error {
	switch len(m.Errors) {
	case 0:
		return nil
	case 1:
		return m.Errors[0]
	}
	return m
}
