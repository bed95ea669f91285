package core

import "github.com/pkg/errors"

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ErrorKind discriminates workflow failures.
type ErrorKind string

const (
	KindNotAuthenticated  ErrorKind = "NotAuthenticated"
	KindRoleMismatch      ErrorKind = "RoleMismatch"
	KindNotOwner          ErrorKind = "NotOwner"
	KindNotFound          ErrorKind = "NotFound"
	KindInvalidTransition ErrorKind = "InvalidTransition"
	KindEditNotAllowed    ErrorKind = "EditNotAllowed"
	KindDeleteNotAllowed  ErrorKind = "DeleteNotAllowed"
	KindAssignmentNotOpen ErrorKind = "AssignmentNotOpen"
	KindEmptyAnswer       ErrorKind = "EmptyAnswer"
	KindAlreadySubmitted  ErrorKind = "AlreadySubmitted"
	KindNetworkFailure    ErrorKind = "NetworkFailure"
)

var errorKinds = map[ErrorKind]struct{}{
	KindNotAuthenticated:  {},
	KindRoleMismatch:      {},
	KindNotOwner:          {},
	KindNotFound:          {},
	KindInvalidTransition: {},
	KindEditNotAllowed:    {},
	KindDeleteNotAllowed:  {},
	KindAssignmentNotOpen: {},
	KindEmptyAnswer:       {},
	KindAlreadySubmitted:  {},
	KindNetworkFailure:    {},
}

// ParseErrorKind maps a serialized kind back to an ErrorKind.
func ParseErrorKind(s string) (ErrorKind, bool) {
	kind := ErrorKind(s)
	_, ok := errorKinds[kind]
	return kind, ok
}

// WorkflowError is the result of a rejected workflow operation.
// Kind is set by the check that rejected the operation and is never inferred from Message.
type WorkflowError struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func NewWorkflowError(kind ErrorKind, msg string) error {
	return &WorkflowError{Kind: kind, Message: msg}
}

// WrapWorkflowError attaches a kind to an underlying error (eg. a transport failure).
func WrapWorkflowError(kind ErrorKind, err error, msg string) error {
	return &WorkflowError{Kind: kind, Message: msg, Err: err}
}

func (err *WorkflowError) Error() string {
	if err.Message == "" && err.Err != nil {
		return err.Err.Error()
	}
	return err.Message
}

func (err *WorkflowError) Unwrap() error { return err.Err }

// KindOf returns the ErrorKind carried by err, or "" if err is not a workflow error.
func KindOf(err error) ErrorKind {
	var wErr *WorkflowError
	if errors.As(err, &wErr) {
		return wErr.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
