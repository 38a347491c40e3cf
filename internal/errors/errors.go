package errors

import (
	"errors"
	"fmt"
)

type ErrorCode string

const (
	CodeInvalidFacts     ErrorCode = "INVALID_FACTS"
	CodeInheritanceCycle ErrorCode = "INHERITANCE_CYCLE"
	CodeMissingBase      ErrorCode = "MISSING_BASE"
	CodeUnresolvedCall   ErrorCode = "UNRESOLVED_CALL"
	CodeUnknownVariable  ErrorCode = "UNKNOWN_VARIABLE"
	CodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// DomainError carries a machine-readable code so the run loop can decide
// whether a failure aborts the whole analysis or is skipped per contract.
type DomainError struct {
	Code    ErrorCode
	Message string
	Err     error
	Context map[string]interface{}
}

const (
	CtxContract = "contract"
	CtxFunction = "function"
	CtxVariable = "variable"
	CtxFile     = "file"
)

func (e *DomainError) WithContext(key string, value interface{}) *DomainError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

func (e *DomainError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	if len(e.Context) > 0 {
		msg += fmt.Sprintf(" %v", e.Context)
	}
	return msg
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func New(code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg}
}

func Newf(code ErrorCode, format string, args ...interface{}) error {
	return &DomainError{Code: code, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, code ErrorCode, msg string) error {
	return &DomainError{Code: code, Message: msg, Err: err}
}

func AddContext(err error, key string, value interface{}) error {
	var de *DomainError
	if errors.As(err, &de) {
		de.WithContext(key, value)
		return de
	}
	return &DomainError{
		Code:    CodeInternal,
		Message: "wrapped error",
		Err:     err,
		Context: map[string]interface{}{key: value},
	}
}

func IsCode(err error, code ErrorCode) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// IsStructural reports whether the error must fail the whole run rather
// than a single contract or edge.
func IsStructural(err error) bool {
	return IsCode(err, CodeInvalidFacts) || IsCode(err, CodeInheritanceCycle)
}
