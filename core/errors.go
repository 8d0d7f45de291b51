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

// SetupError signals that the backing schema has not been provisioned yet;
// operator remediation (running migrations), not end-user retry.
type SetupError struct {
	Err error
}

func NewSetupError(err error) error {
	return &SetupError{Err: err}
}

func (err SetupError) Error() string {
	if err.Err == nil {
		return "database schema not provisioned"
	}
	return err.Err.Error()
}

func IsSetupError(err error) bool {
	_, ok := errors.Cause(err).(*SetupError)
	return ok
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
