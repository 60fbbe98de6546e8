package core

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

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
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// ItemValidationError holds the validator errors of one item of a batch.
type ItemValidationError struct {
	Index int
	Errs  validator.ValidationErrors
}

func NewItemValidationError(index int, errs validator.ValidationErrors) error {
	return &ItemValidationError{Index: index, Errs: errs}
}

func (err ItemValidationError) Error() string {
	return fmt.Sprintf("item %d: %v", err.Index, err.Errs)
}

// Field prefixes field with the item's position, as in "[1].paid_amount".
func (err ItemValidationError) Field(field string) string {
	return fmt.Sprintf("[%d].%s", err.Index, field)
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Err      error
	Resource string
	ID       interface{}
}

func NewNotFoundError(err error, resource string, id interface{}) error {
	return &NotFoundError{Err: err, Resource: resource, ID: id}
}

func (err NotFoundError) Error() string {
	if err.ID == nil {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s not found for ID %v", err.Resource, err.ID)
}

// FatalBatchError aborts a whole batch: every change made by the batch is rolled back.
type FatalBatchError struct {
	Err   error
	Index int // position of the offending item, -1 when the batch itself is invalid
}

func NewFatalBatchError(err error, index int) error {
	return &FatalBatchError{Err: err, Index: index}
}

func (err FatalBatchError) Error() string {
	if err.Err == nil {
		return "batch aborted"
	}
	return err.Err.Error()
}

func IsNotFound(err error) bool {
	_, ok := errors.Cause(err).(*NotFoundError)
	return ok
}

func IsValidation(err error) bool {
	_, ok := errors.Cause(err).(*ValidationError)
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
