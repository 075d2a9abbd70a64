package pkgerrors

import (
	"errors"
	"fmt"
)

const (
	CodeValidation   = -1001
	CodeNotFound     = -1002
	CodeDuplicateKey = -1003
	CodeStore        = -1004
	CodeUnknown      = -9999
)

type AppError struct {
	Code    int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%d] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any *AppError carrying the same code, so sentinels work with errors.Is.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

var (
	ErrValidation   = &AppError{Code: CodeValidation, Message: "validation failed"}
	ErrNotFound     = &AppError{Code: CodeNotFound, Message: "record not found"}
	ErrDuplicateKey = &AppError{Code: CodeDuplicateKey, Message: "duplicate key violation"}
	ErrStore        = &AppError{Code: CodeStore, Message: "store operation failed"}
)

func NewValidationError(msg string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: msg,
	}
}

func NewNotFoundError(key string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("no record for key %q", key),
	}
}

func NewDuplicateKeyError(err error) *AppError {
	return &AppError{
		Code:    CodeDuplicateKey,
		Message: "duplicate key violation",
		Err:     err,
	}
}

func NewStoreError(op string, err error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Message: op,
		Err:     err,
	}
}

func IsValidationError(err error) bool {
	return GetErrorCode(err) == CodeValidation
}

func IsNotFoundError(err error) bool {
	return GetErrorCode(err) == CodeNotFound
}

func IsDuplicateKeyError(err error) bool {
	return GetErrorCode(err) == CodeDuplicateKey
}

func GetErrorCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}
