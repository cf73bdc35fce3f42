package ingest

import "fmt"

// ErrorCode identifies the stage that failed.
type ErrorCode string

const (
	ErrInvalidMessage       ErrorCode = "INVALID_MESSAGE"
	ErrCategorizationFailed ErrorCode = "CATEGORIZATION_FAILED"
	ErrStorageFailed        ErrorCode = "STORAGE_FAILED"
)

// Error is a structured error for ingest failures. Parsing itself never
// produces one.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}
