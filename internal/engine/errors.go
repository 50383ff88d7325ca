package engine

import "fmt"

// Error codes. Every failure leaving the engine carries exactly one of them.
const (
	CodeValidation          = "VALIDATION_FAILED"
	CodeUnknownResourceType = "UNKNOWN_RESOURCE_TYPE"
	CodeNoUpdateFields      = "NO_UPDATE_FIELDS"
	CodeNotFound            = "NOT_FOUND"
	CodeStore               = "STORE_ERROR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeInvalidPayload      = "INVALID_PAYLOAD"
)

type AppError struct {
	Code    string        `json:"code"`
	Status  int           `json:"-"`
	Message string        `json:"message"`
	Details []ErrorDetail `json:"details,omitempty"`

	cause error
}

type ErrorDetail struct {
	Field   string `json:"field,omitempty"`
	Rule    string `json:"rule,omitempty"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// Unwrap exposes the internal cause (store errors) for logging. It is never serialized.
func (e *AppError) Unwrap() error {
	return e.cause
}

// Is matches on Code, so errors.Is(err, ErrNotFoundOrUnauthorized) works for
// any instance carrying that code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	return ok && t.Code == e.Code
}

type ErrorResponse struct {
	Error *AppError `json:"error"`
}

// Sentinels for errors.Is.
var (
	ErrValidation             = &AppError{Code: CodeValidation}
	ErrUnknownResourceType    = &AppError{Code: CodeUnknownResourceType}
	ErrNoUpdateFields         = &AppError{Code: CodeNoUpdateFields}
	ErrNotFoundOrUnauthorized = &AppError{Code: CodeNotFound}
	ErrStore                  = &AppError{Code: CodeStore}
	ErrUnauthorized           = &AppError{Code: CodeUnauthorized}
)

func NewAppError(code string, status int, msg string) *AppError {
	return &AppError{Code: code, Status: status, Message: msg}
}

// NotFoundError is the single outcome for a record that is missing or not
// visible to the caller. The message must not depend on which case applies.
func NotFoundError(label, id string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s %s not found or unauthorized", label, id),
	}
}

func UnknownResourceError(name string) *AppError {
	return &AppError{
		Code:    CodeUnknownResourceType,
		Status:  404,
		Message: fmt.Sprintf("Unknown resource type: %s", name),
	}
}

func NoUpdateFieldsError() *AppError {
	return &AppError{
		Code:    CodeNoUpdateFields,
		Status:  400,
		Message: "No update fields provided",
	}
}

func ValidationError(details []ErrorDetail) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Status:  422,
		Message: "Validation failed",
		Details: details,
	}
}

// StoreError hides the store failure behind a generic message; the cause is
// kept for logging only.
func StoreError(cause error) *AppError {
	return &AppError{
		Code:    CodeStore,
		Status:  500,
		Message: "Internal server error",
		cause:   cause,
	}
}

func UnauthorizedError(msg string) *AppError {
	return &AppError{
		Code:    CodeUnauthorized,
		Status:  401,
		Message: msg,
	}
}
