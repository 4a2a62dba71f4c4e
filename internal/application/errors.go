package application

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hromada-tools/backoffice/internal/domain"
)

// APPLICATION-LEVEL ERRORS (Orchestration)

type ServiceError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

const (
	ErrCodeValidation   = "VALIDATION_ERROR"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeRemoteTask   = "REMOTE_TASK_FAILED"
	ErrCodeInternal     = "INTERNAL_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeNotFound     = "NOT_FOUND"
)

// NewValidationError reports an unknown or malformed community name.
// Never retried automatically.
func NewValidationError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeValidation,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// NewTimeoutError reports that an RPC task exceeded its reply budget.
// The remote side may still complete independently.
func NewTimeoutError(task string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeTimeout,
		Message:    fmt.Sprintf("task %q timed out waiting for a reply", task),
		HTTPStatus: http.StatusRequestTimeout,
	}
}

// NewRemoteTaskError reports success=false from the remote worker.
func NewRemoteTaskError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeRemoteTask,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
	}
}

func NewInternalError(err error) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInternal,
		Message:    "An internal error occurred",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func NewInvalidInputError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string) *ServiceError {
	return &ServiceError{
		Code:       ErrCodeNotFound,
		Message:    message,
		HTTPStatus: http.StatusNotFound,
	}
}

func IsServiceError(err error) (*ServiceError, bool) {
	var svcErr *ServiceError
	ok := errors.As(err, &svcErr)
	return svcErr, ok
}

// ToHTTPStatus maps an error to the HTTP status the REST layer should emit.
func ToHTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.HTTPStatus
	}

	if taskErr, ok := IsTaskError(err); ok {
		if taskErr.Kind == TaskErrTimeout {
			return http.StatusRequestTimeout
		}
		return http.StatusInternalServerError
	}

	switch {
	case errors.Is(err, domain.ErrCommunityNotFound),
		errors.Is(err, domain.ErrTemplateNotFound):
		return http.StatusNotFound

	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return http.StatusRequestTimeout
	}

	return http.StatusInternalServerError
}

// ToErrorCode maps an error to a stable code for API responses.
func ToErrorCode(err error) string {
	if svcErr, ok := IsServiceError(err); ok {
		return svcErr.Code
	}

	if taskErr, ok := IsTaskError(err); ok {
		if taskErr.Kind == TaskErrTimeout {
			return ErrCodeTimeout
		}
		return ErrCodeInternal
	}

	if errors.Is(err, domain.ErrCommunityNotFound) {
		return "COMMUNITY_NOT_FOUND"
	}
	if errors.Is(err, domain.ErrTemplateNotFound) {
		return "TEMPLATE_NOT_FOUND"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}

	return ErrCodeInternal
}
