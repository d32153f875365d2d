package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches any AppError carrying the same code, so errors built with
// WithError still satisfy errors.Is against the sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrUnauthorized = &AppError{
		Code:       "UNAUTHORIZED",
		Message:    "Invalid or missing API token",
		StatusCode: 401,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrPassInProgress = &AppError{
		Code:       "PASS_IN_PROGRESS",
		Message:    "A reconciliation pass is already running",
		StatusCode: 409,
	}

	// Reconciliation errors

	ErrInvalidEvent = &AppError{
		Code:       "INVALID_EVENT",
		Message:    "invalid event",
		StatusCode: 422,
	}

	ErrExternalSystem = &AppError{
		Code:       "EXTERNAL_SYSTEM_FAILURE",
		Message:    "external system call failed",
		StatusCode: 502,
	}

	ErrNotFoundLocally = &AppError{
		Code:       "NOT_FOUND_LOCALLY",
		Message:    "worker is not provisioned locally",
		StatusCode: 404,
	}

	ErrWorkerNotFound = &AppError{
		Code:       "WORKER_NOT_FOUND",
		Message:    "Worker not found",
		StatusCode: 404,
	}

	ErrWorkerExists = &AppError{
		Code:       "WORKER_ALREADY_EXISTS",
		Message:    "Worker already registered for this national id",
		StatusCode: 409,
	}

	// Biometric errors

	ErrBiometricUnavailable = &AppError{
		Code:       "BIOMETRIC_UNAVAILABLE",
		Message:    "biometric processing failed",
		StatusCode: 502,
	}

	ErrInvalidImage = &AppError{
		Code:       "INVALID_IMAGE",
		Message:    "Invalid image format or corrupted file",
		StatusCode: 422,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in the image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, please provide image with single face",
		StatusCode: 422,
	}
)
