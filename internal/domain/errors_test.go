package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "error without wrapped error",
			appErr:   ErrWorkerNotFound,
			expected: "Worker not found",
		},
		{
			name: "error with wrapped error",
			appErr: &AppError{
				Code:       "TEST_ERROR",
				Message:    "Test message",
				StatusCode: 500,
				Err:        errors.New("underlying error"),
			},
			expected: "Test message: underlying error",
		},
		{
			name:     "external failure carries reason",
			appErr:   ErrExternalSystem.WithError(errors.New("create person: code 128 person exists")),
			expected: "external system call failed: create person: code 128 person exists",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	underlying := errors.New("underlying error")
	appErr := &AppError{
		Code:       "TEST",
		Message:    "test",
		StatusCode: 500,
		Err:        underlying,
	}

	if got := appErr.Unwrap(); got != underlying {
		t.Errorf("Unwrap() = %v, want %v", got, underlying)
	}

	// Test with nil error
	appErrNoWrap := ErrWorkerNotFound
	if got := appErrNoWrap.Unwrap(); got != nil {
		t.Errorf("Unwrap() = %v, want nil", got)
	}
}

func TestAppError_WithError(t *testing.T) {
	underlying := errors.New("db connection failed")
	newErr := ErrInternal.WithError(underlying)

	if newErr.Code != ErrInternal.Code {
		t.Errorf("Code = %v, want %v", newErr.Code, ErrInternal.Code)
	}

	if newErr.StatusCode != ErrInternal.StatusCode {
		t.Errorf("StatusCode = %v, want %v", newErr.StatusCode, ErrInternal.StatusCode)
	}

	if newErr.Err != underlying {
		t.Errorf("Err = %v, want %v", newErr.Err, underlying)
	}

	// Check errors.Is still works
	if !errors.Is(newErr, underlying) {
		t.Errorf("errors.Is should return true for wrapped error")
	}
}

func TestAppError_IsMatchesSentinelByCode(t *testing.T) {
	err := fmt.Errorf("update person: %w", ErrExternalSystem.WithError(errors.New("timeout")))

	if !errors.Is(err, ErrExternalSystem) {
		t.Errorf("errors.Is should match the sentinel through WithError and wrapping")
	}
	if errors.Is(err, ErrInvalidEvent) {
		t.Errorf("errors.Is should not match a different code")
	}
}

func TestErrorsAs(t *testing.T) {
	err := ErrWorkerNotFound.WithError(errors.New("not in db"))

	var appErr *AppError
	if !errors.As(err, &appErr) {
		t.Errorf("errors.As should match AppError")
	}

	if appErr.Code != "WORKER_NOT_FOUND" {
		t.Errorf("Code = %v, want WORKER_NOT_FOUND", appErr.Code)
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err        *AppError
		code       string
		statusCode int
	}{
		{ErrInternal, "INTERNAL_ERROR", 500},
		{ErrBadRequest, "BAD_REQUEST", 400},
		{ErrUnauthorized, "UNAUTHORIZED", 401},
		{ErrNotFound, "NOT_FOUND", 404},
		{ErrPassInProgress, "PASS_IN_PROGRESS", 409},
		{ErrInvalidEvent, "INVALID_EVENT", 422},
		{ErrExternalSystem, "EXTERNAL_SYSTEM_FAILURE", 502},
		{ErrNotFoundLocally, "NOT_FOUND_LOCALLY", 404},
		{ErrWorkerNotFound, "WORKER_NOT_FOUND", 404},
		{ErrWorkerExists, "WORKER_ALREADY_EXISTS", 409},
		{ErrBiometricUnavailable, "BIOMETRIC_UNAVAILABLE", 502},
		{ErrInvalidImage, "INVALID_IMAGE", 422},
		{ErrNoFaceDetected, "NO_FACE_DETECTED", 422},
		{ErrMultipleFaces, "MULTIPLE_FACES", 422},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Code != tt.code {
				t.Errorf("Code = %v, want %v", tt.err.Code, tt.code)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %v, want %v", tt.err.StatusCode, tt.statusCode)
			}
		})
	}
}
