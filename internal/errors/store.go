package errors

import (
	"context"
	"errors"
	"fmt"
)

// MapStoreError maps document store failures to AppError instances.
// It handles the generic failure modes shared by every store backend:
// - Context timeouts/cancellations → Timeout/Canceled
// - Anything else → Internal
//
// Not-found sentinels are deliberately not handled here: only the caller
// knows which resource and id the lookup was for, so it translates those
// itself with NotFoundFrom before falling back to this mapping.
func MapStoreError(err error) error {
	if err == nil {
		return nil
	}

	// Already mapped errors pass through unchanged.
	var appErr *AppError
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return &AppError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out. Please try again.",
			Cause:   err,
		}
	}
	if errors.Is(err, context.Canceled) {
		return &AppError{
			Code:    ErrCodeCanceled,
			Message: "Request was canceled.",
			Cause:   err,
		}
	}

	return &AppError{
		Code:    ErrCodeInternal,
		Message: "A storage error occurred. Please try again.",
		Cause:   err,
	}
}

// NotFoundFrom creates a NotFound error with a formatted message while
// preserving the store sentinel as the cause.
func NotFoundFrom(err error, format string, args ...any) *AppError {
	return &AppError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf(format, args...),
		Cause:   err,
	}
}
