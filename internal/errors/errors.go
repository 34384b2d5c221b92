// internal/errors/errors.go
package errors

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Sentinel errors for the matchmaking pipeline. Queue handlers branch on these
// instead of inspecting storage-layer errors directly.
var (
	// ErrNotFound: user or profile absent where an operation assumes presence.
	// Handlers log and drop the unit of work, never crash the worker.
	ErrNotFound = errors.New("record not found")

	// ErrTimeout: the data store did not answer within the handler deadline.
	ErrTimeout = errors.New("request timed out")

	// ErrCanceled: the worker is shutting down mid-operation.
	ErrCanceled = errors.New("request was canceled")
)

// Map converts repo/infra errors into pipeline sentinels.
// Keeps service layer clean by centralizing error mapping.
func Map(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound

	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout

	case errors.Is(err, context.Canceled):
		return ErrCanceled

	default:
		return err
	}
}

// NotFoundf wraps ErrNotFound with detail about what was missing.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, ErrNotFound)...)
}
