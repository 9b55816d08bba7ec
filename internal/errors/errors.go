package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/daybook/internal/logger"
)

var (
	// ErrInvalidDateKey is returned for malformed or non-calendar date keys
	ErrInvalidDateKey = errors.New("invalid date key")
	// ErrFutureAccessDenied is returned when reading or writing a blocked (future) day
	ErrFutureAccessDenied = errors.New("future days cannot be accessed")
	// ErrEmptyUnlockReason is returned when an unlock is attempted without a reason
	ErrEmptyUnlockReason = errors.New("unlock reason cannot be empty")
	// ErrStoreUnavailable wraps transient failures reported by the durable store
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrPolicyViolation is returned when the configured unlock policy refuses an unlock
	ErrPolicyViolation = errors.New("policy violation")
	// ErrRecordLocked is returned when editing a day whose lock state forbids edits
	ErrRecordLocked = errors.New("day is locked")
	// ErrNotFound is returned when a task, habit or record does not exist
	ErrNotFound = errors.New("not found")
)

// Unavailable wraps a store I/O failure so callers can detect it with errors.Is.
func Unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// IsRetryable reports whether the caller should retry the failed operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits the program with exit code 1
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(1)
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(1)
}
