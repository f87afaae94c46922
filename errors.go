package datautils

import (
	"errors"
	"fmt"
)

var (
	// Runner errors.
	ErrRunnerClosed    = errors.New("datautils: runner closed")
	ErrNilJob          = errors.New("datautils: nil job")
	ErrInvalidSettings = errors.New("datautils: invalid runner settings")

	// Call-shaping errors.
	ErrNoInstances  = errors.New("datautils: no instances to distribute over")
	ErrInvalidLimit = errors.New("datautils: invalid rate limit")

	// Collaborator errors.
	ErrNotInitialized = errors.New("datautils: connection not initialized")
)

// IsError reports whether v is a real error value. Only values that
// implement the error interface and carry a non-empty message qualify;
// everything else has to be wrapped by AsError before it can be reported.
func IsError(v any) bool {
	err, ok := v.(error)
	if !ok || err == nil {
		return false
	}
	return err.Error() != ""
}

// AsError normalises an arbitrary value (typically the result of recover)
// into an error. Real errors are returned unchanged so that errors.Is and
// errors.As keep working on them.
func AsError(v any) error {
	if v == nil {
		return nil
	}
	if IsError(v) {
		return v.(error) //nolint:errcheck // checked by IsError
	}
	if err, ok := v.(error); ok {
		return fmt.Errorf("datautils: %T with empty message", err)
	}
	return fmt.Errorf("%v", v)
}
