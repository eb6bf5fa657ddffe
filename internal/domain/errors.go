package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrStoreUnavailable means the durable store is unreachable. The
	// current cycle aborts and is retried on the next trigger.
	ErrStoreUnavailable = errors.New("review store unavailable")
)

// SkipError marks a single malformed record an adapter dropped. It is a
// value, not control flow: adapters log it and continue the page.
type SkipError struct {
	Reason string
}

func (e *SkipError) Error() string { return "skip record: " + e.Reason }

func Skip(format string, args ...any) *SkipError {
	return &SkipError{Reason: fmt.Sprintf(format, args...)}
}

// IsSkip reports whether err is a per-record skip rather than a fetch
// failure.
func IsSkip(err error) bool {
	var se *SkipError
	return errors.As(err, &se)
}
