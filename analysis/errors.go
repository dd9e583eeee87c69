package analysis

import (
	"fmt"
	"strings"
)

// NotFoundError is returned when a destination (or the requested
// providers on it) has no quotes to analyze
type NotFoundError struct {
	Destination string
	Providers   []string
}

func (e *NotFoundError) Error() string {
	if len(e.Providers) > 0 {
		return fmt.Sprintf(
			"no quotes found for providers %s on destination %s",
			strings.Join(e.Providers, ", "),
			e.Destination,
		)
	}

	return fmt.Sprintf("no quotes found for destination %s", e.Destination)
}

// MissingRateError is returned when the alternative rate
// for a destination cannot be obtained
type MissingRateError struct {
	Err         error
	Destination string
}

func (e *MissingRateError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("alternative rate unavailable for destination %s", e.Destination)
	}

	return fmt.Sprintf("alternative rate unavailable for destination %s: %s", e.Destination, e.Err)
}

func (e *MissingRateError) Unwrap() error {
	return e.Err
}
