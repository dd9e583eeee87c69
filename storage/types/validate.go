package types

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError is returned for malformed quotes, before they reach storage
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid quote %s: %s", e.Field, e.Reason)
}

// Validate checks the quote fields required for storage
func (q *Quote) Validate() error {
	if q == nil {
		return &ValidationError{Field: "quote", Reason: "missing"}
	}

	if strings.TrimSpace(q.Provider) == "" {
		return &ValidationError{Field: "provider", Reason: "must not be empty"}
	}

	if !IsCountryCode(NormalizeCode(q.Origin)) {
		return &ValidationError{Field: "origin", Reason: "must be a 2-letter country code"}
	}

	if !IsCountryCode(NormalizeCode(q.Destination)) {
		return &ValidationError{Field: "destination", Reason: "must be a 2-letter country code"}
	}

	if !q.SendAmount.IsPositive() {
		return &ValidationError{Field: "send_amount", Reason: "must be positive"}
	}

	if q.Fee.IsNegative() {
		return &ValidationError{Field: "fee", Reason: "must not be negative"}
	}

	if !q.ExchangeRate.IsPositive() {
		return &ValidationError{Field: "exchange_rate", Reason: "must be positive"}
	}

	if q.RecipientReceives.IsNegative() {
		return &ValidationError{Field: "recipient_receives", Reason: "must not be negative"}
	}

	if q.Timestamp.IsZero() {
		return &ValidationError{Field: "timestamp", Reason: "must be set"}
	}

	return nil
}

// PrepareQuote validates the quote and returns the copy that gets stored:
// codes normalized, timestamp in UTC at microsecond precision (the finest
// every store keeps) and the total cost derived.
// The ID is left for the store to assign
func PrepareQuote(q *Quote) (*Quote, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	prepared := *q
	prepared.ID = 0
	prepared.Provider = strings.TrimSpace(q.Provider)
	prepared.Origin = NormalizeCode(q.Origin)
	prepared.Destination = NormalizeCode(q.Destination)
	prepared.Timestamp = q.Timestamp.UTC().Truncate(time.Microsecond)
	prepared.TotalCost = q.SendAmount.Add(q.Fee)

	return &prepared, nil
}

// IsCountryCode reports whether the (normalized) code is
// an ISO 3166 alpha-2 country code: exactly two letters A-Z
func IsCountryCode(code string) bool {
	if len(code) != 2 {
		return false
	}

	for i := 0; i < len(code); i++ {
		if code[i] < 'A' || code[i] > 'Z' {
			return false
		}
	}

	return true
}
