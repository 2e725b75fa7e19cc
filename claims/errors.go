package claims

import (
	"errors"
	"fmt"
)

// Every way a transition can fail gets its own error so the HTTP layer
// can tell the caller exactly why a claim did not move.
var (
	ErrNotFound               = errors.New("claim not found")
	ErrForbidden              = errors.New("role is not permitted to perform this action")
	ErrInvalidState           = errors.New("claim is not in an eligible state for this action")
	ErrMissingReason          = errors.New("rejection reason is required")
	ErrSameActor              = errors.New("claims cannot be processed by their owner")
	ErrDuplicatePeriod        = errors.New("a claim for this period has already been submitted")
	ErrAmountOverLimit        = errors.New("claims over the final approval limit require additional review")
	ErrValidationFailed       = errors.New("claim failed eligibility checks")
	ErrConcurrentModification = errors.New("claim was modified by another request")
)

type ValidationReason string

const (
	ReasonInvalidWorkload  ValidationReason = "INVALID_WORKLOAD"
	ReasonInvalidRate      ValidationReason = "INVALID_RATE"
	ReasonAmountMismatch   ValidationReason = "AMOUNT_MISMATCH"
	ReasonMissingDocuments ValidationReason = "MISSING_DOCUMENTS"
)

// ValidationError identifies which eligibility rule a claim violated.
// It matches errors.Is(err, ErrValidationFailed).
type ValidationError struct {
	Reason  ValidationReason
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("claim failed eligibility checks: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
