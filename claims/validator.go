package claims

import (
	"fmt"

	"cmcs/models"
)

// Verify checks that a claim is well-formed enough to be approved. It is
// pure: no side effects, and the result depends only on the claim passed
// in. Documents must already be loaded on the claim.
func Verify(claim *models.Claim) error {
	if claim.Workload <= 0 || claim.Workload > ReviewMaxWorkload {
		return &ValidationError{
			Reason:  ReasonInvalidWorkload,
			Message: fmt.Sprintf("workload must be between 0 and %.0f hours", ReviewMaxWorkload),
		}
	}
	if claim.HourlyRate <= 0 || claim.HourlyRate > MaxHourlyRate {
		return &ValidationError{
			Reason:  ReasonInvalidRate,
			Message: "hourly rate is outside the acceptable range",
		}
	}
	if claim.Amount != claim.Workload*claim.HourlyRate {
		return &ValidationError{
			Reason:  ReasonAmountMismatch,
			Message: "amount does not equal workload times hourly rate",
		}
	}
	if len(claim.Documents) == 0 {
		return &ValidationError{
			Reason:  ReasonMissingDocuments,
			Message: "supporting documents are required",
		}
	}
	return nil
}
