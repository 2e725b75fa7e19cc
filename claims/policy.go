package claims

import "cmcs/models"

// Policy constants. The submission cap (180) and the review cap (160)
// have never agreed in this system; both are kept as distinct named
// values rather than reconciled to one guess.
const (
	SubmissionMaxWorkload = 180.0
	ReviewMaxWorkload     = 160.0
	MaxHourlyRate         = 500.0
	FinalApprovalLimit    = 10000.0
)

// CheckFinalApprovalAmount is the large-claim business rule gating final
// approval. It is deliberately separate from Verify: the threshold is
// policy, not data integrity, and changes on its own schedule.
func CheckFinalApprovalAmount(claim *models.Claim) error {
	if claim.Amount > FinalApprovalLimit {
		return ErrAmountOverLimit
	}
	return nil
}
