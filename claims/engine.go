package claims

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"cmcs/models"
)

// Store is the transactional claim store the engine runs against.
// ApplyTransition must re-check that the claim is still in the state it
// was read in and fail with ErrConcurrentModification otherwise, so a
// lost update can never overwrite a concurrent transition.
type Store interface {
	LoadClaim(ctx context.Context, id uint) (*models.Claim, error)
	CreateClaim(ctx context.Context, claim *models.Claim) error
	HasClaimForPeriod(ctx context.Context, userID uint, period string) (bool, error)
	ApplyTransition(ctx context.Context, claim *models.Claim, from models.ClaimStatus) error
}

// Notifier delivers an in-app notification to a user. Failures are the
// caller's problem to log, never to propagate: by the time a
// notification is sent the transition has already committed.
type Notifier interface {
	Notify(ctx context.Context, recipientID uint, message string, severity models.NotificationType) error
}

// Engine is the claim lifecycle state machine. All claim mutations in
// the system go through it.
type Engine struct {
	store    Store
	notifier Notifier
	logger   *slog.Logger
}

func NewEngine(store Store, notifier Notifier, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, notifier: notifier, logger: logger}
}

type SubmitInput struct {
	Period      string
	Workload    float64
	Description string
}

// Submit creates a new Pending claim owned by the actor. The hourly rate
// is snapshotted from the actor's HR record; later rate changes never
// touch existing claims.
func (e *Engine) Submit(ctx context.Context, actor *models.User, in SubmitInput) (*models.Claim, error) {
	if !ActionSubmit.AllowedFor(actor.Role) {
		return nil, ErrForbidden
	}
	if in.Workload <= 0 || in.Workload > SubmissionMaxWorkload {
		return nil, &ValidationError{
			Reason:  ReasonInvalidWorkload,
			Message: fmt.Sprintf("workload must be between 0 and %.0f hours", SubmissionMaxWorkload),
		}
	}
	if actor.HourlyRate <= 0 || actor.HourlyRate > MaxHourlyRate {
		return nil, &ValidationError{
			Reason:  ReasonInvalidRate,
			Message: "hourly rate is outside the acceptable range",
		}
	}

	exists, err := e.store.HasClaimForPeriod(ctx, actor.ID, in.Period)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicatePeriod
	}

	claim := &models.Claim{
		UserID:      actor.ID,
		Period:      in.Period,
		Workload:    in.Workload,
		HourlyRate:  actor.HourlyRate,
		Amount:      in.Workload * actor.HourlyRate,
		Description: in.Description,
		Status:      models.StatusPending,
		SubmitDate:  time.Now(),
	}
	if err := e.store.CreateClaim(ctx, claim); err != nil {
		return nil, err
	}

	e.notify(ctx, claim, ActionSubmit)
	return claim, nil
}

func (e *Engine) CoordinatorApprove(ctx context.Context, actor *models.User, claimID uint) (*models.Claim, error) {
	return e.apply(ctx, actor, ActionCoordinatorApprove, claimID, "")
}

func (e *Engine) CoordinatorReject(ctx context.Context, actor *models.User, claimID uint, reason string) (*models.Claim, error) {
	return e.apply(ctx, actor, ActionCoordinatorReject, claimID, reason)
}

func (e *Engine) FinalApprove(ctx context.Context, actor *models.User, claimID uint) (*models.Claim, error) {
	return e.apply(ctx, actor, ActionFinalApprove, claimID, "")
}

func (e *Engine) FinalReject(ctx context.Context, actor *models.User, claimID uint, reason string) (*models.Claim, error) {
	return e.apply(ctx, actor, ActionFinalReject, claimID, reason)
}

// Approve is the single-stage path used where the coordinator gate is
// skipped entirely.
func (e *Engine) Approve(ctx context.Context, actor *models.User, claimID uint) (*models.Claim, error) {
	return e.apply(ctx, actor, ActionApprove, claimID, "")
}

func (e *Engine) Reject(ctx context.Context, actor *models.User, claimID uint, reason string) (*models.Claim, error) {
	return e.apply(ctx, actor, ActionReject, claimID, reason)
}

// apply runs one transition: role gate, load, separation-of-duties gate,
// state gate, per-action policy and eligibility checks, then a
// conditional write keyed on the state that was read. On any failure the
// claim is left untouched.
func (e *Engine) apply(ctx context.Context, actor *models.User, action Action, claimID uint, reason string) (*models.Claim, error) {
	if !action.AllowedFor(actor.Role) {
		return nil, ErrForbidden
	}
	reason = strings.TrimSpace(reason)
	if action.rejects() && reason == "" {
		return nil, ErrMissingReason
	}

	claim, err := e.store.LoadClaim(ctx, claimID)
	if err != nil {
		return nil, err
	}
	if claim.UserID == actor.ID {
		return nil, ErrSameActor
	}
	if !action.EligibleFrom(claim.Status) {
		return nil, ErrInvalidState
	}

	switch action {
	case ActionCoordinatorApprove:
		if err := Verify(claim); err != nil {
			return nil, err
		}
	case ActionFinalApprove:
		if err := CheckFinalApprovalAmount(claim); err != nil {
			return nil, err
		}
		if err := Verify(claim); err != nil {
			return nil, err
		}
	}

	from := claim.Status
	now := time.Now()
	claim.Status = action.target()
	claim.ProcessedByUserID = &actor.ID
	claim.ProcessedDate = &now
	if action.rejects() {
		claim.RejectionReason = &reason
	} else {
		claim.RejectionReason = nil
		if claim.Status == models.StatusApproved {
			claim.ApprovalDate = &now
		}
	}

	if err := e.store.ApplyTransition(ctx, claim, from); err != nil {
		return nil, err
	}

	e.notify(ctx, claim, action)
	return claim, nil
}

// notify is best effort. The transition is already committed, so a
// notifier failure is logged and swallowed.
func (e *Engine) notify(ctx context.Context, claim *models.Claim, action Action) {
	if e.notifier == nil {
		return
	}

	var message string
	var severity models.NotificationType
	switch action {
	case ActionSubmit:
		message = fmt.Sprintf("New claim #%d submitted for %s. Amount: R %.2f", claim.ID, claim.Period, claim.Amount)
		severity = models.NotificationInfo
	case ActionCoordinatorApprove:
		message = fmt.Sprintf("Your claim #%d has been approved by coordinator and sent to manager for final approval", claim.ID)
		severity = models.NotificationSuccess
	case ActionFinalApprove, ActionApprove:
		message = fmt.Sprintf("Your claim #%d for %s has been approved. Amount: R %.2f", claim.ID, claim.Period, claim.Amount)
		severity = models.NotificationSuccess
	default:
		reason := ""
		if claim.RejectionReason != nil {
			reason = *claim.RejectionReason
		}
		message = fmt.Sprintf("Your claim #%d has been rejected. Reason: %s", claim.ID, reason)
		severity = models.NotificationError
	}

	if err := e.notifier.Notify(ctx, claim.UserID, message, severity); err != nil {
		e.logger.Warn("failed to send claim notification",
			"claim_id", claim.ID,
			"action", string(action),
			"error", err)
	}
}
