package claims

import "cmcs/models"

// Action identifies one transition of the claim state machine.
type Action string

const (
	ActionSubmit             Action = "submit"
	ActionCoordinatorApprove Action = "coordinator_approve"
	ActionCoordinatorReject  Action = "coordinator_reject"
	ActionFinalApprove       Action = "final_approve"
	ActionFinalReject        Action = "final_reject"
	ActionApprove            Action = "approve"
	ActionReject             Action = "reject"
)

// actionRoles is the single place role permissions live; handlers do not
// repeat these checks beyond their route-level guards.
var actionRoles = map[Action][]models.Role{
	ActionSubmit:             {models.RoleLecturer},
	ActionCoordinatorApprove: {models.RoleCoordinator, models.RoleAdministrator},
	ActionCoordinatorReject:  {models.RoleCoordinator, models.RoleAdministrator},
	ActionFinalApprove:       {models.RoleManager, models.RoleAdministrator},
	ActionFinalReject:        {models.RoleManager, models.RoleAdministrator},
	ActionApprove:            {models.RoleManager, models.RoleAdministrator},
	ActionReject:             {models.RoleManager, models.RoleAdministrator},
}

// actionSources lists the states a claim may be in for the action to
// apply. Approved and Rejected are terminal and appear nowhere.
var actionSources = map[Action][]models.ClaimStatus{
	ActionCoordinatorApprove: {models.StatusPending},
	ActionCoordinatorReject:  {models.StatusPending},
	ActionFinalApprove:       {models.StatusPending, models.StatusCoordinatorApproved},
	ActionFinalReject:        {models.StatusPending, models.StatusCoordinatorApproved},
	ActionApprove:            {models.StatusPending, models.StatusCoordinatorApproved},
	ActionReject:             {models.StatusPending, models.StatusCoordinatorApproved},
}

func (a Action) AllowedFor(role models.Role) bool {
	for _, r := range actionRoles[a] {
		if r == role {
			return true
		}
	}
	return false
}

func (a Action) EligibleFrom(status models.ClaimStatus) bool {
	for _, s := range actionSources[a] {
		if s == status {
			return true
		}
	}
	return false
}

func (a Action) rejects() bool {
	return a == ActionCoordinatorReject || a == ActionFinalReject || a == ActionReject
}

// target returns the state the action moves a claim into.
func (a Action) target() models.ClaimStatus {
	switch a {
	case ActionCoordinatorApprove:
		return models.StatusCoordinatorApproved
	case ActionFinalApprove, ActionApprove:
		return models.StatusApproved
	default:
		return models.StatusRejected
	}
}
