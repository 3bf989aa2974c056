package permissions

import "orgmachine/orgmachine"

// The closed catalog of denial messages. Views never compose permission
// strings themselves; they show exactly these.
var denialMessages = map[Capability]string{
	CapCreateTask:     "You do not have permission to create tasks in this project.",
	CapClaimTask:      "You do not have permission to claim tasks in this project.",
	CapReviewTask:     "You must be an executive to complete the review.",
	CapAssignTask:     "You do not have permission to assign tasks in this project.",
	CapManageProjects: "You do not have permission to manage projects.",
	CapVote:           "You are not eligible to vote on this proposal.",
	CapApprove:        "You are not an approver for this token.",
	CapAdmin:          "Only an organization admin can do that.",
}

const membershipMessage = "You must be a member of this organization to do that."

// Deny builds the PermissionRequired error for a capability. Denial is a
// value, not a panic.
func Deny(c Capability) *orgmachine.MutationError {
	return &orgmachine.MutationError{
		Kind:        orgmachine.ErrPermissionRequired,
		UserMessage: denialMessages[c],
	}
}

// DenyMembership is the membership-gate variant.
func DenyMembership() *orgmachine.MutationError {
	return &orgmachine.MutationError{
		Kind:        orgmachine.ErrMembershipRequired,
		UserMessage: membershipMessage,
	}
}
