// Package permissions resolves a caller's role-token set against a project's
// permission matrix into capability booleans. Everything here is pure:
// evaluating twice with equal inputs yields equal outputs, and denial never
// panics; it surfaces as a typed MutationError with a catalog message.
package permissions

import (
	"orgmachine/orgmachine"
)

// Mask is the per-role permission row of a project.
type Mask struct {
	CanCreate bool
	CanClaim  bool
	CanReview bool
	CanAssign bool
}

// Matrix maps role id → mask. A nil or empty matrix means the project
// predates per-role permissions; see the fallback below.
type Matrix map[orgmachine.HatID]Mask

type Capability int

const (
	CapCreateTask Capability = iota
	CapClaimTask
	CapReviewTask
	CapAssignTask
	CapManageProjects
	CapVote
	CapApprove
	CapAdmin
)

// Set is the resolved capability bundle a view gates its actions on.
type Set struct {
	CanCreate  bool
	CanClaim   bool
	CanReview  bool
	CanAssign  bool
	CanVote    bool
	CanApprove bool
	IsAdmin    bool
}

// holdsNonMemberRole reports whether held contains any role at position >= 1
// in the org's ordered role list (index 0 is member, 1 is executive).
func holdsNonMemberRole(held []orgmachine.HatID, orgRoles []orgmachine.HatID) bool {
	for i, role := range orgRoles {
		if i == 0 {
			continue
		}
		for _, h := range held {
			if orgmachine.NormalizeHatID(h) == orgmachine.NormalizeHatID(role) {
				return true
			}
		}
	}
	return false
}

func capabilityGranted(held []orgmachine.HatID, matrix Matrix, orgRoles []orgmachine.HatID, pick func(Mask) bool) bool {
	if len(matrix) == 0 {
		// legacy projects created before per-role permissions were
		// configured grant everything to any non-member role
		return holdsNonMemberRole(held, orgRoles)
	}
	for _, h := range held {
		for role, mask := range matrix {
			if orgmachine.NormalizeHatID(h) == orgmachine.NormalizeHatID(role) && pick(mask) {
				return true
			}
		}
	}
	return false
}

func CanCreateTask(held []orgmachine.HatID, matrix Matrix, orgRoles []orgmachine.HatID) bool {
	return capabilityGranted(held, matrix, orgRoles, func(m Mask) bool { return m.CanCreate })
}

func CanClaimTask(held []orgmachine.HatID, matrix Matrix, orgRoles []orgmachine.HatID) bool {
	return capabilityGranted(held, matrix, orgRoles, func(m Mask) bool { return m.CanClaim })
}

func CanReviewTask(held []orgmachine.HatID, matrix Matrix, orgRoles []orgmachine.HatID) bool {
	return capabilityGranted(held, matrix, orgRoles, func(m Mask) bool { return m.CanReview })
}

func CanAssignTask(held []orgmachine.HatID, matrix Matrix, orgRoles []orgmachine.HatID) bool {
	return capabilityGranted(held, matrix, orgRoles, func(m Mask) bool { return m.CanAssign })
}

// CanManageProjects: explicit creator hats win; with no creator hats
// configured, any non-member role may manage, and when the org has zero
// projects anyone may bootstrap the first one.
func CanManageProjects(held []orgmachine.HatID, creatorHats []orgmachine.HatID, orgRoles []orgmachine.HatID, projectCount int) bool {
	if len(creatorHats) > 0 {
		return orgmachine.HatSetsIntersect(held, creatorHats)
	}
	if holdsNonMemberRole(held, orgRoles) {
		return true
	}
	return projectCount == 0
}

// IsOrgAdmin tests the configured metadata-admin role; orgs without one fall
// back to the top role.
func IsOrgAdmin(held []orgmachine.HatID, adminHat, topHat orgmachine.HatID) bool {
	target := adminHat
	if target == "" {
		target = topHat
	}
	if target == "" {
		return false
	}
	for _, h := range held {
		if orgmachine.NormalizeHatID(h) == orgmachine.NormalizeHatID(target) {
			return true
		}
	}
	return false
}

// Resolve computes the whole capability bundle for one project context.
func Resolve(held []orgmachine.HatID, matrix Matrix, orgRoles []orgmachine.HatID, votingHats []orgmachine.HatID, adminHat, topHat orgmachine.HatID, activeMember bool) Set {
	return Set{
		CanCreate:  CanCreateTask(held, matrix, orgRoles),
		CanClaim:   CanClaimTask(held, matrix, orgRoles),
		CanReview:  CanReviewTask(held, matrix, orgRoles),
		CanAssign:  CanAssignTask(held, matrix, orgRoles),
		CanVote:    activeMember && (len(votingHats) == 0 || orgmachine.HatSetsIntersect(held, votingHats)),
		CanApprove: len(votingHats) > 0 && orgmachine.HatSetsIntersect(held, votingHats),
		IsAdmin:    IsOrgAdmin(held, adminHat, topHat),
	}
}
