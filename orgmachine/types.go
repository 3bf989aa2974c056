package orgmachine

// Address is a lowercased 0x-prefixed 20 byte account address.
type Address = string

// OrgID is the 32 byte opaque organization identifier derived from registration.
type OrgID = string

// HatID is a role-token identifier. Always pass these through NormalizeHatID
// before comparing; the indexer is inconsistent about hex casing.
type HatID = string

// BlobHandle is a base58 CIDv0 ("Qm...") or the empty string for "no blob".
type BlobHandle = string

type MembershipState int

const (
	MembershipActive MembershipState = iota
	MembershipInactive
	MembershipRevoked
)

func (m MembershipState) String() string {
	switch m {
	case MembershipActive:
		return "active"
	case MembershipInactive:
		return "inactive"
	case MembershipRevoked:
		return "revoked"
	}
	return "unknown"
}

type TaskStatus int

const (
	TaskOpen TaskStatus = iota
	TaskAssigned
	TaskSubmitted
	TaskCompleted
	TaskCancelled
)

func (t TaskStatus) String() string {
	switch t {
	case TaskOpen:
		return "open"
	case TaskAssigned:
		return "assigned"
	case TaskSubmitted:
		return "submitted"
	case TaskCompleted:
		return "completed"
	case TaskCancelled:
		return "cancelled"
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed from this status.
func (t TaskStatus) Terminal() bool {
	return t == TaskCompleted || t == TaskCancelled
}

// CanTransition encodes the task DAG: Open → Assigned → Submitted → Completed,
// plus Cancelled from any non-terminal state.
func (t TaskStatus) CanTransition(to TaskStatus) bool {
	if t.Terminal() {
		return false
	}
	if to == TaskCancelled {
		return true
	}
	switch t {
	case TaskOpen:
		return to == TaskAssigned
	case TaskAssigned:
		return to == TaskSubmitted
	case TaskSubmitted:
		return to == TaskCompleted
	}
	return false
}

type ProposalStatus int

const (
	ProposalActive ProposalStatus = iota
	ProposalPassed
	ProposalFailed
	ProposalExecuted
)

func (p ProposalStatus) String() string {
	switch p {
	case ProposalActive:
		return "active"
	case ProposalPassed:
		return "passed"
	case ProposalFailed:
		return "failed"
	case ProposalExecuted:
		return "executed"
	}
	return "unknown"
}

type Difficulty string

const (
	DifficultyEasy     Difficulty = "easy"
	DifficultyMedium   Difficulty = "medium"
	DifficultyHard     Difficulty = "hard"
	DifficultyVeryHard Difficulty = "veryHard"
)

type DistributionStatus int

const (
	DistributionActive DistributionStatus = iota
	DistributionFinalized
)
