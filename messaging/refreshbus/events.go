// Package refreshbus is the typed publish/subscribe channel that lets a
// completed mutation trigger refetches in unrelated data scopes without the
// scopes ever importing each other.
package refreshbus

// Event tags form a fixed closed set. Subscribing to Wildcard matches all.
type Event string

const (
	TaskCreated             Event = "task:created"
	TaskClaimed             Event = "task:claimed"
	TaskSubmitted           Event = "task:submitted"
	TaskCompleted           Event = "task:completed"
	TaskUpdated             Event = "task:updated"
	TaskCancelled           Event = "task:cancelled"
	TaskApplicationSubmitted Event = "task:application_submitted"
	TaskApplicationApproved  Event = "task:application_approved"
	TaskAssigned            Event = "task:assigned"

	ProjectCreated Event = "project:created"
	ProjectDeleted Event = "project:deleted"

	ProposalCreated   Event = "proposal:created"
	ProposalVoted     Event = "proposal:voted"
	ProposalCompleted Event = "proposal:completed"

	ModuleCreated   Event = "module:created"
	ModuleCompleted Event = "module:completed"

	TokenRequestCreated   Event = "token:request_created"
	TokenRequestApproved  Event = "token:request_approved"
	TokenRequestCancelled Event = "token:request_cancelled"

	MemberJoined       Event = "member:joined"
	OrgMetadataUpdated Event = "org:metadataUpdated"

	RoleClaimed      Event = "role:claimed"
	RoleVouched      Event = "role:vouched"
	RoleVouchRevoked Event = "role:vouch-revoked"

	UserCreated         Event = "user:created"
	UserUsernameChanged Event = "user:username_changed"

	Wildcard Event = "*"
)
