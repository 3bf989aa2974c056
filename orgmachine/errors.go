package orgmachine

import "fmt"

// ErrorKind is the closed taxonomy of mutation failures. Pre-submit kinds
// never touch the pending/success notification track and never trigger a
// revert because nothing was applied yet.
type ErrorKind int

const (
	ErrNetworkMismatch ErrorKind = iota
	ErrMembershipRequired
	ErrPermissionRequired
	ErrValidationFailure
	ErrConcurrentClaim
	ErrExternalRejection
	ErrIndexerLag
	ErrBlobFetchFailure
)

func (k ErrorKind) String() string {
	switch k {
	case ErrNetworkMismatch:
		return "NetworkMismatch"
	case ErrMembershipRequired:
		return "MembershipRequired"
	case ErrPermissionRequired:
		return "PermissionRequired"
	case ErrValidationFailure:
		return "ValidationFailure"
	case ErrConcurrentClaim:
		return "ConcurrentClaim"
	case ErrExternalRejection:
		return "ExternalRejection"
	case ErrIndexerLag:
		return "IndexerLag"
	case ErrBlobFetchFailure:
		return "BlobFetchFailure"
	}
	return "Unknown"
}

type MutationError struct {
	Kind ErrorKind

	// UserMessage is the prewritten catalog message for permission and
	// membership denials, or the decoded revert reason for rejections.
	UserMessage string

	// Field names the offending input for validation failures.
	Field string

	// Code is the wallet/provider error code for external rejections, when one
	// was reported.
	Code int
}

func (e *MutationError) Error() string {
	if e.UserMessage != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.UserMessage)
	}
	return e.Kind.String()
}

// PreSubmit reports whether this failure happens before anything was applied,
// meaning it bypasses the revert path and the pending notification track.
func (e *MutationError) PreSubmit() bool {
	switch e.Kind {
	case ErrNetworkMismatch, ErrMembershipRequired, ErrPermissionRequired,
		ErrValidationFailure, ErrConcurrentClaim:
		return true
	}
	return false
}

// Notice is what the notification pipeline shows for an error.
type Notice struct {
	Title       string
	Description string
}

// Describe is total over MutationError: every kind yields a usable notice.
func Describe(e *MutationError) Notice {
	if e == nil {
		return Notice{Title: "Error", Description: "Something went wrong. Please try again."}
	}
	switch e.Kind {
	case ErrNetworkMismatch:
		return Notice{Title: "Wrong Network", Description: "Your wallet is connected to the wrong network. Please switch networks and try again."}
	case ErrMembershipRequired:
		return Notice{Title: "Membership Required", Description: nonEmpty(e.UserMessage, "You must be a member of this organization to do that.")}
	case ErrPermissionRequired:
		return Notice{Title: "Permission Required", Description: nonEmpty(e.UserMessage, "You do not have permission to do that.")}
	case ErrValidationFailure:
		return Notice{Title: "Invalid Input", Description: nonEmpty(e.UserMessage, "Please check the highlighted field and try again.")}
	case ErrConcurrentClaim:
		return Notice{Title: "Claim In Progress", Description: "A claim for this task is already being processed."}
	case ErrExternalRejection:
		return Notice{Title: "Transaction Failed", Description: nonEmpty(e.UserMessage, "The transaction was rejected. No changes were made.")}
	case ErrIndexerLag:
		return Notice{Title: "Indexing", Description: "This data is still being indexed. It will appear shortly."}
	case ErrBlobFetchFailure:
		return Notice{Title: "Content Unavailable", Description: "Stored content could not be fetched right now."}
	}
	return Notice{Title: "Error", Description: "Something went wrong. Please try again."}
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}
