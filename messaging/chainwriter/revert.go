package chainwriter

import (
	"strings"

	"orgmachine/orgmachine"
)

// Wallet providers report a user-cancelled prompt with this code.
const UserRejectedCode = 4001

// Known contract revert reasons, mapped to messages a user can act on. Reasons
// not in this table surface as-is: the raw decoded string is still better than
// a generic failure.
var revertCatalog = map[string]string{
	"NotOpen":            "This task has already been claimed.",
	"AlreadyClaimed":     "This task has already been claimed.",
	"NotAssignee":        "Only the assignee can submit this task.",
	"NotReviewer":        "You must be an executive to complete the review.",
	"BudgetExceeded":     "This would exceed the project's budget cap.",
	"VotingClosed":       "Voting on this proposal has ended.",
	"AlreadyVoted":       "You have already voted on this proposal.",
	"WinnerAnnounced":    "The winner of this proposal has already been announced.",
	"NotWearer":          "You do not hold the required role.",
	"AlreadyVouched":     "You have already vouched for this candidate.",
	"NotVoucher":         "Only the original voucher can revoke a vouch.",
	"UsernameTaken":      "That username is already taken.",
	"InsufficientFunds":  "The treasury does not hold enough of that token.",
	"NotApprover":        "You are not an approver for this token.",
}

// DecodeRevert classifies a transaction failure into the error taxonomy. A
// user-rejected prompt keeps its provider code; a decoded revert reason is
// looked up in the catalog, falling back to the raw reason.
func DecodeRevert(code int, reason string) *orgmachine.MutationError {
	if code == UserRejectedCode {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrExternalRejection,
			UserMessage: "You rejected the transaction in your wallet.",
			Code:        code,
		}
	}
	reason = strings.TrimSpace(reason)
	if message, known := revertCatalog[reason]; known {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrExternalRejection,
			UserMessage: message,
			Code:        code,
		}
	}
	return &orgmachine.MutationError{
		Kind:        orgmachine.ErrExternalRejection,
		UserMessage: reason,
		Code:        code,
	}
}
