// Package chainwriter is the write side: every mutation the dashboard can
// perform maps 1:1 to a typed method here. The mutation engine is the only
// caller; scopes never write. The concrete implementation signs and sends
// transactions through the connected wallet, so everything in this package
// returns a Result rather than panicking.
package chainwriter

import (
	"context"
	"math/big"

	"orgmachine/orgmachine"
)

// Result is what every write returns. Err is nil iff Success.
type Result struct {
	Success bool
	Err     *orgmachine.MutationError
}

func OK() Result {
	return Result{Success: true}
}

func Failed(err *orgmachine.MutationError) Result {
	return Result{Err: err}
}

type TaskParams struct {
	ProjectID           string
	TaskID              string
	Metadata            orgmachine.BlobHandle
	Payout              int64
	BountyToken         orgmachine.Address
	BountyAmount        *big.Int
	RequiresApplication bool
}

type ProjectParams struct {
	ProjectID   string
	Title       string
	Metadata    orgmachine.BlobHandle
	BudgetCap   *big.Int
	Managers    []orgmachine.Address
	Permissions map[orgmachine.HatID]PermissionMask
}

type PermissionMask struct {
	CanCreate bool
	CanClaim  bool
	CanReview bool
	CanAssign bool
}

type ProposalParams struct {
	Title           string
	DescriptionHash orgmachine.BlobHandle
	Start           int64
	End             int64
	NumOptions      int
	RestrictedHats  []orgmachine.HatID
	Batches         [][]Call
}

type Call struct {
	Target   orgmachine.Address
	Value    *big.Int
	Calldata []byte
}

type VoteParams struct {
	ProposalID int64
	Options    []int
	Weights    []int64
}

type TokenRequestParams struct {
	Token  orgmachine.Address
	Amount *big.Int
}

// Writer is the full write surface. Each method corresponds to exactly one
// refresh event; the engine emits that event after the method resolves
// successfully.
type Writer interface {
	// task domain
	CreateTask(ctx context.Context, p TaskParams) Result
	ClaimTask(ctx context.Context, taskID string) Result
	SubmitTask(ctx context.Context, taskID string, submission orgmachine.BlobHandle) Result
	CompleteTask(ctx context.Context, taskID string) Result
	UpdateTask(ctx context.Context, p TaskParams) Result
	CancelTask(ctx context.Context, taskID string) Result
	SubmitApplication(ctx context.Context, taskID string) Result
	ApproveApplication(ctx context.Context, taskID string, applicant orgmachine.Address) Result
	AssignTask(ctx context.Context, taskID string, assignee orgmachine.Address) Result

	// project domain
	CreateProject(ctx context.Context, p ProjectParams) Result
	DeleteProject(ctx context.Context, projectID string) Result

	// voting domain
	CreateProposal(ctx context.Context, p ProposalParams) Result
	CastVote(ctx context.Context, p VoteParams) Result
	AnnounceWinner(ctx context.Context, proposalID int64) Result

	// education domain
	CreateModule(ctx context.Context, info orgmachine.BlobHandle, payout *big.Int) Result
	CompleteModule(ctx context.Context, moduleID string, answers orgmachine.BlobHandle) Result

	// token-request domain
	CreateTokenRequest(ctx context.Context, p TokenRequestParams) Result
	ApproveTokenRequest(ctx context.Context, requestID string) Result
	CancelTokenRequest(ctx context.Context, requestID string) Result

	// organization domain
	JoinOrg(ctx context.Context) Result
	UpdateOrgMetadata(ctx context.Context, metadata orgmachine.BlobHandle) Result

	// role domain
	ClaimRole(ctx context.Context, hat orgmachine.HatID) Result
	Vouch(ctx context.Context, candidate orgmachine.Address, hat orgmachine.HatID) Result
	RevokeVouch(ctx context.Context, candidate orgmachine.Address, hat orgmachine.HatID) Result

	// account domain
	RegisterAccount(ctx context.Context, username string) Result
	ChangeUsername(ctx context.Context, username string) Result
}
