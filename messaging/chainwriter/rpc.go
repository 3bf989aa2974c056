package chainwriter

import (
	"bytes"
	"context"
	"math/big"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"orgmachine/orgmachine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RPCWriter sends writes to the local wallet service, which holds the signer
// and submits the transaction. One method, one request; the service answers
// with a tx hash or a decoded revert.
type RPCWriter struct {
	URL    string
	client *http.Client
}

func NewRPCWriter() *RPCWriter {
	return &RPCWriter{
		URL:    orgmachine.MakeOrGetConfig().GetString("walletRpc"),
		client: &http.Client{Timeout: 90 * time.Second},
	}
}

type rpcRequest struct {
	Method string      `json:"method"`
	Params interface{} `json:"params,omitempty"`
}

type rpcResponse struct {
	TxHash string `json:"txHash"`
	Error  *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Reason  string `json:"reason"`
	} `json:"error"`
}

func (w *RPCWriter) call(ctx context.Context, method string, params interface{}) Result {
	body, err := json.Marshal(rpcRequest{Method: method, Params: params})
	if err != nil {
		return Failed(&orgmachine.MutationError{Kind: orgmachine.ErrExternalRejection})
	}
	req, err := http.NewRequestWithContext(ctx, "POST", w.URL, bytes.NewReader(body))
	if err != nil {
		return Failed(&orgmachine.MutationError{Kind: orgmachine.ErrExternalRejection})
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		orgmachine.LogCLI("wallet rpc "+method+": "+err.Error(), 1)
		return Failed(&orgmachine.MutationError{
			Kind:        orgmachine.ErrExternalRejection,
			UserMessage: "The wallet service could not be reached.",
		})
	}
	defer resp.Body.Close()
	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		orgmachine.LogCLI("wallet rpc "+method+" returned garbage: "+err.Error(), 1)
		return Failed(&orgmachine.MutationError{Kind: orgmachine.ErrExternalRejection})
	}
	if decoded.Error != nil {
		reason := decoded.Error.Reason
		if reason == "" {
			reason = decoded.Error.Message
		}
		return Failed(DecodeRevert(decoded.Error.Code, reason))
	}
	orgmachine.LogCLI("wallet rpc "+method+" confirmed in "+decoded.TxHash, 4)
	return OK()
}

func (w *RPCWriter) CreateTask(ctx context.Context, p TaskParams) Result {
	return w.call(ctx, "task_create", p)
}

func (w *RPCWriter) ClaimTask(ctx context.Context, taskID string) Result {
	return w.call(ctx, "task_claim", map[string]string{"taskId": taskID})
}

func (w *RPCWriter) SubmitTask(ctx context.Context, taskID string, submission orgmachine.BlobHandle) Result {
	return w.call(ctx, "task_submit", map[string]string{"taskId": taskID, "submission": submission})
}

func (w *RPCWriter) CompleteTask(ctx context.Context, taskID string) Result {
	return w.call(ctx, "task_complete", map[string]string{"taskId": taskID})
}

func (w *RPCWriter) UpdateTask(ctx context.Context, p TaskParams) Result {
	return w.call(ctx, "task_update", p)
}

func (w *RPCWriter) CancelTask(ctx context.Context, taskID string) Result {
	return w.call(ctx, "task_cancel", map[string]string{"taskId": taskID})
}

func (w *RPCWriter) SubmitApplication(ctx context.Context, taskID string) Result {
	return w.call(ctx, "task_apply", map[string]string{"taskId": taskID})
}

func (w *RPCWriter) ApproveApplication(ctx context.Context, taskID string, applicant orgmachine.Address) Result {
	return w.call(ctx, "task_approveApplication", map[string]string{"taskId": taskID, "applicant": applicant})
}

func (w *RPCWriter) AssignTask(ctx context.Context, taskID string, assignee orgmachine.Address) Result {
	return w.call(ctx, "task_assign", map[string]string{"taskId": taskID, "assignee": assignee})
}

func (w *RPCWriter) CreateProject(ctx context.Context, p ProjectParams) Result {
	return w.call(ctx, "project_create", p)
}

func (w *RPCWriter) DeleteProject(ctx context.Context, projectID string) Result {
	return w.call(ctx, "project_delete", map[string]string{"projectId": projectID})
}

func (w *RPCWriter) CreateProposal(ctx context.Context, p ProposalParams) Result {
	return w.call(ctx, "proposal_create", p)
}

func (w *RPCWriter) CastVote(ctx context.Context, p VoteParams) Result {
	return w.call(ctx, "proposal_vote", p)
}

func (w *RPCWriter) AnnounceWinner(ctx context.Context, proposalID int64) Result {
	return w.call(ctx, "proposal_announceWinner", map[string]int64{"proposalId": proposalID})
}

func (w *RPCWriter) CreateModule(ctx context.Context, info orgmachine.BlobHandle, payout *big.Int) Result {
	return w.call(ctx, "module_create", map[string]interface{}{"info": info, "payout": payout.String()})
}

func (w *RPCWriter) CompleteModule(ctx context.Context, moduleID string, answers orgmachine.BlobHandle) Result {
	return w.call(ctx, "module_complete", map[string]string{"moduleId": moduleID, "answers": answers})
}

func (w *RPCWriter) CreateTokenRequest(ctx context.Context, p TokenRequestParams) Result {
	return w.call(ctx, "tokenRequest_create", map[string]string{"token": p.Token, "amount": p.Amount.String()})
}

func (w *RPCWriter) ApproveTokenRequest(ctx context.Context, requestID string) Result {
	return w.call(ctx, "tokenRequest_approve", map[string]string{"requestId": requestID})
}

func (w *RPCWriter) CancelTokenRequest(ctx context.Context, requestID string) Result {
	return w.call(ctx, "tokenRequest_cancel", map[string]string{"requestId": requestID})
}

func (w *RPCWriter) JoinOrg(ctx context.Context) Result {
	return w.call(ctx, "org_join", nil)
}

func (w *RPCWriter) UpdateOrgMetadata(ctx context.Context, metadata orgmachine.BlobHandle) Result {
	return w.call(ctx, "org_updateMetadata", map[string]string{"metadata": metadata})
}

func (w *RPCWriter) ClaimRole(ctx context.Context, hat orgmachine.HatID) Result {
	return w.call(ctx, "role_claim", map[string]string{"hatId": hat})
}

func (w *RPCWriter) Vouch(ctx context.Context, candidate orgmachine.Address, hat orgmachine.HatID) Result {
	return w.call(ctx, "role_vouch", map[string]string{"candidate": candidate, "hatId": hat})
}

func (w *RPCWriter) RevokeVouch(ctx context.Context, candidate orgmachine.Address, hat orgmachine.HatID) Result {
	return w.call(ctx, "role_revokeVouch", map[string]string{"candidate": candidate, "hatId": hat})
}

func (w *RPCWriter) RegisterAccount(ctx context.Context, username string) Result {
	return w.call(ctx, "account_register", map[string]string{"username": username})
}

func (w *RPCWriter) ChangeUsername(ctx context.Context, username string) Result {
	return w.call(ctx, "account_changeUsername", map[string]string{"username": username})
}

var _ Writer = (*RPCWriter)(nil)
