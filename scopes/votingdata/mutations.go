package votingdata

import (
	"context"

	"orgmachine/engine/mutation"
	"orgmachine/messaging/chainwriter"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
	"orgmachine/votingpower"
)

// CastVoteMutation validates the ballot and builds the optimistic vote flow:
// the vote appears in the tallies immediately, the writer casts it, and the
// proposal:voted event refetches the real counts.
func CastVoteMutation(scope *scopes.Scope[Voting], writer chainwriter.Writer, proposal Proposal, me orgmachine.Address, weights map[int]int64, orgName string) (mutation.Mutation, *orgmachine.MutationError) {
	if err := proposal.ValidateBallot(weights); err != nil {
		return mutation.Mutation{}, err
	}
	options := make([]int, 0, len(weights))
	flat := make([]int64, 0, len(weights))
	for option, weight := range weights {
		options = append(options, option)
		flat = append(flat, weight)
	}
	return mutation.Mutation{
		Scope: scope,
		Apply: func() {
			if current, ok := scope.Data(); ok {
				scope.Replace(withVote(current, proposal.ID, votingpower.Vote{Voter: me, Weights: weights}))
			}
		},
		Submit: func(ctx context.Context) chainwriter.Result {
			return writer.CastVote(ctx, chainwriter.VoteParams{
				ProposalID: proposal.ID,
				Options:    options,
				Weights:    flat,
			})
		},
		Notify: mutation.Notify{
			Title:   "Cast Vote",
			Pending: "Casting your vote...",
			Success: "Vote cast.",
			Error:   "Error casting vote",
		},
		RefreshEvent: refreshbus.ProposalVoted,
		RefreshData:  map[string]interface{}{"proposalId": proposal.ID},
		Route:        mutation.ProposalDeepLink(proposal.Title, orgName),
	}, nil
}

// withVote returns a copy of the voting view with the vote appended to the
// matching proposal. Only the touched slices are copied; proposals are value
// structs so the indexed snapshot underneath stays untouched.
func withVote(v Voting, proposalID int64, vote votingpower.Vote) Voting {
	if v.Hybrid != nil {
		hybrid := *v.Hybrid
		hybrid.Proposals = appendVote(hybrid.Proposals, proposalID, vote)
		v.Hybrid = &hybrid
	}
	if v.Direct != nil {
		direct := *v.Direct
		direct.Proposals = appendVote(direct.Proposals, proposalID, vote)
		v.Direct = &direct
	}
	return v
}

func appendVote(proposals []Proposal, proposalID int64, vote votingpower.Vote) []Proposal {
	out := make([]Proposal, len(proposals))
	copy(out, proposals)
	for i := range out {
		if out[i].ID == proposalID {
			votes := make([]votingpower.Vote, 0, len(out[i].Votes)+1)
			votes = append(votes, out[i].Votes...)
			out[i].Votes = append(votes, vote)
		}
	}
	return out
}
