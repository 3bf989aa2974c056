// Package votingdata is the proposals scope: hybrid and direct-democracy
// configurations, proposals, and cast votes, shaped for the voting page.
package votingdata

import (
	"context"
	"math/big"
	"time"

	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
	"orgmachine/votingpower"
)

type Proposal struct {
	ID                int64
	Title             string
	DescriptionHandle orgmachine.BlobHandle
	Start             time.Time
	End               time.Time
	NumOptions        int
	Status            orgmachine.ProposalStatus
	WinningOption     *int
	Valid             bool
	OptionVotes       []*big.Int
	RestrictedHats    []orgmachine.HatID
	HasBatches        bool
	Votes             []votingpower.Vote
}

type HybridConfig struct {
	Quorum    int64
	Classes   []votingpower.Class
	Proposals []Proposal
}

type DirectConfig struct {
	QuorumPct int64
	Proposals []Proposal
}

type Voting struct {
	Hybrid *HybridConfig
	Direct *DirectConfig
}

func parseProposalStatus(s string) orgmachine.ProposalStatus {
	switch s {
	case "Passed", "passed":
		return orgmachine.ProposalPassed
	case "Failed", "failed":
		return orgmachine.ProposalFailed
	case "Executed", "executed":
		return orgmachine.ProposalExecuted
	}
	return orgmachine.ProposalActive
}

func parseStrategy(s string) votingpower.Strategy {
	if s == "ERC20_BAL" {
		return votingpower.StrategyERC20Balance
	}
	return votingpower.StrategyDirect
}

func parseBig(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

func transformProposal(doc indexer.ProposalDocument) Proposal {
	p := Proposal{
		ID:                doc.ID.Int64(),
		Title:             doc.Title,
		DescriptionHandle: doc.DescriptionHash,
		Start:             time.Unix(doc.Start.Int64(), 0),
		End:               time.Unix(doc.End.Int64(), 0),
		NumOptions:        int(doc.NumOptions.Int64()),
		Status:            parseProposalStatus(doc.Status),
		Valid:             doc.Valid,
		RestrictedHats:    doc.RestrictedHats,
		HasBatches:        len(doc.Batches) > 0,
	}
	if doc.WinningOption != nil {
		w := int(doc.WinningOption.Int64())
		p.WinningOption = &w
	}
	for _, v := range doc.OptionVotes {
		p.OptionVotes = append(p.OptionVotes, parseBig(v))
	}
	for _, v := range doc.Votes {
		vote := votingpower.Vote{Voter: v.Voter, Weights: map[int]int64{}}
		for i, idx := range v.Options {
			if i < len(v.Weights) {
				vote.Weights[int(idx.Int64())] = v.Weights[i].Int64()
			}
		}
		for _, raw := range v.RawPowers {
			vote.RawPowers = append(vote.RawPowers, parseBig(raw))
		}
		p.Votes = append(p.Votes, vote)
	}
	return p
}

func Transform(doc *indexer.VotingDocument) Voting {
	var out Voting
	if doc.Hybrid != nil {
		hybrid := &HybridConfig{Quorum: doc.Hybrid.Quorum.Int64()}
		for _, c := range doc.Hybrid.Classes {
			hybrid.Classes = append(hybrid.Classes, votingpower.Class{
				Strategy:   parseStrategy(c.Strategy),
				SlicePct:   c.SlicePct.Int64(),
				Quadratic:  c.Quadratic,
				MinBalance: parseBig(c.MinBalance),
				Asset:      c.Asset,
				HatIDs:     c.HatIDs,
			})
		}
		for _, p := range doc.Hybrid.Proposals {
			hybrid.Proposals = append(hybrid.Proposals, transformProposal(p))
		}
		out.Hybrid = hybrid
	}
	if doc.DirectDemocracy != nil {
		direct := &DirectConfig{QuorumPct: doc.DirectDemocracy.QuorumPct.Int64()}
		for _, p := range doc.DirectDemocracy.Proposals {
			direct.Proposals = append(direct.Proposals, transformProposal(p))
		}
		out.Direct = direct
	}
	return out
}

// Ongoing is purely a status question: an Active proposal is ongoing no
// matter its end time.
func (p Proposal) Ongoing() bool {
	return p.Status == orgmachine.ProposalActive
}

// Expired proposals are ongoing past their end time with no winner announced
// yet; the UI shows the determine-winner control for these.
func (p Proposal) Expired(now time.Time) bool {
	return p.Ongoing() && now.After(p.End)
}

// CanVote applies the hat restriction. An unrestricted proposal is open to
// every caller; the membership gate is checked elsewhere.
func (p Proposal) CanVote(held []orgmachine.HatID) bool {
	if len(p.RestrictedHats) == 0 {
		return true
	}
	return orgmachine.HatSetsIntersect(held, p.RestrictedHats)
}

// ValidateBallot checks the two vote invariants before submission.
func (p Proposal) ValidateBallot(weights map[int]int64) *orgmachine.MutationError {
	vote := votingpower.Vote{Weights: weights}
	if !votingpower.ValidateVote(vote, p.NumOptions) {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			UserMessage: "Vote weights must total exactly 100 across valid options.",
		}
	}
	return nil
}

// Scope wires the voting view to the bus and indexer.
func Scope(bus *refreshbus.Bus, client *indexer.Client) *scopes.Scope[Voting] {
	return scopes.New(bus, scopes.Options[Voting]{
		Name:      "votingdata",
		Freshness: scopes.CacheAndNetwork,
		Requires:  scopes.Required{Org: true},
		Events: []refreshbus.Event{
			refreshbus.ProposalCreated,
			refreshbus.ProposalVoted,
			refreshbus.ProposalCompleted,
		},
		Fetch: func(ctx context.Context, p scopes.Params) (Voting, error) {
			doc, err := client.VotingData(ctx, p.Org)
			if err != nil {
				return Voting{}, err
			}
			return Transform(doc), nil
		},
	})
}
