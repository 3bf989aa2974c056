// Package treasury is the payments scope: distributions with claim history,
// direct payments, token requests, and the approver-hat table gating request
// approval.
package treasury

import (
	"context"
	"math/big"
	"strings"
	"time"

	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
)

type Claim struct {
	Claimant orgmachine.Address
	Amount   *big.Int
	At       time.Time
}

type Distribution struct {
	ID           string
	Token        orgmachine.Address
	Total        *big.Int
	TotalClaimed *big.Int
	MerkleRoot   string
	Status       orgmachine.DistributionStatus
	Claims       []Claim
}

type Payment struct {
	ID     string
	Token  orgmachine.Address
	To     orgmachine.Address
	Amount *big.Int
	At     time.Time
}

type TokenRequest struct {
	ID        string
	Requester orgmachine.Address
	Token     orgmachine.Address
	Amount    *big.Int
	Status    string
	At        time.Time
}

type ApproverInfo struct {
	// HasApprover is false both when no hat can approve and when the token is
	// not indexed yet; the next refresh retries, absence is not permanent.
	HasApprover bool
	Hats        []orgmachine.HatID
}

type Treasury struct {
	Executor      orgmachine.Address
	Distributions []Distribution
	Payments      []Payment
	Requests      []TokenRequest
	Approvers     map[orgmachine.Address]ApproverInfo
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

func parseDistributionStatus(s string) orgmachine.DistributionStatus {
	if strings.EqualFold(s, "Finalized") {
		return orgmachine.DistributionFinalized
	}
	return orgmachine.DistributionActive
}

func Transform(doc *indexer.TreasuryDocument) Treasury {
	out := Treasury{
		Executor:  doc.ExecutorContract,
		Approvers: map[orgmachine.Address]ApproverInfo{},
	}
	if doc.PaymentManager == nil {
		return out
	}
	for _, d := range doc.PaymentManager.Distributions {
		distribution := Distribution{
			ID:           d.ID,
			Token:        d.Token,
			Total:        parseBig(d.Total),
			TotalClaimed: parseBig(d.TotalClaimed),
			MerkleRoot:   d.MerkleRoot,
			Status:       parseDistributionStatus(d.Status),
		}
		for _, c := range d.Claims {
			distribution.Claims = append(distribution.Claims, Claim{
				Claimant: c.Claimant,
				Amount:   parseBig(c.Amount),
				At:       time.Unix(c.At.Int64(), 0),
			})
		}
		out.Distributions = append(out.Distributions, distribution)
	}
	for _, p := range doc.PaymentManager.Payments {
		out.Payments = append(out.Payments, Payment{
			ID:     p.ID,
			Token:  p.Token,
			To:     p.To,
			Amount: parseBig(p.Amount),
			At:     time.Unix(p.At.Int64(), 0),
		})
	}
	return out
}

func TransformRequests(doc *indexer.TokenRequestsDocument) []TokenRequest {
	var out []TokenRequest
	for _, r := range doc.Requests {
		out = append(out, TokenRequest{
			ID:        r.ID,
			Requester: r.Requester,
			Token:     r.Token,
			Amount:    parseBig(r.Amount),
			Status:    r.Status,
			At:        time.Unix(r.At.Int64(), 0),
		})
	}
	return out
}

// ResolveApprovers folds the approver-hat table for one token. An unindexed
// token yields the zero ApproverInfo.
func ResolveApprovers(doc *indexer.ApproverHatsDocument) ApproverInfo {
	var info ApproverInfo
	if doc == nil {
		return info
	}
	for _, p := range doc.HatPermissions {
		if p.CanApprove {
			info.HasApprover = true
			info.Hats = append(info.Hats, p.HatID)
		}
	}
	return info
}

// CanApprove checks the caller's hats against a token's approver set.
func (t Treasury) CanApprove(token orgmachine.Address, held []orgmachine.HatID) bool {
	info, ok := t.Approvers[token]
	if !ok || !info.HasApprover {
		return false
	}
	return orgmachine.HatSetsIntersect(held, info.Hats)
}

// ClaimedPercent feeds the distribution progress bar.
func (d Distribution) ClaimedPercent() float64 {
	return orgmachine.Percent(d.TotalClaimed, d.Total)
}

// Scope wires the treasury view: distributions and payments from the payment
// manager, token requests and approver hats resolved per request token.
func Scope(bus *refreshbus.Bus, client *indexer.Client, token orgmachine.Address) *scopes.Scope[Treasury] {
	return scopes.New(bus, scopes.Options[Treasury]{
		Name:      "treasury",
		Freshness: scopes.CacheAndNetwork,
		Requires:  scopes.Required{Org: true},
		Events: []refreshbus.Event{
			refreshbus.TaskCompleted,
			refreshbus.ModuleCompleted,
			refreshbus.TokenRequestCreated,
			refreshbus.TokenRequestApproved,
			refreshbus.TokenRequestCancelled,
		},
		Fetch: func(ctx context.Context, p scopes.Params) (Treasury, error) {
			doc, err := client.TreasuryData(ctx, p.Org)
			if err != nil {
				return Treasury{}, err
			}
			treasury := Transform(doc)
			if token != "" {
				if requests, err := client.TokenRequests(ctx, token, ""); err == nil {
					treasury.Requests = TransformRequests(requests)
				} else {
					orgmachine.LogCLI(err, 2)
				}
				hats, err := client.ApproverHats(ctx, token)
				if err != nil {
					orgmachine.LogCLI(err, 2)
					hats = nil
				}
				treasury.Approvers[token] = ResolveApprovers(hats)
			}
			return treasury, nil
		},
	})
}
