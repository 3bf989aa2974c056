// Package orgdata is the organization scope: identity, contracts, the member
// list, and the education hub. This is read-mostly reference data, so it is
// cache-first and persists its snapshot across restarts.
package orgdata

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

type Member struct {
	Address          orgmachine.Address
	Balance          *big.Int
	Membership       orgmachine.MembershipState
	Held             []orgmachine.HatID
	TasksCompleted   int64
	VotesCast        int64
	ModulesCompleted int64
	FirstSeen        time.Time
	LastActive       time.Time
}

type EducationModule struct {
	ID          string
	Title       string
	InfoHandle  orgmachine.BlobHandle
	Payout      *big.Int
	Completions int64
}

type Org struct {
	ID             orgmachine.OrgID
	Name           string
	Description    string
	LogoHandle     orgmachine.BlobHandle
	MetadataHandle orgmachine.BlobHandle
	AdminHat       orgmachine.HatID
	TopHat         orgmachine.HatID
	Roles          []orgmachine.HatID
	DeployedAt     time.Time

	VotingContract   orgmachine.Address
	DirectContract   orgmachine.Address
	TaskManager      orgmachine.Address
	EducationHub     orgmachine.Address
	Treasury         orgmachine.Address
	Token            orgmachine.Address

	Members []Member
	Modules []EducationModule
}

func parseMembership(s string) orgmachine.MembershipState {
	switch strings.ToLower(s) {
	case "inactive":
		return orgmachine.MembershipInactive
	case "revoked":
		return orgmachine.MembershipRevoked
	}
	return orgmachine.MembershipActive
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

func transformMember(doc indexer.UserDocument) Member {
	return Member{
		Address:          doc.Address,
		Balance:          parseBig(doc.Balance),
		Membership:       parseMembership(doc.MembershipStatus),
		Held:             doc.Held,
		TasksCompleted:   doc.TasksCompleted.Int64(),
		VotesCast:        doc.VotesCast.Int64(),
		ModulesCompleted: doc.ModulesCompleted.Int64(),
		FirstSeen:        time.Unix(doc.FirstSeen.Int64(), 0),
		LastActive:       time.Unix(doc.LastActive.Int64(), 0),
	}
}

func Transform(doc *indexer.OrgDocument) Org {
	org := Org{
		ID:             doc.ID,
		Name:           doc.Name,
		MetadataHandle: doc.MetadataHash,
		TopHat:         doc.TopHat,
		Roles:          doc.Roles,
		DeployedAt:     time.Unix(doc.DeployedAt.Int64(), 0),
		VotingContract: doc.Contracts.HybridVoting,
		DirectContract: doc.Contracts.DirectDemocracy,
		TaskManager:    doc.Contracts.TaskManager,
		EducationHub:   doc.Contracts.EducationHub,
		Treasury:       doc.Contracts.Treasury,
		Token:          doc.Contracts.Token,
	}
	if doc.Metadata != nil {
		org.Description = doc.Metadata.Description
		org.LogoHandle = doc.Metadata.LogoHandle
		org.AdminHat = doc.Metadata.AdminHat
	}
	for _, u := range doc.Users {
		org.Members = append(org.Members, transformMember(u))
	}
	if doc.Education != nil {
		for _, m := range doc.Education.Modules {
			org.Modules = append(org.Modules, EducationModule{
				ID:          m.ID,
				Title:       m.Title,
				InfoHandle:  m.InfoHandle,
				Payout:      parseBig(m.Payout),
				Completions: m.Completions.Int64(),
			})
		}
	}
	return org
}

// Member looks a member up by address, case-insensitively.
func (o Org) Member(address orgmachine.Address) (Member, bool) {
	for _, m := range o.Members {
		if strings.EqualFold(m.Address, address) {
			return m, true
		}
	}
	return Member{}, false
}

// ActiveMemberCount is what the pure-direct-democracy share divides by.
func (o Org) ActiveMemberCount() int {
	count := 0
	for _, m := range o.Members {
		if m.Membership == orgmachine.MembershipActive {
			count++
		}
	}
	return count
}

// RolesExtend verifies the append-only role-list invariant between two
// snapshots: index assignments never shift.
func RolesExtend(old, new []orgmachine.HatID) bool {
	if len(new) < len(old) {
		return false
	}
	for i := range old {
		if orgmachine.NormalizeHatID(old[i]) != orgmachine.NormalizeHatID(new[i]) {
			return false
		}
	}
	return true
}

// Scope wires the org view: cache-first, persisted, refetched on membership
// and metadata events.
func Scope(bus *refreshbus.Bus, client *indexer.Client) *scopes.Scope[Org] {
	scope := scopes.New(bus, scopes.Options[Org]{
		Name:      "orgdata",
		Freshness: scopes.CacheFirst,
		Requires:  scopes.Required{Org: true},
		Events: []refreshbus.Event{
			refreshbus.MemberJoined,
			refreshbus.OrgMetadataUpdated,
			refreshbus.ModuleCreated,
			refreshbus.ModuleCompleted,
			refreshbus.RoleClaimed,
		},
		Fetch: func(ctx context.Context, p scopes.Params) (Org, error) {
			doc, err := client.OrgFullData(ctx, p.Org)
			if err != nil {
				return Org{}, err
			}
			return Transform(doc), nil
		},
	})
	var lastRoles []orgmachine.HatID
	scope.OnReplace(func(org Org) {
		if lastRoles != nil && !RolesExtend(lastRoles, org.Roles) {
			orgmachine.LogCLI("indexed role list shifted for org "+org.Name, 2)
		}
		lastRoles = org.Roles
		scopes.StoreCached("orgdata", org)
	})
	if cached := (Org{}); scopes.LoadCached("orgdata", &cached) {
		scope.Replace(cached)
	}
	return scope
}
