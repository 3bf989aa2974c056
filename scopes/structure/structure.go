// Package structure is the org-structure scope: the role hierarchy, wearers,
// and the vouching pipeline that auto-mints a role at quorum.
package structure

import (
	"context"
	"strings"
	"time"

	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
)

type VouchConfig struct {
	Enabled       bool
	Quorum        int64
	MembershipHat orgmachine.HatID
}

type Role struct {
	HatID       orgmachine.HatID
	Name        string
	Level       int64
	ParentID    orgmachine.HatID
	Wearers     []orgmachine.Address
	VouchConfig *VouchConfig
}

type Vouch struct {
	Voucher   orgmachine.Address
	Candidate orgmachine.Address
	HatID     orgmachine.HatID
	Revoked   bool
	At        time.Time
}

type Structure struct {
	Roles       []Role
	MemberCount int64
	RoleCount   int64
	Eligibility string
	Vouches     []Vouch
}

func Transform(doc *indexer.StructureDocument, vouches *indexer.VouchesDocument) Structure {
	out := Structure{
		MemberCount: doc.MemberCount.Int64(),
		RoleCount:   doc.RoleCount.Int64(),
		Eligibility: doc.Eligibility,
	}
	for _, r := range doc.Roles {
		role := Role{
			HatID:    r.HatID,
			Name:     r.Name,
			Level:    r.Level.Int64(),
			ParentID: r.ParentID,
			Wearers:  r.Wearers,
		}
		if r.VouchConfig != nil {
			role.VouchConfig = &VouchConfig{
				Enabled:       r.VouchConfig.Enabled,
				Quorum:        r.VouchConfig.Quorum.Int64(),
				MembershipHat: r.VouchConfig.MembershipHat,
			}
		}
		out.Roles = append(out.Roles, role)
	}
	if vouches != nil {
		for _, v := range vouches.Vouches {
			out.Vouches = append(out.Vouches, Vouch{
				Voucher:   v.Voucher,
				Candidate: v.Candidate,
				HatID:     v.HatID,
				Revoked:   v.Revoked,
				At:        time.Unix(v.At.Int64(), 0),
			})
		}
	}
	return out
}

func (s Structure) Role(hat orgmachine.HatID) (Role, bool) {
	for _, r := range s.Roles {
		if orgmachine.NormalizeHatID(r.HatID) == orgmachine.NormalizeHatID(hat) {
			return r, true
		}
	}
	return Role{}, false
}

func (r Role) Wears(address orgmachine.Address) bool {
	for _, w := range r.Wearers {
		if strings.EqualFold(w, address) {
			return true
		}
	}
	return false
}

// LiveVouchCount counts unrevoked vouches for a candidate on a role. The
// indexer reports an absolute count: a revoke after the auto-mint lowers this
// without unminting the role.
func (s Structure) LiveVouchCount(candidate orgmachine.Address, hat orgmachine.HatID) int64 {
	var count int64
	for _, v := range s.Vouches {
		if v.Revoked {
			continue
		}
		if strings.EqualFold(v.Candidate, candidate) && orgmachine.NormalizeHatID(v.HatID) == orgmachine.NormalizeHatID(hat) {
			count++
		}
	}
	return count
}

// QuorumReached reports whether the candidate's live vouches meet the role's
// quorum, meaning the auto-mint fires (or already has).
func (s Structure) QuorumReached(candidate orgmachine.Address, hat orgmachine.HatID) bool {
	role, ok := s.Role(hat)
	if !ok || role.VouchConfig == nil || !role.VouchConfig.Enabled {
		return false
	}
	return s.LiveVouchCount(candidate, hat) >= role.VouchConfig.Quorum
}

// PendingCandidates lists addresses with live vouches on a role who do not
// wear it yet. A candidate disappears from here the moment the mint is
// indexed.
func (s Structure) PendingCandidates(hat orgmachine.HatID) []orgmachine.Address {
	role, ok := s.Role(hat)
	if !ok {
		return nil
	}
	seen := map[string]bool{}
	var out []orgmachine.Address
	for _, v := range s.Vouches {
		if v.Revoked || orgmachine.NormalizeHatID(v.HatID) != orgmachine.NormalizeHatID(hat) {
			continue
		}
		key := strings.ToLower(v.Candidate)
		if seen[key] || role.Wears(v.Candidate) {
			continue
		}
		seen[key] = true
		out = append(out, v.Candidate)
	}
	return out
}

// CanVouch checks the vouching preconditions: the role accepts vouches, the
// caller wears the membership hat, and has no live vouch for this candidate.
func (s Structure) CanVouch(voucher, candidate orgmachine.Address, hat orgmachine.HatID, held []orgmachine.HatID) *orgmachine.MutationError {
	role, ok := s.Role(hat)
	if !ok || role.VouchConfig == nil || !role.VouchConfig.Enabled {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			UserMessage: "This role does not accept vouches.",
		}
	}
	if !orgmachine.HatSetsIntersect(held, []orgmachine.HatID{role.VouchConfig.MembershipHat}) {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrPermissionRequired,
			UserMessage: "Only wearers of the membership role can vouch.",
		}
	}
	for _, v := range s.Vouches {
		if v.Revoked {
			continue
		}
		if strings.EqualFold(v.Voucher, voucher) && strings.EqualFold(v.Candidate, candidate) &&
			orgmachine.NormalizeHatID(v.HatID) == orgmachine.NormalizeHatID(hat) {
			return &orgmachine.MutationError{
				Kind:        orgmachine.ErrValidationFailure,
				UserMessage: "You have already vouched for this candidate.",
			}
		}
	}
	return nil
}

// CanRevoke only accepts the original voucher of a live vouch.
func (s Structure) CanRevoke(voucher, candidate orgmachine.Address, hat orgmachine.HatID) *orgmachine.MutationError {
	for _, v := range s.Vouches {
		if v.Revoked {
			continue
		}
		if strings.EqualFold(v.Voucher, voucher) && strings.EqualFold(v.Candidate, candidate) &&
			orgmachine.NormalizeHatID(v.HatID) == orgmachine.NormalizeHatID(hat) {
			return nil
		}
	}
	return &orgmachine.MutationError{
		Kind:        orgmachine.ErrValidationFailure,
		UserMessage: "Only the original voucher can revoke a vouch.",
	}
}

// Scope wires the structure view. The vouch list rides in the same fetch so
// quorum state is always consistent with the role list.
func Scope(bus *refreshbus.Bus, client *indexer.Client) *scopes.Scope[Structure] {
	return scopes.New(bus, scopes.Options[Structure]{
		Name:      "structure",
		Freshness: scopes.CacheFirst,
		Requires:  scopes.Required{Org: true},
		Events: []refreshbus.Event{
			refreshbus.RoleClaimed,
			refreshbus.RoleVouched,
			refreshbus.RoleVouchRevoked,
			refreshbus.MemberJoined,
		},
		Fetch: func(ctx context.Context, p scopes.Params) (Structure, error) {
			doc, err := client.OrgStructureData(ctx, p.Org)
			if err != nil {
				return Structure{}, err
			}
			var vouches *indexer.VouchesDocument
			if doc.Eligibility != "" {
				vouches, err = client.VouchesForOrg(ctx, doc.Eligibility)
				if err != nil {
					orgmachine.LogCLI(err, 2)
					vouches = nil
				}
			}
			return Transform(doc, vouches), nil
		},
	})
}
