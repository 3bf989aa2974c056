// Package userdata is the per-user scope: the caller's org-scoped profile
// plus their global account registration, and the username rules enforced
// before a registration ever reaches the chain.
package userdata

import (
	"context"
	"math/big"
	"regexp"
	"strings"
	"time"

	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
)

type Profile struct {
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

type Account struct {
	Address  orgmachine.Address
	Username string
}

type User struct {
	// Profile is nil until the caller has joined the org.
	Profile *Profile
	// Account is nil until the caller registered a username.
	Account *Account
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,32}$`)

// ValidateUsername enforces the registry rules: 3 to 32 word characters,
// unique case-insensitively. taken reports whether a lowercased name is
// already registered to someone else.
func ValidateUsername(name string, taken func(lowercased string) bool) *orgmachine.MutationError {
	if !usernamePattern.MatchString(name) {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			Field:       "username",
			UserMessage: "Usernames are 3-32 characters: letters, numbers and underscores.",
		}
	}
	if taken != nil && taken(strings.ToLower(name)) {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			Field:       "username",
			UserMessage: "That username is already taken.",
		}
	}
	return nil
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

func parseMembership(s string) orgmachine.MembershipState {
	switch strings.ToLower(s) {
	case "inactive":
		return orgmachine.MembershipInactive
	case "revoked":
		return orgmachine.MembershipRevoked
	}
	return orgmachine.MembershipActive
}

func Transform(doc *indexer.UserDataDocument) User {
	var user User
	if doc.User != nil {
		user.Profile = &Profile{
			Address:          doc.User.Address,
			Balance:          parseBig(doc.User.Balance),
			Membership:       parseMembership(doc.User.MembershipStatus),
			Held:             doc.User.Held,
			TasksCompleted:   doc.User.TasksCompleted.Int64(),
			VotesCast:        doc.User.VotesCast.Int64(),
			ModulesCompleted: doc.User.ModulesCompleted.Int64(),
			FirstSeen:        time.Unix(doc.User.FirstSeen.Int64(), 0),
			LastActive:       time.Unix(doc.User.LastActive.Int64(), 0),
		}
	}
	if doc.Account != nil {
		user.Account = &Account{Address: doc.Account.Address, Username: doc.Account.Username}
	}
	return user
}

// IsActiveMember is the membership gate most mutations check first.
func (u User) IsActiveMember() bool {
	return u.Profile != nil && u.Profile.Membership == orgmachine.MembershipActive
}

// OrgUserID builds the composite id the indexer keys org-scoped users by.
func OrgUserID(org orgmachine.OrgID, address orgmachine.Address) string {
	return org + "-" + strings.ToLower(address)
}

// Scope wires the user view: cache-first reference data, refetched on the
// caller's own lifecycle events.
func Scope(bus *refreshbus.Bus, client *indexer.Client) *scopes.Scope[User] {
	return scopes.New(bus, scopes.Options[User]{
		Name:      "userdata",
		Freshness: scopes.CacheFirst,
		Requires:  scopes.Required{Org: true, Address: true},
		Events: []refreshbus.Event{
			refreshbus.MemberJoined,
			refreshbus.UserCreated,
			refreshbus.UserUsernameChanged,
			refreshbus.TaskCompleted,
			refreshbus.ModuleCompleted,
			refreshbus.RoleClaimed,
		},
		Fetch: func(ctx context.Context, p scopes.Params) (User, error) {
			doc, err := client.UserData(ctx, OrgUserID(p.Org, p.Address), p.Address)
			if err != nil {
				return User{}, err
			}
			return Transform(doc), nil
		},
	})
}
