package votingpower

import (
	"math/big"
	"sort"

	"github.com/montanaflynn/stats"

	"orgmachine/orgmachine"
)

// Vote is one ballot: option index → integer weight, weights summing to 100.
// RawPowers are the voter's per-class powers captured at voting time.
type Vote struct {
	Voter     orgmachine.Address
	Weights   map[int]int64
	RawPowers []*big.Int
}

// ValidateVote checks the two ballot invariants.
func ValidateVote(v Vote, numOptions int) bool {
	var sum int64
	for idx, w := range v.Weights {
		if idx < 0 || idx >= numOptions {
			return false
		}
		if w < 0 {
			return false
		}
		sum += w
	}
	return sum == 100
}

// AggregateDirect tallies one-person-one-voice votes: each voter spends 100
// points across options.
func AggregateDirect(votes []Vote, numOptions int) []*big.Int {
	totals := zeros(numOptions)
	for _, v := range votes {
		for idx, w := range v.Weights {
			if idx < 0 || idx >= numOptions {
				continue
			}
			totals[idx].Add(totals[idx], big.NewInt(w))
		}
	}
	return totals
}

// AggregateHybrid tallies hybrid votes: per option i the ballot contributes
// (Σ classRawPowers) * weight_i / 100, integer-divided, all in arbitrary
// precision.
func AggregateHybrid(votes []Vote, numOptions int) []*big.Int {
	totals := zeros(numOptions)
	for _, v := range votes {
		power := big.NewInt(0)
		for _, p := range v.RawPowers {
			power.Add(power, p)
		}
		for idx, w := range v.Weights {
			if idx < 0 || idx >= numOptions {
				continue
			}
			contribution := new(big.Int).Mul(power, big.NewInt(w))
			contribution.Div(contribution, hundred)
			totals[idx].Add(totals[idx], contribution)
		}
	}
	return totals
}

// Percentages converts option totals to display floats. Only here do we
// leave big.Int.
func Percentages(totals []*big.Int) []float64 {
	sum := big.NewInt(0)
	for _, t := range totals {
		sum.Add(sum, t)
	}
	out := make([]float64, len(totals))
	for i, t := range totals {
		out[i] = orgmachine.Percent(t, sum)
	}
	return out
}

// LeaderboardEntry pairs an address with its computed total power.
type LeaderboardEntry struct {
	Address orgmachine.Address
	Power   *big.Int
}

// Leaderboard computes every entrant's power under the same configuration,
// sorted descending. The caller's rank is their 1-based position.
type Leaderboard struct {
	Entries []LeaderboardEntry
	// MeanPower and MedianPower summarize the field for the org stats card.
	MeanPower   float64
	MedianPower float64
}

func BuildLeaderboard(classes []Class, voters map[orgmachine.Address]Voter) Leaderboard {
	var lb Leaderboard
	var field []float64
	for addr, v := range voters {
		power := Compute(classes, v).Total
		lb.Entries = append(lb.Entries, LeaderboardEntry{Address: addr, Power: power})
		f, _ := new(big.Float).SetInt(power).Float64()
		field = append(field, f)
	}
	sort.Slice(lb.Entries, func(i, j int) bool {
		c := lb.Entries[i].Power.Cmp(lb.Entries[j].Power)
		if c == 0 {
			return lb.Entries[i].Address < lb.Entries[j].Address
		}
		return c > 0
	})
	if len(field) > 0 {
		lb.MeanPower, _ = stats.Mean(field)
		lb.MedianPower, _ = stats.Median(field)
	}
	return lb
}

// Rank returns the caller's 1-based position, or 0 when absent.
func (lb Leaderboard) Rank(addr orgmachine.Address) int {
	for i, e := range lb.Entries {
		if e.Address == addr {
			return i + 1
		}
	}
	return 0
}

// ShareOfOrg returns the caller's percentage of total org power, capped at
// 100 for display. Pure direct-democracy orgs report 100/memberCount.
func ShareOfOrg(classes []Class, callerPower *big.Int, lb Leaderboard, memberCount int) float64 {
	if PureDirectDemocracy(classes) {
		if memberCount <= 0 {
			return 0
		}
		return 100.0 / float64(memberCount)
	}
	total := big.NewInt(0)
	for _, e := range lb.Entries {
		total.Add(total, e.Power)
	}
	return orgmachine.Percent(callerPower, total)
}

func zeros(n int) []*big.Int {
	out := make([]*big.Int, n)
	for i := range out {
		out[i] = big.NewInt(0)
	}
	return out
}
