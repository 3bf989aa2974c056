// Package votingpower reproduces the on-chain hybrid voting-power
// computation client-side so the dashboard can show a voter their weight
// before they cast anything. All intermediates are big.Int; floats appear
// only at the display edge.
package votingpower

import (
	"math/big"

	"orgmachine/orgmachine"
)

type Strategy int

const (
	StrategyDirect Strategy = iota
	StrategyERC20Balance
)

func (s Strategy) String() string {
	switch s {
	case StrategyDirect:
		return "DIRECT"
	case StrategyERC20Balance:
		return "ERC20_BAL"
	}
	return "unknown"
}

// Class is one component of the hybrid voting configuration. SlicePct values
// across active classes sum to 100.
type Class struct {
	Strategy   Strategy
	SlicePct   int64
	Quadratic  bool
	MinBalance *big.Int
	Asset      orgmachine.Address
	HatIDs     []orgmachine.HatID // required role filter; empty means open
}

// Voter is the input to a power computation.
type Voter struct {
	Balance      *big.Int
	ActiveMember bool
	Held         []orgmachine.HatID
}

// Isqrt is the integer square root via Newton's method on unbounded
// integers, terminating when the candidate stops strictly decreasing.
func Isqrt(n *big.Int) *big.Int {
	if n.Sign() <= 0 {
		return big.NewInt(0)
	}
	x := new(big.Int).Set(n)
	y := new(big.Int).Add(x, big.NewInt(1))
	y.Rsh(y, 1)
	for y.Cmp(x) < 0 {
		x.Set(y)
		y = new(big.Int).Div(n, x)
		y.Add(y, x)
		y.Rsh(y, 1)
	}
	return x
}

var hundred = big.NewInt(100)

// ClassPower computes one class's raw contribution for a voter. The hat
// filter gates the class entirely: a voter without a required hat scores 0.
func ClassPower(c Class, v Voter) *big.Int {
	if len(c.HatIDs) > 0 && !orgmachine.HatSetsIntersect(v.Held, c.HatIDs) {
		return big.NewInt(0)
	}
	switch c.Strategy {
	case StrategyDirect:
		if v.ActiveMember {
			return new(big.Int).Set(hundred)
		}
		return big.NewInt(0)
	case StrategyERC20Balance:
		balance := v.Balance
		if balance == nil {
			balance = big.NewInt(0)
		}
		min := c.MinBalance
		if min == nil {
			min = big.NewInt(0)
		}
		if balance.Cmp(min) < 0 {
			return big.NewInt(0)
		}
		if c.Quadratic {
			return new(big.Int).Mul(Isqrt(balance), hundred)
		}
		return new(big.Int).Mul(balance, hundred)
	}
	return big.NewInt(0)
}

// Breakdown is the full per-class report for one voter.
type Breakdown struct {
	ClassPowers []*big.Int
	SlicePcts   []int64
	Total       *big.Int
}

// Compute evaluates every active class in order. The contract owns the
// slice weighting; the client reports the raw breakdown.
func Compute(classes []Class, v Voter) Breakdown {
	b := Breakdown{Total: big.NewInt(0)}
	for _, c := range classes {
		p := ClassPower(c, v)
		b.ClassPowers = append(b.ClassPowers, p)
		b.SlicePcts = append(b.SlicePcts, c.SlicePct)
		b.Total.Add(b.Total, p)
	}
	return b
}

// ValidateClasses checks the slice-percentage invariant.
func ValidateClasses(classes []Class) bool {
	var sum int64
	for _, c := range classes {
		sum += c.SlicePct
	}
	return sum == 100
}

// PureDirectDemocracy reports whether the configuration is a single DIRECT
// class; such orgs show fixed power 100 per active member and the % of org
// is simply 100/memberCount.
func PureDirectDemocracy(classes []Class) bool {
	return len(classes) == 1 && classes[0].Strategy == StrategyDirect
}
