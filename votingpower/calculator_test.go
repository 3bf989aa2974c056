package votingpower_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/votingpower"
)

func TestIsqrt(t *testing.T) {
	cases := map[int64]int64{
		0: 0, 1: 1, 2: 1, 3: 1, 4: 2, 8: 2, 9: 3,
		99: 9, 100: 10, 101: 10, 400: 20, 10000: 100,
	}
	for in, want := range cases {
		assert.Equal(t, want, votingpower.Isqrt(big.NewInt(in)).Int64(), "isqrt(%d)", in)
	}
	// beyond int64: isqrt(10^40) = 10^20
	n, _ := new(big.Int).SetString("1"+zeros(40), 10)
	want, _ := new(big.Int).SetString("1"+zeros(20), 10)
	assert.Equal(t, 0, votingpower.Isqrt(n).Cmp(want))
}

func zeros(n int) (s string) {
	for i := 0; i < n; i++ {
		s += "0"
	}
	return
}

func TestDirectClassPower(t *testing.T) {
	c := votingpower.Class{Strategy: votingpower.StrategyDirect, SlicePct: 50}
	active := votingpower.Voter{ActiveMember: true}
	inactive := votingpower.Voter{ActiveMember: false}
	assert.Equal(t, int64(100), votingpower.ClassPower(c, active).Int64())
	assert.Equal(t, int64(0), votingpower.ClassPower(c, inactive).Int64())
}

func TestBalanceClassPower(t *testing.T) {
	linear := votingpower.Class{Strategy: votingpower.StrategyERC20Balance, SlicePct: 50}
	quad := votingpower.Class{Strategy: votingpower.StrategyERC20Balance, SlicePct: 50, Quadratic: true}
	gated := votingpower.Class{Strategy: votingpower.StrategyERC20Balance, SlicePct: 50, MinBalance: big.NewInt(50)}

	v := votingpower.Voter{Balance: big.NewInt(400), ActiveMember: true}
	assert.Equal(t, int64(40000), votingpower.ClassPower(linear, v).Int64())
	assert.Equal(t, int64(2000), votingpower.ClassPower(quad, v).Int64())

	poor := votingpower.Voter{Balance: big.NewInt(49), ActiveMember: true}
	assert.Equal(t, int64(0), votingpower.ClassPower(gated, poor).Int64())
	assert.Equal(t, int64(4900), votingpower.ClassPower(gated, votingpower.Voter{Balance: big.NewInt(49 + 1)}).Int64())
}

func TestHatFilterGatesClass(t *testing.T) {
	c := votingpower.Class{
		Strategy: votingpower.StrategyDirect,
		SlicePct: 100,
		HatIDs:   []string{"0xAA02"},
	}
	assert.Equal(t, int64(0), votingpower.ClassPower(c, votingpower.Voter{ActiveMember: true}).Int64())
	assert.Equal(t, int64(100), votingpower.ClassPower(c, votingpower.Voter{ActiveMember: true, Held: []string{"0xaa02"}}).Int64())
}

func TestValidateClasses(t *testing.T) {
	good := []votingpower.Class{{SlicePct: 50}, {SlicePct: 50}}
	bad := []votingpower.Class{{SlicePct: 50}, {SlicePct: 40}}
	assert.True(t, votingpower.ValidateClasses(good))
	assert.False(t, votingpower.ValidateClasses(bad))
}

func TestHybridAggregationSeedScenario(t *testing.T) {
	// Two active classes: DIRECT 50, ERC20_BAL 50 quadratic.
	// A (member, balance 100) votes {0:60, 1:40}; B (member, balance 400) votes {2:100}.
	classes := []votingpower.Class{
		{Strategy: votingpower.StrategyDirect, SlicePct: 50},
		{Strategy: votingpower.StrategyERC20Balance, SlicePct: 50, Quadratic: true},
	}
	require.True(t, votingpower.ValidateClasses(classes))

	a := votingpower.Compute(classes, votingpower.Voter{Balance: big.NewInt(100), ActiveMember: true})
	b := votingpower.Compute(classes, votingpower.Voter{Balance: big.NewInt(400), ActiveMember: true})
	assert.Equal(t, int64(1100), a.Total.Int64()) // 100 + isqrt(100)*100
	assert.Equal(t, int64(2100), b.Total.Int64()) // 100 + 20*100

	votes := []votingpower.Vote{
		{Voter: "0xA", Weights: map[int]int64{0: 60, 1: 40}, RawPowers: a.ClassPowers},
		{Voter: "0xB", Weights: map[int]int64{2: 100}, RawPowers: b.ClassPowers},
	}
	for _, v := range votes {
		require.True(t, votingpower.ValidateVote(v, 3))
	}

	totals := votingpower.AggregateHybrid(votes, 3)
	assert.Equal(t, int64(660), totals[0].Int64())
	assert.Equal(t, int64(440), totals[1].Int64())
	assert.Equal(t, int64(2100), totals[2].Int64())

	pcts := votingpower.Percentages(totals)
	var sum float64
	for _, p := range pcts {
		sum += p
	}
	assert.InDelta(t, 100, sum, 0.01)
}

func TestDirectAggregation(t *testing.T) {
	votes := []votingpower.Vote{
		{Voter: "0xA", Weights: map[int]int64{0: 100}},
		{Voter: "0xB", Weights: map[int]int64{0: 30, 1: 70}},
	}
	totals := votingpower.AggregateDirect(votes, 2)
	assert.Equal(t, int64(130), totals[0].Int64())
	assert.Equal(t, int64(70), totals[1].Int64())
}

func TestValidateVoteRejectsBadBallots(t *testing.T) {
	assert.False(t, votingpower.ValidateVote(votingpower.Vote{Weights: map[int]int64{0: 50}}, 2))
	assert.False(t, votingpower.ValidateVote(votingpower.Vote{Weights: map[int]int64{5: 100}}, 2))
	assert.True(t, votingpower.ValidateVote(votingpower.Vote{Weights: map[int]int64{1: 100}}, 2))
}

func TestLeaderboardRankAndShare(t *testing.T) {
	classes := []votingpower.Class{
		{Strategy: votingpower.StrategyERC20Balance, SlicePct: 100},
	}
	voters := map[string]votingpower.Voter{
		"0xA": {Balance: big.NewInt(100), ActiveMember: true},
		"0xB": {Balance: big.NewInt(300), ActiveMember: true},
		"0xC": {Balance: big.NewInt(100), ActiveMember: true},
	}
	lb := votingpower.BuildLeaderboard(classes, voters)
	assert.Equal(t, 1, lb.Rank("0xB"))
	assert.Equal(t, 0, lb.Rank("0xZ"))
	assert.NotZero(t, lb.MeanPower)

	share := votingpower.ShareOfOrg(classes, big.NewInt(30000), lb, 3)
	assert.InDelta(t, 60, share, 0.01)
}

func TestPureDirectDemocracyShare(t *testing.T) {
	classes := []votingpower.Class{{Strategy: votingpower.StrategyDirect, SlicePct: 100}}
	assert.True(t, votingpower.PureDirectDemocracy(classes))
	share := votingpower.ShareOfOrg(classes, big.NewInt(100), votingpower.Leaderboard{}, 4)
	assert.InDelta(t, 25, share, 0.001)
}
