package treasury_test

import (
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/messaging/indexer"
	"orgmachine/orgmachine"
	"orgmachine/scopes/treasury"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func TestTransformDistributions(t *testing.T) {
	var doc indexer.TreasuryDocument
	require.NoError(t, json.Unmarshal([]byte(`{
		"executorContract": "0xexec",
		"paymentManager": {
			"distributions": [
				{"id": "D1", "token": "0xtok", "totalAmount": "1000", "totalClaimed": "250",
				 "merkleRoot": "0xroot", "status": "Active",
				 "claims": [{"claimant": "0xa", "amount": "250", "timestamp": 1700000000}]},
				{"id": "D2", "token": "0xtok", "totalAmount": "10", "totalClaimed": "10",
				 "status": "Finalized", "claims": []}
			],
			"payments": [{"id": "P1", "token": "0xtok", "to": "0xb", "amount": "5", "timestamp": 1700000001}]
		}
	}`), &doc))

	out := treasury.Transform(&doc)
	assert.Equal(t, "0xexec", out.Executor)
	require.Len(t, out.Distributions, 2)
	assert.Equal(t, orgmachine.DistributionActive, out.Distributions[0].Status)
	assert.Equal(t, orgmachine.DistributionFinalized, out.Distributions[1].Status)
	assert.InDelta(t, 25, out.Distributions[0].ClaimedPercent(), 0.001)
	require.Len(t, out.Distributions[0].Claims, 1)
	assert.Equal(t, int64(250), out.Distributions[0].Claims[0].Amount.Int64())
	require.Len(t, out.Payments, 1)
}

func TestTransformToleratesMissingPaymentManager(t *testing.T) {
	var doc indexer.TreasuryDocument
	require.NoError(t, json.Unmarshal([]byte(`{"executorContract": "0xexec", "paymentManager": null}`), &doc))
	out := treasury.Transform(&doc)
	assert.Empty(t, out.Distributions)
	assert.Empty(t, out.Payments)
}

func TestApproverResolution(t *testing.T) {
	var doc indexer.ApproverHatsDocument
	require.NoError(t, json.Unmarshal([]byte(`{
		"hatPermissions": [
			{"hatId": "0xAA02", "token": "0xtok", "canApprove": true},
			{"hatId": "0xAA03", "token": "0xtok", "canApprove": false}
		]
	}`), &doc))
	info := treasury.ResolveApprovers(&doc)
	assert.True(t, info.HasApprover)
	assert.Equal(t, []orgmachine.HatID{"0xAA02"}, info.Hats)
}

func TestUnindexedTokenHasNoApproverYet(t *testing.T) {
	info := treasury.ResolveApprovers(nil)
	assert.False(t, info.HasApprover)
	assert.Empty(t, info.Hats)
}

func TestCanApprove(t *testing.T) {
	out := treasury.Treasury{
		Approvers: map[orgmachine.Address]treasury.ApproverInfo{
			"0xtok": {HasApprover: true, Hats: []orgmachine.HatID{"0xAA02"}},
			"0xbad": {},
		},
	}
	assert.True(t, out.CanApprove("0xtok", []orgmachine.HatID{"0xaa02"}))
	assert.False(t, out.CanApprove("0xtok", []orgmachine.HatID{"0xAA01"}))
	assert.False(t, out.CanApprove("0xbad", []orgmachine.HatID{"0xAA02"}))
	assert.False(t, out.CanApprove("0xunknown", []orgmachine.HatID{"0xAA02"}))
}
