package chainwriter_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/messaging/chainwriter"
	"orgmachine/orgmachine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func walletService(t *testing.T, respond string) (*chainwriter.RPCWriter, *[]map[string]interface{}) {
	t.Helper()
	var calls []map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(body, &decoded))
		calls = append(calls, decoded)
		w.Write([]byte(respond))
	}))
	t.Cleanup(server.Close)

	config := viper.New()
	config.SetDefault("walletRpc", server.URL)
	orgmachine.SetConfig(config)
	return chainwriter.NewRPCWriter(), &calls
}

func TestRPCWriterSendsOneRequestPerMethod(t *testing.T) {
	writer, calls := walletService(t, `{"txHash":"0xabc"}`)

	result := writer.ClaimTask(context.Background(), "42")
	assert.True(t, result.Success)
	require.Len(t, *calls, 1)
	assert.Equal(t, "task_claim", (*calls)[0]["method"])
	assert.Equal(t, map[string]interface{}{"taskId": "42"}, (*calls)[0]["params"])

	result = writer.Vouch(context.Background(), "0xcandidate", "0xhat")
	assert.True(t, result.Success)
	require.Len(t, *calls, 2)
	assert.Equal(t, "role_vouch", (*calls)[1]["method"])
}

func TestRPCWriterDecodesRevertThroughCatalog(t *testing.T) {
	writer, _ := walletService(t, `{"error":{"code":0,"reason":"AlreadyClaimed"}}`)
	result := writer.ClaimTask(context.Background(), "42")
	require.NotNil(t, result.Err)
	assert.Equal(t, orgmachine.ErrExternalRejection, result.Err.Kind)
	assert.Equal(t, "This task has already been claimed.", result.Err.UserMessage)
}

func TestRPCWriterKeepsUserRejectionCode(t *testing.T) {
	writer, _ := walletService(t, `{"error":{"code":4001,"message":"user denied"}}`)
	result := writer.CastVote(context.Background(), chainwriter.VoteParams{ProposalID: 7, Options: []int{0}, Weights: []int64{100}})
	require.NotNil(t, result.Err)
	assert.Equal(t, chainwriter.UserRejectedCode, result.Err.Code)
	assert.Contains(t, result.Err.UserMessage, "rejected")
}

func TestRPCWriterUnreachableServiceFailsSoft(t *testing.T) {
	config := viper.New()
	config.SetDefault("walletRpc", "http://127.0.0.1:1")
	orgmachine.SetConfig(config)
	writer := chainwriter.NewRPCWriter()

	result := writer.JoinOrg(context.Background())
	require.NotNil(t, result.Err)
	assert.Equal(t, orgmachine.ErrExternalRejection, result.Err.Kind)
	assert.Equal(t, "The wallet service could not be reached.", result.Err.UserMessage)
}
