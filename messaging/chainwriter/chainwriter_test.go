package chainwriter_test

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/messaging/chainwriter"
	"orgmachine/orgmachine"
)

func setupConfig() {
	config := viper.New()
	config.SetDefault("requiredChainId", 8453)
	orgmachine.SetConfig(config)
}

func TestEnsureWritableRequiresSigner(t *testing.T) {
	setupConfig()
	orgmachine.SetWallet(orgmachine.WalletState{})
	err := chainwriter.EnsureWritable(nil)
	require.NotNil(t, err)
	assert.Equal(t, orgmachine.ErrValidationFailure, err.Kind)
	assert.True(t, err.PreSubmit())
}

func TestEnsureWritableWrongChainOpensPrompt(t *testing.T) {
	setupConfig()
	orgmachine.SetWallet(orgmachine.WalletState{Address: "0xme", ChainID: 1, HasSigner: true})
	var promptedWith int64
	err := chainwriter.EnsureWritable(func(required int64) { promptedWith = required })
	require.NotNil(t, err)
	assert.Equal(t, orgmachine.ErrNetworkMismatch, err.Kind)
	assert.Equal(t, int64(8453), promptedWith)
	assert.True(t, err.PreSubmit())
}

func TestEnsureWritablePassesOnRightChain(t *testing.T) {
	setupConfig()
	orgmachine.SetWallet(orgmachine.WalletState{Address: "0xme", ChainID: 8453, HasSigner: true})
	assert.Nil(t, chainwriter.EnsureWritable(nil))
}

func TestDecodeRevertUserRejection(t *testing.T) {
	err := chainwriter.DecodeRevert(chainwriter.UserRejectedCode, "")
	assert.Equal(t, orgmachine.ErrExternalRejection, err.Kind)
	assert.Equal(t, chainwriter.UserRejectedCode, err.Code)
	assert.Contains(t, err.UserMessage, "rejected")
}

func TestDecodeRevertKnownReason(t *testing.T) {
	err := chainwriter.DecodeRevert(0, "NotOpen")
	assert.Equal(t, "This task has already been claimed.", err.UserMessage)
}

func TestDecodeRevertUnknownReasonSurfacesRaw(t *testing.T) {
	err := chainwriter.DecodeRevert(0, "SomethingNovel")
	assert.Equal(t, "SomethingNovel", err.UserMessage)
	notice := orgmachine.Describe(err)
	assert.Equal(t, "Transaction Failed", notice.Title)
	assert.Equal(t, "SomethingNovel", notice.Description)
}
