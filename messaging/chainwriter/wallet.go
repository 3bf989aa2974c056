package chainwriter

import (
	"fmt"

	"orgmachine/orgmachine"
)

// SwitchPrompt is invoked when a write is attempted on the wrong chain. The
// UI wires this to the wallet's chain-switch dialog.
type SwitchPrompt func(requiredChainID int64)

// EnsureWritable runs the pre-submit wallet checks. Reads degrade gracefully
// on any chain; writes must not reach the signer unless these pass. A nil
// return means go ahead.
func EnsureWritable(prompt SwitchPrompt) *orgmachine.MutationError {
	wallet := orgmachine.CurrentWallet()
	if wallet.Address == "" || !wallet.HasSigner {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			UserMessage: "Connect a wallet before making changes.",
		}
	}
	required := orgmachine.RequiredChainID()
	if wallet.ChainID != required {
		orgmachine.LogCLI(fmt.Sprintf("wallet on chain %d, need %d", wallet.ChainID, required), 3)
		if prompt != nil {
			prompt(required)
		}
		return &orgmachine.MutationError{Kind: orgmachine.ErrNetworkMismatch}
	}
	return nil
}
