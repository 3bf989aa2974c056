package orgmachine

import (
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"
)

var conf *viper.Viper

func MakeOrGetConfig() *viper.Viper {
	return conf
}

func SetConfig(config *viper.Viper) {
	conf = config
}

// WalletState is what we know about the connected wallet right now. Reads may
// proceed on any chain; writes require ChainID == RequiredChainID.
type WalletState struct {
	Address   Address
	ChainID   int64
	HasSigner bool
}

type State struct {
	Wallet   WalletState
	Shutdown chan struct{}
}

var currentState = State{}
var stateMutex = &deadlock.Mutex{}

func RequiredChainID() int64 {
	return MakeOrGetConfig().GetInt64("requiredChainId")
}

func CurrentWallet() WalletState {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	return currentState.Wallet
}

func SetWallet(w WalletState) {
	stateMutex.Lock()
	defer stateMutex.Unlock()
	currentState.Wallet = w
}

func RegisterShutdownChan(shutdown chan struct{}) {
	currentState.Shutdown = shutdown
}

func Shutdown() {
	LogCLI("Calling Shutdown", 2)
	select {
	case <-currentState.Shutdown:
		return
	default:
		close(currentState.Shutdown)
	}
	go func() {
		LogCLI("Shutting down. Scope caches that fail to flush within 30 seconds will be dropped and rebuilt from the indexer on next start.", 4)
		time.Sleep(time.Second * 30)
		println("Something didn't shutdown cleanly.")
	}()
}
