package orgmachine

import (
	"os"

	"github.com/spf13/viper"
)

// CompiledCacheVersion is bumped whenever a scope's display shape changes.
// On startup a mismatch against the persisted cacheVersion key clears the
// on-disk scope cache so stale schema shapes never reach the UI.
const CompiledCacheVersion = "3"

// InitConfig sets up our Viper config object
func InitConfig(config *viper.Viper) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		LogCLI(err.Error(), 0)
	}
	config.SetDefault("rootDir", homeDir+"/orgmachine/")
	config.SetConfigType("yaml")
	config.SetConfigFile(config.GetString("rootDir") + "config.yaml")
	err = config.ReadInConfig()
	if err != nil {
		LogCLI(err.Error(), 4)
	}
	config.SetDefault("firstRun", true)
	config.SetDefault("orgName", "okinoko")
	config.SetDefault("scopeCacheDir", "scopecache/")
	config.SetDefault("indexerUrl", "https://indexer.example.org/graphql")
	config.SetDefault("walletRpc", "http://127.0.0.1:2032")
	config.SetDefault("blobGateway", "https://ipfs.io")
	config.SetDefault("blobApi", "https://ipfs.infura.io:5001")
	config.SetDefault("requiredChainId", int64(8453))
	config.SetDefault("refetchDelaySeconds", 2)
	config.SetDefault("websocketAddr", "127.0.0.1:2031")
	config.SetDefault("logLevel", 4)
	config.SetDefault("logScopes", false)
	config.SetDefault("keepAliveOnFatal", false)

	// the two persisted client keys
	config.SetDefault("hasSeenSwipeGuide", false)
	config.SetDefault("cacheVersion", "")

	initRootDir(config)
	Touch(config.GetString("rootDir") + "config.yaml")
	err = config.WriteConfig()
	if err != nil {
		LogCLI(err.Error(), 0)
	}
}

func initRootDir(conf *viper.Viper) {
	_, err := os.Stat(conf.GetString("rootDir"))
	if os.IsNotExist(err) {
		err = os.Mkdir(conf.GetString("rootDir"), 0755)
		if err != nil {
			LogCLI(err, 0)
		}
	}
}
