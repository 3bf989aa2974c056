package scopes

import (
	"os"
	"path/filepath"

	jsoniter "github.com/json-iterator/go"

	"orgmachine/orgmachine"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func cacheDir() string {
	config := orgmachine.MakeOrGetConfig()
	return filepath.Join(config.GetString("rootDir"), config.GetString("scopeCacheDir"))
}

// EnsureCacheVersion compares the persisted cacheVersion key against the
// compiled-in one. On mismatch the on-disk scope cache is cleared exactly
// once and the key rewritten, so stale schema shapes never reach the UI.
func EnsureCacheVersion() {
	config := orgmachine.MakeOrGetConfig()
	persisted := config.GetString("cacheVersion")
	if persisted == orgmachine.CompiledCacheVersion {
		return
	}
	if persisted != "" {
		orgmachine.LogCLI("cache version "+persisted+" is stale, clearing scope cache", 4)
	}
	if err := os.RemoveAll(cacheDir()); err != nil {
		orgmachine.LogCLI(err, 2)
	}
	config.Set("cacheVersion", orgmachine.CompiledCacheVersion)
	if err := config.WriteConfig(); err != nil {
		orgmachine.LogCLI(err, 2)
	}
}

// LoadCached reads a scope's persisted snapshot. Absence is not an error.
func LoadCached(name string, out interface{}) bool {
	b, err := os.ReadFile(filepath.Join(cacheDir(), name+".json"))
	if err != nil {
		return false
	}
	if err = json.Unmarshal(b, out); err != nil {
		orgmachine.LogCLI(err, 2)
		return false
	}
	return true
}

// StoreCached persists a scope's snapshot for the next start.
func StoreCached(name string, data interface{}) {
	if err := os.MkdirAll(cacheDir(), 0755); err != nil {
		orgmachine.LogCLI(err, 2)
		return
	}
	b, err := json.Marshal(data)
	if err != nil {
		orgmachine.LogCLI(err, 1)
		return
	}
	if err = os.WriteFile(filepath.Join(cacheDir(), name+".json"), b, 0644); err != nil {
		orgmachine.LogCLI(err, 2)
	}
}
