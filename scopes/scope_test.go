package scopes_test

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
)

func testConfig(t *testing.T) *viper.Viper {
	t.Helper()
	config := viper.New()
	dir := t.TempDir()
	config.SetDefault("rootDir", dir+"/")
	config.SetDefault("scopeCacheDir", "scopecache/")
	config.SetDefault("refetchDelaySeconds", 2)
	config.SetDefault("logScopes", false)
	config.SetConfigType("yaml")
	config.SetConfigFile(filepath.Join(dir, "config.yaml"))
	orgmachine.Touch(filepath.Join(dir, "config.yaml"))
	orgmachine.SetConfig(config)
	return config
}

func TestScopeLoadsUntilParamsSatisfied(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	var fetches int32
	scope := scopes.New(bus, scopes.Options[string]{
		Name:     "test",
		Requires: scopes.Required{Org: true},
		Fetch: func(context.Context, scopes.Params) (string, error) {
			atomic.AddInt32(&fetches, 1)
			return "data", nil
		},
		Delay: 10 * time.Millisecond,
	})
	defer scope.Close()

	assert.True(t, scope.Loading())
	scope.SetParams(context.Background(), scopes.Params{})
	assert.True(t, scope.Loading())
	assert.Equal(t, int32(0), atomic.LoadInt32(&fetches))

	scope.SetParams(context.Background(), scopes.Params{Org: "0xorg"})
	data, ok := scope.Data()
	require.True(t, ok)
	assert.Equal(t, "data", data)
	assert.False(t, scope.Loading())
}

func TestEventsCoalesceToOneRefetch(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	var fetches int32
	scope := scopes.New(bus, scopes.Options[int]{
		Name:   "test",
		Events: []refreshbus.Event{refreshbus.TaskClaimed, refreshbus.TaskCreated},
		Fetch: func(context.Context, scopes.Params) (int, error) {
			return int(atomic.AddInt32(&fetches, 1)), nil
		},
		Delay: 50 * time.Millisecond,
	})
	defer scope.Close()
	scope.SetParams(context.Background(), scopes.Params{})
	require.Equal(t, int32(1), atomic.LoadInt32(&fetches))

	bus.Emit(refreshbus.TaskClaimed, nil)
	bus.Emit(refreshbus.TaskCreated, nil)
	bus.Emit(refreshbus.TaskClaimed, nil)

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&fetches) == 2
	}, time.Second, 10*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(2), atomic.LoadInt32(&fetches))
}

func TestSupersededRefetchDiscarded(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	release := make(chan struct{})
	var calls int32
	scope := scopes.New(bus, scopes.Options[string]{
		Name: "test",
		Fetch: func(context.Context, scopes.Params) (string, error) {
			n := atomic.AddInt32(&calls, 1)
			if n == 1 {
				<-release
				return "stale", nil
			}
			return "fresh", nil
		},
		Delay: 10 * time.Millisecond,
	})
	defer scope.Close()

	done := make(chan struct{})
	go func() {
		scope.SetParams(context.Background(), scopes.Params{})
		close(done)
	}()
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)

	scope.Refetch(context.Background())
	close(release)
	<-done

	data, ok := scope.Data()
	require.True(t, ok)
	assert.Equal(t, "fresh", data)
	assert.Equal(t, uint64(1), scope.Version())
}

func TestVersionBumpsOnEveryReplacement(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	scope := scopes.New(bus, scopes.Options[string]{
		Name:  "test",
		Fetch: func(context.Context, scopes.Params) (string, error) { return "a", nil },
		Delay: 10 * time.Millisecond,
	})
	defer scope.Close()
	assert.Equal(t, uint64(0), scope.Version())
	scope.Replace("b")
	scope.Replace("c")
	assert.Equal(t, uint64(2), scope.Version())

	// restore counts too, so a late revert can be detected
	snapshot := scope.Snapshot()
	scope.Restore(snapshot)
	assert.Equal(t, uint64(3), scope.Version())
}

func TestOnReplaceHookSeesEveryReplacement(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	scope := scopes.New(bus, scopes.Options[string]{
		Name:  "test",
		Fetch: func(context.Context, scopes.Params) (string, error) { return "x", nil },
		Delay: 10 * time.Millisecond,
	})
	defer scope.Close()
	var seen []string
	scope.OnReplace(func(data string) { seen = append(seen, data) })
	scope.Replace("one")
	scope.Replace("two")
	assert.Equal(t, []string{"one", "two"}, seen)
}

func TestOnReplaceAfterDataFiresImmediately(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	scope := scopes.New(bus, scopes.Options[string]{
		Name:  "test",
		Fetch: func(context.Context, scopes.Params) (string, error) { return "x", nil },
		Delay: 10 * time.Millisecond,
	})
	defer scope.Close()

	// a cached seed lands before anyone registers a hook
	scope.Replace("cached")

	var seen []string
	scope.OnReplace(func(data string) { seen = append(seen, data) })
	assert.Equal(t, []string{"cached"}, seen)

	scope.Replace("fresh")
	assert.Equal(t, []string{"cached", "fresh"}, seen)
}

func TestMemoOnlyRederivesOnNewVersion(t *testing.T) {
	testConfig(t)
	bus := refreshbus.New()
	scope := scopes.New(bus, scopes.Options[[]int]{
		Name:  "test",
		Fetch: func(context.Context, scopes.Params) ([]int, error) { return nil, nil },
		Delay: 10 * time.Millisecond,
	})
	defer scope.Close()
	scope.Replace([]int{3, 1, 2})

	var derivations int
	memo := scopes.NewMemo(func(data []int) int {
		derivations++
		sum := 0
		for _, v := range data {
			sum += v
		}
		return sum
	})
	assert.Equal(t, 6, memo.Get(scope))
	assert.Equal(t, 6, memo.Get(scope))
	assert.Equal(t, 1, derivations)

	scope.Replace([]int{10})
	assert.Equal(t, 10, memo.Get(scope))
	assert.Equal(t, 2, derivations)
}

func TestCacheRoundTripAndVersionClear(t *testing.T) {
	config := testConfig(t)

	type shape struct{ Name string }
	scopes.StoreCached("orgdata", shape{Name: "okinoko"})
	var loaded shape
	require.True(t, scopes.LoadCached("orgdata", &loaded))
	assert.Equal(t, "okinoko", loaded.Name)

	// stale version clears the cache exactly once and rewrites the key
	config.Set("cacheVersion", "1")
	scopes.EnsureCacheVersion()
	assert.False(t, scopes.LoadCached("orgdata", &loaded))
	assert.Equal(t, orgmachine.CompiledCacheVersion, config.GetString("cacheVersion"))

	// matching version leaves a fresh cache alone
	scopes.StoreCached("orgdata", shape{Name: "kept"})
	scopes.EnsureCacheVersion()
	require.True(t, scopes.LoadCached("orgdata", &loaded))
	assert.Equal(t, "kept", loaded.Name)

	_, err := os.Stat(filepath.Join(config.GetString("rootDir"), config.GetString("scopeCacheDir")))
	assert.NoError(t, err)
}
