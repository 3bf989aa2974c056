package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sasha-s/go-deadlock"
	"github.com/spf13/viper"

	"orgmachine/blobstore"
	"orgmachine/engine/mutation"
	"orgmachine/engine/notifications"
	"orgmachine/messaging/chainwriter"
	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/messaging/uibridge"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
	"orgmachine/scopes/orgdata"
	"orgmachine/scopes/structure"
	"orgmachine/scopes/taskboard"
	"orgmachine/scopes/treasury"
	"orgmachine/scopes/userdata"
	"orgmachine/scopes/votingdata"
)

// wiring holds everything the cliListener pokes at.
type wiring struct {
	mutex *deadlock.Mutex

	bus           *refreshbus.Bus
	notifications *notifications.List
	engine        *mutation.Engine
	router        *mutation.MemoryRouter
	resolver      *blobstore.Resolver
	writer        chainwriter.Writer

	orgID   orgmachine.OrgID
	orgName string

	orgScope       *scopes.Scope[orgdata.Org]
	userScope      *scopes.Scope[userdata.User]
	votingScope    *scopes.Scope[votingdata.Voting]
	structureScope *scopes.Scope[structure.Structure]
	treasuryScope  *scopes.Scope[treasury.Treasury]
	board          *taskboard.Taskboard
}

func main() {
	deadlock.Opts.DisableLockOrderDetection = true
	deadlock.Opts.DeadlockTimeout = time.Millisecond * 30000

	// Various aspects of this application require global and local settings.
	// To keep things clean and tidy we put these settings in a Viper
	// configuration.
	conf := viper.New()
	orgmachine.InitConfig(conf)
	orgmachine.SetConfig(conf)

	// a stale persisted cache version clears the scope cache exactly once
	scopes.EnsureCacheVersion()

	// the terminator channel blocks until shutdown, anything requiring a
	// clean shutdown should wait on this channel and clean up when it stops
	// blocking.
	terminator := make(chan struct{})

	// anything requiring a clean shutdown (scope caches, sockets) must add to
	// this waitgroup and remove from it when done. Failure to do this will
	// result in abandoned goroutines at sigterm.
	wg := &sync.WaitGroup{}

	// interrupt: see cliListener
	interrupt := make(chan struct{})
	orgmachine.RegisterShutdownChan(interrupt)

	w := start(terminator, wg)
	go cliListener(interrupt, w)

	orgmachine.LogCLI("Waiting for terminate signal, press q to quit", 4)
	<-interrupt

	orgmachine.MakeOrGetConfig().Set("firstRun", false)
	if err := orgmachine.MakeOrGetConfig().WriteConfig(); err != nil {
		orgmachine.LogCLI(err.Error(), 3)
	}
	close(terminator)
	wg.Wait()
}

// start wires every component in dependency order: bus and notifications
// first, then the read scopes, then the engine and the bridge toward the UI.
func start(terminator chan struct{}, wg *sync.WaitGroup) *wiring {
	w := &wiring{
		mutex:         &deadlock.Mutex{},
		bus:           refreshbus.New(),
		notifications: notifications.NewList(),
		router:        mutation.NewMemoryRouter(),
		orgName:       orgmachine.MakeOrGetConfig().GetString("orgName"),
	}

	client := indexer.NewClient(indexer.NewHTTPExecutor())
	w.resolver = blobstore.NewResolver(blobstore.NewHTTPClient())
	w.writer = chainwriter.NewRPCWriter()

	w.orgScope = orgdata.Scope(w.bus, client)
	w.userScope = userdata.Scope(w.bus, client)
	w.votingScope = votingdata.Scope(w.bus, client)
	w.structureScope = structure.Scope(w.bus, client)
	w.board = taskboard.New(w.bus, client)

	// the treasury needs the participation token address, which arrives with
	// the org document; the hook also fires immediately when the org scope
	// was already seeded from cache
	w.orgScope.OnReplace(func(org orgdata.Org) {
		w.mutex.Lock()
		defer w.mutex.Unlock()
		if w.treasuryScope == nil && org.Token != "" {
			ts := treasury.Scope(w.bus, client, org.Token)
			w.treasuryScope = ts
			// the hook runs under the org scope's lock; fetch elsewhere
			go ts.SetParams(context.Background(), scopes.Params{Org: org.ID})
		}
	})

	w.engine = mutation.NewEngine(w.bus, w.notifications, w.router, func(required int64) {
		orgmachine.LogCLI("wallet is on the wrong network, prompting switch", 4)
	})

	go w.bootstrap(terminator, client)

	bridge := uibridge.New(w.bus, w.notifications)
	bridge.OnWallet(w.connectWallet)
	bridge.Serve("orgdata", func() interface{} { data, _ := w.orgScope.Data(); return data })
	bridge.Serve("userdata", func() interface{} { data, _ := w.userScope.Data(); return data })
	bridge.Serve("votingdata", func() interface{} { data, _ := w.votingScope.Data(); return data })
	bridge.Serve("structure", func() interface{} { data, _ := w.structureScope.Data(); return data })
	bridge.Serve("taskboard", func() interface{} { return w.board.Compose() })
	bridge.Serve("notifications", func() interface{} { return w.notifications.Snapshot() })
	bridge.Start(terminator, wg)

	wg.Add(1)
	go func() {
		<-terminator
		w.board.Close()
		w.orgScope.Close()
		w.userScope.Close()
		w.votingScope.Close()
		w.structureScope.Close()
		w.mutex.Lock()
		treasuryScope := w.treasuryScope
		w.mutex.Unlock()
		if treasuryScope != nil {
			treasuryScope.Close()
		}
		w.notifications.Unmount()
		wg.Done()
	}()
	return w
}

// bootstrap resolves the configured organization name to its id and feeds the
// parameters into every scope. The indexer may not be reachable on startup,
// so this retries until it is or we shut down.
func (w *wiring) bootstrap(terminator chan struct{}, client *indexer.Client) {
	ctx := context.Background()
	var ref *indexer.OrgRef
	for {
		var err error
		ref, err = client.OrgByName(ctx, w.orgName)
		if err == nil {
			break
		}
		orgmachine.LogCLI(fmt.Sprintf("resolving org %s: %s", w.orgName, err), 2)
		select {
		case <-terminator:
			return
		case <-time.After(10 * time.Second):
		}
	}
	orgmachine.LogCLI(fmt.Sprintf("resolved org %s to %s", w.orgName, ref.ID), 4)

	w.mutex.Lock()
	w.orgID = ref.ID
	w.mutex.Unlock()

	params := scopes.Params{Org: ref.ID}
	w.orgScope.SetParams(ctx, params)
	w.votingScope.SetParams(ctx, params)
	w.structureScope.SetParams(ctx, params)
	w.board.SetParams(ctx, params)
	// userdata additionally needs the wallet address
	w.feedUserScope(ctx)
}

// connectWallet lands wallet frames from the frontend: the global wallet
// state feeds the pre-submit checks, and the user scope can fetch once both
// the org and an address are known.
func (w *wiring) connectWallet(state orgmachine.WalletState) {
	orgmachine.SetWallet(state)
	orgmachine.LogCLI(fmt.Sprintf("wallet %s on chain %d", state.Address, state.ChainID), 4)
	w.feedUserScope(context.Background())
}

func (w *wiring) feedUserScope(ctx context.Context) {
	w.mutex.Lock()
	org := w.orgID
	w.mutex.Unlock()
	wallet := orgmachine.CurrentWallet()
	if org == "" || wallet.Address == "" {
		return
	}
	w.userScope.SetParams(ctx, scopes.Params{Org: org, Address: wallet.Address})
}
