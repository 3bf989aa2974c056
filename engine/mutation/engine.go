// Package mutation implements the optimistic write protocol: apply the change
// to local state immediately, submit it to the chain, then either confirm via
// a refresh event or revert to the pre-apply snapshot. Every state-changing
// operation in the dashboard goes through Engine.Run.
package mutation

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"orgmachine/engine/notifications"
	"orgmachine/messaging/chainwriter"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
)

// Scope is the slice of state a mutation touches. Version is a monotonic
// counter bumped on every data replacement; it decides whether a late revert
// is still safe to apply.
type Scope interface {
	Snapshot() interface{}
	Restore(snapshot interface{})
	Version() uint64
}

// Notify is the user-facing message bundle for one mutation.
type Notify struct {
	Title   string
	Pending string
	Success string
	Error   string
}

// Mutation describes one optimistic write.
type Mutation struct {
	Scope  Scope
	Apply  func()
	Submit func(ctx context.Context) chainwriter.Result
	Notify Notify

	RefreshEvent refreshbus.Event
	RefreshData  map[string]interface{}

	// ClaimTaskID makes this mutation a per-task singleton: while a claim for
	// the id is in flight, further claims on it fail locally.
	ClaimTaskID string

	// Route, when set, is pushed before submit so a concurrent refetch that
	// remounts the modal lands back on the same task.
	Route *Route
}

type Result struct {
	Success bool
	Err     *orgmachine.MutationError
}

type Engine struct {
	bus           *refreshbus.Bus
	notifications *notifications.List
	router        Router
	prompt        chainwriter.SwitchPrompt

	mutex          *deadlock.Mutex
	claimsInFlight map[string]bool
}

func NewEngine(bus *refreshbus.Bus, list *notifications.List, router Router, prompt chainwriter.SwitchPrompt) *Engine {
	return &Engine{
		bus:            bus,
		notifications:  list,
		router:         router,
		prompt:         prompt,
		mutex:          &deadlock.Mutex{},
		claimsInFlight: make(map[string]bool),
	}
}

// Reject surfaces a pre-submit failure without touching any state. Network
// mismatches open the switch prompt instead of a toast; concurrent claims are
// silent; everything else gets a one-shot toast.
func (e *Engine) Reject(err *orgmachine.MutationError) Result {
	switch err.Kind {
	case orgmachine.ErrNetworkMismatch, orgmachine.ErrConcurrentClaim:
	default:
		notice := orgmachine.Describe(err)
		e.notifications.Toast(notice.Title, notice.Description)
	}
	return Result{Err: err}
}

// Run executes the full protocol. The order is fixed: wallet check, claim
// gate, route push, optimistic apply, pending notification, submit, then
// confirm or revert.
func (e *Engine) Run(ctx context.Context, m Mutation) Result {
	if err := chainwriter.EnsureWritable(e.prompt); err != nil {
		return e.Reject(err)
	}

	if m.ClaimTaskID != "" {
		if !e.beginClaim(m.ClaimTaskID) {
			return e.Reject(&orgmachine.MutationError{Kind: orgmachine.ErrConcurrentClaim})
		}
		defer e.endClaim(m.ClaimTaskID)
	}

	if m.Route != nil && e.router != nil {
		e.router.ShallowPush(m.Route.Path, m.Route.Params)
		e.router.Settle()
	}

	snapshot := m.Scope.Snapshot()
	m.Apply()
	appliedVersion := m.Scope.Version()

	id := e.notifications.Pending(m.Notify.Title, m.Notify.Pending)

	result := m.Submit(ctx)
	if result.Success {
		e.notifications.Update(id, notifications.StatusSuccess, "", m.Notify.Success)
		if m.RefreshEvent != "" {
			e.bus.Emit(m.RefreshEvent, m.RefreshData)
		}
		return Result{Success: true}
	}

	err := result.Err
	if err == nil {
		err = &orgmachine.MutationError{Kind: orgmachine.ErrExternalRejection}
	}
	notice := orgmachine.Describe(err)
	if m.Notify.Error != "" {
		notice.Title = m.Notify.Error
	}
	e.notifications.Update(id, notifications.StatusError, notice.Title, notice.Description)

	if m.Scope.Version() == appliedVersion {
		m.Scope.Restore(snapshot)
	} else if m.RefreshEvent != "" {
		// a later mutation replaced the scope underneath us; reverting now
		// would clobber it, so let the indexer reconcile instead
		e.bus.Emit(m.RefreshEvent, m.RefreshData)
	}
	return Result{Err: err}
}

func (e *Engine) beginClaim(taskID string) bool {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	if e.claimsInFlight[taskID] {
		return false
	}
	e.claimsInFlight[taskID] = true
	return true
}

func (e *Engine) endClaim(taskID string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.claimsInFlight, taskID)
}
