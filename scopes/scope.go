// Package scopes is the read-model framework. A Scope is a per-domain view
// over the indexer: it fetches when its parameters are populated, listens to
// refresh events, refetches on a delay that tolerates indexer lag, and hands
// consumers an immutable transformed snapshot. Domain packages under scopes/
// wrap a Scope with their transform and derived selectors.
package scopes

import (
	"context"
	"fmt"
	"time"

	"github.com/sasha-s/go-deadlock"

	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
)

type Freshness int

const (
	// CacheFirst serves the persisted snapshot and only fetches when there is
	// none. Reference data: org structure, user profile.
	CacheFirst Freshness = iota
	// CacheAndNetwork serves the persisted snapshot immediately but always
	// fetches. Operational data: tasks, proposals, treasury.
	CacheAndNetwork
)

// Params gate the initial fetch: a scope reports loading until the ids it
// needs are populated.
type Params struct {
	Org     orgmachine.OrgID
	Address orgmachine.Address
}

// NeedsOrg-only scopes leave Address empty in their Required.
type Required struct {
	Org     bool
	Address bool
}

func (p Params) Satisfies(r Required) bool {
	if r.Org && p.Org == "" {
		return false
	}
	if r.Address && p.Address == "" {
		return false
	}
	return true
}

// Options configures one scope.
type Options[T any] struct {
	Name      string
	Freshness Freshness
	Requires  Required
	Events    []refreshbus.Event
	// Fetch runs the named query and the transform, returning display shape.
	Fetch func(ctx context.Context, p Params) (T, error)
	// Delay overrides the configured refetchDelaySeconds when positive.
	Delay time.Duration
}

type Scope[T any] struct {
	mutex *deadlock.Mutex

	name      string
	freshness Freshness
	requires  Required
	fetch     func(ctx context.Context, p Params) (T, error)
	delay     time.Duration

	params  Params
	data    T
	hasData bool
	loading bool
	version uint64

	// fetchSeq implements latest-wins: a refetch superseded by a newer one
	// discards its result.
	fetchSeq     uint64
	pendingTimer *time.Timer

	onReplace    []func(T)
	unsubscribes []func()
}

func New[T any](bus *refreshbus.Bus, opts Options[T]) *Scope[T] {
	delay := opts.Delay
	if delay <= 0 {
		delay = time.Duration(orgmachine.MakeOrGetConfig().GetInt64("refetchDelaySeconds")) * time.Second
	}
	s := &Scope[T]{
		mutex:     &deadlock.Mutex{},
		name:      opts.Name,
		freshness: opts.Freshness,
		requires:  opts.Requires,
		fetch:     opts.Fetch,
		delay:     delay,
		loading:   true,
	}
	for _, event := range opts.Events {
		s.unsubscribes = append(s.unsubscribes, bus.Subscribe(event, func(refreshbus.Payload) {
			s.ScheduleRefetch()
		}))
	}
	return s
}

// SetParams populates the scope's parameters and triggers the initial fetch
// once they satisfy the requirement. Until then consumers see loading.
func (s *Scope[T]) SetParams(ctx context.Context, p Params) {
	s.mutex.Lock()
	s.params = p
	satisfied := p.Satisfies(s.requires)
	alreadyLoaded := s.hasData
	s.mutex.Unlock()
	if !satisfied {
		return
	}
	if alreadyLoaded && s.freshness == CacheFirst {
		return
	}
	s.Refetch(ctx)
}

// Refetch runs the fetch now. Only the latest in-flight refetch applies its
// result; earlier ones are superseded.
func (s *Scope[T]) Refetch(ctx context.Context) {
	s.mutex.Lock()
	if !s.params.Satisfies(s.requires) {
		s.mutex.Unlock()
		return
	}
	s.fetchSeq++
	seq := s.fetchSeq
	params := s.params
	s.mutex.Unlock()

	data, err := s.fetch(ctx, params)
	if err != nil {
		orgmachine.LogCLI(fmt.Sprintf("scope %s fetch failed: %s", s.name, err), 2)
		return
	}

	s.mutex.Lock()
	if seq != s.fetchSeq {
		s.mutex.Unlock()
		return
	}
	s.replaceLocked(data)
	s.mutex.Unlock()
}

// ScheduleRefetch arms a single delayed refetch. Repeat events inside the
// delay window coalesce into the one already armed.
func (s *Scope[T]) ScheduleRefetch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.pendingTimer != nil {
		return
	}
	s.pendingTimer = time.AfterFunc(s.delay, func() {
		s.mutex.Lock()
		s.pendingTimer = nil
		s.mutex.Unlock()
		s.Refetch(context.Background())
	})
}

// Replace installs data produced locally (an optimistic overlay composition or
// a cache load) and bumps the version.
func (s *Scope[T]) Replace(data T) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.replaceLocked(data)
}

func (s *Scope[T]) replaceLocked(data T) {
	s.data = data
	s.hasData = true
	s.loading = false
	s.version++
	if orgmachine.MakeOrGetConfig().GetBool("logScopes") {
		orgmachine.DumpState("scope "+s.name, data)
	}
	for _, fn := range s.onReplace {
		fn(data)
	}
}

// OnReplace registers a hook run under the scope lock after every data
// replacement. Domain packages use it to reconcile overlays and selections.
// A hook registered after data already arrived is invoked with the current
// snapshot right away, so late registration never misses the cached seed.
func (s *Scope[T]) OnReplace(fn func(T)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.onReplace = append(s.onReplace, fn)
	if s.hasData {
		fn(s.data)
	}
}

// Data returns the current snapshot and whether one exists yet. The snapshot
// is immutable once produced; updates replace the reference.
func (s *Scope[T]) Data() (T, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.data, s.hasData
}

func (s *Scope[T]) Loading() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.loading
}

// Version is the monotonic replacement counter consulted by the mutation
// engine's late-revert check.
func (s *Scope[T]) Version() uint64 {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.version
}

// Snapshot and Restore adapt the scope to the mutation engine. Restore counts
// as a replacement.
func (s *Scope[T]) Snapshot() interface{} {
	data, _ := s.Data()
	return data
}

func (s *Scope[T]) Restore(snapshot interface{}) {
	s.Replace(snapshot.(T))
}

// Close stops the pending refetch and detaches from the bus.
func (s *Scope[T]) Close() {
	s.mutex.Lock()
	if s.pendingTimer != nil {
		s.pendingTimer.Stop()
		s.pendingTimer = nil
	}
	unsubscribes := s.unsubscribes
	s.unsubscribes = nil
	s.mutex.Unlock()
	for _, unsubscribe := range unsubscribes {
		unsubscribe()
	}
}
