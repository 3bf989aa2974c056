package mutation

import (
	"net/url"

	"github.com/sasha-s/go-deadlock"
)

// Route is a shallow navigation target: the URL changes, nothing refetches.
type Route struct {
	Path   string
	Params map[string]string
}

// TaskDeepLink builds the route a task modal lives at. Claim, submit and
// complete push this before submitting so the modal survives a remount.
func TaskDeepLink(taskID, projectID, orgName string) *Route {
	return &Route{
		Path: "/tasks",
		Params: map[string]string{
			"task":      taskID,
			"projectId": projectID,
			"userDAO":   orgName,
		},
	}
}

func ProposalDeepLink(proposalIDOrTitle, orgName string) *Route {
	return &Route{
		Path: "/voting",
		Params: map[string]string{
			"poll":    proposalIDOrTitle,
			"userDAO": orgName,
		},
	}
}

func (r *Route) String() string {
	values := url.Values{}
	for k, v := range r.Params {
		values.Set(k, v)
	}
	if len(values) == 0 {
		return r.Path
	}
	return r.Path + "?" + values.Encode()
}

// Router is the navigation surface the engine depends on. ShallowPush updates
// the URL without refetching; Settle blocks until the push is observable.
type Router interface {
	ShallowPush(path string, params map[string]string)
	Settle()
}

// MemoryRouter is the in-process router. Besides the current route it tracks
// the modal close sentinel: while Closing is set the open-on-URL-match effect
// must not re-open the modal, and the sentinel only clears after the closing
// route update settles.
type MemoryRouter struct {
	mutex     *deadlock.Mutex
	path      string
	params    map[string]string
	closing   bool
	listeners []func(route *Route)
}

func NewMemoryRouter() *MemoryRouter {
	return &MemoryRouter{mutex: &deadlock.Mutex{}}
}

func (r *MemoryRouter) ShallowPush(path string, params map[string]string) {
	r.mutex.Lock()
	r.path = path
	r.params = params
	route := &Route{Path: path, Params: params}
	listeners := make([]func(*Route), len(r.listeners))
	copy(listeners, r.listeners)
	r.mutex.Unlock()
	for _, fn := range listeners {
		fn(route)
	}
}

// Settle is immediate for the in-process router; a browser-backed router
// would block on the history update here.
func (r *MemoryRouter) Settle() {}

func (r *MemoryRouter) Current() *Route {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return &Route{Path: r.path, Params: r.params}
}

// OnChange registers a navigation listener. The taskboard uses this for the
// open-on-URL-match effect.
func (r *MemoryRouter) OnChange(fn func(route *Route)) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.listeners = append(r.listeners, fn)
}

// CloseModal pushes the current route minus the given parameter, settles, and
// only then clears the closing sentinel.
func (r *MemoryRouter) CloseModal(param string) {
	r.mutex.Lock()
	r.closing = true
	path := r.path
	params := make(map[string]string, len(r.params))
	for k, v := range r.params {
		if k == param {
			continue
		}
		params[k] = v
	}
	r.mutex.Unlock()

	r.ShallowPush(path, params)
	r.Settle()

	r.mutex.Lock()
	r.closing = false
	r.mutex.Unlock()
}

// Closing reports whether a modal close is in flight.
func (r *MemoryRouter) Closing() bool {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return r.closing
}
