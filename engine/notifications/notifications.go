// Package notifications holds the user-visible notification list. The
// mutation engine is the only writer besides the list's own dismiss handler.
package notifications

import (
	"time"

	"github.com/google/uuid"
	"github.com/sasha-s/go-deadlock"
)

type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	}
	return "unknown"
}

type Notification struct {
	ID        string
	Status    Status
	Title     string
	Message   string
	CreatedAt time.Time
}

// SuccessDismissAfter is how long a success notification stays up. Pending
// and error notifications persist until explicitly dismissed.
const SuccessDismissAfter = 6 * time.Second

// List is the mutable notification set. Auto-dismiss timers are tracked in a
// map keyed by notification id; there is exactly one timer per id at any time.
type List struct {
	mutex        *deadlock.Mutex
	items        []Notification
	timers       map[string]*time.Timer
	dismissAfter time.Duration
	onChange     func([]Notification)

	// snapshots queued for the observer, delivered by a single goroutine so
	// the observer always sees them in the order they were produced
	queue      [][]Notification
	delivering bool
}

func NewList() *List {
	return &List{
		mutex:        &deadlock.Mutex{},
		timers:       make(map[string]*time.Timer),
		dismissAfter: SuccessDismissAfter,
	}
}

// OnChange registers a single observer invoked with a snapshot after every
// change. The uibridge uses this to push the list to the frontend.
func (l *List) OnChange(fn func([]Notification)) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.onChange = fn
}

// Pending appends a pending notification and returns its id.
func (l *List) Pending(title, message string) string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	id := uuid.NewString()
	l.items = append(l.items, Notification{
		ID:        id,
		Status:    StatusPending,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	})
	l.notifyLocked()
	return id
}

// Toast appends a one-shot error notification that never passed through the
// pending track. Pre-submit failures land here.
func (l *List) Toast(title, message string) string {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	id := uuid.NewString()
	l.items = append(l.items, Notification{
		ID:        id,
		Status:    StatusError,
		Title:     title,
		Message:   message,
		CreatedAt: time.Now(),
	})
	l.notifyLocked()
	return id
}

// Update flips an existing notification to the given status. A success
// schedules auto-dismissal; re-updating to success cancels and replaces any
// prior timer for the id.
func (l *List) Update(id string, status Status, title, message string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	for i := range l.items {
		if l.items[i].ID != id {
			continue
		}
		l.items[i].Status = status
		if title != "" {
			l.items[i].Title = title
		}
		if message != "" {
			l.items[i].Message = message
		}
		l.cancelTimerLocked(id)
		if status == StatusSuccess {
			l.timers[id] = time.AfterFunc(l.dismissAfter, func() {
				l.Remove(id)
			})
		}
		l.notifyLocked()
		return
	}
}

// Remove dismisses a notification and clears its timer if one is pending.
func (l *List) Remove(id string) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.cancelTimerLocked(id)
	for i := range l.items {
		if l.items[i].ID == id {
			l.items = append(l.items[:i], l.items[i+1:]...)
			l.notifyLocked()
			return
		}
	}
}

// Unmount clears every pending auto-dismiss timer. The container calls this
// when it goes away so no timer fires into a dead list.
func (l *List) Unmount() {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	for id, timer := range l.timers {
		timer.Stop()
		delete(l.timers, id)
	}
}

// Snapshot returns a copy of the current list, newest last.
func (l *List) Snapshot() []Notification {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	return out
}

// TimerCount reports how many auto-dismiss timers are live.
func (l *List) TimerCount() int {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	return len(l.timers)
}

// SetDismissAfter overrides the success auto-dismiss delay.
func (l *List) SetDismissAfter(d time.Duration) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.dismissAfter = d
}

func (l *List) cancelTimerLocked(id string) {
	if timer, ok := l.timers[id]; ok {
		timer.Stop()
		delete(l.timers, id)
	}
}

func (l *List) notifyLocked() {
	if l.onChange == nil {
		return
	}
	out := make([]Notification, len(l.items))
	copy(out, l.items)
	l.queue = append(l.queue, out)
	if l.delivering {
		return
	}
	l.delivering = true
	go l.deliver()
}

// deliver drains the snapshot queue in order. Exactly one deliver goroutine
// runs at a time, so the observer never sees a newer snapshot before an
// older one.
func (l *List) deliver() {
	for {
		l.mutex.Lock()
		if len(l.queue) == 0 {
			l.delivering = false
			l.mutex.Unlock()
			return
		}
		snapshot := l.queue[0]
		l.queue = l.queue[1:]
		observer := l.onChange
		l.mutex.Unlock()
		observer(snapshot)
	}
}
