package notifications_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/engine/notifications"
)

func TestPendingThenSuccessAutoDismisses(t *testing.T) {
	list := notifications.NewList()
	list.SetDismissAfter(20 * time.Millisecond)

	id := list.Pending("Moving task", "Waiting for confirmation")
	require.Len(t, list.Snapshot(), 1)
	assert.Equal(t, 0, list.TimerCount())

	list.Update(id, notifications.StatusSuccess, "Task moved", "")
	assert.Equal(t, 1, list.TimerCount())

	assert.Eventually(t, func() bool {
		return len(list.Snapshot()) == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, list.TimerCount())
}

func TestErrorPersistsUntilDismissed(t *testing.T) {
	list := notifications.NewList()
	list.SetDismissAfter(10 * time.Millisecond)

	id := list.Pending("Moving task", "")
	list.Update(id, notifications.StatusError, "Error moving task", "The transaction was rejected.")

	time.Sleep(30 * time.Millisecond)
	snap := list.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, notifications.StatusError, snap[0].Status)
	assert.Equal(t, 0, list.TimerCount())

	list.Remove(id)
	assert.Empty(t, list.Snapshot())
}

func TestReUpdatingSuccessReplacesTimer(t *testing.T) {
	list := notifications.NewList()
	list.SetDismissAfter(time.Hour)

	id := list.Pending("x", "")
	list.Update(id, notifications.StatusSuccess, "", "")
	assert.Equal(t, 1, list.TimerCount())
	list.Update(id, notifications.StatusSuccess, "", "")
	// one timer per notification id at any time
	assert.Equal(t, 1, list.TimerCount())
}

func TestUnmountClearsAllTimers(t *testing.T) {
	list := notifications.NewList()
	list.SetDismissAfter(time.Hour)

	a := list.Pending("a", "")
	b := list.Pending("b", "")
	list.Update(a, notifications.StatusSuccess, "", "")
	list.Update(b, notifications.StatusSuccess, "", "")
	assert.Equal(t, 2, list.TimerCount())

	list.Unmount()
	assert.Equal(t, 0, list.TimerCount())
	// items themselves survive unmount; only the timers die
	assert.Len(t, list.Snapshot(), 2)
}

func TestToastIsOneShotError(t *testing.T) {
	list := notifications.NewList()
	list.Toast("Permission Required", "You must be an executive to complete the review.")
	snap := list.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, notifications.StatusError, snap[0].Status)
	assert.Equal(t, 0, list.TimerCount())
}

func TestObserverSeesSnapshotsInProductionOrder(t *testing.T) {
	list := notifications.NewList()
	const updates = 50
	got := make(chan int, updates)
	list.OnChange(func(items []notifications.Notification) {
		got <- len(items)
	})
	for i := 0; i < updates; i++ {
		list.Pending("x", "")
	}
	for want := 1; want <= updates; want++ {
		select {
		case n := <-got:
			require.Equal(t, want, n)
		case <-time.After(time.Second):
			t.Fatalf("observer stalled waiting for snapshot %d", want)
		}
	}
}

func TestOnChangeObserverSeesSnapshots(t *testing.T) {
	list := notifications.NewList()
	got := make(chan int, 8)
	list.OnChange(func(items []notifications.Notification) {
		got <- len(items)
	})
	list.Pending("a", "")
	select {
	case n := <-got:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("observer never invoked")
	}
}
