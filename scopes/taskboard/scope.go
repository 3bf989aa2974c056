package taskboard

import (
	"context"

	"github.com/sasha-s/go-deadlock"

	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
)

var refreshEvents = []refreshbus.Event{
	refreshbus.TaskCreated,
	refreshbus.TaskClaimed,
	refreshbus.TaskSubmitted,
	refreshbus.TaskCompleted,
	refreshbus.TaskUpdated,
	refreshbus.TaskCancelled,
	refreshbus.TaskApplicationSubmitted,
	refreshbus.TaskApplicationApproved,
	refreshbus.TaskAssigned,
	refreshbus.ProjectCreated,
	refreshbus.ProjectDeleted,
}

// Taskboard owns the indexed board plus the optimistic op log. Version covers
// both: an indexed replacement and an op change each bump it, which is what
// the mutation engine's late-revert check keys on.
type Taskboard struct {
	mutex *deadlock.Mutex
	scope *scopes.Scope[Board]
	ops   []Op

	version         uint64
	selectedProject string
}

func New(bus *refreshbus.Bus, client *indexer.Client) *Taskboard {
	tb := &Taskboard{mutex: &deadlock.Mutex{}}
	tb.scope = scopes.New(bus, scopes.Options[Board]{
		Name:      "taskboard",
		Freshness: scopes.CacheAndNetwork,
		Requires:  scopes.Required{Org: true},
		Events:    refreshEvents,
		Fetch: func(ctx context.Context, p scopes.Params) (Board, error) {
			doc, err := client.ProjectsData(ctx, p.Org)
			if err != nil {
				return Board{}, err
			}
			return Transform(doc), nil
		},
	})
	tb.scope.OnReplace(tb.onIndexedReplace)
	return tb
}

func (tb *Taskboard) SetParams(ctx context.Context, p scopes.Params) {
	tb.scope.SetParams(ctx, p)
}

func (tb *Taskboard) Loading() bool {
	return tb.scope.Loading()
}

// Refetch forces an immediate indexed refresh, bypassing the event delay.
func (tb *Taskboard) Refetch(ctx context.Context) {
	tb.scope.Refetch(ctx)
}

func (tb *Taskboard) Close() {
	tb.scope.Close()
}

// onIndexedReplace runs whenever a fresh indexed board lands: confirmed ops
// are dropped, and the selection is preserved or falls back to the first
// project.
func (tb *Taskboard) onIndexedReplace(board Board) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	live := tb.ops[:0]
	for _, op := range tb.ops {
		if !op.ConfirmedBy(board) {
			live = append(live, op)
		}
	}
	tb.ops = live

	if board.project(tb.selectedProject) == nil {
		tb.selectedProject = ""
		if len(board.Projects) > 0 {
			tb.selectedProject = board.Projects[0].ID
		}
	}
	tb.version++
}

// Compose renders the display board: a copy of the indexed snapshot with
// every live op applied in order.
func (tb *Taskboard) Compose() Board {
	indexed, ok := tb.scope.Data()
	if !ok {
		return Board{}
	}
	tb.mutex.Lock()
	ops := append([]Op(nil), tb.ops...)
	tb.mutex.Unlock()

	board := indexed.clone()
	for _, op := range ops {
		op.ApplyTo(&board)
	}
	return board
}

// Push appends an optimistic op. This is the mutation's apply step.
func (tb *Taskboard) Push(op Op) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.ops = append(tb.ops, op)
	tb.version++
}

// Drop removes an op by id. This is the revert step when called directly.
func (tb *Taskboard) Drop(opID string) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	for i, op := range tb.ops {
		if op.ID() == opID {
			tb.ops = append(tb.ops[:i], tb.ops[i+1:]...)
			tb.version++
			return
		}
	}
}

// Snapshot, Restore and Version adapt the board to the mutation engine: the
// snapshot is the op log, since the indexed data underneath is immutable.
func (tb *Taskboard) Snapshot() interface{} {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return append([]Op(nil), tb.ops...)
}

func (tb *Taskboard) Restore(snapshot interface{}) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.ops = append([]Op(nil), snapshot.([]Op)...)
	tb.version++
}

func (tb *Taskboard) Version() uint64 {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	return tb.version
}

// SelectProject records the user's project selection.
func (tb *Taskboard) SelectProject(projectID string) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	tb.selectedProject = projectID
}

// SelectedProject returns the fresh copy of the selected project from the
// composed board, or the fallback default when it no longer exists.
func (tb *Taskboard) SelectedProject() (Project, bool) {
	board := tb.Compose()
	tb.mutex.Lock()
	id := tb.selectedProject
	tb.mutex.Unlock()
	if p := board.project(id); p != nil {
		return *p, true
	}
	if len(board.Projects) > 0 {
		return board.Projects[0], true
	}
	return Project{}, false
}

// CheckMove validates a column move before anything is applied or submitted.
// Moves out of Completed are forbidden and warn; everything else follows the
// status DAG.
func (tb *Taskboard) CheckMove(taskID string, to orgmachine.TaskStatus) *orgmachine.MutationError {
	board := tb.Compose()
	task := board.task(taskID)
	if task == nil {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			UserMessage: "This task no longer exists.",
		}
	}
	if task.Status == orgmachine.TaskCompleted {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			UserMessage: "Completed tasks cannot be moved.",
		}
	}
	if !task.Status.CanTransition(to) {
		return &orgmachine.MutationError{
			Kind:        orgmachine.ErrValidationFailure,
			UserMessage: "That move is not allowed.",
		}
	}
	return nil
}
