package taskboard

import (
	"github.com/google/uuid"

	"orgmachine/orgmachine"
)

// Op is one pending optimistic change. Composition applies live ops over a
// fresh copy of the indexed board; an op is dropped once the indexer reflects
// its effect, or by a revert.
type Op interface {
	ID() string
	ApplyTo(board *Board)
	ConfirmedBy(board Board) bool
}

// MoveOp relocates a task to a destination column at a given index. The
// source position is captured so a caller can reason about reverts, but the
// revert itself is just removing the op from the log.
type MoveOp struct {
	OpID      string
	TaskID    string
	From      orgmachine.TaskStatus
	FromIndex int
	To        orgmachine.TaskStatus
	ToIndex   int
	Assignee  orgmachine.Address
}

func NewMoveOp(taskID string, from orgmachine.TaskStatus, fromIndex int, to orgmachine.TaskStatus, toIndex int, assignee orgmachine.Address) *MoveOp {
	return &MoveOp{
		OpID:      uuid.NewString(),
		TaskID:    taskID,
		From:      from,
		FromIndex: fromIndex,
		To:        to,
		ToIndex:   toIndex,
		Assignee:  assignee,
	}
}

func (m *MoveOp) ID() string { return m.OpID }

func (m *MoveOp) ApplyTo(board *Board) {
	task := board.task(m.TaskID)
	if task == nil {
		return
	}
	projectID := task.ProjectID
	moved := *task
	moved.Status = m.To
	moved.IsIndexing = true
	if m.Assignee != "" {
		moved.Assignee = m.Assignee
	}

	project := board.project(projectID)
	tasks := make([]Task, 0, len(project.Tasks))
	for _, t := range project.Tasks {
		if t.ID != m.TaskID {
			tasks = append(tasks, t)
		}
	}

	// insert so the task lands at ToIndex within the destination column
	inserted := false
	seen := 0
	out := make([]Task, 0, len(tasks)+1)
	for _, t := range tasks {
		if !inserted && t.Status == m.To {
			if seen == m.ToIndex {
				out = append(out, moved)
				inserted = true
			}
			seen++
		}
		out = append(out, t)
	}
	if !inserted {
		out = append(out, moved)
	}
	project.Tasks = out
}

func (m *MoveOp) ConfirmedBy(board Board) bool {
	task := board.task(m.TaskID)
	if task == nil {
		// the indexed task vanished; nothing left to overlay
		return true
	}
	return task.Status == m.To
}

// CreateTaskOp appends an optimistic task to a project until the indexer
// observes it.
type CreateTaskOp struct {
	OpID string
	Task Task
}

func NewCreateTaskOp(task Task) *CreateTaskOp {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	return &CreateTaskOp{OpID: uuid.NewString(), Task: task}
}

func (c *CreateTaskOp) ID() string { return c.OpID }

func (c *CreateTaskOp) ApplyTo(board *Board) {
	project := board.project(c.Task.ProjectID)
	if project == nil {
		return
	}
	task := c.Task
	task.IsIndexing = true
	project.Tasks = append(project.Tasks, task)
}

func (c *CreateTaskOp) ConfirmedBy(board Board) bool {
	return board.task(c.Task.ID) != nil
}

// CancelTaskOp hides a task immediately; composition shows cancellation by
// marking the status, which drops it from every column.
type CancelTaskOp struct {
	OpID   string
	TaskID string
}

func NewCancelTaskOp(taskID string) *CancelTaskOp {
	return &CancelTaskOp{OpID: uuid.NewString(), TaskID: taskID}
}

func (c *CancelTaskOp) ID() string { return c.OpID }

func (c *CancelTaskOp) ApplyTo(board *Board) {
	if task := board.task(c.TaskID); task != nil {
		task.Status = orgmachine.TaskCancelled
		task.IsIndexing = true
	}
}

func (c *CancelTaskOp) ConfirmedBy(board Board) bool {
	task := board.task(c.TaskID)
	return task == nil || task.Status == orgmachine.TaskCancelled
}
