package taskboard

import (
	"context"
	"strconv"

	"orgmachine/engine/mutation"
	"orgmachine/messaging/chainwriter"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
)

// The constructors below assemble the optimistic flows the engine runs: one
// writer method, one refresh event, one overlay op. Validation failures are
// returned for Engine.Reject rather than silently skipped.

// ClaimMutation moves the task to the top of the claimed column immediately
// and asks the wallet to claim it. Claims are per-task singletons at the
// engine level.
func (tb *Taskboard) ClaimMutation(writer chainwriter.Writer, taskID string, me orgmachine.Address, orgName string) (mutation.Mutation, *orgmachine.MutationError) {
	if err := tb.CheckMove(taskID, orgmachine.TaskAssigned); err != nil {
		return mutation.Mutation{}, err
	}
	task := tb.Compose().task(taskID)
	op := NewMoveOp(taskID, task.Status, 0, orgmachine.TaskAssigned, 0, me)
	return mutation.Mutation{
		Scope: tb,
		Apply: func() { tb.Push(op) },
		Submit: func(ctx context.Context) chainwriter.Result {
			return writer.ClaimTask(ctx, taskID)
		},
		Notify: mutation.Notify{
			Title:   "Claim Task",
			Pending: "Claiming task...",
			Success: "Task claimed.",
			Error:   "Error moving task",
		},
		RefreshEvent: refreshbus.TaskClaimed,
		RefreshData:  map[string]interface{}{"taskId": taskID},
		ClaimTaskID:  taskID,
		Route:        mutation.TaskDeepLink(taskID, task.ProjectID, orgName),
	}, nil
}

// SubmitMutation moves an assigned task into review with the work blob.
func (tb *Taskboard) SubmitMutation(writer chainwriter.Writer, taskID string, submission orgmachine.BlobHandle, orgName string) (mutation.Mutation, *orgmachine.MutationError) {
	if err := tb.CheckMove(taskID, orgmachine.TaskSubmitted); err != nil {
		return mutation.Mutation{}, err
	}
	task := tb.Compose().task(taskID)
	op := NewMoveOp(taskID, task.Status, 0, orgmachine.TaskSubmitted, 0, "")
	return mutation.Mutation{
		Scope: tb,
		Apply: func() { tb.Push(op) },
		Submit: func(ctx context.Context) chainwriter.Result {
			return writer.SubmitTask(ctx, taskID, submission)
		},
		Notify: mutation.Notify{
			Title:   "Submit Task",
			Pending: "Submitting work...",
			Success: "Work submitted for review.",
			Error:   "Error moving task",
		},
		RefreshEvent: refreshbus.TaskSubmitted,
		RefreshData:  map[string]interface{}{"taskId": taskID},
		Route:        mutation.TaskDeepLink(taskID, task.ProjectID, orgName),
	}, nil
}

// CancelMutation hides the task immediately; a cancelled task never comes
// back, so the overlay just marks the status.
func (tb *Taskboard) CancelMutation(writer chainwriter.Writer, taskID string) (mutation.Mutation, *orgmachine.MutationError) {
	if err := tb.CheckMove(taskID, orgmachine.TaskCancelled); err != nil {
		return mutation.Mutation{}, err
	}
	op := NewCancelTaskOp(taskID)
	return mutation.Mutation{
		Scope: tb,
		Apply: func() { tb.Push(op) },
		Submit: func(ctx context.Context) chainwriter.Result {
			return writer.CancelTask(ctx, taskID)
		},
		Notify: mutation.Notify{
			Title:   "Cancel Task",
			Pending: "Cancelling task...",
			Success: "Task cancelled.",
			Error:   "Error moving task",
		},
		RefreshEvent: refreshbus.TaskCancelled,
		RefreshData:  map[string]interface{}{"taskId": taskID},
	}, nil
}

// CreateMutation appends the new task to its project until the indexer
// observes it. Payout is derived from difficulty and estimated hours before
// this is built.
func (tb *Taskboard) CreateMutation(writer chainwriter.Writer, params chainwriter.TaskParams, difficulty orgmachine.Difficulty, estHours float64) mutation.Mutation {
	op := NewCreateTaskOp(Task{
		ID:                  params.TaskID,
		ProjectID:           params.ProjectID,
		Status:              orgmachine.TaskOpen,
		Payout:              params.Payout,
		BountyToken:         params.BountyToken,
		BountyAmount:        params.BountyAmount,
		Difficulty:          difficulty,
		EstHours:            estHours,
		MetadataHandle:      params.Metadata,
		RequiresApplication: params.RequiresApplication,
	})
	return mutation.Mutation{
		Scope: tb,
		Apply: func() { tb.Push(op) },
		Submit: func(ctx context.Context) chainwriter.Result {
			return writer.CreateTask(ctx, params)
		},
		Notify: mutation.Notify{
			Title:   "Create Task",
			Pending: "Creating task...",
			Success: "Task created. Payout: " + strconv.FormatInt(params.Payout, 10),
			Error:   "Error creating task",
		},
		RefreshEvent: refreshbus.TaskCreated,
		RefreshData:  map[string]interface{}{"projectId": params.ProjectID},
	}
}
