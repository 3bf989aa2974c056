package taskboard_test

import (
	"context"
	"testing"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgmachine/messaging/indexer"
	"orgmachine/messaging/refreshbus"
	"orgmachine/orgmachine"
	"orgmachine/scopes"
	"orgmachine/scopes/taskboard"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type boardExecutor struct {
	document string
}

func (b *boardExecutor) Execute(_ context.Context, _ string, _ map[string]interface{}, out interface{}) error {
	return json.Unmarshal([]byte(b.document), out)
}

const seedBoard = `{
  "taskManager": {
    "creatorHatIds": ["0xAA02"],
    "projects": [
      {
        "id": "P1", "title": "Website", "budgetCap": "0", "deleted": false,
        "managers": ["0xboss"],
        "rolePermissions": {"0xAA01": {"canClaimTasks": true}},
        "tasks": [
          {"id": "T1", "status": "Open", "title": "Design", "difficulty": "easy", "estimatedHours": "2", "payout": "34"},
          {"id": "T2", "status": "Open", "title": "Build", "difficulty": "medium", "estimatedHours": "4"},
          {"id": "T3", "status": "Assigned", "assignee": "0xdev", "title": "Deploy"},
          {"id": "T4", "status": "Completed", "title": "Plan"},
          {"id": "T5", "status": "Cancelled", "title": "Scrapped"}
        ]
      },
      {"id": "P2", "title": "Gone", "deleted": true, "tasks": []}
    ]
  }
}`

func newBoard(t *testing.T, document string) (*taskboard.Taskboard, *refreshbus.Bus) {
	t.Helper()
	config := viper.New()
	config.SetDefault("refetchDelaySeconds", 1)
	config.SetDefault("logScopes", false)
	orgmachine.SetConfig(config)

	bus := refreshbus.New()
	client := indexer.NewClient(&boardExecutor{document: document})
	tb := taskboard.New(bus, client)
	t.Cleanup(tb.Close)
	tb.SetParams(context.Background(), scopes.Params{Org: "0xorg"})
	return tb, bus
}

func TestTransformDropsDeletedProjectsAndParsesTasks(t *testing.T) {
	tb, _ := newBoard(t, seedBoard)
	board := tb.Compose()
	require.Len(t, board.Projects, 1)
	p := board.Projects[0]
	assert.Equal(t, "Website", p.Title)
	assert.True(t, p.Permissions["0xAA01"].CanClaim)
	require.Len(t, p.Tasks, 5)
	assert.Equal(t, int64(34), p.Tasks[0].Payout)
	assert.Equal(t, 2.0, p.Tasks[0].EstHours)
	assert.Equal(t, orgmachine.TaskAssigned, p.Tasks[2].Status)
}

func TestColumnsPartitionNonCancelledTasks(t *testing.T) {
	tb, _ := newBoard(t, seedBoard)
	p := tb.Compose().Projects[0]
	columns := taskboard.Columns(p)

	total := 0
	seen := map[string]bool{}
	for _, column := range columns {
		for _, task := range column {
			assert.False(t, seen[task.ID], "task %s in two columns", task.ID)
			seen[task.ID] = true
			total++
		}
	}
	assert.Equal(t, 4, total) // T5 is cancelled, never shown
	assert.Len(t, columns[orgmachine.TaskOpen], 2)
	assert.Len(t, columns[orgmachine.TaskAssigned], 1)
	assert.Len(t, columns[orgmachine.TaskCompleted], 1)
}

func TestOptimisticMoveAndRevert(t *testing.T) {
	tb, _ := newBoard(t, seedBoard)
	before := tb.Version()

	op := taskboard.NewMoveOp("T1", orgmachine.TaskOpen, 0, orgmachine.TaskAssigned, 0, "0xme")
	snapshot := tb.Snapshot()
	tb.Push(op)
	assert.Greater(t, tb.Version(), before)

	columns := taskboard.Columns(tb.Compose().Projects[0])
	require.Len(t, columns[orgmachine.TaskAssigned], 2)
	assert.Equal(t, "T1", columns[orgmachine.TaskAssigned][0].ID)
	assert.True(t, columns[orgmachine.TaskAssigned][0].IsIndexing)
	assert.Equal(t, "0xme", columns[orgmachine.TaskAssigned][0].Assignee)
	assert.Len(t, columns[orgmachine.TaskOpen], 1)

	// revert restores the exact source column and index
	tb.Restore(snapshot)
	columns = taskboard.Columns(tb.Compose().Projects[0])
	require.Len(t, columns[orgmachine.TaskOpen], 2)
	assert.Equal(t, "T1", columns[orgmachine.TaskOpen][0].ID)
	assert.False(t, columns[orgmachine.TaskOpen][0].IsIndexing)
}

func TestIsIndexingSurvivesStaleRefetchAndClearsOnConfirm(t *testing.T) {
	exec := &boardExecutor{document: seedBoard}
	config := viper.New()
	config.SetDefault("refetchDelaySeconds", 1)
	config.SetDefault("logScopes", false)
	orgmachine.SetConfig(config)
	bus := refreshbus.New()
	tb := taskboard.New(bus, indexer.NewClient(exec))
	defer tb.Close()
	tb.SetParams(context.Background(), scopes.Params{Org: "0xorg"})

	tb.Push(taskboard.NewMoveOp("T1", orgmachine.TaskOpen, 0, orgmachine.TaskAssigned, 0, "0xme"))

	// the indexer still reports T1 as Open: the overlay keeps the task in
	// Assigned with isIndexing set
	tb.Refetch(context.Background())
	task := findTask(tb.Compose(), "T1")
	require.NotNil(t, task)
	assert.Equal(t, orgmachine.TaskAssigned, task.Status)
	assert.True(t, task.IsIndexing)

	// the indexer catches up: the op is confirmed and dropped, indexed data
	// wins without moving the task again
	exec.document = `{
	  "taskManager": {
	    "projects": [
	      {"id": "P1", "title": "Website", "deleted": false,
	       "tasks": [
	         {"id": "T1", "status": "Assigned", "assignee": "0xme", "title": "Design"},
	         {"id": "T2", "status": "Open", "title": "Build"}
	       ]}
	    ]
	  }
	}`
	tb.Refetch(context.Background())
	task = findTask(tb.Compose(), "T1")
	require.NotNil(t, task)
	assert.Equal(t, orgmachine.TaskAssigned, task.Status)
	assert.False(t, task.IsIndexing)
}

func findTask(board taskboard.Board, id string) *taskboard.Task {
	for _, p := range board.Projects {
		for i := range p.Tasks {
			if p.Tasks[i].ID == id {
				return &p.Tasks[i]
			}
		}
	}
	return nil
}

func TestOptimisticCreateConfirmedByIndexer(t *testing.T) {
	exec := &boardExecutor{document: seedBoard}
	config := viper.New()
	config.SetDefault("refetchDelaySeconds", 1)
	config.SetDefault("logScopes", false)
	orgmachine.SetConfig(config)
	tb := taskboard.New(refreshbus.New(), indexer.NewClient(exec))
	defer tb.Close()
	tb.SetParams(context.Background(), scopes.Params{Org: "0xorg"})

	tb.Push(taskboard.NewCreateTaskOp(taskboard.Task{
		ID:        "T9",
		ProjectID: "P1",
		Status:    orgmachine.TaskOpen,
		Title:     "New thing",
	}))
	task := findTask(tb.Compose(), "T9")
	require.NotNil(t, task)
	assert.True(t, task.IsIndexing)
}

func TestSelectionPreservedAcrossRefetch(t *testing.T) {
	exec := &boardExecutor{document: seedBoard}
	config := viper.New()
	config.SetDefault("refetchDelaySeconds", 1)
	config.SetDefault("logScopes", false)
	orgmachine.SetConfig(config)
	tb := taskboard.New(refreshbus.New(), indexer.NewClient(exec))
	defer tb.Close()
	tb.SetParams(context.Background(), scopes.Params{Org: "0xorg"})

	tb.SelectProject("P1")
	tb.Refetch(context.Background())
	selected, ok := tb.SelectedProject()
	require.True(t, ok)
	assert.Equal(t, "P1", selected.ID)

	// selection falls back to the first project when the selected one is gone
	exec.document = `{"taskManager": {"projects": [
		{"id": "P7", "title": "Other", "deleted": false, "tasks": []}
	]}}`
	tb.Refetch(context.Background())
	selected, ok = tb.SelectedProject()
	require.True(t, ok)
	assert.Equal(t, "P7", selected.ID)
}

func TestCheckMoveForbidsLeavingCompleted(t *testing.T) {
	tb, _ := newBoard(t, seedBoard)

	err := tb.CheckMove("T4", orgmachine.TaskOpen)
	require.NotNil(t, err)
	assert.Equal(t, orgmachine.ErrValidationFailure, err.Kind)
	assert.Equal(t, "Completed tasks cannot be moved.", err.UserMessage)

	assert.Nil(t, tb.CheckMove("T1", orgmachine.TaskAssigned))
	assert.NotNil(t, tb.CheckMove("T1", orgmachine.TaskSubmitted)) // DAG skips not allowed
	assert.NotNil(t, tb.CheckMove("ghost", orgmachine.TaskOpen))
}
