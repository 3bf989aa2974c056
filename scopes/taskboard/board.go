// Package taskboard is the projects/tasks scope: the kanban view's read
// model. Indexed data arrives as an immutable Board; optimistic moves live in
// an append-only op log composed over it, so reverting is dropping an op and
// confirming is dropping it once the indexer caught up.
package taskboard

import (
	"math/big"

	"github.com/spf13/cast"

	"orgmachine/messaging/indexer"
	"orgmachine/orgmachine"
	"orgmachine/permissions"
)

type Application struct {
	Applicant orgmachine.Address
	Approved  bool
}

type Task struct {
	ID        string
	ProjectID string
	Status    orgmachine.TaskStatus
	Assignee  orgmachine.Address
	Payout    int64

	BountyToken  orgmachine.Address
	BountyAmount *big.Int

	Title       string
	Description string
	Difficulty  orgmachine.Difficulty
	EstHours    float64

	MetadataHandle   orgmachine.BlobHandle
	SubmissionHandle orgmachine.BlobHandle

	RequiresApplication bool
	Applications        []Application

	// IsIndexing marks an optimistic task or move the indexer has not
	// observed yet.
	IsIndexing bool
}

type Project struct {
	ID             string
	Title          string
	MetadataHandle orgmachine.BlobHandle
	BudgetCap      *big.Int
	Managers       []orgmachine.Address
	Permissions    permissions.Matrix
	Tasks          []Task
}

type Board struct {
	CreatorHats []orgmachine.HatID
	Projects    []Project
}

func parseStatus(s string) orgmachine.TaskStatus {
	switch s {
	case "Open", "open":
		return orgmachine.TaskOpen
	case "Assigned", "assigned", "InProgress":
		return orgmachine.TaskAssigned
	case "Submitted", "submitted", "InReview":
		return orgmachine.TaskSubmitted
	case "Completed", "completed":
		return orgmachine.TaskCompleted
	case "Cancelled", "cancelled":
		return orgmachine.TaskCancelled
	}
	return orgmachine.TaskOpen
}

func parseBig(s string) *big.Int {
	if s == "" {
		return big.NewInt(0)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return big.NewInt(0)
	}
	return v
}

// Transform shapes the raw projects document for display. Deleted projects
// are dropped; raw indexed data never leaves this function.
func Transform(doc *indexer.ProjectsDocument) Board {
	board := Board{CreatorHats: doc.TaskManager.CreatorHats}
	for _, p := range doc.TaskManager.Projects {
		if p.Deleted {
			continue
		}
		project := Project{
			ID:             p.ID,
			Title:          p.Title,
			MetadataHandle: p.MetadataHandle,
			BudgetCap:      parseBig(p.BudgetCap),
			Managers:       p.Managers,
			Permissions:    permissions.Matrix{},
		}
		for hat, mask := range p.Permissions {
			project.Permissions[hat] = permissions.Mask{
				CanCreate: mask.CanCreate,
				CanClaim:  mask.CanClaim,
				CanReview: mask.CanReview,
				CanAssign: mask.CanAssign,
			}
		}
		for _, t := range p.Tasks {
			project.Tasks = append(project.Tasks, Task{
				ID:                  t.ID,
				ProjectID:           p.ID,
				Status:              parseStatus(t.Status),
				Assignee:            t.Assignee,
				Payout:              cast.ToInt64(t.Payout),
				BountyToken:         t.BountyToken,
				BountyAmount:        parseBig(t.BountyAmount),
				Title:               t.Title,
				Description:         t.Description,
				Difficulty:          orgmachine.Difficulty(t.Difficulty),
				EstHours:            cast.ToFloat64(t.EstHours),
				MetadataHandle:      t.MetadataHandle,
				SubmissionHandle:    t.SubmissionHandle,
				RequiresApplication: t.RequiresApplication,
				Applications:        transformApplications(t.Applications),
			})
		}
		board.Projects = append(board.Projects, project)
	}
	return board
}

func transformApplications(docs []indexer.ApplicationDocument) []Application {
	var out []Application
	for _, a := range docs {
		out = append(out, Application{Applicant: a.Applicant, Approved: a.Approved})
	}
	return out
}

func (b Board) project(id string) *Project {
	for i := range b.Projects {
		if b.Projects[i].ID == id {
			return &b.Projects[i]
		}
	}
	return nil
}

func (b Board) task(id string) *Task {
	for i := range b.Projects {
		for j := range b.Projects[i].Tasks {
			if b.Projects[i].Tasks[j].ID == id {
				return &b.Projects[i].Tasks[j]
			}
		}
	}
	return nil
}

// clone deep-copies the board so the composed view never aliases the indexed
// snapshot.
func (b Board) clone() Board {
	out := Board{CreatorHats: append([]orgmachine.HatID(nil), b.CreatorHats...)}
	for _, p := range b.Projects {
		project := p
		project.Managers = append([]orgmachine.Address(nil), p.Managers...)
		project.Permissions = permissions.Matrix{}
		for hat, mask := range p.Permissions {
			project.Permissions[hat] = mask
		}
		project.Tasks = append([]Task(nil), p.Tasks...)
		out.Projects = append(out.Projects, project)
	}
	return out
}

// Columns partitions a project's non-cancelled tasks by status, preserving
// task order. Cancelled tasks are never shown.
func Columns(p Project) map[orgmachine.TaskStatus][]Task {
	columns := map[orgmachine.TaskStatus][]Task{
		orgmachine.TaskOpen:      {},
		orgmachine.TaskAssigned:  {},
		orgmachine.TaskSubmitted: {},
		orgmachine.TaskCompleted: {},
	}
	for _, t := range p.Tasks {
		if t.Status == orgmachine.TaskCancelled {
			continue
		}
		columns[t.Status] = append(columns[t.Status], t)
	}
	return columns
}
