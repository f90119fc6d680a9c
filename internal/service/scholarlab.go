package service

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/Freeeeeet/supervision/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed scholarlab.yaml
var defaultScholarLabYAML []byte

// ScholarLabTemplate describes the workspace seeded for a new relationship.
type ScholarLabTemplate struct {
	Workspace struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"workspace"`
	Board struct {
		Name string `yaml:"name"`
	} `yaml:"board"`
	Lists []ScholarLabList `yaml:"lists"`
}

type ScholarLabList struct {
	Name  string           `yaml:"name"`
	Tasks []ScholarLabTask `yaml:"tasks"`
}

type ScholarLabTask struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// ParseScholarLabTemplate разбирает YAML шаблон рабочего пространства
func ParseScholarLabTemplate(data []byte) (*ScholarLabTemplate, error) {
	var tpl ScholarLabTemplate
	if err := yaml.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parse scholarlab template: %w", err)
	}
	if strings.TrimSpace(tpl.Workspace.Name) == "" || strings.TrimSpace(tpl.Board.Name) == "" {
		return nil, fmt.Errorf("parse scholarlab template: workspace and board names are required")
	}
	for i, l := range tpl.Lists {
		if strings.TrimSpace(l.Name) == "" {
			return nil, fmt.Errorf("parse scholarlab template: list %d has no name", i)
		}
	}
	return &tpl, nil
}

// DefaultScholarLabTemplate возвращает встроенный шаблон
func DefaultScholarLabTemplate() (*ScholarLabTemplate, error) {
	return ParseScholarLabTemplate(defaultScholarLabYAML)
}

type provisionedWorkspace struct {
	workspace *model.Workspace
	board     *model.Board
	tasks     int
}

// provision creates the workspace, board, lists and onboarding tasks; tasks
// are assigned to the student.
func (t *ScholarLabTemplate) provision(ctx context.Context, ws Workspaces, student, supervisor *model.User) (*provisionedWorkspace, error) {
	r := strings.NewReplacer("{student}", student.DisplayName(), "{supervisor}", supervisor.DisplayName())

	workspace, err := ws.CreateWorkspace(ctx, r.Replace(t.Workspace.Name), r.Replace(t.Workspace.Description), supervisor.ID)
	if err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	if err := ws.AttachWorkspaceMember(ctx, workspace.ID, student.ID, "member"); err != nil {
		return nil, fmt.Errorf("attach student to workspace: %w", err)
	}

	board, err := ws.CreateBoard(ctx, workspace.ID, r.Replace(t.Board.Name), supervisor.ID)
	if err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	for _, userID := range []int64{supervisor.ID, student.ID} {
		if err := ws.AttachBoardMember(ctx, board.ID, userID); err != nil {
			return nil, fmt.Errorf("attach board member %d: %w", userID, err)
		}
	}

	out := &provisionedWorkspace{workspace: workspace, board: board}
	for i, l := range t.Lists {
		list, err := ws.CreateBoardList(ctx, board.ID, r.Replace(l.Name), i)
		if err != nil {
			return nil, fmt.Errorf("create list %q: %w", l.Name, err)
		}
		for j, task := range l.Tasks {
			created, err := ws.CreateTask(ctx, list.ID, r.Replace(task.Title), r.Replace(task.Description), supervisor.ID, j)
			if err != nil {
				return nil, fmt.Errorf("create task %q: %w", task.Title, err)
			}
			if err := ws.SyncTaskAssignees(ctx, created.ID, []int64{student.ID}); err != nil {
				return nil, fmt.Errorf("assign task %d: %w", created.ID, err)
			}
			out.tasks++
		}
	}
	return out, nil
}
