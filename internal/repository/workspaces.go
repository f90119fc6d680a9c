package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Workspaces адаптер подсистемы ScholarLab (рабочие пространства и доски)
type Workspaces struct {
	base.Repository
}

func NewWorkspaces(pool *pgxpool.Pool) *Workspaces {
	return &Workspaces{base.NewRepository(pool)}
}

// CreateWorkspace создаёт рабочее пространство
func (w *Workspaces) CreateWorkspace(ctx context.Context, name, description string, ownerID int64) (*model.Workspace, error) {
	ws := model.Workspace{Name: name, Description: description, OwnerID: ownerID}

	query := `INSERT INTO workspaces (name, description, owner_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := w.Q().QueryRow(ctx, query, name, description, ownerID).Scan(&ws.ID, &ws.CreatedAt); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &ws, nil
}

// AttachWorkspaceMember добавляет участника пространства
func (w *Workspaces) AttachWorkspaceMember(ctx context.Context, workspaceID, userID int64, role string) error {
	query := `
		INSERT INTO workspace_members (workspace_id, user_id, role)
		VALUES ($1, $2, $3)
		ON CONFLICT (workspace_id, user_id) DO UPDATE SET role = EXCLUDED.role
	`

	if _, err := w.ExecAffected(ctx, query, workspaceID, userID, role); err != nil {
		return fmt.Errorf("attach workspace member: %w", err)
	}
	return nil
}

// DetachWorkspaceMember удаляет участника пространства
func (w *Workspaces) DetachWorkspaceMember(ctx context.Context, workspaceID, userID int64) error {
	if _, err := w.ExecAffected(ctx, `DELETE FROM workspace_members WHERE workspace_id = $1 AND user_id = $2`, workspaceID, userID); err != nil {
		return fmt.Errorf("detach workspace member: %w", err)
	}
	return nil
}

// CreateBoard создаёт доску в пространстве
func (w *Workspaces) CreateBoard(ctx context.Context, workspaceID int64, name string, creatorID int64) (*model.Board, error) {
	b := model.Board{WorkspaceID: workspaceID, Name: name, CreatorID: creatorID}

	query := `INSERT INTO boards (workspace_id, name, creator_id) VALUES ($1, $2, $3) RETURNING id, created_at`
	if err := w.Q().QueryRow(ctx, query, workspaceID, name, creatorID).Scan(&b.ID, &b.CreatedAt); err != nil {
		return nil, fmt.Errorf("create board: %w", err)
	}
	return &b, nil
}

// AttachBoardMember добавляет участника доски
func (w *Workspaces) AttachBoardMember(ctx context.Context, boardID, userID int64) error {
	query := `INSERT INTO board_members (board_id, user_id) VALUES ($1, $2) ON CONFLICT (board_id, user_id) DO NOTHING`

	if _, err := w.ExecAffected(ctx, query, boardID, userID); err != nil {
		return fmt.Errorf("attach board member: %w", err)
	}
	return nil
}

// DetachBoardMember удаляет участника доски
func (w *Workspaces) DetachBoardMember(ctx context.Context, boardID, userID int64) error {
	if _, err := w.ExecAffected(ctx, `DELETE FROM board_members WHERE board_id = $1 AND user_id = $2`, boardID, userID); err != nil {
		return fmt.Errorf("detach board member: %w", err)
	}
	return nil
}

// CreateBoardList создаёт колонку доски
func (w *Workspaces) CreateBoardList(ctx context.Context, boardID int64, name string, order int) (*model.BoardList, error) {
	l := model.BoardList{BoardID: boardID, Name: name, SortOrder: order}

	query := `INSERT INTO board_lists (board_id, name, sort_order) VALUES ($1, $2, $3) RETURNING id`
	if err := w.Q().QueryRow(ctx, query, boardID, name, order).Scan(&l.ID); err != nil {
		return nil, fmt.Errorf("create board list: %w", err)
	}
	return &l, nil
}

// CreateTask создаёт задачу в колонке
func (w *Workspaces) CreateTask(ctx context.Context, listID int64, title, description string, creatorID int64, order int) (*model.Task, error) {
	t := model.Task{ListID: listID, Title: title, Description: description, CreatorID: creatorID, SortOrder: order}

	query := `
		INSERT INTO tasks (list_id, title, description, creator_id, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	if err := w.Q().QueryRow(ctx, query, listID, title, description, creatorID, order).Scan(&t.ID, &t.CreatedAt); err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	return &t, nil
}

// SyncTaskAssignees заменяет список исполнителей задачи
func (w *Workspaces) SyncTaskAssignees(ctx context.Context, taskID int64, userIDs []int64) error {
	if _, err := w.ExecAffected(ctx, `DELETE FROM task_assignees WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("clear task assignees: %w", err)
	}

	query := `INSERT INTO task_assignees (task_id, user_id) SELECT $1, UNNEST($2::bigint[])`
	if _, err := w.ExecAffected(ctx, query, taskID, userIDs); err != nil {
		return fmt.Errorf("assign task: %w", err)
	}
	return nil
}
