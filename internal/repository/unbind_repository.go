package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type UnbindRepository struct {
	base.Repository
}

const unbindColumns = `
	id, relationship_id, initiated_by, reason, status, attempt_count, cooldown_until,
	student_approved_at, created_at, updated_at`

func scanUnbind(row interface{ Scan(...any) error }) (*model.UnbindRequest, error) {
	var ub model.UnbindRequest
	err := row.Scan(
		&ub.ID,
		&ub.RelationshipID,
		&ub.InitiatedBy,
		&ub.Reason,
		&ub.Status,
		&ub.AttemptCount,
		&ub.CooldownUntil,
		&ub.StudentApprovedAt,
		&ub.CreatedAt,
		&ub.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &ub, nil
}

// Create создаёт запрос на расторжение
func (r *UnbindRepository) Create(ctx context.Context, ub *model.UnbindRequest) error {
	query := `
		INSERT INTO supervision_relationship_unbind_requests (
			relationship_id, initiated_by, reason, status, attempt_count, cooldown_until, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		RETURNING id
	`

	err := r.Q().QueryRow(ctx, query, ub.RelationshipID, ub.InitiatedBy, ub.Reason, ub.Status, ub.AttemptCount, ub.CooldownUntil, ub.CreatedAt).
		Scan(&ub.ID)
	if err != nil {
		return fmt.Errorf("create unbind request: %w", err)
	}
	ub.UpdatedAt = ub.CreatedAt
	return nil
}

// GetByID получает запрос по ID
func (r *UnbindRepository) GetByID(ctx context.Context, id int64) (*model.UnbindRequest, error) {
	ub, err := scanUnbind(r.Q().QueryRow(ctx, `SELECT `+unbindColumns+` FROM supervision_relationship_unbind_requests WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get unbind request: %w", base.NotFound(err))
	}
	return ub, nil
}

// GetForUpdate получает запрос с блокировкой строки
func (r *UnbindRepository) GetForUpdate(ctx context.Context, id int64) (*model.UnbindRequest, error) {
	ub, err := scanUnbind(r.Q().QueryRow(ctx, `SELECT `+unbindColumns+` FROM supervision_relationship_unbind_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock unbind request: %w", base.NotFound(err))
	}
	return ub, nil
}

// GetPending получает последний pending запрос по связи
func (r *UnbindRepository) GetPending(ctx context.Context, relationshipID int64) (*model.UnbindRequest, error) {
	query := `SELECT ` + unbindColumns + `
		FROM supervision_relationship_unbind_requests
		WHERE relationship_id = $1 AND status = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
		FOR UPDATE
	`

	ub, err := scanUnbind(r.Q().QueryRow(ctx, query, relationshipID, model.UnbindStatusPending))
	if err != nil {
		return nil, fmt.Errorf("get pending unbind request: %w", base.NotFound(err))
	}
	return ub, nil
}

// LatestRejected получает последний отклонённый запрос инициатора
func (r *UnbindRepository) LatestRejected(ctx context.Context, relationshipID int64, initiator model.UnbindInitiator) (*model.UnbindRequest, error) {
	query := `SELECT ` + unbindColumns + `
		FROM supervision_relationship_unbind_requests
		WHERE relationship_id = $1 AND initiated_by = $2 AND status = $3
		ORDER BY updated_at DESC, id DESC
		LIMIT 1
	`

	ub, err := scanUnbind(r.Q().QueryRow(ctx, query, relationshipID, initiator, model.UnbindStatusRejected))
	if err != nil {
		return nil, fmt.Errorf("get latest rejected unbind request: %w", base.NotFound(err))
	}
	return ub, nil
}

// CountRejected подсчитывает отклонённые попытки инициатора
func (r *UnbindRepository) CountRejected(ctx context.Context, relationshipID int64, initiator model.UnbindInitiator) (int, error) {
	query := `
		SELECT COUNT(*) FROM supervision_relationship_unbind_requests
		WHERE relationship_id = $1 AND initiated_by = $2 AND status = $3
	`

	n, err := r.Count(ctx, query, relationshipID, initiator, model.UnbindStatusRejected)
	if err != nil {
		return 0, fmt.Errorf("count rejected unbind requests: %w", err)
	}
	return n, nil
}

// Update сохраняет решение по запросу
func (r *UnbindRepository) Update(ctx context.Context, ub *model.UnbindRequest) error {
	query := `
		UPDATE supervision_relationship_unbind_requests
		SET status = $1, cooldown_until = $2, student_approved_at = $3, updated_at = $4
		WHERE id = $5
	`

	if err := r.ExecOne(ctx, query, ub.Status, ub.CooldownUntil, ub.StudentApprovedAt, ub.UpdatedAt, ub.ID); err != nil {
		return fmt.Errorf("update unbind request: %w", err)
	}
	return nil
}

// Delete удаляет запрос (заменяется новой попыткой)
func (r *UnbindRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ExecOne(ctx, `DELETE FROM supervision_relationship_unbind_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete unbind request: %w", err)
	}
	return nil
}
