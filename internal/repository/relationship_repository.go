package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type RelationshipRepository struct {
	base.Repository
}

const relationshipColumns = `
	id, student_id, academician_id, role, status, start_date, accepted_at, terminated_at,
	cohort, meeting_cadence, conversation_id, scholarlab_workspace_id, scholarlab_board_id,
	created_at, updated_at`

func scanRelationship(row interface{ Scan(...any) error }) (*model.SupervisionRelationship, error) {
	var rel model.SupervisionRelationship
	err := row.Scan(
		&rel.ID,
		&rel.StudentID,
		&rel.AcademicianID,
		&rel.Role,
		&rel.Status,
		&rel.StartDate,
		&rel.AcceptedAt,
		&rel.TerminatedAt,
		&rel.Cohort,
		&rel.MeetingCadence,
		&rel.ConversationID,
		&rel.WorkspaceID,
		&rel.BoardID,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rel, nil
}

// Create создаёт связь студент - руководитель
func (r *RelationshipRepository) Create(ctx context.Context, rel *model.SupervisionRelationship) error {
	query := `
		INSERT INTO supervision_relationships (
			student_id, academician_id, role, status, start_date, accepted_at,
			cohort, meeting_cadence, conversation_id, scholarlab_workspace_id, scholarlab_board_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at
	`

	err := r.Q().QueryRow(
		ctx, query,
		rel.StudentID,
		rel.AcademicianID,
		rel.Role,
		rel.Status,
		rel.StartDate,
		rel.AcceptedAt,
		rel.Cohort,
		rel.MeetingCadence,
		rel.ConversationID,
		rel.WorkspaceID,
		rel.BoardID,
	).Scan(&rel.ID, &rel.CreatedAt, &rel.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create relationship: %w", err)
	}
	return nil
}

// GetByID получает связь по ID
func (r *RelationshipRepository) GetByID(ctx context.Context, id int64) (*model.SupervisionRelationship, error) {
	rel, err := scanRelationship(r.Q().QueryRow(ctx, `SELECT `+relationshipColumns+` FROM supervision_relationships WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get relationship: %w", base.NotFound(err))
	}
	return rel, nil
}

// GetForUpdate получает связь с блокировкой строки
func (r *RelationshipRepository) GetForUpdate(ctx context.Context, id int64) (*model.SupervisionRelationship, error) {
	rel, err := scanRelationship(r.Q().QueryRow(ctx, `SELECT `+relationshipColumns+` FROM supervision_relationships WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock relationship: %w", base.NotFound(err))
	}
	return rel, nil
}

// GetActiveMain получает активную основную связь студента
func (r *RelationshipRepository) GetActiveMain(ctx context.Context, studentID int64) (*model.SupervisionRelationship, error) {
	query := `SELECT ` + relationshipColumns + `
		FROM supervision_relationships
		WHERE student_id = $1 AND role = $2 AND status = $3
	`

	rel, err := scanRelationship(r.Q().QueryRow(ctx, query, studentID, model.RelationshipRoleMain, model.RelationshipStatusActive))
	if err != nil {
		return nil, fmt.Errorf("get active main relationship: %w", base.NotFound(err))
	}
	return rel, nil
}

// ListActiveByStudentRole получает активные связи студента с заданной ролью
func (r *RelationshipRepository) ListActiveByStudentRole(ctx context.Context, studentID int64, role model.RelationshipRole) ([]*model.SupervisionRelationship, error) {
	query := `SELECT ` + relationshipColumns + `
		FROM supervision_relationships
		WHERE student_id = $1 AND role = $2 AND status = $3
		ORDER BY accepted_at ASC, id ASC
	`

	rows, err := r.Q().Query(ctx, query, studentID, role, model.RelationshipStatusActive)
	if err != nil {
		return nil, fmt.Errorf("list active relationships: %w", err)
	}
	defer rows.Close()

	var rels []*model.SupervisionRelationship
	for rows.Next() {
		rel, err := scanRelationship(rows)
		if err != nil {
			return nil, fmt.Errorf("scan relationship: %w", err)
		}
		rels = append(rels, rel)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate relationships: %w", err)
	}
	return rels, nil
}

// HasActive проверяет, руководит ли преподаватель студентом в любой роли
func (r *RelationshipRepository) HasActive(ctx context.Context, studentID, academicianID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM supervision_relationships
			WHERE student_id = $1 AND academician_id = $2 AND status = $3
		)
	`

	ok, err := r.Exists(ctx, query, studentID, academicianID, model.RelationshipStatusActive)
	if err != nil {
		return false, fmt.Errorf("check active relationship: %w", err)
	}
	return ok, nil
}

// Update сохраняет изменяемые поля связи
func (r *RelationshipRepository) Update(ctx context.Context, rel *model.SupervisionRelationship) error {
	query := `
		UPDATE supervision_relationships
		SET status = $1, terminated_at = $2, conversation_id = $3,
			scholarlab_workspace_id = $4, scholarlab_board_id = $5, updated_at = $6
		WHERE id = $7
	`

	err := r.ExecOne(ctx, query, rel.Status, rel.TerminatedAt, rel.ConversationID, rel.WorkspaceID, rel.BoardID, rel.UpdatedAt, rel.ID)
	if err != nil {
		return fmt.Errorf("update relationship: %w", err)
	}
	return nil
}

type OnboardingRepository struct {
	base.Repository
}

// Create добавляет пункт онбординга
func (r *OnboardingRepository) Create(ctx context.Context, item *model.OnboardingChecklistItem) error {
	query := `
		INSERT INTO onboarding_checklist_items (relationship_id, title, description, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.Q().QueryRow(ctx, query, item.RelationshipID, item.Title, item.Description, item.SortOrder).
		Scan(&item.ID, &item.CreatedAt)
	if err != nil {
		return fmt.Errorf("create onboarding item: %w", err)
	}
	return nil
}

// ListByRelationship получает чек-лист онбординга по порядку
func (r *OnboardingRepository) ListByRelationship(ctx context.Context, relationshipID int64) ([]*model.OnboardingChecklistItem, error) {
	query := `
		SELECT id, relationship_id, title, description, sort_order, completed_at, created_at
		FROM onboarding_checklist_items
		WHERE relationship_id = $1
		ORDER BY sort_order ASC
	`

	rows, err := r.Q().Query(ctx, query, relationshipID)
	if err != nil {
		return nil, fmt.Errorf("list onboarding items: %w", err)
	}
	defer rows.Close()

	var items []*model.OnboardingChecklistItem
	for rows.Next() {
		var it model.OnboardingChecklistItem
		if err := rows.Scan(&it.ID, &it.RelationshipID, &it.Title, &it.Description, &it.SortOrder, &it.CompletedAt, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan onboarding item: %w", err)
		}
		items = append(items, &it)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate onboarding items: %w", err)
	}
	return items, nil
}
