package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type InvitationRepository struct {
	base.Repository
}

const invitationColumns = `
	id, relationship_id, student_id, main_supervisor_id, cosupervisor_academician_id, initiated_by,
	invitation_message, cosupervisor_status, approver_status, rejection_reason,
	cosupervisor_responded_at, approver_responded_at, cancelled_at, completed_at, created_at, updated_at`

// inFlightCondition описывает приглашения, которые ещё занимают место со-руководителя
const inFlightCondition = `
	cancelled_at IS NULL
	AND (cosupervisor_status = 'pending' OR (cosupervisor_status = 'accepted' AND approver_status = 'pending'))`

func scanInvitation(row interface{ Scan(...any) error }) (*model.CoSupervisorInvitation, error) {
	var inv model.CoSupervisorInvitation
	err := row.Scan(
		&inv.ID,
		&inv.RelationshipID,
		&inv.StudentID,
		&inv.MainSupervisorID,
		&inv.CosupervisorAcademicianID,
		&inv.InitiatedBy,
		&inv.InvitationMessage,
		&inv.CosupervisorStatus,
		&inv.ApproverStatus,
		&inv.RejectionReason,
		&inv.CosupervisorRespondedAt,
		&inv.ApproverRespondedAt,
		&inv.CancelledAt,
		&inv.CompletedAt,
		&inv.CreatedAt,
		&inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

// Create создаёт приглашение со-руководителя
func (r *InvitationRepository) Create(ctx context.Context, inv *model.CoSupervisorInvitation) error {
	query := `
		INSERT INTO cosupervisor_invitations (
			relationship_id, student_id, main_supervisor_id, cosupervisor_academician_id,
			initiated_by, invitation_message, cosupervisor_status, approver_status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at, updated_at
	`

	err := r.Q().QueryRow(
		ctx, query,
		inv.RelationshipID,
		inv.StudentID,
		inv.MainSupervisorID,
		inv.CosupervisorAcademicianID,
		inv.InitiatedBy,
		inv.InvitationMessage,
		inv.CosupervisorStatus,
		inv.ApproverStatus,
	).Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create invitation: %w", err)
	}
	return nil
}

// GetByID получает приглашение по ID
func (r *InvitationRepository) GetByID(ctx context.Context, id int64) (*model.CoSupervisorInvitation, error) {
	inv, err := scanInvitation(r.Q().QueryRow(ctx, `SELECT `+invitationColumns+` FROM cosupervisor_invitations WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", base.NotFound(err))
	}
	return inv, nil
}

// GetForUpdate получает приглашение с блокировкой строки
func (r *InvitationRepository) GetForUpdate(ctx context.Context, id int64) (*model.CoSupervisorInvitation, error) {
	inv, err := scanInvitation(r.Q().QueryRow(ctx, `SELECT `+invitationColumns+` FROM cosupervisor_invitations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock invitation: %w", base.NotFound(err))
	}
	return inv, nil
}

// CountInFlightByStudent подсчитывает незавершённые приглашения студента
func (r *InvitationRepository) CountInFlightByStudent(ctx context.Context, studentID int64) (int, error) {
	query := `SELECT COUNT(*) FROM cosupervisor_invitations WHERE student_id = $1 AND` + inFlightCondition

	n, err := r.Count(ctx, query, studentID)
	if err != nil {
		return 0, fmt.Errorf("count in-flight invitations: %w", err)
	}
	return n, nil
}

// HasInFlight проверяет, есть ли открытое приглашение этому кандидату
func (r *InvitationRepository) HasInFlight(ctx context.Context, relationshipID, candidateID int64) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM cosupervisor_invitations
			WHERE relationship_id = $1 AND cosupervisor_academician_id = $2 AND` + inFlightCondition + `
		)
	`

	ok, err := r.Exists(ctx, query, relationshipID, candidateID)
	if err != nil {
		return false, fmt.Errorf("check in-flight invitation: %w", err)
	}
	return ok, nil
}

// Update сохраняет состояние приглашения
func (r *InvitationRepository) Update(ctx context.Context, inv *model.CoSupervisorInvitation) error {
	query := `
		UPDATE cosupervisor_invitations
		SET cosupervisor_status = $1, approver_status = $2, rejection_reason = $3,
			cosupervisor_responded_at = $4, approver_responded_at = $5,
			cancelled_at = $6, completed_at = $7, updated_at = $8
		WHERE id = $9
	`

	err := r.ExecOne(
		ctx, query,
		inv.CosupervisorStatus,
		inv.ApproverStatus,
		inv.RejectionReason,
		inv.CosupervisorRespondedAt,
		inv.ApproverRespondedAt,
		inv.CancelledAt,
		inv.CompletedAt,
		inv.UpdatedAt,
		inv.ID,
	)
	if err != nil {
		return fmt.Errorf("update invitation: %w", err)
	}
	return nil
}
