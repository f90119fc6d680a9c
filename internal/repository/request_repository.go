package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type RequestRepository struct {
	base.Repository
}

const requestColumns = `
	id, student_id, academician_id, proposal_title, motivation, postgraduate_program_id,
	status, submitted_at, decision_at, cancel_reason, conversation_id, created_at, updated_at`

func scanRequest(row interface{ Scan(...any) error }) (*model.SupervisionRequest, error) {
	var req model.SupervisionRequest
	err := row.Scan(
		&req.ID,
		&req.StudentID,
		&req.AcademicianID,
		&req.ProposalTitle,
		&req.Motivation,
		&req.PostgraduateProgramID,
		&req.Status,
		&req.SubmittedAt,
		&req.DecisionAt,
		&req.CancelReason,
		&req.ConversationID,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func requestStatusStrings(statuses []model.RequestStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// Create создаёт заявку на научное руководство
func (r *RequestRepository) Create(ctx context.Context, req *model.SupervisionRequest) error {
	query := `
		INSERT INTO supervision_requests (
			student_id, academician_id, proposal_title, motivation, postgraduate_program_id,
			status, submitted_at, cancel_reason, conversation_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	err := r.Q().QueryRow(
		ctx, query,
		req.StudentID,
		req.AcademicianID,
		req.ProposalTitle,
		req.Motivation,
		req.PostgraduateProgramID,
		req.Status,
		req.SubmittedAt,
		req.CancelReason,
		req.ConversationID,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create supervision request: %w", err)
	}
	return nil
}

// GetByID получает заявку по ID
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*model.SupervisionRequest, error) {
	req, err := scanRequest(r.Q().QueryRow(ctx, `SELECT `+requestColumns+` FROM supervision_requests WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get supervision request: %w", base.NotFound(err))
	}
	return req, nil
}

// GetForUpdate получает заявку с блокировкой строки
func (r *RequestRepository) GetForUpdate(ctx context.Context, id int64) (*model.SupervisionRequest, error) {
	req, err := scanRequest(r.Q().QueryRow(ctx, `SELECT `+requestColumns+` FROM supervision_requests WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock supervision request: %w", base.NotFound(err))
	}
	return req, nil
}

// CountByStudentStatuses подсчитывает заявки студента в указанных статусах
func (r *RequestRepository) CountByStudentStatuses(ctx context.Context, studentID int64, statuses []model.RequestStatus) (int, error) {
	query := `SELECT COUNT(*) FROM supervision_requests WHERE student_id = $1 AND status = ANY($2)`

	n, err := r.Count(ctx, query, studentID, requestStatusStrings(statuses))
	if err != nil {
		return 0, fmt.Errorf("count student requests: %w", err)
	}
	return n, nil
}

// ExistsBetween проверяет, есть ли заявка между парой в указанных статусах
func (r *RequestRepository) ExistsBetween(ctx context.Context, studentID, academicianID int64, statuses []model.RequestStatus) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM supervision_requests
			WHERE student_id = $1 AND academician_id = $2 AND status = ANY($3)
		)
	`

	ok, err := r.Exists(ctx, query, studentID, academicianID, requestStatusStrings(statuses))
	if err != nil {
		return false, fmt.Errorf("check existing request: %w", err)
	}
	return ok, nil
}

// ListByStudentStatus получает заявки студента в статусе, кроме excludeID
func (r *RequestRepository) ListByStudentStatus(ctx context.Context, studentID int64, status model.RequestStatus, excludeID int64) ([]*model.SupervisionRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM supervision_requests
		WHERE student_id = $1 AND status = $2 AND id <> $3
		ORDER BY submitted_at ASC
		FOR UPDATE
	`

	rows, err := r.Q().Query(ctx, query, studentID, status, excludeID)
	if err != nil {
		return nil, fmt.Errorf("list student requests: %w", err)
	}
	defer rows.Close()

	var requests []*model.SupervisionRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan supervision request: %w", err)
		}
		requests = append(requests, req)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}

// Update сохраняет изменяемые поля заявки
func (r *RequestRepository) Update(ctx context.Context, req *model.SupervisionRequest) error {
	query := `
		UPDATE supervision_requests
		SET status = $1, decision_at = $2, cancel_reason = $3, conversation_id = $4, updated_at = $5
		WHERE id = $6
	`

	err := r.ExecOne(ctx, query, req.Status, req.DecisionAt, req.CancelReason, req.ConversationID, req.UpdatedAt, req.ID)
	if err != nil {
		return fmt.Errorf("update supervision request: %w", err)
	}
	return nil
}

// AddAttachment сохраняет вложение заявки
func (r *RequestRepository) AddAttachment(ctx context.Context, att *model.RequestAttachment) error {
	query := `
		INSERT INTO supervision_request_attachments (request_id, type, original_name, size, mime_type, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`

	err := r.Q().QueryRow(ctx, query, att.RequestID, att.Type, att.OriginalName, att.Size, att.MimeType, att.StoragePath).
		Scan(&att.ID, &att.CreatedAt)
	if err != nil {
		return fmt.Errorf("create request attachment: %w", err)
	}
	return nil
}

// ListAttachments получает вложения заявки
func (r *RequestRepository) ListAttachments(ctx context.Context, requestID int64) ([]model.RequestAttachment, error) {
	query := `
		SELECT id, request_id, type, original_name, size, mime_type, storage_path, created_at
		FROM supervision_request_attachments
		WHERE request_id = $1
		ORDER BY id ASC
	`

	rows, err := r.Q().Query(ctx, query, requestID)
	if err != nil {
		return nil, fmt.Errorf("list request attachments: %w", err)
	}
	defer rows.Close()

	var atts []model.RequestAttachment
	for rows.Next() {
		var a model.RequestAttachment
		if err := rows.Scan(&a.ID, &a.RequestID, &a.Type, &a.OriginalName, &a.Size, &a.MimeType, &a.StoragePath, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan request attachment: %w", err)
		}
		atts = append(atts, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attachments: %w", err)
	}
	return atts, nil
}
