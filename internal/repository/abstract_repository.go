package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type AbstractRepository struct {
	base.Repository
}

// GetByRequest получает аннотацию заявки
func (r *AbstractRepository) GetByRequest(ctx context.Context, requestID int64) (*model.SupervisionRequestAbstract, error) {
	query := `
		SELECT id, request_id, source_attachment_id, content, extraction_status, extraction_error,
			extracted_at, created_at, updated_at
		FROM supervision_request_abstracts
		WHERE request_id = $1
	`

	var a model.SupervisionRequestAbstract
	err := r.Q().QueryRow(ctx, query, requestID).Scan(
		&a.ID,
		&a.RequestID,
		&a.SourceAttachmentID,
		&a.Content,
		&a.ExtractionStatus,
		&a.ExtractionError,
		&a.ExtractedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get request abstract: %w", base.NotFound(err))
	}
	return &a, nil
}

// Upsert создаёт или перезаписывает аннотацию заявки
func (r *AbstractRepository) Upsert(ctx context.Context, a *model.SupervisionRequestAbstract) error {
	query := `
		INSERT INTO supervision_request_abstracts (
			request_id, source_attachment_id, content, extraction_status, extraction_error, extracted_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (request_id) DO UPDATE SET
			source_attachment_id = EXCLUDED.source_attachment_id,
			content = EXCLUDED.content,
			extraction_status = EXCLUDED.extraction_status,
			extraction_error = EXCLUDED.extraction_error,
			extracted_at = EXCLUDED.extracted_at,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`

	err := r.Q().QueryRow(ctx, query, a.RequestID, a.SourceAttachmentID, a.Content, a.ExtractionStatus,
		a.ExtractionError, a.ExtractedAt, a.UpdatedAt).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert request abstract: %w", err)
	}
	return nil
}
