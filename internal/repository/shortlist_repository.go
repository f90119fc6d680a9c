package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type ShortlistRepository struct {
	base.Repository
}

// Get получает запись шортлиста студента
func (r *ShortlistRepository) Get(ctx context.Context, studentID, academicianID int64) (*model.ShortlistEntry, error) {
	query := `
		SELECT id, student_id, academician_id, postgraduate_program_id, created_at
		FROM shortlists
		WHERE student_id = $1 AND academician_id = $2
	`

	var e model.ShortlistEntry
	err := r.Q().QueryRow(ctx, query, studentID, academicianID).Scan(
		&e.ID,
		&e.StudentID,
		&e.AcademicianID,
		&e.PostgraduateProgramID,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get shortlist entry: %w", base.NotFound(err))
	}
	return &e, nil
}

// Create добавляет запись в шортлист
func (r *ShortlistRepository) Create(ctx context.Context, e *model.ShortlistEntry) error {
	query := `
		INSERT INTO shortlists (student_id, academician_id, postgraduate_program_id)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.Q().QueryRow(ctx, query, e.StudentID, e.AcademicianID, e.PostgraduateProgramID).
		Scan(&e.ID, &e.CreatedAt)
	if err != nil {
		return fmt.Errorf("create shortlist entry: %w", err)
	}
	return nil
}

// CountByStudent подсчитывает записи шортлиста студента
func (r *ShortlistRepository) CountByStudent(ctx context.Context, studentID int64) (int, error) {
	n, err := r.Count(ctx, `SELECT COUNT(*) FROM shortlists WHERE student_id = $1`, studentID)
	if err != nil {
		return 0, fmt.Errorf("count shortlist: %w", err)
	}
	return n, nil
}

// ListByStudent получает шортлист студента
func (r *ShortlistRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.ShortlistEntry, error) {
	query := `
		SELECT id, student_id, academician_id, postgraduate_program_id, created_at
		FROM shortlists
		WHERE student_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.Q().Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	defer rows.Close()

	var entries []*model.ShortlistEntry
	for rows.Next() {
		var e model.ShortlistEntry
		if err := rows.Scan(&e.ID, &e.StudentID, &e.AcademicianID, &e.PostgraduateProgramID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan shortlist entry: %w", err)
		}
		entries = append(entries, &e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shortlist: %w", err)
	}
	return entries, nil
}

// Delete удаляет запись (без ошибки, если её нет)
func (r *ShortlistRepository) Delete(ctx context.Context, studentID, academicianID int64) error {
	_, err := r.ExecAffected(ctx, `DELETE FROM shortlists WHERE student_id = $1 AND academician_id = $2`, studentID, academicianID)
	if err != nil {
		return fmt.Errorf("delete shortlist entry: %w", err)
	}
	return nil
}
