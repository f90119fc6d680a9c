package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/repository/base"
)

type MeetingRepository struct {
	base.Repository
}

const meetingColumns = `
	id, request_id, relationship_id, title, scheduled_for, location_link, agenda, attachments,
	external_event_id, external_provider, created_by, created_at, updated_at`

func scanMeeting(row interface{ Scan(...any) error }) (*model.SupervisionMeeting, error) {
	var m model.SupervisionMeeting
	err := row.Scan(
		&m.ID,
		&m.RequestID,
		&m.RelationshipID,
		&m.Title,
		&m.ScheduledFor,
		&m.LocationLink,
		&m.Agenda,
		&m.Attachments,
		&m.ExternalEventID,
		&m.ExternalProvider,
		&m.CreatedBy,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Create создаёт встречу
func (r *MeetingRepository) Create(ctx context.Context, m *model.SupervisionMeeting) error {
	query := `
		INSERT INTO supervision_meetings (
			request_id, relationship_id, title, scheduled_for, location_link, agenda, attachments,
			external_event_id, external_provider, created_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	err := r.Q().QueryRow(
		ctx, query,
		m.RequestID,
		m.RelationshipID,
		m.Title,
		m.ScheduledFor,
		m.LocationLink,
		m.Agenda,
		attachments,
		m.ExternalEventID,
		m.ExternalProvider,
		m.CreatedBy,
	).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create meeting: %w", err)
	}
	return nil
}

// GetByID получает встречу по ID
func (r *MeetingRepository) GetByID(ctx context.Context, id int64) (*model.SupervisionMeeting, error) {
	m, err := scanMeeting(r.Q().QueryRow(ctx, `SELECT `+meetingColumns+` FROM supervision_meetings WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("get meeting: %w", base.NotFound(err))
	}
	return m, nil
}

// GetForUpdate получает встречу с блокировкой строки
func (r *MeetingRepository) GetForUpdate(ctx context.Context, id int64) (*model.SupervisionMeeting, error) {
	m, err := scanMeeting(r.Q().QueryRow(ctx, `SELECT `+meetingColumns+` FROM supervision_meetings WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, fmt.Errorf("lock meeting: %w", base.NotFound(err))
	}
	return m, nil
}

// Update сохраняет изменения встречи
func (r *MeetingRepository) Update(ctx context.Context, m *model.SupervisionMeeting) error {
	query := `
		UPDATE supervision_meetings
		SET title = $1, scheduled_for = $2, location_link = $3, agenda = $4, attachments = $5,
			external_event_id = $6, external_provider = $7, updated_at = $8
		WHERE id = $9
	`

	attachments := m.Attachments
	if attachments == nil {
		attachments = []string{}
	}

	err := r.ExecOne(ctx, query, m.Title, m.ScheduledFor, m.LocationLink, m.Agenda, attachments,
		m.ExternalEventID, m.ExternalProvider, m.UpdatedAt, m.ID)
	if err != nil {
		return fmt.Errorf("update meeting: %w", err)
	}
	return nil
}

// Delete удаляет встречу
func (r *MeetingRepository) Delete(ctx context.Context, id int64) error {
	if err := r.ExecOne(ctx, `DELETE FROM supervision_meetings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete meeting: %w", err)
	}
	return nil
}
