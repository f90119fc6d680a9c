package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/storage"
	"go.uber.org/zap"
)

// MeetingInput данные новой встречи
type MeetingInput struct {
	Title            string    `json:"title" validate:"notblank,max=255"`
	ScheduledFor     time.Time `json:"scheduled_for" validate:"required"`
	LocationLink     string    `json:"location_link" validate:"omitempty,url,max=2048"`
	Agenda           string    `json:"agenda" validate:"max=5000"`
	Attachments      []string  `json:"attachments" validate:"max=20,dive,notblank"`
	ExternalEventID  string    `json:"external_event_id" validate:"max=255"`
	ExternalProvider string    `json:"external_provider" validate:"max=64"`
}

// MeetingUpdate is a partial update; nil fields are left as they are.
type MeetingUpdate struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=255"`
	ScheduledFor *time.Time `json:"scheduled_for"`
	LocationLink *string    `json:"location_link" validate:"omitempty,url,max=2048"`
	Agenda       *string    `json:"agenda" validate:"omitempty,max=5000"`
}

type MeetingService struct {
	store    storage.Store
	notifier notify.Notifier
	logger   *zap.Logger
}

func NewMeetingService(store storage.Store, notifier notify.Notifier, logger *zap.Logger) *MeetingService {
	return &MeetingService{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// parties are the two users a meeting is between.
type parties struct {
	studentID     int64
	academicianID int64
}

func (p parties) has(userID int64) bool {
	return userID == p.studentID || userID == p.academicianID
}

func (p parties) counterparty(userID int64) int64 {
	if userID == p.studentID {
		return p.academicianID
	}
	return p.studentID
}

// Schedule создаёт встречу в рамках связи
func (s *MeetingService) Schedule(ctx context.Context, relationship *model.SupervisionRelationship, actor *model.User, in MeetingInput) (*model.SupervisionMeeting, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		m      *model.SupervisionMeeting
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		rel, err := tx.Relationships().GetByID(ctx, relationship.ID)
		if err != nil {
			return fmt.Errorf("get relationship: %w", err)
		}
		if !rel.HasParty(actor.ID) {
			return NewValidationError("actor", "only the student or the supervisor can schedule meetings")
		}
		if !rel.IsActive() {
			return NewValidationError("relationship", "relationship is %s", rel.Status)
		}

		m = newMeeting(in, actor.ID)
		m.RelationshipID = &rel.ID
		if err := tx.Meetings().Create(ctx, m); err != nil {
			return fmt.Errorf("create meeting: %w", err)
		}

		outbox.add(rel.Counterparty(actor.ID), notify.EventMeetingScheduled, m.Snapshot())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meeting scheduled",
		zap.Int64("meeting_id", m.ID),
		zap.Int64("relationship_id", *m.RelationshipID),
		zap.Time("scheduled_for", m.ScheduledFor),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return m, nil
}

// ScheduleForRequest создаёт встречу по заявке, пока она не решена
func (s *MeetingService) ScheduleForRequest(ctx context.Context, request *model.SupervisionRequest, actor *model.User, in MeetingInput) (*model.SupervisionMeeting, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		m      *model.SupervisionMeeting
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		req, err := tx.Requests().GetForUpdate(ctx, request.ID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}
		if !req.HasParty(actor.ID) {
			return NewValidationError("actor", "only the student or the academician can schedule meetings")
		}
		if req.Status != model.RequestStatusPending && req.Status != model.RequestStatusPendingStudentAcceptance {
			return NewValidationError("status", "meetings cannot be scheduled for a %s request", req.Status)
		}

		m = newMeeting(in, actor.ID)
		m.RequestID = &req.ID
		if err := tx.Meetings().Create(ctx, m); err != nil {
			return fmt.Errorf("create meeting: %w", err)
		}

		outbox.add(req.Counterparty(actor.ID), notify.EventMeetingScheduled, m.Snapshot())
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Meeting scheduled",
		zap.Int64("meeting_id", m.ID),
		zap.Int64("request_id", *m.RequestID),
		zap.Time("scheduled_for", m.ScheduledFor),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return m, nil
}

func newMeeting(in MeetingInput, creatorID int64) *model.SupervisionMeeting {
	ts := now()
	return &model.SupervisionMeeting{
		Title:            in.Title,
		ScheduledFor:     in.ScheduledFor.UTC(),
		LocationLink:     in.LocationLink,
		Agenda:           in.Agenda,
		Attachments:      in.Attachments,
		ExternalEventID:  in.ExternalEventID,
		ExternalProvider: in.ExternalProvider,
		CreatedBy:        creatorID,
		CreatedAt:        ts,
		UpdatedAt:        ts,
	}
}

// meetingParties резолвит стороны встречи через заявку или связь
func meetingParties(ctx context.Context, tx storage.Store, m *model.SupervisionMeeting) (parties, error) {
	if m.RelationshipID != nil {
		rel, err := tx.Relationships().GetByID(ctx, *m.RelationshipID)
		if err != nil {
			return parties{}, fmt.Errorf("get relationship: %w", err)
		}
		return parties{studentID: rel.StudentID, academicianID: rel.AcademicianID}, nil
	}
	if m.RequestID != nil {
		req, err := tx.Requests().GetByID(ctx, *m.RequestID)
		if err != nil {
			return parties{}, fmt.Errorf("get request: %w", err)
		}
		return parties{studentID: req.StudentID, academicianID: req.AcademicianID}, nil
	}
	return parties{}, fmt.Errorf("meeting %d has no owner", m.ID)
}

// Update меняет встречу и уведомляет вторую сторону, только если изменились время или ссылка
func (s *MeetingService) Update(ctx context.Context, meeting *model.SupervisionMeeting, actor *model.User, in MeetingUpdate) (*model.SupervisionMeeting, []model.MeetingChange, error) {
	if err := validateInput(in); err != nil {
		return nil, nil, err
	}

	var (
		m       *model.SupervisionMeeting
		changes []model.MeetingChange
		outbox  outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		m, err = tx.Meetings().GetForUpdate(ctx, meeting.ID)
		if err != nil {
			return fmt.Errorf("get meeting: %w", err)
		}
		p, err := meetingParties(ctx, tx, m)
		if err != nil {
			return err
		}
		if !p.has(actor.ID) {
			return NewValidationError("actor", "you are not a party of this meeting")
		}

		before := *m
		if in.Title != nil {
			m.Title = *in.Title
		}
		if in.ScheduledFor != nil {
			m.ScheduledFor = in.ScheduledFor.UTC()
		}
		if in.LocationLink != nil {
			m.LocationLink = *in.LocationLink
		}
		if in.Agenda != nil {
			m.Agenda = *in.Agenda
		}
		m.UpdatedAt = now()

		if err := tx.Meetings().Update(ctx, m); err != nil {
			return fmt.Errorf("update meeting: %w", err)
		}

		changes = model.DiffMeeting(&before, m)
		if len(changes) > 0 {
			outbox.add(p.counterparty(actor.ID), notify.EventMeetingUpdated, notify.MeetingChanged{
				Meeting: m.Snapshot(),
				Changes: changes,
			})
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("Meeting updated",
		zap.Int64("meeting_id", m.ID),
		zap.Int("changes", len(changes)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return m, changes, nil
}

// Cancel удаляет встречу; уведомление содержит снимок, снятый до удаления
func (s *MeetingService) Cancel(ctx context.Context, meeting *model.SupervisionMeeting, actor *model.User) (model.MeetingSnapshot, error) {
	var (
		snap   model.MeetingSnapshot
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		m, err := tx.Meetings().GetForUpdate(ctx, meeting.ID)
		if err != nil {
			return fmt.Errorf("get meeting: %w", err)
		}
		p, err := meetingParties(ctx, tx, m)
		if err != nil {
			return err
		}
		if !p.has(actor.ID) {
			return NewValidationError("actor", "you are not a party of this meeting")
		}

		snap = m.Snapshot()
		if err := tx.Meetings().Delete(ctx, m.ID); err != nil {
			return fmt.Errorf("delete meeting: %w", err)
		}

		outbox.add(p.counterparty(actor.ID), notify.EventMeetingCancelled, snap)
		return nil
	})
	if err != nil {
		return model.MeetingSnapshot{}, err
	}

	s.logger.Info("Meeting cancelled",
		zap.Int64("meeting_id", snap.ID),
		zap.Int64("actor_id", actor.ID),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return snap, nil
}
