package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/storage"
	"go.uber.org/zap"
)

type ShortlistService struct {
	store  storage.Store
	logger *zap.Logger
}

func NewShortlistService(store storage.Store, logger *zap.Logger) *ShortlistService {
	return &ShortlistService{
		store:  store,
		logger: logger,
	}
}

// AddToShortlist добавляет руководителя в шортлист студента (идемпотентно)
func (s *ShortlistService) AddToShortlist(ctx context.Context, studentID, academicianID int64, programID *int64) (*model.ShortlistEntry, error) {
	var entry *model.ShortlistEntry
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.Users().LockByID(ctx, studentID); err != nil {
			return fmt.Errorf("lock student: %w", err)
		}

		var err error
		entry, err = s.upsert(ctx, tx, studentID, academicianID, programID, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// upsert работает внутри уже открытой транзакции; enforceCap=false для автодобавления из заявки
func (s *ShortlistService) upsert(ctx context.Context, tx storage.Store, studentID, academicianID int64, programID *int64, enforceCap bool) (*model.ShortlistEntry, error) {
	if studentID == academicianID {
		return nil, NewValidationError("academician_id", "you cannot shortlist yourself")
	}

	existing, err := tx.Shortlists().Get(ctx, studentID, academicianID)
	if err == nil {
		return existing, nil
	}
	if !storage.IsNotFound(err) {
		return nil, fmt.Errorf("get shortlist entry: %w", err)
	}

	if enforceCap {
		count, err := tx.Shortlists().CountByStudent(ctx, studentID)
		if err != nil {
			return nil, fmt.Errorf("count shortlist: %w", err)
		}
		if count >= model.MaxShortlistEntries {
			return nil, NewValidationError("shortlist", "you can shortlist at most %d supervisors", model.MaxShortlistEntries)
		}
	}

	entry := &model.ShortlistEntry{
		StudentID:             studentID,
		AcademicianID:         academicianID,
		PostgraduateProgramID: programID,
		CreatedAt:             now(),
	}
	if err := tx.Shortlists().Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("create shortlist entry: %w", err)
	}

	s.logger.Info("Supervisor shortlisted",
		zap.Int64("student_id", studentID),
		zap.Int64("academician_id", academicianID),
	)
	return entry, nil
}

// RemoveFromShortlist удаляет руководителя из шортлиста; отсутствие записи не ошибка
func (s *ShortlistService) RemoveFromShortlist(ctx context.Context, studentID, academicianID int64) error {
	if err := s.store.Shortlists().Delete(ctx, studentID, academicianID); err != nil {
		return fmt.Errorf("delete shortlist entry: %w", err)
	}
	return nil
}

// ListShortlist получает шортлист студента
func (s *ShortlistService) ListShortlist(ctx context.Context, studentID int64) ([]*model.ShortlistEntry, error) {
	entries, err := s.store.Shortlists().ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("list shortlist: %w", err)
	}
	return entries, nil
}
