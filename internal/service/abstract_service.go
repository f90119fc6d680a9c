package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/abstract"
	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/storage"
	"go.uber.org/zap"
)

// ManualAbstractInput аннотация, введённая вручную
type ManualAbstractInput struct {
	Content string `json:"content" validate:"notblank,max=5000"`
}

type AbstractService struct {
	store  storage.Store
	files  FileStore
	logger *zap.Logger
}

func NewAbstractService(store storage.Store, files FileStore, logger *zap.Logger) *AbstractService {
	return &AbstractService{
		store:  store,
		files:  files,
		logger: logger,
	}
}

// ExtractForRequest возвращает аннотацию заявки, извлекая её при первом обращении.
// Неудачное извлечение не ошибка: запись получает статус failed.
func (s *AbstractService) ExtractForRequest(ctx context.Context, requestID int64) (*model.SupervisionRequestAbstract, error) {
	existing, err := s.store.Abstracts().GetByRequest(ctx, requestID)
	switch {
	case err == nil:
		if existing.ExtractionStatus != model.ExtractionStatusFailed {
			return existing, nil
		}
	case !storage.IsNotFound(err):
		return nil, fmt.Errorf("get abstract: %w", err)
	}
	return s.extract(ctx, requestID)
}

// RetryExtraction повторяет извлечение; ручную аннотацию не перезаписывает
func (s *AbstractService) RetryExtraction(ctx context.Context, requestID int64) (*model.SupervisionRequestAbstract, error) {
	existing, err := s.store.Abstracts().GetByRequest(ctx, requestID)
	switch {
	case err == nil:
		if existing.ExtractionStatus == model.ExtractionStatusManual {
			return existing, nil
		}
	case !storage.IsNotFound(err):
		return nil, fmt.Errorf("get abstract: %w", err)
	}
	return s.extract(ctx, requestID)
}

// SaveManualAbstract сохраняет аннотацию, введённую студентом или руководителем
func (s *AbstractService) SaveManualAbstract(ctx context.Context, requestID int64, in ManualAbstractInput) (*model.SupervisionRequestAbstract, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	if _, err := s.store.Requests().GetByID(ctx, requestID); err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}

	ts := now()
	abs := &model.SupervisionRequestAbstract{
		RequestID:        requestID,
		Content:          in.Content,
		ExtractionStatus: model.ExtractionStatusManual,
		ExtractedAt:      &ts,
		UpdatedAt:        ts,
	}
	if err := s.store.Abstracts().Upsert(ctx, abs); err != nil {
		return nil, fmt.Errorf("save abstract: %w", err)
	}

	s.logger.Info("Manual abstract saved", zap.Int64("request_id", requestID))
	return abs, nil
}

func (s *AbstractService) extract(ctx context.Context, requestID int64) (*model.SupervisionRequestAbstract, error) {
	if _, err := s.store.Requests().GetByID(ctx, requestID); err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}

	attachments, err := s.store.Requests().ListAttachments(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("list attachments: %w", err)
	}

	ts := now()
	abs := &model.SupervisionRequestAbstract{
		RequestID: requestID,
		UpdatedAt: ts,
	}

	var proposal *model.RequestAttachment
	for i := range attachments {
		if attachments[i].Type == model.AttachmentTypeProposal {
			proposal = &attachments[i]
			break
		}
	}

	if proposal == nil {
		failExtraction(abs, errors.New("request has no proposal attachment"))
	} else {
		abs.SourceAttachmentID = &proposal.ID
		content, err := s.readProposal(ctx, proposal)
		if err != nil {
			failExtraction(abs, err)
		} else {
			abs.Content = content
			abs.ExtractionStatus = model.ExtractionStatusExtracted
			abs.ExtractedAt = &ts
		}
	}

	if err := s.store.Abstracts().Upsert(ctx, abs); err != nil {
		return nil, fmt.Errorf("save abstract: %w", err)
	}

	s.logger.Info("Abstract extraction finished",
		zap.Int64("request_id", requestID),
		zap.String("status", string(abs.ExtractionStatus)),
		zap.String("error", abs.ExtractionError),
	)
	return abs, nil
}

func (s *AbstractService) readProposal(ctx context.Context, att *model.RequestAttachment) (string, error) {
	rc, err := s.files.Open(ctx, att.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open proposal: %w", err)
	}
	defer rc.Close()

	text, err := abstract.ReadText(att.OriginalName, rc)
	if err != nil {
		return "", err
	}
	return abstract.Extract(text)
}

func failExtraction(abs *model.SupervisionRequestAbstract, err error) {
	abs.Content = ""
	abs.ExtractionStatus = model.ExtractionStatusFailed
	abs.ExtractionError = err.Error()
	abs.ExtractedAt = nil
}
