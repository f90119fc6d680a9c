package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/storage"
	"go.uber.org/zap"
)

// SubmitRequestInput данные новой заявки
type SubmitRequestInput struct {
	ProposalTitle         string `json:"proposal_title" validate:"notblank,max=255"`
	Motivation            string `json:"motivation" validate:"notblank,max=5000"`
	PostgraduateProgramID *int64 `json:"postgraduate_program_id" validate:"omitempty,gt=0"`

	// Attachments maps attachment type (proposal, cv, ...) to the uploaded file.
	Attachments map[string]Upload `json:"-"`
}

type RequestService struct {
	store      storage.Store
	messenger  Messenger
	files      FileStore
	shortlists *ShortlistService
	notifier   notify.Notifier
	logger     *zap.Logger
}

func NewRequestService(
	store storage.Store,
	messenger Messenger,
	files FileStore,
	shortlists *ShortlistService,
	notifier notify.Notifier,
	logger *zap.Logger,
) *RequestService {
	return &RequestService{
		store:      store,
		messenger:  messenger,
		files:      files,
		shortlists: shortlists,
		notifier:   notifier,
		logger:     logger,
	}
}

// SubmitRequest создаёт заявку студента к руководителю
func (s *RequestService) SubmitRequest(ctx context.Context, student, academician *model.User, in SubmitRequestInput) (*model.SupervisionRequest, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if student.ID == academician.ID {
		return nil, NewValidationError("academician_id", "you cannot send a supervision request to yourself")
	}

	var (
		req    *model.SupervisionRequest
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		// Блокируем студента, чтобы параллельные заявки считались последовательно
		if _, err := tx.Users().LockByID(ctx, student.ID); err != nil {
			return fmt.Errorf("lock student: %w", err)
		}

		active, err := tx.Requests().CountByStudentStatuses(ctx, student.ID, model.CapStatuses)
		if err != nil {
			return fmt.Errorf("count active requests: %w", err)
		}
		if active >= model.MaxActiveRequests {
			return NewValidationError("request", "you can only have %d active supervision requests at a time", model.MaxActiveRequests)
		}

		exists, err := tx.Requests().ExistsBetween(ctx, student.ID, academician.ID, model.ResubmissionBlockingStatuses)
		if err != nil {
			return fmt.Errorf("check existing request: %w", err)
		}
		if exists {
			return NewValidationError("academician_id", "you already have an active request with this supervisor")
		}

		conversationID, err := ensureDirectConversation(ctx, s.messenger, student.ID, academician.ID)
		if err != nil {
			return err
		}

		ts := now()
		req = &model.SupervisionRequest{
			StudentID:             student.ID,
			AcademicianID:         academician.ID,
			ProposalTitle:         in.ProposalTitle,
			Motivation:            in.Motivation,
			PostgraduateProgramID: in.PostgraduateProgramID,
			Status:                model.RequestStatusPending,
			SubmittedAt:           ts,
			ConversationID:        &conversationID,
			CreatedAt:             ts,
			UpdatedAt:             ts,
		}
		if err := tx.Requests().Create(ctx, req); err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		if err := s.storeAttachments(ctx, tx, req, in.Attachments); err != nil {
			return err
		}

		// Заявка автоматически добавляет руководителя в шортлист, без лимита
		if _, err := s.shortlists.upsert(ctx, tx, student.ID, academician.ID, in.PostgraduateProgramID, false); err != nil {
			return err
		}

		outbox.add(academician.ID, notify.EventRequestSubmitted, *req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supervision request submitted",
		zap.Int64("request_id", req.ID),
		zap.Int64("student_id", student.ID),
		zap.Int64("academician_id", academician.ID),
		zap.Int("attachments", len(req.Attachments)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return req, nil
}

// ensureDirectConversation находит или создаёт личный чат двух пользователей
func ensureDirectConversation(ctx context.Context, m Messenger, a, b int64) (int64, error) {
	conv, err := m.FindDirectConversation(ctx, a, b)
	if err != nil {
		return 0, fmt.Errorf("find direct conversation: %w", err)
	}
	if conv == nil {
		conv, err = m.CreateDirectConversation(ctx, a, b)
		if err != nil {
			return 0, fmt.Errorf("create direct conversation: %w", err)
		}
	}
	return conv.ID, nil
}

func (s *RequestService) storeAttachments(ctx context.Context, tx storage.Store, req *model.SupervisionRequest, uploads map[string]Upload) error {
	// Сортируем типы, чтобы порядок записей был стабильным
	types := make([]string, 0, len(uploads))
	for typ := range uploads {
		types = append(types, typ)
	}
	sort.Strings(types)

	dir := fmt.Sprintf("supervision-requests/%d", req.ID)
	for _, typ := range types {
		up := uploads[typ]
		if up.Content == nil {
			continue
		}

		stored, err := s.files.Put(ctx, dir, up.OriginalName, up.Content)
		if err != nil {
			return fmt.Errorf("store %s attachment: %w", typ, err)
		}

		mime := stored.MimeType
		if up.MimeType != "" {
			mime = up.MimeType
		}

		att := model.RequestAttachment{
			RequestID:    req.ID,
			Type:         typ,
			OriginalName: up.OriginalName,
			Size:         stored.Size,
			MimeType:     mime,
			StoragePath:  stored.Path,
		}
		if err := tx.Requests().AddAttachment(ctx, &att); err != nil {
			return fmt.Errorf("save %s attachment: %w", typ, err)
		}
		req.Attachments = append(req.Attachments, att)
	}
	return nil
}

// requestTransition описывает ручной переход заявки одной из сторон
type requestTransition struct {
	actorField string
	actor      func(r *model.SupervisionRequest) int64
	from       []model.RequestStatus
	to         model.RequestStatus
	event      notify.EventType
	logMessage string
}

func (s *RequestService) transition(ctx context.Context, requestID, actorID int64, t requestTransition, reason string) (*model.SupervisionRequest, error) {
	var (
		req    *model.SupervisionRequest
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		req, err = tx.Requests().GetForUpdate(ctx, requestID)
		if err != nil {
			return fmt.Errorf("get request: %w", err)
		}

		if t.actor(req) != actorID {
			return NewValidationError(t.actorField, "you are not allowed to change this request")
		}

		allowed := false
		for _, st := range t.from {
			if req.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return NewValidationError("status", "request is %s", req.Status)
		}

		if err := req.Transition(t.to, reason, now()); err != nil {
			return statusError(err)
		}
		if err := tx.Requests().Update(ctx, req); err != nil {
			return fmt.Errorf("update request: %w", err)
		}

		outbox.add(req.Counterparty(actorID), t.event, *req)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info(t.logMessage,
		zap.Int64("request_id", req.ID),
		zap.Int64("actor_id", actorID),
		zap.String("status", string(req.Status)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return req, nil
}

func requestStudent(r *model.SupervisionRequest) int64     { return r.StudentID }
func requestAcademician(r *model.SupervisionRequest) int64 { return r.AcademicianID }

// CancelRequest отменяет заявку (студент)
func (s *RequestService) CancelRequest(ctx context.Context, req *model.SupervisionRequest, student *model.User, reason string) (*model.SupervisionRequest, error) {
	return s.transition(ctx, req.ID, student.ID, requestTransition{
		actorField: "student_id",
		actor:      requestStudent,
		from:       []model.RequestStatus{model.RequestStatusPending, model.RequestStatusPendingStudentAcceptance},
		to:         model.RequestStatusCancelled,
		event:      notify.EventRequestCancelled,
		logMessage: "Supervision request cancelled",
	}, reason)
}

// RejectRequest отклоняет заявку (руководитель)
func (s *RequestService) RejectRequest(ctx context.Context, req *model.SupervisionRequest, academician *model.User, reason string) (*model.SupervisionRequest, error) {
	return s.transition(ctx, req.ID, academician.ID, requestTransition{
		actorField: "academician_id",
		actor:      requestAcademician,
		from:       []model.RequestStatus{model.RequestStatusPending},
		to:         model.RequestStatusRejected,
		event:      notify.EventRequestRejected,
		logMessage: "Supervision request rejected",
	}, reason)
}

// MakeOffer предлагает студенту руководство; студент принимает через CreateRelationshipFromOffer
func (s *RequestService) MakeOffer(ctx context.Context, req *model.SupervisionRequest, academician *model.User) (*model.SupervisionRequest, error) {
	return s.transition(ctx, req.ID, academician.ID, requestTransition{
		actorField: "academician_id",
		actor:      requestAcademician,
		from:       []model.RequestStatus{model.RequestStatusPending},
		to:         model.RequestStatusPendingStudentAcceptance,
		event:      notify.EventRequestOffered,
		logMessage: "Supervision offer made",
	}, "")
}

// DeclineOffer отклоняет предложение руководителя (студент)
func (s *RequestService) DeclineOffer(ctx context.Context, req *model.SupervisionRequest, student *model.User, reason string) (*model.SupervisionRequest, error) {
	return s.transition(ctx, req.ID, student.ID, requestTransition{
		actorField: "student_id",
		actor:      requestStudent,
		from:       []model.RequestStatus{model.RequestStatusPendingStudentAcceptance},
		to:         model.RequestStatusRejected,
		event:      notify.EventOfferDeclined,
		logMessage: "Supervision offer declined",
	}, reason)
}
