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

// AcceptInput параметры создаваемой связи
type AcceptInput struct {
	Role                  model.RelationshipRole `json:"role" validate:"required,oneof=main co"`
	Cohort                string                 `json:"cohort" validate:"max=64"`
	MeetingCadence        string                 `json:"meeting_cadence" validate:"max=64"`
	StartDate             *time.Time             `json:"start_date"` // nil = now
	CreateScholarLabBoard bool                   `json:"create_scholarlab_board"`
}

// OfferDetails is what the student confirms when accepting an offer.
type OfferDetails struct {
	AcceptInput
	OnboardingChecklist []ChecklistItemInput `json:"onboarding_checklist" validate:"max=50,dive"`
}

type ChecklistItemInput struct {
	Title       string `json:"title" validate:"notblank,max=255"`
	Description string `json:"description" validate:"max=2000"`
}

type ActivationService struct {
	store      storage.Store
	workspaces Workspaces
	scholarLab *ScholarLabTemplate // nil disables provisioning
	notifier   notify.Notifier
	logger     *zap.Logger
}

func NewActivationService(
	store storage.Store,
	workspaces Workspaces,
	scholarLab *ScholarLabTemplate,
	notifier notify.Notifier,
	logger *zap.Logger,
) *ActivationService {
	return &ActivationService{
		store:      store,
		workspaces: workspaces,
		scholarLab: scholarLab,
		notifier:   notifier,
		logger:     logger,
	}
}

// AcceptRequest руководитель принимает заявку со статусом pending
func (s *ActivationService) AcceptRequest(ctx context.Context, req *model.SupervisionRequest, in AcceptInput) (*model.SupervisionRelationship, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		rel    *model.SupervisionRelationship
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		current, err := s.activate(ctx, tx, req.ID, model.RequestStatusPending, in, &outbox)
		if err != nil {
			return err
		}
		rel = current

		outbox.add(rel.StudentID, notify.EventRequestAccepted, *rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supervision request accepted",
		zap.Int64("request_id", req.ID),
		zap.Int64("relationship_id", rel.ID),
		zap.String("role", string(rel.Role)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return rel, nil
}

// CreateRelationshipFromOffer студент принимает предложение руководителя
func (s *ActivationService) CreateRelationshipFromOffer(ctx context.Context, req *model.SupervisionRequest, offer OfferDetails) (*model.SupervisionRelationship, error) {
	if err := validateInput(offer); err != nil {
		return nil, err
	}

	var (
		rel    *model.SupervisionRelationship
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		current, err := s.activate(ctx, tx, req.ID, model.RequestStatusPendingStudentAcceptance, offer.AcceptInput, &outbox)
		if err != nil {
			return err
		}
		rel = current

		for i, item := range offer.OnboardingChecklist {
			row := &model.OnboardingChecklistItem{
				RelationshipID: rel.ID,
				Title:          item.Title,
				Description:    item.Description,
				SortOrder:      i,
				CreatedAt:      now(),
			}
			if err := tx.Onboarding().Create(ctx, row); err != nil {
				return fmt.Errorf("create onboarding item %d: %w", i, err)
			}
		}

		outbox.add(rel.AcademicianID, notify.EventOfferAccepted, *rel)
		outbox.add(rel.StudentID, notify.EventRequestAccepted, *rel)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Supervision offer accepted",
		zap.Int64("request_id", req.ID),
		zap.Int64("relationship_id", rel.ID),
		zap.Int("onboarding_items", len(offer.OnboardingChecklist)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return rel, nil
}

// activate is the shared core of both acceptance paths. The request is
// re-read under lock; the caller's copy is only used for its id.
func (s *ActivationService) activate(
	ctx context.Context,
	tx storage.Store,
	requestID int64,
	expected model.RequestStatus,
	in AcceptInput,
	outbox *outbox,
) (*model.SupervisionRelationship, error) {
	req, err := tx.Requests().GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}

	// Сначала студент, потом заявка: тот же порядок блокировок, что и в SubmitRequest
	student, err := tx.Users().LockByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("lock student: %w", err)
	}
	req, err = tx.Requests().GetForUpdate(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request for update: %w", err)
	}
	if req.Status != expected {
		return nil, NewValidationError("status", "request is %s, expected %s", req.Status, expected)
	}

	supervisor, err := tx.Users().GetByID(ctx, req.AcademicianID)
	if err != nil {
		return nil, fmt.Errorf("get supervisor: %w", err)
	}

	if err := s.checkRole(ctx, tx, req, in.Role); err != nil {
		return nil, err
	}

	ts := now()
	start := ts
	if in.StartDate != nil {
		start = in.StartDate.UTC()
	}
	rel := &model.SupervisionRelationship{
		StudentID:      req.StudentID,
		AcademicianID:  req.AcademicianID,
		Role:           in.Role,
		Status:         model.RelationshipStatusActive,
		StartDate:      start,
		AcceptedAt:     &ts,
		Cohort:         in.Cohort,
		MeetingCadence: in.MeetingCadence,
		ConversationID: req.ConversationID,
		CreatedAt:      ts,
		UpdatedAt:      ts,
	}
	if err := tx.Relationships().Create(ctx, rel); err != nil {
		return nil, fmt.Errorf("create relationship: %w", err)
	}

	if err := req.Transition(model.RequestStatusAccepted, "", ts); err != nil {
		return nil, statusError(err)
	}
	if err := tx.Requests().Update(ctx, req); err != nil {
		return nil, fmt.Errorf("update request: %w", err)
	}

	if err := s.autoCancelOthers(ctx, tx, req, ts, outbox); err != nil {
		return nil, err
	}

	if _, err := tx.Connections().EnsureAccepted(ctx, req.StudentID, req.AcademicianID); err != nil {
		return nil, fmt.Errorf("ensure connection: %w", err)
	}

	if in.CreateScholarLabBoard && s.scholarLab != nil {
		p, err := s.scholarLab.provision(ctx, s.workspaces, student, supervisor)
		if err != nil {
			return nil, fmt.Errorf("provision scholarlab: %w", err)
		}
		rel.WorkspaceID = &p.workspace.ID
		rel.BoardID = &p.board.ID
		if err := tx.Relationships().Update(ctx, rel); err != nil {
			return nil, fmt.Errorf("update relationship workspace: %w", err)
		}

		s.logger.Info("ScholarLab workspace provisioned",
			zap.Int64("relationship_id", rel.ID),
			zap.Int64("workspace_id", p.workspace.ID),
			zap.Int64("board_id", p.board.ID),
			zap.Int("tasks", p.tasks),
		)
	}

	return rel, nil
}

func (s *ActivationService) checkRole(ctx context.Context, tx storage.Store, req *model.SupervisionRequest, role model.RelationshipRole) error {
	active, err := tx.Relationships().HasActive(ctx, req.StudentID, req.AcademicianID)
	if err != nil {
		return fmt.Errorf("check active relationship: %w", err)
	}
	if active {
		return NewValidationError("academician_id", "this supervisor already supervises the student")
	}

	switch role {
	case model.RelationshipRoleMain:
		_, err := tx.Relationships().GetActiveMain(ctx, req.StudentID)
		if err == nil {
			return NewValidationError("role", "student already has an active main supervisor")
		}
		if !storage.IsNotFound(err) {
			return fmt.Errorf("get active main relationship: %w", err)
		}
	case model.RelationshipRoleCo:
		taken, err := cosupervisorSeats(ctx, tx, req.StudentID)
		if err != nil {
			return err
		}
		if taken >= model.MaxCosupervisors {
			return NewValidationError("role", "student already has %d co-supervisors", model.MaxCosupervisors)
		}

		mainRel, err := tx.Relationships().GetActiveMain(ctx, req.StudentID)
		switch {
		case err == nil:
			inFlight, err := tx.Invitations().HasInFlight(ctx, mainRel.ID, req.AcademicianID)
			if err != nil {
				return fmt.Errorf("check co-supervisor invitation: %w", err)
			}
			if inFlight {
				return NewValidationError("academician_id", "this supervisor has an open co-supervision invitation for the student")
			}
		case !storage.IsNotFound(err):
			return fmt.Errorf("get active main relationship: %w", err)
		}
	}
	return nil
}

// autoCancelOthers closes every other pending request of the student.
func (s *ActivationService) autoCancelOthers(ctx context.Context, tx storage.Store, accepted *model.SupervisionRequest, ts time.Time, outbox *outbox) error {
	others, err := tx.Requests().ListByStudentStatus(ctx, accepted.StudentID, model.RequestStatusPending, accepted.ID)
	if err != nil {
		return fmt.Errorf("list pending requests: %w", err)
	}
	for _, other := range others {
		if err := other.Transition(model.RequestStatusAutoCancelled, model.CancelReasonAcceptedElsewhere, ts); err != nil {
			return statusError(err)
		}
		if err := tx.Requests().Update(ctx, other); err != nil {
			return fmt.Errorf("auto-cancel request %d: %w", other.ID, err)
		}
		outbox.add(other.StudentID, notify.EventRequestAutoCancelled, *other)
		outbox.add(other.AcademicianID, notify.EventRequestAutoCancelled, *other)
	}

	if len(others) > 0 {
		s.logger.Info("Pending requests auto-cancelled",
			zap.Int64("student_id", accepted.StudentID),
			zap.Int64("accepted_request_id", accepted.ID),
			zap.Int("count", len(others)),
		)
	}
	return nil
}

// cosupervisorSeats считает активных со-руководителей и незавершённые приглашения
func cosupervisorSeats(ctx context.Context, tx storage.Store, studentID int64) (int, error) {
	active, err := tx.Relationships().ListActiveByStudentRole(ctx, studentID, model.RelationshipRoleCo)
	if err != nil {
		return 0, fmt.Errorf("list co-supervisors: %w", err)
	}
	inFlight, err := tx.Invitations().CountInFlightByStudent(ctx, studentID)
	if err != nil {
		return 0, fmt.Errorf("count in-flight invitations: %w", err)
	}
	return len(active) + inFlight, nil
}
