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

// UnbindInput причина запроса на разрыв связи
type UnbindInput struct {
	Reason string `json:"reason" validate:"notblank,max=2000"`
}

// TerminationHook runs after a relationship termination is committed.
// Workspace archival and timeline recording plug in here; errors are logged.
type TerminationHook func(ctx context.Context, rel model.SupervisionRelationship) error

type UnbindService struct {
	store    storage.Store
	notifier notify.Notifier
	hooks    []TerminationHook
	logger   *zap.Logger
}

func NewUnbindService(store storage.Store, notifier notify.Notifier, logger *zap.Logger, hooks ...TerminationHook) *UnbindService {
	return &UnbindService{
		store:    store,
		notifier: notifier,
		hooks:    hooks,
		logger:   logger,
	}
}

func cooldownError(until time.Time) error {
	return NewValidationError("unbind", "you can request unbinding again after %s", until.UTC().Format(time.RFC3339))
}

// InitiateUnbindRequest создаёт запрос на разрыв; третья попытка разрывает связь сразу
func (s *UnbindService) InitiateUnbindRequest(ctx context.Context, relationship *model.SupervisionRelationship, initiator *model.User, in UnbindInput) (*model.UnbindRequest, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		ub         *model.UnbindRequest
		terminated *model.SupervisionRelationship
		outbox     outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		rel, err := tx.Relationships().GetForUpdate(ctx, relationship.ID)
		if err != nil {
			return fmt.Errorf("get relationship: %w", err)
		}
		if !rel.IsActive() {
			return NewValidationError("relationship", "relationship is %s", rel.Status)
		}

		var initiatedBy model.UnbindInitiator
		switch initiator.ID {
		case rel.StudentID:
			initiatedBy = model.UnbindInitiatorStudent
		case rel.AcademicianID:
			initiatedBy = model.UnbindInitiatorSupervisor
		default:
			return NewValidationError("initiator", "only the student or the supervisor can request unbinding")
		}

		ts := now()
		attempt, err := s.nextAttempt(ctx, tx, rel.ID, initiatedBy, ts)
		if err != nil {
			return err
		}

		ub = &model.UnbindRequest{
			RelationshipID: rel.ID,
			InitiatedBy:    initiatedBy,
			Reason:         in.Reason,
			Status:         model.StatusForAttempt(attempt),
			AttemptCount:   attempt,
			CreatedAt:      ts,
			UpdatedAt:      ts,
		}
		if err := tx.Unbinds().Create(ctx, ub); err != nil {
			return fmt.Errorf("create unbind request: %w", err)
		}

		if ub.Status == model.UnbindStatusForceUnbind {
			if err := s.terminate(ctx, tx, rel, ts, &outbox); err != nil {
				return err
			}
			terminated = rel
			outbox.add(rel.StudentID, notify.EventUnbindForced, *ub)
			outbox.add(rel.AcademicianID, notify.EventUnbindForced, *ub)
			return nil
		}

		outbox.add(rel.Counterparty(initiator.ID), notify.EventUnbindRequested, *ub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Unbind requested",
		zap.Int64("unbind_request_id", ub.ID),
		zap.Int64("relationship_id", ub.RelationshipID),
		zap.String("initiated_by", string(ub.InitiatedBy)),
		zap.Int("attempt", ub.AttemptCount),
		zap.String("status", string(ub.Status)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	s.runHooks(ctx, terminated)
	return ub, nil
}

// nextAttempt derives the attempt number from persisted history.
func (s *UnbindService) nextAttempt(ctx context.Context, tx storage.Store, relationshipID int64, initiatedBy model.UnbindInitiator, ts time.Time) (int, error) {
	pending, err := tx.Unbinds().GetPending(ctx, relationshipID)
	switch {
	case err == nil:
		if pending.InCooldown(ts) {
			return 0, cooldownError(*pending.CooldownUntil)
		}
		if pending.InitiatedBy != initiatedBy {
			return 0, NewValidationError("unbind", "there is a pending unbind request awaiting your response")
		}
		// Повторный запрос заменяет висящий
		if err := tx.Unbinds().Delete(ctx, pending.ID); err != nil {
			return 0, fmt.Errorf("delete pending unbind request: %w", err)
		}
		return pending.AttemptCount + 1, nil
	case !storage.IsNotFound(err):
		return 0, fmt.Errorf("get pending unbind request: %w", err)
	}

	last, err := tx.Unbinds().LatestRejected(ctx, relationshipID, initiatedBy)
	switch {
	case err == nil:
		if last.InCooldown(ts) {
			return 0, cooldownError(*last.CooldownUntil)
		}
	case !storage.IsNotFound(err):
		return 0, fmt.Errorf("get latest rejected unbind request: %w", err)
	}

	rejected, err := tx.Unbinds().CountRejected(ctx, relationshipID, initiatedBy)
	if err != nil {
		return 0, fmt.Errorf("count rejected unbind requests: %w", err)
	}
	return rejected + 1, nil
}

// ApproveUnbindRequest студент соглашается на разрыв, запрошенный руководителем
func (s *UnbindService) ApproveUnbindRequest(ctx context.Context, ub *model.UnbindRequest, student *model.User) (*model.UnbindRequest, error) {
	return s.resolve(ctx, ub.ID, student.ID, model.UnbindInitiatorSupervisor, true)
}

// RejectUnbindRequest студент отклоняет разрыв, запрошенный руководителем
func (s *UnbindService) RejectUnbindRequest(ctx context.Context, ub *model.UnbindRequest, student *model.User) (*model.UnbindRequest, error) {
	return s.resolve(ctx, ub.ID, student.ID, model.UnbindInitiatorSupervisor, false)
}

// SupervisorApproveUnbindRequest руководитель соглашается на разрыв, запрошенный студентом
func (s *UnbindService) SupervisorApproveUnbindRequest(ctx context.Context, ub *model.UnbindRequest, supervisor *model.User) (*model.UnbindRequest, error) {
	return s.resolve(ctx, ub.ID, supervisor.ID, model.UnbindInitiatorStudent, true)
}

// SupervisorRejectUnbindRequest руководитель отклоняет разрыв, запрошенный студентом
func (s *UnbindService) SupervisorRejectUnbindRequest(ctx context.Context, ub *model.UnbindRequest, supervisor *model.User) (*model.UnbindRequest, error) {
	return s.resolve(ctx, ub.ID, supervisor.ID, model.UnbindInitiatorStudent, false)
}

// resolve is the counterparty decision on a pending request opened by initiatedBy.
func (s *UnbindService) resolve(ctx context.Context, unbindID, actorID int64, initiatedBy model.UnbindInitiator, approve bool) (*model.UnbindRequest, error) {
	var (
		ub         *model.UnbindRequest
		terminated *model.SupervisionRelationship
		outbox     outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		ub, err = tx.Unbinds().GetForUpdate(ctx, unbindID)
		if err != nil {
			return fmt.Errorf("get unbind request: %w", err)
		}
		if !ub.IsPending() {
			return NewValidationError("status", "unbind request is %s", ub.Status)
		}
		if ub.InitiatedBy != initiatedBy {
			return NewValidationError("initiated_by", "unbind request was not initiated by the %s", initiatedBy)
		}

		rel, err := tx.Relationships().GetForUpdate(ctx, ub.RelationshipID)
		if err != nil {
			return fmt.Errorf("get relationship: %w", err)
		}
		responder := rel.StudentID
		if initiatedBy == model.UnbindInitiatorStudent {
			responder = rel.AcademicianID
		}
		if actorID != responder {
			return NewValidationError("actor", "only the other party can respond to this unbind request")
		}

		ts := now()
		if !approve {
			if err := ub.Reject(ts); err != nil {
				return statusError(err)
			}
			if err := tx.Unbinds().Update(ctx, ub); err != nil {
				return fmt.Errorf("update unbind request: %w", err)
			}
			outbox.add(rel.Counterparty(actorID), notify.EventUnbindRejected, *ub)
			return nil
		}

		if err := ub.Approve(actorID == rel.StudentID, ts); err != nil {
			return statusError(err)
		}
		if err := tx.Unbinds().Update(ctx, ub); err != nil {
			return fmt.Errorf("update unbind request: %w", err)
		}
		if err := s.terminate(ctx, tx, rel, ts, &outbox); err != nil {
			return err
		}
		terminated = rel
		outbox.add(rel.Counterparty(actorID), notify.EventUnbindApproved, *ub)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Unbind request resolved",
		zap.Int64("unbind_request_id", ub.ID),
		zap.Int64("actor_id", actorID),
		zap.String("status", string(ub.Status)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	s.runHooks(ctx, terminated)
	return ub, nil
}

// terminate завершает связь внутри транзакции
func (s *UnbindService) terminate(ctx context.Context, tx storage.Store, rel *model.SupervisionRelationship, ts time.Time, outbox *outbox) error {
	if err := rel.Terminate(ts); err != nil {
		return statusError(err)
	}
	if err := tx.Relationships().Update(ctx, rel); err != nil {
		return fmt.Errorf("terminate relationship: %w", err)
	}

	outbox.add(rel.StudentID, notify.EventRelationshipTerminated, *rel)
	outbox.add(rel.AcademicianID, notify.EventRelationshipTerminated, *rel)
	return nil
}

func (s *UnbindService) runHooks(ctx context.Context, rel *model.SupervisionRelationship) {
	if rel == nil {
		return
	}
	s.logger.Info("Relationship terminated",
		zap.Int64("relationship_id", rel.ID),
		zap.String("role", string(rel.Role)),
	)
	for _, hook := range s.hooks {
		logSideEffect(s.logger, attemptDo("termination hook", func() error {
			return hook(ctx, *rel)
		}), zap.Int64("relationship_id", rel.ID))
	}
}
