package service

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/storage"
	"go.uber.org/zap"
)

// InviteInput текст приглашения со-руководителя
type InviteInput struct {
	Message string `json:"invitation_message" validate:"max=2000"`
}

type CosupervisorService struct {
	store      storage.Store
	messenger  Messenger
	workspaces Workspaces
	notifier   notify.Notifier
	logger     *zap.Logger
}

func NewCosupervisorService(
	store storage.Store,
	messenger Messenger,
	workspaces Workspaces,
	notifier notify.Notifier,
	logger *zap.Logger,
) *CosupervisorService {
	return &CosupervisorService{
		store:      store,
		messenger:  messenger,
		workspaces: workspaces,
		notifier:   notifier,
		logger:     logger,
	}
}

// InitiateInvitation приглашает со-руководителя в рамках активной основной связи
func (s *CosupervisorService) InitiateInvitation(
	ctx context.Context,
	mainRel *model.SupervisionRelationship,
	initiator, candidate *model.User,
	in InviteInput,
) (*model.CoSupervisorInvitation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	var (
		inv    *model.CoSupervisorInvitation
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		if _, err := tx.Users().LockByID(ctx, mainRel.StudentID); err != nil {
			return fmt.Errorf("lock student: %w", err)
		}
		rel, err := tx.Relationships().GetForUpdate(ctx, mainRel.ID)
		if err != nil {
			return fmt.Errorf("get relationship: %w", err)
		}
		if !rel.IsActive() || !rel.IsMain() {
			return NewValidationError("relationship", "co-supervisors can only be invited to an active main supervision")
		}

		var initiatedBy model.InvitationInitiator
		switch initiator.ID {
		case rel.StudentID:
			initiatedBy = model.InitiatedByStudent
		case rel.AcademicianID:
			initiatedBy = model.InitiatedByMainSupervisor
		default:
			return NewValidationError("initiator", "only the student or the main supervisor can invite a co-supervisor")
		}

		if candidate.ID == rel.AcademicianID || candidate.ID == rel.StudentID {
			return NewValidationError("cosupervisor_academician_id", "co-supervisor must differ from the student and the main supervisor")
		}

		seats, err := cosupervisorSeats(ctx, tx, rel.StudentID)
		if err != nil {
			return err
		}
		if seats >= model.MaxCosupervisors {
			return NewValidationError("cosupervisor_academician_id", "student can have at most %d co-supervisors including pending invitations", model.MaxCosupervisors)
		}

		pending, err := tx.Invitations().HasInFlight(ctx, rel.ID, candidate.ID)
		if err != nil {
			return fmt.Errorf("check pending invitation: %w", err)
		}
		if pending {
			return NewValidationError("cosupervisor_academician_id", "an invitation to this co-supervisor is already pending")
		}

		already, err := tx.Relationships().HasActive(ctx, rel.StudentID, candidate.ID)
		if err != nil {
			return fmt.Errorf("check active co-supervisor: %w", err)
		}
		if already {
			return NewValidationError("cosupervisor_academician_id", "this academician already supervises the student")
		}

		ts := now()
		inv = &model.CoSupervisorInvitation{
			RelationshipID:            rel.ID,
			StudentID:                 rel.StudentID,
			MainSupervisorID:          rel.AcademicianID,
			CosupervisorAcademicianID: candidate.ID,
			InitiatedBy:               initiatedBy,
			InvitationMessage:         in.Message,
			CosupervisorStatus:        model.PartyStatusPending,
			ApproverStatus:            model.PartyStatusPending,
			CreatedAt:                 ts,
			UpdatedAt:                 ts,
		}
		if err := tx.Invitations().Create(ctx, inv); err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}

		outbox.add(candidate.ID, notify.EventCosupervisorInvited, *inv)
		outbox.add(inv.ApproverID(), notify.EventCosupervisorInvited, *inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Co-supervisor invited",
		zap.Int64("invitation_id", inv.ID),
		zap.Int64("relationship_id", inv.RelationshipID),
		zap.Int64("cosupervisor_id", inv.CosupervisorAcademicianID),
		zap.String("initiated_by", string(inv.InitiatedBy)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return inv, nil
}

// CosupervisorRespond ответ приглашённого со-руководителя
func (s *CosupervisorService) CosupervisorRespond(
	ctx context.Context,
	invitation *model.CoSupervisorInvitation,
	actor *model.User,
	response model.PartyStatus,
	reason string,
) (*model.CoSupervisorInvitation, error) {
	var (
		inv    *model.CoSupervisorInvitation
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		inv, err = tx.Invitations().GetForUpdate(ctx, invitation.ID)
		if err != nil {
			return fmt.Errorf("get invitation: %w", err)
		}
		if actor.ID != inv.CosupervisorAcademicianID {
			return NewValidationError("cosupervisor_academician_id", "only the invited co-supervisor can respond")
		}

		if err := inv.CosupervisorRespond(response, reason, now()); err != nil {
			return statusError(err)
		}
		if err := tx.Invitations().Update(ctx, inv); err != nil {
			return fmt.Errorf("update invitation: %w", err)
		}

		if response == model.PartyStatusRejected {
			outbox.add(inv.StudentID, notify.EventCosupervisorDeclined, *inv)
			outbox.add(inv.MainSupervisorID, notify.EventCosupervisorDeclined, *inv)
			return nil
		}
		outbox.add(inv.ApproverID(), notify.EventCosupervisorApprovalNeeded, *inv)
		outbox.add(inv.InitiatorID(), notify.EventCosupervisorAccepted, *inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Co-supervisor responded",
		zap.Int64("invitation_id", inv.ID),
		zap.String("response", string(response)),
	)

	outbox.flush(ctx, s.notifier, s.logger)
	return inv, nil
}

// ApproverRespond решение утверждающей стороны; при согласии создаётся связь role=co
func (s *CosupervisorService) ApproverRespond(
	ctx context.Context,
	invitation *model.CoSupervisorInvitation,
	actor *model.User,
	response model.PartyStatus,
	reason string,
) (*model.CoSupervisorInvitation, error) {
	var (
		inv    *model.CoSupervisorInvitation
		coRel  *model.SupervisionRelationship
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		student, err := tx.Users().LockByID(ctx, invitation.StudentID)
		if err != nil {
			return fmt.Errorf("lock student: %w", err)
		}
		inv, err = tx.Invitations().GetForUpdate(ctx, invitation.ID)
		if err != nil {
			return fmt.Errorf("get invitation: %w", err)
		}
		if actor.ID != inv.ApproverID() {
			return NewValidationError("approver", "only the approver can respond to this invitation")
		}

		ts := now()
		if err := inv.ApproverRespond(response, reason, ts); err != nil {
			return statusError(err)
		}

		if response == model.PartyStatusRejected {
			if err := tx.Invitations().Update(ctx, inv); err != nil {
				return fmt.Errorf("update invitation: %w", err)
			}
			outbox.add(inv.CosupervisorAcademicianID, notify.EventCosupervisorApproverRejected, *inv)
			outbox.add(inv.InitiatorID(), notify.EventCosupervisorApproverRejected, *inv)
			return nil
		}

		coRel, err = s.addCosupervisor(ctx, tx, student, inv)
		if err != nil {
			return err
		}

		if err := inv.Complete(ts); err != nil {
			return statusError(err)
		}
		if err := tx.Invitations().Update(ctx, inv); err != nil {
			return fmt.Errorf("update invitation: %w", err)
		}

		for _, userID := range []int64{inv.StudentID, inv.MainSupervisorID, inv.CosupervisorAcademicianID} {
			outbox.add(userID, notify.EventCosupervisorAdded, *coRel)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	fields := []zap.Field{
		zap.Int64("invitation_id", inv.ID),
		zap.String("response", string(response)),
	}
	if coRel != nil {
		fields = append(fields, zap.Int64("relationship_id", coRel.ID))
	}
	s.logger.Info("Co-supervisor invitation resolved", fields...)

	outbox.flush(ctx, s.notifier, s.logger)
	return inv, nil
}

// addCosupervisor creates the co relationship and wires the co-supervisor
// into conversations and the workspace. Collaborator failures are logged.
func (s *CosupervisorService) addCosupervisor(
	ctx context.Context,
	tx storage.Store,
	student *model.User,
	inv *model.CoSupervisorInvitation,
) (*model.SupervisionRelationship, error) {
	mainRel, err := tx.Relationships().GetForUpdate(ctx, inv.RelationshipID)
	if err != nil {
		return nil, fmt.Errorf("get main relationship: %w", err)
	}
	if !mainRel.IsActive() || !mainRel.IsMain() {
		return nil, NewValidationError("relationship", "main supervision is no longer active")
	}

	coID := inv.CosupervisorAcademicianID
	// Пока шло согласование, кандидат мог принять заявку студента напрямую
	active, err := tx.Relationships().HasActive(ctx, inv.StudentID, coID)
	if err != nil {
		return nil, fmt.Errorf("check active relationship: %w", err)
	}
	if active {
		return nil, NewValidationError("cosupervisor_academician_id", "this academician already supervises the student")
	}

	ts := now()
	rel := &model.SupervisionRelationship{
		StudentID:     inv.StudentID,
		AcademicianID: coID,
		Role:          model.RelationshipRoleCo,
		Status:        model.RelationshipStatusActive,
		StartDate:     ts,
		AcceptedAt:    &ts,
		CreatedAt:     ts,
		UpdatedAt:     ts,
	}
	if err := tx.Relationships().Create(ctx, rel); err != nil {
		return nil, fmt.Errorf("create co-supervisor relationship: %w", err)
	}

	logFields := []zap.Field{zap.Int64("relationship_id", rel.ID), zap.Int64("cosupervisor_id", coID)}

	direct := attempt("create direct conversation", func() (int64, error) {
		return ensureDirectConversation(ctx, s.messenger, student.ID, coID)
	})
	if logSideEffect(s.logger, direct, logFields...) {
		rel.ConversationID = &direct.Value
	}

	if student.SupervisionGroupConversationID == nil {
		group := attempt("create group conversation", func() (*model.Conversation, error) {
			title := fmt.Sprintf("Supervision: %s", student.DisplayName())
			return s.messenger.CreateGroupConversation(ctx, student.ID, []int64{student.ID, mainRel.AcademicianID, coID}, title)
		})
		if logSideEffect(s.logger, group, logFields...) {
			if err := tx.Users().SetGroupConversation(ctx, student.ID, group.Value.ID); err != nil {
				return nil, fmt.Errorf("set group conversation: %w", err)
			}
			student.SupervisionGroupConversationID = &group.Value.ID
		}
	} else {
		groupID := *student.SupervisionGroupConversationID
		logSideEffect(s.logger, attemptDo("add group participant", func() error {
			return s.messenger.AddParticipant(ctx, groupID, coID)
		}), logFields...)
	}

	if mainRel.HasWorkspace() {
		workspaceID := *mainRel.WorkspaceID
		if logSideEffect(s.logger, attemptDo("attach workspace member", func() error {
			return s.workspaces.AttachWorkspaceMember(ctx, workspaceID, coID, "member")
		}), logFields...) {
			rel.WorkspaceID = &workspaceID
		}
		if mainRel.BoardID != nil {
			boardID := *mainRel.BoardID
			if logSideEffect(s.logger, attemptDo("attach board member", func() error {
				return s.workspaces.AttachBoardMember(ctx, boardID, coID)
			}), logFields...) {
				rel.BoardID = &boardID
			}
		}
	}

	if err := tx.Relationships().Update(ctx, rel); err != nil {
		return nil, fmt.Errorf("update co-supervisor relationship: %w", err)
	}
	return rel, nil
}

// CancelInvitation отзывает приглашение до ответа со-руководителя (только инициатор)
func (s *CosupervisorService) CancelInvitation(ctx context.Context, invitation *model.CoSupervisorInvitation, actor *model.User) (*model.CoSupervisorInvitation, error) {
	var (
		inv    *model.CoSupervisorInvitation
		outbox outbox
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		inv, err = tx.Invitations().GetForUpdate(ctx, invitation.ID)
		if err != nil {
			return fmt.Errorf("get invitation: %w", err)
		}
		if actor.ID != inv.InitiatorID() {
			return NewValidationError("initiator", "only the initiator can cancel the invitation")
		}

		if err := inv.Cancel(now()); err != nil {
			return statusError(err)
		}
		if err := tx.Invitations().Update(ctx, inv); err != nil {
			return fmt.Errorf("update invitation: %w", err)
		}

		outbox.add(inv.CosupervisorAcademicianID, notify.EventCosupervisorCancelled, *inv)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Co-supervisor invitation cancelled", zap.Int64("invitation_id", inv.ID))

	outbox.flush(ctx, s.notifier, s.logger)
	return inv, nil
}

// RemoveCosupervisor завершает связь role=co; очистка чатов и рабочего пространства best-effort
func (s *CosupervisorService) RemoveCosupervisor(ctx context.Context, relationship *model.SupervisionRelationship) (*model.SupervisionRelationship, error) {
	var (
		rel     *model.SupervisionRelationship
		student *model.User
		mainID  int64
	)
	err := s.store.InTx(ctx, func(tx storage.Store) error {
		var err error
		student, err = tx.Users().LockByID(ctx, relationship.StudentID)
		if err != nil {
			return fmt.Errorf("lock student: %w", err)
		}
		rel, err = tx.Relationships().GetForUpdate(ctx, relationship.ID)
		if err != nil {
			return fmt.Errorf("get relationship: %w", err)
		}
		if rel.Role != model.RelationshipRoleCo {
			return NewValidationError("role", "only co-supervisor relationships can be removed this way")
		}

		if err := rel.Terminate(now()); err != nil {
			return statusError(err)
		}
		if err := tx.Relationships().Update(ctx, rel); err != nil {
			return fmt.Errorf("update relationship: %w", err)
		}

		mainRel, err := tx.Relationships().GetActiveMain(ctx, rel.StudentID)
		switch {
		case err == nil:
			mainID = mainRel.AcademicianID
		case !storage.IsNotFound(err):
			return fmt.Errorf("get main relationship: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logFields := []zap.Field{zap.Int64("relationship_id", rel.ID), zap.Int64("cosupervisor_id", rel.AcademicianID)}

	if student.SupervisionGroupConversationID != nil {
		groupID := *student.SupervisionGroupConversationID
		logSideEffect(s.logger, attemptDo("remove group participant", func() error {
			return s.messenger.RemoveParticipant(ctx, groupID, rel.AcademicianID)
		}), logFields...)
	}
	if rel.BoardID != nil {
		boardID := *rel.BoardID
		logSideEffect(s.logger, attemptDo("detach board member", func() error {
			return s.workspaces.DetachBoardMember(ctx, boardID, rel.AcademicianID)
		}), logFields...)
	}
	if rel.WorkspaceID != nil {
		workspaceID := *rel.WorkspaceID
		logSideEffect(s.logger, attemptDo("detach workspace member", func() error {
			return s.workspaces.DetachWorkspaceMember(ctx, workspaceID, rel.AcademicianID)
		}), logFields...)
	}

	s.logger.Info("Co-supervisor removed", logFields...)

	var outbox outbox
	recipients := []int64{rel.StudentID, rel.AcademicianID}
	if mainID != 0 {
		recipients = append(recipients, mainID)
	}
	for _, userID := range recipients {
		outbox.add(userID, notify.EventCosupervisorRemoved, *rel)
	}
	outbox.flush(ctx, s.notifier, s.logger)
	return rel, nil
}
