package memory

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/supervision/internal/model"
)

type invitationRepository struct{ s *Store }

func (r *invitationRepository) Create(_ context.Context, inv *model.CoSupervisorInvitation) error {
	defer r.s.lock()()

	t := r.s.db.data
	for _, other := range t.invitations {
		if other.RelationshipID == inv.RelationshipID &&
			other.CosupervisorAcademicianID == inv.CosupervisorAcademicianID && other.State().InFlight() {
			return fmt.Errorf("create invitation: %w", ErrUniqueViolation)
		}
	}

	inv.ID = t.nextID()
	t.invitations[inv.ID] = *inv
	return nil
}

func (r *invitationRepository) GetByID(_ context.Context, id int64) (*model.CoSupervisorInvitation, error) {
	defer r.s.lock()()

	inv, ok := r.s.db.data.invitations[id]
	if !ok {
		return nil, notFound("invitation", id)
	}
	return &inv, nil
}

func (r *invitationRepository) GetForUpdate(ctx context.Context, id int64) (*model.CoSupervisorInvitation, error) {
	return r.GetByID(ctx, id)
}

func (r *invitationRepository) CountInFlightByStudent(_ context.Context, studentID int64) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, inv := range r.s.db.data.invitations {
		if inv.StudentID == studentID && inv.State().InFlight() {
			n++
		}
	}
	return n, nil
}

func (r *invitationRepository) HasInFlight(_ context.Context, relationshipID, candidateID int64) (bool, error) {
	defer r.s.lock()()

	for _, inv := range r.s.db.data.invitations {
		if inv.RelationshipID == relationshipID && inv.CosupervisorAcademicianID == candidateID && inv.State().InFlight() {
			return true, nil
		}
	}
	return false, nil
}

func (r *invitationRepository) Update(_ context.Context, inv *model.CoSupervisorInvitation) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.invitations[inv.ID]; !ok {
		return notFound("invitation", inv.ID)
	}
	t.invitations[inv.ID] = *inv
	return nil
}
