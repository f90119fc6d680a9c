package memory

import (
	"context"

	"github.com/Freeeeeet/supervision/internal/model"
)

type unbindRepository struct{ s *Store }

func (r *unbindRepository) Create(_ context.Context, ub *model.UnbindRequest) error {
	defer r.s.lock()()

	t := r.s.db.data
	ub.ID = t.nextID()
	t.unbinds[ub.ID] = *ub
	return nil
}

func (r *unbindRepository) GetByID(_ context.Context, id int64) (*model.UnbindRequest, error) {
	defer r.s.lock()()

	ub, ok := r.s.db.data.unbinds[id]
	if !ok {
		return nil, notFound("unbind request", id)
	}
	return &ub, nil
}

func (r *unbindRepository) GetForUpdate(ctx context.Context, id int64) (*model.UnbindRequest, error) {
	return r.GetByID(ctx, id)
}

// newest picks the latest matching row by ts, ties broken by id.
func (r *unbindRepository) newest(match func(model.UnbindRequest) bool, ts func(model.UnbindRequest) int64) *model.UnbindRequest {
	var best *model.UnbindRequest
	for _, ub := range r.s.db.data.unbinds {
		if !match(ub) {
			continue
		}
		if best == nil || ts(ub) > ts(*best) || (ts(ub) == ts(*best) && ub.ID > best.ID) {
			best = &ub
		}
	}
	return best
}

func (r *unbindRepository) GetPending(_ context.Context, relationshipID int64) (*model.UnbindRequest, error) {
	defer r.s.lock()()

	ub := r.newest(
		func(u model.UnbindRequest) bool { return u.RelationshipID == relationshipID && u.IsPending() },
		func(u model.UnbindRequest) int64 { return u.CreatedAt.UnixNano() },
	)
	if ub == nil {
		return nil, notFound("pending unbind request for relationship", relationshipID)
	}
	return ub, nil
}

func (r *unbindRepository) LatestRejected(_ context.Context, relationshipID int64, initiator model.UnbindInitiator) (*model.UnbindRequest, error) {
	defer r.s.lock()()

	ub := r.newest(
		func(u model.UnbindRequest) bool {
			return u.RelationshipID == relationshipID && u.InitiatedBy == initiator && u.Status == model.UnbindStatusRejected
		},
		func(u model.UnbindRequest) int64 { return u.UpdatedAt.UnixNano() },
	)
	if ub == nil {
		return nil, notFound("rejected unbind request for relationship", relationshipID)
	}
	return ub, nil
}

func (r *unbindRepository) CountRejected(_ context.Context, relationshipID int64, initiator model.UnbindInitiator) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, ub := range r.s.db.data.unbinds {
		if ub.RelationshipID == relationshipID && ub.InitiatedBy == initiator && ub.Status == model.UnbindStatusRejected {
			n++
		}
	}
	return n, nil
}

func (r *unbindRepository) Update(_ context.Context, ub *model.UnbindRequest) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.unbinds[ub.ID]; !ok {
		return notFound("unbind request", ub.ID)
	}
	t.unbinds[ub.ID] = *ub
	return nil
}

func (r *unbindRepository) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.unbinds[id]; !ok {
		return notFound("unbind request", id)
	}
	delete(t.unbinds, id)
	return nil
}
