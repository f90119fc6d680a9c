package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
)

type requestRepository struct{ s *Store }

func (r *requestRepository) Create(_ context.Context, req *model.SupervisionRequest) error {
	defer r.s.lock()()

	t := r.s.db.data
	for _, other := range t.requests {
		if other.StudentID == req.StudentID && other.AcademicianID == req.AcademicianID &&
			hasStatus(other.Status, model.ResubmissionBlockingStatuses) {
			return fmt.Errorf("create request: %w", ErrUniqueViolation)
		}
	}

	req.ID = t.nextID()
	stored := *req
	stored.Attachments = nil
	t.requests[req.ID] = stored
	return nil
}

func (r *requestRepository) GetByID(_ context.Context, id int64) (*model.SupervisionRequest, error) {
	defer r.s.lock()()

	req, ok := r.s.db.data.requests[id]
	if !ok {
		return nil, notFound("request", id)
	}
	return &req, nil
}

func (r *requestRepository) GetForUpdate(ctx context.Context, id int64) (*model.SupervisionRequest, error) {
	return r.GetByID(ctx, id)
}

func (r *requestRepository) CountByStudentStatuses(_ context.Context, studentID int64, statuses []model.RequestStatus) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, req := range r.s.db.data.requests {
		if req.StudentID == studentID && hasStatus(req.Status, statuses) {
			n++
		}
	}
	return n, nil
}

func (r *requestRepository) ExistsBetween(_ context.Context, studentID, academicianID int64, statuses []model.RequestStatus) (bool, error) {
	defer r.s.lock()()

	for _, req := range r.s.db.data.requests {
		if req.StudentID == studentID && req.AcademicianID == academicianID && hasStatus(req.Status, statuses) {
			return true, nil
		}
	}
	return false, nil
}

func (r *requestRepository) ListByStudentStatus(_ context.Context, studentID int64, status model.RequestStatus, excludeID int64) ([]*model.SupervisionRequest, error) {
	defer r.s.lock()()

	var out []*model.SupervisionRequest
	for _, req := range r.s.db.data.requests {
		if req.StudentID == studentID && req.Status == status && req.ID != excludeID {
			out = append(out, &req)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *requestRepository) Update(_ context.Context, req *model.SupervisionRequest) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.requests[req.ID]; !ok {
		return notFound("request", req.ID)
	}
	stored := *req
	stored.Attachments = nil
	t.requests[req.ID] = stored
	return nil
}

func (r *requestRepository) AddAttachment(_ context.Context, att *model.RequestAttachment) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.requests[att.RequestID]; !ok {
		return notFound("request", att.RequestID)
	}
	att.ID = t.nextID()
	if att.CreatedAt.IsZero() {
		att.CreatedAt = time.Now().UTC()
	}
	t.attachments[att.ID] = *att
	return nil
}

func (r *requestRepository) ListAttachments(_ context.Context, requestID int64) ([]model.RequestAttachment, error) {
	defer r.s.lock()()

	var out []model.RequestAttachment
	for _, att := range r.s.db.data.attachments {
		if att.RequestID == requestID {
			out = append(out, att)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
