package memory

import (
	"context"
	"slices"

	"github.com/Freeeeeet/supervision/internal/model"
)

type meetingRepository struct{ s *Store }

func copyMeeting(m model.SupervisionMeeting) model.SupervisionMeeting {
	m.Attachments = slices.Clone(m.Attachments)
	return m
}

func (r *meetingRepository) Create(_ context.Context, m *model.SupervisionMeeting) error {
	defer r.s.lock()()

	t := r.s.db.data
	m.ID = t.nextID()
	t.meetings[m.ID] = copyMeeting(*m)
	return nil
}

func (r *meetingRepository) GetByID(_ context.Context, id int64) (*model.SupervisionMeeting, error) {
	defer r.s.lock()()

	m, ok := r.s.db.data.meetings[id]
	if !ok {
		return nil, notFound("meeting", id)
	}
	m = copyMeeting(m)
	return &m, nil
}

func (r *meetingRepository) GetForUpdate(ctx context.Context, id int64) (*model.SupervisionMeeting, error) {
	return r.GetByID(ctx, id)
}

func (r *meetingRepository) Update(_ context.Context, m *model.SupervisionMeeting) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.meetings[m.ID]; !ok {
		return notFound("meeting", m.ID)
	}
	t.meetings[m.ID] = copyMeeting(*m)
	return nil
}

func (r *meetingRepository) Delete(_ context.Context, id int64) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.meetings[id]; !ok {
		return notFound("meeting", id)
	}
	delete(t.meetings, id)
	return nil
}
