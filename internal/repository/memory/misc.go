package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
)

type shortlistRepository struct{ s *Store }

func (r *shortlistRepository) Get(_ context.Context, studentID, academicianID int64) (*model.ShortlistEntry, error) {
	defer r.s.lock()()

	for _, e := range r.s.db.data.shortlists {
		if e.StudentID == studentID && e.AcademicianID == academicianID {
			return &e, nil
		}
	}
	return nil, notFound("shortlist entry for student", studentID)
}

func (r *shortlistRepository) Create(_ context.Context, entry *model.ShortlistEntry) error {
	defer r.s.lock()()

	t := r.s.db.data
	for _, e := range t.shortlists {
		if e.StudentID == entry.StudentID && e.AcademicianID == entry.AcademicianID {
			return fmt.Errorf("create shortlist entry: %w", ErrUniqueViolation)
		}
	}
	entry.ID = t.nextID()
	t.shortlists[entry.ID] = *entry
	return nil
}

func (r *shortlistRepository) CountByStudent(_ context.Context, studentID int64) (int, error) {
	defer r.s.lock()()

	n := 0
	for _, e := range r.s.db.data.shortlists {
		if e.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (r *shortlistRepository) ListByStudent(_ context.Context, studentID int64) ([]*model.ShortlistEntry, error) {
	defer r.s.lock()()

	var out []*model.ShortlistEntry
	for _, e := range r.s.db.data.shortlists {
		if e.StudentID == studentID {
			out = append(out, &e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *shortlistRepository) Delete(_ context.Context, studentID, academicianID int64) error {
	defer r.s.lock()()

	t := r.s.db.data
	for id, e := range t.shortlists {
		if e.StudentID == studentID && e.AcademicianID == academicianID {
			delete(t.shortlists, id)
		}
	}
	return nil
}

type abstractRepository struct{ s *Store }

func (r *abstractRepository) GetByRequest(_ context.Context, requestID int64) (*model.SupervisionRequestAbstract, error) {
	defer r.s.lock()()

	a, ok := r.s.db.data.abstracts[requestID]
	if !ok {
		return nil, notFound("abstract for request", requestID)
	}
	return &a, nil
}

func (r *abstractRepository) Upsert(_ context.Context, abs *model.SupervisionRequestAbstract) error {
	defer r.s.lock()()

	t := r.s.db.data
	if prev, ok := t.abstracts[abs.RequestID]; ok {
		abs.ID = prev.ID
		abs.CreatedAt = prev.CreatedAt
	} else {
		abs.ID = t.nextID()
		abs.CreatedAt = abs.UpdatedAt
	}
	t.abstracts[abs.RequestID] = *abs
	return nil
}

type connectionRepository struct{ s *Store }

func (r *connectionRepository) EnsureAccepted(_ context.Context, a, b int64) (*model.Connection, error) {
	defer r.s.lock()()

	t := r.s.db.data
	ts := time.Now().UTC()
	for id, c := range t.connections {
		if (c.RequesterID == a && c.AddresseeID == b) || (c.RequesterID == b && c.AddresseeID == a) {
			if c.Status != model.ConnectionStatusAccepted {
				c.Status = model.ConnectionStatusAccepted
				c.UpdatedAt = ts
				t.connections[id] = c
			}
			return &c, nil
		}
	}

	c := model.Connection{
		ID:          t.nextID(),
		RequesterID: a,
		AddresseeID: b,
		Status:      model.ConnectionStatusAccepted,
		CreatedAt:   ts,
		UpdatedAt:   ts,
	}
	t.connections[c.ID] = c
	return &c, nil
}

// AddConnection seeds a link in any state.
func (s *Store) AddConnection(c model.Connection) model.Connection {
	defer s.lock()()

	c.ID = s.db.data.nextID()
	s.db.data.connections[c.ID] = c
	return c
}

// Connection returns the link between a and b in either direction.
func (s *Store) Connection(a, b int64) (model.Connection, bool) {
	defer s.lock()()

	for _, c := range s.db.data.connections {
		if (c.RequesterID == a && c.AddresseeID == b) || (c.RequesterID == b && c.AddresseeID == a) {
			return c, true
		}
	}
	return model.Connection{}, false
}
