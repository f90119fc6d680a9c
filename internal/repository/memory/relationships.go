package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/Freeeeeet/supervision/internal/model"
)

type relationshipRepository struct{ s *Store }

func (r *relationshipRepository) Create(_ context.Context, rel *model.SupervisionRelationship) error {
	defer r.s.lock()()

	t := r.s.db.data
	if rel.Status == model.RelationshipStatusActive {
		for _, other := range t.relationships {
			if other.StudentID == rel.StudentID && other.AcademicianID == rel.AcademicianID && other.IsActive() {
				return fmt.Errorf("create relationship: %w", ErrUniqueViolation)
			}
		}
	}
	if rel.Role == model.RelationshipRoleMain && rel.Status == model.RelationshipStatusActive {
		for _, other := range t.relationships {
			if other.StudentID == rel.StudentID && other.IsMain() && other.IsActive() {
				return fmt.Errorf("create relationship: %w", ErrUniqueViolation)
			}
		}
	}

	rel.ID = t.nextID()
	t.relationships[rel.ID] = *rel
	return nil
}

func (r *relationshipRepository) GetByID(_ context.Context, id int64) (*model.SupervisionRelationship, error) {
	defer r.s.lock()()

	rel, ok := r.s.db.data.relationships[id]
	if !ok {
		return nil, notFound("relationship", id)
	}
	return &rel, nil
}

func (r *relationshipRepository) GetForUpdate(ctx context.Context, id int64) (*model.SupervisionRelationship, error) {
	return r.GetByID(ctx, id)
}

func (r *relationshipRepository) GetActiveMain(_ context.Context, studentID int64) (*model.SupervisionRelationship, error) {
	defer r.s.lock()()

	for _, rel := range r.s.db.data.relationships {
		if rel.StudentID == studentID && rel.IsMain() && rel.IsActive() {
			return &rel, nil
		}
	}
	return nil, notFound("active main relationship for student", studentID)
}

func (r *relationshipRepository) ListActiveByStudentRole(_ context.Context, studentID int64, role model.RelationshipRole) ([]*model.SupervisionRelationship, error) {
	defer r.s.lock()()

	var out []*model.SupervisionRelationship
	for _, rel := range r.s.db.data.relationships {
		if rel.StudentID == studentID && rel.Role == role && rel.IsActive() {
			out = append(out, &rel)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *relationshipRepository) HasActive(_ context.Context, studentID, academicianID int64) (bool, error) {
	defer r.s.lock()()

	for _, rel := range r.s.db.data.relationships {
		if rel.StudentID == studentID && rel.AcademicianID == academicianID && rel.IsActive() {
			return true, nil
		}
	}
	return false, nil
}

func (r *relationshipRepository) Update(_ context.Context, rel *model.SupervisionRelationship) error {
	defer r.s.lock()()

	t := r.s.db.data
	if _, ok := t.relationships[rel.ID]; !ok {
		return notFound("relationship", rel.ID)
	}
	t.relationships[rel.ID] = *rel
	return nil
}

type onboardingRepository struct{ s *Store }

func (r *onboardingRepository) Create(_ context.Context, item *model.OnboardingChecklistItem) error {
	defer r.s.lock()()

	t := r.s.db.data
	item.ID = t.nextID()
	t.onboarding[item.ID] = *item
	return nil
}

func (r *onboardingRepository) ListByRelationship(_ context.Context, relationshipID int64) ([]*model.OnboardingChecklistItem, error) {
	defer r.s.lock()()

	var out []*model.OnboardingChecklistItem
	for _, item := range r.s.db.data.onboarding {
		if item.RelationshipID == relationshipID {
			out = append(out, &item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SortOrder < out[j].SortOrder })
	return out, nil
}
