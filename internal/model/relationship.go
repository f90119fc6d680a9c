package model

import "time"

type RelationshipRole string

const (
	RelationshipRoleMain RelationshipRole = "main"
	RelationshipRoleCo   RelationshipRole = "co"
)

// Valid reports whether the role is known
func (r RelationshipRole) Valid() bool {
	return r == RelationshipRoleMain || r == RelationshipRoleCo
}

type RelationshipStatus string

const (
	RelationshipStatusActive     RelationshipStatus = "active"
	RelationshipStatusTerminated RelationshipStatus = "terminated"
)

// CanTransitionTo checks the relationship transition table: active -> terminated only.
func (s RelationshipStatus) CanTransitionTo(next RelationshipStatus) bool {
	return s == RelationshipStatusActive && next == RelationshipStatusTerminated
}

// MaxCosupervisors caps active co-supervisors plus in-flight invitations per student.
const MaxCosupervisors = 2

// SupervisionRelationship binds a student to a supervisor
type SupervisionRelationship struct {
	ID             int64              `json:"id"`
	StudentID      int64              `json:"student_id"`
	AcademicianID  int64              `json:"academician_id"`
	Role           RelationshipRole   `json:"role"`
	Status         RelationshipStatus `json:"status"`
	StartDate      time.Time          `json:"start_date"`
	AcceptedAt     *time.Time         `json:"accepted_at"`
	TerminatedAt   *time.Time         `json:"terminated_at"`
	Cohort         string             `json:"cohort"`
	MeetingCadence string             `json:"meeting_cadence"`
	ConversationID *int64             `json:"conversation_id"`
	WorkspaceID    *int64             `json:"scholarlab_workspace_id"`
	BoardID        *int64             `json:"scholarlab_board_id"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// IsActive checks if the relationship is active
func (r *SupervisionRelationship) IsActive() bool {
	return r.Status == RelationshipStatusActive
}

// IsMain checks if this is the main supervision
func (r *SupervisionRelationship) IsMain() bool {
	return r.Role == RelationshipRoleMain
}

// HasParty reports whether the user is the student or the supervisor
func (r *SupervisionRelationship) HasParty(userID int64) bool {
	return r.StudentID == userID || r.AcademicianID == userID
}

// Counterparty returns the other side of the relationship for a party id
func (r *SupervisionRelationship) Counterparty(userID int64) int64 {
	if userID == r.StudentID {
		return r.AcademicianID
	}
	return r.StudentID
}

// HasWorkspace reports whether a ScholarLab workspace was provisioned
func (r *SupervisionRelationship) HasWorkspace() bool {
	return r.WorkspaceID != nil
}

// Terminate ends the relationship in place.
func (r *SupervisionRelationship) Terminate(now time.Time) error {
	if !r.Status.CanTransitionTo(RelationshipStatusTerminated) {
		return &TransitionError{
			Entity: "supervision relationship",
			From:   string(r.Status),
			To:     string(RelationshipStatusTerminated),
		}
	}
	r.Status = RelationshipStatusTerminated
	r.TerminatedAt = &now
	r.UpdatedAt = now
	return nil
}

// OnboardingChecklistItem is a task seeded when a student accepts an offer
type OnboardingChecklistItem struct {
	ID             int64      `json:"id"`
	RelationshipID int64      `json:"relationship_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	SortOrder      int        `json:"sort_order"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedAt      time.Time  `json:"created_at"`
}
