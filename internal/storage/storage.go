// Package storage declares the persistence contract of the supervision engine.
// Implementations live in internal/repository (PostgreSQL) and
// internal/repository/memory.
package storage

import (
	"context"
	"errors"

	"github.com/Freeeeeet/supervision/internal/model"
)

// ErrNotFound is returned by Get* lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Store groups the repositories and runs transactions across them.
type Store interface {
	Users() UserRepository
	Shortlists() ShortlistRepository
	Requests() RequestRepository
	Relationships() RelationshipRepository
	Onboarding() OnboardingRepository
	Invitations() InvitationRepository
	Unbinds() UnbindRepository
	Meetings() MeetingRepository
	Abstracts() AbstractRepository
	Connections() ConnectionRepository

	// InTx runs fn in one transaction. A non-nil error from fn rolls back
	// every write made through tx. Calling InTx on a transactional Store
	// reuses the running transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*model.User, error)
	// LockByID takes a row lock on the user for the rest of the transaction.
	LockByID(ctx context.Context, id int64) (*model.User, error)
	SetGroupConversation(ctx context.Context, userID, conversationID int64) error
}

type ShortlistRepository interface {
	Get(ctx context.Context, studentID, academicianID int64) (*model.ShortlistEntry, error)
	Create(ctx context.Context, entry *model.ShortlistEntry) error
	CountByStudent(ctx context.Context, studentID int64) (int, error)
	ListByStudent(ctx context.Context, studentID int64) ([]*model.ShortlistEntry, error)
	Delete(ctx context.Context, studentID, academicianID int64) error
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.SupervisionRequest) error
	GetByID(ctx context.Context, id int64) (*model.SupervisionRequest, error)
	GetForUpdate(ctx context.Context, id int64) (*model.SupervisionRequest, error)
	CountByStudentStatuses(ctx context.Context, studentID int64, statuses []model.RequestStatus) (int, error)
	ExistsBetween(ctx context.Context, studentID, academicianID int64, statuses []model.RequestStatus) (bool, error)
	ListByStudentStatus(ctx context.Context, studentID int64, status model.RequestStatus, excludeID int64) ([]*model.SupervisionRequest, error)
	Update(ctx context.Context, req *model.SupervisionRequest) error
	AddAttachment(ctx context.Context, att *model.RequestAttachment) error
	ListAttachments(ctx context.Context, requestID int64) ([]model.RequestAttachment, error)
}

type RelationshipRepository interface {
	Create(ctx context.Context, rel *model.SupervisionRelationship) error
	GetByID(ctx context.Context, id int64) (*model.SupervisionRelationship, error)
	GetForUpdate(ctx context.Context, id int64) (*model.SupervisionRelationship, error)
	// GetActiveMain returns ErrNotFound when the student has no active main supervisor.
	GetActiveMain(ctx context.Context, studentID int64) (*model.SupervisionRelationship, error)
	ListActiveByStudentRole(ctx context.Context, studentID int64, role model.RelationshipRole) ([]*model.SupervisionRelationship, error)
	HasActive(ctx context.Context, studentID, academicianID int64) (bool, error)
	Update(ctx context.Context, rel *model.SupervisionRelationship) error
}

type OnboardingRepository interface {
	Create(ctx context.Context, item *model.OnboardingChecklistItem) error
	ListByRelationship(ctx context.Context, relationshipID int64) ([]*model.OnboardingChecklistItem, error)
}

type InvitationRepository interface {
	Create(ctx context.Context, inv *model.CoSupervisorInvitation) error
	GetByID(ctx context.Context, id int64) (*model.CoSupervisorInvitation, error)
	GetForUpdate(ctx context.Context, id int64) (*model.CoSupervisorInvitation, error)
	// CountInFlightByStudent counts invitations awaiting the co-supervisor or the approver.
	CountInFlightByStudent(ctx context.Context, studentID int64) (int, error)
	HasInFlight(ctx context.Context, relationshipID, candidateID int64) (bool, error)
	Update(ctx context.Context, inv *model.CoSupervisorInvitation) error
}

type UnbindRepository interface {
	Create(ctx context.Context, ub *model.UnbindRequest) error
	GetByID(ctx context.Context, id int64) (*model.UnbindRequest, error)
	GetForUpdate(ctx context.Context, id int64) (*model.UnbindRequest, error)
	// GetPending returns the newest pending request for the relationship, or ErrNotFound.
	GetPending(ctx context.Context, relationshipID int64) (*model.UnbindRequest, error)
	// LatestRejected returns the newest rejected request from initiator, or ErrNotFound.
	LatestRejected(ctx context.Context, relationshipID int64, initiator model.UnbindInitiator) (*model.UnbindRequest, error)
	CountRejected(ctx context.Context, relationshipID int64, initiator model.UnbindInitiator) (int, error)
	Update(ctx context.Context, ub *model.UnbindRequest) error
	Delete(ctx context.Context, id int64) error
}

type MeetingRepository interface {
	Create(ctx context.Context, m *model.SupervisionMeeting) error
	GetByID(ctx context.Context, id int64) (*model.SupervisionMeeting, error)
	GetForUpdate(ctx context.Context, id int64) (*model.SupervisionMeeting, error)
	Update(ctx context.Context, m *model.SupervisionMeeting) error
	Delete(ctx context.Context, id int64) error
}

type AbstractRepository interface {
	GetByRequest(ctx context.Context, requestID int64) (*model.SupervisionRequestAbstract, error)
	// Upsert keeps a single row per request.
	Upsert(ctx context.Context, abs *model.SupervisionRequestAbstract) error
}

type ConnectionRepository interface {
	// EnsureAccepted finds the link between a and b in either direction and
	// makes it accepted, creating it when absent.
	EnsureAccepted(ctx context.Context, a, b int64) (*model.Connection, error)
}

// IsNotFound reports whether err is ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
