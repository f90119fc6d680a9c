// Package memory is an in-process storage.Store. A transaction holds the
// store mutex for its whole duration and restores a snapshot on error.
package memory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"sync"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/storage"
)

// ErrUniqueViolation mirrors the partial unique indexes of the SQL schema.
var ErrUniqueViolation = errors.New("unique constraint violated")

type tables struct {
	seq           int64
	users         map[int64]model.User
	shortlists    map[int64]model.ShortlistEntry
	requests      map[int64]model.SupervisionRequest
	attachments   map[int64]model.RequestAttachment
	relationships map[int64]model.SupervisionRelationship
	onboarding    map[int64]model.OnboardingChecklistItem
	invitations   map[int64]model.CoSupervisorInvitation
	unbinds       map[int64]model.UnbindRequest
	meetings      map[int64]model.SupervisionMeeting
	abstracts     map[int64]model.SupervisionRequestAbstract // keyed by request id
	connections   map[int64]model.Connection
}

func newTables() *tables {
	return &tables{
		users:         map[int64]model.User{},
		shortlists:    map[int64]model.ShortlistEntry{},
		requests:      map[int64]model.SupervisionRequest{},
		attachments:   map[int64]model.RequestAttachment{},
		relationships: map[int64]model.SupervisionRelationship{},
		onboarding:    map[int64]model.OnboardingChecklistItem{},
		invitations:   map[int64]model.CoSupervisorInvitation{},
		unbinds:       map[int64]model.UnbindRequest{},
		meetings:      map[int64]model.SupervisionMeeting{},
		abstracts:     map[int64]model.SupervisionRequestAbstract{},
		connections:   map[int64]model.Connection{},
	}
}

func (t *tables) clone() *tables {
	return &tables{
		seq:           t.seq,
		users:         maps.Clone(t.users),
		shortlists:    maps.Clone(t.shortlists),
		requests:      maps.Clone(t.requests),
		attachments:   maps.Clone(t.attachments),
		relationships: maps.Clone(t.relationships),
		onboarding:    maps.Clone(t.onboarding),
		invitations:   maps.Clone(t.invitations),
		unbinds:       maps.Clone(t.unbinds),
		meetings:      maps.Clone(t.meetings),
		abstracts:     maps.Clone(t.abstracts),
		connections:   maps.Clone(t.connections),
	}
}

func (t *tables) nextID() int64 {
	t.seq++
	return t.seq
}

type db struct {
	mu   sync.Mutex
	data *tables
}

// Store implements storage.Store in memory.
type Store struct {
	db   *db
	inTx bool
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{db: &db{data: newTables()}}
}

// lock takes the store mutex unless the call runs inside InTx, which
// already holds it.
func (s *Store) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.db.mu.Lock()
	return s.db.mu.Unlock
}

func (s *Store) InTx(ctx context.Context, fn func(tx storage.Store) error) error {
	if s.inTx {
		return fn(s)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.db.mu.Lock()
	defer s.db.mu.Unlock()

	snapshot := s.db.data.clone()
	if err := fn(&Store{db: s.db, inTx: true}); err != nil {
		s.db.data = snapshot
		return err
	}
	return nil
}

// AddUser inserts a user; a zero ID is assigned from the sequence.
func (s *Store) AddUser(u model.User) model.User {
	defer s.lock()()

	if u.ID == 0 {
		u.ID = s.db.data.nextID()
	} else if u.ID > s.db.data.seq {
		s.db.data.seq = u.ID
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.db.data.users[u.ID] = u
	return u
}

func (s *Store) Users() storage.UserRepository                 { return &userRepository{s} }
func (s *Store) Shortlists() storage.ShortlistRepository       { return &shortlistRepository{s} }
func (s *Store) Requests() storage.RequestRepository           { return &requestRepository{s} }
func (s *Store) Relationships() storage.RelationshipRepository { return &relationshipRepository{s} }
func (s *Store) Onboarding() storage.OnboardingRepository      { return &onboardingRepository{s} }
func (s *Store) Invitations() storage.InvitationRepository     { return &invitationRepository{s} }
func (s *Store) Unbinds() storage.UnbindRepository             { return &unbindRepository{s} }
func (s *Store) Meetings() storage.MeetingRepository           { return &meetingRepository{s} }
func (s *Store) Abstracts() storage.AbstractRepository         { return &abstractRepository{s} }
func (s *Store) Connections() storage.ConnectionRepository     { return &connectionRepository{s} }

func notFound(entity string, id int64) error {
	return fmt.Errorf("%s %d: %w", entity, id, storage.ErrNotFound)
}

func hasStatus[S comparable](s S, statuses []S) bool {
	for _, st := range statuses {
		if s == st {
			return true
		}
	}
	return false
}
