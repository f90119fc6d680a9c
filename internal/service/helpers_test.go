package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Freeeeeet/supervision/internal/filestore"
	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/repository/memory"
	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type sent struct {
	userID int64
	event  notify.Event
}

// recorder is a notify.Notifier that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []sent
}

func (r *recorder) Notify(_ context.Context, userID int64, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, sent{userID: userID, event: ev})
	return nil
}

// to returns the event types delivered to a user, in order
func (r *recorder) to(userID int64) []notify.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []notify.EventType
	for _, s := range r.events {
		if s.userID == userID {
			out = append(out, s.event.Type)
		}
	}
	return out
}

func (r *recorder) last(typ notify.EventType) (sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].event.Type == typ {
			return r.events[i], true
		}
	}
	return sent{}, false
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

var errCollaborator = errors.New("collaborator unavailable")

// flakyMessenger fails the named operations.
type flakyMessenger struct {
	*memory.Messenger
	fail map[string]bool
}

func (m *flakyMessenger) CreateDirectConversation(ctx context.Context, a, b int64) (*model.Conversation, error) {
	if m.fail["direct"] {
		return nil, errCollaborator
	}
	return m.Messenger.CreateDirectConversation(ctx, a, b)
}

func (m *flakyMessenger) CreateGroupConversation(ctx context.Context, owner int64, members []int64, title string) (*model.Conversation, error) {
	if m.fail["group"] {
		return nil, errCollaborator
	}
	return m.Messenger.CreateGroupConversation(ctx, owner, members, title)
}

func (m *flakyMessenger) RemoveParticipant(ctx context.Context, conversationID, userID int64) error {
	if m.fail["remove"] {
		return errCollaborator
	}
	return m.Messenger.RemoveParticipant(ctx, conversationID, userID)
}

// flakyWorkspaces fails the named operations.
type flakyWorkspaces struct {
	*memory.Workspaces
	fail map[string]bool
}

func (w *flakyWorkspaces) AttachWorkspaceMember(ctx context.Context, workspaceID, userID int64, role string) error {
	if w.fail["attach"] {
		return errCollaborator
	}
	return w.Workspaces.AttachWorkspaceMember(ctx, workspaceID, userID, role)
}

func (w *flakyWorkspaces) DetachBoardMember(ctx context.Context, boardID, userID int64) error {
	if w.fail["detach"] {
		return errCollaborator
	}
	return w.Workspaces.DetachBoardMember(ctx, boardID, userID)
}

func (w *flakyWorkspaces) CreateBoard(ctx context.Context, workspaceID int64, name string, creatorID int64) (*model.Board, error) {
	if w.fail["board"] {
		return nil, errCollaborator
	}
	return w.Workspaces.CreateBoard(ctx, workspaceID, name, creatorID)
}

// brokenFiles is a FileStore whose writes always fail.
type brokenFiles struct{}

func (brokenFiles) Put(context.Context, string, string, io.Reader) (model.StoredFile, error) {
	return model.StoredFile{}, errors.New("disk full")
}

func (brokenFiles) Open(context.Context, string) (io.ReadCloser, error) {
	return nil, errors.New("disk full")
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type env struct {
	ctx        context.Context
	store      *memory.Store
	messenger  *flakyMessenger
	workspaces *flakyWorkspaces
	files      *filestore.Disk
	notes      *recorder
	clock      *clock
	terminated []model.SupervisionRelationship

	shortlists   *service.ShortlistService
	requests     *service.RequestService
	activation   *service.ActivationService
	cosupervisor *service.CosupervisorService
	meetings     *service.MeetingService
	unbinds      *service.UnbindService
	abstracts    *service.AbstractService
}

func newEnv(t *testing.T) *env {
	t.Helper()

	logger := zaptest.NewLogger(t)
	files, err := filestore.NewDisk(t.TempDir())
	require.NoError(t, err)
	tpl, err := service.DefaultScholarLabTemplate()
	require.NoError(t, err)

	e := &env{
		ctx:        context.Background(),
		store:      memory.New(),
		messenger:  &flakyMessenger{Messenger: memory.NewMessenger(), fail: map[string]bool{}},
		workspaces: &flakyWorkspaces{Workspaces: memory.NewWorkspaces(), fail: map[string]bool{}},
		files:      files,
		notes:      &recorder{},
		clock:      &clock{now: time.Date(2025, 9, 1, 9, 0, 0, 0, time.UTC)},
	}
	t.Cleanup(service.SetNow(e.clock.Now))

	e.shortlists = service.NewShortlistService(e.store, logger)
	e.requests = service.NewRequestService(e.store, e.messenger, e.files, e.shortlists, e.notes, logger)
	e.activation = service.NewActivationService(e.store, e.workspaces, tpl, e.notes, logger)
	e.cosupervisor = service.NewCosupervisorService(e.store, e.messenger, e.workspaces, e.notes, logger)
	e.meetings = service.NewMeetingService(e.store, e.notes, logger)
	e.unbinds = service.NewUnbindService(e.store, e.notes, logger, func(_ context.Context, rel model.SupervisionRelationship) error {
		e.terminated = append(e.terminated, rel)
		return nil
	})
	e.abstracts = service.NewAbstractService(e.store, e.files, logger)
	return e
}

func (e *env) user(name string) *model.User {
	u := e.store.AddUser(model.User{FullName: name})
	return &u
}

// refreshed re-reads a user from the store
func (e *env) refreshed(t *testing.T, u *model.User) *model.User {
	t.Helper()
	got, err := e.store.Users().GetByID(e.ctx, u.ID)
	require.NoError(t, err)
	return got
}

func (e *env) submit(t *testing.T, student, academician *model.User, title string) *model.SupervisionRequest {
	t.Helper()
	req, err := e.requests.SubmitRequest(e.ctx, student, academician, service.SubmitRequestInput{
		ProposalTitle: title,
		Motivation:    "I would like to work with you.",
	})
	require.NoError(t, err)
	e.clock.Advance(time.Minute)
	return req
}

func (e *env) acceptMain(t *testing.T, req *model.SupervisionRequest) *model.SupervisionRelationship {
	t.Helper()
	rel, err := e.activation.AcceptRequest(e.ctx, req, service.AcceptInput{Role: model.RelationshipRoleMain})
	require.NoError(t, err)
	return rel
}

func (e *env) request(t *testing.T, id int64) *model.SupervisionRequest {
	t.Helper()
	req, err := e.store.Requests().GetByID(e.ctx, id)
	require.NoError(t, err)
	return req
}

func (e *env) relationship(t *testing.T, id int64) *model.SupervisionRelationship {
	t.Helper()
	rel, err := e.store.Relationships().GetByID(e.ctx, id)
	require.NoError(t, err)
	return rel
}

func requireValidation(t *testing.T, err error, field string) *service.ValidationError {
	t.Helper()
	ve, ok := service.AsValidationError(err)
	require.True(t, ok, "expected validation error, got %v", err)
	require.NotEmpty(t, ve.Message(field), "expected field %q in %v", field, ve)
	return ve
}

func upload(name, content string) service.Upload {
	return service.Upload{OriginalName: name, Content: strings.NewReader(content)}
}
