package handlers

import (
	"context"
	"strconv"
	"testing"

	"github.com/Freeeeeet/supervision/internal/filestore"
	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/repository/memory"
	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fixture struct {
	ctx        context.Context
	store      *memory.Store
	h          *Handlers
	requests   *service.RequestService
	activation *service.ActivationService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.New()
	files, err := filestore.NewDisk(t.TempDir())
	require.NoError(t, err)

	notifier := notify.NewLogNotifier(logger)
	shortlists := service.NewShortlistService(store, logger)
	requests := service.NewRequestService(store, memory.NewMessenger(), files, shortlists, notifier, logger)
	unbinds := service.NewUnbindService(store, notifier, logger)

	return &fixture{
		ctx:        context.Background(),
		store:      store,
		h:          NewHandlers(store, requests, shortlists, unbinds, logger),
		requests:   requests,
		activation: service.NewActivationService(store, memory.NewWorkspaces(), nil, notifier, logger),
	}
}

func (f *fixture) linkedUser(name string, telegramID int64) *model.User {
	u := f.store.AddUser(model.User{FullName: name, TelegramID: &telegramID})
	return &u
}

func (f *fixture) submit(t *testing.T, student, academician *model.User) *model.SupervisionRequest {
	t.Helper()
	req, err := f.requests.SubmitRequest(f.ctx, student, academician, service.SubmitRequestInput{
		ProposalTitle: "Graph learning",
		Motivation:    "Interested in your group",
	})
	require.NoError(t, err)
	return req
}

func TestLookupUser(t *testing.T) {
	f := newFixture(t)
	alice := f.linkedUser("Alice", 1001)

	got, err := f.h.lookupUser(f.ctx, 1001)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = f.h.lookupUser(f.ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Contains(t, startText(alice), "Hello, Alice!")
	assert.Contains(t, startText(nil), "not linked")
}

func TestShortlistText(t *testing.T) {
	f := newFixture(t)
	alice := f.linkedUser("Alice", 1001)
	bob := f.linkedUser("Bob", 1002)

	assert.Equal(t, "📋 Your shortlist is empty.", f.h.shortlistText(f.ctx, alice))

	f.submit(t, alice, bob)
	assert.Equal(t, "📋 Shortlist (1 of 20):\n• Bob", f.h.shortlistText(f.ctx, alice))
}

func TestRequestText(t *testing.T) {
	f := newFixture(t)
	alice := f.linkedUser("Alice", 1001)
	bob := f.linkedUser("Bob", 1002)
	req := f.submit(t, alice, bob)

	assert.Equal(t, "Usage: /offer <request id> [reason]", f.h.requestText(f.ctx, bob, "/offer"))
	assert.Equal(t, "Usage: /offer <request id> [reason]", f.h.requestText(f.ctx, bob, "/offer abc"))
	assert.Equal(t, helpText, f.h.requestText(f.ctx, bob, "/unknown 1"))
	assert.Equal(t, "❌ Not found.", f.h.requestText(f.ctx, bob, "/offer 999"))

	// Только студент может отозвать заявку
	reply := f.h.requestText(f.ctx, bob, "/cancelrequest "+itoa(req.ID))
	assert.Contains(t, reply, "❌")

	reply = f.h.requestText(f.ctx, bob, "/offer "+itoa(req.ID))
	assert.Equal(t, "✅ Request #"+itoa(req.ID)+" is now pending_student_acceptance.", reply)

	reply = f.h.requestText(f.ctx, alice, "/declineoffer "+itoa(req.ID)+" found another lab")
	assert.Equal(t, "✅ Request #"+itoa(req.ID)+" is now rejected.", reply)

	got, err := f.store.Requests().GetByID(f.ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, "found another lab", got.CancelReason)
}

func TestUnbindText(t *testing.T) {
	f := newFixture(t)
	alice := f.linkedUser("Alice", 1001)
	bob := f.linkedUser("Bob", 1002)
	rel, err := f.activation.AcceptRequest(f.ctx, f.submit(t, alice, bob), service.AcceptInput{Role: model.RelationshipRoleMain})
	require.NoError(t, err)

	ub, err := f.h.unbinds.InitiateUnbindRequest(f.ctx, rel, bob, service.UnbindInput{Reason: "sabbatical"})
	require.NoError(t, err)

	assert.Equal(t, "Usage: /rejectunbind <unbind request id>", f.h.unbindText(f.ctx, alice, "/rejectunbind"))
	assert.Contains(t, f.h.unbindText(f.ctx, bob, "/approveunbind "+itoa(ub.ID)), "❌")

	reply := f.h.unbindText(f.ctx, alice, "/approveunbind "+itoa(ub.ID))
	assert.Equal(t, "✅ Unbind request #"+itoa(ub.ID)+" is now approved.", reply)

	got, err := f.store.Relationships().GetByID(f.ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RelationshipStatusTerminated, got.Status)
}

func TestSplitCommand(t *testing.T) {
	id, rest, err := splitCommand("/cancelrequest 12  changed   my mind ")
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.Equal(t, "changed my mind", rest)

	_, _, err = splitCommand("/cancelrequest -3")
	assert.ErrorIs(t, err, errUsage)
}

func itoa(id int64) string { return strconv.FormatInt(id, 10) }
