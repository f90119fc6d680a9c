package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type unbindFixture struct {
	*env
	alice, bob *model.User
	rel        *model.SupervisionRelationship
}

func newUnbindFixture(t *testing.T) *unbindFixture {
	t.Helper()
	e := newEnv(t)
	f := &unbindFixture{env: e, alice: e.user("Alice"), bob: e.user("Bob")}
	f.rel = e.acceptMain(t, e.submit(t, f.alice, f.bob, "Topic"))
	e.notes.reset()
	return f
}

func (f *unbindFixture) initiate(t *testing.T, by *model.User) *model.UnbindRequest {
	t.Helper()
	ub, err := f.unbinds.InitiateUnbindRequest(f.ctx, f.rel, by, service.UnbindInput{Reason: "research interests diverged"})
	require.NoError(t, err)
	return ub
}

func TestUnbindRejectStartsCooldown(t *testing.T) {
	f := newUnbindFixture(t)

	ub := f.initiate(t, f.alice)
	assert.Equal(t, model.UnbindStatusPending, ub.Status)
	assert.Equal(t, 1, ub.AttemptCount)
	assert.Equal(t, model.UnbindInitiatorStudent, ub.InitiatedBy)
	assert.Equal(t, []notify.EventType{notify.EventUnbindRequested}, f.notes.to(f.bob.ID))

	rejected, err := f.unbinds.SupervisorRejectUnbindRequest(f.ctx, ub, f.bob)
	require.NoError(t, err)
	assert.Equal(t, model.UnbindStatusRejected, rejected.Status)
	require.NotNil(t, rejected.CooldownUntil)
	until := f.clock.Now().Add(model.UnbindCooldown)
	assert.Equal(t, until, *rejected.CooldownUntil)
	assert.Equal(t, []notify.EventType{notify.EventUnbindRejected}, f.notes.to(f.alice.ID))

	f.clock.Advance(24 * time.Hour)
	_, err = f.unbinds.InitiateUnbindRequest(f.ctx, f.rel, f.alice, service.UnbindInput{Reason: "again"})
	ve := requireValidation(t, err, "unbind")
	assert.Equal(t, "you can request unbinding again after 2025-10-01T09:01:00Z", ve.Message("unbind"))

	// Кулдаун считается отдельно для каждой стороны
	other := f.initiate(t, f.bob)
	assert.Equal(t, 1, other.AttemptCount)
	assert.Equal(t, model.UnbindInitiatorSupervisor, other.InitiatedBy)
}

func TestUnbindThirdAttemptForcesTermination(t *testing.T) {
	f := newUnbindFixture(t)

	for attempt := 1; attempt < model.MaxAttemptsBeforeForce; attempt++ {
		ub := f.initiate(t, f.alice)
		require.Equal(t, attempt, ub.AttemptCount)
		require.Equal(t, model.UnbindStatusPending, ub.Status)
		_, err := f.unbinds.SupervisorRejectUnbindRequest(f.ctx, ub, f.bob)
		require.NoError(t, err)
		f.clock.Advance(model.UnbindCooldown + time.Second)
	}
	f.notes.reset()

	forced := f.initiate(t, f.alice)
	assert.Equal(t, model.UnbindStatusForceUnbind, forced.Status)
	assert.Equal(t, model.MaxAttemptsBeforeForce, forced.AttemptCount)

	rel := f.relationship(t, f.rel.ID)
	assert.Equal(t, model.RelationshipStatusTerminated, rel.Status)
	require.NotNil(t, rel.TerminatedAt)

	for _, u := range []*model.User{f.alice, f.bob} {
		assert.ElementsMatch(t,
			[]notify.EventType{notify.EventRelationshipTerminated, notify.EventUnbindForced},
			f.notes.to(u.ID))
	}
	require.Len(t, f.terminated, 1)
	assert.Equal(t, f.rel.ID, f.terminated[0].ID)

	_, err := f.unbinds.InitiateUnbindRequest(f.ctx, f.rel, f.alice, service.UnbindInput{Reason: "again"})
	requireValidation(t, err, "relationship")
}

func TestUnbindApproveTerminates(t *testing.T) {
	t.Run("supervisor approves student request", func(t *testing.T) {
		f := newUnbindFixture(t)
		ub := f.initiate(t, f.alice)

		approved, err := f.unbinds.SupervisorApproveUnbindRequest(f.ctx, ub, f.bob)
		require.NoError(t, err)
		assert.Equal(t, model.UnbindStatusApproved, approved.Status)
		assert.Nil(t, approved.StudentApprovedAt)
		assert.Equal(t, model.RelationshipStatusTerminated, f.relationship(t, f.rel.ID).Status)
		assert.Contains(t, f.notes.to(f.alice.ID), notify.EventUnbindApproved)
		assert.Contains(t, f.notes.to(f.bob.ID), notify.EventRelationshipTerminated)
		assert.Len(t, f.terminated, 1)
	})

	t.Run("student approves supervisor request", func(t *testing.T) {
		f := newUnbindFixture(t)
		ub := f.initiate(t, f.bob)

		approved, err := f.unbinds.ApproveUnbindRequest(f.ctx, ub, f.alice)
		require.NoError(t, err)
		assert.Equal(t, model.UnbindStatusApproved, approved.Status)
		require.NotNil(t, approved.StudentApprovedAt)
		assert.Equal(t, f.clock.Now(), *approved.StudentApprovedAt)
		assert.Contains(t, f.notes.to(f.bob.ID), notify.EventUnbindApproved)

		_, err = f.unbinds.ApproveUnbindRequest(f.ctx, ub, f.alice)
		requireValidation(t, err, "status")
	})
}

func TestUnbindResponderChecks(t *testing.T) {
	f := newUnbindFixture(t)
	ub := f.initiate(t, f.alice)

	// Студент не может сам решить свой запрос
	_, err := f.unbinds.ApproveUnbindRequest(f.ctx, ub, f.alice)
	requireValidation(t, err, "initiated_by")
	_, err = f.unbinds.RejectUnbindRequest(f.ctx, ub, f.alice)
	requireValidation(t, err, "initiated_by")

	_, err = f.unbinds.SupervisorApproveUnbindRequest(f.ctx, ub, f.user("Mallory"))
	requireValidation(t, err, "actor")

	assert.Equal(t, model.RelationshipStatusActive, f.relationship(t, f.rel.ID).Status)
	assert.Empty(t, f.terminated)
}

func TestUnbindPendingRequests(t *testing.T) {
	f := newUnbindFixture(t)
	first := f.initiate(t, f.alice)

	_, err := f.unbinds.InitiateUnbindRequest(f.ctx, f.rel, f.bob, service.UnbindInput{Reason: "me too"})
	ve := requireValidation(t, err, "unbind")
	assert.Equal(t, "there is a pending unbind request awaiting your response", ve.Message("unbind"))

	f.clock.Advance(time.Hour)
	second := f.initiate(t, f.alice)
	assert.Equal(t, 2, second.AttemptCount)
	assert.NotEqual(t, first.ID, second.ID)

	_, err = f.unbinds.SupervisorRejectUnbindRequest(f.ctx, first, f.bob)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestUnbindInitiatorChecks(t *testing.T) {
	f := newUnbindFixture(t)

	_, err := f.unbinds.InitiateUnbindRequest(f.ctx, f.rel, f.user("Mallory"), service.UnbindInput{Reason: "x"})
	requireValidation(t, err, "initiator")

	_, err = f.unbinds.InitiateUnbindRequest(f.ctx, f.rel, f.alice, service.UnbindInput{Reason: "  "})
	ve := requireValidation(t, err, "reason")
	assert.Equal(t, "reason cannot be blank", ve.Message("reason"))
}

func TestTerminationHookFailureIsLogged(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("Alice"), e.user("Bob")
	rel := e.acceptMain(t, e.submit(t, alice, bob, "Topic"))

	called := 0
	unbinds := service.NewUnbindService(e.store, e.notes, zaptest.NewLogger(t), func(_ context.Context, _ model.SupervisionRelationship) error {
		called++
		return errCollaborator
	})
	ub, err := unbinds.InitiateUnbindRequest(e.ctx, rel, bob, service.UnbindInput{Reason: "retiring"})
	require.NoError(t, err)

	_, err = unbinds.ApproveUnbindRequest(e.ctx, ub, alice)
	require.NoError(t, err)
	assert.Equal(t, 1, called)
	assert.Equal(t, model.RelationshipStatusTerminated, e.relationship(t, rel.ID).Status)
}
