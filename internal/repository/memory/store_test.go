package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInTxRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	student := s.AddUser(model.User{FullName: "Alice"})
	boom := errors.New("boom")

	err := s.InTx(ctx, func(tx storage.Store) error {
		req := &model.SupervisionRequest{StudentID: student.ID, AcademicianID: 99, Status: model.RequestStatusPending}
		require.NoError(t, tx.Requests().Create(ctx, req))
		require.NoError(t, tx.Users().SetGroupConversation(ctx, student.ID, 7))

		// Nested InTx joins the outer transaction.
		return tx.InTx(ctx, func(inner storage.Store) error {
			return boom
		})
	})
	require.ErrorIs(t, err, boom)

	n, err := s.Requests().CountByStudentStatuses(ctx, student.ID, model.CapStatuses)
	require.NoError(t, err)
	assert.Zero(t, n)

	u, err := s.Users().GetByID(ctx, student.ID)
	require.NoError(t, err)
	assert.Nil(t, u.SupervisionGroupConversationID)
}

func TestInTxCommits(t *testing.T) {
	ctx := context.Background()
	s := New()

	var id int64
	err := s.InTx(ctx, func(tx storage.Store) error {
		ub := &model.UnbindRequest{RelationshipID: 1, Status: model.UnbindStatusPending}
		if err := tx.Unbinds().Create(ctx, ub); err != nil {
			return err
		}
		id = ub.ID
		return nil
	})
	require.NoError(t, err)

	got, err := s.Unbinds().GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, model.UnbindStatusPending, got.Status)
}

func TestSingleActiveMainRelationship(t *testing.T) {
	ctx := context.Background()
	s := New()

	first := &model.SupervisionRelationship{StudentID: 1, AcademicianID: 2, Role: model.RelationshipRoleMain, Status: model.RelationshipStatusActive}
	require.NoError(t, s.Relationships().Create(ctx, first))

	second := &model.SupervisionRelationship{StudentID: 1, AcademicianID: 3, Role: model.RelationshipRoleMain, Status: model.RelationshipStatusActive}
	assert.ErrorIs(t, s.Relationships().Create(ctx, second), ErrUniqueViolation)

	co := &model.SupervisionRelationship{StudentID: 1, AcademicianID: 3, Role: model.RelationshipRoleCo, Status: model.RelationshipStatusActive}
	assert.NoError(t, s.Relationships().Create(ctx, co))
}

func TestSingleActivePairRelationship(t *testing.T) {
	ctx := context.Background()
	s := New()

	main := &model.SupervisionRelationship{StudentID: 1, AcademicianID: 2, Role: model.RelationshipRoleMain, Status: model.RelationshipStatusActive}
	require.NoError(t, s.Relationships().Create(ctx, main))

	co := &model.SupervisionRelationship{StudentID: 1, AcademicianID: 2, Role: model.RelationshipRoleCo, Status: model.RelationshipStatusActive}
	assert.ErrorIs(t, s.Relationships().Create(ctx, co), ErrUniqueViolation)

	old := &model.SupervisionRelationship{StudentID: 1, AcademicianID: 2, Role: model.RelationshipRoleCo, Status: model.RelationshipStatusTerminated}
	assert.NoError(t, s.Relationships().Create(ctx, old))
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	s := New()

	_, err := s.Requests().GetByID(ctx, 42)
	assert.True(t, storage.IsNotFound(err))

	_, err = s.Relationships().GetActiveMain(ctx, 1)
	assert.True(t, storage.IsNotFound(err))

	assert.True(t, storage.IsNotFound(s.Meetings().Delete(ctx, 5)))
	assert.NoError(t, s.Shortlists().Delete(ctx, 1, 2))
}

func TestLatestRejectedUsesUpdateTime(t *testing.T) {
	ctx := context.Background()
	s := New()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	older := &model.UnbindRequest{RelationshipID: 1, InitiatedBy: model.UnbindInitiatorStudent, Status: model.UnbindStatusRejected, UpdatedAt: base.Add(48 * time.Hour)}
	newer := &model.UnbindRequest{RelationshipID: 1, InitiatedBy: model.UnbindInitiatorStudent, Status: model.UnbindStatusRejected, UpdatedAt: base}
	require.NoError(t, s.Unbinds().Create(ctx, older))
	require.NoError(t, s.Unbinds().Create(ctx, newer))

	got, err := s.Unbinds().LatestRejected(ctx, 1, model.UnbindInitiatorStudent)
	require.NoError(t, err)
	assert.Equal(t, older.ID, got.ID)

	n, err := s.Unbinds().CountRejected(ctx, 1, model.UnbindInitiatorStudent)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Unbinds().LatestRejected(ctx, 1, model.UnbindInitiatorSupervisor)
	assert.True(t, storage.IsNotFound(err))
}

func TestEnsureAcceptedFlipsExisting(t *testing.T) {
	ctx := context.Background()
	s := New()
	s.AddConnection(model.Connection{RequesterID: 2, AddresseeID: 1, Status: model.ConnectionStatusDeclined})

	c, err := s.Connections().EnsureAccepted(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, model.ConnectionStatusAccepted, c.Status)
	assert.Equal(t, int64(2), c.RequesterID)

	_, err = s.Connections().EnsureAccepted(ctx, 3, 4)
	require.NoError(t, err)
	got, ok := s.Connection(4, 3)
	require.True(t, ok)
	assert.Equal(t, model.ConnectionStatusAccepted, got.Status)
}

func TestMessengerGroupMembersAreUnique(t *testing.T) {
	ctx := context.Background()
	m := NewMessenger()

	c, err := m.CreateGroupConversation(ctx, 1, []int64{1, 2, 3}, "group")
	require.NoError(t, err)
	assert.ElementsMatch(t, []int64{1, 2, 3}, m.Participants(c.ID))

	require.NoError(t, m.AddParticipant(ctx, c.ID, 4))
	require.NoError(t, m.RemoveParticipant(ctx, c.ID, 2))
	assert.ElementsMatch(t, []int64{1, 3, 4}, m.Participants(c.ID))

	found, err := m.FindDirectConversation(ctx, 1, 2)
	require.NoError(t, err)
	assert.Nil(t, found)
}
