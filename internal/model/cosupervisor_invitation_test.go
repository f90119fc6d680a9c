package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInvitation(by InvitationInitiator) *CoSupervisorInvitation {
	return &CoSupervisorInvitation{
		StudentID:                 1,
		MainSupervisorID:          2,
		CosupervisorAcademicianID: 3,
		InitiatedBy:               by,
		CosupervisorStatus:        PartyStatusPending,
		ApproverStatus:            PartyStatusPending,
	}
}

func TestInvitationHappyPath(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := newInvitation(InitiatedByMainSupervisor)

	assert.Equal(t, InvitationAwaitingCosupervisor, inv.State())
	assert.Equal(t, int64(1), inv.ApproverID())
	assert.Equal(t, int64(2), inv.InitiatorID())

	require.Error(t, inv.ApproverRespond(PartyStatusAccepted, "", now), "approver is gated on the co-supervisor")

	require.NoError(t, inv.CosupervisorRespond(PartyStatusAccepted, "", now))
	assert.Equal(t, InvitationAwaitingApprover, inv.State())
	assert.True(t, inv.State().InFlight())
	assert.Error(t, inv.Cancel(now))

	require.NoError(t, inv.ApproverRespond(PartyStatusAccepted, "", now))
	assert.Equal(t, InvitationApproved, inv.State())
	assert.False(t, inv.State().InFlight())

	assert.Error(t, inv.ApproverRespond(PartyStatusRejected, "late", now))
	require.NoError(t, inv.Complete(now))
	assert.NotNil(t, inv.CompletedAt)
}

func TestInvitationRejections(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	declined := newInvitation(InitiatedByStudent)
	assert.Equal(t, int64(2), declined.ApproverID())
	require.NoError(t, declined.CosupervisorRespond(PartyStatusRejected, "busy", now))
	assert.Equal(t, InvitationDeclinedByCosupervisor, declined.State())
	assert.Equal(t, "busy", declined.RejectionReason)
	assert.Error(t, declined.CosupervisorRespond(PartyStatusAccepted, "", now))
	assert.Error(t, declined.ApproverRespond(PartyStatusAccepted, "", now))

	vetoed := newInvitation(InitiatedByStudent)
	require.NoError(t, vetoed.CosupervisorRespond(PartyStatusAccepted, "", now))
	require.NoError(t, vetoed.ApproverRespond(PartyStatusRejected, "no", now))
	assert.Equal(t, InvitationRejectedByApprover, vetoed.State())
	assert.Error(t, vetoed.Complete(now))
}

func TestInvitationCancel(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	inv := newInvitation(InitiatedByStudent)

	require.NoError(t, inv.Cancel(now))
	assert.Equal(t, InvitationCancelled, inv.State())
	assert.Equal(t, "cancelled", inv.State().String())
	assert.Error(t, inv.CosupervisorRespond(PartyStatusAccepted, "", now))
}

func TestInvitationRejectsNonDecision(t *testing.T) {
	inv := newInvitation(InitiatedByStudent)
	assert.Error(t, inv.CosupervisorRespond(PartyStatusPending, "", time.Now()))
}
