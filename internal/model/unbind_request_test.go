package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusForAttempt(t *testing.T) {
	assert.Equal(t, UnbindStatusPending, StatusForAttempt(1))
	assert.Equal(t, UnbindStatusPending, StatusForAttempt(2))
	assert.Equal(t, UnbindStatusForceUnbind, StatusForAttempt(3))
	assert.Equal(t, UnbindStatusForceUnbind, StatusForAttempt(4))
}

func TestUnbindRejectStartsCooldown(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	u := &UnbindRequest{Status: UnbindStatusPending}

	require.NoError(t, u.Reject(now))
	require.NotNil(t, u.CooldownUntil)
	assert.Equal(t, now.Add(30*24*time.Hour), *u.CooldownUntil)

	assert.True(t, u.InCooldown(now.Add(29*24*time.Hour)))
	assert.False(t, u.InCooldown(*u.CooldownUntil))
	assert.Error(t, u.Approve(true, now))
}

func TestUnbindApprove(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)

	byStudent := &UnbindRequest{Status: UnbindStatusPending}
	require.NoError(t, byStudent.Approve(true, now))
	assert.Equal(t, UnbindStatusApproved, byStudent.Status)
	assert.NotNil(t, byStudent.StudentApprovedAt)

	bySupervisor := &UnbindRequest{Status: UnbindStatusPending}
	require.NoError(t, bySupervisor.Approve(false, now))
	assert.Nil(t, bySupervisor.StudentApprovedAt)

	forced := &UnbindRequest{Status: UnbindStatusForceUnbind}
	assert.Error(t, forced.Reject(now))
}

func TestRelationshipTerminate(t *testing.T) {
	now := time.Date(2025, 2, 1, 9, 0, 0, 0, time.UTC)
	rel := &SupervisionRelationship{Status: RelationshipStatusActive}

	require.NoError(t, rel.Terminate(now))
	assert.False(t, rel.IsActive())
	assert.Equal(t, now, *rel.TerminatedAt)
	assert.Error(t, rel.Terminate(now))
}
