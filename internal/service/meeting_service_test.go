package service_test

import (
	"testing"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
	"github.com/Freeeeeet/supervision/internal/notify"
	"github.com/Freeeeeet/supervision/internal/service"
	"github.com/Freeeeeet/supervision/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func meetingInput(at time.Time) service.MeetingInput {
	return service.MeetingInput{
		Title:        "Weekly sync",
		ScheduledFor: at,
		LocationLink: "https://meet.example.com/abc",
		Agenda:       "Progress",
	}
}

func TestScheduleMeetingForRelationship(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("Alice"), e.user("Bob")
	rel := e.acceptMain(t, e.submit(t, alice, bob, "Topic"))
	e.notes.reset()
	at := e.clock.Now().Add(48 * time.Hour)

	_, err := e.meetings.Schedule(e.ctx, rel, e.user("Mallory"), meetingInput(at))
	requireValidation(t, err, "actor")

	_, err = e.meetings.Schedule(e.ctx, rel, bob, service.MeetingInput{Title: "x", ScheduledFor: at, LocationLink: "not a url"})
	requireValidation(t, err, "location_link")

	m, err := e.meetings.Schedule(e.ctx, rel, bob, meetingInput(at))
	require.NoError(t, err)
	require.NotNil(t, m.RelationshipID)
	assert.Nil(t, m.RequestID)
	assert.Equal(t, bob.ID, m.CreatedBy)

	ev, ok := e.notes.last(notify.EventMeetingScheduled)
	require.True(t, ok)
	assert.Equal(t, alice.ID, ev.userID)
	assert.Equal(t, m.Snapshot(), ev.event.Payload)
	assert.Empty(t, e.notes.to(bob.ID))
}

func TestScheduleMeetingForRequest(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("Alice"), e.user("Bob")
	req := e.submit(t, alice, bob, "Topic")
	at := e.clock.Now().Add(24 * time.Hour)

	m, err := e.meetings.ScheduleForRequest(e.ctx, req, alice, meetingInput(at))
	require.NoError(t, err)
	require.NotNil(t, m.RequestID)
	assert.Nil(t, m.RelationshipID)
	assert.Equal(t, []notify.EventType{notify.EventMeetingScheduled}, e.notes.to(bob.ID)[1:])

	_, err = e.requests.MakeOffer(e.ctx, req, bob)
	require.NoError(t, err)
	_, err = e.meetings.ScheduleForRequest(e.ctx, req, bob, meetingInput(at))
	require.NoError(t, err)

	_, err = e.requests.DeclineOffer(e.ctx, req, alice, "")
	require.NoError(t, err)
	_, err = e.meetings.ScheduleForRequest(e.ctx, req, alice, meetingInput(at))
	requireValidation(t, err, "status")
}

func TestUpdateMeetingNotifiesOnlyOnChange(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("Alice"), e.user("Bob")
	rel := e.acceptMain(t, e.submit(t, alice, bob, "Topic"))
	at := e.clock.Now().Add(48 * time.Hour)
	m, err := e.meetings.Schedule(e.ctx, rel, bob, meetingInput(at))
	require.NoError(t, err)
	e.notes.reset()

	agenda := "New agenda"
	_, changes, err := e.meetings.Update(e.ctx, m, alice, service.MeetingUpdate{Agenda: &agenda})
	require.NoError(t, err)
	assert.Empty(t, changes)
	assert.Empty(t, e.notes.to(bob.ID))

	later := at.Add(time.Hour)
	updated, changes, err := e.meetings.Update(e.ctx, m, alice, service.MeetingUpdate{ScheduledFor: &later})
	require.NoError(t, err)
	assert.Equal(t, later, updated.ScheduledFor)
	assert.Equal(t, "New agenda", updated.Agenda)
	require.Len(t, changes, 1)
	assert.Equal(t, "scheduled_for", changes[0].Field)

	ev, ok := e.notes.last(notify.EventMeetingUpdated)
	require.True(t, ok)
	assert.Equal(t, bob.ID, ev.userID)
	payload, ok := ev.event.Payload.(notify.MeetingChanged)
	require.True(t, ok)
	assert.Equal(t, at.Format(time.RFC3339), payload.Changes[0].Before)
	assert.Equal(t, later.Format(time.RFC3339), payload.Changes[0].After)

	_, _, err = e.meetings.Update(e.ctx, m, e.user("Mallory"), service.MeetingUpdate{Agenda: &agenda})
	requireValidation(t, err, "actor")

	e.notes.reset()
	bad := "not a url"
	_, _, err = e.meetings.Update(e.ctx, m, alice, service.MeetingUpdate{LocationLink: &bad})
	requireValidation(t, err, "location_link")
	stored, err := e.store.Meetings().GetByID(e.ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://meet.example.com/abc", stored.LocationLink)
	assert.Empty(t, e.notes.to(bob.ID))
}

func TestCancelMeetingSnapshotsBeforeDelete(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("Alice"), e.user("Bob")
	req := e.submit(t, alice, bob, "Topic")
	m, err := e.meetings.ScheduleForRequest(e.ctx, req, bob, meetingInput(e.clock.Now().Add(time.Hour)))
	require.NoError(t, err)

	_, err = e.meetings.Cancel(e.ctx, m, e.user("Mallory"))
	requireValidation(t, err, "actor")

	snap, err := e.meetings.Cancel(e.ctx, m, alice)
	require.NoError(t, err)
	assert.Equal(t, m.ID, snap.ID)
	assert.Equal(t, "Weekly sync", snap.Title)

	_, err = e.store.Meetings().GetByID(e.ctx, m.ID)
	assert.True(t, storage.IsNotFound(err))

	ev, ok := e.notes.last(notify.EventMeetingCancelled)
	require.True(t, ok)
	assert.Equal(t, bob.ID, ev.userID)
	assert.Equal(t, snap, ev.event.Payload)

	_, err = e.meetings.Cancel(e.ctx, m, alice)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestScheduleRequiresActiveRelationship(t *testing.T) {
	e := newEnv(t)
	alice, bob := e.user("Alice"), e.user("Bob")
	rel := e.acceptMain(t, e.submit(t, alice, bob, "Topic"))

	for i := 0; i < model.MaxAttemptsBeforeForce; i++ {
		ub, err := e.unbinds.InitiateUnbindRequest(e.ctx, rel, alice, service.UnbindInput{Reason: "mismatch"})
		require.NoError(t, err)
		if ub.Status == model.UnbindStatusPending {
			_, err = e.unbinds.SupervisorRejectUnbindRequest(e.ctx, ub, bob)
			require.NoError(t, err)
			e.clock.Advance(model.UnbindCooldown + time.Second)
		}
	}

	_, err := e.meetings.Schedule(e.ctx, rel, alice, meetingInput(e.clock.Now().Add(time.Hour)))
	requireValidation(t, err, "relationship")
}
