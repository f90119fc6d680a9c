package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDiffMeeting(t *testing.T) {
	at := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)
	before := &SupervisionMeeting{Title: "Weekly", ScheduledFor: at, LocationLink: "https://meet/a"}

	same := *before
	same.Title = "Renamed"
	same.Agenda = "new agenda"
	assert.Empty(t, DiffMeeting(before, &same), "title and agenda are not notified")

	moved := *before
	moved.ScheduledFor = at.Add(time.Hour)
	moved.LocationLink = "https://meet/b"
	assert.Equal(t, []MeetingChange{
		{Field: "scheduled_for", Before: "2025-04-01T10:00:00Z", After: "2025-04-01T11:00:00Z"},
		{Field: "location_link", Before: "https://meet/a", After: "https://meet/b"},
	}, DiffMeeting(before, &moved))
}

func TestMeetingSnapshotIsDetached(t *testing.T) {
	relID := int64(4)
	m := &SupervisionMeeting{ID: 9, RelationshipID: &relID, Title: "Weekly"}

	snap := m.Snapshot()
	relID = 100
	m.Title = "changed"

	assert.Equal(t, int64(4), *snap.RelationshipID)
	assert.Equal(t, "Weekly", snap.Title)
	assert.Nil(t, snap.RequestID)
}
