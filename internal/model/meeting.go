package model

import "time"

// SupervisionMeeting is attached to a request before acceptance or to a
// relationship after it; exactly one of RequestID and RelationshipID is set.
type SupervisionMeeting struct {
	ID               int64     `json:"id"`
	RequestID        *int64    `json:"supervision_request_id"`
	RelationshipID   *int64    `json:"supervision_relationship_id"`
	Title            string    `json:"title"`
	ScheduledFor     time.Time `json:"scheduled_for"`
	LocationLink     string    `json:"location_link"`
	Agenda           string    `json:"agenda"`
	Attachments      []string  `json:"attachments"`
	ExternalEventID  string    `json:"external_event_id"`
	ExternalProvider string    `json:"external_provider"`
	CreatedBy        int64     `json:"created_by"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// MeetingSnapshot is a detached copy of a meeting for notification payloads
type MeetingSnapshot struct {
	ID             int64     `json:"id"`
	RequestID      *int64    `json:"supervision_request_id"`
	RelationshipID *int64    `json:"supervision_relationship_id"`
	Title          string    `json:"title"`
	ScheduledFor   time.Time `json:"scheduled_for"`
	LocationLink   string    `json:"location_link"`
	Agenda         string    `json:"agenda"`
	CreatedBy      int64     `json:"created_by"`
}

// Snapshot copies the meeting into a value that outlives deletion
func (m *SupervisionMeeting) Snapshot() MeetingSnapshot {
	snap := MeetingSnapshot{
		ID:           m.ID,
		Title:        m.Title,
		ScheduledFor: m.ScheduledFor,
		LocationLink: m.LocationLink,
		Agenda:       m.Agenda,
		CreatedBy:    m.CreatedBy,
	}
	if m.RequestID != nil {
		id := *m.RequestID
		snap.RequestID = &id
	}
	if m.RelationshipID != nil {
		id := *m.RelationshipID
		snap.RelationshipID = &id
	}
	return snap
}

// MeetingChange is one field that differs between two versions of a meeting
type MeetingChange struct {
	Field  string `json:"field"`
	Before string `json:"before"`
	After  string `json:"after"`
}

// DiffMeeting compares the notifiable fields of two meeting versions.
func DiffMeeting(before, after *SupervisionMeeting) []MeetingChange {
	var changes []MeetingChange
	if !before.ScheduledFor.Equal(after.ScheduledFor) {
		changes = append(changes, MeetingChange{
			Field:  "scheduled_for",
			Before: before.ScheduledFor.Format(time.RFC3339),
			After:  after.ScheduledFor.Format(time.RFC3339),
		})
	}
	if before.LocationLink != after.LocationLink {
		changes = append(changes, MeetingChange{
			Field:  "location_link",
			Before: before.LocationLink,
			After:  after.LocationLink,
		})
	}
	return changes
}
