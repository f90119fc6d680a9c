// Package notify delivers supervision events to users. Delivery is
// fire-and-forget from the workflow's point of view: callers log errors
// and never roll back on them.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
)

type EventType string

const (
	EventRequestSubmitted     EventType = "request_submitted"
	EventRequestAccepted      EventType = "request_accepted"
	EventRequestRejected      EventType = "request_rejected"
	EventRequestCancelled     EventType = "request_cancelled"
	EventRequestAutoCancelled EventType = "request_auto_cancelled"
	EventRequestOffered       EventType = "request_offered"
	EventOfferAccepted        EventType = "offer_accepted"
	EventOfferDeclined        EventType = "offer_declined"

	EventCosupervisorInvited          EventType = "cosupervisor_invited"
	EventCosupervisorApprovalNeeded   EventType = "cosupervisor_approval_needed"
	EventCosupervisorAccepted         EventType = "cosupervisor_invitation_accepted"
	EventCosupervisorDeclined         EventType = "cosupervisor_invitation_rejected"
	EventCosupervisorApproverRejected EventType = "cosupervisor_approver_rejected"
	EventCosupervisorCancelled        EventType = "cosupervisor_invitation_cancelled"
	EventCosupervisorAdded            EventType = "cosupervisor_added"
	EventCosupervisorRemoved          EventType = "cosupervisor_removed"

	EventMeetingScheduled EventType = "meeting_scheduled"
	EventMeetingUpdated   EventType = "meeting_updated"
	EventMeetingCancelled EventType = "meeting_cancelled"

	EventUnbindRequested        EventType = "unbind_requested"
	EventUnbindApproved         EventType = "unbind_approved"
	EventUnbindRejected         EventType = "unbind_rejected"
	EventUnbindForced           EventType = "unbind_forced"
	EventRelationshipTerminated EventType = "relationship_terminated"
)

// Event is one notification addressed to a user. Payload is a value copy of
// the aggregate the event is about.
type Event struct {
	Type       EventType `json:"type"`
	Payload    any       `json:"payload"`
	OccurredAt time.Time `json:"occurred_at"`
}

// MeetingChanged is the payload of EventMeetingUpdated.
type MeetingChanged struct {
	Meeting model.MeetingSnapshot `json:"meeting"`
	Changes []model.MeetingChange `json:"changes"`
}

// Notifier is the notification sink.
type Notifier interface {
	Notify(ctx context.Context, userID int64, ev Event) error
}

// Multi fans an event out to every sink and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, userID int64, ev Event) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, userID, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
