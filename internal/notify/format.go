package notify

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/Freeeeeet/supervision/internal/model"
)

var eventTitles = map[EventType]string{
	EventRequestSubmitted:     "📨 New supervision request",
	EventRequestAccepted:      "✅ Supervision request accepted",
	EventRequestRejected:      "❌ Supervision request declined",
	EventRequestCancelled:     "🚫 Supervision request cancelled",
	EventRequestAutoCancelled: "🚫 Request closed: student accepted elsewhere",
	EventRequestOffered:       "🎓 You received a supervision offer",
	EventOfferAccepted:        "✅ Supervision offer accepted",
	EventOfferDeclined:        "❌ Supervision offer declined",

	EventCosupervisorInvited:          "🤝 Co-supervision invitation",
	EventCosupervisorApprovalNeeded:   "⏳ Co-supervisor approval needed",
	EventCosupervisorAccepted:         "✅ Co-supervisor accepted the invitation",
	EventCosupervisorDeclined:         "❌ Co-supervisor declined the invitation",
	EventCosupervisorApproverRejected: "❌ Co-supervisor invitation was not approved",
	EventCosupervisorCancelled:        "🚫 Co-supervision invitation cancelled",
	EventCosupervisorAdded:            "👥 Co-supervisor added",
	EventCosupervisorRemoved:          "👋 Co-supervisor removed",

	EventMeetingScheduled: "📅 Meeting scheduled",
	EventMeetingUpdated:   "✏️ Meeting updated",
	EventMeetingCancelled: "🗑 Meeting cancelled",

	EventUnbindRequested:        "⚠️ Request to end supervision",
	EventUnbindApproved:         "✅ Request to end supervision approved",
	EventUnbindRejected:         "❌ Request to end supervision rejected",
	EventUnbindForced:           "⛔ Supervision ended after repeated requests",
	EventRelationshipTerminated: "🔚 Supervision ended",
}

// FormatMessage renders an event as Telegram HTML.
func FormatMessage(ev Event) string {
	title, ok := eventTitles[ev.Type]
	if !ok {
		title = "🔔 " + string(ev.Type)
	}

	var b strings.Builder
	b.WriteString("<b>" + html.EscapeString(title) + "</b>")

	for _, line := range payloadLines(ev.Payload) {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func payloadLines(payload any) []string {
	switch p := payload.(type) {
	case model.SupervisionRequest:
		lines := []string{
			fmt.Sprintf("Request #%d", p.ID),
			"Proposal: <i>" + html.EscapeString(p.ProposalTitle) + "</i>",
		}
		if p.CancelReason != "" {
			lines = append(lines, "Reason: "+html.EscapeString(p.CancelReason))
		}
		return lines
	case model.SupervisionRelationship:
		lines := []string{fmt.Sprintf("Role: %s supervisor", p.Role)}
		if p.TerminatedAt != nil {
			lines = append(lines, "Ended: "+formatTime(*p.TerminatedAt))
		}
		return lines
	case model.CoSupervisorInvitation:
		var lines []string
		if p.InvitationMessage != "" {
			lines = append(lines, "Message: "+html.EscapeString(p.InvitationMessage))
		}
		if p.RejectionReason != "" {
			lines = append(lines, "Reason: "+html.EscapeString(p.RejectionReason))
		}
		return lines
	case model.MeetingSnapshot:
		return meetingLines(p)
	case MeetingChanged:
		lines := meetingLines(p.Meeting)
		for _, c := range p.Changes {
			lines = append(lines, fmt.Sprintf("%s: %s → %s",
				html.EscapeString(c.Field), html.EscapeString(c.Before), html.EscapeString(c.After)))
		}
		return lines
	case model.UnbindRequest:
		lines := []string{
			fmt.Sprintf("Unbind request #%d", p.ID),
			fmt.Sprintf("Attempt %d of %d", p.AttemptCount, model.MaxAttemptsBeforeForce),
		}
		if p.Reason != "" {
			lines = append(lines, "Reason: "+html.EscapeString(p.Reason))
		}
		if p.CooldownUntil != nil {
			lines = append(lines, "Next request possible after "+formatTime(*p.CooldownUntil))
		}
		return lines
	}
	return nil
}

func meetingLines(m model.MeetingSnapshot) []string {
	lines := []string{
		"<i>" + html.EscapeString(m.Title) + "</i>",
		"When: " + formatTime(m.ScheduledFor),
	}
	if m.LocationLink != "" {
		lines = append(lines, "Where: "+html.EscapeString(m.LocationLink))
	}
	return lines
}

func formatTime(t time.Time) string {
	return t.UTC().Format("02 Jan 2006 15:04 MST")
}
