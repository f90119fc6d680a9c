package model

import "time"

// PartyStatus is the decision of one party on a co-supervisor invitation
type PartyStatus string

const (
	PartyStatusPending  PartyStatus = "pending"
	PartyStatusAccepted PartyStatus = "accepted"
	PartyStatusRejected PartyStatus = "rejected"
)

// IsDecision reports whether the status is a response a party can give
func (s PartyStatus) IsDecision() bool {
	return s == PartyStatusAccepted || s == PartyStatusRejected
}

type InvitationInitiator string

const (
	InitiatedByStudent        InvitationInitiator = "student"
	InitiatedByMainSupervisor InvitationInitiator = "main_supervisor"
)

// InvitationState is the composite state of the two party flags plus the
// cancellation and completion stamps.
//
//	AwaitingCosupervisor --accept--> AwaitingApprover --accept--> Approved
//	        |                               |
//	        +--reject--> DeclinedByCosupervisor   +--reject--> RejectedByApprover
//	        +--cancel--> Cancelled
type InvitationState int

const (
	InvitationAwaitingCosupervisor InvitationState = iota
	InvitationAwaitingApprover
	InvitationDeclinedByCosupervisor
	InvitationRejectedByApprover
	InvitationApproved
	InvitationCancelled
)

var invitationStateNames = map[InvitationState]string{
	InvitationAwaitingCosupervisor:   "awaiting_cosupervisor",
	InvitationAwaitingApprover:       "awaiting_approver",
	InvitationDeclinedByCosupervisor: "declined_by_cosupervisor",
	InvitationRejectedByApprover:     "rejected_by_approver",
	InvitationApproved:               "approved",
	InvitationCancelled:              "cancelled",
}

func (s InvitationState) String() string {
	if name, ok := invitationStateNames[s]; ok {
		return name
	}
	return "unknown"
}

// InFlight reports whether the invitation still reserves a co-supervisor seat
func (s InvitationState) InFlight() bool {
	return s == InvitationAwaitingCosupervisor || s == InvitationAwaitingApprover
}

// CoSupervisorInvitation is the two-stage approval ticket for adding a co-supervisor
type CoSupervisorInvitation struct {
	ID                        int64               `json:"id"`
	RelationshipID            int64               `json:"relationship_id"` // the main relationship
	StudentID                 int64               `json:"student_id"`
	MainSupervisorID          int64               `json:"main_supervisor_id"`
	CosupervisorAcademicianID int64               `json:"cosupervisor_academician_id"`
	InitiatedBy               InvitationInitiator `json:"initiated_by"`
	InvitationMessage         string              `json:"invitation_message"`
	CosupervisorStatus        PartyStatus         `json:"cosupervisor_status"`
	ApproverStatus            PartyStatus         `json:"approver_status"`
	RejectionReason           string              `json:"rejection_reason"`
	CosupervisorRespondedAt   *time.Time          `json:"cosupervisor_responded_at"`
	ApproverRespondedAt       *time.Time          `json:"approver_responded_at"`
	CancelledAt               *time.Time          `json:"cancelled_at"`
	CompletedAt               *time.Time          `json:"completed_at"`
	CreatedAt                 time.Time           `json:"created_at"`
	UpdatedAt                 time.Time           `json:"updated_at"`
}

// State derives the composite state from the stored flags
func (inv *CoSupervisorInvitation) State() InvitationState {
	switch {
	case inv.CancelledAt != nil:
		return InvitationCancelled
	case inv.CosupervisorStatus == PartyStatusRejected:
		return InvitationDeclinedByCosupervisor
	case inv.CosupervisorStatus == PartyStatusPending:
		return InvitationAwaitingCosupervisor
	case inv.ApproverStatus == PartyStatusRejected:
		return InvitationRejectedByApprover
	case inv.ApproverStatus == PartyStatusAccepted:
		return InvitationApproved
	default:
		return InvitationAwaitingApprover
	}
}

// ApproverID returns the user who must approve after the co-supervisor accepts:
// the main supervisor when the student initiated, the student otherwise.
func (inv *CoSupervisorInvitation) ApproverID() int64 {
	if inv.InitiatedBy == InitiatedByStudent {
		return inv.MainSupervisorID
	}
	return inv.StudentID
}

// InitiatorID returns the user who sent the invitation
func (inv *CoSupervisorInvitation) InitiatorID() int64 {
	if inv.InitiatedBy == InitiatedByStudent {
		return inv.StudentID
	}
	return inv.MainSupervisorID
}

func (inv *CoSupervisorInvitation) transitionError(to, reason string) error {
	return &TransitionError{Entity: "co-supervisor invitation", From: inv.State().String(), To: to, Reason: reason}
}

// CosupervisorRespond records the candidate's decision.
func (inv *CoSupervisorInvitation) CosupervisorRespond(response PartyStatus, reason string, now time.Time) error {
	if !response.IsDecision() {
		return inv.transitionError(string(response), "response must be accepted or rejected")
	}
	if inv.State() != InvitationAwaitingCosupervisor {
		return inv.transitionError("cosupervisor_"+string(response), "co-supervisor already responded or invitation closed")
	}
	inv.CosupervisorStatus = response
	inv.CosupervisorRespondedAt = &now
	if response == PartyStatusRejected {
		inv.RejectionReason = reason
	}
	inv.UpdatedAt = now
	return nil
}

// ApproverRespond records the approver's decision; only valid once the
// co-supervisor has accepted and before the approver has decided.
func (inv *CoSupervisorInvitation) ApproverRespond(response PartyStatus, reason string, now time.Time) error {
	if !response.IsDecision() {
		return inv.transitionError(string(response), "response must be accepted or rejected")
	}
	if inv.State() != InvitationAwaitingApprover {
		return inv.transitionError("approver_"+string(response), "approval requires a co-supervisor acceptance and no prior decision")
	}
	inv.ApproverStatus = response
	inv.ApproverRespondedAt = &now
	if response == PartyStatusRejected {
		inv.RejectionReason = reason
	}
	inv.UpdatedAt = now
	return nil
}

// Cancel closes the invitation while the co-supervisor side is still pending.
func (inv *CoSupervisorInvitation) Cancel(now time.Time) error {
	if inv.State() != InvitationAwaitingCosupervisor {
		return inv.transitionError(InvitationCancelled.String(), "only invitations awaiting the co-supervisor can be cancelled")
	}
	inv.CancelledAt = &now
	inv.UpdatedAt = now
	return nil
}

// Complete stamps an approved invitation once the relationship exists.
func (inv *CoSupervisorInvitation) Complete(now time.Time) error {
	if inv.State() != InvitationApproved {
		return inv.transitionError("completed", "invitation is not approved")
	}
	inv.CompletedAt = &now
	inv.UpdatedAt = now
	return nil
}
