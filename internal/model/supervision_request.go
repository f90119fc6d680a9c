package model

import "time"

type RequestStatus string

const (
	RequestStatusPending                  RequestStatus = "pending"
	RequestStatusPendingStudentAcceptance RequestStatus = "pending_student_acceptance" // supervisor made an offer
	RequestStatusAccepted                 RequestStatus = "accepted"
	RequestStatusRejected                 RequestStatus = "rejected"
	RequestStatusCancelled                RequestStatus = "cancelled"
	RequestStatusAutoCancelled            RequestStatus = "auto_cancelled"
)

// CancelReasonAcceptedElsewhere is stored on requests closed because the
// student was accepted by another supervisor.
const CancelReasonAcceptedElsewhere = "accepted_elsewhere"

// MaxActiveRequests caps requests a student may hold in CapStatuses at once.
const MaxActiveRequests = 5

// requestTransitions is the full transition table; absent keys are terminal.
var requestTransitions = map[RequestStatus][]RequestStatus{
	RequestStatusPending: {
		RequestStatusPendingStudentAcceptance,
		RequestStatusAccepted,
		RequestStatusRejected,
		RequestStatusCancelled,
		RequestStatusAutoCancelled,
	},
	RequestStatusPendingStudentAcceptance: {
		RequestStatusAccepted,
		RequestStatusRejected,
		RequestStatusCancelled,
		RequestStatusAutoCancelled,
	},
}

// Valid reports whether s is one of the known statuses
func (s RequestStatus) Valid() bool {
	switch s {
	case RequestStatusPending, RequestStatusPendingStudentAcceptance, RequestStatusAccepted,
		RequestStatusRejected, RequestStatusCancelled, RequestStatusAutoCancelled:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is possible
func (s RequestStatus) IsTerminal() bool {
	return len(requestTransitions[s]) == 0
}

// BlocksResubmission reports whether a request in this status prevents a new
// request between the same student and academician.
func (s RequestStatus) BlocksResubmission() bool {
	switch s {
	case RequestStatusCancelled, RequestStatusAutoCancelled, RequestStatusRejected:
		return false
	}
	return true
}

// CountsTowardCap reports whether the status is counted against MaxActiveRequests
func (s RequestStatus) CountsTowardCap() bool {
	return s == RequestStatusPending || s == RequestStatusAccepted
}

// CanTransitionTo checks the transition table
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	for _, allowed := range requestTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CapStatuses are the statuses counted against MaxActiveRequests.
var CapStatuses = []RequestStatus{RequestStatusPending, RequestStatusAccepted}

// ResubmissionBlockingStatuses are the statuses that keep a pair "occupied".
var ResubmissionBlockingStatuses = []RequestStatus{
	RequestStatusPending,
	RequestStatusPendingStudentAcceptance,
	RequestStatusAccepted,
}

// SupervisionRequest is a proposal from a student to an academician
type SupervisionRequest struct {
	ID                    int64         `json:"id"`
	StudentID             int64         `json:"student_id"`
	AcademicianID         int64         `json:"academician_id"`
	ProposalTitle         string        `json:"proposal_title"`
	Motivation            string        `json:"motivation"`
	PostgraduateProgramID *int64        `json:"postgraduate_program_id"`
	Status                RequestStatus `json:"status"`
	SubmittedAt           time.Time     `json:"submitted_at"`
	DecisionAt            *time.Time    `json:"decision_at"`
	CancelReason          string        `json:"cancel_reason"`
	ConversationID        *int64        `json:"conversation_id"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`

	// Not stored on the request row
	Attachments []RequestAttachment `json:"attachments,omitempty"`
}

// IsPending checks if the supervisor has not decided yet
func (r *SupervisionRequest) IsPending() bool {
	return r.Status == RequestStatusPending
}

// HasParty reports whether the user is the student or the academician
func (r *SupervisionRequest) HasParty(userID int64) bool {
	return r.StudentID == userID || r.AcademicianID == userID
}

// Counterparty returns the other side of the request for a party id
func (r *SupervisionRequest) Counterparty(userID int64) int64 {
	if userID == r.StudentID {
		return r.AcademicianID
	}
	return r.StudentID
}

// Transition moves the request to next, stamping decision time and reason.
func (r *SupervisionRequest) Transition(next RequestStatus, reason string, now time.Time) error {
	if !r.Status.CanTransitionTo(next) {
		return &TransitionError{Entity: "supervision request", From: string(r.Status), To: string(next)}
	}
	r.Status = next
	if next != RequestStatusPendingStudentAcceptance {
		r.DecisionAt = &now
	}
	if reason != "" {
		r.CancelReason = reason
	}
	r.UpdatedAt = now
	return nil
}

// RequestAttachment is a file uploaded with a request
type RequestAttachment struct {
	ID           int64     `json:"id"`
	RequestID    int64     `json:"request_id"`
	Type         string    `json:"type"` // proposal, cv, transcript, ...
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	StoragePath  string    `json:"storage_path"`
	CreatedAt    time.Time `json:"created_at"`
}

// AttachmentTypeProposal is the attachment type mined for an abstract.
const AttachmentTypeProposal = "proposal"
