package model

import "time"

type UnbindStatus string

const (
	UnbindStatusPending     UnbindStatus = "pending"
	UnbindStatusApproved    UnbindStatus = "approved"
	UnbindStatusRejected    UnbindStatus = "rejected"
	UnbindStatusForceUnbind UnbindStatus = "force_unbind"
)

// CanTransitionTo checks the unbind transition table: only pending moves.
func (s UnbindStatus) CanTransitionTo(next UnbindStatus) bool {
	if s != UnbindStatusPending {
		return false
	}
	return next == UnbindStatusApproved || next == UnbindStatusRejected
}

type UnbindInitiator string

const (
	UnbindInitiatorStudent    UnbindInitiator = "student"
	UnbindInitiatorSupervisor UnbindInitiator = "supervisor"
)

const (
	// MaxAttemptsBeforeForce is the attempt number that terminates without consent.
	MaxAttemptsBeforeForce = 3
	// UnbindCooldown separates a rejected attempt from the next one.
	UnbindCooldown = 30 * 24 * time.Hour
)

// UnbindRequest negotiates the termination of a relationship
type UnbindRequest struct {
	ID                int64           `json:"id"`
	RelationshipID    int64           `json:"relationship_id"`
	InitiatedBy       UnbindInitiator `json:"initiated_by"`
	Reason            string          `json:"reason"`
	Status            UnbindStatus    `json:"status"`
	AttemptCount      int             `json:"attempt_count"`
	CooldownUntil     *time.Time      `json:"cooldown_until"`
	StudentApprovedAt *time.Time      `json:"student_approved_at"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// IsPending checks if the counterparty has not decided yet
func (u *UnbindRequest) IsPending() bool {
	return u.Status == UnbindStatusPending
}

// InCooldown reports whether the cooldown deadline is still ahead of now
func (u *UnbindRequest) InCooldown(now time.Time) bool {
	return u.CooldownUntil != nil && u.CooldownUntil.After(now)
}

// Approve marks the request approved; byStudent stamps StudentApprovedAt.
func (u *UnbindRequest) Approve(byStudent bool, now time.Time) error {
	if !u.Status.CanTransitionTo(UnbindStatusApproved) {
		return &TransitionError{Entity: "unbind request", From: string(u.Status), To: string(UnbindStatusApproved)}
	}
	u.Status = UnbindStatusApproved
	if byStudent {
		u.StudentApprovedAt = &now
	}
	u.UpdatedAt = now
	return nil
}

// Reject marks the request rejected and starts the cooldown.
func (u *UnbindRequest) Reject(now time.Time) error {
	if !u.Status.CanTransitionTo(UnbindStatusRejected) {
		return &TransitionError{Entity: "unbind request", From: string(u.Status), To: string(UnbindStatusRejected)}
	}
	until := now.Add(UnbindCooldown)
	u.Status = UnbindStatusRejected
	u.CooldownUntil = &until
	u.UpdatedAt = now
	return nil
}

// StatusForAttempt returns the status a new request with this attempt number starts in
func StatusForAttempt(attempt int) UnbindStatus {
	if attempt >= MaxAttemptsBeforeForce {
		return UnbindStatusForceUnbind
	}
	return UnbindStatusPending
}
