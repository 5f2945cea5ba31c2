package domain

import (
	"strings"
	"time"
)

// HelpRequestStatus represents the lifecycle state of a help request
type HelpRequestStatus string

const (
	StatusPending    HelpRequestStatus = "pending"
	StatusResolved   HelpRequestStatus = "resolved"
	StatusUnresolved HelpRequestStatus = "unresolved"
)

// HelpRequest is an escalated question awaiting human resolution.
// pending is the only non-terminal state; resolved and unresolved are final.
type HelpRequest struct {
	ID         int64
	CustomerID string
	Question   string
	Status     HelpRequestStatus
	Answer     string
	WebhookURL string
	CreatedAt  time.Time
	ResolvedAt *time.Time
}

// IsTerminal reports whether no further transition is permitted.
func (r *HelpRequest) IsTerminal() bool {
	return r.Status == StatusResolved || r.Status == StatusUnresolved
}

// CanTransitionTo reports whether the request may move to the target status.
func (r *HelpRequest) CanTransitionTo(target HelpRequestStatus) bool {
	if r.Status != StatusPending {
		return false
	}
	return target == StatusResolved || target == StatusUnresolved
}

// ValidateHelpRequest validates a HelpRequest instance
func ValidateHelpRequest(r *HelpRequest) error {
	if r == nil {
		return NewDomainError(ErrCodeValidation, "help request cannot be nil")
	}
	if r.CustomerID == "" {
		return NewDomainError(ErrCodeValidation, "help request CustomerID is required")
	}
	if strings.TrimSpace(r.Question) == "" {
		return ErrEmptyQuestion
	}
	if !isValidHelpRequestStatus(r.Status) {
		return NewDomainError(ErrCodeValidation, "help request status is invalid: "+string(r.Status))
	}
	if r.Status == StatusResolved && (r.Answer == "" || r.ResolvedAt == nil) {
		return NewDomainError(ErrCodeValidation, "resolved request requires answer and resolved_at")
	}
	return nil
}

func isValidHelpRequestStatus(s HelpRequestStatus) bool {
	switch s {
	case StatusPending, StatusResolved, StatusUnresolved:
		return true
	}
	return false
}
