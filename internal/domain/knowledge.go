package domain

import (
	"strings"
	"time"
)

// KnowledgeItem is an authoritative question/answer record. The question is
// the unique key: resolving the same question again updates the stored answer
// in place rather than creating a duplicate.
type KnowledgeItem struct {
	ID        string
	Question  string
	Answer    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateKnowledgeItem validates a KnowledgeItem instance
func ValidateKnowledgeItem(k *KnowledgeItem) error {
	if k == nil {
		return NewDomainError(ErrCodeValidation, "knowledge item cannot be nil")
	}
	if k.ID == "" {
		return NewDomainError(ErrCodeValidation, "knowledge item ID is required")
	}
	if strings.TrimSpace(k.Question) == "" {
		return ErrEmptyQuestion
	}
	if strings.TrimSpace(k.Answer) == "" {
		return ErrEmptyAnswer
	}
	return nil
}

// BusinessInfo is a key/value entry of the business profile (name, hours,
// address, ...) injected into the receptionist prompt.
type BusinessInfo struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}
