package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHelpRequestTransitions(t *testing.T) {
	pending := &HelpRequest{Status: StatusPending}
	assert.False(t, pending.IsTerminal())
	assert.True(t, pending.CanTransitionTo(StatusResolved))
	assert.True(t, pending.CanTransitionTo(StatusUnresolved))
	assert.False(t, pending.CanTransitionTo(StatusPending))

	resolved := &HelpRequest{Status: StatusResolved}
	assert.True(t, resolved.IsTerminal())
	assert.False(t, resolved.CanTransitionTo(StatusUnresolved))
	assert.False(t, resolved.CanTransitionTo(StatusResolved))

	unresolved := &HelpRequest{Status: StatusUnresolved}
	assert.True(t, unresolved.IsTerminal())
	assert.False(t, unresolved.CanTransitionTo(StatusResolved))
}

func TestValidateHelpRequest(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		request *HelpRequest
		wantErr bool
	}{
		{
			name: "valid pending",
			request: &HelpRequest{
				CustomerID: "caller-1",
				Question:   "do you take walk-ins?",
				Status:     StatusPending,
			},
		},
		{
			name:    "nil",
			request: nil,
			wantErr: true,
		},
		{
			name: "missing customer",
			request: &HelpRequest{
				Question: "anything",
				Status:   StatusPending,
			},
			wantErr: true,
		},
		{
			name: "blank question",
			request: &HelpRequest{
				CustomerID: "caller-1",
				Question:   "   ",
				Status:     StatusPending,
			},
			wantErr: true,
		},
		{
			name: "bogus status",
			request: &HelpRequest{
				CustomerID: "caller-1",
				Question:   "anything",
				Status:     HelpRequestStatus("archived"),
			},
			wantErr: true,
		},
		{
			name: "resolved without answer",
			request: &HelpRequest{
				CustomerID: "caller-1",
				Question:   "anything",
				Status:     StatusResolved,
				ResolvedAt: &now,
			},
			wantErr: true,
		},
		{
			name: "resolved complete",
			request: &HelpRequest{
				CustomerID: "caller-1",
				Question:   "anything",
				Status:     StatusResolved,
				Answer:     "yes",
				ResolvedAt: &now,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateHelpRequest(tt.request)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateKnowledgeItem(t *testing.T) {
	assert.NoError(t, ValidateKnowledgeItem(&KnowledgeItem{
		ID:       "7a0e5f66-9d35-4c0e-8f44-000000000001",
		Question: "what are your hours?",
		Answer:   "nine to six",
	}))

	assert.Error(t, ValidateKnowledgeItem(nil))
	assert.ErrorIs(t, ValidateKnowledgeItem(&KnowledgeItem{ID: "x", Question: " ", Answer: "a"}), ErrEmptyQuestion)
	assert.ErrorIs(t, ValidateKnowledgeItem(&KnowledgeItem{ID: "x", Question: "q", Answer: "\t"}), ErrEmptyAnswer)
}
