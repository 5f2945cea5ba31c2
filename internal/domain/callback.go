package domain

import "time"

// CallbackBinding maps a help request to the caller session that must receive
// the eventual answer. Bindings outlive the process so a request escalated in
// one agent session can still reach its caller after a restart.
type CallbackBinding struct {
	RequestID    int64
	SessionToken string
	UpdatedAt    time.Time
}
