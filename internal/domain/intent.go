package domain

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle state of a notification intent.
type Status string

const (
	// StatusPending is the initial state of every intent.
	StatusPending Status = "PENDING"
	// StatusInvalid means the intent could never be dispatched (missing recipient).
	StatusInvalid Status = "INVALID"
	// StatusNoTokens means the recipient had no registered endpoints at dispatch time.
	StatusNoTokens Status = "NO_TOKENS"
	// StatusSent means the fan-out call completed; per-endpoint counts are recorded.
	StatusSent Status = "SENT"
)

func (s Status) String() string { return string(s) }

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInvalid, StatusNoTokens, StatusSent:
		return true
	}
	return false
}

// IsTerminal reports whether the status may never change again.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusInvalid, StatusNoTokens, StatusSent:
		return true
	}
	return false
}

func ParseStatusFromString(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid status %q", ErrValidation, s)
	}
	return st, nil
}

// Intent is a durable request to notify one user. It is written once by a
// producer and receives exactly one terminal status write from the dispatcher.
type Intent struct {
	ID              string
	CorrelationID   string
	RecipientUserID string
	Data            map[string]string
	Status          Status
	ProcessedAt     *time.Time
	SuccessCount    int
	FailureCount    int
	Error           *string
	LastEnqueuedAt  *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (i *Intent) Validate() error {
	if i == nil {
		return fmt.Errorf("%w: intent is required", ErrValidation)
	}
	if strings.TrimSpace(i.RecipientUserID) == "" {
		return fmt.Errorf("%w: recipientUserId is required", ErrValidation)
	}
	if !i.Status.IsValid() {
		return fmt.Errorf("%w: invalid status %q", ErrValidation, i.Status)
	}
	return nil
}

// TerminalUpdate carries the one-shot status write merged onto an intent.
// Fields left nil are not touched, so producer-written fields survive.
type TerminalUpdate struct {
	Status       Status
	ProcessedAt  time.Time
	SuccessCount *int
	FailureCount *int
	Error        *string
}
