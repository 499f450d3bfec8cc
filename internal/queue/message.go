package queue

import (
	"errors"
	"fmt"
	"strings"
)

// ErrReject tells the consumer a delivery can never be processed and belongs
// in the dead-letter queue instead of being requeued.
var ErrReject = errors.New("reject delivery")

// IntentMessage triggers one dispatcher invocation for a stored intent.
type IntentMessage struct {
	IntentID      string `json:"intentId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (m IntentMessage) Validate() error {
	if strings.TrimSpace(m.IntentID) == "" {
		return fmt.Errorf("intentId is required")
	}
	return nil
}

func (m IntentMessage) MessageID() string   { return m.IntentID }
func (m IntentMessage) Correlation() string { return m.CorrelationID }

// AcceptanceMessage triggers one mirror invocation for an accepted contact
// request.
type AcceptanceMessage struct {
	RequestID     string `json:"requestId"`
	CorrelationID string `json:"correlationId,omitempty"`
}

func (m AcceptanceMessage) Validate() error {
	if strings.TrimSpace(m.RequestID) == "" {
		return fmt.Errorf("requestId is required")
	}
	return nil
}

func (m AcceptanceMessage) MessageID() string   { return m.RequestID }
func (m AcceptanceMessage) Correlation() string { return m.CorrelationID }
