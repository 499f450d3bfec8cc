package gateway

import (
	"context"
	"strings"
)

// Notification is the visible part of a push message. The dispatcher only
// ever fills it with fixed neutral text.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Message is one fan-out payload addressed to a set of endpoint tokens.
type Message struct {
	Notification Notification
	Data         map[string]string
	Link         string
}

// EndpointOutcome pairs one input token with its delivery result. Carrying
// the token alongside the index keeps pruning correct even if the result
// ordering contract of a gateway ever changes.
type EndpointOutcome struct {
	Index     int
	Token     string
	Success   bool
	ErrorCode string
}

// DispatchResult aggregates one fan-out call.
type DispatchResult struct {
	SuccessCount int
	FailureCount int
	Outcomes     []EndpointOutcome
}

// Gateway is the outbound multicast delivery port.
type Gateway interface {
	Send(ctx context.Context, tokens []string, msg Message) (*DispatchResult, error)
}

// Error codes that mean an endpoint will never be deliverable again. Both the
// HTTP v1 spellings and the legacy batch-result spellings are recognized.
var permanentFailureCodes = map[string]struct{}{
	"UNREGISTERED":        {},
	"NOT_FOUND":           {},
	"INVALID_ARGUMENT":    {},
	"NOTREGISTERED":       {},
	"INVALIDREGISTRATION": {},
	"MISSINGREGISTRATION": {},
}

// IsPermanentFailure reports whether an outcome error code marks the endpoint
// as gone for good. Transient codes (rate limit, server unavailable) return
// false so the endpoint survives the pruning pass.
func IsPermanentFailure(errorCode string) bool {
	normalized := strings.ToUpper(strings.TrimSpace(errorCode))
	if normalized == "" {
		return false
	}
	_, ok := permanentFailureCodes[normalized]
	return ok
}

// PermanentlyInvalidTokens selects the original tokens whose outcomes mark
// them as permanently undeliverable.
func PermanentlyInvalidTokens(outcomes []EndpointOutcome) []string {
	var invalid []string
	for _, outcome := range outcomes {
		if outcome.Success {
			continue
		}
		if IsPermanentFailure(outcome.ErrorCode) {
			invalid = append(invalid, outcome.Token)
		}
	}
	return invalid
}
