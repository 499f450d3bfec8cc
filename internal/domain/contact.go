package domain

import (
	"fmt"
	"strings"
	"time"
)

// RequestStatus represents the acceptance state of a contact request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestPending, RequestAccepted, RequestDeclined:
		return true
	}
	return false
}

func ParseRequestStatusFromString(s string) (RequestStatus, error) {
	st := RequestStatus(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: invalid request status %q", ErrValidation, s)
	}
	return st, nil
}

// ContactRequest is the acceptance-state record the mirror consumes. It is
// deleted after a successful mirror run.
type ContactRequest struct {
	ID         string
	FromUserID string
	ToUserID   string
	FromName   string
	ToName     string
	Status     RequestStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *ContactRequest) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: contact request is required", ErrValidation)
	}
	if strings.TrimSpace(r.FromUserID) == "" {
		return fmt.Errorf("%w: from user id is required", ErrValidation)
	}
	if strings.TrimSpace(r.ToUserID) == "" {
		return fmt.Errorf("%w: to user id is required", ErrValidation)
	}
	if r.FromUserID == r.ToUserID {
		return fmt.Errorf("%w: a contact request must involve two distinct users", ErrValidation)
	}
	if !r.Status.IsValid() {
		return fmt.Errorf("%w: invalid request status %q", ErrValidation, r.Status)
	}
	return nil
}

// Contact is one half of a mirrored relationship, stored under UserID and
// pointing at FriendID. The pair key makes duplicate mirror runs self-heal.
type Contact struct {
	UserID     string
	FriendID   string
	Name       string
	AcceptedAt time.Time
}

// FallbackDisplayName derives a short placeholder from a user id when the
// request carried no display name: the first 6 runes plus an ellipsis, even
// for ids shorter than that, so a truncated id is never mistaken for a real
// name.
func FallbackDisplayName(userID string) string {
	runes := []rune(userID)
	if len(runes) > 6 {
		runes = runes[:6]
	}
	return string(runes) + "…"
}
