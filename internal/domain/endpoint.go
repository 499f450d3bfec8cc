package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the client surface an endpoint belongs to.
type Platform string

const (
	PlatformWeb     Platform = "WEB"
	PlatformAndroid Platform = "ANDROID"
	PlatformIOS     Platform = "IOS"
)

func (p Platform) String() string { return string(p) }

func (p Platform) IsValid() bool {
	switch p {
	case PlatformWeb, PlatformAndroid, PlatformIOS:
		return true
	}
	return false
}

func ParsePlatformFromString(s string) (Platform, error) {
	p := Platform(strings.ToUpper(strings.TrimSpace(s)))
	if p == "" {
		return PlatformWeb, nil
	}
	if !p.IsValid() {
		return "", fmt.Errorf("%w: invalid platform %q", ErrValidation, s)
	}
	return p, nil
}

// Endpoint is one push registration owned by a single user. The token is an
// opaque gateway address and must never appear in logs or message content.
type Endpoint struct {
	Token      string
	UserID     string
	Platform   Platform
	CreatedAt  time.Time
	LastSeenAt time.Time
}

func (e *Endpoint) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: endpoint is required", ErrValidation)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if strings.TrimSpace(e.Token) == "" {
		return fmt.Errorf("%w: token is required", ErrValidation)
	}
	if !e.Platform.IsValid() {
		return fmt.Errorf("%w: invalid platform %q", ErrValidation, e.Platform)
	}
	return nil
}
