package domain

import (
	"errors"
	"testing"
)

func TestParseStatusFromString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    Status
		wantErr bool
	}{
		{name: "valid uppercase", input: "SENT", want: StatusSent},
		{name: "valid lowercase with spaces", input: " no_tokens ", want: StatusNoTokens},
		{name: "pending", input: "pending", want: StatusPending},
		{name: "invalid value", input: "delivered", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseStatusFromString(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("ParseStatusFromString() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("ParseStatusFromString() unexpected error = %v", err)
			}
			if got != tt.want {
				t.Fatalf("ParseStatusFromString() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestStatusIsTerminal(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status Status
		want   bool
	}{
		{status: StatusPending, want: false},
		{status: StatusInvalid, want: true},
		{status: StatusNoTokens, want: true},
		{status: StatusSent, want: true},
		{status: Status("bogus"), want: false},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Fatalf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestIntentValidate(t *testing.T) {
	t.Parallel()

	base := Intent{
		RecipientUserID: "user-1",
		Status:          StatusPending,
	}

	tests := []struct {
		name    string
		mutate  func(*Intent)
		wantErr bool
	}{
		{
			name:   "valid intent",
			mutate: func(i *Intent) {},
		},
		{
			name: "missing recipient",
			mutate: func(i *Intent) {
				i.RecipientUserID = "  "
			},
			wantErr: true,
		},
		{
			name: "invalid status",
			mutate: func(i *Intent) {
				i.Status = Status("DONE")
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			current := base
			tt.mutate(&current)

			err := current.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("Validate() error = %v, want ErrValidation", err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Validate() unexpected error = %v", err)
			}
		})
	}
}

func TestContactRequestValidate(t *testing.T) {
	t.Parallel()

	valid := ContactRequest{
		ID:         "req-1",
		FromUserID: "u1",
		ToUserID:   "u2",
		Status:     RequestAccepted,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	selfRequest := valid
	selfRequest.ToUserID = "u1"
	if err := selfRequest.Validate(); !errors.Is(err, ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}

	_, err := ParseRequestStatusFromString("maybe")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("ParseRequestStatusFromString() error = %v, want ErrValidation", err)
	}
}

func TestFallbackDisplayName(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		userID string
		want   string
	}{
		{name: "long id truncated to six runes", userID: "abcdefghij", want: "abcdef…"},
		{name: "exactly six runes", userID: "abcdef", want: "abcdef…"},
		{name: "short id keeps the ellipsis", userID: "abc", want: "abc…"},
		{name: "multibyte runes counted not bytes", userID: "äöüßäöüß", want: "äöüßäö…"},
		{name: "empty id", userID: "", want: "…"},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := FallbackDisplayName(tc.userID); got != tc.want {
				t.Fatalf("FallbackDisplayName(%q) = %q, want %q", tc.userID, got, tc.want)
			}
		})
	}
}
