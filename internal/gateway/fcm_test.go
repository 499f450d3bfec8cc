package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
)

func TestFCMGatewaySendSuccess(t *testing.T) {
	t.Parallel()

	var gotBody fcmRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if got := r.Header.Get("Authorization"); got != "key=test-key" {
			t.Errorf("authorization = %q, want %q", got, "key=test-key")
		}

		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{
			"success": 2,
			"failure": 1,
			"results": [
				{"message_id": "m1"},
				{"error": "NotRegistered"},
				{"message_id": "m3"}
			]
		}`))
	}))
	defer server.Close()

	g, err := NewFCMGateway(server.URL, "test-key")
	if err != nil {
		t.Fatalf("NewFCMGateway() error = %v", err)
	}

	tokens := []string{"tok-a", "tok-b", "tok-c"}
	result, err := g.Send(context.Background(), tokens, Message{
		Notification: Notification{Title: "Kalender aktualisiert", Body: "Es gibt neue Updates."},
		Data:         map[string]string{"type": "update", "url": "https://example.test/app"},
		Link:         "https://example.test/app",
	})
	if err != nil {
		t.Fatalf("Send() unexpected error: %v", err)
	}

	if result.SuccessCount != 2 || result.FailureCount != 1 {
		t.Fatalf("counts = %d/%d, want 2/1", result.SuccessCount, result.FailureCount)
	}
	if len(result.Outcomes) != 3 {
		t.Fatalf("outcomes = %d, want 3", len(result.Outcomes))
	}

	failed := result.Outcomes[1]
	if failed.Success || failed.Token != "tok-b" || failed.ErrorCode != "NotRegistered" {
		t.Fatalf("outcome[1] = %+v, want failed tok-b NotRegistered", failed)
	}
	if !result.Outcomes[0].Success || !result.Outcomes[2].Success {
		t.Fatal("outcomes 0 and 2 should be successful")
	}

	if len(gotBody.RegistrationIDs) != 3 {
		t.Fatalf("registration_ids = %d, want 3", len(gotBody.RegistrationIDs))
	}
	if gotBody.Webpush == nil || gotBody.Webpush.FCMOptions.Link != "https://example.test/app" {
		t.Fatalf("webpush link not forwarded: %+v", gotBody.Webpush)
	}
}

func TestFCMGatewaySendStatusClassification(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name          string
		statusCode    int
		wantTransient bool
	}{
		{name: "too many requests is transient", statusCode: http.StatusTooManyRequests, wantTransient: true},
		{name: "unauthorized is permanent", statusCode: http.StatusUnauthorized, wantTransient: false},
		{name: "internal server error is transient", statusCode: http.StatusInternalServerError, wantTransient: true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				_, _ = w.Write([]byte("gateway failed"))
			}))
			defer server.Close()

			g, err := NewFCMGateway(server.URL, "test-key")
			if err != nil {
				t.Fatalf("NewFCMGateway() error = %v", err)
			}

			_, err = g.Send(context.Background(), []string{"tok-a"}, Message{})
			if err == nil {
				t.Fatal("expected error")
			}

			if got := IsTransient(err); got != tc.wantTransient {
				t.Fatalf("IsTransient() = %v, want %v", got, tc.wantTransient)
			}

			var gatewayErr *GatewayError
			if !errors.As(err, &gatewayErr) {
				t.Fatalf("expected GatewayError, got %T", err)
			}
			if gatewayErr.StatusCode != tc.statusCode {
				t.Fatalf("GatewayError.StatusCode = %d, want %d", gatewayErr.StatusCode, tc.statusCode)
			}
		})
	}
}

func TestFCMGatewaySendResultCountMismatch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success": 1, "failure": 0, "results": [{"message_id": "m1"}]}`))
	}))
	defer server.Close()

	g, err := NewFCMGateway(server.URL, "test-key")
	if err != nil {
		t.Fatalf("NewFCMGateway() error = %v", err)
	}

	_, err = g.Send(context.Background(), []string{"tok-a", "tok-b"}, Message{})
	if err == nil {
		t.Fatal("expected error for result count mismatch")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true (err=%v)", err)
	}
}

func TestFCMGatewaySendTimeoutIsTransient(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"success": 1, "failure": 0, "results": [{"message_id": "m1"}]}`))
	}))
	defer server.Close()

	client := resty.New()
	client.SetTimeout(30 * time.Millisecond)

	g, err := NewFCMGatewayWithClient(server.URL, "test-key", client)
	if err != nil {
		t.Fatalf("NewFCMGatewayWithClient() error = %v", err)
	}

	_, err = g.Send(context.Background(), []string{"tok-a"}, Message{})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !IsTransient(err) {
		t.Fatalf("IsTransient() = false, want true (err=%v)", err)
	}
}

func TestIsPermanentFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want bool
	}{
		{code: "UNREGISTERED", want: true},
		{code: "NotRegistered", want: true},
		{code: "InvalidRegistration", want: true},
		{code: "INVALID_ARGUMENT", want: true},
		{code: "NOT_FOUND", want: true},
		{code: "UNAVAILABLE", want: false},
		{code: "QUOTA_EXCEEDED", want: false},
		{code: "InternalServerError", want: false},
		{code: "", want: false},
	}

	for _, tt := range tests {
		if got := IsPermanentFailure(tt.code); got != tt.want {
			t.Fatalf("IsPermanentFailure(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestPermanentlyInvalidTokens(t *testing.T) {
	t.Parallel()

	outcomes := []EndpointOutcome{
		{Index: 0, Token: "tok-a", Success: true},
		{Index: 1, Token: "tok-b", Success: false, ErrorCode: "UNREGISTERED"},
		{Index: 2, Token: "tok-c", Success: false, ErrorCode: "UNAVAILABLE"},
		{Index: 3, Token: "tok-d", Success: false, ErrorCode: "InvalidRegistration"},
	}

	got := PermanentlyInvalidTokens(outcomes)
	want := []string{"tok-b", "tok-d"}

	if len(got) != len(want) {
		t.Fatalf("PermanentlyInvalidTokens() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("PermanentlyInvalidTokens()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}
