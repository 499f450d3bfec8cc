package queue

import "testing"

func TestQueueNames(t *testing.T) {
	work := WorkQueueNames()
	if len(work) != 2 {
		t.Fatalf("WorkQueueNames len = %d, want 2", len(work))
	}

	expected := map[string]struct{}{
		"intents":     {},
		"acceptances": {},
	}

	for _, name := range work {
		if _, ok := expected[name]; !ok {
			t.Fatalf("unexpected queue name: %s", name)
		}
	}

	dlq := DLQNames()
	if len(dlq) != 2 {
		t.Fatalf("DLQNames len = %d, want 2", len(dlq))
	}

	expectedDLQ := map[string]struct{}{
		"dlq.intents":     {},
		"dlq.acceptances": {},
	}

	for _, name := range dlq {
		if _, ok := expectedDLQ[name]; !ok {
			t.Fatalf("unexpected dlq name: %s", name)
		}
	}
}

func TestDLQName(t *testing.T) {
	if got := DLQName(IntentQueue); got != "dlq.intents" {
		t.Fatalf("DLQName = %s, want dlq.intents", got)
	}
}

func TestIntentMessageValidate(t *testing.T) {
	msg := IntentMessage{IntentID: "intent-1", CorrelationID: "cid-1"}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}
	if msg.MessageID() != "intent-1" {
		t.Fatalf("MessageID() = %s, want intent-1", msg.MessageID())
	}
	if msg.Correlation() != "cid-1" {
		t.Fatalf("Correlation() = %s, want cid-1", msg.Correlation())
	}

	empty := IntentMessage{}
	if err := empty.Validate(); err == nil {
		t.Fatal("Validate() should fail for missing intentId")
	}
}

func TestAcceptanceMessageValidate(t *testing.T) {
	msg := AcceptanceMessage{RequestID: "req-1"}
	if err := msg.Validate(); err != nil {
		t.Fatalf("Validate() unexpected error = %v", err)
	}

	empty := AcceptanceMessage{}
	if err := empty.Validate(); err == nil {
		t.Fatal("Validate() should fail for missing requestId")
	}
}
