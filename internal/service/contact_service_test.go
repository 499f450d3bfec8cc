package service

import (
	"context"
	"errors"
	"testing"

	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/queue"
	"go.uber.org/zap"
)

func TestContactServiceCreateRequest(t *testing.T) {
	t.Parallel()

	var stored *domain.ContactRequest
	contacts := &fakeContactRepo{
		createRequestFn: func(ctx context.Context, request *domain.ContactRequest) error {
			stored = request
			return nil
		},
	}

	svc, err := NewContactService(contacts, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	created, err := svc.CreateRequest(context.Background(), &domain.ContactRequest{
		FromUserID: "u1",
		ToUserID:   "u2",
		Status:     domain.RequestAccepted, // producers cannot pre-accept
	})
	if err != nil {
		t.Fatalf("CreateRequest() error = %v", err)
	}

	if created.ID == "" {
		t.Fatal("created request should get an id")
	}
	if created.Status != domain.RequestPending {
		t.Fatalf("status = %s, want pending", created.Status)
	}
	if stored == nil {
		t.Fatal("request should be persisted")
	}
}

func TestContactServiceCreateRequestRejectsSelfRequest(t *testing.T) {
	t.Parallel()

	svc, err := NewContactService(&fakeContactRepo{}, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	_, err = svc.CreateRequest(context.Background(), &domain.ContactRequest{
		FromUserID: "u1",
		ToUserID:   "u1",
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("CreateRequest() error = %v, want ErrValidation", err)
	}
}

func TestContactServiceAcceptPublishesEvent(t *testing.T) {
	t.Parallel()

	accepted := false
	contacts := &fakeContactRepo{
		acceptRequestFn: func(ctx context.Context, id string) error {
			accepted = true
			return nil
		},
	}

	var published queue.Message
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.Message) error {
			if queueName != queue.AcceptanceQueue {
				t.Fatalf("queue = %q, want %q", queueName, queue.AcceptanceQueue)
			}
			published = msg
			return nil
		},
	}

	svc, err := NewContactService(contacts, publisher, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	if err := svc.Accept(context.Background(), "r1"); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	if !accepted {
		t.Fatal("request should be marked accepted")
	}
	msg, ok := published.(queue.AcceptanceMessage)
	if !ok || msg.RequestID != "r1" {
		t.Fatalf("published = %+v, want acceptance message for r1", published)
	}
}

func TestContactServiceAcceptReplaysAlreadyAccepted(t *testing.T) {
	t.Parallel()

	contacts := &fakeContactRepo{
		acceptRequestFn: func(ctx context.Context, id string) error {
			return domain.ErrConflict
		},
		getRequestByIDFn: func(ctx context.Context, id string) (*domain.ContactRequest, error) {
			return &domain.ContactRequest{
				ID: id, FromUserID: "u1", ToUserID: "u2", Status: domain.RequestAccepted,
			}, nil
		},
	}

	publishCalled := false
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, queueName string, msg queue.Message) error {
			publishCalled = true
			return nil
		},
	}

	svc, err := NewContactService(contacts, publisher, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	if err := svc.Accept(context.Background(), "r1"); err != nil {
		t.Fatalf("Accept() on an accepted request should replay the event, got %v", err)
	}
	if !publishCalled {
		t.Fatal("accepting an already-accepted request should re-publish the event")
	}
}

func TestContactServiceAcceptUnknownRequest(t *testing.T) {
	t.Parallel()

	contacts := &fakeContactRepo{
		acceptRequestFn: func(ctx context.Context, id string) error {
			return domain.ErrConflict
		},
		getRequestByIDFn: func(ctx context.Context, id string) (*domain.ContactRequest, error) {
			return nil, domain.ErrNotFound
		},
	}

	svc, err := NewContactService(contacts, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	err = svc.Accept(context.Background(), "missing")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Accept() on unknown request error = %v, want ErrNotFound", err)
	}
}

func TestContactServiceAcceptRejectsDeclinedRequest(t *testing.T) {
	t.Parallel()

	contacts := &fakeContactRepo{
		acceptRequestFn: func(ctx context.Context, id string) error {
			return domain.ErrConflict
		},
		getRequestByIDFn: func(ctx context.Context, id string) (*domain.ContactRequest, error) {
			return &domain.ContactRequest{
				ID: id, FromUserID: "u1", ToUserID: "u2", Status: domain.RequestDeclined,
			}, nil
		},
	}

	svc, err := NewContactService(contacts, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	err = svc.Accept(context.Background(), "r1")
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("Accept() on declined request error = %v, want ErrConflict", err)
	}
}

func TestContactServiceListContacts(t *testing.T) {
	t.Parallel()

	contacts := &fakeContactRepo{
		listContactsFn: func(ctx context.Context, userID string) ([]domain.Contact, error) {
			if userID != "u1" {
				t.Fatalf("user id = %q, want trimmed u1", userID)
			}
			return []domain.Contact{{UserID: "u1", FriendID: "u2", Name: "Bob"}}, nil
		},
	}

	svc, err := NewContactService(contacts, &fakePublisher{}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewContactService() error = %v", err)
	}

	got, err := svc.ListContacts(context.Background(), " u1 ")
	if err != nil {
		t.Fatalf("ListContacts() error = %v", err)
	}
	if len(got) != 1 || got[0].FriendID != "u2" {
		t.Fatalf("contacts = %+v, want one contact with friend u2", got)
	}

	_, err = svc.ListContacts(context.Background(), "")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ListContacts(\"\") error = %v, want ErrValidation", err)
	}
}
