package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/repository"
	"go.uber.org/zap"
)

// ContactService is the producer side of the acceptance queue.
type ContactService struct {
	contacts  repository.ContactRepository
	publisher queue.Publisher
	logger    *zap.Logger
}

func NewContactService(
	contacts repository.ContactRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*ContactService, error) {
	if contacts == nil {
		return nil, fmt.Errorf("contact repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &ContactService{
		contacts:  contacts,
		publisher: publisher,
		logger:    logger,
	}, nil
}

func (s *ContactService) CreateRequest(ctx context.Context, request *domain.ContactRequest) (*domain.ContactRequest, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if request == nil {
		return nil, fmt.Errorf("%w: contact request is required", domain.ErrValidation)
	}

	request.ID = strings.TrimSpace(request.ID)
	if request.ID == "" {
		request.ID = uuid.NewString()
	}
	request.FromUserID = strings.TrimSpace(request.FromUserID)
	request.ToUserID = strings.TrimSpace(request.ToUserID)
	request.Status = domain.RequestPending

	if err := request.Validate(); err != nil {
		return nil, err
	}

	if err := s.contacts.CreateRequest(ctx, request); err != nil {
		return nil, err
	}

	return request, nil
}

// Accept marks a request accepted and publishes the acceptance event. Calling
// Accept again on an already-accepted request only re-publishes the event,
// which the mirror handles idempotently.
func (s *ContactService) Accept(ctx context.Context, requestID string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return fmt.Errorf("%w: request id is required", domain.ErrValidation)
	}

	if err := s.contacts.AcceptRequest(ctx, requestID); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			return err
		}

		request, getErr := s.contacts.GetRequestByID(ctx, requestID)
		if errors.Is(getErr, domain.ErrNotFound) {
			return getErr
		}
		if getErr != nil {
			return err
		}
		if request.Status != domain.RequestAccepted {
			return fmt.Errorf("%w: request %s is %s", domain.ErrConflict, requestID, request.Status)
		}
		// Already accepted: fall through and re-publish so a lost event
		// can be replayed.
	}

	msg := queue.AcceptanceMessage{RequestID: requestID}
	if err := s.publisher.Publish(ctx, queue.AcceptanceQueue, msg); err != nil {
		return fmt.Errorf("failed to publish acceptance event: %w", err)
	}

	return nil
}

func (s *ContactService) ListContacts(ctx context.Context, userID string) ([]domain.Contact, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.contacts.ListContacts(ctx, userID)
}
