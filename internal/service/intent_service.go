package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/repository"
	"go.uber.org/zap"
)

// IntentService is the producer side of the intent queue: it persists intents
// and enqueues one dispatch message per creation.
type IntentService struct {
	intents   repository.IntentRepository
	publisher queue.Publisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewIntentService(
	intents repository.IntentRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*IntentService, error) {
	if intents == nil {
		return nil, fmt.Errorf("intent repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &IntentService{
		intents:   intents,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Create stores an intent and publishes its dispatch message. When publishing
// fails the intent stays pending; the reconciler re-publishes it later, so
// the caller still gets the created record back.
func (s *IntentService) Create(ctx context.Context, intent *domain.Intent) (*domain.Intent, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if intent == nil {
		return nil, fmt.Errorf("%w: intent is required", domain.ErrValidation)
	}

	intent.RecipientUserID = strings.TrimSpace(intent.RecipientUserID)
	intent.ID = strings.TrimSpace(intent.ID)
	if intent.ID == "" {
		intent.ID = uuid.NewString()
	}
	intent.CorrelationID = strings.TrimSpace(intent.CorrelationID)
	if intent.CorrelationID == "" {
		intent.CorrelationID = uuid.NewString()
	}
	intent.Status = domain.StatusPending
	intent.ProcessedAt = nil
	intent.SuccessCount = 0
	intent.FailureCount = 0
	intent.Error = nil

	if err := intent.Validate(); err != nil {
		return nil, err
	}

	if err := s.intents.Create(ctx, intent); err != nil {
		return nil, err
	}

	msg := queue.IntentMessage{
		IntentID:      intent.ID,
		CorrelationID: intent.CorrelationID,
	}
	if err := s.publisher.Publish(ctx, queue.IntentQueue, msg); err != nil {
		s.logger.Warn("failed to publish intent, reconciler will retry",
			zap.String("intentId", intent.ID),
			zap.Error(err),
		)
		return intent, nil
	}

	if err := s.intents.TouchEnqueued(ctx, intent.ID, s.now().UTC()); err != nil {
		s.logger.Warn("failed to stamp enqueued intent",
			zap.String("intentId", intent.ID),
			zap.Error(err),
		)
	}

	return intent, nil
}

func (s *IntentService) GetByID(ctx context.Context, id string) (*domain.Intent, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: intent id is required", domain.ErrValidation)
	}
	return s.intents.GetByID(ctx, strings.TrimSpace(id))
}
