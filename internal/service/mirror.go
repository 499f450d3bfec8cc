package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/observability"
	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/repository"
	"go.uber.org/zap"
)

// Mirror consumes acceptance events and writes both halves of a contact
// relationship, then removes the request record.
type Mirror struct {
	contacts repository.ContactRepository
	consumer queue.Consumer
	logger   *zap.Logger
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewMirror(
	contacts repository.ContactRepository,
	consumer queue.Consumer,
	logger *zap.Logger,
) (*Mirror, error) {
	if contacts == nil {
		return nil, fmt.Errorf("contact repository is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Mirror{
		contacts: contacts,
		consumer: consumer,
		logger:   logger,
		now:      time.Now,
	}, nil
}

func (m *Mirror) SetMetrics(metrics *observability.Metrics) {
	if m == nil {
		return
	}
	m.metrics = metrics
}

// Start consumes the acceptance queue until context cancellation.
func (m *Mirror) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m.logger.Info("mirror consumer started")
	return m.consumer.Consume(ctx, queue.AcceptanceQueue, m.handleMessage)
}

func (m *Mirror) handleMessage(ctx context.Context, body []byte) error {
	var msg queue.AcceptanceMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", queue.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrReject, err)
	}

	ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	return m.HandleAcceptance(ctx, msg.RequestID)
}

// HandleAcceptance mirrors one accepted contact request. Re-running on an
// already-mirrored request is harmless: the contact writes are upserts and a
// deleted request is treated as done.
func (m *Mirror) HandleAcceptance(ctx context.Context, requestID string) error {
	logger := observability.WithContextLogger(m.logger, ctx)

	request, err := m.contacts.GetRequestByID(ctx, requestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Info("contact request already mirrored, skipping",
				zap.String("requestId", requestID),
			)
			return nil
		}
		return fmt.Errorf("failed to load contact request: %w", err)
	}

	if request.Status != domain.RequestAccepted {
		logger.Info("contact request not accepted, skipping",
			zap.String("requestId", requestID),
			zap.String("status", request.Status.String()),
		)
		return nil
	}

	if strings.TrimSpace(request.FromUserID) == "" || strings.TrimSpace(request.ToUserID) == "" {
		logger.Warn("contact request missing participant, skipping",
			zap.String("requestId", requestID),
		)
		return nil
	}

	fromName := strings.TrimSpace(request.FromName)
	if fromName == "" {
		fromName = domain.FallbackDisplayName(request.FromUserID)
	}
	toName := strings.TrimSpace(request.ToName)
	if toName == "" {
		toName = domain.FallbackDisplayName(request.ToUserID)
	}

	acceptedAt := m.now().UTC()
	first := domain.Contact{
		UserID:     request.FromUserID,
		FriendID:   request.ToUserID,
		Name:       toName,
		AcceptedAt: acceptedAt,
	}
	second := domain.Contact{
		UserID:     request.ToUserID,
		FriendID:   request.FromUserID,
		Name:       fromName,
		AcceptedAt: acceptedAt,
	}

	// Both writes happen in one transaction: either both sides see the
	// relationship or neither does, and the invocation retries.
	if err := m.contacts.MirrorContacts(ctx, first, second); err != nil {
		return fmt.Errorf("failed to mirror contacts: %w", err)
	}

	// Cleanup is best-effort; a leftover request re-runs as an upsert.
	if err := m.contacts.DeleteRequest(ctx, requestID); err != nil {
		logger.Warn("failed to delete mirrored contact request",
			zap.String("requestId", requestID),
			zap.Error(err),
		)
	}

	if m.metrics != nil {
		m.metrics.IncContactsMirrored()
	}
	logger.Info("contact request mirrored", zap.String("requestId", requestID))
	return nil
}
