package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timeroster/push-relay/internal/domain"
	"github.com/timeroster/push-relay/internal/gateway"
	"github.com/timeroster/push-relay/internal/observability"
	"github.com/timeroster/push-relay/internal/queue"
	"github.com/timeroster/push-relay/internal/ratelimit"
	"github.com/timeroster/push-relay/internal/registry"
	"github.com/timeroster/push-relay/internal/repository"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	minDispatcherConcurrency = 1

	// Notification text is deliberately fixed: the push surface must never
	// leak calendar content.
	neutralTitle = "Kalender aktualisiert"
	neutralBody  = "Es gibt neue Updates."

	defaultMessageType = "update"
	gatewayResource    = "push"
)

// Dispatcher consumes intent messages and runs the fan-out state machine:
// resolve endpoints, send the neutral message, prune dead endpoints, record
// a terminal status.
type Dispatcher struct {
	intents     repository.IntentRepository
	endpoints   registry.Registry
	gateway     gateway.Gateway
	consumer    queue.Consumer
	rateLimiter ratelimit.RateLimiter
	logger      *zap.Logger
	metrics     *observability.Metrics
	concurrency int
	appURL      string
	now         func() time.Time
}

func NewDispatcher(
	intents repository.IntentRepository,
	endpoints registry.Registry,
	gw gateway.Gateway,
	consumer queue.Consumer,
	rateLimiter ratelimit.RateLimiter,
	concurrency int,
	appURL string,
	logger *zap.Logger,
) (*Dispatcher, error) {
	if intents == nil {
		return nil, fmt.Errorf("intent repository is required")
	}
	if endpoints == nil {
		return nil, fmt.Errorf("endpoint registry is required")
	}
	if gw == nil {
		return nil, fmt.Errorf("gateway is required")
	}
	if strings.TrimSpace(appURL) == "" {
		return nil, fmt.Errorf("app url is required")
	}
	if concurrency < minDispatcherConcurrency {
		concurrency = minDispatcherConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		intents:     intents,
		endpoints:   endpoints,
		gateway:     gw,
		consumer:    consumer,
		rateLimiter: rateLimiter,
		logger:      logger,
		concurrency: concurrency,
		appURL:      strings.TrimSpace(appURL),
		now:         time.Now,
	}, nil
}

func (d *Dispatcher) SetMetrics(metrics *observability.Metrics) {
	if d == nil {
		return
	}
	d.metrics = metrics
}

// Start consumes the intent queue until context cancellation.
func (d *Dispatcher) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	g, groupCtx := errgroup.WithContext(ctx)
	for i := 0; i < d.concurrency; i++ {
		workerID := i + 1

		g.Go(func() error {
			d.logger.Info("dispatcher worker started", zap.Int("workerId", workerID))

			err := d.consumer.Consume(groupCtx, queue.IntentQueue, d.handleMessage)
			if err != nil {
				d.logger.Error("dispatcher worker stopped with error",
					zap.Int("workerId", workerID),
					zap.Error(err),
				)
				return err
			}

			d.logger.Info("dispatcher worker stopped", zap.Int("workerId", workerID))
			return nil
		})
	}

	return g.Wait()
}

func (d *Dispatcher) handleMessage(ctx context.Context, body []byte) error {
	var msg queue.IntentMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", queue.ErrReject, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrReject, err)
	}

	ctx = observability.WithCorrelationID(ctx, msg.CorrelationID)
	return d.HandleIntent(ctx, msg.IntentID)
}

// HandleIntent processes one intent to a terminal status. An error return
// leaves the intent without a terminal status and relies on broker redelivery;
// processing is idempotent up to the gateway call, and the terminal-status
// guard prevents a double send after it.
func (d *Dispatcher) HandleIntent(ctx context.Context, intentID string) error {
	logger := observability.WithContextLogger(d.logger, ctx)

	intent, err := d.intents.GetByID(ctx, intentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn("intent not found, skipping", zap.String("intentId", intentID))
			return nil
		}
		return fmt.Errorf("failed to load intent: %w", err)
	}

	// Idempotency guard: a redelivered message for an already-processed
	// intent must not trigger a second send.
	if intent.Status.IsTerminal() {
		logger.Info("intent already processed, skipping",
			zap.String("intentId", intent.ID),
			zap.String("status", intent.Status.String()),
		)
		return nil
	}

	if d.metrics != nil {
		d.metrics.IncDispatcherInFlight()
		defer d.metrics.DecDispatcherInFlight()
	}

	if strings.TrimSpace(intent.RecipientUserID) == "" {
		reason := "missing recipientUserId"
		return d.markTerminal(ctx, logger, intent.ID, domain.TerminalUpdate{
			Status:      domain.StatusInvalid,
			ProcessedAt: d.now().UTC(),
			Error:       &reason,
		})
	}

	endpoints, err := d.endpoints.List(ctx, intent.RecipientUserID)
	if err != nil {
		return fmt.Errorf("failed to resolve endpoints: %w", err)
	}
	if len(endpoints) == 0 {
		return d.markTerminal(ctx, logger, intent.ID, domain.TerminalUpdate{
			Status:      domain.StatusNoTokens,
			ProcessedAt: d.now().UTC(),
		})
	}

	tokens := make([]string, 0, len(endpoints))
	for _, endpoint := range endpoints {
		tokens = append(tokens, endpoint.Token)
	}

	if d.rateLimiter != nil {
		if err := d.rateLimiter.Wait(ctx, gatewayResource); err != nil {
			return fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	sendStart := d.now()
	result, err := d.gateway.Send(ctx, tokens, d.buildMessage(intent))
	if d.metrics != nil {
		d.metrics.ObserveGatewaySendDuration(d.now().Sub(sendStart))
	}
	if err != nil {
		// Whole-call failure: no side effects happened, leave the intent
		// pending for redelivery.
		return fmt.Errorf("gateway send failed: %w", err)
	}

	d.pruneInvalidEndpoints(ctx, logger, intent.RecipientUserID, result.Outcomes)

	successCount := result.SuccessCount
	failureCount := result.FailureCount
	return d.markTerminal(ctx, logger, intent.ID, domain.TerminalUpdate{
		Status:       domain.StatusSent,
		ProcessedAt:  d.now().UTC(),
		SuccessCount: &successCount,
		FailureCount: &failureCount,
	})
}

// buildMessage assembles the neutral push payload: fixed title and body, the
// producer's data keys passed through, plus the deep link and a type tag.
func (d *Dispatcher) buildMessage(intent *domain.Intent) gateway.Message {
	data := make(map[string]string, len(intent.Data)+2)
	for k, v := range intent.Data {
		data[k] = v
	}
	data["url"] = d.appURL
	if strings.TrimSpace(data["type"]) == "" {
		data["type"] = defaultMessageType
	}

	return gateway.Message{
		Notification: gateway.Notification{Title: neutralTitle, Body: neutralBody},
		Data:         data,
		Link:         d.appURL,
	}
}

// pruneInvalidEndpoints removes permanently dead endpoints after a send.
// Failures here are logged and swallowed: stale endpoints linger until a
// later failed send prunes them.
func (d *Dispatcher) pruneInvalidEndpoints(
	ctx context.Context,
	logger *zap.Logger,
	userID string,
	outcomes []gateway.EndpointOutcome,
) {
	invalid := gateway.PermanentlyInvalidTokens(outcomes)
	if len(invalid) == 0 {
		return
	}

	if err := d.endpoints.Remove(ctx, userID, invalid); err != nil {
		logger.Warn("failed to prune invalid endpoints",
			zap.Int("count", len(invalid)),
			zap.Error(err),
		)
		return
	}

	if d.metrics != nil {
		d.metrics.AddEndpointsPruned(len(invalid))
	}
	logger.Info("pruned invalid endpoints", zap.Int("count", len(invalid)))
}

func (d *Dispatcher) markTerminal(
	ctx context.Context,
	logger *zap.Logger,
	intentID string,
	update domain.TerminalUpdate,
) error {
	err := d.intents.MarkTerminal(ctx, intentID, update)
	if errors.Is(err, domain.ErrConflict) {
		// Another invocation won the race after our guard check. The
		// record is already terminal, nothing left to do.
		logger.Warn("terminal status already recorded",
			zap.String("intentId", intentID),
			zap.String("status", update.Status.String()),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to record terminal status: %w", err)
	}

	if d.metrics != nil {
		d.metrics.IncIntentProcessed(update.Status.String())
	}
	logger.Info("intent processed",
		zap.String("intentId", intentID),
		zap.String("status", update.Status.String()),
	)
	return nil
}
